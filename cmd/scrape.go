package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/designsnack/leadharvest/internal/app"
)

func newScrapeCmd() *cobra.Command {
	var enrich bool
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "scrape <search term>",
		Short: "Run one search from the command line.",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScrape(cmd.Context(), strings.Join(args, " "), enrich, jsonOut)
		},
	}
	cmd.Flags().BoolVar(&enrich, "enrich", false, "discover contacts for each extracted company")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "print the full session as JSON")
	return cmd
}

func runScrape(parent context.Context, term string, enrich, jsonOut bool) error {
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfgFile)
	if err != nil {
		return err
	}
	defer a.Close()

	p, rend, err := a.NewPipeline()
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := rend.Close(ctx); closeErr != nil {
			a.Logger.Warn("renderer close failed", zap.Error(closeErr))
		}
	}()

	sess, err := p.Run(ctx, term)
	if err != nil {
		return err
	}

	if jsonOut {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(sess)
	}

	fmt.Printf("session %s: %d jobs across %q\n", sess.ID, sess.TotalResults, term)
	for _, job := range sess.Jobs {
		fmt.Printf("  [%s] %s at %s (%s)\n", job.HotnessLevel, job.Title, job.Company, job.Location)
	}

	if enrich {
		for _, result := range p.EnrichAll(ctx, sess.Jobs, term) {
			origin := "live"
			if result.Cached {
				origin = "cached"
			}
			fmt.Printf("  %s -> %s (%s, %d contacts, %s)\n",
				result.Company, result.Domain, result.Confidence, len(result.Contacts), origin)
		}
	}
	return nil
}
