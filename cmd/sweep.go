package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/designsnack/leadharvest/internal/app"
	"github.com/designsnack/leadharvest/internal/session"
)

func newSweepCmd() *cobra.Command {
	var sessionDays int

	cmd := &cobra.Command{
		Use:   "sweep",
		Short: "Remove expired cache entries and stale sessions once.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runSweep(cmd.Context(), sessionDays)
		},
	}
	cmd.Flags().IntVar(&sessionDays, "session-days", 0,
		"also delete file-backed sessions older than this many days (0 disables)")
	return cmd
}

func runSweep(ctx context.Context, sessionDays int) error {
	a, err := app.New(ctx, cfgFile)
	if err != nil {
		return err
	}
	defer a.Close()

	removed, err := a.Cache.Sweep(ctx)
	if err != nil {
		return fmt.Errorf("cache sweep: %w", err)
	}
	fmt.Printf("removed %d expired cache entries\n", removed)

	if sessionDays > 0 {
		store, ok := a.Sessions.(*session.FileStore)
		if !ok {
			return fmt.Errorf("session cleanup only supports the file backend")
		}
		deleted, err := store.CleanupOlderThan(sessionDays, a.Clock.Now())
		if err != nil {
			return fmt.Errorf("session cleanup: %w", err)
		}
		fmt.Printf("removed %d stale sessions\n", deleted)
	}
	return nil
}
