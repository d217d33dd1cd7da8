// Package outreach drafts personalized cold emails for discovered contacts.
package outreach

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/designsnack/leadharvest/internal/leads"
	"github.com/designsnack/leadharvest/internal/metrics"
)

const systemPrompt = "You are a professional business development expert writing personalized " +
	"outreach emails for DESIGNSNACK, a design subscription service. Write compelling, " +
	"personalized emails that feel genuine and not salesy."

// Config holds the drafter settings.
type Config struct {
	APIKey    string
	BaseURL   string
	Model     string
	MaxTokens int
}

// Draft is one generated outreach email, ready for manual review.
type Draft struct {
	ID         string              `json:"id"`
	Timestamp  time.Time           `json:"timestamp"`
	Contact    leads.ContactRecord `json:"contact"`
	Job        leads.JobRecord     `json:"job"`
	SearchTerm string              `json:"searchTerm"`
	Content    string              `json:"emailContent"`
	Status     string              `json:"status"`
}

// completer is the slice of the OpenAI client the drafter uses.
type completer interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// Drafter generates email drafts through a chat-completion model.
type Drafter struct {
	client completer
	model  string
	tokens int
	clock  leads.Clock
	logger *zap.Logger
}

// New builds a Drafter. The API key is required.
func New(cfg Config, clock leads.Clock, logger *zap.Logger) (*Drafter, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("outreach: api key is required")
	}
	if cfg.Model == "" {
		cfg.Model = openai.GPT4oMini
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = 500
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	return &Drafter{
		client: openai.NewClientWithConfig(clientCfg),
		model:  cfg.Model,
		tokens: cfg.MaxTokens,
		clock:  clock,
		logger: logger,
	}, nil
}

// Generate drafts one email for the contact in the context of the job posting.
func (d *Drafter) Generate(ctx context.Context, job leads.JobRecord, contact leads.ContactRecord, searchTerm string) (Draft, error) {
	d.logger.Info("generating outreach email",
		zap.String("contact", contact.Email),
		zap.String("company", job.Company))
	metrics.ProviderCalls.WithLabelValues("openai").Inc()

	resp, err := d.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: d.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: emailPrompt(job, contact, searchTerm)},
		},
		MaxTokens:   d.tokens,
		Temperature: 0.7,
	})
	if err != nil {
		return Draft{}, fmt.Errorf("draft email: %w", err)
	}
	if len(resp.Choices) == 0 {
		return Draft{}, fmt.Errorf("draft email: model returned no choices")
	}

	now := d.clock.Now()
	return Draft{
		ID:         fmt.Sprintf("draft_%d", now.UnixMilli()),
		Timestamp:  now,
		Contact:    contact,
		Job:        job,
		SearchTerm: searchTerm,
		Content:    strings.TrimSpace(resp.Choices[0].Message.Content),
		Status:     "draft",
	}, nil
}

// emailPrompt renders the drafting brief for one contact and job posting.
func emailPrompt(job leads.JobRecord, contact leads.ContactRecord, searchTerm string) string {
	name := contact.FirstName
	if name == "" {
		name = "there"
	}
	position := contact.Position
	if position == "" {
		position = "team member"
	}
	location := job.Location
	if location == "" {
		location = "your location"
	}

	return fmt.Sprintf(`Write a personalized cold email for the following scenario:

SENDER (Me):
- Thomas from DESIGNSNACK
- Offering design subscription services (UX/UI design)
- Professional, friendly, direct approach
- Focus on helping companies scale their design needs

RECIPIENT:
- Name: %s
- Position: %s
- Company: %s

JOB CONTEXT:
- Job Title: %s
- Location: %s
- Workload: %s
- Original Search Term: "%s"

REQUIREMENTS:
1. Professional yet friendly tone
2. Keep it concise (3-4 short paragraphs max)
3. Reference the specific job posting naturally
4. Personalize based on their role (%s)
5. Clearly explain DESIGNSNACK's value proposition
6. Include a soft call-to-action
7. Don't be overly salesy
8. Make it feel genuine and researched

DESIGNSNACK VALUE PROPOSITION:
- Design subscription service for UX/UI design
- Perfect for companies that need consistent design work
- More cost-effective than hiring full-time designers
- Fast turnaround, professional quality
- Ideal for startups and growing companies

EMAIL STRUCTURE:
- Subject line
- Greeting with their name
- Brief connection to the job posting
- Value proposition tailored to their needs
- Soft call-to-action
- Professional signature

Write the complete email including subject line.
`, name, position, job.Company, job.Title, location, job.Workload, searchTerm, position)
}
