package service

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"finhealth/internal/models"
	"finhealth/pkg/config"

	"github.com/Role1776/gigago"
	"go.uber.org/zap"
)

const maxAdvisorTips = 3

func buildSystemInstruction() string {
	return `You are a financial advisor for small and medium enterprises in India.
You receive a short summary of a business health assessment and reply with
practical bookkeeping and automation tips.

Rules:
- Reply with at most three tips, one per line, each starting with "- ".
- Each tip is a single sentence under 25 words.
- Write the tips in the language requested by the user.
- Do not repeat figures back, do not add greetings or closing remarks.`
}

// completer is the slice of the GigaChat client the advisor needs.
type completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
	Close() error
}

type gigaChatCompleter struct {
	client *gigago.Client
	model  *gigago.GenerativeModel
}

func (g *gigaChatCompleter) Complete(ctx context.Context, prompt string) (string, error) {
	messages := []gigago.Message{
		{Role: gigago.RoleUser, Content: prompt},
	}

	resp, err := g.model.Generate(ctx, messages)
	if err != nil {
		return "", fmt.Errorf("failed to generate response: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no response from LLM")
	}
	return resp.Choices[0].Message.Content, nil
}

func (g *gigaChatCompleter) Close() error {
	if g.client != nil {
		g.client.Close()
	}
	return nil
}

// LLMService adds narrative automation tips to a finished report.
type LLMService struct {
	llm    completer
	logger *zap.Logger
}

func NewLLMService(cfg *config.GigaChatConfig, logger *zap.Logger) (*LLMService, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("GIGACHAT_API_KEY is not set")
	}

	opts := []gigago.Option{
		gigago.WithCustomScope(cfg.Scope),
	}
	if cfg.InsecureSkipVerify {
		opts = append(opts, gigago.WithCustomInsecureSkipVerify(true))
		logger.Warn("GigaChat TLS certificate verification is disabled")
	}

	client, err := gigago.NewClient(context.Background(), cfg.APIKey, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create GigaChat client: %w", err)
	}

	model := client.GenerativeModel(cfg.Model)
	model.SystemInstruction = buildSystemInstruction()
	model.Temperature = 0.3

	logger.Info("GigaChat advisor enabled", zap.String("model", cfg.Model))
	return newLLMService(&gigaChatCompleter{client: client, model: model}, logger), nil
}

func newLLMService(llm completer, logger *zap.Logger) *LLMService {
	return &LLMService{llm: llm, logger: logger}
}

func advisorPrompt(r *models.AssessmentResult) string {
	return fmt.Sprintf(`Language: %s
Industry: %s
Health score: %d/100 (grade %s)
Liquidity ratio: %.2f
Working capital cycle: %d days
Risk drivers: %s

Suggest up to three bookkeeping or automation tips for this business.`,
		r.Language,
		r.Industry,
		r.Score,
		r.CreditRisk.Grade,
		r.CreditRisk.LiquidityRatio,
		r.WorkingCapital.CycleDays,
		strings.Join(r.CreditRisk.RiskDrivers, "; "),
	)
}

var tipPrefix = regexp.MustCompile(`^(\d+[\.\)]|[-*•])(\s+|$)`)

// parseTips keeps list items from the reply, or the first non-empty lines
// when the model ignored the list format.
func parseTips(reply string) []string {
	var tips []string
	for _, line := range strings.Split(reply, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		line = strings.TrimSpace(tipPrefix.ReplaceAllString(line, ""))
		if line == "" {
			continue
		}
		tips = append(tips, sanitizeUTF8(line))
		if len(tips) == maxAdvisorTips {
			break
		}
	}
	return tips
}

// Advise appends model-written tips to r.Bookkeeping.AutomationTips. On error
// r is left untouched.
func (s *LLMService) Advise(ctx context.Context, r *models.AssessmentResult) error {
	if r == nil || r.Empty {
		return nil
	}

	reply, err := s.llm.Complete(ctx, advisorPrompt(r))
	if err != nil {
		return err
	}

	tips := parseTips(reply)
	r.Bookkeeping.AutomationTips = append(r.Bookkeeping.AutomationTips, tips...)

	s.logger.Info("Advisor tips added",
		zap.String("assessment_id", r.ID),
		zap.Int("count", len(tips)),
	)
	return nil
}

func (s *LLMService) Close() error {
	return s.llm.Close()
}
