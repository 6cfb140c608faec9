package narrative

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/matt0223/house-cup-sub001/internal/model"
	"github.com/matt0223/house-cup-sub001/internal/score"
)

// Config holds LLM generator configuration from environment variables.
// An empty URL or key leaves the generator disabled and the rule-based
// story stands on its own.
type Config struct {
	URL    string
	APIKey string
	Model  string
}

// Generator produces a richer version of the weekly narrative through an
// external LLM service. Strictly best-effort: any failure (network,
// malformed response, missing fields) is logged and discarded, never
// propagated, and never retried. A retried trigger could generate a
// second, inconsistent narrative for the same challenge; the caller's
// write-once guard on stored narratives is the only other safeguard.
type Generator struct {
	config Config
	client *http.Client
	logger *slog.Logger
}

// NewGenerator creates a generator with the given configuration.
func NewGenerator(cfg Config, logger *slog.Logger) *Generator {
	if cfg.Model == "" {
		cfg.Model = "gpt-4o-mini"
	}
	return &Generator{
		config: cfg,
		client: &http.Client{Timeout: 20 * time.Second},
		logger: logger,
	}
}

// Enabled reports whether the generator is configured.
func (g *Generator) Enabled() bool {
	return g.config.URL != "" && g.config.APIKey != ""
}

type generateRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
}

type generateResponse struct {
	Headline   string `json:"headline"`
	Body       string `json:"body"`
	InsightTip string `json:"insight_tip"`
}

// Generate asks the LLM for a narrative of the completed challenge.
// priorTips are insight tips from earlier weeks; a returned tip matching
// one of them is dropped rather than repeated. Returns nil on any failure.
func (g *Generator) Generate(ctx context.Context, ch model.Challenge, story Story, result score.Result, competitors []model.Competitor, priorTips []string) *model.Narrative {
	if !g.Enabled() {
		return nil
	}

	body, err := json.Marshal(generateRequest{
		Model:  g.config.Model,
		Prompt: g.buildPrompt(ch, story, result, competitors),
	})
	if err != nil {
		g.logger.Warn("narrative generation skipped", "error", err)
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.config.URL, bytes.NewReader(body))
	if err != nil {
		g.logger.Warn("narrative generation skipped", "error", err)
		return nil
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+g.config.APIKey)

	resp, err := g.client.Do(req)
	if err != nil {
		g.logger.Warn("narrative generation failed", "error", err)
		return nil
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		g.logger.Warn("narrative generation failed", "status", resp.StatusCode)
		return nil
	}

	var out generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		g.logger.Warn("narrative generation failed", "error", err)
		return nil
	}
	if strings.TrimSpace(out.Headline) == "" || strings.TrimSpace(out.Body) == "" {
		g.logger.Warn("narrative generation failed", "error", "missing required fields")
		return nil
	}

	tip := strings.TrimSpace(out.InsightTip)
	for _, prior := range priorTips {
		if strings.EqualFold(strings.TrimSpace(prior), tip) {
			tip = ""
			break
		}
	}

	return &model.Narrative{
		Headline:   strings.TrimSpace(out.Headline),
		Body:       strings.TrimSpace(out.Body),
		InsightTip: tip,
	}
}

func (g *Generator) buildPrompt(ch model.Challenge, story Story, result score.Result, competitors []model.Competitor) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Write a short, warm weekly recap for a two-person household chore competition (week %s to %s).\n",
		ch.StartDayKey, ch.EndDayKey)
	for _, s := range result.Scores {
		name := s.CompetitorID
		for _, c := range competitors {
			if c.ID == s.CompetitorID {
				name = c.Name
			}
		}
		fmt.Fprintf(&b, "%s scored %d points.\n", name, s.Total)
	}
	if result.IsTie {
		b.WriteString("The week ended in a tie.\n")
	}
	if ch.Prize != "" {
		fmt.Fprintf(&b, "The prize at stake: %s.\n", ch.Prize)
	}
	fmt.Fprintf(&b, "The detected angle was: %s — %s\n", story.Headline, story.Body)
	b.WriteString(`Respond with JSON: {"headline": "...", "body": "...", "insight_tip": "..."} (insight_tip may be empty).`)
	return b.String()
}
