// Package analyst asks a Gemini model for grounded market commentary and
// records each analysis for the requesting user.
package analyst

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"google.golang.org/genai"

	"github.com/rickgao/tradergrail/internal/config"
	"github.com/rickgao/tradergrail/internal/model"
)

// ErrMalformedResponse is returned when the model reply is not a usable analysis.
var ErrMalformedResponse = errors.New("malformed model response")

// InvalidRequestError reports missing or bad input.
type InvalidRequestError struct {
	Message string
}

func (e *InvalidRequestError) Error() string {
	return e.Message
}

// generator is the subset of *genai.Models used here.
type generator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// AnalysisStore persists analyses.
type AnalysisStore interface {
	InsertAnalysis(ctx context.Context, a model.AnalysisRecord) error
}

// Request is one analysis request.
type Request struct {
	Symbol       string  `json:"symbol"`
	CurrentPrice float64 `json:"currentPrice"`
	Context      string  `json:"context,omitempty"`
}

// Analyst generates market analyses.
type Analyst struct {
	gen     generator
	store   AnalysisStore
	model   string
	timeout time.Duration
	logger  *slog.Logger
	now     func() time.Time
}

// NewClient creates a Gemini API client.
func NewClient(ctx context.Context, cfg config.AIConfig) (*genai.Client, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}
	return client, nil
}

// New creates an Analyst backed by client. store may be nil to skip persistence.
func New(client *genai.Client, store AnalysisStore, cfg config.AIConfig, logger *slog.Logger) *Analyst {
	return newAnalyst(client.Models, store, cfg, logger)
}

func newAnalyst(gen generator, store AnalysisStore, cfg config.AIConfig, logger *slog.Logger) *Analyst {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Model == "" {
		cfg.Model = config.DefaultAIModel
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = config.DefaultAITimeout
	}
	return &Analyst{
		gen:     gen,
		store:   store,
		model:   cfg.Model,
		timeout: cfg.Timeout,
		logger:  logger,
		now:     time.Now,
	}
}

// Analyze produces an analysis of req.Symbol for userID. A failure to
// persist the result is logged and does not fail the call.
func (a *Analyst) Analyze(ctx context.Context, userID string, req Request) (model.Analysis, error) {
	symbol := strings.ToUpper(strings.TrimSpace(req.Symbol))
	if symbol == "" || req.CurrentPrice <= 0 {
		return model.Analysis{}, &InvalidRequestError{Message: "Missing required fields: symbol, currentPrice"}
	}

	genCtx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	resp, err := a.gen.GenerateContent(genCtx, a.model,
		genai.Text(analysisPrompt(symbol, req.CurrentPrice, req.Context)),
		&genai.GenerateContentConfig{
			Tools: []*genai.Tool{{GoogleSearch: &genai.GoogleSearch{}}},
		},
	)
	if err != nil {
		return model.Analysis{}, fmt.Errorf("generate analysis %s: %w", symbol, err)
	}

	analysis, err := parseAnalysis(resp.Text())
	if err != nil {
		return model.Analysis{}, err
	}
	analysis.Sources = mergeSources(analysis.Sources, groundingSources(resp))

	// Persist on the caller's context, not the generation deadline.
	if a.store != nil {
		rec := model.AnalysisRecord{
			ID:              uuid.New(),
			UserID:          userID,
			Symbol:          symbol,
			PriceAtAnalysis: req.CurrentPrice,
			Analysis:        analysis,
			Metadata:        map[string]any{"context": req.Context, "model": a.model},
			CreatedAt:       a.now(),
		}
		if err := a.store.InsertAnalysis(ctx, rec); err != nil {
			a.logger.Error("failed to store analysis", "symbol", symbol, "user_id", userID, "error", err)
		}
	}

	return analysis, nil
}

// groundingSources returns the web sources the model cited, if any.
func groundingSources(resp *genai.GenerateContentResponse) []string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].GroundingMetadata == nil {
		return nil
	}
	var out []string
	for _, chunk := range resp.Candidates[0].GroundingMetadata.GroundingChunks {
		if chunk == nil || chunk.Web == nil {
			continue
		}
		if chunk.Web.Title != "" {
			out = append(out, chunk.Web.Title)
		} else if chunk.Web.URI != "" {
			out = append(out, chunk.Web.URI)
		}
	}
	return out
}

func mergeSources(a, b []string) []string {
	seen := make(map[string]bool, len(a)+len(b))
	out := make([]string, 0, len(a)+len(b))
	for _, s := range append(append([]string{}, a...), b...) {
		s = strings.TrimSpace(s)
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return out
}
