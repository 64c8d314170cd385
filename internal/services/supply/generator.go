package supply

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"github.com/techzonexmsms-dotcom/gemini-quiz-arena/internal/model"
	"github.com/techzonexmsms-dotcom/gemini-quiz-arena/internal/storage"
)

const (
	// DefaultEndpoint is the Gemini generateContent endpoint
	DefaultEndpoint = "https://generativelanguage.googleapis.com/v1beta/models/gemini-1.5-flash:generateContent"

	// BatchSize is the number of questions requested per generation call
	BatchSize = 5

	// recentQuestionLimit caps how many recent pool questions are fed back
	// into the prompt to avoid repetition
	recentQuestionLimit = 20
)

// GeneratorConfig holds settings for the LLM-backed question generator
type GeneratorConfig struct {
	// Endpoint is the generateContent URL; DefaultEndpoint if empty
	Endpoint string
	// APIKey authenticates against the endpoint
	APIKey string
	// HTTPClient is the client used for generation calls; http.DefaultClient
	// if nil
	HTTPClient *http.Client
}

// Generator authors fresh question batches through an LLM endpoint and
// records them in the store: the global pool (with usage hashes for
// deduplication) plus per-room RoomQuestion rows.
type Generator struct {
	storage storage.Storage
	cfg     GeneratorConfig
	clock   clockwork.Clock
	logger  *slog.Logger
}

// NewGenerator creates a new LLM-backed question generator
func NewGenerator(store storage.Storage, cfg GeneratorConfig, clk clockwork.Clock, logger *slog.Logger) *Generator {
	if cfg.Endpoint == "" {
		cfg.Endpoint = DefaultEndpoint
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = http.DefaultClient
	}
	return &Generator{
		storage: store,
		cfg:     cfg,
		clock:   clk,
		logger:  logger,
	}
}

var _ Supply = (*Generator)(nil)

// generatedQuestion is the shape the model is prompted to return
type generatedQuestion struct {
	Question      string   `json:"question"`
	Options       []string `json:"options"`
	CorrectAnswer int      `json:"correct_answer"`
	Category      string   `json:"category"`
}

type generatedBatch struct {
	Questions []generatedQuestion `json:"questions"`
}

// RequestQuestions authors a fresh batch of questions for the room. New
// RoomQuestion rows appear in the store before this returns; callers
// re-query rather than consuming a result.
func (g *Generator) RequestQuestions(ctx context.Context, roomID model.RoomID) error {
	batch, err := g.author(ctx)
	if err != nil {
		return err
	}
	return g.storeBatch(ctx, roomID, batch)
}

// RefillPool authors a fresh batch into the global pool without attaching it
// to any room. Run from the pool maintenance job to keep the shared pool
// stocked ahead of demand.
func (g *Generator) RefillPool(ctx context.Context) error {
	batch, err := g.author(ctx)
	if err != nil {
		return err
	}
	if err := g.storePool(ctx, batch); err != nil {
		return fmt.Errorf("storing pool questions: %w", err)
	}

	g.logger.Info("question pool refilled", slog.Int("count", len(batch.Questions)))
	return nil
}

// author generates and parses one batch, feeding recent pool questions into
// the prompt so the model avoids repeats
func (g *Generator) author(ctx context.Context) (*generatedBatch, error) {
	recent, err := g.storage.ListRecentPoolQuestions(ctx, recentQuestionLimit)
	if err != nil {
		g.logger.Warn("could not load recent questions for dedup prompt",
			slog.String("error", err.Error()))
		recent = nil
	}

	text, err := g.generate(ctx, buildPrompt(recent))
	if err != nil {
		return nil, fmt.Errorf("question generation: %w", err)
	}

	batch, err := parseBatch(text)
	if err != nil {
		return nil, fmt.Errorf("question generation: %w", err)
	}
	return batch, nil
}

// generate calls the LLM endpoint and returns the generated text
func (g *Generator) generate(ctx context.Context, prompt string) (string, error) {
	reqBody := map[string]any{
		"contents": []map[string]any{
			{"parts": []map[string]any{{"text": prompt}}},
		},
		"generationConfig": map[string]any{
			"temperature":     0.8,
			"topK":            40,
			"topP":            0.95,
			"maxOutputTokens": 2048,
		},
	}

	data, err := json.Marshal(reqBody)
	if err != nil {
		return "", err
	}

	url := g.cfg.Endpoint
	if g.cfg.APIKey != "" {
		url = fmt.Sprintf("%s?key=%s", url, g.cfg.APIKey)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.cfg.HTTPClient.Do(req)
	if err != nil {
		return "", err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return "", fmt.Errorf("llm endpoint returned %d: %s", resp.StatusCode, string(body))
	}

	var llmResp struct {
		Candidates []struct {
			Content struct {
				Parts []struct {
					Text string `json:"text"`
				} `json:"parts"`
			} `json:"content"`
		} `json:"candidates"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&llmResp); err != nil {
		return "", err
	}

	if len(llmResp.Candidates) == 0 || len(llmResp.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("llm response contained no content")
	}
	return llmResp.Candidates[0].Content.Parts[0].Text, nil
}

// parseBatch extracts the questions JSON object embedded in the generated text
func parseBatch(text string) (*generatedBatch, error) {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start == -1 || end == -1 || end <= start {
		return nil, fmt.Errorf("no JSON object found in generated text")
	}

	var batch generatedBatch
	if err := json.Unmarshal([]byte(text[start:end+1]), &batch); err != nil {
		return nil, fmt.Errorf("parsing generated questions: %w", err)
	}
	if len(batch.Questions) == 0 {
		return nil, fmt.Errorf("generated batch contained no questions")
	}

	// Drop malformed entries rather than failing the whole batch
	valid := batch.Questions[:0]
	for _, q := range batch.Questions {
		if len(q.Options) == model.OptionCount &&
			q.CorrectAnswer >= 0 && q.CorrectAnswer < model.OptionCount &&
			strings.TrimSpace(q.Question) != "" {
			valid = append(valid, q)
		}
	}
	if len(valid) == 0 {
		return nil, fmt.Errorf("generated batch contained no valid questions")
	}
	batch.Questions = valid
	return &batch, nil
}

// storeBatch records the batch: pool questions and usage hashes for global
// deduplication, then the room-scoped question rows the coordinator selects
// from. A pool write failure does not block the room rows.
func (g *Generator) storeBatch(ctx context.Context, roomID model.RoomID, batch *generatedBatch) error {
	if err := g.storePool(ctx, batch); err != nil {
		g.logger.Warn("failed to store pool questions", slog.String("error", err.Error()))
	}

	now := g.clock.Now()
	for i, q := range batch.Questions {
		question := &model.RoomQuestion{
			ID:            model.QuestionID(uuid.NewString()),
			RoomID:        roomID,
			Text:          q.Question,
			Options:       q.Options,
			CorrectAnswer: q.CorrectAnswer,
			Order:         i,
			CreatedAt:     now,
		}
		if err := g.storage.SaveRoomQuestion(ctx, question); err != nil {
			return fmt.Errorf("storing room question: %w", err)
		}
	}

	g.logger.Info("question batch stored",
		slog.String("room_id", string(roomID)),
		slog.Int("count", len(batch.Questions)),
	)
	return nil
}

// storePool records the batch in the global pool and bumps the usage hash of
// every question in it. Usage write failures are logged and skipped; the
// hashes only steer deduplication.
func (g *Generator) storePool(ctx context.Context, batch *generatedBatch) error {
	now := g.clock.Now()

	poolQuestions := make([]*model.PoolQuestion, 0, len(batch.Questions))
	for _, q := range batch.Questions {
		category := q.Category
		if category == "" {
			category = "general"
		}
		poolQuestions = append(poolQuestions, &model.PoolQuestion{
			ID:            model.PoolQuestionID(uuid.NewString()),
			Text:          q.Question,
			Options:       q.Options,
			CorrectAnswer: q.CorrectAnswer,
			Category:      category,
			CreatedAt:     now,
		})
	}
	if err := g.storage.SavePoolQuestions(ctx, poolQuestions); err != nil {
		return err
	}

	for _, q := range batch.Questions {
		hash := QuestionHash(q.Question)
		usage, err := g.storage.GetQuestionUsage(ctx, hash)
		if err != nil {
			usage = &model.QuestionUsage{Hash: hash, Text: q.Question}
		}
		usage.UsageCount++
		usage.LastUsedAt = now
		if err := g.storage.SaveQuestionUsage(ctx, usage); err != nil {
			g.logger.Warn("failed to record question usage",
				slog.String("hash", hash),
				slog.String("error", err.Error()))
		}
	}
	return nil
}

// buildPrompt asks for a batch of four-option questions, listing recent
// questions the model must not repeat
func buildPrompt(recent []*model.PoolQuestion) string {
	var b strings.Builder
	fmt.Fprintf(&b, `You are a question generator for a general-knowledge trivia game. Create %d varied and interesting questions.

Requirements:
- Questions must be fun and suitable for all ages
- Cover varied topics: science, history, geography, sports, art, technology
- Each question has exactly %d options
- Exactly one option is correct
- Medium difficulty

Return the result as JSON exactly as follows:
{
  "questions": [
    {
      "question": "Question text here?",
      "options": ["First option", "Second option", "Third option", "Fourth option"],
      "correct_answer": 0,
      "category": "science"
    }
  ]
}

where correct_answer is the index of the correct option (0 for the first, 1 for the second, and so on).
`, BatchSize, model.OptionCount)

	if len(recent) > 0 {
		b.WriteString("\nDo not generate any of these questions or ones similar to them:\n")
		for i, q := range recent {
			fmt.Fprintf(&b, "%d. %s\n", i+1, q.Text)
		}
	}
	return b.String()
}
