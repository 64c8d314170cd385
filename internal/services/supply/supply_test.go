package supply

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/techzonexmsms-dotcom/gemini-quiz-arena/internal/model"
	"github.com/techzonexmsms-dotcom/gemini-quiz-arena/internal/storage/memory"
	"github.com/techzonexmsms-dotcom/gemini-quiz-arena/internal/testutil"
)

// QuestionHash tests

func TestQuestionHashNormalizes(t *testing.T) {
	base := QuestionHash("What is the capital of France?")

	assert.Equal(t, base, QuestionHash("what is the capital of france"))
	assert.Equal(t, base, QuestionHash("  What   is the capital\tof France?!  "))
	assert.NotEqual(t, base, QuestionHash("What is the capital of Spain?"))
}

func TestQuestionHashIsHexDigest(t *testing.T) {
	hash := QuestionHash("anything")
	assert.Len(t, hash, 64)
}

// Static tests

func TestStaticCyclesThroughList(t *testing.T) {
	store := memory.New()
	clock := clockwork.NewFakeClockAt(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	questions := []StaticQuestion{
		{"Q1?", []string{"a", "b", "c", "d"}, 0},
		{"Q2?", []string{"a", "b", "c", "d"}, 1},
	}
	static := NewStatic(store, clock, questions)
	ctx := context.Background()

	require.NoError(t, static.RequestQuestions(ctx, "room-1"))

	texts := roomQuestionTexts(t, store, "room-1")
	require.Len(t, texts, BatchSize)
	assert.Equal(t, []string{"Q1?", "Q2?", "Q1?", "Q2?", "Q1?"}, texts)
}

func TestStaticRejectsEmptyList(t *testing.T) {
	static := NewStatic(memory.New(), clockwork.NewRealClock(), nil)
	err := static.RequestQuestions(context.Background(), "room-1")
	assert.ErrorIs(t, err, model.ErrNoQuestionsLeft)
}

func TestDefaultQuestionsAreWellFormed(t *testing.T) {
	for _, q := range DefaultQuestions() {
		assert.Len(t, q.Options, model.OptionCount)
		assert.GreaterOrEqual(t, q.CorrectAnswer, 0)
		assert.Less(t, q.CorrectAnswer, model.OptionCount)
		assert.NotEmpty(t, q.Text)
	}
}

func roomQuestionTexts(t *testing.T, store *memory.Storage, roomID model.RoomID) []string {
	t.Helper()
	ctx := context.Background()
	var texts []string
	for {
		q, err := store.NextUnshownQuestion(ctx, roomID)
		if err != nil {
			require.ErrorIs(t, err, model.ErrNoQuestionsLeft)
			return texts
		}
		texts = append(texts, q.Text)
		now := time.Now()
		q.ShownAt = &now
		require.NoError(t, store.SaveRoomQuestion(ctx, q))
	}
}

// parseBatch tests

func TestParseBatchExtractsEmbeddedJSON(t *testing.T) {
	text := "Here are your questions:\n```json\n" + `{
		"questions": [
			{"question": "Q1?", "options": ["a", "b", "c", "d"], "correct_answer": 2, "category": "science"}
		]
	}` + "\n```\nEnjoy!"

	batch, err := parseBatch(text)
	require.NoError(t, err)
	require.Len(t, batch.Questions, 1)
	assert.Equal(t, "Q1?", batch.Questions[0].Question)
	assert.Equal(t, 2, batch.Questions[0].CorrectAnswer)
}

func TestParseBatchDropsMalformedEntries(t *testing.T) {
	text := `{
		"questions": [
			{"question": "Good?", "options": ["a", "b", "c", "d"], "correct_answer": 0},
			{"question": "Too few options?", "options": ["a", "b"], "correct_answer": 0},
			{"question": "Bad index?", "options": ["a", "b", "c", "d"], "correct_answer": 9},
			{"question": "   ", "options": ["a", "b", "c", "d"], "correct_answer": 0}
		]
	}`

	batch, err := parseBatch(text)
	require.NoError(t, err)
	require.Len(t, batch.Questions, 1)
	assert.Equal(t, "Good?", batch.Questions[0].Question)
}

func TestParseBatchErrors(t *testing.T) {
	_, err := parseBatch("no json here")
	assert.Error(t, err)

	_, err = parseBatch(`{"questions": []}`)
	assert.Error(t, err)

	_, err = parseBatch(`{"questions": [{"question": "Q?", "options": ["a"], "correct_answer": 0}]}`)
	assert.Error(t, err)
}

// buildPrompt tests

func TestBuildPromptIncludesRecentQuestions(t *testing.T) {
	prompt := buildPrompt([]*model.PoolQuestion{
		{Text: "What is the tallest mountain?"},
		{Text: "Who painted the Mona Lisa?"},
	})

	assert.Contains(t, prompt, "What is the tallest mountain?")
	assert.Contains(t, prompt, "Who painted the Mona Lisa?")
	assert.Contains(t, prompt, fmt.Sprintf("Create %d", BatchSize))
}

func TestBuildPromptWithoutHistory(t *testing.T) {
	prompt := buildPrompt(nil)
	assert.NotContains(t, prompt, "Do not generate")
}

// Generator tests

type GeneratorSuite struct {
	suite.Suite
	storage   *memory.Storage
	clock     *clockwork.FakeClock
	server    *httptest.Server
	generator *Generator
	ctx       context.Context

	requests  int
	responder func() (int, string)
}

func TestGeneratorSuite(t *testing.T) {
	suite.Run(t, new(GeneratorSuite))
}

func (s *GeneratorSuite) SetupTest() {
	s.storage = memory.New()
	s.clock = clockwork.NewFakeClockAt(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	s.ctx = context.Background()
	s.requests = 0
	s.responder = func() (int, string) {
		return http.StatusOK, geminiResponse(`{
			"questions": [
				{"question": "Which planet is closest to the sun?", "options": ["Venus", "Mercury", "Earth", "Mars"], "correct_answer": 1, "category": "science"},
				{"question": "Who wrote Hamlet?", "options": ["Dickens", "Shakespeare", "Austen", "Tolstoy"], "correct_answer": 1, "category": "literature"}
			]
		}`)
	}

	s.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.requests++
		status, body := s.responder()
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))

	s.generator = NewGenerator(s.storage, GeneratorConfig{
		Endpoint: s.server.URL,
		APIKey:   "test-key",
	}, s.clock, testutil.NopLogger())
}

func (s *GeneratorSuite) TearDownTest() {
	s.server.Close()
}

// geminiResponse wraps generated text in the generateContent response shape
func geminiResponse(text string) string {
	payload := map[string]any{
		"candidates": []map[string]any{
			{"content": map[string]any{"parts": []map[string]any{{"text": text}}}},
		},
	}
	data, _ := json.Marshal(payload)
	return string(data)
}

func (s *GeneratorSuite) TestRequestQuestionsStoresRoomQuestions() {
	err := s.generator.RequestQuestions(s.ctx, "room-1")
	s.Require().NoError(err)
	s.Equal(1, s.requests)

	first, err := s.storage.NextUnshownQuestion(s.ctx, "room-1")
	s.Require().NoError(err)
	s.Equal("Which planet is closest to the sun?", first.Text)
	s.Equal(1, first.CorrectAnswer)
	s.False(first.IsActive)
}

func (s *GeneratorSuite) TestRequestQuestionsFillsPoolAndUsage() {
	err := s.generator.RequestQuestions(s.ctx, "room-1")
	s.Require().NoError(err)

	pool, err := s.storage.ListRecentPoolQuestions(s.ctx, 10)
	s.Require().NoError(err)
	s.Len(pool, 2)

	usage, err := s.storage.GetQuestionUsage(s.ctx, QuestionHash("Who wrote Hamlet?"))
	s.Require().NoError(err)
	s.Equal(1, usage.UsageCount)
	s.True(s.clock.Now().Equal(usage.LastUsedAt))
}

func (s *GeneratorSuite) TestRefillPoolStoresPoolWithoutRoomRows() {
	err := s.generator.RefillPool(s.ctx)
	s.Require().NoError(err)
	s.Equal(1, s.requests)

	pool, err := s.storage.ListRecentPoolQuestions(s.ctx, 10)
	s.Require().NoError(err)
	s.Len(pool, 2)

	usage, err := s.storage.GetQuestionUsage(s.ctx, QuestionHash("Who wrote Hamlet?"))
	s.Require().NoError(err)
	s.Equal(1, usage.UsageCount)

	// No room gained questions from a pool refill
	_, err = s.storage.NextUnshownQuestion(s.ctx, "room-1")
	s.ErrorIs(err, model.ErrNoQuestionsLeft)
}

func (s *GeneratorSuite) TestRepeatedGenerationIncrementsUsage() {
	s.Require().NoError(s.generator.RequestQuestions(s.ctx, "room-1"))
	s.Require().NoError(s.generator.RequestQuestions(s.ctx, "room-2"))

	usage, err := s.storage.GetQuestionUsage(s.ctx, QuestionHash("Who wrote Hamlet?"))
	s.Require().NoError(err)
	s.Equal(2, usage.UsageCount)
}

func (s *GeneratorSuite) TestEndpointErrorIsSurfaced() {
	s.responder = func() (int, string) {
		return http.StatusTooManyRequests, `{"error": "quota exceeded"}`
	}

	err := s.generator.RequestQuestions(s.ctx, "room-1")
	s.Error(err)
	s.Contains(err.Error(), "429")
}

func (s *GeneratorSuite) TestEmptyCandidateListIsAnError() {
	s.responder = func() (int, string) {
		return http.StatusOK, `{"candidates": []}`
	}

	err := s.generator.RequestQuestions(s.ctx, "room-1")
	s.Error(err)
}

func (s *GeneratorSuite) TestUnparseableTextIsAnError() {
	s.responder = func() (int, string) {
		return http.StatusOK, geminiResponse("sorry, I cannot help with that")
	}

	err := s.generator.RequestQuestions(s.ctx, "room-1")
	s.Error(err)
}
