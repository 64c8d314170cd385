package factory

import (
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/techzonexmsms-dotcom/gemini-quiz-arena/internal/dependencies/mocks"
	"github.com/techzonexmsms-dotcom/gemini-quiz-arena/internal/services/supply"
	"github.com/techzonexmsms-dotcom/gemini-quiz-arena/internal/storage/memory"
	"github.com/techzonexmsms-dotcom/gemini-quiz-arena/internal/testutil"
)

// TestApp extends App with test-specific helpers
type TestApp struct {
	*App

	// Mocks for test control
	FakeClock  *clockwork.FakeClock
	MockRandom *mocks.MockRandom
}

// NewTestApp creates an App configured for testing with a fake clock, a
// scripted random source, in-memory storage, and a static question supply
func NewTestApp() *TestApp {
	store := memory.New()
	fakeClock := clockwork.NewFakeClockAt(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	mockRandom := mocks.NewMockRandom()
	logger := testutil.NopLogger()

	questionSupply := supply.NewStatic(store, fakeClock, supply.DefaultQuestions())
	app := newWithDependencies(store, questionSupply, fakeClock, mockRandom, logger)

	return &TestApp{
		App:        app,
		FakeClock:  fakeClock,
		MockRandom: mockRandom,
	}
}
