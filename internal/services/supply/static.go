package supply

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"github.com/techzonexmsms-dotcom/gemini-quiz-arena/internal/model"
	"github.com/techzonexmsms-dotcom/gemini-quiz-arena/internal/storage"
)

// Static serves question batches from a fixed list, cycling when exhausted.
// Used for offline play and tests.
type Static struct {
	storage   storage.Storage
	clock     clockwork.Clock
	questions []StaticQuestion

	mu   sync.Mutex
	next int
}

// StaticQuestion is one entry in a static question list
type StaticQuestion struct {
	Text          string
	Options       []string
	CorrectAnswer int
}

// NewStatic creates a supply backed by a fixed question list
func NewStatic(store storage.Storage, clk clockwork.Clock, questions []StaticQuestion) *Static {
	return &Static{
		storage:   store,
		clock:     clk,
		questions: questions,
	}
}

var _ Supply = (*Static)(nil)

// DefaultQuestions is a small built-in list for offline play
func DefaultQuestions() []StaticQuestion {
	return []StaticQuestion{
		{"Which planet is known as the Red Planet?", []string{"Venus", "Mars", "Jupiter", "Mercury"}, 1},
		{"What is the largest ocean on Earth?", []string{"Atlantic", "Indian", "Arctic", "Pacific"}, 3},
		{"How many continents are there?", []string{"Five", "Six", "Seven", "Eight"}, 2},
		{"What gas do plants absorb from the atmosphere?", []string{"Oxygen", "Nitrogen", "Carbon dioxide", "Hydrogen"}, 2},
		{"Which element has the chemical symbol 'O'?", []string{"Gold", "Oxygen", "Osmium", "Iron"}, 1},
		{"What is the capital of Japan?", []string{"Kyoto", "Osaka", "Tokyo", "Nagoya"}, 2},
		{"How many sides does a hexagon have?", []string{"Five", "Six", "Seven", "Eight"}, 1},
		{"Which animal is the tallest in the world?", []string{"Elephant", "Giraffe", "Ostrich", "Camel"}, 1},
		{"What is the smallest prime number?", []string{"Zero", "One", "Two", "Three"}, 2},
		{"In which direction does the sun rise?", []string{"North", "South", "East", "West"}, 2},
	}
}

// RequestQuestions writes the next BatchSize questions from the list as
// RoomQuestion rows for the room
func (s *Static) RequestQuestions(ctx context.Context, roomID model.RoomID) error {
	if len(s.questions) == 0 {
		return model.ErrNoQuestionsLeft
	}

	now := s.clock.Now()
	for i := 0; i < BatchSize; i++ {
		s.mu.Lock()
		q := s.questions[s.next%len(s.questions)]
		s.next++
		s.mu.Unlock()

		question := &model.RoomQuestion{
			ID:            model.QuestionID(uuid.NewString()),
			RoomID:        roomID,
			Text:          q.Text,
			Options:       q.Options,
			CorrectAnswer: q.CorrectAnswer,
			Order:         i,
			CreatedAt:     now,
		}
		if err := s.storage.SaveRoomQuestion(ctx, question); err != nil {
			return err
		}
	}
	return nil
}
