package response

import (
	"time"

	"github.com/techzonexmsms-dotcom/gemini-quiz-arena/internal/model"
)

// Room represents a room in API responses
type Room struct {
	ID                string     `json:"id"`
	Code              string     `json:"code"`
	Status            string     `json:"status"`
	MaxPlayers        int        `json:"max_players"`
	CurrentPlayers    int        `json:"current_players"`
	HostID            *string    `json:"host_id"`
	CurrentQuestionID *string    `json:"current_question_id"`
	QuestionStartTime *time.Time `json:"question_start_time"`
	WinnerID          *string    `json:"winner_id"`
	CreatedAt         time.Time  `json:"created_at"`
}

// RoomFromModel converts a model.Room to a response Room
func RoomFromModel(r *model.Room) Room {
	return Room{
		ID:                string(r.ID),
		Code:              string(r.Code),
		Status:            string(r.Status),
		MaxPlayers:        r.MaxPlayers,
		CurrentPlayers:    r.CurrentPlayers,
		HostID:            playerIDPtr(r.HostID),
		CurrentQuestionID: questionIDPtr(r.CurrentQuestionID),
		QuestionStartTime: r.QuestionStartTime,
		WinnerID:          playerIDPtr(r.WinnerID),
		CreatedAt:         r.CreatedAt,
	}
}

// Player represents a player in API responses
type Player struct {
	ID       string    `json:"id"`
	Name     string    `json:"name"`
	IsHost   bool      `json:"is_host"`
	Score    int       `json:"score"`
	JoinedAt time.Time `json:"joined_at"`
}

// PlayerFromModel converts a model.Player to a response Player
func PlayerFromModel(p *model.Player) Player {
	return Player{
		ID:       string(p.ID),
		Name:     p.Name,
		IsHost:   p.IsHost,
		Score:    p.Score,
		JoinedAt: p.JoinedAt,
	}
}

// PlayersFromModel converts a roster, preserving its order
func PlayersFromModel(players []*model.Player) []Player {
	out := make([]Player, len(players))
	for i, p := range players {
		out[i] = PlayerFromModel(p)
	}
	return out
}

// Question represents a room question in API responses. The correct option
// index is included only once the question stops accepting answers.
type Question struct {
	ID            string     `json:"id"`
	Text          string     `json:"text"`
	Options       []string   `json:"options"`
	Order         int        `json:"order"`
	IsActive      bool       `json:"is_active"`
	ShownAt       *time.Time `json:"shown_at"`
	CorrectAnswer *int       `json:"correct_answer,omitempty"`
}

// QuestionFromModel converts a model.RoomQuestion. The correct answer is
// revealed only when includeAnswer is set.
func QuestionFromModel(q *model.RoomQuestion, includeAnswer bool) Question {
	resp := Question{
		ID:       string(q.ID),
		Text:     q.Text,
		Options:  q.Options,
		Order:    q.Order,
		IsActive: q.IsActive,
		ShownAt:  q.ShownAt,
	}
	if includeAnswer {
		correct := q.CorrectAnswer
		resp.CorrectAnswer = &correct
	}
	return resp
}

// Answer represents a recorded answer in API responses
type Answer struct {
	ID             string    `json:"id"`
	PlayerID       string    `json:"player_id"`
	QuestionID     string    `json:"question_id"`
	SelectedAnswer *int      `json:"selected_answer"`
	IsCorrect      bool      `json:"is_correct"`
	PointsEarned   int       `json:"points_earned"`
	AnsweredAt     time.Time `json:"answered_at"`
}

// AnswerFromModel converts a model.Answer
func AnswerFromModel(a *model.Answer) Answer {
	return Answer{
		ID:             string(a.ID),
		PlayerID:       string(a.PlayerID),
		QuestionID:     string(a.QuestionID),
		SelectedAnswer: a.SelectedAnswer,
		IsCorrect:      a.IsCorrect,
		PointsEarned:   a.PointsEarned,
		AnsweredAt:     a.AnsweredAt,
	}
}

// JoinResponse is returned after creating or joining a room
type JoinResponse struct {
	Room   Room   `json:"room"`
	Player Player `json:"player"`
}

// RoomStateResponse bundles a room with its roster and active question
type RoomStateResponse struct {
	Room     Room      `json:"room"`
	Players  []Player  `json:"players"`
	Question *Question `json:"question,omitempty"`
}

func playerIDPtr(id *model.PlayerID) *string {
	if id == nil {
		return nil
	}
	s := string(*id)
	return &s
}

func questionIDPtr(id *model.QuestionID) *string {
	if id == nil {
		return nil
	}
	s := string(*id)
	return &s
}
