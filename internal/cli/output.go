package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"time"
)

// Output handles formatting output based on the configured format
type Output struct {
	format string
}

// NewOutput creates a new Output formatter
func NewOutput(format string) *Output {
	return &Output{format: format}
}

// Print outputs data in the configured format
func (o *Output) Print(data any) {
	if o.format == "json" {
		o.printJSON(data)
	} else {
		o.printText(data)
	}
}

// PrintError outputs an error
func (o *Output) PrintError(err error) {
	if o.format == "json" {
		errData := map[string]any{
			"error": map[string]string{
				"message": err.Error(),
			},
		}
		data, _ := json.Marshal(errData)
		fmt.Fprintln(os.Stderr, string(data))
	} else {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
	}
}

// PrintMessage outputs a simple message
func (o *Output) PrintMessage(msg string) {
	if o.format == "json" {
		data, _ := json.Marshal(map[string]string{"message": msg})
		fmt.Println(string(data))
	} else {
		fmt.Println(msg)
	}
}

func (o *Output) printJSON(data any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(data)
}

func (o *Output) printText(data any) {
	switch v := data.(type) {
	case JoinResult:
		o.printJoinResult(v)
	case RoomState:
		o.printRoomState(v)
	case Room:
		o.printRoom(v)
	case []Player:
		o.printPlayers(v)
	case Question:
		o.printQuestion(v)
	case Answer:
		o.printAnswer(v)
	case HealthResult:
		o.printHealthResult(v)
	default:
		// Fallback to JSON for unknown types
		o.printJSON(data)
	}
}

// Room response type (matches API)
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
}

// Player response type
type Player struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	IsHost bool   `json:"is_host"`
	Score  int    `json:"score"`
}

// Question response type
type Question struct {
	ID            string   `json:"id"`
	Text          string   `json:"text"`
	Options       []string `json:"options"`
	IsActive      bool     `json:"is_active"`
	CorrectAnswer *int     `json:"correct_answer,omitempty"`
}

// Answer response type
type Answer struct {
	QuestionID     string `json:"question_id"`
	SelectedAnswer *int   `json:"selected_answer"`
	IsCorrect      bool   `json:"is_correct"`
	PointsEarned   int    `json:"points_earned"`
}

// JoinResult combines a room with the caller's player record
type JoinResult struct {
	Room   Room   `json:"room"`
	Player Player `json:"player"`
}

// RoomState bundles a room with its roster and active question
type RoomState struct {
	Room     Room      `json:"room"`
	Players  []Player  `json:"players"`
	Question *Question `json:"question,omitempty"`
}

// HealthResult response type
type HealthResult struct {
	Status string `json:"status"`
}

func (o *Output) printRoom(r Room) {
	fmt.Printf("Room: %s\n", r.Code)
	fmt.Printf("Status: %s\n", r.Status)
	fmt.Printf("Players: %d/%d\n", r.CurrentPlayers, r.MaxPlayers)
	if r.WinnerID != nil {
		fmt.Printf("Winner: %s\n", *r.WinnerID)
	}
}

func (o *Output) printPlayers(players []Player) {
	fmt.Printf("Players (%d):\n", len(players))
	for _, p := range players {
		hostStr := ""
		if p.IsHost {
			hostStr = " [host]"
		}
		fmt.Printf("  %3d  %s (%s)%s\n", p.Score, p.Name, p.ID, hostStr)
	}
}

func (o *Output) printQuestion(q Question) {
	fmt.Printf("Question: %s\n", q.Text)
	for i, opt := range q.Options {
		marker := " "
		if q.CorrectAnswer != nil && *q.CorrectAnswer == i {
			marker = "*"
		}
		fmt.Printf("  %s %d) %s\n", marker, i, opt)
	}
	if !q.IsActive {
		fmt.Println("(no longer accepting answers)")
	}
}

func (o *Output) printAnswer(a Answer) {
	if a.IsCorrect {
		fmt.Printf("Correct! +%d points\n", a.PointsEarned)
	} else {
		fmt.Printf("Wrong. %d points\n", a.PointsEarned)
	}
}

func (o *Output) printJoinResult(j JoinResult) {
	o.printRoom(j.Room)
	fmt.Printf("You are: %s (%s)\n", j.Player.Name, j.Player.ID)
}

func (o *Output) printRoomState(s RoomState) {
	o.printRoom(s.Room)
	o.printPlayers(s.Players)
	if s.Question != nil {
		o.printQuestion(*s.Question)
	}
}

func (o *Output) printHealthResult(h HealthResult) {
	fmt.Printf("Status: %s\n", h.Status)
}
