package request

// CreateRoomRequest is the request body for creating a room
type CreateRoomRequest struct {
	HostName   string `json:"host_name"`
	MaxPlayers int    `json:"max_players,omitempty"`
}

// JoinRoomRequest is the request body for joining a room
type JoinRoomRequest struct {
	Name string `json:"name"`
}

// StartGameRequest is the request body for starting a game
type StartGameRequest struct {
	PlayerID string `json:"player_id"`
}

// AdvanceRequest is the request body for advancing to the next question
type AdvanceRequest struct {
	PlayerID string `json:"player_id"`
}

// SubmitAnswerRequest is the request body for answering the active question
type SubmitAnswerRequest struct {
	PlayerID       string `json:"player_id"`
	QuestionID     string `json:"question_id"`
	SelectedAnswer int    `json:"selected_answer"`
}
