package redis

import (
	"fmt"

	"github.com/techzonexmsms-dotcom/gemini-quiz-arena/internal/model"
)

// Key prefix for all game-related data
const keyPrefix = "quizarena"

// Key generation functions for each entity type

// roomKey returns the Redis key for a Room
func roomKey(id model.RoomID) string {
	return fmt.Sprintf("%s:room:%s", keyPrefix, id)
}

// roomCodeIndexKey returns the Redis key for the room_code -> room_id index
func roomCodeIndexKey(code model.RoomCode) string {
	return fmt.Sprintf("%s:idx:room_code:%s", keyPrefix, code)
}

// playerKey returns the Redis key for a Player
func playerKey(id model.PlayerID) string {
	return fmt.Sprintf("%s:player:%s", keyPrefix, id)
}

// playersForRoomIndexKey returns the Redis key for the SET of players in a room
func playersForRoomIndexKey(roomID model.RoomID) string {
	return fmt.Sprintf("%s:idx:players_for_room:%s", keyPrefix, roomID)
}

// questionKey returns the Redis key for a RoomQuestion
func questionKey(id model.QuestionID) string {
	return fmt.Sprintf("%s:question:%s", keyPrefix, id)
}

// questionsForRoomIndexKey returns the Redis key for the SET of questions in a room
func questionsForRoomIndexKey(roomID model.RoomID) string {
	return fmt.Sprintf("%s:idx:questions_for_room:%s", keyPrefix, roomID)
}

// questionClaimKey returns the Redis key claimed via SETNX during activation
func questionClaimKey(id model.QuestionID) string {
	return fmt.Sprintf("%s:claim:question:%s", keyPrefix, id)
}

// answerKey returns the Redis key for an Answer, keyed by the unique
// (player, question) pair
func answerKey(playerID model.PlayerID, questionID model.QuestionID) string {
	return fmt.Sprintf("%s:answer:%s:%s", keyPrefix, playerID, questionID)
}

// answersForQuestionIndexKey returns the Redis key for the SET of answers to
// one question in a room
func answersForQuestionIndexKey(roomID model.RoomID, questionID model.QuestionID) string {
	return fmt.Sprintf("%s:idx:answers_for_question:%s:%s", keyPrefix, roomID, questionID)
}

// poolQuestionsKey returns the Redis key for the global question pool list
func poolQuestionsKey() string {
	return fmt.Sprintf("%s:pool:questions", keyPrefix)
}

// questionUsageKey returns the Redis key for a global usage ledger entry
func questionUsageKey(hash string) string {
	return fmt.Sprintf("%s:usage:%s", keyPrefix, hash)
}

// eventsChannel returns the pub/sub channel for a (collection, room) pair
func eventsChannel(collection model.Collection, roomID model.RoomID) string {
	return fmt.Sprintf("%s:events:%s:%s", keyPrefix, collection, roomID)
}
