package supply

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"regexp"
	"strings"

	"github.com/techzonexmsms-dotcom/gemini-quiz-arena/internal/model"
)

// Supply produces a batch of not-yet-shown questions for a room. The call is
// a polling handshake: the caller does not consume a return value beyond
// success/failure, and instead re-queries the store after a grace period for
// the new RoomQuestion rows.
type Supply interface {
	RequestQuestions(ctx context.Context, roomID model.RoomID) error
}

var (
	punctuation = regexp.MustCompile(`[؟?!.,:;]`)
	whitespace  = regexp.MustCompile(`\s+`)
)

// QuestionHash returns the deduplication hash for a question: sha256 over
// the lowercased, trimmed text with punctuation stripped and whitespace
// collapsed.
func QuestionHash(text string) string {
	normalized := strings.ToLower(strings.TrimSpace(text))
	normalized = punctuation.ReplaceAllString(normalized, "")
	normalized = whitespace.ReplaceAllString(normalized, " ")

	sum := sha256.Sum256([]byte(normalized))
	return hex.EncodeToString(sum[:])
}
