package middleware

import (
	"log/slog"
	"net/http"

	"github.com/techzonexmsms-dotcom/gemini-quiz-arena/internal/api/apierr"
	"github.com/techzonexmsms-dotcom/gemini-quiz-arena/internal/middleware"
)

// Recovery wraps the shared panic recovery with the API's JSON error shape,
// so a panicking handler still produces a well-formed error body
func Recovery(logger *slog.Logger) func(http.Handler) http.Handler {
	return middleware.Recovery(logger, func(w http.ResponseWriter, _ *http.Request, _ any) {
		apierr.WriteError(w, apierr.NewInternalError())
	})
}
