// Package middlewarectx содержит HTTP middleware сервиса.
//
// SessionMiddleware читает cookie сессии, проверяет её в серверном
// хранилище и кладёт идентификатор пользователя в контекст запроса.
// При отсутствии или недействительности сессии возвращается
// HTTP 401 Unauthorized.
package middlewarectx

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/solvem8/backend/internal/http/response"
	"github.com/solvem8/backend/internal/lib/sl"
	"github.com/solvem8/backend/internal/session"
)

// Key тип для ключей контекста HTTP-запроса.
type Key string

const (
	// UserID — ключ для идентификатора пользователя в контексте
	UserID Key = "user_id"
	// SessionID — ключ для идентификатора сессии в контексте
	SessionID Key = "session_id"
)

// Sessions описывает интерфейс серверного хранилища сессий.
type Sessions interface {
	Resolve(ctx context.Context, sid string) (int64, error)
}

// SessionMiddleware возвращает middleware, проверяющий cookie сессии.
//
// При валидной сессии в контекст добавляются идентификаторы пользователя
// и сессии, иначе возвращается 401 Unauthorized.
func SessionMiddleware(sessions Sessions, cookieName string, log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			const op = "middlewarectx.SessionMiddleware"

			log := log.With(
				slog.String("op", op),
				slog.String("request_id", middleware.GetReqID(r.Context())),
			)

			cookie, err := r.Cookie(cookieName)
			if err != nil || cookie.Value == "" {
				log.Error("missing session cookie")
				w.WriteHeader(http.StatusUnauthorized)
				render.JSON(w, r, response.Error("authentication required"))
				return
			}

			userID, err := sessions.Resolve(r.Context(), cookie.Value)
			if err != nil {
				if !errors.Is(err, session.ErrNotFound) {
					log.Error("failed to resolve session", sl.Err(err))
				}
				w.WriteHeader(http.StatusUnauthorized)
				render.JSON(w, r, response.Error("invalid or expired session"))
				return
			}

			ctx := context.WithValue(r.Context(), UserID, userID)
			ctx = context.WithValue(ctx, SessionID, cookie.Value)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
