// Package logout реализует HTTP-обработчик выхода пользователя.
package logout

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/solvem8/backend/internal/config"
	"github.com/solvem8/backend/internal/http/middlewarectx"
	"github.com/solvem8/backend/internal/http/response"
	"github.com/solvem8/backend/internal/lib/sl"
)

// Sessions уничтожает серверные сессии.
type Sessions interface {
	Destroy(ctx context.Context, sid string) error
}

// Handler обрабатывает запросы на выход.
type Handler struct {
	log      *slog.Logger
	sessions Sessions
	cfg      config.Session
}

// New создает новый Handler.
func New(log *slog.Logger, sessions Sessions, cfg config.Session) *Handler {
	return &Handler{
		log:      log,
		sessions: sessions,
		cfg:      cfg,
	}
}

// ServeHTTP godoc
// @Summary Выход пользователя
// @Description Уничтожает сессию и сбрасывает cookie.
// @Tags Auth
// @Produce json
// @Success 200 {object} response.Response "Успешный выход"
// @Failure 401 {object} response.ErrorResponse "Нет активной сессии"
// @Router /api/auth/logout [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.auth.logout"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	sid, ok := r.Context().Value(middlewarectx.SessionID).(string)
	if ok && sid != "" {
		if err := h.sessions.Destroy(r.Context(), sid); err != nil {
			log.Error("failed to destroy session", sl.Err(err))
		}
	}

	http.SetCookie(w, &http.Cookie{
		Name:     h.cfg.CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.cfg.Secure,
		SameSite: http.SameSiteLaxMode,
	})

	log.Info("user logged out")
	render.JSON(w, r, response.OK())
}
