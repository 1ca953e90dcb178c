// Package login реализует HTTP-обработчик входа пользователя.
package login

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/solvem8/backend/internal/config"
	"github.com/solvem8/backend/internal/http/response"
	"github.com/solvem8/backend/internal/lib/sl"
	"github.com/solvem8/backend/internal/models"
	"github.com/solvem8/backend/internal/services/auth"
)

// Request — входные данные для входа
type Request struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// Service описывает бизнес-логику аутентификации.
type Service interface {
	Login(ctx context.Context, email, password string) (*models.User, error)
}

// Sessions создает серверные сессии.
type Sessions interface {
	Create(ctx context.Context, userID int64) (string, error)
}

// Handler обрабатывает запросы на вход.
type Handler struct {
	log      *slog.Logger
	service  Service
	sessions Sessions
	cfg      config.Session
	validate *validator.Validate
}

// New создает новый Handler.
func New(log *slog.Logger, service Service, sessions Sessions, cfg config.Session) *Handler {
	return &Handler{
		log:      log,
		service:  service,
		sessions: sessions,
		cfg:      cfg,
		validate: validator.New(),
	}
}

// ServeHTTP godoc
// @Summary Вход пользователя
// @Description Проверяет пароль и выдает сессионную cookie.
// @Tags Auth
// @Accept json
// @Produce json
// @Param request body Request true "Данные входа"
// @Success 200 {object} response.Response "Успешный вход"
// @Failure 400 {object} response.ErrorResponse "Ошибка валидации"
// @Failure 401 {object} response.ErrorResponse "Неверные учетные данные"
// @Router /api/auth/login [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.auth.login"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	var req Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Error("failed to decode request body", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid request body"))
		return
	}

	if err := h.validate.Struct(req); err != nil {
		log.Error("validation failed", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.ValidationError(err.(validator.ValidationErrors)))
		return
	}

	user, err := h.service.Login(r.Context(), req.Email, req.Password)
	if errors.Is(err, auth.ErrInvalidCredentials) {
		log.Info("login rejected", slog.String("email", req.Email))
		w.WriteHeader(http.StatusUnauthorized)
		render.JSON(w, r, response.Error("invalid email or password"))
		return
	}
	if err != nil {
		log.Error("login failed", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("failed to log in"))
		return
	}

	sid, err := h.sessions.Create(r.Context(), user.ID)
	if err != nil {
		log.Error("failed to create session", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("failed to log in"))
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     h.cfg.CookieName,
		Value:    sid,
		Path:     "/",
		MaxAge:   int(h.cfg.TTL.Seconds()),
		HttpOnly: true,
		Secure:   h.cfg.Secure,
		SameSite: http.SameSiteLaxMode,
	})

	log.Info("user logged in", slog.Int64("user_id", user.ID))
	render.JSON(w, r, response.OKWithData(map[string]any{
		"user_id":  user.ID,
		"username": user.Username,
	}))
}
