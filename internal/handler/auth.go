package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/vinnodrive/vinnodrive/internal/model"
	"github.com/vinnodrive/vinnodrive/internal/service"
	"github.com/vinnodrive/vinnodrive/internal/validation"
)

type AuthHandler struct {
	authService *service.AuthService
}

func NewAuthHandler(authService *service.AuthService) *AuthHandler {
	return &AuthHandler{
		authService: authService,
	}
}

type sessionResponse struct {
	Token     string      `json:"token"`
	ExpiresAt time.Time   `json:"expires_at"`
	User      *model.User `json:"user"`
}

// Signup creates an account and logs it in.
func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	username := r.FormValue("username")
	password := r.FormValue("password")

	user, err := h.authService.Signup(r.Context(), username, password)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrUsernameAlreadyExists):
			WriteError(w, http.StatusConflict, CodeConflict, "Username is already taken")
		case isCredentialError(err):
			WriteError(w, http.StatusBadRequest, CodeValidation, err.Error())
		default:
			slog.Error("failed to sign up", "error", err, "username", username)
			WriteError(w, http.StatusInternalServerError, CodeInternal, "Failed to create account")
		}
		return
	}

	h.startSession(w, http.StatusCreated, user)
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	username := r.FormValue("username")
	password := r.FormValue("password")

	user, err := h.authService.Login(r.Context(), username, password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			WriteError(w, http.StatusUnauthorized, CodeUnauthorized, "Invalid username or password")
			return
		}
		slog.Error("failed to log in", "error", err, "username", username)
		WriteError(w, http.StatusInternalServerError, CodeInternal, "Failed to log in")
		return
	}

	h.startSession(w, http.StatusOK, user)
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	h.authService.ClearJWTCookie(w)
	w.WriteHeader(http.StatusNoContent)
}

func (h *AuthHandler) startSession(w http.ResponseWriter, status int, user *model.User) {
	token, expiry, err := h.authService.GenerateJWT(user)
	if err != nil {
		slog.Error("failed to generate jwt", "error", err, "user_id", user.ID)
		WriteError(w, http.StatusInternalServerError, CodeInternal, "Failed to start session")
		return
	}

	h.authService.SetJWTCookie(w, token, expiry)
	writeJSON(w, status, sessionResponse{Token: token, ExpiresAt: expiry, User: user})
}

func isCredentialError(err error) bool {
	for _, target := range []error{
		validation.ErrUsernameRequired,
		validation.ErrUsernameLength,
		validation.ErrUsernameChars,
		validation.ErrPasswordTooShort,
		validation.ErrPasswordTooLong,
		validation.ErrPasswordCommon,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
