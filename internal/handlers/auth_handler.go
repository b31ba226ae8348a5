package handlers

import (
	"errors"
	"net/http"

	"storefront/internal/middleware"
	"storefront/internal/models"
	"storefront/internal/services"

	"github.com/rs/zerolog"
)

const (
	msgEmailExists   = "That email already exists. Please log in."
	msgUnknownEmail  = "That email does not exist, please try again."
	msgWrongPassword = "Password incorrect, please try again."
)

type AuthHandler struct {
	userService  *services.UserService
	authService  *services.AuthService
	cookieSecure bool
	logger       zerolog.Logger
}

func NewAuthHandler(userService *services.UserService, authService *services.AuthService, cookieSecure bool, logger zerolog.Logger) *AuthHandler {
	return &AuthHandler{
		userService:  userService,
		authService:  authService,
		cookieSecure: cookieSecure,
		logger:       logger,
	}
}

func (h *AuthHandler) RegisterForm(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, FormResponse{
		Form:    "register",
		Action:  "/register",
		Fields:  []string{"email", "password", "name"},
		Flashes: takeFlashes(w, r),
	})
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req models.RegisterRequest
	if err := decodeForm(w, r, &req, map[string]*string{
		"email":    &req.Email,
		"password": &req.Password,
		"name":     &req.Name,
	}); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid_request", "Invalid request body")
		return
	}

	user, err := h.userService.Register(r.Context(), &req)
	if err != nil {
		if respondWithValidation(w, err) {
			return
		}
		if errors.Is(err, models.ErrDuplicateKey) {
			addFlash(w, r, msgEmailExists)
			http.Redirect(w, r, "/login", http.StatusFound)
			return
		}
		h.logger.Error().Err(err).Msg("Registration failed")
		respondWithError(w, http.StatusInternalServerError, "registration_failed", "Registration failed")
		return
	}

	h.startSession(w, r, user)
}

func (h *AuthHandler) LoginForm(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, FormResponse{
		Form:    "login",
		Action:  "/login",
		Fields:  []string{"email", "password"},
		Flashes: takeFlashes(w, r),
	})
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if err := decodeForm(w, r, &req, map[string]*string{
		"email":    &req.Email,
		"password": &req.Password,
	}); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid_request", "Invalid request body")
		return
	}

	user, err := h.userService.Authenticate(r.Context(), &req)
	switch {
	case err == nil:
		h.startSession(w, r, user)
	case respondWithValidation(w, err):
	case errors.Is(err, models.ErrUnknownEmail):
		addFlash(w, r, msgUnknownEmail)
		http.Redirect(w, r, "/login", http.StatusFound)
	case errors.Is(err, models.ErrWrongPassword):
		addFlash(w, r, msgWrongPassword)
		http.Redirect(w, r, "/login", http.StatusFound)
	default:
		h.logger.Error().Err(err).Msg("Login failed")
		respondWithError(w, http.StatusInternalServerError, "login_failed", "Login failed")
	}
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, h.sessionCookie("", -1))
	http.Redirect(w, r, "/", http.StatusFound)
}

func (h *AuthHandler) startSession(w http.ResponseWriter, r *http.Request, user *models.User) {
	token, err := h.authService.GenerateToken(user)
	if err != nil {
		h.logger.Error().Err(err).Msg("Token generation failed")
		respondWithError(w, http.StatusInternalServerError, "token_generation_failed", "Failed to generate token")
		return
	}

	http.SetCookie(w, h.sessionCookie(token, int(h.authService.TTL().Seconds())))
	http.Redirect(w, r, "/", http.StatusFound)
}

func (h *AuthHandler) sessionCookie(value string, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     middleware.SessionCookie,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   h.cookieSecure,
		SameSite: http.SameSiteLaxMode,
	}
}
