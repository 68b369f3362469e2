package handler

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/bunnybingsu/api/internal/auth"
	"github.com/bunnybingsu/api/internal/enum"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// AuthHandler handles staff authentication.
type AuthHandler struct {
	passwordHash []byte
	jwtSecret    string
	log          *zap.Logger
}

// NewAuthHandler creates a new AuthHandler for the shared admin password.
// Only the bcrypt hash of the password is kept.
func NewAuthHandler(adminPassword, jwtSecret string, log *zap.Logger) (*AuthHandler, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(adminPassword), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash admin password: %w", err)
	}
	return &AuthHandler{passwordHash: hash, jwtSecret: jwtSecret, log: log}, nil
}

// RegisterRoutes registers auth endpoints on the given Chi router.
func (h *AuthHandler) RegisterRoutes(r chi.Router) {
	r.Post("/auth/login", h.Login)
}

// --- Request / Response types ---

type loginRequest struct {
	Password string `json:"password"`
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	Role        string `json:"role"`
	ExpiresIn   int    `json:"expires_in"`
}

// --- Handlers ---

// Login exchanges the admin password for an access token.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if req.Password == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "password is required"})
		return
	}

	if err := bcrypt.CompareHashAndPassword(h.passwordHash, []byte(req.Password)); err != nil {
		h.log.Warn("admin login rejected", zap.String("remote_addr", r.RemoteAddr))
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "invalid credentials"})
		return
	}

	token, err := auth.GenerateToken(h.jwtSecret, enum.RoleAdmin)
	if err != nil {
		h.log.Error("generate access token", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}
	writeJSON(w, http.StatusOK, tokenResponse{
		AccessToken: token,
		Role:        enum.RoleAdmin,
		ExpiresIn:   int(auth.SessionTTL.Seconds()),
	})
}
