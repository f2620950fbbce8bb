package handlers

import (
	"errors"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"smartpark/backend/services/parking-service/internal/auth"
)

// NewLoginHandler handles POST /api/v1/auth/login.
func NewLoginHandler(authService *auth.AuthService, logger *zap.Logger) http.HandlerFunc {
	type request struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	type response struct {
		Token     string `json:"token"`
		TokenType string `json:"token_type"`
		Username  string `json:"username"`
		ExpiresIn int64  `json:"expires_in"`
	}

	return func(w http.ResponseWriter, r *http.Request) {
		var req request
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}

		req.Username = strings.TrimSpace(req.Username)
		if req.Username == "" || req.Password == "" {
			writeError(w, http.StatusBadRequest, "username and password are required")
			return
		}

		token, err := authService.Login(r.Context(), req.Username, req.Password)
		if err != nil {
			if errors.Is(err, auth.ErrInvalidCredentials) {
				writeError(w, http.StatusUnauthorized, "invalid credentials")
				return
			}
			logger.Error("login failed", zap.Error(err))
			writeError(w, http.StatusInternalServerError, "failed to login")
			return
		}

		writeJSON(w, http.StatusOK, response{
			Token:     token,
			TokenType: "Bearer",
			Username:  req.Username,
			ExpiresIn: int64(authService.Tokens().ExpiresIn().Seconds()),
		})
	}
}
