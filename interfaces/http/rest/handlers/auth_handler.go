package handlers

import (
	"crypto/subtle"
	"net/http"

	"agentdev-backend/pkg/auth"
	"agentdev-backend/pkg/common"
	pkgerrors "agentdev-backend/pkg/errors"
	"agentdev-backend/pkg/utils"

	"go.uber.org/zap"
)

// Credential is one login identity accepted by the auth handler.
type Credential struct {
	Email    string
	Password string
	User     auth.UserContext
}

// DemoCredential is the single built-in login.
var DemoCredential = Credential{
	Email:    "admin@example.com",
	Password: "password",
	User: auth.UserContext{
		UserID: "user_123",
		Email:  "admin@example.com",
		Name:   "Admin User",
		Role:   "admin",
	},
}

// AuthHandler issues and refreshes access tokens
type AuthHandler struct {
	tokens      *auth.TokenService
	credentials []Credential
	errors      *pkgerrors.ErrorHandler
	logger      *zap.Logger
}

// NewAuthHandler creates an auth handler. With no credentials only the demo
// login is accepted.
func NewAuthHandler(tokens *auth.TokenService, errs *pkgerrors.ErrorHandler, logger *zap.Logger, credentials ...Credential) *AuthHandler {
	if len(credentials) == 0 {
		credentials = []Credential{DemoCredential}
	}
	return &AuthHandler{
		tokens:      tokens,
		credentials: credentials,
		errors:      errs,
		logger:      logger,
	}
}

// LoginRequest is the body of POST /auth/login
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// RefreshTokenRequest is the body of POST /auth/refresh
type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

// TokenResponse is returned by login and refresh
type TokenResponse struct {
	AccessToken string           `json:"access_token"`
	TokenType   string           `json:"token_type"`
	ExpiresIn   int              `json:"expires_in"`
	UserInfo    auth.UserContext `json:"user_info"`
}

// Login handles POST /auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := common.ParseJSONBody(w, r, &req, common.DefaultMaxBodyBytes); err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	if err := utils.ValidateStruct(req); err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	cred, ok := h.match(req.Email, req.Password)
	if !ok {
		h.logger.Warn("Login rejected", zap.String("email", req.Email))
		h.errors.Handle(w, r, pkgerrors.NewUnauthorizedError("Invalid credentials"))
		return
	}

	h.logger.Info("User logged in", zap.String("email", req.Email))
	h.respondToken(w, r, cred.User)
}

// Refresh handles POST /auth/refresh. The refresh token must be a valid
// access token issued by this service.
func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	var req RefreshTokenRequest
	if err := common.ParseJSONBody(w, r, &req, common.DefaultMaxBodyBytes); err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	if err := utils.ValidateStruct(req); err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	user, err := h.tokens.Validate(req.RefreshToken)
	if err != nil {
		h.errors.Handle(w, r, pkgerrors.NewUnauthorizedError("Invalid refresh token").WithCause(err))
		return
	}

	h.logger.Info("Token refreshed", zap.String("userID", user.UserID))
	h.respondToken(w, r, *user)
}

// Logout handles POST /auth/logout. Tokens are stateless so nothing is revoked.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	h.logger.Info("User logged out")
	common.RespondJSON(w, http.StatusOK, map[string]string{"message": "Successfully logged out"})
}

func (h *AuthHandler) match(email, password string) (Credential, bool) {
	for _, c := range h.credentials {
		if c.Email == email && subtle.ConstantTimeCompare([]byte(c.Password), []byte(password)) == 1 {
			return c, true
		}
	}
	return Credential{}, false
}

func (h *AuthHandler) respondToken(w http.ResponseWriter, r *http.Request, user auth.UserContext) {
	token, err := h.tokens.Issue(user)
	if err != nil {
		h.errors.Handle(w, r, pkgerrors.NewInternalError("failed to issue token").WithCause(err))
		return
	}
	common.RespondJSON(w, http.StatusOK, TokenResponse{
		AccessToken: token,
		TokenType:   "bearer",
		ExpiresIn:   int(h.tokens.TTL().Seconds()),
		UserInfo:    user,
	})
}
