package controller

import (
	"context"
	"errors"
	"net/http"

	"signupvault/internal/middleware"
	"signupvault/internal/model"
	"signupvault/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

type AccountService interface {
	Authenticate(ctx context.Context, email string, password string) (*model.User, error)
	Register(ctx context.Context, email string, password string) (*model.User, error)
	Get(ctx context.Context, id string) (*model.User, error)
	ChangePassword(ctx context.Context, id string, current string, next string) error
	RequestReset(ctx context.Context, email string) error
	ConfirmReset(ctx context.Context, token string, password string) error
}

type SessionIssuer interface {
	Issue(user *model.User) (string, error)
}

type Credentials struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type Registration struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
}

type PasswordChange struct {
	CurrentPassword string `json:"currentPassword" binding:"required"`
	NewPassword     string `json:"newPassword" binding:"required,min=6"`
}

type ResetRequest struct {
	Email string `json:"email" binding:"required,email"`
}

type ResetConfirmation struct {
	Token    string `json:"token" binding:"required"`
	Password string `json:"password" binding:"required,min=6"`
}

type AuthControllerConfig struct {
	CookieSecure bool
	SessionTTL   int
}

type AuthController struct {
	router   *gin.RouterGroup
	config   AuthControllerConfig
	accounts AccountService
	sessions SessionIssuer
	session  *middleware.SessionMiddleware
}

func NewAuthController(router *gin.RouterGroup, config AuthControllerConfig, accounts AccountService, sessions SessionIssuer, session *middleware.SessionMiddleware) *AuthController {
	return &AuthController{
		router:   router,
		config:   config,
		accounts: accounts,
		sessions: sessions,
		session:  session,
	}
}

func (ac *AuthController) SetupRoutes() {
	authGroup := ac.router.Group("/auth")
	authGroup.POST("/login", ac.login)
	authGroup.POST("/logout", ac.logout)
	authGroup.POST("/register", ac.register)
	authGroup.POST("/reset/request", ac.requestReset)
	authGroup.POST("/reset/confirm", ac.confirmReset)
	authGroup.GET("/me", ac.session.Required(), ac.me)
	authGroup.POST("/change-password", ac.session.Required(), ac.changePassword)
}

func (ac *AuthController) setSessionCookie(c *gin.Context, token string, maxAge int) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(middleware.SessionCookieName, token, maxAge, "/", "", ac.config.CookieSecure, true)
}

func (ac *AuthController) startSession(c *gin.Context, user *model.User, status int) {
	token, err := ac.sessions.Issue(user)

	if err != nil {
		log.Error().Err(err).Msg("failed to issue session")
		internalError(c)
		return
	}

	ac.setSessionCookie(c, token, ac.config.SessionTTL)
	c.JSON(status, gin.H{"token": token, "user": user})
}

func (ac *AuthController) login(c *gin.Context) {
	var credentials Credentials

	if err := c.ShouldBindJSON(&credentials); err != nil {
		c.JSON(400, gin.H{"error": "Invalid request"})
		return
	}

	user, err := ac.accounts.Authenticate(c.Request.Context(), credentials.Email, credentials.Password)

	if errors.Is(err, services.ErrInvalidCredentials) {
		c.JSON(401, gin.H{"error": "Invalid credentials"})
		return
	}

	if err != nil {
		log.Error().Err(err).Msg("failed to authenticate user")
		internalError(c)
		return
	}

	ac.startSession(c, user, 200)
}

func (ac *AuthController) logout(c *gin.Context) {
	ac.setSessionCookie(c, "", -1)
	c.JSON(200, gin.H{"success": true})
}

func (ac *AuthController) register(c *gin.Context) {
	var registration Registration

	if err := c.ShouldBindJSON(&registration); err != nil {
		invalidInput(c, err)
		return
	}

	user, err := ac.accounts.Register(c.Request.Context(), registration.Email, registration.Password)

	switch {
	case errors.Is(err, services.ErrRegistrationDisabled):
		c.JSON(403, gin.H{"error": "Registration is disabled"})
		return
	case errors.Is(err, services.ErrAlreadyExists):
		c.JSON(400, gin.H{"error": "User already exists"})
		return
	case err != nil:
		log.Error().Err(err).Msg("failed to register user")
		internalError(c)
		return
	}

	ac.startSession(c, user, 201)
}

func (ac *AuthController) me(c *gin.Context) {
	user, err := ac.accounts.Get(c.Request.Context(), middleware.Actor(c).UserID)

	if errors.Is(err, services.ErrNotFound) {
		c.JSON(404, gin.H{"error": "User not found"})
		return
	}

	if err != nil {
		log.Error().Err(err).Msg("failed to fetch user")
		internalError(c)
		return
	}

	c.JSON(200, user)
}

func (ac *AuthController) changePassword(c *gin.Context) {
	var change PasswordChange

	if err := c.ShouldBindJSON(&change); err != nil {
		c.JSON(422, gin.H{"error": "Invalid payload"})
		return
	}

	err := ac.accounts.ChangePassword(c.Request.Context(), middleware.Actor(c).UserID, change.CurrentPassword, change.NewPassword)

	switch {
	case errors.Is(err, services.ErrNotFound):
		c.JSON(404, gin.H{"error": "User not found"})
	case errors.Is(err, services.ErrIncorrectPassword):
		c.JSON(400, gin.H{"error": "Current password is incorrect"})
	case err != nil:
		log.Error().Err(err).Msg("failed to change password")
		c.JSON(400, gin.H{"error": "Invalid request"})
	default:
		c.JSON(200, gin.H{"success": true})
	}
}

func (ac *AuthController) requestReset(c *gin.Context) {
	var request ResetRequest

	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(422, gin.H{"error": "Invalid payload"})
		return
	}

	if err := ac.accounts.RequestReset(c.Request.Context(), request.Email); err != nil {
		log.Error().Err(err).Msg("failed to request password reset")
		c.JSON(400, gin.H{"error": "Invalid request"})
		return
	}

	c.JSON(200, gin.H{"success": true})
}

func (ac *AuthController) confirmReset(c *gin.Context) {
	var confirmation ResetConfirmation

	if err := c.ShouldBindJSON(&confirmation); err != nil {
		c.JSON(422, gin.H{"error": "Invalid payload"})
		return
	}

	err := ac.accounts.ConfirmReset(c.Request.Context(), confirmation.Token, confirmation.Password)

	switch {
	case errors.Is(err, services.ErrInvalidResetToken):
		c.JSON(400, gin.H{"error": "Invalid or expired token"})
	case err != nil:
		log.Error().Err(err).Msg("failed to confirm password reset")
		c.JSON(400, gin.H{"error": "Invalid request"})
	default:
		c.JSON(200, gin.H{"success": true})
	}
}
