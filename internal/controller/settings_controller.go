package controller

import (
	"context"

	"signupvault/internal/middleware"
	"signupvault/internal/model"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

type SettingsStore interface {
	Get(ctx context.Context) (model.Settings, error)
	Update(ctx context.Context, allowUserRegistration bool) (model.Settings, error)
}

type SettingsChanges struct {
	AllowUserRegistration *bool `json:"allowUserRegistration" binding:"required"`
}

type SettingsController struct {
	router   *gin.RouterGroup
	settings SettingsStore
	session  *middleware.SessionMiddleware
}

func NewSettingsController(router *gin.RouterGroup, settings SettingsStore, session *middleware.SessionMiddleware) *SettingsController {
	return &SettingsController{
		router:   router,
		settings: settings,
		session:  session,
	}
}

func (sc *SettingsController) SetupRoutes() {
	settingsGroup := sc.router.Group("/settings", sc.session.Required(), sc.session.AdminRequired())
	settingsGroup.GET("", sc.get)
	settingsGroup.PATCH("", sc.update)
}

func (sc *SettingsController) get(c *gin.Context) {
	settings, err := sc.settings.Get(c.Request.Context())

	if err != nil {
		log.Error().Err(err).Msg("failed to fetch settings")
		internalError(c)
		return
	}

	c.JSON(200, settings)
}

func (sc *SettingsController) update(c *gin.Context) {
	var changes SettingsChanges

	if err := c.ShouldBindJSON(&changes); err != nil {
		invalidInput(c, err)
		return
	}

	settings, err := sc.settings.Update(c.Request.Context(), *changes.AllowUserRegistration)

	if err != nil {
		log.Error().Err(err).Msg("failed to update settings")
		internalError(c)
		return
	}

	c.JSON(200, settings)
}
