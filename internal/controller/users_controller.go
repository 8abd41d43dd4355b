package controller

import (
	"context"
	"errors"

	"signupvault/internal/middleware"
	"signupvault/internal/model"
	"signupvault/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

type UserAdministrator interface {
	Create(ctx context.Context, input services.CreateUserInput) (*model.User, error)
	List(ctx context.Context) ([]model.UserWithCount, error)
	Get(ctx context.Context, id string) (*model.User, error)
	SetActive(ctx context.Context, id string, active bool) (*model.User, error)
}

type NewUser struct {
	Email    string     `json:"email" binding:"required,email"`
	Password string     `json:"password" binding:"required,min=6"`
	Role     model.Role `json:"role" binding:"required,oneof=ADMIN USER"`
}

type UserChanges struct {
	IsActive *bool `json:"isActive"`
}

type UsersController struct {
	router  *gin.RouterGroup
	users   UserAdministrator
	session *middleware.SessionMiddleware
}

func NewUsersController(router *gin.RouterGroup, users UserAdministrator, session *middleware.SessionMiddleware) *UsersController {
	return &UsersController{
		router:  router,
		users:   users,
		session: session,
	}
}

func (uc *UsersController) SetupRoutes() {
	usersGroup := uc.router.Group("/users", uc.session.Required(), uc.session.AdminRequired())
	usersGroup.GET("", uc.list)
	usersGroup.POST("", uc.create)
	usersGroup.PATCH("/:id", uc.update)
}

func (uc *UsersController) list(c *gin.Context) {
	users, err := uc.users.List(c.Request.Context())

	if err != nil {
		log.Error().Err(err).Msg("failed to list users")
		internalError(c)
		return
	}

	c.JSON(200, users)
}

func (uc *UsersController) create(c *gin.Context) {
	var input NewUser

	if err := c.ShouldBindJSON(&input); err != nil {
		invalidInput(c, err)
		return
	}

	user, err := uc.users.Create(c.Request.Context(), services.CreateUserInput{
		Email:    input.Email,
		Password: input.Password,
		Role:     input.Role,
	})

	if errors.Is(err, services.ErrAlreadyExists) {
		c.JSON(400, gin.H{"error": "User already exists"})
		return
	}

	if err != nil {
		log.Error().Err(err).Msg("failed to create user")
		internalError(c)
		return
	}

	c.JSON(201, user)
}

func (uc *UsersController) update(c *gin.Context) {
	var changes UserChanges

	if err := c.ShouldBindJSON(&changes); err != nil {
		invalidInput(c, err)
		return
	}

	var (
		user *model.User
		err  error
	)

	if changes.IsActive != nil {
		user, err = uc.users.SetActive(c.Request.Context(), c.Param("id"), *changes.IsActive)
	} else {
		user, err = uc.users.Get(c.Request.Context(), c.Param("id"))
	}

	if errors.Is(err, services.ErrNotFound) {
		c.JSON(404, gin.H{"error": "User not found"})
		return
	}

	if err != nil {
		log.Error().Err(err).Str("user_id", c.Param("id")).Msg("failed to update user")
		internalError(c)
		return
	}

	c.JSON(200, user)
}
