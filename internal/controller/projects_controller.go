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

type ProjectManager interface {
	Create(ctx context.Context, ownerID string, input services.CreateProjectInput) (*model.Project, error)
	Get(ctx context.Context, actor services.Actor, id string) (*model.Project, error)
	List(ctx context.Context, actor services.Actor) ([]model.Project, error)
	Update(ctx context.Context, actor services.Actor, id string, input services.UpdateProjectInput) error
	Delete(ctx context.Context, actor services.Actor, id string) error
	RegenerateKey(ctx context.Context, actor services.Actor, id string) (string, error)
}

type SubmissionBrowser interface {
	List(ctx context.Context, projectID string, query services.SubmissionQuery) (*services.SubmissionPage, error)
	DeleteMany(ctx context.Context, projectID string, ids []string) (int, error)
	CountByProject(ctx context.Context, projectIDs []string) (map[string]int64, error)
}

type NewProject struct {
	Name        string  `json:"name" binding:"required,min=1,max=100"`
	Description *string `json:"description" binding:"omitnil,max=500"`
}

type ProjectChanges struct {
	Name        *string `json:"name" binding:"omitnil,min=1,max=100"`
	Description *string `json:"description" binding:"omitnil,max=500"`
}

type SubmissionFilter struct {
	Page      int    `form:"page" binding:"omitempty,min=1"`
	Search    string `form:"search"`
	Country   string `form:"country"`
	SortBy    string `form:"sortBy" binding:"omitempty,oneof=timestamp email country ip userAgent"`
	SortOrder string `form:"sortOrder" binding:"omitempty,oneof=asc desc"`
}

type SubmissionSelection struct {
	EmailIDs []string `json:"emailIds"`
}

type ProjectsController struct {
	router      *gin.RouterGroup
	projects    ProjectManager
	submissions SubmissionBrowser
	session     *middleware.SessionMiddleware
}

func NewProjectsController(router *gin.RouterGroup, projects ProjectManager, submissions SubmissionBrowser, session *middleware.SessionMiddleware) *ProjectsController {
	return &ProjectsController{
		router:      router,
		projects:    projects,
		submissions: submissions,
		session:     session,
	}
}

func (pc *ProjectsController) SetupRoutes() {
	projectsGroup := pc.router.Group("/projects", pc.session.Required())
	projectsGroup.GET("", pc.list)
	projectsGroup.POST("", pc.create)
	projectsGroup.GET("/:id", pc.get)
	projectsGroup.PUT("/:id", pc.update)
	projectsGroup.DELETE("/:id", pc.delete)
	projectsGroup.POST("/:id/regenerate-key", pc.regenerateKey)
	projectsGroup.GET("/:id/emails", pc.listEmails)
	projectsGroup.DELETE("/:id/emails", pc.deleteEmails)
}

// projectFailure writes the response for a failed project lookup or mutation.
func projectFailure(c *gin.Context, err error, action string) {
	if errors.Is(err, services.ErrNotFound) {
		c.JSON(404, gin.H{"error": "Project not found"})
		return
	}

	log.Error().Err(err).Str("project_id", c.Param("id")).Msg("failed to " + action)
	internalError(c)
}

func (pc *ProjectsController) list(c *gin.Context) {
	projects, err := pc.projects.List(c.Request.Context(), middleware.Actor(c))

	if err != nil {
		log.Error().Err(err).Msg("failed to list projects")
		internalError(c)
		return
	}

	ids := make([]string, 0, len(projects))

	for _, project := range projects {
		ids = append(ids, project.ID)
	}

	counts, err := pc.submissions.CountByProject(c.Request.Context(), ids)

	if err != nil {
		log.Error().Err(err).Msg("failed to count submissions")
		internalError(c)
		return
	}

	result := make([]model.ProjectWithCount, 0, len(projects))

	for _, project := range projects {
		result = append(result, model.ProjectWithCount{Project: project, SubmissionCount: counts[project.ID]})
	}

	c.JSON(200, result)
}

func (pc *ProjectsController) create(c *gin.Context) {
	var input NewProject

	if err := c.ShouldBindJSON(&input); err != nil {
		invalidInput(c, err)
		return
	}

	project, err := pc.projects.Create(c.Request.Context(), middleware.Actor(c).UserID, services.CreateProjectInput{
		Name:        input.Name,
		Description: input.Description,
	})

	if err != nil {
		log.Error().Err(err).Msg("failed to create project")
		internalError(c)
		return
	}

	c.JSON(201, project)
}

func (pc *ProjectsController) get(c *gin.Context) {
	project, err := pc.projects.Get(c.Request.Context(), middleware.Actor(c), c.Param("id"))

	if err != nil {
		projectFailure(c, err, "fetch project")
		return
	}

	c.JSON(200, project)
}

func (pc *ProjectsController) update(c *gin.Context) {
	var changes ProjectChanges

	if err := c.ShouldBindJSON(&changes); err != nil {
		invalidInput(c, err)
		return
	}

	err := pc.projects.Update(c.Request.Context(), middleware.Actor(c), c.Param("id"), services.UpdateProjectInput{
		Name:        changes.Name,
		Description: changes.Description,
	})

	if err != nil {
		projectFailure(c, err, "update project")
		return
	}

	c.JSON(200, gin.H{"success": true})
}

func (pc *ProjectsController) delete(c *gin.Context) {
	if err := pc.projects.Delete(c.Request.Context(), middleware.Actor(c), c.Param("id")); err != nil {
		projectFailure(c, err, "delete project")
		return
	}

	c.JSON(200, gin.H{"success": true})
}

func (pc *ProjectsController) regenerateKey(c *gin.Context) {
	apiKey, err := pc.projects.RegenerateKey(c.Request.Context(), middleware.Actor(c), c.Param("id"))

	if err != nil {
		projectFailure(c, err, "regenerate api key")
		return
	}

	c.JSON(200, gin.H{"apiKey": apiKey})
}

func (pc *ProjectsController) listEmails(c *gin.Context) {
	var filter SubmissionFilter

	if err := c.ShouldBindQuery(&filter); err != nil {
		invalidInput(c, err)
		return
	}

	project, err := pc.projects.Get(c.Request.Context(), middleware.Actor(c), c.Param("id"))

	if err != nil {
		projectFailure(c, err, "fetch project")
		return
	}

	page, err := pc.submissions.List(c.Request.Context(), project.ID, services.SubmissionQuery{
		Page:      filter.Page,
		Search:    filter.Search,
		Country:   filter.Country,
		SortBy:    filter.SortBy,
		SortOrder: filter.SortOrder,
	})

	if err != nil {
		log.Error().Err(err).Str("project_id", project.ID).Msg("failed to list submissions")
		internalError(c)
		return
	}

	c.JSON(200, page)
}

func (pc *ProjectsController) deleteEmails(c *gin.Context) {
	var selection SubmissionSelection

	if err := c.ShouldBindJSON(&selection); err != nil || len(selection.EmailIDs) == 0 {
		c.JSON(400, gin.H{"error": "Invalid email IDs"})
		return
	}

	project, err := pc.projects.Get(c.Request.Context(), middleware.Actor(c), c.Param("id"))

	if err != nil {
		projectFailure(c, err, "fetch project")
		return
	}

	deleted, err := pc.submissions.DeleteMany(c.Request.Context(), project.ID, selection.EmailIDs)

	if err != nil {
		log.Error().Err(err).Str("project_id", project.ID).Msg("failed to delete submissions")
		internalError(c)
		return
	}

	c.JSON(200, gin.H{"deletedCount": deleted})
}
