package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"signupvault/internal/model"

	"github.com/google/uuid"
	gonanoid "github.com/matoous/go-nanoid/v2"
	"gorm.io/gorm"
)

// Actor is the authenticated caller of a dashboard operation.
type Actor struct {
	UserID  string
	IsAdmin bool
}

type CreateProjectInput struct {
	Name        string
	Description *string
}

type UpdateProjectInput struct {
	Name        *string
	Description *string
}

type ProjectService struct {
	database *gorm.DB
	now      func() time.Time
}

func NewProjectService(database *gorm.DB) *ProjectService {
	return &ProjectService{
		database: database,
		now:      time.Now,
	}
}

func (ps *ProjectService) scoped(actor Actor, id string) *gorm.DB {
	query := ps.database.Model(&model.Project{}).Where("id = ?", id)

	if !actor.IsAdmin {
		query = query.Where("user_id = ?", actor.UserID)
	}

	return query
}

func newAPIKey() string {
	return uuid.NewString()
}

func (ps *ProjectService) Create(ctx context.Context, ownerID string, input CreateProjectInput) (*model.Project, error) {
	id, err := gonanoid.New()

	if err != nil {
		return nil, fmt.Errorf("failed to generate project id: %w", err)
	}

	t := ps.now()

	project := &model.Project{
		ID:          id,
		Name:        input.Name,
		Description: input.Description,
		UserID:      ownerID,
		APIKey:      newAPIKey(),
		CreatedAt:   t,
		UpdatedAt:   t,
	}

	err = gorm.G[model.Project](ps.database).Create(ctx, project)

	if err != nil {
		return nil, fmt.Errorf("failed to create project: %w", err)
	}

	return project, nil
}

// FindByID looks a project up without any ownership scoping. Returns ErrNotFound
// when no project has the id.
func (ps *ProjectService) FindByID(ctx context.Context, id string) (*model.Project, error) {
	project, err := gorm.G[model.Project](ps.database).Where("id = ?", id).First(ctx)

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}

	if err != nil {
		return nil, fmt.Errorf("failed to fetch project: %w", err)
	}

	return &project, nil
}

func (ps *ProjectService) Get(ctx context.Context, actor Actor, id string) (*model.Project, error) {
	var project model.Project

	err := ps.scoped(actor, id).WithContext(ctx).First(&project).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}

	if err != nil {
		return nil, fmt.Errorf("failed to fetch project: %w", err)
	}

	return &project, nil
}

func (ps *ProjectService) List(ctx context.Context, actor Actor) ([]model.Project, error) {
	query := gorm.G[model.Project](ps.database).Order("created_at desc")

	if !actor.IsAdmin {
		query = query.Where("user_id = ?", actor.UserID)
	}

	projects, err := query.Find(ctx)

	if err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}

	return projects, nil
}

func (ps *ProjectService) Update(ctx context.Context, actor Actor, id string, input UpdateProjectInput) error {
	updates := map[string]any{
		"updated_at": ps.now(),
	}

	if input.Name != nil {
		updates["name"] = *input.Name
	}

	if input.Description != nil {
		updates["description"] = *input.Description
	}

	result := ps.scoped(actor, id).WithContext(ctx).Updates(updates)

	if result.Error != nil {
		return fmt.Errorf("failed to update project: %w", result.Error)
	}

	if result.RowsAffected == 0 {
		return ErrNotFound
	}

	return nil
}

// Delete removes the project and every submission collected for it.
func (ps *ProjectService) Delete(ctx context.Context, actor Actor, id string) error {
	return ps.database.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		query := tx.Model(&model.Project{}).Where("id = ?", id)

		if !actor.IsAdmin {
			query = query.Where("user_id = ?", actor.UserID)
		}

		var count int64

		if err := query.Count(&count).Error; err != nil {
			return fmt.Errorf("failed to fetch project: %w", err)
		}

		if count == 0 {
			return ErrNotFound
		}

		if err := tx.Where("project_id = ?", id).Delete(&model.EmailSubmission{}).Error; err != nil {
			return fmt.Errorf("failed to delete submissions: %w", err)
		}

		if err := tx.Where("id = ?", id).Delete(&model.Project{}).Error; err != nil {
			return fmt.Errorf("failed to delete project: %w", err)
		}

		return nil
	})
}

// RegenerateKey replaces the project's API key. The previous key stops working as
// soon as the update commits.
func (ps *ProjectService) RegenerateKey(ctx context.Context, actor Actor, id string) (string, error) {
	apiKey := newAPIKey()

	result := ps.scoped(actor, id).WithContext(ctx).Updates(map[string]any{
		"api_key":    apiKey,
		"updated_at": ps.now(),
	})

	if result.Error != nil {
		return "", fmt.Errorf("failed to regenerate api key: %w", result.Error)
	}

	if result.RowsAffected == 0 {
		return "", ErrNotFound
	}

	return apiKey, nil
}
