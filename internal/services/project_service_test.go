package services

import (
	"context"
	"testing"
	"time"

	"signupvault/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProjectLifecycle(t *testing.T) {
	ctx := context.Background()
	database := newTestDatabase(t)
	projects := NewProjectService(database)
	submissions := NewSubmissionService(database)

	owner := Actor{UserID: "owner"}
	stranger := Actor{UserID: "stranger"}
	admin := Actor{UserID: "root", IsAdmin: true}

	description := "Waitlist for the beta"

	project, err := projects.Create(ctx, owner.UserID, CreateProjectInput{Name: "Beta", Description: &description})
	require.NoError(t, err)
	assert.Len(t, project.ID, 21)
	assert.NotEmpty(t, project.APIKey)

	found, err := projects.FindByID(ctx, project.ID)
	require.NoError(t, err)
	assert.Equal(t, project.APIKey, found.APIKey)

	_, err = projects.Get(ctx, stranger, project.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	got, err := projects.Get(ctx, admin, project.ID)
	require.NoError(t, err)
	assert.Equal(t, "Beta", got.Name)
	require.NotNil(t, got.Description)
	assert.Equal(t, description, *got.Description)

	name := "Beta 2"
	require.NoError(t, projects.Update(ctx, owner, project.ID, UpdateProjectInput{Name: &name}))
	assert.ErrorIs(t, projects.Update(ctx, stranger, project.ID, UpdateProjectInput{Name: &name}), ErrNotFound)

	got, err = projects.Get(ctx, owner, project.ID)
	require.NoError(t, err)
	assert.Equal(t, "Beta 2", got.Name)
	assert.Equal(t, description, *got.Description)

	newKey, err := projects.RegenerateKey(ctx, owner, project.ID)
	require.NoError(t, err)
	assert.NotEqual(t, project.APIKey, newKey)

	_, err = projects.RegenerateKey(ctx, stranger, project.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = submissions.Create(ctx, CreateSubmissionInput{ProjectID: project.ID, Email: "a@b.co"})
	require.NoError(t, err)

	assert.ErrorIs(t, projects.Delete(ctx, stranger, project.ID), ErrNotFound)
	require.NoError(t, projects.Delete(ctx, owner, project.ID))

	_, err = projects.FindByID(ctx, project.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	var remaining int64
	require.NoError(t, database.Model(&model.EmailSubmission{}).Where("project_id = ?", project.ID).Count(&remaining).Error)
	assert.Zero(t, remaining)
}

func TestProjectListScoping(t *testing.T) {
	ctx := context.Background()
	projects := NewProjectService(newTestDatabase(t))

	clock := newFakeClock()
	projects.now = clock.Now

	for _, owner := range []string{"alice", "bob", "alice"} {
		_, err := projects.Create(ctx, owner, CreateProjectInput{Name: owner + " project"})
		require.NoError(t, err)
		clock.Advance(time.Second)
	}

	own, err := projects.List(ctx, Actor{UserID: "alice"})
	require.NoError(t, err)
	require.Len(t, own, 2)
	assert.True(t, own[0].CreatedAt.After(own[1].CreatedAt))

	all, err := projects.List(ctx, Actor{UserID: "admin", IsAdmin: true})
	require.NoError(t, err)
	assert.Len(t, all, 3)

	none, err := projects.List(ctx, Actor{UserID: "carol"})
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestProjectFindByIDMissing(t *testing.T) {
	projects := NewProjectService(newTestDatabase(t))

	project, err := projects.FindByID(context.Background(), "missing")

	assert.Nil(t, project)
	assert.ErrorIs(t, err, ErrNotFound)
}
