package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSettingsDefaultsAndUpsert(t *testing.T) {
	ctx := context.Background()
	ss := NewSettingsService(newTestDatabase(t))

	settings, err := ss.Get(ctx)
	require.NoError(t, err)
	assert.False(t, settings.AllowUserRegistration)

	updated, err := ss.Update(ctx, true)
	require.NoError(t, err)
	assert.True(t, updated.AllowUserRegistration)

	settings, err = ss.Get(ctx)
	require.NoError(t, err)
	assert.True(t, settings.AllowUserRegistration)

	_, err = ss.Update(ctx, false)
	require.NoError(t, err)

	settings, err = ss.Get(ctx)
	require.NoError(t, err)
	assert.False(t, settings.AllowUserRegistration)
}
