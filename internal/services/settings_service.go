package services

import (
	"context"
	"errors"
	"fmt"

	"signupvault/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type SettingsService struct {
	database *gorm.DB
}

func NewSettingsService(database *gorm.DB) *SettingsService {
	return &SettingsService{
		database: database,
	}
}

// Get returns the stored settings, or the defaults when none were saved yet.
func (ss *SettingsService) Get(ctx context.Context) (model.Settings, error) {
	settings, err := gorm.G[model.Settings](ss.database).Where("id = ?", model.SettingsID).First(ctx)

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.Settings{ID: model.SettingsID}, nil
	}

	if err != nil {
		return model.Settings{}, fmt.Errorf("failed to fetch settings: %w", err)
	}

	return settings, nil
}

func (ss *SettingsService) Update(ctx context.Context, allowUserRegistration bool) (model.Settings, error) {
	settings := model.Settings{
		ID:                    model.SettingsID,
		AllowUserRegistration: allowUserRegistration,
	}

	err := ss.database.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"allow_user_registration"}),
	}).Create(&settings).Error

	if err != nil {
		return model.Settings{}, fmt.Errorf("failed to update settings: %w", err)
	}

	return settings, nil
}
