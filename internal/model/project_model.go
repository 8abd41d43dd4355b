package model

import "time"

type Project struct {
	ID          string    `gorm:"column:id;primaryKey" json:"id"`
	Name        string    `gorm:"column:name" json:"name"`
	Description *string   `gorm:"column:description" json:"description"`
	UserID      string    `gorm:"column:user_id" json:"userId"`
	APIKey      string    `gorm:"column:api_key" json:"apiKey"`
	CreatedAt   time.Time `gorm:"column:created_at" json:"createdAt"`
	UpdatedAt   time.Time `gorm:"column:updated_at" json:"updatedAt"`
}

type ProjectWithCount struct {
	Project
	SubmissionCount int64 `json:"submissionCount"`
}

func (Project) TableName() string { return "projects" }
