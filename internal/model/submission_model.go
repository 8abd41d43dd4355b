package model

import "time"

type EmailSubmission struct {
	ID        string    `gorm:"column:id;primaryKey" json:"id"`
	Email     string    `gorm:"column:email" json:"email"`
	ProjectID string    `gorm:"column:project_id" json:"projectId"`
	IP        *string   `gorm:"column:ip" json:"ip"`
	Country   *string   `gorm:"column:country" json:"country"`
	UserAgent *string   `gorm:"column:user_agent" json:"userAgent"`
	Timestamp time.Time `gorm:"column:timestamp" json:"timestamp"`
}

func (EmailSubmission) TableName() string { return "email_submissions" }
