package model

import "time"

type Role string

const (
	RoleAdmin Role = "ADMIN"
	RoleUser  Role = "USER"
)

type User struct {
	ID               string     `gorm:"column:id;primaryKey" json:"id"`
	Email            string     `gorm:"column:email" json:"email"`
	Password         string     `gorm:"column:password" json:"-"`
	Role             Role       `gorm:"column:role" json:"role"`
	IsActive         bool       `gorm:"column:is_active" json:"isActive"`
	ResetToken       *string    `gorm:"column:reset_token" json:"-"`
	ResetTokenExpiry *time.Time `gorm:"column:reset_token_expiry" json:"-"`
	CreatedAt        time.Time  `gorm:"column:created_at" json:"createdAt"`
	UpdatedAt        time.Time  `gorm:"column:updated_at" json:"updatedAt"`
}

func (User) TableName() string { return "users" }

func (u User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

type UserWithCount struct {
	User
	ProjectCount int64 `json:"projectCount"`
}
