package model

const SettingsID = "settings"

type Settings struct {
	ID                    string `gorm:"column:id;primaryKey" json:"-"`
	AllowUserRegistration bool   `gorm:"column:allow_user_registration" json:"allowUserRegistration"`
}

func (Settings) TableName() string { return "settings" }
