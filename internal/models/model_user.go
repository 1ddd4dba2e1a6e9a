package models

import "time"

// User owns subscriptions. Authentication state lives here; the reminder
// pipeline only reads FullName, Email and IsActive.
type User struct {
	ID           string     `gorm:"column:id;type:uuid;primary_key" json:"id"`
	FullName     string     `gorm:"column:full_name;type:varchar(100);not null" json:"full_name"`
	Username     string     `gorm:"column:username;type:varchar(30);not null;uniqueIndex" json:"username"`
	Email        string     `gorm:"column:email;type:varchar(255);not null;uniqueIndex" json:"email"`
	PasswordHash string     `gorm:"column:password_hash;type:varchar(128);not null" json:"-"`
	IsActive     bool       `gorm:"column:is_active;not null;default:true" json:"is_active"`
	LastLogin    *time.Time `gorm:"column:last_login;default:null" json:"last_login"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

func (User) TableName() string {
	return "app_user"
}
