package auth

import "time"

type Session struct {
	SessionID string    `gorm:"primaryKey" json:"-"`
	UserID    string    `gorm:"not null;unique" json:"-"`
	ExpiresAt time.Time `gorm:"not null"`
}

type User struct {
	UserID         string  `gorm:"primaryKey" json:"user_id"`
	Username       string  `gorm:"uniqueIndex" json:"username"`
	Email          string  `gorm:"uniqueIndex" json:"email"`
	Password       string  `json:"password" gorm:"-"`
	HashedPassword string  `json:"-"`
	Role           string  `gorm:"default:'user'" json:"role"`
	AvatarURL      string  `json:"avatar_url"`
	Session        Session `gorm:"foreignKey:UserID" json:"session"`
}

func (Session) TableName() string { return "app_auth.sessions" }
func (User) TableName() string    { return "app_auth.users" }
