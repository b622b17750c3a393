package models

import (
	"time"
)

type User struct {
	ID           uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	Username     string `gorm:"unique;not null"          json:"username"`
	PasswordHash string `gorm:"not null"                 json:"-"`
}

type AuthToken struct {
	ID        uint      `gorm:"primaryKey"          json:"id"`
	Token     string    `gorm:"unique;not null"     json:"token"`
	UserID    uint      `gorm:"index;not null"      json:"user_id"`
	ExpiresAt time.Time `gorm:"not null"            json:"expires_at"`
	Revoked   bool      `gorm:"default:false"       json:"revoked"`
}

type Item struct {
	ID        uint    `gorm:"primaryKey;autoIncrement" json:"id"`
	OwnerID   uint    `gorm:"index;not null"           json:"owner_id"`
	Name      string  `gorm:"not null"                 json:"name"`
	URL       string  `json:"url"`
	Price     float64 `gorm:"not null"                 json:"price"`
	Taken     bool    `gorm:"default:false"            json:"taken"`
	TakenByID *uint   `json:"taken_by_id,omitempty"`
}
