package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	RoleUser      = "USER"
	RoleEmployees = "EMPLOYEES"
	RoleAdmin     = "ADMIN"
)

const DefaultAvatar = "/uploads/noavatar.png"

// User is addressable by ID, and for lookups also by Email or VKID.
// Email and PasswordHash are absent for accounts created through an
// OAuth provider; VKID is absent for local accounts.
type User struct {
	ID           string  `gorm:"type:uuid;primaryKey"     json:"id"`
	Email        *string `gorm:"uniqueIndex"              json:"email,omitempty"`
	PasswordHash string  `json:"-"`
	VKID         *int64  `gorm:"uniqueIndex"              json:"vkId,omitempty"`
	Role         string  `gorm:"not null;default:USER"    json:"role"`
	Name         string  `json:"name"`
	Avatar       string  `json:"avatar"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	return nil
}

type Product struct {
	ID          string  `gorm:"type:uuid;primaryKey" json:"id"`
	Name        string  `gorm:"not null"             json:"name"`
	Description string  `json:"description"`
	Price       float64 `gorm:"not null"             json:"price"`
	Count       uint    `json:"count"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (p *Product) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	return nil
}
