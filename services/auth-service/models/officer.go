package models

import (
	"time"

	"civisense/pkg/session"

	"gorm.io/gorm"
)

const (
	RoleOfficer = "officer"
	RoleAdmin   = "admin"
)

type Officer struct {
	ID         string         `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Email      string         `gorm:"uniqueIndex;not null" json:"email"`
	Password   string         `gorm:"not null" json:"-"`
	Name       string         `gorm:"not null" json:"name"`
	Role       string         `gorm:"default:'officer'" json:"role"`
	Department string         `gorm:"default:'general'" json:"department"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
	DeletedAt  gorm.DeletedAt `gorm:"index" json:"-"`
}

// Identity is what a session is issued for.
func (o Officer) Identity() session.Officer {
	return session.Officer{
		ID:         o.ID,
		Email:      o.Email,
		Name:       o.Name,
		Role:       o.Role,
		Department: o.Department,
	}
}
