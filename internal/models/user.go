package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Role string

const (
	RoleUser  Role = "USER"
	RoleAdmin Role = "ADMIN"
)

type User struct {
	ID                string     `gorm:"type:uuid;primaryKey" json:"id"`
	Name              string     `gorm:"size:50;not null" json:"name"`
	Email             string     `gorm:"size:254;uniqueIndex;not null" json:"-"` // stored lowercase
	Password          string     `gorm:"not null" json:"-"`                      // bcrypt hash
	Role              Role       `gorm:"size:10;not null;default:USER;index" json:"role"`
	Featured          bool       `gorm:"not null;default:false;index" json:"featured"`
	Bio               string     `gorm:"size:500" json:"bio"`
	Avatar            string     `gorm:"size:500" json:"avatar"`
	Website           string     `gorm:"size:200" json:"website"`
	ResetToken        *string    `gorm:"size:64;index" json:"-"` // sha256 of the emailed token
	ResetTokenExpiry  *time.Time `json:"-"`
	PasswordChangedAt *time.Time `json:"-"` // bearer tokens issued earlier are refused
	CreatedAt         time.Time  `json:"createdAt"`
	UpdatedAt         time.Time  `json:"updatedAt"`
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	return nil
}

func (u *User) IsAdmin() bool {
	return u != nil && u.Role == RoleAdmin
}
