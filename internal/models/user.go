package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Role string

const (
	RoleClient Role = "client"
	RolePro    Role = "pro"
	RoleAdmin  Role = "admin"
)

type User struct {
	ID    uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Name  string    `gorm:"not null" json:"name"`
	Email string    `gorm:"uniqueIndex;not null" json:"email"`
	Phone string    `gorm:"type:varchar(30)" json:"phone,omitempty"`

	Password string `gorm:"not null" json:"-"`
	Role     Role   `gorm:"type:varchar(20);not null;index" json:"role"`

	// Stored lowercase/trimmed so dashboard matching is a plain equality.
	Location string `gorm:"type:varchar(120);index" json:"location"`

	// Pro-only fields. Consulted only when Role == RolePro.
	Skills      datatypes.JSONSlice[string] `json:"skills"`
	IsVerified  bool                        `gorm:"default:false" json:"is_verified"`
	IsSuspended bool                        `gorm:"default:false" json:"is_suspended"`
	Rating      float64                     `gorm:"default:0" json:"rating"`
	ReviewCount int                         `gorm:"default:0" json:"review_count"`

	// System/operator accounts never show up in pro listings.
	IsHidden bool `gorm:"default:false" json:"-"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (u *User) BeforeCreate(tx *gorm.DB) (err error) {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return
}

// NormalizeLocation lowercases and trims a free-text city so equality
// comparison works across sign-up and dashboard queries.
func NormalizeLocation(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
