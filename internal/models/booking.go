package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type BookingStatus string

const (
	BookingPending  BookingStatus = "pending"
	BookingAccepted BookingStatus = "accepted" // client hired the pro
	BookingRejected BookingStatus = "rejected"
)

// NormalizeStatus maps legacy status spellings onto the canonical enum.
// Older clients send "approved" for the hired state; stored data only
// ever contains pending/accepted/rejected.
func NormalizeStatus(s string) (BookingStatus, bool) {
	switch BookingStatus(s) {
	case BookingPending, BookingAccepted, BookingRejected:
		return BookingStatus(s), true
	case "approved":
		return BookingAccepted, true
	}
	return "", false
}

type Booking struct {
	ID uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`

	// The partial unique index allows at most one pending request per
	// (client, professional) pair and closes the check-then-act race on
	// creation.
	ClientID       uuid.UUID `gorm:"type:uuid;not null;index;uniqueIndex:uniq_pending_request,where:status = 'pending'" json:"client_id"`
	ProfessionalID uuid.UUID `gorm:"type:uuid;not null;index;uniqueIndex:uniq_pending_request,where:status = 'pending'" json:"professional_id"`

	Status BookingStatus `gorm:"type:varchar(20);not null;default:pending;index" json:"status"`

	// Snapshots of the pro's trade and city at creation time. Deliberately
	// denormalized: the booking keeps its historical context even if the
	// pro later changes skills or moves.
	Category string `gorm:"type:varchar(60);default:general" json:"category"`
	Location string `gorm:"type:varchar(120);default:unknown" json:"location"`

	// 1-5, set once by the client after the pro accepted.
	Rating *int `json:"rating"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Client       *User `gorm:"foreignKey:ClientID" json:"client,omitempty"`
	Professional *User `gorm:"foreignKey:ProfessionalID" json:"professional,omitempty"`
}

func (b *Booking) BeforeCreate(tx *gorm.DB) (err error) {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	return
}
