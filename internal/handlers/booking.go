package handlers

import (
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/himilo-dev/homeman-api/internal/models"
	"github.com/himilo-dev/homeman-api/internal/realtime"
)

const duplicatePendingMsg = "You already have a pending request for this professional. Please wait for it to be processed or try again later."

type BookingHandler struct {
	DB       *gorm.DB
	Notifier *realtime.Notifier
}

func NewBookingHandler(db *gorm.DB, notifier *realtime.Notifier) *BookingHandler {
	return &BookingHandler{DB: db, Notifier: notifier}
}

type CreateBookingReq struct {
	ProID    string `json:"proId"`
	Category string `json:"category"`
}

// Create opens a pending booking from the authenticated client to a pro.
// At most one pending request per (client, pro) pair: the handler checks
// first for the friendly message, and the partial unique index catches the
// race when two requests slip past the check concurrently.
func (h *BookingHandler) Create(c *fiber.Ctx) error {
	clientID, ok := authedUserID(c)
	if !ok {
		return nil
	}

	var req CreateBookingReq
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "invalid body",
		})
	}

	proID, err := uuid.Parse(req.ProID)
	if err != nil {
		return notFound(c, "Professional not found")
	}

	var pro models.User
	if err := h.DB.First(&pro, "id = ?", proID).Error; err != nil {
		return notFound(c, "Professional not found")
	}

	var existing models.Booking
	err = h.DB.
		Where("client_id = ? AND professional_id = ? AND status = ?", clientID, proID, models.BookingPending).
		First(&existing).Error
	if err == nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": duplicatePendingMsg,
		})
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return serverError(c, "booking create: duplicate check failed", err)
	}

	category := req.Category
	if category == "" {
		if len(pro.Skills) > 0 {
			category = pro.Skills[0]
		} else {
			category = "general"
		}
	}
	location := pro.Location
	if location == "" {
		location = "unknown"
	}

	booking := models.Booking{
		ClientID:       clientID,
		ProfessionalID: proID,
		Status:         models.BookingPending,
		Category:       category,
		Location:       location,
	}
	if err := h.DB.Create(&booking).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"success": false,
				"message": duplicatePendingMsg,
			})
		}
		return serverError(c, "booking create: insert failed", err)
	}

	h.Notifier.Notify(c.Context(), realtime.Event{
		Type:      realtime.EventBookingCreated,
		UserID:    proID,
		BookingID: booking.ID,
		Status:    string(booking.Status),
		Message:   "You have a new booking request",
	})

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"booking": booking,
	})
}

// counterpart is the other party's contact block attached to a booking.
type counterpart struct {
	ID       uuid.UUID `json:"id"`
	Name     string    `json:"name"`
	Email    string    `json:"email"`
	Phone    string    `json:"phone,omitempty"`
	Location string    `json:"location"`
	Skills   []string  `json:"skills,omitempty"`
}

type bookingView struct {
	models.Booking
	Client       *counterpart `json:"client,omitempty"`
	Professional *counterpart `json:"professional,omitempty"`
}

// MyBookings lists the caller's bookings newest-first with the other
// party's details attached. A client only sees the pro's phone once the
// request has left pending; the pro always sees the client's contact info
// since they have to reach out to respond.
func (h *BookingHandler) MyBookings(c *fiber.Ctx) error {
	userID, ok := authedUserID(c)
	if !ok {
		return nil
	}
	role, _ := c.Locals("role").(string)

	var bookings []models.Booking
	var err error
	if role == string(models.RolePro) {
		err = h.DB.
			Preload("Client").
			Where("professional_id = ?", userID).
			Order("created_at DESC").
			Find(&bookings).Error
	} else {
		err = h.DB.
			Preload("Professional").
			Where("client_id = ?", userID).
			Order("created_at DESC").
			Find(&bookings).Error
	}
	if err != nil {
		return serverError(c, "my-bookings: query failed", err)
	}

	views := make([]bookingView, 0, len(bookings))
	for _, b := range bookings {
		v := bookingView{Booking: b}
		v.Booking.Client = nil
		v.Booking.Professional = nil

		if role == string(models.RolePro) {
			if b.Client != nil {
				v.Client = &counterpart{
					ID:       b.Client.ID,
					Name:     b.Client.Name,
					Email:    b.Client.Email,
					Phone:    b.Client.Phone,
					Location: b.Client.Location,
				}
			}
		} else if b.Professional != nil {
			cp := &counterpart{
				ID:       b.Professional.ID,
				Name:     b.Professional.Name,
				Email:    b.Professional.Email,
				Location: b.Professional.Location,
				Skills:   []string(b.Professional.Skills),
			}
			if b.Status != models.BookingPending {
				cp.Phone = b.Professional.Phone
			}
			v.Professional = cp
		}
		views = append(views, v)
	}

	return c.JSON(fiber.Map{
		"success":  true,
		"bookings": views,
	})
}

type UpdateStatusReq struct {
	BookingID string `json:"bookingId"`
	Status    string `json:"status"`
}

// UpdateStatus lets a pro answer a request addressed to them.
func (h *BookingHandler) UpdateStatus(c *fiber.Ctx) error {
	proID, ok := authedUserID(c)
	if !ok {
		return nil
	}

	var req UpdateStatusReq
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "invalid body",
		})
	}

	status, ok := models.NormalizeStatus(req.Status)
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "Invalid status",
		})
	}

	bookingID, err := uuid.Parse(req.BookingID)
	if err != nil {
		return notFound(c, "Booking not found")
	}

	var booking models.Booking
	if err := h.DB.First(&booking, "id = ? AND professional_id = ?", bookingID, proID).Error; err != nil {
		return notFound(c, "Booking not found")
	}

	booking.Status = status
	if err := h.DB.Save(&booking).Error; err != nil {
		return serverError(c, "update-status: save failed", err)
	}

	h.Notifier.Notify(c.Context(), realtime.Event{
		Type:      realtime.EventBookingUpdated,
		UserID:    booking.ClientID,
		BookingID: booking.ID,
		Status:    string(booking.Status),
		Message:   fmt.Sprintf("Your booking request was %s", booking.Status),
	})

	return c.JSON(fiber.Map{
		"success": true,
		"booking": booking,
	})
}

type RateBookingReq struct {
	BookingID   string `json:"bookingId"`
	RatingValue int    `json:"ratingValue"`
}

// Rate stores the client's rating and folds it into the pro's running
// average inside one transaction, so concurrent ratings cannot lose an
// update to the aggregate.
func (h *BookingHandler) Rate(c *fiber.Ctx) error {
	clientID, ok := authedUserID(c)
	if !ok {
		return nil
	}

	var req RateBookingReq
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "invalid body",
		})
	}

	if req.RatingValue < 1 || req.RatingValue > 5 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "Rating must be between 1 and 5",
		})
	}

	bookingID, err := uuid.Parse(req.BookingID)
	if err != nil {
		return notFound(c, "Booking not found")
	}

	var booking models.Booking
	if err := h.DB.First(&booking, "id = ? AND client_id = ?", bookingID, clientID).Error; err != nil {
		return notFound(c, "Booking not found")
	}

	if booking.Status != models.BookingAccepted {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "Can only rate completed bookings",
		})
	}

	if booking.Rating != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "Booking already rated",
		})
	}

	rating := req.RatingValue
	err = h.DB.Transaction(func(tx *gorm.DB) error {
		booking.Rating = &rating
		if err := tx.Save(&booking).Error; err != nil {
			return err
		}

		var pro models.User
		if err := tx.First(&pro, "id = ?", booking.ProfessionalID).Error; err != nil {
			// Pro may have been deleted; the booking keeps its rating.
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil
			}
			return err
		}

		newCount := pro.ReviewCount + 1
		newAvg := (pro.Rating*float64(pro.ReviewCount) + float64(rating)) / float64(newCount)
		return tx.Model(&pro).Updates(map[string]interface{}{
			"rating":       newAvg,
			"review_count": newCount,
		}).Error
	})
	if err != nil {
		return serverError(c, "rate: transaction failed", err)
	}

	return c.JSON(fiber.Map{
		"success": true,
		"message": "Rating submitted",
		"booking": booking,
	})
}

// authedUserID pulls the authenticated user id from locals. On failure
// the 401 envelope has already been written; the handler just returns.
func authedUserID(c *fiber.Ctx) (uuid.UUID, bool) {
	uid, _ := c.Locals("userId").(string)
	id, err := uuid.Parse(uid)
	if err != nil {
		_ = c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"success": false,
			"message": "Not authenticated",
		})
		return uuid.Nil, false
	}
	return id, true
}
