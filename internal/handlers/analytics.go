package handlers

import (
	"sort"
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/himilo-dev/homeman-api/internal/models"
)

// AnalyticsHandler serves the admin rollups. Everything is computed per
// request from the live tables; there is no cache to invalidate.
type AnalyticsHandler struct {
	DB *gorm.DB
}

func NewAnalyticsHandler(db *gorm.DB) *AnalyticsHandler {
	return &AnalyticsHandler{DB: db}
}

type locationCount struct {
	Location string `json:"location"`
	Count    int64  `json:"count"`
}

type categoryCount struct {
	Category string `json:"category"`
	Count    int64  `json:"count"`
}

type keyCount struct {
	Key   string `json:"key"`
	Count int64  `json:"count"`
}

type monthCount struct {
	Month int   `json:"month"`
	Count int64 `json:"count"`
}

func (h *AnalyticsHandler) Get(c *fiber.Ctx) error {
	var (
		totalUsers    int64
		totalPros     int64
		verifiedPros  int64
		suspendedPros int64
		totalBookings int64
	)

	if err := h.DB.Model(&models.User{}).Count(&totalUsers).Error; err != nil {
		return serverError(c, "analytics: count users failed", err)
	}
	if err := h.DB.Model(&models.User{}).Where("role = ?", models.RolePro).Count(&totalPros).Error; err != nil {
		return serverError(c, "analytics: count pros failed", err)
	}
	if err := h.DB.Model(&models.User{}).Where("role = ? AND is_verified = ?", models.RolePro, true).Count(&verifiedPros).Error; err != nil {
		return serverError(c, "analytics: count verified pros failed", err)
	}
	if err := h.DB.Model(&models.User{}).Where("role = ? AND is_suspended = ?", models.RolePro, true).Count(&suspendedPros).Error; err != nil {
		return serverError(c, "analytics: count suspended pros failed", err)
	}
	if err := h.DB.Model(&models.Booking{}).Count(&totalBookings).Error; err != nil {
		return serverError(c, "analytics: count bookings failed", err)
	}

	var usersPerLocation []locationCount
	if err := h.DB.Model(&models.User{}).
		Select("location, COUNT(*) AS count").
		Group("location").Order("location").
		Scan(&usersPerLocation).Error; err != nil {
		return serverError(c, "analytics: users per location failed", err)
	}

	var prosPerLocation []locationCount
	if err := h.DB.Model(&models.User{}).
		Where("role = ?", models.RolePro).
		Select("location, COUNT(*) AS count").
		Group("location").Order("location").
		Scan(&prosPerLocation).Error; err != nil {
		return serverError(c, "analytics: pros per location failed", err)
	}

	var requestsPerLocation []locationCount
	if err := h.DB.Model(&models.Booking{}).
		Select("location, COUNT(*) AS count").
		Group("location").Order("location").
		Scan(&requestsPerLocation).Error; err != nil {
		return serverError(c, "analytics: requests per location failed", err)
	}

	var bookingsPerCategory []categoryCount
	if err := h.DB.Model(&models.Booking{}).
		Select("category, COUNT(*) AS count").
		Group("category").Order("category").
		Scan(&bookingsPerCategory).Error; err != nil {
		return serverError(c, "analytics: bookings per category failed", err)
	}

	skills, err := h.skillsDistribution()
	if err != nil {
		return serverError(c, "analytics: skills distribution failed", err)
	}

	monthlyBookings, err := h.monthlyCounts(&models.Booking{})
	if err != nil {
		return serverError(c, "analytics: monthly bookings failed", err)
	}
	usersByMonth, err := h.monthlyCounts(&models.User{})
	if err != nil {
		return serverError(c, "analytics: monthly users failed", err)
	}

	return c.JSON(fiber.Map{
		"success":             true,
		"totalUsers":          totalUsers,
		"totalPros":           totalPros,
		"verifiedPros":        verifiedPros,
		"suspendedPros":       suspendedPros,
		"totalBookings":       totalBookings,
		"usersPerLocation":    usersPerLocation,
		"prosPerLocation":     prosPerLocation,
		"skillsDistribution":  skills,
		"requestsPerLocation": requestsPerLocation,
		"bookingsPerCategory": bookingsPerCategory,
		"monthlyBookings":     monthlyBookings,
		"usersByMonth":        usersByMonth,
	})
}

// skillsDistribution flattens every pro's skill list and counts each trade.
// Done in Go: the skill list is a JSON column and unnesting it in SQL is
// dialect-specific for no gain at this table size.
func (h *AnalyticsHandler) skillsDistribution() ([]keyCount, error) {
	var pros []models.User
	if err := h.DB.Where("role = ?", models.RolePro).Find(&pros).Error; err != nil {
		return nil, err
	}

	counts := map[string]int64{}
	for _, p := range pros {
		for _, s := range p.Skills {
			counts[s]++
		}
	}

	out := make([]keyCount, 0, len(counts))
	for k, v := range counts {
		out = append(out, keyCount{Key: k, Count: v})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out, nil
}

// monthlyCounts buckets rows by calendar month of created_at, ascending.
func (h *AnalyticsHandler) monthlyCounts(model interface{}) ([]monthCount, error) {
	var createdAts []time.Time
	if err := h.DB.Model(model).Pluck("created_at", &createdAts).Error; err != nil {
		return nil, err
	}

	counts := map[int]int64{}
	for _, t := range createdAts {
		counts[int(t.Month())]++
	}

	out := make([]monthCount, 0, len(counts))
	for m, v := range counts {
		out = append(out, monthCount{Month: m, Count: v})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Month < out[j].Month })
	return out, nil
}
