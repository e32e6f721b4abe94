package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/saveligulas/pet-feeder-network/internal/feeder"
	"github.com/saveligulas/pet-feeder-network/internal/models"
	"github.com/saveligulas/pet-feeder-network/internal/store"

	"github.com/gin-gonic/gin"
)

type ScanRequest struct {
	UID string `json:"uid" binding:"required"`
}

// @Summary Handle tag scan
// @Description Decide feed access for a scanned RFID tag, or capture the tag while registration is armed
// @Tags scan
// @Accept json
// @Produce json
// @Param body body ScanRequest true "scan event"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} map[string]string
// @Failure 403 {object} map[string]string
// @Failure 409 {object} map[string]string
// @Router /tag [post]
func ScanHandler(c *gin.Context, svc *feeder.Service) {
	var req ScanRequest
	if err := c.BindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": "uid missing"})
		return
	}
	res, err := svc.HandleScan(req.UID)
	if errors.Is(err, feeder.ErrEmptyTag) {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": "uid missing"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "message": err.Error()})
		return
	}

	switch res.Status {
	case feeder.ScanAuthorized:
		c.JSON(http.StatusOK, gin.H{
			"status":       "authorized",
			"pet_name":     res.PetName,
			"portion_time": res.PortionSeconds,
			"feeds_today":  res.FeedsToday,
		})
	case feeder.ScanRegistration:
		c.JSON(http.StatusOK, gin.H{"status": "registration", "uid": res.UID})
	case feeder.ScanConflict:
		c.JSON(http.StatusConflict, gin.H{"status": "error", "message": res.Message})
	default:
		c.JSON(http.StatusForbidden, gin.H{"status": "denied", "message": res.Message})
	}
}

// @Summary Begin tag registration
// @Description Arm the registration slot so the next scan is captured instead of evaluated
// @Tags registration
// @Produce json
// @Success 200 {object} map[string]string
// @Router /api/registration [post]
func BeginRegistrationHandler(c *gin.Context, svc *feeder.Service) {
	svc.BeginRegistration()
	c.JSON(http.StatusOK, gin.H{"status": "ready"})
}

// @Summary Poll captured tag
// @Description Consume-once read of the tag captured by the last diverted scan
// @Tags registration
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /api/registration [get]
func PollRegistrationHandler(c *gin.Context, svc *feeder.Service) {
	uid, ok, armed := svc.PollCaptured()
	resp := gin.H{"uid": nil, "armed": armed}
	if ok {
		resp["uid"] = uid
	}
	c.JSON(http.StatusOK, resp)
}

type CreatePetRequest struct {
	Name            string `json:"name" binding:"required"`
	UID             string `json:"uid" binding:"required"`
	PortionSeconds  int    `json:"portion_seconds"`
	CooldownMinutes int    `json:"cooldown_minutes"`
	MaxDailyFeeds   int    `json:"max_daily_feeds"`
}

// @Summary Create pet
// @Description Register a pet with its tag and feeding policy
// @Tags pets
// @Accept json
// @Produce json
// @Param body body CreatePetRequest true "pet"
// @Success 201 {object} models.Pet
// @Failure 400 {object} map[string]string
// @Failure 409 {object} map[string]string
// @Router /api/pets [post]
func CreatePetHandler(c *gin.Context, db *store.SQLiteStore) {
	var req CreatePetRequest
	if err := c.BindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.PortionSeconds <= 0 || req.MaxDailyFeeds <= 0 || req.CooldownMinutes < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "portion_seconds and max_daily_feeds must be positive, cooldown_minutes non-negative"})
		return
	}
	pet := &models.Pet{
		Name:            req.Name,
		TagID:           req.UID,
		PortionSeconds:  req.PortionSeconds,
		CooldownMinutes: req.CooldownMinutes,
		MaxDailyFeeds:   req.MaxDailyFeeds,
	}
	if err := db.CreatePet(pet); err != nil {
		if errors.Is(err, store.ErrDuplicateTag) {
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, pet)
}

// @Summary List pets
// @Tags pets
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /api/pets [get]
func ListPetsHandler(c *gin.Context, db *store.SQLiteStore) {
	pets, err := db.ListPets()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"pets": pets})
}

// @Summary Delete pet
// @Description Delete a pet and its entire feed history
// @Tags pets
// @Produce json
// @Param id path int true "pet id"
// @Success 200 {object} map[string]bool
// @Failure 404 {object} map[string]string
// @Router /api/pets/{id} [delete]
func DeletePetHandler(c *gin.Context, db *store.SQLiteStore) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid pet id"})
		return
	}
	if err := db.DeletePet(uint(id)); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "pet not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// @Summary Recent activity
// @Description Aggregated, display-only view of the feed audit log
// @Tags activity
// @Produce json
// @Param limit query int false "row limit"
// @Success 200 {object} map[string]interface{}
// @Router /api/activity [get]
func ActivityHandler(c *gin.Context, svc *feeder.Service) {
	limit := 0
	if v, err := strconv.Atoi(c.Query("limit")); err == nil {
		limit = v
	}
	rows, err := svc.RecentActivity(limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"events": rows})
}

// @Summary Clear activity
// @Description Delete the entire feed audit log
// @Tags activity
// @Produce json
// @Success 200 {object} map[string]bool
// @Router /api/activity [delete]
func ClearActivityHandler(c *gin.Context, svc *feeder.Service) {
	if err := svc.ClearActivity(); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}
