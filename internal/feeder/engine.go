package feeder

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/saveligulas/pet-feeder-network/internal/models"
	"github.com/saveligulas/pet-feeder-network/internal/store"

	"go.uber.org/zap"
)

// DenyReason classifies the policy denials. They are expected business
// outcomes, never errors.
type DenyReason string

const (
	DenyUnknownTag DenyReason = "pet_not_recognized"
	DenyCooldown   DenyReason = "cooldown_active"
	DenyDailyLimit DenyReason = "daily_limit_reached"
)

// Decision is the outcome of one policy evaluation. Authorized and Reason
// are mutually exclusive: Reason is empty iff Authorized.
type Decision struct {
	Authorized     bool
	Reason         DenyReason
	Message        string
	PetName        string
	PortionSeconds int
	FeedsToday     int
	WaitMinutes    int
}

// Engine evaluates a scanned tag against the pet's feeding policy and
// records the outcome. Evaluations are serialized: one reader device
// drives one decision pipeline, and the mutex plus the store transaction
// keep the daily-cap count and the event insert atomic.
type Engine struct {
	mu    sync.Mutex
	store *store.SQLiteStore
	log   *zap.Logger
}

func NewEngine(st *store.SQLiteStore, log *zap.Logger) *Engine {
	return &Engine{store: st, log: log}
}

// Evaluate decides ALLOW or DENY for a tag at the given instant. Every
// branch appends exactly one audit event. An unknown tag is a normal
// denial; only store failures surface as errors.
func (e *Engine) Evaluate(tagID string, now time.Time) (Decision, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	var d Decision
	err := e.store.Transaction(func(tx *store.SQLiteStore) error {
		pet, err := tx.GetPetByTag(tagID)
		if errors.Is(err, store.ErrNotFound) {
			d = Decision{Reason: DenyUnknownTag, Message: "Pet not recognized"}
			return tx.InsertEvent(&models.FeedEvent{
				EventType: models.EventDenied,
				Details:   "Unknown Tag: " + tagID,
				CreatedAt: now.UTC(),
			})
		}
		if err != nil {
			return err
		}

		// Daily cap resets at local midnight, not 24h after the first feed.
		// Event timestamps are stored in UTC, so the boundary must be
		// converted before it reaches the query.
		dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
		count, err := tx.CountDispensedSince(pet.ID, dayStart.UTC())
		if err != nil {
			return err
		}
		if count >= int64(pet.MaxDailyFeeds) {
			d = Decision{Reason: DenyDailyLimit, PetName: pet.Name, Message: "Daily limit reached"}
			return tx.InsertEvent(&models.FeedEvent{
				PetID:     &pet.ID,
				PetName:   pet.Name,
				EventType: models.EventDenied,
				Details:   "Daily limit reached",
				CreatedAt: now.UTC(),
			})
		}

		last, err := tx.LastDispensed(pet.ID)
		if err != nil {
			return err
		}
		if last != nil {
			// Elapsed whole minutes, truncated toward zero.
			elapsed := int(now.Sub(last.CreatedAt).Minutes())
			if elapsed < pet.CooldownMinutes {
				wait := pet.CooldownMinutes - elapsed
				msg := fmt.Sprintf("Cooldown active (%dm left)", wait)
				d = Decision{Reason: DenyCooldown, PetName: pet.Name, Message: msg, WaitMinutes: wait}
				return tx.InsertEvent(&models.FeedEvent{
					PetID:     &pet.ID,
					PetName:   pet.Name,
					EventType: models.EventDenied,
					Details:   msg,
					CreatedAt: now.UTC(),
				})
			}
		}

		d = Decision{
			Authorized:     true,
			PetName:        pet.Name,
			PortionSeconds: pet.PortionSeconds,
			FeedsToday:     int(count) + 1,
		}
		return tx.InsertEvent(&models.FeedEvent{
			PetID:     &pet.ID,
			PetName:   pet.Name,
			EventType: models.EventDispensed,
			Details:   fmt.Sprintf("%ds portion", pet.PortionSeconds),
			CreatedAt: now.UTC(),
		})
	})
	if err != nil {
		return Decision{}, fmt.Errorf("evaluate tag %s: %w", tagID, err)
	}

	if d.Authorized {
		e.log.Info("feed authorized",
			zap.String("pet", d.PetName),
			zap.Int("portion_seconds", d.PortionSeconds),
			zap.Int("feeds_today", d.FeedsToday))
	} else {
		e.log.Info("feed denied",
			zap.String("tag", tagID),
			zap.String("reason", string(d.Reason)))
	}
	return d, nil
}
