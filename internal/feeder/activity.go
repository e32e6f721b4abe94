package feeder

import (
	"time"

	"github.com/saveligulas/pet-feeder-network/internal/models"
)

// rawFetchLimit caps how many raw events feed one aggregation pass.
const rawFetchLimit = 100

// DefaultActivityLimit is the display row cap when the caller gives none.
const DefaultActivityLimit = 20

// ActivityRow is one display row of the aggregated log: a run of identical
// consecutive events collapsed into a count. Display-only; counts here
// must never be used to reconstruct feed history.
type ActivityRow struct {
	PetName   string    `json:"pet_name,omitempty"`
	EventType string    `json:"event_type"`
	Details   string    `json:"details"`
	Count     int       `json:"count"`
	Timestamp time.Time `json:"timestamp"`
}

// RecentActivity folds the newest raw events into counted display rows.
func (s *Service) RecentActivity(limit int) ([]ActivityRow, error) {
	if limit <= 0 {
		limit = DefaultActivityLimit
	}
	events, err := s.store.RecentEvents(rawFetchLimit)
	if err != nil {
		return nil, err
	}
	return aggregate(events, limit), nil
}

// ClearActivity wipes the audit log.
func (s *Service) ClearActivity() error {
	s.log.Warn("activity log cleared")
	return s.store.ClearEvents()
}

// aggregate collapses runs of identical (pet, type, details) events into
// counted rows. Runs are judged against the last emitted row, so the input
// must already be newest-first; the row keeps the newest timestamp of its
// run.
func aggregate(events []models.FeedEvent, limit int) []ActivityRow {
	rows := make([]ActivityRow, 0, limit)
	for _, e := range events {
		if n := len(rows); n > 0 {
			last := &rows[n-1]
			if last.PetName == e.PetName && last.EventType == e.EventType && last.Details == e.Details {
				last.Count++
				continue
			}
		}
		if len(rows) == limit {
			break
		}
		rows = append(rows, ActivityRow{
			PetName:   e.PetName,
			EventType: e.EventType,
			Details:   e.Details,
			Count:     1,
			Timestamp: e.CreatedAt,
		})
	}
	return rows
}
