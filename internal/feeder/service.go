package feeder

import (
	"errors"
	"strings"
	"time"

	"github.com/saveligulas/pet-feeder-network/internal/clock"
	"github.com/saveligulas/pet-feeder-network/internal/store"

	"go.uber.org/zap"
)

// ErrEmptyTag rejects a scan event with a missing or blank UID before it
// reaches registration or the decision engine.
var ErrEmptyTag = errors.New("empty tag uid")

// ScanStatus mirrors the wire statuses of the scan endpoint.
type ScanStatus string

const (
	ScanAuthorized   ScanStatus = "authorized"
	ScanRegistration ScanStatus = "registration"
	ScanDenied       ScanStatus = "denied"
	ScanConflict     ScanStatus = "conflict"
)

// ScanResult is the transport-neutral answer to one scan; the HTTP handler
// and the device link both translate it.
type ScanResult struct {
	Status         ScanStatus
	UID            string
	PetName        string
	PortionSeconds int
	FeedsToday     int
	Message        string
}

// Service is the scan dispatch point: registration rendezvous first, then
// the decision engine.
type Service struct {
	store  *store.SQLiteStore
	engine *Engine
	reg    *Registration
	clock  clock.Clock
	log    *zap.Logger
}

func NewService(st *store.SQLiteStore, clk clock.Clock, log *zap.Logger, regTTL time.Duration) *Service {
	return &Service{
		store:  st,
		engine: NewEngine(st, log),
		reg:    NewRegistration(regTTL),
		clock:  clk,
		log:    log,
	}
}

// HandleScan routes one scan event. An armed registration slot consumes
// the scan; otherwise the decision engine evaluates it.
func (s *Service) HandleScan(tagID string) (ScanResult, error) {
	tagID = strings.TrimSpace(tagID)
	if tagID == "" {
		return ScanResult{}, ErrEmptyTag
	}
	now := s.clock.Now()

	kind, val, err := s.reg.Dispatch(tagID, now, s.lookupPet)
	if err != nil {
		return ScanResult{}, err
	}
	switch kind {
	case DivertCaptured:
		s.log.Info("tag captured for registration", zap.String("uid", val))
		return ScanResult{Status: ScanRegistration, UID: val}, nil
	case DivertConflict:
		s.log.Warn("registration conflict", zap.String("uid", tagID), zap.String("pet", val))
		return ScanResult{
			Status:  ScanConflict,
			UID:     tagID,
			PetName: val,
			Message: "Tag already registered to " + val,
		}, nil
	}

	dec, err := s.engine.Evaluate(tagID, now)
	if err != nil {
		return ScanResult{}, err
	}
	if dec.Authorized {
		return ScanResult{
			Status:         ScanAuthorized,
			UID:            tagID,
			PetName:        dec.PetName,
			PortionSeconds: dec.PortionSeconds,
			FeedsToday:     dec.FeedsToday,
		}, nil
	}
	return ScanResult{
		Status:  ScanDenied,
		UID:     tagID,
		PetName: dec.PetName,
		Message: dec.Message,
	}, nil
}

// BeginRegistration arms the slot for the next scan.
func (s *Service) BeginRegistration() {
	s.reg.Begin(s.clock.Now())
	s.log.Info("registration armed")
}

// PollCaptured is the consume-once read of a captured tag.
func (s *Service) PollCaptured() (uid string, ok bool, armed bool) {
	return s.reg.Poll(s.clock.Now())
}

func (s *Service) lookupPet(tagID string) (string, bool, error) {
	pet, err := s.store.GetPetByTag(tagID)
	if errors.Is(err, store.ErrNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return pet.Name, true, nil
}
