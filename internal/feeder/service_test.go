package feeder

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestHandleScan_EmptyTagRejected(t *testing.T) {
	svc, _, _ := newTestService(t, 0)

	_, err := svc.HandleScan("  ")
	assert.ErrorIs(t, err, ErrEmptyTag)
}

func TestHandleScan_RegistrationDiversion(t *testing.T) {
	svc, st, _ := newTestService(t, 0)

	svc.BeginRegistration()

	res, err := svc.HandleScan("CC33")
	assert.NoError(t, err)
	assert.Equal(t, ScanRegistration, res.Status)
	assert.Equal(t, "CC33", res.UID)

	// The diverted scan never reached the decision engine: no audit event.
	events, err := st.RecentEvents(10)
	assert.NoError(t, err)
	assert.Empty(t, events)

	// The very next scan is evaluated normally.
	res, err = svc.HandleScan("CC33")
	assert.NoError(t, err)
	assert.Equal(t, ScanDenied, res.Status)
	assert.Equal(t, "Pet not recognized", res.Message)

	uid, ok, _ := svc.PollCaptured()
	assert.True(t, ok)
	assert.Equal(t, "CC33", uid)
	_, ok, _ = svc.PollCaptured()
	assert.False(t, ok)
}

func TestHandleScan_RegistrationConflict(t *testing.T) {
	svc, st, _ := newTestService(t, 0)
	createRex(t, st)

	svc.BeginRegistration()

	res, err := svc.HandleScan("AA11")
	assert.NoError(t, err)
	assert.Equal(t, ScanConflict, res.Status)
	assert.Equal(t, "Rex", res.PetName)
	assert.Equal(t, "Tag already registered to Rex", res.Message)

	// No duplicate pet, no capture.
	pets, err := st.ListPets()
	assert.NoError(t, err)
	assert.Len(t, pets, 1)
	_, ok, _ := svc.PollCaptured()
	assert.False(t, ok)
}

func TestHandleScan_AuthorizedFlow(t *testing.T) {
	svc, st, _ := newTestService(t, 0)
	createRex(t, st)

	res, err := svc.HandleScan("AA11")
	assert.NoError(t, err)
	assert.Equal(t, ScanAuthorized, res.Status)
	assert.Equal(t, "Rex", res.PetName)
	assert.Equal(t, 5, res.PortionSeconds)
	assert.Equal(t, 1, res.FeedsToday)
}

func TestHandleScan_ExpiredArmFallsThrough(t *testing.T) {
	svc, _, clk := newTestService(t, 30*time.Second)

	svc.BeginRegistration()
	clk.Advance(31 * time.Second)

	res, err := svc.HandleScan("CC33")
	assert.NoError(t, err)
	assert.Equal(t, ScanDenied, res.Status)

	_, ok, armed := svc.PollCaptured()
	assert.False(t, ok)
	assert.False(t, armed)
}
