package devicelink

import (
	"bufio"
	"fmt"
	"net"
	"testing"
	"time"

	"github.com/saveligulas/pet-feeder-network/internal/clock"
	"github.com/saveligulas/pet-feeder-network/internal/feeder"
	"github.com/saveligulas/pet-feeder-network/internal/models"
	"github.com/saveligulas/pet-feeder-network/internal/store"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func newTestServer(t *testing.T) (*Server, *feeder.Service, *store.SQLiteStore) {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	assert.NoError(t, err)
	st, err := store.NewStore(db)
	assert.NoError(t, err)

	clk := clock.NewFakeClock(time.Date(2025, 6, 1, 8, 0, 0, 0, time.UTC))
	svc := feeder.NewService(st, clk, zap.NewNop(), 0)
	return NewServer(svc, zap.NewNop()), svc, st
}

// exchange writes one frame and reads the reply over an in-memory pipe.
func exchange(t *testing.T, client net.Conn, r *bufio.Reader, req *Message) *Message {
	t.Helper()
	data, err := req.Encode()
	assert.NoError(t, err)
	_, err = client.Write(data)
	assert.NoError(t, err)

	line, _, err := r.ReadLine()
	assert.NoError(t, err)
	resp, err := Decode(line)
	assert.NoError(t, err)
	return resp
}

func TestServer_ScanOverLink(t *testing.T) {
	srv, _, st := newTestServer(t)
	pet := &models.Pet{Name: "Rex", TagID: "AA11", PortionSeconds: 5, CooldownMinutes: 60, MaxDailyFeeds: 3}
	assert.NoError(t, st.CreatePet(pet))

	client, server := net.Pipe()
	defer client.Close()
	go srv.HandleConn(server)
	r := bufio.NewReader(client)

	resp := exchange(t, client, r, &Message{ID: "1", Op: OpHello, From: "feeder-01"})
	assert.Equal(t, OpHello, resp.Op)
	assert.Equal(t, "1", resp.ID)

	resp = exchange(t, client, r, &Message{ID: "2", Op: OpScan, From: "feeder-01", UID: "AA11"})
	assert.Equal(t, OpScanAck, resp.Op)
	assert.Equal(t, "authorized", resp.Status)
	assert.Equal(t, "Rex", resp.PetName)
	assert.Equal(t, 5, resp.PortionTime)
	assert.Equal(t, 1, resp.FeedsToday)

	resp = exchange(t, client, r, &Message{ID: "3", Op: OpScan, From: "feeder-01", UID: "ZZ99"})
	assert.Equal(t, "denied", resp.Status)
	assert.Equal(t, "Pet not recognized", resp.Message)
}

func TestServer_MalformedAndUnknownFrames(t *testing.T) {
	srv, _, _ := newTestServer(t)

	client, server := net.Pipe()
	defer client.Close()
	go srv.HandleConn(server)
	r := bufio.NewReader(client)

	_, err := client.Write([]byte("not json\n"))
	assert.NoError(t, err)
	line, _, err := r.ReadLine()
	assert.NoError(t, err)
	resp, err := Decode(line)
	assert.NoError(t, err)
	assert.Equal(t, OpError, resp.Op)

	// The connection survives a bad frame.
	resp = exchange(t, client, r, &Message{ID: "4", Op: "bogus"})
	assert.Equal(t, OpError, resp.Op)
	assert.Equal(t, "unknown op", resp.Error)

	resp = exchange(t, client, r, &Message{ID: "5", Op: OpPing})
	assert.Equal(t, OpPong, resp.Op)
}

func TestServer_ScanMissingUID(t *testing.T) {
	srv, _, _ := newTestServer(t)

	client, server := net.Pipe()
	defer client.Close()
	go srv.HandleConn(server)
	r := bufio.NewReader(client)

	resp := exchange(t, client, r, &Message{ID: "6", Op: OpScan, From: "feeder-01"})
	assert.Equal(t, OpScanAck, resp.Op)
	assert.Equal(t, "error", resp.Status)
	assert.Equal(t, "uid missing", resp.Error)
}

func TestServer_ConflictMirrorsHTTPStatus(t *testing.T) {
	srv, svc, st := newTestServer(t)
	pet := &models.Pet{Name: "Rex", TagID: "AA11", PortionSeconds: 5, CooldownMinutes: 60, MaxDailyFeeds: 3}
	assert.NoError(t, st.CreatePet(pet))

	svc.BeginRegistration()

	client, server := net.Pipe()
	defer client.Close()
	go srv.HandleConn(server)
	r := bufio.NewReader(client)

	resp := exchange(t, client, r, &Message{ID: "7", Op: OpScan, From: "feeder-01", UID: "AA11"})
	assert.Equal(t, OpScanAck, resp.Op)
	// Same vocabulary as the HTTP 409 body.
	assert.Equal(t, "error", resp.Status)
	assert.Equal(t, "Tag already registered to Rex", resp.Message)
}
