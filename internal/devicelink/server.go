package devicelink

import (
	"bufio"
	"errors"
	"net"
	"sync"

	"github.com/saveligulas/pet-feeder-network/internal/feeder"

	"go.uber.org/zap"
)

// Server speaks the newline-JSON link with the reader/dispenser firmware.
// Scans arriving here run through the same dispatch as HTTP scans; the
// scan-ack carries the portion seconds that drive the motor.
type Server struct {
	svc    *feeder.Service
	log    *zap.Logger
	router map[Op]func(*Message) *Message

	mu    sync.RWMutex
	conns map[string]net.Conn // 客户端连接池, keyed by device ID
}

func NewServer(svc *feeder.Service, log *zap.Logger) *Server {
	s := &Server{
		svc:   svc,
		log:   log,
		conns: make(map[string]net.Conn),
	}
	s.router = map[Op]func(*Message) *Message{
		OpHello: s.handleHello,
		OpScan:  s.handleScan,
		OpPing:  s.handlePing,
	}
	return s
}

// Listen accepts device connections until the listener fails.
func (s *Server) Listen(addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	return s.Serve(ln)
}

func (s *Server) Serve(ln net.Listener) error {
	s.log.Info("device link listening", zap.String("addr", ln.Addr().String()))
	for {
		conn, err := ln.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return nil
			}
			continue
		}
		go s.HandleConn(conn)
	}
}

// HandleConn serves one device connection, one request frame per line.
func (s *Server) HandleConn(c net.Conn) {
	defer func() {
		c.Close()
		s.dropConn(c)
	}()
	r := bufio.NewReader(c)

	for {
		line, _, err := r.ReadLine()
		if err != nil {
			s.log.Debug("device disconnected", zap.Error(err))
			return
		}

		req, err := Decode(line)
		if err != nil {
			s.log.Warn("bad frame from device", zap.Error(err))
			s.reply(c, &Message{Op: OpError, Error: "malformed frame"})
			continue
		}

		if req.From != "" {
			s.mu.Lock()
			s.conns[req.From] = c
			s.mu.Unlock()
		}

		handler, ok := s.router[req.Op]
		if !ok {
			s.reply(c, &Message{ID: req.ID, Op: OpError, Error: "unknown op"})
			continue
		}
		resp := handler(req)
		resp.ID = req.ID
		s.reply(c, resp)
	}
}

func (s *Server) handleHello(req *Message) *Message {
	s.log.Info("device connected", zap.String("device", req.From))
	return &Message{Op: OpHello, Status: "ok"}
}

func (s *Server) handlePing(req *Message) *Message {
	return &Message{Op: OpPong}
}

func (s *Server) handleScan(req *Message) *Message {
	res, err := s.svc.HandleScan(req.UID)
	if errors.Is(err, feeder.ErrEmptyTag) {
		return &Message{Op: OpScanAck, Status: "error", Error: "uid missing"}
	}
	if err != nil {
		return &Message{Op: OpScanAck, Status: "error", Error: err.Error()}
	}
	ack := &Message{Op: OpScanAck, Status: string(res.Status), UID: res.UID}
	switch res.Status {
	case feeder.ScanAuthorized:
		ack.PetName = res.PetName
		ack.PortionTime = res.PortionSeconds
		ack.FeedsToday = res.FeedsToday
	case feeder.ScanDenied:
		ack.Message = res.Message
	case feeder.ScanConflict:
		// A registration conflict goes out as "error", same as the HTTP
		// 409 body, so firmware shares one status vocabulary.
		ack.Status = "error"
		ack.Message = res.Message
	}
	return ack
}

func (s *Server) reply(c net.Conn, m *Message) {
	if data, err := m.Encode(); err == nil {
		c.Write(data)
	}
}

func (s *Server) dropConn(c net.Conn) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, conn := range s.conns {
		if conn == c {
			delete(s.conns, id)
		}
	}
}
