package bridge

import (
	"bufio"
	"encoding/json"
	"log/slog"
	"net"
	"os"
	"sync"
	"time"

	"github.com/fentz26/promptgate/internal/logger"
)

// Server listens on a Unix socket for confirmation requests from host
// processes. It holds at most one pending request at a time (the popup shows
// one modal); a second request arriving while the slot is occupied is
// answered immediately with a failure and never reaches the UI.
type Server struct {
	socketPath string
	listener   net.Listener
	deliveries chan Delivery

	pendingMu sync.Mutex
	pendingID string // id of the in-flight request, "" when free

	closed   bool
	closedMu sync.RWMutex
	wg       sync.WaitGroup
	readyCh  chan struct{} // closed when the accept loop is running
	done     chan struct{} // closed when shutdown begins
	log      *slog.Logger
}

// NewServer creates a server bound to socketPath. A stale socket file from a
// crashed process is removed before binding.
func NewServer(socketPath string) (*Server, error) {
	os.Remove(socketPath)

	listener, err := net.Listen("unix", socketPath)
	if err != nil {
		return nil, err
	}

	log := logger.With("component", "bridge")
	log.Info("listening", "socketPath", socketPath)

	return &Server{
		socketPath: socketPath,
		listener:   listener,
		deliveries: make(chan Delivery, 1),
		readyCh:    make(chan struct{}),
		done:       make(chan struct{}),
		log:        log,
	}, nil
}

// Deliveries returns the channel the UI consumes incoming requests from.
func (s *Server) Deliveries() <-chan Delivery {
	return s.deliveries
}

// SocketPath returns the path the server is bound to.
func (s *Server) SocketPath() string {
	return s.socketPath
}

// Start launches the accept loop in a goroutine.
func (s *Server) Start() {
	s.wg.Add(1)
	go s.run()
}

// WaitReady blocks until the server is accepting connections.
func (s *Server) WaitReady() {
	<-s.readyCh
}

func (s *Server) run() {
	defer s.wg.Done()

	close(s.readyCh)

	for {
		conn, err := s.listener.Accept()
		if err != nil {
			s.closedMu.RLock()
			closed := s.closed
			s.closedMu.RUnlock()
			if closed {
				s.log.Info("listener closed, stopping accept loop")
				return
			}
			s.log.Warn("accept error (continuing)", "error", err)
			continue
		}

		s.wg.Add(1)
		go s.handleConnection(conn)
	}
}

// handleConnection serves a single request/response exchange. Each host
// connection carries exactly one request.
func (s *Server) handleConnection(conn net.Conn) {
	defer s.wg.Done()
	defer conn.Close()
	s.log.Debug("connection accepted")

	// Force the connection closed on shutdown so a handler blocked in a read
	// or write cannot outlive Close.
	stop := make(chan struct{})
	defer close(stop)
	go func() {
		select {
		case <-s.done:
			conn.Close()
		case <-stop:
		}
	}()

	reader := bufio.NewReader(conn)
	line, err := reader.ReadString('\n')
	if err != nil {
		s.log.Error("read error", "error", err)
		return
	}

	var msg envelope
	if err := json.Unmarshal([]byte(line), &msg); err != nil {
		s.log.Error("JSON parse error", "error", err)
		return
	}
	if msg.Request == nil {
		s.log.Warn("envelope without request, ignoring")
		return
	}
	req := *msg.Request

	// Claim the pending slot. The single-in-flight contract is enforced here
	// so a misbehaving host cannot corrupt lifecycle state.
	s.pendingMu.Lock()
	if s.pendingID != "" {
		busy := s.pendingID
		s.pendingMu.Unlock()
		s.log.Warn("rejecting request, another is in flight", "id", req.ID, "pending", busy)
		s.writeResponse(conn, Response{ID: req.ID, Error: "another request is already in flight"})
		return
	}
	s.pendingID = req.ID
	s.pendingMu.Unlock()

	defer func() {
		s.pendingMu.Lock()
		if s.pendingID == req.ID {
			s.pendingID = ""
		}
		s.pendingMu.Unlock()
	}()

	s.log.Info("received request", "id", req.ID)

	delivery := NewDelivery(req)
	select {
	case s.deliveries <- delivery:
	case <-s.done:
		s.writeResponse(conn, Response{ID: req.ID, Error: "server shutting down"})
		return
	case <-time.After(DeliverTimeout):
		s.log.Warn("timeout delivering request to UI", "id", req.ID)
		s.writeResponse(conn, Response{ID: req.ID, Error: "UI not responding"})
		return
	}

	select {
	case resp := <-delivery.Reply:
		if resp.ID != req.ID {
			// A reply for a different request never matches the open
			// connection; answer as cancelled rather than misattribute it.
			s.log.Error("reply id mismatch", "want", req.ID, "got", resp.ID)
			resp = Cancelled(req.ID)
		}
		s.writeResponse(conn, resp)
		s.log.Info("sent response", "id", resp.ID, "accepted", resp.Accepted, "auto", resp.Auto)
	case <-s.done:
		s.log.Info("shutdown while request pending", "id", req.ID)
		s.writeResponse(conn, Cancelled(req.ID))
	case <-time.After(ResponseTimeout):
		s.log.Warn("timeout waiting for response", "id", req.ID)
		s.writeResponse(conn, Cancelled(req.ID))
	}
}

func (s *Server) writeResponse(conn net.Conn, resp Response) {
	data, err := json.Marshal(envelope{Response: &resp})
	if err != nil {
		s.log.Error("failed to marshal response", "error", err)
		return
	}

	conn.SetWriteDeadline(time.Now().Add(SocketWriteTimeout))
	if _, err := conn.Write(append(data, '\n')); err != nil {
		// Host may have gone away mid-request; the lifecycle already
		// completed locally, so this is best-effort.
		s.log.Error("write error", "error", err)
	}
}

// Close shuts down the server and removes the socket file. In-flight
// connection handlers are unblocked and waited for, then the deliveries
// channel is closed so a consumer ranging over it terminates. Safe to call
// more than once.
func (s *Server) Close() error {
	s.closedMu.Lock()
	if s.closed {
		s.closedMu.Unlock()
		return nil
	}
	s.closed = true
	s.closedMu.Unlock()

	s.log.Info("closing bridge server")
	close(s.done)

	err := s.listener.Close()
	s.wg.Wait()
	close(s.deliveries)

	if removeErr := os.Remove(s.socketPath); removeErr != nil && !os.IsNotExist(removeErr) {
		s.log.Warn("failed to remove socket file", "socketPath", s.socketPath, "error", removeErr)
	}

	return err
}
