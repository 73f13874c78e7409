// Package observer streams frames to external renderers over a loopback-only
// websocket.
package observer

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/pthm-cable/forage/config"
	"github.com/pthm-cable/forage/telemetry"
)

const (
	handshakeTimeout = 5 * time.Second
	writeTimeout     = 5 * time.Second
	shutdownTimeout  = 2 * time.Second
)

// Server fans frames out to websocket subscribers. Publish never blocks: a
// subscriber whose queue is full misses the frame.
type Server struct {
	runID string
	seed  int64
	cfg   *config.Config

	upgrader websocket.Upgrader

	mu     sync.Mutex
	subs   map[uint64]chan []byte
	closed bool

	nextID  atomic.Uint64
	latest  atomic.Int32
	dropped atomic.Uint64
}

// NewServer creates a server for one run.
func NewServer(runID string, seed int64, cfg *config.Config) *Server {
	s := &Server{
		runID: runID,
		seed:  seed,
		cfg:   cfg,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4 * 1024,
			WriteBufferSize: 64 * 1024,
			CheckOrigin:     func(r *http.Request) bool { return true }, // loopback only anyway
		},
		subs: make(map[uint64]chan []byte),
	}
	s.latest.Store(-1)
	return s
}

// Handler serves GET /bootstrap and the /ws stream.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/bootstrap", s.BootstrapHandler())
	mux.HandleFunc("/ws", s.WSHandler())
	return mux
}

// Publish encodes the frame once and queues it for every subscriber.
func (s *Server) Publish(f telemetry.Frame) {
	s.latest.Store(f.Frame)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || len(s.subs) == 0 {
		return
	}

	data, err := json.Marshal(newFrameMsg(f, s.cfg.Observer.MarkerScale, s.cfg.Observer.MarkerFloor))
	if err != nil {
		slog.Error("observer: encode frame", "frame", f.Frame, "error", err)
		return
	}
	for _, ch := range s.subs {
		select {
		case ch <- data:
		default:
			s.dropped.Add(1)
		}
	}
}

// Subscribers returns the number of connected subscribers.
func (s *Server) Subscribers() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.subs)
}

// Dropped returns how many frame deliveries were skipped for slow subscribers.
func (s *Server) Dropped() uint64 {
	return s.dropped.Load()
}

func (s *Server) subscribe() (uint64, <-chan []byte, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return 0, nil, false
	}
	id := s.nextID.Add(1)
	ch := make(chan []byte, max(s.cfg.Observer.Buffer, 1))
	s.subs[id] = ch
	return id, ch, true
}

func (s *Server) unsubscribe(id uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if ch, ok := s.subs[id]; ok {
		delete(s.subs, id)
		close(ch)
	}
}

// closeAll ends every subscription and refuses new ones.
func (s *Server) closeAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	for id, ch := range s.subs {
		delete(s.subs, id)
		close(ch)
	}
}

// BootstrapHandler describes the run as JSON.
func (s *Server) BootstrapHandler() http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			rw.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		if !isLoopbackRemote(r.RemoteAddr) {
			http.Error(rw, "forbidden", http.StatusForbidden)
			return
		}

		resp := BootstrapResponse{
			ProtocolVersion: ProtocolVersion,
			RunID:           s.runID,
			Seed:            s.seed,
			Frame:           s.latest.Load(),
			Agents:          s.cfg.Colony.Agents,
			TickInterval:    s.cfg.Schedule.TickInterval,
			InterpSteps:     s.cfg.Schedule.InterpSteps,
			Hive:            boxOf(s.cfg.Colony.Hive),
			Spawn:           boxOf(s.cfg.Nectar.Spawn),
			MarkerScale:     s.cfg.Observer.MarkerScale,
			MarkerFloor:     s.cfg.Observer.MarkerFloor,
			States:          stateNames(),
		}

		rw.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(rw).Encode(resp)
	}
}

// WSHandler upgrades the connection and streams frames after a SUBSCRIBE.
func (s *Server) WSHandler() http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		if !isLoopbackRemote(r.RemoteAddr) {
			http.Error(rw, "forbidden", http.StatusForbidden)
			return
		}

		conn, err := s.upgrader.Upgrade(rw, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		// Handshake: must send SUBSCRIBE first.
		_ = conn.SetReadDeadline(time.Now().Add(handshakeTimeout))
		_, msg, err := conn.ReadMessage()
		if err != nil {
			return
		}
		var sub SubscribeMsg
		if err := json.Unmarshal(msg, &sub); err != nil {
			closeWith(conn, websocket.ClosePolicyViolation, "bad subscribe")
			return
		}
		if sub.Type != "SUBSCRIBE" || sub.ProtocolVersion != ProtocolVersion {
			closeWith(conn, websocket.ClosePolicyViolation, "expected SUBSCRIBE")
			return
		}
		_ = conn.SetReadDeadline(time.Time{})

		id, frames, ok := s.subscribe()
		if !ok {
			closeWith(conn, websocket.CloseTryAgainLater, "shutting down")
			return
		}
		defer s.unsubscribe(id)
		slog.Info("observer subscribed", "id", id, "remote", r.RemoteAddr)

		// Writer goroutine.
		done := make(chan struct{})
		go func() {
			defer close(done)
			for b := range frames {
				_ = conn.SetWriteDeadline(time.Now().Add(writeTimeout))
				if err := conn.WriteMessage(websocket.TextMessage, b); err != nil {
					conn.Close()
					return
				}
			}
			closeWith(conn, websocket.CloseGoingAway, "run finished")
		}()

		// Reader loop: only control frames are expected; it ends when either side closes.
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				break
			}
		}

		s.unsubscribe(id)
		select {
		case <-done:
		case <-time.After(500 * time.Millisecond):
		}
		slog.Info("observer left", "id", id)
	}
}

// Serve serves on ln until ctx is cancelled, then closes every subscription.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: handshakeTimeout,
	}

	errc := make(chan error, 1)
	go func() { errc <- srv.Serve(ln) }()

	select {
	case err := <-errc:
		s.closeAll()
		return err
	case <-ctx.Done():
	}

	s.closeAll()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errc; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// ListenAndServe listens on addr and serves until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	slog.Info("observer listening", "addr", ln.Addr().String())
	return s.Serve(ctx, ln)
}

func closeWith(conn *websocket.Conn, code int, reason string) {
	_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(code, reason), time.Now().Add(time.Second))
}

func isLoopbackRemote(remoteAddr string) bool {
	host := remoteAddr
	if h, _, err := net.SplitHostPort(remoteAddr); err == nil {
		host = h
	}
	host = strings.TrimPrefix(host, "[")
	host = strings.TrimSuffix(host, "]")
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}
