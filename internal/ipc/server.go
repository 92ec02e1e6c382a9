package ipc

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"os"
	"sync"
	"time"

	"github.com/1broseidon/parallaxd/internal/runtimepath"
	"github.com/1broseidon/parallaxd/internal/source"
)

// DefaultReplyTimeout bounds how long a connection waits for the loop.
const DefaultReplyTimeout = 2 * time.Second

// Handler answers a request on the loop goroutine.
type Handler func(req *Request) *Response

// ServerConfig configures a Server. Zero values pick defaults.
type ServerConfig struct {
	Logger       *slog.Logger
	SocketPath   string
	ReplyTimeout time.Duration
	QueueLimit   int
	Version      string
}

// call is one request waiting for the loop.
type call struct {
	req   *Request
	reply chan *Response
}

// Server accepts control connections on a unix socket. Connections are
// served on their own goroutines, but every request except PING is handed to
// the loop goroutine through a queue and answered from ProcessPending.
type Server struct {
	log          *slog.Logger
	socketPath   string
	listener     net.Listener
	calls        *source.Queue[*call]
	timeout      time.Duration
	version      string
	startTime    time.Time
	shuttingDown bool
	shutdownMu   sync.Mutex
	wg           sync.WaitGroup
}

// NewServer creates a new IPC server
func NewServer(cfg ServerConfig) (*Server, error) {
	socketPath := cfg.SocketPath
	if socketPath == "" {
		p, err := runtimepath.SocketPath()
		if err != nil {
			return nil, fmt.Errorf("failed to resolve IPC socket path: %w", err)
		}
		socketPath = p
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	timeout := cfg.ReplyTimeout
	if timeout <= 0 {
		timeout = DefaultReplyTimeout
	}

	return &Server{
		log:        logger.With("component", "ipc"),
		socketPath: socketPath,
		calls:      source.NewQueue[*call](cfg.QueueLimit),
		timeout:    timeout,
		version:    cfg.Version,
		startTime:  time.Now(),
	}, nil
}

// SocketPath returns the path the server listens on.
func (s *Server) SocketPath() string { return s.socketPath }

// Start begins listening for IPC connections
func (s *Server) Start() error {
	// A stale socket from a crashed daemon would make Listen fail.
	os.Remove(s.socketPath)

	listener, err := net.Listen("unix", s.socketPath)
	if err != nil {
		return fmt.Errorf("failed to create IPC socket: %w", err)
	}
	s.listener = listener

	if err := os.Chmod(s.socketPath, 0600); err != nil {
		listener.Close()
		return fmt.Errorf("failed to set socket permissions: %w", err)
	}

	s.log.Info("listening", "socket", s.socketPath)

	s.wg.Add(1)
	go s.acceptLoop()

	return nil
}

func (s *Server) acceptLoop() {
	defer s.wg.Done()
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			if s.stopping() || errors.Is(err, net.ErrClosed) {
				return
			}
			s.log.Warn("accept failed", "err", err)
			continue
		}

		go s.handleConnection(conn)
	}
}

func (s *Server) stopping() bool {
	s.shutdownMu.Lock()
	defer s.shutdownMu.Unlock()
	return s.shuttingDown
}

// handleConnection handles a single IPC connection
func (s *Server) handleConnection(conn net.Conn) {
	defer conn.Close()
	conn.SetReadDeadline(time.Now().Add(s.timeout))

	reader := bufio.NewReader(conn)

	// One JSON request per line.
	data, err := reader.ReadBytes('\n')
	if err != nil && err != io.EOF {
		s.log.Debug("read failed", "err", err)
		return
	}

	var resp *Response
	req, err := ParseRequest(data)
	if err != nil {
		resp = NewErrorResponse(fmt.Sprintf("Invalid request: %v", err))
	} else {
		s.log.Debug("request", "command", req.Command)
		resp = s.handle(req)
	}

	respData, err := resp.Marshal()
	if err != nil {
		s.log.Error("marshal response failed", "err", err)
		return
	}

	conn.SetWriteDeadline(time.Now().Add(s.timeout))
	respData = append(respData, '\n')
	if _, err := conn.Write(respData); err != nil {
		s.log.Debug("write failed", "err", err)
	}
}

func (s *Server) handle(req *Request) *Response {
	if req.Command == CommandPing {
		resp, _ := NewOKResponse(PingData{
			Version:       s.version,
			UptimeSeconds: int64(time.Since(s.startTime).Seconds()),
		})
		return resp
	}
	return s.Enqueue(req)
}

// Enqueue hands req to the loop and waits for its answer. A full queue or an
// unresponsive loop yields an error response.
func (s *Server) Enqueue(req *Request) *Response {
	c := &call{req: req, reply: make(chan *Response, 1)}
	if !s.calls.Push(c) {
		return NewErrorResponse("daemon busy: control queue is full")
	}

	timer := time.NewTimer(s.timeout)
	defer timer.Stop()
	select {
	case resp := <-c.reply:
		return resp
	case <-timer.C:
		return NewErrorResponse(fmt.Sprintf("timed out after %s waiting for the daemon loop", s.timeout))
	}
}

// Fd is readable while requests are pending.
func (s *Server) Fd() int { return s.calls.Fd() }

// ProcessPending answers every queued request with handle. It must run on the
// loop goroutine and reports whether anything was processed.
func (s *Server) ProcessPending(handle Handler) bool {
	pending := s.calls.Drain()
	for _, c := range pending {
		resp := handle(c.req)
		if resp == nil {
			resp, _ = NewOKResponse(nil)
		}
		// Buffered; a caller that timed out is simply not listening.
		c.reply <- resp
	}
	return len(pending) > 0
}

// Stop gracefully shuts down the IPC server
func (s *Server) Stop() {
	s.shutdownMu.Lock()
	if s.shuttingDown {
		s.shutdownMu.Unlock()
		return
	}
	s.shuttingDown = true
	s.shutdownMu.Unlock()

	if s.listener != nil {
		s.listener.Close()
		s.wg.Wait()
	}
	os.Remove(s.socketPath)
	s.calls.Close()
}
