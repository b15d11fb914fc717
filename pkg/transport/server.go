package transport

import (
	"net"
	"sync"

	"github.com/pion/logging"
)

// Handler is called for each accepted connection, on its own goroutine.
// The connection is closed when the handler returns.
type Handler func(*Conn)

// Server accepts client connections and hands each one to the
// configured handler.
type Server struct {
	listener net.Listener
	handler  Handler
	maxLen   int32
	closeCh  chan struct{}
	wg       sync.WaitGroup
	log      logging.LeveledLogger

	connsMu sync.Mutex
	conns   map[*Conn]struct{}

	mu      sync.Mutex
	started bool
	closed  bool
}

// ServerConfig configures a Server.
type ServerConfig struct {
	// Listener is an optional pre-existing listener to use.
	// If nil, a new listener is created on ListenAddr.
	Listener net.Listener

	// ListenAddr is the address to listen on (e.g., ":25565").
	// Ignored if Listener is provided.
	ListenAddr string

	// Handler is called for each accepted connection.
	// Required.
	Handler Handler

	// MaxFrameLen caps inbound frame sizes; <= 0 selects
	// protocol.DefaultMaxFrameLen.
	MaxFrameLen int32

	// LoggerFactory is the factory for creating loggers.
	// If nil, logging is disabled.
	LoggerFactory logging.LoggerFactory
}

// NewServer creates a new Server with the given configuration.
func NewServer(config ServerConfig) (*Server, error) {
	if config.Handler == nil {
		return nil, ErrNoHandler
	}

	s := &Server{
		listener: config.Listener,
		handler:  config.Handler,
		maxLen:   config.MaxFrameLen,
		closeCh:  make(chan struct{}),
		conns:    make(map[*Conn]struct{}),
	}

	if config.LoggerFactory != nil {
		s.log = config.LoggerFactory.NewLogger("transport")
	}

	if s.listener == nil {
		addr := config.ListenAddr
		if addr == "" {
			addr = ":0" // Use ephemeral port
		}

		listener, err := net.Listen("tcp", addr)
		if err != nil {
			return nil, err
		}
		s.listener = listener
	}

	return s, nil
}

// Start begins accepting connections.
func (s *Server) Start() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrClosed
	}
	if s.started {
		s.mu.Unlock()
		return ErrAlreadyStarted
	}
	s.started = true
	s.mu.Unlock()

	if s.log != nil {
		s.log.Infof("listening on %s", s.listener.Addr())
	}

	s.wg.Add(1)
	go s.acceptLoop()

	return nil
}

// Stop closes the listener and all open connections, then waits for
// all connection handlers to return.
func (s *Server) Stop() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrClosed
	}
	s.closed = true
	s.mu.Unlock()

	if s.log != nil {
		s.log.Info("stopping listener")
	}

	close(s.closeCh)
	s.listener.Close()

	s.connsMu.Lock()
	for c := range s.conns {
		c.Close()
	}
	s.connsMu.Unlock()

	s.wg.Wait()
	return nil
}

// Addr returns the address the server is listening on.
func (s *Server) Addr() net.Addr {
	return s.listener.Addr()
}

// ConnCount returns the number of open connections.
func (s *Server) ConnCount() int {
	s.connsMu.Lock()
	defer s.connsMu.Unlock()
	return len(s.conns)
}

// acceptLoop accepts incoming connections.
func (s *Server) acceptLoop() {
	defer s.wg.Done()

	for {
		conn, err := s.listener.Accept()
		if err != nil {
			select {
			case <-s.closeCh:
				return
			default:
				continue
			}
		}

		s.wg.Add(1)
		go s.serve(conn)
	}
}

// serve runs the handler for a single connection.
func (s *Server) serve(raw net.Conn) {
	defer s.wg.Done()

	c := NewConn(raw, s.maxLen)

	s.connsMu.Lock()
	s.conns[c] = struct{}{}
	s.connsMu.Unlock()

	defer func() {
		c.Close()
		s.connsMu.Lock()
		delete(s.conns, c)
		s.connsMu.Unlock()
	}()

	s.handler(c)
}

// AddConn hands an existing connection to the server as if it had been
// accepted. This is useful for testing with in-memory pipes.
func (s *Server) AddConn(conn net.Conn) {
	s.wg.Add(1)
	go s.serve(conn)
}
