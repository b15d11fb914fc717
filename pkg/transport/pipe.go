package transport

import (
	"net"
	"sync"
	"time"

	"github.com/pion/transport/v3/test"
)

// Pipe provides a bidirectional in-memory connection pair with
// TCP-style addresses. It wraps pion's test.Bridge and delivers queued
// data in a background goroutine, so tests run deterministically
// without real network I/O.
type Pipe struct {
	bridge *test.Bridge
	client net.Conn
	server net.Conn

	stopCh    chan struct{}
	wg        sync.WaitGroup
	closeOnce sync.Once
}

// NewPipe creates a connected pipe. clientAddr and serverAddr become
// the endpoints' host:port addresses; either may be empty to use a
// documentation-range default.
func NewPipe(clientAddr, serverAddr string) *Pipe {
	if clientAddr == "" {
		clientAddr = "192.0.2.10:51234"
	}
	if serverAddr == "" {
		serverAddr = "192.0.2.1:25565"
	}

	p := &Pipe{
		bridge: test.NewBridge(),
		stopCh: make(chan struct{}),
	}
	p.client = &pipeConn{
		Conn:   p.bridge.GetConn0(),
		local:  pipeAddr(clientAddr),
		remote: pipeAddr(serverAddr),
	}
	p.server = &pipeConn{
		Conn:   p.bridge.GetConn1(),
		local:  pipeAddr(serverAddr),
		remote: pipeAddr(clientAddr),
	}

	p.wg.Add(1)
	go p.deliver()

	return p
}

// deliver pumps queued data between the endpoints.
func (p *Pipe) deliver() {
	defer p.wg.Done()

	ticker := time.NewTicker(time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-p.stopCh:
			return
		case <-ticker.C:
			p.bridge.Tick()
		}
	}
}

// Client returns the endpoint a test drives as the connecting client.
// Its RemoteAddr is the server address.
func (p *Pipe) Client() net.Conn {
	return p.client
}

// Server returns the endpoint handed to the accepting side. Its
// RemoteAddr is the client address.
func (p *Pipe) Server() net.Conn {
	return p.server
}

// Close stops delivery and closes both endpoints.
func (p *Pipe) Close() error {
	p.closeOnce.Do(func() {
		close(p.stopCh)
		p.wg.Wait()
		p.client.Close()
		p.server.Close()
	})
	return nil
}

// pipeAddr is a fixed host:port claiming to be TCP.
type pipeAddr string

// Network returns "tcp".
func (a pipeAddr) Network() string { return "tcp" }

// String returns the address.
func (a pipeAddr) String() string { return string(a) }

// pipeConn overlays TCP-style addresses on a bridge endpoint.
type pipeConn struct {
	net.Conn
	local  net.Addr
	remote net.Addr
}

// LocalAddr returns the local address.
func (c *pipeConn) LocalAddr() net.Addr { return c.local }

// RemoteAddr returns the peer's address.
func (c *pipeConn) RemoteAddr() net.Addr { return c.remote }

// Verify pipeConn implements net.Conn.
var _ net.Conn = (*pipeConn)(nil)
