package transport

import (
	"context"
	"io"
	"net"
	"sync"
	"time"
)

// Dial opens a TCP connection to a backend server.
func Dial(ctx context.Context, addr string, timeout time.Duration) (net.Conn, error) {
	d := net.Dialer{Timeout: timeout}
	return d.DialContext(ctx, "tcp", addr)
}

// Splice replays initial to the backend, then copies bytes between the
// two sockets until either side closes; the first close tears down
// both. It returns the bytes moved client-to-backend and
// backend-to-client, not counting initial.
func Splice(client, backend net.Conn, initial []byte) (toBackend, toClient int64, err error) {
	if len(initial) > 0 {
		if _, werr := backend.Write(initial); werr != nil {
			return 0, 0, werr
		}
	}

	var once sync.Once
	closeBoth := func() {
		client.Close()
		backend.Close()
	}

	var wg sync.WaitGroup
	copyFn := func(dst, src net.Conn, n *int64) {
		defer wg.Done()
		*n, _ = io.Copy(dst, src)
		once.Do(closeBoth)
	}

	wg.Add(2)
	go copyFn(backend, client, &toBackend)
	go copyFn(client, backend, &toClient)
	wg.Wait()

	return toBackend, toClient, nil
}
