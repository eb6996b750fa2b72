package signal

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
)

// peerConn wraps one websocket connection as a ports.SignalTransport.
// gorilla/websocket allows a single concurrent writer, so every write goes
// through writeMu. Server-initiated requests park a channel in pending until
// the reader loop delivers the matching response.
type peerConn struct {
	conn         *websocket.Conn
	writeTimeout time.Duration

	writeMu sync.Mutex

	mu      sync.Mutex
	pending map[uint64]chan Envelope
	closed  bool

	// done unblocks in-flight requests on Close. The pending channels
	// themselves are never closed: the reader loop may still be routing a
	// response into one of them.
	done chan struct{}

	nextID    uint64
	closeOnce sync.Once
}

func newPeerConn(conn *websocket.Conn, writeTimeout time.Duration) *peerConn {
	return &peerConn{
		conn:         conn,
		writeTimeout: writeTimeout,
		pending:      make(map[uint64]chan Envelope),
		done:         make(chan struct{}),
	}
}

func (p *peerConn) write(env Envelope) error {
	p.writeMu.Lock()
	defer p.writeMu.Unlock()
	p.conn.SetWriteDeadline(time.Now().Add(p.writeTimeout))
	return p.conn.WriteJSON(env)
}

func (p *peerConn) Notify(method string, data interface{}) error {
	raw, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to marshal notification %s: %w", method, err)
	}
	return p.write(newNotification(method, raw))
}

func (p *peerConn) Request(ctx context.Context, method string, data interface{}) (json.RawMessage, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request %s: %w", method, err)
	}

	id := atomic.AddUint64(&p.nextID, 1)
	ch := make(chan Envelope, 1)

	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil, fmt.Errorf("connection closed")
	}
	p.pending[id] = ch
	p.mu.Unlock()

	defer func() {
		p.mu.Lock()
		delete(p.pending, id)
		p.mu.Unlock()
	}()

	if err := p.write(newRequest(id, method, raw)); err != nil {
		return nil, err
	}

	select {
	case env := <-ch:
		if !env.OK {
			return nil, fmt.Errorf("request %s rejected: %d %s", method, env.ErrorCode, env.ErrorReason)
		}
		return env.Data, nil
	case <-p.done:
		return nil, fmt.Errorf("connection closed")
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// handleResponse routes an inbound response envelope to the waiting
// request, if it is still waiting.
func (p *peerConn) handleResponse(env Envelope) {
	p.mu.Lock()
	ch, ok := p.pending[env.ID]
	p.mu.Unlock()
	if ok {
		select {
		case ch <- env:
		default:
		}
	}
}

func (p *peerConn) Close() {
	p.closeOnce.Do(func() {
		p.mu.Lock()
		p.closed = true
		p.mu.Unlock()
		close(p.done)
		p.conn.Close()
	})
}
