package mpvctl

import (
	"bufio"
	"encoding/json"
	"fmt"
	"net"
	"sync"
	"time"
)

const requestTimeout = 5 * time.Second

type ipcResponse struct {
	Error     string          `json:"error"`
	Data      json.RawMessage `json:"data"`
	RequestID int             `json:"request_id"`

	// Event fields, present on asynchronous event lines.
	Event  string `json:"event"`
	Reason string `json:"reason"`
}

// ipcConn is one persistent connection to mpv's JSON-IPC socket. Requests
// are matched to responses by request id; asynchronous events go to the
// events channel.
type ipcConn struct {
	conn   net.Conn
	events chan ipcResponse

	mu      sync.Mutex
	nextID  int
	pending map[int]chan ipcResponse

	closeOnce sync.Once
	closed    chan struct{}
}

func dialIPC(socketPath string) (*ipcConn, error) {
	conn, err := net.Dial("unix", socketPath)
	if err != nil {
		return nil, fmt.Errorf("dial mpv socket: %w", err)
	}
	c := &ipcConn{
		conn:    conn,
		events:  make(chan ipcResponse, 16),
		pending: make(map[int]chan ipcResponse),
		closed:  make(chan struct{}),
	}
	go c.readLoop()
	return c, nil
}

func (c *ipcConn) readLoop() {
	scanner := bufio.NewScanner(c.conn)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		var resp ipcResponse
		if err := json.Unmarshal(scanner.Bytes(), &resp); err != nil {
			continue
		}
		if resp.Event != "" {
			select {
			case c.events <- resp:
			default:
				// Event consumer is behind; drop rather than block playback.
			}
			continue
		}
		c.mu.Lock()
		ch, ok := c.pending[resp.RequestID]
		if ok {
			delete(c.pending, resp.RequestID)
		}
		c.mu.Unlock()
		if ok {
			ch <- resp
		}
	}
	c.close()
}

// request sends one command and waits for its response.
func (c *ipcConn) request(cmd ...any) (json.RawMessage, error) {
	select {
	case <-c.closed:
		return nil, fmt.Errorf("mpv ipc connection closed")
	default:
	}

	c.mu.Lock()
	c.nextID++
	id := c.nextID
	ch := make(chan ipcResponse, 1)
	c.pending[id] = ch
	c.mu.Unlock()

	payload, err := json.Marshal(map[string]any{
		"command":    cmd,
		"request_id": id,
	})
	if err != nil {
		return nil, err
	}
	payload = append(payload, '\n')

	if _, err := c.conn.Write(payload); err != nil {
		c.mu.Lock()
		delete(c.pending, id)
		c.mu.Unlock()
		return nil, fmt.Errorf("write mpv command: %w", err)
	}

	select {
	case resp := <-ch:
		if resp.Error != "" && resp.Error != "success" {
			return nil, &commandError{Reason: resp.Error}
		}
		return resp.Data, nil
	case <-time.After(requestTimeout):
		c.mu.Lock()
		delete(c.pending, id)
		c.mu.Unlock()
		return nil, fmt.Errorf("mpv command timeout")
	case <-c.closed:
		return nil, fmt.Errorf("mpv ipc connection closed")
	}
}

func (c *ipcConn) close() {
	c.closeOnce.Do(func() {
		close(c.closed)
		_ = c.conn.Close()
	})
}

// commandError is an mpv-reported command failure, e.g. "property
// unavailable" before any media is loaded.
type commandError struct {
	Reason string
}

func (e *commandError) Error() string {
	return "mpv: " + e.Reason
}
