package mpvctl

import (
	"bufio"
	"encoding/json"
	"errors"
	"net"
	"path/filepath"
	"testing"
	"time"

	"github.com/soiree-app/soiree/internal/playback"
)

// fakeMPV serves one JSON-IPC connection on a unix socket and answers
// commands through the handler.
func fakeMPV(t *testing.T, handler func(cmd []any) (any, string)) string {
	t.Helper()
	socketPath := filepath.Join(t.TempDir(), "mpv.sock")
	ln, err := net.Listen("unix", socketPath)
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	t.Cleanup(func() { ln.Close() })

	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()

		scanner := bufio.NewScanner(conn)
		for scanner.Scan() {
			var req struct {
				Command   []any `json:"command"`
				RequestID int   `json:"request_id"`
			}
			if json.Unmarshal(scanner.Bytes(), &req) != nil {
				continue
			}
			data, errStr := handler(req.Command)
			resp := map[string]any{
				"request_id": req.RequestID,
				"error":      errStr,
			}
			if data != nil {
				resp["data"] = data
			}
			line, _ := json.Marshal(resp)
			line = append(line, '\n')
			conn.Write(line)
		}
	}()
	return socketPath
}

func TestIPCRequestResponse(t *testing.T) {
	socketPath := fakeMPV(t, func(cmd []any) (any, string) {
		if cmd[0] == "get_property" && cmd[1] == "duration" {
			return 180.0, "success"
		}
		return nil, "success"
	})

	c, err := dialIPC(socketPath)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer c.close()

	data, err := c.request("get_property", "duration")
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if v != 180.0 {
		t.Fatalf("duration = %v, want 180", v)
	}
}

func TestIPCCommandError(t *testing.T) {
	socketPath := fakeMPV(t, func(cmd []any) (any, string) {
		return nil, "property unavailable"
	})

	c, err := dialIPC(socketPath)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer c.close()

	_, err = c.request("get_property", "time-pos")
	var cmdErr *commandError
	if !errors.As(err, &cmdErr) {
		t.Fatalf("err = %v, want commandError", err)
	}
	if cmdErr.Reason != "property unavailable" {
		t.Fatalf("reason = %q", cmdErr.Reason)
	}
}

func TestIPCRequestAfterClose(t *testing.T) {
	socketPath := fakeMPV(t, func(cmd []any) (any, string) {
		return nil, "success"
	})

	c, err := dialIPC(socketPath)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	c.close()

	if _, err := c.request("get_property", "duration"); err == nil {
		t.Fatal("request on closed connection should fail")
	}
}

func TestIPCConcurrentRequests(t *testing.T) {
	socketPath := fakeMPV(t, func(cmd []any) (any, string) {
		return cmd[1], "success"
	})

	c, err := dialIPC(socketPath)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer c.close()

	done := make(chan error, 10)
	for i := 0; i < 10; i++ {
		name := string(rune('a' + i))
		go func() {
			data, err := c.request("get_property", name)
			if err != nil {
				done <- err
				return
			}
			var got string
			if err := json.Unmarshal(data, &got); err != nil {
				done <- err
				return
			}
			if got != name {
				done <- errors.New("response matched to wrong request: " + got + " != " + name)
				return
			}
			done <- nil
		}()
	}
	for i := 0; i < 10; i++ {
		select {
		case err := <-done:
			if err != nil {
				t.Fatal(err)
			}
		case <-time.After(2 * time.Second):
			t.Fatal("concurrent requests timed out")
		}
	}
}

func TestMapErrTranslatesPropertyUnavailable(t *testing.T) {
	p := New()

	err := p.mapErr(&commandError{Reason: "property unavailable"})
	if !errors.Is(err, playback.ErrNoVideoData) {
		t.Fatalf("err = %v, want ErrNoVideoData", err)
	}

	other := errors.New("broken pipe")
	if got := p.mapErr(other); !errors.Is(got, other) {
		t.Fatalf("unrelated errors must pass through, got %v", got)
	}
	if p.mapErr(nil) != nil {
		t.Fatal("nil must map to nil")
	}
}
