// Package mpvctl implements the playback.Player capability surface on top
// of an mpv process driven over its JSON-IPC socket. mpv resolves YouTube
// video ids through its own ytdl hook, so the engine only ever hands over
// media ids.
package mpvctl

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/soiree-app/soiree/internal/playback"
)

const (
	socketWaitRetries = 20
	socketWaitDelay   = 250 * time.Millisecond
)

// Player drives one mpv instance. Construct with New, then Start; the Ready
// channel closes once the IPC socket is controllable.
type Player struct {
	socketPath string
	cmd        *exec.Cmd
	ipc        *ipcConn

	ready  chan struct{}
	errs   chan error
	exited chan struct{}
	stop   chan struct{}
}

var _ playback.Player = (*Player)(nil)

func New() *Player {
	return &Player{
		ready:  make(chan struct{}),
		errs:   make(chan error, 4),
		exited: make(chan struct{}),
		stop:   make(chan struct{}),
	}
}

// CheckRuntime reports whether mpv is installed. Used with
// playback.LoadRuntime so the lookup happens once per process.
func CheckRuntime() error {
	if _, err := exec.LookPath("mpv"); err != nil {
		return fmt.Errorf("mpv not found in PATH: %w", err)
	}
	return nil
}

// Start spawns mpv idle and waits for the IPC socket, then begins watching
// playback events. The Ready channel closes on success.
func (p *Player) Start(ctx context.Context) error {
	p.socketPath = filepath.Join(os.TempDir(), fmt.Sprintf("soiree-%s.sock", uuid.NewString()))

	p.cmd = exec.Command("mpv",
		"--no-terminal",
		"--really-quiet",
		"--idle=yes",
		"--force-window=yes",
		fmt.Sprintf("--input-ipc-server=%s", p.socketPath),
	)
	p.cmd.Stdout = nil
	p.cmd.Stderr = nil
	p.cmd.Stdin = nil

	if err := p.cmd.Start(); err != nil {
		return fmt.Errorf("start mpv: %w", err)
	}

	go func() {
		_ = p.cmd.Wait()
		close(p.exited)
	}()

	if err := p.waitForSocket(ctx); err != nil {
		if p.cmd.Process != nil {
			_ = p.cmd.Process.Kill()
		}
		return err
	}

	ipc, err := dialIPC(p.socketPath)
	if err != nil {
		if p.cmd.Process != nil {
			_ = p.cmd.Process.Kill()
		}
		return err
	}
	p.ipc = ipc

	go p.watchEvents()
	close(p.ready)
	return nil
}

func (p *Player) waitForSocket(ctx context.Context) error {
	for i := 0; i < socketWaitRetries; i++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-p.exited:
			return errors.New("mpv exited before its socket appeared")
		default:
		}
		if conn, err := net.Dial("unix", p.socketPath); err == nil {
			_ = conn.Close()
			return nil
		}
		time.Sleep(socketWaitDelay)
	}
	return errors.New("mpv socket never became ready")
}

// watchEvents surfaces end-file errors from the runtime to the engine.
func (p *Player) watchEvents() {
	for {
		select {
		case <-p.stop:
			return
		case ev, ok := <-p.ipc.events:
			if !ok {
				return
			}
			if ev.Event == "end-file" && ev.Reason == "error" {
				select {
				case p.errs <- errors.New("mpv failed to play current item"):
				default:
				}
			}
		}
	}
}

// LoadItem loads the given video id, leaving it paused unless autoplay is
// set.
func (p *Player) LoadItem(mediaID string, autoplay bool) error {
	url := "https://www.youtube.com/watch?v=" + mediaID
	if _, err := p.ipc.request("loadfile", url, "replace"); err != nil {
		return p.mapErr(err)
	}
	if _, err := p.ipc.request("set_property", "pause", !autoplay); err != nil {
		return p.mapErr(err)
	}
	return nil
}

func (p *Player) Play() error {
	_, err := p.ipc.request("set_property", "pause", false)
	return p.mapErr(err)
}

func (p *Player) Pause() error {
	_, err := p.ipc.request("set_property", "pause", true)
	return p.mapErr(err)
}

func (p *Player) Seek(seconds float64) error {
	_, err := p.ipc.request("seek", seconds, "absolute")
	return p.mapErr(err)
}

// SetVolume takes the engine's 0..1 range; mpv speaks 0..100.
func (p *Player) SetVolume(v float64) error {
	_, err := p.ipc.request("set_property", "volume", v*100)
	return p.mapErr(err)
}

func (p *Player) Mute() error {
	_, err := p.ipc.request("set_property", "mute", true)
	return p.mapErr(err)
}

func (p *Player) Unmute() error {
	_, err := p.ipc.request("set_property", "mute", false)
	return p.mapErr(err)
}

func (p *Player) CurrentTime() (float64, error) {
	return p.floatProperty("time-pos")
}

func (p *Player) Duration() (float64, error) {
	return p.floatProperty("duration")
}

func (p *Player) floatProperty(name string) (float64, error) {
	data, err := p.ipc.request("get_property", name)
	if err != nil {
		return 0, p.mapErr(err)
	}
	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return 0, fmt.Errorf("decode %s: %w", name, err)
	}
	return v, nil
}

func (p *Player) Ready() <-chan struct{} { return p.ready }

func (p *Player) Errors() <-chan error { return p.errs }

// Close quits mpv and reaps the process. Idempotent through the stop
// channel guard.
func (p *Player) Close() error {
	select {
	case <-p.stop:
		return nil
	default:
		close(p.stop)
	}

	if p.ipc != nil {
		_, _ = p.ipc.request("quit")
		p.ipc.close()
	}
	if p.cmd != nil && p.cmd.Process != nil {
		select {
		case <-p.exited:
		case <-time.After(2 * time.Second):
			_ = p.cmd.Process.Kill()
		}
	}
	if p.socketPath != "" {
		_ = os.Remove(p.socketPath)
	}
	return nil
}

// mapErr translates mpv "property unavailable" replies (no media loaded
// yet) into the engine's transient error so the load gate retries.
func (p *Player) mapErr(err error) error {
	if err == nil {
		return nil
	}
	var ce *commandError
	if errors.As(err, &ce) {
		reason := strings.ToLower(ce.Reason)
		if strings.Contains(reason, "property unavailable") || strings.Contains(reason, "no data") {
			return playback.ErrNoVideoData
		}
	}
	return err
}
