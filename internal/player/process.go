package player

import (
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/spotunisia/internal/shared"
)

// DefaultArgs runs ffplay headless and exits at the end of the stream.
var DefaultArgs = []string{"-nodisp", "-autoexit", "-loglevel", "quiet"}

// ProcessMedium plays a URL by running an external player.
//
// The process cannot be paused or seeked in place, so pausing stops it and remembers the
// position, and playing or seeking restarts it at that offset.
type ProcessMedium struct {
	mu        sync.Mutex
	command   string
	args      []string
	url       string
	cmd       *exec.Cmd
	offset    time.Duration
	startedAt time.Time
	playing   bool
	volume    float64
	length    time.Duration
	gen       int
	onEnded   func()
	logger    *log.Logger
	newCmd    func(name string, args ...string) *exec.Cmd
	now       func() time.Time
}

// NewProcessMedium creates a medium running command with args before the per-item flags.
func NewProcessMedium(command string, args []string, logger *log.Logger) *ProcessMedium {
	if command == "" {
		command = "ffplay"
	}
	if args == nil {
		args = DefaultArgs
	}
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &ProcessMedium{
		command: command,
		args:    args,
		volume:  1,
		logger:  logger,
		newCmd:  exec.Command,
		now:     time.Now,
	}
}

// Available reports whether the player command can be found on PATH.
func (m *ProcessMedium) Available() error {
	if _, err := exec.LookPath(m.command); err != nil {
		return fmt.Errorf("%w: %s not found: %w", shared.ErrServiceUnavailable, m.command, err)
	}
	return nil
}

// OnEnded registers fn to run when an item plays to its end.
func (m *ProcessMedium) OnEnded(fn func()) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onEnded = fn
}

// SetLength tells the medium how long the loaded item is.
func (m *ProcessMedium) SetLength(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.length = d
}

func (m *ProcessMedium) Load(_ context.Context, url string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stop()
	m.url = url
	m.offset = 0
	m.length = 0
	return nil
}

func (m *ProcessMedium) Play() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.playing {
		return nil
	}
	return m.start()
}

func (m *ProcessMedium) Pause() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.playing {
		return nil
	}
	m.offset = m.position()
	m.stop()
	return nil
}

func (m *ProcessMedium) Seek(pos time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.offset = max(pos, 0)
	if !m.playing {
		return nil
	}
	m.stop()
	return m.start()
}

func (m *ProcessMedium) SetVolume(v float64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.volume = clampVolume(v)
	if !m.playing {
		return nil
	}
	m.offset = m.position()
	m.stop()
	return m.start()
}

func (m *ProcessMedium) Position() time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.position()
}

func (m *ProcessMedium) Duration() time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.length
}

// Close stops any running process.
func (m *ProcessMedium) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stop()
	return nil
}

// Args returns the full argument list for the loaded item at the current offset.
func (m *ProcessMedium) Args() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.buildArgs()
}

func (m *ProcessMedium) buildArgs() []string {
	args := append([]string{}, m.args...)
	if m.offset > 0 {
		args = append(args, "-ss", strconv.FormatFloat(m.offset.Seconds(), 'f', 2, 64))
	}
	args = append(args, "-volume", strconv.Itoa(int(m.volume*100)), m.url)
	return args
}

func (m *ProcessMedium) position() time.Duration {
	if !m.playing {
		return m.offset
	}
	pos := m.offset + m.now().Sub(m.startedAt)
	if m.length > 0 {
		pos = min(pos, m.length)
	}
	return pos
}

// start must be called with m.mu held.
func (m *ProcessMedium) start() error {
	if m.url == "" {
		return shared.ErrNoCurrentItem
	}

	cmd := m.newCmd(m.command, m.buildArgs()...)
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to start %s: %w", m.command, err)
	}

	m.gen++
	m.cmd = cmd
	m.playing = true
	m.startedAt = m.now()
	m.logger.Debug("player started", "command", m.command, "offset", m.offset)

	go m.wait(cmd, m.gen)
	return nil
}

// wait reaps cmd and reports a natural end. Processes replaced or stopped by the medium are ignored.
func (m *ProcessMedium) wait(cmd *exec.Cmd, gen int) {
	err := cmd.Wait()

	m.mu.Lock()
	if gen != m.gen || !m.playing {
		m.mu.Unlock()
		return
	}
	m.playing = false
	m.cmd = nil
	m.offset = 0
	fn := m.onEnded
	m.mu.Unlock()

	if err != nil {
		m.logger.Warn("player exited with error", "error", err)
	}
	if fn != nil {
		fn()
	}
}

// stop must be called with m.mu held.
func (m *ProcessMedium) stop() {
	m.gen++
	m.playing = false
	if m.cmd != nil && m.cmd.Process != nil {
		if err := m.cmd.Process.Kill(); err != nil {
			m.logger.Debug("player kill failed", "error", err)
		}
	}
	m.cmd = nil
}
