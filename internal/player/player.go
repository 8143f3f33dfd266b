package player

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/spotunisia/internal/models"
	"github.com/desertthunder/spotunisia/internal/normalize"
	"github.com/desertthunder/spotunisia/internal/shared"
)

// Medium produces sound for one URL at a time.
type Medium interface {
	Load(ctx context.Context, url string) error
	Play() error
	Pause() error
	Seek(pos time.Duration) error
	SetVolume(v float64) error
	Position() time.Duration
	Duration() time.Duration
}

// SourceFunc finds a playable URL for an item without a preview.
type SourceFunc func(ctx context.Context, track models.Track) (string, error)

// State is a snapshot of the controller. IsPlaying implies Current != nil.
type State struct {
	Current     *models.Track  `json:"current,omitempty"`
	IsPlaying   bool           `json:"is_playing"`
	Queue       []models.Track `json:"queue"`
	ContainerID string         `json:"container_id,omitempty"`
	Volume      float64        `json:"volume"`
	Source      string         `json:"source,omitempty"`
	Notice      string         `json:"notice,omitempty"`
}

// clone deep-copies s so callers cannot reach controller memory.
func (s State) clone() State {
	out := s
	if s.Current != nil {
		cur := *s.Current
		out.Current = &cur
	}
	out.Queue = slices.Clone(s.Queue)
	return out
}

// Controller is the playback/queue state machine.
type Controller struct {
	mu     sync.Mutex
	state  State
	known  []models.Track
	medium Medium
	source SourceFunc
	logger *log.Logger
	subs   []chan State
	gen    uint64
}

// Option configures a [Controller].
type Option func(*Controller)

// WithSource sets the lookup used for items without a preview.
func WithSource(fn SourceFunc) Option {
	return func(c *Controller) { c.source = fn }
}

// WithLogger sets the controller's logger.
func WithLogger(l *log.Logger) Option {
	return func(c *Controller) { c.logger = l }
}

// WithVolume sets the starting volume, clamped to [0,1].
func WithVolume(v float64) Option {
	return func(c *Controller) { c.state.Volume = clampVolume(v) }
}

// NewController creates a controller driving medium.
func NewController(medium Medium, opts ...Option) *Controller {
	c := &Controller{medium: medium, state: State{Volume: 1}}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = shared.NewLogger(nil)
	}
	return c
}

// State returns a copy of the current state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.clone()
}

// SetKnown replaces the collection used to build a queue when an item has no container.
func (c *Controller) SetKnown(items []models.Track) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.known = slices.Clone(items)
}

// SelectItem makes item current and playing, or toggles play/pause when it already is current.
func (c *Controller) SelectItem(ctx context.Context, item models.Track, container *models.Container) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state.Current != nil && c.state.Current.ID == item.ID {
		return c.toggle()
	}

	if idx := container.IndexOf(item.ID); idx >= 0 {
		queue := make([]models.Track, 0, len(container.Items)-1)
		queue = append(queue, container.Items[idx+1:]...)
		queue = append(queue, container.Items[:idx]...)
		c.state.Queue = queue
		c.state.ContainerID = container.ID
	} else {
		c.state.Queue = slices.DeleteFunc(slices.Clone(c.known), func(t models.Track) bool { return t.ID == item.ID })
		c.state.ContainerID = ""
	}

	return c.start(ctx, item)
}

// SelectContainer plays the container from its first item. An empty container changes nothing.
func (c *Controller) SelectContainer(ctx context.Context, container *models.Container) error {
	if container.Len() == 0 {
		return shared.ErrEmptyContainer
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.state.Queue = slices.Clone(container.Items[1:])
	c.state.ContainerID = container.ID
	return c.start(ctx, container.Items[0])
}

// TogglePlayPause flips the playing flag of the current item.
func (c *Controller) TogglePlayPause() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.toggle()
}

// Advance makes the head of the queue current. It reports false and changes nothing when the queue is empty.
func (c *Controller) Advance(ctx context.Context) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.state.Queue) == 0 {
		return false, nil
	}
	next := c.state.Queue[0]
	c.state.Queue = slices.Clone(c.state.Queue[1:])
	return true, c.start(ctx, next)
}

// OnItemEnded is called when the medium finishes the current item.
func (c *Controller) OnItemEnded(ctx context.Context) (bool, error) {
	return c.Advance(ctx)
}

// Retreat rewinds the current item to the beginning.
func (c *Controller) Retreat() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state.Current == nil {
		return nil
	}
	return c.medium.Seek(0)
}

// Seek moves the playback position, clamped to [0, duration].
func (c *Controller) Seek(pos time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state.Current == nil {
		return shared.ErrNoCurrentItem
	}
	return c.medium.Seek(clampPosition(pos, c.duration()))
}

// SeekBy moves the playback position relative to where it is now.
func (c *Controller) SeekBy(delta time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state.Current == nil {
		return shared.ErrNoCurrentItem
	}
	return c.medium.Seek(clampPosition(c.medium.Position()+delta, c.duration()))
}

// SetVolume sets the output level, clamped to [0,1].
func (c *Controller) SetVolume(v float64) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.state.Volume = clampVolume(v)
	err := c.medium.SetVolume(c.state.Volume)
	c.publish()
	return err
}

// Progress returns the medium position and the duration used for clamping.
func (c *Controller) Progress() (time.Duration, time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state.Current == nil {
		return 0, 0
	}
	return c.medium.Position(), c.duration()
}

// Subscribe returns a channel that receives a snapshot after every transition.
//
// Slow readers miss intermediate snapshots; the latest one is always delivered.
func (c *Controller) Subscribe() <-chan State {
	c.mu.Lock()
	defer c.mu.Unlock()
	ch := make(chan State, 1)
	c.subs = append(c.subs, ch)
	return ch
}

// Close releases subscribers.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, ch := range c.subs {
		close(ch)
	}
	c.subs = nil
}

// toggle must be called with c.mu held.
func (c *Controller) toggle() error {
	if c.state.Current == nil {
		return shared.ErrNoCurrentItem
	}
	c.state.IsPlaying = !c.state.IsPlaying

	var err error
	if c.state.IsPlaying {
		err = c.medium.Play()
	} else {
		err = c.medium.Pause()
	}
	c.publish()
	return err
}

// start makes item current and playing and loads it into the medium. Must be called with c.mu held.
//
// The lock is released while the source lookup runs. A selection made meanwhile supersedes this
// one and the resolved URL is dropped. A load failure keeps the transition and is reported through
// State.Notice and the returned error.
func (c *Controller) start(ctx context.Context, item models.Track) error {
	c.gen++
	gen := c.gen
	c.state.Current = &item
	c.state.IsPlaying = true
	c.state.Notice = ""
	c.state.Source = ""
	defer c.publish()

	url := item.PreviewURL
	if url == "" && c.source != nil {
		c.publish()
		c.mu.Unlock()
		resolved, err := c.source(ctx, item)
		c.mu.Lock()

		if gen != c.gen {
			c.logger.Debug("dropping superseded source", "id", item.ID)
			return nil
		}
		if err != nil {
			c.state.Notice = err.Error()
			c.logger.Warn("no source for item", "id", item.ID, "title", item.Title, "error", err)
			return fmt.Errorf("%w: %w", shared.ErrNoSource, err)
		}
		url = resolved
	}
	if url == "" {
		c.state.Notice = "no preview available"
		return shared.ErrNoSource
	}

	c.state.Source = url
	if err := c.medium.Load(ctx, url); err != nil {
		c.state.Notice = "playback failed"
		c.logger.Error("medium load failed", "id", item.ID, "error", err)
		return err
	}
	if err := c.medium.SetVolume(c.state.Volume); err != nil {
		c.logger.Warn("medium volume failed", "error", err)
	}
	if !c.state.IsPlaying {
		return nil
	}
	return c.medium.Play()
}

// duration prefers the medium's answer and falls back to the item's nominal runtime.
func (c *Controller) duration() time.Duration {
	if d := c.medium.Duration(); d > 0 {
		return d
	}
	if c.state.Current == nil {
		return 0
	}
	return time.Duration(normalize.ParseDuration(c.state.Current.Duration)) * time.Millisecond
}

// publish must be called with c.mu held.
func (c *Controller) publish() {
	snap := c.state.clone()
	for _, ch := range c.subs {
		select {
		case ch <- snap:
		default:
			// drop the stale snapshot and deliver the new one
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- snap:
			default:
			}
		}
	}
}

func clampPosition(pos, duration time.Duration) time.Duration {
	return max(0, min(pos, duration))
}

func clampVolume(v float64) float64 {
	return max(0, min(v, 1))
}

// IsNoSource reports whether err came from an item that had nothing to play.
func IsNoSource(err error) bool {
	return errors.Is(err, shared.ErrNoSource)
}
