package theme

import (
	"sync"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"brandkit/cell"
	"brandkit/storage"
)

// Controller owns the active theme mode. Every change is persisted under
// StorageKey and mirrored onto the surface as the DarkClass flag before the
// mutating call returns.
type Controller struct {
	mode    *cell.Cell[Mode]
	surface Surface
	log     zerolog.Logger

	// mu makes Toggle a single read-flip-write.
	mu sync.Mutex
}

// NewController restores the persisted mode, writes it back, and applies the
// flag once so the surface matches the restored mode before any caller can
// observe it. A nil store runs in memory only; a nil surface discards flags.
func NewController(store storage.KV, surface Surface) *Controller {
	if surface == nil {
		surface = NopSurface{}
	}
	c := &Controller{
		mode:    cell.NewWithCodec[Mode](store, StorageKey, DefaultMode, modeCodec{}),
		surface: surface,
		log:     log.With().Str("component", "theme").Logger(),
	}

	c.mode.Subscribe(c.apply)

	initial := c.mode.Get()
	c.mode.Persist()
	c.apply(initial)
	c.log.Debug().Str("mode", initial.String()).Msg("theme restored")

	return c
}

func (c *Controller) apply(m Mode) {
	c.surface.SetClass(DarkClass, m == Dark)
}

// Mode returns the active mode.
func (c *Controller) Mode() Mode {
	return c.mode.Get()
}

// IsDark reports whether dark mode is active.
func (c *Controller) IsDark() bool {
	return c.mode.Get() == Dark
}

// State returns the mode together with the derived dark flag.
func (c *Controller) State() State {
	m := c.mode.Get()
	return State{Mode: m, Dark: m == Dark}
}

// SetMode switches to m. An invalid mode returns ErrInvalidMode and changes
// nothing; setting the active mode again is a no-op.
func (c *Controller) SetMode(m Mode) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.mode.Set(m); err != nil {
		c.log.Warn().Str("mode", string(m)).Msg("rejected theme mode")
		return err
	}
	return nil
}

// Toggle flips between light and dark and returns the new mode.
func (c *Controller) Toggle() Mode {
	c.mu.Lock()
	defer c.mu.Unlock()

	next := c.mode.Get().Opposite()
	// next is always valid, so Set cannot fail.
	_ = c.mode.Set(next)
	return next
}

// Subscribe calls fn after each mode change, once the new mode has been
// persisted and the flag applied. The returned function unsubscribes.
func (c *Controller) Subscribe(fn func(Mode)) func() {
	return c.mode.Subscribe(fn)
}

// Provider owns the process-wide Controller. The controller, and with it
// the persistence and flag wiring, is built on the first call to Controller
// and shared by every later call.
type Provider struct {
	store   storage.KV
	surface Surface

	once sync.Once
	ctrl *Controller
}

// NewProvider prepares a provider. Nothing is read or applied until the
// first Controller call.
func NewProvider(store storage.KV, surface Surface) *Provider {
	return &Provider{store: store, surface: surface}
}

// Controller returns the shared controller, creating it on first use.
func (p *Provider) Controller() *Controller {
	p.once.Do(func() {
		p.ctrl = NewController(p.store, p.surface)
	})
	return p.ctrl
}
