package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"mini_thermostat/internal/logger"
	"mini_thermostat/internal/models"
)

const (
	eventQueueSize   = 32
	outboxSize       = 64
	subscriberBuffer = 16
	sendTimeout      = 10 * time.Second

	warningUnavailable = "Entity not available"
)

// Event types published to subscribers.
const (
	EventView     = "view"
	EventMoreInfo = "more_info"
	EventCommand  = "command"
	EventError    = "error"
)

// Event is one notification from the card.
type Event struct {
	Type     string                `json:"type"`
	View     *View                 `json:"view,omitempty"`
	EntityID string                `json:"entity_id,omitempty"`
	Command  *models.CommandRecord `json:"command,omitempty"`
	Error    string                `json:"error,omitempty"`
}

// View is everything a renderer needs for one frame of the card.
type View struct {
	Entity        string                     `json:"entity"`
	Header        string                     `json:"header,omitempty"`
	Available     bool                       `json:"available"`
	Warning       string                     `json:"warning,omitempty"`
	State         string                     `json:"state,omitempty"`
	RelativeState models.RelativeState       `json:"relative_state,omitempty"`
	Current       string                     `json:"current,omitempty"`
	Target        string                     `json:"target,omitempty"`
	TargetValue   *float64                   `json:"target_value,omitempty"`
	Pending       bool                       `json:"pending"`
	Grouped       bool                       `json:"grouped,omitempty"`
	Tiny          bool                       `json:"tiny,omitempty"`
	Controls      []models.ControlDescriptor `json:"controls,omitempty"`
}

// Outcome reports what handling an intent did.
type Outcome struct {
	Command  *models.CommandRecord `json:"command,omitempty"`
	Target   *float64              `json:"target,omitempty"`
	Pending  bool                  `json:"pending"`
	MoreInfo string                `json:"more_info,omitempty"`
}

// CardService is one thermostat card. All state is owned by the goroutine
// running Run; every public method posts a closure onto that loop, so
// snapshots, intents and debounce expiries are processed one at a time in
// arrival order.
type CardService struct {
	log  *logger.Logger
	sink CommandSink

	events  chan func()
	outbox  chan models.CommandRecord
	stopped chan struct{}
	once    sync.Once
	runDone <-chan struct{}

	// owned by the loop
	cfg        *models.CardConfig
	snap       *models.EntitySnapshot
	store      *TargetStore
	dispatcher Dispatcher

	subMu   sync.Mutex
	subs    map[int]chan Event
	nextSub int
}

// NewCardService builds a card. The configuration lives only as long as the
// card; sched nil means real timers.
func NewCardService(sink CommandSink, sched Scheduler, log *logger.Logger) *CardService {
	if log == nil {
		log = logger.Nop()
	}
	c := &CardService{
		log:     log,
		sink:    sink,
		events:  make(chan func(), eventQueueSize),
		outbox:  make(chan models.CommandRecord, outboxSize),
		stopped: make(chan struct{}),
		subs:    make(map[int]chan Event),
	}
	c.store = NewTargetStore(sched, c.onExpire)
	return c
}

// Run processes events until ctx is canceled. Outbound commands are sent
// in order by a separate goroutine so a slow host never stalls the loop.
func (c *CardService) Run(ctx context.Context) {
	c.runDone = ctx.Done()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		c.sendLoop(ctx)
	}()

	defer func() {
		c.store.Reset(c.store.EntityID())
		c.once.Do(func() { close(c.stopped) })
		wg.Wait()
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case fn := <-c.events:
			fn()
		}
	}
}

// SetConfig validates cfg and, when valid, activates it. A rejected
// configuration leaves the previous one in place.
func (c *CardService) SetConfig(ctx context.Context, cfg models.CardConfig) error {
	if err := ValidateConfig(cfg); err != nil {
		c.log.Infow("card_config_rejected", "entity", cfg.Entity, "err", err)
		return err
	}
	return c.do(ctx, func() { c.activate(cfg) })
}

// Config returns the active configuration.
func (c *CardService) Config(ctx context.Context) (models.CardConfig, error) {
	var (
		cfg models.CardConfig
		err error
	)
	if derr := c.do(ctx, func() {
		if c.cfg == nil {
			err = ErrNotConfigured
			return
		}
		cfg = *c.cfg
	}); derr != nil {
		return models.CardConfig{}, derr
	}
	return cfg, err
}

// PushSnapshot delivers an entity snapshot. Snapshots for entities other
// than the configured one are ignored.
func (c *CardService) PushSnapshot(ctx context.Context, snap models.EntitySnapshot) error {
	var err error
	if derr := c.do(ctx, func() {
		if c.cfg == nil {
			err = ErrNotConfigured
			return
		}
		if snap.EntityID != c.cfg.Entity {
			c.log.Debugw("card_snapshot_ignored", "entity", snap.EntityID, "configured", c.cfg.Entity)
			return
		}
		s := snap
		c.snap = &s
		c.store.Reconcile(s)
		c.publishView()
	}); derr != nil {
		return derr
	}
	return err
}

// Handle routes one user intent.
func (c *CardService) Handle(ctx context.Context, in models.Intent) (Outcome, error) {
	var (
		out Outcome
		err error
	)
	if derr := c.do(ctx, func() {
		if c.cfg == nil {
			err = ErrNotConfigured
			return
		}
		out, err = c.route(in, true)
		if err == nil {
			c.publishView()
		}
	}); derr != nil {
		return Outcome{}, derr
	}
	return out, err
}

// View renders the current frame.
func (c *CardService) View(ctx context.Context) (View, error) {
	var (
		v   View
		err error
	)
	if derr := c.do(ctx, func() {
		if c.cfg == nil {
			err = ErrNotConfigured
			return
		}
		v = c.view()
	}); derr != nil {
		return View{}, derr
	}
	return v, err
}

// Subscribe registers a listener. Slow listeners miss events rather than
// block the card. The returned func unsubscribes.
func (c *CardService) Subscribe() (<-chan Event, func()) {
	ch := make(chan Event, subscriberBuffer)
	c.subMu.Lock()
	id := c.nextSub
	c.nextSub++
	c.subs[id] = ch
	c.subMu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			c.subMu.Lock()
			delete(c.subs, id)
			c.subMu.Unlock()
			close(ch)
		})
	}
}

func (c *CardService) activate(cfg models.CardConfig) {
	sameEntity := c.cfg != nil && c.cfg.Entity == cfg.Entity
	c.cfg = &cfg
	c.store.Reset(cfg.Entity)
	if !sameEntity {
		c.snap = nil
	} else if c.snap != nil {
		c.store.Reconcile(*c.snap)
	}
	c.log.Infow("card_config_activated", "entity", cfg.Entity, "same_entity", sameEntity)
	c.publishView()
}

func (c *CardService) route(in models.Intent, allowActivate bool) (Outcome, error) {
	entity := c.cfg.Entity
	switch in.Kind {
	case models.IntentIncrease, models.IntentDecrease:
		delta := stepSize(*c.cfg)
		if in.Kind == models.IntentDecrease {
			delta = -delta
		}
		if _, err := c.store.ProposeDelta(delta); err != nil {
			return Outcome{}, err
		}
		return c.pendingOutcome(), nil

	case models.IntentSetTemperature:
		if in.Temperature == nil {
			return Outcome{}, fmt.Errorf("%w: set_temperature needs a temperature", ErrUnknownIntent)
		}
		c.store.ProposeAbsolute(*in.Temperature)
		return c.pendingOutcome(), nil

	case models.IntentSelectHvacMode, models.IntentSelectPresetMode:
		rec, ok := c.dispatcher.SelectMode(entity, modeKindForIntent(in.Kind), in.Value, c.snap)
		if !ok {
			return Outcome{}, nil
		}
		c.emit(rec)
		return Outcome{Command: &rec}, nil

	case models.IntentCallButton:
		b, err := c.configuredButton(in.Index)
		if err != nil {
			return Outcome{}, err
		}
		rec, err := c.dispatcher.InvokeButton(b)
		if err != nil {
			c.log.Infow("card_button_rejected", "entity", b.Entity, "err", err)
			return Outcome{}, err
		}
		c.emit(rec)
		return Outcome{Command: &rec}, nil

	case models.IntentMoreInfo:
		c.publish(Event{Type: EventMoreInfo, EntityID: entity})
		return Outcome{MoreInfo: entity}, nil

	case models.IntentActivate:
		if !allowActivate || in.Index == nil {
			return Outcome{}, fmt.Errorf("%w: activate needs a control index", ErrUnknownIntent)
		}
		controls := c.compose()
		i := *in.Index
		if i < 0 || i >= len(controls) || controls[i].Intent == nil {
			return Outcome{}, fmt.Errorf("%w: index %d", ErrControlNotFound, i)
		}
		next := *controls[i].Intent
		if controls[i].Kind == models.ControlDropdown {
			next.Value = in.Value
		}
		return c.route(next, false)

	default:
		return Outcome{}, fmt.Errorf("%w: %q", ErrUnknownIntent, in.Kind)
	}
}

// configuredButton resolves a script or service button declared in the
// active layout. Only declared buttons can reach the host.
func (c *CardService) configuredButton(index *int) (models.PresetButton, error) {
	if index == nil {
		return models.PresetButton{}, fmt.Errorf("%w: call_button needs a preset button index", ErrUnknownIntent)
	}
	i := *index
	var declared []models.PresetButton
	if l := c.cfg.Layout; l != nil && l.PresetButtons != nil {
		declared = l.PresetButtons.Buttons
	}
	if i < 0 || i >= len(declared) {
		return models.PresetButton{}, fmt.Errorf("%w: preset button %d", ErrControlNotFound, i)
	}
	b := declared[i]
	if b.Type != models.ButtonScript && b.Type != models.ButtonService {
		return models.PresetButton{}, fmt.Errorf("%w: preset button %d is a %s button", ErrControlNotFound, i, b.Type)
	}
	return b, nil
}

func (c *CardService) pendingOutcome() Outcome {
	return Outcome{Target: c.store.Displayed(), Pending: c.store.Pending()}
}

func (c *CardService) compose() []models.ControlDescriptor {
	if c.snap == nil || !c.snap.Available() {
		return nil
	}
	return Compose(*c.cfg, c.snap, TargetView{Value: c.store.Displayed(), Pending: c.store.Pending()})
}

func (c *CardService) view() View {
	cfg := *c.cfg
	v := View{Entity: cfg.Entity, Header: cfg.Name}
	if cfg.Layout != nil {
		v.Grouped, v.Tiny = cfg.Layout.Grouped, cfg.Layout.Tiny
	}
	if c.snap == nil || !c.snap.Available() {
		v.Warning = warningUnavailable
		return v
	}
	unit := unitFor(cfg, c.snap)
	v.Available = true
	v.State = c.snap.State
	v.RelativeState = Classify(*c.snap)
	v.Current = formatTemperature(c.snap.CurrentTemperature, unit)
	v.TargetValue = c.store.Displayed()
	v.Target = formatTemperature(v.TargetValue, unit)
	v.Pending = c.store.Pending()
	v.Controls = c.compose()
	return v
}

// onExpire runs on the timer goroutine and hands the commit back to the loop.
func (c *CardService) onExpire(gen uint64) {
	c.post(func() {
		rec, ok := c.store.Expire(gen)
		if !ok {
			return
		}
		c.log.Debugw("card_target_committed", "entity", rec.TargetEntity, "temperature", rec.Payload["temperature"])
		c.emit(rec)
		c.publishView()
	})
}

// emit queues rec for the sender; called on the loop only.
func (c *CardService) emit(rec models.CommandRecord) {
	select {
	case c.outbox <- rec:
	case <-c.runDone:
	}
}

func (c *CardService) sendLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case rec := <-c.outbox:
			c.publish(Event{Type: EventCommand, Command: &rec})
			if c.sink == nil {
				continue
			}
			sendCtx, cancel := context.WithTimeout(ctx, sendTimeout)
			err := c.sink.Send(sendCtx, rec)
			cancel()
			if err != nil {
				c.log.Errorw("command_send_failed", "domain", rec.Domain, "service", rec.Service, "err", err)
				c.publish(Event{Type: EventError, Command: &rec, Error: err.Error()})
			}
		}
	}
}

func (c *CardService) publishView() {
	v := c.view()
	c.publish(Event{Type: EventView, View: &v})
}

func (c *CardService) publish(ev Event) {
	c.subMu.Lock()
	defer c.subMu.Unlock()
	for _, ch := range c.subs {
		select {
		case ch <- ev:
		default:
		}
	}
}

// do runs fn on the loop and waits for it to finish.
func (c *CardService) do(ctx context.Context, fn func()) error {
	done := make(chan struct{})
	select {
	case c.events <- func() { fn(); close(done) }:
	case <-ctx.Done():
		return ctx.Err()
	case <-c.stopped:
		return ErrCardStopped
	}
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-c.stopped:
		return ErrCardStopped
	}
}

// post enqueues fn without waiting for it.
func (c *CardService) post(fn func()) {
	select {
	case c.events <- fn:
	case <-c.stopped:
	}
}

// IsConfigError reports whether err came from configuration validation.
func IsConfigError(err error) bool {
	var ce *ConfigError
	return errors.As(err, &ce)
}
