package forms

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

// DefaultAsyncTimeout bounds every async check unless overridden.
const DefaultAsyncTimeout = 5 * time.Second

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithLogger sets the engine logger. Defaults to a no-op logger.
func WithLogger(logger *zap.Logger) EngineOption {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithClock overrides the clock used for debouncing and async delays.
func WithClock(clock Clock) EngineOption {
	return func(e *Engine) {
		if clock != nil {
			e.clock = clock
		}
	}
}

// WithAsyncDelay postpones each async check until the value has been stable
// for d. A newer value restarts the wait.
func WithAsyncDelay(d time.Duration) EngineOption {
	return func(e *Engine) {
		if d >= 0 {
			e.asyncDelay = d
		}
	}
}

// WithAsyncTimeout bounds each async check. Zero disables the bound.
func WithAsyncTimeout(d time.Duration) EngineOption {
	return func(e *Engine) {
		if d >= 0 {
			e.asyncTimeout = d
		}
	}
}

// WithInputSanitizer filters raw text delivered through OnFieldInput.
func WithInputSanitizer(fn InputSanitizer) EngineOption {
	return func(e *Engine) {
		e.sanitizer = fn
	}
}

// ValidityResult is the outcome of Validate.
type ValidityResult struct {
	Status Status
	Errors Errors
}

// Valid reports whether the status is StatusValid.
func (r ValidityResult) Valid() bool { return r.Status == StatusValid }

// Engine owns a control tree and serialises every mutation. Sync validation
// runs inline; async checks and change notifications run on timers and
// goroutines and are released by Close.
type Engine struct {
	mu   sync.Mutex
	root Control

	logger       *zap.Logger
	clock        Clock
	asyncDelay   time.Duration
	asyncTimeout time.Duration
	sanitizer    InputSanitizer

	ctx    context.Context
	cancel context.CancelFunc

	subs    map[uint64]*Subscription
	nextSub uint64
	changed chan struct{}
	closed  bool
}

// New takes ownership of root, evaluates it and issues initial async checks.
func New(root Control, opts ...EngineOption) *Engine {
	if root == nil {
		panic("forms: engine root is nil")
	}
	e := &Engine{
		root:         root,
		logger:       zap.NewNop(),
		clock:        SystemClock{},
		asyncTimeout: DefaultAsyncTimeout,
		subs:         make(map[uint64]*Subscription),
		changed:      make(chan struct{}),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(e)
		}
	}
	e.ctx, e.cancel = context.WithCancel(context.Background())

	e.mu.Lock()
	var all []Control
	walk(root, func(c Control) { all = append(all, c) })
	e.revalidateLocked(all)
	e.mu.Unlock()
	return e
}

// Root returns the owned tree. Its accessors are not synchronised with the
// engine; prefer the engine queries when async checks may be running.
func (e *Engine) Root() Control { return e.root }

// SetValue assigns a field value as user input: the field and its ancestors
// become dirty, the tree is revalidated and listeners are notified.
func (e *Engine) SetValue(path string, value any) error {
	return e.assign(path, value, true)
}

// Patch assigns a field value programmatically without marking it dirty.
func (e *Engine) Patch(path string, value any) error {
	return e.assign(path, value, false)
}

func (e *Engine) assign(path string, value any, markDirty bool) error {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return ErrClosed
	}
	f, err := e.fieldLocked(path)
	if err != nil {
		e.mu.Unlock()
		return err
	}
	f.value = value
	chain := ancestors(f)
	if markDirty {
		for _, c := range chain {
			c.base().dirty = true
		}
	}
	e.revalidateLocked(chain)
	e.logger.Debug("field value changed", zap.String("path", path), zap.Bool("dirty", markDirty))
	snapshot, subs := e.root.Value(), e.subscribersLocked()
	e.mu.Unlock()

	e.publish(snapshot, subs)
	return nil
}

// MarkTouched flags the control at path, and its ancestors, as touched.
func (e *Engine) MarkTouched(path string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return ErrClosed
	}
	c, err := e.controlLocked(path)
	if err != nil {
		return err
	}
	for _, anc := range ancestors(c) {
		anc.base().touched = true
	}
	return nil
}

// MarkAllTouched flags every control in the tree as touched.
func (e *Engine) MarkAllTouched() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return ErrClosed
	}
	walk(e.root, func(c Control) { c.base().touched = true })
	return nil
}

// Validate reports the status and own errors of the control at path.
func (e *Engine) Validate(path string) (ValidityResult, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	c, err := e.controlLocked(path)
	if err != nil {
		return ValidityResult{}, err
	}
	n := c.base()
	return ValidityResult{Status: n.status, Errors: n.Errors()}, nil
}

// IsValid reports whether the control at path (the whole tree for "") is
// valid. Unknown paths are never valid.
func (e *Engine) IsValid(path string) bool {
	res, err := e.Validate(path)
	return err == nil && res.Valid()
}

// Status returns the status of the control at path.
func (e *Engine) Status(path string) (Status, error) {
	res, err := e.Validate(path)
	return res.Status, err
}

// Errors returns the own errors of the control at path.
func (e *Engine) Errors(path string) Errors {
	res, _ := e.Validate(path)
	return res.Errors
}

// Touched reports the touched flag of the control at path.
func (e *Engine) Touched(path string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	c, err := e.controlLocked(path)
	return err == nil && c.base().touched
}

// Dirty reports the dirty flag of the control at path.
func (e *Engine) Dirty(path string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	c, err := e.controlLocked(path)
	return err == nil && c.base().dirty
}

// Value returns a snapshot of the value at path.
func (e *Engine) Value(path string) (any, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	c, err := e.controlLocked(path)
	if err != nil {
		return nil, err
	}
	return c.Value(), nil
}

// Reset restores the control at path ("" for the whole tree) to its initial
// values, clears touched/dirty flags and async outcomes, and re-derives
// validity from the restored values.
func (e *Engine) Reset(path string) error {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return ErrClosed
	}
	c, err := e.controlLocked(path)
	if err != nil {
		e.mu.Unlock()
		return err
	}
	c.resetValue()
	var changed []Control
	walk(c, func(x Control) {
		n := x.base()
		n.touched, n.dirty = false, false
		n.stopAsync()
		changed = append(changed, x)
	})
	for _, anc := range ancestors(c)[1:] {
		syncFlags(anc)
		changed = append(changed, anc)
	}
	e.revalidateLocked(changed)
	e.logger.Debug("form reset", zap.String("path", path))
	snapshot, subs := e.root.Value(), e.subscribersLocked()
	e.mu.Unlock()

	e.publish(snapshot, subs)
	return nil
}

// Push appends c to the array at path.
func (e *Engine) Push(path string, c Control) error {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return ErrClosed
	}
	a, err := e.arrayLocked(path)
	if err != nil {
		e.mu.Unlock()
		return err
	}
	a.push(c)
	var changed []Control
	walk(c, func(x Control) { changed = append(changed, x) })
	changed = append(changed, ancestors(a)...)
	e.revalidateLocked(changed)
	snapshot, subs := e.root.Value(), e.subscribersLocked()
	e.mu.Unlock()

	e.publish(snapshot, subs)
	return nil
}

// RemoveAt detaches the item at index from the array at path.
func (e *Engine) RemoveAt(path string, index int) error {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return ErrClosed
	}
	a, err := e.arrayLocked(path)
	if err != nil {
		e.mu.Unlock()
		return err
	}
	if index < 0 || index >= a.Len() {
		e.mu.Unlock()
		return fmt.Errorf("%w: %s[%d]", ErrIndexOutOfRange, path, index)
	}
	removed := a.removeAt(index)
	walk(removed, func(x Control) { x.base().stopAsync() })
	for _, anc := range ancestors(a) {
		syncFlags(anc)
	}
	e.revalidateLocked(ancestors(a))
	snapshot, subs := e.root.Value(), e.subscribersLocked()
	e.mu.Unlock()

	e.publish(snapshot, subs)
	return nil
}

// OnChange registers sink to receive the latest composite value once wait
// elapses with no further changes. The value is shared between subscribers
// and must be treated as read-only. The sink may mutate the engine, but must
// not cancel its own subscription or close the engine.
func (e *Engine) OnChange(wait time.Duration, sink func(any)) *Subscription {
	deb := newDebouncer(e.clock, wait, sink)
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed || sink == nil {
		deb.stop()
		return &Subscription{deb: deb}
	}
	e.nextSub++
	sub := &Subscription{id: e.nextSub, engine: e, deb: deb}
	e.subs[sub.id] = sub
	return sub
}

// Wait blocks until no async check is pending, the engine is closed, or ctx
// is done.
func (e *Engine) Wait(ctx context.Context) error {
	for {
		e.mu.Lock()
		if e.closed || !pending(e.root) {
			e.mu.Unlock()
			return nil
		}
		ch := e.changed
		e.mu.Unlock()

		select {
		case <-ch:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// Close cancels listeners, pending debounce timers and in-flight async
// checks. No sink fires once Close returns.
func (e *Engine) Close() {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return
	}
	e.closed = true
	e.cancel()
	walk(e.root, func(c Control) {
		n := c.base()
		n.stopAsync()
	})
	refreshStatus(e.root)
	subs := e.subscribersLocked()
	e.notifyLocked()
	e.mu.Unlock()

	for _, sub := range subs {
		sub.Cancel()
	}
	e.logger.Debug("form engine closed")
}

// revalidateLocked re-runs sync validators over the whole tree and issues
// async checks for the changed controls. A control outside changed whose sync
// errors cleared (a sibling-dependent rule, say) gets a fresh check too; one
// whose sync errors appeared loses its stale async outcome.
func (e *Engine) revalidateLocked(changed []Control) {
	failing := make(map[Control]bool)
	walk(e.root, func(c Control) {
		n := c.base()
		if len(n.asyncValidators) > 0 {
			failing[c] = len(n.syncErrors) > 0
		}
	})
	evaluate(e.root)

	restarted := make(map[Control]bool, len(changed))
	for _, c := range changed {
		restarted[c] = true
		e.startAsyncLocked(c)
	}
	for c, wasFailing := range failing {
		if restarted[c] {
			continue
		}
		nowFailing := len(c.base().syncErrors) > 0
		switch {
		case wasFailing && !nowFailing:
			e.startAsyncLocked(c)
		case !wasFailing && nowFailing:
			c.base().stopAsync()
		}
	}
	refreshStatus(e.root)
	e.notifyLocked()
}

func (e *Engine) notifyLocked() {
	close(e.changed)
	e.changed = make(chan struct{})
}

func (e *Engine) subscribersLocked() []*Subscription {
	if len(e.subs) == 0 {
		return nil
	}
	out := make([]*Subscription, 0, len(e.subs))
	for _, sub := range e.subs {
		out = append(out, sub)
	}
	return out
}

func (e *Engine) unsubscribe(id uint64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.subs, id)
}

func (e *Engine) publish(snapshot any, subs []*Subscription) {
	for _, sub := range subs {
		sub.deb.trigger(snapshot)
	}
}

func (e *Engine) controlLocked(path string) (Control, error) {
	c := resolve(e.root, path)
	if c == nil {
		return nil, fmt.Errorf("%w: %q", ErrUnknownPath, path)
	}
	return c, nil
}

func (e *Engine) fieldLocked(path string) (*Field, error) {
	c, err := e.controlLocked(path)
	if err != nil {
		return nil, err
	}
	f, ok := c.(*Field)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrNotField, path)
	}
	return f, nil
}

func (e *Engine) arrayLocked(path string) (*Array, error) {
	c, err := e.controlLocked(path)
	if err != nil {
		return nil, err
	}
	a, ok := c.(*Array)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrNotArray, path)
	}
	return a, nil
}

func pending(c Control) bool {
	found := false
	walk(c, func(x Control) {
		if x.base().asyncPending {
			found = true
		}
	})
	return found
}
