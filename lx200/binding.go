package lx200

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/puzpuzpuz/xsync/v3"

	"github.com/Rodot-/tellascope/internal/clock"
)

// Exchanger runs a single command/reply exchange. *LinkDriver implements it.
type Exchanger interface {
	Exchange(ctx context.Context, cmd Command) ([]byte, error)
}

var _ Exchanger = (*LinkDriver)(nil)

// Decoder converts a reply payload into a typed value. Decoders are pure and
// must return an error, never panic, on payloads outside their grammar.
type Decoder[T any] func(payload []byte) (T, error)

// Resolve queries mnemonic through ex and decodes the reply.
//
// Link errors are returned as-is. A payload that decode rejects yields a
// *DecodeError, which matches ErrDecode.
func Resolve[T any](ctx context.Context, ex Exchanger, mnemonic string, decode Decoder[T]) (T, error) {
	var zero T

	reply, err := ex.Exchange(ctx, NewCommand(mnemonic, ""))
	if err != nil {
		return zero, err
	}

	v, err := decode(reply)
	if err != nil {
		var de *DecodeError
		if errors.As(err, &de) {
			return zero, err
		}
		return zero, &DecodeError{Mnemonic: mnemonic, Payload: reply, Err: err}
	}

	return v, nil
}

// Slot stores the last successfully decoded value of an attribute.
// It is safe for concurrent use.
type Slot[T any] struct {
	mu      sync.RWMutex
	value   T
	valid   bool
	updated time.Time
}

// Get returns the stored value and whether one has ever been stored.
func (s *Slot[T]) Get() (T, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.value, s.valid
}

// Updated returns when the value was last stored.
func (s *Slot[T]) Updated() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.updated
}

func (s *Slot[T]) store(v T, at time.Time) {
	s.mu.Lock()
	s.value, s.valid, s.updated = v, true, at
	s.mu.Unlock()
}

// Resolver is the type-erased view of a Binding, used by Registry.
type Resolver interface {
	Mnemonic() string
	// ResolveAny resolves the binding and returns the decoded value.
	ResolveAny(ctx context.Context, ex Exchanger) (any, error)
	// LastAny returns the stored value, if any.
	LastAny() (any, bool)
}

// Binding ties a query mnemonic to a decoder and a storage slot.
type Binding[T any] struct {
	mnemonic string
	decode   Decoder[T]
	slot     *Slot[T]
	clock    Clock
}

var _ Resolver = (*Binding[int])(nil)

// BindingOption configures a Binding.
type BindingOption func(*bindingConfig)

type bindingConfig struct {
	clock Clock
}

// WithBindingClock sets the clock used to stamp stored values.
// Share the link's clock so Slot.Updated follows it.
func WithBindingClock(c Clock) BindingOption {
	return func(cfg *bindingConfig) {
		if c != nil {
			cfg.clock = c
		}
	}
}

// NewBinding returns a Binding with its own empty slot.
func NewBinding[T any](mnemonic string, decode Decoder[T], opts ...BindingOption) *Binding[T] {
	cfg := bindingConfig{clock: clock.Real{}}
	for _, opt := range opts {
		opt(&cfg)
	}

	return &Binding[T]{mnemonic: mnemonic, decode: decode, slot: &Slot[T]{}, clock: cfg.clock}
}

// Mnemonic returns the query mnemonic.
func (b *Binding[T]) Mnemonic() string { return b.mnemonic }

// Slot returns the binding's storage slot.
func (b *Binding[T]) Slot() *Slot[T] { return b.slot }

// Value returns the last stored value.
func (b *Binding[T]) Value() (T, bool) { return b.slot.Get() }

// Resolve queries the device and stores the decoded value.
// On any error the slot keeps its previous value.
func (b *Binding[T]) Resolve(ctx context.Context, ex Exchanger) (T, error) {
	v, err := Resolve(ctx, ex, b.mnemonic, b.decode)
	if err != nil {
		return v, err
	}
	b.slot.store(v, b.clock.Now())

	return v, nil
}

// ResolveAny is Resolve with the value boxed in an any.
func (b *Binding[T]) ResolveAny(ctx context.Context, ex Exchanger) (any, error) {
	return b.Resolve(ctx, ex)
}

// LastAny returns the stored value boxed in an any.
func (b *Binding[T]) LastAny() (any, bool) {
	return b.slot.Get()
}

// Registry is the table of attribute bindings keyed by mnemonic.
type Registry struct {
	bindings *xsync.MapOf[string, Resolver]
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{bindings: xsync.NewMapOf[string, Resolver]()}
}

// Register adds r. Registering a mnemonic twice is an error.
func (r *Registry) Register(res Resolver) error {
	if err := validateMnemonic(res.Mnemonic()); err != nil {
		return err
	}
	if _, loaded := r.bindings.LoadOrStore(res.Mnemonic(), res); loaded {
		return fmt.Errorf("lx200: binding for %q already registered", res.Mnemonic())
	}

	return nil
}

// Lookup returns the binding registered for mnemonic.
func (r *Registry) Lookup(mnemonic string) (Resolver, bool) {
	return r.bindings.Load(mnemonic)
}

// Len returns the number of registered bindings.
func (r *Registry) Len() int {
	return r.bindings.Size()
}

// Mnemonics returns the registered mnemonics in sorted order.
func (r *Registry) Mnemonics() []string {
	out := make([]string, 0, r.bindings.Size())
	r.bindings.Range(func(m string, _ Resolver) bool {
		out = append(out, m)
		return true
	})
	slices.Sort(out)

	return out
}

// Range calls fn for each binding in mnemonic order until fn returns false.
func (r *Registry) Range(fn func(Resolver) bool) {
	for _, m := range r.Mnemonics() {
		res, ok := r.bindings.Load(m)
		if !ok {
			continue
		}
		if !fn(res) {
			return
		}
	}
}
