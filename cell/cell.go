// Package cell holds single values that mirror themselves into a key-value
// store: restored when the cell is created, written back on every change.
//
// Subscribers run synchronously on the goroutine that made the change, before
// Set or Update returns. They must not mutate the cell they observe.
package cell

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"brandkit/storage"
)

// Codec converts values to and from their stored text form.
type Codec[T any] interface {
	Encode(v T) (string, error)
	Decode(s string) (T, error)
}

// JSON is the default codec.
type JSON[T any] struct{}

func (JSON[T]) Encode(v T) (string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func (JSON[T]) Decode(s string) (T, error) {
	var v T
	err := json.Unmarshal([]byte(s), &v)
	return v, err
}

type subscriber[T any] struct {
	id int
	fn func(T)
}

// Cell is a persistent reactive value.
type Cell[T any] struct {
	key   string
	store storage.KV
	codec Codec[T]
	log   zerolog.Logger

	// writeMu orders commits so subscribers see changes in the order they
	// were made.
	writeMu sync.Mutex

	mu      sync.RWMutex
	value   T
	encoded string
	subs    []subscriber[T]
	nextID  int
}

// New creates a JSON-encoded cell for key.
func New[T any](store storage.KV, key string, def T) *Cell[T] {
	return NewWithCodec[T](store, key, def, JSON[T]{})
}

// NewWithCodec creates a cell for key using codec. A stored record that is
// missing, unreadable or fails to decode leaves the cell at def. The default
// is not written until the first change or an explicit Persist.
func NewWithCodec[T any](store storage.KV, key string, def T, codec Codec[T]) *Cell[T] {
	if store == nil {
		store = storage.Noop{}
	}
	c := &Cell[T]{
		key:   key,
		store: store,
		codec: codec,
		log:   log.With().Str("component", "cell").Str("key", key).Logger(),
		value: def,
	}

	if raw, ok, err := store.Get(key); err != nil {
		c.log.Warn().Err(err).Msg("read failed, using default")
	} else if ok {
		if v, err := codec.Decode(raw); err != nil {
			c.log.Debug().Err(err).Msg("stored value does not decode, using default")
		} else {
			c.value = v
		}
	}

	if enc, err := codec.Encode(c.value); err == nil {
		c.encoded = enc
	}
	return c
}

// Key returns the storage key.
func (c *Cell[T]) Key() string {
	return c.key
}

// Get returns the current value.
func (c *Cell[T]) Get() T {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.value
}

// Set replaces the value. An encoding error is returned and leaves the cell
// untouched. Setting a value whose encoding matches the current one is a
// no-op.
func (c *Cell[T]) Set(v T) error {
	enc, err := c.codec.Encode(v)
	if err != nil {
		return err
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	c.commit(v, enc)
	return nil
}

// Update mutates the value in place, for structured values with nested
// fields. fn receives a copy decoded from the current encoding, so maps and
// slices it touches are not shared with readers. When the result cannot be
// encoded the copy is discarded.
func (c *Cell[T]) Update(fn func(v *T)) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	next, err := c.clone()
	if err != nil {
		return err
	}

	fn(&next)
	enc, err := c.codec.Encode(next)
	if err != nil {
		return err
	}
	c.commit(next, enc)
	return nil
}

// Persist writes the current value to the store, whether or not it has
// changed.
func (c *Cell[T]) Persist() {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	c.mu.RLock()
	enc := c.encoded
	c.mu.RUnlock()
	c.write(enc)
}

// Subscribe registers fn for every subsequent change. The returned function
// removes it.
func (c *Cell[T]) Subscribe(fn func(T)) (cancel func()) {
	c.mu.Lock()
	id := c.nextID
	c.nextID++
	c.subs = append(c.subs, subscriber[T]{id: id, fn: fn})
	c.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			c.mu.Lock()
			defer c.mu.Unlock()
			for i, s := range c.subs {
				if s.id == id {
					c.subs = append(c.subs[:i:i], c.subs[i+1:]...)
					return
				}
			}
		})
	}
}

// clone returns a deep copy of the current value by round-tripping it
// through the codec.
func (c *Cell[T]) clone() (T, error) {
	c.mu.RLock()
	enc := c.encoded
	c.mu.RUnlock()

	v, err := c.codec.Decode(enc)
	if err != nil {
		var zero T
		return zero, fmt.Errorf("copy current value: %w", err)
	}
	return v, nil
}

// commit must be called with writeMu held.
func (c *Cell[T]) commit(v T, enc string) {
	c.mu.Lock()
	if enc == c.encoded {
		c.mu.Unlock()
		return
	}
	c.value = v
	c.encoded = enc
	subs := make([]subscriber[T], len(c.subs))
	copy(subs, c.subs)
	c.mu.Unlock()

	c.write(enc)
	for _, s := range subs {
		s.fn(v)
	}
}

func (c *Cell[T]) write(enc string) {
	if err := c.store.Set(c.key, enc); err != nil {
		c.log.Warn().Err(err).Msg("write failed, keeping value in memory")
	}
}
