package storage

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
)

// KV is a string key-value store. A missing key is reported as ok == false
// with a nil error.
type KV interface {
	Get(key string) (value string, ok bool, err error)
	Set(key, value string) error
	Delete(key string) error
}

// Store drivers accepted by Open.
const (
	DriverNone   = "none"
	DriverMemory = "memory"
	DriverFile   = "file"
	DriverSQLite = "sqlite"
)

// ErrUnknownDriver is returned by Open for an unrecognised driver name.
var ErrUnknownDriver = errors.New("unknown storage driver")

// Open returns the store for driver rooted at path. For the file and sqlite
// drivers an empty path is resolved against dataDir. The returned close
// function is never nil.
func Open(driver, path, dataDir string) (KV, func() error, error) {
	nop := func() error { return nil }

	switch strings.ToLower(strings.TrimSpace(driver)) {
	case DriverNone:
		return Noop{}, nop, nil
	case DriverMemory:
		return NewMemory(), nop, nil
	case DriverFile, "":
		if path == "" {
			path = filepath.Join(dataDir, "brandkit.store.json")
		}
		f, err := OpenFile(path)
		if err != nil {
			return nil, nop, fmt.Errorf("open file store: %w", err)
		}
		return f, nop, nil
	case DriverSQLite:
		if path == "" {
			path = filepath.Join(dataDir, "brandkit.db")
		}
		s, err := OpenSQLite(path)
		if err != nil {
			return nil, nop, fmt.Errorf("open sqlite store: %w", err)
		}
		return s, s.Close, nil
	default:
		return nil, nop, fmt.Errorf("%w: %s", ErrUnknownDriver, driver)
	}
}

// Noop is the store used when no persistence backend is available. Reads are
// always absent and writes are dropped.
type Noop struct{}

func (Noop) Get(string) (string, bool, error) { return "", false, nil }
func (Noop) Set(string, string) error         { return nil }
func (Noop) Delete(string) error              { return nil }

// Memory is an in-process store.
type Memory struct {
	mu   sync.RWMutex
	data map[string]string
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{data: make(map[string]string)}
}

func (m *Memory) Get(key string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.data[key]
	return v, ok, nil
}

func (m *Memory) Set(key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value
	return nil
}

func (m *Memory) Delete(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}
