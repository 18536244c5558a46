package storage

import (
	"errors"
	"sync"

	"meridian-hq/meridian/pkg/exchange"
)

// Store persists exchanges.
type Store interface {
	// Append durably records one exchange.
	Append(ex *exchange.Exchange) error

	// Close flushes and releases the store.
	Close() error
}

// Multi fans appends out to every store. Append returns the joined
// errors but still offers the exchange to every backend.
func Multi(stores ...Store) Store {
	return multiStore(stores)
}

type multiStore []Store

func (m multiStore) Append(ex *exchange.Exchange) error {
	var errs []error
	for _, s := range m {
		if err := s.Append(ex); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (m multiStore) Close() error {
	var errs []error
	for _, s := range m {
		if err := s.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Memory is an in-memory store for tests and ephemeral sessions.
type Memory struct {
	mu        sync.Mutex
	exchanges []exchange.Exchange
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{}
}

// Append implements Store.
func (m *Memory) Append(ex *exchange.Exchange) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.exchanges = append(m.exchanges, *ex)
	return nil
}

// Exchanges returns a copy of everything appended so far.
func (m *Memory) Exchanges() []exchange.Exchange {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]exchange.Exchange(nil), m.exchanges...)
}

// Close implements Store.
func (m *Memory) Close() error {
	return nil
}
