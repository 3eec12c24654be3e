// Package storage persists the small records the overlay keeps across
// sessions: the viewer's consent decision and the moderation audit
// trail. Everything is stored in BadgerDB with JSON values.
package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/GiancarloEsposito06/Live-comments-overlay/domain"
	"github.com/dgraph-io/badger/v4"
)

const consentKey = "consent:viewer"

type consentRecord struct {
	State     string    `json:"state"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ConsentRecord is the badger-backed consent store.
type ConsentRecord struct {
	db  *badger.DB
	log *slog.Logger
}

func NewConsentRecord(db *badger.DB, log *slog.Logger) ConsentRecord {
	return ConsentRecord{db: db, log: log}
}

// Get returns the stored decision, ConsentUnknown when none exists.
func (c ConsentRecord) Get(ctx context.Context) (domain.ConsentState, error) {
	var rec consentRecord
	err := c.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(consentKey))
		if err != nil {
			return err
		}
		return item.Value(func(value []byte) error {
			return json.Unmarshal(value, &rec)
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return domain.ConsentUnknown, nil
	}
	if err != nil {
		return domain.ConsentUnknown, fmt.Errorf("read consent: %w", err)
	}

	switch rec.State {
	case domain.ConsentGranted.String():
		return domain.ConsentGranted, nil
	case domain.ConsentDeclined.String():
		return domain.ConsentDeclined, nil
	default:
		return domain.ConsentUnknown, nil
	}
}

func (c ConsentRecord) Set(ctx context.Context, state domain.ConsentState) error {
	data, err := json.Marshal(consentRecord{
		State:     state.String(),
		UpdatedAt: time.Now().UTC(),
	})
	if err != nil {
		return err
	}
	c.log.Debug("storing consent decision", "state", state.String())
	return c.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(consentKey), data)
	})
}

// Clear wipes the record. Called on controller teardown when
// compliance mode is on.
func (c ConsentRecord) Clear(ctx context.Context) error {
	return c.db.Update(func(txn *badger.Txn) error {
		err := txn.Delete([]byte(consentKey))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		return err
	})
}

// MemoryConsent keeps the decision in memory for embedders that run
// without a database.
type MemoryConsent struct {
	mu    sync.Mutex
	state domain.ConsentState
}

func NewMemoryConsent() *MemoryConsent {
	return &MemoryConsent{}
}

func (m *MemoryConsent) Get(ctx context.Context) (domain.ConsentState, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state, nil
}

func (m *MemoryConsent) Set(ctx context.Context, state domain.ConsentState) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state = state
	return nil
}

func (m *MemoryConsent) Clear(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state = domain.ConsentUnknown
	return nil
}
