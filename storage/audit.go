package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/GiancarloEsposito06/Live-comments-overlay/domain"
	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
)

const auditPrefix = "audit:"

// AuditTrail is the append-only record of moderation decisions and
// terminal connection incidents.
type AuditTrail struct {
	db  *badger.DB
	log *slog.Logger
}

func NewAuditTrail(db *badger.DB, log *slog.Logger) AuditTrail {
	return AuditTrail{db: db, log: log}
}

// Record persists one entry.
// The key is formatted as "audit:{timestamp_padded}:{uuid}" to:
//  1. Ensure chronological sorting using 19-digit zero padding (lexicographical order).
//  2. Prevent data loss by using UUID as a collision disconnector if two entries
//     arrive at the same nanosecond.
func (a AuditTrail) Record(ctx context.Context, entry domain.AuditEntry) error {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	key := fmt.Sprintf("%s%019d:%s", auditPrefix, entry.At.UnixNano(), entry.ID)
	data, err := json.Marshal(entry)
	if err != nil {
		return err
	}
	return a.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(key), data)
	})
}

// Latest returns up to limit entries, newest first. Thanks to the
// padded timestamp in the key, entries are naturally sorted by time.
func (a AuditTrail) Latest(ctx context.Context, limit int) ([]domain.AuditEntry, error) {
	var raw [][]byte
	err := a.db.View(func(txn *badger.Txn) error {
		prefix := []byte(auditPrefix)
		options := badger.DefaultIteratorOptions
		options.Reverse = true
		it := txn.NewIterator(options)
		defer it.Close()

		// Seek past the youngest possible key, then walk backwards
		seekKey := append([]byte(nil), prefix...)
		seekKey = append(seekKey, []byte("9999999999999999999:")...)

		for it.Seek(seekKey); it.ValidForPrefix(prefix); it.Next() {
			if limit > 0 && len(raw) == limit {
				a.log.Debug(fmt.Sprintf("Maximum of %d audit entries reached", limit))
				break
			}
			err := it.Item().Value(func(value []byte) error {
				raw = append(raw, append([]byte(nil), value...))
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("read audit trail: %w", err)
	}

	entries := make([]domain.AuditEntry, 0, len(raw))
	for _, b := range raw {
		var entry domain.AuditEntry
		if err := json.Unmarshal(b, &entry); err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, nil
}
