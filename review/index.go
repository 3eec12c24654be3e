// Package review maintains a full-text index over quarantined
// comments so a moderator can search the queue instead of scrolling
// it. The index is advisory tooling; admission decisions never read
// from it.
package review

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/GiancarloEsposito06/Live-comments-overlay/domain"
	"github.com/blugelabs/bluge"
)

type Index struct {
	writer *bluge.Writer
	log    *slog.Logger
}

// NewIndex opens an index with the given config. Use
// bluge.DefaultConfig(path) on disk and bluge.InMemoryOnlyConfig() in
// tests.
func NewIndex(cfg bluge.Config, log *slog.Logger) (*Index, error) {
	writer, err := bluge.OpenWriter(cfg)
	if err != nil {
		return nil, fmt.Errorf("open review index: %w", err)
	}
	return &Index{writer: writer, log: log}, nil
}

// Add indexes one quarantined comment, replacing any previous document
// with the same id.
func (i *Index) Add(c domain.Comment) error {
	doc := bluge.NewDocument(c.ID).
		AddField(bluge.NewTextField("username", c.Username).StoreValue()).
		AddField(bluge.NewTextField("text", c.Text).StoreValue())
	if err := i.writer.Update(doc.ID(), doc); err != nil {
		return fmt.Errorf("index comment %s: %w", c.ID, err)
	}
	return nil
}

// Delete drops a comment from the index once its review is resolved.
func (i *Index) Delete(id string) error {
	return i.writer.Delete(bluge.Identifier(id))
}

// Search returns the ids of quarantined comments whose text or author
// matches the term, best match first.
func (i *Index) Search(ctx context.Context, term string, limit int) ([]string, error) {
	if limit <= 0 {
		limit = 10
	}
	reader, err := i.writer.Reader()
	if err != nil {
		return nil, fmt.Errorf("review index reader: %w", err)
	}
	defer func() {
		if err := reader.Close(); err != nil {
			i.log.Debug("closing review index reader", "error", err)
		}
	}()

	query := bluge.NewBooleanQuery().
		AddShould(bluge.NewMatchQuery(term).SetField("text")).
		AddShould(bluge.NewMatchQuery(term).SetField("username"))
	request := bluge.NewTopNSearch(limit, query)

	it, err := reader.Search(ctx, request)
	if err != nil {
		return nil, fmt.Errorf("review index search: %w", err)
	}

	var ids []string
	for {
		match, err := it.Next()
		if err != nil {
			return nil, err
		}
		if match == nil {
			break
		}
		err = match.VisitStoredFields(func(field string, value []byte) bool {
			if field == "_id" {
				ids = append(ids, string(value))
			}
			return true
		})
		if err != nil {
			return nil, err
		}
	}
	return ids, nil
}

func (i *Index) Close() error {
	return i.writer.Close()
}
