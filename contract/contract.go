//go:generate go run go.uber.org/mock/mockgen -source=contract.go -destination=../mocks/mock_contract.go -package=mocks
package contract

import (
	"context"
	"reflect"

	"github.com/GiancarloEsposito06/Live-comments-overlay/domain"
	"github.com/GiancarloEsposito06/Live-comments-overlay/domain/event"
)

type ISupervisor interface {
	Add(worker ...Worker) ISupervisor
	Run(ctx context.Context)
	Start(ctx context.Context, worker Worker)
	Stop()
}

// Worker doesn't protect itself
// Can be silly, focused
type Worker interface {
	Run(ctx context.Context) error
}

// GetWorkerName uses reflection to retrieve the type name of the worker.
// This is used for logging and supervision purposes during worker initialization
// or lifecycle events, avoiding the need for manual naming in the Worker interface.
func GetWorkerName(w Worker) string {
	if w == nil {
		return "NilWorker"
	}
	t := reflect.TypeOf(w)
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t.Name()
}

// EventSink receives every controller event. Sink errors are logged by
// the dispatcher and never interrupt the stream.
type EventSink interface {
	Consume(ctx context.Context, e event.DomainEvent) error
}

// ConsentStore holds the viewer's participation decision across
// sessions. Clear wipes the record entirely.
type ConsentStore interface {
	Get(ctx context.Context) (domain.ConsentState, error)
	Set(ctx context.Context, state domain.ConsentState) error
	Clear(ctx context.Context) error
}

// AuditRecorder persists moderation decisions and terminal connection
// incidents for offline inspection.
type AuditRecorder interface {
	Record(ctx context.Context, entry domain.AuditEntry) error
}
