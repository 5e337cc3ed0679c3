/*
Package history persists saved calculations.

PURPOSE:
  The engine is stateless. Hosts that want to keep a calculation (the
  HTTP API's POST /api/calculations) store the request and the rendered
  result here, keyed by a generated ID.

IDEMPOTENCY:
  A record may carry an idempotency key (the HTTP Idempotency-Key header).
  Saving a second record with the same key is rejected with
  ErrDuplicateIdempotencyKey, and GetByIdempotencyKey returns the first one,
  so a retried POST never stores the same calculation twice.

IMPLEMENTATIONS:
  - history/memory.go: In-memory, for tests
  - store/sqlite/sqlite.go: SQLite, for the server

SEE ALSO:
  - api/handlers.go: Create, list, fetch and delete endpoints
*/
package history

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

var (
	ErrNotFound                = errors.New("calculation not found")
	ErrDuplicateID             = errors.New("calculation id already exists")
	ErrDuplicateIdempotencyKey = errors.New("idempotency key already used")
)

// =============================================================================
// RECORD
// =============================================================================

// Record is one saved calculation. Inputs and Result are JSON documents;
// GrossAnnual and NetAnnual are copied out so lists need not decode them.
type Record struct {
	ID             string
	IdempotencyKey string
	Label          string
	CreatedAt      time.Time

	TaxYear     string
	GrossAnnual decimal.Decimal
	NetAnnual   decimal.Decimal

	Inputs []byte
	Result []byte
}

// Filter narrows List. Zero values mean "no restriction".
type Filter struct {
	TaxYear string
	Limit   int
}

// =============================================================================
// STORE
// =============================================================================

// Store persists records. List returns the newest first.
type Store interface {
	Save(ctx context.Context, rec Record) error
	Get(ctx context.Context, id string) (Record, error)
	GetByIdempotencyKey(ctx context.Context, key string) (Record, error)
	List(ctx context.Context, f Filter) ([]Record, error)
	Delete(ctx context.Context, id string) error
}
