package pages

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Mutation applies a transition to a private copy of a page.
type Mutation func(p *Page) (changed bool, err error)

// Guard linearizes page mutations with optimistic version checks. Neither of
// two racing writers blocks; the second to commit receives
// ErrVersionConflict.
type Guard struct {
	store Store
	now   func() time.Time
}

func NewGuard(store Store) *Guard {
	return &Guard{
		store: store,
		now:   func() time.Time { return time.Now().UTC() },
	}
}

// Apply loads page id, checks expected against the stored version when
// expected is non-nil, and commits fn's result as version+1. When fn reports
// no change the stored page is returned with changed=false and nothing is
// written.
func (g *Guard) Apply(ctx context.Context, id uuid.UUID, expected *int, fn Mutation) (*Page, bool, error) {
	current, err := g.store.Find(ctx, id)
	if err != nil {
		return nil, false, err
	}

	if expected != nil && *expected != current.Version {
		return nil, false, fmt.Errorf("%w: have version %d, page is at %d", ErrVersionConflict, *expected, current.Version)
	}

	next := current.Clone()
	changed, err := fn(next)
	if err != nil {
		return nil, false, err
	}
	if !changed {
		return current, false, nil
	}

	next.Version = current.Version + 1
	next.UpdatedAt = g.now()

	if err := g.store.CompareAndSwap(ctx, next, current.Version); err != nil {
		return nil, false, err
	}
	return next, true, nil
}
