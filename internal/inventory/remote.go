package inventory

import (
	"context"
	"fmt"
	"time"

	"github.com/erazemk/pokestock/internal/model"
)

// Remote is the store the view-model reads from and writes to. It is bound
// to the signed-in user: queries return only that user's cards and inserts
// are owned by that user.
type Remote interface {
	Query(ctx context.Context, since time.Time) ([]model.Card, error)
	Insert(ctx context.Context, in model.CardInput) (*model.Card, error)
	Update(ctx context.Context, id int64, in model.CardInput) (*model.Card, error)
	Delete(ctx context.Context, id int64) error
	Subscribe(ctx context.Context) (<-chan model.ChangeEvent, error)
}

// RemoteError wraps a failure reported by the store, such as a network,
// session or database error.
type RemoteError struct {
	Op  string
	Err error
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *RemoteError) Unwrap() error {
	return e.Err
}
