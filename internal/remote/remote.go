// Package remote exposes the card store to a single signed-in user: every
// query and write is limited to that user's rows and every write is
// announced on the realtime hub.
package remote

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/erazemk/pokestock/internal/metrics"
	"github.com/erazemk/pokestock/internal/model"
	"github.com/erazemk/pokestock/internal/realtime"
	"github.com/erazemk/pokestock/internal/store"
)

// ErrNoHub is returned by Subscribe on a store created without a hub.
var ErrNoHub = errors.New("remote: no realtime hub")

// Store binds the database to the realtime hub.
type Store struct {
	DB  *sql.DB
	Hub *realtime.Hub
}

// New creates a Store. A nil hub disables change notifications: writes
// are not announced and Subscribe fails with ErrNoHub.
func New(db *sql.DB, hub *realtime.Hub) *Store {
	return &Store{DB: db, Hub: hub}
}

// For returns a view of the store limited to userID's cards.
func (s *Store) For(userID int64) *Scoped {
	return &Scoped{store: s, owner: userID}
}

// Scoped is the store as seen by one user.
type Scoped struct {
	store *Store
	owner int64
}

// Owner returns the user the view is bound to.
func (s *Scoped) Owner() int64 {
	return s.owner
}

// Query returns the owner's cards created at or after since (all when zero).
func (s *Scoped) Query(ctx context.Context, since time.Time) ([]model.Card, error) {
	return store.ListCards(ctx, s.store.DB, s.owner, since)
}

// Get returns one of the owner's cards, or model.ErrNotFound.
func (s *Scoped) Get(ctx context.Context, id int64) (*model.Card, error) {
	c, err := store.GetCard(ctx, s.store.DB, s.owner, id)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, model.ErrNotFound
	}
	return c, nil
}

// Insert creates a card owned by the bound user.
func (s *Scoped) Insert(ctx context.Context, in model.CardInput) (*model.Card, error) {
	c, err := store.CreateCard(ctx, s.store.DB, s.owner, in)
	if err != nil {
		return nil, err
	}
	s.announce(ctx, model.EventInsert, c.ID)
	slog.Info("card created", "user", s.owner, "card", c.ID, "name", c.Name)
	return c, nil
}

// Update replaces the mutable fields of card id.
func (s *Scoped) Update(ctx context.Context, id int64, in model.CardInput) (*model.Card, error) {
	if err := store.UpdateCard(ctx, s.store.DB, s.owner, id, in); err != nil {
		return nil, err
	}
	c, err := s.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("reading updated card: %w", err)
	}
	s.announce(ctx, model.EventUpdate, id)
	slog.Info("card updated", "user", s.owner, "card", id)
	return c, nil
}

// Delete removes card id.
func (s *Scoped) Delete(ctx context.Context, id int64) error {
	if err := store.DeleteCard(ctx, s.store.DB, s.owner, id); err != nil {
		return err
	}
	s.announce(ctx, model.EventDelete, id)
	slog.Info("card deleted", "user", s.owner, "card", id)
	return nil
}

// SetImage stores an already processed image for card id.
func (s *Scoped) SetImage(ctx context.Context, id int64, data []byte, mime string) error {
	if err := store.SetCardImage(ctx, s.store.DB, s.owner, id, data, mime); err != nil {
		return err
	}
	s.announce(ctx, model.EventUpdate, id)
	return nil
}

// Image returns the image bytes and MIME type for card id; data is nil when
// there is none.
func (s *Scoped) Image(ctx context.Context, id int64) ([]byte, string, error) {
	return store.GetCardImage(ctx, s.store.DB, s.owner, id)
}

// Subscribe streams the owner's change events until ctx is cancelled.
func (s *Scoped) Subscribe(ctx context.Context) (<-chan model.ChangeEvent, error) {
	if s.store.Hub == nil {
		return nil, ErrNoHub
	}
	sub := s.store.Hub.Subscribe(s.owner)
	out := make(chan model.ChangeEvent)

	go func() {
		defer close(out)
		defer sub.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-sub.Events():
				if !ok {
					return
				}
				select {
				case out <- ev:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return out, nil
}

func (s *Scoped) announce(ctx context.Context, typ string, cardID int64) {
	metrics.CardWrites.WithLabelValues(typ).Inc()
	if s.store.Hub != nil {
		s.store.Hub.Publish(context.WithoutCancel(ctx), realtime.NewEvent(typ, s.owner, cardID))
	}
}
