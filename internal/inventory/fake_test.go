package inventory

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/erazemk/pokestock/internal/model"
)

// memoryBackend is a shared multi-user card table for tests.
type memoryBackend struct {
	mu     sync.Mutex
	nextID int64
	cards  map[int64]model.Card
	subs   map[int64][]chan model.ChangeEvent
}

func newMemoryBackend() *memoryBackend {
	return &memoryBackend{
		cards: make(map[int64]model.Card),
		subs:  make(map[int64][]chan model.ChangeEvent),
	}
}

func (b *memoryBackend) as(owner int64) *fakeRemote {
	return &fakeRemote{backend: b, owner: owner}
}

func (b *memoryBackend) notify(owner int64, typ string, id int64) {
	for _, ch := range b.subs[owner] {
		select {
		case ch <- model.ChangeEvent{Type: typ, OwnerID: owner, CardID: id}:
		default:
		}
	}
}

// fakeRemote is the backend seen by one user, with hooks for failures and
// blocking queries.
type fakeRemote struct {
	backend *memoryBackend
	owner   int64

	mu         sync.Mutex
	queries    int
	writes     int
	queryErr   error
	writeErr   error
	queryGate  chan struct{}
	querySince []time.Time
}

func (r *fakeRemote) Query(ctx context.Context, since time.Time) ([]model.Card, error) {
	r.mu.Lock()
	r.queries++
	r.querySince = append(r.querySince, since)
	gate, qerr := r.queryGate, r.queryErr
	r.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if qerr != nil {
		return nil, qerr
	}

	b := r.backend
	b.mu.Lock()
	defer b.mu.Unlock()
	var out []model.Card
	for _, c := range b.cards {
		if c.OwnerID == r.owner && !c.CreatedAt.Before(since) {
			out = append(out, c)
		}
	}
	return out, nil
}

func (r *fakeRemote) Insert(_ context.Context, in model.CardInput) (*model.Card, error) {
	if err := r.beginWrite(); err != nil {
		return nil, err
	}
	b := r.backend
	b.mu.Lock()
	defer b.mu.Unlock()
	b.nextID++
	c := model.Card{
		ID: b.nextID, OwnerID: r.owner,
		Name: in.Name, Set: in.Set, Condition: in.Condition, Price: in.Price,
		CreatedAt: time.Now(), UpdatedAt: time.Now(),
	}
	b.cards[c.ID] = c
	b.notify(r.owner, model.EventInsert, c.ID)
	return &c, nil
}

func (r *fakeRemote) Update(_ context.Context, id int64, in model.CardInput) (*model.Card, error) {
	if err := r.beginWrite(); err != nil {
		return nil, err
	}
	b := r.backend
	b.mu.Lock()
	defer b.mu.Unlock()
	c, ok := b.cards[id]
	if !ok || c.OwnerID != r.owner {
		return nil, model.ErrNotFound
	}
	c.Name, c.Set, c.Condition, c.Price = in.Name, in.Set, in.Condition, in.Price
	c.UpdatedAt = time.Now()
	b.cards[id] = c
	b.notify(r.owner, model.EventUpdate, id)
	return &c, nil
}

func (r *fakeRemote) Delete(_ context.Context, id int64) error {
	if err := r.beginWrite(); err != nil {
		return err
	}
	b := r.backend
	b.mu.Lock()
	defer b.mu.Unlock()
	c, ok := b.cards[id]
	if !ok || c.OwnerID != r.owner {
		return model.ErrNotFound
	}
	delete(b.cards, id)
	b.notify(r.owner, model.EventDelete, id)
	return nil
}

func (r *fakeRemote) Subscribe(ctx context.Context) (<-chan model.ChangeEvent, error) {
	ch := make(chan model.ChangeEvent, 64)
	b := r.backend
	b.mu.Lock()
	b.subs[r.owner] = append(b.subs[r.owner], ch)
	b.mu.Unlock()
	return ch, nil
}

func (r *fakeRemote) beginWrite() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.writes++
	return r.writeErr
}

func (r *fakeRemote) counts() (queries, writes int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.queries, r.writes
}

var errOffline = errors.New("offline")
