// Package inventory holds the client-side view of a user's card collection:
// the loaded cards, the active filters, and the writes that go through the
// remote store.
package inventory

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/erazemk/pokestock/internal/model"
)

// PageSize is the number of rows per table page.
const PageSize = 10

// ErrFeedClosed is returned by Watch when the change feed ends before ctx.
var ErrFeedClosed = errors.New("change feed closed")

// Model is the inventory view-model. It is safe for concurrent use.
type Model struct {
	remote Remote
	now    func() time.Time

	mu     sync.Mutex
	cards  []model.Card
	filter string
	rng    Range
	err    error

	// Fetch sequence numbers. A fetch that completes after a newer one has
	// been applied is discarded.
	started uint64
	applied uint64
}

// New creates a view-model over r showing all dates.
func New(r Remote) *Model {
	return &Model{remote: r, now: time.Now, rng: RangeAll}
}

// Load fetches the user's cards and replaces the list. On failure the list
// is emptied and the error is kept in Err.
func (m *Model) Load(ctx context.Context) error {
	m.mu.Lock()
	m.started++
	seq := m.started
	since := m.rng.Since(m.now())
	m.mu.Unlock()

	cards, err := m.remote.Query(ctx, since)

	m.mu.Lock()
	defer m.mu.Unlock()

	if err != nil {
		err = &RemoteError{Op: "load", Err: err}
	}
	if seq < m.applied {
		return err
	}
	m.applied = seq

	if err != nil {
		m.cards = nil
		m.err = err
		return err
	}
	m.cards = cards
	m.err = nil
	return nil
}

// Err returns the error of the last applied load, if any.
func (m *Model) Err() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.err
}

// SetFilter sets the text filter. It does not fetch.
func (m *Model) SetFilter(text string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.filter = strings.TrimSpace(text)
}

// Filter returns the current text filter.
func (m *Model) Filter() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.filter
}

// SetRange changes the date filter. It takes effect on the next Load.
func (m *Model) SetRange(r Range) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rng = r
}

// Range returns the date filter.
func (m *Model) Range() Range {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.rng
}

// Cards returns every loaded card, ignoring the text filter.
func (m *Model) Cards() []model.Card {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]model.Card(nil), m.cards...)
}

// Visible returns the loaded cards that match the text filter.
func (m *Model) Visible() []model.Card {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.filter == "" {
		return append([]model.Card(nil), m.cards...)
	}

	needle := strings.ToLower(m.filter)
	var out []model.Card
	for _, c := range m.cards {
		if matches(c, needle) {
			out = append(out, c)
		}
	}
	return out
}

// matches reports whether any displayed column contains needle.
func matches(c model.Card, needle string) bool {
	columns := []string{
		c.Name,
		c.Set,
		c.Condition,
		strconv.FormatFloat(c.Price, 'f', -1, 64),
		c.CreatedAt.Format(time.DateOnly),
	}
	for _, col := range columns {
		if strings.Contains(strings.ToLower(col), needle) {
			return true
		}
	}
	return false
}

// PageCount returns the number of pages of visible cards, at least one.
func (m *Model) PageCount() int {
	n := len(m.Visible())
	if n == 0 {
		return 1
	}
	return (n + PageSize - 1) / PageSize
}

// Page returns the visible cards on zero-based page n, clamped to the
// available pages.
func (m *Model) Page(n int) []model.Card {
	visible := m.Visible()
	pages := 1
	if len(visible) > 0 {
		pages = (len(visible) + PageSize - 1) / PageSize
	}
	n = min(max(n, 0), pages-1)

	start := n * PageSize
	end := min(start+PageSize, len(visible))
	return visible[start:end]
}

// Get returns a loaded card by ID.
func (m *Model) Get(id int64) (model.Card, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range m.cards {
		if c.ID == id {
			return c, true
		}
	}
	return model.Card{}, false
}

// Summary aggregates the loaded cards for the dashboard.
func (m *Model) Summary() Summary {
	return Summarize(m.Cards())
}

// Create validates the draft, inserts it for the signed-in user and
// reloads. A failed reload after a successful insert is reported by Err,
// not by Create.
func (m *Model) Create(ctx context.Context, d model.Draft) (*model.Card, error) {
	in, err := d.Validate()
	if err != nil {
		return nil, err
	}

	c, err := m.remote.Insert(ctx, in)
	if err != nil {
		return nil, &RemoteError{Op: "create", Err: err}
	}

	m.reload(ctx)
	return c, nil
}

// Update validates the draft and replaces card id's mutable fields.
func (m *Model) Update(ctx context.Context, id int64, d model.Draft) (*model.Card, error) {
	in, err := d.Validate()
	if err != nil {
		return nil, err
	}

	c, err := m.remote.Update(ctx, id, in)
	if err != nil {
		return nil, &RemoteError{Op: "update", Err: err}
	}

	m.reload(ctx)
	return c, nil
}

// Delete removes card id.
func (m *Model) Delete(ctx context.Context, id int64) error {
	if err := m.remote.Delete(ctx, id); err != nil {
		return &RemoteError{Op: "delete", Err: err}
	}

	m.reload(ctx)
	return nil
}

func (m *Model) reload(ctx context.Context) {
	if err := m.Load(ctx); err != nil {
		slog.Warn("reload after write failed", "error", err)
	}
}

// Watch subscribes to the user's change feed and reloads on every event.
// Events that arrive while a reload is running collapse into a single
// follow-up reload. onReload, if non-nil, runs after each reload.
// Watch returns nil when ctx is cancelled.
func (m *Model) Watch(ctx context.Context, onReload func(error)) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	events, err := m.remote.Subscribe(ctx)
	if err != nil {
		return &RemoteError{Op: "subscribe", Err: err}
	}

	pending := make(chan struct{}, 1)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			select {
			case <-ctx.Done():
				return
			case <-pending:
			}
			err := m.Load(ctx)
			if ctx.Err() != nil {
				return
			}
			if onReload != nil {
				onReload(err)
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			<-done
			return nil
		case _, ok := <-events:
			if !ok {
				if ctx.Err() != nil {
					<-done
					return nil
				}
				cancel()
				<-done
				return &RemoteError{Op: "subscribe", Err: ErrFeedClosed}
			}
			select {
			case pending <- struct{}{}:
			default:
			}
		}
	}
}
