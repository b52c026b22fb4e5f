package client

import (
	"context"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/erazemk/pokestock/internal/api"
	"github.com/erazemk/pokestock/internal/auth"
	"github.com/erazemk/pokestock/internal/db"
	"github.com/erazemk/pokestock/internal/inventory"
	"github.com/erazemk/pokestock/internal/model"
	"github.com/erazemk/pokestock/internal/realtime"
	"github.com/erazemk/pokestock/internal/remote"
	"github.com/erazemk/pokestock/internal/store"
)

type linkCatcher struct {
	mu    sync.Mutex
	token string
}

func (l *linkCatcher) SendLink(_ context.Context, _, token string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.token = token
	return nil
}

func setupServer(t *testing.T) (string, *linkCatcher) {
	t.Helper()
	database := db.NewTestDB(t)
	links := &linkCatcher{}
	sessions := auth.NewProvider(database, "test-secret", links)
	server := httptest.NewServer(api.NewRouter(sessions, remote.New(database, realtime.NewHub())))
	t.Cleanup(server.Close)

	hash, _ := bcrypt.GenerateFromPassword([]byte("password"), bcrypt.MinCost)
	_, err := store.CreateUser(context.Background(), database, "ash@pallet.town", string(hash))
	require.NoError(t, err)
	return server.URL, links
}

func signedIn(t *testing.T, url string) *Client {
	t.Helper()
	c := New(url, "")
	require.NoError(t, c.SignInWithPassword(context.Background(), "ash@pallet.town", "password"))
	require.NotEmpty(t, c.Token)
	return c
}

func TestSignInAndSession(t *testing.T) {
	url, _ := setupServer(t)
	ctx := context.Background()

	c := New(url, "")
	err := c.SignInWithPassword(ctx, "ash@pallet.town", "nope")
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, 401, apiErr.Status)

	c = signedIn(t, url)
	s, err := c.Session(ctx)
	require.NoError(t, err)
	assert.Equal(t, "ash@pallet.town", s.Email)

	require.NoError(t, c.SignOut(ctx))
	assert.Empty(t, c.Token)

	_, err = c.Session(ctx)
	assert.ErrorIs(t, err, model.ErrSessionExpired)
}

func TestRevokedTokenSurfacesAsExpiredSession(t *testing.T) {
	url, _ := setupServer(t)
	ctx := context.Background()

	c := signedIn(t, url)
	stale := New(url, c.Token)
	require.NoError(t, c.SignOut(ctx))

	m := inventory.New(stale)
	err := m.Load(ctx)
	var remoteErr *inventory.RemoteError
	require.ErrorAs(t, err, &remoteErr)
	assert.ErrorIs(t, err, model.ErrSessionExpired)
	assert.Empty(t, m.Cards())
}

func TestMagicLink(t *testing.T) {
	url, links := setupServer(t)
	ctx := context.Background()

	c := New(url, "")
	require.NoError(t, c.SignInWithOTP(ctx, "misty@cerulean.gym"))

	links.mu.Lock()
	token := links.token
	links.mu.Unlock()

	require.NoError(t, c.VerifyOTP(ctx, token))
	s, err := c.Session(ctx)
	require.NoError(t, err)
	assert.Equal(t, "misty@cerulean.gym", s.Email)

	assert.Error(t, New(url, "").VerifyOTP(ctx, token), "links are single use")
}

func TestModelOverHTTP(t *testing.T) {
	url, _ := setupServer(t)
	ctx := context.Background()
	m := inventory.New(signedIn(t, url))

	_, err := m.Create(ctx, model.Draft{Name: "Charizard", Set: "Base Set", Condition: "Mint", Price: "420"})
	require.NoError(t, err)
	_, err = m.Create(ctx, model.Draft{Name: "Blastoise", Set: "Base Set", Condition: "Good", Price: "99.5"})
	require.NoError(t, err)
	require.Len(t, m.Cards(), 2)

	m.SetFilter("char")
	visible := m.Visible()
	require.Len(t, visible, 1)
	assert.Equal(t, "Charizard", visible[0].Name)

	charizard := visible[0]
	updated, err := m.Update(ctx, charizard.ID, model.Draft{Name: "Charizard", Set: "Base Set", Condition: "Near Mint", Price: "380"})
	require.NoError(t, err)
	assert.Equal(t, charizard.CreatedAt, updated.CreatedAt)

	require.NoError(t, m.Delete(ctx, charizard.ID))
	m.SetFilter("")
	require.Len(t, m.Cards(), 1)

	err = m.Delete(ctx, charizard.ID)
	assert.ErrorIs(t, err, model.ErrNotFound)
}

func TestDashboardAndTheme(t *testing.T) {
	url, _ := setupServer(t)
	ctx := context.Background()
	c := signedIn(t, url)

	_, err := c.Insert(ctx, model.CardInput{Name: "Mew", Set: "Promo", Condition: "Mint", Price: 12})
	require.NoError(t, err)

	d, err := c.Dashboard(ctx, inventory.RangeWeek)
	require.NoError(t, err)
	assert.Equal(t, inventory.RangeWeek, d.Range)
	assert.Equal(t, 1, d.TotalCards)
	assert.Equal(t, 12.0, d.TotalValue)

	prefs, err := c.Preferences(ctx)
	require.NoError(t, err)
	assert.Equal(t, model.ThemeDark, prefs.Theme)

	require.NoError(t, c.SetTheme(ctx, model.ThemeLight))
	prefs, err = c.Preferences(ctx)
	require.NoError(t, err)
	assert.Equal(t, model.ThemeLight, prefs.Theme)
}

func TestWatchReloadsOnRemoteChange(t *testing.T) {
	url, _ := setupServer(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	watcher := inventory.New(signedIn(t, url))
	require.NoError(t, watcher.Load(ctx))

	reloaded := make(chan int, 8)
	done := make(chan error, 1)
	go func() {
		done <- watcher.Watch(ctx, func(err error) {
			if err == nil {
				reloaded <- len(watcher.Cards())
			}
		})
	}()

	// Another device writes once the feed is open.
	writer := signedIn(t, url)
	require.Eventually(t, func() bool {
		select {
		case n := <-reloaded:
			return n > 0
		default:
		}
		writer.Insert(context.Background(), model.CardInput{Name: "Eevee", Set: "Jungle", Condition: "Fair", Price: 3})
		return false
	}, 3*time.Second, 100*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Watch did not return after cancel")
	}
}
