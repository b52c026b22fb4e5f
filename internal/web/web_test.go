package web

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/erazemk/pokestock/internal/auth"
	"github.com/erazemk/pokestock/internal/db"
	"github.com/erazemk/pokestock/internal/model"
	"github.com/erazemk/pokestock/internal/realtime"
	"github.com/erazemk/pokestock/internal/remote"
	"github.com/erazemk/pokestock/internal/store"
)

type lastLink struct {
	mu    sync.Mutex
	token string
}

func (l *lastLink) SendLink(_ context.Context, _, token string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.token = token
	return nil
}

type webEnv struct {
	server *httptest.Server
	db     *sql.DB
	cards  *remote.Store
	links  *lastLink
	userID int64
}

func setupWeb(t *testing.T) *webEnv {
	t.Helper()
	database := db.NewTestDB(t)
	links := &lastLink{}
	sessions := auth.NewProvider(database, "test-secret", links)
	cards := remote.New(database, realtime.NewHub())

	router, err := NewRouter(sessions, cards)
	require.NoError(t, err)
	server := httptest.NewServer(router)
	t.Cleanup(server.Close)

	hash, _ := bcrypt.GenerateFromPassword([]byte("password"), bcrypt.MinCost)
	user, err := store.CreateUser(context.Background(), database, "ash@pallet.town", string(hash))
	require.NoError(t, err)

	return &webEnv{server: server, db: database, cards: cards, links: links, userID: user.ID}
}

func newBrowser(t *testing.T) *http.Client {
	t.Helper()
	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	return &http.Client{Jar: jar}
}

func (e *webEnv) signIn(t *testing.T) *http.Client {
	t.Helper()
	c := newBrowser(t)
	resp, err := c.PostForm(e.server.URL+"/login", url.Values{
		"email":    {"ash@pallet.town"},
		"password": {"password"},
		"method":   {"password"},
	})
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "/", resp.Request.URL.Path)
	return c
}

func body(t *testing.T, resp *http.Response) string {
	t.Helper()
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return string(data)
}

func TestPagesRequireSignIn(t *testing.T) {
	env := setupWeb(t)
	c := newBrowser(t)

	for _, path := range []string{"/", "/inventory", "/profile"} {
		resp, err := c.Get(env.server.URL + path)
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, "/login", resp.Request.URL.Path, path)
	}
}

func TestLoginRejectsWrongPassword(t *testing.T) {
	env := setupWeb(t)
	resp, err := newBrowser(t).PostForm(env.server.URL+"/login", url.Values{
		"email":    {"ash@pallet.town"},
		"password": {"wrong"},
	})
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Contains(t, body(t, resp), "Wrong email or password.")
}

func TestDashboardUsesDarkThemeByDefault(t *testing.T) {
	env := setupWeb(t)
	c := env.signIn(t)

	resp, err := c.Get(env.server.URL + "/")
	require.NoError(t, err)
	page := body(t, resp)
	assert.Contains(t, page, `data-theme="dark"`)
	assert.Contains(t, page, "No cards yet.")
}

func TestCreateCardAndFilter(t *testing.T) {
	env := setupWeb(t)
	c := env.signIn(t)

	for _, name := range []string{"Charizard", "Blastoise"} {
		resp, err := c.PostForm(env.server.URL+"/inventory", url.Values{
			"name": {name}, "set": {"Base Set"}, "condition": {"Mint"}, "price": {"10"},
		})
		require.NoError(t, err)
		resp.Body.Close()
		require.Equal(t, http.StatusOK, resp.StatusCode)
	}

	resp, err := c.Get(env.server.URL + "/inventory?q=char")
	require.NoError(t, err)
	page := body(t, resp)
	assert.Contains(t, page, "Charizard")
	assert.NotContains(t, page, "Blastoise")
	assert.Contains(t, page, "1 of 2 cards")
}

func TestInvalidPriceIsRejected(t *testing.T) {
	env := setupWeb(t)
	c := env.signIn(t)

	resp, err := c.PostForm(env.server.URL+"/inventory", url.Values{
		"name": {"Pikachu"}, "set": {"Jungle"}, "condition": {"Mint"}, "price": {"abc"},
	})
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	page := body(t, resp)
	assert.Contains(t, page, "Check the price field")
	// The form keeps what the user typed.
	assert.Contains(t, page, `value="abc"`)

	cards, err := env.cards.For(env.userID).Query(context.Background(), zeroTime)
	require.NoError(t, err)
	assert.Empty(t, cards)
}

func TestInventoryPagination(t *testing.T) {
	env := setupWeb(t)
	c := env.signIn(t)
	ctx := context.Background()

	for i := range 15 {
		_, err := env.cards.For(env.userID).Insert(ctx, model.CardInput{
			Name: fmt.Sprintf("Card%02d", i), Set: "Base Set", Condition: "Mint", Price: 1,
		})
		require.NoError(t, err)
	}

	get := func(query string) string {
		resp, err := c.Get(env.server.URL + "/inventory" + query)
		require.NoError(t, err)
		return body(t, resp)
	}

	for _, query := range []string{"", "?page=1", "?page=0"} {
		page := get(query)
		assert.Contains(t, page, ">Card14</a>", query)
		assert.Contains(t, page, ">Card05</a>", query)
		assert.NotContains(t, page, ">Card04</a>", query)
	}

	for _, query := range []string{"?page=2", "?page=9"} {
		page := get(query)
		assert.Contains(t, page, ">Card04</a>", query)
		assert.Contains(t, page, ">Card00</a>", query)
		assert.NotContains(t, page, ">Card05</a>", query)
	}
}

func TestFailedReloadAfterRejectedCreate(t *testing.T) {
	env := setupWeb(t)
	c := env.signIn(t)

	_, err := env.db.Exec(`DROP TABLE cards`)
	require.NoError(t, err)

	resp, err := c.PostForm(env.server.URL+"/inventory", url.Values{
		"name": {"Pikachu"}, "set": {"Jungle"}, "condition": {"Mint"}, "price": {"abc"},
	})
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	page := body(t, resp)
	assert.Contains(t, page, "Check the price field")
	assert.Contains(t, page, "Could not load your cards.")
}

func TestDashboardDefaultsToLastMonth(t *testing.T) {
	env := setupWeb(t)
	c := env.signIn(t)
	ctx := context.Background()

	scoped := env.cards.For(env.userID)
	_, err := scoped.Insert(ctx, model.CardInput{Name: "Pikachu", Set: "Jungle", Condition: "Mint", Price: 5})
	require.NoError(t, err)
	old, err := scoped.Insert(ctx, model.CardInput{Name: "Mewtwo", Set: "Base Set", Condition: "Good", Price: 50})
	require.NoError(t, err)
	_, err = env.db.Exec(`UPDATE cards SET created_at = ? WHERE id = ?`,
		time.Now().UTC().AddDate(0, 0, -60).Format("2006-01-02 15:04:05"), old.ID)
	require.NoError(t, err)

	resp, err := c.Get(env.server.URL + "/")
	require.NoError(t, err)
	page := body(t, resp)
	assert.Contains(t, page, ">Pikachu</a>")
	assert.NotContains(t, page, ">Mewtwo</a>")

	resp, err = c.Get(env.server.URL + "/?range=all")
	require.NoError(t, err)
	assert.Contains(t, body(t, resp), ">Mewtwo</a>")
}

func TestEditAndDeleteCard(t *testing.T) {
	env := setupWeb(t)
	c := env.signIn(t)
	ctx := context.Background()

	card, err := env.cards.For(env.userID).Insert(ctx, model.CardInput{Name: "Mew", Set: "Promo", Condition: "Good", Price: 30})
	require.NoError(t, err)
	cardURL := env.server.URL + "/inventory/" + itoa(card.ID)

	resp, err := c.PostForm(cardURL, url.Values{
		"name": {"Mew"}, "set": {"Promo"}, "condition": {"Near Mint"}, "price": {"45.5"},
	})
	require.NoError(t, err)
	assert.Contains(t, body(t, resp), "$45.50")

	updated, err := env.cards.For(env.userID).Get(ctx, card.ID)
	require.NoError(t, err)
	assert.Equal(t, "Near Mint", updated.Condition)
	assert.Equal(t, card.CreatedAt, updated.CreatedAt)

	resp, err = c.PostForm(cardURL+"/delete", nil)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, "/inventory", resp.Request.URL.Path)

	_, err = env.cards.For(env.userID).Get(ctx, card.ID)
	assert.ErrorIs(t, err, model.ErrNotFound)
}

func TestOtherUsersCardsAreHidden(t *testing.T) {
	env := setupWeb(t)
	c := env.signIn(t)

	misty, err := store.CreateUser(context.Background(), env.db, "misty@cerulean.gym", "")
	require.NoError(t, err)
	other, err := env.cards.For(misty.ID).Insert(context.Background(), model.CardInput{Name: "Gyarados", Set: "Base Set", Condition: "Mint", Price: 1})
	require.NoError(t, err)

	resp, err := c.Get(env.server.URL + "/inventory/" + itoa(other.ID))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestThemePreferencePersists(t *testing.T) {
	env := setupWeb(t)
	c := env.signIn(t)

	resp, err := c.PostForm(env.server.URL+"/profile/theme", url.Values{"theme": {"light"}})
	require.NoError(t, err)
	assert.Contains(t, body(t, resp), `data-theme="light"`)

	resp, err = c.Get(env.server.URL + "/inventory")
	require.NoError(t, err)
	assert.Contains(t, body(t, resp), `data-theme="light"`)
}

func TestMagicLinkSignIn(t *testing.T) {
	env := setupWeb(t)
	c := newBrowser(t)

	resp, err := c.PostForm(env.server.URL+"/login", url.Values{
		"email": {"misty@cerulean.gym"}, "method": {"link"},
	})
	require.NoError(t, err)
	assert.Contains(t, body(t, resp), "Check your email")

	env.links.mu.Lock()
	token := env.links.token
	env.links.mu.Unlock()
	require.NotEmpty(t, token)

	resp, err = c.Get(env.server.URL + "/magic?token=" + url.QueryEscape(token))
	require.NoError(t, err)
	assert.Contains(t, body(t, resp), "misty@cerulean.gym")
	assert.Equal(t, "/", resp.Request.URL.Path)

	resp, err = newBrowser(t).Get(env.server.URL + "/magic?token=" + url.QueryEscape(token))
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	resp.Body.Close()
}

func TestLogoutRevokesCookie(t *testing.T) {
	env := setupWeb(t)
	c := env.signIn(t)

	u, _ := url.Parse(env.server.URL)
	saved := c.Jar.Cookies(u)
	require.NotEmpty(t, saved)

	resp, err := c.PostForm(env.server.URL+"/logout", nil)
	require.NoError(t, err)
	resp.Body.Close()

	// Replaying the old cookie must not work.
	replay := newBrowser(t)
	replay.Jar.SetCookies(u, saved)
	resp, err = replay.Get(env.server.URL + "/")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, "/login", resp.Request.URL.Path)
}

func TestPasswordChangeRequiresMatchingConfirmation(t *testing.T) {
	env := setupWeb(t)
	c := env.signIn(t)

	resp, err := c.PostForm(env.server.URL+"/profile/password", url.Values{
		"current_password": {"password"},
		"new_password":     {"charmander"},
		"confirm_password": {"bulbasaur"},
	})
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.True(t, strings.Contains(body(t, resp), "do not match"))
}

var zeroTime time.Time

func itoa(id int64) string {
	return strconv.FormatInt(id, 10)
}
