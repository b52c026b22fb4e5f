package web

import (
	"context"

	"github.com/erazemk/pokestock/internal/auth"
	"github.com/erazemk/pokestock/internal/model"
)

// AppContext is the per-request application state shared by every page:
// who is signed in and which theme to draw with.
type AppContext struct {
	Session auth.Session
	Theme   string
	Claims  *auth.Claims
}

// SignedIn reports whether the request carries a valid session.
func (a AppContext) SignedIn() bool {
	return a.Session.UserID != 0
}

// anonymous is the context for pages rendered before sign-in.
func anonymous() AppContext {
	return AppContext{Theme: model.DefaultPreferences().Theme}
}

type webContextKey string

const appKey webContextKey = "app"

func withApp(ctx context.Context, app AppContext) context.Context {
	return context.WithValue(ctx, appKey, app)
}

// GetApp retrieves the application context, falling back to a signed-out
// context with the default theme.
func GetApp(ctx context.Context) AppContext {
	app, ok := ctx.Value(appKey).(AppContext)
	if !ok {
		return anonymous()
	}
	return app
}
