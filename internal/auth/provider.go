package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/erazemk/pokestock/internal/metrics"
	"github.com/erazemk/pokestock/internal/model"
	"github.com/erazemk/pokestock/internal/store"
)

var (
	// ErrInvalidCredentials is returned for an unknown email or wrong password.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrInvalidLink is returned for unknown, used or expired sign-in links.
	ErrInvalidLink = errors.New("sign-in link is invalid or expired")
)

// LinkSender delivers a sign-in token to an email address.
type LinkSender interface {
	SendLink(ctx context.Context, email, token string) error
}

// LogSender writes sign-in links to the log instead of sending mail.
type LogSender struct {
	BaseURL string
}

// SendLink logs the link for email.
func (s LogSender) SendLink(_ context.Context, email, token string) error {
	slog.Info("sign-in link issued", "email", email, "link", s.BaseURL+"/magic?token="+token)
	return nil
}

// Provider issues, checks and revokes sessions.
type Provider struct {
	DB     *sql.DB
	Secret string
	Links  LinkSender
	Now    func() time.Time
}

// NewProvider creates a session provider.
func NewProvider(db *sql.DB, secret string, links LinkSender) *Provider {
	return &Provider{DB: db, Secret: secret, Links: links, Now: time.Now}
}

// SignInWithPassword checks the password and returns a new token.
func (p *Provider) SignInWithPassword(ctx context.Context, email, password string) (string, *model.User, error) {
	email, err := model.NormalizeEmail(email)
	if err != nil {
		return "", nil, ErrInvalidCredentials
	}

	user, err := store.GetUserByEmail(ctx, p.DB, email)
	if err != nil {
		return "", nil, err
	}
	if user == nil || !user.HasPassword() {
		metrics.SignIns.WithLabelValues("password", "rejected").Inc()
		return "", nil, ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		slog.Warn("login failed", "email", email)
		metrics.SignIns.WithLabelValues("password", "rejected").Inc()
		return "", nil, ErrInvalidCredentials
	}

	token, err := GenerateToken(p.Secret, user.ID, user.Email)
	if err != nil {
		return "", nil, err
	}

	metrics.SignIns.WithLabelValues("password", "ok").Inc()
	slog.Info("user logged in", "user", user.ID, "method", "password")
	return token, user, nil
}

// SignInWithOTP sends a single-use sign-in link, creating the account on
// first use.
func (p *Provider) SignInWithOTP(ctx context.Context, email string) error {
	email, err := model.NormalizeEmail(email)
	if err != nil {
		return err
	}

	user, err := store.EnsureUser(ctx, p.DB, email)
	if err != nil {
		return err
	}

	token, hash := NewMagicLinkToken()
	if err := store.CreateLoginCode(ctx, p.DB, user.ID, hash, p.Now().Add(MagicLinkExpiry)); err != nil {
		return err
	}
	if err := p.Links.SendLink(ctx, user.Email, token); err != nil {
		return fmt.Errorf("sending sign-in link: %w", err)
	}
	return nil
}

// VerifyOTP consumes a sign-in link token and returns a session token.
func (p *Provider) VerifyOTP(ctx context.Context, token string) (string, *model.User, error) {
	userID, err := store.ConsumeLoginCode(ctx, p.DB, HashMagicLinkToken(token), p.Now())
	if errors.Is(err, model.ErrNotFound) {
		metrics.SignIns.WithLabelValues("link", "rejected").Inc()
		return "", nil, ErrInvalidLink
	}
	if err != nil {
		return "", nil, err
	}

	user, err := store.GetUser(ctx, p.DB, userID)
	if err != nil {
		return "", nil, err
	}
	if user == nil {
		return "", nil, ErrInvalidLink
	}

	signed, err := GenerateToken(p.Secret, user.ID, user.Email)
	if err != nil {
		return "", nil, err
	}

	metrics.SignIns.WithLabelValues("link", "ok").Inc()
	slog.Info("user logged in", "user", user.ID, "method", "link")
	return signed, user, nil
}

// Check validates a token and its revocation status. Any rejection is
// reported as model.ErrSessionExpired.
func (p *Provider) Check(ctx context.Context, token string) (*Claims, error) {
	claims, err := ValidateToken(p.Secret, token)
	if err != nil {
		return nil, model.ErrSessionExpired
	}
	if claims.ID != "" {
		revoked, err := store.IsTokenRevoked(ctx, p.DB, claims.ID)
		if err != nil {
			return nil, err
		}
		if revoked {
			return nil, model.ErrSessionExpired
		}
	}
	return claims, nil
}

// SignOut revokes the token described by claims.
func (p *Provider) SignOut(ctx context.Context, claims *Claims) error {
	if claims.ID == "" {
		return nil
	}
	expiresAt := p.Now().Add(TokenExpiry)
	if claims.ExpiresAt != nil {
		expiresAt = claims.ExpiresAt.Time
	}
	if err := store.RevokeToken(ctx, p.DB, claims.ID, expiresAt); err != nil {
		return err
	}
	slog.Info("user logged out", "user", claims.UserID)
	return nil
}

// ChangePassword sets a new password. Accounts that already have one must
// confirm it with current.
func (p *Provider) ChangePassword(ctx context.Context, userID int64, current, next string) error {
	if err := model.ValidatePassword(next); err != nil {
		return err
	}

	user, err := store.GetUser(ctx, p.DB, userID)
	if err != nil {
		return err
	}
	if user == nil {
		return model.ErrNotFound
	}
	if user.HasPassword() {
		if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(current)); err != nil {
			return ErrInvalidCredentials
		}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(next), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hashing password: %w", err)
	}
	if err := store.UpdateUserPassword(ctx, p.DB, userID, string(hash)); err != nil {
		return err
	}

	slog.Info("user changed password", "user", userID)
	return nil
}
