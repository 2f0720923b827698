// Package oauthtoken resolves OAuth2 token sources for connected
// calendars. Rather than a dedicated token table, the refresh token is
// stored AES-GCM-encrypted inside the connected calendar's own generic
// config map (domain.ConnectedCalendar.SetConfig), the same place its
// other provider-specific settings live.
package oauthtoken

import (
	"context"
	"encoding/base64"
	"fmt"

	"github.com/motioneffector/autoplanner/internal/calendar/domain"
	"github.com/motioneffector/autoplanner/internal/shared/infrastructure/crypto"
	"github.com/google/uuid"
	"golang.org/x/oauth2"
)

const configKeyRefreshToken = "oauth_refresh_token_enc"

// Provider implements calendar/setup.OAuthTokenProvider for a single
// provider (Google or Microsoft), resolving the stored refresh token for
// whichever connected calendar a user has for that provider.
type Provider struct {
	repo      domain.ConnectedCalendarRepository
	encrypter crypto.Encrypter
	oauthCfg  *oauth2.Config
	provider  domain.ProviderType
}

// NewProvider wires a Provider for one OAuth2-backed calendar provider.
func NewProvider(repo domain.ConnectedCalendarRepository, encrypter crypto.Encrypter, oauthCfg *oauth2.Config, provider domain.ProviderType) *Provider {
	return &Provider{repo: repo, encrypter: encrypter, oauthCfg: oauthCfg, provider: provider}
}

// TokenSource returns an oauth2.TokenSource seeded with the user's stored
// refresh token, refreshing lazily on first use via the wrapped
// oauth2.Config.
func (p *Provider) TokenSource(ctx context.Context, userID uuid.UUID) (oauth2.TokenSource, error) {
	calendars, err := p.repo.FindByUserAndProvider(ctx, userID, p.provider)
	if err != nil {
		return nil, err
	}
	if len(calendars) == 0 {
		return nil, fmt.Errorf("no connected %s calendar for user %s", p.provider, userID)
	}

	encoded := calendars[0].ConfigValue(configKeyRefreshToken)
	if encoded == "" {
		return nil, fmt.Errorf("no stored refresh token for %s calendar", p.provider)
	}
	ciphertext, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("decode stored refresh token: %w", err)
	}
	plaintext, err := p.encrypter.Decrypt(ciphertext)
	if err != nil {
		return nil, fmt.Errorf("decrypt stored refresh token: %w", err)
	}

	token := &oauth2.Token{RefreshToken: string(plaintext)}
	return p.oauthCfg.TokenSource(ctx, token), nil
}

// StoreRefreshToken encrypts and saves a refresh token against a
// connected calendar, called once after the OAuth2 authorization code
// exchange completes.
func (p *Provider) StoreRefreshToken(ctx context.Context, calendar *domain.ConnectedCalendar, refreshToken string) error {
	ciphertext, err := p.encrypter.Encrypt([]byte(refreshToken))
	if err != nil {
		return fmt.Errorf("encrypt refresh token: %w", err)
	}
	calendar.SetConfig(configKeyRefreshToken, base64.StdEncoding.EncodeToString(ciphertext))
	return p.repo.Save(ctx, calendar)
}
