package spotify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/spotify"

	"github.com/Mizu-20/statify/internal/model"
)

// Scopes requested at login.
var Scopes = []string{
	"user-read-private",
	"user-read-email",
	"user-top-read",
	"user-read-recently-played",
	"user-read-currently-playing",
}

// OAuthConfig holds the registered application credentials.
type OAuthConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string

	// Endpoint overrides the Spotify accounts endpoint. Zero means spotify.Endpoint.
	Endpoint oauth2.Endpoint
}

// Authenticator runs the authorization-code flow and resolves the logged-in
// user's profile.
type Authenticator struct {
	conf   *oauth2.Config
	client *Client
	now    func() time.Time
}

func NewAuthenticator(cfg OAuthConfig, client *Client) *Authenticator {
	endpoint := cfg.Endpoint
	if endpoint.TokenURL == "" {
		endpoint = spotify.Endpoint
	}
	return &Authenticator{
		conf: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Endpoint:     endpoint,
			Scopes:       Scopes,
		},
		client: client,
		now:    time.Now,
	}
}

func (a *Authenticator) AuthCodeURL(state string) string {
	return a.conf.AuthCodeURL(state)
}

type profile struct {
	ID          string  `json:"id"`
	DisplayName string  `json:"display_name"`
	Email       *string `json:"email"`
	Images      []struct {
		URL string `json:"url"`
	} `json:"images"`
	Followers struct {
		Total int `json:"total"`
	} `json:"followers"`
}

// Exchange trades code for tokens and fetches the /me profile.
func (a *Authenticator) Exchange(ctx context.Context, code string) (*model.ProviderIdentity, error) {
	ctx = context.WithValue(ctx, oauth2.HTTPClient, a.client.httpClient)
	tok, err := a.conf.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("%w: token exchange: %v", model.ErrUpstream, err)
	}

	raw, err := a.client.Get(ctx, tok.AccessToken, "/me", nil)
	if err != nil {
		return nil, err
	}
	var p profile
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, fmt.Errorf("%w: decode profile: %v", model.ErrUpstream, err)
	}
	if p.ID == "" {
		return nil, fmt.Errorf("%w: profile without id", model.ErrUpstream)
	}

	pi := &model.ProviderIdentity{
		ExternalID:   p.ID,
		DisplayName:  p.DisplayName,
		Email:        p.Email,
		Followers:    p.Followers.Total,
		AccessToken:  tok.AccessToken,
		RefreshToken: tok.RefreshToken,
		ExpiresIn:    tok.ExpiresIn,
	}
	if pi.ExpiresIn == 0 && !tok.Expiry.IsZero() {
		pi.ExpiresIn = int64(tok.Expiry.Sub(a.now()).Seconds())
	}
	if len(p.Images) > 0 && p.Images[0].URL != "" {
		img := p.Images[0].URL
		pi.ProfileImage = &img
	}
	return pi, nil
}
