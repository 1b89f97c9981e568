package services

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync/atomic"

	"github.com/SzKingXz/aurore-backend/api/models"
	"github.com/SzKingXz/aurore-backend/config"
	"github.com/bwmarrin/discordgo"
	"golang.org/x/oauth2"
)

var (
	ErrNotConfigured = errors.New("discord oauth is not configured")
	ErrNoToken       = errors.New("token endpoint returned no access token")
	ErrInvalidToken  = errors.New("access token rejected by discord")
	ErrUpstream      = errors.New("discord api request failed")
)

// Scopes requested from every user.
var Scopes = []string{"identify", "guilds"}

// OAuthService talks to Discord on behalf of an end user.
type OAuthService struct {
	oauth      *oauth2.Config
	apiBase    string
	httpClient *http.Client
	missing    string
}

func NewOAuthService(cfg *config.Config) *OAuthService {
	base := cfg.Discord.APIBaseURL
	return &OAuthService{
		oauth: &oauth2.Config{
			ClientID:     cfg.Discord.ClientID,
			ClientSecret: cfg.Discord.ClientSecret,
			RedirectURL:  cfg.Discord.RedirectURI,
			Scopes:       Scopes,
			Endpoint: oauth2.Endpoint{
				AuthURL:   base + "/oauth2/authorize",
				TokenURL:  base + "/oauth2/token",
				AuthStyle: oauth2.AuthStyleInParams,
			},
		},
		apiBase: base,
		httpClient: &http.Client{
			Timeout: cfg.Server.UpstreamTimeout,
		},
		missing: missingSetting(cfg),
	}
}

func missingSetting(cfg *config.Config) string {
	if cfg.OAuthConfigured() {
		return ""
	}
	switch {
	case cfg.Discord.ClientID == "":
		return "DISCORD_CLIENT_ID"
	case cfg.Discord.RedirectURI == "":
		return "REDIRECT_URI"
	}
	return ""
}

// AuthorizeURL omits the state parameter when state is empty.
func (s *OAuthService) AuthorizeURL(state string) (string, error) {
	if s.missing != "" {
		return "", fmt.Errorf("%w: %s", ErrNotConfigured, s.missing)
	}
	return s.oauth.AuthCodeURL(state), nil
}

// answerTracker records whether any round trip produced a response.
type answerTracker struct {
	base     http.RoundTripper
	answered atomic.Bool
}

func (a *answerTracker) RoundTrip(req *http.Request) (*http.Response, error) {
	resp, err := a.base.RoundTrip(req)
	if err == nil {
		a.answered.Store(true)
	}
	return resp, err
}

// Exchange trades an authorization code for an access token. A token
// endpoint that answers without a usable token yields ErrNoToken; failing
// to reach it yields ErrUpstream.
func (s *OAuthService) Exchange(ctx context.Context, code string) (*oauth2.Token, error) {
	base := s.httpClient.Transport
	if base == nil {
		base = http.DefaultTransport
	}
	tracker := &answerTracker{base: base}
	client := &http.Client{Transport: tracker, Timeout: s.httpClient.Timeout}
	ctx = context.WithValue(ctx, oauth2.HTTPClient, client)

	tok, err := s.oauth.Exchange(ctx, code)
	if err != nil {
		var re *oauth2.RetrieveError
		if errors.As(err, &re) || tracker.answered.Load() {
			return nil, fmt.Errorf("%w: %v", ErrNoToken, err)
		}
		return nil, fmt.Errorf("%w: token exchange: %v", ErrUpstream, err)
	}
	if tok.AccessToken == "" {
		return nil, ErrNoToken
	}
	return tok, nil
}

func (s *OAuthService) CurrentUser(ctx context.Context, accessToken string) (*discordgo.User, error) {
	var user discordgo.User
	if err := s.getJSON(ctx, "/users/@me", accessToken, &user); err != nil {
		return nil, err
	}
	if user.ID == "" {
		return nil, fmt.Errorf("%w: user response without id", ErrUpstream)
	}
	return &user, nil
}

func (s *OAuthService) UserGuilds(ctx context.Context, accessToken string) ([]*discordgo.UserGuild, error) {
	var guilds []*discordgo.UserGuild
	if err := s.getJSON(ctx, "/users/@me/guilds", accessToken, &guilds); err != nil {
		return nil, err
	}
	return guilds, nil
}

// Authenticate runs the code exchange and builds the payload for the front end.
func (s *OAuthService) Authenticate(ctx context.Context, code string) (*models.AuthPayload, error) {
	tok, err := s.Exchange(ctx, code)
	if err != nil {
		return nil, err
	}

	user, err := s.CurrentUser(ctx, tok.AccessToken)
	if err != nil {
		return nil, err
	}

	return &models.AuthPayload{
		User:  NewAuthenticatedUser(user),
		Token: tok.AccessToken,
	}, nil
}

func NewAuthenticatedUser(u *discordgo.User) models.AuthenticatedUser {
	au := models.AuthenticatedUser{
		ID:            u.ID,
		Username:      u.Username,
		Discriminator: u.Discriminator,
	}
	if u.Avatar != "" {
		avatar := discordgo.EndpointUserAvatar(u.ID, u.Avatar)
		au.Avatar = &avatar
	}
	return au
}

func EncodePayload(p *models.AuthPayload) (string, error) {
	raw, err := json.Marshal(p)
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(raw), nil
}

func (s *OAuthService) getJSON(ctx context.Context, path, accessToken string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.apiBase+path, nil)
	if err != nil {
		return err
	}
	(&oauth2.Token{AccessToken: accessToken, TokenType: "Bearer"}).SetAuthHeader(req)
	req.Header.Set("Accept", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: GET %s: %v", ErrUpstream, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return fmt.Errorf("%w: GET %s: status code %d", ErrInvalidToken, path, resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: decode %s: %v", ErrUpstream, path, err)
	}
	return nil
}
