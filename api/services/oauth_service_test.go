package services_test

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/SzKingXz/aurore-backend/api/models"
	"github.com/SzKingXz/aurore-backend/api/services"
	"github.com/SzKingXz/aurore-backend/config"
	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/require"
)

const (
	testClientID     = "client-1"
	testClientSecret = "secret-1"
	testRedirectURI  = "http://localhost:5173/callback"
	testCode         = "code-123"
	testAccessToken  = "access-abc"
)

type fakeDiscord struct {
	tokenBody   string
	tokenStatus int
	userBody    string
	guildStatus int
	guildBody   string
	tokenForms  []url.Values
	authHeaders []string
}

func (f *fakeDiscord) handler(t *testing.T) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/oauth2/token", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		f.tokenForms = append(f.tokenForms, r.PostForm)
		w.Header().Set("Content-Type", "application/json")
		if f.tokenStatus != 0 {
			w.WriteHeader(f.tokenStatus)
		}
		_, _ = w.Write([]byte(f.tokenBody))
	})
	mux.HandleFunc("/api/users/@me", func(w http.ResponseWriter, r *http.Request) {
		f.authHeaders = append(f.authHeaders, r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(f.userBody))
	})
	mux.HandleFunc("/api/users/@me/guilds", func(w http.ResponseWriter, r *http.Request) {
		f.authHeaders = append(f.authHeaders, r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		if f.guildStatus != 0 {
			w.WriteHeader(f.guildStatus)
		}
		_, _ = w.Write([]byte(f.guildBody))
	})
	return mux
}

func newService(t *testing.T, f *fakeDiscord) *services.OAuthService {
	t.Helper()
	srv := httptest.NewServer(f.handler(t))
	t.Cleanup(srv.Close)

	cfg := &config.Config{}
	cfg.Discord.ClientID = testClientID
	cfg.Discord.ClientSecret = testClientSecret
	cfg.Discord.RedirectURI = testRedirectURI
	cfg.Discord.APIBaseURL = srv.URL + "/api"
	cfg.Server.UpstreamTimeout = 2 * time.Second
	return services.NewOAuthService(cfg)
}

func TestAuthorizeURL(t *testing.T) {
	svc := newService(t, &fakeDiscord{})

	raw, err := svc.AuthorizeURL("")
	require.NoError(t, err)

	u, err := url.Parse(raw)
	require.NoError(t, err)
	require.Equal(t, "/api/oauth2/authorize", u.Path)
	q := u.Query()
	require.Equal(t, testClientID, q.Get("client_id"))
	require.Equal(t, testRedirectURI, q.Get("redirect_uri"))
	require.Equal(t, "code", q.Get("response_type"))
	require.Equal(t, "identify guilds", q.Get("scope"))
	require.False(t, q.Has("state"))

	withState, err := svc.AuthorizeURL("s1")
	require.NoError(t, err)
	require.Contains(t, withState, "state=s1")
}

func TestAuthorizeURLRequiresConfig(t *testing.T) {
	cfg := &config.Config{}
	cfg.Discord.RedirectURI = testRedirectURI
	_, err := services.NewOAuthService(cfg).AuthorizeURL("")
	require.ErrorIs(t, err, services.ErrNotConfigured)
}

func TestAuthenticate(t *testing.T) {
	f := &fakeDiscord{
		tokenBody: `{"access_token":"` + testAccessToken + `","token_type":"Bearer","expires_in":604800,"scope":"identify guilds"}`,
		userBody:  `{"id":"80351110224678912","username":"nelly","discriminator":"1337","avatar":"8342729096ea3675442027381ff50dfe"}`,
	}
	svc := newService(t, f)

	payload, err := svc.Authenticate(context.Background(), testCode)
	require.NoError(t, err)
	require.Equal(t, testAccessToken, payload.Token)
	require.Equal(t, "nelly", payload.User.Username)
	require.NotNil(t, payload.User.Avatar)
	require.Equal(t, "https://cdn.discordapp.com/avatars/80351110224678912/8342729096ea3675442027381ff50dfe.png", *payload.User.Avatar)

	require.Len(t, f.tokenForms, 1)
	form := f.tokenForms[0]
	require.Equal(t, "authorization_code", form.Get("grant_type"))
	require.Equal(t, testCode, form.Get("code"))
	require.Equal(t, testClientID, form.Get("client_id"))
	require.Equal(t, testClientSecret, form.Get("client_secret"))
	require.Equal(t, testRedirectURI, form.Get("redirect_uri"))

	require.Equal(t, []string{"Bearer " + testAccessToken}, f.authHeaders)
}

func TestAuthenticateWithoutAccessToken(t *testing.T) {
	svc := newService(t, &fakeDiscord{tokenBody: `{"token_type":"Bearer"}`})
	_, err := svc.Authenticate(context.Background(), testCode)
	require.ErrorIs(t, err, services.ErrNoToken)
}

func TestExchangeUnreachableIsUpstream(t *testing.T) {
	closed := httptest.NewServer(http.NotFoundHandler())
	base := closed.URL + "/api"
	closed.Close()

	cfg := &config.Config{}
	cfg.Discord.ClientID = testClientID
	cfg.Discord.RedirectURI = testRedirectURI
	cfg.Discord.APIBaseURL = base
	cfg.Server.UpstreamTimeout = 2 * time.Second

	_, err := services.NewOAuthService(cfg).Exchange(context.Background(), testCode)
	require.ErrorIs(t, err, services.ErrUpstream)
	require.NotErrorIs(t, err, services.ErrNoToken)
}

func TestAuthenticateRejectedCode(t *testing.T) {
	svc := newService(t, &fakeDiscord{
		tokenStatus: http.StatusBadRequest,
		tokenBody:   `{"error":"invalid_grant","error_description":"Invalid \"code\" in request."}`,
	})
	_, err := svc.Authenticate(context.Background(), testCode)
	require.ErrorIs(t, err, services.ErrNoToken)
}

func TestUserGuilds(t *testing.T) {
	svc := newService(t, &fakeDiscord{
		guildBody: `[{"id":"G1","name":"Test","owner":true,"permissions":"2146958591"}]`,
	})

	guilds, err := svc.UserGuilds(context.Background(), testAccessToken)
	require.NoError(t, err)
	require.Len(t, guilds, 1)
	require.Equal(t, "G1", guilds[0].ID)
	require.True(t, guilds[0].Owner)
	require.Equal(t, int64(2146958591), guilds[0].Permissions)
}

func TestUserGuildsRejectedToken(t *testing.T) {
	svc := newService(t, &fakeDiscord{
		guildStatus: http.StatusUnauthorized,
		guildBody:   `{"message":"401: Unauthorized","code":0}`,
	})
	_, err := svc.UserGuilds(context.Background(), "bad")
	require.ErrorIs(t, err, services.ErrInvalidToken)
}

func TestNewAuthenticatedUserWithoutAvatar(t *testing.T) {
	au := services.NewAuthenticatedUser(&discordgo.User{ID: "1", Username: "x", Discriminator: "0"})
	require.Nil(t, au.Avatar)

	raw, err := json.Marshal(au)
	require.NoError(t, err)
	require.Contains(t, string(raw), `"avatar":null`)
}

func TestEncodePayloadHasUserAndTokenOnly(t *testing.T) {
	encoded, err := services.EncodePayload(&models.AuthPayload{
		User:  models.AuthenticatedUser{ID: "1", Username: "x"},
		Token: "t",
	})
	require.NoError(t, err)

	raw, err := base64.StdEncoding.DecodeString(encoded)
	require.NoError(t, err)

	var decoded map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(raw, &decoded))
	require.Len(t, decoded, 2)
	require.Contains(t, decoded, "user")
	require.Contains(t, decoded, "token")
}
