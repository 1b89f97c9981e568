package controllers

import (
	"errors"
	"net/http"
	"net/url"

	"github.com/SzKingXz/aurore-backend/api/models"
	"github.com/SzKingXz/aurore-backend/api/services"
	"github.com/SzKingXz/aurore-backend/internal/logger"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/skip2/go-qrcode"
)

const (
	StateCookie    = "oauth_state"
	stateCookieTTL = 600
	qrSize         = 256
)

type AuthController struct {
	oauth       *services.OAuthService
	logger      *logger.Logger
	frontendURL string
	verifyState bool
}

func NewAuthController(svc *services.OAuthService, l *logger.Logger, frontendURL string, verifyState bool) *AuthController {
	return &AuthController{
		oauth:       svc,
		logger:      l,
		frontendURL: frontendURL,
		verifyState: verifyState,
	}
}

// Login redirects the browser to Discord's consent screen.
func (ac *AuthController) Login(c *gin.Context) {
	state := ""
	if ac.verifyState {
		state = uuid.NewString()
	}

	authURL, err := ac.oauth.AuthorizeURL(state)
	if err != nil {
		ac.logger.Error("Cannot build authorize URL: ", err)
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: err.Error()})
		return
	}

	if state != "" {
		c.SetSameSite(http.SameSiteLaxMode)
		c.SetCookie(StateCookie, state, stateCookieTTL, "/api/auth", "", c.Request.TLS != nil, true)
	}

	ac.logger.Info("Redirecting to Discord OAuth")
	c.Redirect(http.StatusFound, authURL)
}

// LoginQR renders a QR code pointing at Login, for signing in from a phone.
func (ac *AuthController) LoginQR(c *gin.Context) {
	if _, err := ac.oauth.AuthorizeURL(""); err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: err.Error()})
		return
	}

	scheme := "http"
	if c.Request.TLS != nil {
		scheme = "https"
	}
	if proto := c.GetHeader("X-Forwarded-Proto"); proto != "" {
		scheme = proto
	}
	loginURL := scheme + "://" + c.Request.Host + "/api/auth/discord"

	png, err := qrcode.Encode(loginURL, qrcode.Medium, qrSize)
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "failed to render QR code", Details: err.Error()})
		return
	}
	c.Data(http.StatusOK, "image/png", png)
}

// Callback exchanges the code and always answers with a redirect to the
// front end, carrying either `auth` or `error`.
func (ac *AuthController) Callback(c *gin.Context) {
	code := c.Query("code")
	if code == "" {
		ac.redirect(c, "error", models.AuthErrorNoCode)
		return
	}

	if ac.verifyState {
		expected, err := c.Cookie(StateCookie)
		c.SetCookie(StateCookie, "", -1, "/api/auth", "", c.Request.TLS != nil, true)
		if err != nil || expected == "" || expected != c.Query("state") {
			ac.logger.Warn("OAuth state mismatch from ", c.ClientIP())
			ac.redirect(c, "error", models.AuthErrorInvalidState)
			return
		}
	}

	payload, err := ac.oauth.Authenticate(c.Request.Context(), code)
	switch {
	case errors.Is(err, services.ErrNoToken):
		ac.logger.Error("No access token received: ", err)
		ac.redirect(c, "error", models.AuthErrorNoToken)
		return
	case err != nil:
		ac.logger.Error("OAuth2 error: ", err)
		ac.redirect(c, "error", models.AuthErrorFailed)
		return
	}

	encoded, err := services.EncodePayload(payload)
	if err != nil {
		ac.logger.Error("OAuth2 error: ", err)
		ac.redirect(c, "error", models.AuthErrorFailed)
		return
	}

	ac.logger.Info("User authenticated: ", payload.User.Username)
	ac.redirect(c, "auth", encoded)
}

func (ac *AuthController) redirect(c *gin.Context, key, value string) {
	c.Redirect(http.StatusFound, FrontendRedirect(ac.frontendURL, key, value))
}

// FrontendRedirect appends key=value to base, preserving any existing query.
func FrontendRedirect(base, key, value string) string {
	u, err := url.Parse(base)
	if err != nil {
		return base + "?" + url.Values{key: {value}}.Encode()
	}
	q := u.Query()
	q.Set(key, value)
	u.RawQuery = q.Encode()
	return u.String()
}
