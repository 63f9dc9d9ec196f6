package httpapi

import (
	"net/http"

	"github.com/MrEthical07/linkauth"
	"github.com/MrEthical07/linkauth/middleware"
	"github.com/gin-gonic/gin"
)

const (
	RefreshTokenCookie = "refresh_token"
	LoggedInCookie     = "logged_in"
)

func (a *API) cookie(name, value string, maxAge int, httpOnly bool) *http.Cookie {
	ck := &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		Domain:   a.opts.CookieDomain,
		MaxAge:   maxAge,
		HttpOnly: httpOnly,
		Secure:   a.opts.SecureCookies,
		SameSite: http.SameSiteLaxMode,
	}
	if a.opts.SecureCookies {
		ck.SameSite = http.SameSiteNoneMode
	}
	return ck
}

// setSessionCookies writes the access, refresh and logged_in cookies for pair.
func (a *API) setSessionCookies(c *gin.Context, pair linkauth.TokenPair) {
	http.SetCookie(c.Writer, a.cookie(middleware.AccessTokenCookie, pair.AccessToken, a.opts.AccessMaxAge, true))
	http.SetCookie(c.Writer, a.cookie(RefreshTokenCookie, pair.RefreshToken, a.opts.RefreshMaxAge, true))
	http.SetCookie(c.Writer, a.cookie(LoggedInCookie, "true", a.opts.AccessMaxAge, false))
}

// clearSessionCookies expires all three cookies.
func (a *API) clearSessionCookies(c *gin.Context) {
	for _, name := range []string{middleware.AccessTokenCookie, RefreshTokenCookie, LoggedInCookie} {
		http.SetCookie(c.Writer, a.cookie(name, "", -1, name != LoggedInCookie))
	}
}
