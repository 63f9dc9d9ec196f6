package httpapi

import (
	"errors"
	"net/http"
	"strings"

	"github.com/MrEthical07/linkauth"
	"github.com/MrEthical07/linkauth/internal/rate"
	"github.com/MrEthical07/linkauth/middleware"
	"github.com/MrEthical07/linkauth/password"
	"github.com/MrEthical07/linkauth/users"
	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

const (
	msgCredentials   = "Credentials not correct, please check the email and password."
	msgUserExists    = "The email provided already exists, please use another one."
	msgInternal      = "Internal Server Error"
	msgInvalidBody   = "Invalid request body."
	msgTokenNotMatch = "The token provided is expired or not valid, please login to get a new one."
	msgTooMany       = "Too many login attempts, please try again later."
)

type registerRequest struct {
	Name     string `json:"name" binding:"required,min=3"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type loginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

var fieldMessages = map[string]string{
	"Name":     "Name must be at least 3 characters.",
	"Email":    "Invalid Email, please provide a valid email.",
	"Password": "Password is required.",
}

// bindingMessage turns a gin binding error into the messages shown to the
// client, joined with ", ".
func bindingMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return msgInvalidBody
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		if m, ok := fieldMessages[fe.Field()]; ok {
			msgs = append(msgs, m)
		}
	}
	if len(msgs) == 0 {
		return msgInvalidBody
	}
	return strings.Join(msgs, ", ")
}

func policyMessage(err error) string {
	var msgs []string
	for _, target := range []error{password.ErrPolicyDigit, password.ErrPolicySpecial, password.ErrPolicySpace} {
		if errors.Is(err, target) {
			msgs = append(msgs, target.Error())
		}
	}
	return strings.Join(msgs, ", ")
}

func (a *API) register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, bindingMessage(err))
		return
	}
	if err := password.CheckPolicy(req.Password); err != nil {
		fail(c, http.StatusBadRequest, policyMessage(err))
		return
	}

	ctx := c.Request.Context()
	hash, err := a.hasher.Hash(req.Password)
	if err != nil {
		if errors.Is(err, password.ErrPasswordTooLong) {
			fail(c, http.StatusBadRequest, "Password is too long.")
			return
		}
		a.logger.ErrorContext(ctx, "hash password", "error", err)
		fail(c, http.StatusInternalServerError, msgInternal)
		return
	}

	user, err := a.users.CreateUser(ctx, users.NewUser{
		Name:         req.Name,
		Email:        req.Email,
		PasswordHash: hash,
	})
	switch {
	case errors.Is(err, users.ErrDuplicateEmail):
		fail(c, http.StatusConflict, msgUserExists)
		return
	case errors.Is(err, users.ErrInvalidInput):
		fail(c, http.StatusBadRequest, msgInvalidBody)
		return
	case err != nil:
		a.logger.ErrorContext(ctx, "create user", "error", err)
		fail(c, http.StatusServiceUnavailable, "Service temporarily unavailable, please try again later.")
		return
	}

	a.logger.InfoContext(ctx, "user registered", "user_id", user.ID)
	c.JSON(http.StatusOK, userResponse{Status: "success", Data: userData{User: FilterUser(user)}})
}

func (a *API) login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, bindingMessage(err))
		return
	}

	ctx := c.Request.Context()
	email := users.NormalizeEmail(req.Email)
	ip := c.ClientIP()
	if a.throttled(c, email, ip) {
		return
	}

	user, found, err := a.users.FindUserByEmail(ctx, email)
	if err != nil {
		a.logger.ErrorContext(ctx, "find user by email", "error", err)
		failWith(c, linkauth.ErrUserLookupFailed)
		return
	}
	if !found {
		a.hasher.VerifyMissing(req.Password)
		a.loginFailed(c, email, ip)
		return
	}

	ok, err := a.hasher.Verify(req.Password, user.PasswordHash)
	if err != nil {
		a.logger.WarnContext(ctx, "stored password hash unreadable", "user_id", user.ID, "error", err)
	}
	if !ok {
		a.loginFailed(c, email, ip)
		return
	}

	pair, err := a.sessions.Issue(ctx, user.ID)
	if err != nil {
		a.logger.ErrorContext(ctx, "issue session", "user_id", user.ID, "error", err)
		failWith(c, err)
		return
	}

	if a.opts.Limiter != nil {
		if err := a.opts.Limiter.Reset(ctx, email); err != nil {
			a.logger.WarnContext(ctx, "reset login limiter", "error", err)
		}
	}

	a.setSessionCookies(c, pair)
	c.JSON(http.StatusOK, tokenResponse{Status: "success", AccessToken: pair.AccessToken})
}

// throttled writes 429 and reports true when the login budget is spent.
// Limiter outages are logged and the attempt proceeds.
func (a *API) throttled(c *gin.Context, email, ip string) bool {
	if a.opts.Limiter == nil {
		return false
	}
	err := a.opts.Limiter.Check(c.Request.Context(), email, ip)
	switch {
	case err == nil:
		return false
	case errors.Is(err, rate.ErrRateLimited):
		fail(c, http.StatusTooManyRequests, msgTooMany)
		return true
	default:
		a.logger.WarnContext(c.Request.Context(), "login limiter unavailable", "error", err)
		return false
	}
}

func (a *API) loginFailed(c *gin.Context, email, ip string) {
	if a.opts.Limiter != nil {
		if err := a.opts.Limiter.Fail(c.Request.Context(), email, ip); err != nil && !errors.Is(err, rate.ErrRateLimited) {
			a.logger.WarnContext(c.Request.Context(), "record failed login", "error", err)
		}
	}
	fail(c, http.StatusUnauthorized, msgCredentials)
}

func (a *API) refresh(c *gin.Context) {
	token, err := c.Cookie(RefreshTokenCookie)
	if err != nil || token == "" {
		failWith(c, linkauth.ErrCredentialMissing)
		return
	}

	ctx := c.Request.Context()
	claims, err := a.sessions.Inspect(token, linkauth.RefreshToken)
	if err != nil {
		failWith(c, err)
		return
	}
	_, found, err := a.users.FindUserByID(ctx, claims.Subject)
	if err != nil {
		a.logger.ErrorContext(ctx, "find user by id", "user_id", claims.Subject, "error", err)
		failWith(c, linkauth.ErrUserLookupFailed)
		return
	}
	if !found {
		fail(c, http.StatusUnauthorized, msgTokenNotMatch)
		return
	}

	pair, err := a.sessions.Refresh(ctx, token)
	if err != nil {
		failWith(c, err)
		return
	}

	a.setSessionCookies(c, pair)
	c.JSON(http.StatusOK, tokenResponse{Status: "success", AccessToken: pair.AccessToken})
}

func (a *API) logout(c *gin.Context) {
	p, ok := middleware.GinPrincipal(c)
	if !ok {
		failWith(c, linkauth.ErrCredentialMissing)
		return
	}

	refresh, _ := c.Cookie(RefreshTokenCookie)
	err := a.sessions.Logout(c.Request.Context(), linkauth.LogoutRequest{
		UserID:          p.User.ID,
		AccessSessionID: p.Session.SessionID,
		RefreshToken:    refresh,
	})
	if err != nil {
		failWith(c, err)
		return
	}

	a.clearSessionCookies(c)
	c.JSON(http.StatusOK, gin.H{"status": "success"})
}

func (a *API) me(c *gin.Context) {
	p, ok := middleware.GinPrincipal(c)
	if !ok {
		failWith(c, linkauth.ErrCredentialMissing)
		return
	}
	c.JSON(http.StatusOK, userResponse{Status: "success", Data: userData{User: FilterUser(p.User)}})
}
