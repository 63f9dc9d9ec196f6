package middleware

import (
	"github.com/gin-gonic/gin"
)

// PrincipalKey is the gin context key the guard stores the principal under.
const PrincipalKey = "linkauth.principal"

// Gin adapts the guard to gin. The principal is available both from the
// gin context under [PrincipalKey] and from c.Request.Context().
func (g *Guard) Gin() gin.HandlerFunc {
	return func(c *gin.Context) {
		p, err := g.Authenticate(c.Request)
		if err != nil {
			g.logFailure(c.Request.Context(), err)
			code, body := NewErrorBody(err)
			c.AbortWithStatusJSON(code, body)
			return
		}

		c.Request = c.Request.WithContext(WithPrincipal(c.Request.Context(), p))
		c.Set(PrincipalKey, p)
		c.Next()
	}
}

// GinPrincipal returns the principal stored by [Guard.Gin].
func GinPrincipal(c *gin.Context) (*Principal, bool) {
	v, ok := c.Get(PrincipalKey)
	if !ok {
		return nil, false
	}
	p, ok := v.(*Principal)
	return p, ok && p != nil
}
