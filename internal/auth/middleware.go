package auth

import (
	"strings"

	"github.com/gin-gonic/gin"

	"readsync/internal/apperr"
	"readsync/pkg/models"
)

const CtxUserKey = "user"

// ErrorWriter renders a classified error; the server package supplies it so
// every response uses the same envelope.
type ErrorWriter func(c *gin.Context, err error)

func RequireJWT(svc *Service, writeErr ErrorWriter) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearerToken(c.GetHeader("Authorization"))
		if !ok {
			writeErr(c, apperr.Unauthenticated("Authentication required."))
			c.Abort()
			return
		}
		u, err := svc.Authenticate(c.Request.Context(), token)
		if err != nil {
			writeErr(c, err)
			c.Abort()
			return
		}
		c.Set(CtxUserKey, u)
		c.Next()
	}
}

// CurrentUser returns the user RequireJWT stored on the context.
func CurrentUser(c *gin.Context) (models.User, bool) {
	v, ok := c.Get(CtxUserKey)
	if !ok {
		return models.User{}, false
	}
	u, ok := v.(models.User)
	return u, ok
}

func bearerToken(h string) (string, bool) {
	if !strings.HasPrefix(h, "Bearer ") {
		return "", false
	}
	token := strings.TrimSpace(strings.TrimPrefix(h, "Bearer "))
	return token, token != ""
}
