package middleware

import (
	"context"
	"strings"

	"github.com/Miraines/videotube/internal/adapters/transport/http/dto"
	customErrors "github.com/Miraines/videotube/internal/domain/user/errors"
	"github.com/Miraines/videotube/internal/domain/user/model"
	"github.com/gin-gonic/gin"
)

const (
	AccessTokenCookie  = "accessToken"
	RefreshTokenCookie = "refreshToken"

	principalKey = "principal"
)

type Authenticator interface {
	Authenticate(ctx context.Context, accessToken string) (model.Principal, error)
}

// AccessToken reads the token from the accessToken cookie, falling back to
// an Authorization: Bearer header.
func AccessToken(c *gin.Context) string {
	if tok, err := c.Cookie(AccessTokenCookie); err == nil && tok != "" {
		return tok
	}
	h := c.GetHeader("Authorization")
	if len(h) > 7 && strings.EqualFold(h[:7], "bearer ") {
		return strings.TrimSpace(h[7:])
	}
	return ""
}

// RequireAuth verifies the access token and stores the caller on the context.
func RequireAuth(auth Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		tok := AccessToken(c)
		if tok == "" {
			abort(c, customErrors.New(customErrors.ErrInvalidToken, "Unauthorized request"))
			return
		}

		p, err := auth.Authenticate(c.Request.Context(), tok)
		if err != nil {
			abort(c, err)
			return
		}
		c.Set(principalKey, p)
		c.Next()
	}
}

func Principal(c *gin.Context) (model.Principal, bool) {
	v, ok := c.Get(principalKey)
	if !ok {
		return model.Principal{}, false
	}
	p, ok := v.(model.Principal)
	return p, ok
}

func abort(c *gin.Context, err error) {
	status := customErrors.HTTPStatus(err)
	_ = c.Error(err)
	c.AbortWithStatusJSON(status, dto.NewAPIResponse(status, nil, customErrors.Message(err)))
}
