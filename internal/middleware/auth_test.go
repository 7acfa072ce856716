package middleware

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/valyala/fasthttp"
)

const testSecret = "test-secret"

func signToken(t *testing.T, secret string, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return token
}

func runAuth(t *testing.T, issuer, authorization string) (*fasthttp.RequestCtx, bool) {
	t.Helper()

	called := false
	handler := JWTAuth(testSecret, issuer, nil)(func(ctx *fasthttp.RequestCtx) {
		called = true
	})

	ctx := &fasthttp.RequestCtx{}
	if authorization != "" {
		ctx.Request.Header.Set("Authorization", authorization)
	}
	handler(ctx)
	return ctx, called
}

func TestJWTAuth(t *testing.T) {
	t.Run("valid token passes and attaches the customer", func(t *testing.T) {
		token := signToken(t, testSecret, jwt.MapClaims{
			"customer_id": "c1",
			"exp":         time.Now().Add(time.Hour).Unix(),
		})

		ctx, called := runAuth(t, "", "Bearer "+token)
		assert.True(t, called)
		assert.Equal(t, "c1", AuthenticatedCustomer(ctx))
	})

	t.Run("subject claim is the fallback", func(t *testing.T) {
		token := signToken(t, testSecret, jwt.MapClaims{
			"sub": "c2",
			"exp": time.Now().Add(time.Hour).Unix(),
		})

		ctx, called := runAuth(t, "", "Bearer "+token)
		assert.True(t, called)
		assert.Equal(t, "c2", AuthenticatedCustomer(ctx))
	})

	t.Run("missing token", func(t *testing.T) {
		ctx, called := runAuth(t, "", "")
		assert.False(t, called)
		assert.Equal(t, fasthttp.StatusUnauthorized, ctx.Response.StatusCode())
	})

	t.Run("wrong signature", func(t *testing.T) {
		token := signToken(t, "other-secret", jwt.MapClaims{
			"customer_id": "c1",
			"exp":         time.Now().Add(time.Hour).Unix(),
		})

		ctx, called := runAuth(t, "", "Bearer "+token)
		assert.False(t, called)
		assert.Equal(t, fasthttp.StatusUnauthorized, ctx.Response.StatusCode())
	})

	t.Run("expired token", func(t *testing.T) {
		token := signToken(t, testSecret, jwt.MapClaims{
			"customer_id": "c1",
			"exp":         time.Now().Add(-time.Hour).Unix(),
		})

		_, called := runAuth(t, "", "Bearer "+token)
		assert.False(t, called)
	})

	t.Run("issuer enforced when configured", func(t *testing.T) {
		token := signToken(t, testSecret, jwt.MapClaims{
			"customer_id": "c1",
			"iss":         "someone-else",
			"exp":         time.Now().Add(time.Hour).Unix(),
		})

		ctx, called := runAuth(t, "shopline-backend", "Bearer "+token)
		assert.False(t, called)
		assert.Equal(t, fasthttp.StatusUnauthorized, ctx.Response.StatusCode())

		good := signToken(t, testSecret, jwt.MapClaims{
			"customer_id": "c1",
			"iss":         "shopline-backend",
			"exp":         time.Now().Add(time.Hour).Unix(),
		})
		_, called = runAuth(t, "shopline-backend", "Bearer "+good)
		assert.True(t, called)
	})
}
