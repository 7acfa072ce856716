package middleware

import (
	"strings"

	"github.com/golang-jwt/jwt/v4"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"
)

// CustomerIDKey is the request user-value under which the middleware stores
// the customer ID carried by a verified token. Handlers use it to scope
// queries to the caller when no explicit filter is given.
const CustomerIDKey = "auth_customer_id"

// JWTAuth verifies the bearer token and annotates the request with the
// authenticated customer. Tokens are issued elsewhere; this service only
// checks the signature and, when configured, the issuer.
func JWTAuth(secret, issuer string, logger *zap.Logger) func(fasthttp.RequestHandler) fasthttp.RequestHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(next fasthttp.RequestHandler) fasthttp.RequestHandler {
		return func(ctx *fasthttp.RequestCtx) {
			tokenString := extractToken(ctx)
			if tokenString == "" {
				ctx.SetStatusCode(fasthttp.StatusUnauthorized)
				return
			}

			claims := jwt.MapClaims{}
			token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
				if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, jwt.ErrTokenSignatureInvalid
				}
				return []byte(secret), nil
			})
			if err != nil || !token.Valid {
				logger.Warn("invalid jwt token", zap.Error(err))
				ctx.SetStatusCode(fasthttp.StatusUnauthorized)
				return
			}
			if issuer != "" && !claims.VerifyIssuer(issuer, true) {
				logger.Warn("jwt issuer mismatch")
				ctx.SetStatusCode(fasthttp.StatusUnauthorized)
				return
			}

			if customerID := customerFromClaims(claims); customerID != "" {
				ctx.SetUserValue(CustomerIDKey, customerID)
			}

			next(ctx)
		}
	}
}

// customerFromClaims prefers an explicit customer_id claim and falls back to
// the standard subject.
func customerFromClaims(claims jwt.MapClaims) string {
	if id, ok := claims["customer_id"].(string); ok && id != "" {
		return id
	}
	if sub, ok := claims["sub"].(string); ok {
		return sub
	}
	return ""
}

func extractToken(ctx *fasthttp.RequestCtx) string {
	header := string(ctx.Request.Header.Peek("Authorization"))
	if header == "" {
		return ""
	}
	if strings.HasPrefix(header, "Bearer ") {
		return strings.TrimPrefix(header, "Bearer ")
	}
	return header
}

// AuthenticatedCustomer returns the customer ID attached by JWTAuth, if any.
func AuthenticatedCustomer(ctx *fasthttp.RequestCtx) string {
	id, _ := ctx.UserValue(CustomerIDKey).(string)
	return id
}
