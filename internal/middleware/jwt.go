package middleware // declare the middleware package; contains reusable HTTP middleware functions

import (
    "net/http" // HTTP status codes for responses
    "strings"  // string utilities for prefix checking and trimming

    "github.com/golang-jwt/jwt/v5" // JWT library for parsing and validating tokens
    "github.com/labstack/echo/v4"  // Echo framework used for defining middleware and handlers
)

// JWTAuth returns an Echo middleware that validates a Bearer access token and
// injects the token's subject claim into the request context.  Tokens are
// issued by the external auth service; the shared secret must match the one
// it signs with.  Handlers behind this middleware read the authenticated
// user via `c.Get("user_id")`.
func JWTAuth(secret string) echo.MiddlewareFunc {
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            claims, ok := parseBearer(c, secret)
            if !ok {
                return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid or missing token"})
            }
            c.Set("user_id", claims["sub"])
            return next(c)
        }
    }
}

// OptionalJWTAuth is JWTAuth for endpoints that serve guests too (seat
// status, the WebSocket feed).  A valid token tags the request with the
// user's identity; a missing or invalid one leaves the request
// anonymous instead of rejecting it.
func OptionalJWTAuth(secret string) echo.MiddlewareFunc {
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            if claims, ok := parseBearer(c, secret); ok {
                c.Set("user_id", claims["sub"])
            }
            return next(c)
        }
    }
}

// parseBearer extracts and verifies the Authorization header's bearer
// token.  Only HMAC-signed tokens are accepted; anything else fails
// verification regardless of signature validity.
func parseBearer(c echo.Context, secret string) (jwt.MapClaims, bool) {
    auth := c.Request().Header.Get("Authorization")
    if !strings.HasPrefix(auth, "Bearer ") {
        return nil, false
    }
    raw := strings.TrimPrefix(auth, "Bearer ")

    tok, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
        if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
            return nil, echo.ErrUnauthorized
        }
        return []byte(secret), nil
    })
    if err != nil || !tok.Valid {
        return nil, false
    }
    claims, ok := tok.Claims.(jwt.MapClaims)
    if !ok {
        return nil, false
    }
    return claims, true
}
