package handler

import (
    "errors"  // errors.New for context extraction failures
    "strconv" // parsing identifiers from strings

    "github.com/labstack/echo/v4"
)

// getUserID extracts the authenticated user's ID from the Echo context.
// The JWT middleware stores the token's subject claim under "user_id";
// depending on how the auth service encoded it the value may arrive as
// a number or a string, so all the plausible types are handled.
func getUserID(c echo.Context) (uint64, error) {
    v := c.Get("user_id")
    switch t := v.(type) {
    case uint64:
        return t, nil
    case int:
        return uint64(t), nil
    case int64:
        return uint64(t), nil
    case float64:
        return uint64(t), nil
    case string:
        if n, err := strconv.ParseUint(t, 10, 64); err == nil {
            return n, nil
        }
    }
    return 0, errors.New("invalid user_id in context")
}

// optionalUserID is getUserID for endpoints that serve guests too: a
// missing or unparseable identity yields zero rather than an error.
func optionalUserID(c echo.Context) uint64 {
    id, err := getUserID(c)
    if err != nil {
        return 0
    }
    return id
}

// showIDParam parses the :id path parameter as a show identifier.
func showIDParam(c echo.Context) (uint64, error) {
    id, err := strconv.ParseUint(c.Param("id"), 10, 64)
    if err != nil || id == 0 {
        return 0, errors.New("invalid show id")
    }
    return id, nil
}
