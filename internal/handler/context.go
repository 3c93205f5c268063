package handler // handler defines http handlers

import (
	"errors"  // errors provides sentinel values used in the context helpers
	"strconv" // strconv converts strings to numeric types

	"github.com/labstack/echo/v4" // echo defines request context types

	"github.com/engiflow/engiflow/internal/model"
)

// getUserID extracts the user_id from echo.Context and converts it to uint64
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

// currentActor builds the acting user identity from the JWT claims the
// auth middleware placed in the context. The review engine matches
// reviewers by email and stamps history entries with both name and
// email, so both claims must be present.
func currentActor(c echo.Context) (model.User, error) {
	email, _ := c.Get("email").(string)
	name, _ := c.Get("name").(string)
	if email == "" {
		return model.User{}, errors.New("missing email claim in context")
	}
	id, err := getUserID(c)
	if err != nil {
		return model.User{}, err
	}
	return model.User{ID: id, Name: name, Email: email}, nil
}
