package handler

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/ojwalters/bankledger/internal/auth"
)

// callerID returns the authenticated caller. Services compare it against the
// account owner; handlers never decide ownership themselves.
func callerID(r *http.Request) (uuid.UUID, *AppError) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		return uuid.Nil, ErrMissingToken
	}
	return userID, nil
}
