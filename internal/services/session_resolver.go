package services

import (
	"github.com/google/uuid"
	"go.uber.org/zap"

	"dynamo/pkg/utils"
)

// SessionResolver is the identity capability the payment flow consumes:
// given a bearer token, resolve the owning account or report unauthenticated.
// The payment flow never sees how sessions are stored or refreshed.
type SessionResolver interface {
	Resolve(token string) (uuid.UUID, bool)
}

type jwtSessionResolver struct {
	logger *zap.Logger
}

func NewJWTSessionResolver(logger *zap.Logger) SessionResolver {
	return &jwtSessionResolver{logger: logger}
}

// Resolve treats any invalid or expired token as unauthenticated rather than
// an error: capture has to keep working when the session did not survive the
// round trip to the payment provider.
func (r *jwtSessionResolver) Resolve(token string) (uuid.UUID, bool) {
	if token == "" {
		return uuid.Nil, false
	}

	claims, err := utils.ValidateToken(token)
	if err != nil {
		r.logger.Debug("session token rejected", zap.Error(err))
		return uuid.Nil, false
	}

	id, err := uuid.Parse(claims.UserID)
	if err != nil {
		r.logger.Debug("session token carries malformed user id", zap.Error(err))
		return uuid.Nil, false
	}

	return id, true
}
