package middleware

import (
	"context"
	"strings"

	"github.com/labstack/echo/v4"

	"foodshare/internal/domain/entity"
	"foodshare/internal/infrastructure/firebase"
	"foodshare/pkg/errors"
	"foodshare/pkg/response"
)

type TokenVerifier interface {
	VerifyToken(ctx context.Context, token string) (*firebase.Identity, error)
}

type ActorResolver interface {
	ResolveActor(ctx context.Context, uid, fallbackName string) (entity.Actor, error)
}

type AuthMiddleware struct {
	verifier TokenVerifier
	actors   ActorResolver
}

func NewAuthMiddleware(verifier TokenVerifier, actors ActorResolver) *AuthMiddleware {
	return &AuthMiddleware{
		verifier: verifier,
		actors:   actors,
	}
}

// Authenticate verifies the bearer token and stores "uid", "email" and the
// resolved "actor" on the context.
func (m *AuthMiddleware) Authenticate(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		authHeader := c.Request().Header.Get("Authorization")
		if authHeader == "" {
			return response.Error(c, errors.Unauthorized("Authorization header is required", nil))
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			return response.Error(c, errors.Unauthorized("Invalid authorization format", nil))
		}

		ctx := c.Request().Context()
		identity, err := m.verifier.VerifyToken(ctx, parts[1])
		if err != nil {
			return response.Error(c, errors.Unauthorized("Invalid or expired token", err))
		}

		actor, err := m.actors.ResolveActor(ctx, identity.UID, identity.Name)
		if err != nil {
			return response.Error(c, err)
		}

		c.Set("uid", identity.UID)
		c.Set("email", identity.Email)
		c.Set("actor", actor)

		return next(c)
	}
}

// ActorFrom returns the actor stored by Authenticate.
func ActorFrom(c echo.Context) entity.Actor {
	actor, _ := c.Get("actor").(entity.Actor)
	return actor
}
