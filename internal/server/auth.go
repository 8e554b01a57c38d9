package server

import (
	"log/slog"

	"inkwell/internal/auth"
	"inkwell/internal/middleware"
	"inkwell/internal/models"

	"github.com/gofiber/fiber/v2"
)

// TokenRequired rejects requests without a valid bearer token and stores the
// token subject in the request context.
func (s *Server) TokenRequired() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if err := s.verifyToken(c); err != nil {
			return models.RespondWithError(c, fiber.StatusUnauthorized, err)
		}
		return c.Next()
	}
}

// ActorRequired verifies the bearer token and resolves its subject to a local
// user. Unknown subjects are rejected with 401.
func (s *Server) ActorRequired() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if err := s.verifyToken(c); err != nil {
			return models.RespondWithError(c, fiber.StatusUnauthorized, err)
		}

		ctx := c.UserContext()
		subject, _ := auth.SubjectFrom(ctx)
		user, err := s.userService.ResolveSubject(ctx, subject)
		if err != nil {
			return respondError(c, err, "Failed to resolve user")
		}

		ctx = auth.WithActor(ctx, auth.Actor{ID: user.ID, Subject: subject})
		// Sync to UserContext for logging and to locals for rate limiting
		ctx = middleware.WithUserID(ctx, user.ID.String())
		c.Locals("userID", user.ID.String())
		c.SetUserContext(ctx)

		return c.Next()
	}
}

func (s *Server) verifyToken(c *fiber.Ctx) error {
	raw, ok := auth.BearerToken(c.Get(fiber.HeaderAuthorization))
	if !ok {
		return models.NewUnauthorizedError("Authorization required")
	}

	subject, err := s.verifier.Verify(c.UserContext(), raw)
	if err != nil {
		middleware.Logger.DebugContext(c.UserContext(), "token rejected", slog.String("error", err.Error()))
		return models.NewUnauthorizedError("Invalid or expired token")
	}

	c.SetUserContext(auth.WithSubject(c.UserContext(), subject))
	return nil
}

// actorID returns the resolved caller, or "" on public routes.
func actorID(c *fiber.Ctx) models.ID {
	if a, ok := auth.ActorFrom(c.UserContext()); ok {
		return a.ID
	}
	return ""
}
