package auth

import (
	"context"

	"inkwell/internal/models"
)

// Actor is the authenticated caller of a request.
type Actor struct {
	ID      models.ID
	Subject string
}

type ctxKey int

const (
	subjectKey ctxKey = iota
	actorKey
)

// WithSubject returns ctx carrying a verified token subject.
func WithSubject(ctx context.Context, subject string) context.Context {
	return context.WithValue(ctx, subjectKey, subject)
}

// SubjectFrom returns the verified token subject, if any.
func SubjectFrom(ctx context.Context) (string, bool) {
	s, ok := ctx.Value(subjectKey).(string)
	return s, ok && s != ""
}

// WithActor returns ctx carrying the resolved actor.
func WithActor(ctx context.Context, a Actor) context.Context {
	return context.WithValue(ctx, actorKey, a)
}

// ActorFrom returns the resolved actor, if any.
func ActorFrom(ctx context.Context) (Actor, bool) {
	a, ok := ctx.Value(actorKey).(Actor)
	return a, ok && a.ID != ""
}

// IsOwner reports whether actor owns a resource whose owner is owner.
func IsOwner(actor, owner models.ID) bool {
	return actor != "" && actor == owner
}
