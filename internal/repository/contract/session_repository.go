package contract

import (
	"context"

	"github.com/google/uuid"

	"prompt-polish-be/internal/entity"
	"prompt-polish-be/internal/repository/specification"
)

type SessionRepository interface {
	Create(ctx context.Context, session *entity.Session) error
	Update(ctx context.Context, session *entity.Session) error
	Delete(ctx context.Context, id uuid.UUID) error
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Session, error)
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Session, error)
	Count(ctx context.Context, specs ...specification.Specification) (int64, error)

	// TransferOwnership flips the session's owner from its anonymous token to
	// the given user, clearing the anonymous column.
	TransferOwnership(ctx context.Context, sessionID, userID uuid.UUID) error
}
