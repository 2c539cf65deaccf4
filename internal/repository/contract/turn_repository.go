package contract

import (
	"context"

	"github.com/google/uuid"

	"prompt-polish-be/internal/entity"
	"prompt-polish-be/internal/repository/specification"
)

type TurnRepository interface {
	Create(ctx context.Context, turn *entity.Turn) error
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Turn, error)
	Count(ctx context.Context, specs ...specification.Specification) (int64, error)
	DeleteBySessionID(ctx context.Context, sessionID uuid.UUID) error

	// TransferOwnershipBySession reassigns every turn of a session to the
	// given user. Run inside the same transaction as the session's
	// TransferOwnership so turn ownership always follows session ownership.
	TransferOwnershipBySession(ctx context.Context, sessionID, userID uuid.UUID) error
}
