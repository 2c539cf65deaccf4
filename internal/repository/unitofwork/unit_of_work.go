package unitofwork

import (
	"context"

	"prompt-polish-be/internal/repository/contract"
)

type UnitOfWork interface {
	Begin(ctx context.Context) error
	Commit() error
	Rollback() error

	UserRepository() contract.UserRepository
	SessionRepository() contract.SessionRepository
	TurnRepository() contract.TurnRepository
}
