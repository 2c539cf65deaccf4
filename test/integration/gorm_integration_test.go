package integration

import (
	"context"
	"log"
	"os"
	"testing"
	"time"

	"prompt-polish-be/internal/entity"
	"prompt-polish-be/internal/repository/specification"
	"prompt-polish-be/internal/repository/unitofwork"
	"prompt-polish-be/pkg/database"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/stretchr/testify/assert"
)

func TestGormConnection(t *testing.T) {
	// Load .env from root
	err := godotenv.Load("../../.env")
	if err != nil {
		log.Println("No .env file found, using system env")
	}

	dsn := os.Getenv("DB_CONNECTION_STRING")
	if dsn == "" {
		t.Skip("Skipping integration test: DB_CONNECTION_STRING not set")
	}

	gormDB, err := database.NewGormDBFromDSN(dsn)
	if err != nil {
		t.Fatalf("Failed to connect to DB: %v", err)
	}

	// Verify Wiring
	uowFactory := unitofwork.NewRepositoryFactory(gormDB)
	uow := uowFactory.NewUnitOfWork(context.Background())

	assert.NotNil(t, uow.UserRepository())
	assert.NotNil(t, uow.SessionRepository())
	assert.NotNil(t, uow.TurnRepository())

	// Basic Ping
	sqlDB, _ := gormDB.DB()
	err = sqlDB.Ping()
	assert.NoError(t, err)
	t.Log("Successfully connected to DB and initialized UnitOfWork Factory")

	t.Run("Check User Repository", func(t *testing.T) {
		count, err := uow.UserRepository().Count(context.Background())
		assert.NoError(t, err)
		t.Logf("User count: %d", count)
	})

	t.Run("Session Round Trip With Ownership", func(t *testing.T) {
		ctx := context.Background()
		anonID := uuid.New().String()
		owner := entity.AnonymousIdentity(anonID)

		session := &entity.Session{
			Id:             uuid.New(),
			Owner:          owner,
			Title:          "integration session",
			LastActivityAt: time.Now(),
			CreatedAt:      time.Now(),
		}
		err := uow.SessionRepository().Create(ctx, session)
		assert.NoError(t, err)

		// Owner sees it.
		found, err := uow.SessionRepository().FindOne(ctx,
			specification.ByID{ID: session.Id},
			specification.OwnedBy{Owner: owner},
		)
		assert.NoError(t, err)
		assert.NotNil(t, found)

		// A different identity does not.
		stranger := entity.AnonymousIdentity(uuid.New().String())
		missed, err := uow.SessionRepository().FindOne(ctx,
			specification.ByID{ID: session.Id},
			specification.OwnedBy{Owner: stranger},
		)
		assert.NoError(t, err)
		assert.Nil(t, missed)

		// Cleanup
		_ = uow.SessionRepository().Delete(ctx, session.Id)
	})

	t.Run("Transactional Merge", func(t *testing.T) {
		ctx := context.Background()
		anonID := uuid.New().String()
		owner := entity.AnonymousIdentity(anonID)

		user := &entity.User{
			Id:        uuid.New(),
			Email:     "test-integration-" + uuid.New().String() + "@example.com",
			FullName:  "Integration Test User",
			Status:    entity.UserStatusActive,
			CreatedAt: time.Now(),
			UpdatedAt: time.Now(),
		}
		err := uow.UserRepository().Create(ctx, user)
		assert.NoError(t, err)

		session := &entity.Session{
			Id:             uuid.New(),
			Owner:          owner,
			Title:          "merge candidate",
			LastActivityAt: time.Now(),
			CreatedAt:      time.Now(),
		}
		err = uow.SessionRepository().Create(ctx, session)
		assert.NoError(t, err)

		turn := &entity.Turn{
			Id:           uuid.New(),
			SessionId:    &session.Id,
			Owner:        owner,
			OriginalText: "original",
			EnhancedText: "enhanced",
			CreatedAt:    time.Now(),
		}
		err = uow.TurnRepository().Create(ctx, turn)
		assert.NoError(t, err)

		err = uow.Begin(ctx)
		assert.NoError(t, err)
		defer uow.Rollback()

		err = uow.SessionRepository().TransferOwnership(ctx, session.Id, user.Id)
		assert.NoError(t, err)
		err = uow.TurnRepository().TransferOwnershipBySession(ctx, session.Id, user.Id)
		assert.NoError(t, err)

		err = uow.Commit()
		assert.NoError(t, err)

		// Session now belongs to the user.
		merged, err := uow.SessionRepository().FindOne(ctx,
			specification.ByID{ID: session.Id},
			specification.OwnedBy{Owner: entity.UserIdentity(user.Id)},
		)
		assert.NoError(t, err)
		assert.NotNil(t, merged)

		// Cleanup
		_ = uow.TurnRepository().DeleteBySessionID(ctx, session.Id)
		_ = uow.SessionRepository().Delete(ctx, session.Id)
	})
}
