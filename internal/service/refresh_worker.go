// FILE: internal/service/refresh_worker.go
package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/google/uuid"

	"prompt-polish-be/internal/dto"
	"prompt-polish-be/internal/pkg/logger"
	"prompt-polish-be/internal/repository/specification"
	"prompt-polish-be/internal/repository/unitofwork"
	"prompt-polish-be/pkg/enhance"
	"prompt-polish-be/pkg/synopsis"
)

// errSessionGone marks the accepted race where a session is deleted while
// its refresh job is queued or in flight. Not retried.
var errSessionGone = errors.New("session no longer exists")

type IRefreshWorker interface {
	Start(ctx context.Context) error
}

type refreshWorker struct {
	pubSub      *gochannel.GoChannel
	uowFactory  unitofwork.RepositoryFactory
	provider    enhance.Provider
	logger      logger.ILogger
	workers     int
	maxAttempts int
}

func NewRefreshWorker(
	pubSub *gochannel.GoChannel,
	uowFactory unitofwork.RepositoryFactory,
	provider enhance.Provider,
	log logger.ILogger,
	workers int,
	maxAttempts int,
) IRefreshWorker {
	if workers < 1 {
		workers = 1
	}
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	return &refreshWorker{
		pubSub:      pubSub,
		uowFactory:  uowFactory,
		provider:    provider,
		logger:      log,
		workers:     workers,
		maxAttempts: maxAttempts,
	}
}

// Start subscribes to the refresh topic and fans messages out to a bounded
// pool. Turn persistence never depends on this path: a refresh that never
// succeeds only leaves the synopsis stale.
func (w *refreshWorker) Start(ctx context.Context) error {
	messages, err := w.pubSub.Subscribe(ctx, SynopsisRefreshTopic)
	if err != nil {
		return err
	}

	for i := 0; i < w.workers; i++ {
		go func() {
			for msg := range messages {
				w.processMessage(ctx, msg)
			}
		}()
	}

	return nil
}

func (w *refreshWorker) processMessage(ctx context.Context, msg *message.Message) {
	var payload dto.SynopsisRefreshMessage
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		w.logger.Error("refresh", "failed to unmarshal refresh message", map[string]interface{}{"error": err.Error()})
		msg.Ack() // invalid payloads would retry forever
		return
	}

	backoff := time.Second
	for attempt := 1; attempt <= w.maxAttempts; attempt++ {
		err := w.refreshOnce(ctx, payload.SessionId)
		if err == nil {
			msg.Ack()
			return
		}

		if errors.Is(err, errSessionGone) {
			w.logger.Warn("refresh", "session deleted before refresh ran", map[string]interface{}{
				"session_id": payload.SessionId.String(),
			})
			msg.Ack()
			return
		}

		w.logger.Warn("refresh", "synopsis refresh attempt failed", map[string]interface{}{
			"session_id": payload.SessionId.String(),
			"attempt":    attempt,
			"error":      err.Error(),
		})

		if attempt < w.maxAttempts {
			time.Sleep(backoff)
			backoff *= 2
		}
	}

	// Retries exhausted: drop the job. The triggering turn is already
	// persisted, only synopsis freshness is lost.
	w.logger.Error("refresh", "synopsis refresh discarded after max attempts", map[string]interface{}{
		"session_id": payload.SessionId.String(),
		"attempts":   w.maxAttempts,
	})
	msg.Ack()
}

func (w *refreshWorker) refreshOnce(ctx context.Context, sessionID uuid.UUID) error {
	uow := w.uowFactory.NewUnitOfWork(ctx)

	session, err := uow.SessionRepository().FindOne(ctx, specification.ByID{ID: sessionID})
	if err != nil {
		return fmt.Errorf("load session: %w", err)
	}
	if session == nil {
		return errSessionGone
	}

	turns, err := uow.TurnRepository().FindAll(ctx,
		specification.BySessionID{SessionID: sessionID},
		specification.OrderBy{Field: "created_at", Desc: true},
		specification.Pagination{Limit: 6, Offset: 0},
	)
	if err != nil {
		return fmt.Errorf("load turns: %w", err)
	}
	if len(turns) == 0 {
		return nil // nothing to summarize
	}

	// Oldest first for the prompt.
	lines := make([]string, 0, len(turns)*2)
	for i := len(turns) - 1; i >= 0; i-- {
		lines = append(lines,
			"user: "+turns[i].OriginalText,
			"assistant: "+turns[i].EnhancedText,
		)
	}

	out, err := w.provider.Complete(ctx, synopsis.RefreshPrompt(session.Synopsis, lines))
	if err != nil {
		return fmt.Errorf("refresh completion: %w", err)
	}

	// Parse degrades to a partial or empty synopsis on messy model output;
	// the merge below keeps whatever fields it could not improve.
	parsed := synopsis.Parse(out)
	session.ApplySynopsis(parsed, time.Now())

	if err := uow.SessionRepository().Update(ctx, session); err != nil {
		return fmt.Errorf("store synopsis: %w", err)
	}

	return nil
}
