// FILE: internal/service/refresh_scheduler.go
package service

import (
	"encoding/json"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"

	"prompt-polish-be/internal/dto"
	"prompt-polish-be/internal/pkg/logger"
)

const SynopsisRefreshTopic = "SYNOPSIS_REFRESH"

type IRefreshScheduler interface {
	// Schedule queues a synopsis refresh for the session after the batching
	// delay. Rapid successive turns within the delay window collapse into a
	// single job. Best-effort: failures are logged, never surfaced.
	Schedule(sessionID uuid.UUID)
}

type refreshScheduler struct {
	pubSub  *gochannel.GoChannel
	delay   time.Duration
	pending *cache.Cache
	logger  logger.ILogger
}

func NewRefreshScheduler(pubSub *gochannel.GoChannel, delay time.Duration, log logger.ILogger) IRefreshScheduler {
	// The dedupe window matches the batching delay; expired entries are
	// purged lazily on the next Add.
	return &refreshScheduler{
		pubSub:  pubSub,
		delay:   delay,
		pending: cache.New(delay, time.Minute),
		logger:  log,
	}
}

func (s *refreshScheduler) Schedule(sessionID uuid.UUID) {
	// Add fails when the key already exists, which is exactly the dedupe we
	// want inside the delay window.
	if err := s.pending.Add(sessionID.String(), struct{}{}, s.delay); err != nil {
		return
	}

	time.AfterFunc(s.delay, func() {
		payload, err := json.Marshal(dto.SynopsisRefreshMessage{SessionId: sessionID})
		if err != nil {
			s.logger.Error("refresh", "failed to marshal refresh message", map[string]interface{}{"error": err.Error()})
			return
		}

		msg := message.NewMessage(watermill.NewUUID(), payload)
		if err := s.pubSub.Publish(SynopsisRefreshTopic, msg); err != nil {
			s.logger.Error("refresh", "failed to enqueue synopsis refresh", map[string]interface{}{
				"session_id": sessionID.String(),
				"error":      err.Error(),
			})
		}
	})
}
