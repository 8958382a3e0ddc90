package service

import (
	"context"
	"encoding/json"
	"time"

	"kb-assistant-be/internal/dto"
	"kb-assistant-be/internal/pkg/logger"
	"kb-assistant-be/internal/repository/unitofwork"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
)

type IRetentionService interface {
	Consume(ctx context.Context) error
}

// retentionService prunes chat history of rotated-out session scopes.
// Rotation is the natural moment to prune: the old scope will never be
// written again, and lazy expiry means no background sweeper exists.
// A scope rotates exactly once, so rows still younger than the
// retention window at that moment are kept for good; history reads are
// capped regardless, so they never reach a prompt.
type retentionService struct {
	pubSub     *gochannel.GoChannel
	topicName  string
	uowFactory unitofwork.RepositoryFactory
	retention  time.Duration
	logger     logger.ILogger
}

func NewRetentionService(
	pubSub *gochannel.GoChannel,
	topicName string,
	uowFactory unitofwork.RepositoryFactory,
	retention time.Duration,
	sysLogger logger.ILogger,
) IRetentionService {
	return &retentionService{
		pubSub:     pubSub,
		topicName:  topicName,
		uowFactory: uowFactory,
		retention:  retention,
		logger:     sysLogger,
	}
}

func (rs *retentionService) Consume(ctx context.Context) error {
	messages, err := rs.pubSub.Subscribe(ctx, rs.topicName)
	if err != nil {
		return err
	}

	go func() {
		for msg := range messages {
			rs.processMessage(ctx, msg)
		}
	}()

	return nil
}

func (rs *retentionService) processMessage(ctx context.Context, msg *message.Message) {
	var payload dto.SessionRotatedMessage
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		rs.logger.Error("retention", "failed to unmarshal rotation message", map[string]interface{}{
			"error": err.Error(),
		})
		msg.Ack() // Ack invalid messages to prevent infinite retry
		return
	}

	if rs.retention <= 0 {
		msg.Ack()
		return
	}

	cutoff := time.Now().Add(-rs.retention)

	uow := rs.uowFactory.NewUnitOfWork(ctx)
	err := uow.ChatMessageRepository().DeleteByScopeKeyBefore(ctx, payload.PreviousScope, cutoff)
	if err != nil {
		rs.logger.Error("retention", "failed to prune rotated scope", map[string]interface{}{
			"previous_scope": payload.PreviousScope,
			"error":          err.Error(),
		})
		msg.Nack()
		return
	}

	rs.logger.Info("retention", "pruned rotated session scope", map[string]interface{}{
		"previous_scope": payload.PreviousScope,
		"cutoff":         cutoff.Format(time.RFC3339),
	})
	msg.Ack()
}
