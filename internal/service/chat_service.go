package service

import (
	"context"
	"errors"
	"time"

	"kb-assistant-be/internal/constant"
	"kb-assistant-be/internal/dto"
	"kb-assistant-be/internal/pkg/logger"
	"kb-assistant-be/internal/pkg/serverutils"
	"kb-assistant-be/pkg/rag"
	"kb-assistant-be/pkg/session"

	"github.com/gofiber/fiber/v2"
)

// IChatService defines the conversational endpoints over the tenant
// knowledge base.
type IChatService interface {
	Rag(ctx context.Context, identity serverutils.Identity, request *dto.RagRequest) (*dto.RagResponse, error)
	Session(ctx context.Context, identity serverutils.Identity) (*dto.SessionResponse, error)
}

type chatService struct {
	sessionManager   *session.Manager
	engine           *rag.Engine
	publisherService IPublisherService
	logger           logger.ILogger
}

func NewChatService(
	sessionManager *session.Manager,
	engine *rag.Engine,
	publisherService IPublisherService,
	sysLogger logger.ILogger,
) IChatService {
	return &chatService{
		sessionManager:   sessionManager,
		engine:           engine,
		publisherService: publisherService,
		logger:           sysLogger,
	}
}

func (cs *chatService) Rag(ctx context.Context, identity serverutils.Identity, request *dto.RagRequest) (*dto.RagResponse, error) {
	now := time.Now()

	scopeKey := ""
	sessionId := ""

	resolution, err := cs.sessionManager.Resolve(ctx, identity.SessionKey(), now)
	switch {
	case err == nil:
		sessionId = resolution.Session.SessionID
		scopeKey = resolution.Session.ScopeKey()

		if request.UserSessionId != "" && request.UserSessionId != sessionId {
			cs.logger.Debug("chat", "client session id superseded", map[string]interface{}{
				"client_session_id": request.UserSessionId,
				"session_id":        sessionId,
			})
		}

		if resolution.Outcome == session.OutcomeRotated {
			cs.publishRotation(ctx, identity, resolution)
		}

	case errors.Is(err, session.ErrUnavailable):
		// Session store outage degrades to a session-less turn instead
		// of failing the question.
		cs.logger.Warn("chat", "session store unavailable, running session-less turn", map[string]interface{}{
			"session_key": identity.SessionKey(),
			"error":       err.Error(),
		})

	default:
		return nil, err
	}

	temperature := constant.DefaultTemperature
	if request.Temperature != nil {
		temperature = *request.Temperature
	}
	topP := constant.DefaultTopP
	if request.TopP != nil {
		topP = *request.TopP
	}

	result, err := cs.engine.Answer(ctx, rag.AnswerInput{
		TenantId:    identity.TenantId,
		ScopeKey:    scopeKey,
		Question:    request.Q,
		K:           request.MaxMatchingDocs,
		Temperature: temperature,
		TopP:        topP,
	})
	if err != nil {
		// Upstream details stay in the log; the client gets an opaque
		// failure with no retry.
		cs.logger.Error("chat", "failed to answer question", map[string]interface{}{
			"tenant_id": identity.TenantId,
			"error":     err.Error(),
		})
		return nil, fiber.NewError(fiber.StatusBadGateway, "failed to generate an answer")
	}

	response := &dto.RagResponse{
		Question:  result.Question,
		Answer:    result.Answer,
		SessionId: sessionId,
		Sources:   collectSources(result),
	}

	if request.Verbose {
		docs := make([]dto.MatchingDocDTO, len(result.Docs))
		for i, d := range result.Docs {
			docs[i] = dto.MatchingDocDTO{
				PageContent: d.PageContent,
				Metadata:    d.Metadata,
				Similarity:  d.Similarity,
			}
		}
		response.Docs = docs
	}

	return response, nil
}

func (cs *chatService) Session(ctx context.Context, identity serverutils.Identity) (*dto.SessionResponse, error) {
	sess, err := cs.sessionManager.Get(ctx, identity.SessionKey())
	if errors.Is(err, session.ErrNotFound) {
		return nil, fiber.NewError(fiber.StatusNotFound, "no session for this identity")
	}
	if err != nil {
		return nil, err
	}

	return &dto.SessionResponse{
		SessionId:       sess.SessionID,
		LastInteraction: sess.LastInteraction,
		Idle:            sess.IdleSince(time.Now()),
	}, nil
}

func (cs *chatService) publishRotation(ctx context.Context, identity serverutils.Identity, resolution *session.Resolution) {
	previousScope := resolution.Session.SessionKey + ":" + resolution.PreviousID

	err := cs.publisherService.PublishSessionRotated(ctx, &dto.SessionRotatedMessage{
		SessionKey:    resolution.Session.SessionKey,
		TenantId:      identity.TenantId,
		PreviousScope: previousScope,
	})
	if err != nil {
		// Rotation still succeeded; only the retention signal is lost.
		cs.logger.Warn("chat", "failed to publish session rotation", map[string]interface{}{
			"session_key": resolution.Session.SessionKey,
			"error":       err.Error(),
		})
		return
	}

	cs.logger.Info("chat", "session rotated", map[string]interface{}{
		"session_key":    resolution.Session.SessionKey,
		"previous_scope": previousScope,
	})
}

func collectSources(result *rag.AnswerResult) []string {
	seen := make(map[string]struct{})
	var sources []string
	for _, d := range result.Docs {
		src, ok := d.Metadata["source"].(string)
		if !ok || src == "" {
			continue
		}
		if _, dup := seen[src]; dup {
			continue
		}
		seen[src] = struct{}{}
		sources = append(sources, src)
	}
	return sources
}
