package controller

import (
	"context"
	"encoding/json"
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"kb-assistant-be/internal/dto"
	"kb-assistant-be/internal/pkg/serverutils"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeChatService struct {
	lastIdentity serverutils.Identity
	lastRequest  *dto.RagRequest
	ragResponse  *dto.RagResponse
	ragErr       error
	sessionResp  *dto.SessionResponse
	sessionErr   error
}

func (f *fakeChatService) Rag(ctx context.Context, identity serverutils.Identity, request *dto.RagRequest) (*dto.RagResponse, error) {
	f.lastIdentity = identity
	f.lastRequest = request
	return f.ragResponse, f.ragErr
}

func (f *fakeChatService) Session(ctx context.Context, identity serverutils.Identity) (*dto.SessionResponse, error) {
	f.lastIdentity = identity
	return f.sessionResp, f.sessionErr
}

func newTestApp(svc *fakeChatService) *fiber.App {
	app := fiber.New()
	app.Use(serverutils.ErrorHandlerMiddleware())

	api := app.Group("/api")
	NewChatController(svc).RegisterRoutes(api)
	return app
}

func TestRagThreadsIdentityFromHeaders(t *testing.T) {
	svc := &fakeChatService{ragResponse: &dto.RagResponse{
		Question:  "What is the vacation policy?",
		Answer:    "25 days per year.",
		SessionId: "sess-1",
	}}
	app := newTestApp(svc)

	body := `{"q":"What is the vacation policy?"}`
	req := httptest.NewRequest("POST", "/api/v1/llm/rag", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Auth-Request-Tenantid", "acme")
	req.Header.Set("X-Auth-Request-Email", "bob@acme.io")

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	assert.Equal(t, "acme", svc.lastIdentity.TenantId)
	assert.Equal(t, "bob@acme.io", svc.lastIdentity.UserEmail)

	raw, _ := io.ReadAll(resp.Body)
	var envelope struct {
		Success bool            `json:"success"`
		Data    dto.RagResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(raw, &envelope))
	assert.True(t, envelope.Success)
	assert.Equal(t, "sess-1", envelope.Data.SessionId)
	assert.Equal(t, "25 days per year.", envelope.Data.Answer)
}

func TestRagRejectsMissingIdentityHeaders(t *testing.T) {
	svc := &fakeChatService{}
	app := newTestApp(svc)

	req := httptest.NewRequest("POST", "/api/v1/llm/rag", strings.NewReader(`{"q":"hi"}`))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
	assert.Nil(t, svc.lastRequest)
}

func TestRagRejectsEmptyQuestion(t *testing.T) {
	svc := &fakeChatService{}
	app := newTestApp(svc)

	req := httptest.NewRequest("POST", "/api/v1/llm/rag", strings.NewReader(`{"q":""}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Auth-Request-Tenantid", "acme")
	req.Header.Set("X-Auth-Request-Email", "bob@acme.io")

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	assert.Nil(t, svc.lastRequest)
}

func TestSessionReturnsNotFoundWhenAbsent(t *testing.T) {
	svc := &fakeChatService{sessionErr: fiber.NewError(fiber.StatusNotFound, "no session for this identity")}
	app := newTestApp(svc)

	req := httptest.NewRequest("GET", "/api/v1/llm/session", nil)
	req.Header.Set("X-Auth-Request-Tenantid", "acme")
	req.Header.Set("X-Auth-Request-Email", "bob@acme.io")

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}
