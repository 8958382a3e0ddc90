package serverutils

import (
	"strings"

	"kb-assistant-be/internal/constant"

	"github.com/gofiber/fiber/v2"
)

// Identity is the caller identity asserted by the authenticating
// reverse proxy. The service trusts these headers; the proxy strips
// them from external traffic.
type Identity struct {
	TenantId  string
	UserEmail string
}

// SessionKey is the session record key for this identity.
func (i Identity) SessionKey() string {
	return i.TenantId + ":" + i.UserEmail
}

// IdentityFromHeaders extracts the proxy-asserted identity. Requests
// without both headers never made it through the proxy and are
// rejected.
func IdentityFromHeaders(ctx *fiber.Ctx) (Identity, error) {
	identity := Identity{
		TenantId:  strings.TrimSpace(ctx.Get(constant.HeaderTenantID)),
		UserEmail: strings.TrimSpace(ctx.Get(constant.HeaderUserEmail)),
	}

	if identity.TenantId == "" || identity.UserEmail == "" {
		return Identity{}, fiber.NewError(fiber.StatusUnauthorized, "missing identity headers")
	}
	return identity, nil
}
