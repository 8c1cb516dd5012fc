package http

import (
	"gameserver/internal/server/core"

	"github.com/gofiber/fiber/v2"
)

// CreateUser creates a new account from a validated login payload.
func (h *HTTPHandler) CreateUser(c *fiber.Ctx) error {
	login, err := validatedLogin(c)
	if err != nil {
		return err
	}

	if err := h.svc.CreateUser(login); err != nil {
		return h.respondError(c, err)
	}
	return c.SendStatus(fiber.StatusOK)
}

// VerifyUser checks a login; a wrong password answers 403, an unknown
// username 404.
func (h *HTTPHandler) VerifyUser(c *fiber.Ctx) error {
	login, err := validatedLogin(c)
	if err != nil {
		return err
	}

	verified, err := h.svc.VerifyUser(login)
	if err != nil {
		return h.respondError(c, err)
	}
	if !verified {
		return c.Status(fiber.StatusForbidden).JSON(core.ErrorResponse{
			Error: "user verification failed",
			Code:  core.CodeNoPermission,
		})
	}
	return c.SendStatus(fiber.StatusOK)
}

// UpdateUser replaces a user's login. The body is a two-element array:
// the valid current login first, the update second.
func (h *HTTPHandler) UpdateUser(c *fiber.Ctx) error {
	var logins []core.Login
	if err := c.BodyParser(&logins); err != nil {
		return badRequest(c, "body must be a JSON array of logins")
	}
	if len(logins) < 2 {
		return badRequest(c, "current and updated login required")
	}
	for _, login := range logins[:2] {
		if details, ok := validateStruct(&login); !ok {
			return badRequest(c, details)
		}
	}

	if err := h.svc.UpdateUser(logins[0], logins[1]); err != nil {
		return h.respondError(c, err)
	}
	return c.SendStatus(fiber.StatusOK)
}

// validatedLogin retrieves the login parsed and checked by the
// validation middleware.
func validatedLogin(c *fiber.Ctx) (core.Login, error) {
	validated, ok := c.Locals("validated").(bool)
	if !ok || !validated {
		return core.Login{}, fiber.NewError(fiber.StatusInternalServerError, "validation bypass detected")
	}

	body, ok := c.Locals("validatedBody").(*core.Login)
	if !ok || body == nil {
		return core.Login{}, fiber.NewError(fiber.StatusInternalServerError, "validation data missing")
	}
	return *body, nil
}
