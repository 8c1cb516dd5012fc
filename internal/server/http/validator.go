package http

import (
	"fmt"
	"reflect"
	"strings"

	"gameserver/internal/server/core"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

var validate = validator.New()

// validationMiddleware parses and validates single-login request bodies
// and stashes the result in locals for the handler. Array-bodied routes
// (create_game, update_user) validate in their handlers because the
// validator does not take bare slices.
func validationMiddleware(c *fiber.Ctx) error {
	if c.Method() != fiber.MethodPost {
		return c.Next()
	}

	path := c.Path()
	switch {
	case strings.HasSuffix(path, "/create_user"), strings.HasSuffix(path, "/verify_user"):
	default:
		return c.Next()
	}

	login := new(core.Login)
	if err := c.BodyParser(login); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(core.ErrorResponse{
			Error:   "invalid request body",
			Code:    core.CodeBadRequest,
			Details: err.Error(),
		})
	}

	if details, ok := validateStruct(login); !ok {
		return c.Status(fiber.StatusBadRequest).JSON(core.ErrorResponse{
			Error:   "validation failed",
			Code:    core.CodeBadRequest,
			Details: details,
		})
	}

	c.Locals("validatedBody", login)
	c.Locals("validated", true)

	return c.Next()
}

// validateStruct runs the struct validator and renders the failures
// into one readable detail string.
func validateStruct(v any) (string, bool) {
	errs := validate.Struct(v)
	if errs == nil {
		return "", true
	}

	var details strings.Builder
	for _, err := range errs.(validator.ValidationErrors) {
		if details.Len() > 0 {
			details.WriteString("; ")
		}
		switch err.Tag() {
		case "required":
			details.WriteString(fmt.Sprintf("%s is required", err.Field()))
		case "min":
			if err.Type().Kind() == reflect.String {
				details.WriteString(fmt.Sprintf("%s must be at least %s characters", err.Field(), err.Param()))
			} else {
				details.WriteString(fmt.Sprintf("%s must be at least %s", err.Field(), err.Param()))
			}
		case "max":
			if err.Type().Kind() == reflect.String {
				details.WriteString(fmt.Sprintf("%s must be at most %s characters", err.Field(), err.Param()))
			} else {
				details.WriteString(fmt.Sprintf("%s must be at most %s", err.Field(), err.Param()))
			}
		default:
			details.WriteString(fmt.Sprintf("%s failed %s validation", err.Field(), err.Tag()))
		}
	}
	return details.String(), false
}
