package http

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
)

// CreateGame creates a game for the posted list of usernames and returns
// the generated id.
func (h *HTTPHandler) CreateGame(c *fiber.Ctx) error {
	var players []string
	if err := c.BodyParser(&players); err != nil {
		return badRequest(c, "body must be a JSON array of usernames")
	}

	id, err := h.svc.CreateGame(players)
	if err != nil {
		return h.respondError(c, err)
	}
	return c.JSON(id)
}

// GetGame returns the stored game data, which is already JSON.
func (h *HTTPHandler) GetGame(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil {
		return badRequest(c, "game id must be an integer")
	}

	data, err := h.svc.GetGame(int64(id))
	if err != nil {
		return h.respondError(c, err)
	}

	c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	return c.SendString(data)
}

// UpdateGame replaces the stored game data wholesale.
func (h *HTTPHandler) UpdateGame(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil {
		return badRequest(c, "game id must be an integer")
	}

	if err := h.svc.UpdateGame(int64(id), c.Params("game")); err != nil {
		return h.respondError(c, err)
	}
	return c.SendStatus(fiber.StatusOK)
}

// SetMove appends a move made by a player in a game.
func (h *HTTPHandler) SetMove(c *fiber.Ctx) error {
	gameID, err := c.ParamsInt("game_id")
	if err != nil {
		return badRequest(c, "game id must be an integer")
	}

	if err := h.svc.SetMove(int64(gameID), c.Params("username"), c.Params("move")); err != nil {
		return h.respondError(c, err)
	}
	return c.SendStatus(fiber.StatusOK)
}

// ListGames lists games, filtered to one participant unless the
// username segment is the "-" sentinel.
func (h *HTTPHandler) ListGames(c *fiber.Ctx) error {
	complete, err := strconv.ParseBool(c.Params("complete"))
	if err != nil {
		return badRequest(c, "complete must be a boolean")
	}

	list, err := h.svc.ListGames(complete, c.Params("username"))
	if err != nil {
		return h.respondError(c, err)
	}
	return c.JSON(list)
}

// ListMoves lists moves newest first. Sentinels: game id -1 for all
// games, username "-" for all users, count -1 for all moves.
func (h *HTTPHandler) ListMoves(c *fiber.Ctx) error {
	gameID, err := c.ParamsInt("game_id")
	if err != nil {
		return badRequest(c, "game id must be an integer")
	}
	count, err := c.ParamsInt("num_moves")
	if err != nil {
		return badRequest(c, "move count must be an integer")
	}

	list, err := h.svc.ListMoves(int64(gameID), c.Params("username"), count)
	if err != nil {
		return h.respondError(c, err)
	}
	return c.JSON(list)
}
