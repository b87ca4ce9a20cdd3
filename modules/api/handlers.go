package api

import (
	"errors"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"

	"github.com/example/room-relay/modules/relay"
)

// setupRoutes configures all HTTP routes.
func (m *APIModule) setupRoutes(app *fiber.App) {
	// Health check
	app.Get("/health", m.healthHandler)

	// WebSocket endpoint
	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws", websocket.New(m.handleWebSocket))

	// REST API v1
	api := app.Group("/api/v1")
	api.Get("/rooms", m.listRooms)
	api.Post("/rooms", m.createRoom)
	api.Get("/rooms/:id", m.getRoom)

	// Unversioned paths kept for existing clients
	app.Get("/room", m.listRooms)
	app.Post("/room", m.createRoom)
	app.Get("/room/:id", m.getRoom)
}

// healthHandler handles GET /health.
func (m *APIModule) healthHandler(c *fiber.Ctx) error {
	resp := HealthResponse{Status: "healthy"}
	if m.stats != nil {
		stats := m.stats.Snapshot()
		resp.Activity = &stats
	}
	return c.JSON(resp)
}

// listRooms handles GET /api/v1/rooms.
func (m *APIModule) listRooms(c *fiber.Ctx) error {
	rooms, err := m.rooms.ListRooms(c.UserContext())
	if err != nil {
		m.logger.Error("Failed to list rooms", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{
			Error:   "list_failed",
			Message: "Failed to list rooms",
		})
	}

	response := make([]RoomResponse, 0, len(rooms))
	for _, room := range rooms {
		response = append(response, toRoomResponse(room))
	}
	return c.JSON(response)
}

// createRoom handles POST /api/v1/rooms.
func (m *APIModule) createRoom(c *fiber.Ctx) error {
	var req CreateRoomRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
			Error:   "invalid_request",
			Message: "Invalid request body",
		})
	}

	id, err := m.rooms.CreateRoom(c.UserContext(), req.Name)
	if err != nil {
		if errors.Is(err, relay.ErrInvalidRoomName) {
			return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
				Error:   "validation_error",
				Message: err.Error(),
			})
		}
		m.logger.Error("Failed to create room", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{
			Error:   "create_failed",
			Message: "Failed to create room",
		})
	}

	return c.Status(fiber.StatusCreated).JSON(CreateRoomResponse{ID: id})
}

// getRoom handles GET /api/v1/rooms/:id.
func (m *APIModule) getRoom(c *fiber.Ctx) error {
	room, err := m.rooms.GetRoom(c.UserContext(), c.Params("id"))
	if err != nil {
		if errors.Is(err, relay.ErrRoomNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(ErrorResponse{
				Error:   "not_found",
				Message: "Room not found",
			})
		}
		m.logger.Error("Failed to get room", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{
			Error:   "get_failed",
			Message: "Failed to get room",
		})
	}
	return c.JSON(toRoomResponse(room))
}

// handleWebSocket handles WebSocket connections at /ws. The connection is
// closed by the websocket middleware when this returns.
func (m *APIModule) handleWebSocket(c *websocket.Conn) {
	if err := m.sessions.ServeConn(m.sessionCtx, newWSConn(c)); err != nil {
		m.logger.Debug("WebSocket session rejected", "error", err)
	}
}

func toRoomResponse(room relay.RoomInfo) RoomResponse {
	users := room.Users
	if users == nil {
		users = []string{}
	}
	return RoomResponse{
		ID:        room.ID,
		Name:      room.Name,
		Users:     users,
		CreatedAt: room.CreatedAt,
	}
}
