package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/komiyunity/relay-server/internal/store"
)

// ChatRoomHandlers serves the directory's room metadata endpoints. The relay
// never reads this metadata to route; room ids stay opaque to it.
type ChatRoomHandlers struct {
	store store.ChatRoomStore
	log   *zerolog.Logger
}

// NewChatRoomHandlers creates a new chat room handlers instance.
func NewChatRoomHandlers(st store.ChatRoomStore, logger *zerolog.Logger) *ChatRoomHandlers {
	return &ChatRoomHandlers{store: st, log: logger}
}

// CreateChatRoomRequest is the room metadata payload.
type CreateChatRoomRequest struct {
	Name        string `json:"name" binding:"required,min=1,max=64"`
	Description string `json:"description" binding:"required,max=256"`
}

// ChatRoomResponse is room metadata in API responses.
type ChatRoomResponse struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	OwnerID     string `json:"ownerId"`
	CreatedAt   string `json:"createdAt"`
}

// Create handles room metadata creation.
// POST /api/chatrooms
func (h *ChatRoomHandlers) Create(c *gin.Context) {
	principal, ok := principalFrom(c)
	if !ok {
		h.log.Error().Msg("principal not found in context")
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
		return
	}

	var req CreateChatRoomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.log.Debug().Err(err).Msg("invalid create chatroom request")
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "room name and description are required"})
		return
	}

	room, err := h.store.CreateChatRoom(c.Request.Context(), req.Name, req.Description, principal.UID)
	if err != nil {
		h.log.Error().Err(err).Str("room_name", req.Name).Msg("failed to create chatroom")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	h.log.Info().
		Str("room_id", room.ID).
		Str("room_name", room.Name).
		Str("owner_id", room.OwnerID).
		Msg("chatroom created")
	c.JSON(http.StatusCreated, chatRoomResponse(room))
}

// List handles listing room metadata.
// GET /api/chatrooms
func (h *ChatRoomHandlers) List(c *gin.Context) {
	rooms, err := h.store.ListChatRooms(c.Request.Context())
	if err != nil {
		h.log.Error().Err(err).Msg("failed to list chatrooms")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	response := make([]ChatRoomResponse, 0, len(rooms))
	for i := range rooms {
		response = append(response, chatRoomResponse(&rooms[i]))
	}
	c.JSON(http.StatusOK, response)
}

func chatRoomResponse(r *store.ChatRoom) ChatRoomResponse {
	return ChatRoomResponse{
		ID:          r.ID,
		Name:        r.Name,
		Description: r.Description,
		OwnerID:     r.OwnerID,
		CreatedAt:   r.CreatedAt.Format(time.RFC3339),
	}
}
