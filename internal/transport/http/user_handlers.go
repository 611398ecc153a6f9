package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/komiyunity/relay-server/internal/store"
)

// UserHandlers serves the directory's user profile endpoints.
type UserHandlers struct {
	store store.UserStore
	log   *zerolog.Logger
}

// NewUserHandlers creates a new user handlers instance.
func NewUserHandlers(st store.UserStore, logger *zerolog.Logger) *UserHandlers {
	return &UserHandlers{store: st, log: logger}
}

// UpsertUserRequest is the profile payload.
type UpsertUserRequest struct {
	ID    string `json:"id" binding:"required"`
	Name  string `json:"name" binding:"required"`
	Email string `json:"email" binding:"required,email"`
}

// UserResponse is a profile in API responses.
type UserResponse struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	CreatedAt string `json:"createdAt"`
	LastLogin string `json:"lastLogin"`
}

// ErrorResponse represents an error response body.
type ErrorResponse struct {
	Error string `json:"error"`
}

// Upsert handles profile creation/refresh.
// POST /users
func (h *UserHandlers) Upsert(c *gin.Context) {
	var req UpsertUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.log.Debug().Err(err).Msg("invalid user request")
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "missing required user fields: id, name, email"})
		return
	}

	user, err := h.store.UpsertUser(c.Request.Context(), req.ID, req.Name, req.Email)
	if err != nil {
		h.log.Error().Err(err).Str("uid", req.ID).Msg("failed to upsert user")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	h.log.Info().Str("uid", user.ID).Str("name", user.Name).Msg("user stored")
	c.JSON(http.StatusCreated, userResponse(user))
}

// List handles listing all profiles.
// GET /users
func (h *UserHandlers) List(c *gin.Context) {
	users, err := h.store.ListUsers(c.Request.Context())
	if err != nil {
		h.log.Error().Err(err).Msg("failed to list users")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	response := make([]UserResponse, 0, len(users))
	for i := range users {
		response = append(response, userResponse(&users[i]))
	}
	c.JSON(http.StatusOK, response)
}

func userResponse(u *store.User) UserResponse {
	return UserResponse{
		ID:        u.ID,
		Name:      u.Name,
		Email:     u.Email,
		CreatedAt: u.CreatedAt.Format(time.RFC3339),
		LastLogin: u.LastLogin.Format(time.RFC3339),
	}
}
