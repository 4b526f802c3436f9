// Package registry implements the user-registry service: the owner of user
// profiles and the producer of the user.created / user.updated events the
// order service consumes.
package registry

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"orderflow/pkg/middleware"
	"orderflow/pkg/models"
)

// EventPublisher defines the interface for publishing events.
type EventPublisher interface {
	Publish(routingKey string, body []byte, correlationID string) error
}

// Handler handles user-related HTTP requests.
type Handler struct {
	Store     *Store
	Publisher EventPublisher
}

// NewHandler creates a new user Handler.
func NewHandler(store *Store, pub EventPublisher) *Handler {
	return &Handler{Store: store, Publisher: pub}
}

// CreateUser creates a user and publishes a user.created event.
func (h *Handler) CreateUser(c *gin.Context) {
	correlationID := middleware.GetCorrelationID(c)
	log.Printf("[Registry] CreateUser correlation_id=%s", correlationID)

	var req models.CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	now := time.Now()
	user := models.User{
		ID:        uuid.New().String(),
		Email:     req.Email,
		Name:      req.Name,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := h.Store.Save(user); err != nil {
		if errors.Is(err, ErrEmailTaken) {
			c.JSON(http.StatusConflict, gin.H{"error": "email already in use"})
			return
		}
		log.Printf("[Registry] Error creating user: %v correlation_id=%s", err, correlationID)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create user"})
		return
	}

	h.publish(models.EventUserCreated, user, correlationID)
	log.Printf("[Registry] User created: id=%s email=%s correlation_id=%s", user.ID, user.Email, correlationID)
	c.JSON(http.StatusCreated, user)
}

// UpdateUser updates a user and publishes a user.updated event.
func (h *Handler) UpdateUser(c *gin.Context) {
	correlationID := middleware.GetCorrelationID(c)
	userID := c.Param("id")
	log.Printf("[Registry] UpdateUser id=%s correlation_id=%s", userID, correlationID)

	var req models.UpdateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := h.Store.Load(userID)
	if errors.Is(err, ErrUserNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch user"})
		return
	}

	if req.Email != "" {
		user.Email = req.Email
	}
	if req.Name != "" {
		user.Name = req.Name
	}
	user.UpdatedAt = time.Now()

	if err := h.Store.Update(user); err != nil {
		if errors.Is(err, ErrEmailTaken) {
			c.JSON(http.StatusConflict, gin.H{"error": "email already in use"})
			return
		}
		log.Printf("[Registry] Error updating user: %v correlation_id=%s", err, correlationID)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update user"})
		return
	}

	h.publish(models.EventUserUpdated, user, correlationID)
	log.Printf("[Registry] User updated: id=%s correlation_id=%s", user.ID, correlationID)
	c.JSON(http.StatusOK, user)
}

// GetUser returns a single user. The order service's live validation call
// lands here, so a missing user must answer a clean 404.
func (h *Handler) GetUser(c *gin.Context) {
	user, err := h.Store.Load(c.Param("id"))
	if errors.Is(err, ErrUserNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch user"})
		return
	}

	c.JSON(http.StatusOK, user)
}

// ListUsers returns all users.
func (h *Handler) ListUsers(c *gin.Context) {
	users, err := h.Store.List()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch users"})
		return
	}

	c.JSON(http.StatusOK, users)
}

func (h *Handler) publish(eventType models.EventType, user models.User, correlationID string) {
	event := models.UserEvent{
		EventID:       uuid.New().String(),
		CorrelationID: correlationID,
		EventType:     eventType,
		Timestamp:     time.Now(),
		Data:          user,
	}

	body, _ := json.Marshal(event)
	if err := h.Publisher.Publish(string(eventType), body, correlationID); err != nil {
		// The user row is already written; consumers will catch up on the
		// next event for this user.
		log.Printf("[Registry] Error publishing %s: %v correlation_id=%s", eventType, err, correlationID)
	}
}
