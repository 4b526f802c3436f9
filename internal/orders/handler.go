package orders

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"orderflow/pkg/middleware"
	"orderflow/pkg/models"
)

// Handler handles order-related HTTP requests.
type Handler struct {
	Service   *Service
	Validator *Validator
}

// NewHandler creates a new order Handler.
func NewHandler(svc *Service, validator *Validator) *Handler {
	return &Handler{Service: svc, Validator: validator}
}

// CreateOrder godoc
// @Summary      Place a new order
// @Description  Validates the user against the registry (live call with cache fallback), persists the order and publishes an order.created event
// @Tags         orders
// @Accept       json
// @Produce      json
// @Param        request  body      models.CreateOrderRequest  true  "Create order request"
// @Success      201      {object}  models.Order
// @Failure      400      {object}  map[string]string
// @Failure      404      {object}  map[string]string
// @Failure      503      {object}  map[string]string
// @Router       /orders [post]
func (h *Handler) CreateOrder(c *gin.Context) {
	correlationID := middleware.GetCorrelationID(c)
	log.Printf("[Orders] CreateOrder correlation_id=%s", correlationID)

	var req models.CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.Validator.Validate(c.Request.Context(), req.UserID); err != nil {
		switch {
		case errors.Is(err, ErrUserUnknown):
			c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
		case errors.Is(err, ErrUserUnverifiable):
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "user registry unavailable and user unknown to cache"})
		default:
			log.Printf("[Orders] Unexpected validation error: %v correlation_id=%s", err, correlationID)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to validate user"})
		}
		return
	}

	order, err := h.Service.Create(req.UserID, req.Items, req.Total, correlationID)
	if err != nil {
		log.Printf("[Orders] Error creating order: %v correlation_id=%s", err, correlationID)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create order"})
		return
	}

	c.JSON(http.StatusCreated, order)
}

// CancelOrder godoc
// @Summary      Cancel an order
// @Description  Transitions an order from created to cancelled and publishes an order.cancelled event
// @Tags         orders
// @Produce      json
// @Param        id   path      string  true  "Order ID"
// @Success      200  {object}  models.Order
// @Failure      404  {object}  map[string]string
// @Failure      409  {object}  map[string]string
// @Router       /orders/{id}/cancel [post]
func (h *Handler) CancelOrder(c *gin.Context) {
	correlationID := middleware.GetCorrelationID(c)
	orderID := c.Param("id")
	log.Printf("[Orders] CancelOrder id=%s correlation_id=%s", orderID, correlationID)

	order, err := h.Service.Cancel(orderID, correlationID)
	switch {
	case errors.Is(err, ErrOrderNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "order not found"})
		return
	case errors.Is(err, ErrAlreadyCancelled):
		c.JSON(http.StatusConflict, gin.H{"error": "order already cancelled"})
		return
	case err != nil:
		log.Printf("[Orders] Error cancelling order: %v correlation_id=%s", err, correlationID)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to cancel order"})
		return
	}

	c.JSON(http.StatusOK, order)
}

// GetOrder godoc
// @Summary      Get an order by ID
// @Description  Returns a single order
// @Tags         orders
// @Produce      json
// @Param        id   path      string  true  "Order ID"
// @Success      200  {object}  models.Order
// @Failure      404  {object}  map[string]string
// @Router       /orders/{id} [get]
func (h *Handler) GetOrder(c *gin.Context) {
	order, err := h.Service.Get(c.Param("id"))
	if errors.Is(err, ErrOrderNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "order not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch order"})
		return
	}

	c.JSON(http.StatusOK, order)
}

// ListOrders godoc
// @Summary      List all orders
// @Description  Returns all orders, newest first
// @Tags         orders
// @Produce      json
// @Success      200  {array}   models.Order
// @Failure      500  {object}  map[string]string
// @Router       /orders [get]
func (h *Handler) ListOrders(c *gin.Context) {
	orders, err := h.Service.List()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch orders"})
		return
	}

	c.JSON(http.StatusOK, orders)
}
