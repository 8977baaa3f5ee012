package api

import (
	"marketplace/internal/domain"     // Importing domain models
	"marketplace/internal/middleware" // Context keys
	"marketplace/internal/service"    // Order service
	"net/http"                        // HTTP status codes
	"strconv"                         // String conversion

	"github.com/gin-gonic/gin" // Gin web framework
)

// PlaceOrderRequest is the checkout form
type PlaceOrderRequest struct {
	ProductName string `json:"product_name" binding:"required"` // Product being ordered
	Quantity    int    `json:"quantity" binding:"required"`     // Units ordered
	Mobile      string `json:"mobile" binding:"required"`       // Contact number
	Address     string `json:"address" binding:"required"`      // Delivery address
	Email       string `json:"email" binding:"required"`        // Buyer email
}

// StatusRequest changes the status of an order
type StatusRequest struct {
	Status string `json:"status" binding:"required"` // Target status
}

// PlaceOrderHandler records an order for the authenticated user
func PlaceOrderHandler(orders *service.Orders) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req PlaceOrderRequest // Bind and validate request
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
			return
		}
		conf, err := orders.PlaceOrder(c.Request.Context(), service.PlaceOrderInput{
			Username:    c.GetString(middleware.ContextUsername), // Buyer from token
			ProductName: req.ProductName,                         // Product name
			Quantity:    req.Quantity,                            // Quantity
			Mobile:      req.Mobile,                              // Mobile
			Address:     req.Address,                             // Address
			Email:       req.Email,                               // Email
		})
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, conf)
	}
}

// ListMyOrdersHandler lists the orders of the authenticated user
func ListMyOrdersHandler(orders *service.Orders) gin.HandlerFunc {
	return func(c *gin.Context) {
		list, err := orders.ListOrdersForUser(c.Request.Context(), c.GetString(middleware.ContextUsername))
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"orders": list})
	}
}

// ListOrdersHandler lists every order with pagination (admin only)
func ListOrdersHandler(orders *service.Orders) gin.HandlerFunc {
	return func(c *gin.Context) {
		page := 1      // Default page number
		pageSize := 20 // Default page size
		if p := c.Query("page"); p != "" {
			if v, err := strconv.Atoi(p); err == nil && v > 0 {
				page = v // Set page if valid
			}
		}
		// Check and set page size within limits
		if ps := c.Query("page_size"); ps != "" {
			// If valid, set page size
			if v, err := strconv.Atoi(ps); err == nil && v > 0 && v <= 100 {
				pageSize = v // Set page size
			}
		}
		list, total, err := orders.ListOrdersPage(c.Request.Context(), page, pageSize)
		if err != nil {
			respondError(c, err)
			return
		}
		totalPages := int((total + int64(pageSize) - 1) / int64(pageSize)) // Calculate total pages
		c.JSON(http.StatusOK, gin.H{
			"orders":      list,       // Orders on this page
			"page":        page,       // Current page
			"page_size":   pageSize,   // Page size
			"total":       total,      // Total number of orders
			"total_pages": totalPages, // Total pages
		})
	}
}

// UpdateOrderStatusHandler moves an order to a new status (admin only)
func UpdateOrderStatusHandler(orders *service.Orders) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := strconv.ParseUint(c.Param("id"), 10, 64)
		if err != nil || id == 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid order id"})
			return
		}
		var req StatusRequest // Bind and validate request
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
			return
		}
		status := domain.OrderStatus(req.Status)
		if !status.Valid() {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown order status"})
			return
		}
		order, err := orders.UpdateStatus(c.Request.Context(), uint(id), status)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "Order status updated", "order": order})
	}
}
