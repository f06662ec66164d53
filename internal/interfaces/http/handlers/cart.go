// internal/interfaces/http/handlers/cart.go
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/elsharkawy159/tallaby-sub003/internal/config"
	"github.com/elsharkawy159/tallaby-sub003/internal/domain/cart"
)

// CartHandler handles cart endpoints. Each browser session maps to one
// cart engine, so concurrent requests from the same session serialize
// their mutations instead of racing.
type CartHandler struct {
	registry *cart.Registry
	config   *config.Config
}

// NewCartHandler creates a new cart handler
func NewCartHandler(registry *cart.Registry, cfg *config.Config) *CartHandler {
	return &CartHandler{
		registry: registry,
		config:   cfg,
	}
}

// GetCart handles GET /cart
func (h *CartHandler) GetCart(c *gin.Context) {
	engine := h.engineFor(c)

	if err := engine.Fetch(c.Request.Context()); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Cart retrieved successfully",
		"data":    h.cartView(engine),
	})
}

// AddToCart handles POST /cart/items
func (h *CartHandler) AddToCart(c *gin.Context) {
	engine := h.engineFor(c)

	var req cart.AddRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request data",
			"details": err.Error(),
		})
		return
	}

	if err := engine.Add(c.Request.Context(), req); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Item added to cart successfully",
		"data":    h.cartView(engine),
	})
}

// UpdateCartItem handles PUT /cart/items/:lineId
func (h *CartHandler) UpdateCartItem(c *gin.Context) {
	engine := h.engineFor(c)
	lineID := c.Param("lineId")

	var req struct {
		Quantity int `json:"quantity" binding:"required,min=1"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request data",
			"details": err.Error(),
		})
		return
	}

	if err := engine.UpdateQuantity(c.Request.Context(), lineID, req.Quantity); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Cart item updated successfully",
		"data":    h.cartView(engine),
	})
}

// RemoveFromCart handles DELETE /cart/items/:lineId
func (h *CartHandler) RemoveFromCart(c *gin.Context) {
	engine := h.engineFor(c)
	lineID := c.Param("lineId")

	if err := engine.Remove(c.Request.Context(), lineID); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Item removed from cart successfully",
		"data":    h.cartView(engine),
	})
}

// ClearCart handles DELETE /cart
func (h *CartHandler) ClearCart(c *gin.Context) {
	engine := h.engineFor(c)

	if err := engine.Clear(c.Request.Context()); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Cart cleared successfully",
		"data":    h.cartView(engine),
	})
}

// SaveForLater handles POST /cart/items/:lineId/save-for-later
func (h *CartHandler) SaveForLater(c *gin.Context) {
	engine := h.engineFor(c)
	lineID := c.Param("lineId")

	if err := engine.SetSavedForLater(c.Request.Context(), lineID, true); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Item saved for later",
		"data":    h.cartView(engine),
	})
}

// MoveToCart handles POST /cart/items/:lineId/move-to-cart
func (h *CartHandler) MoveToCart(c *gin.Context) {
	engine := h.engineFor(c)
	lineID := c.Param("lineId")

	if err := engine.SetSavedForLater(c.Request.Context(), lineID, false); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Item moved to cart",
		"data":    h.cartView(engine),
	})
}

// GetCartCount handles GET /cart/count
func (h *CartHandler) GetCartCount(c *gin.Context) {
	engine := h.engineFor(c)

	if err := engine.Fetch(c.Request.Context()); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Cart count retrieved successfully",
		"data": gin.H{
			"count": engine.ItemCount(),
		},
	})
}

// MergeGuestCart handles POST /cart/merge - called when user logs in.
// The guest cart accumulated before sign-in folds into the account
// cart; calling it again with no guest cart is a no-op.
func (h *CartHandler) MergeGuestCart(c *gin.Context) {
	engine := h.engineFor(c)

	if err := engine.OnAuthenticated(c.Request.Context()); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Guest cart merged successfully",
		"data":    h.cartView(engine),
	})
}

// Private helper methods

// engineFor resolves the cart engine for this browser session,
// creating the session cookie on first contact.
func (h *CartHandler) engineFor(c *gin.Context) *cart.Service {
	scope := h.getOrCreateScope(c)
	return h.registry.For(scope)
}

// getOrCreateScope gets the session scope from cookie or creates a new one
func (h *CartHandler) getOrCreateScope(c *gin.Context) string {
	cookieName := h.config.Cart.SessionCookieName

	scope, err := c.Cookie(cookieName)
	if err != nil || scope == "" {
		scope = cart.NewScope()

		// Session cookie (30 days)
		c.SetCookie(cookieName, scope, 30*86400, "/", "", false, true)
	}

	return scope
}

// cartView renders the published cart state with its transient flags
func (h *CartHandler) cartView(engine *cart.Service) gin.H {
	current := engine.Current()

	view := gin.H{
		"phase":      engine.Phase(),
		"flags":      engine.Flags(),
		"item_count": engine.ItemCount(),
		"subtotal":   engine.Subtotal(),
	}

	if current != nil {
		view["id"] = current.ID
		view["currency"] = current.Currency
		view["items"] = current.ActiveLines()
		view["saved_for_later"] = current.SavedLines()
	}

	return view
}
