// internal/interfaces/http/handlers/checkout.go
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/elsharkawy159/tallaby-sub003/internal/config"
	"github.com/elsharkawy159/tallaby-sub003/internal/domain/cart"
	"github.com/elsharkawy159/tallaby-sub003/internal/domain/checkout"
	"github.com/elsharkawy159/tallaby-sub003/internal/domain/inventory"
)

// CheckoutHandler handles checkout endpoints
type CheckoutHandler struct {
	registry   *cart.Registry
	submission *checkout.Submission
	stock      inventory.Checker
	config     *config.Config
}

// NewCheckoutHandler creates a new checkout handler. stock may be nil
// when no inventory data is available.
func NewCheckoutHandler(registry *cart.Registry, submission *checkout.Submission, stock inventory.Checker, cfg *config.Config) *CheckoutHandler {
	return &CheckoutHandler{
		registry:   registry,
		submission: submission,
		stock:      stock,
		config:     cfg,
	}
}

// SummaryRequest carries the shipping selection, tax rule and coupon
// the summary is derived against. The coupon arrives already resolved;
// promotions live in their own service.
type SummaryRequest struct {
	ShippingCost   decimal.Decimal  `json:"shipping_cost"`
	Tax            checkout.TaxRule `json:"tax"`
	Coupon         *checkout.Coupon `json:"coupon,omitempty"`
	BuyXGetYAmount decimal.Decimal  `json:"buy_x_get_y_amount"`
}

// GetSummary handles POST /checkout/summary
func (h *CheckoutHandler) GetSummary(c *gin.Context) {
	engine := h.engineFor(c)

	var req SummaryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request data",
			"details": err.Error(),
		})
		return
	}

	if err := engine.Fetch(c.Request.Context()); err != nil {
		respondError(c, err)
		return
	}

	current := engine.Current()
	if current == nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Cart is empty",
		})
		return
	}

	summary, err := checkout.Compute(checkout.Input{
		Lines:          current.Lines,
		ShippingCost:   req.ShippingCost,
		Tax:            req.Tax,
		Coupon:         req.Coupon,
		BuyXGetYAmount: req.BuyXGetYAmount,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Checkout summary calculated successfully",
		"data": gin.H{
			"summary": summary,
			"items":   h.itemAvailability(c, current.ActiveLines()),
		},
	})
}

// SubmitOrder handles POST /checkout/submit
func (h *CheckoutHandler) SubmitOrder(c *gin.Context) {
	engine := h.engineFor(c)

	var req checkout.SubmitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request data",
			"details": err.Error(),
		})
		return
	}

	if err := engine.Fetch(c.Request.Context()); err != nil {
		respondError(c, err)
		return
	}

	result, err := h.submission.Submit(c.Request.Context(), engine, req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Order submitted successfully",
		"data":    result,
	})
}

// Private helper methods

func (h *CheckoutHandler) engineFor(c *gin.Context) *cart.Service {
	cookieName := h.config.Cart.SessionCookieName

	scope, err := c.Cookie(cookieName)
	if err != nil || scope == "" {
		scope = cart.NewScope()
		c.SetCookie(cookieName, scope, 30*86400, "/", "", false, true)
	}

	return h.registry.For(scope)
}

// itemAvailability annotates each active line with its stock tier so
// the review screen can surface low-stock urgency.
func (h *CheckoutHandler) itemAvailability(c *gin.Context, lines []cart.Line) []gin.H {
	items := make([]gin.H, 0, len(lines))

	for _, line := range lines {
		item := gin.H{
			"line_id":    line.ID,
			"product_id": line.ProductID,
			"quantity":   line.Quantity,
		}

		if h.stock != nil {
			available, tracked, err := h.stock.Available(c.Request.Context(), line.ProductID, line.VariantID)
			if err == nil && tracked {
				item["stock_tier"] = inventory.ClassifyWithThresholds(
					available,
					h.config.Cart.LowStockThreshold,
					h.config.Cart.CriticalStockThreshold,
				)
				item["available"] = available
			}
		}

		items = append(items, item)
	}

	return items
}
