// internal/interfaces/http/routes/routes.go
package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/elsharkawy159/tallaby-sub003/internal/config"
	"github.com/elsharkawy159/tallaby-sub003/internal/domain/cart"
	"github.com/elsharkawy159/tallaby-sub003/internal/domain/checkout"
	"github.com/elsharkawy159/tallaby-sub003/internal/domain/inventory"
	"github.com/elsharkawy159/tallaby-sub003/internal/interfaces/http/handlers"
	"github.com/elsharkawy159/tallaby-sub003/internal/interfaces/http/middleware"
)

// Dependencies carries the wired services the route handlers need
type Dependencies struct {
	Registry   *cart.Registry
	Submission *checkout.Submission
	Stock      inventory.Checker
	Config     *config.Config
}

// SetupRoutes sets up all API routes
func SetupRoutes(rg *gin.RouterGroup, deps Dependencies) {
	cartHandler := handlers.NewCartHandler(deps.Registry, deps.Config)
	checkoutHandler := handlers.NewCheckoutHandler(deps.Registry, deps.Submission, deps.Stock, deps.Config)

	// Cart routes work with guest sessions or authenticated users
	cartGroup := rg.Group("/cart")
	cartGroup.Use(middleware.OptionalAuthMiddleware(deps.Config))
	{
		cartGroup.GET("", cartHandler.GetCart)
		cartGroup.GET("/count", cartHandler.GetCartCount)
		cartGroup.DELETE("", cartHandler.ClearCart)

		cartGroup.POST("/items", cartHandler.AddToCart)
		cartGroup.PUT("/items/:lineId", cartHandler.UpdateCartItem)
		cartGroup.DELETE("/items/:lineId", cartHandler.RemoveFromCart)
		cartGroup.POST("/items/:lineId/save-for-later", cartHandler.SaveForLater)
		cartGroup.POST("/items/:lineId/move-to-cart", cartHandler.MoveToCart)
	}

	// Merging the guest cart only makes sense once signed in
	merge := rg.Group("/cart")
	merge.Use(middleware.AuthMiddleware(deps.Config))
	{
		merge.POST("/merge", cartHandler.MergeGuestCart)
	}

	// Checkout routes serve guests and authenticated users alike;
	// the submission service enforces its own preconditions
	checkoutGroup := rg.Group("/checkout")
	checkoutGroup.Use(middleware.OptionalAuthMiddleware(deps.Config))
	{
		checkoutGroup.POST("/summary", checkoutHandler.GetSummary)
		checkoutGroup.POST("/submit", checkoutHandler.SubmitOrder)
	}
}
