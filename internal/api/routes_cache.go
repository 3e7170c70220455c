package api

import (
	"github.com/gin-gonic/gin"

	"github.com/charlesng35/hvacquote/internal/handlers"
)

func registerCacheRoutes(api *gin.RouterGroup, handler *handlers.CacheHandler) {
	cache := api.Group("/cache")
	{
		cache.GET("/status", handler.Status)
		cache.POST("/refresh", handler.Refresh)
		cache.POST("/ensure-fresh", handler.EnsureFresh)
		cache.DELETE("", handler.Clear)
	}
}

func registerViewRoutes(api *gin.RouterGroup, handler *handlers.ViewsHandler) {
	api.GET("/views/:collection", handler.Get)
	api.POST("/views/:collection/refresh", handler.Refresh)
}

func registerNetworkRoutes(api *gin.RouterGroup, handler *handlers.NetworkHandler) {
	network := api.Group("/network")
	{
		network.GET("/status", handler.Status)
		network.POST("/online", handler.Online)
		network.POST("/offline", handler.Offline)
	}
}

func registerPricingRoutes(api *gin.RouterGroup, handler *handlers.PricingHandler) {
	api.POST("/pricing/quote", handler.Quote)
	api.POST("/financial/summary", handler.Summary)
}
