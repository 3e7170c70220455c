package api

import (
	"github.com/gin-gonic/gin"

	"github.com/charlesng35/hvacquote/internal/handlers"
)

func registerRecordRoutes(api *gin.RouterGroup, handler *handlers.RecordsHandler) {
	quotes := api.Group("/quotes")
	{
		quotes.GET("", handler.ListQuotes)
		quotes.POST("", handler.SaveQuote)
		quotes.GET("/:id", handler.GetQuote)
		quotes.DELETE("/:id", handler.DeleteQuote)
	}

	clients := api.Group("/clients")
	{
		clients.GET("", handler.ListClients)
		clients.POST("", handler.SaveClient)
		clients.GET("/:id", handler.GetClient)
		clients.DELETE("/:id", handler.DeleteClient)
		clients.GET("/:id/sites", handler.ClientSites)
	}

	sites := api.Group("/sites")
	{
		sites.GET("", handler.ListSites)
		sites.POST("", handler.SaveSite)
		sites.DELETE("/:id", handler.DeleteSite)
	}

	supplies := api.Group("/supplies")
	{
		supplies.GET("", handler.ListSupplies)
		supplies.POST("", handler.SaveSupply)
		supplies.DELETE("/:id", handler.DeleteSupply)
	}
}
