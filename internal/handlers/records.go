package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/charlesng35/hvacquote/internal/models"
	"github.com/charlesng35/hvacquote/internal/pricing"
	"github.com/charlesng35/hvacquote/internal/services"
	appErrors "github.com/charlesng35/hvacquote/pkg/errors"
	"github.com/charlesng35/hvacquote/pkg/response"
)

// RecordsHandler serves the cached collections and their local writes.
type RecordsHandler struct {
	svc        *services.CacheService
	calculator *pricing.Calculator
}

// NewRecordsHandler constructs a records handler. When calculator is set, quotes are
// re-priced before being saved.
func NewRecordsHandler(svc *services.CacheService, calculator *pricing.Calculator) *RecordsHandler {
	return &RecordsHandler{svc: svc, calculator: calculator}
}

// ListQuotes returns every cached quote.
func (h *RecordsHandler) ListQuotes(c *gin.Context) {
	writeList(c, h.svc, h.svc.Quotes(requestContext(c)))
}

// GetQuote returns a single quote.
func (h *RecordsHandler) GetQuote(c *gin.Context) {
	quote, err := h.svc.QuoteByID(requestContext(c), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, quote)
}

// SaveQuote creates or replaces a quote.
func (h *RecordsHandler) SaveQuote(c *gin.Context) {
	var quote models.Quote
	if !bindJSON(c, &quote) {
		return
	}
	if h.calculator != nil {
		quote = h.calculator.Quote(quote)
	}
	saved, err := h.svc.SaveQuote(requestContext(c), quote)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, saved)
}

// DeleteQuote removes a quote.
func (h *RecordsHandler) DeleteQuote(c *gin.Context) {
	writeDeleted(c, h.svc.DeleteQuote(requestContext(c), c.Param("id")))
}

// ListClients returns every cached client.
func (h *RecordsHandler) ListClients(c *gin.Context) {
	writeList(c, h.svc, h.svc.Clients(requestContext(c)))
}

// GetClient returns a single client.
func (h *RecordsHandler) GetClient(c *gin.Context) {
	client, err := h.svc.ClientByID(requestContext(c), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, client)
}

// SaveClient creates or replaces a client.
func (h *RecordsHandler) SaveClient(c *gin.Context) {
	var client models.Client
	if !bindJSON(c, &client) {
		return
	}
	saved, err := h.svc.SaveClient(requestContext(c), client)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, saved)
}

// DeleteClient removes a client.
func (h *RecordsHandler) DeleteClient(c *gin.Context) {
	writeDeleted(c, h.svc.DeleteClient(requestContext(c), c.Param("id")))
}

// ClientSites lists the sites of one client.
func (h *RecordsHandler) ClientSites(c *gin.Context) {
	clientID := strings.TrimSpace(c.Param("id"))
	if clientID == "" {
		response.Error(c, appErrors.NewBadRequest("client id is required"))
		return
	}
	writeList(c, h.svc, h.svc.SitesByClientID(requestContext(c), clientID))
}

// ListSites returns every cached site. The optional client_id query narrows the list.
func (h *RecordsHandler) ListSites(c *gin.Context) {
	if clientID := strings.TrimSpace(c.Query("client_id")); clientID != "" {
		writeList(c, h.svc, h.svc.SitesByClientID(requestContext(c), clientID))
		return
	}
	writeList(c, h.svc, h.svc.Sites(requestContext(c)))
}

// SaveSite creates or replaces a site.
func (h *RecordsHandler) SaveSite(c *gin.Context) {
	var site models.Site
	if !bindJSON(c, &site) {
		return
	}
	saved, err := h.svc.SaveSite(requestContext(c), site)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, saved)
}

// DeleteSite removes a site.
func (h *RecordsHandler) DeleteSite(c *gin.Context) {
	writeDeleted(c, h.svc.DeleteSite(requestContext(c), c.Param("id")))
}

// ListSupplies returns the supplies catalogue.
func (h *RecordsHandler) ListSupplies(c *gin.Context) {
	writeList(c, h.svc, h.svc.Supplies(requestContext(c)))
}

// SaveSupply creates or replaces a catalogue item.
func (h *RecordsHandler) SaveSupply(c *gin.Context) {
	var item models.SupplyItem
	if !bindJSON(c, &item) {
		return
	}
	saved, err := h.svc.SaveSupply(requestContext(c), item)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, saved)
}

// DeleteSupply removes a catalogue item.
func (h *RecordsHandler) DeleteSupply(c *gin.Context) {
	writeDeleted(c, h.svc.DeleteSupply(requestContext(c), c.Param("id")))
}

func writeList[T any](c *gin.Context, svc *services.CacheService, items []T) {
	if items == nil {
		items = []T{}
	}
	response.SuccessWithMeta(c, http.StatusOK, items, listMeta(svc.CacheStatus(), len(items)))
}

func writeDeleted(c *gin.Context, err error) {
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"deleted": true})
}
