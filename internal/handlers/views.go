package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/charlesng35/hvacquote/internal/models"
	"github.com/charlesng35/hvacquote/internal/views"
	appErrors "github.com/charlesng35/hvacquote/pkg/errors"
	"github.com/charlesng35/hvacquote/pkg/response"
)

// ViewsHandler exposes the per-collection page views.
type ViewsHandler struct {
	registry *views.Registry
}

// NewViewsHandler constructs a views handler.
func NewViewsHandler(registry *views.Registry) *ViewsHandler {
	return &ViewsHandler{registry: registry}
}

// Get returns the current state of a collection view.
func (h *ViewsHandler) Get(c *gin.Context) {
	view, ok := h.lookup(c)
	if !ok {
		return
	}
	response.Success(c, http.StatusOK, view.Current())
}

// Refresh reloads a view and returns its new state. A failed network refresh is reported
// in the state, which still carries the previously loaded data.
func (h *ViewsHandler) Refresh(c *gin.Context) {
	view, ok := h.lookup(c)
	if !ok {
		return
	}
	_ = view.Refresh(requestContext(c))
	response.Success(c, http.StatusOK, view.Current())
}

func (h *ViewsHandler) lookup(c *gin.Context) (views.Handle, bool) {
	collection, err := models.ParseCollection(c.Param("collection"))
	if err != nil {
		response.Error(c, appErrors.ErrUnknownCollection)
		return nil, false
	}
	view, ok := h.registry.Get(collection)
	if !ok {
		response.Error(c, appErrors.ErrUnknownCollection)
		return nil, false
	}
	return view, true
}
