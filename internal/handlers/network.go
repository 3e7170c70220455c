package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/charlesng35/hvacquote/pkg/response"
)

// NetworkHandler reports and overrides connectivity.
type NetworkHandler struct {
	network NetworkState
}

// NewNetworkHandler constructs a network handler.
func NewNetworkHandler(network NetworkState) *NetworkHandler {
	return &NetworkHandler{network: network}
}

// Status returns the connectivity state.
func (h *NetworkHandler) Status(c *gin.Context) {
	response.Success(c, http.StatusOK, h.network.Status())
}

// Online records a browser/OS online event.
func (h *NetworkHandler) Online(c *gin.Context) {
	h.network.SetOnline()
	response.Success(c, http.StatusOK, h.network.Status())
}

// Offline records a browser/OS offline event.
func (h *NetworkHandler) Offline(c *gin.Context) {
	h.network.SetOffline()
	response.Success(c, http.StatusOK, h.network.Status())
}
