package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/charlesng35/hvacquote/internal/models"
	"github.com/charlesng35/hvacquote/internal/network"
	"github.com/charlesng35/hvacquote/internal/services"
	appErrors "github.com/charlesng35/hvacquote/pkg/errors"
	"github.com/charlesng35/hvacquote/pkg/response"
)

// NetworkState is the connectivity surface handlers rely on.
type NetworkState interface {
	Status() network.Status
	IsOnline() bool
	SetOnline()
	SetOffline()
}

// CacheHandler exposes cache status and refresh controls.
type CacheHandler struct {
	svc     *services.CacheService
	network NetworkState
}

// NewCacheHandler constructs a cache handler.
func NewCacheHandler(svc *services.CacheService, network NetworkState) *CacheHandler {
	return &CacheHandler{svc: svc, network: network}
}

type cacheStatusDTO struct {
	Cache   models.CacheMetadata `json:"cache"`
	Network network.Status       `json:"network"`
}

// Status returns the cache metadata together with the connectivity state.
func (h *CacheHandler) Status(c *gin.Context) {
	response.Success(c, http.StatusOK, h.status())
}

// Refresh forces a full refresh from the upstream API. Refused while offline.
func (h *CacheHandler) Refresh(c *gin.Context) {
	if !h.network.IsOnline() {
		response.Error(c, appErrors.ErrOffline)
		return
	}
	if err := h.svc.ForceRefresh(requestContext(c)); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, h.status())
}

// EnsureFresh refreshes only a stale cache. Offline, the current status is returned as is.
func (h *CacheHandler) EnsureFresh(c *gin.Context) {
	if h.network.IsOnline() {
		if err := h.svc.EnsureFreshData(requestContext(c)); err != nil {
			response.Error(c, err)
			return
		}
	}
	response.Success(c, http.StatusOK, h.status())
}

// Clear drops every cached collection and resets the metadata.
func (h *CacheHandler) Clear(c *gin.Context) {
	if err := h.svc.ClearCache(requestContext(c)); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, h.status())
}

func (h *CacheHandler) status() cacheStatusDTO {
	return cacheStatusDTO{
		Cache:   h.svc.CacheStatus(),
		Network: h.network.Status(),
	}
}

// listMeta describes a collection served from the local cache.
func listMeta(meta models.CacheMetadata, total int) *response.Meta {
	out := &response.Meta{
		Total:     total,
		FromCache: true,
		Stale:     meta.IsStale,
	}
	if !meta.LastUpdated.IsZero() {
		ts := meta.LastUpdated.UTC().Truncate(time.Millisecond)
		out.LastUpdated = &ts
	}
	return out
}
