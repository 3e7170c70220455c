package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/charlesng35/hvacquote/internal/financial"
	"github.com/charlesng35/hvacquote/internal/models"
	"github.com/charlesng35/hvacquote/internal/pricing"
	"github.com/charlesng35/hvacquote/internal/services"
	"github.com/charlesng35/hvacquote/pkg/response"
)

// PricingHandler prices quotes and summarises revenue over the cached quotes.
type PricingHandler struct {
	calculator *pricing.Calculator
	svc        *services.CacheService
	now        func() time.Time
}

// NewPricingHandler constructs a pricing handler.
func NewPricingHandler(calculator *pricing.Calculator, svc *services.CacheService) *PricingHandler {
	return &PricingHandler{calculator: calculator, svc: svc, now: time.Now}
}

// Quote recomputes every line and total of the posted quote without saving it.
func (h *PricingHandler) Quote(c *gin.Context) {
	var quote models.Quote
	if !bindJSON(c, &quote) {
		return
	}
	response.Success(c, http.StatusOK, h.calculator.Quote(quote))
}

type financialSummaryDTO struct {
	Summary financial.Summary `json:"summary"`
	Quotes  []models.Quote    `json:"quotes"`
}

// Summary filters the latest revision of each cached quote and summarises the result.
func (h *PricingHandler) Summary(c *gin.Context) {
	var filter financial.Filter
	if c.Request.ContentLength != 0 {
		if !bindAndValidate(c, &filter) {
			return
		}
	}

	quotes := financial.LatestVersions(h.svc.Quotes(requestContext(c)))
	quotes = filter.Apply(quotes, h.now())
	if quotes == nil {
		quotes = []models.Quote{}
	}

	response.SuccessWithMeta(c, http.StatusOK, financialSummaryDTO{
		Summary: financial.Summarize(quotes),
		Quotes:  quotes,
	}, listMeta(h.svc.CacheStatus(), len(quotes)))
}
