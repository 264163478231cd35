package handler

import (
	"errors"
	"net/http"

	"oneplace/internal/logging"
	"oneplace/internal/service"
	"oneplace/internal/util/retcode"
	"oneplace/pkg/response"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type NavigationHandler struct{ d Dependencies }

func NewNavigationHandler(d Dependencies) *NavigationHandler { return &NavigationHandler{d: d} }

// Index GET /navigation
func (h *NavigationHandler) Index(c *gin.Context) {
	body, err := h.d.Navigation.Navigation(c.Request.Context())
	if err != nil {
		lg := logging.FromContext(c.Request.Context(), h.d.Logger)
		if errors.Is(err, service.ErrStoreUnavailable) {
			lg.Error("navigation_store_unavailable", zap.Error(err))
			response.Error(c, http.StatusServiceUnavailable, retcode.DB_READ_ERROR, service.ErrStoreUnavailable.Error())
			return
		}
		lg.Error("navigation_failed", zap.Error(err))
		response.Error(c, http.StatusInternalServerError, retcode.EXCEPTION, "internal error")
		return
	}
	c.JSON(http.StatusOK, body)
}
