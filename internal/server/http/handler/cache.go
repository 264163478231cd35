package handler

import (
	"oneplace/pkg/response"

	"github.com/gin-gonic/gin"
)

type CacheHandler struct{ d Dependencies }

func NewCacheHandler(d Dependencies) *CacheHandler { return &CacheHandler{d: d} }

// Metrics GET /cache/metrics
func (h *CacheHandler) Metrics(c *gin.Context) {
	if h.d.Cache == nil {
		response.Success(c, gin.H{"enabled": false})
		return
	}
	response.Success(c, gin.H{"enabled": true, "layered": h.d.Cache.SnapshotMetrics()})
}

// Reset GET /cache/reset 重置计数；?flush=1 同时清掉导航树缓存（L1+L2）并清空本实例 L1
func (h *CacheHandler) Reset(c *gin.Context) {
	if h.d.Cache != nil {
		h.d.Cache.ResetMetrics()
	}
	flushed := false
	if c.Query("flush") == "1" {
		if h.d.Navigation != nil {
			h.d.Navigation.Invalidate(c.Request.Context())
		}
		if h.d.Cache != nil {
			flushed = h.d.Cache.FlushLocal()
		}
	}
	response.Success(c, gin.H{"l1_flushed": flushed})
}
