package handler

import (
	"net/http"

	"oneplace/internal/util/retcode"
	"oneplace/pkg/response"

	"github.com/gin-gonic/gin"
)

type HelloHandler struct{}

func NewHelloHandler() *HelloHandler { return &HelloHandler{} }

type helloURI struct {
	Name string `uri:"name" binding:"required"`
}

// Hello GET /hello/:name
func (h *HelloHandler) Hello(c *gin.Context) {
	var req helloURI
	if err := c.ShouldBindUri(&req); err != nil {
		response.Error(c, http.StatusBadRequest, retcode.PARAM_INVALID, "name required")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Hello, " + req.Name + "!"})
}
