package response

import (
	"oneplace/internal/util/retcode"

	"github.com/gin-gonic/gin"
)

type Body struct {
	Code int         `json:"code"`
	Msg  string      `json:"msg"`
	Data interface{} `json:"data,omitempty"`
}

func JSON(c *gin.Context, status, code int, msg string, data interface{}) {
	c.JSON(status, Body{Code: code, Msg: msg, Data: data})
}

func Success(c *gin.Context, data interface{}) {
	JSON(c, 200, retcode.SUCCESS, "success", data)
}

// Error code 传 legacy 业务码(负值)；误传非负值时改为 retcode.INVALID
func Error(c *gin.Context, status, code int, msg string) {
	if code >= 0 {
		code = retcode.INVALID
	}
	c.AbortWithStatusJSON(status, Body{Code: code, Msg: msg})
}
