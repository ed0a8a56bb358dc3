package schemas

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// 统一响应结构
type Response struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// Success 请求成功
func Success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Response{Code: http.StatusOK, Message: "SUCCESS", Data: data})
}

// BadRequest 参数校验失败
func BadRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, Response{Code: http.StatusBadRequest, Message: err.Error()})
}

// InternalError 服务端错误
func InternalError(c *gin.Context, err error) {
	c.JSON(http.StatusInternalServerError, Response{Code: http.StatusInternalServerError, Message: err.Error()})
}
