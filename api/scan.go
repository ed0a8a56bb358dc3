package api

import (
	"github.com/gin-gonic/gin"

	"github.com/shahidirfan100/Website-Tech-Stack-Detector/middlerware/logger"
	"github.com/shahidirfan100/Website-Tech-Stack-Detector/middlerware/schemas"
	"github.com/shahidirfan100/Website-Tech-Stack-Detector/services/fingerprint"
)

// ScanCreateApi 创建并同步执行扫描任务
func ScanCreateApi(c *gin.Context) {
	var schema schemas.ScanTaskCreateSchema
	if err := c.ShouldBindJSON(&schema); err != nil {
		schemas.BadRequest(c, err)
		return
	}

	summary, results, err := fingerprint.RunBatch(c.Request.Context(), schema.ToConfig())
	if err != nil {
		logger.Error("扫描任务执行失败", err)
		schemas.InternalError(c, err)
		return
	}

	schemas.Success(c, gin.H{
		"summary": summary,
		"results": results,
	})
}

// PingApi 存活检查
func PingApi(c *gin.Context) {
	schemas.Success(c, "pong")
}
