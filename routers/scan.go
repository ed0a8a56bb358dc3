package routers

import (
	"github.com/gin-gonic/gin"

	"github.com/shahidirfan100/Website-Tech-Stack-Detector/api"
)

func InitScanRouter(engine *gin.Engine) gin.IRoutes {
	var group = engine.Group("/scan")
	{
		group.POST("", api.ScanCreateApi)
	}
	return group
}

func InitPingRouter(engine *gin.Engine) gin.IRoutes {
	return engine.GET("/ping", api.PingApi)
}
