package schemas

import (
	"github.com/shahidirfan100/Website-Tech-Stack-Detector/global"
)

// ScanTaskCreateSchema 扫描任务参数
type ScanTaskCreateSchema struct {
	URLs                  []string                   `json:"urls" binding:"required,min=1,max=100"` // 目标 URL 列表
	MaxConcurrency        int                        `json:"maxConcurrency" binding:"gte=0,lte=50"` // 静态扫描并发宽度
	UsePlaywrightFallback *bool                      `json:"usePlaywrightFallback"`                 // 静态无结果时是否进行浏览器渲染
	ProbeAPIEndpoints     *bool                      `json:"probeApiEndpoints"`                     // 是否探测常见 API 路径
	Timeout               int                        `json:"timeout" binding:"gte=0,lte=300"`       // 访问超时，单位秒
	ProxyConfiguration    *global.ProxyConfiguration `json:"proxyConfiguration"`                    // 代理配置
	UserAgent             string                     `json:"userAgent"`                             // 自定义 UA
}

// ToConfig 任务参数落到配置，未提供的字段保持默认值
func (s *ScanTaskCreateSchema) ToConfig() *global.Config {
	config := global.DefaultConfig()
	config.URLs = s.URLs
	if s.MaxConcurrency > 0 {
		config.MaxConcurrency = s.MaxConcurrency
	}
	if s.UsePlaywrightFallback != nil {
		config.UseBrowserFallback = *s.UsePlaywrightFallback
	}
	if s.ProbeAPIEndpoints != nil {
		config.ProbeAPIEndpoints = *s.ProbeAPIEndpoints
	}
	if s.Timeout > 0 {
		config.Timeout = s.Timeout
	}
	if s.ProxyConfiguration != nil {
		config.Proxy = s.ProxyConfiguration
	}
	if s.UserAgent != "" {
		config.UserAgent = s.UserAgent
	}
	return config
}
