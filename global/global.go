package global

import (
	"errors"
	"os"

	"go.zoe.im/surferua"
	"gopkg.in/yaml.v3"
)

// ErrConfiguration 配置校验失败，调度开始前直接终止
var ErrConfiguration = errors.New("无效的任务配置")

// ProxyConfiguration 代理配置
type ProxyConfiguration struct {
	ProxyURL string `yaml:"proxyUrl" json:"proxyUrl"`
}

// ServerConfig 服务模式配置
type ServerConfig struct {
	Port int `yaml:"port" json:"port"`
}

// LogConfig 日志配置
type LogConfig struct {
	Path       string `yaml:"path" json:"path"`
	Level      string `yaml:"level" json:"level"`
	MaxSize    int    `yaml:"maxSize" json:"maxSize"`
	MaxBackups int    `yaml:"maxBackups" json:"maxBackups"`
	MaxAge     int    `yaml:"maxAge" json:"maxAge"`
}

// Config 整体配置项
type Config struct {
	URLs               []string            `yaml:"urls" json:"urls"`                             // 目标 URL 列表
	MaxConcurrency     int                 `yaml:"maxConcurrency" json:"maxConcurrency"`         // 静态扫描并发宽度
	UseBrowserFallback bool                `yaml:"useBrowserFallback" json:"useBrowserFallback"` // 静态无结果时是否进行浏览器渲染
	ProbeAPIEndpoints  bool                `yaml:"probeApiEndpoints" json:"probeApiEndpoints"`   // 是否探测常见 API 路径
	Timeout            int                 `yaml:"timeout" json:"timeout"`                       // 访问超时，单位秒
	Proxy              *ProxyConfiguration `yaml:"proxyConfiguration" json:"proxyConfiguration"` // 代理配置
	UserAgent          string              `yaml:"userAgent" json:"userAgent"`                   // 请求页面使用的 UA
	SignaturesDir      string              `yaml:"signaturesDir" json:"signaturesDir"`           // 额外的 YAML 指纹目录
	Output             string              `yaml:"output" json:"output"`                         // 结果文件路径
	Server             ServerConfig        `yaml:"server" json:"server"`
	Log                LogConfig           `yaml:"log" json:"log"`
}

// DefaultConfig 默认配置
func DefaultConfig() *Config {
	return &Config{
		MaxConcurrency:     5,
		UseBrowserFallback: true,
		ProbeAPIEndpoints:  true,
		Timeout:            30,
		UserAgent:          surferua.New().Desktop().Chrome().String(),
		Output:             "results.jsonl",
		Server:             ServerConfig{Port: 8080},
		Log:                LogConfig{Level: "info", MaxSize: 100, MaxBackups: 3, MaxAge: 7},
	}
}

// LoadConfig 读取配置文件并覆盖默认值
func LoadConfig(path string) (*Config, error) {
	config := DefaultConfig()
	if path == "" {
		return config, nil
	}
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if err = yaml.Unmarshal(content, config); err != nil {
		return nil, err
	}
	if config.MaxConcurrency <= 0 {
		config.MaxConcurrency = 5
	}
	if config.Timeout <= 0 {
		config.Timeout = 30
	}
	if config.UserAgent == "" {
		config.UserAgent = surferua.New().Desktop().Chrome().String()
	}
	return config, nil
}

// ProxyURL 获取代理地址，未配置时返回空字符串
func (c *Config) ProxyURL() string {
	if c.Proxy == nil {
		return ""
	}
	return c.Proxy.ProxyURL
}

// RenderConcurrency 渲染扫描并发宽度，渲染开销高，取静态宽度的一半
func (c *Config) RenderConcurrency() int {
	w := c.MaxConcurrency / 2
	if w < 1 {
		w = 1
	}
	return w
}
