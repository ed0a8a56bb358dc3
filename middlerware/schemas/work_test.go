package schemas

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/shahidirfan100/Website-Tech-Stack-Detector/global"
)

func TestToConfigDefaults(t *testing.T) {
	schema := &ScanTaskCreateSchema{URLs: []string{"https://example.com"}}
	config := schema.ToConfig()

	assert.Equal(t, []string{"https://example.com"}, config.URLs)
	assert.Equal(t, 5, config.MaxConcurrency)
	assert.True(t, config.UseBrowserFallback)
	assert.True(t, config.ProbeAPIEndpoints)
	assert.Equal(t, 30, config.Timeout)
	assert.NotEmpty(t, config.UserAgent)
}

func TestToConfigOverrides(t *testing.T) {
	disabled := false
	schema := &ScanTaskCreateSchema{
		URLs:                  []string{"https://example.com"},
		MaxConcurrency:        10,
		UsePlaywrightFallback: &disabled,
		ProbeAPIEndpoints:     &disabled,
		Timeout:               60,
		ProxyConfiguration:    &global.ProxyConfiguration{ProxyURL: "http://127.0.0.1:8080"},
		UserAgent:             "custom-agent",
	}
	config := schema.ToConfig()

	assert.Equal(t, 10, config.MaxConcurrency)
	assert.False(t, config.UseBrowserFallback)
	assert.False(t, config.ProbeAPIEndpoints)
	assert.Equal(t, 60, config.Timeout)
	assert.Equal(t, "http://127.0.0.1:8080", config.ProxyURL())
	assert.Equal(t, "custom-agent", config.UserAgent)
	assert.Equal(t, 5, config.RenderConcurrency())
}
