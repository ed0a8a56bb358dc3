package fingerprint

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestScoreWAFCloudflareHeaders(t *testing.T) {
	headers := map[string][]string{
		"cf-ray":          {"abc123"},
		"cf-cache-status": {"HIT"},
	}

	waf := ScoreWAF(headers, nil, "")
	assert.True(t, waf.Detected)
	assert.Equal(t, "Cloudflare", waf.Provider)
	// 两个响应头名各计 3 分
	assert.Equal(t, 6, waf.Score)
	assert.Equal(t, "high", waf.Confidence)
}

func TestScoreWAFServerBannerAndCookie(t *testing.T) {
	headers := map[string][]string{"server": {"cloudflare"}}
	cookies := []string{"__cf_bm=token"}

	waf := ScoreWAF(headers, cookies, "")
	assert.True(t, waf.Detected)
	assert.Equal(t, "Cloudflare", waf.Provider)
	// server 命中一次性 2 分 + cookie 前缀 2 分
	assert.Equal(t, 4, waf.Score)
	assert.Equal(t, "medium", waf.Confidence)
}

func TestScoreWAFBodyOnly(t *testing.T) {
	html := `<html><body>Sucuri Website Firewall - Access Denied</body></html>`

	waf := ScoreWAF(map[string][]string{}, nil, html)
	assert.True(t, waf.Detected)
	assert.Equal(t, "Sucuri", waf.Provider)
	assert.Equal(t, 1, waf.Score)
	assert.Equal(t, "low", waf.Confidence)
}

func TestScoreWAFNotDetected(t *testing.T) {
	waf := ScoreWAF(map[string][]string{"server": {"nginx"}}, nil, "<html></html>")
	assert.False(t, waf.Detected)
	assert.Equal(t, 0, waf.Score)
	assert.Equal(t, "", waf.Provider)
}

func TestScoreWAFTieFirstSeenWins(t *testing.T) {
	// cloudflare 与 akamai 各命中一个响应头名，同分时先声明者胜出
	headers := map[string][]string{
		"cf-ray":               {"abc"},
		"x-akamai-transformed": {"9 0 0 pmb=mRUM,1"},
	}

	waf := ScoreWAF(headers, nil, "")
	assert.Equal(t, "Cloudflare", waf.Provider)
	assert.Equal(t, 3, waf.Score)
}

func TestConfidenceTier(t *testing.T) {
	assert.Equal(t, "high", ConfidenceTier(5))
	assert.Equal(t, "medium", ConfidenceTier(3))
	assert.Equal(t, "medium", ConfidenceTier(4))
	assert.Equal(t, "low", ConfidenceTier(2))
	assert.Equal(t, "low", ConfidenceTier(0))
}
