package fingerprint

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shahidirfan100/Website-Tech-Stack-Detector/services/fingerprint/result"
	"github.com/shahidirfan100/Website-Tech-Stack-Detector/services/fingerprint/signatures"
)

func TestSynthesizePrimaryAndFacts(t *testing.T) {
	resolved := map[string][]*TechMatch{
		signatures.CategoryCMS: {
			{Key: "wordpress", Name: "Wordpress", Version: "6.3", Confidence: 7},
		},
		signatures.CategoryCDN: {
			{Key: "cloudflare", Name: "Cloudflare", Confidence: 4},
		},
	}
	waf := result.WAF{Detected: true, Provider: "Cloudflare", Confidence: "high", Score: 6}

	verdict := Synthesize(resolved, waf, "cloudflare", "PHP/8.2")

	assert.Equal(t, "Wordpress 6.3", verdict.Primary[signatures.CategoryCMS])
	assert.Equal(t, "Cloudflare", verdict.Primary[signatures.CategoryCDN])
	// 平台事实表 + 响应头关键字都指向 PHP，去重后只出现一次
	assert.Equal(t, []string{"PHP"}, verdict.Inferred.Languages)
	assert.Equal(t, []string{"MySQL"}, verdict.Inferred.Databases)
	assert.Equal(t, "high", verdict.Confidence)
	assert.Equal(t, "CMS: Wordpress 6.3 | CDN: Cloudflare | WAF: Cloudflare | Languages: PHP | Databases: MySQL", verdict.Summary)
}

func TestSynthesizeLaravelImpliesPHP(t *testing.T) {
	verdict := Synthesize(map[string][]*TechMatch{}, result.WAF{}, "", "Laravel")
	assert.Equal(t, []string{"PHP"}, verdict.Inferred.Languages)
}

func TestSynthesizeMultipleLanguageKeywords(t *testing.T) {
	verdict := Synthesize(map[string][]*TechMatch{}, result.WAF{}, "nginx node", "PHP/8.1")
	assert.ElementsMatch(t, []string{"PHP", "Node.js"}, verdict.Inferred.Languages)
}

func TestSynthesizeEmptyInput(t *testing.T) {
	verdict := Synthesize(map[string][]*TechMatch{}, result.WAF{}, "", "")
	assert.Empty(t, verdict.Primary)
	assert.Empty(t, verdict.Inferred.Languages)
	assert.Equal(t, "", verdict.Summary)
	assert.Equal(t, "low", verdict.Confidence)
}

func TestSynthesizeIdempotent(t *testing.T) {
	resolved := map[string][]*TechMatch{
		signatures.CategoryFrontend: {
			{Key: "nextjs", Name: "Next.js", Confidence: 5},
		},
	}
	waf := result.WAF{Detected: true, Provider: "Akamai", Confidence: "medium", Score: 3}

	first := Synthesize(resolved, waf, "vercel", "")
	second := Synthesize(resolved, waf, "vercel", "")
	require.Equal(t, first, second)
}
