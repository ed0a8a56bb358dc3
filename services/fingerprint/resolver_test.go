package fingerprint

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shahidirfan100/Website-Tech-Stack-Detector/services/fingerprint/signatures"
)

func TestResolveThreshold(t *testing.T) {
	matches := map[string]*TechMatch{
		"jsdelivr": {Key: "jsdelivr", Name: "jsDelivr", Category: signatures.CategoryCDN, Confidence: 1},
		"fastly":   {Key: "fastly", Name: "Fastly", Category: signatures.CategoryCDN, Confidence: 2},
	}

	resolved := Resolve(matches)
	require.Len(t, resolved[signatures.CategoryCDN], 1)
	assert.Equal(t, "fastly", resolved[signatures.CategoryCDN][0].Key)
}

func TestResolveCMSThresholdHigher(t *testing.T) {
	// cms 阈值为 3，置信度 2 的 CMS 匹配被丢弃
	matches := map[string]*TechMatch{
		"wordpress": {Key: "wordpress", Name: "Wordpress", Category: signatures.CategoryCMS, Confidence: 2},
	}

	resolved := Resolve(matches)
	assert.Empty(t, resolved[signatures.CategoryCMS])
}

func TestResolveCMSSingleWinner(t *testing.T) {
	matches := map[string]*TechMatch{
		"wordpress": {Key: "wordpress", Name: "Wordpress", Category: signatures.CategoryCMS, Confidence: 5, Order: 0},
		"drupal":    {Key: "drupal", Name: "Drupal", Category: signatures.CategoryCMS, Confidence: 3, Order: 1},
	}

	resolved := Resolve(matches)
	require.Len(t, resolved[signatures.CategoryCMS], 1)
	assert.Equal(t, "wordpress", resolved[signatures.CategoryCMS][0].Key)
}

func TestResolveCMSTieBreakByOrder(t *testing.T) {
	// 同分时按指纹库声明顺序决胜
	matches := map[string]*TechMatch{
		"drupal":    {Key: "drupal", Name: "Drupal", Category: signatures.CategoryCMS, Confidence: 5, Order: 1},
		"wordpress": {Key: "wordpress", Name: "Wordpress", Category: signatures.CategoryCMS, Confidence: 5, Order: 0},
	}

	resolved := Resolve(matches)
	require.Len(t, resolved[signatures.CategoryCMS], 1)
	assert.Equal(t, "wordpress", resolved[signatures.CategoryCMS][0].Key)
}

func TestResolveOtherCategoriesAdditive(t *testing.T) {
	matches := map[string]*TechMatch{
		"react":  {Key: "react", Name: "React", Category: signatures.CategoryFrontend, Confidence: 6, Order: 9},
		"nextjs": {Key: "nextjs", Name: "Next.js", Category: signatures.CategoryFrontend, Confidence: 5, Order: 12},
	}

	resolved := Resolve(matches)
	require.Len(t, resolved[signatures.CategoryFrontend], 2)
	assert.Equal(t, "react", resolved[signatures.CategoryFrontend][0].Key)
	assert.Equal(t, "nextjs", resolved[signatures.CategoryFrontend][1].Key)
}

func TestFormatCategoryDedupCaseInsensitive(t *testing.T) {
	items := []*TechMatch{
		{Key: "jquery", Name: "jQuery", Version: "3.6.0"},
		{Key: "jquery2", Name: "JQUERY", Version: "3.6.0"},
	}

	formatted := FormatCategory(items)
	require.Len(t, formatted, 1)
	// 保留首见写法
	assert.Equal(t, "jQuery 3.6.0", formatted[0])
}

func TestFormatTech(t *testing.T) {
	assert.Equal(t, "React 18.2.0", FormatTech(&TechMatch{Name: "React", Version: "18.2.0"}))
	assert.Equal(t, "React", FormatTech(&TechMatch{Name: "React"}))
}
