package signatures

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadCorpus(t *testing.T) {
	corpus, err := Load()
	require.NoError(t, err)
	require.NotEmpty(t, corpus.Rules)

	rule := corpus.Get("wordpress")
	require.NotNil(t, rule)
	assert.Equal(t, "Wordpress", rule.Name)
	assert.NotEmpty(t, rule.ScriptPatterns())

	// 声明顺序连续且与下标一致
	for i, r := range corpus.Rules {
		assert.Equal(t, i, r.Order)
	}
}

func TestPatternsCaseInsensitive(t *testing.T) {
	corpus, err := Load()
	require.NoError(t, err)

	rule := corpus.Get("wordpress")
	require.NotNil(t, rule)
	assert.True(t, rule.ScriptPatterns()[0].MatchString("/WP-Content/themes/x.js"))
	assert.True(t, rule.MetaPatterns()["generator"].MatchString("WordPress 6.3"))
}

func TestEmptyHeaderPatternIsPresenceCheck(t *testing.T) {
	corpus, err := Load()
	require.NoError(t, err)

	rule := corpus.Get("vercel")
	require.NotNil(t, rule)
	// 空模式匹配任意值，包括空字符串
	re := rule.HeaderPatterns()["x-vercel-id"]
	require.NotNil(t, re)
	assert.True(t, re.MatchString(""))
	assert.True(t, re.MatchString("sfo1::abcde"))
}

func TestLoadDirOverlay(t *testing.T) {
	corpus, err := Load()
	require.NoError(t, err)
	originalCount := len(corpus.Rules)
	originalOrder := corpus.Get("jquery").Order

	dir := t.TempDir()
	overlay := `technologies:
  - key: jquery
    name: jQuery Custom
    script:
      - "jquery-custom"
  - key: internal-widget
    name: Internal Widget
    script:
      - "widget\\.internal\\.example"
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "custom.yaml"), []byte(overlay), 0o644))
	require.NoError(t, corpus.LoadDir(dir))

	// 覆盖保持原有声明顺序，新增追加在末尾
	jquery := corpus.Get("jquery")
	assert.Equal(t, "jQuery Custom", jquery.Name)
	assert.Equal(t, originalOrder, jquery.Order)
	assert.Len(t, corpus.Rules, originalCount+1)
	assert.Equal(t, originalCount, corpus.Get("internal-widget").Order)
}

func TestLoadDirIgnoresBrokenFiles(t *testing.T) {
	corpus, err := Load()
	require.NoError(t, err)
	originalCount := len(corpus.Rules)

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "broken.yaml"), []byte("{{not yaml"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "ignored.txt"), []byte("whatever"), 0o644))

	require.NoError(t, corpus.LoadDir(dir))
	assert.Len(t, corpus.Rules, originalCount)
}

func TestRuntimeGlobals(t *testing.T) {
	corpus, err := Load()
	require.NoError(t, err)

	bindings := corpus.RuntimeGlobals()
	require.NotEmpty(t, bindings)

	found := false
	for _, binding := range bindings {
		if binding.Prop == "React" && binding.Key == "react" {
			found = true
		}
	}
	assert.True(t, found)
}

func TestCategoryTables(t *testing.T) {
	assert.Equal(t, CategoryCMS, CategoryOf("wordpress"))
	assert.Equal(t, CategoryFrontend, CategoryOf("react"))
	// 未登记的产品归入 libraries
	assert.Equal(t, CategoryLibraries, CategoryOf("unknown-product"))

	assert.Equal(t, ThresholdCMS, CategoryThreshold(CategoryCMS))
	assert.Equal(t, ThresholdDefault, CategoryThreshold(CategoryFrontend))
}

func TestPlatformFacts(t *testing.T) {
	facts, ok := PlatformFactsOf("wordpress")
	require.True(t, ok)
	assert.Equal(t, []string{"PHP"}, facts.Languages)
	assert.Equal(t, []string{"MySQL"}, facts.Databases)

	_, ok = PlatformFactsOf("jquery")
	assert.False(t, ok)
}
