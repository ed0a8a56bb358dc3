package scraper

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const samplePage = `<!DOCTYPE html>
<html>
<head>
	<title> Example Shop </title>
	<meta name="generator" content="WordPress 6.3">
	<meta property="og:site_name" content="Example">
	<meta name="description" content="一个示例站点">
	<link rel="stylesheet" href="/assets/bootstrap.min.css">
	<link rel="icon" href="/favicon.ico">
	<script src="/wp-content/themes/x.js"></script>
	<script>window.dataLayer = window.dataLayer || [];</script>
	<script type="application/ld+json">{"@type": "Organization", "name": "Example"}</script>
	<script type="application/ld+json">{broken</script>
</head>
<body></body>
</html>`

func TestExtractChannels(t *testing.T) {
	doc, err := ParseDocument(samplePage)
	require.NoError(t, err)

	scraped := &ScrapedData{}
	ExtractChannels(doc, scraped)

	assert.Equal(t, []string{"/wp-content/themes/x.js"}, scraped.Scripts)
	// 内联脚本单独收集，ld+json 不算内联脚本
	require.Len(t, scraped.InlineScripts, 1)
	assert.Contains(t, scraped.InlineScripts[0], "dataLayer")

	assert.Equal(t, []string{"/assets/bootstrap.min.css"}, scraped.Stylesheets)
	assert.Equal(t, []string{"WordPress 6.3"}, scraped.Meta["generator"])
	// property 形式的 meta 同样收集
	assert.Equal(t, []string{"Example"}, scraped.Meta["og:site_name"])

	assert.Equal(t, "Example Shop", scraped.Title)
	assert.Equal(t, "一个示例站点", scraped.Description)

	// 结构化数据逐条解析，坏数据跳过
	require.Len(t, scraped.StructuredData, 1)
	assert.Equal(t, "Organization", scraped.StructuredData[0]["@type"])
}

func TestParseCookies(t *testing.T) {
	headers := map[string][]string{
		"set-cookie": {
			"__cf_bm=token123; Path=/; HttpOnly",
			"session=abc",
		},
	}
	cookies := parseCookies(headers)
	assert.Equal(t, []string{"__cf_bm=token123", "session=abc"}, cookies)
}

func TestParseCookiesEmpty(t *testing.T) {
	assert.Empty(t, parseCookies(map[string][]string{}))
}

func TestHashFaviconStable(t *testing.T) {
	favicon := []byte("fake-favicon-bytes")
	first := hashFavicon(favicon)
	second := hashFavicon(favicon)
	require.NotEmpty(t, first)
	assert.Equal(t, first, second)
	assert.NotEqual(t, first, hashFavicon([]byte("other-bytes")))
}

func TestFaviconRegPrefersDeclaredIcon(t *testing.T) {
	html := `<link rel="icon" href="https://cdn.example.com/static/favicon.png">`
	matches := faviconReg.FindAllStringSubmatch(html, -1)
	require.NotEmpty(t, matches)
	assert.Equal(t, "https://cdn.example.com/static/favicon.png", matches[0][1])
}
