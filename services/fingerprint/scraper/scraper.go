package scraper

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/base64"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	jsoniter "github.com/json-iterator/go"
	"github.com/spaolacci/murmur3"

	"github.com/shahidirfan100/Website-Tech-Stack-Detector/middlerware/logger"
	"github.com/shahidirfan100/Website-Tech-Stack-Detector/services/certificate"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// ScrapedData 单次页面观测的快照数据
type ScrapedData struct {
	URL            string
	StatusCode     int
	Title          string
	Description    string
	HTML           string
	Headers        map[string][]string // 键为小写头名
	Cookies        []string            // 原始 cookie 字符串
	Scripts        []string            // 脚本 src
	InlineScripts  []string            // 内联脚本内容
	Stylesheets    []string            // 样式表 href
	Meta           map[string][]string // 键为小写标签名
	StructuredData []map[string]interface{}
	FaviconHash    string
	Certificate    *certificate.Certificate
	Page           interface{} // 渲染观测时的页面句柄，静态观测为 nil
}

// Scraper 页面观测接口
type Scraper interface {
	// Init 初始化
	Init() error
	// CanRenderPage 是否进行 JS 渲染页面
	CanRenderPage() bool
	// Scrape 请求页面并获取相关数据
	Scrape(ctx context.Context, paramURL string) (*ScrapedData, error)
	// Close 释放资源
	Close()
}

// GlobalProber 渲染引擎提供的运行时全局变量探测能力，
// 属性不存在时必须返回 false 而不是报错
type GlobalProber interface {
	HasGlobal(page interface{}, prop string) bool
}

// ParseDocument 将 HTML 文本解析为可查询的文档树
func ParseDocument(html string) (*goquery.Document, error) {
	return goquery.NewDocumentFromReader(strings.NewReader(html))
}

// ExtractChannels 从文档树中提取各证据通道数据和页面元数据
func ExtractChannels(doc *goquery.Document, scraped *ScrapedData) {
	if scraped.Meta == nil {
		scraped.Meta = make(map[string][]string)
	}

	doc.Find("script").Each(func(index int, item *goquery.Selection) {
		if src, exists := item.Attr("src"); exists && src != "" {
			scraped.Scripts = append(scraped.Scripts, src)
		} else if content := strings.TrimSpace(item.Text()); content != "" {
			if itemType, _ := item.Attr("type"); !strings.Contains(itemType, "ld+json") {
				scraped.InlineScripts = append(scraped.InlineScripts, content)
			}
		}
	})

	doc.Find("link[rel='stylesheet']").Each(func(index int, item *goquery.Selection) {
		if href, exists := item.Attr("href"); exists && href != "" {
			scraped.Stylesheets = append(scraped.Stylesheets, href)
		}
	})

	doc.Find("meta").Each(func(index int, item *goquery.Selection) {
		name, exists := item.Attr("name")
		if !exists {
			name, exists = item.Attr("property")
		}
		if !exists || name == "" {
			return
		}
		if content, ok := item.Attr("content"); ok {
			nameLower := strings.ToLower(name)
			scraped.Meta[nameLower] = append(scraped.Meta[nameLower], content)
			if nameLower == "description" && scraped.Description == "" {
				scraped.Description = content
			}
		}
	})

	if scraped.Title == "" {
		scraped.Title = strings.TrimSpace(doc.Find("title").First().Text())
	}

	// 结构化数据按条解析，单条解析失败直接跳过
	doc.Find("script[type='application/ld+json']").Each(func(index int, item *goquery.Selection) {
		var parsed map[string]interface{}
		if err := json.Unmarshal([]byte(item.Text()), &parsed); err == nil {
			scraped.StructuredData = append(scraped.StructuredData, parsed)
		}
	})
}

// parseCookies 从 set-cookie 响应头中提取原始 cookie 字符串
func parseCookies(headers map[string][]string) []string {
	var cookies []string
	for _, headerName := range []string{"set-cookie", "set-cookies"} {
		for _, cookie := range headers[headerName] {
			if first := strings.TrimSpace(strings.Split(cookie, ";")[0]); first != "" {
				cookies = append(cookies, first)
			}
		}
	}
	return cookies
}

var faviconReg = regexp.MustCompile(`href="(.*?favicon[^"]*)"`)

// getFaviconHash 解析页面中的 favicon 地址并计算 mmh3 hash，失败时返回空
func getFaviconHash(ctx context.Context, response string, paramURL string) string {
	u, err := url.Parse(paramURL)
	if err != nil {
		return ""
	}
	base := u.Scheme + "://" + u.Host

	faviconPath := base + "/favicon.ico"
	if faviconRegResult := faviconReg.FindAllStringSubmatch(response, -1); len(faviconRegResult) > 0 {
		fav := faviconRegResult[0][1]
		switch {
		case strings.HasPrefix(fav, "//"):
			faviconPath = u.Scheme + ":" + fav
		case strings.HasPrefix(fav, "http"):
			faviconPath = fav
		default:
			faviconPath = base + "/" + strings.TrimLeft(fav, "/")
		}
	}
	return fetchFaviconHash(ctx, faviconPath)
}

func fetchFaviconHash(ctx context.Context, faviconURL string) string {
	tr := &http.Transport{
		MaxIdleConnsPerHost: -1,
		TLSClientConfig:     &tls.Config{InsecureSkipVerify: true},
		DisableKeepAlives:   true,
	}
	client := http.Client{
		Timeout:   8 * time.Second,
		Transport: tr,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse // 不进入重定向
		},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, faviconURL, nil)
	if err != nil {
		return ""
	}
	resp, err := client.Do(req)
	if err != nil {
		logger.Debug("请求图标发生错误")
		return ""
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return ""
	}

	favicon, err := io.ReadAll(resp.Body)
	if err != nil || len(favicon) == 0 {
		return ""
	}
	return hashFavicon(favicon)
}

// hashFavicon 计算 favicon 的 mmh3 hash
func hashFavicon(favicon []byte) string {
	stdBase64 := insertInto(base64.StdEncoding.EncodeToString(favicon), 76, '\n')
	hasher := murmur3.New32WithSeed(0)
	hasher.Write([]byte(stdBase64))
	return fmt.Sprintf("%d", int32(hasher.Sum32()))
}

// insertInto 按固定间隔插入分隔符，与 shodan 的 favicon hash 口径保持一致
func insertInto(s string, interval int, sep rune) string {
	var buffer bytes.Buffer
	before := interval - 1
	last := len(s) - 1
	for i, char := range s {
		buffer.WriteRune(char)
		if i%interval == before && i != last {
			buffer.WriteRune(sep)
		}
	}
	buffer.WriteRune(sep)
	return buffer.String()
}
