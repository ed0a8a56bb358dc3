package fingerprint

import (
	"context"
	"crypto/tls"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/temoto/robotstxt"

	"github.com/shahidirfan100/Website-Tech-Stack-Detector/services/fingerprint/result"
)

// 常见 API 路径，每个 URL 都会全量探测一遍
var probePaths = []string{
	"/api",
	"/api/v1",
	"/api/v2",
	"/graphql",
	"/api/graphql",
	"/wp-json",
	"/rest",
	"/swagger.json",
	"/openapi.json",
}

const (
	probeRequestTimeout = 2 * time.Second  // 单个路径的请求超时，探测必须廉价，不做重试
	probeBudget         = 10 * time.Second // 整体探测预算，超时直接放弃
)

// Prober API 端点探测器
type Prober struct {
	UserAgent string
	Proxy     string

	lock      sync.RWMutex
	robotsMap map[string]*robotstxt.RobotsData
}

func NewProber(userAgent string, proxy string) *Prober {
	return &Prober{
		UserAgent: userAgent,
		Proxy:     proxy,
		robotsMap: make(map[string]*robotstxt.RobotsData),
	}
}

func (p *Prober) client(timeout time.Duration) *http.Client {
	tr := &http.Transport{
		TLSClientConfig:   &tls.Config{InsecureSkipVerify: true},
		DisableKeepAlives: true,
	}
	if p.Proxy != "" {
		if proxyURL, err := url.Parse(p.Proxy); err == nil {
			tr.Proxy = http.ProxyURL(proxyURL)
		}
	}
	return &http.Client{
		Timeout:   timeout,
		Transport: tr,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse // 3xx 状态本身即是发现信号
		},
	}
}

// allowedByRobots 检查路径是否被 robots.txt 排除，
// 获取或解析失败时放行
func (p *Prober) allowedByRobots(origin *url.URL, path string) bool {
	p.lock.RLock()
	robot, ok := p.robotsMap[origin.Host]
	p.lock.RUnlock()

	if !ok {
		resp, err := p.client(probeRequestTimeout).Get(origin.Scheme + "://" + origin.Host + "/robots.txt")
		if err != nil {
			return true
		}
		defer resp.Body.Close()

		robot, err = robotstxt.FromResponse(resp)
		if err != nil {
			return true
		}

		p.lock.Lock()
		p.robotsMap[origin.Host] = robot
		p.lock.Unlock()
	}

	return robot.FindGroup(p.UserAgent).Test(path)
}

// Probe 并发探测固定路径列表，整体受预算限制，
// 挂起的源站超出预算时返回空结果而不是阻塞批次
func (p *Prober) Probe(ctx context.Context, baseURL string) result.APIs {
	apis := result.APIs{Endpoints: []string{}}

	origin, err := url.Parse(baseURL)
	if err != nil || origin.Host == "" {
		return apis
	}
	base := origin.Scheme + "://" + origin.Host

	probeCtx, cancel := context.WithTimeout(ctx, probeBudget)
	defer cancel()

	type probeHit struct {
		path        string
		contentType string
	}
	hitChan := make(chan *probeHit, len(probePaths))
	done := make(chan struct{})

	go func() {
		defer close(done)
		var wg sync.WaitGroup
		client := p.client(probeRequestTimeout)
		for _, path := range probePaths {
			if !p.allowedByRobots(origin, path) {
				continue
			}
			wg.Add(1)
			go func(path string) {
				defer wg.Done()
				req, err := http.NewRequestWithContext(probeCtx, http.MethodGet, base+path, nil)
				if err != nil {
					return
				}
				req.Header.Set("User-Agent", p.UserAgent)
				resp, err := client.Do(req)
				if err != nil {
					return
				}
				defer resp.Body.Close()
				if resp.StatusCode < 400 {
					hitChan <- &probeHit{path: path, contentType: resp.Header.Get("Content-Type")}
				}
			}(path)
		}
		wg.Wait()
	}()

	select {
	case <-done:
	case <-probeCtx.Done():
		// 预算用尽，放弃探测
		return apis
	}
	close(hitChan)

	seen := make(map[string]struct{})
	for hit := range hitChan {
		lower := strings.ToLower(hit.path)
		if _, ok := seen[lower]; ok {
			continue
		}
		seen[lower] = struct{}{}
		apis.Endpoints = append(apis.Endpoints, hit.path)
		if strings.Contains(lower, "graphql") {
			apis.GraphQL = true
		}
		if strings.Contains(strings.ToLower(hit.contentType), "application/json") {
			apis.REST = true
		}
	}
	return apis
}
