package scraper

import (
	"context"
	"crypto/tls"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/gocolly/colly/v2"
	"github.com/gocolly/colly/v2/extensions"
	"github.com/pkg/errors"

	"github.com/shahidirfan100/Website-Tech-Stack-Detector/services/certificate"
)

// CollyScraper 静态抓取，不执行 JS
type CollyScraper struct {
	Collector      *colly.Collector
	Transport      *http.Transport
	Response       *http.Response
	TimeoutSeconds int
	UserAgent      string
	Proxy          string
}

type fetchTransport struct {
	*http.Transport
	respCallBack func(resp *http.Response)
}

func newFetchTransport(t *http.Transport, f func(resp *http.Response)) *fetchTransport {
	return &fetchTransport{t, f}
}

func (ft *fetchTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	rsp, err := ft.Transport.RoundTrip(req)
	if rsp != nil {
		ft.respCallBack(rsp)
	}
	return rsp, err
}

// Init 初始化 colly 抓取
func (s *CollyScraper) Init() error {
	s.Transport = &http.Transport{
		DialContext: (&net.Dialer{
			Timeout: time.Second * time.Duration(s.TimeoutSeconds),
		}).DialContext,
		MaxIdleConns:          100,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   2 * time.Second,
		ExpectContinueTimeout: time.Duration(s.TimeoutSeconds) * time.Second,
		TLSClientConfig:       &tls.Config{InsecureSkipVerify: true},
	}
	s.Collector = colly.NewCollector()
	s.Collector.UserAgent = s.UserAgent
	s.Collector.IgnoreRobotsTxt = true

	setResp := func(r *http.Response) {
		s.Response = r
	}

	// 自定义传输，保留最后一次响应以便提取 TLS 证书
	s.Collector.WithTransport(newFetchTransport(s.Transport, setResp))
	extensions.Referer(s.Collector)

	if s.Proxy != "" {
		if err := s.Collector.SetProxy(s.Proxy); err != nil {
			return errors.Wrap(err, "设置代理失败")
		}
	}

	return nil
}

func (s *CollyScraper) CanRenderPage() bool {
	return false
}

// Scrape 抓取流程
func (s *CollyScraper) Scrape(ctx context.Context, paramURL string) (*ScrapedData, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	scraped := &ScrapedData{URL: paramURL}
	collector := s.Collector.Clone()

	var fetched bool
	var fetchErr error

	collector.OnResponse(func(r *colly.Response) {
		fetched = true
		if r.Request != nil {
			scraped.URL = r.Request.URL.String()
		}
		if r.StatusCode != 0 {
			scraped.StatusCode = r.StatusCode
		}

		// 响应头统一小写键
		scraped.Headers = make(map[string][]string)
		if r.Headers != nil {
			for key, value := range *r.Headers {
				scraped.Headers[strings.ToLower(key)] = value
			}
		}

		if r.Body != nil {
			scraped.HTML = string(r.Body)
		}

		scraped.Cookies = parseCookies(scraped.Headers)
		if s.Response != nil {
			scraped.Certificate = certificate.GetCertInfoOfResponse(s.Response)
		}
	})

	collector.OnError(func(r *colly.Response, err error) {
		if r != nil && r.StatusCode != 0 {
			// 4xx/5xx 响应仍然是有效观测
			fetched = true
			scraped.StatusCode = r.StatusCode
			scraped.Headers = make(map[string][]string)
			if r.Headers != nil {
				for key, value := range *r.Headers {
					scraped.Headers[strings.ToLower(key)] = value
				}
			}
			if r.Body != nil {
				scraped.HTML = string(r.Body)
			}
			scraped.Cookies = parseCookies(scraped.Headers)
		} else {
			fetchErr = err
		}
	})

	collector.SetRequestTimeout(time.Duration(s.TimeoutSeconds) * time.Second)
	if err := collector.Visit(paramURL); err != nil && fetchErr == nil && !fetched {
		fetchErr = err
	}
	collector.Wait()

	if !fetched {
		return nil, errors.Wrapf(fetchErr, "%s 页面请求失败", paramURL)
	}

	if doc, err := ParseDocument(scraped.HTML); err == nil {
		ExtractChannels(doc, scraped)
	}
	scraped.FaviconHash = getFaviconHash(ctx, scraped.HTML, scraped.URL)

	return scraped, nil
}

func (s *CollyScraper) Close() {
}
