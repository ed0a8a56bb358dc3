package scraper

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"
	"github.com/pkg/errors"

	"github.com/shahidirfan100/Website-Tech-Stack-Detector/middlerware/logger"
)

// RodScraper 浏览器渲染抓取，执行页面 JS 后再观测
type RodScraper struct {
	Browser               *rod.Browser
	pagePool              rod.PagePool
	PageSize              int
	TimeoutSeconds        int
	LoadingTimeoutSeconds int
	UserAgent             string
	protoUserAgent        *proto.NetworkSetUserAgentOverride
	lock                  *sync.RWMutex
}

func (s *RodScraper) CanRenderPage() bool {
	return true
}

func (s *RodScraper) Init() error {
	return rod.Try(func() {
		// 寻找可执行程序的路径
		path, _ := launcher.LookPath()
		u := launcher.New().Bin(path).NoSandbox(true).MustLaunch()
		s.lock = &sync.RWMutex{}
		//允许使用给定字符串覆盖用户代理
		s.protoUserAgent = &proto.NetworkSetUserAgentOverride{UserAgent: s.UserAgent}
		// MustIgnoreCertErrors 忽略证书错误
		s.Browser = rod.New().ControlURL(u).MustConnect().MustIgnoreCertErrors(true)
		s.pagePool = rod.NewPagePool(s.PageSize)
	})
}

// Scrape 渲染页面并获取相关数据，页面句柄保留在返回值中供运行时变量探测使用
func (s *RodScraper) Scrape(ctx context.Context, paramURL string) (*ScrapedData, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	scraped := &ScrapedData{URL: paramURL}

	// 创建一个新的页面，不在当前方法中关闭页面是因为还需要在该页面加载 JS 代码
	page := s.GetPage()

	// 当 HTTP 响应可用时触发
	var e proto.NetworkResponseReceived
	wait := page.WaitEvent(&e)
	// 自动处理页面弹出的各类对话框
	go page.MustHandleDialog()

	//导航到该 URL 页面
	errRod := rod.Try(func() {
		page.Timeout(time.Duration(s.TimeoutSeconds) * time.Second).
			MustSetUserAgent(s.protoUserAgent).MustNavigate(paramURL)
	})
	if errRod != nil {
		s.PutPage(page)
		return nil, errors.Wrapf(errRod, "%s 页面渲染失败", paramURL)
	}

	// 等待页面响应
	wait()

	scraped.URL = e.Response.URL
	scraped.StatusCode = e.Response.Status

	// 响应头统一小写键
	scraped.Headers = make(map[string][]string)
	for header, value := range e.Response.Headers {
		lowerCaseKey := strings.ToLower(header)
		scraped.Headers[lowerCaseKey] = append(scraped.Headers[lowerCaseKey], value.String())
	}

	// 给页面 JS 一个执行窗口再取源码
	if s.LoadingTimeoutSeconds > 0 {
		_ = rod.Try(func() {
			page.Timeout(time.Duration(s.LoadingTimeoutSeconds) * time.Second).MustWaitLoad()
		})
	}

	// 获取渲染后的页面源码
	html, errRod := page.HTML()
	if errRod == nil {
		scraped.HTML = html
	}

	// 获取标题
	info, errRod := page.Info()
	if errRod == nil {
		scraped.Title = info.Title
	}

	// 获取 cookies
	var str []string
	cookies, _ := page.Cookies(str)
	for _, cookie := range cookies {
		scraped.Cookies = append(scraped.Cookies, cookie.Name+"="+cookie.Value)
	}

	if doc, err := ParseDocument(scraped.HTML); err == nil {
		ExtractChannels(doc, scraped)
	}
	scraped.FaviconHash = getFaviconHash(ctx, scraped.HTML, scraped.URL)

	scraped.Page = page
	return scraped, nil
}

// HasGlobal 探测页面 window 上是否存在指定的全局变量，
// 属性不存在或探测失败时返回 false
func (s *RodScraper) HasGlobal(pageInterface interface{}, prop string) bool {
	page, ok := pageInterface.(*rod.Page)
	if ok {
		result, err := s.evalJS(page, `p => typeof window[p] !== "undefined"`, prop)
		return err == nil && result
	}
	return false
}

// evalJS 在页面中执行 JS，避免加载 JS 时卡死导致无法释放资源，
// 所以使用 ctx，保证操作会被取消从而释放资源
func (s *RodScraper) evalJS(page *rod.Page, js string, args ...interface{}) (bool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second*3)
	defer cancel()
	type evalResult struct {
		response *proto.RuntimeRemoteObject
		err      error
	}
	resCh := make(chan evalResult, 1)

	go func() {
		response, resErr := page.Eval(js, args...)
		resCh <- evalResult{response, resErr}
	}()

	select {
	case res := <-resCh:
		if res.err != nil {
			return false, res.err
		}
		if res.response != nil {
			return res.response.Value.Bool(), nil
		}
		return false, nil
	case <-ctx.Done():
		return false, errors.New("执行 JS 超时")
	}
}

// createPage 生成一个 page 对象
func (s *RodScraper) createPage() (page *rod.Page) {
	s.lock.Lock()
	defer s.lock.Unlock()
	if s.Browser == nil {
		path, _ := launcher.LookPath()
		u := launcher.New().Bin(path).NoSandbox(true).MustLaunch()
		s.Browser = rod.New().ControlURL(u).MustConnect().MustIgnoreCertErrors(true)
	}
	page = stealth.MustPage(s.Browser)
	return
}

func (s *RodScraper) GetPage() *rod.Page {
	s.lock.Lock()
	if s.pagePool == nil {
		s.pagePool = rod.NewPagePool(s.PageSize)
	}
	s.lock.Unlock()
	return s.pagePool.Get(s.createPage)
}

// PutPage 回收 page
func (s *RodScraper) PutPage(pageInterface interface{}) {
	page, ok := pageInterface.(*rod.Page)
	if !ok {
		return
	}
	err := page.Navigate("about:blank")
	if err != nil {
		logger.Warn("回收页面出现问题")
	} else {
		s.pagePool.Put(page)
	}
}

// Close 关闭浏览器
func (s *RodScraper) Close() {
	if s.Browser != nil {
		pages, _ := s.Browser.Pages()
		for _, page := range pages {
			err := page.Close()
			if err != nil {
				logger.Warn("关闭页面出现问题")
				continue
			}
		}
		err := s.Browser.Close()
		if err != nil {
			logger.Error("关闭浏览器出现错误", err)
		}
	}
}
