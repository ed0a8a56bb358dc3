package fingerprint

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/asaskevich/govalidator"
	goversion "github.com/hashicorp/go-version"
	"github.com/pkg/errors"

	"github.com/shahidirfan100/Website-Tech-Stack-Detector/global"
	"github.com/shahidirfan100/Website-Tech-Stack-Detector/middlerware/logger"
	"github.com/shahidirfan100/Website-Tech-Stack-Detector/services/fingerprint/result"
	"github.com/shahidirfan100/Website-Tech-Stack-Detector/services/fingerprint/scraper"
	"github.com/shahidirfan100/Website-Tech-Stack-Detector/services/fingerprint/signatures"
)

// Task 静态扫描子任务
type Task struct {
	TargetURL string
}

// RenderTask 渲染扫描子任务，携带静态扫描的观测结果用于合并
type RenderTask struct {
	TargetURL     string
	StaticMatches map[string]*TechMatch
	StaticRecord  *result.ScanResult
}

// Worker 任务执行者
type Worker struct {
	ID         int
	Ctx        context.Context
	Wg         *sync.WaitGroup
	TaskChan   chan Task
	RenderChan chan RenderTask
}

// NewWorker 初始化 worker
func NewWorker(ctx context.Context, wg *sync.WaitGroup, id int, taskChan chan Task, renderChan chan RenderTask) *Worker {
	return &Worker{
		ID:         id,
		Ctx:        ctx,
		Wg:         wg,
		TaskChan:   taskChan,
		RenderChan: renderChan,
	}
}

// BatchSummary 批次执行概要
type BatchSummary struct {
	URLsAnalyzed int    `json:"urlsAnalyzed"`
	Succeeded    int    `json:"succeeded"`
	Runtime      string `json:"runtime"`
}

// renderScraper 渲染引擎能力集合：抓取、运行时变量探测、页面回收
type renderScraper interface {
	scraper.Scraper
	scraper.GlobalProber
	PutPage(page interface{})
}

// runner 单个批次的执行环境，全部 worker 共享
type runner struct {
	cfg    *global.Config
	corpus *signatures.Corpus
	sink   *result.Sink
	prober *Prober

	static scraper.Scraper

	initRender func() (renderScraper, error)
	renderOnce sync.Once
	render     renderScraper
	renderErr  error
}

func nowStamp() string {
	return time.Now().UTC().Format(time.RFC3339)
}

// serverIdentity 从响应头中提取服务端标识
func serverIdentity(headers map[string][]string) (software string, poweredBy string) {
	software = strings.Join(headers["server"], " ")
	poweredBy = strings.Join(headers["x-powered-by"], " ")
	return software, poweredBy
}

// countTechnologies 统计归组后的技术总数，决定是否需要渲染兜底
func countTechnologies(technologies result.Technologies) int {
	return len(technologies.Frontend) + len(technologies.CMS) + len(technologies.Analytics) +
		len(technologies.Hosting) + len(technologies.CDN) + len(technologies.Libraries)
}

// buildRecord 由一次观测的全部产出拼装完整记录
func buildRecord(scraped *scraper.ScrapedData, matches map[string]*TechMatch, apis result.APIs, method string) *result.ScanResult {
	resolved := Resolve(matches)
	software, poweredBy := serverIdentity(scraped.Headers)
	waf := ScoreWAF(scraped.Headers, scraped.Cookies, scraped.HTML)

	record := &result.ScanResult{
		URL:    scraped.URL,
		Status: result.StatusSuccess,
		Technologies: result.Technologies{
			Frontend:  FormatCategory(resolved[signatures.CategoryFrontend]),
			CMS:       FormatCategory(resolved[signatures.CategoryCMS]),
			Analytics: FormatCategory(resolved[signatures.CategoryAnalytics]),
			Hosting:   FormatCategory(resolved[signatures.CategoryHosting]),
			CDN:       FormatCategory(resolved[signatures.CategoryCDN]),
			Libraries: FormatCategory(resolved[signatures.CategoryLibraries]),
		},
		WAF:  waf,
		APIs: apis,
		Metadata: result.Metadata{
			Title:          scraped.Title,
			Description:    scraped.Description,
			StructuredData: scraped.StructuredData,
			FaviconHash:    scraped.FaviconHash,
		},
		Server: result.Server{
			Software:    software,
			PoweredBy:   poweredBy,
			Certificate: scraped.Certificate,
		},
		DetectionMethod: method,
		Verdict:         Synthesize(resolved, waf, software, poweredBy),
		ScannedAt:       nowStamp(),
	}

	// 证据明细按置信度降序，同分按指纹库声明顺序
	detail := make([]*TechMatch, 0, len(matches))
	for _, match := range matches {
		detail = append(detail, match)
	}
	sort.SliceStable(detail, func(i, j int) bool {
		if detail[i].Confidence != detail[j].Confidence {
			return detail[i].Confidence > detail[j].Confidence
		}
		return detail[i].Order < detail[j].Order
	})
	for _, match := range detail {
		record.DetectionDetails.Matches = append(record.DetectionDetails.Matches, result.Match{
			Key:        match.Key,
			Name:       match.Name,
			Category:   match.Category,
			Confidence: match.Confidence,
			Version:    match.Version,
			Channels:   match.Channels,
		})
	}

	return record
}

// failedRecord 主请求失败时的占位记录
func failedRecord(paramURL string, err error) *result.ScanResult {
	return &result.ScanResult{
		URL:       paramURL,
		Status:    result.StatusFailed,
		Error:     err.Error(),
		ScannedAt: nowStamp(),
	}
}

// preferVersion 合并时的版本取舍，两边都可解析时取较高者
func preferVersion(existing string, incoming string) string {
	if existing == "" {
		return incoming
	}
	if incoming == "" {
		return existing
	}
	existingVersion, err1 := goversion.NewVersion(existing)
	incomingVersion, err2 := goversion.NewVersion(incoming)
	if err1 == nil && err2 == nil && incomingVersion.GreaterThan(existingVersion) {
		return incoming
	}
	return existing
}

// mergeMatches 将渲染观测合并到静态观测之上，合并只增不减：
// 置信度取两边较大值，证据通道取并集
func mergeMatches(static map[string]*TechMatch, rendered map[string]*TechMatch) map[string]*TechMatch {
	merged := make(map[string]*TechMatch, len(static))
	for key, match := range static {
		clone := *match
		clone.Channels = append([]string{}, match.Channels...)
		merged[key] = &clone
	}
	for key, match := range rendered {
		existing, ok := merged[key]
		if !ok {
			clone := *match
			clone.Channels = append([]string{}, match.Channels...)
			merged[key] = &clone
			continue
		}
		if match.Confidence > existing.Confidence {
			existing.Confidence = match.Confidence
		}
		for _, channel := range match.Channels {
			existing.addChannel(channel)
		}
		existing.Version = preferVersion(existing.Version, match.Version)
	}
	return merged
}

// probeAPIs 端点探测与主扫描并行进行
func (r *runner) probeAPIs(ctx context.Context, paramURL string) chan result.APIs {
	apisChan := make(chan result.APIs, 1)
	go func() {
		if r.prober == nil {
			apisChan <- result.APIs{Endpoints: []string{}}
			return
		}
		apisChan <- r.prober.Probe(ctx, paramURL)
	}()
	return apisChan
}

// scanStatic 静态扫描：抓取页面后依次执行证据扫描、防火墙评分、归组与判定
func (r *runner) scanStatic(ctx context.Context, paramURL string) (*result.ScanResult, map[string]*TechMatch, error) {
	apisChan := r.probeAPIs(ctx, paramURL)

	scraped, err := r.static.Scrape(ctx, paramURL)
	if err != nil {
		return nil, nil, err
	}

	matches := Scan(r.corpus, scraped)
	record := buildRecord(scraped, matches, <-apisChan, result.MethodStatic)
	return record, matches, nil
}

// getRenderScraper 渲染引擎按需惰性初始化，批次内只初始化一次
func (r *runner) getRenderScraper() (renderScraper, error) {
	r.renderOnce.Do(func() {
		rendered, err := r.initRender()
		if err != nil {
			r.renderErr = errors.Wrap(err, "初始化渲染引擎失败")
			return
		}
		r.render = rendered
	})
	return r.render, r.renderErr
}

// scanRendered 渲染扫描：在真实浏览器环境中执行页面 JS 后重新观测，
// 运行时全局变量作为附加证据通道注入，然后合并到静态观测之上
func (r *runner) scanRendered(ctx context.Context, task RenderTask) (*result.ScanResult, error) {
	renderEngine, err := r.getRenderScraper()
	if err != nil {
		return nil, err
	}

	scraped, err := renderEngine.Scrape(ctx, task.TargetURL)
	if err != nil {
		return nil, err
	}

	rendered := Scan(r.corpus, scraped)

	// 运行时全局变量是强证据但不压倒性，部分全局变量过于通用
	for _, binding := range r.corpus.RuntimeGlobals() {
		if !renderEngine.HasGlobal(scraped.Page, binding.Prop) {
			continue
		}
		rule := r.corpus.Get(binding.Key)
		match, ok := rendered[binding.Key]
		if !ok {
			match = &TechMatch{
				Key:      rule.Key,
				Name:     rule.Name,
				Category: signatures.CategoryOf(rule.Key),
				Order:    rule.Order,
			}
			rendered[binding.Key] = match
		}
		if match.Confidence < signatures.WeightRuntime {
			match.Confidence = signatures.WeightRuntime
		}
		match.addChannel(signatures.ChannelRuntime)
	}
	renderEngine.PutPage(scraped.Page)
	scraped.Page = nil

	merged := mergeMatches(task.StaticMatches, rendered)
	record := buildRecord(scraped, merged, task.StaticRecord.APIs, result.MethodBrowser)

	// 渲染观测之前的记录以静态观测 URL 为键，合并结果必须落回同一条
	record.URL = task.StaticRecord.URL
	if record.Metadata.Title == "" {
		record.Metadata.Title = task.StaticRecord.Metadata.Title
	}
	if record.Metadata.FaviconHash == "" {
		record.Metadata.FaviconHash = task.StaticRecord.Metadata.FaviconHash
	}
	if record.Server.Certificate == nil {
		record.Server.Certificate = task.StaticRecord.Server.Certificate
	}
	return record, nil
}

// GroupScanWorker 静态扫描 worker，无结果且开启兜底时转入渲染队列
func (w *Worker) GroupScanWorker(r *runner) {
	go func() {
		defer w.Wg.Done()
		for task := range w.TaskChan {
			select {
			case <-w.Ctx.Done():
				return
			default:
				record, matches, err := r.scanStatic(w.Ctx, task.TargetURL)
				if err != nil {
					logger.Warn(fmt.Sprintf("URL %s 静态扫描失败: %v", task.TargetURL, err))
					r.sink.Put(failedRecord(task.TargetURL, err))
					continue
				}
				r.sink.Put(record)

				if countTechnologies(record.Technologies) == 0 && r.cfg.UseBrowserFallback {
					w.RenderChan <- RenderTask{
						TargetURL:     task.TargetURL,
						StaticMatches: matches,
						StaticRecord:  record,
					}
				} else {
					logger.Info(fmt.Sprintf("------------> URL %s -------> Title %s -------> Summary %s",
						record.URL, record.Metadata.Title, record.Verdict.Summary))
				}
			}
		}
	}()
}

// GroupRenderWorker 渲染扫描 worker，渲染失败时保留静态记录
func (w *Worker) GroupRenderWorker(r *runner) {
	go func() {
		defer w.Wg.Done()
		for task := range w.RenderChan {
			select {
			case <-w.Ctx.Done():
				return
			default:
				record, err := r.scanRendered(w.Ctx, task)
				if err != nil {
					logger.Warn(fmt.Sprintf("URL %s 渲染扫描失败，保留静态结果: %v", task.TargetURL, err))
					continue
				}
				r.sink.Put(record)
				logger.Info(fmt.Sprintf("------------> URL %s -------> Title %s -------> Summary %s",
					record.URL, record.Metadata.Title, record.Verdict.Summary))
			}
		}
	}()
}

// validateConfig 调度开始前的配置校验
func validateConfig(cfg *global.Config) error {
	if cfg == nil || len(cfg.URLs) == 0 {
		return global.ErrConfiguration
	}
	for _, paramURL := range cfg.URLs {
		if !govalidator.IsURL(paramURL) {
			return errors.Wrapf(global.ErrConfiguration, "无效的 URL %q", paramURL)
		}
	}
	return nil
}

// RunBatch 执行一个批次的扫描任务，
// 只有配置非法或全部 URL 都失败时才返回错误
func RunBatch(ctx context.Context, cfg *global.Config) (*BatchSummary, []*result.ScanResult, error) {
	if err := validateConfig(cfg); err != nil {
		return nil, nil, err
	}

	corpus, err := signatures.Load()
	if err != nil {
		return nil, nil, errors.Wrap(err, "加载指纹库失败")
	}
	if cfg.SignaturesDir != "" {
		if err = corpus.LoadDir(cfg.SignaturesDir); err != nil {
			logger.Warn(fmt.Sprintf("加载额外指纹目录失败: %v", err))
		}
	}

	staticScraper := &scraper.CollyScraper{
		TimeoutSeconds: cfg.Timeout,
		UserAgent:      cfg.UserAgent,
		Proxy:          cfg.ProxyURL(),
	}
	if err = staticScraper.Init(); err != nil {
		return nil, nil, errors.Wrap(err, "初始化静态抓取失败")
	}
	defer staticScraper.Close()

	r := &runner{
		cfg:    cfg,
		corpus: corpus,
		sink:   result.NewSink(),
		static: staticScraper,
		initRender: func() (renderScraper, error) {
			rodScraper := &scraper.RodScraper{
				PageSize:              cfg.RenderConcurrency(),
				TimeoutSeconds:        cfg.Timeout,
				LoadingTimeoutSeconds: cfg.Timeout / 2,
				UserAgent:             cfg.UserAgent,
			}
			if err := rodScraper.Init(); err != nil {
				return nil, err
			}
			return rodScraper, nil
		},
	}
	if cfg.ProbeAPIEndpoints {
		r.prober = NewProber(cfg.UserAgent, cfg.ProxyURL())
	}
	defer func() {
		if r.render != nil {
			r.render.Close()
		}
	}()

	return r.execute(ctx)
}

// execute 调度两级 worker 池完成批次内全部 URL
func (r *runner) execute(ctx context.Context) (*BatchSummary, []*result.ScanResult, error) {
	cfg := r.cfg
	startTime := time.Now()

	taskChan := make(chan Task, len(cfg.URLs))
	renderChan := make(chan RenderTask, len(cfg.URLs))

	var staticWg sync.WaitGroup
	var renderWg sync.WaitGroup

	// 创建并启动多个工作者，渲染队列更窄，反映渲染的高资源开销
	for i := 0; i < cfg.MaxConcurrency; i++ {
		worker := NewWorker(ctx, &staticWg, i, taskChan, renderChan)
		worker.GroupScanWorker(r)
		staticWg.Add(1)
	}
	for i := 0; i < cfg.RenderConcurrency(); i++ {
		worker := NewWorker(ctx, &renderWg, i, taskChan, renderChan)
		worker.GroupRenderWorker(r)
		renderWg.Add(1)
	}

	go func() {
		// 通知消费者所有任务已经推送完毕
		defer close(taskChan)
		for _, paramURL := range cfg.URLs {
			taskChan <- Task{TargetURL: paramURL}
		}
	}()

	// 静态阶段完全结束后渲染队列才可能关闭，
	// 保证同一 URL 的渲染观测总是合并在静态观测之上
	staticWg.Wait()
	close(renderChan)
	renderWg.Wait()

	results := r.sink.Results()
	succeeded := 0
	for _, record := range results {
		if record.Status == result.StatusSuccess {
			succeeded++
		}
	}

	summary := &BatchSummary{
		URLsAnalyzed: len(results),
		Succeeded:    succeeded,
		Runtime:      time.Since(startTime).Round(time.Millisecond).String(),
	}
	if succeeded == 0 {
		return summary, results, errors.New("全部 URL 扫描失败")
	}
	return summary, results, nil
}
