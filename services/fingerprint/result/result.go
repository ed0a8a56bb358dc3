package result

import (
	"os"
	"sync"

	jsoniter "github.com/json-iterator/go"
	"github.com/pkg/errors"

	"github.com/shahidirfan100/Website-Tech-Stack-Detector/services/certificate"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// 单条结果的扫描状态
const (
	StatusSuccess = "success"
	StatusFailed  = "failed"
)

// 检测方式
const (
	MethodStatic  = "static"
	MethodBrowser = "browser"
)

// Technologies 按类别归组的技术名单，条目为 "名称 版本" 形式
type Technologies struct {
	Frontend  []string `json:"frontend"`
	CMS       []string `json:"cms"`
	Analytics []string `json:"analytics"`
	Hosting   []string `json:"hosting"`
	CDN       []string `json:"cdn"`
	Libraries []string `json:"libraries"`
}

// WAF 防火墙判定
type WAF struct {
	Detected   bool   `json:"detected"`
	Provider   string `json:"provider,omitempty"`
	Confidence string `json:"confidence,omitempty"` // high/medium/low
	Score      int    `json:"score"`
}

// APIs 端点探测结果
type APIs struct {
	GraphQL   bool     `json:"graphql"`
	REST      bool     `json:"rest"`
	Endpoints []string `json:"endpoints"`
}

// Metadata 页面元数据
type Metadata struct {
	Title          string                   `json:"title"`
	Description    string                   `json:"description"`
	StructuredData []map[string]interface{} `json:"structuredData,omitempty"`
	FaviconHash    string                   `json:"faviconHash,omitempty"`
}

// Server 服务端信息
type Server struct {
	Software    string                   `json:"software,omitempty"`
	PoweredBy   string                   `json:"poweredBy,omitempty"`
	Certificate *certificate.Certificate `json:"certificate,omitempty"`
}

// Inferred 由事实表和响应头推断出的平台信息
type Inferred struct {
	Languages []string `json:"languages"`
	Databases []string `json:"databases"`
}

// Verdict 综合判定
type Verdict struct {
	Primary    map[string]string `json:"primary"`  // 类别 -> 首选技术
	Inferred   Inferred          `json:"inferred"` // 推断出的语言与数据库
	Confidence string            `json:"confidence"`
	Summary    string            `json:"summary"`
}

// Match 单项技术的证据明细
type Match struct {
	Key        string   `json:"key"`
	Name       string   `json:"name"`
	Category   string   `json:"category"`
	Confidence int      `json:"confidence"`
	Version    string   `json:"version,omitempty"`
	Channels   []string `json:"channels"`
}

// DetectionDetails 证据明细
type DetectionDetails struct {
	Matches []Match `json:"matches"`
}

// ScanResult 单个 URL 的完整扫描记录
type ScanResult struct {
	URL              string           `json:"url"`
	Status           string           `json:"status"`
	Technologies     Technologies     `json:"technologies"`
	WAF              WAF              `json:"waf"`
	APIs             APIs             `json:"apis"`
	Metadata         Metadata         `json:"metadata"`
	Server           Server           `json:"server"`
	DetectionMethod  string           `json:"detectionMethod,omitempty"`
	Verdict          Verdict          `json:"verdict"`
	DetectionDetails DetectionDetails `json:"detectionDetails"`
	ScannedAt        string           `json:"scannedAt"`
	Error            string           `json:"error,omitempty"`
}

// Sink 结果收集器，同一 URL 的记录后写覆盖先写
type Sink struct {
	lock    sync.Mutex
	byURL   map[string]*ScanResult
	ordered []string
}

func NewSink() *Sink {
	return &Sink{byURL: make(map[string]*ScanResult)}
}

// Put 写入一条记录，URL 已存在时替换原记录
func (s *Sink) Put(item *ScanResult) {
	s.lock.Lock()
	defer s.lock.Unlock()
	if _, ok := s.byURL[item.URL]; !ok {
		s.ordered = append(s.ordered, item.URL)
	}
	s.byURL[item.URL] = item
}

// Results 按写入顺序返回全部记录
func (s *Sink) Results() []*ScanResult {
	s.lock.Lock()
	defer s.lock.Unlock()
	items := make([]*ScanResult, 0, len(s.ordered))
	for _, u := range s.ordered {
		items = append(items, s.byURL[u])
	}
	return items
}

// Flush 将全部记录以 JSON Lines 格式写入文件
func (s *Sink) Flush(path string) error {
	file, err := os.Create(path)
	if err != nil {
		return errors.Wrap(err, "创建结果文件失败")
	}
	defer file.Close()

	for _, item := range s.Results() {
		line, err := json.Marshal(item)
		if err != nil {
			return errors.Wrap(err, "序列化结果失败")
		}
		if _, err = file.Write(append(line, '\n')); err != nil {
			return errors.Wrap(err, "写入结果文件失败")
		}
	}
	return nil
}
