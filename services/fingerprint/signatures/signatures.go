package signatures

import (
	"embed"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	jsoniter "github.com/json-iterator/go"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/shahidirfan100/Website-Tech-Stack-Detector/middlerware/logger"
)

// 各证据通道的固定权重，数值为经验调参结果，保持常量不做推导
const (
	WeightScript     = 3 // 脚本引用/内联脚本
	WeightStylesheet = 2 // 样式表引用
	WeightMeta       = 2 // meta 标签
	WeightHTML       = 2 // 原始 HTML
	WeightHeader     = 2 // 响应头
	WeightCDN        = 1 // CDN 引用
	WeightRuntime    = 3 // 运行时全局变量，强证据但不压倒性（部分全局变量过于通用）
)

// 证据通道名称
const (
	ChannelScript     = "script"
	ChannelStylesheet = "stylesheet"
	ChannelMeta       = "meta"
	ChannelHTML       = "html"
	ChannelHeader     = "header"
	ChannelCDN        = "cdn"
	ChannelRuntime    = "runtime"
)

// Rule 单个产品的指纹规则，进程启动时加载一次，之后只读
type Rule struct {
	Key        string            `json:"key" yaml:"key"`               // 唯一标识
	Name       string            `json:"name" yaml:"name"`             // 展示名称
	Script     []string          `json:"script" yaml:"script"`         // 脚本匹配规则
	Stylesheet []string          `json:"stylesheet" yaml:"stylesheet"` // 样式表匹配规则
	Meta       map[string]string `json:"meta" yaml:"meta"`             // meta 标签名 -> 内容规则
	HTML       []string          `json:"html" yaml:"html"`             // 原始 HTML 匹配规则
	Headers    map[string]string `json:"headers" yaml:"headers"`       // 响应头名 -> 值规则
	CDN        []string          `json:"cdn" yaml:"cdn"`               // CDN 引用子串
	Js         []string          `json:"js" yaml:"js"`                 // 运行时全局变量名，仅渲染观测时检查
	Order      int               `json:"-" yaml:"-"`                   // 声明顺序，平分时的决胜依据

	scriptRe     []*regexp.Regexp
	stylesheetRe []*regexp.Regexp
	htmlRe       []*regexp.Regexp
	metaRe       map[string]*regexp.Regexp
	headerRe     map[string]*regexp.Regexp
	versionRe    []*regexp.Regexp
}

// ScriptPatterns 编译后的脚本规则
func (r *Rule) ScriptPatterns() []*regexp.Regexp { return r.scriptRe }

// StylesheetPatterns 编译后的样式表规则
func (r *Rule) StylesheetPatterns() []*regexp.Regexp { return r.stylesheetRe }

// HTMLPatterns 编译后的 HTML 规则
func (r *Rule) HTMLPatterns() []*regexp.Regexp { return r.htmlRe }

// MetaPatterns 编译后的 meta 规则，键为小写标签名
func (r *Rule) MetaPatterns() map[string]*regexp.Regexp { return r.metaRe }

// HeaderPatterns 编译后的响应头规则，键为小写头名
func (r *Rule) HeaderPatterns() map[string]*regexp.Regexp { return r.headerRe }

// VersionPatterns 名称锚定的版本提取规则
func (r *Rule) VersionPatterns() []*regexp.Regexp { return r.versionRe }

func (r *Rule) compile() error {
	var err error
	if r.scriptRe, err = compilePatterns(r.Script); err != nil {
		return err
	}
	if r.stylesheetRe, err = compilePatterns(r.Stylesheet); err != nil {
		return err
	}
	if r.htmlRe, err = compilePatterns(r.HTML); err != nil {
		return err
	}
	if r.metaRe, err = compilePatternMap(r.Meta); err != nil {
		return err
	}
	if r.headerRe, err = compilePatternMap(r.Headers); err != nil {
		return err
	}

	// 版本提取以名称/标识锚定，形如 name[@/ -]v1.2 或 name-1.2.3
	for _, anchor := range []string{r.Name, r.Key} {
		if anchor == "" {
			continue
		}
		re, compileErr := regexp.Compile(`(?i)` + regexp.QuoteMeta(anchor) + `[@/\s._-]v?(\d+\.\d+(?:\.\d+)?)`)
		if compileErr != nil {
			continue
		}
		r.versionRe = append(r.versionRe, re)
	}
	return nil
}

func compilePatterns(patterns []string) ([]*regexp.Regexp, error) {
	var compiled []*regexp.Regexp
	for _, p := range patterns {
		re, err := regexp.Compile("(?i)" + p)
		if err != nil {
			return nil, errors.Wrapf(err, "无效的匹配规则 %q", p)
		}
		compiled = append(compiled, re)
	}
	return compiled, nil
}

func compilePatternMap(patterns map[string]string) (map[string]*regexp.Regexp, error) {
	if len(patterns) == 0 {
		return nil, nil
	}
	compiled := make(map[string]*regexp.Regexp, len(patterns))
	for name, p := range patterns {
		re, err := regexp.Compile("(?i)" + p)
		if err != nil {
			return nil, errors.Wrapf(err, "无效的匹配规则 %q", p)
		}
		compiled[strings.ToLower(name)] = re
	}
	return compiled, nil
}

// GlobalBinding 运行时全局变量与产品的绑定关系
type GlobalBinding struct {
	Prop string // window 上的属性名
	Key  string // 产品标识
}

// Corpus 指纹库，按声明顺序保存全部规则
type Corpus struct {
	Rules []*Rule
	byKey map[string]*Rule
}

type corpusFile struct {
	Technologies []*Rule `json:"technologies" yaml:"technologies"`
}

//go:embed assets/technologies.json
var f embed.FS

var embedPath = "assets/technologies.json"

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Load 加载内置指纹库
func Load() (*Corpus, error) {
	content, err := f.ReadFile(embedPath)
	if err != nil {
		return nil, err
	}
	var parsed corpusFile
	if err = json.Unmarshal(content, &parsed); err != nil {
		logger.Error("无法序列化 technologies.json 文件", err)
		return nil, err
	}
	if len(parsed.Technologies) < 1 {
		return nil, errors.New("无法加载指纹库产品数据")
	}

	corpus := &Corpus{byKey: make(map[string]*Rule)}
	for _, rule := range parsed.Technologies {
		if err = corpus.add(rule); err != nil {
			return nil, err
		}
	}
	return corpus, nil
}

// LoadDir 加载目录中的 YAML 指纹规则，新增指纹无需改动代码
func (c *Corpus) LoadDir(dir string) error {
	fileInfos, err := os.ReadDir(dir)
	if err != nil {
		return err
	}
	for _, fileInfo := range fileInfos {
		if !strings.HasSuffix(fileInfo.Name(), ".yaml") && !strings.HasSuffix(fileInfo.Name(), ".yml") {
			continue
		}
		filePath := filepath.Join(dir, fileInfo.Name())
		content, err := os.ReadFile(filePath)
		if err != nil {
			logger.Warn(fmt.Sprintf("无法读取文件 %s: %v", filePath, err))
			continue
		}
		var parsed corpusFile
		if err = yaml.Unmarshal(content, &parsed); err != nil {
			logger.Warn(fmt.Sprintf("无法解析文件 %s: %v", filePath, err))
			continue
		}
		for _, rule := range parsed.Technologies {
			if err = c.add(rule); err != nil {
				logger.Warn(fmt.Sprintf("无法加载指纹 %s: %v", rule.Key, err))
			}
		}
	}
	return nil
}

func (c *Corpus) add(rule *Rule) error {
	if rule.Key == "" {
		return errors.New("指纹缺少 key")
	}
	if rule.Name == "" {
		rule.Name = rule.Key
	}
	if err := rule.compile(); err != nil {
		return err
	}
	if existing, ok := c.byKey[rule.Key]; ok {
		// 覆盖加载保持原有声明顺序
		rule.Order = existing.Order
		c.Rules[existing.Order] = rule
		c.byKey[rule.Key] = rule
		return nil
	}
	rule.Order = len(c.Rules)
	c.Rules = append(c.Rules, rule)
	c.byKey[rule.Key] = rule
	return nil
}

// Get 按标识获取规则
func (c *Corpus) Get(key string) *Rule {
	return c.byKey[key]
}

// RuntimeGlobals 收集全部规则的运行时全局变量，渲染观测时逐个探测
func (c *Corpus) RuntimeGlobals() []GlobalBinding {
	var bindings []GlobalBinding
	for _, rule := range c.Rules {
		for _, prop := range rule.Js {
			bindings = append(bindings, GlobalBinding{Prop: prop, Key: rule.Key})
		}
	}
	return bindings
}
