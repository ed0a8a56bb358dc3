package fingerprint

import (
	"regexp"
	"strings"

	"github.com/shahidirfan100/Website-Tech-Stack-Detector/services/fingerprint/scraper"
	"github.com/shahidirfan100/Website-Tech-Stack-Detector/services/fingerprint/signatures"
)

// TechMatch 单项技术在一次观测中的累计证据
type TechMatch struct {
	Key        string
	Name       string
	Category   string
	Confidence int
	Version    string
	Channels   []string
	Order      int // 指纹库声明顺序，平分时的决胜依据
}

func (m *TechMatch) addChannel(channel string) {
	for _, existing := range m.Channels {
		if existing == channel {
			return
		}
	}
	m.Channels = append(m.Channels, channel)
}

// 通用版本提取规则，在名称锚定规则未命中时兜底
var (
	pathSegmentVersionReg = regexp.MustCompile(`/v?(\d+\.\d+(?:\.\d+)?)/`)
	atVersionReg          = regexp.MustCompile(`@v?(\d+\.\d+(?:\.\d+)?)[/"']?`)
	versionPrefixReg      = regexp.MustCompile(`^\d+\.\d+`)
)

// extractVersion 按优先级提取版本号：名称锚定 -> 路径段 -> @version，
// 候选必须以 数字.数字 开头才被接受
func extractVersion(rule *signatures.Rule, text string) string {
	for _, re := range rule.VersionPatterns() {
		if match := re.FindStringSubmatch(text); len(match) > 1 && versionPrefixReg.MatchString(match[1]) {
			return match[1]
		}
	}
	if match := pathSegmentVersionReg.FindStringSubmatch(text); len(match) > 1 && versionPrefixReg.MatchString(match[1]) {
		return match[1]
	}
	if match := atVersionReg.FindStringSubmatch(text); len(match) > 1 && versionPrefixReg.MatchString(match[1]) {
		return match[1]
	}
	return ""
}

// Scan 将指纹库应用于一次页面观测，输出技术标识 -> 原始证据累计，
// 不做阈值过滤，纯函数无副作用。运行时全局变量通道不在此处评估
func Scan(corpus *signatures.Corpus, scraped *scraper.ScrapedData) map[string]*TechMatch {
	matches := make(map[string]*TechMatch)

	record := func(rule *signatures.Rule, channel string, weight int, evidence string) {
		match, ok := matches[rule.Key]
		if !ok {
			match = &TechMatch{
				Key:      rule.Key,
				Name:     rule.Name,
				Category: signatures.CategoryOf(rule.Key),
				Order:    rule.Order,
			}
			matches[rule.Key] = match
		}
		match.Confidence += weight
		match.addChannel(channel)
		if match.Version == "" && evidence != "" {
			match.Version = extractVersion(rule, evidence)
		}
	}

	// 脚本规则同时作用于外链地址与内联内容
	scriptTexts := make([]string, 0, len(scraped.Scripts)+len(scraped.InlineScripts))
	scriptTexts = append(scriptTexts, scraped.Scripts...)
	scriptTexts = append(scriptTexts, scraped.InlineScripts...)

	for _, rule := range corpus.Rules {
		for _, re := range rule.ScriptPatterns() {
			// 同一规则可重复计分，多个脚本命中同一规则说明证据更强
			for _, text := range scriptTexts {
				if re.MatchString(text) {
					record(rule, signatures.ChannelScript, signatures.WeightScript, text)
				}
			}
		}

		for _, re := range rule.StylesheetPatterns() {
			for _, href := range scraped.Stylesheets {
				if re.MatchString(href) {
					record(rule, signatures.ChannelStylesheet, signatures.WeightStylesheet, href)
				}
			}
		}

		for name, re := range rule.MetaPatterns() {
			for _, content := range scraped.Meta[name] {
				if re.MatchString(content) {
					record(rule, signatures.ChannelMeta, signatures.WeightMeta, content)
				}
			}
		}

		for _, re := range rule.HTMLPatterns() {
			if re.MatchString(scraped.HTML) {
				record(rule, signatures.ChannelHTML, signatures.WeightHTML, "")
			}
		}

		for name, re := range rule.HeaderPatterns() {
			for _, value := range scraped.Headers[name] {
				if re.MatchString(value) {
					record(rule, signatures.ChannelHeader, signatures.WeightHeader, value)
				}
			}
		}

		for _, needle := range rule.CDN {
			lowerNeedle := strings.ToLower(needle)
			for _, src := range scraped.Scripts {
				if strings.Contains(strings.ToLower(src), lowerNeedle) {
					record(rule, signatures.ChannelCDN, signatures.WeightCDN, src)
				}
			}
		}
	}

	return matches
}
