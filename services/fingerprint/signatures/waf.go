package signatures

import "regexp"

// WAF 各信号的固定权重
const (
	WAFWeightHeader = 3 // 每个命中的响应头名
	WAFWeightCookie = 2 // 每个命中的 cookie 名前缀
	WAFWeightServer = 2 // server 标识命中，一次性
	WAFWeightBody   = 1 // HTML 正文命中，一次性
)

// WAF 置信度分档阈值
const (
	WAFScoreHigh   = 5
	WAFScoreMedium = 3
)

// WAFSignature 单个 WAF 厂商的识别规则
type WAFSignature struct {
	Key            string   // 厂商标识
	Name           string   // 展示名称
	Headers        []string // 响应头名，存在即计分
	CookiePrefixes []string // cookie 名前缀
	Server         *regexp.Regexp
	Body           *regexp.Regexp
}

// WAFSignatures 按声明顺序排列，同分时先声明者胜出
var WAFSignatures = []*WAFSignature{
	{
		Key:            "cloudflare",
		Name:           "Cloudflare",
		Headers:        []string{"cf-ray", "cf-cache-status", "cf-request-id"},
		CookiePrefixes: []string{"__cf", "cf_"},
		Server:         regexp.MustCompile(`(?i)cloudflare`),
		Body:           regexp.MustCompile(`(?i)cloudflare`),
	},
	{
		Key:            "akamai",
		Name:           "Akamai",
		Headers:        []string{"x-akamai-transformed", "akamai-origin-hop", "x-akamai-request-id"},
		CookiePrefixes: []string{"ak_bmsc", "bm_s", "abck"},
		Server:         regexp.MustCompile(`(?i)akamaighost`),
		Body:           regexp.MustCompile(`(?i)access denied.{0,80}akamai`),
	},
	{
		Key:            "sucuri",
		Name:           "Sucuri",
		Headers:        []string{"x-sucuri-id", "x-sucuri-cache", "x-sucuri-block"},
		CookiePrefixes: []string{"sucuri_"},
		Server:         regexp.MustCompile(`(?i)sucuri(/cloudproxy)?`),
		Body:           regexp.MustCompile(`(?i)sucuri website firewall`),
	},
	{
		Key:            "imperva",
		Name:           "Imperva Incapsula",
		Headers:        []string{"x-iinfo"},
		CookiePrefixes: []string{"incap_ses_", "visid_incap_"},
		Body:           regexp.MustCompile(`(?i)incapsula incident`),
	},
	{
		Key:            "aws-waf",
		Name:           "AWS WAF",
		Headers:        []string{"x-amzn-requestid", "x-amz-cf-id"},
		CookiePrefixes: []string{"aws-waf-token"},
		Server:         regexp.MustCompile(`(?i)awselb|cloudfront`),
		Body:           regexp.MustCompile(`(?i)request blocked.{0,80}cloudfront`),
	},
	{
		Key:            "f5-bigip",
		Name:           "F5 BIG-IP",
		Headers:        []string{"x-wa-info"},
		CookiePrefixes: []string{"bigipserver", "ts"},
		Server:         regexp.MustCompile(`(?i)big-?ip|f5`),
		Body:           regexp.MustCompile(`(?i)the requested url was rejected`),
	},
	{
		Key:            "barracuda",
		Name:           "Barracuda",
		CookiePrefixes: []string{"barra_counter_session", "bni__"},
		Server:         regexp.MustCompile(`(?i)barracuda`),
		Body:           regexp.MustCompile(`(?i)barracuda networks`),
	},
}
