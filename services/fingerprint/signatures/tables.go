package signatures

// 产品类别
const (
	CategoryFrontend  = "frontend"
	CategoryCMS       = "cms"
	CategoryAnalytics = "analytics"
	CategoryHosting   = "hosting"
	CategoryCDN       = "cdn"
	CategoryLibraries = "libraries"
)

// Categories 输出固定的类别顺序
var Categories = []string{
	CategoryFrontend,
	CategoryCMS,
	CategoryAnalytics,
	CategoryHosting,
	CategoryCDN,
	CategoryLibraries,
}

// categoryTable 产品标识 -> 类别，未登记的产品归入 libraries
var categoryTable = map[string]string{
	"wordpress":   CategoryCMS,
	"drupal":      CategoryCMS,
	"joomla":      CategoryCMS,
	"shopify":     CategoryCMS,
	"wix":         CategoryCMS,
	"squarespace": CategoryCMS,
	"ghost":       CategoryCMS,
	"magento":     CategoryCMS,
	"webflow":     CategoryCMS,

	"react":   CategoryFrontend,
	"vue":     CategoryFrontend,
	"angular": CategoryFrontend,
	"nextjs":  CategoryFrontend,
	"nuxtjs":  CategoryFrontend,
	"svelte":  CategoryFrontend,
	"gatsby":  CategoryFrontend,
	"ember":   CategoryFrontend,

	"google-analytics":   CategoryAnalytics,
	"google-tag-manager": CategoryAnalytics,
	"facebook-pixel":     CategoryAnalytics,
	"hotjar":             CategoryAnalytics,
	"matomo":             CategoryAnalytics,
	"segment":            CategoryAnalytics,

	"netlify":      CategoryHosting,
	"vercel":       CategoryHosting,
	"github-pages": CategoryHosting,
	"heroku":       CategoryHosting,
	"aws-s3":       CategoryHosting,

	"cloudflare": CategoryCDN,
	"akamai":     CategoryCDN,
	"fastly":     CategoryCDN,
	"cloudfront": CategoryCDN,
	"jsdelivr":   CategoryCDN,
	"unpkg":      CategoryCDN,
	"cdnjs":      CategoryCDN,
}

// CategoryOf 查询产品类别
func CategoryOf(key string) string {
	if category, ok := categoryTable[key]; ok {
		return category
	}
	return CategoryLibraries
}

// 类别最低置信度阈值，低于阈值的匹配直接丢弃
// cms 阈值更高：真实网站极少同时运行两个 CMS，弱信号误报率高
const (
	ThresholdCMS     = 3
	ThresholdDefault = 2
)

// CategoryThreshold 查询类别阈值
func CategoryThreshold(category string) int {
	if category == CategoryCMS {
		return ThresholdCMS
	}
	return ThresholdDefault
}

// PlatformFacts 产品关联的平台信息
type PlatformFacts struct {
	Languages []string
	Databases []string
}

// platformTable 产品标识 -> 平台信息，由 cms/frontend 首选产品推断语言与数据库
var platformTable = map[string]PlatformFacts{
	"wordpress": {Languages: []string{"PHP"}, Databases: []string{"MySQL"}},
	"drupal":    {Languages: []string{"PHP"}, Databases: []string{"MySQL"}},
	"joomla":    {Languages: []string{"PHP"}, Databases: []string{"MySQL"}},
	"magento":   {Languages: []string{"PHP"}, Databases: []string{"MySQL"}},
	"shopify":   {Languages: []string{"Ruby"}},
	"ghost":     {Languages: []string{"Node.js"}},
	"nextjs":    {Languages: []string{"Node.js"}},
	"nuxtjs":    {Languages: []string{"Node.js"}},
	"gatsby":    {Languages: []string{"Node.js"}},
}

// PlatformFactsOf 查询产品平台信息
func PlatformFactsOf(key string) (PlatformFacts, bool) {
	facts, ok := platformTable[key]
	return facts, ok
}

// LanguageKeyword 服务器标识中的语言关键字
type LanguageKeyword struct {
	Keyword  string
	Language string
}

// LanguageKeywords 按固定顺序扫描 server/x-powered-by 文本，
// 一条标识可能命中多个关键字（例如 laravel 同时说明 PHP）
var LanguageKeywords = []LanguageKeyword{
	{Keyword: "php", Language: "PHP"},
	{Keyword: "asp.net", Language: "ASP.NET"},
	{Keyword: "node", Language: "Node.js"},
	{Keyword: "python", Language: "Python"},
	{Keyword: "ruby", Language: "Ruby"},
	{Keyword: "laravel", Language: "PHP"},
}
