package fingerprint

import (
	"strings"

	"github.com/shahidirfan100/Website-Tech-Stack-Detector/services/fingerprint/result"
	"github.com/shahidirfan100/Website-Tech-Stack-Detector/services/fingerprint/signatures"
)

// 参与首选判定的类别，顺序即摘要中的输出顺序
var primaryCategories = []string{
	signatures.CategoryCMS,
	signatures.CategoryFrontend,
	signatures.CategoryHosting,
	signatures.CategoryCDN,
}

var summaryLabels = map[string]string{
	signatures.CategoryCMS:      "CMS",
	signatures.CategoryFrontend: "Frontend",
	signatures.CategoryHosting:  "Hosting",
	signatures.CategoryCDN:      "CDN",
}

func appendUnique(list []string, item string) []string {
	for _, existing := range list {
		if strings.EqualFold(existing, item) {
			return list
		}
	}
	return append(list, item)
}

// Synthesize 综合技术归组、防火墙判定和服务端标识生成最终判定。
// 纯函数，同样的输入反复调用输出一致
func Synthesize(resolved map[string][]*TechMatch, waf result.WAF, software string, poweredBy string) result.Verdict {
	verdict := result.Verdict{
		Primary: make(map[string]string),
		Inferred: result.Inferred{
			Languages: []string{},
			Databases: []string{},
		},
	}

	maxPrimaryScore := 0
	for _, category := range primaryCategories {
		items := resolved[category]
		if len(items) == 0 {
			continue
		}
		top := items[0]
		verdict.Primary[category] = FormatTech(top)
		if top.Confidence > maxPrimaryScore {
			maxPrimaryScore = top.Confidence
		}

		// cms/frontend 首选产品携带平台事实
		if category == signatures.CategoryCMS || category == signatures.CategoryFrontend {
			if facts, ok := signatures.PlatformFactsOf(top.Key); ok {
				for _, language := range facts.Languages {
					verdict.Inferred.Languages = appendUnique(verdict.Inferred.Languages, language)
				}
				for _, database := range facts.Databases {
					verdict.Inferred.Databases = appendUnique(verdict.Inferred.Databases, database)
				}
			}
		}
	}

	// 服务端标识中的语言关键字，一条标识可以命中多个关键字
	banner := strings.ToLower(software + " " + poweredBy)
	for _, keyword := range signatures.LanguageKeywords {
		if strings.Contains(banner, keyword.Keyword) {
			verdict.Inferred.Languages = appendUnique(verdict.Inferred.Languages, keyword.Language)
		}
	}

	var parts []string
	for _, category := range primaryCategories {
		if name, ok := verdict.Primary[category]; ok {
			parts = append(parts, summaryLabels[category]+": "+name)
		}
	}
	if waf.Detected {
		parts = append(parts, "WAF: "+waf.Provider)
	}
	if len(verdict.Inferred.Languages) > 0 {
		parts = append(parts, "Languages: "+strings.Join(verdict.Inferred.Languages, ", "))
	}
	if len(verdict.Inferred.Databases) > 0 {
		parts = append(parts, "Databases: "+strings.Join(verdict.Inferred.Databases, ", "))
	}
	verdict.Summary = strings.Join(parts, " | ")
	verdict.Confidence = ConfidenceTier(maxPrimaryScore)

	return verdict
}
