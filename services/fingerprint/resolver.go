package fingerprint

import (
	"sort"
	"strings"

	"github.com/shahidirfan100/Website-Tech-Stack-Detector/services/fingerprint/signatures"
)

// FormatTech 输出形如 "Wordpress 6.3" 的展示名，无版本时只有名称
func FormatTech(match *TechMatch) string {
	if match.Version != "" {
		return match.Name + " " + match.Version
	}
	return match.Name
}

// Resolve 对原始证据做阈值过滤和类别归组。
// cms 只保留最高分的一个，其他类别全量保留，
// 同类别内按置信度降序排列，同分时按指纹库声明顺序
func Resolve(matches map[string]*TechMatch) map[string][]*TechMatch {
	resolved := make(map[string][]*TechMatch)

	for _, match := range matches {
		if match.Confidence < signatures.CategoryThreshold(match.Category) {
			continue
		}
		resolved[match.Category] = append(resolved[match.Category], match)
	}

	for category, items := range resolved {
		sort.SliceStable(items, func(i, j int) bool {
			if items[i].Confidence != items[j].Confidence {
				return items[i].Confidence > items[j].Confidence
			}
			return items[i].Order < items[j].Order
		})
		// 真实网站极少同时运行两个 CMS，只留胜者
		if category == signatures.CategoryCMS && len(items) > 1 {
			items = items[:1]
		}
		resolved[category] = items
	}

	return resolved
}

// FormatCategory 格式化单个类别的展示名单，大小写不敏感去重并保留首见写法
func FormatCategory(items []*TechMatch) []string {
	formatted := make([]string, 0, len(items))
	seen := make(map[string]struct{}, len(items))
	for _, match := range items {
		name := FormatTech(match)
		lower := strings.ToLower(name)
		if _, ok := seen[lower]; ok {
			continue
		}
		seen[lower] = struct{}{}
		formatted = append(formatted, name)
	}
	return formatted
}
