package fingerprint

import (
	"strings"

	"github.com/shahidirfan100/Website-Tech-Stack-Detector/services/fingerprint/result"
	"github.com/shahidirfan100/Website-Tech-Stack-Detector/services/fingerprint/signatures"
)

// ConfidenceTier 分数转三档置信度
func ConfidenceTier(score int) string {
	switch {
	case score >= signatures.WAFScoreHigh:
		return "high"
	case score >= signatures.WAFScoreMedium:
		return "medium"
	default:
		return "low"
	}
}

// ScoreWAF 独立于技术识别的防火墙评分，
// 最高分厂商胜出，同分时先声明者胜出，零分不报
func ScoreWAF(headers map[string][]string, cookies []string, html string) result.WAF {
	var winner *signatures.WAFSignature
	var winnerScore int

	serverBanner := strings.Join(headers["server"], " ")

	for _, sig := range signatures.WAFSignatures {
		score := 0

		// 响应头名存在即计分，逐个累计
		for _, headerName := range sig.Headers {
			if _, ok := headers[headerName]; ok {
				score += signatures.WAFWeightHeader
			}
		}

		// cookie 名前缀逐个累计
		for _, cookie := range sig.CookiePrefixes {
			for _, raw := range cookies {
				if strings.HasPrefix(strings.ToLower(raw), cookie) {
					score += signatures.WAFWeightCookie
				}
			}
		}

		// server 标识与正文命中都是一次性计分，不按出现次数累计
		if sig.Server != nil && serverBanner != "" && sig.Server.MatchString(serverBanner) {
			score += signatures.WAFWeightServer
		}
		if sig.Body != nil && html != "" && sig.Body.MatchString(html) {
			score += signatures.WAFWeightBody
		}

		if score > winnerScore {
			winner = sig
			winnerScore = score
		}
	}

	if winner == nil {
		return result.WAF{Detected: false}
	}
	return result.WAF{
		Detected:   true,
		Provider:   winner.Name,
		Confidence: ConfidenceTier(winnerScore),
		Score:      winnerScore,
	}
}
