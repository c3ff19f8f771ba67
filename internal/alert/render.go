// File: internal/alert/render.go
package alert

import (
	"fmt"
	"strings"

	"apt_briefing_backend/internal/analytics"
)

// RenderBargainSubject builds the message subject for a bargain alert.
func RenderBargainSubject(items []analytics.BargainItem) string {
	return fmt.Sprintf("[급매 알림] 관심 단지에서 %d건의 급매물이 발견되었습니다", len(items))
}

// RenderBargainBody builds the consolidated plain-text body for a bargain
// alert, one block per flagged article.
func RenderBargainBody(items []analytics.BargainItem) string {
	var b strings.Builder
	b.WriteString("관심 단지 급매물 알림\n")
	b.WriteString(strings.Repeat("-", 30))
	b.WriteString("\n")

	for _, item := range items {
		name := item.ComplexName
		if name == "" {
			name = fmt.Sprintf("단지 %d", item.ComplexNo)
		}
		fmt.Fprintf(&b, "\n[%s] %s (%s)\n", name, item.ArticleName, item.TradeTypeName)
		fmt.Fprintf(&b, "  매물가: %s", item.DealPriceText)
		if item.RentPriceText != "" {
			fmt.Fprintf(&b, " / 월세 %s", item.RentPriceText)
		}
		b.WriteString("\n")
		if item.AreaM2 != nil {
			fmt.Fprintf(&b, "  면적: %.1f㎡", *item.AreaM2)
			if item.FloorInfo != "" {
				fmt.Fprintf(&b, " / %s층", item.FloorInfo)
			}
			b.WriteString("\n")
		} else if item.FloorInfo != "" {
			fmt.Fprintf(&b, "  층: %s\n", item.FloorInfo)
		}
		fmt.Fprintf(&b, "  기준가 대비 %.1f%% 저렴 (기준가 %s만원)\n",
			item.DiscountRate*100, formatManwon(item.BaselinePrice))
	}

	return b.String()
}

func formatManwon(v float64) string {
	return fmt.Sprintf("%.0f", v)
}
