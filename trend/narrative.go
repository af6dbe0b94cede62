package trend

import (
	"fmt"
	"strings"

	"github.com/sartorproj/regiocast/arima"
)

// Narrative renders the summary as report paragraphs. Values are shown in
// thousands with a "k" suffix and two decimals; emphasis uses Markdown bold.
// The forecast paragraphs are included only when the summary has a forecast.
func Narrative(s *Summary, variable, region string) string {
	if s == nil {
		return ""
	}

	var b strings.Builder
	if region != "" {
		fmt.Fprintf(&b, "#### Summary for %s\n\n", region)
	}
	fmt.Fprintf(&b,
		"Between **%d** and **%d**, %s exhibited a **%s** trend with a net change of **%.2fk**, or **%.2f%%**.\n\n",
		s.EarliestYear, s.LatestYear, variable, s.Direction, s.AbsoluteChange, s.PercentChange)
	fmt.Fprintf(&b,
		"The average annual change during this period was **%.2fk/year**.\n",
		s.AvgAnnualChange)

	if p := s.Forecast; p != nil {
		fmt.Fprintf(&b, "\n### Forecast (%d - %d)\n\n", p.FirstYear, p.LastYear)
		fmt.Fprintf(&b,
			"Over the forecast horizon, the value is expected to reach **%.2fk**, representing a projected change of **%.2fk** or **%.2f%%**.\n\n",
			p.LastValue, p.AbsoluteChange, p.PercentChange)
		fmt.Fprintf(&b,
			"The average expected annual growth/change is approximately **%.2fk/year**.\n",
			p.AvgAnnualChange)
	}

	return b.String()
}

// ModelNote is the caveat shown under every forecast.
func ModelNote(order arima.Order) string {
	return fmt.Sprintf("*Note: This forecast is based on an ARIMA (p=%d, d=%d, q=%d) model. Actual values may vary due to external influences.*",
		order.P, order.D, order.Q)
}
