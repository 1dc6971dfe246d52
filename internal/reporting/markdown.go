package reporting

import (
	"fmt"
	"strings"
	"time"

	"defi-yield-lab/internal/domain"
)

// RenderMarkdown renders report as Markdown string.
func RenderMarkdown(r *Report) string {
	var sb strings.Builder

	// Header
	sb.WriteString("# Yield Analysis Report\n\n")
	sb.WriteString(fmt.Sprintf("Generated: %s\n\n", r.GeneratedAt.Format(time.RFC3339)))
	sb.WriteString(fmt.Sprintf("Pools: %d | Dates: %d\n\n", r.PoolCount, r.DateCount))
	if !r.WindowStart.IsZero() {
		sb.WriteString(fmt.Sprintf("Window: %s to %s\n\n",
			r.WindowStart.Format("2006-01-02"), r.WindowEnd.Format("2006-01-02")))
	}

	// Pool statistics
	sb.WriteString("## Pool Statistics\n\n")
	if len(r.Statistics) > 0 {
		sb.WriteString("| Pool | Metric | Mean | Stddev | Min | Max | Volatility | Days |\n")
		sb.WriteString("|------|--------|------|--------|-----|-----|------------|------|\n")
		for _, st := range r.Statistics {
			volatility := "-"
			if st.VolatilityDefined {
				volatility = fmt.Sprintf("%.4f", st.Volatility)
			}
			if st.Defined {
				sb.WriteString(fmt.Sprintf("| %s | %s | %.4f | %.4f | %.4f | %.4f | %s | %d |\n",
					st.Pool, st.Metric, st.Mean, st.Stddev, st.Min, st.Max, volatility, st.Count))
			} else {
				sb.WriteString(fmt.Sprintf("| %s | %s | - | - | - | - | - | %d |\n",
					st.Pool, st.Metric, st.Count))
			}
		}
	} else {
		sb.WriteString("No pool statistics available.\n")
	}
	sb.WriteString("\n")

	// Per-metric sections
	for _, metric := range domain.AllMetrics() {
		sb.WriteString(fmt.Sprintf("## Best Pool by %s\n\n", metric))

		shares := r.Shares[metric]
		if len(shares) > 0 {
			sb.WriteString("| Pool | Days Best | Share |\n")
			sb.WriteString("|------|-----------|-------|\n")
			for _, s := range shares {
				sb.WriteString(fmt.Sprintf("| %s | %d | %.1f%% |\n", s.Pool, s.Days, s.Share*100))
			}
			sb.WriteString("\n")
		} else {
			sb.WriteString("No decisions available.\n\n")
		}

		realized := r.Realized[metric]
		if realized.Defined {
			sb.WriteString(fmt.Sprintf("Realized yield over %d decided days", realized.Days))
			if realized.Skipped > 0 {
				sb.WriteString(fmt.Sprintf(" (%d skipped)", realized.Skipped))
			}
			sb.WriteString(fmt.Sprintf(": mean %.4f, stddev %.4f, min %.4f, max %.4f",
				realized.Mean, realized.Stddev, realized.Min, realized.Max))
			if realized.VolatilityDefined {
				sb.WriteString(fmt.Sprintf(", volatility %.4f", realized.Volatility))
			}
			sb.WriteString("\n\n")
		}
	}

	return sb.String()
}
