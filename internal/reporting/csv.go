package reporting

import (
	"fmt"
	"strings"

	"defi-yield-lab/internal/domain"
)

// RenderStatisticsCSV renders per-pool statistics as CSV string.
// Undefined rows keep empty value fields; an empty cell and a zero must
// stay distinguishable.
func RenderStatisticsCSV(statistics []domain.PoolStatistics) string {
	var sb strings.Builder

	sb.WriteString("protocol,asset,chain,metric,mean,stddev,min,max,volatility,count,defined\n")

	for _, st := range statistics {
		// Volatility has its own guard; a defined row can still leave it empty.
		volatility := ""
		if st.VolatilityDefined {
			volatility = fmt.Sprintf("%.6f", st.Volatility)
		}

		if st.Defined {
			sb.WriteString(fmt.Sprintf("%s,%s,%s,%s,%.6f,%.6f,%.6f,%.6f,%s,%d,true\n",
				st.Pool.Protocol, st.Pool.Asset, st.Pool.Chain, st.Metric,
				st.Mean, st.Stddev, st.Min, st.Max, volatility, st.Count))
		} else {
			sb.WriteString(fmt.Sprintf("%s,%s,%s,%s,,,,,,%d,false\n",
				st.Pool.Protocol, st.Pool.Asset, st.Pool.Chain, st.Metric, st.Count))
		}
	}

	return sb.String()
}

// RenderAggregateCSV renders one metric's weighted series as CSV string.
func RenderAggregateCSV(points []domain.WeightedAggregatePoint) string {
	var sb strings.Builder

	sb.WriteString("date,value,total_tvl,defined\n")

	for _, p := range points {
		date := p.Date.Format("2006-01-02")
		if p.Defined {
			sb.WriteString(fmt.Sprintf("%s,%.6f,%.2f,true\n", date, p.Value, p.TotalTVL))
		} else {
			sb.WriteString(fmt.Sprintf("%s,,%.2f,false\n", date, p.TotalTVL))
		}
	}

	return sb.String()
}

// RenderDecisionCSV renders one metric's best-pool series as CSV string.
func RenderDecisionCSV(decisions []domain.AllocationDecision) string {
	var sb strings.Builder

	sb.WriteString("date,protocol,asset,chain,value,decided\n")

	for _, d := range decisions {
		date := d.Date.Format("2006-01-02")
		if d.Decided {
			sb.WriteString(fmt.Sprintf("%s,%s,%s,%s,%.6f,true\n",
				date, d.Pool.Protocol, d.Pool.Asset, d.Pool.Chain, d.Value))
		} else {
			sb.WriteString(fmt.Sprintf("%s,,,,,false\n", date))
		}
	}

	return sb.String()
}
