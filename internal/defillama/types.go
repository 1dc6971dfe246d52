package defillama

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Pool is one entry from the yields /pools listing.
type Pool struct {
	PoolID    string   `json:"pool"`
	Project   string   `json:"project"`
	Symbol    string   `json:"symbol"`
	Chain     string   `json:"chain"`
	TVLUSD    float64  `json:"tvlUsd"`
	APY       *float64 `json:"apy"`
	APYBase   *float64 `json:"apyBase"`
	APYReward *float64 `json:"apyReward"`
}

// poolsResponse is the raw /pools envelope.
type poolsResponse struct {
	Status string `json:"status"`
	Data   []Pool `json:"data"`
}

// ChartPoint is one entry from the /chart/{pool} history.
// APY fields are pointers because the source reports missing components
// as null rather than zero.
type ChartPoint struct {
	Timestamp Timestamp `json:"timestamp"`
	TVLUSD    float64   `json:"tvlUsd"`
	APY       *float64  `json:"apy"`
	APYBase   *float64  `json:"apyBase"`
	APYReward *float64  `json:"apyReward"`
}

// chartResponse is the raw /chart/{pool} envelope.
type chartResponse struct {
	Status string       `json:"status"`
	Data   []ChartPoint `json:"data"`
}

// Timestamp decodes the source's inconsistent timestamp encoding: some
// responses carry unix seconds, others RFC 3339 strings, others a bare
// YYYY-MM-DD date.
type Timestamp struct {
	time.Time
}

// UnmarshalJSON implements json.Unmarshaler.
func (t *Timestamp) UnmarshalJSON(data []byte) error {
	// Unix seconds
	var unix int64
	if err := json.Unmarshal(data, &unix); err == nil {
		t.Time = time.Unix(unix, 0).UTC()
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("timestamp is neither number nor string: %s", string(data))
	}

	if parsed, err := time.Parse(time.RFC3339, s); err == nil {
		t.Time = parsed.UTC()
		return nil
	}

	// Bare date, possibly with a trailing time part we can't parse
	datePart := s
	if idx := strings.IndexByte(s, 'T'); idx >= 0 {
		datePart = s[:idx]
	}
	parsed, err := time.Parse("2006-01-02", datePart)
	if err != nil {
		return fmt.Errorf("unparseable timestamp %q", s)
	}
	t.Time = parsed.UTC()
	return nil
}
