// Package gamma provides a client for the Polymarket Gamma API.
package gamma

import (
	"encoding/json"
	"time"
)

// StringList is a JSON array of strings that the Gamma API sometimes
// double-encodes as a JSON string ("[\"Yes\",\"No\"]"). Both encodings
// unmarshal into a plain slice.
type StringList []string

// UnmarshalJSON accepts either a native array or a string-encoded array.
func (l *StringList) UnmarshalJSON(data []byte) error {
	if len(data) > 0 && data[0] == '[' {
		return json.Unmarshal(data, (*[]string)(l))
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	if s == "" {
		*l = nil
		return nil
	}
	return json.Unmarshal([]byte(s), (*[]string)(l))
}

// Market represents a prediction market.
type Market struct {
	ID           string     `json:"id"`
	Question     string     `json:"question"`
	Title        string     `json:"title,omitempty"`
	Description  string     `json:"description"`
	ConditionID  string     `json:"conditionId"`
	Slug         string     `json:"slug"`
	Active       bool       `json:"active"`
	Closed       bool       `json:"closed"`
	LiquidityNum float64    `json:"liquidityNum"`
	Volume24hr   float64    `json:"volume24hr"`
	EndDate      time.Time  `json:"endDate,omitempty"`
	Outcomes     StringList `json:"outcomes"`
	ClobTokenIds StringList `json:"clobTokenIds"`
}

// DisplayTitle returns the market's question, falling back to the title
// field used by some event-nested payloads.
func (m *Market) DisplayTitle() string {
	if m.Question != "" {
		return m.Question
	}
	return m.Title
}

// Event represents a prediction market event and its nested markets.
type Event struct {
	ID         string    `json:"id"`
	Slug       string    `json:"slug"`
	Title      string    `json:"title"`
	Active     bool      `json:"active"`
	Closed     bool      `json:"closed"`
	EndDate    time.Time `json:"endDate,omitempty"`
	Volume24hr float64   `json:"volume24hr"`
	Liquidity  float64   `json:"liquidity"`
	Markets    []Market  `json:"markets,omitempty"`
}

// Filter contains query parameters for API requests.
type Filter struct {
	Active    *bool
	Closed    *bool
	Slug      string
	Order     string
	Ascending *bool
	Limit     int
	Offset    int
}
