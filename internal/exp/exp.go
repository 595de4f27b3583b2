// Package exp holds the member record scraped from a guild listing and the
// rules that turn its loosely typed experience value into an integer.
package exp

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// Item is a single guild member as reported by the listing. Upstream
// producers disagree on the key of the experience value, both spellings
// are accepted.
type Item struct {
	Name              string `json:"name"`
	ExpYesterday      any    `json:"expYesterday,omitempty"`
	ExpYesterdaySnake any    `json:"exp_yesterday,omitempty"`
}

// UnmarshalJSON accepts any JSON value for the name, anything but a string
// decodes to "" so the member is dropped later instead of failing the whole
// list. Numbers are kept as json.Number.
func (i *Item) UnmarshalJSON(data []byte) error {
	var raw struct {
		Name              any `json:"name"`
		ExpYesterday      any `json:"expYesterday"`
		ExpYesterdaySnake any `json:"exp_yesterday"`
	}
	decoder := json.NewDecoder(bytes.NewReader(data))
	decoder.UseNumber()
	err := decoder.Decode(&raw)
	if err != nil {
		return err
	}
	name, _ := raw.Name.(string)
	*i = Item{
		Name:              name,
		ExpYesterday:      raw.ExpYesterday,
		ExpYesterdaySnake: raw.ExpYesterdaySnake,
	}
	return nil
}

// Normalize resolves the experience value of an item.
//
// A finite native number wins over text, and within each kind the camel case
// key wins over the snake case one. Fractional values are truncated toward
// zero. When nothing usable is found it returns 0, false.
func Normalize(item Item) (int64, bool) {
	for _, v := range []any{item.ExpYesterday, item.ExpYesterdaySnake} {
		n, ok := nativeNumber(v)
		if ok {
			return n, true
		}
	}
	for _, v := range []any{item.ExpYesterday, item.ExpYesterdaySnake} {
		text, ok := v.(string)
		if !ok {
			continue
		}
		n, ok := ParseText(text)
		if ok {
			return n, true
		}
	}
	return 0, false
}

func fromFloat(f float64) (int64, bool) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	f = math.Trunc(f)
	if f >= math.MaxInt64 || f < math.MinInt64 {
		return 0, false
	}
	return int64(f), true
}

func nativeNumber(v any) (int64, bool) {
	switch n := v.(type) {
	case int:
		return int64(n), true
	case int8:
		return int64(n), true
	case int16:
		return int64(n), true
	case int32:
		return int64(n), true
	case int64:
		return n, true
	case uint:
		return fromUint(uint64(n))
	case uint8:
		return int64(n), true
	case uint16:
		return int64(n), true
	case uint32:
		return int64(n), true
	case uint64:
		return fromUint(n)
	case float32:
		return fromFloat(float64(n))
	case float64:
		return fromFloat(n)
	case json.Number:
		i, err := n.Int64()
		if err == nil {
			return i, true
		}
		f, err := n.Float64()
		if err != nil {
			return 0, false
		}
		return fromFloat(f)
	}
	return 0, false
}

func fromUint(n uint64) (int64, bool) {
	if n > math.MaxInt64 {
		return 0, false
	}
	return int64(n), true
}

// ParseText parses numeric-looking text. Plain integers are exact, plain
// decimals are truncated ("42.9" is 42), anything else is stripped down to
// digits and signs first ("1,000" is 1000).
func ParseText(s string) (int64, bool) {
	s = strings.TrimSpace(s)
	i, err := strconv.ParseInt(s, 10, 64)
	if err == nil {
		return i, true
	}
	f, err := strconv.ParseFloat(s, 64)
	if err == nil {
		return fromFloat(f)
	}
	return ParseStripped(s)
}

// ParseStripped drops every character that is not an ascii digit, '+' or '-'
// and parses what is left as a base 10 integer.
func ParseStripped(s string) (int64, bool) {
	stripped := strings.Map(func(r rune) rune {
		if (r >= '0' && r <= '9') || r == '+' || r == '-' {
			return r
		}
		return -1
	}, s)
	n, err := strconv.ParseInt(stripped, 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}

type Summary struct {
	Members  int
	TotalExp int64
}

// Summarize counts the members of a listing and sums their experience,
// values that do not normalize are left out of the total.
func Summarize(items []Item) Summary {
	summary := Summary{Members: len(items)}
	for _, item := range items {
		n, ok := Normalize(item)
		if ok {
			summary.TotalExp += n
		}
	}
	return summary
}
