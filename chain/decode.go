package chain

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/PaesslerAG/jsonpath"
	"github.com/shopspring/decimal"
)

// DecodeJSON reads a chain snapshot document of the form
//
//	{"quotes": [{"symbol": "...", "ts": "...", "bid": 3.1, "ask": 3.3}, ...]}
//
// Providers are sloppy about number encoding, so bid and ask are accepted as
// JSON numbers or as strings, including strings with a comma decimal mark.
func DecodeJSON(r io.Reader) ([]Quote, error) {
	var jobj any
	if err := json.NewDecoder(r).Decode(&jobj); err != nil {
		return nil, fmt.Errorf("decoding chain document: %w", err)
	}

	jval, err := jsonpath.Get("$.quotes[*]", jobj)
	if err != nil {
		return nil, fmt.Errorf("chain document has no quotes array: %w", err)
	}
	items, ok := jval.([]any)
	if !ok {
		items = []any{jval}
	}

	quotes := make([]Quote, 0, len(items))
	for i, item := range items {
		m, ok := item.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("quote %d is not an object", i)
		}
		symbol, ok := m["symbol"].(string)
		if !ok || symbol == "" {
			return nil, fmt.Errorf("quote %d has no symbol", i)
		}
		tss, ok := m["ts"].(string)
		if !ok {
			return nil, fmt.Errorf("quote %d (%s) has no ts", i, symbol)
		}
		ts, err := time.Parse(time.RFC3339Nano, tss)
		if err != nil {
			return nil, fmt.Errorf("quote %d (%s): invalid ts %q: %w", i, symbol, tss, err)
		}
		bid, err := jsonNumber(m["bid"])
		if err != nil {
			return nil, fmt.Errorf("quote %d (%s): bid: %w", i, symbol, err)
		}
		ask, err := jsonNumber(m["ask"])
		if err != nil {
			return nil, fmt.Errorf("quote %d (%s): ask: %w", i, symbol, err)
		}
		quotes = append(quotes, Quote{Symbol: symbol, Time: ts, Bid: bid, Ask: ask})
	}
	return quotes, nil
}

// jsonNumber coerces a decoded JSON value into a decimal. Missing values
// count as zero, the way providers encode an empty side of the book.
func jsonNumber(v any) (decimal.Decimal, error) {
	switch t := v.(type) {
	case nil:
		return decimal.Zero, nil
	case float64:
		return decimal.NewFromFloat(t), nil
	case string:
		s := strings.ReplaceAll(t, ",", ".")
		s = strings.ReplaceAll(s, " ", "")
		if s == "" || s == "./." {
			return decimal.Zero, nil
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return decimal.Zero, fmt.Errorf("invalid number string %q: %w", t, err)
		}
		return decimal.NewFromFloat(f), nil
	default:
		return decimal.Zero, fmt.Errorf("neither a number nor a string: %v", v)
	}
}

// LoadFile reads a chain snapshot file. See DecodeJSON.
func LoadFile(path string) (*Chain, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	quotes, err := DecodeJSON(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return New(quotes), nil
}
