package backtest

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestNewStock(t *testing.T) {
	s := NewStock("AAPL")
	if got, want := s.Symbol(), "AAPL"; got != want {
		t.Errorf("Symbol() = %q, want %q", got, want)
	}
	if s.Kind() != Stock {
		t.Errorf("Kind() = %v, want Stock", s.Kind())
	}
	if !s.Multiplier().Equal(decimal.NewFromInt(1)) {
		t.Errorf("Multiplier() = %s, want 1", s.Multiplier())
	}
	if got := s.Underlying(); got.Symbol() != "AAPL" {
		t.Errorf("Underlying() = %q, want the stock itself", got.Symbol())
	}
}

func TestNewOptionSymbol(t *testing.T) {
	tests := []struct {
		name       string
		underlying string
		expiration time.Time
		strike     decimal.Decimal
		typ        OptionType
		want       string
	}{
		{
			name:       "call",
			underlying: "AAPL",
			expiration: time.Date(2025, 1, 17, 0, 0, 0, 0, time.UTC),
			strike:     decimal.NewFromInt(150),
			typ:        Call,
			want:       "AAPL  250117C00150000",
		},
		{
			name:       "put",
			underlying: "SPY",
			expiration: time.Date(2024, 12, 20, 0, 0, 0, 0, time.UTC),
			strike:     decimal.NewFromInt(450),
			typ:        Put,
			want:       "SPY   241220P00450000",
		},
		{
			name:       "fractional strike",
			underlying: "F",
			expiration: time.Date(2025, 6, 20, 0, 0, 0, 0, time.UTC),
			strike:     decimal.RequireFromString("12.5"),
			typ:        Call,
			want:       "F     250620C00012500",
		},
		{
			name:       "six char ticker unpadded",
			underlying: "GOOGL",
			expiration: time.Date(2025, 3, 21, 0, 0, 0, 0, time.UTC),
			strike:     decimal.NewFromInt(2000),
			typ:        Put,
			want:       "GOOGL 250321P02000000",
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			o := NewOption(tc.underlying, tc.expiration, tc.strike, tc.typ)
			if got := o.Symbol(); got != tc.want {
				t.Errorf("Symbol() = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestNewOptionTerms(t *testing.T) {
	expiration := time.Date(2025, 1, 17, 14, 30, 0, 0, time.UTC) // intraday timestamp
	o := NewOption("AAPL", expiration, decimal.NewFromInt(150), Put)

	if o.Kind() != Option {
		t.Errorf("Kind() = %v, want Option", o.Kind())
	}
	if !o.Multiplier().Equal(decimal.NewFromInt(100)) {
		t.Errorf("Multiplier() = %s, want 100", o.Multiplier())
	}
	if got, want := o.Underlying().Symbol(), "AAPL"; got != want {
		t.Errorf("Underlying() = %q, want %q", got, want)
	}
	// Expiration is normalized to the day.
	if want := time.Date(2025, 1, 17, 0, 0, 0, 0, time.UTC); !o.Expiration().Equal(want) {
		t.Errorf("Expiration() = %s, want %s", o.Expiration(), want)
	}
	if o.OptionType() != Put {
		t.Errorf("OptionType() = %v, want Put", o.OptionType())
	}
	if !o.Strike().Equal(decimal.NewFromInt(150)) {
		t.Errorf("Strike() = %s, want 150", o.Strike())
	}
}

func TestParseKind(t *testing.T) {
	for _, k := range []Kind{Stock, Option} {
		got, err := ParseKind(k.String())
		if err != nil {
			t.Fatalf("ParseKind(%q): %v", k.String(), err)
		}
		if got != k {
			t.Errorf("ParseKind(%q) = %v, want %v", k.String(), got, k)
		}
	}
	if _, err := ParseKind("future"); err == nil {
		t.Error("ParseKind(\"future\") should fail")
	}
}
