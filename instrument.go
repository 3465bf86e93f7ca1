package backtest

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Kind identifies the kind of tradable instrument.
type Kind int

const (
	Stock Kind = iota
	Option
)

func (k Kind) String() string {
	switch k {
	case Stock:
		return "stock"
	case Option:
		return "option"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// ParseKind parses the textual form produced by Kind.String.
func ParseKind(s string) (Kind, error) {
	switch s {
	case "stock":
		return Stock, nil
	case "option":
		return Option, nil
	default:
		return 0, fmt.Errorf("unknown instrument kind %q", s)
	}
}

// OptionType distinguishes calls from puts.
type OptionType int

const (
	Call OptionType = iota
	Put
)

func (t OptionType) String() string {
	switch t {
	case Call:
		return "call"
	case Put:
		return "put"
	default:
		return fmt.Sprintf("OptionType(%d)", int(t))
	}
}

// ParseOptionType parses the textual form produced by OptionType.String.
func ParseOptionType(s string) (OptionType, error) {
	switch s {
	case "call":
		return Call, nil
	case "put":
		return Put, nil
	default:
		return 0, fmt.Errorf("unknown option type %q", s)
	}
}

// letter returns the single-letter OCC code for the option type.
func (t OptionType) letter() string {
	if t == Put {
		return "P"
	}
	return "C"
}

var (
	stockMultiplier  = decimal.NewFromInt(1)
	optionMultiplier = decimal.NewFromInt(100)
	strikeScale      = decimal.NewFromInt(1000)
)

// Instrument identifies a tradable asset: a stock, or an option contract on
// a stock. Instruments are immutable values; two instruments are the same
// iff their symbols are equal. The zero value is not usable, construct with
// NewStock or NewOption.
type Instrument struct {
	symbol     string
	kind       Kind
	multiplier decimal.Decimal

	// option contract terms, zero for stocks
	underlying string
	expiration time.Time
	strike     decimal.Decimal
	optType    OptionType
}

// NewStock returns the instrument for a plain stock ticker.
func NewStock(ticker string) Instrument {
	return Instrument{
		symbol:     ticker,
		kind:       Stock,
		multiplier: stockMultiplier,
	}
}

// NewOption returns the instrument for a standard listed option contract on
// the given underlying ticker. The symbol follows the OCC convention: the
// ticker padded to six characters, the expiration day as yymmdd, C or P, and
// the strike times 1000 zero-padded to eight digits. The contract multiplier
// is 100. Expiration is kept at day granularity in UTC.
func NewOption(underlying string, expiration time.Time, strike decimal.Decimal, typ OptionType) Instrument {
	day := time.Date(expiration.Year(), expiration.Month(), expiration.Day(), 0, 0, 0, 0, time.UTC)
	symbol := fmt.Sprintf("%-6s%s%s%08d",
		underlying,
		day.Format("060102"),
		typ.letter(),
		strike.Mul(strikeScale).IntPart(),
	)
	return Instrument{
		symbol:     symbol,
		kind:       Option,
		multiplier: optionMultiplier,
		underlying: underlying,
		expiration: day,
		strike:     strike,
		optType:    typ,
	}
}

// Symbol returns the unique identifier of the instrument: the ticker for a
// stock, the OCC symbol for an option.
func (i Instrument) Symbol() string { return i.symbol }

// Kind reports whether the instrument is a Stock or an Option.
func (i Instrument) Kind() Kind { return i.kind }

// Multiplier returns the units of underlying exposure per unit of position:
// 1 for stocks, 100 for option contracts.
func (i Instrument) Multiplier() decimal.Decimal { return i.multiplier }

// Underlying returns the stock instrument an option is written on. Calling
// it on a stock returns the stock itself.
func (i Instrument) Underlying() Instrument {
	if i.kind == Stock {
		return i
	}
	return NewStock(i.underlying)
}

// Expiration returns the expiration day of an option, at UTC midnight. It is
// the zero time for stocks.
func (i Instrument) Expiration() time.Time { return i.expiration }

// Strike returns the strike price of an option, zero for stocks.
func (i Instrument) Strike() decimal.Decimal { return i.strike }

// OptionType returns Call or Put. Only meaningful for options.
func (i Instrument) OptionType() OptionType { return i.optType }

func (i Instrument) String() string { return i.symbol }
