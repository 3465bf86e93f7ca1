package backtest

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/shopspring/decimal"
)

func init() {
	decimal.MarshalJSONWithoutQuotes = true
}

// Event type tags used in the JSONL stream.
const (
	evtPriceUpdate    = "price-update"
	evtCashFlow       = "cash-flow"
	evtRestingOrder   = "resting-order"
	evtCanceledOrder  = "canceled-order"
	evtFilledOrder    = "filled-order"
	evtOptionExpired  = "option-expired"
	evtOptionAssigned = "option-assigned"
)

// instrumentJSON is the wire form of an Instrument. Option terms are only
// present for options; the OCC symbol is derived, never stored.
type instrumentJSON struct {
	Ticker     string `json:"ticker"`
	Kind       string `json:"kind"`
	Expiration string `json:"expiration,omitempty"`
	Strike     string `json:"strike,omitempty"`
	Type       string `json:"type,omitempty"`
}

func encodeInstrument(i Instrument) instrumentJSON {
	if i.Kind() == Stock {
		return instrumentJSON{Ticker: i.Symbol(), Kind: Stock.String()}
	}
	return instrumentJSON{
		Ticker:     i.Underlying().Symbol(),
		Kind:       Option.String(),
		Expiration: i.Expiration().Format("2006-01-02"),
		Strike:     i.Strike().String(),
		Type:       i.OptionType().String(),
	}
}

func (j instrumentJSON) instrument() (Instrument, error) {
	kind, err := ParseKind(j.Kind)
	if err != nil {
		return Instrument{}, err
	}
	if kind == Stock {
		return NewStock(j.Ticker), nil
	}
	expiration, err := time.Parse("2006-01-02", j.Expiration)
	if err != nil {
		return Instrument{}, fmt.Errorf("invalid expiration %q: %w", j.Expiration, err)
	}
	strike, err := decimal.NewFromString(j.Strike)
	if err != nil {
		return Instrument{}, fmt.Errorf("invalid strike %q: %w", j.Strike, err)
	}
	typ, err := ParseOptionType(j.Type)
	if err != nil {
		return Instrument{}, err
	}
	return NewOption(j.Ticker, expiration, strike, typ), nil
}

// head writes the fields shared by every event, first and in a fixed order.
func (b base) head(w *jsonObjectWriter, tag string) *jsonObjectWriter {
	return w.Append("event", tag).
		Append("seq", b.seq).
		Append("time", b.ts.Format(time.RFC3339Nano))
}

// headJSON is the wire form of the shared event fields.
type headJSON struct {
	Event string `json:"event"`
	Seq   int64  `json:"seq"`
	Time  string `json:"time"`
}

func (h headJSON) base() (base, error) {
	ts, err := time.Parse(time.RFC3339Nano, h.Time)
	if err != nil {
		return base{}, fmt.Errorf("invalid event time %q: %w", h.Time, err)
	}
	return base{ts: ts, seq: h.Seq}, nil
}

func (e PriceUpdate) MarshalJSON() ([]byte, error) {
	w := &jsonObjectWriter{}
	return e.head(w, evtPriceUpdate).Append("prices", e.Prices).MarshalJSON()
}

func (e CashFlowChange) MarshalJSON() ([]byte, error) {
	w := &jsonObjectWriter{}
	return e.head(w, evtCashFlow).Append("amount", e.Amount).MarshalJSON()
}

func (o *RestingOrder) MarshalJSON() ([]byte, error) {
	w := &jsonObjectWriter{}
	return o.head(w, evtRestingOrder).
		Append("instrument", encodeInstrument(o.Instrument)).
		Append("side", o.Side.String()).
		Append("quantity", o.Quantity).
		Append("limitPrice", o.LimitPrice).
		Optional("commissionRate", o.CommissionRate).
		MarshalJSON()
}

func (e CanceledOrder) MarshalJSON() ([]byte, error) {
	w := &jsonObjectWriter{}
	return e.head(w, evtCanceledOrder).Append("orderId", e.OrderID).MarshalJSON()
}

func (o FilledOrder) MarshalJSON() ([]byte, error) {
	w := &jsonObjectWriter{}
	return o.head(w, evtFilledOrder).
		Append("instrument", encodeInstrument(o.Instrument)).
		Append("side", o.Side.String()).
		Append("quantity", o.Quantity).
		Append("price", o.Price).
		Append("filledAt", o.FilledAt.Format(time.RFC3339Nano)).
		Optional("commissionRate", o.CommissionRate).
		Optional("orderId", o.OrderID).
		MarshalJSON()
}

func (e OptionExpired) MarshalJSON() ([]byte, error) {
	w := &jsonObjectWriter{}
	return e.head(w, evtOptionExpired).Append("instrument", encodeInstrument(e.Instrument)).MarshalJSON()
}

func (e OptionAssigned) MarshalJSON() ([]byte, error) {
	w := &jsonObjectWriter{}
	return e.head(w, evtOptionAssigned).Append("instrument", encodeInstrument(e.Instrument)).MarshalJSON()
}

// EncodeEvent marshals a single event and writes it to w followed by a
// newline, in JSONL format.
func EncodeEvent(w io.Writer, ev Event) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("failed to marshal event %d: %w", ev.Seq(), err)
	}
	if _, err := w.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("failed to write event %d: %w", ev.Seq(), err)
	}
	return nil
}

// EncodeEvents persists an event stream to w, one JSON object per line.
func EncodeEvents(w io.Writer, events []Event) error {
	for _, ev := range events {
		if err := EncodeEvent(w, ev); err != nil {
			return err
		}
	}
	return nil
}

// DecodeEvents reads a JSONL event stream from r and reconstructs the
// events with their original sequence ids and timestamps. Empty lines are
// skipped. The stream must be chronological; equal timestamps keep their
// file order.
func DecodeEvents(r io.Reader) ([]Event, error) {
	var events []Event
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		ev, err := decodeEvent(line)
		if err != nil {
			return nil, fmt.Errorf("line %q: %w", string(line), err)
		}
		if n := len(events); n > 0 && ev.When().Before(events[n-1].When()) {
			return nil, fmt.Errorf("event %d at %s is out of order", ev.Seq(), ev.When().Format(time.RFC3339Nano))
		}
		events = append(events, ev)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading event stream: %w", err)
	}
	return events, nil
}

func decodeEvent(line []byte) (Event, error) {
	var head headJSON
	if err := json.Unmarshal(line, &head); err != nil {
		return nil, fmt.Errorf("could not identify event: %w", err)
	}
	b, err := head.base()
	if err != nil {
		return nil, err
	}

	switch head.Event {
	case evtPriceUpdate:
		var temp struct {
			Prices map[string]decimal.Decimal `json:"prices"`
		}
		if err := json.Unmarshal(line, &temp); err != nil {
			return nil, err
		}
		return PriceUpdate{base: b, Prices: temp.Prices}, nil

	case evtCashFlow:
		var temp struct {
			Amount decimal.Decimal `json:"amount"`
		}
		if err := json.Unmarshal(line, &temp); err != nil {
			return nil, err
		}
		return CashFlowChange{base: b, Amount: temp.Amount}, nil

	case evtRestingOrder:
		var temp struct {
			Instrument     instrumentJSON  `json:"instrument"`
			Side           string          `json:"side"`
			Quantity       decimal.Decimal `json:"quantity"`
			LimitPrice     decimal.Decimal `json:"limitPrice"`
			CommissionRate decimal.Decimal `json:"commissionRate"`
		}
		if err := json.Unmarshal(line, &temp); err != nil {
			return nil, err
		}
		instrument, err := temp.Instrument.instrument()
		if err != nil {
			return nil, err
		}
		side, err := ParseSide(temp.Side)
		if err != nil {
			return nil, err
		}
		return &RestingOrder{
			base:           b,
			Instrument:     instrument,
			Side:           side,
			Quantity:       temp.Quantity,
			LimitPrice:     temp.LimitPrice,
			CommissionRate: temp.CommissionRate,
			Status:         Open,
		}, nil

	case evtCanceledOrder:
		var temp struct {
			OrderID int64 `json:"orderId"`
		}
		if err := json.Unmarshal(line, &temp); err != nil {
			return nil, err
		}
		return CanceledOrder{base: b, OrderID: temp.OrderID}, nil

	case evtFilledOrder:
		var temp struct {
			Instrument     instrumentJSON  `json:"instrument"`
			Side           string          `json:"side"`
			Quantity       decimal.Decimal `json:"quantity"`
			Price          decimal.Decimal `json:"price"`
			FilledAt       string          `json:"filledAt"`
			CommissionRate decimal.Decimal `json:"commissionRate"`
			OrderID        int64           `json:"orderId"`
		}
		if err := json.Unmarshal(line, &temp); err != nil {
			return nil, err
		}
		instrument, err := temp.Instrument.instrument()
		if err != nil {
			return nil, err
		}
		side, err := ParseSide(temp.Side)
		if err != nil {
			return nil, err
		}
		filledAt, err := time.Parse(time.RFC3339Nano, temp.FilledAt)
		if err != nil {
			return nil, fmt.Errorf("invalid filledAt %q: %w", temp.FilledAt, err)
		}
		return FilledOrder{
			base:           b,
			Instrument:     instrument,
			Side:           side,
			Quantity:       temp.Quantity,
			Price:          temp.Price,
			FilledAt:       filledAt,
			CommissionRate: temp.CommissionRate,
			OrderID:        temp.OrderID,
		}, nil

	case evtOptionExpired, evtOptionAssigned:
		var temp struct {
			Instrument instrumentJSON `json:"instrument"`
		}
		if err := json.Unmarshal(line, &temp); err != nil {
			return nil, err
		}
		instrument, err := temp.Instrument.instrument()
		if err != nil {
			return nil, err
		}
		if head.Event == evtOptionExpired {
			return OptionExpired{base: b, Instrument: instrument}, nil
		}
		return OptionAssigned{base: b, Instrument: instrument}, nil

	default:
		return nil, fmt.Errorf("unknown event tag %q", head.Event)
	}
}

// Resume advances the sequencer past every event in the stream, so that
// newly created events continue the id sequence of a decoded stream.
func (s *Sequencer) Resume(events []Event) {
	for _, ev := range events {
		if ev.Seq() > s.last {
			s.last = ev.Seq()
		}
	}
}
