// Package market standardizes the bar and signal records shared between the
// feed, indicator, strategy, filter, and engine layers.
package market

import "time"

// Label names the directional state of a signal.
type Label string

const (
	Long  Label = "LONG"
	Short Label = "SHORT"
	Flat  Label = "FLAT"
)

// Bar is one daily OHLCV row plus the derived indicator columns. Bars are
// produced once by the indicator stage and treated as read-only downstream.
type Bar struct {
	Date   time.Time
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume float64

	// Indicator columns. Meaningless before the indicator stage ran.
	RSI     float64
	SMA20   float64
	SMA50   float64 // computed as a 20-period proxy; carried but unused
	ATR     float64
	BBMid   float64
	BBStd   float64
	BBUpper float64
	BBLower float64
}

// Signal is the directional decision for one bar. Direction and Label move
// together: Direction == 0 exactly when Label == Flat.
type Signal struct {
	Date      time.Time
	Direction int // +1 long, -1 short, 0 flat
	Label     Label
}

// NewSignal builds a signal from a direction, keeping Label consistent.
func NewSignal(date time.Time, direction int) Signal {
	label := Flat
	switch {
	case direction > 0:
		label = Long
	case direction < 0:
		label = Short
	}
	return Signal{Date: date, Direction: direction, Label: label}
}

// Flatten returns a copy of the signal forced to FLAT.
func (s Signal) Flatten() Signal {
	return Signal{Date: s.Date, Direction: 0, Label: Flat}
}
