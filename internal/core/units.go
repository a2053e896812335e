package core

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Unit is a data-size unit used for display.
type Unit string

const (
	MB Unit = "MB"
	GB Unit = "GB"
	TB Unit = "TB"
)

// Units lists the selectable units in display order.
var Units = []Unit{MB, GB, TB}

var unitFactors = map[Unit]float64{
	MB: 1,
	GB: 1.0 / 1024,
	TB: 1.0 / (1024 * 1024),
}

// Factor returns the multiplier converting megabytes into u.
// Unknown units convert as MB.
func (u Unit) Factor() float64 {
	if f, ok := unitFactors[u]; ok {
		return f
	}
	return 1
}

// Valid reports whether u is one of MB, GB, TB.
func (u Unit) Valid() bool {
	_, ok := unitFactors[u]
	return ok
}

func (u Unit) String() string {
	return string(u)
}

// ParseUnit accepts unit names case-insensitively. An empty string yields MB.
func ParseUnit(s string) (Unit, error) {
	s = strings.ToUpper(strings.TrimSpace(s))
	if s == "" {
		return MB, nil
	}
	u := Unit(s)
	if !u.Valid() {
		return MB, fmt.Errorf("%w: %q (want one of MB, GB, TB)", ErrInvalidUnit, s)
	}
	return u, nil
}

// Convert scales a megabyte value into unit.
func Convert(mb float64, unit Unit) float64 {
	return mb * unit.Factor()
}

// FormatQuantity renders v with two decimals (half-up) and the unit suffix,
// e.g. "12.35 GB".
func FormatQuantity(v float64, unit Unit) string {
	return FormatNumber(v) + " " + string(unit)
}

// FormatNumber renders v with two decimals, half-up.
func FormatNumber(v float64) string {
	return decimal.NewFromFloat(v).StringFixed(2)
}

// MonthName returns the English month name for m (1-12), e.g. "January".
func MonthName(m int) string {
	if m < 1 || m > 12 {
		return fmt.Sprintf("Month %d", m)
	}
	return time.Month(m).String()
}
