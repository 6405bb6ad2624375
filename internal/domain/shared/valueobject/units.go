package valueobject

import (
	"errors"

	"github.com/shopspring/decimal"
)

// UnitMinutes is the length of one billing unit
const UnitMinutes = 15

// UnitsPerHour is the number of billing units in an hour
const UnitsPerHour = 60 / UnitMinutes

// MaxMinutesPerDay bounds a single entry
const MaxMinutesPerDay = 24 * 60

// ErrNegativeDuration is returned for durations below zero
var ErrNegativeDuration = errors.New("duration cannot be negative")

var unitsPerHour = decimal.NewFromInt(UnitsPerHour)

// UnitsFromMinutes converts minutes worked into whole billing units.
// Partial units are not billed: 29 minutes is 1 unit, 30 minutes is 2.
func UnitsFromMinutes(minutes int) (int, error) {
	if minutes < 0 {
		return 0, ErrNegativeDuration
	}
	return minutes / UnitMinutes, nil
}

// UnitsFromHours converts hours into units (hours x 4), rounded to 2 places.
// Used for services measured in hours such as community classes.
func UnitsFromHours(hours decimal.Decimal) (decimal.Decimal, error) {
	if hours.IsNegative() {
		return decimal.Zero, ErrNegativeDuration
	}
	return hours.Mul(unitsPerHour).Round(2), nil
}

// LineAmount returns units x rate rounded half away from zero to cents
func LineAmount(units, rate decimal.Decimal) decimal.Decimal {
	return RoundMoney(units.Mul(rate))
}

// RoundMoney rounds an amount to cents
func RoundMoney(amount decimal.Decimal) decimal.Decimal {
	return amount.Round(2)
}

// HoursFromMinutes converts minutes to decimal hours rounded to 2 places
func HoursFromMinutes(minutes int) decimal.Decimal {
	return decimal.NewFromInt(int64(minutes)).Div(decimal.NewFromInt(60)).Round(2)
}
