// Package units turns raw measurements into display strings, in whichever unit
// system the viewer picked.
package units

import(
	"fmt"
	"math"
)

// Altitudes are stored in meters, speeds in km/h.
const(
	Meters = "m"
	Feet   = "ft"

	KmPerHour       = "km/h"
	MilesPerHour    = "mi/h"
	Knots           = "kt"
	MetersPerSecond = "m/s"
)

var(
	altitudeFactors = map[string]float64{
		Meters: 1.0,
		Feet:   3.28084,
	}
	speedFactors = map[string]float64{
		KmPerHour:       1.0,
		MilesPerHour:    0.621371,
		Knots:           0.539957,
		MetersPerSecond: 1.0 / 3.6,
	}
)

// System is the pair of units a viewer wants altitudes and speeds shown in.
type System struct {
	Altitude string `yaml:"altitude" json:"altitude" validate:"omitempty,oneof=m ft"`
	Speed    string `yaml:"speed" json:"speed" validate:"omitempty,oneof=km/h mi/h kt m/s"`
}

var Default = System{Altitude:Meters, Speed:KmPerHour}

func IsAltitude(unit string) bool { _,ok := altitudeFactors[unit]; return ok }
func IsSpeed(unit string) bool { _,ok := speedFactors[unit]; return ok }

// {{{ s.Normalized

// Normalized replaces unknown or empty units with the defaults.
func (s System)Normalized() System {
	if !IsAltitude(s.Altitude) { s.Altitude = Default.Altitude }
	if !IsSpeed(s.Speed) { s.Speed = Default.Speed }
	return s
}

// }}}
// {{{ s.FormatAltitude, s.FormatSpeed

func (s System)FormatAltitude(meters float64) string {
	return Format(meters, s.Normalized().Altitude)
}

func (s System)FormatSpeed(kmh float64) string {
	return Format(kmh, s.Normalized().Speed)
}

// }}}
// {{{ Format

// Format renders a value already expressed in meters (altitude units) or km/h
// (speed units) into the named unit. Unknown units are rendered as-is.
func Format(v float64, unit string) string {
	if f,ok := altitudeFactors[unit]; ok { return format(v*f, unit) }
	if f,ok := speedFactors[unit]; ok { return format(v*f, unit) }
	return format(v, unit)
}

func format(v float64, unit string) string {
	return fmt.Sprintf("%d%s", int64(math.Round(v)), unit)
}

// }}}

// {{{ -------------------------={ E N D }=----------------------------------

// Local variables:
// folded-file: t
// end:

// }}}
