package conditions

// MoonPhase is the named phase of the Moon.
type MoonPhase int

const (
	NewMoon MoonPhase = iota
	WaxingCrescent
	FirstQuarter
	WaxingGibbous
	FullMoon
	WaningGibbous
	LastQuarter
	WaningCrescent
)

var phaseNames = [...]string{
	NewMoon:        "New Moon",
	WaxingCrescent: "Waxing Crescent",
	FirstQuarter:   "First Quarter",
	WaxingGibbous:  "Waxing Gibbous",
	FullMoon:       "Full Moon",
	WaningGibbous:  "Waning Gibbous",
	LastQuarter:    "Last Quarter",
	WaningCrescent: "Waning Crescent",
}

// String returns the phase name.
func (p MoonPhase) String() string {
	if p < 0 || int(p) >= len(phaseNames) {
		return "Unknown"
	}
	return phaseNames[p]
}

// MarshalText implements encoding.TextMarshaler.
func (p MoonPhase) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// Waxing reports whether elongation east of the Sun is under 180°.
func Waxing(elongationDeg float64) bool {
	return elongationDeg < 180
}

// ClassifyPhase names the phase from the illuminated percentage (0-100) and
// the elongation east of the Sun in degrees. Waxing and waning collapse into
// a single Full Moon bucket above 75%. A value exactly on a boundary (1, 25,
// 50 or 75) belongs to the lower bucket.
func ClassifyPhase(illumPct, elongationDeg float64) MoonPhase {
	waxing := Waxing(elongationDeg)
	pick := func(wax, wane MoonPhase) MoonPhase {
		if waxing {
			return wax
		}
		return wane
	}

	switch {
	case illumPct <= 1:
		return NewMoon
	case illumPct <= 25:
		return pick(WaxingCrescent, WaningCrescent)
	case illumPct <= 50:
		return pick(FirstQuarter, LastQuarter)
	case illumPct <= 75:
		return pick(WaxingGibbous, WaningGibbous)
	default:
		// Also reached by NaN, which fails every comparison above.
		return FullMoon
	}
}
