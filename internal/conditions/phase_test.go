package conditions

import (
	"math"
	"testing"
)

func TestClassifyPhase(t *testing.T) {
	tests := []struct {
		illum float64
		elong float64
		want  MoonPhase
	}{
		{0, 10, NewMoon},
		{0.99, 350, NewMoon},
		{1, 20, NewMoon},
		{1.01, 20, WaxingCrescent},
		{1.01, 340, WaningCrescent},
		{25, 60, WaxingCrescent},
		{25.01, 90, FirstQuarter},
		{50, 170, FirstQuarter},
		{50.01, 170, WaxingGibbous},
		{49.9, 170, FirstQuarter},
		{49.9, 260, LastQuarter},
		{60, 120, WaxingGibbous},
		{60, 240, WaningGibbous},
		{74.99, 200, WaningGibbous},
		{75, 150, WaxingGibbous},
		{75.01, 150, FullMoon},
		{90, 200, FullMoon},
		{100, 180, FullMoon},
		{30, 179.99, FirstQuarter},
		{30, 180, LastQuarter},
	}

	for _, tc := range tests {
		t.Run(tc.want.String(), func(t *testing.T) {
			if got := ClassifyPhase(tc.illum, tc.elong); got != tc.want {
				t.Errorf("ClassifyPhase(%v, %v) = %v, want %v", tc.illum, tc.elong, got, tc.want)
			}
		})
	}
}

func TestClassifyPhase_Scenarios(t *testing.T) {
	if got := ClassifyPhase(0, 10).String(); got != "New Moon" {
		t.Errorf("0%%, 10° = %q, want New Moon", got)
	}
	if got := ClassifyPhase(90, 200).String(); got != "Full Moon" {
		t.Errorf("90%%, 200° = %q, want Full Moon", got)
	}
	// A boundary value stays in the lower bucket.
	if got := ClassifyPhase(50, 170).String(); got != "First Quarter" {
		t.Errorf("50%%, 170° = %q, want First Quarter", got)
	}
}

func TestClassifyPhase_Total(t *testing.T) {
	inputs := []float64{math.NaN(), math.Inf(1), math.Inf(-1), -50, 0, 1e9, 360, 720}
	for _, illum := range inputs {
		for _, elong := range inputs {
			p := ClassifyPhase(illum, elong)
			if p.String() == "Unknown" {
				t.Errorf("ClassifyPhase(%v, %v) returned an unnamed phase %d", illum, elong, p)
			}
		}
	}
}

func TestClassifyPhase_MonotonicWaxing(t *testing.T) {
	order := map[MoonPhase]int{
		NewMoon:        0,
		WaxingCrescent: 1,
		FirstQuarter:   2,
		WaxingGibbous:  3,
		FullMoon:       4,
	}

	for _, elong := range []float64{0, 45, 90, 135, 179.9} {
		prev := -1
		for illum := 0.0; illum <= 100; illum += 0.25 {
			p := ClassifyPhase(illum, elong)
			rank, ok := order[p]
			if !ok {
				t.Fatalf("ClassifyPhase(%v, %v) = %v, a waning phase for a waxing moon", illum, elong, p)
			}
			if rank < prev {
				t.Fatalf("phase regressed to %v at %v%% (elongation %v)", p, illum, elong)
			}
			prev = rank
		}
	}
}

func TestMoonPhaseString(t *testing.T) {
	if MoonPhase(42).String() != "Unknown" {
		t.Error("out-of-range phase should be Unknown")
	}
	b, err := WaningGibbous.MarshalText()
	if err != nil || string(b) != "Waning Gibbous" {
		t.Errorf("MarshalText() = %q, %v", b, err)
	}
}
