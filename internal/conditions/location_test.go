package conditions

import (
	"errors"
	"math"
	"testing"
)

func TestLocation_Validate(t *testing.T) {
	tests := []struct {
		loc   Location
		valid bool
	}{
		{DefaultLocation, true},
		{Location{Latitude: 90, Longitude: 180}, true},
		{Location{Latitude: -90, Longitude: -180}, true},
		{Location{Latitude: 90.5}, false},
		{Location{Longitude: -180.01}, false},
		{Location{Latitude: math.NaN()}, false},
		{Location{Longitude: math.Inf(1)}, false},
	}

	for _, tc := range tests {
		err := tc.loc.Validate()
		if tc.valid && err != nil {
			t.Errorf("Validate(%+v) error: %v", tc.loc, err)
		}
		if !tc.valid && !errors.Is(err, ErrInvalidLocation) {
			t.Errorf("Validate(%+v) = %v, want ErrInvalidLocation", tc.loc, err)
		}
	}
}

func TestLocation_String(t *testing.T) {
	tests := []struct {
		loc  Location
		want string
	}{
		{DefaultLocation, "Bahrain (26.00°N, 50.00°E)"},
		{Location{Latitude: 40.7128, Longitude: -74.006}, "40.71°N, 74.01°W"},
		{Location{Latitude: -33.8688, Longitude: 151.2093}, "33.87°S, 151.21°E"},
	}
	for _, tc := range tests {
		if got := tc.loc.String(); got != tc.want {
			t.Errorf("String() = %q, want %q", got, tc.want)
		}
	}
}

func TestLocation_Observer(t *testing.T) {
	obs := DefaultLocation.Observer()
	if obs.LatDeg != 26 || obs.LonDeg != 50 || obs.Name != "Bahrain" {
		t.Errorf("Observer() = %+v", obs)
	}
}

func TestParseLocation(t *testing.T) {
	tests := []struct {
		in      string
		want    Location
		wantErr bool
	}{
		{"26.0, 50.0", Location{Latitude: 26, Longitude: 50}, false},
		{"40.5 -105.1", Location{Latitude: 40.5, Longitude: -105.1}, false},
		{"  -33.9,151.2  ", Location{Latitude: -33.9, Longitude: 151.2}, false},
		{"91, 0", Location{}, true},
		{"0, 181", Location{}, true},
		{"abc, 1", Location{}, true},
		{"1, x", Location{}, true},
		{"12", Location{}, true},
		{"", Location{}, true},
		{"1, 2, 3", Location{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseLocation(tt.in)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidLocation) {
					t.Errorf("ParseLocation(%q) error = %v, want ErrInvalidLocation", tt.in, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseLocation(%q) error: %v", tt.in, err)
			}
			if got != tt.want {
				t.Errorf("ParseLocation(%q) = %+v, want %+v", tt.in, got, tt.want)
			}
		})
	}
}
