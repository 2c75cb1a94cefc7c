package ports

import (
	"testing"
)

func TestStreamGeometry_DisplaySize(t *testing.T) {
	tests := []struct {
		name  string
		geo   StreamGeometry
		wantW int
		wantH int
	}{
		{"square pixels", StreamGeometry{CodedWidth: 640, CodedHeight: 360}, 640, 360},
		{"unset ratio", StreamGeometry{CodedWidth: 640, CodedHeight: 360, SampleAspectRatio: Ratio{0, 0}}, 640, 360},
		{"anamorphic wide", StreamGeometry{CodedWidth: 720, CodedHeight: 576, SampleAspectRatio: Ratio{16, 11}}, 1047, 576},
		{"anamorphic tall", StreamGeometry{CodedWidth: 640, CodedHeight: 360, SampleAspectRatio: Ratio{1, 2}}, 640, 720},
		{"rotated 90", StreamGeometry{CodedWidth: 640, CodedHeight: 360, RotationDegrees: 90}, 360, 640},
		{"rotated 180", StreamGeometry{CodedWidth: 640, CodedHeight: 360, RotationDegrees: 180}, 640, 360},
		{"rotated 270 with ratio", StreamGeometry{CodedWidth: 100, CodedHeight: 50, SampleAspectRatio: Ratio{2, 1}, RotationDegrees: 270}, 50, 200},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, h := tt.geo.DisplaySize()
			if w != tt.wantW || h != tt.wantH {
				t.Errorf("DisplaySize() = %dx%d, want %dx%d", w, h, tt.wantW, tt.wantH)
			}
		})
	}
}

func TestNormalizeRotation(t *testing.T) {
	tests := []struct {
		in   float64
		want int
	}{
		{0, 0},
		{90, 90},
		{-90, 270},
		{180, 180},
		{-180, 180},
		{270, 270},
		{360, 0},
		{89.6, 90},
		{-270, 90},
	}

	for _, tt := range tests {
		if got := NormalizeRotation(tt.in); got != tt.want {
			t.Errorf("NormalizeRotation(%v) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestParseLogLevel(t *testing.T) {
	for _, level := range []LogLevel{LevelDebug, LevelInfo, LevelWarn, LevelError, LevelQuiet} {
		if got := ParseLogLevel(level.String()); got != level {
			t.Errorf("ParseLogLevel(%q) = %v, want %v", level.String(), got, level)
		}
	}
	if got := ParseLogLevel("verbose"); got != LevelInfo {
		t.Errorf("ParseLogLevel(unknown) = %v, want info", got)
	}
}
