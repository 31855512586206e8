package dsa

import (
	"testing"
)

func floatsClose(a, b []float64, rel float64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		d := a[i] - b[i]
		if d < 0 {
			d = -d
		}
		scale := b[i]
		if scale < 0 {
			scale = -scale
		}
		if d > rel*scale && d > 1e-300 {
			return false
		}
	}
	return true
}

func TestGenerateRange(t *testing.T) {
	tests := []struct {
		name           string
		min, max, step float64
		want           []float64
	}{
		{"temperature grid", 300, 450, 10, []float64{300, 310, 320, 330, 340, 350, 360, 370, 380, 390, 400, 410, 420, 430, 440, 450}},
		{"fractional step", 0, 1, 0.1, []float64{0, 0.1, 0.2, 0.3, 0.4, 0.5, 0.6, 0.7, 0.8, 0.9, 1}},
		{"max not on grid", 1, 2, 0.4, []float64{1, 1.4, 1.8}},
		{"single value", 5, 5, 1, []float64{5}},
		{"min above max", 5, 4, 1, nil},
		{"zero step", 0, 1, 0, nil},
		{"too many values", 0, 1e9, 1, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := GenerateRange(tt.min, tt.max, tt.step)
			if !floatsClose(got, tt.want, 1e-12) {
				t.Errorf("GenerateRange(%v, %v, %v) = %v, want %v", tt.min, tt.max, tt.step, got, tt.want)
			}
		})
	}
}

func TestGenerateRangeLandsOnMax(t *testing.T) {
	got := GenerateRange(0, 1, 0.1)
	if got[len(got)-1] != 1 {
		t.Errorf("last value = %v, want exactly 1", got[len(got)-1])
	}
}

func TestParseParamList(t *testing.T) {
	tests := []struct {
		in      string
		want    []float64
		wantErr bool
	}{
		{"1e12,1e13,1e14", []float64{1e12, 1e13, 1e14}, false},
		{" 1.0 ", []float64{1}, false},
		{"300:320:10", []float64{300, 310, 320}, false},
		{"", nil, false},
		{"1,abc", nil, true},
		{"1:2", nil, true},
		{"1:2:0", nil, true},
		{"3:2:1", nil, true},
		{"0:1e9:1", nil, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseParamList(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseParamList(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if !tt.wantErr && !floatsClose(got, tt.want, 1e-12) {
				t.Errorf("ParseParamList(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestParseLengthList(t *testing.T) {
	tests := []struct {
		in      string
		unit    string
		want    []float64
		wantErr bool
	}{
		{"1,2,5", "nm", []float64{1e-9, 2e-9, 5e-9}, false},
		{"0.1um,1um,10um", "m", []float64{1e-7, 1e-6, 1e-5}, false},
		{"0.1µm, 1 µm", "m", []float64{1e-7, 1e-6}, false},
		{"1nm:3nm:1nm", "m", []float64{1e-9, 2e-9, 3e-9}, false},
		{"2.86e-10", "m", []float64{2.86e-10}, false},
		{"5 furlongs", "m", nil, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseLengthList(tt.in, tt.unit)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseLengthList(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if !tt.wantErr && !floatsClose(got, tt.want, 1e-12) {
				t.Errorf("ParseLengthList(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestCartesianProduct(t *testing.T) {
	got, err := CartesianProduct([]float64{1, 2}, []float64{10, 20, 30})
	if err != nil {
		t.Fatal(err)
	}
	want := [][]float64{{1, 10}, {1, 20}, {1, 30}, {2, 10}, {2, 20}, {2, 30}}
	if len(got) != len(want) {
		t.Fatalf("got %d combos, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i][0] != want[i][0] || got[i][1] != want[i][1] {
			t.Errorf("combo %d = %v, want %v", i, got[i], want[i])
		}
	}

	empty, err := CartesianProduct([]float64{1}, nil)
	if err != nil || empty != nil {
		t.Errorf("empty dimension: got %v, %v", empty, err)
	}

	big := GenerateRange(1, 200, 1)
	if _, err := CartesianProduct(big, big); err == nil {
		t.Error("expected combination limit error")
	}
}
