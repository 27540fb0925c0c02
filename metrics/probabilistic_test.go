package metrics

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/mat"
)

func TestNLPD(t *testing.T) {
	tests := []struct {
		name     string
		yTrue    []float64
		mean     []float64
		variance []float64
		want     float64
		wantErr  bool
	}{
		{
			name:     "exact mean unit variance",
			yTrue:    []float64{0, 1},
			mean:     []float64{0, 1},
			variance: []float64{1, 1},
			want:     0.5 * math.Log(2*math.Pi),
		},
		{
			name:     "one sigma off",
			yTrue:    []float64{2},
			mean:     []float64{0},
			variance: []float64{4},
			want:     0.5*math.Log(2*math.Pi*4) + 0.5,
		},
		{
			name:     "zero variance",
			yTrue:    []float64{0},
			mean:     []float64{0},
			variance: []float64{0},
			wantErr:  true,
		},
		{
			name:     "length mismatch",
			yTrue:    []float64{0, 1},
			mean:     []float64{0, 1},
			variance: []float64{1},
			wantErr:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NLPD(
				mat.NewVecDense(len(tt.yTrue), tt.yTrue),
				mat.NewVecDense(len(tt.mean), tt.mean),
				mat.NewVecDense(len(tt.variance), tt.variance),
			)
			if (err != nil) != tt.wantErr {
				t.Fatalf("NLPD() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && math.Abs(got-tt.want) > 1e-12 {
				t.Errorf("NLPD() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCoverage(t *testing.T) {
	yTrue := mat.NewVecDense(4, []float64{0, 1.5, 2.5, -0.5})
	mean := mat.NewVecDense(4, []float64{0, 0, 0, 0})
	variance := mat.NewVecDense(4, []float64{1, 1, 1, 1})

	got, err := Coverage(yTrue, mean, variance, 0.95)
	if err != nil {
		t.Fatal(err)
	}
	// |y| <= 1.96 holds for 0, 1.5 and -0.5.
	if got != 0.75 {
		t.Errorf("Coverage = %v, want 0.75", got)
	}

	if _, err := Coverage(yTrue, mean, variance, 1.5); err == nil {
		t.Error("expected error for level outside (0,1)")
	}
}
