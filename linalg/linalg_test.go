package linalg

import (
	"math"
	"math/rand/v2"
	"testing"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/YuminosukeSato/scigp/kernel"
	"github.com/YuminosukeSato/scigp/pkg/errors"
)

func randomInputs(n, d int, seed uint64) *mat.Dense {
	u := distuv.Uniform{Min: -2, Max: 2, Src: rand.New(rand.NewPCG(seed, 1))}
	X := mat.NewDense(n, d, nil)
	for i := 0; i < n; i++ {
		for j := 0; j < d; j++ {
			X.Set(i, j, u.Rand())
		}
	}
	return X
}

func TestFactorReconstructsSigma(t *testing.T) {
	kinds := []kernel.Kind{kernel.SquaredExponential, kernel.Exponential, kernel.Matern32, kernel.Matern52}
	for i, kind := range kinds {
		t.Run(kind.String(), func(t *testing.T) {
			X := randomInputs(40, 2, uint64(i))
			k := kernel.New(kind, []float64{0.7, 1.3}, 2.5)

			var sigma mat.SymDense
			Covariance(&sigma, X, k, 1e-3)

			f, err := Factorize(&sigma, DefaultJitter())
			if err != nil {
				t.Fatalf("Factorize: %v", err)
			}

			var llt mat.Dense
			l := f.L()
			llt.Mul(l, l.T())

			want := mat.NewSymDense(40, nil)
			want.CopySym(&sigma)
			for j := 0; j < 40; j++ {
				want.SetSym(j, j, sigma.At(j, j)+f.Jitter())
			}
			if !mat.EqualApprox(&llt, want, 1e-10) {
				t.Error("LLᵗ does not reproduce Σ")
			}
		})
	}
}

func TestCovarianceIsSymmetricWithNoiseDiagonal(t *testing.T) {
	X := randomInputs(300, 3, 7) // above the parallel threshold
	k := kernel.New(kernel.Matern52, []float64{1}, 1.5)

	var sigma mat.SymDense
	Covariance(&sigma, X, k, 0.25)

	rows := Rows(X)
	for _, ij := range [][2]int{{0, 0}, {3, 299}, {150, 151}, {299, 299}} {
		i, j := ij[0], ij[1]
		want := k.Covariance(rows[i], rows[j])
		if i == j {
			want += 0.25
		}
		if got := sigma.At(i, j); math.Abs(got-want) > 1e-14 {
			t.Errorf("Σ[%d,%d] = %v, want %v", i, j, got, want)
		}
	}
}

func TestFactorizeAddsJitterForDuplicates(t *testing.T) {
	// Two identical rows make the noiseless SE kernel matrix singular.
	X := mat.NewDense(3, 1, []float64{0, 0, 1})
	k := kernel.New(kernel.SquaredExponential, []float64{1}, 1)

	var sigma mat.SymDense
	Covariance(&sigma, X, k, 0)

	f, err := Factorize(&sigma, DefaultJitter())
	if err != nil {
		t.Fatalf("Factorize: %v", err)
	}
	if f.Jitter() <= 0 {
		t.Error("expected positive jitter for a singular matrix")
	}
	if sigma.At(0, 0) != 1 {
		t.Error("Factorize must not modify its input")
	}
}

func TestFactorizeFailsBeyondJitterCap(t *testing.T) {
	sigma := mat.NewSymDense(2, []float64{
		1, 2,
		2, 1,
	})

	_, err := Factorize(sigma, JitterConfig{Initial: 1e-8, Growth: 10, Max: 1e-4})
	if err == nil {
		t.Fatal("expected an error for an indefinite matrix")
	}
	if !errors.Is(err, errors.ErrNotPositiveDefinite) {
		t.Errorf("expected ErrNotPositiveDefinite, got %v", err)
	}
	var numErr *errors.NumericalInstabilityError
	if !errors.As(err, &numErr) {
		t.Fatalf("expected NumericalInstabilityError, got %T", err)
	}
	if numErr.Context["last_jitter"].(float64) <= 0 {
		t.Error("expected last jitter in error context")
	}
}

func TestFactorizeRejectsNaN(t *testing.T) {
	sigma := mat.NewSymDense(2, []float64{math.NaN(), 0, 0, 1})
	if _, err := Factorize(sigma, DefaultJitter()); err == nil {
		t.Fatal("expected an error for NaN entries")
	}
}

func TestSolvesAgreeWithDenseAlgebra(t *testing.T) {
	X := randomInputs(25, 2, 3)
	k := kernel.New(kernel.Matern32, []float64{0.9}, 1)

	var sigma mat.SymDense
	Covariance(&sigma, X, k, 0.1)
	f, err := Factorize(&sigma, DefaultJitter())
	if err != nil {
		t.Fatal(err)
	}

	b := mat.NewVecDense(25, nil)
	for i := 0; i < 25; i++ {
		b.SetVec(i, math.Sin(float64(i)))
	}

	var x mat.VecDense
	f.SolveVec(&x, b)
	var back mat.VecDense
	back.MulVec(&sigma, &x)
	if !mat.EqualApprox(&back, b, 1e-9) {
		t.Error("Σ·SolveVec(b) != b")
	}

	var z mat.VecDense
	f.SolveLowerVec(&z, b)
	var lz mat.VecDense
	lz.MulVec(f.L(), &z)
	if !mat.EqualApprox(&lz, b, 1e-9) {
		t.Error("L·SolveLowerVec(b) != b")
	}

	raw := mat.Col(nil, 0, b)
	f.SolveLowerSlice(raw)
	if !mat.EqualApprox(mat.NewVecDense(25, raw), &z, 1e-12) {
		t.Error("SolveLowerSlice disagrees with SolveLowerVec")
	}

	B := mat.NewDense(25, 2, nil)
	B.SetCol(0, mat.Col(nil, 0, b))
	B.SetCol(1, mat.Col(nil, 0, &x))
	var Y mat.Dense
	f.Solve(&Y, B)
	var SB mat.Dense
	SB.Mul(&sigma, &Y)
	if !mat.EqualApprox(&SB, B, 1e-9) {
		t.Error("Σ·Solve(B) != B")
	}

	var W mat.Dense
	f.SolveLower(&W, B)
	var LW mat.Dense
	LW.Mul(f.L(), &W)
	if !mat.EqualApprox(&LW, B, 1e-9) {
		t.Error("L·SolveLower(B) != B")
	}

	var P, I mat.Dense
	f.Precision(&P)
	I.Mul(&sigma, &P)
	if !mat.EqualApprox(&I, identity(25), 1e-8) {
		t.Error("Σ·Precision() != I")
	}
}

func TestLogDet(t *testing.T) {
	sigma := mat.NewSymDense(3, []float64{
		4, 1, 0,
		1, 3, 1,
		0, 1, 2,
	})
	f, err := Factorize(sigma, DefaultJitter())
	if err != nil {
		t.Fatal(err)
	}
	want := math.Log(mat.Det(sigma))
	if got := f.LogDet(); math.Abs(got-want) > 1e-12 {
		t.Errorf("LogDet = %v, want %v", got, want)
	}
	if f.Size() != 3 {
		t.Errorf("Size = %d, want 3", f.Size())
	}
}

func TestCrossCovariance(t *testing.T) {
	X := mat.NewDense(2, 2, []float64{0, 0, 1, 1})
	k := kernel.New(kernel.Exponential, []float64{1}, 2)

	got := CrossCovariance(nil, X, []float64{0, 0}, k)
	want := []float64{2, 2 * math.Exp(-math.Sqrt2)}
	for i := range want {
		if math.Abs(got[i]-want[i]) > 1e-14 {
			t.Errorf("k*[%d] = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestJitterConfigValidate(t *testing.T) {
	if err := DefaultJitter().Validate(); err != nil {
		t.Errorf("default config invalid: %v", err)
	}
	bad := []JitterConfig{
		{Initial: 0, Growth: 10, Max: 1},
		{Initial: 1e-8, Growth: 1, Max: 1},
		{Initial: 1e-2, Growth: 10, Max: 1e-3},
	}
	for _, c := range bad {
		if c.Validate() == nil {
			t.Errorf("expected %+v to be rejected", c)
		}
	}
}

func TestCheckRows(t *testing.T) {
	err := CheckRows("Predict", [][]float64{{1, 2}, {1, 2, 3}}, 2)
	var dimErr *errors.DimensionError
	if !errors.As(err, &dimErr) {
		t.Fatalf("expected DimensionError, got %v", err)
	}
	if dimErr.Row != 1 || dimErr.Expected != 2 || dimErr.Got != 3 {
		t.Errorf("unexpected error fields %+v", dimErr)
	}
}

func identity(n int) *mat.Dense {
	I := mat.NewDense(n, n, nil)
	for i := 0; i < n; i++ {
		I.Set(i, i, 1)
	}
	return I
}
