package metrics

import (
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/YuminosukeSato/scigp/pkg/errors"
)

func checkVariance(op string, n int, variance mat.Vector) error {
	if variance.Len() != n {
		return errors.NewDimensionError(op, n, variance.Len(), 0)
	}
	for i := 0; i < n; i++ {
		if v := variance.AtVec(i); !(v > 0) || math.IsInf(v, 0) {
			return errors.NewValueError(op, "predictive variances must be positive and finite")
		}
	}
	return nil
}

// NLPD は平均負の対数予測密度（Negative Log Predictive Density）を計算する
//
//	NLPD = -(1/n) Σ log N(y_i | μ_i, σ²_i)
//
// 分散がゼロの点は密度が定義できないためエラーとなる
func NLPD(yTrue, mean, variance mat.Vector) (float64, error) {
	n, err := checkPair("NLPD", yTrue, mean)
	if err != nil {
		return 0, err
	}
	if err := checkVariance("NLPD", n, variance); err != nil {
		return 0, err
	}

	var sum float64
	for i := 0; i < n; i++ {
		d := distuv.Normal{Mu: mean.AtVec(i), Sigma: math.Sqrt(variance.AtVec(i))}
		sum -= d.LogProb(yTrue.AtVec(i))
	}
	return sum / float64(n), nil
}

// Coverage は真値が中心 level の予測区間 μ ± z·σ に入る割合を返す
// level=0.95 なら z≈1.96
func Coverage(yTrue, mean, variance mat.Vector, level float64) (float64, error) {
	n, err := checkPair("Coverage", yTrue, mean)
	if err != nil {
		return 0, err
	}
	if err := checkVariance("Coverage", n, variance); err != nil {
		return 0, err
	}
	if !(level > 0 && level < 1) {
		return 0, errors.NewValidationError("level", "must be in (0, 1)", level)
	}

	z := distuv.UnitNormal.Quantile(0.5 + level/2)
	inside := 0
	for i := 0; i < n; i++ {
		if math.Abs(yTrue.AtVec(i)-mean.AtVec(i)) <= z*math.Sqrt(variance.AtVec(i)) {
			inside++
		}
	}
	return float64(inside) / float64(n), nil
}
