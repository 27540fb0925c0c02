// Package preprocessing は入力座標の変換（標準化・正規化・主成分射影）を提供する。
// 学習済みの変換は行単位でも適用できるため、予測時にクエリを1点ずつ変換できる。
package preprocessing

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/YuminosukeSato/scigp/core/model"
	"github.com/YuminosukeSato/scigp/pkg/errors"
)

// constantTolerance 以下の広がりを持つ特徴量は定数とみなし、スケールを1にする
const constantTolerance = 1e-8

// StandardScaler はscikit-learn互換の標準化スケーラー
// データを平均0、標準偏差1に変換する
type StandardScaler struct {
	model.StateManager

	// Mean は各特徴量の平均値
	Mean []float64

	// Scale は各特徴量の標準偏差（母集団）
	Scale []float64

	// WithMean は平均を引くかどうか (デフォルト: true)
	WithMean bool

	// WithStd は標準偏差で割るかどうか (デフォルト: true)
	WithStd bool
}

// NewStandardScaler は新しいStandardScalerを作成する
//
// 使用例:
//
//	scaler := preprocessing.NewStandardScaler(true, true)
//	err := scaler.Fit(X)
//	XScaled, err := scaler.Transform(X)
func NewStandardScaler(withMean, withStd bool) *StandardScaler {
	return &StandardScaler{
		WithMean: withMean,
		WithStd:  withStd,
	}
}

// NewStandardScalerDefault はデフォルト設定でStandardScalerを作成する
func NewStandardScalerDefault() *StandardScaler {
	return NewStandardScaler(true, true)
}

// Fit は訓練データから統計情報（平均、標準偏差）を計算する
func (s *StandardScaler) Fit(X mat.Matrix) error {
	r, c := X.Dims()
	if r == 0 || c == 0 {
		return errors.NewModelError("StandardScaler.Fit", "empty data", errors.ErrEmptyData)
	}

	s.Mean = make([]float64, c)
	s.Scale = make([]float64, c)
	col := make([]float64, r)
	for j := 0; j < c; j++ {
		mat.Col(col, j, X)
		mean, std := stat.PopMeanStdDev(col, nil)
		if s.WithMean {
			s.Mean[j] = mean
		}
		s.Scale[j] = 1
		if s.WithStd && std > constantTolerance {
			s.Scale[j] = std
		}
	}

	s.SetDimensions(c, r)
	s.SetFitted()
	return nil
}

// TransformRow は1行を標準化する
func (s *StandardScaler) TransformRow(x, dst []float64) ([]float64, error) {
	if err := s.RequireFitted("StandardScaler", "TransformRow"); err != nil {
		return nil, err
	}
	if err := s.RequireFeatures("StandardScaler.TransformRow", len(x)); err != nil {
		return nil, err
	}
	dst = grow(dst, len(x))
	for j, v := range x {
		dst[j] = (v - s.Mean[j]) / s.Scale[j]
	}
	return dst, nil
}

// Transform は学習済みの統計情報を使ってデータを標準化する
func (s *StandardScaler) Transform(X mat.Matrix) (mat.Matrix, error) {
	return transformRows(s, X)
}

// FitTransform は訓練データで学習し、同じデータを変換する
func (s *StandardScaler) FitTransform(X mat.Matrix) (mat.Matrix, error) {
	if err := s.Fit(X); err != nil {
		return nil, err
	}
	return s.Transform(X)
}

// InputDim implements model.RowTransformer.
func (s *StandardScaler) InputDim() int {
	n, _ := s.GetDimensions()
	return n
}

// OutputDim implements model.RowTransformer.
func (s *StandardScaler) OutputDim() int { return s.InputDim() }

// GetParams はスケーラーのパラメータを取得する
func (s *StandardScaler) GetParams() map[string]interface{} {
	return map[string]interface{}{
		"with_mean": s.WithMean,
		"with_std":  s.WithStd,
	}
}

// String はスケーラーの文字列表現を返す
func (s *StandardScaler) String() string {
	if !s.IsFitted() {
		return fmt.Sprintf("StandardScaler(with_mean=%t, with_std=%t)", s.WithMean, s.WithStd)
	}
	return fmt.Sprintf("StandardScaler(with_mean=%t, with_std=%t, n_features=%d)",
		s.WithMean, s.WithStd, s.InputDim())
}

// MinMaxScaler はscikit-learn互換のMin-Maxスケーラー
// データを指定した範囲（デフォルト[0,1]）にスケーリングする
type MinMaxScaler struct {
	model.StateManager

	// DataMin は学習データの最小値
	DataMin []float64

	// DataMax は学習データの最大値
	DataMax []float64

	// Scale は各特徴量の幅 (max - min)、定数特徴量では1
	Scale []float64

	// FeatureRange はスケーリング後の範囲 [min, max]
	FeatureRange [2]float64
}

// NewMinMaxScaler は新しいMinMaxScalerを作成する
func NewMinMaxScaler(featureRange [2]float64) *MinMaxScaler {
	return &MinMaxScaler{FeatureRange: featureRange}
}

// NewMinMaxScalerDefault はデフォルト設定([0,1]範囲)でMinMaxScalerを作成する
func NewMinMaxScalerDefault() *MinMaxScaler {
	return NewMinMaxScaler([2]float64{0.0, 1.0})
}

// Fit は訓練データから最小値・最大値を計算する
func (m *MinMaxScaler) Fit(X mat.Matrix) error {
	r, c := X.Dims()
	if r == 0 || c == 0 {
		return errors.NewModelError("MinMaxScaler.Fit", "empty data", errors.ErrEmptyData)
	}
	if !(m.FeatureRange[1] > m.FeatureRange[0]) {
		return errors.NewValidationError("feature_range", "min must be below max", m.FeatureRange)
	}

	m.DataMin = make([]float64, c)
	m.DataMax = make([]float64, c)
	m.Scale = make([]float64, c)
	for j := 0; j < c; j++ {
		lo, hi := X.At(0, j), X.At(0, j)
		for i := 1; i < r; i++ {
			v := X.At(i, j)
			lo = min(lo, v)
			hi = max(hi, v)
		}
		m.DataMin[j], m.DataMax[j] = lo, hi
		m.Scale[j] = 1
		if hi-lo > constantTolerance {
			m.Scale[j] = hi - lo
		}
	}

	m.SetDimensions(c, r)
	m.SetFitted()
	return nil
}

// TransformRow は1行をスケーリングする
func (m *MinMaxScaler) TransformRow(x, dst []float64) ([]float64, error) {
	if err := m.RequireFitted("MinMaxScaler", "TransformRow"); err != nil {
		return nil, err
	}
	if err := m.RequireFeatures("MinMaxScaler.TransformRow", len(x)); err != nil {
		return nil, err
	}
	dst = grow(dst, len(x))
	width := m.FeatureRange[1] - m.FeatureRange[0]
	for j, v := range x {
		dst[j] = (v-m.DataMin[j])/m.Scale[j]*width + m.FeatureRange[0]
	}
	return dst, nil
}

// Transform は学習済みの統計情報を使ってデータをスケーリングする
func (m *MinMaxScaler) Transform(X mat.Matrix) (mat.Matrix, error) {
	return transformRows(m, X)
}

// FitTransform は訓練データで学習し、同じデータを変換する
func (m *MinMaxScaler) FitTransform(X mat.Matrix) (mat.Matrix, error) {
	if err := m.Fit(X); err != nil {
		return nil, err
	}
	return m.Transform(X)
}

// InputDim implements model.RowTransformer.
func (m *MinMaxScaler) InputDim() int {
	n, _ := m.GetDimensions()
	return n
}

// OutputDim implements model.RowTransformer.
func (m *MinMaxScaler) OutputDim() int { return m.InputDim() }

func grow(dst []float64, n int) []float64 {
	if cap(dst) < n {
		return make([]float64, n)
	}
	return dst[:n]
}

// transformRows applies a fitted row transform to every row of X.
func transformRows(t model.RowTransformer, X mat.Matrix) (mat.Matrix, error) {
	r, _ := X.Dims()
	if r == 0 {
		return nil, errors.NewModelError("preprocessing.Transform", "empty data", errors.ErrEmptyData)
	}
	var out *mat.Dense
	var row, buf []float64
	for i := 0; i < r; i++ {
		row = mat.Row(row, i, X)
		var err error
		buf, err = t.TransformRow(row, buf)
		if err != nil {
			return nil, err
		}
		if out == nil {
			out = mat.NewDense(r, len(buf), nil)
		}
		out.SetRow(i, buf)
	}
	return out, nil
}
