package preprocessing

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/YuminosukeSato/scigp/core/model"
	"github.com/YuminosukeSato/scigp/pkg/errors"
)

// PCA は入力を上位k個の主成分に射影する
// 高次元入力で距離計算の次元を減らすために使う
type PCA struct {
	model.StateManager

	// NComponents は射影後の次元k
	NComponents int

	// Mean は各特徴量の平均値
	Mean []float64

	// Components は主成分ベクトル（列）を持つ D×k 行列の行優先データ
	Components []float64

	// ExplainedVariance は各主成分のスコア分散（降順）
	ExplainedVariance []float64
}

// NewPCA はk次元に射影するPCAを作成する
func NewPCA(nComponents int) *PCA {
	return &PCA{NComponents: nComponents}
}

// Fit は主成分を計算する
func (p *PCA) Fit(X mat.Matrix) error {
	r, c := X.Dims()
	if r == 0 || c == 0 {
		return errors.NewModelError("PCA.Fit", "empty data", errors.ErrEmptyData)
	}
	if p.NComponents < 1 || p.NComponents > min(r, c) {
		return errors.NewValidationError("n_components",
			fmt.Sprintf("must be in [1, %d]", min(r, c)), p.NComponents)
	}

	var pc stat.PC
	if !pc.PrincipalComponents(X, nil) {
		return errors.NewModelError("PCA.Fit", "SVD did not converge", errors.ErrSingularMatrix)
	}
	var vecs mat.Dense
	pc.VectorsTo(&vecs)
	vars := pc.VarsTo(nil)

	k := p.NComponents
	p.Components = make([]float64, c*k)
	for i := 0; i < c; i++ {
		for j := 0; j < k; j++ {
			p.Components[i*k+j] = vecs.At(i, j)
		}
	}
	p.ExplainedVariance = append([]float64(nil), vars[:k]...)

	p.Mean = make([]float64, c)
	col := make([]float64, r)
	for j := 0; j < c; j++ {
		p.Mean[j] = stat.Mean(mat.Col(col, j, X), nil)
	}

	p.SetDimensions(c, r)
	p.SetFitted()
	return nil
}

// TransformRow は1行を主成分空間に射影する
func (p *PCA) TransformRow(x, dst []float64) ([]float64, error) {
	if err := p.RequireFitted("PCA", "TransformRow"); err != nil {
		return nil, err
	}
	if err := p.RequireFeatures("PCA.TransformRow", len(x)); err != nil {
		return nil, err
	}
	k := p.NComponents
	dst = grow(dst, k)
	for j := range dst {
		dst[j] = 0
	}
	for i, v := range x {
		centered := v - p.Mean[i]
		for j := 0; j < k; j++ {
			dst[j] += centered * p.Components[i*k+j]
		}
	}
	return dst, nil
}

// Transform は学習済みの主成分でデータを射影する
func (p *PCA) Transform(X mat.Matrix) (mat.Matrix, error) {
	return transformRows(p, X)
}

// FitTransform は学習と射影を同時に行う
func (p *PCA) FitTransform(X mat.Matrix) (mat.Matrix, error) {
	if err := p.Fit(X); err != nil {
		return nil, err
	}
	return p.Transform(X)
}

// InputDim implements model.RowTransformer.
func (p *PCA) InputDim() int {
	n, _ := p.GetDimensions()
	return n
}

// OutputDim implements model.RowTransformer.
func (p *PCA) OutputDim() int { return p.NComponents }

func (p *PCA) String() string {
	return fmt.Sprintf("PCA(n_components=%d)", p.NComponents)
}
