package model

import (
	"encoding/json"
	"io"
	"math"

	"github.com/YuminosukeSato/scigp/pkg/errors"
)

// HyperparametersVersion is written into every artifact for compatibility checks.
const HyperparametersVersion = "1"

// Hyperparameters はガウス過程の学習済みハイパーパラメータを表す構造体（JSON出力用）
// 予測結果とは独立した成果物として書き出される
type Hyperparameters struct {
	// ModelType はモデルの種類（GaussianProcessRegressor）
	ModelType string `json:"model_type"`

	// Version は成果物のフォーマットバージョン
	Version string `json:"version"`

	// Kernel はカーネルの種類（squared_exponential, matern52等）
	Kernel string `json:"kernel"`

	// Lengthscales は長さスケール（等方性なら1要素）
	Lengthscales []float64 `json:"lengthscales"`

	// Amplitude はカーネルの振幅（sill）σ²
	Amplitude float64 `json:"amplitude"`

	// NoiseVariance は観測ノイズ分散（nugget）σ_n²
	NoiseVariance float64 `json:"noise_variance"`

	// Jitter はCholesky分解のために追加された対角ジッター
	Jitter float64 `json:"jitter,omitempty"`

	// Prior は平均関数の種類（constant, linear）
	Prior string `json:"prior"`

	// PriorCoefficients は平均関数の係数 [b] または [b, w_1..w_D]
	PriorCoefficients []float64 `json:"prior_coefficients"`

	// LogMarginalLikelihood は最適化後の対数周辺尤度
	LogMarginalLikelihood float64 `json:"log_marginal_likelihood"`

	// Features は特徴量の名前（オプション）
	Features []string `json:"features,omitempty"`

	// Metadata は追加のメタデータ（学習時の統計等）
	Metadata map[string]interface{} `json:"metadata,omitempty"`
}

// ToJSON はHyperparametersをJSON形式にシリアライズ
func (h *Hyperparameters) ToJSON() ([]byte, error) {
	return json.MarshalIndent(h, "", "  ")
}

// FromJSON はJSON形式からHyperparametersをデシリアライズ
func (h *Hyperparameters) FromJSON(data []byte) error {
	if err := json.Unmarshal(data, h); err != nil {
		return errors.Wrap(err, "decode hyperparameters")
	}
	return h.Validate()
}

// WriteTo writes the indented JSON document followed by a newline.
func (h *Hyperparameters) WriteTo(w io.Writer) (int64, error) {
	data, err := h.ToJSON()
	if err != nil {
		return 0, errors.Wrap(err, "encode hyperparameters")
	}
	n, err := w.Write(append(data, '\n'))
	return int64(n), err
}

// Validate はHyperparametersの妥当性を検証
func (h *Hyperparameters) Validate() error {
	if h.ModelType == "" {
		return errors.NewValidationError("model_type", "is required", h.ModelType)
	}
	if h.Version == "" {
		return errors.NewValidationError("version", "is required", h.Version)
	}
	if h.Kernel == "" {
		return errors.NewValidationError("kernel", "is required", h.Kernel)
	}
	if len(h.Lengthscales) == 0 {
		return errors.NewValidationError("lengthscales", "at least one value is required", 0)
	}
	for _, l := range h.Lengthscales {
		if !(l > 0) || math.IsInf(l, 0) {
			return errors.NewValidationError("lengthscales", "must be positive and finite", l)
		}
	}
	if !(h.Amplitude > 0) || math.IsInf(h.Amplitude, 0) {
		return errors.NewValidationError("amplitude", "must be positive and finite", h.Amplitude)
	}
	if !(h.NoiseVariance >= 0) || math.IsInf(h.NoiseVariance, 0) {
		return errors.NewValidationError("noise_variance", "must be non-negative and finite", h.NoiseVariance)
	}
	if h.Prior == "" {
		return errors.NewValidationError("prior", "is required", h.Prior)
	}
	if len(h.PriorCoefficients) == 0 {
		return errors.NewValidationError("prior_coefficients", "at least one value is required", 0)
	}
	return nil
}
