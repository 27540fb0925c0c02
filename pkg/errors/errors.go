// Package errors はscigp全体のエラーハンドリングと警告システムを提供します。
// scikit-learnの警告・例外システムにインスパイアされており、ガウス過程の学習・予測で
// 発生する失敗を構造化されたエラー情報として表現します。
package errors

import (
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/rs/zerolog"
)

// ===========================================================================
//
//	グローバル警告ハンドリング
//
// ===========================================================================
var (
	warningMutex   sync.Mutex
	warningHandler = func(w error) {
		// デフォルトのハンドラは標準エラー出力にログを出す
		log.Printf("scigp-Warning: %v\n", w)
	}
	// zerologロガー（循環importを避けるため遅延初期化）
	zerologWarnFunc func(warning error)
)

// SetWarningHandler はライブラリ全体の警告ハンドラを設定します。
// これにより、ConvergenceWarningやOptimizerTimeoutWarningの処理方法を制御できます。
//
// 例:
//
//	errors.SetWarningHandler(func(w error) {
//	    // 警告を無視する
//	})
func SetWarningHandler(handler func(w error)) {
	warningMutex.Lock()
	defer warningMutex.Unlock()
	warningHandler = handler
}

// SetZerologWarnFunc はzerolog警告関数を設定します（循環importを避けるため）。
// nilを渡すと従来のハンドラに戻ります。
func SetZerologWarnFunc(warnFunc func(warning error)) {
	warningMutex.Lock()
	defer warningMutex.Unlock()
	zerologWarnFunc = warnFunc
}

// Warn は警告を発生させます。
// zerologが利用可能な場合は構造化ログとして出力し、そうでなければ従来のハンドラを使用します。
func Warn(w error) {
	warningMutex.Lock()
	defer warningMutex.Unlock()

	if zerologWarnFunc != nil {
		zerologWarnFunc(w)
		return
	}

	if warningHandler != nil {
		warningHandler(w)
	}
}

// ===========================================================================
//
//	警告型
//
// ===========================================================================

// ConvergenceWarning は最適化アルゴリズムが収束しなかった場合に発生する警告です。
type ConvergenceWarning struct {
	Algorithm  string
	Iterations int
	Message    string
}

func (w *ConvergenceWarning) Error() string {
	if w.Message != "" {
		return fmt.Sprintf("%s failed to converge after %d iterations: %s", w.Algorithm, w.Iterations, w.Message)
	}
	return fmt.Sprintf("%s failed to converge after %d iterations. Consider increasing max_iter or adjusting parameters.", w.Algorithm, w.Iterations)
}

// MarshalZerologObject はzerologのイベントに構造化された警告情報を追加します。
func (w *ConvergenceWarning) MarshalZerologObject(e *zerolog.Event) {
	e.Str("algorithm", w.Algorithm).
		Int("iterations", w.Iterations).
		Str("message", w.Message).
		Str("type", "ConvergenceWarning")
}

// NewConvergenceWarning は新しいConvergenceWarningを作成します。
func NewConvergenceWarning(algorithm string, iterations int, message string) *ConvergenceWarning {
	return &ConvergenceWarning{Algorithm: algorithm, Iterations: iterations, Message: message}
}

// OptimizerTimeoutWarning はハイパーパラメータ最適化が時間予算を使い切った場合の警告です。
// エラーではなく、それまでに見つかった最良のパラメータが返されます。
type OptimizerTimeoutWarning struct {
	Budget    time.Duration
	Elapsed   time.Duration
	Completed int // 打ち切り前に完了したリスタート数
	Total     int // 設定されたリスタート数
	BestNLL   float64
}

func (w *OptimizerTimeoutWarning) Error() string {
	return fmt.Sprintf("hyperparameter optimization exhausted its time budget of %s after %s (%d/%d restarts completed); returning best negative log likelihood %.6g",
		w.Budget, w.Elapsed.Round(time.Millisecond), w.Completed, w.Total, w.BestNLL)
}

// MarshalZerologObject はzerologのイベントに構造化された警告情報を追加します。
func (w *OptimizerTimeoutWarning) MarshalZerologObject(e *zerolog.Event) {
	e.Dur("budget", w.Budget).
		Dur("elapsed", w.Elapsed).
		Int("completed", w.Completed).
		Int("total", w.Total).
		Float64("best_nll", w.BestNLL).
		Str("type", "OptimizerTimeoutWarning")
}

// NewOptimizerTimeoutWarning は新しいOptimizerTimeoutWarningを作成します。
func NewOptimizerTimeoutWarning(budget, elapsed time.Duration, completed, total int, bestNLL float64) *OptimizerTimeoutWarning {
	return &OptimizerTimeoutWarning{
		Budget:    budget,
		Elapsed:   elapsed,
		Completed: completed,
		Total:     total,
		BestNLL:   bestNLL,
	}
}

// UndefinedMetricWarning は評価指標が計算できない場合に発生する警告です。
// 例えば、目的変数が定数でR²の分母が0になる場合など。
type UndefinedMetricWarning struct {
	Metric    string
	Condition string
	Result    float64 // この条件で返される値
}

func (w *UndefinedMetricWarning) Error() string {
	return fmt.Sprintf("'%s' is ill-defined and being set to %f due to %s.", w.Metric, w.Result, w.Condition)
}

// NewUndefinedMetricWarning は新しいUndefinedMetricWarningを作成します。
func NewUndefinedMetricWarning(metric, condition string, result float64) *UndefinedMetricWarning {
	return &UndefinedMetricWarning{Metric: metric, Condition: condition, Result: result}
}

// ===========================================================================
//
//	構造化されたエラー型
//
// ===========================================================================

// NotFittedError はモデルが未学習の状態で `Predict` や `Score` を呼び出した場合のエラーです。
type NotFittedError struct {
	ModelName string
	Method    string
}

func (e *NotFittedError) Error() string {
	return fmt.Sprintf("scigp: %s: this model is not fitted yet. Call Fit() before using %s()", e.ModelName, e.Method)
}

// MarshalZerologObject はzerologのイベントに構造化されたエラー情報を追加します。
func (e *NotFittedError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("model_name", e.ModelName).
		Str("method", e.Method).
		Str("type", "NotFittedError")
}

// NewNotFittedError は新しいNotFittedErrorを作成し、スタックトレースを付与します。
func NewNotFittedError(modelName, method string) error {
	err := &NotFittedError{ModelName: modelName, Method: method}
	return errors.WithStack(err)
}

// DimensionError は入力データの次元が期待値と異なる場合のエラーです。
// Row が0以上の場合は問題のある行番号（0始まり）を表します。
type DimensionError struct {
	Op       string
	Expected int
	Got      int
	Axis     int // 0 for rows, 1 for columns/features
	Row      int // offending row, -1 when not applicable
}

func (e *DimensionError) Error() string {
	axisName := "features"
	if e.Axis == 0 {
		axisName = "rows"
	}
	if e.Row >= 0 {
		return fmt.Sprintf("scigp: %s: dimension mismatch on axis %d (%s) at row %d. Expected %d, got %d", e.Op, e.Axis, axisName, e.Row, e.Expected, e.Got)
	}
	return fmt.Sprintf("scigp: %s: dimension mismatch on axis %d (%s). Expected %d, got %d", e.Op, e.Axis, axisName, e.Expected, e.Got)
}

// MarshalZerologObject はzerologのイベントに構造化されたエラー情報を追加します。
func (e *DimensionError) MarshalZerologObject(event *zerolog.Event) {
	axisName := "features"
	if e.Axis == 0 {
		axisName = "rows"
	}
	event.Str("operation", e.Op).
		Int("expected", e.Expected).
		Int("got", e.Got).
		Int("axis", e.Axis).
		Str("axis_name", axisName).
		Int("row", e.Row).
		Str("type", "DimensionError")
}

// NewDimensionError は新しいDimensionErrorを作成し、スタックトレースを付与します。
func NewDimensionError(op string, expected, got, axis int) error {
	err := &DimensionError{Op: op, Expected: expected, Got: got, Axis: axis, Row: -1}
	return errors.WithStack(err)
}

// NewRowDimensionError は特定の行で特徴量数が一致しない場合のDimensionErrorを作成します。
func NewRowDimensionError(op string, row, expected, got int) error {
	err := &DimensionError{Op: op, Expected: expected, Got: got, Axis: 1, Row: row}
	return errors.WithStack(err)
}

// IngestionError は学習データ・クエリデータの読み込みで不正な行を検出した場合のエラーです。
// 学習前に発生し、部分的なデータセットが使われることはありません。
type IngestionError struct {
	Source string // 入力元（ファイル名など）
	Row    int    // データ行番号（ヘッダを除く0始まり）
	Column int    // 列番号（0始まり、行全体の問題の場合は-1）
	Value  string // 問題のあるフィールド値
	Reason string
	Err    error
}

func (e *IngestionError) Error() string {
	src := e.Source
	if src == "" {
		src = "input"
	}
	if e.Column >= 0 {
		return fmt.Sprintf("scigp: ingestion failed for %s at row %d, column %d (%q): %s", src, e.Row, e.Column, e.Value, e.Reason)
	}
	return fmt.Sprintf("scigp: ingestion failed for %s at row %d: %s", src, e.Row, e.Reason)
}

func (e *IngestionError) Unwrap() error {
	return e.Err
}

// MarshalZerologObject はzerologのイベントに構造化されたエラー情報を追加します。
func (e *IngestionError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("source", e.Source).
		Int("row", e.Row).
		Int("column", e.Column).
		Str("value", e.Value).
		Str("reason", e.Reason).
		Str("type", "IngestionError")
}

// NewIngestionError は新しいIngestionErrorを作成し、スタックトレースを付与します。
func NewIngestionError(source string, row, column int, value, reason string, cause error) error {
	err := &IngestionError{Source: source, Row: row, Column: column, Value: value, Reason: reason, Err: cause}
	return errors.WithStack(err)
}

// FitFailureError はどのリスタートも使用可能なハイパーパラメータに到達しなかった場合のエラーです。
// このエラーが返された場合、モデルは生成されません。
type FitFailureError struct {
	Restarts int   // 試行したリスタート数
	Cause    error // 最後に観測された失敗の原因
}

func (e *FitFailureError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("scigp: fit failed: none of %d restarts produced a positive-definite covariance: %v", e.Restarts, e.Cause)
	}
	return fmt.Sprintf("scigp: fit failed: none of %d restarts produced a positive-definite covariance", e.Restarts)
}

func (e *FitFailureError) Unwrap() error {
	return e.Cause
}

// MarshalZerologObject はzerologのイベントに構造化されたエラー情報を追加します。
func (e *FitFailureError) MarshalZerologObject(event *zerolog.Event) {
	event.Int("restarts", e.Restarts).
		Str("type", "FitFailureError")
	if e.Cause != nil {
		event.Str("cause", e.Cause.Error())
	}
}

// NewFitFailureError は新しいFitFailureErrorを作成し、スタックトレースを付与します。
func NewFitFailureError(restarts int, cause error) error {
	return errors.WithStack(&FitFailureError{Restarts: restarts, Cause: cause})
}

// ValidationError は入力パラメータの検証に失敗した場合のエラーです。
// `ValueError`よりも具体的なバリデーションロジックの失敗を示します。
type ValidationError struct {
	ParamName string
	Reason    string
	Value     interface{}
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("scigp: validation failed for parameter '%s': %s (got: %v)", e.ParamName, e.Reason, e.Value)
}

// MarshalZerologObject はzerologのイベントに構造化されたエラー情報を追加します。
func (e *ValidationError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("param_name", e.ParamName).
		Str("reason", e.Reason).
		Interface("value", e.Value).
		Str("type", "ValidationError")
}

// NewValidationError は新しいValidationErrorを作成し、スタックトレースを付与します。
func NewValidationError(param, reason string, value interface{}) error {
	err := &ValidationError{ParamName: param, Reason: reason, Value: value}
	return errors.WithStack(err)
}

// ValueError は引数の値が不適切または不正な場合に発生するエラーです。
type ValueError struct {
	Op      string
	Message string
}

func (e *ValueError) Error() string {
	return fmt.Sprintf("scigp: %s: %s", e.Op, e.Message)
}

// NewValueError は新しいValueErrorを作成し、スタックトレースを付与します。
func NewValueError(op, message string) error {
	err := &ValueError{Op: op, Message: message}
	return errors.WithStack(err)
}

// ModelError はモデルに関する一般的なエラーです。
type ModelError struct {
	Op   string
	Kind string
	Err  error
}

func (e *ModelError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("scigp: %s: %s: %v", e.Op, e.Kind, e.Err)
	}
	return fmt.Sprintf("scigp: %s: %s", e.Op, e.Kind)
}

func (e *ModelError) Unwrap() error {
	return e.Err
}

// NewModelError は新しいModelErrorを作成し、スタックトレースを付与します。
func NewModelError(op, kind string, err error) error {
	modelErr := &ModelError{Op: op, Kind: kind, Err: err}
	return errors.WithStack(modelErr)
}

// NumericalInstabilityError は数値計算が不安定になった場合のエラーです。
// 共分散行列が正定値にならない場合や、NaN・Infを検出した場合に使われます。
type NumericalInstabilityError struct {
	Operation string                 // 発生した操作（例: "cholesky", "nll"）
	Values    []float64              // 問題のある値
	Context   map[string]interface{} // デバッグ用の追加コンテキスト情報
	Iteration int                    // 発生したイテレーション番号（ジッター再試行回数など）
	Err       error
}

func (e *NumericalInstabilityError) Error() string {
	valStr := ""
	for i, v := range e.Values {
		if i > 0 {
			valStr += ", "
		}
		if i >= 5 {
			valStr += "..."
			break
		}
		valStr += fmt.Sprintf("%.6g", v)
	}
	return fmt.Sprintf("scigp: numerical instability detected in %s at iteration %d. Values: [%s]",
		e.Operation, e.Iteration, valStr)
}

func (e *NumericalInstabilityError) Unwrap() error {
	return e.Err
}

// MarshalZerologObject はzerologのイベントに構造化されたエラー情報を追加します。
func (e *NumericalInstabilityError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("operation", e.Operation).
		Floats64("values", e.Values).
		Int("iteration", e.Iteration).
		Fields(e.Context).
		Str("type", "NumericalInstabilityError")
}

// NewNumericalInstabilityError は新しいNumericalInstabilityErrorを作成します。
func NewNumericalInstabilityError(operation string, values []float64, iteration int) error {
	err := &NumericalInstabilityError{
		Operation: operation,
		Values:    values,
		Iteration: iteration,
		Context:   make(map[string]interface{}),
	}
	return errors.WithStack(err)
}

// NewNotPositiveDefiniteError はジッターを上限まで増やしても共分散行列が
// 正定値にならなかった場合のNumericalInstabilityErrorを作成します。
func NewNotPositiveDefiniteError(operation string, size, attempts int, lastJitter float64) error {
	err := &NumericalInstabilityError{
		Operation: operation,
		Values:    []float64{lastJitter},
		Iteration: attempts,
		Context: map[string]interface{}{
			"size":        size,
			"last_jitter": lastJitter,
		},
		Err: ErrNotPositiveDefinite,
	}
	return errors.WithStack(err)
}

// ===========================================================================
//
//	cockroachdb/errors ラッパー関数
//
// ===========================================================================

// Is はエラーが特定のターゲットエラーかどうかを判定します。
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As はエラーが特定の型にキャスト可能かどうかを判定します。
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}

// Wrap は既存のエラーをメッセージ付きでラップします。
func Wrap(err error, message string) error {
	return errors.Wrap(err, message)
}

// Wrapf は既存のエラーをフォーマット文字列でラップします。
func Wrapf(err error, format string, args ...interface{}) error {
	return errors.Wrapf(err, format, args...)
}

// New は新しいエラーを作成します。
func New(message string) error {
	return errors.New(message)
}

// Newf は新しいフォーマット済みエラーを作成します。
func Newf(format string, args ...interface{}) error {
	return errors.Newf(format, args...)
}

// WithStack はエラーにスタックトレースを付与します。
func WithStack(err error) error {
	return errors.WithStack(err)
}

// ===========================================================================
//
//	共通エラー変数
//
// ===========================================================================

var (
	// ErrEmptyData は空のデータが渡された場合のエラーです。
	ErrEmptyData = New("empty data")

	// ErrSingularMatrix は特異行列の場合のエラーです。
	ErrSingularMatrix = New("singular matrix")

	// ErrNotPositiveDefinite は共分散行列が正定値でない場合のエラーです。
	ErrNotPositiveDefinite = New("matrix is not positive definite")
)
