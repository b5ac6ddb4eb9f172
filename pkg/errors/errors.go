// Package errors はプロジェクト全体のエラーハンドリングを提供します。
// scikit-learnの例外システムにインスパイアされており、構造化されたエラー情報を提供します。
//
// All constructors attach a stack trace through cockroachdb/errors, so
// "%+v" formatting of any returned error shows where it was created.
package errors

import (
	"fmt"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/rs/zerolog"
)

// ===========================================================================
//
//	構造化されたエラー型
//
// ===========================================================================

// TransformationError is the single error kind returned by the data
// transformation entry points. Step names the stage that failed and Err keeps
// the original cause reachable through errors.As / errors.Is.
type TransformationError struct {
	Step string
	Err  error
}

func (e *TransformationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("mleprep: transformation failed at %s: %v", e.Step, e.Err)
	}
	return fmt.Sprintf("mleprep: transformation failed at %s", e.Step)
}

func (e *TransformationError) Unwrap() error {
	return e.Err
}

// MarshalZerologObject はzerologのイベントに構造化されたエラー情報を追加します。
func (e *TransformationError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("step", e.Step).
		Str("type", "TransformationError")
	if e.Err != nil {
		event.Str("cause", e.Err.Error())
	}
}

// NewTransformationError wraps err with the failing step. An error that is
// already a TransformationError is returned unchanged so that the innermost
// step stays the reported one. A nil err yields nil.
func NewTransformationError(step string, err error) error {
	if err == nil {
		return nil
	}
	var existing *TransformationError
	if errors.As(err, &existing) {
		return err
	}
	return errors.WithStack(&TransformationError{Step: step, Err: err})
}

// NotFittedError はモデルが未学習の状態で `Transform` を呼び出した場合のエラーです。
type NotFittedError struct {
	ModelName string
	Method    string
}

func (e *NotFittedError) Error() string {
	return fmt.Sprintf("mleprep: %s: this model is not fitted yet. Call Fit() before using %s()", e.ModelName, e.Method)
}

// MarshalZerologObject はzerologのイベントに構造化されたエラー情報を追加します。
func (e *NotFittedError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("model_name", e.ModelName).
		Str("method", e.Method).
		Str("type", "NotFittedError")
}

// NewNotFittedError は新しいNotFittedErrorを作成し、スタックトレースを付与します。
func NewNotFittedError(modelName, method string) error {
	return errors.WithStack(&NotFittedError{ModelName: modelName, Method: method})
}

// DimensionError は入力データの次元が期待値と異なる場合のエラーです。
type DimensionError struct {
	Op       string
	Expected int
	Got      int
	Axis     int // 0 for rows, 1 for columns/features
}

func (e *DimensionError) Error() string {
	axisName := "features"
	if e.Axis == 0 {
		axisName = "rows"
	}
	return fmt.Sprintf("mleprep: %s: dimension mismatch on axis %d (%s). Expected %d, got %d", e.Op, e.Axis, axisName, e.Expected, e.Got)
}

// NewDimensionError は新しいDimensionErrorを作成し、スタックトレースを付与します。
func NewDimensionError(op string, expected, got, axis int) error {
	return errors.WithStack(&DimensionError{Op: op, Expected: expected, Got: got, Axis: axis})
}

// ValidationError は入力パラメータの検証に失敗した場合のエラーです。
type ValidationError struct {
	ParamName string
	Reason    string
	Value     interface{}
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("mleprep: validation failed for parameter '%s': %s (got: %v)", e.ParamName, e.Reason, e.Value)
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
	return errors.WithStack(&ValidationError{ParamName: param, Reason: reason, Value: value})
}

// ValueError は引数の値が不適切または不正な場合に発生するエラーです。
// 例えば、全ての値が欠損している列で中央値を計算しようとした場合など。
type ValueError struct {
	Op      string
	Message string
}

func (e *ValueError) Error() string {
	return fmt.Sprintf("mleprep: %s: %s", e.Op, e.Message)
}

// NewValueError は新しいValueErrorを作成し、スタックトレースを付与します。
func NewValueError(op, message string) error {
	return errors.WithStack(&ValueError{Op: op, Message: message})
}

// ModelError は変換器に関する一般的なエラーです。
type ModelError struct {
	Op   string
	Kind string
	Err  error
}

func (e *ModelError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("mleprep: %s: %s: %v", e.Op, e.Kind, e.Err)
	}
	return fmt.Sprintf("mleprep: %s: %s", e.Op, e.Kind)
}

func (e *ModelError) Unwrap() error {
	return e.Err
}

// NewModelError は新しいModelErrorを作成し、スタックトレースを付与します。
func NewModelError(op, kind string, err error) error {
	return errors.WithStack(&ModelError{Op: op, Kind: kind, Err: err})
}

// UnknownCategoryError is raised by a one-hot encoder configured to reject
// categories it did not see during fitting.
type UnknownCategoryError struct {
	Column string
	Values []string
}

func (e *UnknownCategoryError) Error() string {
	return fmt.Sprintf("mleprep: found unknown categories %q in column %s during transform", e.Values, e.Column)
}

// MarshalZerologObject はzerologのイベントに構造化されたエラー情報を追加します。
func (e *UnknownCategoryError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("column", e.Column).
		Strs("values", e.Values).
		Str("type", "UnknownCategoryError")
}

// NewUnknownCategoryError は新しいUnknownCategoryErrorを作成し、スタックトレースを付与します。
func NewUnknownCategoryError(column string, values []string) error {
	return errors.WithStack(&UnknownCategoryError{Column: column, Values: values})
}

// MissingColumnError reports columns a table was expected to carry.
type MissingColumnError struct {
	Source  string
	Columns []string
}

func (e *MissingColumnError) Error() string {
	return fmt.Sprintf("mleprep: %s: missing required columns [%s]", e.Source, strings.Join(e.Columns, ", "))
}

// NewMissingColumnError は新しいMissingColumnErrorを作成し、スタックトレースを付与します。
func NewMissingColumnError(source string, columns []string) error {
	return errors.WithStack(&MissingColumnError{Source: source, Columns: columns})
}

// NumericalInstabilityError は数値計算が不安定になった場合のエラーです。
// NaN や Inf が変換結果に含まれていることを示します。
type NumericalInstabilityError struct {
	Operation string    // 発生した操作（例: "StandardScaler.Transform"）
	Values    []float64 // 問題のある値
	Row       int       // 最初に検出された行
	Col       int       // 最初に検出された列
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
	return fmt.Sprintf("mleprep: numerical instability detected in %s at row %d, column %d. Values: [%s]",
		e.Operation, e.Row, e.Col, valStr)
}

// NewNumericalInstabilityError は新しいNumericalInstabilityErrorを作成します。
func NewNumericalInstabilityError(operation string, values []float64, row, col int) error {
	return errors.WithStack(&NumericalInstabilityError{
		Operation: operation,
		Values:    values,
		Row:       row,
		Col:       col,
	})
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

// CombineErrors returns err if other is nil, other if err is nil, and err
// with other attached as a secondary error otherwise.
func CombineErrors(err, other error) error {
	return errors.CombineErrors(err, other)
}

// ===========================================================================
//
//	共通エラー変数
//
// ===========================================================================

var (
	// ErrEmptyData は空のデータが渡された場合のエラーです。
	ErrEmptyData = New("empty data")
)
