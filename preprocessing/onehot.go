package preprocessing

import (
	"fmt"
	"sort"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/mleprep/core/model"
	"github.com/YuminosukeSato/mleprep/pkg/errors"
)

// Unknown-category policies of OneHotEncoder.
const (
	HandleUnknownError  = "error"
	HandleUnknownIgnore = "ignore"
)

// OneHotEncoder はscikit-learn互換のone-hotエンコーダー
//
// 各入力列のカテゴリを辞書順に並べ、カテゴリごとに 0/1 の列を出力する。
// 入力列 j の出力ブロックは Categories[j] と同じ順序で並ぶ。
type OneHotEncoder struct {
	State *model.StateManager

	// Categories は入力列ごとの学習済みカテゴリ（辞書順）
	Categories [][]string

	// HandleUnknown は未知カテゴリの扱い ("error" または "ignore")
	HandleUnknown string

	// FeatureNamesIn は入力列の名前（任意）。エラーメッセージと出力名に使う
	FeatureNamesIn []string
}

// NewOneHotEncoder は未知カテゴリでエラーを返すエンコーダーを作成する
func NewOneHotEncoder() *OneHotEncoder {
	return &OneHotEncoder{
		State:         model.NewStateManager(),
		HandleUnknown: HandleUnknownError,
	}
}

// IsFitted reports whether Fit has completed.
func (e *OneHotEncoder) IsFitted() bool {
	return e.State != nil && e.State.IsFitted()
}

// Fit は各列の異なる値を収集してカテゴリを学習する
func (e *OneHotEncoder) Fit(X [][]string) error {
	rows, cols, err := stringDims("OneHotEncoder.Fit", X)
	if err != nil {
		return err
	}
	switch e.HandleUnknown {
	case HandleUnknownError, HandleUnknownIgnore:
	default:
		return errors.NewValidationError("handle_unknown", "must be error or ignore", e.HandleUnknown)
	}
	if e.State == nil {
		e.State = model.NewStateManager()
	}

	categories := make([][]string, cols)
	for j := 0; j < cols; j++ {
		seen := make(map[string]struct{})
		for i := 0; i < rows; i++ {
			seen[X[i][j]] = struct{}{}
		}
		cats := make([]string, 0, len(seen))
		for v := range seen {
			cats = append(cats, v)
		}
		sort.Strings(cats)
		categories[j] = cats
	}

	e.Categories = categories
	e.State.SetDimensions(cols, rows)
	e.State.SetFitted()
	return nil
}

// NOutputs returns the number of columns Transform produces.
func (e *OneHotEncoder) NOutputs() int {
	n := 0
	for _, cats := range e.Categories {
		n += len(cats)
	}
	return n
}

// Transform はデータを one-hot 行列に変換する
//
// HandleUnknown が "error" の場合、学習時に見ていない値があれば列ごとに
// UnknownCategoryError を返す。"ignore" の場合はその列のブロックを全て 0 にする。
func (e *OneHotEncoder) Transform(X [][]string) (mat.Matrix, error) {
	if !e.IsFitted() {
		return nil, errors.NewNotFittedError("OneHotEncoder", "Transform")
	}
	rows, cols, err := stringDims("OneHotEncoder.Transform", X)
	if err != nil {
		return nil, err
	}
	if cols != len(e.Categories) {
		return nil, errors.NewDimensionError("OneHotEncoder.Transform", len(e.Categories), cols, 1)
	}

	index := make([]map[string]int, cols)
	for j, cats := range e.Categories {
		index[j] = make(map[string]int, len(cats))
		for k, v := range cats {
			index[j][v] = k
		}
	}

	result := mat.NewDense(rows, e.NOutputs(), nil)
	offset := 0
	for j := 0; j < cols; j++ {
		var unknown []string
		for i := 0; i < rows; i++ {
			k, ok := index[j][X[i][j]]
			if !ok {
				unknown = appendUnique(unknown, X[i][j])
				continue
			}
			result.Set(i, offset+k, 1)
		}
		if len(unknown) > 0 && e.HandleUnknown == HandleUnknownError {
			sort.Strings(unknown)
			return nil, errors.NewUnknownCategoryError(e.inputName(j), unknown)
		}
		offset += len(e.Categories[j])
	}
	return result, nil
}

// FitTransform はFitとTransformを続けて実行する
func (e *OneHotEncoder) FitTransform(X [][]string) (mat.Matrix, error) {
	if err := e.Fit(X); err != nil {
		return nil, err
	}
	return e.Transform(X)
}

// FeatureNamesOut は "<入力名>_<カテゴリ>" 形式の出力名を返す
// input が nil の場合は FeatureNamesIn を使う。
func (e *OneHotEncoder) FeatureNamesOut(input []string) []string {
	if input == nil {
		input = e.FeatureNamesIn
	}
	names := make([]string, 0, e.NOutputs())
	for j, cats := range e.Categories {
		prefix := fmt.Sprintf("x%d", j)
		if j < len(input) {
			prefix = input[j]
		}
		for _, c := range cats {
			names = append(names, prefix+"_"+c)
		}
	}
	return names
}

// GetParams はエンコーダーのパラメータを取得する
func (e *OneHotEncoder) GetParams() map[string]interface{} {
	return map[string]interface{}{
		"handle_unknown": e.HandleUnknown,
	}
}

func (e *OneHotEncoder) String() string {
	return fmt.Sprintf("OneHotEncoder(handle_unknown=%s)", e.HandleUnknown)
}

func (e *OneHotEncoder) inputName(j int) string {
	if j < len(e.FeatureNamesIn) {
		return e.FeatureNamesIn[j]
	}
	return fmt.Sprintf("x%d", j)
}

func appendUnique(values []string, v string) []string {
	for _, existing := range values {
		if existing == v {
			return values
		}
	}
	return append(values, v)
}
