package preprocessing

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/YuminosukeSato/mleprep/core/model"
	"github.com/YuminosukeSato/mleprep/pkg/errors"
)

// zeroScaleThreshold 未満の標準偏差は 1 として扱う（定数列でのゼロ除算を避ける）
//
// scikit-learn の定数列判定（サンプル数と平均に比例する eps 基準）の近似で、
// 絶対値 1e-8 で切る。値の大きな列の丸め誤差レベルの分散は定数とみなされない。
const zeroScaleThreshold = 1e-8

// StandardScaler はscikit-learn互換の標準化スケーラー
// データを平均0、標準偏差1に変換する
//
// WithMean=false の場合でも平均と分散は実データから計算し、変換時に平均を
// 引かないだけである。one-hot 列のように中心化すると疎性が失われる入力に使う。
type StandardScaler struct {
	State *model.StateManager

	// Mean は各特徴量の平均値
	Mean []float64

	// Var は各特徴量の母分散 (ddof=0)
	Var []float64

	// Scale は各特徴量の標準偏差（WithStd=false の場合は 1）
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
//	XScaled, err := scaler.FitTransform(X)
func NewStandardScaler(withMean, withStd bool) *StandardScaler {
	return &StandardScaler{
		State:    model.NewStateManager(),
		WithMean: withMean,
		WithStd:  withStd,
	}
}

// NewStandardScalerDefault はデフォルト設定でStandardScalerを作成する
func NewStandardScalerDefault() *StandardScaler {
	return NewStandardScaler(true, true)
}

// IsFitted reports whether Fit has completed.
func (s *StandardScaler) IsFitted() bool {
	return s.State != nil && s.State.IsFitted()
}

// Fit は訓練データから統計情報（平均、分散、標準偏差）を計算する
func (s *StandardScaler) Fit(X mat.Matrix) error {
	r, c := X.Dims()
	if r == 0 || c == 0 {
		return errors.NewModelError("StandardScaler.Fit", "empty data", errors.ErrEmptyData)
	}
	if s.State == nil {
		s.State = model.NewStateManager()
	}

	s.Mean = make([]float64, c)
	s.Var = make([]float64, c)
	s.Scale = make([]float64, c)

	col := make([]float64, r)
	for j := 0; j < c; j++ {
		mat.Col(col, j, X)
		s.Mean[j], s.Var[j] = stat.PopMeanVariance(col, nil)

		s.Scale[j] = 1.0
		if s.WithStd {
			if std := math.Sqrt(s.Var[j]); std >= zeroScaleThreshold {
				s.Scale[j] = std
			}
		}
	}

	s.State.SetDimensions(c, r)
	s.State.SetFitted()
	return nil
}

// Transform は学習済みの統計情報を使ってデータを標準化する
func (s *StandardScaler) Transform(X mat.Matrix) (mat.Matrix, error) {
	if !s.IsFitted() {
		return nil, errors.NewNotFittedError("StandardScaler", "Transform")
	}

	r, c := X.Dims()
	if c != len(s.Scale) {
		return nil, errors.NewDimensionError("StandardScaler.Transform", len(s.Scale), c, 1)
	}

	result := mat.NewDense(r, c, nil)
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			value := X.At(i, j)
			if s.WithMean {
				value -= s.Mean[j]
			}
			result.Set(i, j, value/s.Scale[j])
		}
	}

	return result, nil
}

// FitTransform は訓練データで学習し、同じデータを変換する
func (s *StandardScaler) FitTransform(X mat.Matrix) (mat.Matrix, error) {
	if err := s.Fit(X); err != nil {
		return nil, err
	}
	return s.Transform(X)
}

// InverseTransform は標準化されたデータを元のスケールに戻す
func (s *StandardScaler) InverseTransform(X mat.Matrix) (mat.Matrix, error) {
	if !s.IsFitted() {
		return nil, errors.NewNotFittedError("StandardScaler", "InverseTransform")
	}

	r, c := X.Dims()
	if c != len(s.Scale) {
		return nil, errors.NewDimensionError("StandardScaler.InverseTransform", len(s.Scale), c, 1)
	}

	result := mat.NewDense(r, c, nil)
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			original := X.At(i, j) * s.Scale[j]
			if s.WithMean {
				original += s.Mean[j]
			}
			result.Set(i, j, original)
		}
	}

	return result, nil
}

// FeatureNamesOut は入力名をそのまま返す（列の並びは変わらない）
func (s *StandardScaler) FeatureNamesOut(input []string) []string {
	return append([]string(nil), input...)
}

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
		s.WithMean, s.WithStd, len(s.Scale))
}
