package model

import "gonum.org/v1/gonum/mat"

// Transformer はデータ変換のインターフェース
//
// Fit learns parameters from X only; Transform applies them without
// re-fitting and must be deterministic for a fitted transformer.
type Transformer interface {
	// Fit は変換に必要なパラメータを学習する
	Fit(X mat.Matrix) error

	// Transform はデータを変換する
	Transform(X mat.Matrix) (mat.Matrix, error)

	// FitTransform はFitとTransformを同時に実行する
	FitTransform(X mat.Matrix) (mat.Matrix, error)
}

// FeatureNamer is implemented by transformers that can name their output columns.
type FeatureNamer interface {
	// FeatureNamesOut returns one name per output column given the input names.
	FeatureNamesOut(input []string) []string
}
