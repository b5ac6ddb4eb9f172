// Package preprocessing はscikit-learn互換の前処理トランスフォーマーを提供する
//
// 数値列には SimpleImputer と StandardScaler を、カテゴリ列には
// CategoricalImputer と OneHotEncoder を使う。欠損値は数値列では NaN、
// カテゴリ列では空文字列で表す。
//
// どのトランスフォーマーも学習済みの状態をエクスポートされたフィールドに持つため、
// core/model の gob 永続化でそのまま保存と復元ができる。
package preprocessing

import (
	"encoding/gob"

	"github.com/YuminosukeSato/mleprep/core/model"
)

var (
	_ model.Transformer     = (*SimpleImputer)(nil)
	_ model.Transformer     = (*StandardScaler)(nil)
	_ model.FeatureNamer    = (*StandardScaler)(nil)
	_ model.ParameterGetter = (*SimpleImputer)(nil)
	_ model.ParameterGetter = (*StandardScaler)(nil)
	_ model.ParameterGetter = (*CategoricalImputer)(nil)
	_ model.ParameterGetter = (*OneHotEncoder)(nil)
)

func init() {
	gob.Register(&SimpleImputer{})
	gob.Register(&CategoricalImputer{})
	gob.Register(&StandardScaler{})
	gob.Register(&OneHotEncoder{})
}
