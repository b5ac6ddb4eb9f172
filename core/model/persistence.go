package model

import (
	"encoding/gob"
	"io"
	"os"
	"path/filepath"

	"github.com/YuminosukeSato/mleprep/pkg/errors"
)

// SaveModel はモデルをファイルに保存する
//
// 親ディレクトリが存在しない場合は作成する。ファイルはどの経路でも必ず閉じられ、
// エンコードが成功した後の Close の失敗もエラーとして返す。書き込み途中で失敗した
// 場合、不完全なファイルが残ることがある。
//
// パラメータ:
//   - model: 保存するモデル（エクスポートされたフィールドに状態を持つ構造体のポインタ）
//   - filename: 保存先のファイルパス
//
// 使用例:
//
//	ct := compose.NewColumnTransformer(...)
//	// ... FitTransform ...
//	err := model.SaveModel(ct, "artifact/preprocessor.gob")
func SaveModel(model interface{}, filename string) (err error) {
	if dir := filepath.Dir(filename); dir != "" {
		if mkErr := os.MkdirAll(dir, 0o755); mkErr != nil {
			return errors.Wrapf(mkErr, "failed to create directory %s", dir)
		}
	}

	file, err := os.Create(filename)
	if err != nil {
		return errors.Wrap(err, "failed to create file")
	}
	defer func() {
		if closeErr := file.Close(); closeErr != nil {
			err = errors.CombineErrors(err, errors.Wrap(closeErr, "failed to close file"))
		}
	}()

	return SaveModelToWriter(model, file)
}

// LoadModel はファイルからモデルを読み込む
//
// パラメータ:
//   - model: 読み込み先のモデル（ポインタ）
//   - filename: 読み込み元のファイルパス
func LoadModel(model interface{}, filename string) error {
	file, err := os.Open(filename)
	if err != nil {
		return errors.Wrap(err, "failed to open file")
	}
	defer file.Close()

	return LoadModelFromReader(model, file)
}

// SaveModelToWriter はモデルをio.Writerに保存する
func SaveModelToWriter(model interface{}, w io.Writer) error {
	if err := gob.NewEncoder(w).Encode(model); err != nil {
		return errors.Wrap(err, "failed to encode model")
	}
	return nil
}

// LoadModelFromReader はio.Readerからモデルを読み込む
func LoadModelFromReader(model interface{}, r io.Reader) error {
	if err := gob.NewDecoder(r).Decode(model); err != nil {
		return errors.Wrap(err, "failed to decode model")
	}
	return nil
}
