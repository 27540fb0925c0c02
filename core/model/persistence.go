package model

import (
	"encoding/gob"
	"io"
	"os"

	"github.com/YuminosukeSato/scigp/pkg/errors"
)

// SaveModel はモデルのスナップショットをgob形式でファイルに保存する
//
// 使用例:
//
//	snap := fitted.Snapshot()
//	err := model.SaveModel(snap, "model.gob")
func SaveModel(model interface{}, filename string) (err error) {
	file, err := os.Create(filename)
	if err != nil {
		return errors.Wrapf(err, "create %s", filename)
	}
	defer func() {
		if cerr := file.Close(); err == nil && cerr != nil {
			err = errors.Wrapf(cerr, "close %s", filename)
		}
	}()
	return SaveModelToWriter(model, file)
}

// LoadModel はファイルからスナップショットを読み込む
//
// 使用例:
//
//	var snap gp.Snapshot
//	err := model.LoadModel(&snap, "model.gob")
func LoadModel(model interface{}, filename string) error {
	file, err := os.Open(filename)
	if err != nil {
		return errors.Wrapf(err, "open %s", filename)
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
