// Package artifact реализует файловые артефакты индекса: бинарную матрицу
// эмбеддингов и выровненную с ней таблицу продуктов (CSV). Оба артефакта
// записываются атомарно: во временный файл с последующим rename.
package artifact

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"
	"os"
	"path/filepath"

	"github.com/DRSN-tech/visual-matcher/internal/index"
	"github.com/DRSN-tech/visual-matcher/pkg/e"
	"github.com/jimlawless/whereami"
)

// Формат файла матрицы: заголовок (magic, version, rows, dim — little
// endian uint32) и rows*dim значений float32 в row-major порядке.
const (
	matrixMagic   = uint32(0x564d5458) // "VMTX"
	matrixVersion = uint32(1)
	headerSize    = 16
)

// MatrixRepo читает и пишет бинарный артефакт матрицы эмбеддингов.
type MatrixRepo struct {
	path string
}

func NewMatrixRepo(path string) *MatrixRepo {
	return &MatrixRepo{path: path}
}

// Save атомарно записывает матрицу на диск.
func (r *MatrixRepo) Save(m *index.Matrix) error {
	buf := bytes.NewBuffer(make([]byte, 0, headerSize+4*m.Rows()*m.Dim()))

	var header [headerSize]byte
	binary.LittleEndian.PutUint32(header[0:], matrixMagic)
	binary.LittleEndian.PutUint32(header[4:], matrixVersion)
	binary.LittleEndian.PutUint32(header[8:], uint32(m.Rows()))
	binary.LittleEndian.PutUint32(header[12:], uint32(m.Dim()))
	buf.Write(header[:])

	var cell [4]byte
	for i := 0; i < m.Rows(); i++ {
		for _, x := range m.Row(i) {
			binary.LittleEndian.PutUint32(cell[:], math.Float32bits(x))
			buf.Write(cell[:])
		}
	}

	if err := atomicWrite(r.path, buf.Bytes()); err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	return nil
}

// Load читает матрицу с диска и проверяет согласованность заголовка
// с фактическим размером файла.
func (r *MatrixRepo) Load() (*index.Matrix, error) {
	const op = "MatrixRepo.Load"

	raw, err := os.ReadFile(r.path)
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	if len(raw) < headerSize {
		return nil, e.Wrap(fmt.Sprintf("%s: file too short (%d bytes)", op, len(raw)), e.ErrCorruptEmbedding)
	}

	magic := binary.LittleEndian.Uint32(raw[0:])
	version := binary.LittleEndian.Uint32(raw[4:])
	rows := int(binary.LittleEndian.Uint32(raw[8:]))
	dim := int(binary.LittleEndian.Uint32(raw[12:]))

	if magic != matrixMagic {
		return nil, e.Wrap(fmt.Sprintf("%s: bad magic %#x", op, magic), e.ErrCorruptEmbedding)
	}
	if version != matrixVersion {
		return nil, e.Wrap(fmt.Sprintf("%s: unsupported version %d", op, version), e.ErrCorruptEmbedding)
	}

	body := raw[headerSize:]
	if len(body) != 4*rows*dim {
		return nil, e.Wrap(fmt.Sprintf("%s: body %d bytes, want %d", op, len(body), 4*rows*dim), e.ErrCorruptEmbedding)
	}

	data := make([]float32, rows*dim)
	for i := range data {
		data[i] = math.Float32frombits(binary.LittleEndian.Uint32(body[i*4:]))
	}

	m, err := index.MatrixFromFlat(data, rows, dim)
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	return m, nil
}

// atomicWrite записывает данные во временный файл рядом с целевым и
// подменяет целевой файл через rename, чтобы читатели никогда не видели
// частично записанный артефакт.
func atomicWrite(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return err
	}

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}

	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return err
	}

	return nil
}
