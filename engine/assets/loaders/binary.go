package loaders

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"
)

// Resource is a blob read from disk.
type Resource struct {
	Name     string
	FullPath string
	DataSize uint64
	Data     []uint32
}

type BinaryLoader struct{}

// Load reads a whole file as little-endian 32-bit words.
func (bl *BinaryLoader) Load(name, path string) (*Resource, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	buf, err := io.ReadAll(f)
	if err != nil {
		return nil, err
	}

	words, err := bytesToBytecode(buf)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	return &Resource{
		Name:     name,
		FullPath: path,
		DataSize: uint64(len(buf)),
		Data:     words,
	}, nil
}

func bytesToBytecode(b []byte) ([]uint32, error) {
	if len(b)%4 != 0 {
		return nil, fmt.Errorf("size %d is not a multiple of 4", len(b))
	}
	byteCode := make([]uint32, len(b)/4)
	for i := range byteCode {
		byteCode[i] = binary.LittleEndian.Uint32(b[i*4:])
	}
	return byteCode, nil
}
