package loaders

import (
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeWords(t *testing.T, words ...uint32) string {
	t.Helper()
	buf := make([]byte, 4*len(words))
	for i, w := range words {
		binary.LittleEndian.PutUint32(buf[i*4:], w)
	}
	path := filepath.Join(t.TempDir(), "triangle.vert.spv")
	require.NoError(t, os.WriteFile(path, buf, 0o644))
	return path
}

func TestShaderLoaderDecodesWords(t *testing.T) {
	path := writeWords(t, SpirvMagic, 0x00010000, 0xdeadbeef)

	sl := &ShaderLoader{}
	res, err := sl.Load(path)
	require.NoError(t, err)

	assert.Equal(t, "triangle.vert", res.Name)
	assert.Equal(t, uint64(12), res.DataSize)
	assert.Equal(t, []uint32{SpirvMagic, 0x00010000, 0xdeadbeef}, res.Data)
}

func TestShaderLoaderRejectsBadMagic(t *testing.T) {
	path := writeWords(t, 0x12345678)

	_, err := (&ShaderLoader{}).Load(path)
	assert.ErrorContains(t, err, "magic")
}

func TestShaderLoaderRejectsOddSize(t *testing.T) {
	path := filepath.Join(t.TempDir(), "odd.spv")
	require.NoError(t, os.WriteFile(path, []byte{0x03, 0x02, 0x23, 0x07, 0x01}, 0o644))

	_, err := (&ShaderLoader{}).Load(path)
	assert.ErrorContains(t, err, "multiple of 4")
}

func TestShaderLoaderMissingFile(t *testing.T) {
	_, err := (&ShaderLoader{}).Load(filepath.Join(t.TempDir(), "missing.spv"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}
