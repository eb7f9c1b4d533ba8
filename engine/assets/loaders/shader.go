package loaders

import (
	"fmt"
	"path/filepath"
	"strings"
)

// SpirvMagic is the first word of every SPIR-V module.
const SpirvMagic uint32 = 0x07230203

type ShaderLoader struct {
	binary BinaryLoader
}

// Load reads a compiled SPIR-V module and checks its header.
func (sl *ShaderLoader) Load(path string) (*Resource, error) {
	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	res, err := sl.binary.Load(name, path)
	if err != nil {
		return nil, err
	}
	if len(res.Data) == 0 {
		return nil, fmt.Errorf("%s: empty shader module", path)
	}
	if res.Data[0] != SpirvMagic {
		return nil, fmt.Errorf("%s: bad SPIR-V magic 0x%08x", path, res.Data[0])
	}
	return res, nil
}
