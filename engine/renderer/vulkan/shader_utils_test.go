package vulkan

import (
	"testing"

	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/prism/engine/core"
	"github.com/stretchr/testify/assert"
)

func TestDescribeShaderModule(t *testing.T) {
	code := []uint32{0x07230203, 0x00010000, 0x0008000b}
	info := describeShaderModule(code)

	assert.Equal(t, vk.StructureTypeShaderModuleCreateInfo, info.SType)
	assert.Equal(t, uint64(12), info.CodeSize)
	assert.Equal(t, code, info.PCode)
}

func TestNewShaderStageRejectsEmptyCode(t *testing.T) {
	_, err := NewShaderStage(nil, nil, vk.ShaderStageVertexBit)
	assert.ErrorIs(t, err, core.ErrPipelineCreation)
}
