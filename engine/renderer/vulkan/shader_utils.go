package vulkan

import (
	"fmt"

	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/prism/engine/core"
)

// ShaderStage is a shader module plus the stage info that binds it into a
// pipeline. Modules only live until the pipeline has been created.
type ShaderStage struct {
	Handle                vk.ShaderModule
	ShaderStageCreateInfo vk.PipelineShaderStageCreateInfo
}

func NewShaderStage(device *LogicalDevice, code []uint32, stage vk.ShaderStageFlagBits) (*ShaderStage, error) {
	if len(code) == 0 {
		return nil, fmt.Errorf("%w: empty bytecode for stage %d", core.ErrPipelineCreation, stage)
	}

	createInfo := describeShaderModule(code)

	var handle vk.ShaderModule
	if res := vk.CreateShaderModule(device.Handle, &createInfo, nil, &handle); res != vk.Success {
		err := resultError(core.ErrPipelineCreation, "vkCreateShaderModule", res)
		core.LogError(err.Error())
		return nil, err
	}

	return &ShaderStage{
		Handle: handle,
		ShaderStageCreateInfo: vk.PipelineShaderStageCreateInfo{
			SType:  vk.StructureTypePipelineShaderStageCreateInfo,
			Stage:  stage,
			Module: handle,
			PName:  VulkanSafeString("main"),
		},
	}, nil
}

// describeShaderModule sizes the module in bytes, four per SPIR-V word.
func describeShaderModule(code []uint32) vk.ShaderModuleCreateInfo {
	return vk.ShaderModuleCreateInfo{
		SType:    vk.StructureTypeShaderModuleCreateInfo,
		CodeSize: uint64(len(code) * 4),
		PCode:    code,
	}
}

func (s *ShaderStage) Destroy(device *LogicalDevice) {
	if s.Handle != vk.NullShaderModule {
		vk.DestroyShaderModule(device.Handle, s.Handle, nil)
		s.Handle = vk.NullShaderModule
	}
}
