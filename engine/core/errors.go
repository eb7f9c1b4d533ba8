package core

import (
	"errors"
)

// Every fatal renderer failure wraps exactly one of these.
var (
	ErrInstanceCreation  = errors.New("instance creation failed")
	ErrNoSuitableDevice  = errors.New("no suitable device")
	ErrSurfaceCreation   = errors.New("surface creation failed")
	ErrSwapchainCreation = errors.New("swapchain creation failed")
	ErrPipelineCreation  = errors.New("pipeline creation failed")
	ErrShaderLoad        = errors.New("shader load failed")
	ErrCommandRecording  = errors.New("command recording failed")
	ErrPresentation      = errors.New("presentation failed")
)

var (
	// ErrSwapchainOutOfDate is not fatal: the surface changed and the swapchain
	// chain has to be rebuilt before the next frame.
	ErrSwapchainOutOfDate = errors.New("swapchain out of date")
	ErrConfig             = errors.New("invalid configuration")
)
