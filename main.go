/*
Prism opens a window and draws a single triangle with Vulkan until the
window is closed, Escape is pressed or the process is interrupted.

	prism [config.toml]
*/
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spaghettifunk/prism/engine"
	"github.com/spaghettifunk/prism/engine/core"
)

const defaultConfigPath = "config.toml"

func main() {
	if err := run(); err != nil {
		core.LogError("%s", err)
		os.Exit(1)
	}
}

func run() error {
	path := defaultConfigPath
	if len(os.Args) > 1 {
		path = os.Args[1]
	}

	cfg, err := core.LoadConfig(path)
	if err != nil {
		return err
	}

	e, err := engine.New(cfg)
	if err != nil {
		return err
	}

	// capture sigterm and other system calls, checked between frames
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT, syscall.SIGQUIT)
	defer stop()

	if err := e.Initialize(); err != nil {
		return err
	}

	runErr := e.Run(ctx)
	if err := e.Shutdown(); err != nil && runErr == nil {
		return err
	}
	return runErr
}
