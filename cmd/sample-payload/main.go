package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/diwise/iot-sample-payload/internal/pkg/presentation/cli"
	"github.com/diwise/service-chassis/pkg/infrastructure/buildinfo"
	"github.com/diwise/service-chassis/pkg/infrastructure/o11y"
)

const appName string = "iot-sample-payload"

func main() {
	appVersion := buildinfo.SourceVersion()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	ctx, log, cleanup := o11y.Init(ctx, appName, appVersion, "json")
	defer cleanup()

	err := cli.NewRootCommand(ctx, appVersion).ExecuteContext(ctx)
	if err != nil {
		log.Error("command failed", "err", err.Error())
		cleanup()
		os.Exit(1)
	}
}
