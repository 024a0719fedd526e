package main

import (
	"os"

	_ "go.uber.org/automaxprocs"
	"k8s.io/apiserver/pkg/server"

	"github.com/autopeer-io/cpeer-report/cmd/cpeer-report/app"
)

func main() {
	ctx := server.SetupSignalContext()
	if err := app.NewReportCommand(ctx).Execute(); err != nil {
		os.Exit(1)
	}
}
