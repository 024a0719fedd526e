package app

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	cliflag "k8s.io/component-base/cli/flag"

	"github.com/autopeer-io/cpeer-report/cmd/cpeer-report/app/options"
	"github.com/autopeer-io/cpeer-report/pkg/log"
)

const (
	commandName = "cpeer-report"
	commandDesc = `cpeer-report derives service, check control and head unit reports from
raw vehicle state documents. It consumes documents over MQTT or HTTP, keeps the
latest report snapshot per vehicle and publishes it back to the broker.`
)

func NewReportCommand(ctx context.Context) *cobra.Command {
	cmd := &cobra.Command{
		Use:           commandName,
		Short:         "Derive vehicle maintenance and system status reports",
		Long:          commandDesc,
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	cmd.SetContext(ctx)

	cmd.AddCommand(newServeCommand())
	cmd.AddCommand(newDeriveCommand())
	cmd.AddCommand(newPublishCommand())
	cmd.AddCommand(newAnonymizeCommand())
	return cmd
}

func newServeCommand() *cobra.Command {
	opts := options.NewReportOptions()
	var configFile string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the MQTT consumer and the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := opts.Load(configFile, cmd.Flags()); err != nil {
				return err
			}

			cfg, err := opts.Config()
			if err != nil {
				return err
			}

			log.Init(opts.Log)
			defer func() { _ = log.Sync() }()

			mgr, err := cfg.NewServer()
			if err != nil {
				log.Error(err, "failed to create server")
				return err
			}

			if err := mgr.Start(cmd.Context()); err != nil {
				log.Error(err, "server exited with error")
				return fmt.Errorf("run %s: %w", commandName, err)
			}
			return nil
		},
	}

	fs := cmd.Flags()
	fs.StringVarP(&configFile, "config", "c", "", "Path to a configuration file (yaml, json or toml). Flags override its values.")
	namedfs := opts.Flags()
	for _, f := range namedfs.FlagSets {
		fs.AddFlagSet(f)
	}
	cliflag.SetUsageAndHelpFunc(cmd, namedfs, 80)

	return cmd
}
