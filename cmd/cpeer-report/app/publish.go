package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	utilerrors "k8s.io/apimachinery/pkg/util/errors"

	"github.com/autopeer-io/cpeer-report/internal/report"
	"github.com/autopeer-io/cpeer-report/pkg/log"
	"github.com/autopeer-io/cpeer-report/pkg/mqtt"
	"github.com/autopeer-io/cpeer-report/pkg/mqtt/topic"
	"github.com/autopeer-io/cpeer-report/pkg/options"
)

type publishOptions struct {
	vin     string
	timeout time.Duration
	mqtt    *options.MqttOptions
	log     *log.Options
}

func newPublishCommand() *cobra.Command {
	o := &publishOptions{
		timeout: 10 * time.Second,
		mqtt:    options.NewMqttOptions(),
		log:     log.NewOptions(),
	}

	cmd := &cobra.Command{
		Use:   "publish FILE...",
		Short: "Publish state documents to the state topic of a vehicle",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := o.validate(); err != nil {
				return err
			}
			log.Init(o.log)
			defer func() { _ = log.Sync() }()

			payloads := make([][]byte, 0, len(args))
			for _, path := range args {
				data, err := readInput(path, cmd.InOrStdin())
				if err != nil {
					return err
				}
				if _, err := report.DecodeDocument(data); err != nil {
					return fmt.Errorf("%s: %w", path, err)
				}
				payloads = append(payloads, data)
			}

			return o.publish(cmd.Context(), payloads)
		},
	}

	fs := cmd.Flags()
	fs.StringVar(&o.vin, "vin", o.vin, "VIN whose state topic receives the documents.")
	fs.DurationVar(&o.timeout, "timeout", o.timeout, "Timeout for connecting and publishing.")
	o.mqtt.AddFlags(fs)
	o.log.AddFlags(fs)

	return cmd
}

func (o *publishOptions) validate() error {
	errs := []error{}
	if o.vin == "" {
		errs = append(errs, errors.New("--vin is required"))
	}
	errs = append(errs, o.mqtt.Validate()...)
	errs = append(errs, o.log.Validate()...)
	return utilerrors.NewAggregate(errs)
}

func (o *publishOptions) publish(ctx context.Context, payloads [][]byte) error {
	cfg := o.mqtt.ToClientConfig()
	if cfg.ClientID == "" {
		cfg.ClientID = fmt.Sprintf("cpeer-report-publish-%d", os.Getpid())
	}

	client, err := mqtt.NewClient(cfg)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()

	if err := client.Start(ctx); err != nil {
		return err
	}
	defer client.Disconnect(context.Background())

	if err := client.AwaitConnection(ctx); err != nil {
		return fmt.Errorf("connect to %s: %w", cfg.BrokerURL, err)
	}

	t := topic.NewBuilder(o.mqtt.TopicRoot).Build(topic.State, o.vin)
	for i, payload := range payloads {
		if err := client.Publish(ctx, t, o.mqtt.QoS, false, payload); err != nil {
			return fmt.Errorf("publish document %d: %w", i, err)
		}
		log.Info("Published state document", "topic", t, "bytes", len(payload))
	}
	return nil
}
