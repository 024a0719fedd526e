package options

import (
	"fmt"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	utilerrors "k8s.io/apimachinery/pkg/util/errors"
	cliflag "k8s.io/component-base/cli/flag"

	"github.com/autopeer-io/cpeer-report/internal/reporter"
	"github.com/autopeer-io/cpeer-report/pkg/log"
	"github.com/autopeer-io/cpeer-report/pkg/options"
)

type ReportOptions struct {
	HttpOptions *options.HttpOptions `json:"http" mapstructure:"http"`
	MqttOptions   *options.MqttOptions   `json:"mqtt" mapstructure:"mqtt"`
	RemoteOptions *options.RemoteOptions `json:"remote" mapstructure:"remote"`
	Log         *log.Options         `json:"log" mapstructure:"log"`
}

func NewReportOptions() *ReportOptions {
	return &ReportOptions{
		HttpOptions: options.NewHttpOptions(),
		MqttOptions:   options.NewMqttOptions(),
		RemoteOptions: options.NewRemoteOptions(),
		Log:           log.NewOptions(),
	}
}

func (o *ReportOptions) Flags() cliflag.NamedFlagSets {
	fss := cliflag.NamedFlagSets{}
	o.HttpOptions.AddFlags(fss.FlagSet("http"))
	o.MqttOptions.AddFlags(fss.FlagSet("mqtt"))
	o.RemoteOptions.AddFlags(fss.FlagSet("remote"))
	o.Log.AddFlags(fss.FlagSet("log"))
	return fss
}

// Load overlays the settings of configFile onto o. Flags that were set
// explicitly on the command line take precedence over the file.
func (o *ReportOptions) Load(configFile string, fs *pflag.FlagSet) error {
	if configFile == "" {
		return nil
	}

	v := viper.New()
	v.SetConfigFile(configFile)
	if err := v.ReadInConfig(); err != nil {
		return fmt.Errorf("failed to read config file %s: %w", configFile, err)
	}
	if err := v.BindPFlags(fs); err != nil {
		return err
	}
	if err := v.Unmarshal(o); err != nil {
		return fmt.Errorf("failed to decode config file %s: %w", configFile, err)
	}
	return nil
}

func (o *ReportOptions) Validate() error {
	errs := []error{}
	errs = append(errs, o.HttpOptions.Validate()...)
	errs = append(errs, o.MqttOptions.Validate()...)
	errs = append(errs, o.RemoteOptions.Validate()...)
	errs = append(errs, o.Log.Validate()...)
	return utilerrors.NewAggregate(errs)
}

func (o *ReportOptions) Config() (*reporter.Config, error) {
	if err := o.Validate(); err != nil {
		return nil, err
	}
	return &reporter.Config{
		HttpOptions: o.HttpOptions,
		MqttOptions:   o.MqttOptions,
		RemoteOptions: o.RemoteOptions,
	}, nil
}
