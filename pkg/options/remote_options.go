package options

import (
	"fmt"
	"time"

	"github.com/spf13/pflag"
)

var _ IOptions = (*RemoteOptions)(nil)

// RemoteOptions contains configuration items related to remote services.
type RemoteOptions struct {
	// Enabled exposes the remote service API and follows command statuses.
	Enabled bool `json:"enabled" mapstructure:"enabled"`

	// PollInterval is the wait between two status checks of a command.
	PollInterval time.Duration `json:"poll-interval" mapstructure:"poll-interval"`

	// PollTimeout bounds how long a command is followed.
	PollTimeout time.Duration `json:"poll-timeout" mapstructure:"poll-timeout"`
}

// NewRemoteOptions creates a RemoteOptions object with default parameters.
func NewRemoteOptions() *RemoteOptions {
	return &RemoteOptions{
		Enabled:      true,
		PollInterval: 3 * time.Second,
		PollTimeout:  240 * time.Second,
	}
}

func (o *RemoteOptions) Validate() []error {
	if o == nil {
		return nil
	}

	errors := []error{}

	if o.PollInterval <= 0 {
		errors = append(errors, fmt.Errorf("--remote.poll-interval must be positive, got %s", o.PollInterval))
	}
	if o.PollTimeout < o.PollInterval {
		errors = append(errors, fmt.Errorf("--remote.poll-timeout (%s) must not be shorter than --remote.poll-interval (%s)", o.PollTimeout, o.PollInterval))
	}

	return errors
}

// AddFlags adds flags related to remote services to the specified FlagSet.
func (o *RemoteOptions) AddFlags(fs *pflag.FlagSet, prefixes ...string) {
	fs.BoolVar(&o.Enabled, "remote.enabled", o.Enabled, "Expose the remote service API.")
	fs.DurationVar(&o.PollInterval, "remote.poll-interval", o.PollInterval, "Interval between status checks of a remote service.")
	fs.DurationVar(&o.PollTimeout, "remote.poll-timeout", o.PollTimeout, "How long to wait for a remote service to finish.")
}
