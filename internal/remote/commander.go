package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/autopeer-io/cpeer-report/internal/pkg/metrics"
	"github.com/autopeer-io/cpeer-report/pkg/log"
	"github.com/autopeer-io/cpeer-report/pkg/mqtt/topic"
)

// ErrInvalidRequest is returned for a request the vehicle would reject.
var ErrInvalidRequest = errors.New("invalid remote service request")

// Publisher sends one MQTT message.
type Publisher interface {
	Publish(ctx context.Context, topic string, qos int, retain bool, payload []byte) error
}

// Command is the payload published on the command topic of a vehicle.
type Command struct {
	EventID string            `json:"eventId"`
	Service Service           `json:"service"`
	Params  map[string]string `json:"params,omitempty"`
	Data    json.RawMessage   `json:"data,omitempty"`
}

// Request asks for one remote service execution.
type Request struct {
	Service Service           `json:"-"`
	Params  map[string]string `json:"params,omitempty"`
	Data    json.RawMessage   `json:"data,omitempty"`
}

// ChargingSettings is the data of a CHARGING_SETTINGS request.
type ChargingSettings struct {
	ChargingTarget *int `json:"chargingTarget,omitempty"`
	ACLimitValue   *int `json:"acLimitValue,omitempty"`
}

// Validate checks the parameters the vehicle expects for r.Service.
func (r Request) Validate() error {
	switch r.Service {
	case ServiceClimateNow:
		switch action := r.Params["action"]; action {
		case "START", "STOP":
		default:
			return fmt.Errorf("%w: climate action must be START or STOP, got %q", ErrInvalidRequest, action)
		}
	case ServiceChargingSettings:
		var cs ChargingSettings
		if err := json.Unmarshal(r.Data, &cs); err != nil {
			return fmt.Errorf("%w: charging settings: %v", ErrInvalidRequest, err)
		}
		return cs.Validate()
	case ServiceSendPOI:
		if len(bytes.TrimSpace(r.Data)) == 0 {
			return fmt.Errorf("%w: point of interest data is required", ErrInvalidRequest)
		}
	case "":
		return fmt.Errorf("%w: service is required", ErrInvalidRequest)
	}
	return nil
}

// Validate checks that at least one setting is given and that the target
// state of charge is a multiple of 5 between 20 and 100.
func (cs ChargingSettings) Validate() error {
	if cs.ChargingTarget == nil && cs.ACLimitValue == nil {
		return fmt.Errorf("%w: no charging setting given", ErrInvalidRequest)
	}
	if t := cs.ChargingTarget; t != nil {
		if *t < 20 || *t > 100 || *t%5 != 0 {
			return fmt.Errorf("%w: target SoC must be an integer between 20 and 100 that is a multiple of 5, got %d", ErrInvalidRequest, *t)
		}
	}
	if l := cs.ACLimitValue; l != nil && *l <= 0 {
		return fmt.Errorf("%w: AC limit must be positive, got %d", ErrInvalidRequest, *l)
	}
	return nil
}

// Commander publishes remote service commands and waits for their outcome.
// Status updates arrive through HandleStatus.
type Commander struct {
	publisher Publisher
	topics    *topic.Builder
	qos       int
	poller    Poller
	tracker   *Tracker
	logger    log.Logger
}

func NewCommander(publisher Publisher, topics *topic.Builder, qos int, poller Poller) *Commander {
	return &Commander{
		publisher: publisher,
		topics:    topics,
		qos:       qos,
		poller:    poller.withDefaults(),
		tracker:   NewTracker(),
		logger:    log.WithName("remote"),
	}
}

// Trigger sends req to vin and blocks until the vehicle reports a final
// state, the poll timeout passes or ctx is done.
func (c *Commander) Trigger(ctx context.Context, vin string, req Request) (Status, error) {
	if err := req.Validate(); err != nil {
		return Status{}, err
	}

	cmd := Command{EventID: uuid.NewString(), Service: req.Service, Params: req.Params, Data: req.Data}
	payload, err := json.Marshal(cmd)
	if err != nil {
		return Status{}, err
	}

	c.tracker.Track(cmd.EventID)
	defer c.tracker.Forget(cmd.EventID)

	logger := c.logger.WithValues("vin", vin, "service", req.Service, "eventId", cmd.EventID)
	if err := c.publisher.Publish(ctx, c.topics.Build(topic.Command, vin), c.qos, false, payload); err != nil {
		return Status{}, fmt.Errorf("publish command: %w", err)
	}
	logger.Info("Remote service triggered")

	st, err := c.poller.WaitUntilDone(ctx, cmd.EventID, c.tracker.Fetch)
	switch {
	case errors.Is(err, ErrExecutionFailed):
		metrics.RemoteServicesTotal.WithLabelValues(string(req.Service), metrics.ResultError).Inc()
		logger.Error(err, "Remote service failed")
	case errors.Is(err, ErrTimeout):
		metrics.RemoteServicesTotal.WithLabelValues(string(req.Service), metrics.ResultTimeout).Inc()
		logger.Warn("Remote service timed out", "state", st.State)
	case err == nil:
		metrics.RemoteServicesTotal.WithLabelValues(string(req.Service), metrics.ResultExecuted).Inc()
		logger.Info("Remote service finished", "state", st.State)
	}
	return st, err
}

// HandleStatus consumes a status update published on the command-status
// topic. Updates for events nobody waits for are dropped.
func (c *Commander) HandleStatus(_ context.Context, t string, payload []byte) {
	var resp map[string]any
	dec := json.NewDecoder(bytes.NewReader(payload))
	dec.UseNumber()
	if err := dec.Decode(&resp); err != nil {
		c.logger.Error(err, "Dropping undecodable command status", "topic", t)
		return
	}

	eventID, _ := resp["eventId"].(string)
	if eventID == "" {
		c.logger.Warn("Dropping command status without eventId", "topic", t)
		return
	}

	st, err := ParseStatus(resp, eventID)
	if err != nil {
		c.logger.Error(err, "Dropping invalid command status", "eventId", eventID)
		return
	}
	if !c.tracker.Record(st) {
		c.logger.Debug("Ignoring status of untracked command", "eventId", eventID)
	}
}

// StatusFilter is the topic filter HandleStatus is subscribed with.
func (c *Commander) StatusFilter() string {
	return c.topics.BuildWildcard(topic.CommandStatus)
}
