package mqtt

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/looplab/fsm"

	"github.com/autopeer-io/cpeer-report/internal/pkg/anonymize"
	fsmutil "github.com/autopeer-io/cpeer-report/internal/pkg/util/fsm"
	"github.com/autopeer-io/cpeer-report/internal/remote"
	"github.com/autopeer-io/cpeer-report/internal/report"
	"github.com/autopeer-io/cpeer-report/internal/vehicle"
	"github.com/autopeer-io/cpeer-report/pkg/log"
	pkgmqtt "github.com/autopeer-io/cpeer-report/pkg/mqtt"
	"github.com/autopeer-io/cpeer-report/pkg/mqtt/topic"
)

// Presence is the retained payload on the presence topic of an instance.
type Presence struct {
	ClientID string `json:"client_id"`
	Online   bool   `json:"online"`
}

// PresencePayload encodes the presence message for clientID.
func PresencePayload(clientID string, online bool) []byte {
	b, _ := json.Marshal(Presence{ClientID: clientID, Online: online})
	return b
}

// Server consumes vehicle state documents and publishes the derived reports.
// With a commander it also routes remote service status updates to it.
type Server struct {
	client     pkgmqtt.Client
	topics     *topic.Builder
	registry   *vehicle.Registry
	commander  *remote.Commander
	clientID   string
	shareGroup string
	qos        int
	logger     log.Logger
	lifecycle  *fsm.FSM
}

// NewServer creates a new MQTT server (client). commander may be nil.
func NewServer(client pkgmqtt.Client, builder *topic.Builder, registry *vehicle.Registry, commander *remote.Commander, clientID, shareGroup string, qos int) *Server {
	s := &Server{
		client:     client,
		topics:     builder,
		registry:   registry,
		commander:  commander,
		clientID:   clientID,
		shareGroup: shareGroup,
		qos:        qos,
		logger:     log.WithName("mqtt"),
	}
	s.lifecycle = s.newLifecycle()
	return s
}

// Ready reports whether the server is subscribed and the broker connection is up.
func (s *Server) Ready() bool {
	return s.lifecycle.Is(StateServing) && s.client.IsConnected()
}

// State returns the current lifecycle state.
func (s *Server) State() string {
	return s.lifecycle.Current()
}

// Start connects to the broker, subscribes to the state topics and blocks
// until ctx is done.
func (s *Server) Start(ctx context.Context) error {
	if err := s.lifecycle.Event(ctx, EventStart); err != nil {
		return err
	}

	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := fsmutil.IgnoreNoTransition(s.lifecycle.Event(shutdownCtx, EventStop)); err != nil {
			s.logger.Error(err, "MQTT server did not stop cleanly")
		}
	}()

	if err := s.client.Start(ctx); err != nil {
		return err
	}

	s.logger.Info("Waiting for MQTT connection...")
	if err := s.client.AwaitConnection(ctx); err != nil {
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	}

	if err := s.lifecycle.Event(ctx, EventConnected); err != nil {
		return err
	}

	<-ctx.Done()
	return nil
}

func (s *Server) handleState(ctx context.Context, t string, payload []byte) {
	vin, ok := s.topics.ID(topic.State, t)
	if !ok {
		s.logger.Warn("Ignoring state document on unexpected topic", "topic", t)
		return
	}

	doc, err := report.DecodeDocument(payload)
	if err != nil {
		s.logger.Error(err, "Dropping undecodable state document", "vin", vin)
		return
	}

	_, err = s.registry.Ingest(ctx, vin, doc, func(state vehicle.State) {
		if err := s.publishReport(ctx, state); err != nil {
			s.logger.Error(err, "Failed to publish report", "vin", vin)
		}
	})
	if err != nil {
		s.logger.Error(err, "Report derivation failed for some kinds", "vin", vin)
		s.logger.Debug("Offending state document", "vin", vin, "document", anonymize.Data(map[string]any(doc)))
	}
}

// PublishReport publishes state as the retained report of its vehicle. It is
// a no-op while the server is not serving.
func (s *Server) PublishReport(ctx context.Context, state vehicle.State) error {
	if !s.Ready() {
		s.logger.Debug("Not serving, report not published", "vin", state.VIN)
		return nil
	}
	return s.publishReport(ctx, state)
}

func (s *Server) publishReport(ctx context.Context, state vehicle.State) error {
	payload, err := json.Marshal(state)
	if err != nil {
		return err
	}
	return s.client.Publish(ctx, s.topics.Build(topic.Report, state.VIN), s.qos, true, payload)
}

func (s *Server) publishPresence(ctx context.Context, online bool) error {
	return s.client.Publish(ctx, s.topics.Build(topic.Presence, s.clientID), s.qos, true, PresencePayload(s.clientID, online))
}
