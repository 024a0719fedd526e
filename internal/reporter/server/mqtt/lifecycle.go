package mqtt

import (
	"context"
	"fmt"

	"github.com/looplab/fsm"

	fsmutil "github.com/autopeer-io/cpeer-report/internal/pkg/util/fsm"
	"github.com/autopeer-io/cpeer-report/pkg/mqtt/topic"
)

// Lifecycle states of the MQTT server.
const (
	StateIdle       = "idle"
	StateConnecting = "connecting"
	StateServing    = "serving"
	StateStopped    = "stopped"
)

const (
	// EventStart (Active) starts the client and waits for the broker.
	EventStart = "event_start"
	// EventConnected subscribes and announces presence.
	EventConnected = "event_connected"
	// EventStop withdraws presence and disconnects.
	EventStop = "event_stop"
)

func (s *Server) newLifecycle() *fsm.FSM {
	events := fsm.Events{
		{Name: EventStart, Src: []string{StateIdle}, Dst: StateConnecting},
		{Name: EventConnected, Src: []string{StateConnecting}, Dst: StateServing},
		{Name: EventStop, Src: []string{StateIdle, StateConnecting, StateServing}, Dst: StateStopped},
	}

	callbacks := fsm.Callbacks{
		"enter_" + StateServing: fsmutil.WrapEvent(s.actionEnterServing),
		"enter_" + StateStopped: fsmutil.WrapEvent(s.actionEnterStopped),
	}

	return fsm.NewFSM(StateIdle, events, callbacks)
}

func (s *Server) actionEnterServing(ctx context.Context, _ *fsm.Event) error {
	stateTopic := s.topics.Shared(s.shareGroup).BuildWildcard(topic.State)
	if err := s.client.Subscribe(ctx, stateTopic, s.qos, s.handleState); err != nil {
		return fmt.Errorf("failed to subscribe to topic: %s, err: %w", stateTopic, err)
	}

	// Every instance needs the statuses of the commands it triggered, so this one is not shared.
	if s.commander != nil {
		statusTopic := s.commander.StatusFilter()
		if err := s.client.Subscribe(ctx, statusTopic, s.qos, s.commander.HandleStatus); err != nil {
			return fmt.Errorf("failed to subscribe to topic: %s, err: %w", statusTopic, err)
		}
	}

	if err := s.publishPresence(ctx, true); err != nil {
		s.logger.Warn("Failed to publish online presence", "error", err)
	}
	s.logger.Info("Serving vehicle state documents", "topic", stateTopic)
	return nil
}

func (s *Server) actionEnterStopped(ctx context.Context, e *fsm.Event) error {
	if e.Src == StateServing {
		if err := s.publishPresence(ctx, false); err != nil {
			s.logger.Warn("Failed to publish offline presence", "error", err)
		}
	}
	if e.Src != StateIdle {
		s.client.Disconnect(ctx)
	}
	return nil
}
