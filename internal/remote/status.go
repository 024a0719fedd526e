// Package remote triggers remote services on vehicles over MQTT and follows
// their execution until the vehicle reports a final state.
package remote

import (
	"github.com/autopeer-io/cpeer-report/internal/report"
)

// ExecutionState is the progress of a triggered remote service.
type ExecutionState string

const (
	StateInitiated ExecutionState = "INITIATED"
	StatePending   ExecutionState = "PENDING"
	StateDelivered ExecutionState = "DELIVERED"
	StateExecuted  ExecutionState = "EXECUTED"
	StateError     ExecutionState = "ERROR"
	StateUnknown   ExecutionState = "UNKNOWN"
)

var executionStates = report.NewClosedEnum("ExecutionState",
	StateInitiated,
	StatePending,
	StateDelivered,
	StateExecuted,
	StateError,
	StateUnknown,
)

// ParseExecutionState converts a raw status literal into an ExecutionState.
func ParseExecutionState(raw string) (ExecutionState, error) {
	return executionStates.Parse(raw)
}

// Final reports whether polling stops at s. UNKNOWN, PENDING and DELIVERED
// are still in flight; INITIATED counts as final.
func (s ExecutionState) Final() bool {
	switch s {
	case StateUnknown, StatePending, StateDelivered:
		return false
	default:
		return true
	}
}

// Service names a remote service a vehicle can execute.
type Service string

const (
	ServiceLightFlash       Service = "light-flash"
	ServiceVehicleFinder    Service = "vehicle-finder"
	ServiceDoorLock         Service = "door-lock"
	ServiceDoorUnlock       Service = "door-unlock"
	ServiceHornBlow         Service = "horn-blow"
	ServiceClimateNow       Service = "climate-now"
	ServiceChargeNow        Service = "CHARGE_NOW"
	ServiceChargingSettings Service = "CHARGING_SETTINGS"
	ServiceChargingProfile  Service = "CHARGING_PROFILE"
	ServiceSendPOI          Service = "SEND_POI"
)

var services = report.NewClosedEnum("Service",
	ServiceLightFlash,
	ServiceVehicleFinder,
	ServiceDoorLock,
	ServiceDoorUnlock,
	ServiceHornBlow,
	ServiceClimateNow,
	ServiceChargeNow,
	ServiceChargingSettings,
	ServiceChargingProfile,
	ServiceSendPOI,
)

// ParseService converts a raw service name into a Service.
func ParseService(raw string) (Service, error) {
	return services.Parse(raw)
}

// Status is one execution status update of a remote service.
type Status struct {
	EventID string         `json:"event_id"`
	State   ExecutionState `json:"state"`
	Details map[string]any `json:"details,omitempty"`
}

const keyEventStatus = "eventStatus"

// ParseStatus reads a status response. A missing, null or empty eventStatus
// means the vehicle has not reported yet and yields StateUnknown; an unknown
// literal is an error. The whole response is kept as Details.
func ParseStatus(resp map[string]any, eventID string) (Status, error) {
	st := Status{EventID: eventID, State: StateUnknown, Details: resp}

	raw, ok := resp[keyEventStatus]
	if !ok || raw == nil {
		return st, nil
	}
	s, ok := raw.(string)
	if !ok {
		return Status{}, &report.InvalidFieldError{Field: keyEventStatus, Expect: "string", Value: raw}
	}
	if s == "" {
		return st, nil
	}

	state, err := ParseExecutionState(s)
	if err != nil {
		return Status{}, err
	}
	st.State = state
	return st, nil
}
