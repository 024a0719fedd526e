package topic

// Standard MQTT wildcards.
const (
	// Wildcard matches exactly one topic level.
	Wildcard = "+"

	// MultiWildcard matches the current level and everything below it.
	MultiWildcard = "#"
)

// Topic segments exchanged between the vehicle backend and cpeer-report.
const (
	// State carries raw vehicle state documents.
	// Pattern: {root}/state/{vin}
	State = "state"

	// Report carries the derived report snapshot, published retained.
	// Pattern: {root}/report/{vin}
	Report = "report"
)

// Presence carries the retained online flag of a cpeer-report instance.
// Pattern: {root}/presence/{clientID}
const Presence = "presence"

// Remote service commands and their execution status reports.
const (
	// Command carries a remote service request to a vehicle.
	// Pattern: {root}/command/{vin}
	Command = "command"

	// CommandStatus carries execution status updates for a command.
	// Pattern: {root}/command-status/{vin}
	CommandStatus = "command-status"
)
