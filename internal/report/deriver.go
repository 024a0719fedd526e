// Package report derives typed maintenance and system status reports from a
// raw vehicle state document.
//
// Each report kind has a Deriver that reads the document and returns an
// Update: either empty, when the document carries no data for that kind, or
// the complete field set of the report. Updates are merged onto the previous
// report value by the report type's Merge method, which always builds a new
// value.
package report

// Kind names a report kind.
type Kind string

const (
	KindServices     Kind = "services"
	KindCheckControl Kind = "check_control"
	KindHeadunit     Kind = "headunit"
)

// Field names carried in an Update.
const (
	FieldMessages                   = "messages"
	FieldIsServiceRequired          = "is_service_required"
	FieldNextServiceByDistance      = "next_service_by_distance"
	FieldNextServiceByTime          = "next_service_by_time"
	FieldHasCheckControlMessages    = "has_check_control_messages"
	FieldUrgentCheckControlMessages = "urgent_check_control_messages"
	FieldIDriveVersion              = "idrive_version"
	FieldHeadunitType               = "headunit_type"
	FieldSoftwareVersion            = "software_version"
)

// Update maps report field names to derived values.
type Update map[string]any

// Empty reports whether the update carries no fields.
func (u Update) Empty() bool {
	return len(u) == 0
}

// Deriver produces the update for one report kind.
type Deriver interface {
	Kind() Kind
	Derive(doc Document) (Update, error)
}

type deriverFunc struct {
	kind Kind
	fn   func(Document) (Update, error)
}

func (d deriverFunc) Kind() Kind                          { return d.kind }
func (d deriverFunc) Derive(doc Document) (Update, error) { return d.fn(doc) }

// Derivers returns a Deriver for every report kind.
func Derivers() []Deriver {
	return []Deriver{
		deriverFunc{kind: KindServices, fn: DeriveServiceReport},
		deriverFunc{kind: KindCheckControl, fn: DeriveCheckControlReport},
		deriverFunc{kind: KindHeadunit, fn: DeriveHeadunit},
	}
}
