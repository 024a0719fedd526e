package report

import (
	"fmt"
	"time"

	"github.com/autopeer-io/cpeer-report/internal/pkg/timeutil"
	"github.com/autopeer-io/cpeer-report/pkg/units"
)

const keyRequiredServices = "requiredServices"

// ServiceEntry is one condition based service, e.g. the next oil change.
type ServiceEntry struct {
	ServiceType string              `json:"service_type"`
	State       ServiceStatus       `json:"state"`
	DueDate     *time.Time          `json:"due_date,omitempty"`
	DueDistance units.ValueWithUnit `json:"due_distance"`
}

// ParseServiceEntry converts one raw requiredServices record.
//
// A mileage of zero is treated like a missing mileage: the entry then has no
// due distance.
func ParseServiceEntry(r Record) (ServiceEntry, error) {
	serviceType, err := r.requiredString("type")
	if err != nil {
		return ServiceEntry{}, err
	}

	rawStatus, err := r.requiredString("status")
	if err != nil {
		return ServiceEntry{}, err
	}
	state, err := ParseServiceStatus(rawStatus)
	if err != nil {
		return ServiceEntry{}, err
	}

	entry := ServiceEntry{ServiceType: serviceType, State: state}

	dateTime, err := r.optionalString("dateTime")
	if err != nil {
		return ServiceEntry{}, err
	}
	if dateTime != nil && *dateTime != "" {
		t, err := timeutil.ParseDateTime(*dateTime)
		if err != nil {
			return ServiceEntry{}, &InvalidFieldError{Field: "dateTime", Expect: "date-time", Value: *dateTime}
		}
		entry.DueDate = &t
	}

	mileage, err := r.optionalInt("mileage")
	if err != nil {
		return ServiceEntry{}, err
	}
	if mileage != nil && *mileage != 0 {
		entry.DueDistance = units.New(*mileage, units.Kilometers)
	}

	return entry, nil
}

// ServiceReport summarizes the condition based services of a vehicle.
type ServiceReport struct {
	Messages              []ServiceEntry `json:"messages"`
	IsServiceRequired     bool           `json:"is_service_required"`
	NextServiceByDistance *ServiceEntry  `json:"next_service_by_distance"`
	NextServiceByTime     *ServiceEntry  `json:"next_service_by_time"`
}

// DeriveServiceReport reads state.requiredServices.
func DeriveServiceReport(doc Document) (Update, error) {
	state, err := doc.State()
	if err != nil {
		return nil, err
	}
	raw, err := state.records(keyRequiredServices)
	if err != nil {
		return nil, err
	}
	if len(raw) == 0 {
		return nil, nil
	}

	messages := make([]ServiceEntry, 0, len(raw))
	for i, r := range raw {
		entry, err := ParseServiceEntry(r)
		if err != nil {
			return nil, fmt.Errorf("%s[%d]: %w", keyRequiredServices, i, err)
		}
		messages = append(messages, entry)
	}

	required := false
	for _, m := range messages {
		if m.State != ServiceStatusOK {
			required = true
			break
		}
	}

	return Update{
		FieldMessages:              messages,
		FieldIsServiceRequired:     required,
		FieldNextServiceByDistance: firstByKey(messages, distanceKey),
		FieldNextServiceByTime:     firstByKey(messages, dueDateKey),
	}, nil
}

func distanceKey(e *ServiceEntry) (string, bool) {
	if !e.DueDistance.IsSet() {
		return "", false
	}
	return fmt.Sprintf("%010d-%s", *e.DueDistance.Value, e.ServiceType), true
}

func dueDateKey(e *ServiceEntry) (string, bool) {
	if e.DueDate == nil {
		return "", false
	}
	return timeutil.SortKey(*e.DueDate) + "-" + e.ServiceType, true
}

// firstByKey returns the entry with the lexically smallest key, or nil if no
// entry has one. On equal keys the earlier entry wins. The result points into
// messages.
func firstByKey(messages []ServiceEntry, key func(*ServiceEntry) (string, bool)) *ServiceEntry {
	var (
		best    *ServiceEntry
		bestKey string
	)
	for i := range messages {
		k, ok := key(&messages[i])
		if !ok {
			continue
		}
		if best == nil || k < bestKey {
			best, bestKey = &messages[i], k
		}
	}
	return best
}

// Merge returns a copy of r with the fields present in u applied.
func (r ServiceReport) Merge(u Update) (ServiceReport, error) {
	out := r
	for field, v := range u {
		var ok bool
		switch field {
		case FieldMessages:
			out.Messages, ok = v.([]ServiceEntry)
		case FieldIsServiceRequired:
			out.IsServiceRequired, ok = v.(bool)
		case FieldNextServiceByDistance:
			out.NextServiceByDistance, ok = v.(*ServiceEntry)
		case FieldNextServiceByTime:
			out.NextServiceByTime, ok = v.(*ServiceEntry)
		default:
			return r, fmt.Errorf("service report has no field %q", field)
		}
		if !ok {
			return r, &InvalidFieldError{Field: field, Expect: "service report value", Value: v}
		}
	}
	return out, nil
}
