package report

import (
	"fmt"
	"strings"
)

const keyCheckControlMessages = "checkControlMessages"

// CheckControlEntry is one check control message, e.g. low tire pressure.
type CheckControlEntry struct {
	DescriptionShort string             `json:"description_short"`
	DescriptionLong  *string            `json:"description_long"`
	State            CheckControlStatus `json:"state"`
}

// ParseCheckControlEntry converts one raw checkControlMessages record. It
// does not filter by severity.
func ParseCheckControlEntry(r Record) (CheckControlEntry, error) {
	short, err := r.requiredString("type")
	if err != nil {
		return CheckControlEntry{}, err
	}

	rawSeverity, err := r.requiredString("severity")
	if err != nil {
		return CheckControlEntry{}, err
	}
	state, err := ParseCheckControlStatus(rawSeverity)
	if err != nil {
		return CheckControlEntry{}, err
	}

	long, err := r.optionalString("longDescription")
	if err != nil {
		return CheckControlEntry{}, err
	}

	return CheckControlEntry{DescriptionShort: short, DescriptionLong: long, State: state}, nil
}

// CheckControlReport summarizes the active check control messages.
// Messages may include LOW entries, which never count as urgent.
type CheckControlReport struct {
	Messages                   []CheckControlEntry `json:"messages"`
	HasCheckControlMessages    bool                `json:"has_check_control_messages"`
	UrgentCheckControlMessages *string             `json:"urgent_check_control_messages"`
}

// DeriveCheckControlReport reads state.checkControlMessages. Records with
// severity OK are dropped before parsing.
func DeriveCheckControlReport(doc Document) (Update, error) {
	state, err := doc.State()
	if err != nil {
		return nil, err
	}
	raw, err := state.records(keyCheckControlMessages)
	if err != nil {
		return nil, err
	}
	if len(raw) == 0 {
		return nil, nil
	}

	messages := make([]CheckControlEntry, 0, len(raw))
	for i, r := range raw {
		severity, err := r.requiredString("severity")
		if err != nil {
			return nil, fmt.Errorf("%s[%d]: %w", keyCheckControlMessages, i, err)
		}
		if severity == string(CheckControlStatusOK) {
			continue
		}

		entry, err := ParseCheckControlEntry(r)
		if err != nil {
			return nil, fmt.Errorf("%s[%d]: %w", keyCheckControlMessages, i, err)
		}
		messages = append(messages, entry)
	}

	var urgent []string
	for _, m := range messages {
		if m.State != CheckControlStatusLow {
			urgent = append(urgent, m.DescriptionShort)
		}
	}

	var joined *string
	if len(urgent) > 0 {
		s := strings.Join(urgent, ", ")
		joined = &s
	}

	return Update{
		FieldMessages:                   messages,
		FieldHasCheckControlMessages:    len(urgent) > 0,
		FieldUrgentCheckControlMessages: joined,
	}, nil
}

// Merge returns a copy of r with the fields present in u applied.
func (r CheckControlReport) Merge(u Update) (CheckControlReport, error) {
	out := r
	for field, v := range u {
		var ok bool
		switch field {
		case FieldMessages:
			out.Messages, ok = v.([]CheckControlEntry)
		case FieldHasCheckControlMessages:
			out.HasCheckControlMessages, ok = v.(bool)
		case FieldUrgentCheckControlMessages:
			out.UrgentCheckControlMessages, ok = v.(*string)
		default:
			return r, fmt.Errorf("check control report has no field %q", field)
		}
		if !ok {
			return r, &InvalidFieldError{Field: field, Expect: "check control report value", Value: v}
		}
	}
	return out, nil
}
