package report

import "fmt"

const keySoftwareVersionCurrent = "softwareVersionCurrent"

// Headunit describes the head unit hardware and its current software.
type Headunit struct {
	IDriveVersion   string `json:"idrive_version"`
	HeadunitType    string `json:"headunit_type"`
	SoftwareVersion string `json:"software_version"`
}

// DeriveHeadunit reads attributes.softwareVersionCurrent and its sibling
// attributes.
func DeriveHeadunit(doc Document) (Update, error) {
	attrs, err := doc.Attributes()
	if err != nil {
		return nil, err
	}
	sv, ok, err := attrs.record(keySoftwareVersionCurrent)
	if err != nil {
		return nil, err
	}
	if !ok || len(sv) == 0 {
		return nil, nil
	}

	idrive, err := attrs.requiredString("hmiVersion")
	if err != nil {
		return nil, err
	}
	headunitType, err := attrs.requiredString("headUnitType")
	if err != nil {
		return nil, err
	}
	modelYear, err := attrs.requiredText("year")
	if err != nil {
		return nil, err
	}

	iStep, err := sv.requiredText("iStep")
	if err != nil {
		return nil, fmt.Errorf("%s: %w", keySoftwareVersionCurrent, err)
	}
	puStep, err := sv.requiredRecord("puStep")
	if err != nil {
		return nil, fmt.Errorf("%s: %w", keySoftwareVersionCurrent, err)
	}
	month, err := puStep.requiredInt("month")
	if err != nil {
		return nil, fmt.Errorf("%s.puStep: %w", keySoftwareVersionCurrent, err)
	}
	year, err := puStep.requiredInt("year")
	if err != nil {
		return nil, fmt.Errorf("%s.puStep: %w", keySoftwareVersionCurrent, err)
	}

	return Update{
		FieldIDriveVersion:   idrive,
		FieldHeadunitType:    headunitType,
		FieldSoftwareVersion: FormatSoftwareVersion(month, year, modelYear, iStep),
	}, nil
}

// FormatSoftwareVersion builds "MM/CCYY.SSS": the build month, the first two
// characters of the model year followed by the two digit build year, and the
// integration step without its first character. This is text slicing, not
// arithmetic, and a one character iStep leaves a trailing ".".
func FormatSoftwareVersion(month, year int64, modelYear, iStep string) string {
	century := []rune(modelYear)
	if len(century) > 2 {
		century = century[:2]
	}
	step := []rune(iStep)
	if len(step) > 0 {
		step = step[1:]
	}
	return fmt.Sprintf("%02d/%s%02d.%s", month, string(century), year, string(step))
}

// Merge returns a copy of h with the fields present in u applied.
func (h Headunit) Merge(u Update) (Headunit, error) {
	out := h
	for field, v := range u {
		var ok bool
		switch field {
		case FieldIDriveVersion:
			out.IDriveVersion, ok = v.(string)
		case FieldHeadunitType:
			out.HeadunitType, ok = v.(string)
		case FieldSoftwareVersion:
			out.SoftwareVersion, ok = v.(string)
		default:
			return h, fmt.Errorf("headunit has no field %q", field)
		}
		if !ok {
			return h, &InvalidFieldError{Field: field, Expect: "string", Value: v}
		}
	}
	return out, nil
}
