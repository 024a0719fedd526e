package report

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatSoftwareVersion(t *testing.T) {
	tests := []struct {
		name      string
		month     int64
		year      int64
		modelYear string
		iStep     string
		want      string
	}{
		{"reference", 11, 21, "2021", "1234", "11/2021.234"},
		{"padded month and year", 3, 7, "2019", "550", "03/2007.50"},
		{"model year is sliced not added", 7, 23, "1999", "98", "07/1923.8"},
		{"single character step", 11, 21, "2021", "5", "11/2021."},
		{"empty step", 1, 22, "2022", "", "01/2022."},
		{"short model year", 1, 22, "9", "12", "01/922.2"},
		{"multibyte step", 2, 24, "2024", "é12", "02/2024.12"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatSoftwareVersion(tt.month, tt.year, tt.modelYear, tt.iStep))
		})
	}
}

func TestDeriveHeadunit(t *testing.T) {
	update, err := DeriveHeadunit(mustDecode(t, `{"attributes": {
		"hmiVersion": "ID8",
		"headUnitType": "MGU",
		"year": 2021,
		"softwareVersionCurrent": {"iStep": 1234, "puStep": {"month": 11, "year": 21}, "seriesCluster": "S18A"}
	}}`))
	require.NoError(t, err)

	h, err := Headunit{}.Merge(update)
	require.NoError(t, err)
	assert.Equal(t, Headunit{IDriveVersion: "ID8", HeadunitType: "MGU", SoftwareVersion: "11/2021.234"}, h)
}

func TestDeriveHeadunitStringValues(t *testing.T) {
	update, err := DeriveHeadunit(mustDecode(t, `{"attributes": {
		"hmiVersion": "ID7",
		"headUnitType": "NBT_EVO",
		"year": "2018",
		"softwareVersionCurrent": {"iStep": "S15A-18-07-552", "puStep": {"month": 7, "year": 18}}
	}}`))
	require.NoError(t, err)
	assert.Equal(t, "07/2018.15A-18-07-552", update[FieldSoftwareVersion])
}

func TestDeriveHeadunitAbsentKeepsDefaults(t *testing.T) {
	prior := Headunit{IDriveVersion: "ID7", HeadunitType: "NBT", SoftwareVersion: "07/2018.552"}

	for _, payload := range []string{
		`{}`,
		`{"attributes": {"hmiVersion": "ID8"}}`,
		`{"attributes": {"softwareVersionCurrent": {}}}`,
		`{"attributes": {"softwareVersionCurrent": null}}`,
	} {
		update, err := DeriveHeadunit(mustDecode(t, payload))
		require.NoError(t, err)
		assert.True(t, update.Empty(), payload)

		h, err := prior.Merge(update)
		require.NoError(t, err)
		assert.Equal(t, prior, h)
	}
}

func TestDeriveHeadunitErrors(t *testing.T) {
	tests := []struct {
		name    string
		payload string
		want    error
	}{
		{"missing hmi version", `{"attributes": {"headUnitType": "MGU", "year": 2021,
			"softwareVersionCurrent": {"iStep": 1, "puStep": {"month": 1, "year": 21}}}}`, ErrMissingField},
		{"missing puStep", `{"attributes": {"hmiVersion": "ID8", "headUnitType": "MGU", "year": 2021,
			"softwareVersionCurrent": {"iStep": 1}}}`, ErrMissingField},
		{"text month", `{"attributes": {"hmiVersion": "ID8", "headUnitType": "MGU", "year": 2021,
			"softwareVersionCurrent": {"iStep": 1, "puStep": {"month": "11", "year": 21}}}}`, ErrInvalidField},
		{"version not an object", `{"attributes": {"softwareVersionCurrent": "11/21"}}`, ErrInvalidField},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DeriveHeadunit(mustDecode(t, tt.payload))
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestDeriversCoverEveryKind(t *testing.T) {
	doc := mustDecode(t, `{
		"state": {
			"requiredServices": [{"type": "OIL", "status": "OK", "mileage": 100}],
			"checkControlMessages": [{"type": "A", "severity": "HIGH"}]
		},
		"attributes": {"hmiVersion": "ID8", "headUnitType": "MGU", "year": 2021,
			"softwareVersionCurrent": {"iStep": 1234, "puStep": {"month": 11, "year": 21}}}
	}`)

	kinds := map[Kind]Update{}
	for _, d := range Derivers() {
		u, err := d.Derive(doc)
		require.NoError(t, err)
		again, err := d.Derive(doc)
		require.NoError(t, err)
		assert.Empty(t, cmp.Diff(u, again), d.Kind())
		kinds[d.Kind()] = u
	}

	assert.Len(t, kinds, 3)
	assert.Equal(t, "11/2021.234", kinds[KindHeadunit][FieldSoftwareVersion])
	assert.Equal(t, true, kinds[KindCheckControl][FieldHasCheckControlMessages])
	assert.Equal(t, false, kinds[KindServices][FieldIsServiceRequired])
}
