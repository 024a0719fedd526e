package report

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustDecode(t *testing.T, payload string) Document {
	t.Helper()
	doc, err := DecodeDocument([]byte(payload))
	require.NoError(t, err)
	return doc
}

func TestDecodeDocumentKeepsNumberLiterals(t *testing.T) {
	doc := mustDecode(t, `{"attributes": {"year": 2021, "iStep": 1234}}`)

	attrs, err := doc.Attributes()
	require.NoError(t, err)
	assert.Equal(t, json.Number("2021"), attrs["year"])

	text, err := attrs.requiredText("iStep")
	require.NoError(t, err)
	assert.Equal(t, "1234", text)
}

func TestDecodeDocumentErrors(t *testing.T) {
	_, err := DecodeDocument([]byte(`{"state": `))
	assert.Error(t, err)

	doc, err := DecodeDocument([]byte(`null`))
	require.NoError(t, err)
	assert.NotNil(t, doc)
}

func TestDocumentSections(t *testing.T) {
	doc := mustDecode(t, `{"state": null}`)
	state, err := doc.State()
	require.NoError(t, err)
	assert.Nil(t, state)

	doc = mustDecode(t, `{"attributes": "bogus"}`)
	_, err = doc.Attributes()
	assert.ErrorIs(t, err, ErrInvalidField)
}

func TestRecordAccessors(t *testing.T) {
	r := Record(mustDecode(t, `{
		"s": "text",
		"n": 42,
		"f": 4.5,
		"null": null,
		"obj": {"a": 1},
		"list": [{"a": 1}, {"b": 2}],
		"mixed": [{"a": 1}, 3]
	}`))

	s, err := r.requiredString("s")
	require.NoError(t, err)
	assert.Equal(t, "text", s)

	_, err = r.requiredString("null")
	assert.ErrorIs(t, err, ErrMissingField)

	_, err = r.requiredString("n")
	assert.ErrorIs(t, err, ErrInvalidField)

	opt, err := r.optionalString("absent")
	require.NoError(t, err)
	assert.Nil(t, opt)

	n, err := r.requiredInt("n")
	require.NoError(t, err)
	assert.EqualValues(t, 42, n)

	_, err = r.requiredInt("f")
	assert.ErrorIs(t, err, ErrInvalidField)

	on, err := r.optionalInt("null")
	require.NoError(t, err)
	assert.Nil(t, on)

	ft, err := r.requiredText("f")
	require.NoError(t, err)
	assert.Equal(t, "4.5", ft)

	_, err = r.requiredText("obj")
	assert.ErrorIs(t, err, ErrInvalidField)

	obj, ok, err := r.record("obj")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Len(t, obj, 1)

	_, err = r.requiredRecord("absent")
	assert.ErrorIs(t, err, ErrMissingField)

	list, err := r.records("list")
	require.NoError(t, err)
	assert.Len(t, list, 2)

	_, err = r.records("mixed")
	assert.ErrorIs(t, err, ErrInvalidField)
	assert.Contains(t, err.Error(), "mixed[1]")

	_, err = r.records("s")
	assert.ErrorIs(t, err, ErrInvalidField)
}

func TestRecordAcceptsGoLiterals(t *testing.T) {
	r := Record{"month": 7, "year": int64(21), "ratio": float64(3)}

	month, err := r.requiredInt("month")
	require.NoError(t, err)
	assert.EqualValues(t, 7, month)

	year, err := r.requiredText("year")
	require.NoError(t, err)
	assert.Equal(t, "21", year)

	ratio, err := r.requiredInt("ratio")
	require.NoError(t, err)
	assert.EqualValues(t, 3, ratio)
}
