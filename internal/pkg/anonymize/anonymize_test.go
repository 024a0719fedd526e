package anonymize

import (
	"encoding/json"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDataMasksNestedValues(t *testing.T) {
	var in map[string]any
	require.NoError(t, json.Unmarshal([]byte(`{
		"vin": "WBA000000SECRET01",
		"a sub-dict": {"lat": 666, "lon": 666, "heading": 666},
		"licensePlate": "secret",
		"public": "public_data",
		"a_list": [
			{"vin": "4US000000SECRET01"},
			{"lon": 666, "public": "more_public_data"}
		],
		"b_list": ["a", "b"],
		"empty_list": []
	}`), &in))

	out, err := json.Marshal(Data(in))
	require.NoError(t, err)

	text := string(out)
	assert.NotContains(t, text, "SECRET")
	assert.NotContains(t, text, "secret")
	assert.NotContains(t, text, "666")
	assert.Contains(t, text, "public_data")
	assert.Contains(t, text, "more_public_data")
	assert.Contains(t, text, `"b_list":["a","b"]`)
	assert.Contains(t, text, `"empty_list":[]`)
}

func TestDataDoesNotModifyInput(t *testing.T) {
	in := map[string]any{
		"vin":   "WBA000000SECRET01",
		"items": []any{map[string]any{"licensePlate": "M-AB 123"}},
	}
	before := map[string]any{
		"vin":   "WBA000000SECRET01",
		"items": []any{map[string]any{"licensePlate": "M-AB 123"}},
	}

	out := Data(in).(map[string]any)

	assert.Empty(t, cmp.Diff(before, in))
	assert.Equal(t, Placeholder, out["vin"])
	assert.Equal(t, Placeholder, out["items"].([]any)[0].(map[string]any)["licensePlate"])
}

func TestDataPassesScalarsThrough(t *testing.T) {
	assert.Equal(t, "x", Data("x"))
	assert.Nil(t, Data(nil))
	assert.Equal(t, 1.5, Data(1.5))
}

func TestSensitive(t *testing.T) {
	assert.True(t, Sensitive("VIN"))
	assert.True(t, Sensitive("postalCode"))
	assert.False(t, Sensitive("mileage"))
}
