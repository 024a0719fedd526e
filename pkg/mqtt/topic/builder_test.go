package topic

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuilder(t *testing.T) {
	b := NewBuilder("iov/v1/")

	assert.Equal(t, "iov/v1/report/WBA00000000000001", b.Build(Report, "WBA00000000000001"))
	assert.Equal(t, "iov/v1/state/+", b.BuildWildcard(State))
	assert.Equal(t, "$share/cpeer-report/iov/v1/state/+", b.Shared("cpeer-report").BuildWildcard(State))
	assert.Same(t, b, b.Shared(""))
}

func TestBuilderID(t *testing.T) {
	b := NewBuilder("iov/v1")

	id, ok := b.ID(State, "iov/v1/state/WBA00000000000001")
	assert.True(t, ok)
	assert.Equal(t, "WBA00000000000001", id)

	for _, bad := range []string{"iov/v1/report/VIN", "iov/v1/state/", "iov/v1/state/a/b", "other/state/VIN"} {
		_, ok := b.ID(State, bad)
		assert.False(t, ok, bad)
	}
}
