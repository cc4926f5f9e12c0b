package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/hindsight/internal/ir"
)

func TestMarshalVectorClock_Canonical(t *testing.T) {
	vc, err := ir.VectorClockFromMap("t2@p2", map[string]int64{"t2@p2": 1, "t1@p1": 2})
	require.NoError(t, err)

	data, err := marshalVectorClock(vc)
	require.NoError(t, err)
	assert.Equal(t, `{"t1@p1":2,"t2@p2":1}`, data)

	back, err := unmarshalVectorClock("t2@p2", data)
	require.NoError(t, err)
	assert.True(t, vc.Equal(back))
	assert.Equal(t, "t2@p2", back.Owner())
}

func TestUnmarshalVectorClock_Malformed(t *testing.T) {
	_, err := unmarshalVectorClock("t1@p1", `{"t1@p1":`)
	assert.Error(t, err)

	_, err = unmarshalVectorClock("t1@p1", `{"t1@p1":-1}`)
	assert.Error(t, err)
}

func TestMarshalDependencies(t *testing.T) {
	data, err := marshalDependencies(nil)
	require.NoError(t, err)
	assert.Equal(t, "[]", data)

	deps, err := unmarshalDependencies(data)
	require.NoError(t, err)
	assert.Nil(t, deps)

	data, err = marshalDependencies([]string{"5", "2"})
	require.NoError(t, err)
	assert.Equal(t, `["5","2"]`, data)

	deps, err = unmarshalDependencies(data)
	require.NoError(t, err)
	assert.Equal(t, []string{"5", "2"}, deps)
}

func TestMarshalFields_NoHTMLEscaping(t *testing.T) {
	data, err := marshalFields(ir.LogFields{Timestamp: 3, Message: "<a&b>"})
	require.NoError(t, err)
	assert.Contains(t, data, `"<a&b>"`)
	assert.NotContains(t, data, "\n")
}
