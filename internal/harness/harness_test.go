package harness

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func records(rs ...map[string]any) []map[string]any { return rs }

func sendReceive() []map[string]any {
	return records(
		map[string]any{"id": "1", "type": "START", "thread": "t1@p1"},
		map[string]any{"id": "2", "type": "SND", "thread": "t1@p1"},
		map[string]any{"id": "3", "type": "RCV", "thread": "t2@p2", "dependency": "2"},
	)
}

func TestRun_MinimalScenario(t *testing.T) {
	scenario := &Scenario{
		Name:        "minimal",
		Description: "Minimal test scenario",
		Records:     sendReceive(),
		Assertions: []Assertion{
			{Type: AssertEdge, From: "2", To: "3"},
		},
	}

	result, err := Run(scenario)
	require.NoError(t, err)
	require.NotNil(t, result)

	assert.True(t, result.Pass)
	assert.Empty(t, result.Errors)
	assert.Len(t, result.Events, 3)
	assert.Len(t, result.Edges, 1)
	assert.NotNil(t, result.Universe)
}

func TestRun_FailingAssertionsAreReported(t *testing.T) {
	value := int64(7)
	scenario := &Scenario{
		Name:        "failing",
		Description: "Every assertion fails",
		Records:     sendReceive(),
		Assertions: []Assertion{
			{Type: AssertVectorClock, Event: "3", Expect: map[string]any{"t2@p2": 1}},
			{Type: AssertEdge, From: "1", To: "3"},
			{Type: AssertNoEdge, From: "2", To: "3"},
			{Type: AssertClock, Event: "1", Value: &value},
			{Type: AssertThreadOrder, Threads: []string{"t2@p2", "t1@p1"}},
			{Type: AssertRelation, A: "1", B: "3", Expect: "after"},
			{Type: AssertDominates, A: "1", B: "3"},
		},
	}

	result, err := Run(scenario)
	require.NoError(t, err)

	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 7)
	assert.Contains(t, result.Errors[0], "Assertion failed: vector_clock")
	assert.Contains(t, result.Errors[1], "edge not found")
	assert.Contains(t, result.Errors[2], "edge found")
	assert.Contains(t, result.Errors[3], "clock 0")
	assert.Contains(t, result.Errors[4], "should be before")
	assert.Contains(t, result.Errors[5], "1 before 3")
	assert.Contains(t, result.Errors[6], "does not dominate")
}

func TestRun_UnknownEvent(t *testing.T) {
	scenario := &Scenario{
		Name:        "unknown",
		Description: "Assertion names a missing event",
		Records:     sendReceive(),
		Assertions: []Assertion{
			{Type: AssertVectorClock, Event: "99", Expect: map[string]any{}},
			{Type: AssertRelation, A: "1", B: "99", Expect: "before"},
		},
	}

	result, err := Run(scenario)
	require.NoError(t, err)

	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 2)
	assert.Contains(t, result.Errors[0], "event not found")
	assert.Contains(t, result.Errors[1], "unknown event")
}

func TestRun_ExpectedError(t *testing.T) {
	scenario := &Scenario{
		Name:        "expected_error",
		Description: "Unresolved dependency",
		Records: records(
			map[string]any{"id": "1", "type": "RCV", "thread": "t1@p1", "dependency": "0"},
		),
		ExpectError: &ExpectError{Code: "UNRESOLVED_DEPENDENCY", Record: "1"},
	}

	result, err := Run(scenario)
	require.NoError(t, err)

	assert.True(t, result.Pass, "errors: %v", result.Errors)
	assert.Equal(t, "UNRESOLVED_DEPENDENCY", result.ErrorCode)
	assert.Equal(t, "1", result.ErrorRecord)
	assert.Empty(t, result.Events)
	assert.Nil(t, result.Universe)
}

func TestRun_ExpectedErrorMismatch(t *testing.T) {
	tests := []struct {
		name   string
		expect ExpectError
		want   string
	}{
		{"wrong code", ExpectError{Code: "INVARIANT_VIOLATION"}, "expected error INVARIANT_VIOLATION"},
		{"wrong record", ExpectError{Code: "UNRESOLVED_DEPENDENCY", Record: "2"}, "expected error on record 2"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			expect := tt.expect
			scenario := &Scenario{
				Name:        "mismatch",
				Description: "Error does not match",
				Records: records(
					map[string]any{"id": "1", "type": "RCV", "thread": "t1@p1", "dependency": "0"},
				),
				ExpectError: &expect,
			}

			result, err := Run(scenario)
			require.NoError(t, err)
			assert.False(t, result.Pass)
			require.Len(t, result.Errors, 1)
			assert.Contains(t, result.Errors[0], tt.want)
		})
	}
}

func TestRun_UnexpectedError(t *testing.T) {
	scenario := &Scenario{
		Name:        "unexpected",
		Description: "Unsupported kind without expect_error",
		Records: records(
			map[string]any{"id": "1", "type": "FORK", "thread": "t1@p1"},
		),
		Assertions: []Assertion{{Type: AssertEdge, From: "1", To: "2"}},
	}

	result, err := Run(scenario)
	require.NoError(t, err)

	assert.False(t, result.Pass)
	assert.Equal(t, "UNSUPPORTED_EVENT_KIND", result.ErrorCode)
	require.NotEmpty(t, result.Errors)
	assert.Contains(t, result.Errors[0], "unexpected reconstruction error")
}

func TestRun_ExpectedErrorButSucceeded(t *testing.T) {
	scenario := &Scenario{
		Name:        "succeeds",
		Description: "Reconstruction succeeds despite expect_error",
		Records:     sendReceive(),
		ExpectError: &ExpectError{Code: "UNRESOLVED_DEPENDENCY"},
	}

	result, err := Run(scenario)
	require.NoError(t, err)

	assert.False(t, result.Pass)
	assert.Contains(t, result.Errors[0], "reconstruction succeeded")
}

func TestRun_RecordConversionError(t *testing.T) {
	scenario := &Scenario{
		Name:        "float",
		Description: "Floats cannot be converted",
		Records: records(
			map[string]any{"id": "1", "type": "LOG", "thread": "t1@p1", "order": 1.5},
		),
	}

	_, err := Run(scenario)
	assert.Error(t, err)
}

func TestRun_Deterministic(t *testing.T) {
	scenario := &Scenario{
		Name:        "deterministic",
		Description: "Identical scenarios produce identical snapshots",
		Records:     sendReceive(),
		Assertions:  []Assertion{{Type: AssertEdge, From: "2", To: "3"}},
	}

	first, err := Run(scenario)
	require.NoError(t, err)
	second, err := Run(scenario)
	require.NoError(t, err)

	a, err := Snapshot(scenario.Name, first)
	require.NoError(t, err)
	b, err := Snapshot(scenario.Name, second)
	require.NoError(t, err)
	assert.Equal(t, string(a), string(b))
}

func TestEvaluateAssertions_NoUniverse(t *testing.T) {
	errs := EvaluateAssertions(NewResult(), []Assertion{{Type: AssertEdge, From: "a", To: "b"}})
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0], "no reconstruction")

	assert.Empty(t, EvaluateAssertions(NewResult(), nil))
}
