package state

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseInputFields(t *testing.T) {
	fields := ParseInputFields("msg | target=source | func:mapInputs")
	require.Len(t, fields, 3)

	assert.Equal(t, "msg", fields[0].Target)
	assert.Equal(t, "msg", fields[0].Source)

	assert.Equal(t, "target", fields[1].Target)
	assert.Equal(t, "source", fields[1].Source)

	assert.True(t, fields[2].IsFunc)
	assert.Equal(t, "mapInputs", fields[2].FuncName)
}

func TestParseOutputFields(t *testing.T) {
	assert.Equal(t, []string{"a", "b", "c"}, ParseOutputFields("a|b|c"))
	assert.Nil(t, ParseOutputFields(""))
	assert.Equal(t, []string{"solo"}, ParseOutputFields("solo"))
}

func TestMergeNeverDropsKeys(t *testing.T) {
	s := State{"msg": "hi", "untouched": 1}
	merged := Merge(s, map[string]any{"out": "bye"})

	assert.Equal(t, "hi", merged["msg"])
	assert.Equal(t, 1, merged["untouched"])
	assert.Equal(t, "bye", merged["out"])

	// original is not mutated
	_, ok := s["out"]
	assert.False(t, ok)
}

func TestMapAdapterGetInputsFieldMapping(t *testing.T) {
	s := State{"user": "alice", "unused": "x"}
	adapter := MapAdapter{}

	fields := ParseInputFields("x=user")
	inputs, err := adapter.GetInputs(s, fields, nil)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"x": "alice"}, inputs)
}

func TestMapAdapterGetInputsMissingSourceOmitted(t *testing.T) {
	s := State{"user": "alice"}
	adapter := MapAdapter{}

	fields := ParseInputFields("user|missing")
	inputs, err := adapter.GetInputs(s, fields, nil)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"user": "alice"}, inputs)
}

type stubResolver struct {
	fn func(State) (map[string]any, error)
}

func (r stubResolver) ResolveInputFunc(name string) (func(State) (map[string]any, error), bool) {
	if name == "custom" {
		return r.fn, true
	}
	return nil, false
}

func TestMapAdapterGetInputsFuncReplacesProjection(t *testing.T) {
	s := State{"a": 1, "b": 2}
	adapter := MapAdapter{}
	resolver := stubResolver{fn: func(full State) (map[string]any, error) {
		return map[string]any{"sum": full["a"].(int) + full["b"].(int)}, nil
	}}

	fields := ParseInputFields("func:custom")
	inputs, err := adapter.GetInputs(s, fields, resolver)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"sum": 3}, inputs)
}

func TestMapAdapterSetValue(t *testing.T) {
	s := State{"a": 1}
	adapter := MapAdapter{}
	updated := adapter.SetValue(s, "b", 2)

	assert.Equal(t, 1, updated["a"])
	assert.Equal(t, 2, updated["b"])
	_, ok := s["b"]
	assert.False(t, ok)
}

func TestAppendError(t *testing.T) {
	s := State{}
	errs := AppendError(s, "first")
	assert.Equal(t, []string{"first"}, errs)

	s2 := State{KeyErrors: errs}
	errs2 := AppendError(s2, "second")
	assert.Equal(t, []string{"first", "second"}, errs2)
}
