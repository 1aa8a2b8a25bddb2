package harness

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseScenario_FullDocument(t *testing.T) {
	data := []byte(`
name: reorder
description: moves survive a reversal
component: list
props:
  items:
    - key: a
      value: "1"
    - key: b
      value: "2"
steps:
  - set_list:
      items:
        - key: b
          value: "2"
        - key: a
          value: "1"
  - force_update:
      priority: user-blocking
      view_transition: true
  - unmount: true
assertions:
  - type: tree_equals
    text: "21"
  - type: edit_count
    op: move
    count: 1
token_prefix: trial
`)
	scenario, err := ParseScenario(data)
	require.NoError(t, err)

	assert.Equal(t, "reorder", scenario.Name)
	assert.Equal(t, ComponentList, scenario.Component)
	assert.Len(t, scenario.Props.Items, 2)
	assert.Equal(t, "trial", scenario.TokenPrefix)

	require.Len(t, scenario.Steps, 3)
	require.NotNil(t, scenario.Steps[0].SetList)
	assert.Equal(t, "b", scenario.Steps[0].SetList.Items[0].Key)
	require.NotNil(t, scenario.Steps[1].ForceUpdate)
	assert.Equal(t, "user-blocking", scenario.Steps[1].ForceUpdate.Priority)
	assert.True(t, scenario.Steps[1].ForceUpdate.ViewTransition)
	assert.True(t, scenario.Steps[2].Unmount)

	require.Len(t, scenario.Assertions, 2)
	assert.Equal(t, AssertTreeEquals, scenario.Assertions[0].Type)
	assert.Equal(t, 1, scenario.Assertions[1].Count)
}

func TestParseScenario_RejectsUnknownFields(t *testing.T) {
	data := []byte(`
name: typo
component: echo
assertion:
  - type: tree_equals
`)
	_, err := ParseScenario(data)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse YAML")
}

func TestParseScenario_Validation(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want string
	}{
		{
			name: "missing name",
			yaml: "component: echo\n",
			want: "name is required",
		},
		{
			name: "missing component",
			yaml: "name: x\n",
			want: "component is required",
		},
		{
			name: "unknown component",
			yaml: "name: x\ncomponent: widget\n",
			want: `unknown component "widget"`,
		},
		{
			name: "dispatch on non-counter",
			yaml: "name: x\ncomponent: echo\nsteps:\n  - dispatch:\n      delta: 1\n",
			want: "dispatch requires the counter component",
		},
		{
			name: "set_list on non-list",
			yaml: "name: x\ncomponent: counter\nsteps:\n  - set_list:\n      items: []\n",
			want: "set_list requires the list component",
		},
		{
			name: "empty step",
			yaml: "name: x\ncomponent: echo\nsteps:\n  - {}\n",
			want: "exactly one action per step, got 0",
		},
		{
			name: "two actions in one step",
			yaml: "name: x\ncomponent: echo\nsteps:\n  - force_update: {}\n    unmount: true\n",
			want: "exactly one action per step, got 2",
		},
		{
			name: "unknown assertion type",
			yaml: "name: x\ncomponent: echo\nassertions:\n  - type: tree_matches\n",
			want: `unknown type "tree_matches"`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseScenario([]byte(tt.yaml))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestLoadScenario_ReadsFile(t *testing.T) {
	scenario, err := LoadScenario(filepath.Join("testdata", "scenarios", "echo-mount.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "echo-mount", scenario.Name)
	assert.Equal(t, ComponentEcho, scenario.Component)
	assert.Equal(t, "hello", scenario.Props.Text)
}

func TestLoadScenario_MissingFile(t *testing.T) {
	_, err := LoadScenario(filepath.Join("testdata", "scenarios", "does-not-exist.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read scenario file")
}
