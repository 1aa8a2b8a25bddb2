package trace

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emonkak/barebind-sub006/internal/engine"
)

func TestMarshalCanonical_SortedKeysAndOmittedZeroFields(t *testing.T) {
	data, err := MarshalCanonical(engine.Event{
		Seq:      3,
		Kind:     engine.EventSchedule,
		Token:    "b-001",
		Priority: "user-visible",
	})
	require.NoError(t, err)
	assert.Equal(t,
		`{"kind":"schedule","priority":"user-visible","seq":3,"token":"b-001"}`,
		string(data))
}

func TestMarshalCanonical_AllFields(t *testing.T) {
	data, err := MarshalCanonical(engine.Event{
		Seq:      9,
		Kind:     engine.EventEdit,
		Token:    "b-001",
		Priority: "background",
		Phase:    "mutation",
		Op:       "move",
		Key:      "row-2",
		Detail:   "row-5",
	})
	require.NoError(t, err)
	assert.Equal(t,
		`{"detail":"row-5","key":"row-2","kind":"edit","op":"move","phase":"mutation","priority":"background","seq":9,"token":"b-001"}`,
		string(data))
}

func TestMarshalCanonical_NoHTMLEscaping(t *testing.T) {
	data, err := MarshalCanonical(engine.Event{
		Seq:    1,
		Kind:   engine.EventRenderError,
		Detail: "<a> & </a>",
	})
	require.NoError(t, err)
	assert.Contains(t, string(data), `"detail":"<a> & </a>"`)
	assert.NotContains(t, string(data), `<`)
	assert.NotContains(t, string(data), `&`)
}

func TestMarshalCanonical_NFCNormalization(t *testing.T) {
	// "e" + COMBINING ACUTE ACCENT normalizes to the precomposed "é".
	decomposed := engine.Event{Seq: 1, Kind: engine.EventEdit, Key: "é"}
	precomposed := engine.Event{Seq: 1, Kind: engine.EventEdit, Key: "é"}

	a, err := MarshalCanonical(decomposed)
	require.NoError(t, err)
	b, err := MarshalCanonical(precomposed)
	require.NoError(t, err)
	assert.Equal(t, string(b), string(a))
}

func TestFormatEvents_OneObjectPerLine(t *testing.T) {
	out, err := FormatEvents([]engine.Event{
		{Seq: 1, Kind: engine.EventSchedule, Token: "b-001"},
		{Seq: 2, Kind: engine.EventRenderStart, Token: "b-001"},
	})
	require.NoError(t, err)
	assert.Equal(t,
		"{\"kind\":\"schedule\",\"seq\":1,\"token\":\"b-001\"}\n"+
			"{\"kind\":\"render_start\",\"seq\":2,\"token\":\"b-001\"}\n",
		out)
}
