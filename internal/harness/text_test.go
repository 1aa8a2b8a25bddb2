package harness

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emonkak/barebind-sub006/internal/engine"
	"github.com/emonkak/barebind-sub006/internal/vtree"
)

func textPart(doc *vtree.Document) engine.Part {
	return engine.Part{Tree: doc, Container: doc.Root()}
}

func TestTextResolver_PrimitiveForms(t *testing.T) {
	tests := []struct {
		name  string
		value any
		want  string
	}{
		{"string", "hello", "hello"},
		{"int", 42, "42"},
		{"int64", int64(-7), "-7"},
		{"bool", true, "true"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := vtree.NewDocument()
			binding, err := TextResolver{}.Resolve(tt.value, textPart(doc))
			require.NoError(t, err)

			require.NoError(t, binding.Connect(nil))
			require.NoError(t, binding.Bind(tt.value, nil))
			require.NoError(t, binding.Commit(nil))
			assert.Equal(t, tt.want, doc.Text())
		})
	}
}

func TestTextResolver_RejectsUnrenderableValue(t *testing.T) {
	doc := vtree.NewDocument()
	_, err := TextResolver{}.Resolve(struct{}{}, textPart(doc))
	require.Error(t, err)
}

func TestTextBinding_MismatchOnKindChange(t *testing.T) {
	doc := vtree.NewDocument()
	binding, err := TextResolver{}.Resolve("x", textPart(doc))
	require.NoError(t, err)
	require.NoError(t, binding.Connect(nil))

	err = binding.Bind(map[string]int{}, nil)
	require.Error(t, err)

	var rerr *engine.RuntimeError
	require.ErrorAs(t, err, &rerr)
	assert.Equal(t, engine.ErrCodeValueMismatch, rerr.Code)
}

func TestTextBinding_DisconnectRemovesNode(t *testing.T) {
	doc := vtree.NewDocument()
	binding, err := TextResolver{}.Resolve("x", textPart(doc))
	require.NoError(t, err)

	require.NoError(t, binding.Connect(nil))
	require.NoError(t, binding.Bind("x", nil))
	require.NoError(t, binding.Commit(nil))
	assert.Equal(t, "x", doc.Text())

	binding.Disconnect(nil)
	assert.Equal(t, "", doc.Text())
	assert.Empty(t, doc.Root().Children())
}
