package qdrant

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chatvault/chatvault/embedstore"
)

func TestBuildPoint(t *testing.T) {
	t.Run("valid document", func(t *testing.T) {
		point, err := buildPoint(embedstore.Document{
			ID:       "42",
			Vector:   []float32{0.1, 0.2},
			Text:     "hello",
			Metadata: map[string]string{"sender": "alice"},
		})
		require.NoError(t, err)
		assert.Equal(t, uint64(42), point.Id.GetNum())
		assert.Equal(t, "hello", point.Payload["text"].GetStringValue())
		assert.Equal(t, "alice", point.Payload["sender"].GetStringValue())
	})

	t.Run("non numeric id", func(t *testing.T) {
		_, err := buildPoint(embedstore.Document{ID: "abc", Vector: []float32{0.1}})
		assert.Error(t, err)
	})

	t.Run("empty vector", func(t *testing.T) {
		_, err := buildPoint(embedstore.Document{ID: "1"})
		assert.Error(t, err)
	})
}

func TestBuildFilter(t *testing.T) {
	t.Run("nil for empty", func(t *testing.T) {
		assert.Nil(t, buildFilter(nil))
		assert.Nil(t, buildFilter(embedstore.Filter{}))
	})

	t.Run("scalar and list fields", func(t *testing.T) {
		f := buildFilter(embedstore.Filter{"sender": "alice", "categories": "crypto"})
		require.NotNil(t, f)
		assert.Len(t, f.Must, 2)
	})
}

func TestParsePointID(t *testing.T) {
	id, err := parsePointID("7")
	require.NoError(t, err)
	assert.Equal(t, uint64(7), id.GetNum())

	_, err = parsePointID("not-a-number")
	assert.Error(t, err)
}
