package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMapOfAny_Scan(t *testing.T) {
	var m MapOfAny
	require.NoError(t, m.Scan([]byte(`{"query":"dentists","limit":10}`)))
	assert.Equal(t, "dentists", m["query"])
	assert.Equal(t, float64(10), m["limit"])

	require.NoError(t, m.Scan(`{"a":true}`))
	assert.Equal(t, true, m["a"])

	require.NoError(t, m.Scan(nil))
	assert.Nil(t, m)

	assert.Error(t, m.Scan(42))
}

func TestMapOfAny_Value(t *testing.T) {
	v, err := MapOfAny{"q": "x"}.Value()
	require.NoError(t, err)
	assert.JSONEq(t, `{"q":"x"}`, string(v.([]byte)))

	v, err = MapOfAny(nil).Value()
	require.NoError(t, err)
	assert.Equal(t, []byte("{}"), v)
}
