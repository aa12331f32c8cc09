package persist

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJSONCodec_Envelope(t *testing.T) {
	rec := Record{State: json.RawMessage(`{"count":5}`), Version: 2}

	data, err := JSONCodec{}.Marshal(rec)
	require.NoError(t, err)
	assert.JSONEq(t, `{"state":{"count":5},"version":2}`, string(data))

	got, err := JSONCodec{}.Unmarshal(data)
	require.NoError(t, err)
	assert.Equal(t, 2, got.Version)
	assert.JSONEq(t, `{"count":5}`, string(got.State))

	_, err = JSONCodec{}.Unmarshal([]byte("not json"))
	assert.Error(t, err)
}

func TestTOMLCodec_Envelope(t *testing.T) {
	rec := Record{State: json.RawMessage(`{"count":5}`), Version: 3}

	data, err := TOMLCodec{}.Marshal(rec)
	require.NoError(t, err)

	got, err := TOMLCodec{}.Unmarshal(data)
	require.NoError(t, err)
	assert.Equal(t, 3, got.Version)
	assert.JSONEq(t, `{"count":5}`, string(got.State))

	_, err = TOMLCodec{}.Unmarshal([]byte("= broken"))
	assert.Error(t, err)
}
