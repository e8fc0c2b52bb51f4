package canonical

import (
	"crypto/sha256"
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarshal_SortsKeysAtEveryDepth(t *testing.T) {
	payload := map[string]any{
		"zeta": 1,
		"alpha": map[string]any{
			"b": true,
			"a": "x",
		},
		"list": []any{
			map[string]any{"k2": "v", "k1": "u"},
		},
	}

	data, err := Marshal(payload)
	require.NoError(t, err)
	assert.Equal(t, `{"alpha":{"a":"x","b":true},"list":[{"k1":"u","k2":"v"}],"zeta":1}`, string(data))
}

func TestMarshal_NoWhitespace(t *testing.T) {
	data, err := Marshal(map[string]any{"a": []any{1, 2}, "b": nil})
	require.NoError(t, err)
	assert.NotContains(t, string(data), " ")
	assert.Equal(t, `{"a":[1,2],"b":null}`, string(data))
}

func TestHash_StableAcrossKeyOrder(t *testing.T) {
	a := map[string]any{"ssnLast4": "1234", "name": "John Doe"}
	b := map[string]any{"name": "John Doe", "ssnLast4": "1234"}

	ha, err := Hash(a)
	require.NoError(t, err)
	hb, err := Hash(b)
	require.NoError(t, err)
	assert.Equal(t, ha, hb)
}

func TestHash_MatchesDirectSHA256(t *testing.T) {
	payload := map[string]any{"ssnLast4": "1234"}
	canonical := `{"ssnLast4":"1234"}`

	sum := sha256.Sum256([]byte(canonical))
	want := hex.EncodeToString(sum[:])

	got, err := Hash(payload)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestHash_DiffersForDifferentPayloads(t *testing.T) {
	h1, err := Hash(map[string]any{"v": 1})
	require.NoError(t, err)
	h2, err := Hash(map[string]any{"v": 2})
	require.NoError(t, err)
	assert.NotEqual(t, h1, h2)
}

func TestHash_LowercaseHex(t *testing.T) {
	h, err := Hash(map[string]any{"k": "v"})
	require.NoError(t, err)
	assert.Len(t, h, 64)
	for _, c := range h {
		assert.True(t, (c >= '0' && c <= '9') || (c >= 'a' && c <= 'f'), "digit %c", c)
	}
}
