package paramenc

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zclconf/go-cty/cty"

	"github.com/vk/flowrungo/internal/model"
)

func TestEncode_MixedValueKinds(t *testing.T) {
	params := []model.Param{
		{Key: "region", Value: cty.StringVal("emea")},
		{Key: "limit", Value: cty.NumberIntVal(100)},
		{Key: "dry_run", Value: cty.False},
		{Key: "note", Value: cty.StringVal(`say "hi"`)},
	}

	got, err := Encode(params)
	require.NoError(t, err)
	assert.Equal(t, `{"region":"emea","limit":100,"dry_run":false,"note":"say \"hi\""}`, got)
}

func TestEncode_PreservesGivenOrder(t *testing.T) {
	forward := []model.Param{
		{Key: "a", Value: cty.NumberIntVal(1)},
		{Key: "b", Value: cty.NumberIntVal(2)},
	}
	reversed := []model.Param{forward[1], forward[0]}

	gotForward, err := Encode(forward)
	require.NoError(t, err)
	gotReversed, err := Encode(reversed)
	require.NoError(t, err)

	assert.Equal(t, `{"a":1,"b":2}`, gotForward)
	assert.Equal(t, `{"b":2,"a":1}`, gotReversed)
}

func TestEncode_Idempotent(t *testing.T) {
	params := []model.Param{
		{Key: "x", Value: cty.StringVal("1")},
		{Key: "y", Value: cty.ListVal([]cty.Value{cty.StringVal("p"), cty.StringVal("q")})},
	}

	first, err := Encode(params)
	require.NoError(t, err)
	second, err := Encode(params)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestEncode_NoParams(t *testing.T) {
	got, err := Encode(nil)
	require.NoError(t, err)
	assert.Equal(t, "{}", got)
}

func TestEncode_LongPayloadSurvivesIntact(t *testing.T) {
	long := strings.Repeat("abcdefgh", 64*1024)
	got, err := Encode([]model.Param{{Key: "blob", Value: cty.StringVal(long)}})
	require.NoError(t, err)

	var decoded map[string]string
	require.NoError(t, json.Unmarshal([]byte(got), &decoded))
	assert.Equal(t, long, decoded["blob"])
}

func TestEncode_NullValue(t *testing.T) {
	got, err := Encode([]model.Param{{Key: "maybe", Value: cty.NullVal(cty.String)}})
	require.NoError(t, err)
	assert.Equal(t, `{"maybe":null}`, got)
}
