package processing

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStripFences(t *testing.T) {
	assert.Equal(t, `{"a":1}`, stripFences("```json\n{\"a\":1}\n```"))
	assert.Equal(t, `[1]`, stripFences("```\n[1]\n```"))
	assert.Equal(t, `{"a":1}`, stripFences(`  {"a":1}  `))
}

func TestDecodeLoose(t *testing.T) {
	v, err := decodeLoose(`{"phone": 9175551234}`)
	require.NoError(t, err)
	assert.Equal(t, json.Number("9175551234"), v.(map[string]any)["phone"])

	v, err = decodeLoose("Sure! Here it is:\n{\"first_name\": \"Ana\"}\nLet me know.")
	require.NoError(t, err)
	assert.Equal(t, "Ana", v.(map[string]any)["first_name"])

	v, err = decodeLoose("```json\n[{\"type\":\"city\",\"value\":\"rome\"}]\n```")
	require.NoError(t, err)
	assert.Len(t, v.([]any), 1)

	_, err = decodeLoose("urgent")
	assert.ErrorIs(t, err, errNoJSON)

	_, err = decodeLoose(`{"unterminated": `)
	assert.Error(t, err)
}

func TestLooseString(t *testing.T) {
	assert.Equal(t, "John", looseString(" John "))
	assert.Equal(t, "", looseString("null"))
	assert.Equal(t, "", looseString("N/A"))
	assert.Equal(t, "661248083", looseString(json.Number("661248083")))
	assert.Equal(t, "", looseString(nil))
	assert.Equal(t, "", looseString(true))
}
