package llm

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractObjectFencedBlock(t *testing.T) {
	raw := "Here is the storyboard:\n```json\n{\"scenes\": [{\"summary\": \"intro\"}]}\n```\nLet me know if you need changes."
	result := ExtractObject(raw)
	require.True(t, result.OK, result.Reason)
	assert.JSONEq(t, `{"scenes": [{"summary": "intro"}]}`, result.JSON)
}

func TestExtractObjectBareFence(t *testing.T) {
	raw := "```\n{\"ok\": true}\n```"
	result := ExtractObject(raw)
	require.True(t, result.OK, result.Reason)
	assert.JSONEq(t, `{"ok": true}`, result.JSON)
}

func TestExtractObjectProseWrapped(t *testing.T) {
	raw := `Sure! The result is {"scores": {"style": 0.9}, "note": "a } inside a string"} — hope that helps.`
	result := ExtractObject(raw)
	require.True(t, result.OK, result.Reason)

	var parsed map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(result.JSON), &parsed))
	assert.Equal(t, "a } inside a string", parsed["note"])
}

func TestExtractObjectNestedAndEscaped(t *testing.T) {
	raw := `{"a": {"b": "quote \" and brace {"}, "c": 1} trailing {"ignored": true}`
	result := ExtractObject(raw)
	require.True(t, result.OK, result.Reason)
	assert.JSONEq(t, `{"a": {"b": "quote \" and brace {"}, "c": 1}`, result.JSON)
}

func TestExtractObjectFailures(t *testing.T) {
	assert.False(t, ExtractObject("").OK)
	assert.False(t, ExtractObject("no json here at all").OK)
	assert.False(t, ExtractObject(`{"never": "closed"`).OK)
}
