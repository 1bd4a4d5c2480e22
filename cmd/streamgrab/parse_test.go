package main

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vmunix/streamgrab/internal/manifest"
)

func TestWriteEntries(t *testing.T) {
	entries := []manifest.Entry{
		{Identifier: "abc", OutputDirectory: "/v/one"},
		{Identifier: "def", OutputDirectory: "/v/two"},
	}

	var buf bytes.Buffer
	require.NoError(t, writeEntries(&buf, entries, false))
	assert.Equal(t, "abc -> /v/one\ndef -> /v/two\n", buf.String())

	buf.Reset()
	require.NoError(t, writeEntries(&buf, entries, true))
	var got []entryJSON
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, []entryJSON{{"abc", "/v/one"}, {"def", "/v/two"}}, got)
}

func TestWriteEntries_Empty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeEntries(&buf, nil, false))
	assert.Equal(t, "No videos found.\n", buf.String())
}
