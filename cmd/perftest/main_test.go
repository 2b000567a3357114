package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseArgs(t *testing.T) {
	path, n, err := parseArgs([]string{"--inserts", "100", "--in-file", "perf.db"})
	require.NoError(t, err)
	assert.Equal(t, "perf.db", path)
	assert.Equal(t, 100, n)

	path, n, err = parseArgs(nil)
	require.NoError(t, err)
	assert.Equal(t, "", path)
	assert.Equal(t, 0, n)

	tests := []struct {
		args []string
		msg  string
	}{
		{[]string{"--inserts"}, "missing value for --inserts"},
		{[]string{"--inserts", "10", "--in-file"}, "missing value for --in-file"},
		{[]string{"--inserts", "ten"}, `bad --inserts value "ten"`},
	}

	for _, test := range tests {
		_, _, err := parseArgs(test.args)
		require.Error(t, err, test.args)
		assert.Equal(t, test.msg, err.Error(), test.args)
	}
}
