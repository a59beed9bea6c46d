package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateFlagsOmitUnsetBooleans(t *testing.T) {
	flags := generateFlags(generateCmd)

	// With no flags passed, the boolean keys must be absent so file and
	// env settings survive the merge.
	_, hasRetina := flags["retina"]
	_, hasStrict := flags["strict"]
	assert.False(t, hasRetina, "retina default must not reach the flag merge")
	assert.False(t, hasStrict, "strict default must not reach the flag merge")

	require.NoError(t, generateCmd.Flags().Set("retina", "false"))
	require.NoError(t, generateCmd.Flags().Set("strict-overlaps", "true"))

	flags = generateFlags(generateCmd)
	assert.Equal(t, false, flags["retina"])
	assert.Equal(t, true, flags["strict"])
}
