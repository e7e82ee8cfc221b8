package cli

import (
	"bytes"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sheikhmt/taha-iss-tracker/internal/oem"
)

func TestRootCommand(t *testing.T) {
	cmd := NewRootCommand()
	require.NotNil(t, cmd)
	assert.Equal(t, "issctl", cmd.Use)
	assert.Contains(t, cmd.Long, "ephemeris")
}

func TestCommandPresence(t *testing.T) {
	cmd := NewRootCommand()
	commands := []string{"fetch", "inspect", "epochs", "locate", "now"}

	for _, cmdName := range commands {
		t.Run(cmdName, func(t *testing.T) {
			subCmd, _, err := cmd.Find([]string{cmdName})
			require.NoError(t, err, "Command %s should exist", cmdName)
			require.NotNil(t, subCmd)
			assert.Equal(t, cmdName, subCmd.Name())
		})
	}
}

func TestGlobalFlags(t *testing.T) {
	cmd := NewRootCommand()

	verboseFlag := cmd.PersistentFlags().Lookup("verbose")
	require.NotNil(t, verboseFlag)
	assert.Equal(t, "v", verboseFlag.Shorthand)
	assert.Equal(t, "false", verboseFlag.DefValue)

	formatFlag := cmd.PersistentFlags().Lookup("format")
	require.NotNil(t, formatFlag)
	assert.Equal(t, "text", formatFlag.DefValue)

	fileFlag := cmd.PersistentFlags().Lookup("file")
	require.NotNil(t, fileFlag)
	assert.Equal(t, "", fileFlag.DefValue)

	cacheDirFlag := cmd.PersistentFlags().Lookup("cache-dir")
	require.NotNil(t, cacheDirFlag)
	assert.Equal(t, "/tmp/isstracker/oem", cacheDirFlag.DefValue)
}

func TestFetchCommandFlags(t *testing.T) {
	cmd := NewRootCommand()
	fetchCmd, _, err := cmd.Find([]string{"fetch"})
	require.NoError(t, err)

	urlFlag := fetchCmd.Flags().Lookup("url")
	require.NotNil(t, urlFlag)
	assert.Equal(t, oem.DefaultSourceURL, urlFlag.DefValue)

	maxFilesFlag := fetchCmd.Flags().Lookup("max-files")
	require.NotNil(t, maxFilesFlag)
	assert.Equal(t, "5", maxFilesFlag.DefValue)
}

func TestEpochsCommandFlags(t *testing.T) {
	cmd := NewRootCommand()
	epochsCmd, _, err := cmd.Find([]string{"epochs"})
	require.NoError(t, err)

	limitFlag := epochsCmd.Flags().Lookup("limit")
	require.NotNil(t, limitFlag)
	assert.Equal(t, "n", limitFlag.Shorthand)
	assert.Equal(t, "10", limitFlag.DefValue)

	offsetFlag := epochsCmd.Flags().Lookup("offset")
	require.NotNil(t, offsetFlag)
	assert.Equal(t, "0", offsetFlag.DefValue)
}

func TestLocateCommandFlags(t *testing.T) {
	cmd := NewRootCommand()
	locateCmd, _, err := cmd.Find([]string{"locate"})
	require.NoError(t, err)

	radiusFlag := locateCmd.Flags().Lookup("radius-km")
	require.NotNil(t, radiusFlag)
	assert.Equal(t, "300", radiusFlag.DefValue)
}

func TestNowCommandFlags(t *testing.T) {
	cmd := NewRootCommand()
	nowCmd, _, err := cmd.Find([]string{"now"})
	require.NoError(t, err)

	radiusFlag := nowCmd.Flags().Lookup("radius-km")
	require.NotNil(t, radiusFlag)
	assert.Equal(t, "300", radiusFlag.DefValue)
}

func TestFormatValidation(t *testing.T) {
	assert.True(t, isValidFormat("text"))
	assert.True(t, isValidFormat("json"))

	assert.False(t, isValidFormat("xml"))
	assert.False(t, isValidFormat(""))
	assert.False(t, isValidFormat("TEXT"))
}

func TestFormatValidationIntegration(t *testing.T) {
	cmd := NewRootCommand()
	cmd.SetOut(io.Discard)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"--format", "invalid", "inspect"})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid format")
}
