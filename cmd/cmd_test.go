package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testCampaign = `
methods:
  - language: PLTL
    algorithm: valIt
problems:
  - params:
      reward_spec: AllTrue
      action_spec: FiftyFifty
      n: [2, 3]
`

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs(args)
	err := Execute()
	return out.String(), err
}

func writeFiles(t *testing.T) (cfgFile, campaignFile string) {
	t.Helper()
	dir := t.TempDir()
	cfgFile = filepath.Join(dir, "sweep.yaml")
	cfg := "cache:\n  dir: " + filepath.Join(dir, "data") +
		"\nledger:\n  path: " + filepath.Join(dir, "runs.jsonl") +
		"\ntables:\n  dir: " + filepath.Join(dir, "points") + "\n"
	require.NoError(t, os.WriteFile(cfgFile, []byte(cfg), 0o644))
	campaignFile = filepath.Join(dir, "campaign.yaml")
	require.NoError(t, os.WriteFile(campaignFile, []byte(testCampaign), 0o644))
	return cfgFile, campaignFile
}

func TestListCommand(t *testing.T) {
	cfgFile, campaignFile := writeFiles(t)
	out, err := execute(t, "ls", "-c", cfgFile, campaignFile)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], "PROBLEM")
	assert.Contains(t, lines[1], "valIt")
	fields := strings.Fields(lines[1])
	assert.Equal(t, []string{"2", "0"}, fields[len(fields)-2:])
}

func TestRunCachedOnlyReportsPending(t *testing.T) {
	cfgFile, campaignFile := writeFiles(t)
	out, err := execute(t, "run", "-c", cfgFile, "--cached-only", "--no-tables", campaignFile)
	require.NoError(t, err)
	assert.Equal(t, 2, strings.Count(out, "would run:"))
}

func TestHistoryEmptyLedger(t *testing.T) {
	cfgFile, _ := writeFiles(t)
	out, err := execute(t, "history", "-c", cfgFile, "--limit", "5")
	require.NoError(t, err)
	assert.Contains(t, out, "SESSION")
}

func TestRunRequiresCampaign(t *testing.T) {
	_, err := execute(t, "run")
	require.Error(t, err)
}
