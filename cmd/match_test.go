package cmd

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/gridmatch/core/model"
)

const doc = `m1:
  "2021-01-01T00:00":
    bids:
      - {id: b1, buyer: H1, energy: 2, energy_rate: 12}
    offers:
      - {id: o1, seller: P1, energy: 3, energy_rate: 8}
`

func execute(t *testing.T, args ...string) (string, string) {
	t.Helper()
	t.Cleanup(func() {
		matchInput, matchOutput, matchStrategy, matchCSV = "-", "-", "", false
		cfgPath = "config.yaml"
	})
	var stdout, stderr bytes.Buffer
	rootCmd.SetOut(&stdout)
	rootCmd.SetErr(&stderr)
	rootCmd.SetArgs(args)
	require.NoError(t, rootCmd.Execute())
	return stdout.String(), stderr.String()
}

func TestMatchCommand_JSON(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "book.yaml")
	require.NoError(t, os.WriteFile(in, []byte(doc), 0o600))

	out, _ := execute(t, "match", "-c", filepath.Join(dir, "missing.yaml"), "-i", in, "-s", "pay_as_bid")
	var recs []model.Recommendation
	require.NoError(t, json.Unmarshal([]byte(out), &recs))
	require.Len(t, recs, 1)
	assert.Equal(t, 2.0, recs[0].SelectedEnergy)
	assert.Equal(t, 12.0, recs[0].TradeRate)
}

func TestMatchCommand_CSVToFile(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "book.yaml")
	dst := filepath.Join(dir, "out.csv")
	require.NoError(t, os.WriteFile(in, []byte(doc), 0o600))

	execute(t, "match", "-c", filepath.Join(dir, "missing.yaml"), "-i", in, "-o", dst, "--csv")
	raw, err := os.ReadFile(dst)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(raw)), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "m1,2021-01-01T00:00,b1,H1,o1,P1,2,12", lines[1])
}

func TestStrategiesCommand(t *testing.T) {
	out, _ := execute(t, "strategies", "-c", filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Equal(t, "cluster_fair\npay_as_bid\npay_as_clear\n", out)
}
