package metrics

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/infodancer/mzfilter"
)

func TestRecorder_WriteTextfile(t *testing.T) {
	outcomes := []mzfilter.Outcome{
		{Kind: mzfilter.Moved, Folder: ".Billing"},
		{Kind: mzfilter.Moved, Folder: ".Billing"},
		{Kind: mzfilter.Moved, Folder: ".Lists"},
		{Kind: mzfilter.NoMatch},
		{Kind: mzfilter.Failed, Folder: ".Broken"},
	}
	var summary mzfilter.Summary
	for _, o := range outcomes {
		summary.Add(o)
	}
	summary.Warnings = 2

	r := New()
	r.Observe(outcomes, summary, time.Unix(1700000000, 0), 1500*time.Millisecond, false)

	path := filepath.Join(t.TempDir(), "mzfilter.prom")
	require.NoError(t, r.WriteTextfile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	text := string(data)

	for _, want := range []string{
		`mzfilter_messages_total{outcome="moved"} 3`,
		`mzfilter_messages_total{outcome="no_match"} 1`,
		`mzfilter_messages_total{outcome="failed"} 1`,
		`mzfilter_messages_total{outcome="would_move"} 0`,
		`mzfilter_filed_total{folder=".Billing"} 2`,
		`mzfilter_filed_total{folder=".Lists"} 1`,
		`mzfilter_rule_warnings_total 2`,
		`mzfilter_last_run_timestamp_seconds 1.7e+09`,
		`mzfilter_last_run_duration_seconds 1.5`,
		`mzfilter_last_run_dry_run 0`,
	} {
		assert.Contains(t, text, want)
	}
	assert.NotContains(t, text, `folder=".Broken"`)
}

func TestRecorder_DryRun(t *testing.T) {
	outcomes := []mzfilter.Outcome{{Kind: mzfilter.WouldMove, Folder: ".Work"}}
	var summary mzfilter.Summary
	summary.Add(outcomes[0])

	r := New()
	r.Observe(outcomes, summary, time.Now(), time.Second, true)

	path := filepath.Join(t.TempDir(), "mzfilter.prom")
	require.NoError(t, r.WriteTextfile(path))
	data, err := os.ReadFile(path)
	require.NoError(t, err)

	assert.Contains(t, string(data), `mzfilter_messages_total{outcome="would_move"} 1`)
	assert.Contains(t, string(data), `mzfilter_filed_total{folder=".Work"} 1`)
	assert.Contains(t, string(data), `mzfilter_last_run_dry_run 1`)
}

func TestRecorder_WriteTextfileBadPath(t *testing.T) {
	r := New()
	assert.Error(t, r.WriteTextfile(filepath.Join(t.TempDir(), "missing", "dir", "m.prom")))
}
