package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testRules = `{
  "rules": [
    {"name": "Invoices", "pattern": "invoice", "match_type": "contains", "target_folder": "Billing"},
    {"name": "Lists", "field": "to", "pattern": "@lists.example.org", "match_type": "ends_with", "target_folder": ".Lists"}
  ]
}`

type fixture struct {
	dir     string
	maildir string
	rules   string
	config  string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	dir := t.TempDir()
	f := &fixture{
		dir:     dir,
		maildir: filepath.Join(dir, "Maildir"),
		rules:   filepath.Join(dir, "rules.json"),
		config:  filepath.Join(dir, "mzfilter.toml"),
	}
	for _, sub := range []string{"cur", "new", "tmp"} {
		require.NoError(t, os.MkdirAll(filepath.Join(f.maildir, sub), 0700))
	}
	require.NoError(t, os.WriteFile(f.rules, []byte(testRules), 0600))
	require.NoError(t, os.WriteFile(f.config, nil, 0600))
	return f
}

func (f *fixture) deliver(t *testing.T, sub, name, headers string) {
	t.Helper()
	body := strings.ReplaceAll(headers, "\n", "\r\n") + "\r\nbody\r\n"
	require.NoError(t, os.WriteFile(filepath.Join(f.maildir, sub, name), []byte(body), 0600))
}

func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	cmd := NewRootCmd()
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func TestRoot_FilesMessages(t *testing.T) {
	f := newFixture(t)
	f.deliver(t, "new", "1.a.host", "Subject: Your invoice\nTo: me@example.com\n")
	f.deliver(t, "cur", "2.b.host:2,S", "Subject: hello\nTo: dev@lists.example.org\n")
	f.deliver(t, "cur", "3.c.host:2,S", "Subject: lunch\nTo: me@example.com\n")

	stdout, _, err := execute(t, "--config", f.config, "--rules", f.rules, f.maildir)
	require.NoError(t, err)
	assert.Equal(t, "processed=3 moved=2 would_move=0 no_match=1 failed=0\n", stdout)

	assert.FileExists(t, filepath.Join(f.maildir, ".Billing", "new", "1.a.host"))
	assert.FileExists(t, filepath.Join(f.maildir, ".Lists", "cur", "2.b.host:2,S"))
	assert.FileExists(t, filepath.Join(f.maildir, "cur", "3.c.host:2,S"))
	assert.NoFileExists(t, filepath.Join(f.maildir, "new", "1.a.host"))
}

func TestRoot_DryRun(t *testing.T) {
	f := newFixture(t)
	f.deliver(t, "new", "1.a.host", "Subject: invoice 42\n")

	stdout, _, err := execute(t, "--config", f.config, "--rules", f.rules, "--dry-run", f.maildir)
	require.NoError(t, err)
	assert.Equal(t, "processed=1 moved=0 would_move=1 no_match=0 failed=0\n", stdout)
	assert.FileExists(t, filepath.Join(f.maildir, "new", "1.a.host"))
	assert.NoDirExists(t, filepath.Join(f.maildir, ".Billing"))
}

func TestRoot_FoldersFlag(t *testing.T) {
	f := newFixture(t)
	f.deliver(t, "new", "1.a.host", "Subject: invoice\n")
	f.deliver(t, "cur", "2.b.host:2,S", "Subject: invoice\n")

	stdout, _, err := execute(t, "--config", f.config, "--rules", f.rules, "--folders", "cur", f.maildir)
	require.NoError(t, err)
	assert.Equal(t, "processed=1 moved=1 would_move=0 no_match=0 failed=0\n", stdout)
	assert.FileExists(t, filepath.Join(f.maildir, "new", "1.a.host"))
}

func TestRoot_ConfigFile(t *testing.T) {
	f := newFixture(t)
	f.deliver(t, "new", "1.a.host", "Subject: invoice\n")
	metricsFile := filepath.Join(f.dir, "mzfilter.prom")
	cfg := "maildir = " + quote(f.maildir) + "\nrules = " + quote(f.rules) +
		"\nworkers = 2\n\n[metrics]\ntextfile = " + quote(metricsFile) + "\n"
	require.NoError(t, os.WriteFile(f.config, []byte(cfg), 0600))

	stdout, _, err := execute(t, "--config", f.config)
	require.NoError(t, err)
	assert.Contains(t, stdout, "moved=1")

	data, err := os.ReadFile(metricsFile)
	require.NoError(t, err)
	assert.Contains(t, string(data), `mzfilter_messages_total{outcome="moved"} 1`)
}

func TestRoot_JSONLogs(t *testing.T) {
	f := newFixture(t)

	_, stderr, err := execute(t, "--config", f.config, "--rules", f.rules, "--log-format", "json", "-v", f.maildir)
	require.NoError(t, err)
	assert.Contains(t, stderr, `"msg":"filtering complete"`)
}

func TestRoot_UnknownConfigKeysUseConfiguredLogger(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, os.WriteFile(f.config, []byte("colour = \"blue\"\n"), 0600))

	_, stderr, err := execute(t, "--config", f.config, "--rules", f.rules, "--log-format", "json", f.maildir)
	require.NoError(t, err)
	assert.Contains(t, stderr, `"msg":"unknown configuration keys ignored"`)
	assert.Contains(t, stderr, `"keys":"colour"`)
	assert.Contains(t, stderr, `"msg":"scanning folder"`)
}

func TestRoot_Errors(t *testing.T) {
	f := newFixture(t)

	tests := []struct {
		name string
		args []string
	}{
		{"no maildir", []string{"--config", f.config, "--rules", f.rules}},
		{"missing maildir", []string{"--config", f.config, "--rules", f.rules, filepath.Join(f.dir, "nope")}},
		{"missing rules", []string{"--config", f.config, "--rules", filepath.Join(f.dir, "nope.json"), f.maildir}},
		{"bad folder", []string{"--config", f.config, "--rules", f.rules, "--folders", "tmp", f.maildir}},
		{"too many args", []string{"--config", f.config, f.maildir, f.maildir}},
		{"missing config", []string{"--config", filepath.Join(f.dir, "nope.toml"), f.maildir}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := execute(t, tt.args...)
			assert.Error(t, err)
		})
	}
}

func TestRoot_MalformedMaildir(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, os.Remove(filepath.Join(f.maildir, "tmp")))

	_, _, err := execute(t, "--config", f.config, "--rules", f.rules, f.maildir)
	assert.Error(t, err)
}

func TestCheckCmd(t *testing.T) {
	f := newFixture(t)

	stdout, _, err := execute(t, "check", "--config", f.config, "--rules", f.rules)
	require.NoError(t, err)
	assert.Contains(t, stdout, "2 rules OK")

	bad := filepath.Join(f.dir, "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte(`{"rules": [
		{"pattern": "(", "match_type": "regex", "target_folder": "X"},
		{"pattern": "x", "match_type": "contains", "target_folder": "a/b"}
	]}`), 0600))
	stdout, _, err = execute(t, "check", "--config", f.config, "--rules", bad)
	require.Error(t, err)
	assert.Contains(t, stdout, "rule 1")
	assert.Contains(t, stdout, "rule 2")

	empty := filepath.Join(f.dir, "empty.json")
	require.NoError(t, os.WriteFile(empty, []byte(`{"rules": []}`), 0600))
	stdout, _, err = execute(t, "check", "--config", f.config, "--rules", empty)
	require.NoError(t, err)
	assert.Contains(t, stdout, "warning")
}

func TestSieveCmd(t *testing.T) {
	f := newFixture(t)

	stdout, _, err := execute(t, "sieve", "--config", f.config, "--rules", f.rules)
	require.NoError(t, err)
	assert.Contains(t, stdout, `fileinto "Billing";`)

	out := filepath.Join(f.dir, "rules.sieve")
	_, _, err = execute(t, "sieve", "--config", f.config, "--rules", f.rules, "-o", out)
	require.NoError(t, err)
	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, stdout, string(data))
}

func TestVersionCmd(t *testing.T) {
	stdout, _, err := execute(t, "version")
	require.NoError(t, err)
	assert.Equal(t, "mzfilter dev\n", stdout)
}

func quote(s string) string {
	return `"` + strings.ReplaceAll(s, `\`, `\\`) + `"`
}
