package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brunokim/reason/test_helpers"
)

const family = `
	parent(alice, bob).
	parent(bob, carol).
	parent(bob, dave).
	ancestor(X, Y) :- parent(X, Y).
	ancestor(X, Z) :- parent(X, Y), ancestor(Y, Z).
`

func writeFiles(t *testing.T, texts ...string) []string {
	t.Helper()
	dir := t.TempDir()
	var files []string
	for i, text := range texts {
		path := filepath.Join(dir, string(rune('a'+i))+".pl")
		require.NoError(t, os.WriteFile(path, []byte(test_helpers.Dedent(text)), 0o644))
		files = append(files, path)
	}
	return files
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv("REASON_SOLVER", "")
	t.Setenv("REASON_LOG_LEVEL", "")
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	cfgPath := filepath.Join(t.TempDir(), "missing.yaml")
	rootCmd.SetArgs(append([]string{"--config", cfgPath}, args...))
	err := rootCmd.Execute()
	return out.String(), err
}

func TestRun(t *testing.T) {
	files := writeFiles(t, family, `
		?- ancestor(alice, Who).
		?- parent(carol, Kid).
	`)
	for _, style := range []string{"bytecode", "backward"} {
		t.Run(style, func(t *testing.T) {
			got, err := execute(t, append([]string{"run", "--solver", style, "-q", "", "-n", "0"}, files...)...)
			require.NoError(t, err)
			want := strings.Join([]string{
				"?- ancestor(alice, Who).",
				"Who = bob.",
				"Who = carol.",
				"Who = dave.",
				"?- parent(carol, Kid).",
				"false.",
				"",
			}, "\n")
			if diff := cmp.Diff(want, got); diff != "" {
				t.Errorf("(-want, +got)\n%s", diff)
			}
		})
	}
}

func TestRun_QueryFlag(t *testing.T) {
	files := writeFiles(t, family)
	got, err := execute(t, append([]string{"run", "--solver", "bytecode", "-q", "ancestor(X, dave)", "-n", "1"}, files...)...)
	require.NoError(t, err)
	assert.Equal(t, "?- ancestor(X, dave).\nX = bob.\n", got)
}

func TestRun_Errors(t *testing.T) {
	files := writeFiles(t, "p(a.")
	_, err := execute(t, append([]string{"run", "--solver", "bytecode", "-q", "", "-n", "0"}, files...)...)
	assert.ErrorContains(t, err, "1:4: expected ')'")

	_, err = execute(t, "run", "--solver", "bytecode", filepath.Join(t.TempDir(), "missing.pl"))
	assert.Error(t, err)

	_, err = execute(t, append([]string{"run", "--solver", "sideways"}, files...)...)
	assert.Error(t, err)
}

func TestCompile(t *testing.T) {
	files := writeFiles(t, "p(a).", "p(b).")
	got, err := execute(t, append([]string{"compile", "--solver", "bytecode"}, files...)...)
	require.NoError(t, err)
	want := strings.Join([]string{
		"% p/1",
		"   0  try_me_else +3",
		"   1  get_struct a, X0",
		"   2  proceed",
		"   3  trust_me",
		"   4  get_struct b, X0",
		"   5  proceed",
		"",
	}, "\n")
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("(-want, +got)\n%s", diff)
	}
}

func TestParse(t *testing.T) {
	files := writeFiles(t, family)
	got, err := execute(t, append([]string{"parse", "--solver", "bytecode"}, files...)...)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(got, "parent(alice, bob).\nparent(bob, carol).\n"), got)
	assert.Contains(t, got, "ancestor(X, Z) :-\n  parent(X, Y),\n  ancestor(Y, Z).\n")
}
