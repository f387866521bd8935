package main

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const goodSource = "package q\n\nconst cols = `id, status, updated_at`\n\n" +
	"const QGet = `--sql 11111111-2222-4333-8444-555555555555\nselect ` + cols + `\nfrom donations;`\n"

func TestLintAcceptsMarkedConcatenatedQuery(t *testing.T) {
	l := newLinter()
	require.NoError(t, l.lintFile("good.go", goodSource))
	assert.Empty(t, l.violations)
}

func TestLintFlagsMissingMarker(t *testing.T) {
	src := "package q\n\nconst QBad = `select id from accounts`\n\nvar note = \"plain text\"\n"
	l := newLinter()
	require.NoError(t, l.lintFile("bad.go", src))
	require.Len(t, l.violations, 1)
	assert.Equal(t, "QBad", l.violations[0].name)
	assert.Equal(t, 3, l.violations[0].line)
	assert.Contains(t, l.violations[0].String(), "bad.go:3")
}

func TestLintFlagsDuplicateMarkerAcrossFiles(t *testing.T) {
	other := strings.Replace(goodSource, "QGet", "QOther", 1)
	l := newLinter()
	require.NoError(t, l.lintFile("a.go", goodSource))
	require.NoError(t, l.lintFile("b.go", other))
	require.Len(t, l.violations, 1)
	assert.Equal(t, "QOther", l.violations[0].name)
	assert.Contains(t, l.violations[0].message, "QGet at a.go")
}

func TestLintPathsOnQueryPackage(t *testing.T) {
	violations, err := lintPaths([]string{"../../sqlinline"})
	require.NoError(t, err)
	assert.Empty(t, violations)
}
