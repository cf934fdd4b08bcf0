package analyze_test

import (
	"testing"

	"github.com/crudecomputer/hldr/analyze"
	"github.com/crudecomputer/hldr/lex"
	"github.com/crudecomputer/hldr/parse"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func parseSrc(t *testing.T, src string) *parse.Tree {
	t.Helper()
	toks, lerr := lex.Tokenize(src)
	require.Nil(t, lerr)
	tree, perr := parse.Parse(toks)
	require.Nil(t, perr)
	return tree
}

func TestAnalyze_AcceptsValidTree(t *testing.T) {
	tree := parseSrc(t, "schema s (table t (r1 (c 'x') r2 (c @r1.c)))")
	v, err := analyze.Analyze(tree)
	require.Nil(t, err)
	assert.Same(t, tree, v.Into())
}

func TestAnalyze_DuplicateRecord(t *testing.T) {
	tree := parseSrc(t, "table t (r1 () r1 ())")
	_, err := analyze.Analyze(tree)
	require.NotNil(t, err)
	assert.Equal(t, analyze.ErrDuplicateRecord, err.Kind)
	assert.Equal(t, "r1", err.Record)
}

func TestAnalyze_DuplicateColumn(t *testing.T) {
	tree := parseSrc(t, "table t (r1 (a 1, a 2))")
	_, err := analyze.Analyze(tree)
	require.NotNil(t, err)
	assert.Equal(t, analyze.ErrDuplicateColumn, err.Kind)
	assert.Equal(t, "a", err.Column)
}

func TestAnalyze_ColumnSelfReferenceSucceeds(t *testing.T) {
	tree := parseSrc(t, "table t (r (a 1, b @a))")
	_, err := analyze.Analyze(tree)
	assert.Nil(t, err)
}

func TestAnalyze_ForwardColumnReferenceFails(t *testing.T) {
	tree := parseSrc(t, "table t (r (b @a, a 1))")
	_, err := analyze.Analyze(tree)
	require.NotNil(t, err)
	assert.Equal(t, analyze.ErrColumnNotFound, err.Kind)
	assert.Equal(t, "a", err.Column)
}

func TestAnalyze_RecordNotFound(t *testing.T) {
	tree := parseSrc(t, "table t (r1 (c @missing.c))")
	_, err := analyze.Analyze(tree)
	require.NotNil(t, err)
	assert.Equal(t, analyze.ErrRecordNotFound, err.Kind)
}

func TestAnalyze_CrossTableReferenceResolvesWithinSchema(t *testing.T) {
	tree := parseSrc(t, `
schema s (
  table t1 ( r1 (c 'x') )
  table t2 ( r2 (c @t1.r1.c) )
)`)
	_, err := analyze.Analyze(tree)
	assert.Nil(t, err)
}

func TestValidated_IntoPanicsOnSecondCall(t *testing.T) {
	tree := parseSrc(t, "table t ()")
	v, err := analyze.Analyze(tree)
	require.Nil(t, err)
	v.Into()
	assert.Panics(t, func() { v.Into() })
}
