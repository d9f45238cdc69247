package labs

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeResult(t *testing.T, dir, content string) {
	t.Helper()
	l := DefaultLayout()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, l.ResultDir), 0o755))
	require.NoError(t, os.WriteFile(l.ResultPath(dir), []byte(content), 0o644))
}

func TestParseResult_ReturnsPass_When_ContentIsPassToken(t *testing.T) {
	t.Parallel()

	tests := []struct {
		content string
		want    Verdict
	}{
		{"pass", Pass},
		{"PASS\n", Pass},
		{"  Pass \r\n", Pass},
		{"fail", Fail},
		{"passed", Fail},
		{"pass pass", Fail},
		{"", Fail},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.want, ParseResult(tc.content), "content %q", tc.content)
	}
}

func TestResolver_MapsMissingArtifact_When_CalledAfterTestOrScan(t *testing.T) {
	t.Parallel()

	r := NewResolver(Layout{})
	dir := t.TempDir()

	_, err := r.Read(dir)
	require.Error(t, err)
	assert.Equal(t, Fail, r.AfterTest(dir))
	assert.Equal(t, Unset, r.Scan(dir))
}

func TestResolver_RereadsArtifact_When_ContentChanges(t *testing.T) {
	t.Parallel()

	r := NewResolver(DefaultLayout())
	dir := t.TempDir()

	writeResult(t, dir, "PASS\n")
	assert.Equal(t, Pass, r.AfterTest(dir))
	assert.Equal(t, Pass, r.Scan(dir))

	writeResult(t, dir, "fail")
	assert.Equal(t, Fail, r.AfterTest(dir))
	assert.Equal(t, Fail, r.Scan(dir))
}

func TestResolver_TreatsDirectoryAsUnreadable_When_ArtifactIsNotAFile(t *testing.T) {
	t.Parallel()

	r := NewResolver(DefaultLayout())
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(r.Layout.ResultPath(dir), 0o755))

	assert.Equal(t, Fail, r.AfterTest(dir))
	assert.Equal(t, Unset, r.Scan(dir))
}

func TestDiscover_ListsSortedProblems_When_TreeHasHiddenAndEmptyLabs(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	for _, d := range []string{"lab2/p1", "lab1/p2", "lab1/p1", "lab1/.git", "lab3", ".hidden/p"} {
		require.NoError(t, os.MkdirAll(filepath.Join(root, d), 0o755))
	}
	require.NoError(t, os.WriteFile(filepath.Join(root, "lab1", "Makefile"), nil, 0o644))

	tree, err := Discover(root)
	require.NoError(t, err)
	require.NoError(t, tree.Validate())

	var keys []string
	for _, p := range tree.Problems() {
		keys = append(keys, p.Key())
	}
	assert.Equal(t, []string{"lab1/p1", "lab1/p2", "lab2/p1", "lab3"}, keys)

	p, ok := tree.Find("lab3")
	require.True(t, ok)
	assert.Equal(t, filepath.Join(root, "lab3"), p.Dir)
	assert.Equal(t, UnnamedLabel, p.Label())

	_, ok = tree.Find("lab9/p1")
	assert.False(t, ok)
}

func TestTreeValidate_ReportsEmptyTree_When_NoLabsOrProblems(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	tree, err := Discover(root)
	require.NoError(t, err)
	assert.ErrorIs(t, tree.Validate(), ErrNoLabs)

	require.NoError(t, os.MkdirAll(filepath.Join(root, "lab1"), 0o755))
	tree, err = Discover(root)
	require.NoError(t, err)
	assert.ErrorIs(t, tree.Validate(), ErrNoProblems)
}

func TestDiscover_ReturnsError_When_RootMissing(t *testing.T) {
	t.Parallel()

	_, err := Discover(filepath.Join(t.TempDir(), "missing"))
	assert.Error(t, err)
}

func TestTreeRecords_ResolvesWithScanSemantics_When_ArtifactsVary(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	for _, d := range []string{"lab1/a", "lab1/b", "lab1/c"} {
		require.NoError(t, os.MkdirAll(filepath.Join(root, d), 0o755))
	}
	writeResult(t, filepath.Join(root, "lab1/a"), "pass")
	writeResult(t, filepath.Join(root, "lab1/b"), "nope")

	tree, err := Discover(root)
	require.NoError(t, err)
	recs := tree.Records(NewResolver(DefaultLayout()))

	require.Len(t, recs, 3)
	assert.Equal(t, Pass, recs[0].Verdict)
	assert.Equal(t, Fail, recs[1].Verdict)
	assert.Equal(t, Unset, recs[2].Verdict)
}

func TestVerdict_RoundTripsText_When_Marshalled(t *testing.T) {
	t.Parallel()

	for _, v := range []Verdict{Unset, Pass, Fail} {
		b, err := v.MarshalText()
		require.NoError(t, err)
		var got Verdict
		require.NoError(t, got.UnmarshalText(b))
		assert.Equal(t, v, got)
	}

	var v Verdict
	assert.Error(t, v.UnmarshalText([]byte("maybe")))
}

func TestLayoutWithDefaults_FillsOnlyEmptyNames_When_PartiallyConfigured(t *testing.T) {
	t.Parallel()

	assert.Equal(t, DefaultLayout(), Layout{}.WithDefaults())

	l := Layout{DesignDir: "rtl", WaveFile: "dump.vcd"}.WithDefaults()
	assert.Equal(t, "rtl", l.DesignDir)
	assert.Equal(t, "dump.vcd", l.WaveFile)
	assert.Equal(t, "sim_result", l.ResultDir)
	assert.Equal(t, filepath.Join("p", "rtl"), l.DesignPath("p"))
	assert.Equal(t, filepath.Join("p", "sim_result", "dump.vcd"), l.WavePath("p"))
}
