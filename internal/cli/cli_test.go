package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YuminosukeSato/mleprep/internal/registry"
	"github.com/YuminosukeSato/mleprep/pkg/errors"
	"github.com/YuminosukeSato/mleprep/pkg/log"
)

const trainCSV = `gender,race_ethnicity,parental_level_of_education,lunch,test_preparation_course,math_score,reading_score,writing_score
female,group B,bachelor's degree,standard,none,72,10,74
female,group C,some college,standard,completed,69,20,88
male,group B,master's degree,free/reduced,none,90,,93
male,,associate's degree,standard,none,47,40,44
,group C,some college,free/reduced,none,76,78,
`

const testCSV = `gender,race_ethnicity,parental_level_of_education,lunch,test_preparation_course,math_score,reading_score,writing_score
male,group C,bachelor's degree,standard,completed,71,,70
female,group B,some college,free/reduced,none,88,95,92
`

// setup runs each test in its own directory and restores the global logger.
func setup(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Chdir(dir)
	prev := log.GetProvider()
	t.Cleanup(func() { log.SetProvider(prev) })

	require.NoError(t, os.WriteFile(filepath.Join(dir, "train.csv"), []byte(trainCSV), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "test.csv"), []byte(testCSV), 0o644))
	return dir
}

func execute(t *testing.T, args ...string) (stdout, stderr string, err error) {
	t.Helper()
	var out, errOut bytes.Buffer
	cmd := NewRootCmd()
	cmd.SetArgs(args)
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	err = cmd.ExecuteContext(context.Background())
	return out.String(), errOut.String(), err
}

func TestTransformCommand(t *testing.T) {
	dir := setup(t)
	metricsFile := filepath.Join(dir, "metrics", "mleprep.prom")
	reportDir := filepath.Join(dir, "report")

	stdout, stderr, err := execute(t, "transform",
		"--train", "train.csv",
		"--test", "test.csv",
		"--artifact", "out/preprocessor.gob",
		"--metrics-file", metricsFile,
		"--report-dir", reportDir,
	)
	require.NoError(t, err)

	assert.Contains(t, stdout, "features: 14")
	assert.Contains(t, stdout, "out/preprocessor.gob")
	assert.Contains(t, stderr, "Saved preprocessing object")
	assert.FileExists(t, filepath.Join(dir, "out", "preprocessor.gob"))

	prom, err := os.ReadFile(metricsFile)
	require.NoError(t, err)
	assert.Contains(t, string(prom), `mleprep_rows{split="train"} 5`)
	assert.Contains(t, string(prom), "mleprep_features 14")

	pngs, err := filepath.Glob(filepath.Join(reportDir, "*.png"))
	require.NoError(t, err)
	assert.NotEmpty(t, pngs)

	store, err := registry.Open(context.Background(), filepath.Join(dir, "artifact", "runs.db"))
	require.NoError(t, err)
	defer store.Close()
	runs, err := store.List(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, registry.StatusSucceeded, runs[0].Status)
	assert.Equal(t, 5, runs[0].TrainRows)
	assert.Equal(t, 2, runs[0].TestRows)
	assert.Equal(t, 14, runs[0].Features)
	assert.Len(t, runs[0].ArtifactSHA256, 64)
}

func TestTransformCommandRecordsFailure(t *testing.T) {
	dir := setup(t)
	metricsFile := filepath.Join(dir, "mleprep.prom")

	_, _, err := execute(t, "transform",
		"--train", "absent.csv",
		"--test", "test.csv",
		"--metrics-file", metricsFile,
		"--registry", "runs.db",
	)
	var te *errors.TransformationError
	require.True(t, errors.As(err, &te))
	assert.Equal(t, "load train data", te.Step)

	prom, err := os.ReadFile(metricsFile)
	require.NoError(t, err)
	assert.Contains(t, string(prom), `mleprep_failures_total{step="load train data"} 1`)

	stdout, _, err := execute(t, "runs", "--registry", "runs.db")
	require.NoError(t, err)
	assert.Contains(t, stdout, "failed")
	assert.Contains(t, stdout, "absent.csv")
}

func TestTransformCommandRequiresInputs(t *testing.T) {
	setup(t)
	_, _, err := execute(t, "transform", "--test", "test.csv")
	var valErr *errors.ValidationError
	require.True(t, errors.As(err, &valErr))
	assert.Equal(t, "train", valErr.ParamName)
}

func TestTransformCommandWithoutRegistry(t *testing.T) {
	dir := setup(t)
	_, _, err := execute(t, "transform", "--train", "train.csv", "--test", "test.csv", "--registry", "")
	require.NoError(t, err)
	assert.NoFileExists(t, filepath.Join(dir, "artifact", "runs.db"))
	assert.FileExists(t, filepath.Join(dir, "artifact", "preprocessor.gob"))
}

func TestInspectCommand(t *testing.T) {
	setup(t)
	_, _, err := execute(t, "transform", "--train", "train.csv", "--test", "test.csv")
	require.NoError(t, err)

	stdout, _, err := execute(t, "inspect")
	require.NoError(t, err)
	assert.Contains(t, stdout, "numerical_pipeline")
	assert.Contains(t, stdout, "categorical_pipeline")
	assert.Contains(t, stdout, "reading_score")
	// median of 10, 20, 40, 78
	assert.Contains(t, stdout, "30")
	assert.Contains(t, stdout, "free/reduced, standard")
	assert.Contains(t, stdout, "output features: 14")
}

func TestInspectCommandMissingArtifact(t *testing.T) {
	setup(t)
	_, _, err := execute(t, "inspect", "--artifact", "nope.gob")
	var te *errors.TransformationError
	require.True(t, errors.As(err, &te))
	assert.Equal(t, "load preprocessor", te.Step)
}

func TestRunsCommand(t *testing.T) {
	setup(t)
	for i := 0; i < 3; i++ {
		_, _, err := execute(t, "transform", "--train", "train.csv", "--test", "test.csv")
		require.NoError(t, err)
	}

	stdout, _, err := execute(t, "runs", "--limit", "2")
	require.NoError(t, err)
	assert.Equal(t, 2, strings.Count(stdout, string(registry.StatusSucceeded)))

	stdout, _, err = execute(t, "runs", "--registry", "empty.db")
	require.NoError(t, err)
	assert.Contains(t, stdout, "no runs recorded")
}

func TestConsoleLogFormat(t *testing.T) {
	setup(t)
	_, stderr, err := execute(t, "--log-format", "console", "transform", "--train", "train.csv", "--test", "test.csv")
	require.NoError(t, err)
	assert.Contains(t, stderr, "Saved preprocessing object")
	assert.False(t, strings.HasPrefix(strings.TrimSpace(stderr), "{"))
}

func TestInvalidLogLevel(t *testing.T) {
	setup(t)
	_, _, err := execute(t, "--log-level", "loud", "runs")
	var valErr *errors.ValidationError
	require.True(t, errors.As(err, &valErr))
	assert.Equal(t, "log_level", valErr.ParamName)
}

func TestVersionCommand(t *testing.T) {
	stdout, _, err := execute(t, "version")
	require.NoError(t, err)
	assert.Contains(t, stdout, "mleprep "+Version)
}
