package classify_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/zvitops/updmon/internal/classify"
	"github.com/zvitops/updmon/internal/model"

	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/charmap"
)

const plannerLog = "22.10.2025 03:00:00 перевірка завдань\n" +
	"23.10.2025 10:30:15 Заплановано оновлення: ezvit.11.02.185-11.02.186.upd\n"

const updateLogOK = `23.10.25 10:31:02.437 Початок оновлення програми
23.10.25 10:32:10.001 розпакування ezvit.11.02.185-11.02.186.upd
23.10.25 10:35:40.010 Встановлено версію 11.02.186
23.10.25 10:35:44.900 Операцію "Оновлення програми" завершено
`

const updateLogNoVersion = `23.10.25 10:31:02.437 Початок оновлення програми
23.10.25 10:32:10.001 розпакування ezvit.11.02.185-11.02.186.upd
23.10.25 10:35:44.900 Операцію "Оновлення програми" завершено
`

const updateLogNoCompletion = `23.10.25 10:31:02.437 Початок оновлення програми
23.10.25 10:35:40.010 Встановлено версію 11.02.186
`

func writeCP1251(t *testing.T, path, text string) {
	t.Helper()
	raw, err := charmap.Windows1251.NewEncoder().Bytes([]byte(text))
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, raw, 0o644))
}

func logsDir(t *testing.T, plannerText, updateText string) string {
	t.Helper()
	dir := t.TempDir()
	if plannerText != "" {
		writeCP1251(t, filepath.Join(dir, "Planner.log"), plannerText)
	}
	if updateText != "" {
		writeCP1251(t, filepath.Join(dir, "update_2025-10-23.log"), updateText)
	}
	return dir
}

func TestNew(t *testing.T) {
	t.Parallel()

	_, err := classify.New("", "windows-1251", time.Time{})
	require.Error(t, err, "empty dir is a configuration error")

	_, err = classify.New(t.TempDir(), "no-such-codepage", time.Time{})
	require.Error(t, err, "unknown encoding fails before any I/O")

	c, err := classify.New(t.TempDir(), "", time.Time{})
	require.NoError(t, err, "empty encoding selects the default codepage")
	require.NotNil(t, c)
}

func TestClassifySuccess(t *testing.T) {
	t.Parallel()

	dir := logsDir(t, plannerLog, updateLogOK)
	c, err := classify.New(dir, "windows-1251", time.Time{})
	require.NoError(t, err)

	outcome := c.Classify(t.Context())
	require.Equal(t, model.StatusSuccess, outcome.Status)
	require.Equal(t, model.ErrIDSuccess, outcome.ErrorID)
	require.True(t, outcome.Success)
	require.Equal(t, "11.02.185", outcome.FromVersion)
	require.Equal(t, "11.02.186", outcome.ToVersion)
	require.Equal(t, "11.02.186", outcome.TargetVersion)
	require.True(t, outcome.OperationFound)
	require.True(t, outcome.MarkerVersionConfirm)
	require.True(t, outcome.MarkerCompletionMarker)
	require.Equal(t, time.Date(2025, 10, 23, 10, 30, 15, 0, time.UTC), outcome.TriggerTime)
	require.Equal(t, filepath.Join(dir, "update_2025-10-23.log"), outcome.UpdateLogPath)

	// timestamps aggregated over the operation block only
	require.Equal(t, time.Date(2025, 10, 23, 10, 32, 10, 0, time.UTC), outcome.UpdateStartTime)
	require.Equal(t, time.Date(2025, 10, 23, 10, 35, 44, 0, time.UTC), outcome.UpdateEndTime)
	require.False(t, outcome.UpdateEndTime.Before(outcome.UpdateStartTime))
	require.NotNil(t, outcome.DurationSeconds)
	require.Equal(t, int64(214), *outcome.DurationSeconds)
}

func TestClassifyIdempotent(t *testing.T) {
	t.Parallel()

	dir := logsDir(t, plannerLog, updateLogOK)
	c, err := classify.New(dir, "windows-1251", time.Time{})
	require.NoError(t, err)

	first := c.Classify(t.Context())
	second := c.Classify(t.Context())
	require.Equal(t, first, second)
}

func TestClassifyMissingVersionMarker(t *testing.T) {
	t.Parallel()

	dir := logsDir(t, plannerLog, updateLogNoVersion)
	c, err := classify.New(dir, "windows-1251", time.Time{})
	require.NoError(t, err)

	outcome := c.Classify(t.Context())
	require.Equal(t, model.StatusFailed, outcome.Status)
	require.Equal(t, model.ErrIDUpdateValidationFailed, outcome.ErrorID)
	require.False(t, outcome.Success)
	require.True(t, outcome.OperationFound)
	require.False(t, outcome.MarkerVersionConfirm)
	require.True(t, outcome.MarkerCompletionMarker)
}

func TestClassifyMissingCompletionMarker(t *testing.T) {
	t.Parallel()

	dir := logsDir(t, plannerLog, updateLogNoCompletion)
	c, err := classify.New(dir, "windows-1251", time.Time{})
	require.NoError(t, err)

	outcome := c.Classify(t.Context())
	require.Equal(t, model.StatusFailed, outcome.Status)
	require.Equal(t, model.ErrIDUpdateValidationFailed, outcome.ErrorID)
	require.False(t, outcome.OperationFound, "no completion marker means no operation block")
	require.False(t, outcome.MarkerVersionConfirm)
	require.False(t, outcome.MarkerCompletionMarker)
}

func TestClassifyNoTrigger(t *testing.T) {
	t.Parallel()

	dir := logsDir(t, "22.10.2025 03:00:00 перевірка завдань\n", "")
	c, err := classify.New(dir, "windows-1251", time.Time{})
	require.NoError(t, err)

	outcome := c.Classify(t.Context())
	require.Equal(t, model.StatusNoUpdate, outcome.Status)
	require.Equal(t, model.ErrIDNoUpdate, outcome.ErrorID)
	require.Empty(t, outcome.FromVersion)
	require.Empty(t, outcome.ToVersion)
	require.True(t, outcome.TriggerTime.IsZero())
	require.Empty(t, outcome.UpdateLogPath, "no update log was consulted")
}

func TestClassifyCheckpoint(t *testing.T) {
	t.Parallel()

	var testCases = []struct {
		scenario   string
		checkpoint time.Time
		want       model.Status
	}{
		{
			scenario:   "checkpoint equal to trigger",
			checkpoint: time.Date(2025, 10, 23, 10, 30, 15, 0, time.UTC),
			want:       model.StatusNoUpdate,
		},
		{
			scenario:   "checkpoint after trigger",
			checkpoint: time.Date(2025, 10, 24, 0, 0, 0, 0, time.UTC),
			want:       model.StatusNoUpdate,
		},
		{
			scenario:   "checkpoint before trigger",
			checkpoint: time.Date(2025, 10, 22, 0, 0, 0, 0, time.UTC),
			want:       model.StatusSuccess,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.scenario, func(t *testing.T) {
			t.Parallel()
			dir := logsDir(t, plannerLog, updateLogOK)
			c, err := classify.New(dir, "windows-1251", tc.checkpoint)
			require.NoError(t, err)

			outcome := c.Classify(t.Context())
			require.Equal(t, tc.want, outcome.Status)
			if tc.want == model.StatusNoUpdate {
				// version fields still come from the trigger token
				require.Equal(t, "11.02.186", outcome.TargetVersion)
				require.Empty(t, outcome.UpdateLogPath)
			}
		})
	}
}

func TestClassifyMissingPlannerLog(t *testing.T) {
	t.Parallel()

	c, err := classify.New(t.TempDir(), "windows-1251", time.Time{})
	require.NoError(t, err)

	outcome := c.Classify(t.Context())
	require.Equal(t, model.StatusError, outcome.Status)
	require.Equal(t, model.ErrIDPlannerLogMissing, outcome.ErrorID)
}

func TestClassifyMissingDir(t *testing.T) {
	t.Parallel()

	c, err := classify.New(filepath.Join(t.TempDir(), "gone"), "windows-1251", time.Time{})
	require.NoError(t, err)

	outcome := c.Classify(t.Context())
	require.Equal(t, model.StatusError, outcome.Status)
	require.Equal(t, model.ErrIDLogsDirectoryMissing, outcome.ErrorID)
}

func TestClassifyUnreadablePlannerLog(t *testing.T) {
	t.Parallel()

	// a directory named like the log file: the open succeeds but the
	// read fails with something other than fs.ErrNotExist
	dir := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(dir, "Planner.log"), 0o755))

	c, err := classify.New(dir, "windows-1251", time.Time{})
	require.NoError(t, err)

	outcome := c.Classify(t.Context())
	require.Equal(t, model.StatusError, outcome.Status)
	require.Equal(t, model.ErrIDEncodingError, outcome.ErrorID)
	require.False(t, outcome.Success)
}

func TestClassifyUnreadableUpdateLog(t *testing.T) {
	t.Parallel()

	dir := logsDir(t, plannerLog, "")
	require.NoError(t, os.Mkdir(filepath.Join(dir, "update_2025-10-23.log"), 0o755))

	c, err := classify.New(dir, "windows-1251", time.Time{})
	require.NoError(t, err)

	outcome := c.Classify(t.Context())
	require.Equal(t, model.StatusError, outcome.Status)
	require.Equal(t, model.ErrIDEncodingError, outcome.ErrorID)
	require.Equal(t, "11.02.186", outcome.TargetVersion, "trigger was parsed before the read failed")
	require.Equal(t, filepath.Join(dir, "update_2025-10-23.log"), outcome.UpdateLogPath)
}

func TestClassifyMissingUpdateLog(t *testing.T) {
	t.Parallel()

	dir := logsDir(t, plannerLog, "")
	c, err := classify.New(dir, "windows-1251", time.Time{})
	require.NoError(t, err)

	outcome := c.Classify(t.Context())
	require.Equal(t, model.StatusFailed, outcome.Status)
	require.Equal(t, model.ErrIDUpdateLogMissing, outcome.ErrorID)
	require.Equal(t, "11.02.186", outcome.TargetVersion)
	require.NotEmpty(t, outcome.UpdateLogPath)
}
