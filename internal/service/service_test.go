package service_test

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/zvitops/updmon/internal/model"
	"github.com/zvitops/updmon/internal/service"

	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/charmap"
)

const plannerLog = "23.10.2025 10:30:15 Заплановано оновлення: ezvit.11.02.185-11.02.186.upd\n"

const updateLogOK = `23.10.25 10:31:02.437 Початок оновлення програми
23.10.25 10:35:40.010 Встановлено версію 11.02.186
23.10.25 10:35:44.900 Операцію "Оновлення програми" завершено
`

func logsDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	for name, text := range map[string]string{
		"Planner.log":           plannerLog,
		"update_2025-10-23.log": updateLogOK,
	} {
		raw, err := charmap.Windows1251.NewEncoder().Bytes([]byte(text))
		require.NoError(t, err)
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), raw, 0o644))
	}
	return dir
}

func supervisorConfig(dir, state string, notify *model.Notify) model.Config {
	cfg := model.Config{
		Logs:    model.Logs{Dir: dir},
		Service: model.Service{Mode: model.ServiceModeManual},
	}
	if state != "" {
		cfg.Service.State = &state
	}
	cfg.Service.Notify = notify
	return cfg
}

func TestNewSupervisorErrors(t *testing.T) {
	var testCases = []struct {
		scenario string
		cfg      model.Config
	}{
		{
			scenario: "empty logs dir",
			cfg:      supervisorConfig("", "", nil),
		},
		{
			scenario: "unknown encoding",
			cfg: func() model.Config {
				enc := "no-such-codepage"
				cfg := supervisorConfig(t.TempDir(), "", nil)
				cfg.Logs.Encoding = &enc
				return cfg
			}(),
		},
		{
			scenario: "invalid webhook url",
			cfg: supervisorConfig(t.TempDir(), "", &model.Notify{
				URLs: []string{"not-an-url"},
			}),
		},
		{
			scenario: "timer mode without schedule",
			cfg: func() model.Config {
				cfg := supervisorConfig(t.TempDir(), "", nil)
				cfg.Service.Mode = model.ServiceModeTimer
				return cfg
			}(),
		},
		{
			scenario: "timer mode with invalid schedule",
			cfg: func() model.Config {
				cfg := supervisorConfig(t.TempDir(), "", nil)
				cfg.Service.Mode = model.ServiceModeTimer
				schedule := "every day at noon"
				cfg.Service.Schedule = &schedule
				return cfg
			}(),
		},
	}

	for _, tc := range testCases {
		t.Run(tc.scenario, func(t *testing.T) {
			_, err := service.NewSupervisor(t.Context(), tc.cfg)
			require.Error(t, err)
		})
	}
}

func TestSupervisorTick(t *testing.T) {
	var notified atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		notified.Add(1)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	state := filepath.Join(t.TempDir(), "state.db")
	cfg := supervisorConfig(logsDir(t), state, &model.Notify{URLs: []string{srv.URL}})

	sup, err := service.NewSupervisor(t.Context(), cfg)
	require.NoError(t, err)
	defer sup.Close(t.Context())
	require.True(t, sup.Oneshot())

	outcome, err := sup.Tick(t.Context())
	require.NoError(t, err)
	require.Equal(t, model.StatusSuccess, outcome.Status)
	require.EqualValues(t, 1, notified.Load())

	// the stored checkpoint now covers the trigger: the next tick is
	// a NoUpdate and stays quiet
	outcome, err = sup.Tick(t.Context())
	require.NoError(t, err)
	require.Equal(t, model.StatusNoUpdate, outcome.Status)
	require.EqualValues(t, 1, notified.Load())
}

func TestSupervisorQuietOnSuccess(t *testing.T) {
	var notified atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		notified.Add(1)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	onSuccess := false
	cfg := supervisorConfig(logsDir(t), "", &model.Notify{
		URLs:      []string{srv.URL},
		OnSuccess: &onSuccess,
	})

	sup, err := service.NewSupervisor(t.Context(), cfg)
	require.NoError(t, err)
	defer sup.Close(t.Context())

	outcome, err := sup.Tick(t.Context())
	require.NoError(t, err)
	require.Equal(t, model.StatusSuccess, outcome.Status)
	require.EqualValues(t, 0, notified.Load())
}

func TestSupervisorNotifiesOnFailure(t *testing.T) {
	var notified atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		notified.Add(1)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	// planner log only: the dated update log is missing
	dir := t.TempDir()
	raw, err := charmap.Windows1251.NewEncoder().Bytes([]byte(plannerLog))
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "Planner.log"), raw, 0o644))

	onSuccess := false
	cfg := supervisorConfig(dir, "", &model.Notify{
		URLs:      []string{srv.URL},
		OnSuccess: &onSuccess,
	})

	sup, err := service.NewSupervisor(t.Context(), cfg)
	require.NoError(t, err)
	defer sup.Close(t.Context())

	outcome, err := sup.Tick(t.Context())
	require.NoError(t, err)
	require.Equal(t, model.StatusFailed, outcome.Status)
	require.Equal(t, model.ErrIDUpdateLogMissing, outcome.ErrorID)
	require.EqualValues(t, 1, notified.Load())
}

func TestParseCron(t *testing.T) {
	var testCases = []struct {
		scenario string
		expr     string
		ok       bool
	}{
		{scenario: "five fields", expr: "*/15 * * * *", ok: true},
		{scenario: "hourly macro", expr: "@hourly", ok: true},
		{scenario: "every duration", expr: "@every 15m", ok: true},
		{scenario: "empty", expr: "", ok: false},
		{scenario: "six fields", expr: "0 */15 * * * *", ok: false},
		{scenario: "words", expr: "every day at noon", ok: false},
	}

	for _, tc := range testCases {
		t.Run(tc.scenario, func(t *testing.T) {
			err := service.ParseCron(tc.expr)
			if tc.ok {
				require.NoError(t, err)
			} else {
				require.Error(t, err)
			}
		})
	}
}
