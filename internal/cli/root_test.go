package cli

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/UNO-CSCI4830/project4-logbook/internal/models"
)

func TestRootCommand(t *testing.T) {
	cmd := NewRootCommand()
	require.NotNil(t, cmd)
	assert.Equal(t, "logbook-alert", cmd.Use)
}

func TestCommandPresence(t *testing.T) {
	cmd := NewRootCommand()
	for _, name := range []string{"serve", "sweep", "export"} {
		t.Run(name, func(t *testing.T) {
			sub, _, err := cmd.Find([]string{name})
			require.NoError(t, err)
			require.NotNil(t, sub)
			assert.Equal(t, name, sub.Name())
		})
	}
}

func TestFlags(t *testing.T) {
	cmd := NewRootCommand()

	format := cmd.PersistentFlags().Lookup("format")
	require.NotNil(t, format)
	assert.Equal(t, "text", format.DefValue)

	sweep, _, err := cmd.Find([]string{"sweep"})
	require.NoError(t, err)
	require.NotNil(t, sweep.Flags().Lookup("as-of"))
	timeout := sweep.Flags().Lookup("timeout")
	require.NotNil(t, timeout)
	assert.Equal(t, "5m0s", timeout.DefValue)

	exp, _, err := cmd.Find([]string{"export"})
	require.NoError(t, err)
	out := exp.Flags().Lookup("output")
	require.NotNil(t, out)
	assert.Equal(t, "o", out.Shorthand)

	serve, _, err := cmd.Find([]string{"serve"})
	require.NoError(t, err)
	require.NotNil(t, serve.Flags().Lookup("addr"))
	require.NotNil(t, serve.Flags().Lookup("no-scheduler"))
}

// memoryEnv 使用内存存储，不连接外部依赖
func memoryEnv(t *testing.T) {
	t.Helper()
	t.Setenv("LOGBOOK_ENV_FILE", filepath.Join(t.TempDir(), "missing.env"))
	t.Setenv("DB_ENABLED", "false")
	t.Setenv("REDIS_ENABLED", "false")
	t.Setenv("SMTP_ENABLED", "false")
	t.Setenv("WEBHOOK_ENABLED", "false")
	t.Setenv("MQTT_ENABLED", "false")
	t.Setenv("LOG_LEVEL", "error")
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestSweepCommand_JSON(t *testing.T) {
	memoryEnv(t)

	out, err := execute(t, "sweep", "--as-of", "2024-03-11", "--format", "json")
	require.NoError(t, err)

	var report models.SweepReport
	require.NoError(t, json.Unmarshal([]byte(out), &report), out)
	assert.Equal(t, "2024-03-11", report.AsOf.String())
	assert.Equal(t, "2024-03-10", report.SweepDate.String())
	assert.Equal(t, 0, report.Candidates)
	assert.Len(t, report.Counts, len(models.AllOutcomes))
}

func TestSweepCommand_Errors(t *testing.T) {
	memoryEnv(t)

	_, err := execute(t, "sweep", "--as-of", "03/11/2024")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--as-of")

	_, err = execute(t, "sweep", "--format", "yaml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid format")
}

func TestExportCommand(t *testing.T) {
	memoryEnv(t)
	path := filepath.Join(t.TempDir(), "out.xlsx")

	out, err := execute(t, "export", "--owner", "dev-user", "-o", path)
	require.NoError(t, err)
	assert.Contains(t, out, "exported 0 appliances")

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()
	rows, err := f.GetRows("Appliances")
	require.NoError(t, err)
	assert.Len(t, rows, 1)

	_, err = execute(t, "export")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "owner")
}

func TestPrintReport_Text(t *testing.T) {
	started := time.Date(2024, 3, 10, 9, 0, 0, 0, time.UTC)
	report := models.NewSweepReport(models.MustParseDate("2024-03-10"), models.MustParseDate("2024-03-11"), started)
	report.Candidates = 2
	next := models.MustParseDate("2024-04-10")
	report.Record(models.SweepEntry{ApplianceID: "a1", ApplianceName: "Fridge", Outcome: models.OutcomeNotified, NextAlertDate: &next})
	report.Record(models.SweepEntry{ApplianceID: "a2", ApplianceName: "Oven", Outcome: models.OutcomeNotifyFailed, Error: "smtp down"})
	report.FinishedAt = started.Add(1500 * time.Millisecond)

	var buf bytes.Buffer
	require.NoError(t, printReport(&buf, report, "text"))
	out := buf.String()

	assert.True(t, strings.HasPrefix(out, "sweep 2024-03-10 (as of 2024-03-11): 2 candidates in 1.5s\n"), out)
	assert.Contains(t, out, "notified")
	assert.Contains(t, out, "2024-04-10")
	assert.Contains(t, out, "smtp down")
	for _, o := range models.AllOutcomes {
		assert.Contains(t, out, string(o))
	}
}
