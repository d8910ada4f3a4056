package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/UNO-CSCI4830/project4-logbook/internal/config"
	"github.com/UNO-CSCI4830/project4-logbook/internal/engine"
	"github.com/UNO-CSCI4830/project4-logbook/internal/models"
)

func testConfig(redisAddr string) *config.Config {
	cfg := &config.Config{}
	cfg.DBEnabled = false
	cfg.SeedDevUser = true
	cfg.Redis.Enabled = redisAddr != ""
	cfg.Redis.Addr = redisAddr
	cfg.Alert.Cron = "0 9 * * *"
	cfg.Alert.Timezone = "UTC"
	cfg.Alert.LeadDays = 1
	cfg.Alert.NotifyTimeout = time.Second
	cfg.Alert.LockTTL = time.Minute
	cfg.Alert.LockKey = "logbook:sweep:lock"
	cfg.Events.Stream = "logbook:alerts:events"
	return cfg
}

func TestAlertService_InMemoryEndToEnd(t *testing.T) {
	mr := miniredis.RunT(t)
	ctx := context.Background()

	svc, err := NewAlertService(ctx, testConfig(mr.Addr()), zap.NewNop())
	require.NoError(t, err)
	defer svc.Stop()

	require.NoError(t, svc.Ping(ctx))

	yesterday := svc.Engine().Today().AddDays(-1)
	a, err := svc.Appliances().CreateAppliance(ctx, DevUser.OwnerID, ApplianceInput{
		Name:              "Water Heater",
		AlertDate:         &yesterday,
		RecurringInterval: "YEARLY",
	})
	require.NoError(t, err)

	report, err := svc.RunSweepOnce(ctx, nil, time.Minute)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Count(models.OutcomeNotified))

	got, err := svc.Appliances().GetAppliance(ctx, DevUser.OwnerID, a.ID)
	require.NoError(t, err)
	assert.Equal(t, yesterday.AddYearsClamped(1).String(), got.AlertDate.String())

	// 事件流：一条家电结果 + 一条汇总
	entries, err := mr.Stream("logbook:alerts:events")
	require.NoError(t, err)
	assert.Len(t, entries, 2)
	assert.False(t, mr.Exists("logbook:sweep:lock"))

	mfs, err := svc.Registry().Gather()
	require.NoError(t, err)
	assert.NotEmpty(t, mfs)
}

func TestAlertService_WithoutRedis(t *testing.T) {
	ctx := context.Background()
	svc, err := NewAlertService(ctx, testConfig(""), zap.NewNop())
	require.NoError(t, err)
	defer svc.Stop()

	report, err := svc.RunSweepOnce(ctx, nil, 0)
	require.NoError(t, err)
	assert.Equal(t, 0, report.Candidates)
}

func TestAlertService_RedisUnavailable(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	_, err := NewAlertService(context.Background(), testConfig(addr), zap.NewNop())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to ping redis")
}

func TestAlertService_SweepInProgressElsewhere(t *testing.T) {
	mr := miniredis.RunT(t)
	ctx := context.Background()

	svc, err := NewAlertService(ctx, testConfig(mr.Addr()), zap.NewNop())
	require.NoError(t, err)
	defer svc.Stop()

	require.NoError(t, mr.Set("logbook:sweep:lock", "another-instance"))
	_, err = svc.RunSweepOnce(ctx, nil, 0)
	require.Error(t, err)
	assert.True(t, errors.Is(err, engine.ErrSweepInProgress))
}
