package repository

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/UNO-CSCI4830/project4-logbook/internal/models"
)

func seedMemory(t *testing.T, repo *MemoryApplianceRepo, apps ...*models.Appliance) {
	t.Helper()
	for _, a := range apps {
		_, err := repo.Save(context.Background(), a)
		require.NoError(t, err)
	}
}

func TestMemoryFindDueBefore(t *testing.T) {
	repo := NewMemoryApplianceRepo()
	d := func(s string) *models.Date { return models.DatePtr(models.MustParseDate(s)) }

	seedMemory(t, repo,
		&models.Appliance{ID: "b", OwnerID: "o", Name: "B", AlertDate: d("2024-03-10")},
		&models.Appliance{ID: "a", OwnerID: "o", Name: "A", AlertDate: d("2024-03-10")},
		&models.Appliance{ID: "c", OwnerID: "o", Name: "C", AlertDate: d("2024-03-01")},
		&models.Appliance{ID: "today", OwnerID: "o", Name: "T", AlertDate: d("2024-03-11")},
		&models.Appliance{ID: "none", OwnerID: "o", Name: "N"},
		&models.Appliance{ID: "fired", OwnerID: "o", Name: "F", AlertDate: d("2024-03-05"), FiredFor: d("2024-03-05")},
	)

	due, err := repo.FindDueBefore(context.Background(), models.MustParseDate("2024-03-11"))
	require.NoError(t, err)

	ids := make([]string, 0, len(due))
	for _, a := range due {
		ids = append(ids, a.ID)
	}
	assert.Equal(t, []string{"c", "a", "b"}, ids)
}

func TestMemorySave_ClonesAndKeepsCreatedAt(t *testing.T) {
	repo := NewMemoryApplianceRepo()
	ctx := context.Background()

	a := &models.Appliance{ID: "a", OwnerID: "o", Name: "Furnace"}
	first, err := repo.Save(ctx, a)
	require.NoError(t, err)
	assert.Equal(t, models.RecurringNone, first.RecurringInterval)

	a.Name = "mutated after save"
	got, err := repo.FindByOwnerAndID(ctx, "o", "a")
	require.NoError(t, err)
	assert.Equal(t, "Furnace", got.Name)

	got.Name = "Boiler"
	second, err := repo.Save(ctx, got)
	require.NoError(t, err)
	assert.Equal(t, first.CreatedAt, second.CreatedAt)
	assert.Equal(t, "Boiler", second.Name)
}

func TestMemoryOwnerScoping(t *testing.T) {
	repo := NewMemoryApplianceRepo()
	ctx := context.Background()
	seedMemory(t, repo, &models.Appliance{ID: "a", OwnerID: "o1", Name: "Furnace"})

	_, err := repo.FindByOwnerAndID(ctx, "o2", "a")
	assert.True(t, errors.Is(err, models.ErrNotFound))

	_, err = repo.Save(ctx, &models.Appliance{ID: "a", OwnerID: "o2", Name: "Hijack"})
	assert.True(t, errors.Is(err, models.ErrNotFound))

	assert.True(t, errors.Is(repo.Delete(ctx, "o2", "a"), models.ErrNotFound))
	require.NoError(t, repo.Delete(ctx, "o1", "a"))
	assert.True(t, errors.Is(repo.Delete(ctx, "o1", "a"), models.ErrNotFound))
}

func TestMemoryListUpcoming(t *testing.T) {
	repo := NewMemoryApplianceRepo()
	d := func(s string) *models.Date { return models.DatePtr(models.MustParseDate(s)) }

	seedMemory(t, repo,
		&models.Appliance{ID: "1", OwnerID: "o", Name: "Dryer", AlertDate: d("2024-03-20")},
		&models.Appliance{ID: "2", OwnerID: "o", Name: "Washer", AlertDate: d("2024-03-05")},
		&models.Appliance{ID: "3", OwnerID: "o", Name: "Oven", AlertDate: d("2024-03-06"), Alert: models.Cancelled()},
		&models.Appliance{ID: "4", OwnerID: "o", Name: "Late", AlertDate: d("2024-04-20")},
		&models.Appliance{ID: "5", OwnerID: "other", Name: "Theirs", AlertDate: d("2024-03-07")},
	)

	list, err := repo.ListUpcoming(context.Background(), "o",
		models.MustParseDate("2024-03-01"), models.MustParseDate("2024-03-31"))
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "Washer", list[0].Name)
	assert.Equal(t, "Dryer", list[1].Name)
}

func TestMemoryUserRepo(t *testing.T) {
	repo := NewMemoryUserRepo()
	ctx := context.Background()

	_, err := repo.FindByID(ctx, "o")
	assert.True(t, errors.Is(err, models.ErrNotFound))

	require.NoError(t, repo.Upsert(ctx, &models.OwnerContact{OwnerID: "o", Name: "Dana", Email: "dana@example.com"}))
	u, err := repo.FindByID(ctx, "o")
	require.NoError(t, err)
	assert.Equal(t, "dana@example.com", u.Email)

	assert.Error(t, repo.Upsert(ctx, &models.OwnerContact{OwnerID: "o"}))
}
