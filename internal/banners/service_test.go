package banners

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/quickcart/quickcart-backend/pkg/db/models"
	pkgerrors "github.com/quickcart/quickcart-backend/pkg/errors"
)

func newTestService(t *testing.T) Service {
	t.Helper()
	dsn := "file:banners_" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{SkipDefaultTransaction: true})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.Banner{}))

	svc, err := NewService(ServiceParams{Repo: NewRepository(db)})
	require.NoError(t, err)
	return svc
}

func TestListLiveFiltersWindowAndOrder(t *testing.T) {
	svc := newTestService(t)
	now := time.Now()
	past := now.Add(-48 * time.Hour)
	future := now.Add(48 * time.Hour)

	_, err := svc.Create(context.Background(), UpsertInput{
		Title: "Evergreen", ImageURL: "https://cdn.example.com/a.png", DisplayOrder: 2,
	})
	require.NoError(t, err)
	_, err = svc.Create(context.Background(), UpsertInput{
		Title: "Running", ImageURL: "https://cdn.example.com/b.png", DisplayOrder: 1,
		StartsAt: &past, EndsAt: &future,
	})
	require.NoError(t, err)
	_, err = svc.Create(context.Background(), UpsertInput{
		Title: "Upcoming", ImageURL: "https://cdn.example.com/c.png",
		StartsAt: &future,
	})
	require.NoError(t, err)
	expired := past.Add(time.Hour)
	_, err = svc.Create(context.Background(), UpsertInput{
		Title: "Expired", ImageURL: "https://cdn.example.com/d.png",
		EndsAt: &expired,
	})
	require.NoError(t, err)

	live, err := svc.ListLive(context.Background())
	require.NoError(t, err)
	require.Len(t, live, 2)
	require.Equal(t, "Running", live[0].Title)
	require.Equal(t, "Evergreen", live[1].Title)
}

func TestCreateRejectsInvertedWindow(t *testing.T) {
	svc := newTestService(t)
	now := time.Now()
	earlier := now.Add(-time.Hour)

	_, err := svc.Create(context.Background(), UpsertInput{
		Title: "Broken", ImageURL: "https://cdn.example.com/x.png",
		StartsAt: &now, EndsAt: &earlier,
	})
	require.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())
}

func TestUpdateAndDelete(t *testing.T) {
	svc := newTestService(t)
	created, err := svc.Create(context.Background(), UpsertInput{
		Title: "Sale", ImageURL: "https://cdn.example.com/sale.png",
	})
	require.NoError(t, err)

	inactive := false
	updated, err := svc.Update(context.Background(), created.ID, UpsertInput{
		Title: "Mega Sale", ImageURL: created.ImageURL, IsActive: &inactive,
	})
	require.NoError(t, err)
	require.Equal(t, "Mega Sale", updated.Title)
	require.False(t, updated.IsActive)

	live, err := svc.ListLive(context.Background())
	require.NoError(t, err)
	require.Empty(t, live)

	require.NoError(t, svc.Delete(context.Background(), created.ID))
	err = svc.Delete(context.Background(), created.ID)
	require.Equal(t, pkgerrors.CodeNotFound, pkgerrors.As(err).Code())
}
