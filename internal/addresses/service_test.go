package addresses

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/quickcart/quickcart-backend/pkg/db/models"
	pkgerrors "github.com/quickcart/quickcart-backend/pkg/errors"
)

const testUserID int64 = 31

func newTestService(t *testing.T) (Service, *gorm.DB) {
	t.Helper()
	dsn := "file:addresses_" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{SkipDefaultTransaction: true})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.UserAddress{}))

	svc, err := NewService(ServiceParams{Repo: NewRepository(db)})
	require.NoError(t, err)
	return svc, db
}

func homeInput() CreateInput {
	return CreateInput{
		Line1:   "14 MG Road",
		City:    "Bengaluru",
		State:   "Karnataka",
		Pincode: "560001",
	}
}

func TestCreateFirstAddressBecomesDefault(t *testing.T) {
	svc, _ := newTestService(t)

	first, err := svc.Create(context.Background(), testUserID, homeInput())
	require.NoError(t, err)
	require.True(t, first.IsDefault)
	require.Equal(t, "home", first.Type)

	second := homeInput()
	second.Type = "work"
	second.Line1 = "5 Residency Road"
	created, err := svc.Create(context.Background(), testUserID, second)
	require.NoError(t, err)
	require.False(t, created.IsDefault)
}

func TestCreateDefaultClearsPreviousDefault(t *testing.T) {
	svc, _ := newTestService(t)

	first, err := svc.Create(context.Background(), testUserID, homeInput())
	require.NoError(t, err)

	second := homeInput()
	second.Line1 = "5 Residency Road"
	second.IsDefault = true
	created, err := svc.Create(context.Background(), testUserID, second)
	require.NoError(t, err)
	require.True(t, created.IsDefault)

	rows, err := svc.List(context.Background(), testUserID)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	require.Equal(t, created.ID, rows[0].ID)
	require.True(t, rows[0].IsDefault)
	require.Equal(t, first.ID, rows[1].ID)
	require.False(t, rows[1].IsDefault)
}

func TestUpdatePromotesDefault(t *testing.T) {
	svc, _ := newTestService(t)

	first, err := svc.Create(context.Background(), testUserID, homeInput())
	require.NoError(t, err)
	second := homeInput()
	second.Line1 = "5 Residency Road"
	other, err := svc.Create(context.Background(), testUserID, second)
	require.NoError(t, err)

	makeDefault := true
	updated, err := svc.Update(context.Background(), testUserID, other.ID, UpdateInput{IsDefault: &makeDefault})
	require.NoError(t, err)
	require.True(t, updated.IsDefault)

	former, err := svc.List(context.Background(), testUserID)
	require.NoError(t, err)
	for _, row := range former {
		if row.ID == first.ID {
			require.False(t, row.IsDefault)
		}
	}
}

func TestUpdateRejectsEmptyFieldAndNoFields(t *testing.T) {
	svc, _ := newTestService(t)
	created, err := svc.Create(context.Background(), testUserID, homeInput())
	require.NoError(t, err)

	blank := "   "
	_, err = svc.Update(context.Background(), testUserID, created.ID, UpdateInput{City: &blank})
	require.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())

	_, err = svc.Update(context.Background(), testUserID, created.ID, UpdateInput{})
	require.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())
}

func TestUpdateScopedToOwner(t *testing.T) {
	svc, _ := newTestService(t)
	created, err := svc.Create(context.Background(), testUserID, homeInput())
	require.NoError(t, err)

	line := "9 Brigade Road"
	_, err = svc.Update(context.Background(), testUserID+1, created.ID, UpdateInput{Line1: &line})
	require.Equal(t, pkgerrors.CodeNotFound, pkgerrors.As(err).Code())
}

func TestDelete(t *testing.T) {
	svc, _ := newTestService(t)
	created, err := svc.Create(context.Background(), testUserID, homeInput())
	require.NoError(t, err)

	require.NoError(t, svc.Delete(context.Background(), testUserID, created.ID))
	rows, err := svc.List(context.Background(), testUserID)
	require.NoError(t, err)
	require.Empty(t, rows)

	err = svc.Delete(context.Background(), testUserID, created.ID)
	require.Equal(t, pkgerrors.CodeNotFound, pkgerrors.As(err).Code())
}
