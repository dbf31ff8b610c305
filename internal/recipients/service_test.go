package recipients

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	pkgerrors "github.com/ktrudeau/giftnest-backend/pkg/errors"
	"github.com/ktrudeau/giftnest-backend/pkg/types"
)

func setupRecipientsTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)

	ddl := `
CREATE TABLE IF NOT EXISTS recipients (
  id TEXT PRIMARY KEY,
  user_id TEXT NOT NULL,
  name TEXT NOT NULL,
  relationship TEXT,
  interests TEXT,
  address TEXT,
  notes TEXT,
  created_at DATETIME,
  updated_at DATETIME
);`
	require.NoError(t, db.Exec(ddl).Error)
	return db
}

func newTestService(t *testing.T) (Service, *gorm.DB) {
	t.Helper()
	db := setupRecipientsTestDB(t)
	svc, err := NewService(ServiceParams{RecipientRepo: NewRepository(db)})
	require.NoError(t, err)
	return svc, db
}

func TestServiceCreateValidatesAddress(t *testing.T) {
	svc, _ := newTestService(t)
	userID := uuid.New()

	created, err := svc.Create(context.Background(), userID, CreateRecipientInput{
		Name:         "Dana",
		Relationship: "sister",
		Interests:    []string{"chess", "hiking"},
		Address: &types.Address{
			Line1:      "1 Main St",
			City:       "Dayton",
			State:      "oh",
			PostalCode: "45402",
		},
	})
	require.NoError(t, err)
	require.NotNil(t, created.Address)
	assert.Equal(t, "OH", created.Address.State)
	assert.Equal(t, "US", created.Address.Country)

	_, err = svc.Create(context.Background(), userID, CreateRecipientInput{
		Name:    "Bad Address",
		Address: &types.Address{Line1: "1 Main St"},
	})
	require.Error(t, err)
	coded := pkgerrors.As(err)
	require.NotNil(t, coded)
	assert.Equal(t, pkgerrors.CodeValidation, coded.Code())
}

func TestServiceCreateAllowsMissingAddress(t *testing.T) {
	svc, _ := newTestService(t)

	created, err := svc.Create(context.Background(), uuid.New(), CreateRecipientInput{Name: "Sam"})
	require.NoError(t, err)
	assert.Nil(t, created.Address)
}

func TestServiceOwnership(t *testing.T) {
	svc, _ := newTestService(t)
	owner := uuid.New()

	created, err := svc.Create(context.Background(), owner, CreateRecipientInput{Name: "Dana"})
	require.NoError(t, err)

	_, err = svc.Get(context.Background(), uuid.New(), created.ID)
	require.Error(t, err)
	coded := pkgerrors.As(err)
	require.NotNil(t, coded)
	assert.Equal(t, pkgerrors.CodeForbidden, coded.Code())

	got, err := svc.Get(context.Background(), owner, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Dana", got.Name)
}

func TestServiceUpdate(t *testing.T) {
	svc, _ := newTestService(t)
	owner := uuid.New()

	created, err := svc.Create(context.Background(), owner, CreateRecipientInput{Name: "Dana"})
	require.NoError(t, err)

	newName := "Dana K"
	updated, err := svc.Update(context.Background(), owner, created.ID, UpdateRecipientInput{
		Name:      &newName,
		Interests: []string{"sailing"},
	})
	require.NoError(t, err)
	assert.Equal(t, "Dana K", updated.Name)
	assert.Equal(t, []string{"sailing"}, updated.Interests)

	blank := "  "
	_, err = svc.Update(context.Background(), owner, created.ID, UpdateRecipientInput{Name: &blank})
	require.Error(t, err)
}

func TestServiceListAndDelete(t *testing.T) {
	svc, _ := newTestService(t)
	owner := uuid.New()

	for _, name := range []string{"Alice", "Bob"} {
		_, err := svc.Create(context.Background(), owner, CreateRecipientInput{Name: name})
		require.NoError(t, err)
	}

	listed, err := svc.List(context.Background(), owner)
	require.NoError(t, err)
	require.Len(t, listed, 2)
	assert.Equal(t, "Alice", listed[0].Name)

	require.NoError(t, svc.Delete(context.Background(), owner, listed[0].ID))

	listed, err = svc.List(context.Background(), owner)
	require.NoError(t, err)
	require.Len(t, listed, 1)
}
