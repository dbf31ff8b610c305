package localcache

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/ktrudeau/giftnest-backend/pkg/enums"
	"github.com/ktrudeau/giftnest-backend/pkg/logger"
	"github.com/ktrudeau/giftnest-backend/pkg/oracle"
)

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
}

func openTestStore(t *testing.T) (*Store, string, uuid.UUID) {
	t.Helper()
	dir := t.TempDir()
	userID := uuid.New()
	store, err := Open(context.Background(), dir, userID, testLogger())
	require.NoError(t, err)
	return store, dir, userID
}

func TestStorePutAndQuery(t *testing.T) {
	store, _, _ := openTestStore(t)

	recipientID := uuid.New()
	occasionID := uuid.New()

	record, err := store.Put(StoredGift{
		Name:        "Bluetooth Speaker",
		Price:       decimal.NewFromFloat(45.00),
		RecipientID: recipientID,
		OccasionID:  occasionID,
		Status:      enums.GiftStatusSelected,
	})
	require.NoError(t, err)
	require.NotEqual(t, uuid.Nil, record.ID)
	require.False(t, record.SelectedAt.IsZero())

	matches := store.QueryByRecipientOccasion(recipientID, occasionID)
	require.Len(t, matches, 1)
	require.Equal(t, "Bluetooth Speaker", matches[0].Name)
	require.True(t, matches[0].Price.Equal(decimal.NewFromFloat(45.00)))

	// Different occasion must not see the record.
	require.Empty(t, store.QueryByRecipientOccasion(recipientID, uuid.New()))
	require.Empty(t, store.QueryByRecipientOccasion(uuid.New(), occasionID))
}

func TestStorePersistFailureLeavesMemoryUnchanged(t *testing.T) {
	store, dir, userID := openTestStore(t)

	recipientID := uuid.New()
	occasionID := uuid.New()

	first, err := store.Put(StoredGift{
		Name:        "Bluetooth Speaker",
		Price:       decimal.NewFromFloat(45.00),
		RecipientID: recipientID,
		OccasionID:  occasionID,
	})
	require.NoError(t, err)

	// Point the store at an unwritable location so persist fails.
	goodPath := store.path
	store.path = filepath.Join(dir, "missing-subdir", "cache.json")

	_, err = store.Put(StoredGift{
		Name:        "Chess Set",
		Price:       decimal.NewFromInt(30),
		RecipientID: recipientID,
		OccasionID:  occasionID,
	})
	require.Error(t, err)

	// The failed record is not observable in memory.
	matches := store.QueryByRecipientOccasion(recipientID, occasionID)
	require.Len(t, matches, 1)
	require.Equal(t, "Bluetooth Speaker", matches[0].Name)

	// A failed remove keeps the record.
	require.Error(t, store.Remove(first.ID, enums.GiftBucketSelected))
	require.Len(t, store.QueryByRecipientOccasion(recipientID, occasionID), 1)

	// A failed remote-ref backfill keeps the record unreferenced.
	require.Error(t, store.SetRemoteRef(first.ID, uuid.New()))
	require.Nil(t, store.QueryByRecipientOccasion(recipientID, occasionID)[0].RemoteID)

	// A failed stash write leaves no recommendations behind.
	require.Error(t, store.PutRecentRecommendations(recipientID, occasionID, []oracle.Candidate{{Name: "Scarf", PriceCents: 2000}}))
	require.Empty(t, store.RecentRecommendations(recipientID, occasionID))

	// Disk agrees: reopening sees exactly the state before the failures.
	store.path = goodPath
	reopened, err := Open(context.Background(), dir, userID, testLogger())
	require.NoError(t, err)
	persisted := reopened.QueryByRecipientOccasion(recipientID, occasionID)
	require.Len(t, persisted, 1)
	require.Equal(t, first.ID, persisted[0].ID)
	require.Nil(t, persisted[0].RemoteID)
}

func TestStorePutUpsertsByID(t *testing.T) {
	store, _, _ := openTestStore(t)

	recipientID := uuid.New()
	occasionID := uuid.New()

	record, err := store.Put(StoredGift{
		Name:        "Chess Set",
		Price:       decimal.NewFromInt(30),
		RecipientID: recipientID,
		OccasionID:  occasionID,
	})
	require.NoError(t, err)
	originalSelectedAt := record.SelectedAt

	record.Description = "walnut board"
	updated, err := store.Put(record)
	require.NoError(t, err)
	require.Equal(t, record.ID, updated.ID)
	require.Equal(t, originalSelectedAt, updated.SelectedAt, "selection timestamp is immutable")

	matches := store.QueryByRecipientOccasion(recipientID, occasionID)
	require.Len(t, matches, 1)
	require.Equal(t, "walnut board", matches[0].Description)
}

func TestStoreToleratesDuplicateNames(t *testing.T) {
	store, _, _ := openTestStore(t)

	recipientID := uuid.New()
	occasionID := uuid.New()

	for range 2 {
		_, err := store.Put(StoredGift{
			Name:        "Candle",
			Price:       decimal.NewFromInt(12),
			RecipientID: recipientID,
			OccasionID:  occasionID,
		})
		require.NoError(t, err)
	}

	require.Len(t, store.QueryByRecipientOccasion(recipientID, occasionID), 2)
}

func TestStoreRemove(t *testing.T) {
	store, _, _ := openTestStore(t)

	recipientID := uuid.New()
	occasionID := uuid.New()

	record, err := store.Put(StoredGift{
		Name:        "Scarf",
		Price:       decimal.NewFromInt(20),
		RecipientID: recipientID,
		OccasionID:  occasionID,
	})
	require.NoError(t, err)

	require.NoError(t, store.Remove(record.ID, enums.GiftBucketSelected))
	require.Empty(t, store.QueryByRecipientOccasion(recipientID, occasionID))

	// Removing again is a no-op.
	require.NoError(t, store.Remove(record.ID, enums.GiftBucketSelected))
}

func TestStoreSurvivesRestart(t *testing.T) {
	dir := t.TempDir()
	userID := uuid.New()
	recipientID := uuid.New()
	occasionID := uuid.New()

	store, err := Open(context.Background(), dir, userID, testLogger())
	require.NoError(t, err)

	_, err = store.Put(StoredGift{
		Name:        "Bluetooth Speaker",
		Price:       decimal.NewFromInt(45),
		RecipientID: recipientID,
		OccasionID:  occasionID,
	})
	require.NoError(t, err)

	reopened, err := Open(context.Background(), dir, userID, testLogger())
	require.NoError(t, err)

	matches := reopened.QueryByRecipientOccasion(recipientID, occasionID)
	require.Len(t, matches, 1)
	require.Equal(t, "Bluetooth Speaker", matches[0].Name)
	require.True(t, matches[0].Price.Equal(decimal.NewFromInt(45)))
}

func TestStoreCorruptFileStartsFresh(t *testing.T) {
	dir := t.TempDir()
	userID := uuid.New()
	path := filepath.Join(dir, userID.String()+".json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	store, err := Open(context.Background(), dir, userID, testLogger())
	require.NoError(t, err)
	require.Empty(t, store.QueryByRecipientOccasion(uuid.New(), uuid.New()))

	// The store must still be writable after recovery.
	_, err = store.Put(StoredGift{
		Name:        "Mug",
		Price:       decimal.NewFromInt(8),
		RecipientID: uuid.New(),
		OccasionID:  uuid.New(),
	})
	require.NoError(t, err)
}

func TestStoreVersionMismatchStartsFresh(t *testing.T) {
	dir := t.TempDir()
	userID := uuid.New()
	path := filepath.Join(dir, userID.String()+".json")
	require.NoError(t, os.WriteFile(path, []byte(`{"version":99,"selectedGifts":[{"name":"old"}]}`), 0o644))

	store, err := Open(context.Background(), dir, userID, testLogger())
	require.NoError(t, err)
	require.Empty(t, store.QueryByRecipientOccasion(uuid.Nil, uuid.Nil))
}

func TestStoreSetRemoteRef(t *testing.T) {
	store, _, _ := openTestStore(t)

	record, err := store.Put(StoredGift{
		Name:        "Headphones",
		Price:       decimal.NewFromInt(90),
		RecipientID: uuid.New(),
		OccasionID:  uuid.New(),
	})
	require.NoError(t, err)

	remoteID := uuid.New()
	require.NoError(t, store.SetRemoteRef(record.ID, remoteID))

	matches := store.QueryByRecipientOccasion(record.RecipientID, record.OccasionID)
	require.Len(t, matches, 1)
	require.NotNil(t, matches[0].RemoteID)
	require.Equal(t, remoteID, *matches[0].RemoteID)

	// Unknown local ID is ignored.
	require.NoError(t, store.SetRemoteRef(uuid.New(), remoteID))
}

func TestStoreRecentRecommendations(t *testing.T) {
	store, _, _ := openTestStore(t)

	recipientID := uuid.New()
	occasionID := uuid.New()
	require.Nil(t, store.RecentRecommendations(recipientID, occasionID))

	candidates := []oracle.Candidate{{Name: "Puzzle", PriceCents: 1500, Confidence: 0.8}}
	require.NoError(t, store.PutRecentRecommendations(recipientID, occasionID, candidates))

	got := store.RecentRecommendations(recipientID, occasionID)
	require.Len(t, got, 1)
	require.Equal(t, "Puzzle", got[0].Name)

	require.Nil(t, store.RecentRecommendations(recipientID, uuid.New()))
}

func TestStoreSavedBucketIsSeparate(t *testing.T) {
	store, _, _ := openTestStore(t)

	recipientID := uuid.New()
	occasionID := uuid.New()

	saved, err := store.Put(StoredGift{
		Name:        "Book",
		Price:       decimal.NewFromInt(18),
		RecipientID: recipientID,
		OccasionID:  occasionID,
		Status:      enums.GiftStatusSavedForLater,
	})
	require.NoError(t, err)

	// Saved-for-later records never show up in the selected query.
	require.Empty(t, store.QueryByRecipientOccasion(recipientID, occasionID))

	require.NoError(t, store.Remove(saved.ID, enums.GiftBucketSavedForLater))
}
