package localcache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ktrudeau/giftnest-backend/pkg/enums"
	"github.com/ktrudeau/giftnest-backend/pkg/logger"
	"github.com/ktrudeau/giftnest-backend/pkg/oracle"
)

// Store is a file-backed selection cache for a single user. Reads and writes
// go through an in-memory copy; every mutation persists the whole state
// before returning. Corrupt or unreadable files are replaced with a fresh
// empty state, never surfaced as errors.
type Store struct {
	mu    sync.RWMutex
	path  string
	state state
	log   *logger.Logger
	now   func() time.Time
}

// Open loads (or initializes) the cache file for the given user under dir.
func Open(ctx context.Context, dir string, userID uuid.UUID, log *logger.Logger) (*Store, error) {
	trimmed := strings.TrimSpace(dir)
	if trimmed == "" {
		return nil, fmt.Errorf("local cache dir is required")
	}
	if userID == uuid.Nil {
		return nil, fmt.Errorf("user id is required")
	}
	if log == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if err := os.MkdirAll(trimmed, 0o755); err != nil {
		return nil, fmt.Errorf("creating local cache dir: %w", err)
	}

	s := &Store{
		path: filepath.Join(trimmed, userID.String()+".json"),
		log:  log,
		now:  time.Now,
	}
	s.state = s.load(ctx)
	return s, nil
}

// OpenShared opens a store backed by a fixed file name instead of a
// per-user one. Entries are still scoped by the recipient and occasion
// IDs callers key with, so it suits caches shared across users such as
// the recent-recommendations stash.
func OpenShared(ctx context.Context, dir, name string, log *logger.Logger) (*Store, error) {
	trimmed := strings.TrimSpace(dir)
	if trimmed == "" {
		return nil, fmt.Errorf("local cache dir is required")
	}
	if strings.TrimSpace(name) == "" {
		return nil, fmt.Errorf("store name is required")
	}
	if log == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if err := os.MkdirAll(trimmed, 0o755); err != nil {
		return nil, fmt.Errorf("creating local cache dir: %w", err)
	}

	s := &Store{
		path: filepath.Join(trimmed, name+".json"),
		log:  log,
		now:  time.Now,
	}
	s.state = s.load(ctx)
	return s, nil
}

func (s *Store) load(ctx context.Context) state {
	ctx = s.log.WithField(ctx, "path", s.path)

	data, err := os.ReadFile(s.path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			s.log.Warn(ctx, "local cache unreadable, starting fresh")
		}
		return emptyState()
	}

	var snapshot state
	if err := json.Unmarshal(data, &snapshot); err != nil {
		s.log.Warn(s.log.WithField(ctx, "error", err.Error()), "local cache corrupt, starting fresh")
		return emptyState()
	}
	if snapshot.Version != schemaVersion {
		s.log.Warn(s.log.WithField(ctx, "version", snapshot.Version), "local cache schema version mismatch, starting fresh")
		return emptyState()
	}

	if snapshot.SelectedGifts == nil {
		snapshot.SelectedGifts = []StoredGift{}
	}
	if snapshot.SavedGifts == nil {
		snapshot.SavedGifts = []StoredGift{}
	}
	if snapshot.RecentRecommendations == nil {
		snapshot.RecentRecommendations = map[string][]oracle.Candidate{}
	}
	return snapshot
}

// persist writes the full state via temp file + rename. Callers hold s.mu.
func (s *Store) persist() error {
	data, err := json.Marshal(s.state)
	if err != nil {
		return fmt.Errorf("marshal local cache state: %w", err)
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write local cache temp file: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("replace local cache file: %w", err)
	}
	return nil
}

// Put upserts a record by its local ID. A record without an ID is assigned
// one; a record without a selection timestamp is stamped now. Duplicate
// names across distinct IDs are tolerated here and collapsed only in the
// unified view.
func (s *Store) Put(record StoredGift) (StoredGift, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
	if record.SelectedAt.IsZero() {
		record.SelectedAt = s.now().UTC()
	}
	if !record.Status.IsValid() {
		record.Status = enums.GiftStatusSelected
	}

	bucket := s.bucketFor(record.Status)
	snapshot := append([]StoredGift(nil), *bucket...)
	replaced := false
	for i := range *bucket {
		if (*bucket)[i].ID == record.ID {
			record.SelectedAt = (*bucket)[i].SelectedAt
			(*bucket)[i] = record
			replaced = true
			break
		}
	}
	if !replaced {
		*bucket = append(*bucket, record)
	}

	if err := s.persist(); err != nil {
		// Keep memory and disk in agreement: an unpersisted record must
		// not be observable.
		*bucket = snapshot
		return StoredGift{}, err
	}
	return record, nil
}

// Remove deletes a record by local ID from the given bucket. Removing an
// absent record is a no-op.
func (s *Store) Remove(localID uuid.UUID, bucket enums.GiftBucket) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	target := s.bucketSlice(bucket)
	filtered := make([]StoredGift, 0, len(*target))
	changed := false
	for _, record := range *target {
		if record.ID == localID {
			changed = true
			continue
		}
		filtered = append(filtered, record)
	}
	if !changed {
		return nil
	}
	prev := *target
	*target = filtered
	if err := s.persist(); err != nil {
		*target = prev
		return err
	}
	return nil
}

// QueryByRecipientOccasion returns the selected-bucket records matching both
// IDs exactly.
func (s *Store) QueryByRecipientOccasion(recipientID, occasionID uuid.UUID) []StoredGift {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []StoredGift
	for _, record := range s.state.SelectedGifts {
		if record.RecipientID == recipientID && record.OccasionID == occasionID {
			out = append(out, record)
		}
	}
	return out
}

// SetRemoteRef backfills the remote-assigned ID onto a selected record.
// Missing records are ignored; the reference is a convenience, not identity.
func (s *Store) SetRemoteRef(localID, remoteID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.state.SelectedGifts {
		if s.state.SelectedGifts[i].ID == localID {
			prev := s.state.SelectedGifts[i].RemoteID
			ref := remoteID
			s.state.SelectedGifts[i].RemoteID = &ref
			if err := s.persist(); err != nil {
				s.state.SelectedGifts[i].RemoteID = prev
				return err
			}
			return nil
		}
	}
	return nil
}

// PutRecentRecommendations stashes the latest oracle response for a
// recipient/occasion pair.
func (s *Store) PutRecentRecommendations(recipientID, occasionID uuid.UUID, candidates []oracle.Candidate) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := RecommendationKey(recipientID, occasionID)
	prev, existed := s.state.RecentRecommendations[key]
	s.state.RecentRecommendations[key] = candidates
	if err := s.persist(); err != nil {
		if existed {
			s.state.RecentRecommendations[key] = prev
		} else {
			delete(s.state.RecentRecommendations, key)
		}
		return err
	}
	return nil
}

// RecentRecommendations returns the last stashed oracle response, or nil.
func (s *Store) RecentRecommendations(recipientID, occasionID uuid.UUID) []oracle.Candidate {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.RecentRecommendations[RecommendationKey(recipientID, occasionID)]
}

func (s *Store) bucketFor(status enums.GiftStatus) *[]StoredGift {
	if status == enums.GiftStatusSavedForLater {
		return &s.state.SavedGifts
	}
	return &s.state.SelectedGifts
}

func (s *Store) bucketSlice(bucket enums.GiftBucket) *[]StoredGift {
	if bucket == enums.GiftBucketSavedForLater {
		return &s.state.SavedGifts
	}
	return &s.state.SelectedGifts
}
