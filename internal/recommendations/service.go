package recommendations

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"
	redislib "github.com/redis/go-redis/v9"

	"github.com/ktrudeau/giftnest-backend/pkg/db/models"
	pkgerrors "github.com/ktrudeau/giftnest-backend/pkg/errors"
	"github.com/ktrudeau/giftnest-backend/pkg/logger"
	"github.com/ktrudeau/giftnest-backend/pkg/oracle"
)

// oracleClient is the outbound call surface. *oracle.Client satisfies it.
type oracleClient interface {
	Recommend(ctx context.Context, req oracle.RecommendRequest) ([]oracle.Candidate, error)
}

// responseCache is the shared cache for last-good oracle responses.
// pkg/redis.Client satisfies it.
type responseCache interface {
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Get(ctx context.Context, key string) (string, error)
	RecommendationKey(userID, recipientID, occasionID string) string
}

// localStash mirrors the latest response into the per-user selection cache.
type localStash interface {
	PutRecentRecommendations(recipientID, occasionID uuid.UUID, candidates []oracle.Candidate) error
	RecentRecommendations(recipientID, occasionID uuid.UUID) []oracle.Candidate
}

// recipientReader and occasionReader supply the context sent to the oracle.
type recipientReader interface {
	Get(ctx context.Context, userID, recipientID uuid.UUID) (*models.Recipient, error)
}

type occasionReader interface {
	Get(ctx context.Context, userID, occasionID uuid.UUID) (*models.Occasion, error)
}

// giftReader supplies the recipient's gift history so the oracle can avoid
// re-suggesting gifts already given. gifts.Service satisfies it.
type giftReader interface {
	QueryByRecipient(ctx context.Context, userID, recipientID uuid.UUID) ([]models.Gift, error)
}

// ServiceParams groups dependencies for the recommendation service.
type ServiceParams struct {
	Oracle     oracleClient
	Cache      responseCache
	Local      localStash
	Recipients recipientReader
	Occasions  occasionReader
	Gifts      giftReader
	Logger     *logger.Logger
	CacheTTL   time.Duration
}

// FetchInput narrows a recommendation request. ExcludeCategories and
// PreferredCategories are forwarded to the oracle verbatim.
type FetchInput struct {
	RecipientID         uuid.UUID
	OccasionID          uuid.UUID
	Count               int
	ExcludeCategories   []string
	PreferredCategories []string
}

// Service fetches gift candidates from the oracle. Its output is untrusted
// input: candidates are normalized before anything downstream sees them,
// and every failure mode degrades to an empty result rather than an error.
type Service interface {
	Fetch(ctx context.Context, userID uuid.UUID, input FetchInput) []oracle.Candidate
}

type service struct {
	oracle     oracleClient
	cache      responseCache
	local      localStash
	recipients recipientReader
	occasions  occasionReader
	gifts      giftReader
	log        *logger.Logger
	cacheTTL   time.Duration
}

const defaultCacheTTL = 30 * time.Minute

// NewService builds the recommendation service. Cache and Local are
// optional; the oracle client, readers, and logger are not.
func NewService(params ServiceParams) (Service, error) {
	if params.Oracle == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "oracle client is required")
	}
	if params.Recipients == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "recipient reader is required")
	}
	if params.Occasions == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "occasion reader is required")
	}
	if params.Logger == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "logger is required")
	}
	ttl := params.CacheTTL
	if ttl <= 0 {
		ttl = defaultCacheTTL
	}
	return &service{
		oracle:     params.Oracle,
		cache:      params.Cache,
		local:      params.Local,
		recipients: params.Recipients,
		occasions:  params.Occasions,
		gifts:      params.Gifts,
		log:        params.Logger,
		cacheTTL:   ttl,
	}, nil
}

// Fetch returns normalized candidates for the pair, consulting the shared
// cache before the oracle and stashing good responses both in redis and in
// the local cache for offline reuse.
func (s *service) Fetch(ctx context.Context, userID uuid.UUID, input FetchInput) []oracle.Candidate {
	recipientID, occasionID := input.RecipientID, input.OccasionID
	ctx = s.log.WithRecipientID(ctx, recipientID.String())
	ctx = s.log.WithOccasionID(ctx, occasionID.String())

	if cached := s.fromCache(ctx, userID, recipientID, occasionID); cached != nil {
		return cached
	}

	recipient, err := s.recipients.Get(ctx, userID, recipientID)
	if err != nil {
		s.log.Warn(ctx, "recipient lookup failed, returning no recommendations")
		return s.fallback(recipientID, occasionID)
	}
	occasion, err := s.occasions.Get(ctx, userID, occasionID)
	if err != nil {
		s.log.Warn(ctx, "occasion lookup failed, returning no recommendations")
		return s.fallback(recipientID, occasionID)
	}

	raw, err := s.oracle.Recommend(ctx, oracle.RecommendRequest{
		RecipientName:       recipient.Name,
		Relationship:        recipient.Relationship,
		Interests:           recipient.Interests,
		OccasionKind:        occasion.Kind.String(),
		OccasionName:        occasion.Name,
		BudgetMinCents:      int64(occasion.BudgetMinCents),
		BudgetMaxCents:      int64(occasion.BudgetMaxCents),
		ExcludeCategories:   input.ExcludeCategories,
		PreferredCategories: input.PreferredCategories,
		PreviousGiftNames:   s.previousGiftNames(ctx, userID, recipientID),
		Count:               input.Count,
	})
	if err != nil {
		s.log.Warn(ctx, "oracle fetch failed, returning no recommendations")
		return s.fallback(recipientID, occasionID)
	}

	candidates := Normalize(raw)
	s.stash(ctx, userID, recipientID, occasionID, candidates)
	return candidates
}

// previousGiftNames collects the recipient's gift history for the oracle.
// A missing reader or a lookup failure yields an empty list; history is a
// hint, not a prerequisite.
func (s *service) previousGiftNames(ctx context.Context, userID, recipientID uuid.UUID) []string {
	if s.gifts == nil {
		return nil
	}
	history, err := s.gifts.QueryByRecipient(ctx, userID, recipientID)
	if err != nil {
		s.log.Warn(ctx, "gift history lookup failed, omitting previous gift names")
		return nil
	}
	seen := make(map[string]struct{}, len(history))
	names := make([]string, 0, len(history))
	for _, gift := range history {
		name := strings.TrimSpace(gift.Name)
		if name == "" {
			continue
		}
		if _, dup := seen[strings.ToLower(name)]; dup {
			continue
		}
		seen[strings.ToLower(name)] = struct{}{}
		names = append(names, name)
	}
	return names
}

func (s *service) fromCache(ctx context.Context, userID, recipientID, occasionID uuid.UUID) []oracle.Candidate {
	if s.cache == nil {
		return nil
	}
	key := s.cache.RecommendationKey(userID.String(), recipientID.String(), occasionID.String())
	payload, err := s.cache.Get(ctx, key)
	if err != nil {
		if err != redislib.Nil {
			s.log.Warn(ctx, "recommendation cache read failed")
		}
		return nil
	}
	var candidates []oracle.Candidate
	if err := json.Unmarshal([]byte(payload), &candidates); err != nil {
		s.log.Warn(ctx, "recommendation cache payload corrupt")
		return nil
	}
	return candidates
}

func (s *service) stash(ctx context.Context, userID, recipientID, occasionID uuid.UUID, candidates []oracle.Candidate) {
	if s.cache != nil {
		if payload, err := json.Marshal(candidates); err == nil {
			key := s.cache.RecommendationKey(userID.String(), recipientID.String(), occasionID.String())
			if err := s.cache.Set(ctx, key, string(payload), s.cacheTTL); err != nil {
				s.log.Warn(ctx, "recommendation cache write failed")
			}
		}
	}
	if s.local != nil {
		if err := s.local.PutRecentRecommendations(recipientID, occasionID, candidates); err != nil {
			s.log.Warn(ctx, "local recommendation stash failed")
		}
	}
}

// fallback serves the last locally-stashed response, or an empty list.
func (s *service) fallback(recipientID, occasionID uuid.UUID) []oracle.Candidate {
	if s.local != nil {
		if stashed := s.local.RecentRecommendations(recipientID, occasionID); len(stashed) > 0 {
			return stashed
		}
	}
	return []oracle.Candidate{}
}

// Normalize filters and sanitizes raw oracle output. Candidates lacking a
// name or a positive price are dropped; confidence is clamped to [0, 1].
func Normalize(raw []oracle.Candidate) []oracle.Candidate {
	out := make([]oracle.Candidate, 0, len(raw))
	for _, candidate := range raw {
		candidate.Name = strings.TrimSpace(candidate.Name)
		if candidate.Name == "" {
			continue
		}
		if candidate.PriceCents <= 0 {
			continue
		}
		candidate.Description = strings.TrimSpace(candidate.Description)
		candidate.Category = strings.TrimSpace(candidate.Category)
		candidate.ImageURL = strings.TrimSpace(candidate.ImageURL)
		candidate.PurchaseURL = strings.TrimSpace(candidate.PurchaseURL)
		if candidate.Confidence < 0 {
			candidate.Confidence = 0
		}
		if candidate.Confidence > 1 {
			candidate.Confidence = 1
		}
		out = append(out, candidate)
	}
	return out
}

