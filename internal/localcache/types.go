package localcache

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/ktrudeau/giftnest-backend/pkg/enums"
	"github.com/ktrudeau/giftnest-backend/pkg/oracle"
)

// schemaVersion guards the persisted file layout. A file written by a
// different version is discarded and replaced with a fresh state.
const schemaVersion = 1

// StoredGift is a selection held in the local cache. Prices are unit currency
// decimals; the remote boundary owns the cents conversion.
type StoredGift struct {
	ID          uuid.UUID        `json:"id"`
	RemoteID    *uuid.UUID       `json:"remoteId,omitempty"`
	Name        string           `json:"name"`
	Description string           `json:"description,omitempty"`
	Category    string           `json:"category,omitempty"`
	Price       decimal.Decimal  `json:"price"`
	RecipientID uuid.UUID        `json:"recipientId"`
	OccasionID  uuid.UUID        `json:"occasionId"`
	SelectedAt  time.Time        `json:"selectedAt"`
	Status      enums.GiftStatus `json:"status"`
	Metadata    map[string]any   `json:"metadata,omitempty"`
}

type state struct {
	Version               int                           `json:"version"`
	SelectedGifts         []StoredGift                  `json:"selectedGifts"`
	SavedGifts            []StoredGift                  `json:"savedGifts"`
	RecentRecommendations map[string][]oracle.Candidate `json:"recentRecommendations"`
}

func emptyState() state {
	return state{
		Version:               schemaVersion,
		SelectedGifts:         []StoredGift{},
		SavedGifts:            []StoredGift{},
		RecentRecommendations: map[string][]oracle.Candidate{},
	}
}

// RecommendationKey builds the recent-recommendation bucket key for a
// recipient/occasion pair.
func RecommendationKey(recipientID, occasionID uuid.UUID) string {
	return recipientID.String() + "-" + occasionID.String()
}
