package controllers

import (
	"net/http"

	"github.com/ktrudeau/giftnest-backend/api/responses"
	"github.com/ktrudeau/giftnest-backend/api/validators"
	"github.com/ktrudeau/giftnest-backend/internal/recommendations"
	"github.com/ktrudeau/giftnest-backend/pkg/logger"
	"github.com/ktrudeau/giftnest-backend/pkg/oracle"
)

const (
	defaultRecommendationCount = 5
	maxRecommendationCount     = 20
)

// candidateResponse is the outward shape of an oracle candidate. Metadata is
// the pre-built bag a client echoes back when selecting the candidate.
type candidateResponse struct {
	ID          string         `json:"id,omitempty"`
	Name        string         `json:"name"`
	Description string         `json:"description,omitempty"`
	Category    string         `json:"category,omitempty"`
	PriceCents  int64          `json:"price_cents"`
	ImageURL    string         `json:"image_url,omitempty"`
	PurchaseURL string         `json:"purchase_url,omitempty"`
	Confidence  float64        `json:"confidence,omitempty"`
	Metadata    map[string]any `json:"metadata,omitempty"`
}

func toCandidateResponses(candidates []oracle.Candidate) []candidateResponse {
	out := make([]candidateResponse, 0, len(candidates))
	for _, c := range candidates {
		out = append(out, candidateResponse{
			ID:          c.ID,
			Name:        c.Name,
			Description: c.Description,
			Category:    c.Category,
			PriceCents:  c.PriceCents,
			ImageURL:    c.ImageURL,
			PurchaseURL: c.PurchaseURL,
			Confidence:  c.Confidence,
			Metadata:    c.MetadataBag(),
		})
	}
	return out
}

// RecommendationsFetch returns gift candidates for a recipient/occasion
// pair. Degraded oracle conditions produce an empty list, never an error.
func RecommendationsFetch(svc recommendations.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		userID, err := actorID(ctx)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		recipientID, err := validators.ParseQueryUUID(r, "recipient_id")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		occasionID, err := validators.ParseQueryUUID(r, "occasion_id")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		count, err := validators.ParseQueryInt(r, "count", defaultRecommendationCount, 1, maxRecommendationCount)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		candidates := svc.Fetch(ctx, userID, recommendations.FetchInput{
			RecipientID:         recipientID,
			OccasionID:          occasionID,
			Count:               count,
			ExcludeCategories:   validators.ParseQueryCSV(r, "exclude_categories"),
			PreferredCategories: validators.ParseQueryCSV(r, "preferred_categories"),
		})
		responses.WriteSuccess(w, toCandidateResponses(candidates))
	}
}
