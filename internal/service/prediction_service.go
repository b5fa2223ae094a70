package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/yasinhessnawi1/HeartRisk_Backend/internal/auth"
	"github.com/yasinhessnawi1/HeartRisk_Backend/internal/constants"
	"github.com/yasinhessnawi1/HeartRisk_Backend/internal/features"
	"github.com/yasinhessnawi1/HeartRisk_Backend/internal/inference"
	"github.com/yasinhessnawi1/HeartRisk_Backend/internal/models"
	"github.com/yasinhessnawi1/HeartRisk_Backend/internal/repository"
	"github.com/yasinhessnawi1/HeartRisk_Backend/internal/utils"
)

// ErrModelNotLoaded is returned when no classifier bundle is available.
var ErrModelNotLoaded = errors.New("model bundle not loaded")

// Classifier runs every model of a bundle on an encoded vector.
type Classifier interface {
	Infer(vec features.Vector) (inference.Result, error)
}

// PredictionService classifies submissions and manages the stored history.
type PredictionService struct {
	repo       repository.PredictionRepository
	classifier Classifier
}

// NewPredictionService creates a new PredictionService. A nil classifier
// makes every classification fail with ErrModelNotLoaded.
func NewPredictionService(repo repository.PredictionRepository, classifier Classifier) *PredictionService {
	return &PredictionService{
		repo:       repo,
		classifier: classifier,
	}
}

// Classify normalizes pairs and runs every model on them. Normalizer
// failures are returned as *features.ValidationError.
func (s *PredictionService) Classify(pairs []features.Pair) (features.Input, []*models.PredictionResult, error) {
	in, err := features.NormalizePairs(pairs)
	if err != nil {
		return features.Input{}, nil, err
	}

	if s.classifier == nil {
		return in, nil, ErrModelNotLoaded
	}

	result, err := s.classifier.Infer(features.Encode(in))
	if err != nil {
		return in, nil, err
	}

	results := make([]*models.PredictionResult, len(result.Outcomes))
	for i, o := range result.Outcomes {
		results[i] = models.NewPredictionResult(o.Key, o.Name, o.Probability, o.Positive)
		if !results[i].RiskTier.Valid() {
			return in, nil, fmt.Errorf("%w: model %s returned probability %v", inference.ErrInference, o.Key, o.Probability)
		}
	}

	return in, results, nil
}

// Predict classifies a submission and stores it for authenticated callers.
// A storage failure does not fail the call; the response carries a warning
// instead.
func (s *PredictionService) Predict(ctx context.Context, id auth.Identity, pairs []features.Pair) (*models.PredictResponse, error) {
	start := time.Now()

	in, results, err := s.Classify(pairs)
	if err != nil {
		return nil, err
	}

	resp := &models.PredictResponse{
		EncodingVersion: features.EncodingVersion,
		Results:         results,
	}

	userID := ""
	if auth.Authorize(id, auth.ActionPredictionSave) {
		userID = idString(id.UserID)

		p := models.NewPrediction(id.UserID, in)
		p.Results = results
		if err := s.repo.Create(ctx, p); err != nil {
			log.Error().
				Err(err).
				Int64(constants.UserIDContextKey, id.UserID).
				Msg("Failed to store prediction")
			resp.Warning = constants.MsgPredictionNotSaved
		} else {
			resp.Saved = true
			resp.PredictionID = p.ID
		}
	}

	utils.LogPrediction(userID, resp.PredictionID, resp.Saved, tiersOf(results), time.Since(start))

	return resp, nil
}

func tiersOf(results []*models.PredictionResult) map[string]string {
	tiers := make(map[string]string, len(results))
	for _, r := range results {
		tiers[r.ModelKey] = string(r.RiskTier)
	}
	return tiers
}

// List returns one page of the caller's own predictions, newest first.
func (s *PredictionService) List(ctx context.Context, id auth.Identity, page utils.PaginationParams) ([]*models.Prediction, int, error) {
	if !auth.Authorize(id, auth.ActionPredictionOwnRead) {
		return nil, 0, utils.NewUnauthorizedError("")
	}
	return s.repo.List(ctx, models.PredictionFilter{UserID: id.UserID}, page)
}

// load fetches a prediction the caller may act on. Predictions of other
// users look missing to callers without the any-scope capability.
func (s *PredictionService) load(ctx context.Context, id auth.Identity, predictionID int64, own, anyScope auth.Action) (*models.Prediction, error) {
	p, err := s.repo.GetByID(ctx, predictionID)
	if err != nil {
		if utils.IsNotFoundError(err) {
			return nil, utils.NewNotFoundError("Prediction", predictionID)
		}
		return nil, err
	}

	if !auth.AuthorizeOwned(id, own, anyScope, p.UserID) {
		log.Warn().
			Int64(constants.UserIDContextKey, id.UserID).
			Int64(constants.ColumnPredictionID, predictionID).
			Msg("Prediction access denied")
		return nil, utils.NewNotFoundError("Prediction", predictionID)
	}

	return p, nil
}

// Get returns a prediction with its results.
func (s *PredictionService) Get(ctx context.Context, id auth.Identity, predictionID int64) (*models.Prediction, error) {
	return s.load(ctx, id, predictionID, auth.ActionPredictionOwnRead, auth.ActionPredictionAnyRead)
}

// Update re-normalizes and re-classifies the inputs of a stored prediction
// and replaces its results.
func (s *PredictionService) Update(ctx context.Context, id auth.Identity, predictionID int64, pairs []features.Pair) (*models.Prediction, error) {
	p, err := s.load(ctx, id, predictionID, auth.ActionPredictionOwnWrite, auth.ActionPredictionAnyWrite)
	if err != nil {
		return nil, err
	}

	in, results, err := s.Classify(pairs)
	if err != nil {
		return nil, err
	}

	p.Input = in
	p.EncodingVersion = features.EncodingVersion
	p.Results = results

	if err := s.repo.Replace(ctx, p); err != nil {
		if utils.IsNotFoundError(err) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to update prediction: %w", err)
	}

	return p, nil
}

// Delete removes a prediction and its results.
func (s *PredictionService) Delete(ctx context.Context, id auth.Identity, predictionID int64) error {
	if _, err := s.load(ctx, id, predictionID, auth.ActionPredictionOwnWrite, auth.ActionPredictionAnyWrite); err != nil {
		return err
	}
	return s.repo.Delete(ctx, predictionID)
}
