package handlers

import (
	"errors"
	"mime"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/yasinhessnawi1/HeartRisk_Backend/internal/auth"
	"github.com/yasinhessnawi1/HeartRisk_Backend/internal/constants"
	"github.com/yasinhessnawi1/HeartRisk_Backend/internal/features"
	"github.com/yasinhessnawi1/HeartRisk_Backend/internal/inference"
	"github.com/yasinhessnawi1/HeartRisk_Backend/internal/service"
	"github.com/yasinhessnawi1/HeartRisk_Backend/internal/utils"
)

// PredictionHandler serves the inference endpoint and the prediction history.
type PredictionHandler struct {
	predictionService PredictionServiceInterface
}

// NewPredictionHandler creates a new PredictionHandler
func NewPredictionHandler(predictionService PredictionServiceInterface) *PredictionHandler {
	return &PredictionHandler{predictionService: predictionService}
}

// Predict handles POST /api/predict. Unlike the rest of the API, its
// responses are flat JSON objects rather than the envelope.
func (h *PredictionHandler) Predict(w http.ResponseWriter, r *http.Request) {
	if !isJSONRequest(r) {
		utils.ErrorBody(w, http.StatusBadRequest, constants.MsgRequestMustBeJSON)
		return
	}

	pairs, appErr := readPairs(w, r)
	if appErr != nil {
		utils.ErrorBody(w, appErr.StatusCode, appErr.Message)
		return
	}

	resp, err := h.predictionService.Predict(r.Context(), auth.GetIdentity(r), pairs)
	if err != nil {
		appErr := classificationError(err)
		utils.ErrorBody(w, appErr.StatusCode, appErr.Error())
		return
	}

	utils.SendJSON(w, http.StatusOK, resp)
}

// ListPredictions handles GET /api/predictions
func (h *PredictionHandler) ListPredictions(w http.ResponseWriter, r *http.Request) {
	params := utils.GetPaginationParams(r)

	predictions, total, err := h.predictionService.List(r.Context(), auth.GetIdentity(r), params)
	if err != nil {
		utils.ErrorFromAppError(w, utils.ParseError(err))
		return
	}

	utils.Paginated(w, http.StatusOK, predictions, params.Page, params.PageSize, total)
}

// GetPrediction handles GET /api/predictions/{id}
func (h *PredictionHandler) GetPrediction(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "prediction")
	if !ok {
		return
	}

	prediction, err := h.predictionService.Get(r.Context(), auth.GetIdentity(r), id)
	if err != nil {
		utils.ErrorFromAppError(w, utils.ParseError(err))
		return
	}

	utils.JSON(w, http.StatusOK, prediction)
}

// UpdatePrediction handles PUT /api/predictions/{id}. The body carries the
// same fields as a new prediction.
func (h *PredictionHandler) UpdatePrediction(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "prediction")
	if !ok {
		return
	}

	if !isJSONRequest(r) {
		utils.BadRequest(w, constants.MsgRequestMustBeJSON, nil)
		return
	}

	pairs, appErr := readPairs(w, r)
	if appErr != nil {
		utils.ErrorFromAppError(w, appErr)
		return
	}

	prediction, err := h.predictionService.Update(r.Context(), auth.GetIdentity(r), id, pairs)
	if err != nil {
		utils.ErrorFromAppError(w, classificationError(err))
		return
	}

	log.Info().
		Int64(constants.UserIDContextKey, auth.GetIdentity(r).UserID).
		Int64("prediction_id", id).
		Msg("Prediction updated")

	utils.JSON(w, http.StatusOK, prediction)
}

// DeletePrediction handles DELETE /api/predictions/{id}
func (h *PredictionHandler) DeletePrediction(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "prediction")
	if !ok {
		return
	}

	if err := h.predictionService.Delete(r.Context(), auth.GetIdentity(r), id); err != nil {
		utils.ErrorFromAppError(w, utils.ParseError(err))
		return
	}

	utils.JSON(w, http.StatusOK, map[string]interface{}{
		"message": constants.MsgPredictionDeleted,
	})
}

// isJSONRequest accepts application/json and any +json media type.
func isJSONRequest(r *http.Request) bool {
	mediaType, _, err := mime.ParseMediaType(r.Header.Get(constants.HeaderContentType))
	if err != nil {
		return false
	}
	return mediaType == constants.ContentTypeJSON || strings.HasSuffix(mediaType, "+json")
}

// readPairs decodes the submitted fields in document order.
func readPairs(w http.ResponseWriter, r *http.Request) ([]features.Pair, *utils.AppError) {
	pairs, err := features.DecodePairs(http.MaxBytesReader(w, r.Body, constants.MaxRequestBodySize))
	if err == nil {
		return pairs, nil
	}

	var maxBytesErr *http.MaxBytesError
	switch {
	case errors.As(err, &maxBytesErr):
		return nil, utils.NewBadRequestError(constants.MsgRequestBodyTooLarge)
	case errors.Is(err, features.ErrNoData):
		return nil, utils.NewBadRequestError(constants.MsgNoDataProvided)
	case errors.Is(err, features.ErrNotObject):
		return nil, utils.NewBadRequestError(constants.MsgBodyNotObject)
	default:
		return nil, utils.NewBadRequestError(constants.MsgMalformedJSON)
	}
}

// classificationError maps normalizer and model failures onto an AppError.
// Normalizer messages are returned verbatim.
func classificationError(err error) *utils.AppError {
	var verr *features.ValidationError
	switch {
	case errors.As(err, &verr):
		return &utils.AppError{
			Err:        utils.ErrValidation,
			StatusCode: http.StatusBadRequest,
			Message:    verr.Error(),
		}
	case errors.Is(err, service.ErrModelNotLoaded):
		log.Error().Err(err).Msg("Classification requested without a model bundle")
		return &utils.AppError{
			Err:        utils.ErrInternalServer,
			StatusCode: http.StatusInternalServerError,
			Message:    constants.MsgModelNotLoaded,
		}
	case errors.Is(err, inference.ErrInference):
		log.Error().Err(err).Msg("Classification failed")
		return &utils.AppError{
			Err:        utils.ErrInternalServer,
			StatusCode: http.StatusInternalServerError,
			Message:    constants.MsgInferenceFailed,
		}
	default:
		return utils.ParseError(err)
	}
}

// idParam reads a positive {id} URL parameter and writes a 400 when it is
// not one.
func idParam(w http.ResponseWriter, r *http.Request, resource string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, constants.ParamID), 10, 64)
	if err != nil || id <= 0 {
		utils.BadRequest(w, "Invalid "+resource+" ID", nil)
		return 0, false
	}
	return id, true
}
