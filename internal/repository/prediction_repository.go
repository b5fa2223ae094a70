package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"
	"github.com/rs/zerolog/log"

	"github.com/yasinhessnawi1/HeartRisk_Backend/internal/constants"
	"github.com/yasinhessnawi1/HeartRisk_Backend/internal/database"
	"github.com/yasinhessnawi1/HeartRisk_Backend/internal/models"
	"github.com/yasinhessnawi1/HeartRisk_Backend/internal/risk"
	"github.com/yasinhessnawi1/HeartRisk_Backend/internal/utils"
)

// PredictionRepository stores submissions together with their per-model
// results. A prediction and its results are always written atomically.
type PredictionRepository interface {
	Create(ctx context.Context, p *models.Prediction) error
	Replace(ctx context.Context, p *models.Prediction) error
	GetByID(ctx context.Context, id int64) (*models.Prediction, error)
	List(ctx context.Context, filter models.PredictionFilter, page utils.PaginationParams) ([]*models.Prediction, int, error)
	ListAll(ctx context.Context, filter models.PredictionFilter) ([]*models.Prediction, error)
	Recent(ctx context.Context, limit int) ([]*models.Prediction, error)
	Delete(ctx context.Context, id int64) error
	Stats(ctx context.Context, since time.Time) (*models.DashboardStats, error)
}

// PostgresPredictionRepository is a PostgreSQL implementation of PredictionRepository.
type PostgresPredictionRepository struct {
	db *database.Pool
}

// NewPredictionRepository creates a new PredictionRepository.
func NewPredictionRepository(db *database.Pool) PredictionRepository {
	return &PostgresPredictionRepository{
		db: db,
	}
}

const predictionColumns = `p.prediction_id, p.user_id, p.age, p.sex, p.chest_pain_type, p.resting_bp,
        p.cholesterol, p.fasting_bs, p.resting_ecg, p.max_hr, p.exercise_angina, p.oldpeak,
        p.st_slope, p.encoding_version, p.created_at, p.updated_at, u.username, u.full_name`

const predictionFrom = ` FROM predictions p JOIN users u ON u.user_id = p.user_id`

func scanPrediction(row rowScanner) (*models.Prediction, error) {
	p := &models.Prediction{}
	err := row.Scan(
		&p.ID,
		&p.UserID,
		&p.Input.Age,
		&p.Input.Sex,
		&p.Input.ChestPainType,
		&p.Input.RestingBP,
		&p.Input.Cholesterol,
		&p.Input.FastingBS,
		&p.Input.RestingECG,
		&p.Input.MaxHR,
		&p.Input.ExerciseAngina,
		&p.Input.Oldpeak,
		&p.Input.STSlope,
		&p.EncodingVersion,
		&p.CreatedAt,
		&p.UpdatedAt,
		&p.Username,
		&p.FullName,
	)
	return p, err
}

// Create inserts p and its results in one transaction and fills the
// generated IDs.
func (r *PostgresPredictionRepository) Create(ctx context.Context, p *models.Prediction) error {
	startTime := time.Now()

	query := `
        INSERT INTO predictions (user_id, age, sex, chest_pain_type, resting_bp, cholesterol,
            fasting_bs, resting_ecg, max_hr, exercise_angina, oldpeak, st_slope,
            encoding_version, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
        RETURNING prediction_id
    `

	err := r.db.Transaction(ctx, func(tx *sql.Tx) error {
		in := p.Input
		if err := tx.QueryRowContext(
			ctx,
			query,
			p.UserID, in.Age, in.Sex, in.ChestPainType, in.RestingBP, in.Cholesterol,
			in.FastingBS, in.RestingECG, in.MaxHR, in.ExerciseAngina, in.Oldpeak, in.STSlope,
			p.EncodingVersion, p.CreatedAt, p.UpdatedAt,
		).Scan(&p.ID); err != nil {
			return fmt.Errorf("failed to insert prediction: %w", err)
		}

		return insertResults(ctx, tx, p)
	})

	utils.LogDBQuery(query, []interface{}{p.UserID, len(p.Results)}, time.Since(startTime), err)

	if err != nil {
		if utils.PGErrorCode(err) == constants.PGErrorForeignKeyConstraint {
			return utils.NewNotFoundError("User", p.UserID)
		}
		return fmt.Errorf("failed to create prediction: %w", err)
	}

	log.Info().
		Int64(constants.ColumnPredictionID, p.ID).
		Int64(constants.UserIDContextKey, p.UserID).
		Int("results", len(p.Results)).
		Msg("Prediction stored")

	return nil
}

// Replace overwrites the inputs of an existing prediction and swaps its
// results for p.Results. Owner and creation time are left untouched.
func (r *PostgresPredictionRepository) Replace(ctx context.Context, p *models.Prediction) error {
	startTime := time.Now()

	p.UpdatedAt = time.Now()

	query := `
        UPDATE predictions
        SET age = $1, sex = $2, chest_pain_type = $3, resting_bp = $4, cholesterol = $5,
            fasting_bs = $6, resting_ecg = $7, max_hr = $8, exercise_angina = $9, oldpeak = $10,
            st_slope = $11, encoding_version = $12, updated_at = $13
        WHERE prediction_id = $14
    `

	err := r.db.Transaction(ctx, func(tx *sql.Tx) error {
		in := p.Input
		result, err := tx.ExecContext(
			ctx,
			query,
			in.Age, in.Sex, in.ChestPainType, in.RestingBP, in.Cholesterol,
			in.FastingBS, in.RestingECG, in.MaxHR, in.ExerciseAngina, in.Oldpeak,
			in.STSlope, p.EncodingVersion, p.UpdatedAt, p.ID,
		)
		if err != nil {
			return fmt.Errorf("failed to update prediction: %w", err)
		}
		if err := expectAffected(result, "Prediction", p.ID); err != nil {
			return err
		}

		if _, err := tx.ExecContext(ctx, `DELETE FROM prediction_results WHERE prediction_id = $1`, p.ID); err != nil {
			return fmt.Errorf("failed to clear prediction results: %w", err)
		}

		return insertResults(ctx, tx, p)
	})

	utils.LogDBQuery(query, []interface{}{p.ID, len(p.Results)}, time.Since(startTime), err)

	if err != nil {
		if utils.IsNotFoundError(err) {
			return err
		}
		return fmt.Errorf("failed to replace prediction: %w", err)
	}

	log.Info().
		Int64(constants.ColumnPredictionID, p.ID).
		Msg("Prediction updated")

	return nil
}

func insertResults(ctx context.Context, q database.Querier, p *models.Prediction) error {
	query := `
        INSERT INTO prediction_results (prediction_id, model_key, model_name, label, positive,
            probability_percent, risk_tier, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
        RETURNING result_id
    `

	for _, res := range p.Results {
		res.PredictionID = p.ID
		if res.CreatedAt.IsZero() {
			res.CreatedAt = time.Now()
		}
		if err := q.QueryRowContext(
			ctx,
			query,
			res.PredictionID, res.ModelKey, res.ModelName, res.Label, res.Positive,
			res.ProbabilityPercent, string(res.RiskTier), res.CreatedAt,
		).Scan(&res.ID); err != nil {
			return fmt.Errorf("failed to insert result for model %s: %w", res.ModelKey, err)
		}
	}

	return nil
}

// GetByID retrieves a prediction with its results and owner.
func (r *PostgresPredictionRepository) GetByID(ctx context.Context, id int64) (*models.Prediction, error) {
	startTime := time.Now()

	query := `SELECT ` + predictionColumns + predictionFrom + ` WHERE p.prediction_id = $1`

	p, err := scanPrediction(r.db.QueryRowContext(ctx, query, id))

	utils.LogDBQuery(query, []interface{}{id}, time.Since(startTime), err)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, utils.NewNotFoundError("Prediction", id)
		}
		return nil, fmt.Errorf("failed to get prediction: %w", err)
	}

	if err := r.attachResults(ctx, []*models.Prediction{p}); err != nil {
		return nil, err
	}

	return p, nil
}

// whereClause renders filter as a SQL condition starting at placeholder 1.
func whereClause(filter models.PredictionFilter) (string, []interface{}) {
	var conds []string
	var args []interface{}

	add := func(cond string, arg interface{}) {
		args = append(args, arg)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}

	if filter.UserID != 0 {
		add("p.user_id = $%d", filter.UserID)
	}
	if !filter.From.IsZero() {
		add("p.created_at >= $%d", filter.From)
	}
	if !filter.Until.IsZero() {
		add("p.created_at < $%d", filter.Until)
	}

	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

// List returns one page of predictions matching filter, newest first, and
// the total number of matches.
func (r *PostgresPredictionRepository) List(ctx context.Context, filter models.PredictionFilter, page utils.PaginationParams) ([]*models.Prediction, int, error) {
	startTime := time.Now()

	where, args := whereClause(filter)

	countQuery := `SELECT COUNT(*) FROM predictions p` + where
	var total int
	err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&total)
	utils.LogDBQuery(countQuery, args, time.Since(startTime), err)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count predictions: %w", err)
	}

	if total == 0 {
		return []*models.Prediction{}, 0, nil
	}

	query := `SELECT ` + predictionColumns + predictionFrom + where +
		fmt.Sprintf(` ORDER BY p.created_at DESC, p.prediction_id DESC LIMIT $%d OFFSET $%d`, len(args)+1, len(args)+2)
	pageArgs := append(append([]interface{}{}, args...), page.PageSize, page.Offset())

	predictions, err := r.query(ctx, query, pageArgs...)
	if err != nil {
		return nil, 0, err
	}

	return predictions, total, nil
}

// ListAll returns every prediction matching filter, newest first.
func (r *PostgresPredictionRepository) ListAll(ctx context.Context, filter models.PredictionFilter) ([]*models.Prediction, error) {
	where, args := whereClause(filter)
	query := `SELECT ` + predictionColumns + predictionFrom + where + ` ORDER BY p.created_at DESC, p.prediction_id DESC`
	return r.query(ctx, query, args...)
}

// Recent returns the newest limit predictions across all users.
func (r *PostgresPredictionRepository) Recent(ctx context.Context, limit int) ([]*models.Prediction, error) {
	query := `SELECT ` + predictionColumns + predictionFrom + ` ORDER BY p.created_at DESC, p.prediction_id DESC LIMIT $1`
	return r.query(ctx, query, limit)
}

func (r *PostgresPredictionRepository) query(ctx context.Context, query string, args ...interface{}) ([]*models.Prediction, error) {
	startTime := time.Now()

	rows, err := r.db.QueryContext(ctx, query, args...)
	utils.LogDBQuery(query, args, time.Since(startTime), err)
	if err != nil {
		return nil, fmt.Errorf("failed to list predictions: %w", err)
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			log.Error().Err(closeErr).Msg("failed to close rows")
		}
	}()

	predictions := []*models.Prediction{}
	for rows.Next() {
		p, err := scanPrediction(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan prediction: %w", err)
		}
		predictions = append(predictions, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate predictions: %w", err)
	}

	if err := r.attachResults(ctx, predictions); err != nil {
		return nil, err
	}

	return predictions, nil
}

// attachResults loads the results of predictions with a single query.
func (r *PostgresPredictionRepository) attachResults(ctx context.Context, predictions []*models.Prediction) error {
	if len(predictions) == 0 {
		return nil
	}

	startTime := time.Now()

	ids := make([]int64, len(predictions))
	byID := make(map[int64]*models.Prediction, len(predictions))
	for i, p := range predictions {
		ids[i] = p.ID
		byID[p.ID] = p
		p.Results = []*models.PredictionResult{}
	}

	query := `
        SELECT result_id, prediction_id, model_key, model_name, label, positive,
            probability_percent, risk_tier, created_at
        FROM prediction_results
        WHERE prediction_id = ANY($1)
        ORDER BY prediction_id, result_id
    `

	rows, err := r.db.QueryContext(ctx, query, pq.Array(ids))
	utils.LogDBQuery(query, []interface{}{ids}, time.Since(startTime), err)
	if err != nil {
		return fmt.Errorf("failed to load prediction results: %w", err)
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			log.Error().Err(closeErr).Msg("failed to close rows")
		}
	}()

	for rows.Next() {
		res := &models.PredictionResult{}
		var tier string
		if err := rows.Scan(
			&res.ID,
			&res.PredictionID,
			&res.ModelKey,
			&res.ModelName,
			&res.Label,
			&res.Positive,
			&res.ProbabilityPercent,
			&tier,
			&res.CreatedAt,
		); err != nil {
			return fmt.Errorf("failed to scan prediction result: %w", err)
		}
		res.RiskTier = risk.Tier(tier)
		if !res.RiskTier.Valid() {
			return fmt.Errorf("prediction result %d has unknown risk tier %q", res.ID, tier)
		}
		res.Describe()

		if p, ok := byID[res.PredictionID]; ok {
			p.Results = append(p.Results, res)
		}
	}

	return rows.Err()
}

// Delete removes a prediction. Its results go with it.
func (r *PostgresPredictionRepository) Delete(ctx context.Context, id int64) error {
	startTime := time.Now()

	query := `DELETE FROM predictions WHERE prediction_id = $1`
	result, err := r.db.ExecContext(ctx, query, id)

	utils.LogDBQuery(query, []interface{}{id}, time.Since(startTime), err)

	if err != nil {
		return fmt.Errorf("failed to delete prediction: %w", err)
	}

	if err := expectAffected(result, "Prediction", id); err != nil {
		return err
	}

	log.Info().
		Int64(constants.ColumnPredictionID, id).
		Msg("Prediction deleted")

	return nil
}

// Stats counts all predictions, those with at least one high-tier result
// and those created at or after since. Patients and recent predictions are
// left for the caller.
func (r *PostgresPredictionRepository) Stats(ctx context.Context, since time.Time) (*models.DashboardStats, error) {
	startTime := time.Now()

	query := `
        SELECT
            COUNT(*),
            COUNT(*) FILTER (WHERE EXISTS (
                SELECT 1 FROM prediction_results r
                WHERE r.prediction_id = p.prediction_id AND r.risk_tier = $1
            )),
            COUNT(*) FILTER (WHERE p.created_at >= $2)
        FROM predictions p
    `

	stats := &models.DashboardStats{}
	err := r.db.QueryRowContext(ctx, query, string(risk.High), since).Scan(
		&stats.TotalPredictions,
		&stats.HighRiskPredictions,
		&stats.TodayPredictions,
	)

	utils.LogDBQuery(query, []interface{}{string(risk.High), since}, time.Since(startTime), err)

	if err != nil {
		return nil, fmt.Errorf("failed to compute prediction stats: %w", err)
	}

	return stats, nil
}
