package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"colony-server/internal/shared/database"
)

type Repository struct {
	db     database.Executor
	logger *slog.Logger
}

func NewRepository(db database.Executor, logger *slog.Logger) *Repository {
	logger.Debug("Initializing history repository")

	return &Repository{
		db:     db,
		logger: logger,
	}
}

func (r *Repository) Create(ctx context.Context, rec Record) (*Record, error) {
	logger := r.logger.With(
		"component", "history_repository",
		"operation", "create",
		"colony_id", rec.ColonyID,
		"outcome", rec.Outcome,
	)
	logger.Debug("Recording colony outcome")

	query := `
		INSERT INTO colony_outcomes (
			colony_id, outcome, reasons, modules_built, modules_lost, expeditions, hazards,
			production_ticks, consumption_ticks, final_metal, final_energy, final_food, final_oxygen,
			started_at, ended_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		ON CONFLICT (colony_id) DO NOTHING
		RETURNING id
	`

	err := r.db.QueryRowContext(ctx, query,
		rec.ColonyID,
		rec.Outcome,
		rec.Reasons,
		rec.ModulesBuilt,
		rec.ModulesLost,
		rec.Expeditions,
		rec.Hazards,
		rec.ProductionTicks,
		rec.ConsumptionTicks,
		rec.FinalMetal,
		rec.FinalEnergy,
		rec.FinalFood,
		rec.FinalOxygen,
		rec.StartedAt,
		rec.EndedAt,
	).Scan(&rec.ID)
	if errors.Is(err, sql.ErrNoRows) {
		logger.Debug("Colony outcome already present")
		return nil, fmt.Errorf("colony %s already recorded: %w", rec.ColonyID, err)
	}
	if err != nil {
		logger.Error("Failed to record colony outcome", "error", err)
		return nil, fmt.Errorf("failed to record colony outcome: %w", err)
	}

	logger.Info("Colony outcome recorded", "record_id", rec.ID)
	return &rec, nil
}

func (r *Repository) ListRecent(ctx context.Context, limit int) ([]Record, error) {
	logger := r.logger.With("component", "history_repository", "operation", "list_recent", "limit", limit)
	logger.Debug("Listing colony outcomes")

	query := `
		SELECT id, colony_id, outcome, reasons, modules_built, modules_lost, expeditions, hazards,
			production_ticks, consumption_ticks, final_metal, final_energy, final_food, final_oxygen,
			started_at, ended_at
		FROM colony_outcomes
		ORDER BY ended_at DESC
		LIMIT $1
	`

	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		logger.Error("Failed to query colony outcomes", "error", err)
		return nil, fmt.Errorf("failed to query colony outcomes: %w", err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			logger.Error("Failed to close rows", "error", err)
		}
	}()

	var records []Record
	for rows.Next() {
		var rec Record
		err := rows.Scan(
			&rec.ID,
			&rec.ColonyID,
			&rec.Outcome,
			&rec.Reasons,
			&rec.ModulesBuilt,
			&rec.ModulesLost,
			&rec.Expeditions,
			&rec.Hazards,
			&rec.ProductionTicks,
			&rec.ConsumptionTicks,
			&rec.FinalMetal,
			&rec.FinalEnergy,
			&rec.FinalFood,
			&rec.FinalOxygen,
			&rec.StartedAt,
			&rec.EndedAt,
		)
		if err != nil {
			logger.Error("Failed to scan colony outcome row", "error", err)
			return nil, fmt.Errorf("failed to scan colony outcome: %w", err)
		}
		records = append(records, rec)
	}

	if err := rows.Err(); err != nil {
		logger.Error("Error iterating colony outcome rows", "error", err)
		return nil, fmt.Errorf("error iterating colony outcomes: %w", err)
	}

	logger.Debug("Colony outcomes retrieved", "count", len(records))
	return records, nil
}
