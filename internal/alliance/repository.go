package alliance

import (
	"context"
	"database/sql"
	"log/slog"

	"coords-bot/internal/shared/database"
	"coords-bot/internal/shared/errors"
	"coords-bot/internal/shared/normalize"
)

type Repository struct {
	db     *database.DB
	logger *slog.Logger
}

func NewRepository(db *database.DB, logger *slog.Logger) *Repository {
	logger.Debug("Initializing alliance repository")

	return &Repository{
		db:     db,
		logger: logger,
	}
}

func (r *Repository) getExecutor(tx *database.Tx) database.Executor {
	if tx != nil {
		return tx
	}
	return r.db
}

// FindByName returns the stored alliance or a not_found error.
func (r *Repository) FindByName(ctx context.Context, name string, tx *database.Tx) (*Alliance, error) {
	name = normalize.Name(name)
	logger := r.logger.With(
		"component", "alliance_repository",
		"operation", "find_by_name",
		"alliance", name,
	)

	var a Alliance
	err := r.getExecutor(tx).QueryRowContext(ctx, `SELECT id, name FROM alliances WHERE name = $1`, name).Scan(&a.ID, &a.Name)
	if err != nil {
		if err == sql.ErrNoRows {
			logger.Debug("Alliance not found")
			return nil, errors.NotFoundf("alliance %s not found", name)
		}
		logger.Error("Failed to query alliance", "error", err)
		return nil, errors.WrapInternal("failed to query alliance", err)
	}
	return &a, nil
}

func (r *Repository) GetByID(ctx context.Context, id int64, tx *database.Tx) (*Alliance, error) {
	var a Alliance
	err := r.getExecutor(tx).QueryRowContext(ctx, `SELECT id, name FROM alliances WHERE id = $1`, id).Scan(&a.ID, &a.Name)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, errors.NotFoundf("alliance %d not found", id)
		}
		r.logger.Error("Failed to query alliance by id", "component", "alliance_repository", "alliance_id", id, "error", err)
		return nil, errors.WrapInternal("failed to query alliance", err)
	}
	return &a, nil
}

// GetOrCreate returns the stored alliance or a new unsaved one.
func (r *Repository) GetOrCreate(ctx context.Context, name string, tx *database.Tx) (*Alliance, error) {
	a, err := r.FindByName(ctx, name, tx)
	if errors.IsNotFound(err) {
		return New(normalize.Name(name)), nil
	}
	return a, err
}

// Save upserts a on its name and sets a.ID.
func (r *Repository) Save(ctx context.Context, a *Alliance, tx *database.Tx) error {
	logger := r.logger.With(
		"component", "alliance_repository",
		"operation", "save",
		"alliance", a.Name,
	)

	// The no-op update lets RETURNING report the id of an existing row.
	query := `
		INSERT INTO alliances (name)
		VALUES ($1)
		ON CONFLICT (name) DO UPDATE SET name = EXCLUDED.name
		RETURNING id
	`

	if err := r.getExecutor(tx).QueryRowContext(ctx, query, a.Name).Scan(&a.ID); err != nil {
		logger.Error("Failed to save alliance", "error", err)
		return errors.WrapInternal("failed to save alliance", err)
	}

	logger.Debug("Alliance saved", "alliance_id", a.ID)
	return nil
}

func (r *Repository) Count(ctx context.Context, tx *database.Tx) (int, error) {
	var count int
	if err := r.getExecutor(tx).QueryRowContext(ctx, `SELECT COUNT(*) FROM alliances`).Scan(&count); err != nil {
		r.logger.Error("Failed to count alliances", "component", "alliance_repository", "error", err)
		return 0, errors.WrapInternal("failed to count alliances", err)
	}
	return count, nil
}
