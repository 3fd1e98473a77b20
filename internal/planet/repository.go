package planet

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"coords-bot/internal/shared/database"
	"coords-bot/internal/shared/errors"
)

const planetColumns = `id, sort_key, display_key, galaxy, system_index, planet_index, moon, player_id`

type Repository struct {
	db     *database.DB
	logger *slog.Logger
}

func NewRepository(db *database.DB, logger *slog.Logger) *Repository {
	logger.Debug("Initializing planet repository")

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

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanPlanet(row rowScanner) (*Planet, error) {
	var (
		p    Planet
		moon sql.NullInt64
	)
	err := row.Scan(
		&p.ID,
		&p.SortKey,
		&p.DisplayKey,
		&p.Galaxy,
		&p.System,
		&p.Position,
		&moon,
		&p.PlayerID,
	)
	if err != nil {
		return nil, err
	}
	if moon.Valid {
		m := int(moon.Int64)
		p.Moon = &m
	}
	return &p, nil
}

// FindByCoordinates returns the stored planet at c or a not_found error.
func (r *Repository) FindByCoordinates(ctx context.Context, c Coordinates, tx *database.Tx) (*Planet, error) {
	exec := r.getExecutor(tx)
	logger := r.logger.With(
		"component", "planet_repository",
		"operation", "find_by_coordinates",
		"coords", c.DisplayKey(),
	)

	query := `SELECT ` + planetColumns + ` FROM planets WHERE sort_key = $1`

	p, err := scanPlanet(exec.QueryRowContext(ctx, query, c.SortKey()))
	if err != nil {
		if err == sql.ErrNoRows {
			logger.Debug("Planet not found")
			return nil, errors.NotFoundf("planet %s not found", c.DisplayKey())
		}
		logger.Error("Failed to query planet", "error", err)
		return nil, errors.WrapInternal("failed to query planet", err)
	}
	return p, nil
}

// GetOrCreate returns the stored planet at c, or a new unsaved one. A non-nil
// moon overwrites the stored value; a nil moon never clears it. Nothing is
// written until Save.
func (r *Repository) GetOrCreate(ctx context.Context, c Coordinates, moon *int, tx *database.Tx) (*Planet, error) {
	p, err := r.FindByCoordinates(ctx, c, tx)
	if err != nil {
		if errors.IsNotFound(err) {
			return New(c, moon), nil
		}
		return nil, err
	}
	if moon != nil {
		m := *moon
		p.Moon = &m
	}
	return p, nil
}

// Save upserts p on its sort key and sets p.ID. p must have an owner.
func (r *Repository) Save(ctx context.Context, p *Planet, tx *database.Tx) error {
	exec := r.getExecutor(tx)
	logger := r.logger.With(
		"component", "planet_repository",
		"operation", "save",
		"coords", p.DisplayKey,
		"player_id", p.PlayerID,
	)

	if err := p.Coordinates().Validate(); err != nil {
		return err
	}
	if p.PlayerID == 0 {
		return errors.WrapInternal("failed to save planet", fmt.Errorf("planet %s has no owner", p.DisplayKey))
	}

	var moon sql.NullInt64
	if p.Moon != nil {
		moon = sql.NullInt64{Int64: int64(*p.Moon), Valid: true}
	}

	query := `
		INSERT INTO planets (sort_key, display_key, galaxy, system_index, planet_index, moon, player_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (sort_key) DO UPDATE SET
			moon = COALESCE(EXCLUDED.moon, planets.moon),
			player_id = EXCLUDED.player_id
		RETURNING id
	`

	err := exec.QueryRowContext(ctx, query,
		p.SortKey,
		p.DisplayKey,
		p.Galaxy,
		p.System,
		p.Position,
		moon,
		p.PlayerID,
	).Scan(&p.ID)
	if err != nil {
		logger.Error("Failed to save planet", "error", err)
		return errors.WrapInternal("failed to save planet", err)
	}

	logger.Debug("Planet saved", "planet_id", p.ID)
	return nil
}

func (r *Repository) Delete(ctx context.Context, p *Planet, tx *database.Tx) error {
	exec := r.getExecutor(tx)
	logger := r.logger.With(
		"component", "planet_repository",
		"operation", "delete",
		"planet_id", p.ID,
		"coords", p.DisplayKey,
	)

	res, err := exec.ExecContext(ctx, `DELETE FROM planets WHERE id = $1`, p.ID)
	if err != nil {
		logger.Error("Failed to delete planet", "error", err)
		return errors.WrapInternal("failed to delete planet", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return errors.NotFoundf("planet %s not found", p.DisplayKey)
	}

	logger.Debug("Planet deleted")
	return nil
}

// ListByPlayer returns a player's planets ordered by sort key.
func (r *Repository) ListByPlayer(ctx context.Context, playerID int64, tx *database.Tx) ([]Planet, error) {
	exec := r.getExecutor(tx)
	logger := r.logger.With("component", "planet_repository", "operation", "list_by_player", "player_id", playerID)

	query := `SELECT ` + planetColumns + ` FROM planets WHERE player_id = $1 ORDER BY sort_key`

	rows, err := exec.QueryContext(ctx, query, playerID)
	if err != nil {
		logger.Error("Failed to query planets", "error", err)
		return nil, errors.WrapInternal("failed to query planets", err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			logger.Error("Failed to close rows", "error", err)
		}
	}()

	var planets []Planet
	for rows.Next() {
		p, err := scanPlanet(rows)
		if err != nil {
			logger.Error("Failed to scan planet row", "error", err)
			return nil, errors.WrapInternal("failed to scan planet", err)
		}
		planets = append(planets, *p)
	}

	if err := rows.Err(); err != nil {
		logger.Error("Error during rows iteration", "error", err)
		return nil, errors.WrapInternal("error iterating planets", err)
	}

	logger.Debug("Planets retrieved", "count", len(planets))
	return planets, nil
}

func (r *Repository) Count(ctx context.Context, tx *database.Tx) (int, error) {
	var count int
	if err := r.getExecutor(tx).QueryRowContext(ctx, `SELECT COUNT(*) FROM planets`).Scan(&count); err != nil {
		r.logger.Error("Failed to count planets", "component", "planet_repository", "error", err)
		return 0, errors.WrapInternal("failed to count planets", err)
	}
	return count, nil
}
