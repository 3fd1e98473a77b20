package player

import (
	"context"
	"database/sql"
	"log/slog"

	"coords-bot/internal/shared/database"
	"coords-bot/internal/shared/errors"
	"coords-bot/internal/shared/normalize"
)

const playerColumns = `id, name, alliance_id, wsa_weapons, wsa_shields, wsa_armor`

type Repository struct {
	db     *database.DB
	logger *slog.Logger
}

func NewRepository(db *database.DB, logger *slog.Logger) *Repository {
	logger.Debug("Initializing player repository")

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

func scanPlayer(row rowScanner) (*Player, error) {
	var (
		p                       Player
		allianceID              sql.NullInt64
		weapons, shields, armor sql.NullString
	)
	if err := row.Scan(&p.ID, &p.Name, &allianceID, &weapons, &shields, &armor); err != nil {
		return nil, err
	}
	if allianceID.Valid {
		id := allianceID.Int64
		p.AllianceID = &id
	}
	if weapons.Valid && shields.Valid && armor.Valid {
		p.WSA = &WSA{
			Weapons: weapons.String,
			Shields: shields.String,
			Armor:   armor.String,
		}
	}
	return &p, nil
}

// FindByName returns the stored player or a not_found error. The name is
// normalized before lookup.
func (r *Repository) FindByName(ctx context.Context, name string, tx *database.Tx) (*Player, error) {
	name = normalize.Name(name)
	logger := r.logger.With(
		"component", "player_repository",
		"operation", "find_by_name",
		"player", name,
	)

	query := `SELECT ` + playerColumns + ` FROM players WHERE name = $1`

	p, err := scanPlayer(r.getExecutor(tx).QueryRowContext(ctx, query, name))
	if err != nil {
		if err == sql.ErrNoRows {
			logger.Debug("Player not found")
			return nil, errors.NotFoundf("player %s not found", name)
		}
		logger.Error("Failed to query player", "error", err)
		return nil, errors.WrapInternal("failed to query player", err)
	}
	return p, nil
}

// GetOrCreate returns the stored player or a new unsaved one with the
// normalized name. Nothing is written until Save.
func (r *Repository) GetOrCreate(ctx context.Context, name string, tx *database.Tx) (*Player, error) {
	p, err := r.FindByName(ctx, name, tx)
	if errors.IsNotFound(err) {
		return New(normalize.Name(name)), nil
	}
	return p, err
}

// Save inserts p when no player has its name and sets p.ID. An existing row
// is left as stored; SetAlliance and SetWSA change individual columns so
// concurrent commands on the same player never overwrite each other.
func (r *Repository) Save(ctx context.Context, p *Player, tx *database.Tx) error {
	logger := r.logger.With(
		"component", "player_repository",
		"operation", "save",
		"player", p.Name,
	)

	var allianceID sql.NullInt64
	if p.AllianceID != nil {
		allianceID = sql.NullInt64{Int64: *p.AllianceID, Valid: true}
	}
	weapons, shields, armor := wsaColumns(p.WSA)

	// The no-op update lets RETURNING report the id of an existing row.
	query := `
		INSERT INTO players (name, alliance_id, wsa_weapons, wsa_shields, wsa_armor)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (name) DO UPDATE SET name = EXCLUDED.name
		RETURNING id
	`

	err := r.getExecutor(tx).QueryRowContext(ctx, query,
		p.Name,
		allianceID,
		weapons,
		shields,
		armor,
	).Scan(&p.ID)
	if err != nil {
		logger.Error("Failed to save player", "error", err)
		return errors.WrapInternal("failed to save player", err)
	}

	logger.Debug("Player saved", "player_id", p.ID)
	return nil
}

// SetAlliance upserts p with allianceID, touching no other column.
func (r *Repository) SetAlliance(ctx context.Context, p *Player, allianceID int64, tx *database.Tx) error {
	logger := r.logger.With(
		"component", "player_repository",
		"operation", "set_alliance",
		"player", p.Name,
		"alliance_id", allianceID,
	)

	query := `
		INSERT INTO players (name, alliance_id)
		VALUES ($1, $2)
		ON CONFLICT (name) DO UPDATE SET alliance_id = EXCLUDED.alliance_id
		RETURNING id
	`

	if err := r.getExecutor(tx).QueryRowContext(ctx, query, p.Name, allianceID).Scan(&p.ID); err != nil {
		logger.Error("Failed to set player alliance", "error", err)
		return errors.WrapInternal("failed to set player alliance", err)
	}

	p.AllianceID = &allianceID
	logger.Debug("Player alliance set", "player_id", p.ID)
	return nil
}

// SetWSA upserts p with wsa, touching no other column.
func (r *Repository) SetWSA(ctx context.Context, p *Player, wsa WSA, tx *database.Tx) error {
	logger := r.logger.With(
		"component", "player_repository",
		"operation", "set_wsa",
		"player", p.Name,
	)

	weapons, shields, armor := wsaColumns(&wsa)
	query := `
		INSERT INTO players (name, wsa_weapons, wsa_shields, wsa_armor)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (name) DO UPDATE SET
			wsa_weapons = EXCLUDED.wsa_weapons,
			wsa_shields = EXCLUDED.wsa_shields,
			wsa_armor = EXCLUDED.wsa_armor
		RETURNING id
	`

	err := r.getExecutor(tx).QueryRowContext(ctx, query, p.Name, weapons, shields, armor).Scan(&p.ID)
	if err != nil {
		logger.Error("Failed to set player wsa", "error", err)
		return errors.WrapInternal("failed to set player wsa", err)
	}

	p.WSA = &wsa
	logger.Debug("Player wsa set", "player_id", p.ID)
	return nil
}

func wsaColumns(w *WSA) (weapons, shields, armor sql.NullString) {
	if w == nil {
		return
	}
	return sql.NullString{String: w.Weapons, Valid: true},
		sql.NullString{String: w.Shields, Valid: true},
		sql.NullString{String: w.Armor, Valid: true}
}

// ListByAlliance returns the members of an alliance ordered by name.
func (r *Repository) ListByAlliance(ctx context.Context, allianceID int64, tx *database.Tx) ([]Player, error) {
	logger := r.logger.With("component", "player_repository", "operation", "list_by_alliance", "alliance_id", allianceID)

	query := `SELECT ` + playerColumns + ` FROM players WHERE alliance_id = $1 ORDER BY name`

	rows, err := r.getExecutor(tx).QueryContext(ctx, query, allianceID)
	if err != nil {
		logger.Error("Failed to query players", "error", err)
		return nil, errors.WrapInternal("failed to query players", err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			logger.Error("Failed to close rows", "error", err)
		}
	}()

	var players []Player
	for rows.Next() {
		p, err := scanPlayer(rows)
		if err != nil {
			logger.Error("Failed to scan player row", "error", err)
			return nil, errors.WrapInternal("failed to scan player", err)
		}
		players = append(players, *p)
	}

	if err := rows.Err(); err != nil {
		logger.Error("Error during rows iteration", "error", err)
		return nil, errors.WrapInternal("error iterating players", err)
	}

	logger.Debug("Players retrieved", "count", len(players))
	return players, nil
}

func (r *Repository) Count(ctx context.Context, tx *database.Tx) (int, error) {
	var count int
	if err := r.getExecutor(tx).QueryRowContext(ctx, `SELECT COUNT(*) FROM players`).Scan(&count); err != nil {
		r.logger.Error("Failed to count players", "component", "player_repository", "error", err)
		return 0, errors.WrapInternal("failed to count players", err)
	}
	return count, nil
}
