package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/clasharena/esp-manager/models"
)

// Ключ снапшота, под которым хранится весь набор лобби.
const snapshotKey = "clash_arena_data"

var ErrSnapshotCorrupted = errors.New("snapshot payload is not valid JSON")

// SnapshotRepository stores the whole set of lobbies as one opaque JSON
// document. In-memory state is the source of truth for a running session;
// the snapshot only has to survive restarts, so Save is best-effort from the
// caller's point of view.
type SnapshotRepository interface {
	Load(ctx context.Context) ([]models.Lobby, error)
	Save(ctx context.Context, lobbies []models.Lobby) error
}

type postgresSnapshotRepository struct {
	db *sql.DB
}

func NewPostgresSnapshotRepository(ctx context.Context, db *sql.DB) (SnapshotRepository, error) {
	repo := &postgresSnapshotRepository{db: db}
	if err := repo.ensureSchema(ctx); err != nil {
		return nil, err
	}
	return repo, nil
}

func (r *postgresSnapshotRepository) ensureSchema(ctx context.Context) error {
	query := `
		CREATE TABLE IF NOT EXISTS snapshots (
			key        TEXT PRIMARY KEY,
			data       JSONB NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL
		)`
	if _, err := r.db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("failed to ensure snapshots table: %w", err)
	}
	return nil
}

// Load returns the saved lobbies. A missing row means an empty session. A
// payload that no longer parses is reported as ErrSnapshotCorrupted; callers
// treat that as empty rather than refusing to start.
func (r *postgresSnapshotRepository) Load(ctx context.Context) ([]models.Lobby, error) {
	var raw []byte
	query := `SELECT data FROM snapshots WHERE key = $1`
	if err := r.db.QueryRowContext(ctx, query, snapshotKey).Scan(&raw); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return []models.Lobby{}, nil
		}
		return nil, fmt.Errorf("failed to load snapshot: %w", err)
	}

	var lobbies []models.Lobby
	if err := json.Unmarshal(raw, &lobbies); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSnapshotCorrupted, err)
	}
	if lobbies == nil {
		lobbies = []models.Lobby{}
	}
	return lobbies, nil
}

func (r *postgresSnapshotRepository) Save(ctx context.Context, lobbies []models.Lobby) error {
	raw, err := json.Marshal(lobbies)
	if err != nil {
		return fmt.Errorf("failed to serialize snapshot: %w", err)
	}

	query := `
		INSERT INTO snapshots (key, data, updated_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (key) DO UPDATE SET data = EXCLUDED.data, updated_at = EXCLUDED.updated_at`
	if _, err := r.db.ExecContext(ctx, query, snapshotKey, raw, time.Now().UTC()); err != nil {
		return fmt.Errorf("failed to save snapshot: %w", err)
	}
	return nil
}
