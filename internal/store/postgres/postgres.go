package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"medverify/backend/internal/domain"
	"medverify/backend/internal/store"
)

type Store struct {
	db *sql.DB
}

func New(ctx context.Context, databaseURL string) (*Store, error) {
	db, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return nil, err
	}

	db.SetMaxIdleConns(8)
	db.SetMaxOpenConns(30)
	db.SetConnMaxLifetime(30 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 6*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, err
	}

	s := &Store{db: db}
	if err := s.ensureSchema(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) ensureSchema(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS scan_history (
			primary_key   text PRIMARY KEY,
			gtin          text NOT NULL,
			batch_number  text NOT NULL DEFAULT '',
			serial_number text NOT NULL DEFAULT '',
			status        text NOT NULL,
			record        jsonb NOT NULL,
			created_at    timestamptz NOT NULL
		);
		CREATE INDEX IF NOT EXISTS scan_history_created_at_idx ON scan_history (created_at DESC);

		CREATE TABLE IF NOT EXISTS user_accounts (
			username   text PRIMARY KEY,
			password   text NOT NULL,
			role       text NOT NULL,
			active     boolean NOT NULL DEFAULT true,
			created_at timestamptz NOT NULL
		);
	`)
	return err
}

func (s *Store) GetScan(ctx context.Context, primaryKey string) (*domain.HistoryRecord, error) {
	var payload []byte
	err := s.db.QueryRowContext(ctx, `
		SELECT record
		FROM scan_history
		WHERE primary_key = $1
	`, primaryKey).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	var record domain.HistoryRecord
	if err := json.Unmarshal(payload, &record); err != nil {
		return nil, err
	}
	return &record, nil
}

// InsertScanIfAbsent relies on the primary-key constraint for atomicity: the
// insert is a no-op when a row already exists, and the committed row is read
// back in both cases so racing writers all observe the same record.
func (s *Store) InsertScanIfAbsent(ctx context.Context, record domain.HistoryRecord) (*domain.HistoryRecord, error) {
	payload, err := json.Marshal(record)
	if err != nil {
		return nil, err
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO scan_history (primary_key, gtin, batch_number, serial_number, status, record, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (primary_key) DO NOTHING
	`, record.PrimaryKey, record.Fields.GTIN, record.Fields.BatchNumber,
		record.Fields.SerialNumber, string(record.Status), payload, record.CreatedAt)
	if err != nil {
		return nil, err
	}

	return s.GetScan(ctx, record.PrimaryKey)
}

func (s *Store) ListScans(ctx context.Context, limit int) ([]domain.HistoryRecord, error) {
	if limit < 1 {
		limit = 50
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT record
		FROM scan_history
		ORDER BY created_at DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	records := make([]domain.HistoryRecord, 0, limit)
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, err
		}
		var record domain.HistoryRecord
		if err := json.Unmarshal(payload, &record); err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return records, nil
}

func (s *Store) CreateUser(ctx context.Context, user domain.UserAccount) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO user_accounts (username, password, role, active, created_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (username) DO NOTHING
	`, user.Username, user.Password, user.Role, user.Active, user.CreatedAt)
	return err
}

func (s *Store) ListUsers(ctx context.Context) ([]domain.UserAccount, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT username, password, role, active, created_at
		FROM user_accounts
		ORDER BY username
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := make([]domain.UserAccount, 0, 8)
	for rows.Next() {
		var user domain.UserAccount
		if err := rows.Scan(&user.Username, &user.Password, &user.Role, &user.Active, &user.CreatedAt); err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return users, nil
}
