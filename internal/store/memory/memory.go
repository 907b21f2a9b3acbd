// Package memory is the in-memory repository used for dev mode and tests.
// All operations are safe for concurrent use.
package memory

import (
	"context"
	"fmt"
	"log"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	"golang.org/x/crypto/bcrypt"

	"medverify/backend/internal/domain"
	"medverify/backend/internal/store"
)

type Store struct {
	mu              sync.RWMutex
	scansByKey      map[string]domain.HistoryRecord
	scanOrder       []string
	usersByUsername map[string]domain.UserAccount
}

func New() *Store {
	return &Store{
		scansByKey:      make(map[string]domain.HistoryRecord),
		scanOrder:       make([]string, 0, 64),
		usersByUsername: make(map[string]domain.UserAccount),
	}
}

// NewSeeded builds a store with dev/demo operator accounts. Credentials come
// from SEED_ADMIN_PASSWORD and SEED_OPERATOR_PASSWORD; hardcoded dev defaults
// are used with a warning when unset.
func NewSeeded() *Store {
	s := New()

	adminPwd := envOr("SEED_ADMIN_PASSWORD", "admin123")
	operatorPwd := envOr("SEED_OPERATOR_PASSWORD", "operator123")
	if os.Getenv("SEED_ADMIN_PASSWORD") == "" || os.Getenv("SEED_OPERATOR_PASSWORD") == "" {
		log.Println("[memory-store] WARNING: using default dev credentials. Set SEED_ADMIN_PASSWORD and SEED_OPERATOR_PASSWORD to override.")
	}

	now := time.Now().UTC()
	for _, u := range []struct {
		username string
		password string
		role     string
	}{
		{"admin", adminPwd, "admin"},
		{"operator", operatorPwd, "operator"},
	} {
		hash, err := bcrypt.GenerateFromPassword([]byte(u.password), bcrypt.DefaultCost)
		if err != nil {
			log.Fatalf("[memory-store] failed to hash seed password for %s: %v", u.username, err)
		}
		s.usersByUsername[u.username] = domain.UserAccount{
			Username:  u.username,
			Password:  string(hash),
			Role:      u.role,
			Active:    true,
			CreatedAt: now,
		}
	}
	return s
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func (s *Store) GetScan(_ context.Context, primaryKey string) (*domain.HistoryRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	record, ok := s.scansByKey[primaryKey]
	if !ok {
		return nil, store.ErrNotFound
	}
	copied := record
	return &copied, nil
}

func (s *Store) InsertScanIfAbsent(_ context.Context, record domain.HistoryRecord) (*domain.HistoryRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := s.scansByKey[record.PrimaryKey]; ok {
		copied := existing
		return &copied, nil
	}

	s.scansByKey[record.PrimaryKey] = record
	s.scanOrder = append(s.scanOrder, record.PrimaryKey)
	copied := record
	return &copied, nil
}

func (s *Store) ListScans(_ context.Context, limit int) ([]domain.HistoryRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	records := make([]domain.HistoryRecord, 0, len(s.scanOrder))
	for i := len(s.scanOrder) - 1; i >= 0; i-- {
		records = append(records, s.scansByKey[s.scanOrder[i]])
		if limit > 0 && len(records) >= limit {
			break
		}
	}
	// Insertion order already approximates recency; make it exact in case
	// records were inserted with out-of-order timestamps.
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].CreatedAt.After(records[j].CreatedAt)
	})
	return records, nil
}

func (s *Store) CreateUser(_ context.Context, user domain.UserAccount) error {
	username := strings.ToLower(strings.TrimSpace(user.Username))
	if username == "" {
		return fmt.Errorf("username required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	user.Username = username
	s.usersByUsername[username] = user
	return nil
}

func (s *Store) ListUsers(_ context.Context) ([]domain.UserAccount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	users := make([]domain.UserAccount, 0, len(s.usersByUsername))
	for _, user := range s.usersByUsername {
		users = append(users, user)
	}
	sort.Slice(users, func(i, j int) bool {
		return users[i].Username < users[j].Username
	})
	return users, nil
}
