// FilePath: internal/repository/memory/memory.go

// Package memory provides in-memory implementations of the repository
// interfaces. It backs the "memory" database driver for local development
// and is the store used by the test suite, so no database is needed to run
// either.
package memory

import (
	"context"
	"database/sql"
	"sort"
	"sync"
	"time"

	"github.com/smartir/hub/internal/database"
	"github.com/smartir/hub/internal/errors"
	"github.com/smartir/hub/internal/models"
)

// Store holds all in-memory state behind one mutex. The postgres driver
// gets isolation from the database; here the store lock stands in for it.
type Store struct {
	mu           sync.Mutex
	sensors      map[int64]*models.Sensor
	sensorByCode map[string]int64
	logs         []*models.SensorLog
	users        map[int64]*models.User
	userByName   map[string]int64
	nextSensorID int64
	nextLogID    int64
	nextUserID   int64
}

func NewStore() *Store {
	return &Store{
		sensors:      make(map[int64]*models.Sensor),
		sensorByCode: make(map[string]int64),
		users:        make(map[int64]*models.User),
		userByName:   make(map[string]int64),
	}
}

func (s *Store) Sensors() *SensorRepo     { return &SensorRepo{store: s} }
func (s *Store) SensorLogs() *SensorLogRepo { return &SensorLogRepo{store: s} }
func (s *Store) Users() *UserRepo         { return &UserRepo{store: s} }

// noopTx satisfies database.Transaction; the store has no real transactions.
type noopTx struct{}

func (noopTx) Commit() error   { return nil }
func (noopTx) Rollback() error { return nil }
func (noopTx) ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error) {
	return nil, nil
}

type SensorRepo struct {
	store *Store
}

func (r *SensorRepo) BeginTx(ctx context.Context) (database.Transaction, error) {
	return noopTx{}, nil
}

func (r *SensorRepo) Create(ctx context.Context, sensor *models.Sensor) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.sensorByCode[sensor.Code]; exists {
		return errors.NewConflictError("sensor code already registered", nil)
	}
	s.nextSensorID++
	sensor.ID = s.nextSensorID
	stored := *sensor
	s.sensors[sensor.ID] = &stored
	s.sensorByCode[sensor.Code] = sensor.ID
	return nil
}

func (r *SensorRepo) Get(ctx context.Context, id int64) (*models.Sensor, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	sensor, ok := s.sensors[id]
	if !ok {
		return nil, errors.NewNotFoundError("sensor not found", nil)
	}
	copied := *sensor
	return &copied, nil
}

func (r *SensorRepo) GetByCode(ctx context.Context, code string) (*models.Sensor, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	id, ok := s.sensorByCode[code]
	if !ok {
		return nil, errors.NewNotFoundError("sensor not found", nil)
	}
	copied := *s.sensors[id]
	return &copied, nil
}

func (r *SensorRepo) Update(ctx context.Context, id int64, update models.SensorUpdate) (*models.Sensor, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	sensor, ok := s.sensors[id]
	if !ok {
		return nil, errors.NewNotFoundError("sensor not found", nil)
	}
	if update.Location != nil {
		sensor.Location = *update.Location
	}
	if update.Status != nil {
		sensor.Status = *update.Status
	}
	copied := *sensor
	return &copied, nil
}

func (r *SensorRepo) UpdateLastSeen(ctx context.Context, id int64, lastSeen time.Time) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	sensor, ok := s.sensors[id]
	if !ok {
		return errors.NewNotFoundError("sensor not found", nil)
	}
	ts := lastSeen
	sensor.LastSeen = &ts
	return nil
}

func (r *SensorRepo) List(ctx context.Context) ([]*models.Sensor, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	sensors := make([]*models.Sensor, 0, len(s.sensors))
	for _, sensor := range s.sensors {
		copied := *sensor
		sensors = append(sensors, &copied)
	}
	sort.Slice(sensors, func(i, j int) bool {
		return sensors[i].CreatedAt.After(sensors[j].CreatedAt)
	})
	return sensors, nil
}

func (r *SensorRepo) Count(ctx context.Context, onlyActive bool) (int64, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	count := int64(0)
	for _, sensor := range s.sensors {
		if !onlyActive || sensor.Status == models.SensorActive {
			count++
		}
	}
	return count, nil
}

type SensorLogRepo struct {
	store *Store
}

func (r *SensorLogRepo) BeginTx(ctx context.Context) (database.Transaction, error) {
	return noopTx{}, nil
}

func (r *SensorLogRepo) Insert(ctx context.Context, log *models.SensorLog) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	if log.Timestamp.IsZero() {
		log.Timestamp = time.Now().UTC()
	}
	s.nextLogID++
	log.ID = s.nextLogID
	stored := *log
	s.logs = append(s.logs, &stored)
	return nil
}

func (r *SensorLogRepo) ListRecent(ctx context.Context, limit int) ([]models.SensorLogEntry, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	sorted := make([]*models.SensorLog, len(s.logs))
	copy(sorted, s.logs)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Timestamp.After(sorted[j].Timestamp)
	})

	entries := []models.SensorLogEntry{}
	for _, log := range sorted {
		if len(entries) == limit {
			break
		}
		entries = append(entries, s.entryForLog(log))
	}
	return entries, nil
}

func (r *SensorLogRepo) ListDetectedSince(ctx context.Context, since time.Time) ([]models.SensorLog, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	logs := []models.SensorLog{}
	for _, log := range s.logs {
		if log.Detected && !log.Timestamp.Before(since) {
			logs = append(logs, *log)
		}
	}
	sort.Slice(logs, func(i, j int) bool {
		return logs[i].Timestamp.Before(logs[j].Timestamp)
	})
	return logs, nil
}

func (r *SensorLogRepo) LatestDetection(ctx context.Context) (*models.SensorLogEntry, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	var latest *models.SensorLog
	for _, log := range s.logs {
		if !log.Detected {
			continue
		}
		if latest == nil || log.Timestamp.After(latest.Timestamp) {
			latest = log
		}
	}
	if latest == nil {
		return nil, nil
	}
	entry := s.entryForLog(latest)
	return &entry, nil
}

func (r *SensorLogRepo) CountDetected(ctx context.Context, since *time.Time) (int64, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	count := int64(0)
	for _, log := range s.logs {
		if !log.Detected {
			continue
		}
		if since != nil && log.Timestamp.Before(*since) {
			continue
		}
		count++
	}
	return count, nil
}

func (r *SensorLogRepo) Count(ctx context.Context) (int64, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()
	return int64(len(s.logs)), nil
}

func (r *SensorLogRepo) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	kept := s.logs[:0]
	deleted := int64(0)
	for _, log := range s.logs {
		if log.Timestamp.Before(cutoff) {
			deleted++
			continue
		}
		kept = append(kept, log)
	}
	s.logs = kept
	return deleted, nil
}

// entryForLog joins a log with its sensor; caller holds the store lock.
func (s *Store) entryForLog(log *models.SensorLog) models.SensorLogEntry {
	entry := models.SensorLogEntry{
		ID:        log.ID,
		Detected:  log.Detected,
		Timestamp: log.Timestamp,
	}
	if sensor, ok := s.sensors[log.SensorID]; ok {
		code, location := sensor.Code, sensor.Location
		entry.SensorCode = &code
		entry.Location = &location
	}
	return entry
}

type UserRepo struct {
	store *Store
}

func (r *UserRepo) BeginTx(ctx context.Context) (database.Transaction, error) {
	return noopTx{}, nil
}

func (r *UserRepo) Create(ctx context.Context, user *models.User) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.userByName[user.Username]; exists {
		return errors.NewConflictError("username already taken", nil)
	}
	s.nextUserID++
	user.ID = s.nextUserID
	stored := *user
	s.users[user.ID] = &stored
	s.userByName[user.Username] = user.ID
	return nil
}

func (r *UserRepo) Get(ctx context.Context, id int64) (*models.User, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.users[id]
	if !ok {
		return nil, errors.NewNotFoundError("user not found", nil)
	}
	copied := *user
	return &copied, nil
}

func (r *UserRepo) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	id, ok := s.userByName[username]
	if !ok {
		return nil, errors.NewNotFoundError("user not found", nil)
	}
	copied := *s.users[id]
	return &copied, nil
}

func (r *UserRepo) List(ctx context.Context) ([]*models.User, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	users := make([]*models.User, 0, len(s.users))
	for _, user := range s.users {
		copied := *user
		users = append(users, &copied)
	}
	sort.Slice(users, func(i, j int) bool {
		return users[i].ID < users[j].ID
	})
	return users, nil
}

func (r *UserRepo) UpdateLastLogin(ctx context.Context, id int64, lastLogin time.Time) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.users[id]
	if !ok {
		return errors.NewNotFoundError("user not found", nil)
	}
	ts := lastLogin
	user.LastLogin = &ts
	return nil
}

func (r *UserRepo) SetActive(ctx context.Context, id int64, active bool) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.users[id]
	if !ok {
		return errors.NewNotFoundError("user not found", nil)
	}
	user.IsActive = active
	return nil
}

func (r *UserRepo) Count(ctx context.Context, onlyActive bool) (int64, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	count := int64(0)
	for _, user := range s.users {
		if !onlyActive || user.IsActive {
			count++
		}
	}
	return count, nil
}
