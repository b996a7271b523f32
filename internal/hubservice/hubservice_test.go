// FilePath: internal/hubservice/hubservice_test.go
package hubservice

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/smartir/hub/internal/errors"
	"github.com/smartir/hub/internal/models"
	"github.com/smartir/hub/internal/repository/memory"
)

// capturePublisher records broadcast events in order.
type capturePublisher struct {
	mu     sync.Mutex
	events []models.UpdateEvent
}

func (p *capturePublisher) Broadcast(event interface{}) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if update, ok := event.(models.UpdateEvent); ok {
		p.events = append(p.events, update)
	}
	return nil
}

func (p *capturePublisher) all() []models.UpdateEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]models.UpdateEvent(nil), p.events...)
}

// failingLogs makes every insert fail while delegating everything else.
type failingLogs struct {
	*memory.SensorLogRepo
}

func (f failingLogs) Insert(ctx context.Context, log *models.SensorLog) error {
	return errors.NewDatabaseError("insert failed", nil)
}

func newTestService() (*HubService, *memory.Store, *capturePublisher) {
	store := memory.NewStore()
	publisher := &capturePublisher{}
	svc := New(store.Sensors(), store.SensorLogs(), store.Users(), publisher, nil)
	return svc, store, publisher
}

func TestRecordDetectionAutoRegisters(t *testing.T) {
	svc, store, publisher := newTestService()
	ctx := context.Background()

	log, sensor, err := svc.RecordDetection(ctx, "esp32-001", true)
	if err != nil {
		t.Fatalf("record: %v", err)
	}
	if log.ID == 0 {
		t.Error("log not assigned an id")
	}
	if sensor.Location != models.AutoRegisteredLocation {
		t.Errorf("location = %q, want %q", sensor.Location, models.AutoRegisteredLocation)
	}
	if sensor.LastSeen == nil {
		t.Error("last seen not set on first contact")
	}

	stored, err := store.Sensors().GetByCode(ctx, "esp32-001")
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if stored.ID != sensor.ID {
		t.Errorf("stored id %d, returned %d", stored.ID, sensor.ID)
	}

	events := publisher.all()
	if len(events) != 1 {
		t.Fatalf("broadcast %d events, want 1", len(events))
	}
	if events[0].Sensor != "esp32-001" || !events[0].Detected {
		t.Errorf("event = %+v", events[0])
	}
}

func TestRecordDetectionReusesKnownSensor(t *testing.T) {
	svc, store, _ := newTestService()
	ctx := context.Background()

	_, first, err := svc.RecordDetection(ctx, "door-1", true)
	if err != nil {
		t.Fatalf("first record: %v", err)
	}
	_, second, err := svc.RecordDetection(ctx, "door-1", false)
	if err != nil {
		t.Fatalf("second record: %v", err)
	}
	if first.ID != second.ID {
		t.Errorf("sensor re-registered: ids %d and %d", first.ID, second.ID)
	}

	sensors, err := store.Sensors().List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(sensors) != 1 {
		t.Errorf("%d sensors, want 1", len(sensors))
	}

	count, err := store.SensorLogs().Count(ctx)
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 2 {
		t.Errorf("%d logs, want 2", count)
	}
}

func TestRecordDetectionRejectsBlankCode(t *testing.T) {
	svc, _, publisher := newTestService()

	for _, code := range []string{"", "   ", "\t"} {
		_, _, err := svc.RecordDetection(context.Background(), code, true)
		if !errors.IsValidation(err) {
			t.Errorf("code %q: expected validation error, got %v", code, err)
		}
	}
	if len(publisher.all()) != 0 {
		t.Error("broadcast happened for rejected input")
	}
}

func TestRecordDetectionNoBroadcastOnStoreFault(t *testing.T) {
	store := memory.NewStore()
	publisher := &capturePublisher{}
	svc := New(store.Sensors(), failingLogs{store.SensorLogs()}, store.Users(), publisher, nil)

	_, _, err := svc.RecordDetection(context.Background(), "esp32-001", true)
	if err == nil {
		t.Fatal("expected insert failure to surface")
	}
	if len(publisher.all()) != 0 {
		t.Error("broadcast happened for an observation that was never stored")
	}
}

func TestConcurrentRegistrationSameCode(t *testing.T) {
	svc, store, publisher := newTestService()
	ctx := context.Background()

	const workers = 8
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, _, err := svc.RecordDetection(ctx, "racer-1", true); err != nil {
				t.Errorf("record: %v", err)
			}
		}()
	}
	wg.Wait()

	sensors, err := store.Sensors().List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(sensors) != 1 {
		t.Fatalf("%d sensor rows for one code, want 1", len(sensors))
	}

	count, err := store.SensorLogs().Count(ctx)
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != workers {
		t.Errorf("%d logs, want %d", count, workers)
	}
	if got := len(publisher.all()); got != workers {
		t.Errorf("%d broadcasts, want %d", got, workers)
	}
}

func TestUpdateSensorValidatesStatus(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	_, sensor, err := svc.RecordDetection(ctx, "door-1", false)
	if err != nil {
		t.Fatalf("seed: %v", err)
	}

	bogus := models.SensorStatus("broken")
	if _, err := svc.UpdateSensor(ctx, sensor.ID, models.SensorUpdate{Status: &bogus}); !errors.IsValidation(err) {
		t.Errorf("expected validation error, got %v", err)
	}

	inactive := models.SensorInactive
	location := "Garage"
	updated, err := svc.UpdateSensor(ctx, sensor.ID, models.SensorUpdate{Status: &inactive, Location: &location})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Status != models.SensorInactive || updated.Location != "Garage" {
		t.Errorf("updated = %+v", updated)
	}

	if _, err := svc.UpdateSensor(ctx, 9999, models.SensorUpdate{Location: &location}); !errors.IsNotFound(err) {
		t.Errorf("expected not found for unknown id, got %v", err)
	}
}

func TestStatsCountsDetectionsOnly(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	if _, _, err := svc.RecordDetection(ctx, "door-1", true); err != nil {
		t.Fatalf("record: %v", err)
	}
	if _, _, err := svc.RecordDetection(ctx, "door-1", false); err != nil {
		t.Fatalf("record: %v", err)
	}
	if _, _, err := svc.RecordDetection(ctx, "door-2", true); err != nil {
		t.Fatalf("record: %v", err)
	}

	stats, err := svc.Stats(ctx)
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if stats.Total != 2 {
		t.Errorf("total = %d, want 2 (clear reports excluded)", stats.Total)
	}
	if stats.Today != 2 {
		t.Errorf("today = %d, want 2", stats.Today)
	}
	if stats.LastDetection == nil {
		t.Fatal("last detection missing")
	}
	if stats.LastSensor == nil || *stats.LastSensor != "door-2" {
		t.Errorf("last sensor = %v, want door-2", stats.LastSensor)
	}
}

func TestStatsEmptyStore(t *testing.T) {
	svc, _, _ := newTestService()

	stats, err := svc.Stats(context.Background())
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if stats.Today != 0 || stats.Total != 0 {
		t.Errorf("counts = %d/%d, want 0/0", stats.Today, stats.Total)
	}
	if stats.LastDetection != nil || stats.LastSensor != nil {
		t.Error("expected null last detection on empty store")
	}
}

func TestActivityBucketsByLocalHour(t *testing.T) {
	svc, store, _ := newTestService()
	ctx := context.Background()

	_, sensor, err := svc.RecordDetection(ctx, "door-1", true)
	if err != nil {
		t.Fatalf("seed: %v", err)
	}

	// Two more detections pinned to the start of the current hour.
	now := time.Now()
	pinned := time.Date(now.Year(), now.Month(), now.Day(), now.Hour(), 0, 0, 0, now.Location())
	for i := 0; i < 2; i++ {
		log := &models.SensorLog{SensorID: sensor.ID, Detected: true, Timestamp: pinned}
		if err := store.SensorLogs().Insert(ctx, log); err != nil {
			t.Fatalf("insert: %v", err)
		}
	}

	activity, err := svc.Activity(ctx)
	if err != nil {
		t.Fatalf("activity: %v", err)
	}
	if len(activity.Hours) != 24 || len(activity.Detections) != 24 {
		t.Fatalf("bucket count = %d/%d, want 24", len(activity.Hours), len(activity.Detections))
	}
	if activity.Hours[0] != "00:00" || activity.Hours[23] != "23:00" {
		t.Errorf("hour labels = %q..%q", activity.Hours[0], activity.Hours[23])
	}

	total := 0
	for _, n := range activity.Detections {
		total += n
	}
	if total != 3 {
		t.Errorf("bucketed %d detections, want 3", total)
	}
	if activity.Detections[now.Hour()] < 2 {
		t.Errorf("current hour bucket = %d, want at least 2", activity.Detections[now.Hour()])
	}
}

func TestRecentLogsDefaultLimit(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	for i := 0; i < 15; i++ {
		if _, _, err := svc.RecordDetection(ctx, "door-1", true); err != nil {
			t.Fatalf("record %d: %v", i, err)
		}
	}

	entries, err := svc.RecentLogs(ctx, 0)
	if err != nil {
		t.Fatalf("recent logs: %v", err)
	}
	if len(entries) != 10 {
		t.Errorf("default limit returned %d entries, want 10", len(entries))
	}

	entries, err = svc.RecentLogs(ctx, 5)
	if err != nil {
		t.Fatalf("recent logs: %v", err)
	}
	if len(entries) != 5 {
		t.Errorf("limit 5 returned %d entries", len(entries))
	}
	if entries[0].SensorCode == nil || *entries[0].SensorCode != "door-1" {
		t.Errorf("entry sensor code = %v", entries[0].SensorCode)
	}
}

func TestDashboardCounts(t *testing.T) {
	svc, store, _ := newTestService()
	ctx := context.Background()

	if _, _, err := svc.RecordDetection(ctx, "door-1", true); err != nil {
		t.Fatalf("record: %v", err)
	}
	if _, _, err := svc.RecordDetection(ctx, "door-2", false); err != nil {
		t.Fatalf("record: %v", err)
	}

	admin, err := models.NewUser("admin", "pw", "", models.RoleAdmin)
	if err != nil {
		t.Fatalf("new user: %v", err)
	}
	if err := store.Users().Create(ctx, admin); err != nil {
		t.Fatalf("create user: %v", err)
	}
	disabled, err := models.NewUser("olduser", "pw", "", models.RoleUser)
	if err != nil {
		t.Fatalf("new user: %v", err)
	}
	disabled.IsActive = false
	if err := store.Users().Create(ctx, disabled); err != nil {
		t.Fatalf("create user: %v", err)
	}

	counts, err := svc.Dashboard(ctx)
	if err != nil {
		t.Fatalf("dashboard: %v", err)
	}
	if counts.Users.Total != 2 || counts.Users.Active != 1 {
		t.Errorf("users = %+v", counts.Users)
	}
	if counts.Sensors.Total != 2 || counts.Sensors.Active != 2 {
		t.Errorf("sensors = %+v", counts.Sensors)
	}
	if counts.Logs != 2 {
		t.Errorf("logs = %d, want 2", counts.Logs)
	}
}

func TestValidate(t *testing.T) {
	svc, _, _ := newTestService()
	if err := svc.Validate(); err != nil {
		t.Errorf("validate: %v", err)
	}

	svc.Registry = nil
	if err := svc.Validate(); err == nil {
		t.Error("expected error with missing registry")
	}
}
