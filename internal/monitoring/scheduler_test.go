package monitoring

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/isdelr/blog-api/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeEvents struct {
	mu        sync.Mutex
	calls     []time.Duration
	pruneErr  error
	pruneDone chan struct{}
}

func (f *fakeEvents) CreateEvent(ctx context.Context, eventType, level, message string, userID *int64) error {
	return nil
}

func (f *fakeEvents) GetRecentEvents(ctx context.Context, userID int64, limit int) ([]models.Event, error) {
	return nil, nil
}

func (f *fakeEvents) PruneEvents(ctx context.Context, olderThan time.Duration) (int64, error) {
	f.mu.Lock()
	f.calls = append(f.calls, olderThan)
	f.mu.Unlock()
	if f.pruneDone != nil {
		select {
		case f.pruneDone <- struct{}{}:
		default:
		}
	}
	return 3, f.pruneErr
}

func (f *fakeEvents) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func TestNewScheduler_InvalidSchedule(t *testing.T) {
	_, err := NewScheduler(&fakeEvents{}, "not a schedule", time.Hour)
	assert.Error(t, err)
}

func TestScheduler_RunPrunesImmediatelyAndStops(t *testing.T) {
	events := &fakeEvents{pruneDone: make(chan struct{}, 1)}
	s, err := NewScheduler(events, "0 3 * * *", 48*time.Hour)
	require.NoError(t, err)

	stopped := make(chan struct{})
	go func() {
		s.Run()
		close(stopped)
	}()

	select {
	case <-events.pruneDone:
	case <-time.After(time.Second):
		t.Fatal("prune did not run on start")
	}

	s.Stop()
	s.Stop()
	select {
	case <-stopped:
	case <-time.After(time.Second):
		t.Fatal("scheduler did not stop")
	}

	require.Equal(t, 1, events.callCount())
	assert.Equal(t, 48*time.Hour, events.calls[0])
}

func TestScheduler_PruneErrorIsLogged(t *testing.T) {
	events := &fakeEvents{pruneErr: errors.New("db down")}
	s, err := NewScheduler(events, "@hourly", time.Hour)
	require.NoError(t, err)

	assert.NotPanics(t, s.pruneEvents)
	assert.Equal(t, 1, events.callCount())
}

type fakeBackups struct {
	created int
	keep    int
	err     error
}

func (f *fakeBackups) CreateBackup(ctx context.Context) (models.Backup, error) {
	if f.err != nil {
		return models.Backup{}, f.err
	}
	f.created++
	return models.Backup{Name: "b"}, nil
}

func (f *fakeBackups) ListBackups() ([]models.Backup, error) { return nil, nil }

func (f *fakeBackups) PruneBackups(keep int) (int, error) {
	f.keep = keep
	return 0, nil
}

func TestScheduler_BackupJob(t *testing.T) {
	s, err := NewScheduler(&fakeEvents{}, "@daily", time.Hour)
	require.NoError(t, err)

	backups := &fakeBackups{}
	assert.Error(t, s.AddBackupJob(backups, "bogus", 3))
	require.NoError(t, s.AddBackupJob(backups, "@daily", 3))

	s.backupDatabase()
	assert.Equal(t, 1, backups.created)
	assert.Equal(t, 3, backups.keep)

	// A failed snapshot skips pruning.
	failing := &fakeBackups{err: errors.New("disk full")}
	s.backupSvc = failing
	s.backupDatabase()
	assert.Equal(t, 0, failing.keep)
}
