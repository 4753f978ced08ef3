package datalog

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"frc-targeting/internal/target"
)

func newTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := NewDB(filepath.Join(t.TempDir(), "datalog.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestRecordBatch(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	at := time.Date(2014, 3, 1, 12, 0, 0, 0, time.UTC)

	first := []target.Target{
		{Side: target.SideRight, Distance: 17.5, Angle: -14.3, IsHot: true, Confidence: 100},
		{Side: target.SideUnknown, Distance: 20, Angle: 3},
	}
	require.NoError(t, db.RecordBatch(ctx, "conn-a", at, first))
	require.NoError(t, db.RecordBatch(ctx, "conn-a", at.Add(time.Second), []target.Target{target.NoTargets()}))

	batches, err := db.RecentBatches(ctx, 10)
	require.NoError(t, err)
	require.Len(t, batches, 2)

	assert.True(t, target.IsSentinel(batches[0].Targets))
	assert.True(t, batches[0].ReceivedAt.Equal(at.Add(time.Second)))

	assert.Equal(t, "conn-a", batches[1].ConnID)
	if diff := cmp.Diff(first, batches[1].Targets); diff != "" {
		t.Errorf("stored targets mismatch (-want +got):\n%s", diff)
	}

	limited, err := db.RecentBatches(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}

func TestRecordEvent(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	at := time.Date(2014, 3, 1, 12, 0, 0, 0, time.UTC)

	require.NoError(t, db.RecordEvent(ctx, at, "script", "two_ball.as"))
	require.NoError(t, db.RecordEvent(ctx, at.Add(time.Second), "aim_tolerance", 1.5))

	events, err := db.Events(ctx, 10)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, "aim_tolerance", events[0].Name)
	assert.Equal(t, "1.5", events[0].Value)
	assert.Equal(t, "two_ball.as", events[1].Value)
}

func TestReopenKeepsData(t *testing.T) {
	path := filepath.Join(t.TempDir(), "datalog.db")
	db, err := NewDB(path)
	require.NoError(t, err)
	require.NoError(t, db.RecordBatch(context.Background(), "c", time.Now(), []target.Target{{Side: target.SideLeft}}))
	require.NoError(t, db.Close())

	db, err = NewDB(path)
	require.NoError(t, err)
	defer db.Close()
	batches, err := db.RecentBatches(context.Background(), 5)
	require.NoError(t, err)
	assert.Len(t, batches, 1)
}

func TestBackupRoute(t *testing.T) {
	db := newTestDB(t)
	require.NoError(t, db.RecordEvent(context.Background(), time.Now(), "boot", 1))

	mux := http.NewServeMux()
	db.AttachAdminRoutes(mux)

	req := httptest.NewRequest(http.MethodGet, "/debug/datalog-backup", nil)
	req.RemoteAddr = "127.0.0.1:12345"
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "datalog-")
	assert.True(t, len(rec.Body.Bytes()) > 0)
	assert.Equal(t, "SQLite format 3\x00", string(rec.Body.Bytes()[:16]))
}
