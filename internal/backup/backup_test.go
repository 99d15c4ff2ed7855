package backup

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/mchalk/repset/internal/database"
)

// mockS3Client implements s3Client for testing.
type mockS3Client struct {
	mu       sync.Mutex
	objects  map[string][]byte
	modified map[string]time.Time
	putErr   error
}

func newMockS3() *mockS3Client {
	return &mockS3Client{
		objects:  make(map[string][]byte),
		modified: make(map[string]time.Time),
	}
}

func (m *mockS3Client) PutObject(_ context.Context, input *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if m.putErr != nil {
		return nil, m.putErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	data, _ := io.ReadAll(input.Body)
	m.objects[*input.Key] = data
	m.modified[*input.Key] = time.Now().UTC()
	return &s3.PutObjectOutput{}, nil
}

func (m *mockS3Client) ListObjectsV2(_ context.Context, input *s3.ListObjectsV2Input, _ ...func(*s3.Options)) (*s3.ListObjectsV2Output, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var contents []types.Object
	for key := range m.objects {
		if input.Prefix != nil && !strings.HasPrefix(key, *input.Prefix) {
			continue
		}
		mod := m.modified[key]
		contents = append(contents, types.Object{Key: aws.String(key), LastModified: &mod})
	}
	return &s3.ListObjectsV2Output{Contents: contents}, nil
}

func (m *mockS3Client) DeleteObject(_ context.Context, input *s3.DeleteObjectInput, _ ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.objects, *input.Key)
	delete(m.modified, *input.Key)
	return &s3.DeleteObjectOutput{}, nil
}

func testConfig() Config {
	return Config{
		Bucket:        "test",
		AccessKey:     "key",
		SecretKey:     "secret",
		RetentionDays: 30,
	}
}

func TestManagerDisabledWithoutCredentials(t *testing.T) {
	m := NewManager(Config{}, nil, nil, slog.New(slog.DiscardHandler))
	if m.Status().State != StateDisabled {
		t.Errorf("state = %q, want %q", m.Status().State, StateDisabled)
	}

	if _, err := m.RunNow(context.Background()); err == nil {
		t.Error("RunNow should fail when disabled")
	}

	// Start on a disabled manager is a no-op; Stop must still be safe.
	m.Start(context.Background())
	m.Stop()
}

func TestManagerIdleWithCredentials(t *testing.T) {
	m := NewManager(testConfig(), nil, nil, slog.New(slog.DiscardHandler))
	if m.Status().State != StateIdle {
		t.Errorf("state = %q, want %q", m.Status().State, StateIdle)
	}
}

func TestManagerStatusCallback(t *testing.T) {
	var mu sync.Mutex
	var received []Status
	cb := func(s Status) {
		mu.Lock()
		received = append(received, s)
		mu.Unlock()
	}

	m := NewManager(testConfig(), nil, cb, slog.New(slog.DiscardHandler))
	m.setStatus(Status{State: StateRunning})
	m.setStatus(Status{State: StateIdle})

	mu.Lock()
	defer mu.Unlock()
	if len(received) != 2 {
		t.Fatalf("received %d callbacks, want 2", len(received))
	}
	if received[0].State != StateRunning || received[1].State != StateIdle {
		t.Errorf("callback states = %q, %q", received[0].State, received[1].State)
	}
}

func TestRunNowUploadsSnapshot(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "repset.db")
	db, err := database.Open(dbPath)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	mock := newMockS3()
	m := NewManager(testConfig(), db, nil, slog.New(slog.DiscardHandler))
	m.client = mock

	key, err := m.RunNow(context.Background())
	if err != nil {
		t.Fatalf("RunNow: %v", err)
	}
	if !strings.HasPrefix(key, keyPrefix) {
		t.Errorf("key %q missing prefix %q", key, keyPrefix)
	}

	mock.mu.Lock()
	data, ok := mock.objects[key]
	mock.mu.Unlock()
	if !ok {
		t.Fatal("snapshot not uploaded")
	}
	if len(data) == 0 {
		t.Error("uploaded snapshot is empty")
	}
	// SQLite files start with a fixed header string.
	if !strings.HasPrefix(string(data), "SQLite format 3") {
		t.Error("uploaded snapshot is not a SQLite database")
	}

	status := m.Status()
	if status.State != StateIdle || status.LastBackup == nil {
		t.Errorf("status after backup = %+v", status)
	}
}

func TestPruneDeletesOldSnapshots(t *testing.T) {
	mock := newMockS3()
	old := time.Now().UTC().AddDate(0, 0, -45)
	mock.objects[keyPrefix+"snapshot-old.db"] = []byte("old")
	mock.modified[keyPrefix+"snapshot-old.db"] = old
	mock.objects[keyPrefix+"snapshot-new.db"] = []byte("new")
	mock.modified[keyPrefix+"snapshot-new.db"] = time.Now().UTC()
	mock.objects["unrelated/file"] = []byte("keep")
	mock.modified["unrelated/file"] = old

	m := NewManager(testConfig(), nil, nil, slog.New(slog.DiscardHandler))
	m.client = mock

	if err := m.prune(context.Background()); err != nil {
		t.Fatalf("prune: %v", err)
	}

	mock.mu.Lock()
	defer mock.mu.Unlock()
	if _, ok := mock.objects[keyPrefix+"snapshot-old.db"]; ok {
		t.Error("old snapshot should be deleted")
	}
	if _, ok := mock.objects[keyPrefix+"snapshot-new.db"]; !ok {
		t.Error("recent snapshot should be kept")
	}
	if _, ok := mock.objects["unrelated/file"]; !ok {
		t.Error("objects outside the snapshot prefix should be untouched")
	}
}
