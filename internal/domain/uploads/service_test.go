package uploads

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gormsqlite "gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	_ "modernc.org/sqlite"

	"clouddrive/internal/domain/files"
)

func newTestService(t *testing.T) (*Service, *files.Service) {
	t.Helper()
	dsn := fmt.Sprintf("file:uploads_%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(
		gormsqlite.New(gormsqlite.Config{DriverName: "sqlite", DSN: dsn}),
		&gorm.Config{Logger: logger.Default.LogMode(logger.Silent)},
	)
	if err != nil {
		t.Fatalf("failed to open sqlite db: %v", err)
	}
	if err := db.AutoMigrate(&files.FileRecord{}, &Session{}); err != nil {
		t.Fatalf("failed to migrate db: %v", err)
	}

	base := t.TempDir()
	for _, dir := range []string{"files", "thumbnails", "chunks"} {
		require.NoError(t, os.MkdirAll(filepath.Join(base, dir), 0o755))
	}

	filesService := files.NewService(
		files.NewRepository(db),
		filepath.Join(base, "files"),
		filepath.Join(base, "thumbnails"),
	)
	return NewService(NewRepository(db), filesService, filepath.Join(base, "chunks"), 1024), filesService
}

func TestInitCreatesSession(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	session, err := svc.Init(ctx, "big.bin", 3000, 3, nil)
	require.NoError(t, err)

	assert.NotEmpty(t, session.UploadID)
	assert.Equal(t, StatusInProgress, session.Status)
	assert.Empty(t, session.ReceivedIndices())

	info, err := os.Stat(svc.sessionDir(session.UploadID))
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestChunkedUploadRoundTrip(t *testing.T) {
	svc, filesService := newTestService(t)
	ctx := context.Background()

	chunks := [][]byte{
		bytes.Repeat([]byte{'a'}, 700),
		bytes.Repeat([]byte{'b'}, 700),
		bytes.Repeat([]byte{'c'}, 100),
	}
	session, err := svc.Init(ctx, "big.bin", 9999, 3, nil)
	require.NoError(t, err)

	// Out of order, with a duplicate that overwrites its predecessor.
	for _, i := range []int{2, 0, 1} {
		_, err := svc.IngestChunk(ctx, session.UploadID, i, bytes.NewReader(chunks[i]))
		require.NoError(t, err)
	}
	got, err := svc.IngestChunk(ctx, session.UploadID, 1, bytes.NewReader(chunks[1]))
	require.NoError(t, err)
	assert.Equal(t, []int{0, 1, 2}, got.ReceivedIndices(), "duplicate index must not double-count")

	rec, err := svc.Complete(ctx, session.UploadID)
	require.NoError(t, err)

	want := bytes.Join(chunks, nil)
	merged, err := os.ReadFile(filesService.AbsolutePath(rec))
	require.NoError(t, err)
	assert.Equal(t, want, merged, "chunks must concatenate in index order")
	// The declared size lied; the record reflects what was written.
	assert.Equal(t, int64(len(want)), rec.SizeBytes)
	assert.Equal(t, "big.bin", rec.DisplayName)

	// The session is gone after completion.
	_, err = svc.Status(ctx, session.UploadID)
	assert.ErrorIs(t, err, ErrSessionNotFound)
	_, err = os.Stat(svc.sessionDir(session.UploadID))
	assert.True(t, os.IsNotExist(err))
}

func TestIngestChunkBounds(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	session, err := svc.Init(ctx, "x.bin", 100, 2, nil)
	require.NoError(t, err)

	_, err = svc.IngestChunk(ctx, session.UploadID, 2, bytes.NewReader([]byte("x")))
	assert.ErrorIs(t, err, ErrChunkOutOfRange)
	_, err = svc.IngestChunk(ctx, session.UploadID, -1, bytes.NewReader([]byte("x")))
	assert.ErrorIs(t, err, ErrChunkOutOfRange)

	_, err = svc.IngestChunk(ctx, "missing", 0, bytes.NewReader([]byte("x")))
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestIngestChunkRejectsTerminalSession(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	session, err := svc.Init(ctx, "x.bin", 100, 2, nil)
	require.NoError(t, err)
	require.NoError(t, svc.repo.SetStatus(ctx, session.UploadID, StatusCancelled))

	_, err = svc.IngestChunk(ctx, session.UploadID, 0, bytes.NewReader([]byte("x")))
	assert.ErrorIs(t, err, ErrInvalidSessionState)
	_, err = svc.Complete(ctx, session.UploadID)
	assert.ErrorIs(t, err, ErrInvalidSessionState)
}

func TestCompleteIncomplete(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	session, err := svc.Init(ctx, "x.bin", 100, 3, nil)
	require.NoError(t, err)
	_, err = svc.IngestChunk(ctx, session.UploadID, 0, bytes.NewReader([]byte("x")))
	require.NoError(t, err)

	_, err = svc.Complete(ctx, session.UploadID)
	assert.ErrorIs(t, err, ErrIncompleteUpload)

	// The session survives a failed completion and can still resume.
	got, err := svc.Status(ctx, session.UploadID)
	require.NoError(t, err)
	assert.Equal(t, StatusInProgress, got.Status)
	assert.Equal(t, []int{0}, got.ReceivedIndices())
}

func TestStatusReportsResumeInfo(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	session, err := svc.Init(ctx, "x.bin", 100, 5, nil)
	require.NoError(t, err)
	for _, i := range []int{4, 1, 1, 4} {
		_, err := svc.IngestChunk(ctx, session.UploadID, i, bytes.NewReader([]byte("x")))
		require.NoError(t, err)
	}

	got, err := svc.Status(ctx, session.UploadID)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 4}, got.ReceivedIndices())
	assert.Equal(t, 2, got.ReceivedCount())
}

func TestCancelTearsDownSession(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	session, err := svc.Init(ctx, "x.bin", 100, 2, nil)
	require.NoError(t, err)
	_, err = svc.IngestChunk(ctx, session.UploadID, 0, bytes.NewReader([]byte("x")))
	require.NoError(t, err)

	require.NoError(t, svc.Cancel(ctx, session.UploadID))

	_, err = svc.Status(ctx, session.UploadID)
	assert.ErrorIs(t, err, ErrSessionNotFound)
	_, err = os.Stat(svc.sessionDir(session.UploadID))
	assert.True(t, os.IsNotExist(err))

	// Cancelling again changes nothing and still succeeds.
	assert.NoError(t, svc.Cancel(ctx, session.UploadID))
}

func TestCompleteIntoFolder(t *testing.T) {
	svc, filesService := newTestService(t)
	ctx := context.Background()

	folder, err := filesService.CreateRecord(ctx, "inbox", 0, nil, true)
	require.NoError(t, err)

	session, err := svc.Init(ctx, "doc.txt", 3, 1, &folder.ID)
	require.NoError(t, err)
	_, err = svc.IngestChunk(ctx, session.UploadID, 0, bytes.NewReader([]byte("abc")))
	require.NoError(t, err)

	rec, err := svc.Complete(ctx, session.UploadID)
	require.NoError(t, err)
	require.NotNil(t, rec.ParentID)
	assert.Equal(t, folder.ID, *rec.ParentID)
}
