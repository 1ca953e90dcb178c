package solve

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/solvem8/backend/internal/extractor"
	"github.com/solvem8/backend/internal/models"
	"github.com/solvem8/backend/internal/storage/memstore"
)

type stubGenerator struct {
	solution string
	err      error
	calls    int
}

func (g *stubGenerator) GenerateSolution(_ context.Context, _ string) (string, error) {
	g.calls++
	if g.err != nil {
		return "", g.err
	}
	return g.solution, nil
}

type stubExtractor struct {
	text string
	err  error
}

func (e *stubExtractor) Extract(_ context.Context, _ []byte, _ string) (string, error) {
	return e.text, e.err
}

type stubRenderer struct{}

func (stubRenderer) Render(_, _ string) ([]byte, error) {
	return []byte("%PDF-1.4 fake"), nil
}

type stubFileStore struct {
	urls []string
	next int
}

func (f *stubFileStore) Save(_ string, _ []byte) (string, error) {
	url := f.urls[f.next%len(f.urls)]
	f.next++
	return url, nil
}

func newNoopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{}))
}

func newTestService(db *memstore.Store, gen *stubGenerator, fs *stubFileStore) *Service {
	return New(db, db, gen, &stubExtractor{text: "2+2="}, stubRenderer{}, fs, nil, newNoopLogger())
}

func createUser(t *testing.T, db *memstore.Store, u models.User) int64 {
	t.Helper()
	id, err := db.CreateUser(context.Background(), u)
	require.NoError(t, err)
	return id
}

func TestService_Process_DecrementsFreeAttempt(t *testing.T) {
	db := memstore.New()
	gen := &stubGenerator{solution: "x = 4"}
	svc := newTestService(db, gen, &stubFileStore{urls: []string{"/files/a.pdf"}})

	userID := createUser(t, db, models.User{Username: "alice", Email: "alice@example.com"})

	solution, id, err := svc.Process(context.Background(), userID, "2+2=", "/files/a.pdf", "task.pdf")
	require.NoError(t, err)
	assert.Equal(t, "x = 4", solution)
	assert.NotZero(t, id)

	user, err := db.GetUser(context.Background(), userID)
	require.NoError(t, err)
	assert.Equal(t, models.DefaultFreeAttempts-1, user.FreeAttempts)
}

func TestService_Process_QuotaExhausted(t *testing.T) {
	db := memstore.New()
	gen := &stubGenerator{solution: "never"}
	svc := newTestService(db, gen, &stubFileStore{urls: []string{"/files/a.pdf"}})

	userID := createUser(t, db, models.User{Username: "bob", Email: "bob@example.com"})
	for i := 0; i < models.DefaultFreeAttempts; i++ {
		require.NoError(t, db.DecrementFreeAttempts(context.Background(), userID))
	}

	_, _, err := svc.Process(context.Background(), userID, "2+2=", "", "")
	assert.ErrorIs(t, err, ErrQuotaExhausted)
	assert.Zero(t, gen.calls, "generator must not be called when quota is exhausted")

	records, err := db.ListAssignmentsByUser(context.Background(), userID)
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestService_Process_SubscribedUserKeepsAttempts(t *testing.T) {
	db := memstore.New()
	gen := &stubGenerator{solution: "ok"}
	svc := newTestService(db, gen, &stubFileStore{urls: []string{"/files/a.pdf"}})

	expiry := time.Now().Add(24 * time.Hour)
	userID := createUser(t, db, models.User{Username: "carol", Email: "carol@example.com"})
	require.NoError(t, db.ActivateSubscription(context.Background(), userID, expiry))

	for i := 0; i < 5; i++ {
		_, _, err := svc.Process(context.Background(), userID, "q", "", "")
		require.NoError(t, err)
	}

	user, err := db.GetUser(context.Background(), userID)
	require.NoError(t, err)
	assert.Equal(t, models.DefaultFreeAttempts, user.FreeAttempts)
}

func TestService_Process_ExpiredSubscriptionCountsAsFree(t *testing.T) {
	db := memstore.New()
	gen := &stubGenerator{solution: "ok"}
	svc := newTestService(db, gen, &stubFileStore{urls: []string{"/files/a.pdf"}})

	expired := time.Now().Add(-time.Hour)
	userID := createUser(t, db, models.User{Username: "dave", Email: "dave@example.com"})
	require.NoError(t, db.ActivateSubscription(context.Background(), userID, expired))

	_, _, err := svc.Process(context.Background(), userID, "q", "", "")
	require.NoError(t, err)

	user, err := db.GetUser(context.Background(), userID)
	require.NoError(t, err)
	assert.Equal(t, models.DefaultFreeAttempts-1, user.FreeAttempts,
		"expired subscription must consume free attempts")
}

func TestService_Process_AttemptNumberMonotonic(t *testing.T) {
	db := memstore.New()
	gen := &stubGenerator{solution: "ok"}
	svc := newTestService(db, gen, &stubFileStore{urls: []string{"/files/a.pdf"}})

	userID := createUser(t, db, models.User{Username: "erin", Email: "erin@example.com"})

	for i := 0; i < 3; i++ {
		_, _, err := svc.Process(context.Background(), userID, "q", "", "")
		require.NoError(t, err)
	}

	records, err := db.ListAssignmentsByUser(context.Background(), userID)
	require.NoError(t, err)
	require.Len(t, records, 3)
	// новые первыми
	assert.Equal(t, 3, records[0].AttemptNumber)
	assert.Equal(t, 2, records[1].AttemptNumber)
	assert.Equal(t, 1, records[2].AttemptNumber)
}

func TestService_Process_GeneratorError(t *testing.T) {
	db := memstore.New()
	gen := &stubGenerator{err: errors.New("upstream unavailable")}
	svc := newTestService(db, gen, &stubFileStore{urls: []string{"/files/a.pdf"}})

	userID := createUser(t, db, models.User{Username: "fred", Email: "fred@example.com"})

	_, _, err := svc.Process(context.Background(), userID, "q", "", "")
	require.Error(t, err)

	// попытка не списана, запись не создана
	user, err := db.GetUser(context.Background(), userID)
	require.NoError(t, err)
	assert.Equal(t, models.DefaultFreeAttempts, user.FreeAttempts)

	records, err := db.ListAssignmentsByUser(context.Background(), userID)
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestService_GeneratePDF_BackfillsOutputURL(t *testing.T) {
	db := memstore.New()
	gen := &stubGenerator{solution: "ok"}
	fs := &stubFileStore{urls: []string{"/files/out.pdf"}}
	svc := newTestService(db, gen, fs)

	userID := createUser(t, db, models.User{Username: "gail", Email: "gail@example.com"})

	_, id, err := svc.Process(context.Background(), userID, "q", "/files/source.pdf", "task.pdf")
	require.NoError(t, err)

	pdfURL, err := svc.GeneratePDF(context.Background(), userID, "q", "solution", "/files/source.pdf")
	require.NoError(t, err)
	assert.Equal(t, "/files/out.pdf", pdfURL)

	rec, err := db.GetAssignment(context.Background(), id)
	require.NoError(t, err)
	require.NotNil(t, rec.OutputURL)
	assert.Equal(t, "/files/out.pdf", *rec.OutputURL)
}

func TestService_Upload_RejectedFileIsNotStored(t *testing.T) {
	db := memstore.New()
	fs := &stubFileStore{urls: []string{"/files/u.pdf"}}
	svc := New(db, db, &stubGenerator{}, &stubExtractor{err: extractor.ErrUnsupportedMediaType},
		stubRenderer{}, fs, nil, newNoopLogger())

	_, err := svc.Upload(context.Background(), "task.bin", []byte("data"), "application/octet-stream")
	require.Error(t, err)
	assert.Zero(t, fs.next, "rejected upload must not reach the file store")
}

func TestService_Upload_FormatsExtractedText(t *testing.T) {
	db := memstore.New()
	svc := New(db, db, &stubGenerator{}, &stubExtractor{text: "a  b\n\n\n\nc"}, stubRenderer{},
		&stubFileStore{urls: []string{"/files/u.pdf"}}, nil, newNoopLogger())

	res, err := svc.Upload(context.Background(), "task.pdf", []byte("%PDF-"), "application/pdf")
	require.NoError(t, err)
	assert.Equal(t, "/files/u.pdf", res.FileURL)
	assert.Equal(t, "task.pdf", res.FileName)
	assert.NotContains(t, res.ExtractedText, "\n\n\n")
}
