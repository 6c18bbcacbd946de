package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kbukum/kikitori/internal/database"
	"github.com/kbukum/kikitori/internal/job"
	"github.com/kbukum/kikitori/internal/logger"
	"github.com/kbukum/kikitori/internal/storage"
	"github.com/kbukum/kikitori/internal/storage/storagetest"
)

type fakeQueue struct {
	ids []uuid.UUID
}

func (q *fakeQueue) Enqueue(id uuid.UUID) { q.ids = append(q.ids, id) }

type apiFixture struct {
	engine *gin.Engine
	svc    *job.Service
	queue  *fakeQueue
	mem    *storagetest.MemStorage
}

func newAPIFixture(t *testing.T) *apiFixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dbCfg := database.Config{
		DSN:          filepath.Join(t.TempDir(), "jobs.db"),
		MaxOpenConns: 1,
		MaxIdleConns: 1,
		MaxRetries:   1,
		LogLevel:     "silent",
	}
	db, err := database.Open(context.Background(), dbCfg, logger.NewDefault("test"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, db.MigrateUp())

	mem := storagetest.New()
	log := logger.NewDefault("test")
	svc := job.NewService(job.NewRepository(db), storage.NewByteClient(mem), log)

	queue := &fakeQueue{}
	engine := gin.New()
	NewHandlers(svc, queue, nil, log).Register(engine)

	return &apiFixture{engine: engine, svc: svc, queue: queue, mem: mem}
}

func (f *apiFixture) do(t *testing.T, method, path string, body *bytes.Buffer, contentType string) *httptest.ResponseRecorder {
	t.Helper()
	if body == nil {
		body = &bytes.Buffer{}
	}
	req := httptest.NewRequest(method, path, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	w := httptest.NewRecorder()
	f.engine.ServeHTTP(w, req)
	return w
}

func multipartFile(t *testing.T, filename, contentType string, content []byte) (*bytes.Buffer, string) {
	t.Helper()
	buf := &bytes.Buffer{}
	mw := multipart.NewWriter(buf)

	hdr := textproto.MIMEHeader{}
	hdr.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename="%s"`, filename))
	hdr.Set("Content-Type", contentType)
	part, err := mw.CreatePart(hdr)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	return buf, mw.FormDataContentType()
}

func TestUploadCreatesJobAndQueues(t *testing.T) {
	f := newAPIFixture(t)

	body, ct := multipartFile(t, "podcast.mp3", "audio/mpeg", []byte("mp3 bytes"))
	w := f.do(t, http.MethodPost, "/api/transcriptions/upload", body, ct)

	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var resp job.TranscriptionJob
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "podcast.mp3", resp.OriginalFilename)
	assert.Equal(t, job.StatusProcessing, resp.Status)
	assert.Nil(t, resp.CompletedAt)

	require.Len(t, f.queue.ids, 1)
	assert.Equal(t, resp.ID, f.queue.ids[0])
	assert.Equal(t, 1, f.mem.Len())
}

func TestUploadRejectsUnsupportedType(t *testing.T) {
	f := newAPIFixture(t)

	body, ct := multipartFile(t, "document.pdf", "application/pdf", []byte("%PDF"))
	w := f.do(t, http.MethodPost, "/api/transcriptions/upload", body, ct)

	require.Equal(t, http.StatusBadRequest, w.Code)

	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "fileType", resp["type"])
	assert.Equal(t, false, resp["retryable"])
	assert.NotEmpty(t, resp["error"])

	assert.Empty(t, f.queue.ids)
}

func TestUploadRequiresFileField(t *testing.T) {
	f := newAPIFixture(t)

	buf := &bytes.Buffer{}
	mw := multipart.NewWriter(buf)
	require.NoError(t, mw.WriteField("note", "no file here"))
	require.NoError(t, mw.Close())

	w := f.do(t, http.MethodPost, "/api/transcriptions/upload", buf, mw.FormDataContentType())
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetAndStatusReturnJobRecord(t *testing.T) {
	f := newAPIFixture(t)

	j, err := f.svc.Submit(context.Background(), []byte("x"), "talk.wav", "audio/wav")
	require.NoError(t, err)

	for _, path := range []string{
		"/api/transcriptions/" + j.ID.String(),
		"/api/transcriptions/" + j.ID.String() + "/status",
	} {
		w := f.do(t, http.MethodGet, path, nil, "")
		require.Equal(t, http.StatusOK, w.Code, path)

		var resp job.TranscriptionJob
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, j.ID, resp.ID)
		assert.Equal(t, job.StatusProcessing, resp.Status)
	}
}

func TestGetUnknownJobReturns404(t *testing.T) {
	f := newAPIFixture(t)

	w := f.do(t, http.MethodGet, "/api/transcriptions/"+uuid.NewString(), nil, "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestGetMalformedIDReturns400(t *testing.T) {
	f := newAPIFixture(t)

	w := f.do(t, http.MethodGet, "/api/transcriptions/not-a-uuid", nil, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestDeleteJob(t *testing.T) {
	f := newAPIFixture(t)

	j, err := f.svc.Submit(context.Background(), []byte("x"), "gone.m4a", "audio/x-m4a")
	require.NoError(t, err)

	w := f.do(t, http.MethodDelete, "/api/transcriptions/"+j.ID.String(), nil, "")
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, 0, f.mem.Len())

	w = f.do(t, http.MethodDelete, "/api/transcriptions/"+j.ID.String(), nil, "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestHistoryListingAndOrdering(t *testing.T) {
	f := newAPIFixture(t)
	ctx := context.Background()

	base := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	older := uuid.New()
	newer := uuid.New()
	for i, entry := range []struct {
		id   uuid.UUID
		at   time.Time
		text string
	}{
		{older, base, "older transcript"},
		{newer, base.Add(time.Hour), "newer transcript"},
	} {
		_, err := f.svc.Backfill(ctx, job.BackfillRequest{
			ID:                entry.id,
			OriginalFilename:  fmt.Sprintf("clip%d.mp3", i),
			TranscriptionText: entry.text,
			CreatedAt:         entry.at,
		})
		require.NoError(t, err)
	}

	w := f.do(t, http.MethodGet, "/api/transcriptions/history", nil, "")
	require.Equal(t, http.StatusOK, w.Code)

	var entries []job.HistoryEntry
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &entries))
	require.Len(t, entries, 2)
	assert.Equal(t, newer, entries[0].ID)
	assert.Equal(t, older, entries[1].ID)
	assert.Equal(t, "newer transcript", entries[0].PreviewText)
}

func TestBackfillEndpointIsIdempotent(t *testing.T) {
	f := newAPIFixture(t)

	payload := map[string]interface{}{
		"id":                uuid.NewString(),
		"originalFilename":  "restored.mp3",
		"transcriptionText": "restored text",
		"createdAt":         time.Now().UTC().Format(time.RFC3339),
	}
	raw, err := json.Marshal(payload)
	require.NoError(t, err)

	for i := 0; i < 2; i++ {
		w := f.do(t, http.MethodPost, "/api/transcriptions/history", bytes.NewBuffer(raw), "application/json")
		assert.Equal(t, http.StatusCreated, w.Code, "attempt %d", i+1)
	}

	w := f.do(t, http.MethodGet, "/api/transcriptions/history", nil, "")
	var entries []job.HistoryEntry
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &entries))
	assert.Len(t, entries, 1)
}

func TestHistoryDetailAndDelete(t *testing.T) {
	f := newAPIFixture(t)
	ctx := context.Background()

	id := uuid.New()
	_, err := f.svc.Backfill(ctx, job.BackfillRequest{
		ID:                id,
		OriginalFilename:  "detail.mp3",
		TranscriptionText: "full transcript",
		CreatedAt:         time.Now().UTC(),
	})
	require.NoError(t, err)

	w := f.do(t, http.MethodGet, "/api/transcriptions/history/"+id.String(), nil, "")
	require.Equal(t, http.StatusOK, w.Code)

	var entry job.HistoryEntry
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &entry))
	assert.Equal(t, "full transcript", entry.TranscriptionText)

	w = f.do(t, http.MethodDelete, "/api/transcriptions/history/"+id.String(), nil, "")
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = f.do(t, http.MethodGet, "/api/transcriptions/history/"+id.String(), nil, "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestHealthEndpoint(t *testing.T) {
	gin.SetMode(gin.TestMode)

	engine := gin.New()
	h := NewHandlers(nil, nil, func(ctx context.Context) map[string]string {
		return map[string]string{"database": "connected", "storage": "connected"}
	}, logger.NewDefault("test"))
	h.Register(engine)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "healthy", resp["status"])
}
