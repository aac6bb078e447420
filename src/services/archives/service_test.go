package archives

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"Backend-QA-Portal/src/models"
	"Backend-QA-Portal/src/services/submission"
	"Backend-QA-Portal/src/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type memStore struct {
	mu   sync.Mutex
	docs map[primitive.ObjectID]*models.Submission
}

func (m *memStore) FindByID(_ context.Context, id primitive.ObjectID) (*models.Submission, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.docs[id]
	if !ok {
		return nil, submission.ErrNotFound
	}
	return d.Clone(), nil
}

func (m *memStore) ClaimArchive(_ context.Context, id primitive.ObjectID, runID string, now, staleBefore time.Time) (*models.Submission, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.docs[id]
	if !ok || !d.Status.IsFinalized() {
		return nil, false, nil
	}
	if d.Archive.Status == models.ArchiveInProgress && (d.Archive.StartedAt == nil || !d.Archive.StartedAt.Before(staleBefore)) {
		return nil, false, nil
	}
	d.Archive.Status = models.ArchiveInProgress
	d.Archive.RunID = runID
	d.Archive.StartedAt = &now
	d.Archive.Error = ""
	return d.Clone(), true, nil
}

func (m *memStore) FinishArchive(_ context.Context, id primitive.ObjectID, runID string, a models.Archive) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.docs[id]
	if !ok || d.Archive.RunID != runID || d.Archive.Status != models.ArchiveInProgress {
		return false, nil
	}
	a.RunID = ""
	d.Archive = a
	return true, nil
}

type memObjects struct {
	mu      sync.Mutex
	files   map[string][]byte
	deleted []string
	putErr  error
}

func (o *memObjects) PutSignedURL(_ context.Context, key, _ string) (string, error) {
	return "https://storage.test/" + key + "?put", nil
}

func (o *memObjects) GetSignedURL(_ context.Context, key string) (string, error) {
	return "https://storage.test/" + key + "?X-Amz-Expires=300", nil
}

func (o *memObjects) DeleteObjects(_ context.Context, keys []string) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	for _, k := range keys {
		delete(o.files, k)
		o.deleted = append(o.deleted, k)
	}
	return nil
}

func (o *memObjects) GetObject(_ context.Context, key string) (io.ReadCloser, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	b, ok := o.files[key]
	if !ok {
		return nil, fmt.Errorf("no such key %s", key)
	}
	return io.NopCloser(bytes.NewReader(b)), nil
}

func (o *memObjects) PutObject(_ context.Context, key string, body io.Reader, _ string) error {
	if o.putErr != nil {
		return o.putErr
	}
	b, err := io.ReadAll(body)
	if err != nil {
		return err
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	o.files[key] = b
	return nil
}

type countingDispatcher struct {
	mu   sync.Mutex
	runs []string
}

func (d *countingDispatcher) Dispatch(_ context.Context, _ string, runID string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.runs = append(d.runs, runID)
	return nil
}

var (
	owner    = &models.AuthUser{ID: "u1", Role: models.RoleDepartment, Department: "CSE"}
	stranger = &models.AuthUser{ID: "u2", Role: models.RoleDepartment, Department: "ECE"}
	qaa      = &models.AuthUser{ID: "u3", Role: models.RoleQAA}
)

func strPtr(s string) *string { return &s }

func completedSubmission() *models.Submission {
	return &models.Submission{
		ID:           primitive.NewObjectID(),
		Department:   "CSE",
		School:       "SOE",
		AcademicYear: "2024-2025",
		Status:       models.StatusCompleted,
		PartA:        []models.PartAItem{{Code: "A1", SummaryFileKey: strPtr("evidence/a1.pdf")}},
		PartB: []models.Criterion{{Code: "1", SubCriteria: []models.SubCriterion{{Code: "1.1", Indicators: []models.Indicator{
			{Code: "1.1.1", EvidenceFileKey: strPtr("evidence/e1.pdf")},
			{Code: "1.1.2", EvidenceFileKey: strPtr("evidence/e1.pdf")},
		}}}}},
		Archive: models.Archive{Status: models.ArchiveNotGenerated},
	}
}

func setup(sub *models.Submission) (*Service, *memStore, *memObjects) {
	store := &memStore{docs: map[primitive.ObjectID]*models.Submission{sub.ID: sub}}
	objects := &memObjects{files: map[string][]byte{
		"evidence/a1.pdf": []byte("summary"),
		"evidence/e1.pdf": []byte("evidence"),
	}}
	return NewService(store, objects), store, objects
}

func TestStartGeneratesBundle(t *testing.T) {
	sub := completedSubmission()
	svc, store, objects := setup(sub)

	a, err := svc.Start(context.Background(), owner, sub.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ArchiveCompleted, a.Status)
	assert.True(t, strings.HasPrefix(a.ObjectKey, "archives/2024-2025/CSE/"))
	assert.NotNil(t, a.GeneratedAt)

	stored, _ := store.FindByID(context.Background(), sub.ID)
	assert.Equal(t, models.ArchiveCompleted, stored.Archive.Status)
	assert.Empty(t, stored.Archive.RunID)

	data := objects.files[a.ObjectKey]
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)
	names := []string{}
	var manifest Manifest
	for _, f := range zr.File {
		names = append(names, f.Name)
		if f.Name == "manifest.json" {
			rc, err := f.Open()
			require.NoError(t, err)
			require.NoError(t, json.NewDecoder(rc).Decode(&manifest))
			rc.Close()
		}
	}
	assert.ElementsMatch(t, []string{"files/evidence/a1.pdf", "files/evidence/e1.pdf", "manifest.json"}, names)
	assert.Equal(t, sub.ID.Hex(), manifest.SubmissionID)
	assert.Len(t, manifest.Files, 2)

	dl, err := svc.DownloadURL(context.Background(), qaa, sub.ID)
	require.NoError(t, err)
	assert.Contains(t, dl.URL, a.ObjectKey)
}

func TestStartRequiresFinalizedSubmission(t *testing.T) {
	sub := completedSubmission()
	sub.Status = models.StatusPendingFinalApproval
	svc, _, _ := setup(sub)

	_, err := svc.Start(context.Background(), qaa, sub.ID)
	assert.Equal(t, utils.KindNotReady, utils.KindOf(err))
}

func TestOnlyOneRunInFlight(t *testing.T) {
	sub := completedSubmission()
	svc, store, _ := setup(sub)
	disp := &countingDispatcher{}
	svc.WithDispatcher(disp)

	const n = 8
	var wg sync.WaitGroup
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = svc.Start(context.Background(), qaa, sub.ID)
		}(i)
	}
	wg.Wait()

	ok, conflicts := 0, 0
	for _, err := range errs {
		switch {
		case err == nil:
			ok++
		case utils.IsKind(err, utils.KindConflict):
			conflicts++
		}
	}
	assert.Equal(t, 1, ok)
	assert.Equal(t, n-1, conflicts)
	require.Len(t, disp.runs, 1)

	// worker executes the queued run
	require.NoError(t, svc.RunByID(context.Background(), sub.ID, disp.runs[0]))
	stored, _ := store.FindByID(context.Background(), sub.ID)
	assert.Equal(t, models.ArchiveCompleted, stored.Archive.Status)

	// a stale duplicate delivery is ignored
	require.NoError(t, svc.RunByID(context.Background(), sub.ID, disp.runs[0]))
}

func TestFailureKeepsPriorArtifact(t *testing.T) {
	sub := completedSubmission()
	svc, store, objects := setup(sub)

	first, err := svc.Start(context.Background(), owner, sub.ID)
	require.NoError(t, err)

	delete(objects.files, "evidence/e1.pdf")
	res, err := svc.Start(context.Background(), owner, sub.ID)
	assert.Equal(t, utils.KindDependency, utils.KindOf(err))
	require.NotNil(t, res)
	assert.Equal(t, models.ArchiveFailed, res.Status)

	stored, _ := store.FindByID(context.Background(), sub.ID)
	assert.Equal(t, models.ArchiveFailed, stored.Archive.Status)
	assert.Equal(t, first.ObjectKey, stored.Archive.ObjectKey)
	assert.Contains(t, stored.Archive.Error, "evidence/e1.pdf")

	// Failed -> In Progress retry, which also replaces the old artifact
	objects.files["evidence/e1.pdf"] = []byte("back")
	second, err := svc.Start(context.Background(), owner, sub.ID)
	require.NoError(t, err)
	assert.NotEqual(t, first.ObjectKey, second.ObjectKey)
	assert.Contains(t, objects.deleted, first.ObjectKey)
}

func TestStaleRunCanBeTakenOver(t *testing.T) {
	sub := completedSubmission()
	started := time.Now().Add(-2 * time.Hour)
	sub.Archive = models.Archive{Status: models.ArchiveInProgress, RunID: "dead", StartedAt: &started}
	svc, _, _ := setup(sub)

	a, err := svc.Start(context.Background(), qaa, sub.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ArchiveCompleted, a.Status)
}

func TestArchiveAuthorization(t *testing.T) {
	sub := completedSubmission()
	svc, _, _ := setup(sub)
	ctx := context.Background()

	_, err := svc.Start(ctx, stranger, sub.ID)
	assert.Equal(t, utils.KindAuthorization, utils.KindOf(err))

	_, err = svc.Status(ctx, stranger, sub.ID)
	assert.Equal(t, utils.KindAuthorization, utils.KindOf(err))

	_, err = svc.DownloadURL(ctx, owner, sub.ID)
	assert.Equal(t, utils.KindNotReady, utils.KindOf(err))

	_, err = svc.Status(ctx, owner, primitive.NewObjectID())
	assert.Equal(t, utils.KindNotFound, utils.KindOf(err))
}

func TestDispatchFailureMarksRunFailed(t *testing.T) {
	sub := completedSubmission()
	svc, store, _ := setup(sub)
	svc.WithDispatcher(failingDispatcher{})

	_, err := svc.Start(context.Background(), qaa, sub.ID)
	assert.Equal(t, utils.KindDependency, utils.KindOf(err))

	stored, _ := store.FindByID(context.Background(), sub.ID)
	assert.Equal(t, models.ArchiveFailed, stored.Archive.Status)
}

type failingDispatcher struct{}

func (failingDispatcher) Dispatch(context.Context, string, string) error {
	return errors.New("redis down")
}

func TestBrokenBundleIsNeverStored(t *testing.T) {
	sub := completedSubmission()
	svc, store, objects := setup(sub)
	delete(objects.files, "evidence/a1.pdf")

	res, err := svc.Start(context.Background(), owner, sub.ID)
	assert.Equal(t, utils.KindDependency, utils.KindOf(err))
	require.NotNil(t, res)
	assert.Equal(t, models.ArchiveFailed, res.Status)

	for key := range objects.files {
		assert.False(t, strings.HasPrefix(key, "archives/"), "partial bundle %s left in storage", key)
	}
	stored, _ := store.FindByID(context.Background(), sub.ID)
	assert.Empty(t, stored.Archive.ObjectKey)
}

func TestUploadFailureStopsBundle(t *testing.T) {
	sub := completedSubmission()
	svc, store, objects := setup(sub)
	objects.putErr = errors.New("bucket unavailable")

	done := make(chan struct{})
	var err error
	go func() {
		defer close(done)
		_, err = svc.Start(context.Background(), owner, sub.ID)
	}()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("archive run did not return after upload failure")
	}
	assert.Equal(t, utils.KindDependency, utils.KindOf(err))

	stored, _ := store.FindByID(context.Background(), sub.ID)
	assert.Equal(t, models.ArchiveFailed, stored.Archive.Status)
	assert.Contains(t, stored.Archive.Error, "bucket unavailable")
}
