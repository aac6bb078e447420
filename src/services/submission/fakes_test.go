package submission

import (
	"context"
	"errors"
	"io"
	"sort"
	"sync"
	"time"

	"Backend-QA-Portal/src/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type memRepo struct {
	mu   sync.Mutex
	docs map[primitive.ObjectID]*models.Submission
}

func newMemRepo() *memRepo {
	return &memRepo{docs: map[primitive.ObjectID]*models.Submission{}}
}

func (m *memRepo) Insert(_ context.Context, sub *models.Submission) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, d := range m.docs {
		if d.Department == sub.Department && d.AcademicYear == sub.AcademicYear {
			return ErrDuplicate
		}
	}
	m.docs[sub.ID] = sub.Clone()
	return nil
}

func (m *memRepo) FindByID(_ context.Context, id primitive.ObjectID) (*models.Submission, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.docs[id]
	if !ok {
		return nil, ErrNotFound
	}
	return d.Clone(), nil
}

func (m *memRepo) FindByDepartmentYear(_ context.Context, dept, year string) (*models.Submission, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, d := range m.docs {
		if d.Department == dept && d.AcademicYear == year {
			return d.Clone(), nil
		}
	}
	return nil, nil
}

func (m *memRepo) Save(_ context.Context, sub *models.Submission, expected int64, resetArchive bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.docs[sub.ID]
	if !ok || d.Version != expected {
		return ErrVersionConflict
	}
	next := sub.Clone()
	if !resetArchive {
		next.Archive = d.Archive
	}
	next.Version = expected + 1
	sub.Version = next.Version
	m.docs[sub.ID] = next
	return nil
}

func (m *memRepo) Delete(_ context.Context, id primitive.ObjectID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.docs[id]; !ok {
		return ErrNotFound
	}
	delete(m.docs, id)
	return nil
}

func (m *memRepo) List(_ context.Context, f ListFilter, p models.PaginationParams) ([]models.Submission, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Submission
	for _, d := range m.docs {
		if f.Department != "" && d.Department != f.Department {
			continue
		}
		if f.AcademicYear != "" && d.AcademicYear != f.AcademicYear {
			continue
		}
		if len(f.Statuses) > 0 {
			match := false
			for _, s := range f.Statuses {
				if d.Status == s {
					match = true
				}
			}
			if !match {
				continue
			}
		}
		out = append(out, *d.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Department < out[j].Department })
	total := int64(len(out))
	start := int(p.GetSkip())
	if start > len(out) {
		start = len(out)
	}
	end := start + p.Limit
	if end > len(out) {
		end = len(out)
	}
	return out[start:end], total, nil
}

// put stores a document directly, bypassing the service.
func (m *memRepo) put(sub *models.Submission) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.docs[sub.ID] = sub.Clone()
}

type fakeStore struct {
	mu        sync.Mutex
	deleted   [][]string
	deleteErr error
}

func (f *fakeStore) PutSignedURL(_ context.Context, key, _ string) (string, error) {
	return "https://storage.test/" + key + "?put", nil
}

func (f *fakeStore) GetSignedURL(_ context.Context, key string) (string, error) {
	return "https://storage.test/" + key, nil
}

func (f *fakeStore) DeleteObjects(_ context.Context, keys []string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.deleteErr != nil {
		return f.deleteErr
	}
	f.deleted = append(f.deleted, append([]string(nil), keys...))
	return nil
}

func (f *fakeStore) GetObject(_ context.Context, _ string) (io.ReadCloser, error) {
	return nil, errors.New("not implemented")
}

func (f *fakeStore) PutObject(_ context.Context, _ string, body io.Reader, _ string) error {
	_, err := io.Copy(io.Discard, body)
	return err
}

func (f *fakeStore) allDeleted() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []string
	for _, batch := range f.deleted {
		out = append(out, batch...)
	}
	return out
}

type fakeGate struct {
	submissionOpen bool
	appealOpen     bool
}

func (g *fakeGate) IsSubmissionOpen(context.Context, string, time.Time) (bool, error) {
	return g.submissionOpen, nil
}

func (g *fakeGate) IsAppealOpen(context.Context, string, time.Time) (bool, error) {
	return g.appealOpen, nil
}
