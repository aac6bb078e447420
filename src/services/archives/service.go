package archives

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"Backend-QA-Portal/src/logger"
	"Backend-QA-Portal/src/models"
	"Backend-QA-Portal/src/services/storage"
	"Backend-QA-Portal/src/services/submission"
	"Backend-QA-Portal/src/utils"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Store is the slice of the submission repository the pipeline needs.
type Store interface {
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Submission, error)
	ClaimArchive(ctx context.Context, id primitive.ObjectID, runID string, now, staleBefore time.Time) (*models.Submission, bool, error)
	FinishArchive(ctx context.Context, id primitive.ObjectID, runID string, archive models.Archive) (bool, error)
}

// Dispatcher hands a claimed run to a background worker.
type Dispatcher interface {
	Dispatch(ctx context.Context, submissionID, runID string) error
}

// DefaultStaleAfter is how long an In Progress run may sit before another
// request is allowed to take it over.
const DefaultStaleAfter = 30 * time.Minute

type Service struct {
	store      Store
	objects    storage.ObjectStorage
	dispatcher Dispatcher
	staleAfter time.Duration
	log        zerolog.Logger
	now        func() time.Time
}

func NewService(store Store, objects storage.ObjectStorage) *Service {
	return &Service{
		store:      store,
		objects:    objects,
		staleAfter: DefaultStaleAfter,
		log:        logger.Component("archive"),
		now:        time.Now,
	}
}

// WithDispatcher switches Start to asynchronous mode.
func (s *Service) WithDispatcher(d Dispatcher) *Service {
	s.dispatcher = d
	return s
}

func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

func (s *Service) load(ctx context.Context, actor *models.AuthUser, id primitive.ObjectID) (*models.Submission, error) {
	sub, err := s.store.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, submission.ErrNotFound) {
			return nil, utils.NotFoundError("submission %s not found", id.Hex())
		}
		return nil, utils.DependencyError(err, "failed to load submission")
	}
	if !submission.CanView(actor, sub) {
		return nil, utils.AuthorizationError("not allowed to access this submission's archive")
	}
	return sub, nil
}

// Start claims the archive for a new run. In synchronous mode the bundle is
// built before returning; otherwise the run is queued.
func (s *Service) Start(ctx context.Context, actor *models.AuthUser, id primitive.ObjectID) (*models.Archive, error) {
	sub, err := s.load(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if !sub.Status.IsFinalized() {
		return nil, utils.NotReadyError("archive is only available once the submission is completed (status %q)", sub.Status)
	}

	now := s.now()
	runID := uuid.NewString()
	claimed, ok, err := s.store.ClaimArchive(ctx, id, runID, now, now.Add(-s.staleAfter))
	if err != nil {
		return nil, utils.DependencyError(err, "failed to start archive generation")
	}
	if !ok {
		return nil, utils.ConflictError("archive generation is already in progress")
	}

	s.log.Info().Str("submission", id.Hex()).Str("run", runID).Str("actor", actor.ID).Msg("📦 archive run claimed")

	if s.dispatcher != nil {
		if err := s.dispatcher.Dispatch(ctx, id.Hex(), runID); err != nil {
			s.finish(ctx, claimed, runID, fmt.Errorf("enqueue failed: %w", err), "")
			return nil, utils.DependencyError(err, "failed to queue archive generation")
		}
		return &claimed.Archive, nil
	}
	return s.Run(ctx, claimed, runID)
}

// RunByID is the worker entry point. Runs that no longer own the archive are skipped.
func (s *Service) RunByID(ctx context.Context, id primitive.ObjectID, runID string) error {
	sub, err := s.store.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, submission.ErrNotFound) {
			s.log.Warn().Str("submission", id.Hex()).Msg("⚠️ submission gone, skipping archive run")
			return nil
		}
		return err
	}
	if sub.Archive.Status != models.ArchiveInProgress || sub.Archive.RunID != runID {
		s.log.Warn().Str("submission", id.Hex()).Str("run", runID).Msg("⚠️ archive run superseded, skipping")
		return nil
	}
	_, err = s.Run(ctx, sub, runID)
	if utils.IsKind(err, utils.KindDependency) {
		// failure is already recorded on the submission
		return nil
	}
	return err
}

// Run streams the bundle straight into storage, then records the outcome.
func (s *Service) Run(ctx context.Context, sub *models.Submission, runID string) (*models.Archive, error) {
	key := ObjectKey(sub, runID)

	err := s.upload(ctx, sub, runID, key)
	if err != nil {
		result, ferr := s.finish(ctx, sub, runID, err, "")
		if ferr != nil {
			return nil, ferr
		}
		return result, utils.DependencyError(err, "archive generation failed")
	}
	return s.finish(ctx, sub, runID, nil, key)
}

// upload ต่อ zip writer เข้ากับ uploader ผ่าน pipe ถ้าฝั่งใดล้ม อีกฝั่งจะหยุดตาม
func (s *Service) upload(ctx context.Context, sub *models.Submission, runID, key string) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	pr, pw := io.Pipe()
	built := make(chan error, 1)
	go func() {
		err := Bundle(ctx, s.objects, sub, runID, s.now(), pw)
		pw.CloseWithError(err)
		built <- err
	}()

	err := s.objects.PutObject(ctx, key, pr, "application/zip")
	if err != nil {
		pr.CloseWithError(err)
		cancel()
		<-built
		return err
	}
	pr.Close()
	if berr := <-built; berr != nil {
		// uploader อาจจบก่อนเห็น error ของ writer ต้องลบ object ที่ไม่ครบทิ้ง
		s.discard(context.WithoutCancel(ctx), sub.ID.Hex(), key)
		return berr
	}
	return nil
}

// finish writes the run result. A failed run keeps the previous artifact.
func (s *Service) finish(ctx context.Context, sub *models.Submission, runID string, runErr error, key string) (*models.Archive, error) {
	prev := sub.Archive
	var result models.Archive
	if runErr != nil {
		result = models.Archive{
			Status:      models.ArchiveFailed,
			ObjectKey:   prev.ObjectKey,
			GeneratedAt: prev.GeneratedAt,
			Error:       runErr.Error(),
		}
	} else {
		at := s.now()
		result = models.Archive{Status: models.ArchiveCompleted, ObjectKey: key, GeneratedAt: &at}
	}

	ctx = context.WithoutCancel(ctx)
	owned, err := s.store.FinishArchive(ctx, sub.ID, runID, result)
	if err != nil {
		return nil, utils.DependencyError(err, "failed to record archive result")
	}
	if !owned {
		s.log.Warn().Str("submission", sub.ID.Hex()).Str("run", runID).Msg("⚠️ archive run lost ownership")
		if key != "" {
			s.discard(ctx, sub.ID.Hex(), key)
		}
		return nil, utils.ConflictError("archive run was superseded")
	}

	if runErr != nil {
		s.log.Error().Err(runErr).Str("submission", sub.ID.Hex()).Str("run", runID).Msg("❌ archive generation failed")
		return &result, nil
	}
	if prev.ObjectKey != "" && prev.ObjectKey != key {
		s.discard(ctx, sub.ID.Hex(), prev.ObjectKey)
	}
	s.log.Info().Str("submission", sub.ID.Hex()).Str("key", key).Msg("✅ archive generated")
	return &result, nil
}

func (s *Service) discard(ctx context.Context, submissionID, key string) {
	if err := s.objects.DeleteObjects(ctx, []string{key}); err != nil {
		s.log.Warn().Err(err).Str("submission", submissionID).Str("key", key).Msg("⚠️ failed to remove stale archive")
	}
}

func (s *Service) Status(ctx context.Context, actor *models.AuthUser, id primitive.ObjectID) (*models.Archive, error) {
	sub, err := s.load(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	return &sub.Archive, nil
}

type DownloadResponse struct {
	URL         string     `json:"url"`
	ObjectKey   string     `json:"objectKey"`
	GeneratedAt *time.Time `json:"generatedAt,omitempty"`
}

// DownloadURL returns a short-lived signed URL for the latest bundle.
func (s *Service) DownloadURL(ctx context.Context, actor *models.AuthUser, id primitive.ObjectID) (*DownloadResponse, error) {
	sub, err := s.load(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if sub.Archive.Status != models.ArchiveCompleted || sub.Archive.ObjectKey == "" {
		return nil, utils.NotReadyError("archive is not ready (status %q)", sub.Archive.Status)
	}
	url, err := s.objects.GetSignedURL(ctx, sub.Archive.ObjectKey)
	if err != nil {
		return nil, utils.DependencyError(err, "failed to sign download url")
	}
	return &DownloadResponse{URL: url, ObjectKey: sub.Archive.ObjectKey, GeneratedAt: sub.Archive.GeneratedAt}, nil
}

func ObjectKey(sub *models.Submission, runID string) string {
	return fmt.Sprintf("archives/%s/%s/%s.zip", sub.AcademicYear, sub.Department, runID)
}
