package reports

import (
	"context"
	"time"

	"Backend-QA-Portal/src/logger"
	"Backend-QA-Portal/src/models"
	"Backend-QA-Portal/src/utils"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	publishLockTTL = 2 * time.Minute
	cacheTTL       = 10 * time.Minute
)

type Service struct {
	source       SubmissionSource
	snapshots    SnapshotRepository
	publications PublicationRepository
	scoring      map[string]models.CriterionScoring
	locker       utils.Locker
	cache        *redis.Client
	log          zerolog.Logger
	now          func() time.Time
}

// NewService: cache may be nil, in which case reads always hit Mongo.
func NewService(source SubmissionSource, snapshots SnapshotRepository, publications PublicationRepository,
	scoring map[string]models.CriterionScoring, locker utils.Locker, cache *redis.Client) *Service {
	return &Service{
		source:       source,
		snapshots:    snapshots,
		publications: publications,
		scoring:      scoring,
		locker:       locker,
		cache:        cache,
		log:          logger.Component("reports"),
		now:          time.Now,
	}
}

type PublishRequest struct {
	AcademicYear string `json:"academicYear" validate:"required,academicyear"`
	IsPublished  *bool  `json:"isPublished" validate:"required"`
}

type PublicationStatus struct {
	AcademicYear          string     `json:"academicYear"`
	IsPublished           bool       `json:"isPublished"`
	PublishedAt           *time.Time `json:"publishedAt"`
	UpdatedBy             string     `json:"updatedBy,omitempty"`
	UpdatedAt             *time.Time `json:"updatedAt,omitempty"`
	QualifyingSubmissions int        `json:"qualifyingSubmissions"`
	Schools               int        `json:"schools,omitempty"`
}

// SetPublication publishes or unpublishes a year's results. Concurrent calls
// for the same year are rejected rather than queued.
func (s *Service) SetPublication(ctx context.Context, actor *models.AuthUser, req PublishRequest) (*PublicationStatus, error) {
	if !actor.IsPrivileged() {
		return nil, utils.AuthorizationError("only admin or superuser can publish results")
	}
	if err := utils.ValidateStruct(req); err != nil {
		return nil, err
	}
	year := req.AcademicYear

	unlock, ok, err := s.locker.TryLock(ctx, "publish:"+year, publishLockTTL)
	if err != nil {
		return nil, utils.DependencyError(err, "failed to acquire publish lock")
	}
	if !ok {
		return nil, utils.ConflictError("a publish for %s is already running", year)
	}
	defer unlock()

	if *req.IsPublished {
		return s.publish(ctx, actor, year)
	}
	return s.unpublish(ctx, actor, year)
}

func (s *Service) publish(ctx context.Context, actor *models.AuthUser, year string) (*PublicationStatus, error) {
	subs, err := s.source.ListFinalized(ctx, year)
	if err != nil {
		return nil, utils.DependencyError(err, "failed to load finalized submissions")
	}
	if len(subs) == 0 {
		return nil, utils.ValidationError("no completed submissions for %s; nothing to publish", year)
	}

	now := s.now()
	res := Compute(year, subs, s.scoring, now)
	if len(res.UnknownCodes) > 0 {
		s.log.Warn().Str("year", year).Strs("codes", res.UnknownCodes).Msg("⚠️ criteria without scoring config were skipped")
	}

	generation := uuid.NewString()
	for i := range res.Snapshots {
		res.Snapshots[i].ID = primitive.NewObjectID()
		res.Snapshots[i].Generation = generation
	}
	if err := s.snapshots.InsertGeneration(ctx, res.Snapshots); err != nil {
		return nil, utils.DependencyError(err, "failed to store report snapshot")
	}

	pub := &models.ResultPublication{
		AcademicYear: year,
		IsPublished:  true,
		PublishedAt:  &now,
		UpdatedBy:    actor.ID,
		UpdatedAt:    now,
		Generation:   generation,
	}
	// record switch ชี้ไป generation ใหม่ ผู้อ่านเห็นชุดเดียวเสมอ
	if err := s.publications.Upsert(ctx, pub); err != nil {
		if derr := s.snapshots.DeleteGeneration(context.WithoutCancel(ctx), year, generation); derr != nil {
			s.log.Warn().Err(derr).Str("generation", generation).Msg("⚠️ failed to discard unpublished snapshot")
		}
		return nil, utils.DependencyError(err, "failed to record publication")
	}

	if n, err := s.snapshots.DeleteOtherGenerations(context.WithoutCancel(ctx), year, generation); err != nil {
		s.log.Warn().Err(err).Str("year", year).Msg("⚠️ failed to prune old snapshots")
	} else if n > 0 {
		s.log.Debug().Str("year", year).Int64("deleted", n).Msg("🧹 old snapshots pruned")
	}
	utils.DelCachePattern(ctx, s.cache, cachePrefix(year)+"*")

	s.log.Info().Str("year", year).Str("actor", actor.ID).Int("schools", len(res.Snapshots)).Msg("📢 results published")
	return &PublicationStatus{
		AcademicYear:          year,
		IsPublished:           true,
		PublishedAt:           pub.PublishedAt,
		UpdatedBy:             pub.UpdatedBy,
		UpdatedAt:             &pub.UpdatedAt,
		QualifyingSubmissions: len(subs),
		Schools:               len(res.Snapshots),
	}, nil
}

func (s *Service) unpublish(ctx context.Context, actor *models.AuthUser, year string) (*PublicationStatus, error) {
	existing, err := s.publications.Find(ctx, year)
	if err != nil {
		return nil, utils.DependencyError(err, "failed to load publication")
	}
	now := s.now()
	pub := &models.ResultPublication{AcademicYear: year, UpdatedBy: actor.ID, UpdatedAt: now}
	if existing != nil {
		pub.Generation = existing.Generation
	}
	if err := s.publications.Upsert(ctx, pub); err != nil {
		return nil, utils.DependencyError(err, "failed to record publication")
	}

	s.log.Info().Str("year", year).Str("actor", actor.ID).Msg("🔒 results unpublished")
	return &PublicationStatus{AcademicYear: year, UpdatedBy: actor.ID, UpdatedAt: &now}, nil
}

// Status reports the publication flag and how many submissions would qualify.
func (s *Service) Status(ctx context.Context, year string) (*PublicationStatus, error) {
	if !utils.IsAcademicYear(year) {
		return nil, utils.ValidationError("academicYear must look like 2024-2025")
	}
	pub, err := s.publications.Find(ctx, year)
	if err != nil {
		return nil, utils.DependencyError(err, "failed to load publication")
	}
	subs, err := s.source.ListFinalized(ctx, year)
	if err != nil {
		return nil, utils.DependencyError(err, "failed to count finalized submissions")
	}

	out := &PublicationStatus{AcademicYear: year, QualifyingSubmissions: len(subs)}
	if pub != nil {
		out.IsPublished = pub.IsPublished
		out.PublishedAt = pub.PublishedAt
		out.UpdatedBy = pub.UpdatedBy
		out.UpdatedAt = &pub.UpdatedAt
	}
	return out, nil
}

// publishedSnapshots returns the current generation, or NotReady.
func (s *Service) publishedSnapshots(ctx context.Context, year string) ([]models.ReportSnapshot, error) {
	if !utils.IsAcademicYear(year) {
		return nil, utils.ValidationError("academicYear must look like 2024-2025")
	}
	pub, err := s.publications.Find(ctx, year)
	if err != nil {
		return nil, utils.DependencyError(err, "failed to load publication")
	}
	if pub == nil || !pub.IsPublished || pub.Generation == "" {
		return nil, utils.NotReadyError("results for %s have not been published", year)
	}

	key := cachePrefix(year) + pub.Generation
	var snaps []models.ReportSnapshot
	if utils.GetCache(ctx, s.cache, key, &snaps) {
		return snaps, nil
	}
	snaps, err = s.snapshots.FindGeneration(ctx, year, pub.Generation)
	if err != nil {
		return nil, utils.DependencyError(err, "failed to load report")
	}
	utils.SetCache(ctx, s.cache, key, snaps, cacheTTL)
	return snaps, nil
}

func (s *Service) SchoolsReport(ctx context.Context, year string) ([]models.ReportSnapshot, error) {
	return s.publishedSnapshots(ctx, year)
}

func (s *Service) MySchool(ctx context.Context, actor *models.AuthUser, year string) (*models.ReportSnapshot, error) {
	if actor == nil || actor.School == "" {
		return nil, utils.AuthorizationError("user is not linked to a school")
	}
	snaps, err := s.publishedSnapshots(ctx, year)
	if err != nil {
		return nil, err
	}
	for i := range snaps {
		if snaps[i].SchoolID == actor.School {
			return &snaps[i], nil
		}
	}
	return nil, utils.NotFoundError("no published result for school %s in %s", actor.School, year)
}

// Preview computes the ranking live without persisting anything.
func (s *Service) Preview(ctx context.Context, actor *models.AuthUser, year string) ([]models.ReportSnapshot, error) {
	if !actor.IsPrivileged() {
		return nil, utils.AuthorizationError("only admin or superuser can preview results")
	}
	if !utils.IsAcademicYear(year) {
		return nil, utils.ValidationError("academicYear must look like 2024-2025")
	}
	subs, err := s.source.ListFinalized(ctx, year)
	if err != nil {
		return nil, utils.DependencyError(err, "failed to load finalized submissions")
	}
	return Compute(year, subs, s.scoring, s.now()).Snapshots, nil
}

func cachePrefix(year string) string {
	return "report:" + year + ":"
}
