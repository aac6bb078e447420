package windows

import (
	"context"
	"errors"
	"fmt"
	"time"

	"Backend-QA-Portal/src/models"
	"Backend-QA-Portal/src/utils"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Repository stores one window document per academic year.
type Repository interface {
	FindByYear(ctx context.Context, year string) (*models.AcademicWindow, error)
	Upsert(ctx context.Context, w *models.AcademicWindow) error
}

// Gate answers whether the submission/appeal window of a year is open.
type Gate interface {
	IsSubmissionOpen(ctx context.Context, year string, now time.Time) (bool, error)
	IsAppealOpen(ctx context.Context, year string, now time.Time) (bool, error)
}

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) IsSubmissionOpen(ctx context.Context, year string, now time.Time) (bool, error) {
	w, err := s.repo.FindByYear(ctx, year)
	if err != nil || w == nil {
		return false, err
	}
	return within(now, w.SubmissionStart, w.SubmissionEnd), nil
}

func (s *Service) IsAppealOpen(ctx context.Context, year string, now time.Time) (bool, error) {
	w, err := s.repo.FindByYear(ctx, year)
	if err != nil || w == nil {
		return false, err
	}
	return within(now, w.AppealStart, w.AppealEnd), nil
}

// within ปิดทั้งสองฝั่ง: start <= now <= end; ช่วงที่ไม่ครบถือว่าปิด
func within(now time.Time, start, end *time.Time) bool {
	if start == nil || end == nil {
		return false
	}
	return !now.Before(*start) && !now.After(*end)
}

func (s *Service) Get(ctx context.Context, year string) (*models.AcademicWindow, error) {
	w, err := s.repo.FindByYear(ctx, year)
	if err != nil {
		return nil, utils.DependencyError(err, "failed to load window")
	}
	if w == nil {
		return nil, utils.NotFoundError("no window configured for %s", year)
	}
	return w, nil
}

func (s *Service) Upsert(ctx context.Context, actor *models.AuthUser, w *models.AcademicWindow) (*models.AcademicWindow, error) {
	if !actor.IsPrivileged() {
		return nil, utils.AuthorizationError("only admin or superuser can configure windows")
	}
	if !utils.IsAcademicYear(w.AcademicYear) {
		return nil, utils.ValidationError("invalid academic year %q", w.AcademicYear)
	}
	if err := checkRange("submission", w.SubmissionStart, w.SubmissionEnd); err != nil {
		return nil, err
	}
	if err := checkRange("appeal", w.AppealStart, w.AppealEnd); err != nil {
		return nil, err
	}
	w.UpdatedBy = actor.ID
	w.UpdatedAt = time.Now()
	if err := s.repo.Upsert(ctx, w); err != nil {
		return nil, utils.DependencyError(err, "failed to save window")
	}
	return w, nil
}

func checkRange(name string, start, end *time.Time) error {
	if (start == nil) != (end == nil) {
		return utils.ValidationError("%s window needs both start and end", name)
	}
	if start != nil && end.Before(*start) {
		return utils.ValidationError("%s window ends before it starts", name)
	}
	return nil
}

type mongoRepository struct {
	coll *mongo.Collection
}

func NewMongoRepository(coll *mongo.Collection) Repository {
	return &mongoRepository{coll: coll}
}

// FindByYear returns (nil, nil) when the year has no window.
func (r *mongoRepository) FindByYear(ctx context.Context, year string) (*models.AcademicWindow, error) {
	var w models.AcademicWindow
	err := r.coll.FindOne(ctx, bson.M{"academicYear": year}).Decode(&w)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to load window: %w", err)
	}
	return &w, nil
}

func (r *mongoRepository) Upsert(ctx context.Context, w *models.AcademicWindow) error {
	_, err := r.coll.ReplaceOne(ctx, bson.M{"academicYear": w.AcademicYear}, w, options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("failed to save window: %w", err)
	}
	return nil
}
