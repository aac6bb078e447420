package submission

import (
	"context"
	"errors"
	"path"
	"regexp"
	"strings"
	"time"

	"Backend-QA-Portal/src/catalogue"
	"Backend-QA-Portal/src/logger"
	"Backend-QA-Portal/src/models"
	"Backend-QA-Portal/src/services/storage"
	"Backend-QA-Portal/src/services/windows"
	"Backend-QA-Portal/src/utils"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Service struct {
	repo  Repository
	store storage.ObjectStorage
	gate  windows.Gate
	cat   *catalogue.Catalogue
	log   zerolog.Logger
	now   func() time.Time
}

func NewService(repo Repository, store storage.ObjectStorage, gate windows.Gate, cat *catalogue.Catalogue) *Service {
	return &Service{
		repo:  repo,
		store: store,
		gate:  gate,
		cat:   cat,
		log:   logger.Component("submission"),
		now:   time.Now,
	}
}

// WithClock replaces the time source; used by tests.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// Create เปิดเอกสารใหม่ของภาควิชาในปีการศึกษาที่ช่วงส่งงานเปิดอยู่
func (s *Service) Create(ctx context.Context, actor *models.AuthUser, req CreateRequest) (*models.Submission, error) {
	if !actor.HasRole(models.RoleDepartment) {
		return nil, utils.AuthorizationError("only department users can create submissions")
	}
	if actor.Department == "" || actor.School == "" {
		return nil, utils.AuthorizationError("user is not linked to a department and school")
	}
	if err := utils.ValidateStruct(req); err != nil {
		return nil, err
	}

	now := s.now()
	open, err := s.gate.IsSubmissionOpen(ctx, req.AcademicYear, now)
	if err != nil {
		return nil, utils.DependencyError(err, "failed to read submission window")
	}
	if !open {
		return nil, utils.AuthorizationError("submission window for %s is closed", req.AcademicYear)
	}

	existing, err := s.repo.FindByDepartmentYear(ctx, actor.Department, req.AcademicYear)
	if err != nil {
		return nil, utils.DependencyError(err, "failed to check existing submission")
	}
	if existing != nil {
		return nil, utils.ConflictError("department %s already has a submission for %s", actor.Department, req.AcademicYear)
	}

	sub := &models.Submission{
		ID:               primitive.NewObjectID(),
		Department:       actor.Department,
		School:           actor.School,
		SchoolName:       actor.SchoolName,
		AcademicYear:     req.AcademicYear,
		Title:            strings.TrimSpace(req.Title),
		SubmissionType:   req.SubmissionType,
		CreatedBy:        actor.ID,
		Status:           models.StatusDraft,
		PartA:            s.cat.BuildPartA(),
		PartB:            s.cat.BuildPartB(),
		Archive:          models.Archive{Status: models.ArchiveNotGenerated},
		CatalogueVersion: s.cat.Version,
		Version:          1,
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	if err := s.repo.Insert(ctx, sub); err != nil {
		if errors.Is(err, ErrDuplicate) {
			return nil, utils.ConflictError("department %s already has a submission for %s", actor.Department, req.AcademicYear)
		}
		return nil, utils.DependencyError(err, "failed to create submission")
	}

	s.log.Info().Str("submission", sub.ID.Hex()).Str("department", sub.Department).
		Str("year", sub.AcademicYear).Msg("📄 submission created")
	return sub, nil
}

func (s *Service) load(ctx context.Context, id primitive.ObjectID) (*models.Submission, error) {
	sub, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, utils.NotFoundError("submission %s not found", id.Hex())
		}
		return nil, utils.DependencyError(err, "failed to load submission")
	}
	return sub, nil
}

// CanView: reviewer/approver/admin เห็นทุกฉบับ ภาควิชาเห็นเฉพาะของตัวเอง
func CanView(actor *models.AuthUser, sub *models.Submission) bool {
	if actor.CanReadAll() {
		return true
	}
	return actor.HasRole(models.RoleDepartment) && actor.Department != "" && actor.Department == sub.Department
}

func (s *Service) Get(ctx context.Context, actor *models.AuthUser, id primitive.ObjectID) (*models.Submission, error) {
	sub, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !CanView(actor, sub) {
		return nil, utils.AuthorizationError("not allowed to view this submission")
	}
	return sub, nil
}

// Update applies a role-specific edit and, on success, deletes the files the
// edit replaced.
func (s *Service) Update(ctx context.Context, actor *models.AuthUser, id primitive.ObjectID, req UpdateRequest) (*models.Submission, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, err
	}
	cur, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	patch, err := BuildPatch(actor.Role, cur.Status, req)
	if err != nil {
		return nil, err
	}
	return s.commit(ctx, actor, cur, patch)
}

// SubmitAppeal raises the one appeal a completed submission may receive.
func (s *Service) SubmitAppeal(ctx context.Context, actor *models.AuthUser, id primitive.ObjectID, req AppealRequest) (*models.Submission, error) {
	cur, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	// ตรวจสิทธิ์และสถานะก่อน validate body เพื่อให้การอุทธรณ์ซ้ำได้ conflict เสมอ
	if err := requireOwner(cur, actor); err != nil {
		return nil, err
	}
	if cur.HasAppealed {
		return nil, utils.ConflictError("an appeal has already been submitted for this submission")
	}
	if err := utils.ValidateStruct(req); err != nil {
		return nil, err
	}
	return s.commit(ctx, actor, cur, AppealPatch{Indicators: req.Indicators})
}

func (s *Service) commit(ctx context.Context, actor *models.AuthUser, cur *models.Submission, patch Patch) (*models.Submission, error) {
	now := s.now()
	out, err := Apply(cur, actor, patch, now)
	if err != nil {
		return nil, err
	}

	if out.NeedsSubmissionWindow {
		open, err := s.gate.IsSubmissionOpen(ctx, cur.AcademicYear, now)
		if err != nil {
			return nil, utils.DependencyError(err, "failed to read submission window")
		}
		if !open {
			return nil, utils.AuthorizationError("submission window for %s is closed", cur.AcademicYear)
		}
	}
	if out.NeedsAppealWindow {
		open, err := s.gate.IsAppealOpen(ctx, cur.AcademicYear, now)
		if err != nil {
			return nil, utils.DependencyError(err, "failed to read appeal window")
		}
		if !open {
			return nil, utils.AuthorizationError("appeal window for %s is closed", cur.AcademicYear)
		}
	}

	if err := s.repo.Save(ctx, out.Next, cur.Version, out.ResetArchive); err != nil {
		if errors.Is(err, ErrVersionConflict) {
			return nil, utils.ConflictError("submission was changed by someone else; reload and try again")
		}
		return nil, utils.DependencyError(err, "failed to save submission")
	}

	if cur.Status != out.Status {
		s.log.Info().Str("submission", cur.ID.Hex()).Str("actor", actor.ID).
			Str("from", string(cur.Status)).Str("to", string(out.Status)).Msg("🔁 status changed")
	}

	cleanupOrphans(ctx, s.store, s.log, cur.ID.Hex(), out.Orphaned)
	return out.Next, nil
}

// Delete removes every stored object of the submission and then the document.
// If storage deletion fails the document is kept.
func (s *Service) Delete(ctx context.Context, actor *models.AuthUser, id primitive.ObjectID) error {
	if !actor.IsPrivileged() {
		return utils.AuthorizationError("only admin or superuser can delete submissions")
	}
	sub, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	if sub.Archive.Status == models.ArchiveInProgress {
		return utils.ConflictError("archive generation is in progress; try again later")
	}

	keys := sub.AllObjectKeys()
	if len(keys) > 0 {
		if err := s.store.DeleteObjects(ctx, keys); err != nil {
			return utils.DependencyError(err, "failed to delete stored files; submission was not removed")
		}
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, ErrNotFound) {
			return utils.NotFoundError("submission %s not found", id.Hex())
		}
		return utils.DependencyError(err, "files were deleted but the submission could not be removed")
	}

	s.log.Info().Str("submission", id.Hex()).Str("actor", actor.ID).Int("files", len(keys)).Msg("🗑️ submission deleted")
	return nil
}

// --------- Listings ---------

func (s *Service) list(ctx context.Context, f ListFilter, p models.PaginationParams) (*models.PaginatedResponse, error) {
	p = models.CleanPagination(p)
	items, total, err := s.repo.List(ctx, f, p)
	if err != nil {
		return nil, utils.DependencyError(err, "failed to list submissions")
	}
	return &models.PaginatedResponse{Data: items, Meta: models.NewPaginationMeta(total, p)}, nil
}

func (s *Service) ListMyDepartment(ctx context.Context, actor *models.AuthUser, year string, p models.PaginationParams) (*models.PaginatedResponse, error) {
	if !actor.HasRole(models.RoleDepartment) || actor.Department == "" {
		return nil, utils.AuthorizationError("only department users have their own submissions")
	}
	return s.list(ctx, ListFilter{Department: actor.Department, AcademicYear: year}, p)
}

func (s *Service) ListReviewQueue(ctx context.Context, actor *models.AuthUser, year string, p models.PaginationParams) (*models.PaginatedResponse, error) {
	if !actor.HasRole(models.RoleQAA, models.RoleAdmin) {
		return nil, utils.AuthorizationError("review queue is limited to reviewers")
	}
	return s.list(ctx, ListFilter{AcademicYear: year, Statuses: []models.SubmissionStatus{models.StatusUnderReview}}, p)
}

func (s *Service) ListApprovalQueue(ctx context.Context, actor *models.AuthUser, year string, p models.PaginationParams) (*models.PaginatedResponse, error) {
	if !actor.HasRole(models.RoleSuperuser, models.RoleAdmin) {
		return nil, utils.AuthorizationError("approval queue is limited to approvers")
	}
	return s.list(ctx, ListFilter{AcademicYear: year, Statuses: []models.SubmissionStatus{
		models.StatusPendingFinalApproval,
		models.StatusAppealSubmitted,
	}}, p)
}

func (s *Service) ListApproved(ctx context.Context, actor *models.AuthUser, year string, p models.PaginationParams) (*models.PaginatedResponse, error) {
	if !actor.CanReadAll() {
		return nil, utils.AuthorizationError("not allowed to list approved submissions")
	}
	return s.list(ctx, ListFilter{AcademicYear: year, Statuses: models.FinalizedStatuses()}, p)
}

// --------- Uploads ---------

type PresignRequest struct {
	AcademicYear string `json:"academicYear" validate:"required,academicyear"`
	FileName     string `json:"fileName" validate:"required,max=200"`
	ContentType  string `json:"contentType" validate:"required"`
}

type PresignResponse struct {
	Key       string `json:"key"`
	UploadURL string `json:"uploadUrl"`
}

var unsafeName = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// PresignUpload hands the department a short-lived PUT URL. The returned key
// is what the client later writes into the submission.
func (s *Service) PresignUpload(ctx context.Context, actor *models.AuthUser, req PresignRequest) (*PresignResponse, error) {
	if !actor.HasRole(models.RoleDepartment) || actor.Department == "" {
		return nil, utils.AuthorizationError("only department users can upload evidence")
	}
	if err := utils.ValidateStruct(req); err != nil {
		return nil, err
	}

	name := unsafeName.ReplaceAllString(path.Base(req.FileName), "_")
	if name == "" || name == "." || name == "_" {
		name = "file"
	}
	key := EvidencePrefix(req.AcademicYear, actor.Department) + uuid.NewString() + "-" + name

	url, err := s.store.PutSignedURL(ctx, key, req.ContentType)
	if err != nil {
		return nil, utils.DependencyError(err, "failed to sign upload url")
	}
	return &PresignResponse{Key: key, UploadURL: url}, nil
}
