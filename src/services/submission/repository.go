package submission

import (
	"context"
	"errors"
	"fmt"
	"time"

	"Backend-QA-Portal/src/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var (
	ErrNotFound        = errors.New("submission not found")
	ErrDuplicate       = errors.New("submission already exists for this department and year")
	ErrVersionConflict = errors.New("submission was modified concurrently")
)

// ListFilter narrows a listing; empty fields are ignored.
type ListFilter struct {
	Department   string
	AcademicYear string
	Statuses     []models.SubmissionStatus
}

type Repository interface {
	Insert(ctx context.Context, sub *models.Submission) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Submission, error)
	FindByDepartmentYear(ctx context.Context, department, year string) (*models.Submission, error)
	// Save writes the whole aggregate if the stored version still equals
	// expectedVersion. archive is only written when resetArchive is set.
	Save(ctx context.Context, sub *models.Submission, expectedVersion int64, resetArchive bool) error
	Delete(ctx context.Context, id primitive.ObjectID) error
	List(ctx context.Context, filter ListFilter, p models.PaginationParams) ([]models.Submission, int64, error)
}

type MongoRepository struct {
	coll *mongo.Collection
}

func NewMongoRepository(coll *mongo.Collection) *MongoRepository {
	return &MongoRepository{coll: coll}
}

func (r *MongoRepository) Insert(ctx context.Context, sub *models.Submission) error {
	if sub.ID.IsZero() {
		sub.ID = primitive.NewObjectID()
	}
	if _, err := r.coll.InsertOne(ctx, sub); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("failed to insert submission: %w", err)
	}
	return nil
}

func (r *MongoRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Submission, error) {
	var sub models.Submission
	if err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&sub); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to load submission: %w", err)
	}
	return &sub, nil
}

// FindByDepartmentYear returns (nil, nil) when nothing matches.
func (r *MongoRepository) FindByDepartmentYear(ctx context.Context, department, year string) (*models.Submission, error) {
	var sub models.Submission
	err := r.coll.FindOne(ctx, bson.M{"department": department, "academicYear": year}).Decode(&sub)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to load submission: %w", err)
	}
	return &sub, nil
}

func (r *MongoRepository) Save(ctx context.Context, sub *models.Submission, expectedVersion int64, resetArchive bool) error {
	filter, update := saveQuery(sub, expectedVersion, resetArchive)
	res, err := r.coll.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("failed to save submission: %w", err)
	}
	if res.MatchedCount == 0 {
		return ErrVersionConflict
	}
	sub.Version = expectedVersion + 1
	return nil
}

// saveQuery: compare-and-set บน version
func saveQuery(sub *models.Submission, expectedVersion int64, resetArchive bool) (bson.M, bson.M) {
	set := bson.M{
		"title":       sub.Title,
		"status":      sub.Status,
		"partA":       sub.PartA,
		"partB":       sub.PartB,
		"appeal":      sub.Appeal,
		"hasAppealed": sub.HasAppealed,
		"updatedAt":   sub.UpdatedAt,
		"submittedAt": sub.SubmittedAt,
		"reviewedAt":  sub.ReviewedAt,
		"completedAt": sub.CompletedAt,
		"version":     expectedVersion + 1,
	}
	// archive ถูกเขียนโดย pipeline แยก ไม่ทับยกเว้นตอน reset
	if resetArchive {
		set["archive"] = sub.Archive
	}
	return bson.M{"_id": sub.ID, "version": expectedVersion}, bson.M{"$set": set}
}

func (r *MongoRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	res, err := r.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("failed to delete submission: %w", err)
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *MongoRepository) List(ctx context.Context, filter ListFilter, p models.PaginationParams) ([]models.Submission, int64, error) {
	q := buildFilter(filter)

	total, err := r.coll.CountDocuments(ctx, q)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count submissions: %w", err)
	}

	opts := options.Find().
		SetSort(bson.D{{Key: p.SortBy, Value: p.GetSortOrder()}, {Key: "_id", Value: 1}}).
		SetSkip(p.GetSkip()).
		SetLimit(int64(p.Limit))

	cursor, err := r.coll.Find(ctx, q, opts)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list submissions: %w", err)
	}
	defer cursor.Close(ctx)

	out := []models.Submission{}
	if err := cursor.All(ctx, &out); err != nil {
		return nil, 0, fmt.Errorf("failed to decode submissions: %w", err)
	}
	return out, total, nil
}

// ListFinalized returns every Completed / Appeal Closed submission of a year.
func (r *MongoRepository) ListFinalized(ctx context.Context, year string) ([]models.Submission, error) {
	q := buildFilter(ListFilter{AcademicYear: year, Statuses: models.FinalizedStatuses()})
	cursor, err := r.coll.Find(ctx, q, options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("failed to list finalized submissions: %w", err)
	}
	defer cursor.Close(ctx)

	out := []models.Submission{}
	if err := cursor.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("failed to decode submissions: %w", err)
	}
	return out, nil
}

// ClaimArchive atomically moves a finalized submission's archive to In
// Progress. ok is false when another run holds it or the status does not allow it.
// A run that started before staleBefore is considered dead and may be taken over.
func (r *MongoRepository) ClaimArchive(ctx context.Context, id primitive.ObjectID, runID string, now, staleBefore time.Time) (*models.Submission, bool, error) {
	filter, update := claimQuery(id, runID, now, staleBefore)
	var sub models.Submission
	err := r.coll.FindOneAndUpdate(ctx, filter, update,
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&sub)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("failed to claim archive: %w", err)
	}
	return &sub, true, nil
}

func claimQuery(id primitive.ObjectID, runID string, now, staleBefore time.Time) (bson.M, bson.M) {
	filter := bson.M{
		"_id":    id,
		"status": bson.M{"$in": models.FinalizedStatuses()},
		"$or": bson.A{
			bson.M{"archive.status": bson.M{"$ne": models.ArchiveInProgress}},
			bson.M{"archive.startedAt": bson.M{"$lt": staleBefore}},
		},
	}
	update := bson.M{"$set": bson.M{
		"archive.status":    models.ArchiveInProgress,
		"archive.runId":     runID,
		"archive.startedAt": now,
		"archive.error":     "",
	}}
	return filter, update
}

// FinishArchive records the run result only if runID still owns the archive.
func (r *MongoRepository) FinishArchive(ctx context.Context, id primitive.ObjectID, runID string, archive models.Archive) (bool, error) {
	filter, update := finishQuery(id, runID, archive)
	res, err := r.coll.UpdateOne(ctx, filter, update)
	if err != nil {
		return false, fmt.Errorf("failed to finish archive: %w", err)
	}
	return res.MatchedCount > 0, nil
}

func finishQuery(id primitive.ObjectID, runID string, archive models.Archive) (bson.M, bson.M) {
	archive.RunID = ""
	return bson.M{"_id": id, "archive.runId": runID, "archive.status": models.ArchiveInProgress},
		bson.M{"$set": bson.M{"archive": archive}}
}

func buildFilter(f ListFilter) bson.M {
	q := bson.M{}
	if f.Department != "" {
		q["department"] = f.Department
	}
	if f.AcademicYear != "" {
		q["academicYear"] = f.AcademicYear
	}
	if len(f.Statuses) > 0 {
		q["status"] = bson.M{"$in": f.Statuses}
	}
	return q
}
