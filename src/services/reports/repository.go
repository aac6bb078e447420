package reports

import (
	"context"
	"errors"
	"fmt"

	"Backend-QA-Portal/src/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// SubmissionSource supplies finalized submissions of a year.
type SubmissionSource interface {
	ListFinalized(ctx context.Context, year string) ([]models.Submission, error)
}

type SnapshotRepository interface {
	InsertGeneration(ctx context.Context, snaps []models.ReportSnapshot) error
	FindGeneration(ctx context.Context, year, generation string) ([]models.ReportSnapshot, error)
	DeleteGeneration(ctx context.Context, year, generation string) error
	DeleteOtherGenerations(ctx context.Context, year, keep string) (int64, error)
}

type PublicationRepository interface {
	// Find returns (nil, nil) when the year has no record yet.
	Find(ctx context.Context, year string) (*models.ResultPublication, error)
	Upsert(ctx context.Context, pub *models.ResultPublication) error
}

type mongoSnapshots struct {
	coll *mongo.Collection
}

func NewMongoSnapshotRepository(coll *mongo.Collection) SnapshotRepository {
	return &mongoSnapshots{coll: coll}
}

func (r *mongoSnapshots) InsertGeneration(ctx context.Context, snaps []models.ReportSnapshot) error {
	if len(snaps) == 0 {
		return nil
	}
	docs := make([]interface{}, 0, len(snaps))
	for i := range snaps {
		docs = append(docs, snaps[i])
	}
	if _, err := r.coll.InsertMany(ctx, docs); err != nil {
		return fmt.Errorf("failed to insert report snapshots: %w", err)
	}
	return nil
}

func (r *mongoSnapshots) FindGeneration(ctx context.Context, year, generation string) ([]models.ReportSnapshot, error) {
	cursor, err := r.coll.Find(ctx,
		bson.M{"academicYear": year, "generation": generation},
		options.Find().SetSort(bson.D{{Key: "rank", Value: 1}}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load report snapshots: %w", err)
	}
	defer cursor.Close(ctx)

	out := []models.ReportSnapshot{}
	if err := cursor.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("failed to decode report snapshots: %w", err)
	}
	return out, nil
}

func (r *mongoSnapshots) DeleteGeneration(ctx context.Context, year, generation string) error {
	_, err := r.coll.DeleteMany(ctx, bson.M{"academicYear": year, "generation": generation})
	return err
}

func (r *mongoSnapshots) DeleteOtherGenerations(ctx context.Context, year, keep string) (int64, error) {
	res, err := r.coll.DeleteMany(ctx, bson.M{"academicYear": year, "generation": bson.M{"$ne": keep}})
	if err != nil {
		return 0, fmt.Errorf("failed to prune report snapshots: %w", err)
	}
	return res.DeletedCount, nil
}

type mongoPublications struct {
	coll *mongo.Collection
}

func NewMongoPublicationRepository(coll *mongo.Collection) PublicationRepository {
	return &mongoPublications{coll: coll}
}

func (r *mongoPublications) Find(ctx context.Context, year string) (*models.ResultPublication, error) {
	var pub models.ResultPublication
	if err := r.coll.FindOne(ctx, bson.M{"academicYear": year}).Decode(&pub); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to load publication: %w", err)
	}
	return &pub, nil
}

func (r *mongoPublications) Upsert(ctx context.Context, pub *models.ResultPublication) error {
	set := bson.M{
		"academicYear": pub.AcademicYear,
		"isPublished":  pub.IsPublished,
		"publishedAt":  pub.PublishedAt,
		"updatedBy":    pub.UpdatedBy,
		"updatedAt":    pub.UpdatedAt,
		"generation":   pub.Generation,
	}
	_, err := r.coll.UpdateOne(ctx,
		bson.M{"academicYear": pub.AcademicYear},
		bson.M{"$set": set},
		options.Update().SetUpsert(true),
	)
	if err != nil {
		return fmt.Errorf("failed to save publication: %w", err)
	}
	return nil
}
