package submission

import (
	"testing"
	"time"

	"Backend-QA-Portal/src/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestSaveQueryIsVersioned(t *testing.T) {
	sub := &models.Submission{ID: primitive.NewObjectID(), Status: models.StatusUnderReview,
		Archive: models.Archive{Status: models.ArchiveNotGenerated}}

	filter, update := saveQuery(sub, 4, false)
	assert.Equal(t, bson.M{"_id": sub.ID, "version": int64(4)}, filter)

	set := update["$set"].(bson.M)
	assert.Equal(t, int64(5), set["version"])
	assert.Equal(t, models.StatusUnderReview, set["status"])
	assert.NotContains(t, set, "archive")
	assert.NotContains(t, set, "department")
	assert.NotContains(t, set, "academicYear")

	_, update = saveQuery(sub, 4, true)
	assert.Equal(t, sub.Archive, update["$set"].(bson.M)["archive"])
}

func TestClaimQueryAllowsOnlyIdleOrStaleRuns(t *testing.T) {
	id := primitive.NewObjectID()
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	stale := now.Add(-30 * time.Minute)

	filter, update := claimQuery(id, "run-1", now, stale)
	assert.Equal(t, id, filter["_id"])
	assert.Equal(t, bson.M{"$in": models.FinalizedStatuses()}, filter["status"])

	or, ok := filter["$or"].(bson.A)
	require.True(t, ok)
	assert.ElementsMatch(t, bson.A{
		bson.M{"archive.status": bson.M{"$ne": models.ArchiveInProgress}},
		bson.M{"archive.startedAt": bson.M{"$lt": stale}},
	}, or)

	assert.Equal(t, bson.M{"$set": bson.M{
		"archive.status":    models.ArchiveInProgress,
		"archive.runId":     "run-1",
		"archive.startedAt": now,
		"archive.error":     "",
	}}, update)

	// filter ต้อง encode ได้จริงเป็น BSON
	_, err := bson.Marshal(filter)
	assert.NoError(t, err)
}

func TestFinishQueryRequiresOwningRun(t *testing.T) {
	id := primitive.NewObjectID()
	at := time.Date(2025, 3, 1, 12, 5, 0, 0, time.UTC)
	archive := models.Archive{Status: models.ArchiveCompleted, ObjectKey: "archives/x.zip", GeneratedAt: &at, RunID: "leaked"}

	filter, update := finishQuery(id, "run-1", archive)
	assert.Equal(t, bson.M{"_id": id, "archive.runId": "run-1", "archive.status": models.ArchiveInProgress}, filter)

	written := update["$set"].(bson.M)["archive"].(models.Archive)
	assert.Empty(t, written.RunID)
	assert.Equal(t, "archives/x.zip", written.ObjectKey)
	assert.Equal(t, "leaked", archive.RunID)
}

func TestBuildFilter(t *testing.T) {
	assert.Equal(t, bson.M{}, buildFilter(ListFilter{}))
	assert.Equal(t, bson.M{
		"department":   "CSE",
		"academicYear": "2024-2025",
		"status":       bson.M{"$in": []models.SubmissionStatus{models.StatusDraft}},
	}, buildFilter(ListFilter{Department: "CSE", AcademicYear: "2024-2025", Statuses: []models.SubmissionStatus{models.StatusDraft}}))
}
