package archives

import (
	"archive/zip"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"Backend-QA-Portal/src/models"
	"Backend-QA-Portal/src/services/storage"
)

type Manifest struct {
	SubmissionID string                  `json:"submissionId"`
	RunID        string                  `json:"runId"`
	GeneratedAt  time.Time               `json:"generatedAt"`
	Department   string                  `json:"department"`
	School       string                  `json:"school"`
	SchoolName   string                  `json:"schoolName"`
	AcademicYear string                  `json:"academicYear"`
	Title        string                  `json:"title"`
	Status       models.SubmissionStatus `json:"status"`
	PartA        []models.PartAItem      `json:"partA"`
	PartB        []models.Criterion      `json:"partB"`
	Appeal       *models.Appeal          `json:"appeal,omitempty"`
	Files        []string                `json:"files"`
}

const filesDir = "files/"

// Bundle streams a zip of every referenced file plus manifest.json into out.
// Any missing file fails the whole bundle.
func Bundle(ctx context.Context, objects storage.ObjectStorage, sub *models.Submission, runID string, now time.Time, out io.Writer) error {
	zw := zip.NewWriter(out)

	keys := sub.FileKeys()
	for _, key := range keys {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := copyObject(ctx, objects, zw, key); err != nil {
			return err
		}
	}

	manifest := Manifest{
		SubmissionID: sub.ID.Hex(),
		RunID:        runID,
		GeneratedAt:  now,
		Department:   sub.Department,
		School:       sub.School,
		SchoolName:   sub.SchoolName,
		AcademicYear: sub.AcademicYear,
		Title:        sub.Title,
		Status:       sub.Status,
		PartA:        sub.PartA,
		PartB:        sub.PartB,
		Appeal:       sub.Appeal,
		Files:        keys,
	}
	w, err := zw.Create("manifest.json")
	if err != nil {
		return err
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(manifest); err != nil {
		return fmt.Errorf("write manifest: %w", err)
	}
	return zw.Close()
}

func copyObject(ctx context.Context, objects storage.ObjectStorage, zw *zip.Writer, key string) error {
	rc, err := objects.GetObject(ctx, key)
	if err != nil {
		return fmt.Errorf("fetch %s: %w", key, err)
	}
	defer rc.Close()

	w, err := zw.Create(filesDir + key)
	if err != nil {
		return err
	}
	if _, err := io.Copy(w, rc); err != nil {
		return fmt.Errorf("copy %s: %w", key, err)
	}
	return nil
}
