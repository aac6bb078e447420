package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type SubmissionStatus string

const (
	StatusDraft                SubmissionStatus = "Draft"
	StatusUnderReview          SubmissionStatus = "Under Review"
	StatusPendingFinalApproval SubmissionStatus = "Pending Final Approval"
	StatusCompleted            SubmissionStatus = "Completed"
	StatusAppealSubmitted      SubmissionStatus = "Appeal Submitted"
	StatusAppealClosed         SubmissionStatus = "Appeal Closed"
)

// IsFinalized คือสถานะที่นำไปคิดคะแนนและสร้าง archive ได้
func (s SubmissionStatus) IsFinalized() bool {
	return s == StatusCompleted || s == StatusAppealClosed
}

func FinalizedStatuses() []SubmissionStatus {
	return []SubmissionStatus{StatusCompleted, StatusAppealClosed}
}

type ArchiveStatus string

const (
	ArchiveNotGenerated ArchiveStatus = "Not Generated"
	ArchiveInProgress   ArchiveStatus = "In Progress"
	ArchiveCompleted    ArchiveStatus = "Completed"
	ArchiveFailed       ArchiveStatus = "Failed"
)

type Submission struct {
	ID               primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Department       string             `bson:"department" json:"department"`
	School           string             `bson:"school" json:"school"`
	SchoolName       string             `bson:"schoolName" json:"schoolName"`
	AcademicYear     string             `bson:"academicYear" json:"academicYear"`
	Title            string             `bson:"title" json:"title"`
	SubmissionType   string             `bson:"submissionType" json:"submissionType"`
	CreatedBy        string             `bson:"createdBy" json:"createdBy"`
	Status           SubmissionStatus   `bson:"status" json:"status"`
	PartA            []PartAItem        `bson:"partA" json:"partA"`
	PartB            []Criterion        `bson:"partB" json:"partB"`
	Appeal           *Appeal            `bson:"appeal,omitempty" json:"appeal,omitempty"`
	Archive          Archive            `bson:"archive" json:"archive"`
	HasAppealed      bool               `bson:"hasAppealed" json:"hasAppealed"`
	CatalogueVersion string             `bson:"catalogueVersion" json:"catalogueVersion"`
	Version          int64              `bson:"version" json:"version"`
	CreatedAt        time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt        time.Time          `bson:"updatedAt" json:"updatedAt"`
	SubmittedAt      *time.Time         `bson:"submittedAt,omitempty" json:"submittedAt,omitempty"`
	ReviewedAt       *time.Time         `bson:"reviewedAt,omitempty" json:"reviewedAt,omitempty"`
	CompletedAt      *time.Time         `bson:"completedAt,omitempty" json:"completedAt,omitempty"`
}

type PartAItem struct {
	Code           string  `bson:"code" json:"code"`
	Title          string  `bson:"title" json:"title"`
	SummaryFileKey *string `bson:"summaryFileKey,omitempty" json:"summaryFileKey"`
}

type Criterion struct {
	Code        string         `bson:"code" json:"code"`
	Title       string         `bson:"title" json:"title"`
	SubCriteria []SubCriterion `bson:"subCriteria" json:"subCriteria"`
	ReviewScore *float64       `bson:"reviewScore,omitempty" json:"reviewScore"`
	FinalScore  *float64       `bson:"finalScore,omitempty" json:"finalScore"`
}

type SubCriterion struct {
	Code            string      `bson:"code" json:"code"`
	Title           string      `bson:"title" json:"title"`
	Remark          string      `bson:"remark,omitempty" json:"remark"`
	SuperuserRemark string      `bson:"superuserRemark,omitempty" json:"superuserRemark"`
	Indicators      []Indicator `bson:"indicators" json:"indicators"`
}

type Indicator struct {
	Code                string   `bson:"code" json:"code"`
	Title               string   `bson:"title" json:"title"`
	MaxScore            float64  `bson:"maxScore,omitempty" json:"maxScore,omitempty"`
	EvidenceFileKey     *string  `bson:"evidenceFileKey,omitempty" json:"evidenceFileKey"`
	EvidenceLinkFileKey *string  `bson:"evidenceLinkFileKey,omitempty" json:"evidenceLinkFileKey"`
	SelfAssessedScore   *float64 `bson:"selfAssessedScore,omitempty" json:"selfAssessedScore"`
	ReviewScore         *float64 `bson:"reviewScore,omitempty" json:"reviewScore"`
	ReviewRemark        string   `bson:"reviewRemark,omitempty" json:"reviewRemark"`
	FinalScore          *float64 `bson:"finalScore,omitempty" json:"finalScore"`
	SuperuserRemark     string   `bson:"superuserRemark,omitempty" json:"superuserRemark"`
}

// EffectiveScore คะแนนที่ใช้คิดรายงาน: final > review > self > 0
func (i Indicator) EffectiveScore() float64 {
	switch {
	case i.FinalScore != nil:
		return *i.FinalScore
	case i.ReviewScore != nil:
		return *i.ReviewScore
	case i.SelfAssessedScore != nil:
		return *i.SelfAssessedScore
	}
	return 0
}

type Appeal struct {
	Indicators  []AppealIndicator  `bson:"indicators" json:"indicators"`
	SubmittedBy string             `bson:"submittedBy" json:"submittedBy"`
	SubmittedOn time.Time          `bson:"submittedOn" json:"submittedOn"`
	ClosedBy    string             `bson:"closedBy,omitempty" json:"closedBy,omitempty"`
	ClosedOn    *time.Time         `bson:"closedOn,omitempty" json:"closedOn,omitempty"`
	Resolutions []AppealResolution `bson:"resolutions,omitempty" json:"resolutions,omitempty"`
}

type AppealIndicator struct {
	IndicatorCode   string   `bson:"indicatorCode" json:"indicatorCode"`
	RequestedScore  *float64 `bson:"requestedScore,omitempty" json:"requestedScore"`
	Justification   string   `bson:"justification,omitempty" json:"justification"`
	EvidenceFileKey *string  `bson:"evidenceFileKey,omitempty" json:"evidenceFileKey"`
}

type AppealResolution struct {
	IndicatorCode      string   `bson:"indicatorCode" json:"indicatorCode"`
	PreviousFinalScore *float64 `bson:"previousFinalScore,omitempty" json:"previousFinalScore"`
	FinalScore         float64  `bson:"finalScore" json:"finalScore"`
	Remark             string   `bson:"remark,omitempty" json:"remark"`
}

type Archive struct {
	Status      ArchiveStatus `bson:"status" json:"status"`
	ObjectKey   string        `bson:"objectKey,omitempty" json:"objectKey,omitempty"`
	GeneratedAt *time.Time    `bson:"generatedAt,omitempty" json:"generatedAt,omitempty"`
	Error       string        `bson:"error,omitempty" json:"error,omitempty"`
	RunID       string        `bson:"runId,omitempty" json:"-"`
	StartedAt   *time.Time    `bson:"startedAt,omitempty" json:"startedAt,omitempty"`
}

// FileKeys รวม key ของไฟล์ทุกตัวที่เอกสารอ้างถึง (ไม่รวม archive) ไม่ซ้ำกัน ตามลำดับที่พบ
func (s *Submission) FileKeys() []string {
	keys := []string{}
	seen := map[string]bool{}
	add := func(k *string) {
		if k != nil && *k != "" && !seen[*k] {
			seen[*k] = true
			keys = append(keys, *k)
		}
	}
	for i := range s.PartA {
		add(s.PartA[i].SummaryFileKey)
	}
	for _, c := range s.PartB {
		for _, sc := range c.SubCriteria {
			for i := range sc.Indicators {
				add(sc.Indicators[i].EvidenceFileKey)
				add(sc.Indicators[i].EvidenceLinkFileKey)
			}
		}
	}
	if s.Appeal != nil {
		for i := range s.Appeal.Indicators {
			add(s.Appeal.Indicators[i].EvidenceFileKey)
		}
	}
	return keys
}

// AllObjectKeys includes the generated archive, used for cascading deletion.
func (s *Submission) AllObjectKeys() []string {
	keys := s.FileKeys()
	if k := s.Archive.ObjectKey; k != "" {
		for _, existing := range keys {
			if existing == k {
				return keys
			}
		}
		keys = append(keys, k)
	}
	return keys
}

func (s *Submission) FindIndicator(code string) (ci, si, ii int, ok bool) {
	for ci = range s.PartB {
		for si = range s.PartB[ci].SubCriteria {
			for ii = range s.PartB[ci].SubCriteria[si].Indicators {
				if s.PartB[ci].SubCriteria[si].Indicators[ii].Code == code {
					return ci, si, ii, true
				}
			}
		}
	}
	return 0, 0, 0, false
}

func (s *Submission) FindSubCriterion(code string) (ci, si int, ok bool) {
	for ci = range s.PartB {
		for si = range s.PartB[ci].SubCriteria {
			if s.PartB[ci].SubCriteria[si].Code == code {
				return ci, si, true
			}
		}
	}
	return 0, 0, false
}

// Clone คัดลอกเอกสารแบบ deep copy เพื่อให้ reducer ไม่แตะต้นฉบับ
func (s *Submission) Clone() *Submission {
	out := *s
	out.PartA = make([]PartAItem, len(s.PartA))
	for i, a := range s.PartA {
		a.SummaryFileKey = cloneString(a.SummaryFileKey)
		out.PartA[i] = a
	}
	out.PartB = make([]Criterion, len(s.PartB))
	for ci, c := range s.PartB {
		nc := c
		nc.ReviewScore = cloneFloat(c.ReviewScore)
		nc.FinalScore = cloneFloat(c.FinalScore)
		nc.SubCriteria = make([]SubCriterion, len(c.SubCriteria))
		for si, sc := range c.SubCriteria {
			nsc := sc
			nsc.Indicators = make([]Indicator, len(sc.Indicators))
			for ii, ind := range sc.Indicators {
				ind.EvidenceFileKey = cloneString(ind.EvidenceFileKey)
				ind.EvidenceLinkFileKey = cloneString(ind.EvidenceLinkFileKey)
				ind.SelfAssessedScore = cloneFloat(ind.SelfAssessedScore)
				ind.ReviewScore = cloneFloat(ind.ReviewScore)
				ind.FinalScore = cloneFloat(ind.FinalScore)
				nsc.Indicators[ii] = ind
			}
			nc.SubCriteria[si] = nsc
		}
		out.PartB[ci] = nc
	}
	if s.Appeal != nil {
		ap := *s.Appeal
		ap.Indicators = make([]AppealIndicator, len(s.Appeal.Indicators))
		for i, ai := range s.Appeal.Indicators {
			ai.RequestedScore = cloneFloat(ai.RequestedScore)
			ai.EvidenceFileKey = cloneString(ai.EvidenceFileKey)
			ap.Indicators[i] = ai
		}
		if s.Appeal.Resolutions != nil {
			ap.Resolutions = make([]AppealResolution, len(s.Appeal.Resolutions))
			for i, r := range s.Appeal.Resolutions {
				r.PreviousFinalScore = cloneFloat(r.PreviousFinalScore)
				ap.Resolutions[i] = r
			}
		}
		ap.ClosedOn = cloneTime(s.Appeal.ClosedOn)
		out.Appeal = &ap
	}
	out.Archive.GeneratedAt = cloneTime(s.Archive.GeneratedAt)
	out.Archive.StartedAt = cloneTime(s.Archive.StartedAt)
	out.SubmittedAt = cloneTime(s.SubmittedAt)
	out.ReviewedAt = cloneTime(s.ReviewedAt)
	out.CompletedAt = cloneTime(s.CompletedAt)
	return &out
}

func cloneString(p *string) *string {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func cloneFloat(p *float64) *float64 {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func cloneTime(p *time.Time) *time.Time {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
