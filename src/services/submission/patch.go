package submission

import (
	"Backend-QA-Portal/src/models"
	"Backend-QA-Portal/src/utils"
)

// --------- Request DTOs ---------

type CreateRequest struct {
	AcademicYear   string `json:"academicYear" validate:"required,academicyear"`
	Title          string `json:"title" validate:"required,max=200"`
	SubmissionType string `json:"submissionType" validate:"required,max=50"`
}

type PartAUpdate struct {
	Code           string  `json:"code" validate:"required"`
	SummaryFileKey *string `json:"summaryFileKey"`
}

// IndicatorUpdate carries every writable indicator field; which of them a
// caller may set depends on the caller's role.
type IndicatorUpdate struct {
	Code                string   `json:"code" validate:"required"`
	EvidenceFileKey     *string  `json:"evidenceFileKey"`
	EvidenceLinkFileKey *string  `json:"evidenceLinkFileKey"`
	SelfAssessedScore   *float64 `json:"selfAssessedScore"`
	ReviewScore         *float64 `json:"reviewScore"`
	ReviewRemark        *string  `json:"reviewRemark"`
	FinalScore          *float64 `json:"finalScore"`
	SuperuserRemark     *string  `json:"superuserRemark"`
}

type SubCriterionUpdate struct {
	Code            string  `json:"code" validate:"required"`
	Remark          *string `json:"remark"`
	SuperuserRemark *string `json:"superuserRemark"`
}

// UpdateRequest is the body of PUT /submissions/:id for every role.
type UpdateRequest struct {
	Status      *string              `json:"status"`
	PartA       []PartAUpdate        `json:"partA" validate:"dive"`
	Indicators  []IndicatorUpdate    `json:"indicators" validate:"dive"`
	SubCriteria []SubCriterionUpdate `json:"subCriteria" validate:"dive"`
}

type AppealIndicatorRequest struct {
	IndicatorCode   string   `json:"indicatorCode" validate:"required"`
	RequestedScore  *float64 `json:"requestedScore"`
	Justification   string   `json:"justification" validate:"max=2000"`
	EvidenceFileKey *string  `json:"evidenceFileKey"`
}

type AppealRequest struct {
	Indicators []AppealIndicatorRequest `json:"indicators" validate:"required,min=1,dive"`
}

// --------- Typed patches ---------

// Patch is one role's permitted mutation of the aggregate.
type Patch interface {
	isPatch()
}

type DepartmentPatch struct {
	PartA      []PartAUpdate
	Indicators []IndicatorUpdate
	Submit     bool
}

type ReviewPatch struct {
	Indicators  []IndicatorUpdate
	SubCriteria []SubCriterionUpdate
	Forward     bool
}

type ApprovalPatch struct {
	Indicators  []IndicatorUpdate
	SubCriteria []SubCriterionUpdate
	Complete    bool
}

type AppealPatch struct {
	Indicators []AppealIndicatorRequest
}

type AppealResolutionPatch struct {
	Indicators []IndicatorUpdate
}

func (DepartmentPatch) isPatch()       {}
func (ReviewPatch) isPatch()           {}
func (ApprovalPatch) isPatch()         {}
func (AppealPatch) isPatch()           {}
func (AppealResolutionPatch) isPatch() {}

// BuildPatch แปลง body ของ PUT ให้เป็น patch ตาม role และสถานะปัจจุบัน
// field ที่ role นั้นไม่มีสิทธิ์เขียนจะถูกปฏิเสธทั้ง request
func BuildPatch(role models.Role, current models.SubmissionStatus, req UpdateRequest) (Patch, error) {
	target := ""
	if req.Status != nil {
		target = *req.Status
	}

	switch role {
	case models.RoleDepartment:
		if len(req.SubCriteria) > 0 {
			return nil, utils.AuthorizationError("department cannot write sub-criterion remarks")
		}
		for _, ind := range req.Indicators {
			if ind.ReviewScore != nil || ind.ReviewRemark != nil || ind.FinalScore != nil || ind.SuperuserRemark != nil {
				return nil, utils.AuthorizationError("department can only edit file keys and self-assessed scores (indicator %s)", ind.Code)
			}
		}
		if target != "" && target != string(models.StatusDraft) && target != string(models.StatusUnderReview) {
			return nil, utils.ValidationError("department cannot move a submission to %q", target)
		}
		return DepartmentPatch{
			PartA:      req.PartA,
			Indicators: req.Indicators,
			Submit:     target == string(models.StatusUnderReview),
		}, nil

	case models.RoleQAA:
		if len(req.PartA) > 0 {
			return nil, utils.AuthorizationError("reviewer cannot edit Part A")
		}
		for _, ind := range req.Indicators {
			if ind.EvidenceFileKey != nil || ind.EvidenceLinkFileKey != nil || ind.SelfAssessedScore != nil ||
				ind.FinalScore != nil || ind.SuperuserRemark != nil {
				return nil, utils.AuthorizationError("reviewer can only write review scores and remarks (indicator %s)", ind.Code)
			}
		}
		for _, sc := range req.SubCriteria {
			if sc.SuperuserRemark != nil {
				return nil, utils.AuthorizationError("reviewer cannot write superuser remarks (%s)", sc.Code)
			}
		}
		if target != "" && target != string(models.StatusUnderReview) && target != string(models.StatusPendingFinalApproval) {
			return nil, utils.ValidationError("reviewer cannot move a submission to %q", target)
		}
		return ReviewPatch{
			Indicators:  req.Indicators,
			SubCriteria: req.SubCriteria,
			Forward:     target == string(models.StatusPendingFinalApproval),
		}, nil

	case models.RoleSuperuser:
		if len(req.PartA) > 0 {
			return nil, utils.AuthorizationError("approver cannot edit Part A")
		}
		for _, ind := range req.Indicators {
			if ind.EvidenceFileKey != nil || ind.EvidenceLinkFileKey != nil || ind.SelfAssessedScore != nil ||
				ind.ReviewScore != nil || ind.ReviewRemark != nil {
				return nil, utils.AuthorizationError("approver can only write final scores and remarks (indicator %s)", ind.Code)
			}
		}
		for _, sc := range req.SubCriteria {
			if sc.Remark != nil {
				return nil, utils.AuthorizationError("approver cannot write reviewer remarks (%s)", sc.Code)
			}
		}
		if current == models.StatusAppealSubmitted {
			// ปิดอุทธรณ์ได้ครั้งเดียว ต้องระบุสถานะปลายทางชัดเจน
			if target != string(models.StatusAppealClosed) {
				return nil, utils.ValidationError("resolving an appeal requires status %q", models.StatusAppealClosed)
			}
			if len(req.SubCriteria) > 0 {
				return nil, utils.ValidationError("appeal resolution only accepts indicator overrides")
			}
			return AppealResolutionPatch{Indicators: req.Indicators}, nil
		}
		if target != "" && target != string(models.StatusPendingFinalApproval) && target != string(models.StatusCompleted) {
			return nil, utils.ValidationError("approver cannot move a submission to %q", target)
		}
		return ApprovalPatch{
			Indicators:  req.Indicators,
			SubCriteria: req.SubCriteria,
			Complete:    target == string(models.StatusCompleted),
		}, nil
	}

	return nil, utils.AuthorizationError("role %q cannot update submissions", role)
}
