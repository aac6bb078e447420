package submission

import (
	"math"
	"time"

	"Backend-QA-Portal/src/models"
	"Backend-QA-Portal/src/utils"
)

// Outcome is the result of applying a patch to a cloned submission.
type Outcome struct {
	Next         *models.Submission
	Orphaned     []string
	Status       models.SubmissionStatus
	ResetArchive bool
	// NeedsSubmissionWindow / NeedsAppealWindow are checked by the service
	// after the pure guards pass.
	NeedsSubmissionWindow bool
	NeedsAppealWindow     bool
}

// Apply เลือก strategy ตาม role + สถานะ แล้วคืนเอกสารใหม่ (ต้นฉบับไม่ถูกแก้)
func Apply(cur *models.Submission, actor *models.AuthUser, p Patch, now time.Time) (Outcome, error) {
	if cur == nil {
		return Outcome{}, utils.NotFoundError("submission not found")
	}
	switch patch := p.(type) {
	case DepartmentPatch:
		if err := requireOwner(cur, actor); err != nil {
			return Outcome{}, err
		}
		return applyDepartmentUpdate(cur, patch, now)
	case ReviewPatch:
		if !actor.HasRole(models.RoleQAA) {
			return Outcome{}, utils.AuthorizationError("only reviewers can review submissions")
		}
		return applyReviewUpdate(cur, patch, now)
	case ApprovalPatch:
		if !actor.HasRole(models.RoleSuperuser) {
			return Outcome{}, utils.AuthorizationError("only approvers can approve submissions")
		}
		return applyApprovalUpdate(cur, patch, now)
	case AppealPatch:
		if err := requireOwner(cur, actor); err != nil {
			return Outcome{}, err
		}
		return applyAppealSubmission(cur, actor, patch, now)
	case AppealResolutionPatch:
		if !actor.HasRole(models.RoleSuperuser) {
			return Outcome{}, utils.AuthorizationError("only approvers can resolve appeals")
		}
		return applyAppealResolution(cur, actor, patch, now)
	}
	return Outcome{}, utils.ValidationError("unsupported update")
}

func requireOwner(cur *models.Submission, actor *models.AuthUser) error {
	if !actor.HasRole(models.RoleDepartment) {
		return utils.AuthorizationError("only the owning department can edit this submission")
	}
	if actor.Department == "" || actor.Department != cur.Department {
		return utils.AuthorizationError("submission belongs to another department")
	}
	return nil
}

// --------- Department: Draft -> Draft | Under Review ---------

func applyDepartmentUpdate(cur *models.Submission, p DepartmentPatch, now time.Time) (Outcome, error) {
	if cur.Status != models.StatusDraft {
		return Outcome{}, utils.ConflictError("submission is %q and can no longer be edited by the department", cur.Status)
	}
	next := cur.Clone()
	prefix := EvidencePrefix(cur.AcademicYear, cur.Department)

	var err error
	for _, u := range p.PartA {
		idx := -1
		for i := range next.PartA {
			if next.PartA[i].Code == u.Code {
				idx = i
				break
			}
		}
		if idx < 0 {
			return Outcome{}, utils.ValidationError("unknown Part A code %q", u.Code)
		}
		if next.PartA[idx].SummaryFileKey, err = mergeKey(next.PartA[idx].SummaryFileKey, u.SummaryFileKey, prefix); err != nil {
			return Outcome{}, err
		}
	}

	for _, u := range p.Indicators {
		ci, si, ii, ok := next.FindIndicator(u.Code)
		if !ok {
			return Outcome{}, utils.ValidationError("unknown indicator code %q", u.Code)
		}
		ind := &next.PartB[ci].SubCriteria[si].Indicators[ii]
		if ind.EvidenceFileKey, err = mergeKey(ind.EvidenceFileKey, u.EvidenceFileKey, prefix); err != nil {
			return Outcome{}, err
		}
		if ind.EvidenceLinkFileKey, err = mergeKey(ind.EvidenceLinkFileKey, u.EvidenceLinkFileKey, prefix); err != nil {
			return Outcome{}, err
		}
		if u.SelfAssessedScore != nil {
			if err := checkScore(*ind, *u.SelfAssessedScore); err != nil {
				return Outcome{}, err
			}
			ind.SelfAssessedScore = floatPtr(*u.SelfAssessedScore)
		}
	}

	status := models.StatusDraft
	if p.Submit {
		status = models.StatusUnderReview
		next.SubmittedAt = timePtr(now)
	}
	next.Status = status
	next.UpdatedAt = now

	return Outcome{
		Next:                  next,
		Orphaned:              Reconcile(cur.FileKeys(), next.FileKeys()),
		Status:                status,
		NeedsSubmissionWindow: true,
	}, nil
}

// --------- Reviewer: Under Review -> Under Review | Pending Final Approval ---------

func applyReviewUpdate(cur *models.Submission, p ReviewPatch, now time.Time) (Outcome, error) {
	if cur.Status != models.StatusUnderReview {
		return Outcome{}, utils.ConflictError("submission is %q; reviewers can only edit submissions under review", cur.Status)
	}
	next := cur.Clone()

	for _, u := range p.Indicators {
		ci, si, ii, ok := next.FindIndicator(u.Code)
		if !ok {
			return Outcome{}, utils.ValidationError("unknown indicator code %q", u.Code)
		}
		ind := &next.PartB[ci].SubCriteria[si].Indicators[ii]
		if u.ReviewScore != nil {
			if err := checkScore(*ind, *u.ReviewScore); err != nil {
				return Outcome{}, err
			}
			ind.ReviewScore = floatPtr(*u.ReviewScore)
		}
		if u.ReviewRemark != nil {
			ind.ReviewRemark = *u.ReviewRemark
		}
	}
	for _, u := range p.SubCriteria {
		ci, si, ok := next.FindSubCriterion(u.Code)
		if !ok {
			return Outcome{}, utils.ValidationError("unknown sub-criterion code %q", u.Code)
		}
		if u.Remark != nil {
			next.PartB[ci].SubCriteria[si].Remark = *u.Remark
		}
	}
	rollUp(next)

	status := models.StatusUnderReview
	if p.Forward {
		status = models.StatusPendingFinalApproval
		next.ReviewedAt = timePtr(now)
	}
	next.Status = status
	next.UpdatedAt = now
	return Outcome{Next: next, Status: status}, nil
}

// --------- Approver: Pending Final Approval -> Pending Final Approval | Completed ---------

func applyApprovalUpdate(cur *models.Submission, p ApprovalPatch, now time.Time) (Outcome, error) {
	if cur.Status != models.StatusPendingFinalApproval {
		return Outcome{}, utils.ConflictError("submission is %q; approvers can only edit submissions pending final approval", cur.Status)
	}
	next := cur.Clone()

	for _, u := range p.Indicators {
		ci, si, ii, ok := next.FindIndicator(u.Code)
		if !ok {
			return Outcome{}, utils.ValidationError("unknown indicator code %q", u.Code)
		}
		ind := &next.PartB[ci].SubCriteria[si].Indicators[ii]
		if u.FinalScore != nil {
			if err := checkScore(*ind, *u.FinalScore); err != nil {
				return Outcome{}, err
			}
			ind.FinalScore = floatPtr(*u.FinalScore)
		}
		if u.SuperuserRemark != nil {
			ind.SuperuserRemark = *u.SuperuserRemark
		}
	}
	for _, u := range p.SubCriteria {
		ci, si, ok := next.FindSubCriterion(u.Code)
		if !ok {
			return Outcome{}, utils.ValidationError("unknown sub-criterion code %q", u.Code)
		}
		if u.SuperuserRemark != nil {
			next.PartB[ci].SubCriteria[si].SuperuserRemark = *u.SuperuserRemark
		}
	}
	rollUp(next)

	out := Outcome{Next: next, Status: models.StatusPendingFinalApproval}
	if p.Complete {
		out.Status = models.StatusCompleted
		out.ResetArchive = true
		next.CompletedAt = timePtr(now)
		next.Archive = models.Archive{Status: models.ArchiveNotGenerated}
	}
	next.Status = out.Status
	next.UpdatedAt = now
	return out, nil
}

// --------- Department: Completed -> Appeal Submitted (once) ---------

func applyAppealSubmission(cur *models.Submission, actor *models.AuthUser, p AppealPatch, now time.Time) (Outcome, error) {
	if cur.HasAppealed || cur.Appeal != nil {
		return Outcome{}, utils.ConflictError("an appeal has already been submitted for this submission")
	}
	if cur.Status != models.StatusCompleted {
		return Outcome{}, utils.ConflictError("appeals can only be raised on completed submissions (status %q)", cur.Status)
	}
	if len(p.Indicators) == 0 {
		return Outcome{}, utils.ValidationError("appeal must name at least one indicator")
	}

	next := cur.Clone()
	prefix := EvidencePrefix(cur.AcademicYear, cur.Department)
	seen := make(map[string]bool, len(p.Indicators))
	items := make([]models.AppealIndicator, 0, len(p.Indicators))
	for _, req := range p.Indicators {
		if seen[req.IndicatorCode] {
			return Outcome{}, utils.ValidationError("indicator %q appears twice in the appeal", req.IndicatorCode)
		}
		seen[req.IndicatorCode] = true

		ci, si, ii, ok := next.FindIndicator(req.IndicatorCode)
		if !ok {
			return Outcome{}, utils.ValidationError("unknown indicator code %q", req.IndicatorCode)
		}
		if req.RequestedScore != nil {
			if err := checkScore(next.PartB[ci].SubCriteria[si].Indicators[ii], *req.RequestedScore); err != nil {
				return Outcome{}, err
			}
		}
		evidence, err := mergeKey(nil, req.EvidenceFileKey, prefix)
		if err != nil {
			return Outcome{}, err
		}
		items = append(items, models.AppealIndicator{
			IndicatorCode:   req.IndicatorCode,
			RequestedScore:  cloneFloat(req.RequestedScore),
			Justification:   req.Justification,
			EvidenceFileKey: evidence,
		})
	}

	next.Appeal = &models.Appeal{
		Indicators:  items,
		SubmittedBy: actor.ID,
		SubmittedOn: now,
	}
	next.HasAppealed = true
	next.Status = models.StatusAppealSubmitted
	next.UpdatedAt = now
	return Outcome{Next: next, Status: next.Status, NeedsAppealWindow: true}, nil
}

// --------- Approver: Appeal Submitted -> Appeal Closed ---------

func applyAppealResolution(cur *models.Submission, actor *models.AuthUser, p AppealResolutionPatch, now time.Time) (Outcome, error) {
	if cur.Status != models.StatusAppealSubmitted || cur.Appeal == nil {
		return Outcome{}, utils.ConflictError("submission has no open appeal (status %q)", cur.Status)
	}
	next := cur.Clone()

	requested := make(map[string]*float64, len(next.Appeal.Indicators))
	for _, ai := range next.Appeal.Indicators {
		requested[ai.IndicatorCode] = ai.RequestedScore
	}

	resolutions := make([]models.AppealResolution, 0, len(p.Indicators))
	for _, u := range p.Indicators {
		ci, si, ii, ok := next.FindIndicator(u.Code)
		if !ok {
			return Outcome{}, utils.ValidationError("unknown indicator code %q", u.Code)
		}
		ind := &next.PartB[ci].SubCriteria[si].Indicators[ii]

		score := u.FinalScore
		if score == nil {
			score = requested[u.Code]
		}
		if score == nil {
			return Outcome{}, utils.ValidationError("indicator %q needs a final score to resolve the appeal", u.Code)
		}
		if err := checkScore(*ind, *score); err != nil {
			return Outcome{}, err
		}

		res := models.AppealResolution{
			IndicatorCode:      u.Code,
			PreviousFinalScore: cloneFloat(ind.FinalScore),
			FinalScore:         *score,
		}
		if u.SuperuserRemark != nil {
			res.Remark = *u.SuperuserRemark
			ind.SuperuserRemark = *u.SuperuserRemark
		}
		ind.FinalScore = floatPtr(*score)
		resolutions = append(resolutions, res)
	}
	rollUp(next)

	next.Appeal.Resolutions = append(next.Appeal.Resolutions, resolutions...)
	next.Appeal.ClosedBy = actor.ID
	next.Appeal.ClosedOn = timePtr(now)
	next.Status = models.StatusAppealClosed
	next.UpdatedAt = now
	return Outcome{Next: next, Status: next.Status}, nil
}

// --------- helpers ---------

// mergeKey: nil หรือ "" = ไม่เปลี่ยน key เดิม
// key ใหม่ต้องเป็น key ที่ออกให้ภาควิชานี้ (prefix) มิฉะนั้นจะไปลบ/ดึงไฟล์ของคนอื่นได้
func mergeKey(old, incoming *string, prefix string) (*string, error) {
	if incoming == nil || *incoming == "" {
		return old, nil
	}
	v := *incoming
	if old != nil && *old == v {
		return old, nil
	}
	if !ownsKey(v, prefix) {
		return nil, utils.ValidationError("file key %q was not issued for this submission", v)
	}
	return &v, nil
}

func checkScore(ind models.Indicator, v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return utils.ValidationError("score for indicator %q must be a non-negative number", ind.Code)
	}
	if ind.MaxScore > 0 && v > ind.MaxScore {
		return utils.ValidationError("score for indicator %q exceeds its maximum of %g", ind.Code, ind.MaxScore)
	}
	return nil
}

// rollUp recomputes per-criterion review/final totals from the indicators.
func rollUp(s *models.Submission) {
	for ci := range s.PartB {
		var review, final float64
		var hasReview, hasFinal bool
		for _, sc := range s.PartB[ci].SubCriteria {
			for _, ind := range sc.Indicators {
				if ind.ReviewScore != nil {
					review += *ind.ReviewScore
					hasReview = true
				}
				if ind.FinalScore != nil {
					final += *ind.FinalScore
					hasFinal = true
				}
			}
		}
		s.PartB[ci].ReviewScore = nil
		s.PartB[ci].FinalScore = nil
		if hasReview {
			s.PartB[ci].ReviewScore = floatPtr(review)
		}
		if hasFinal {
			s.PartB[ci].FinalScore = floatPtr(final)
		}
	}
}

func floatPtr(v float64) *float64 { return &v }

func timePtr(t time.Time) *time.Time { return &t }

func cloneFloat(p *float64) *float64 {
	if p == nil {
		return nil
	}
	return floatPtr(*p)
}
