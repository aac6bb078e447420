package reports

import (
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"Backend-QA-Portal/src/models"
)

// OutOf is the nominal maximum of a school's total; weightages sum to 100.
const OutOf = 100

type Result struct {
	Snapshots []models.ReportSnapshot
	// UnknownCodes are criterion codes found in submissions but missing from
	// the scoring config. They do not contribute to any score.
	UnknownCodes []string
}

type schoolAcc struct {
	id    string
	name  string
	marks map[string]float64
}

// Compute ranks schools from finalized submissions. It has no side effects;
// the same input always yields the same output.
func Compute(year string, subs []models.Submission, scoring map[string]models.CriterionScoring, now time.Time) Result {
	schools := map[string]*schoolAcc{}
	unknown := map[string]bool{}

	for i := range subs {
		sub := &subs[i]
		if !sub.Status.IsFinalized() || (year != "" && sub.AcademicYear != year) {
			continue
		}
		acc, ok := schools[sub.School]
		if !ok {
			acc = &schoolAcc{id: sub.School, marks: map[string]float64{}}
			schools[sub.School] = acc
		}
		if acc.name == "" {
			acc.name = sub.SchoolName
		}
		for _, c := range sub.PartB {
			if _, known := scoring[c.Code]; !known {
				unknown[c.Code] = true
				continue
			}
			sum := acc.marks[c.Code]
			for _, sc := range c.SubCriteria {
				for _, ind := range sc.Indicators {
					sum += ind.EffectiveScore()
				}
			}
			acc.marks[c.Code] = sum
		}
	}

	snaps := make([]models.ReportSnapshot, 0, len(schools))
	for _, acc := range schools {
		codes := make([]string, 0, len(acc.marks))
		for code := range acc.marks {
			codes = append(codes, code)
		}
		sort.Slice(codes, func(i, j int) bool { return CompareCodes(codes[i], codes[j]) < 0 })

		criteria := make([]models.ReportCriterion, 0, len(codes))
		total := 0.0
		for i, code := range codes {
			cfg := scoring[code]
			marks := acc.marks[code]
			pct := 0.0
			if cfg.MaxMarks > 0 {
				pct = marks / cfg.MaxMarks * 100
			}
			weighted := round2(pct * cfg.Weightage / 100)
			total += weighted
			criteria = append(criteria, models.ReportCriterion{
				Code:          code,
				Name:          cfg.Name,
				Weightage:     cfg.Weightage,
				MaxMarks:      cfg.MaxMarks,
				MarksAwarded:  round2(marks),
				Percentage:    round2(pct),
				WeightedScore: weighted,
				SNo:           i + 1,
			})
		}

		name := acc.name
		if name == "" {
			name = acc.id
		}
		snaps = append(snaps, models.ReportSnapshot{
			AcademicYear: year,
			SchoolID:     acc.id,
			SchoolName:   name,
			Criteria:     criteria,
			FinalScore:   models.FinalScore{TotalWeightedScore: round2(total), OutOf: OutOf},
			GeneratedAt:  now,
		})
	}

	sort.SliceStable(snaps, func(i, j int) bool {
		a, b := snaps[i], snaps[j]
		if a.FinalScore.TotalWeightedScore != b.FinalScore.TotalWeightedScore {
			return a.FinalScore.TotalWeightedScore > b.FinalScore.TotalWeightedScore
		}
		if a.SchoolName != b.SchoolName {
			return a.SchoolName < b.SchoolName
		}
		return a.SchoolID < b.SchoolID
	})
	for i := range snaps {
		snaps[i].Rank = i + 1
	}

	codes := make([]string, 0, len(unknown))
	for c := range unknown {
		codes = append(codes, c)
	}
	sort.Strings(codes)
	return Result{Snapshots: snaps, UnknownCodes: codes}
}

// CompareCodes orders dotted codes numerically per segment ("2" < "10",
// "2.1" < "2.10"), falling back to string order for non-numeric segments.
func CompareCodes(a, b string) int {
	as, bs := strings.Split(a, "."), strings.Split(b, ".")
	for i := 0; i < len(as) && i < len(bs); i++ {
		ai, aerr := strconv.Atoi(as[i])
		bi, berr := strconv.Atoi(bs[i])
		switch {
		case aerr == nil && berr == nil:
			if ai != bi {
				if ai < bi {
					return -1
				}
				return 1
			}
		default:
			if c := strings.Compare(as[i], bs[i]); c != 0 {
				return c
			}
		}
	}
	switch {
	case len(as) < len(bs):
		return -1
	case len(as) > len(bs):
		return 1
	}
	return 0
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
