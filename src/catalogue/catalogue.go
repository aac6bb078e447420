// Package catalogue holds the static, versioned indicator tree and the
// per-criterion scoring configuration. It is read-only input to the
// lifecycle engine and the report engine.
package catalogue

import (
	_ "embed"
	"fmt"
	"math"
	"os"

	"Backend-QA-Portal/src/models"

	"gopkg.in/yaml.v3"
)

//go:embed indicators.yaml
var defaultCatalogue []byte

type Catalogue struct {
	Version  string         `yaml:"version"`
	PartA    []PartASection `yaml:"partA"`
	Criteria []CriterionDef `yaml:"criteria"`
}

type PartASection struct {
	Code  string `yaml:"code"`
	Title string `yaml:"title"`
}

type CriterionDef struct {
	Code        string            `yaml:"code"`
	Name        string            `yaml:"name"`
	Weightage   float64           `yaml:"weightage"`
	MaxMarks    float64           `yaml:"maxMarks"` // ถ้าไม่ระบุ = ผลรวม maxScore ของตัวชี้วัด
	SubCriteria []SubCriterionDef `yaml:"subCriteria"`
}

type SubCriterionDef struct {
	Code       string         `yaml:"code"`
	Title      string         `yaml:"title"`
	Indicators []IndicatorDef `yaml:"indicators"`
}

type IndicatorDef struct {
	Code     string  `yaml:"code"`
	Title    string  `yaml:"title"`
	MaxScore float64 `yaml:"maxScore"`
}

// Default returns the catalogue embedded in the binary.
func Default() (*Catalogue, error) {
	return Parse(defaultCatalogue)
}

// Load reads a catalogue from path, or the embedded default when path is empty.
func Load(path string) (*Catalogue, error) {
	if path == "" {
		return Default()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalogue: %w", err)
	}
	return Parse(data)
}

func Parse(data []byte) (*Catalogue, error) {
	var c Catalogue
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("failed to unmarshal catalogue: %w", err)
	}
	for i := range c.Criteria {
		if c.Criteria[i].MaxMarks == 0 {
			c.Criteria[i].MaxMarks = c.Criteria[i].indicatorTotal()
		}
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

func (d CriterionDef) indicatorTotal() float64 {
	total := 0.0
	for _, sc := range d.SubCriteria {
		for _, ind := range sc.Indicators {
			total += ind.MaxScore
		}
	}
	return total
}

// Validate checks that codes are unique and the weightages add up to 100.
func (c *Catalogue) Validate() error {
	if c.Version == "" {
		return fmt.Errorf("catalogue: version is required")
	}
	if len(c.Criteria) == 0 {
		return fmt.Errorf("catalogue: no criteria defined")
	}
	seen := map[string]bool{}
	mark := func(code string) error {
		if code == "" {
			return fmt.Errorf("catalogue: empty code")
		}
		if seen[code] {
			return fmt.Errorf("catalogue: duplicate code %q", code)
		}
		seen[code] = true
		return nil
	}
	for _, a := range c.PartA {
		if err := mark("A:" + a.Code); err != nil {
			return err
		}
	}
	weight := 0.0
	for _, cr := range c.Criteria {
		if err := mark(cr.Code); err != nil {
			return err
		}
		if cr.MaxMarks <= 0 {
			return fmt.Errorf("catalogue: criterion %s has no marks", cr.Code)
		}
		weight += cr.Weightage
		for _, sc := range cr.SubCriteria {
			if err := mark(sc.Code); err != nil {
				return err
			}
			for _, ind := range sc.Indicators {
				if err := mark(ind.Code); err != nil {
					return err
				}
				if ind.MaxScore < 0 {
					return fmt.Errorf("catalogue: indicator %s has negative maxScore", ind.Code)
				}
			}
		}
	}
	if math.Abs(weight-100) > 1e-9 {
		return fmt.Errorf("catalogue: weightages sum to %.2f, expected 100", weight)
	}
	return nil
}

// ScoringConfig คืนค่าคงที่ของแต่ละเกณฑ์ (maxMarks, weightage, ชื่อ) สำหรับ report engine
func (c *Catalogue) ScoringConfig() map[string]models.CriterionScoring {
	out := make(map[string]models.CriterionScoring, len(c.Criteria))
	for _, cr := range c.Criteria {
		out[cr.Code] = models.CriterionScoring{
			Code:      cr.Code,
			Name:      cr.Name,
			MaxMarks:  cr.MaxMarks,
			Weightage: cr.Weightage,
		}
	}
	return out
}

// BuildPartA materialises the narrative section of a new submission.
func (c *Catalogue) BuildPartA() []models.PartAItem {
	items := make([]models.PartAItem, 0, len(c.PartA))
	for _, a := range c.PartA {
		items = append(items, models.PartAItem{Code: a.Code, Title: a.Title})
	}
	return items
}

// BuildPartB materialises the criterion tree. Called once per submission.
func (c *Catalogue) BuildPartB() []models.Criterion {
	criteria := make([]models.Criterion, 0, len(c.Criteria))
	for _, cr := range c.Criteria {
		subs := make([]models.SubCriterion, 0, len(cr.SubCriteria))
		for _, sc := range cr.SubCriteria {
			inds := make([]models.Indicator, 0, len(sc.Indicators))
			for _, ind := range sc.Indicators {
				inds = append(inds, models.Indicator{
					Code:     ind.Code,
					Title:    ind.Title,
					MaxScore: ind.MaxScore,
				})
			}
			subs = append(subs, models.SubCriterion{Code: sc.Code, Title: sc.Title, Indicators: inds})
		}
		criteria = append(criteria, models.Criterion{Code: cr.Code, Title: cr.Name, SubCriteria: subs})
	}
	return criteria
}
