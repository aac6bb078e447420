package catalogue

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultCatalogue(t *testing.T) {
	c, err := Default()
	require.NoError(t, err)

	assert.NotEmpty(t, c.Version)
	cfg := c.ScoringConfig()
	require.Contains(t, cfg, "2")
	assert.Equal(t, 50.0, cfg["2"].MaxMarks)
	assert.Equal(t, 25.0, cfg["2"].Weightage)

	total := 0.0
	for _, v := range cfg {
		total += v.Weightage
	}
	assert.Equal(t, 100.0, total)
}

func TestBuildPartBIsIndependentCopy(t *testing.T) {
	c, err := Default()
	require.NoError(t, err)

	first := c.BuildPartB()
	second := c.BuildPartB()
	require.Equal(t, first, second)

	first[0].SubCriteria[0].Indicators[0].Title = "changed"
	assert.NotEqual(t, "changed", second[0].SubCriteria[0].Indicators[0].Title)
	assert.Equal(t, "1.1.1", second[0].SubCriteria[0].Indicators[0].Code)
	assert.Len(t, c.BuildPartA(), 3)
}

func TestParseRejectsBadWeightage(t *testing.T) {
	_, err := Parse([]byte(`
version: "x"
criteria:
  - code: "1"
    name: "Only"
    weightage: 60
    subCriteria:
      - code: "1.1"
        title: "t"
        indicators:
          - { code: "1.1.1", title: "i", maxScore: 5 }
`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "weightages")
}

func TestParseRejectsDuplicateCodes(t *testing.T) {
	_, err := Parse([]byte(`
version: "x"
criteria:
  - code: "1"
    name: "Only"
    weightage: 100
    subCriteria:
      - code: "1.1"
        title: "t"
        indicators:
          - { code: "1.1.1", title: "i", maxScore: 5 }
          - { code: "1.1.1", title: "j", maxScore: 5 }
`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate")
}
