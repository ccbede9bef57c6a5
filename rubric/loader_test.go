package rubric

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/poiesic/maturit/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const rubricYAML = `rubrics:
  - theme_code: climate
    name: Climate maturity
    min_evidence_count: 2
    stages:
      - stage: 0
        description: no activity
      - stage: 1
        description: awareness
      - stage: 2
        description: evidence present
      - stage: 3
        description: framework aligned
    boost_rules:
      - framework: SBTi
        acronym: SBTi
        cues:
          - science-based targets
          - targets validated
        stage_delta: 1
        confidence_delta: 0.0
  - theme_code: water
    name: Water stewardship
    min_evidence_count: 1
    stages:
      - stage: 0
        description: no activity
      - stage: 1
        description: monitored
      - stage: 2
        description: managed
`

func TestParseRubrics(t *testing.T) {
	rubrics, err := ParseRubrics([]byte(rubricYAML))
	require.NoError(t, err)
	require.Len(t, rubrics, 2)

	climate := rubrics["climate"]
	require.NotNil(t, climate)
	assert.Equal(t, "Climate maturity", climate.Name)
	assert.Equal(t, 2, climate.MinEvidenceCount)
	assert.Equal(t, 3, climate.MaxStage())
	require.Len(t, climate.BoostRules, 1)
	assert.Equal(t, "SBTi", climate.BoostRules[0].Framework)
	assert.Len(t, climate.BoostRules[0].Cues, 2)

	water := rubrics["water"]
	require.NotNil(t, water)
	assert.Equal(t, 2, water.MaxStage())
}

func TestParseRubrics_Invalid(t *testing.T) {
	cases := []struct {
		name string
		yaml string
	}{
		{"not yaml", "{{{"},
		{"empty", "rubrics: []"},
		{
			"non-contiguous stages",
			"rubrics:\n  - theme_code: x\n    min_evidence_count: 1\n    stages:\n      - stage: 0\n      - stage: 2\n",
		},
		{
			"zero min evidence",
			"rubrics:\n  - theme_code: x\n    min_evidence_count: 0\n    stages:\n      - stage: 0\n      - stage: 1\n",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ParseRubrics([]byte(tc.yaml))
			assert.ErrorIs(t, err, core.ErrInvalidRubric)
		})
	}
}

func TestParseRubrics_DuplicateTheme(t *testing.T) {
	doc := `rubrics:
  - theme_code: climate
    min_evidence_count: 1
    stages:
      - stage: 0
      - stage: 1
  - theme_code: climate
    min_evidence_count: 1
    stages:
      - stage: 0
      - stage: 1
`
	_, err := ParseRubrics([]byte(doc))
	assert.ErrorIs(t, err, core.ErrInvalidRubric)
}

func TestLoadRubrics(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rubrics.yaml")
	require.NoError(t, os.WriteFile(path, []byte(rubricYAML), 0o644))

	rubrics, err := LoadRubrics(path)
	require.NoError(t, err)
	assert.Len(t, rubrics, 2)

	_, err = LoadRubrics(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
