package assess

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/havenproj/haven/internal/domain"
)

func TestScorePHQ9Moderate(t *testing.T) {
	res, err := Score(domain.KindPHQ9, []int{2, 2, 1, 2, 1, 1, 0, 1, 0})
	require.NoError(t, err)
	assert.Equal(t, 10, res.Total)
	assert.Equal(t, "Moderate depression", res.Severity)
	assert.Equal(t, 0, res.RiskSignal)
}

func TestScoreCAGEBoundary(t *testing.T) {
	res, err := Score(domain.KindCAGE, []int{1, 1, 0, 0})
	require.NoError(t, err)
	assert.Equal(t, 2, res.Total)
	assert.Equal(t, "High risk of alcohol dependence", res.Severity)

	res, err = Score(domain.KindCAGE, []int{1, 0, 0, 0})
	require.NoError(t, err)
	assert.Equal(t, "Low risk of alcohol dependence", res.Severity)
}

func TestScoreDAST10ReverseItem(t *testing.T) {
	// Item 3 answered "no" contributes a point and the stored vector
	// reflects the flip.
	res, err := Score(domain.KindDAST10, []int{0, 0, 0, 0, 0, 0, 0, 0, 0, 0})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Total)
	assert.Equal(t, 1, res.Items[2])

	// Item 3 answered "yes" contributes nothing.
	res, err = Score(domain.KindDAST10, []int{0, 0, 1, 0, 0, 0, 0, 0, 0, 0})
	require.NoError(t, err)
	assert.Equal(t, 0, res.Total)
	assert.Equal(t, 0, res.Items[2])

	// Independent of other items.
	res, err = Score(domain.KindDAST10, []int{1, 1, 0, 1, 0, 0, 0, 0, 0, 0})
	require.NoError(t, err)
	assert.Equal(t, 4, res.Total)
}

func TestScoreItemCountValidation(t *testing.T) {
	_, err := Score(domain.KindPHQ9, []int{1, 2, 3})
	assert.ErrorIs(t, err, ErrItemCount)

	_, err = Score(domain.KindGAD7, make([]int, 8))
	assert.ErrorIs(t, err, ErrItemCount)
}

func TestScoreItemValueValidation(t *testing.T) {
	_, err := Score(domain.KindPHQ9, []int{0, 0, 0, 0, 0, 0, 0, 0, 4})
	assert.ErrorIs(t, err, ErrItemValue)

	_, err = Score(domain.KindCAGE, []int{0, 2, 0, 0})
	assert.ErrorIs(t, err, ErrItemValue)

	_, err = Score(domain.KindGAD7, []int{0, -1, 0, 0, 0, 0, 0})
	assert.ErrorIs(t, err, ErrItemValue)
}

func TestScoreUnknownKind(t *testing.T) {
	_, err := Score(domain.AssessmentKind("mmpi"), []int{1})
	assert.ErrorIs(t, err, ErrUnknownKind)
}

func TestSeverityBandsExhaustive(t *testing.T) {
	// Every integer in [0, max] must match exactly one band.
	for _, in := range All() {
		for total := 0; total <= in.MaxScore; total++ {
			matches := 0
			for _, b := range in.Bands {
				if total >= b.Min && total <= b.Max {
					matches++
				}
			}
			assert.Equalf(t, 1, matches, "%s total %d matched %d bands", in.Kind, total, matches)
		}
	}
}

func TestScoreTotalWithinBounds(t *testing.T) {
	for _, in := range All() {
		// All-min and all-max answer vectors.
		low := make([]int, in.ItemCount())
		high := make([]int, in.ItemCount())
		for i := range high {
			low[i] = in.ItemMin
			high[i] = in.ItemMax
		}
		for _, items := range [][]int{low, high} {
			res, err := Score(in.Kind, items)
			require.NoError(t, err)
			assert.GreaterOrEqual(t, res.Total, 0)
			assert.LessOrEqual(t, res.Total, in.MaxScore)
		}
	}
}

func TestSuicideRiskSignal(t *testing.T) {
	assert.Equal(t, 2, SuicideRiskSignal(domain.KindPHQ9, []int{0, 0, 0, 0, 0, 0, 0, 0, 2}))
	assert.Equal(t, 0, SuicideRiskSignal(domain.KindGAD7, []int{3, 3, 3, 3, 3, 3, 3}))
	assert.Equal(t, 0, SuicideRiskSignal(domain.KindPHQ9, []int{1, 1}))
	assert.Equal(t, 0, SuicideRiskSignal(domain.AssessmentKind("nope"), []int{1}))
}

func TestRenderQuestionnaire(t *testing.T) {
	in, ok := Lookup(domain.KindDAST10)
	require.True(t, ok)
	out := RenderQuestionnaire(in)
	assert.Contains(t, out, "DAST-10 Drug Use Screening")
	assert.Contains(t, out, "1. Have you used drugs")
	assert.Contains(t, out, "Yes or No")
	assert.Contains(t, out, "cannabis")
}

func TestRenderReportWithPrevious(t *testing.T) {
	res, err := Score(domain.KindPHQ9, []int{2, 2, 1, 2, 1, 1, 0, 1, 0})
	require.NoError(t, err)

	prev := &domain.AssessmentRecord{
		Kind:      domain.KindPHQ9,
		Total:     14,
		Timestamp: time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC),
	}
	out := RenderReport(res, prev)
	assert.Contains(t, out, "Total Score: 10/27")
	assert.Contains(t, out, "decreased by 4")
	assert.Contains(t, out, "2026-07-01")
	assert.Contains(t, out, "moderate depression")
	assert.NotContains(t, out, "Important Safety Note")
}

func TestRenderReportRiskNote(t *testing.T) {
	res, err := Score(domain.KindPHQ9, []int{0, 0, 0, 0, 0, 0, 0, 0, 1})
	require.NoError(t, err)
	out := RenderReport(res, nil)
	assert.Contains(t, out, "Important Safety Note")
}
