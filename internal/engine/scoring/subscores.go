package scoring

import "github.com/bench-arena/bench-arena/pkg/api"

// subScores derives the accuracy and data-correctness sub-scores from the
// completed runs. The tournament category selects the strategy once per
// scoring pass; both sub-scores are in [0, 1].
func subScores(category api.ArtifactCategory, completed []api.RunResource) (accuracy float64, correctness float64) {
	switch category {
	case api.CategoryML:
		return mlSubScores(completed)
	default:
		return analyticsSubScores(completed)
	}
}

// analyticsSubScores scores pattern-detection artifacts: accuracy is the
// mean pattern recall, correctness is the mean novelty validation ratio.
// Runs that reported no novel findings do not dilute the ratio; if no run
// reported any, the ratio is a clean 1.0.
func analyticsSubScores(completed []api.RunResource) (float64, float64) {
	var recallTotal float64
	var ratioTotal float64
	var ratioCount int
	for i := range completed {
		m := &completed[i].Metrics
		recallTotal += m.PatternRecall
		if m.NoveltyReported > 0 {
			ratioTotal += float64(m.NoveltyValidated) / float64(m.NoveltyReported)
			ratioCount++
		}
	}
	accuracy := recallTotal / float64(len(completed))
	correctness := 1.0
	if ratioCount > 0 {
		correctness = ratioTotal / float64(ratioCount)
	}
	return accuracy, correctness
}

// mlSubScores scores model artifacts: accuracy is the mean AUC-ROC. The
// correctness sub-score is a constant 1.0 since the hard gate has already
// rejected any participant with a correctness failure.
func mlSubScores(completed []api.RunResource) (float64, float64) {
	var aucTotal float64
	for i := range completed {
		aucTotal += completed[i].Metrics.AUCROC
	}
	return aucTotal / float64(len(completed)), 1.0
}
