package evaluation

import "sort"

// rankingMetrics computes AUC-ROC and the best precision achievable at
// recall >= 0.80 for a binary ranking. A degenerate label set (all
// positive or all negative) yields the chance values 0.5 and 0.0.
func rankingMetrics(labels []bool, scores []float64) (float64, float64) {
	positives := 0
	for _, label := range labels {
		if label {
			positives++
		}
	}
	negatives := len(labels) - positives
	if positives == 0 || negatives == 0 {
		return 0.5, 0.0
	}

	return aucROC(labels, scores, positives, negatives),
		precisionAtRecall(labels, scores, positives, recallTarget)
}

// aucROC is the Mann-Whitney rank statistic with midranks for ties.
func aucROC(labels []bool, scores []float64, positives int, negatives int) float64 {
	type sample struct {
		score    float64
		positive bool
	}
	samples := make([]sample, len(labels))
	for i := range labels {
		samples[i] = sample{score: scores[i], positive: labels[i]}
	}
	sort.Slice(samples, func(i, j int) bool { return samples[i].score < samples[j].score })

	rankSum := 0.0
	i := 0
	for i < len(samples) {
		j := i
		for j < len(samples) && samples[j].score == samples[i].score {
			j++
		}
		// ranks are 1-based; tied scores share the midrank
		midrank := float64(i+j+1) / 2.0
		for k := i; k < j; k++ {
			if samples[k].positive {
				rankSum += midrank
			}
		}
		i = j
	}

	u := rankSum - float64(positives)*float64(positives+1)/2.0
	return u / (float64(positives) * float64(negatives))
}

// precisionAtRecall sweeps the score thresholds from most to least
// confident and returns the highest precision among operating points whose
// recall reaches the target.
func precisionAtRecall(labels []bool, scores []float64, positives int, target float64) float64 {
	type sample struct {
		score    float64
		positive bool
	}
	samples := make([]sample, len(labels))
	for i := range labels {
		samples[i] = sample{score: scores[i], positive: labels[i]}
	}
	sort.Slice(samples, func(i, j int) bool { return samples[i].score > samples[j].score })

	best := 0.0
	truePositives := 0
	for i := 0; i < len(samples); i++ {
		if samples[i].positive {
			truePositives++
		}
		// only evaluate at threshold boundaries
		if i+1 < len(samples) && samples[i+1].score == samples[i].score {
			continue
		}
		recall := float64(truePositives) / float64(positives)
		if recall < target {
			continue
		}
		precision := float64(truePositives) / float64(i+1)
		if precision > best {
			best = precision
		}
	}
	return best
}
