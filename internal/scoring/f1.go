package scoring

import "fmt"

// Score is a binary classification score. Every field is 0 when its denominator is 0.
type Score struct {
	F1        float64
	Precision float64
	Recall    float64
}

// F1 scores pred against trueLabels with 1 as the positive class.
func F1(trueLabels, pred []int8) (Score, error) {
	if len(trueLabels) != len(pred) {
		return Score{}, fmt.Errorf("%w: %d true labels, %d predictions", ErrShapeMismatch, len(trueLabels), len(pred))
	}

	var tp, fp, fn int
	for i := range trueLabels {
		actual, predicted := isPositive(trueLabels[i]), isPositive(pred[i])
		switch {
		case actual && predicted:
			tp++
		case !actual && predicted:
			fp++
		case actual && !predicted:
			fn++
		}
	}

	var s Score
	if tp+fp > 0 {
		s.Precision = float64(tp) / float64(tp+fp)
	}
	if tp+fn > 0 {
		s.Recall = float64(tp) / float64(tp+fn)
	}
	if s.Precision+s.Recall > 0 {
		s.F1 = 2 * s.Precision * s.Recall / (s.Precision + s.Recall)
	}
	return s, nil
}
