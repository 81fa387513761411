package scoring

import (
	"fmt"

	"github.com/sanspareilsmyn/kpilens/internal/table"
)

// DefaultDelay is the number of points after an anomaly starts within which a detection still
// counts.
const DefaultDelay = 7

// Report holds per-series scores in order of first appearance and the score over all series
// concatenated. Total is {F1, precision, recall}.
type Report struct {
	SeriesIDs       []string   `json:"series_ids"`
	F1Scores        []float64  `json:"f1_score_list"`
	PrecisionScores []float64  `json:"precision_score_list"`
	RecallScores    []float64  `json:"recall_score_list"`
	Total           [3]float64 `json:"total_score"`
}

// Evaluate scores predTable against trueTable. Both need series_id, timestamp and label
// columns. Each series is reconstructed onto its own grid, predictions are adjusted with delay,
// and F1 is taken per series and over the concatenation.
func Evaluate(trueTable, predTable *table.Table, delay int) (*Report, error) {
	cols := []table.Column{table.ColSeriesID, table.ColTimestamp, table.ColLabel}
	if err := trueTable.Require(cols...); err != nil {
		return nil, fmt.Errorf("true labels: %w", err)
	}
	if err := predTable.Require(cols...); err != nil {
		return nil, fmt.Errorf("predictions: %w", err)
	}
	if trueTable.Len() != predTable.Len() {
		return nil, fmt.Errorf("%w: %d true rows, %d predicted rows", ErrShapeMismatch, trueTable.Len(), predTable.Len())
	}
	if delay < 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidDelay, delay)
	}

	trueSeries, err := table.Partition(trueTable)
	if err != nil {
		return nil, err
	}
	predSeries, err := table.Partition(predTable)
	if err != nil {
		return nil, err
	}
	predByID := make(map[string]*table.Series, len(predSeries))
	for i := range predSeries {
		predByID[predSeries[i].ID] = &predSeries[i]
	}

	report := &Report{
		SeriesIDs:       make([]string, 0, len(trueSeries)),
		F1Scores:        make([]float64, 0, len(trueSeries)),
		PrecisionScores: make([]float64, 0, len(trueSeries)),
		RecallScores:    make([]float64, 0, len(trueSeries)),
	}
	var allTrue, allPred []int8

	for _, ts := range trueSeries {
		ps, ok := predByID[ts.ID]
		if !ok {
			return nil, fmt.Errorf("%w: series %q has no predictions", ErrShapeMismatch, ts.ID)
		}

		trueGrid, err := Reconstruct(ts.Timestamp, ts.Label)
		if err != nil {
			return nil, fmt.Errorf("series %q: %w", ts.ID, err)
		}
		predGrid, err := Reconstruct(ps.Timestamp, ps.Label)
		if err != nil {
			return nil, fmt.Errorf("series %q: %w", ts.ID, err)
		}
		if len(trueGrid) != len(predGrid) {
			return nil, fmt.Errorf("%w: series %q grids have %d and %d slots", ErrShapeMismatch, ts.ID, len(trueGrid), len(predGrid))
		}

		adjusted, err := Adjust(trueGrid, predGrid, delay)
		if err != nil {
			return nil, fmt.Errorf("series %q: %w", ts.ID, err)
		}
		score, err := F1(trueGrid, adjusted)
		if err != nil {
			return nil, fmt.Errorf("series %q: %w", ts.ID, err)
		}

		report.SeriesIDs = append(report.SeriesIDs, ts.ID)
		report.F1Scores = append(report.F1Scores, score.F1)
		report.PrecisionScores = append(report.PrecisionScores, score.Precision)
		report.RecallScores = append(report.RecallScores, score.Recall)
		allTrue = append(allTrue, trueGrid...)
		allPred = append(allPred, adjusted...)
	}

	total, err := F1(allTrue, allPred)
	if err != nil {
		return nil, err
	}
	report.Total = [3]float64{total.F1, total.Precision, total.Recall}
	return report, nil
}
