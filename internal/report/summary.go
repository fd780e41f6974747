package report

import (
	"fmt"
	"io"

	"github.com/montanaflynn/stats"

	"github.com/eddiefleurent/income_radar/internal/options"
)

// Summary aggregates a candidate list for the report footer and the
// dashboard scan response.
type Summary struct {
	Total            int     `json:"total"`
	Yielding         int     `json:"yielding"`
	MedianAnnualized float64 `json:"median_annualized"`
	MaxAnnualized    float64 `json:"max_annualized"`
	StdDevAnnualized float64 `json:"stddev_annualized"`
	EarningsFlagged  int     `json:"earnings_flagged"`
}

// Summarize computes return statistics over the candidates carrying a valid
// annualized return. The stats package only errors on empty input, which
// leaves the zero values in place.
func Summarize(cands []options.Candidate) Summary {
	s := Summary{Total: len(cands)}

	var annualized []float64
	for i := range cands {
		if cands[i].HasEarningsRisk {
			s.EarningsFlagged++
		}
		if !cands[i].AnnualizedValid {
			continue
		}
		annualized = append(annualized, cands[i].AnnualizedReturn)
	}
	s.Yielding = len(annualized)
	if len(annualized) == 0 {
		return s
	}

	if v, err := stats.Median(annualized); err == nil {
		s.MedianAnnualized = v
	}
	if v, err := stats.Max(annualized); err == nil {
		s.MaxAnnualized = v
	}
	if v, err := stats.StandardDeviation(annualized); err == nil {
		s.StdDevAnnualized = v
	}
	return s
}

// WriteSummary prints the one-line summary block.
func WriteSummary(w io.Writer, s Summary) {
	fmt.Fprintf(w, "%d candidates, %d with annualized yield", s.Total, s.Yielding)
	if s.Yielding > 0 {
		fmt.Fprintf(w, " (median %.1f%%, max %.1f%%, stddev %.1f%%)",
			s.MedianAnnualized*100, s.MaxAnnualized*100, s.StdDevAnnualized*100)
	}
	if s.EarningsFlagged > 0 {
		fmt.Fprintf(w, ", %d carry earnings risk", s.EarningsFlagged)
	}
	fmt.Fprintln(w)
}
