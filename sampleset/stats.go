package sampleset

import (
	"fmt"
	"io"

	"github.com/aybabtme/uniplot/histogram"
	"github.com/montanaflynn/stats"
	"gonum.org/v1/gonum/stat"
)

// Describe writes human-readable summary statistics for the corpus: sizes,
// label balance, per-feature vocabulary sizes, and the distribution of codes
// per sample.
func Describe(w io.Writer, s *Set) error {
	fmt.Fprintf(w, "Samples:  %d\n", s.Len())
	fmt.Fprintf(w, "Patients: %d\n", len(s.PatientIDs()))

	if s.Len() == 0 {
		return nil
	}

	positive := 0
	for _, label := range s.Labels() {
		if label != 0 {
			positive++
		}
	}
	rate := 100 * float64(positive) / float64(s.Len())
	fmt.Fprintf(w, "Positive labels: %d (%.2f%%)\n", positive, rate)
	fmt.Fprintf(w, "Negative labels: %d (%.2f%%)\n", s.Len()-positive, 100-rate)

	fmt.Fprintln(w, "Vocabulary sizes:")
	for _, feature := range s.FeatureNames() {
		fmt.Fprintf(w, "  %-12s %6d unique codes\n", feature, s.BuildVocab(feature).Size())
	}

	// Distribution of total codes per sample, across all features
	counts := make([]float64, 0, s.Len())
	for _, sample := range s.Samples {
		n := 0
		for _, codes := range sample.Features {
			n += len(codes)
		}
		counts = append(counts, float64(n))
	}

	mean, sd := stat.MeanStdDev(counts, nil)
	median, err := stats.Median(stats.Float64Data(counts))
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "Codes per sample: mean %.1f, SD %.1f, median %.1f\n", mean, sd, median)

	fmt.Fprintln(w, "Codes-per-sample histogram:")
	hist := histogram.Hist(10, counts)

	return histogram.Fprint(w, hist, histogram.Linear(40))
}
