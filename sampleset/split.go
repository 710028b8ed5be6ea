package sampleset

import (
	"fmt"
	"math"
	"math/rand"
)

// SplitByPatient partitions the corpus into train/val/test subsets by
// patient, so that no patient's samples straddle a boundary. The unique
// patient list is shuffled with the given seed; the same seed and corpus
// always yield the same membership. Ratios must sum to 1. Patients left over
// by integer truncation land in the test split.
func SplitByPatient(s *Set, ratios [3]float64, seed int64) (train, val, test *Set, err error) {
	sum := 0.0
	for _, r := range ratios {
		if r < 0 {
			return nil, nil, nil, fmt.Errorf("sampleset: negative split ratio %v", r)
		}
		sum += r
	}
	if math.Abs(sum-1.0) > 1e-9 {
		return nil, nil, nil, fmt.Errorf("sampleset: split ratios %v sum to %v, want 1.0", ratios, sum)
	}

	patients := s.PatientIDs()
	rand.New(rand.NewSource(seed)).Shuffle(len(patients), func(i, j int) {
		patients[i], patients[j] = patients[j], patients[i]
	})

	nTrain := int(float64(len(patients)) * ratios[0])
	nVal := int(float64(len(patients)) * ratios[1])

	membership := make(map[string]int, len(patients))
	for i, patient := range patients {
		switch {
		case i < nTrain:
			membership[patient] = 0
		case i < nTrain+nVal:
			membership[patient] = 1
		default:
			membership[patient] = 2
		}
	}

	subsets := [3]*Set{{}, {}, {}}
	for _, sample := range s.Samples {
		subsets[membership[sample.PatientID]].Append(sample)
	}

	return subsets[0], subsets[1], subsets[2], nil
}
