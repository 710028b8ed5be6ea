// Package sampleset holds the per-visit sample corpus produced by a labeling
// task, and the operations applied to it before model training: code
// mapping, vocabulary construction, patient-wise splitting, and summary
// statistics.
package sampleset

import (
	"sort"

	"github.com/ehrml/ehrprep/medcode"
)

// Sample is one labeled visit: its feature code lists keyed by feature name
// (e.g. conditions, procedures, drugs) and a binary outcome label.
type Sample struct {
	VisitID   string
	PatientID string
	Features  map[string][]string
	Label     int
}

// Set is an ordered sample corpus.
type Set struct {
	Samples []Sample
}

func (s *Set) Append(sample Sample) {
	s.Samples = append(s.Samples, sample)
}

func (s *Set) Len() int {
	return len(s.Samples)
}

// PatientIDs returns the unique patient ids in first-seen order.
func (s *Set) PatientIDs() []string {
	out := make([]string, 0, len(s.Samples))
	seen := make(map[string]struct{})
	for _, sample := range s.Samples {
		if _, exists := seen[sample.PatientID]; exists {
			continue
		}
		seen[sample.PatientID] = struct{}{}
		out = append(out, sample.PatientID)
	}

	return out
}

// Labels returns each sample's label, in corpus order.
func (s *Set) Labels() []int {
	out := make([]int, len(s.Samples))
	for i, sample := range s.Samples {
		out[i] = sample.Label
	}

	return out
}

// FeatureNames returns the sorted union of feature names across samples.
func (s *Set) FeatureNames() []string {
	seen := make(map[string]struct{})
	for _, sample := range s.Samples {
		for name := range sample.Features {
			seen[name] = struct{}{}
		}
	}

	out := make([]string, 0, len(seen))
	for name := range seen {
		out = append(out, name)
	}
	sort.Strings(out)

	return out
}

// MapCodes rewrites the named feature through cm, in place. Mapped values
// are deduplicated while preserving first-seen order. When atcLevel is
// positive, successfully mapped codes are truncated to that level of the ATC
// hierarchy; codes with no crossmap entry pass through verbatim.
func (s *Set) MapCodes(feature string, cm *medcode.CrossMap, atcLevel int) {
	for _, sample := range s.Samples {
		codes, exists := sample.Features[feature]
		if !exists {
			continue
		}

		mapped := make([]string, 0, len(codes))
		seen := make(map[string]struct{})
		for _, code := range codes {
			targets, ok := cm.Map(code)
			for _, target := range targets {
				if ok && atcLevel > 0 {
					target = medcode.ATCLevel(target, atcLevel)
				}
				if _, exists := seen[target]; exists {
					continue
				}
				seen[target] = struct{}{}
				mapped = append(mapped, target)
			}
		}

		sample.Features[feature] = mapped
	}
}
