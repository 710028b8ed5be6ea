// Package medcode translates clinical codes between coding systems using
// embedded crossmap tables.
package medcode

import (
	"bytes"
	"embed"
	"encoding/csv"
	"fmt"

	"github.com/BenLubar/memoize"
	"github.com/carbocation/pfx"
)

//go:embed lookups/*
var lookups embed.FS

// registered names the lookup file backing each supported source→target
// pair.
var registered = map[string]string{
	"NDC->ATC":        "ndc_atc.tsv",
	"ICD9CM->ICD10CM": "icd9cm_icd10cm.tsv",
}

// CrossMap maps codes from one vocabulary to another. A source code may map
// to more than one target code.
type CrossMap struct {
	Source string
	Target string

	mapping map[string][]string
}

// New constructs a CrossMap for a registered source→target pair. The backing
// table is parsed once per process.
func New(source, target string) (*CrossMap, error) {
	filename, exists := registered[source+"->"+target]
	if !exists {
		return nil, fmt.Errorf("medcode: no crossmap registered for %s->%s", source, target)
	}

	t := memoizedLoadTable.(func(string) table)(filename)
	if t.err != nil {
		return nil, pfx.Err(t.err)
	}

	return &CrossMap{Source: source, Target: target, mapping: t.mapping}, nil
}

// Map returns the target codes for code. When code has no crossmap entry it
// is returned verbatim with ok set false, so callers standardize where
// possible without dropping clinical data.
func (cm *CrossMap) Map(code string) (targets []string, ok bool) {
	if targets, ok = cm.mapping[code]; ok {
		return targets, true
	}

	return []string{code}, false
}

// Len reports the number of source codes with a mapping.
func (cm *CrossMap) Len() int {
	return len(cm.mapping)
}

// atcPrefixLen gives the prefix length of each level of the ATC hierarchy.
var atcPrefixLen = map[int]int{1: 1, 2: 3, 3: 4, 4: 5, 5: 7}

// ATCLevel truncates a full ATC code to the named level (e.g. N02BE01 at
// level 3 is N02B). Codes shorter than the level's prefix, and unknown
// levels, are returned unchanged.
func ATCLevel(code string, level int) string {
	n, exists := atcPrefixLen[level]
	if !exists || len(code) < n {
		return code
	}

	return code[:n]
}

type table struct {
	mapping map[string][]string
	err     error
}

var memoizedLoadTable = memoize.Memoize(loadTable)

func loadTable(filename string) table {
	fileBytes, err := lookups.ReadFile("lookups/" + filename)
	if err != nil {
		return table{err: err}
	}

	cr := csv.NewReader(bytes.NewReader(fileBytes))
	cr.Comma = '\t'
	cr.Comment = '#'
	cr.FieldsPerRecord = 2

	entries, err := cr.ReadAll()
	if err != nil {
		return table{err: fmt.Errorf("medcode: %s: %w", filename, err)}
	}

	mapping := make(map[string][]string, len(entries))
	for _, entry := range entries {
		mapping[entry[0]] = append(mapping[entry[0]], entry[1])
	}

	return table{mapping: mapping}
}
