// Package mimic4 loads the MIMIC-IV hosp tables into an in-memory dataset of
// patients, hospital visits, and per-visit coded events.
package mimic4

import "time"

type Patient struct {
	SubjectID  string
	Gender     string
	AnchorAge  int
	AnchorYear int

	// DOD is the out-of-hospital date of death, when known. Zero if the
	// patient was alive at last follow-up.
	DOD time.Time

	// Visits are ordered by admission time.
	Visits []*Visit
}

type Visit struct {
	HadmID        string
	SubjectID     string
	AdmissionType string
	AdmitTime     time.Time
	DischTime     time.Time

	// DeathTime is zero unless the patient died during this admission.
	DeathTime          time.Time
	HospitalExpireFlag bool

	// Events holds coded events keyed by source table name.
	Events map[string][]Event
}

// Event is one coded row from an event table, e.g. a single ICD diagnosis.
type Event struct {
	Table      string
	Code       string
	Vocabulary string
	SeqNum     int
}

// AddEvent appends an event under its source table.
func (v *Visit) AddEvent(e Event) {
	if v.Events == nil {
		v.Events = make(map[string][]Event)
	}
	v.Events[e.Table] = append(v.Events[e.Table], e)
}

// CodeList returns the unique codes recorded for this visit in the named
// table, in first-seen order.
func (v *Visit) CodeList(table string) []string {
	events := v.Events[table]

	out := make([]string, 0, len(events))
	seen := make(map[string]struct{})
	for _, e := range events {
		if _, exists := seen[e.Code]; exists {
			continue
		}
		seen[e.Code] = struct{}{}
		out = append(out, e.Code)
	}

	return out
}

// Dataset is the materialized form of a MIMIC-IV directory: every kept
// patient with their visits and requested event tables attached.
type Dataset struct {
	Root     string
	Tables   []string
	Patients []*Patient
}

// NumVisits counts visits across all patients.
func (ds *Dataset) NumVisits() int {
	n := 0
	for _, p := range ds.Patients {
		n += len(p.Visits)
	}

	return n
}
