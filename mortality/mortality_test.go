package mortality

import (
	"testing"
	"time"

	"github.com/ehrml/ehrprep/mimic4"
)

func makeVisit(hadm, subject string, expired bool, tables ...string) *mimic4.Visit {
	v := &mimic4.Visit{
		HadmID:             hadm,
		SubjectID:          subject,
		AdmitTime:          time.Date(2150, 1, 1, 0, 0, 0, 0, time.UTC),
		DischTime:          time.Date(2150, 1, 9, 0, 0, 0, 0, time.UTC),
		HospitalExpireFlag: expired,
	}

	for i, table := range tables {
		v.AddEvent(mimic4.Event{Table: table, Code: "X" + table, SeqNum: i})
	}

	return v
}

func allTables() []string {
	return []string{mimic4.TableDiagnoses, mimic4.TableProcedures, mimic4.TablePrescriptions}
}

func TestApplyLabelsExpiredVisits(t *testing.T) {
	ds := &mimic4.Dataset{
		Tables: allTables(),
		Patients: []*mimic4.Patient{
			{SubjectID: "p1", Visits: []*mimic4.Visit{makeVisit("v1", "p1", false, allTables()...)}},
			{SubjectID: "p2", Visits: []*mimic4.Visit{makeVisit("v2", "p2", true, allTables()...)}},
		},
	}

	set := Apply(ds)
	if set.Len() != 2 {
		t.Fatalf("expected 2 samples, got %d", set.Len())
	}

	if set.Samples[0].Label != 0 {
		t.Error("expected label 0 for the surviving visit")
	}
	if set.Samples[1].Label != 1 {
		t.Error("expected label 1 for the expired visit")
	}

	for _, feature := range []string{FeatureConditions, FeatureProcedures, FeatureDrugs} {
		if len(set.Samples[0].Features[feature]) != 1 {
			t.Errorf("expected one %s code, got %v", feature, set.Samples[0].Features[feature])
		}
	}
}

func TestApplySkipsIncompleteVisits(t *testing.T) {
	// v1 lacks prescriptions entirely
	ds := &mimic4.Dataset{
		Tables: allTables(),
		Patients: []*mimic4.Patient{
			{SubjectID: "p1", Visits: []*mimic4.Visit{
				makeVisit("v1", "p1", false, mimic4.TableDiagnoses, mimic4.TableProcedures),
				makeVisit("v2", "p1", false, allTables()...),
			}},
		},
	}

	set := Apply(ds)
	if set.Len() != 1 {
		t.Fatalf("expected the incomplete visit to be skipped, got %d samples", set.Len())
	}
	if set.Samples[0].VisitID != "v2" {
		t.Fatalf("expected v2 to survive, got %s", set.Samples[0].VisitID)
	}
}

func TestLabelFromDeathTime(t *testing.T) {
	v := makeVisit("v1", "p1", false, allTables()...)

	// Death recorded during the stay, without the expire flag
	v.DeathTime = v.AdmitTime.Add(48 * time.Hour)
	if got := label(v); got != 1 {
		t.Errorf("expected label 1 for an in-stay death time, got %d", got)
	}

	// Death recorded after discharge is not an in-hospital death
	v.DeathTime = v.DischTime.Add(24 * time.Hour)
	if got := label(v); got != 0 {
		t.Errorf("expected label 0 for a post-discharge death time, got %d", got)
	}
}
