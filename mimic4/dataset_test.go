package mimic4

import (
	"compress/gzip"
	"os"
	"path/filepath"
	"testing"
)

const patientsCSV = `subject_id,gender,anchor_age,anchor_year,anchor_year_group,dod
10000032,F,52,2180,2017 - 2019,
10000980,M,73,2186,2014 - 2016,2186-01-11
10001217,F,55,2157,2011 - 2013,
`

const admissionsCSV = `subject_id,hadm_id,admittime,dischtime,deathtime,admission_type,discharge_location,hospital_expire_flag
10000032,22595853,2180-05-06 22:23:00,2180-05-07 17:15:00,,URGENT,HOME,0
10000980,26913865,2186-01-08 01:06:00,2186-01-11 17:00:00,2186-01-11 16:00:00,EW EMER.,DIED,1
10001217,24597018,2157-11-18 22:56:00,2157-11-25 18:00:00,,EW EMER.,HOME,0
`

const diagnosesCSV = `subject_id,hadm_id,seq_num,icd_code,icd_version
10000032,22595853,1,4019,9
10000032,22595853,2,42731,9
10000980,26913865,1,I2510,10
10001217,24597018,1,5849,9
`

const proceduresCSV = `subject_id,hadm_id,seq_num,chartdate,icd_code,icd_version
10000032,22595853,1,2180-05-06,3893,9
10000980,26913865,1,2186-01-08,02HV33Z,10
10001217,24597018,1,2157-11-19,3995,9
`

const prescriptionsCSV = `subject_id,hadm_id,starttime,drug,ndc
10000032,22595853,2180-05-06 23:00:00,Furosemide,00378018101
10000980,26913865,2186-01-08 02:00:00,Heparin,00143989701
10001217,24597018,2157-11-19 08:00:00,Acetaminophen,00045049650
10001217,24597018,2157-11-19 09:00:00,Multivitamins,0
`

func writeFixtures(t *testing.T) string {
	t.Helper()

	root := t.TempDir()

	for name, contents := range map[string]string{
		"patients":         patientsCSV,
		"admissions":       admissionsCSV,
		TableProcedures:    proceduresCSV,
		TablePrescriptions: prescriptionsCSV,
	} {
		if err := os.WriteFile(filepath.Join(root, name+".csv"), []byte(contents), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	// Gzip one table to exercise transparent decompression
	f, err := os.Create(filepath.Join(root, TableDiagnoses+".csv.gz"))
	if err != nil {
		t.Fatal(err)
	}
	zw := gzip.NewWriter(f)
	if _, err := zw.Write([]byte(diagnosesCSV)); err != nil {
		t.Fatal(err)
	}
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}
	if err := f.Close(); err != nil {
		t.Fatal(err)
	}

	return root
}

func testConfig(root string) Config {
	return Config{
		Root:   root,
		Tables: []string{TableDiagnoses, TableProcedures, TablePrescriptions},
	}
}

func TestLoad(t *testing.T) {
	root := writeFixtures(t)

	ds, err := Load(testConfig(root))
	if err != nil {
		t.Fatal(err)
	}

	if len(ds.Patients) != 3 {
		t.Fatalf("expected 3 patients, got %d", len(ds.Patients))
	}
	if ds.NumVisits() != 3 {
		t.Fatalf("expected 3 visits, got %d", ds.NumVisits())
	}

	p := ds.Patients[0]
	if p.SubjectID != "10000032" || p.Gender != "F" || p.AnchorAge != 52 {
		t.Fatalf("unexpected first patient: %+v", p)
	}
	if !p.DOD.IsZero() {
		t.Errorf("patient 10000032 should have no date of death")
	}

	v := p.Visits[0]
	if got := v.CodeList(TableDiagnoses); len(got) != 2 || got[0] != "4019" {
		t.Errorf("unexpected diagnosis codes: %v", got)
	}
	if got := v.Events[TableDiagnoses][0].Vocabulary; got != "ICD9CM" {
		t.Errorf("expected ICD9CM vocabulary, got %s", got)
	}
	if v.HospitalExpireFlag {
		t.Error("visit 22595853 should not be flagged expired")
	}

	died := ds.Patients[1].Visits[0]
	if !died.HospitalExpireFlag || died.DeathTime.IsZero() {
		t.Errorf("visit 26913865 should be an in-hospital death: %+v", died)
	}
	if got := died.Events[TableDiagnoses][0].Vocabulary; got != "ICD10CM" {
		t.Errorf("expected ICD10CM vocabulary, got %s", got)
	}
	if got := died.Events[TableProcedures][0].Vocabulary; got != "ICD10PROC" {
		t.Errorf("expected ICD10PROC vocabulary, got %s", got)
	}

	// The all-zero NDC row is dropped
	if got := ds.Patients[2].Visits[0].CodeList(TablePrescriptions); len(got) != 1 || got[0] != "00045049650" {
		t.Errorf("unexpected prescription codes: %v", got)
	}
}

func TestLoadDevLimit(t *testing.T) {
	root := writeFixtures(t)

	cfg := testConfig(root)
	cfg.Dev = true
	cfg.DevLimit = 2

	ds, err := Load(cfg)
	if err != nil {
		t.Fatal(err)
	}

	if len(ds.Patients) != 2 {
		t.Fatalf("expected the dev cohort capped at 2 patients, got %d", len(ds.Patients))
	}
	// Subjects are kept in sorted order
	if ds.Patients[0].SubjectID != "10000032" || ds.Patients[1].SubjectID != "10000980" {
		t.Fatalf("unexpected dev cohort: %s, %s", ds.Patients[0].SubjectID, ds.Patients[1].SubjectID)
	}
}

func TestLoadUnknownTable(t *testing.T) {
	root := writeFixtures(t)

	if _, err := Load(Config{Root: root, Tables: []string{"labevents"}}); err == nil {
		t.Fatal("expected an error for an unsupported table")
	}
}

func TestCacheRoundTrip(t *testing.T) {
	root := writeFixtures(t)
	cfg := testConfig(root)

	first, err := Load(cfg)
	if err != nil {
		t.Fatal(err)
	}

	// Remove the raw tables; a second load must come from the cache alone
	for _, name := range []string{"patients.csv", "admissions.csv", TableDiagnoses + ".csv.gz", TableProcedures + ".csv", TablePrescriptions + ".csv"} {
		if err := os.Remove(filepath.Join(root, name)); err != nil {
			t.Fatal(err)
		}
	}

	second, err := Load(cfg)
	if err != nil {
		t.Fatal(err)
	}

	if len(second.Patients) != len(first.Patients) {
		t.Fatalf("cache returned %d patients, want %d", len(second.Patients), len(first.Patients))
	}
	for i := range first.Patients {
		fp, sp := first.Patients[i], second.Patients[i]
		if fp.SubjectID != sp.SubjectID || len(fp.Visits) != len(sp.Visits) {
			t.Fatalf("cache mismatch for patient %s", fp.SubjectID)
		}
		for j := range fp.Visits {
			fv, sv := fp.Visits[j], sp.Visits[j]
			if fv.HadmID != sv.HadmID || fv.HospitalExpireFlag != sv.HospitalExpireFlag || !fv.AdmitTime.Equal(sv.AdmitTime) {
				t.Fatalf("cache mismatch for visit %s", fv.HadmID)
			}
			for _, table := range cfg.Tables {
				if len(fv.Events[table]) != len(sv.Events[table]) {
					t.Fatalf("cache mismatch for visit %s table %s", fv.HadmID, table)
				}
			}
		}
	}

	// A differently configured load must not use the stale cache
	devCfg := cfg
	devCfg.Dev = true
	if _, err := Load(devCfg); err == nil {
		t.Fatal("expected an error when the cache mismatches and the raw tables are gone")
	}

	// RefreshCache bypasses the cache entirely
	cfg.RefreshCache = true
	if _, err := Load(cfg); err == nil {
		t.Fatal("expected an error refreshing the cache with the raw tables gone")
	}
}
