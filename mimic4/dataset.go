package mimic4

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"

	"github.com/carbocation/pfx"

	"github.com/ehrml/ehrprep"
)

// Event table names, matching the MIMIC-IV hosp module file names.
const (
	TableDiagnoses     = "diagnoses_icd"
	TableProcedures    = "procedures_icd"
	TablePrescriptions = "prescriptions"
)

// DefaultDevPatients caps the cohort size when Config.Dev is set and no
// explicit limit is given.
const DefaultDevPatients = 1000

type Config struct {
	// Root is the directory holding the MIMIC-IV tables, either directly
	// or under a hosp/ subdirectory. Tables may be plain or gzipped CSV.
	Root string

	// Tables lists the event tables to attach to each visit.
	Tables []string

	// Dev restricts the cohort to the first DevLimit patients by subject
	// id, for fast iteration against the full dataset.
	Dev      bool
	DevLimit int

	// RefreshCache discards any existing parse cache and rebuilds it.
	RefreshCache bool
}

func (cfg Config) devLimit() int {
	if !cfg.Dev {
		return 0
	}
	if cfg.DevLimit > 0 {
		return cfg.DevLimit
	}

	return DefaultDevPatients
}

// Load materializes a Dataset from cfg.Root. When a parse cache built with
// the same table set and dev settings exists, it is used instead of
// re-parsing the raw tables.
func Load(cfg Config) (*Dataset, error) {
	for _, table := range cfg.Tables {
		switch table {
		case TableDiagnoses, TableProcedures, TablePrescriptions:
		default:
			return nil, fmt.Errorf("mimic4: unknown event table %q", table)
		}
	}

	cachePath := filepath.Join(cfg.Root, cacheFileName)
	if !cfg.RefreshCache {
		if ds, err := readCache(cachePath, cfg); err == nil {
			log.Printf("Loaded %d patients from cache at %s\n", len(ds.Patients), cachePath)
			return ds, nil
		} else if !os.IsNotExist(err) {
			log.Println("Ignoring unusable cache:", err)
		}
	}

	ds, err := parse(cfg)
	if err != nil {
		return nil, err
	}

	if err := writeCache(cachePath, ds, cfg); err != nil {
		return nil, pfx.Err(err)
	}

	return ds, nil
}

func parse(cfg Config) (*Dataset, error) {
	ds := &Dataset{Root: cfg.Root, Tables: cfg.Tables}

	bysubject, err := loadPatients(cfg, ds)
	if err != nil {
		return nil, err
	}

	byvisit, err := loadAdmissions(cfg, bysubject)
	if err != nil {
		return nil, err
	}

	for _, table := range cfg.Tables {
		if err := loadEvents(cfg, table, byvisit); err != nil {
			return nil, err
		}
	}

	// Order visits chronologically within each patient
	for _, p := range ds.Patients {
		sort.Slice(p.Visits, func(i, j int) bool {
			if p.Visits[i].AdmitTime.Equal(p.Visits[j].AdmitTime) {
				return p.Visits[i].HadmID < p.Visits[j].HadmID
			}
			return p.Visits[i].AdmitTime.Before(p.Visits[j].AdmitTime)
		})
	}

	return ds, nil
}

func loadPatients(cfg Config, ds *Dataset) (map[string]*Patient, error) {
	fileBytes, err := openTable(cfg.Root, "patients")
	if err != nil {
		return nil, err
	}

	rows := []*patientRow{}
	if err := unmarshalTable(fileBytes, &rows); err != nil {
		return nil, fmt.Errorf("patients: %w", err)
	}

	sort.Slice(rows, func(i, j int) bool { return rows[i].SubjectID < rows[j].SubjectID })

	limit := cfg.devLimit()

	bysubject := make(map[string]*Patient)
	for _, row := range rows {
		if row.SubjectID == "" {
			continue
		}
		if limit > 0 && len(ds.Patients) >= limit {
			break
		}

		dod, err := parseTime(row.DOD.ValueOrZero())
		if err != nil {
			return nil, fmt.Errorf("patients: subject %s: %w", row.SubjectID, err)
		}

		p := &Patient{
			SubjectID:  row.SubjectID,
			Gender:     row.Gender,
			AnchorAge:  row.AnchorAge,
			AnchorYear: row.AnchorYear,
			DOD:        dod,
		}
		bysubject[p.SubjectID] = p
		ds.Patients = append(ds.Patients, p)
	}

	log.Printf("Parsed %d patients\n", len(ds.Patients))

	return bysubject, nil
}

func loadAdmissions(cfg Config, bysubject map[string]*Patient) (map[string]*Visit, error) {
	fileBytes, err := openTable(cfg.Root, "admissions")
	if err != nil {
		return nil, err
	}

	rows := []*admissionRow{}
	if err := unmarshalTable(fileBytes, &rows); err != nil {
		return nil, fmt.Errorf("admissions: %w", err)
	}

	byvisit := make(map[string]*Visit)
	for _, row := range rows {
		p, kept := bysubject[row.SubjectID]
		if !kept {
			// Subject fell outside the dev-mode cohort
			continue
		}

		admit, err := parseTime(row.AdmitTime)
		if err != nil {
			return nil, fmt.Errorf("admissions: visit %s: %w", row.HadmID, err)
		}
		disch, err := parseTime(row.DischTime)
		if err != nil {
			return nil, fmt.Errorf("admissions: visit %s: %w", row.HadmID, err)
		}
		death, err := parseTime(row.DeathTime.ValueOrZero())
		if err != nil {
			return nil, fmt.Errorf("admissions: visit %s: %w", row.HadmID, err)
		}

		v := &Visit{
			HadmID:             row.HadmID,
			SubjectID:          row.SubjectID,
			AdmissionType:      row.AdmissionType,
			AdmitTime:          admit,
			DischTime:          disch,
			DeathTime:          death,
			HospitalExpireFlag: row.HospitalExpireFlag != 0,
		}
		byvisit[v.HadmID] = v
		p.Visits = append(p.Visits, v)
	}

	log.Printf("Parsed %d admissions\n", len(byvisit))

	return byvisit, nil
}

func loadEvents(cfg Config, table string, byvisit map[string]*Visit) error {
	fileBytes, err := openTable(cfg.Root, table)
	if err != nil {
		return err
	}

	count := 0
	switch table {
	case TableDiagnoses:
		rows := []*diagnosisRow{}
		if err := unmarshalTable(fileBytes, &rows); err != nil {
			return fmt.Errorf("%s: %w", table, err)
		}
		for _, row := range rows {
			v, kept := byvisit[row.HadmID]
			if !kept || row.ICDCode == "" {
				continue
			}
			v.AddEvent(Event{
				Table:      table,
				Code:       row.ICDCode,
				Vocabulary: icdVocabulary(table, row.ICDVersion),
				SeqNum:     row.SeqNum,
			})
			count++
		}

	case TableProcedures:
		rows := []*procedureRow{}
		if err := unmarshalTable(fileBytes, &rows); err != nil {
			return fmt.Errorf("%s: %w", table, err)
		}
		for _, row := range rows {
			v, kept := byvisit[row.HadmID]
			if !kept || row.ICDCode == "" {
				continue
			}
			v.AddEvent(Event{
				Table:      table,
				Code:       row.ICDCode,
				Vocabulary: icdVocabulary(table, row.ICDVersion),
				SeqNum:     row.SeqNum,
			})
			count++
		}

	case TablePrescriptions:
		rows := []*prescriptionRow{}
		if err := unmarshalTable(fileBytes, &rows); err != nil {
			return fmt.Errorf("%s: %w", table, err)
		}
		for seq, row := range rows {
			v, kept := byvisit[row.HadmID]
			ndc := row.NDC.ValueOrZero()
			if !kept || ndc == "" || ndc == "0" {
				continue
			}
			v.AddEvent(Event{
				Table:      table,
				Code:       ndc,
				Vocabulary: "NDC",
				SeqNum:     seq,
			})
			count++
		}
	}

	log.Printf("Parsed %d %s events\n", count, table)

	return nil
}

// openTable finds and slurps a table under root, trying plain and gzipped
// names both at the top level and under hosp/.
func openTable(root, name string) ([]byte, error) {
	candidates := []string{
		filepath.Join(root, name+".csv.gz"),
		filepath.Join(root, name+".csv"),
		filepath.Join(root, "hosp", name+".csv.gz"),
		filepath.Join(root, "hosp", name+".csv"),
	}

	for _, candidate := range candidates {
		if _, err := os.Stat(candidate); err != nil {
			continue
		}

		fileBytes, err := ehrprep.OpenFileOrURL(candidate)
		if err != nil {
			return nil, pfx.Err(err)
		}

		return fileBytes, nil
	}

	return nil, fmt.Errorf("mimic4: table %q not found under %s (tried %v)", name, root, candidates)
}
