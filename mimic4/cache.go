package mimic4

import (
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	_ "github.com/mattn/go-sqlite3"
)

// cacheFileName is the parse cache kept alongside the raw tables. Parsing
// the full hosp tables dominates load time, so the materialized rows are
// stashed in SQLite and reused while the configuration stays the same.
const cacheFileName = ".ehrprep-cache.sqlite"

const cacheSchemaVersion = "1"

const cacheSchema = `
CREATE TABLE meta (
	key TEXT PRIMARY KEY,
	value TEXT NOT NULL
);
CREATE TABLE patients (
	subject_id TEXT PRIMARY KEY,
	gender TEXT NOT NULL,
	anchor_age INTEGER NOT NULL,
	anchor_year INTEGER NOT NULL,
	dod TEXT NOT NULL
);
CREATE TABLE visits (
	hadm_id TEXT PRIMARY KEY,
	subject_id TEXT NOT NULL,
	admission_type TEXT NOT NULL,
	admittime TEXT NOT NULL,
	dischtime TEXT NOT NULL,
	deathtime TEXT NOT NULL,
	hospital_expire_flag INTEGER NOT NULL
);
CREATE TABLE events (
	hadm_id TEXT NOT NULL,
	tbl TEXT NOT NULL,
	code TEXT NOT NULL,
	vocabulary TEXT NOT NULL,
	seq_num INTEGER NOT NULL
);
CREATE INDEX events_hadm ON events (hadm_id);
`

type cachePatientRow struct {
	SubjectID  string `db:"subject_id"`
	Gender     string `db:"gender"`
	AnchorAge  int    `db:"anchor_age"`
	AnchorYear int    `db:"anchor_year"`
	DOD        string `db:"dod"`
}

type cacheVisitRow struct {
	HadmID             string `db:"hadm_id"`
	SubjectID          string `db:"subject_id"`
	AdmissionType      string `db:"admission_type"`
	AdmitTime          string `db:"admittime"`
	DischTime          string `db:"dischtime"`
	DeathTime          string `db:"deathtime"`
	HospitalExpireFlag int    `db:"hospital_expire_flag"`
}

type cacheEventRow struct {
	HadmID     string `db:"hadm_id"`
	Tbl        string `db:"tbl"`
	Code       string `db:"code"`
	Vocabulary string `db:"vocabulary"`
	SeqNum     int    `db:"seq_num"`
}

func cacheTimeString(t time.Time) string {
	if t.IsZero() {
		return ""
	}

	return t.Format(time.RFC3339)
}

func cacheTimeParse(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, nil
	}

	return time.Parse(time.RFC3339, value)
}

func cacheTableKey(tables []string) string {
	sorted := append([]string{}, tables...)
	sort.Strings(sorted)

	return strings.Join(sorted, ",")
}

func writeCache(path string, ds *Dataset, cfg Config) error {
	// Rebuild from scratch rather than mutating a stale cache
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return err
	}

	db, err := sqlx.Connect("sqlite3", "file:"+path)
	if err != nil {
		return err
	}
	defer db.Close()

	if _, err := db.Exec(cacheSchema); err != nil {
		return err
	}

	tx, err := db.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	meta := map[string]string{
		"version":   cacheSchemaVersion,
		"tables":    cacheTableKey(cfg.Tables),
		"dev_limit": strconv.Itoa(cfg.devLimit()),
	}
	for key, value := range meta {
		if _, err := tx.Exec("INSERT INTO meta (key, value) VALUES (?, ?)", key, value); err != nil {
			return err
		}
	}

	for _, p := range ds.Patients {
		_, err := tx.NamedExec(
			`INSERT INTO patients (subject_id, gender, anchor_age, anchor_year, dod)
			 VALUES (:subject_id, :gender, :anchor_age, :anchor_year, :dod)`,
			cachePatientRow{
				SubjectID:  p.SubjectID,
				Gender:     p.Gender,
				AnchorAge:  p.AnchorAge,
				AnchorYear: p.AnchorYear,
				DOD:        cacheTimeString(p.DOD),
			})
		if err != nil {
			return err
		}

		for _, v := range p.Visits {
			expired := 0
			if v.HospitalExpireFlag {
				expired = 1
			}

			_, err := tx.NamedExec(
				`INSERT INTO visits (hadm_id, subject_id, admission_type, admittime, dischtime, deathtime, hospital_expire_flag)
				 VALUES (:hadm_id, :subject_id, :admission_type, :admittime, :dischtime, :deathtime, :hospital_expire_flag)`,
				cacheVisitRow{
					HadmID:             v.HadmID,
					SubjectID:          v.SubjectID,
					AdmissionType:      v.AdmissionType,
					AdmitTime:          cacheTimeString(v.AdmitTime),
					DischTime:          cacheTimeString(v.DischTime),
					DeathTime:          cacheTimeString(v.DeathTime),
					HospitalExpireFlag: expired,
				})
			if err != nil {
				return err
			}

			for _, table := range ds.Tables {
				for _, e := range v.Events[table] {
					_, err := tx.NamedExec(
						`INSERT INTO events (hadm_id, tbl, code, vocabulary, seq_num)
						 VALUES (:hadm_id, :tbl, :code, :vocabulary, :seq_num)`,
						cacheEventRow{
							HadmID:     v.HadmID,
							Tbl:        e.Table,
							Code:       e.Code,
							Vocabulary: e.Vocabulary,
							SeqNum:     e.SeqNum,
						})
					if err != nil {
						return err
					}
				}
			}
		}
	}

	return tx.Commit()
}

func readCache(path string, cfg Config) (*Dataset, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, err
	}

	db, err := sqlx.Connect("sqlite3", "file:"+path+"?mode=ro")
	if err != nil {
		return nil, err
	}
	defer db.Close()

	meta := make(map[string]string)
	rows, err := db.Queryx("SELECT key, value FROM meta")
	if err != nil {
		return nil, err
	}
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return nil, err
		}
		meta[key] = value
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if meta["version"] != cacheSchemaVersion {
		return nil, fmt.Errorf("cache schema version %q, want %q", meta["version"], cacheSchemaVersion)
	}
	if meta["tables"] != cacheTableKey(cfg.Tables) {
		return nil, fmt.Errorf("cache built for tables %q, want %q", meta["tables"], cacheTableKey(cfg.Tables))
	}
	if meta["dev_limit"] != strconv.Itoa(cfg.devLimit()) {
		return nil, fmt.Errorf("cache built with dev limit %q, want %d", meta["dev_limit"], cfg.devLimit())
	}

	ds := &Dataset{Root: cfg.Root, Tables: cfg.Tables}

	patientRows := []cachePatientRow{}
	if err := db.Select(&patientRows, "SELECT * FROM patients ORDER BY subject_id"); err != nil {
		return nil, err
	}

	bysubject := make(map[string]*Patient, len(patientRows))
	for _, row := range patientRows {
		dod, err := cacheTimeParse(row.DOD)
		if err != nil {
			return nil, err
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

	visitRows := []cacheVisitRow{}
	if err := db.Select(&visitRows, "SELECT * FROM visits ORDER BY subject_id, admittime, hadm_id"); err != nil {
		return nil, err
	}

	byvisit := make(map[string]*Visit, len(visitRows))
	for _, row := range visitRows {
		p, exists := bysubject[row.SubjectID]
		if !exists {
			return nil, fmt.Errorf("cache visit %s references unknown subject %s", row.HadmID, row.SubjectID)
		}

		admit, err := cacheTimeParse(row.AdmitTime)
		if err != nil {
			return nil, err
		}
		disch, err := cacheTimeParse(row.DischTime)
		if err != nil {
			return nil, err
		}
		death, err := cacheTimeParse(row.DeathTime)
		if err != nil {
			return nil, err
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

	eventRows := []cacheEventRow{}
	if err := db.Select(&eventRows, "SELECT * FROM events ORDER BY hadm_id, tbl, seq_num"); err != nil {
		return nil, err
	}

	for _, row := range eventRows {
		v, exists := byvisit[row.HadmID]
		if !exists {
			return nil, fmt.Errorf("cache event references unknown visit %s", row.HadmID)
		}
		v.AddEvent(Event{
			Table:      row.Tbl,
			Code:       row.Code,
			Vocabulary: row.Vocabulary,
			SeqNum:     row.SeqNum,
		})
	}

	return ds, nil
}
