package mimic4

import (
	"bytes"
	"encoding/csv"
	"io"
	"strings"
	"time"

	"github.com/araddon/dateparse"
	"github.com/carbocation/pfx"
	"github.com/gocarina/gocsv"
	"gopkg.in/guregu/null.v3"

	"github.com/ehrml/ehrprep"
)

// Row layouts for the hosp tables we consume. Columns not listed here are
// ignored by gocsv.

type patientRow struct {
	SubjectID       string      `csv:"subject_id"`
	Gender          string      `csv:"gender"`
	AnchorAge       int         `csv:"anchor_age"`
	AnchorYear      int         `csv:"anchor_year"`
	AnchorYearGroup string      `csv:"anchor_year_group"`
	DOD             null.String `csv:"dod"`
}

type admissionRow struct {
	SubjectID          string      `csv:"subject_id"`
	HadmID             string      `csv:"hadm_id"`
	AdmitTime          string      `csv:"admittime"`
	DischTime          string      `csv:"dischtime"`
	DeathTime          null.String `csv:"deathtime"`
	AdmissionType      string      `csv:"admission_type"`
	DischargeLocation  null.String `csv:"discharge_location"`
	HospitalExpireFlag int         `csv:"hospital_expire_flag"`
}

type diagnosisRow struct {
	SubjectID  string `csv:"subject_id"`
	HadmID     string `csv:"hadm_id"`
	SeqNum     int    `csv:"seq_num"`
	ICDCode    string `csv:"icd_code"`
	ICDVersion int    `csv:"icd_version"`
}

type procedureRow struct {
	SubjectID  string `csv:"subject_id"`
	HadmID     string `csv:"hadm_id"`
	SeqNum     int    `csv:"seq_num"`
	ChartDate  string `csv:"chartdate"`
	ICDCode    string `csv:"icd_code"`
	ICDVersion int    `csv:"icd_version"`
}

type prescriptionRow struct {
	SubjectID string      `csv:"subject_id"`
	HadmID    string      `csv:"hadm_id"`
	StartTime null.String `csv:"starttime"`
	Drug      string      `csv:"drug"`
	NDC       null.String `csv:"ndc"`
}

// unmarshalTable sniffs the delimiter and decodes fileBytes into out, which
// must be a pointer to a slice of row structs.
func unmarshalTable(fileBytes []byte, out interface{}) error {
	delim := ehrprep.DetermineDelimiter(bytes.NewReader(fileBytes))

	gocsv.SetCSVReader(func(in io.Reader) gocsv.CSVReader {
		r := csv.NewReader(in)
		r.Comma = delim
		r.LazyQuotes = true
		return r
	})

	if err := gocsv.UnmarshalBytes(fileBytes, out); err != nil {
		return pfx.Err(err)
	}

	return nil
}

// parseTime leniently parses the timestamp formats seen in MIMIC-IV exports.
// An empty string yields the zero time.
func parseTime(value string) (time.Time, error) {
	if strings.TrimSpace(value) == "" {
		return time.Time{}, nil
	}

	t, err := dateparse.ParseAny(value)
	if err != nil {
		return time.Time{}, pfx.Err(err)
	}

	return t, nil
}

// icdVocabulary names the code vocabulary for an event table row based on
// its icd_version column.
func icdVocabulary(table string, version int) string {
	procedural := table == TableProcedures

	switch {
	case version == 9 && procedural:
		return "ICD9PROC"
	case version == 9:
		return "ICD9CM"
	case procedural:
		return "ICD10PROC"
	default:
		return "ICD10CM"
	}
}
