// Package mortality turns a MIMIC-IV dataset into an in-hospital mortality
// prediction corpus: one labeled sample per hospital visit.
package mortality

import (
	"github.com/ehrml/ehrprep/mimic4"
	"github.com/ehrml/ehrprep/sampleset"
)

// Feature names and the event tables that back them.
const (
	FeatureConditions = "conditions"
	FeatureProcedures = "procedures"
	FeatureDrugs      = "drugs"
)

var featureTables = []struct {
	Feature string
	Table   string
}{
	{FeatureConditions, mimic4.TableDiagnoses},
	{FeatureProcedures, mimic4.TableProcedures},
	{FeatureDrugs, mimic4.TablePrescriptions},
}

// Apply builds the corpus. Each visit becomes a sample with the visit's
// diagnosis, procedure, and prescription codes as features and a binary
// label marking in-hospital death. Visits missing any of the three feature
// kinds are skipped, since they cannot feed a model that expects all three.
func Apply(ds *mimic4.Dataset) *sampleset.Set {
	set := &sampleset.Set{}

	for _, p := range ds.Patients {
		for _, v := range p.Visits {
			features := make(map[string][]string, len(featureTables))

			complete := true
			for _, ft := range featureTables {
				codes := v.CodeList(ft.Table)
				if len(codes) == 0 {
					complete = false
					break
				}
				features[ft.Feature] = codes
			}
			if !complete {
				continue
			}

			set.Append(sampleset.Sample{
				VisitID:   v.HadmID,
				PatientID: v.SubjectID,
				Features:  features,
				Label:     label(v),
			})
		}
	}

	return set
}

// label marks a visit 1 when the admission ended in death: either the
// hospital_expire_flag was set or a death time was recorded within the stay.
func label(v *mimic4.Visit) int {
	if v.HospitalExpireFlag {
		return 1
	}
	if !v.DeathTime.IsZero() && !v.DeathTime.Before(v.AdmitTime) {
		if v.DischTime.IsZero() || !v.DeathTime.After(v.DischTime) {
			return 1
		}
	}

	return 0
}
