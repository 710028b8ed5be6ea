// mimic4mortality builds a benchmark in-hospital mortality prediction
// corpus from a local MIMIC-IV directory: load the hosp tables, label each
// visit, standardize drug and diagnosis codes, split by patient, and report
// the resulting statistics.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/ehrml/ehrprep/medcode"
	"github.com/ehrml/ehrprep/mimic4"
	"github.com/ehrml/ehrprep/mortality"
	"github.com/ehrml/ehrprep/sampleset"
)

// Special value that is to be set using ldflags
// E.g.: go build -ldflags "-X main.builddate=`date -u +%Y-%m-%d:%H:%M:%S%Z`"
var builddate string

var (
	BufferSize = 4096 * 8
	STDOUT     = bufio.NewWriterSize(os.Stdout, BufferSize)
)

const divider = "--------------------------------------------------------------------------------"

func main() {
	defer STDOUT.Flush()

	fmt.Fprintf(os.Stderr, "This mimic4mortality binary was built at: %s\n", builddate)

	var root, tables string
	var dev, refreshCache bool
	var seed int64
	var trainFrac, valFrac, testFrac float64
	var atcLevel int

	flag.StringVar(&root, "root", "", "Path to the directory holding the MIMIC-IV tables (plain or gzipped CSV, at the top level or under hosp/)")
	flag.StringVar(&tables, "tables", strings.Join([]string{mimic4.TableDiagnoses, mimic4.TableProcedures, mimic4.TablePrescriptions}, ","), "Comma-delimited event tables to load")
	flag.BoolVar(&dev, "dev", false, "Development mode: restrict to the first 1000 patients")
	flag.BoolVar(&refreshCache, "refresh-cache", false, "Discard the parse cache and re-read the raw tables")
	flag.Int64Var(&seed, "seed", 42, "Random seed for the patient-wise split")
	flag.Float64Var(&trainFrac, "train", 0.8, "Training fraction of patients")
	flag.Float64Var(&valFrac, "val", 0.1, "Validation fraction of patients")
	flag.Float64Var(&testFrac, "test", 0.1, "Test fraction of patients")
	flag.IntVar(&atcLevel, "atc-level", 3, "ATC hierarchy level for drug code standardization")
	flag.Parse()

	if root == "" {
		fmt.Fprintln(os.Stderr, "Please provide -root")
		flag.PrintDefaults()
		os.Exit(1)
	}

	tableList := strings.Split(tables, ",")

	fmt.Fprintln(STDOUT, "MIMIC-IV Mortality Prediction Dataset Pipeline")

	// Step 1: load the raw tables
	fmt.Fprintln(STDOUT, "\n[Step 1] Loading MIMIC-IV dataset")
	fmt.Fprintln(STDOUT, divider)
	ds, err := mimic4.Load(mimic4.Config{
		Root:         root,
		Tables:       tableList,
		Dev:          dev,
		RefreshCache: refreshCache,
	})
	if err != nil {
		log.Fatalln(err)
	}
	fmt.Fprintf(STDOUT, "Patients: %d\n", len(ds.Patients))
	fmt.Fprintf(STDOUT, "Visits:   %d\n", ds.NumVisits())
	fmt.Fprintf(STDOUT, "Tables:   %s\n", strings.Join(ds.Tables, ", "))

	// Step 2: label each visit
	fmt.Fprintln(STDOUT, "\n[Step 2] Applying in-hospital mortality task")
	fmt.Fprintln(STDOUT, divider)
	set := mortality.Apply(ds)
	fmt.Fprintf(STDOUT, "Samples: %d\n", set.Len())

	// Step 3: standardize codes. NDC is too granular for modeling, so drugs
	// are collapsed to their ATC therapeutic subgroup; legacy ICD-9
	// diagnoses are brought forward to ICD-10.
	fmt.Fprintln(STDOUT, "\n[Step 3] Mapping medical codes")
	fmt.Fprintln(STDOUT, divider)

	ndc2atc, err := medcode.New("NDC", "ATC")
	if err != nil {
		log.Fatalln(err)
	}
	set.MapCodes(mortality.FeatureDrugs, ndc2atc, atcLevel)
	fmt.Fprintf(STDOUT, "Mapped NDC drug codes to ATC level %d (%d crossmap entries)\n", atcLevel, ndc2atc.Len())

	icd9to10, err := medcode.New("ICD9CM", "ICD10CM")
	if err != nil {
		log.Fatalln(err)
	}
	set.MapCodes(mortality.FeatureConditions, icd9to10, 0)
	fmt.Fprintf(STDOUT, "Mapped ICD9CM condition codes to ICD10CM (%d crossmap entries)\n", icd9to10.Len())

	// Step 4: patient-wise split
	fmt.Fprintln(STDOUT, "\n[Step 4] Splitting by patient")
	fmt.Fprintln(STDOUT, divider)
	train, val, test, err := sampleset.SplitByPatient(set, [3]float64{trainFrac, valFrac, testFrac}, seed)
	if err != nil {
		log.Fatalln(err)
	}
	printSplit(set, "Training", train)
	printSplit(set, "Validation", val)
	printSplit(set, "Test", test)

	// Step 5: vocabulary statistics
	fmt.Fprintln(STDOUT, "\n[Step 5] Vocabulary statistics")
	fmt.Fprintln(STDOUT, divider)
	for _, feature := range set.FeatureNames() {
		fmt.Fprintf(STDOUT, "%-12s %6d unique codes\n", feature, set.BuildVocab(feature).Size())
	}

	// Step 6: final corpus statistics
	fmt.Fprintln(STDOUT, "\n[Step 6] Final dataset statistics")
	fmt.Fprintln(STDOUT, divider)
	if err := sampleset.Describe(STDOUT, set); err != nil {
		log.Fatalln(err)
	}

	log.Println("Pipeline completed successfully")
}

func printSplit(full *sampleset.Set, name string, subset *sampleset.Set) {
	pct := 0.0
	if full.Len() > 0 {
		pct = 100 * float64(subset.Len()) / float64(full.Len())
	}
	fmt.Fprintf(STDOUT, "%-10s %6d samples (%5.1f%%), %6d patients\n", name, subset.Len(), pct, len(subset.PatientIDs()))
}
