package inference

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/gyeh/patientcost/internal/artifact"
	"github.com/gyeh/patientcost/internal/features"
	"github.com/gyeh/patientcost/internal/model"
	"github.com/gyeh/patientcost/internal/regress"
)

// testBundle: age (mean 40, std 10), gender, procedure_Surgery and every
// medication dummy. Intercept 1000.
func testBundle() *artifact.Bundle {
	run := uuid.New()
	return &artifact.Bundle{
		Schema: artifact.Schema{
			FormatVersion: artifact.FormatVersion,
			RunID:         run,
			K:             5,
			Encoding: &features.Encoding{
				Fields: model.AllFields,
				Categories: map[string][]string{
					model.KeyGender:     {"Male", "Female"},
					model.KeyProcedure:  {"Surgery", "X-Ray"},
					model.KeyMedication: {"Insulin", "Chemotherapy"},
				},
				Scaling: map[string]features.Scaling{model.KeyAge: {Mean: 40, Std: 10}},
			},
			Features: model.Schema{
				{Field: model.KeyAge},
				{Field: model.KeyGender},
				{Field: model.KeyProcedure, Category: "Surgery"},
				{Field: model.KeyMedication, Category: "Insulin"},
				{Field: model.KeyMedication, Category: "Chemotherapy"},
			},
		},
		Model: artifact.Model{
			FormatVersion: artifact.FormatVersion,
			RunID:         run,
			Kind:          artifact.ModelKindRidge,
			Linear:        &regress.Linear{Intercept: 1000, Weights: []float64{100, 50, 2000, 300, 4000}},
		},
	}
}

func testRequest() *model.PatientRequest {
	return &model.PatientRequest{
		Age: 50, Gender: "Male", Height: 175, Weight: 70,
		BloodType: "B+", InsuranceProvider: "Medicaid", MedicalCondition: "Heart Disease",
		Symptoms: []string{"Pain"}, AdmissionType: "Emergency", TreatmentPlan: "Surgery",
		PlannedStay: 3, RoomType: "ICU",
		Procedures: []string{"Surgery"},
	}
}

func newEstimator(t *testing.T) *Estimator {
	t.Helper()
	e, err := New(testBundle(), zerolog.Nop())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return e
}

func TestEstimate_SurgeryWithoutMedications(t *testing.T) {
	e := newEstimator(t)
	vec, st, err := e.Vector(testRequest().RawRecord())
	if err != nil {
		t.Fatalf("Vector: %v", err)
	}
	want := model.FeatureVector{1, 1, 1, 0, 0}
	for i := range want {
		if vec[i] != want[i] {
			t.Errorf("%s = %v, want %v", e.schema[i], vec[i], want[i])
		}
	}
	if len(st.ZeroFilled) != 2 {
		t.Errorf("ZeroFilled = %v, want the two medication positions", st.ZeroFilled)
	}

	p, err := e.Estimate(testRequest())
	if err != nil {
		t.Fatalf("Estimate: %v", err)
	}
	if p.PredictedCost != 1000+100+50+2000 {
		t.Errorf("cost = %v, want 3150", p.PredictedCost)
	}
	if p.ModelRunID != e.RunID().String() {
		t.Errorf("run id = %s", p.ModelRunID)
	}
}

func TestEstimate_Breakdown(t *testing.T) {
	e := newEstimator(t)
	p, err := e.Estimate(testRequest())
	if err != nil {
		t.Fatalf("Estimate: %v", err)
	}
	want := map[string]float64{
		"Base Hospitalization": 0.40,
		"Medical Condition":    0.30,
		"Procedures":           0.15,
		"Medications":          0.10,
		"Room Type":            0.05,
	}
	bm := p.BreakdownMap()
	var sum float64
	for name, w := range want {
		if math.Abs(bm[name]-p.PredictedCost*w) > 1e-9 {
			t.Errorf("%s = %v, want %v", name, bm[name], p.PredictedCost*w)
		}
		sum += bm[name]
	}
	if math.Abs(sum-p.PredictedCost) > 1e-9 {
		t.Errorf("breakdown sums to %v, want %v", sum, p.PredictedCost)
	}
}

func TestEstimate_InvalidRequest(t *testing.T) {
	e := newEstimator(t)
	req := testRequest()
	req.PlannedStay = 0
	_, err := e.Estimate(req)
	var re *RequestError
	if !errors.As(err, &re) {
		t.Fatalf("err = %v, want RequestError", err)
	}
	if s := e.Stats(); s.Requests != 1 || s.Failures != 1 {
		t.Errorf("stats = %+v", s)
	}
}

func TestEstimate_NonFiniteOutput(t *testing.T) {
	b := testBundle()
	b.Model.Linear.Weights = []float64{math.MaxFloat64, math.MaxFloat64, math.MaxFloat64, 0, 0}
	e, err := New(b, zerolog.Nop())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	_, err = e.Estimate(testRequest())
	var pe *PredictionError
	if !errors.As(err, &pe) {
		t.Fatalf("err = %v, want PredictionError", err)
	}
}

func TestNew_SchemaMismatch(t *testing.T) {
	b := testBundle()
	b.Model.Linear.Weights = b.Model.Linear.Weights[:3]
	_, err := New(b, zerolog.Nop())
	var sm *SchemaMismatchError
	if !errors.As(err, &sm) {
		t.Fatalf("err = %v, want SchemaMismatchError", err)
	}

	drifted := testBundle()
	drifted.Schema.Features[2] = model.FeatureName{Field: model.KeyGender, Category: "Male"}
	if _, err := New(drifted, zerolog.Nop()); !errors.As(err, &sm) || !errors.Is(err, artifact.ErrUnknownFeature) {
		t.Errorf("drifted schema: err = %v, want SchemaMismatchError wrapping ErrUnknownFeature", err)
	}

	if _, err := New(nil, zerolog.Nop()); !errors.As(err, &sm) {
		t.Errorf("nil bundle: err = %v, want SchemaMismatchError", err)
	}
}

func TestLoadDir(t *testing.T) {
	dir := t.TempDir()
	b := testBundle()
	if err := artifact.SaveDir(dir, b); err != nil {
		t.Fatalf("SaveDir: %v", err)
	}
	e, err := LoadDir(dir, zerolog.Nop())
	if err != nil {
		t.Fatalf("LoadDir: %v", err)
	}
	if e.RunID() != b.Schema.RunID {
		t.Errorf("run = %s, want %s", e.RunID(), b.Schema.RunID)
	}

	// A model artifact from another run must be refused.
	other := testBundle()
	if err := artifact.SaveDir(filepath.Join(dir, "other"), other); err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(filepath.Join(dir, "other", artifact.ModelFile))
	if err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, artifact.ModelFile), data, 0o644); err != nil {
		t.Fatal(err)
	}
	_, err = LoadDir(dir, zerolog.Nop())
	var sm *SchemaMismatchError
	if !errors.As(err, &sm) {
		t.Errorf("mixed runs: err = %v, want SchemaMismatchError", err)
	}
}

func TestStats_ZeroFillCounters(t *testing.T) {
	e := newEstimator(t)
	for i := 0; i < 3; i++ {
		if _, err := e.Estimate(testRequest()); err != nil {
			t.Fatalf("Estimate: %v", err)
		}
	}
	s := e.Stats()
	if s.Requests != 3 || s.Failures != 0 {
		t.Errorf("requests=%d failures=%d", s.Requests, s.Failures)
	}
	if s.ZeroFilled != 6 {
		t.Errorf("ZeroFilled = %d, want 6", s.ZeroFilled)
	}
	if s.ZeroFilledFeature["medication_Insulin"] != 3 || s.ZeroFilledFeature["procedure_Surgery"] != 0 {
		t.Errorf("per-feature counts = %v", s.ZeroFilledFeature)
	}
	// The request carries symptom, blood type and other candidates no schema
	// position uses.
	if s.UnusedCandidates == 0 {
		t.Error("expected unused candidates to be counted")
	}
}

func TestEstimate_Concurrent(t *testing.T) {
	e := newEstimator(t)
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				if _, err := e.Estimate(testRequest()); err != nil {
					t.Error(err)
					return
				}
			}
		}()
	}
	wg.Wait()
	if got := e.Stats().Requests; got != 16*50 {
		t.Errorf("requests = %d, want %d", got, 16*50)
	}
}
