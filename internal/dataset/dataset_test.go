package dataset

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gyeh/patientcost/internal/model"
)

func TestWriteRead_CSVAndParquet(t *testing.T) {
	rows := Synthesize(SynthOptions{Rows: 50, Seed: 7})
	for _, ext := range []string{".csv", ".parquet"} {
		t.Run(ext, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "admissions"+ext)
			if err := Write(path, rows); err != nil {
				t.Fatalf("Write: %v", err)
			}
			got, err := ReadAll(path)
			if err != nil {
				t.Fatalf("ReadAll: %v", err)
			}
			if len(got) != len(rows) {
				t.Fatalf("read %d records, wrote %d", len(got), len(rows))
			}
			first := got[0]
			if first.Row != 1 {
				t.Errorf("first row number = %d, want 1", first.Row)
			}
			want := rows[0].Raw(1)
			for _, key := range []string{model.KeyAge, model.KeyGender, model.KeyMedicalCondition,
				model.KeyAdmissionDate, model.KeyDischargeDate, model.KeyTarget, model.KeyMedication} {
				if first.Values[key] != want.Values[key] {
					t.Errorf("%s = %q, want %q", key, first.Values[key], want.Values[key])
				}
			}
		})
	}
}

func TestOpen_UnsupportedExtension(t *testing.T) {
	path := filepath.Join(t.TempDir(), "admissions.xlsx")
	os.WriteFile(path, []byte("x"), 0o644)
	if _, err := Open(path); err == nil {
		t.Fatal("expected error for .xlsx")
	}
}

func TestOpenCSV_MissingRequiredColumn(t *testing.T) {
	path := filepath.Join(t.TempDir(), "admissions.csv")
	header := "Name,Age,Gender,Blood Type,Medical Condition,Date of Admission,Insurance Provider,Admission Type,Discharge Date,Medication\n"
	os.WriteFile(path, []byte(header+"A,30,Male,O+,Cancer,2024-01-01,Aetna,Urgent,2024-01-03,Aspirin\n"), 0o644)

	_, err := OpenCSV(path)
	if err == nil {
		t.Fatal("expected error for missing billing amount column")
	}
	if !strings.Contains(err.Error(), model.KeyTarget) {
		t.Errorf("error does not name the missing column: %v", err)
	}
}

func TestValidateHeader_Duplicate(t *testing.T) {
	header := append([]string{"age"}, model.DatasetColumns...)
	if _, err := ValidateHeader(header); err == nil {
		t.Fatal("expected error for duplicate Age column")
	}
}

func TestCSVReader_ShortRowLeavesColumnsAbsent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "admissions.csv")
	content := strings.Join(model.DatasetColumns, ",") + "\n" + "Jane,41,Female\n"
	os.WriteFile(path, []byte(content), 0o644)

	r, err := OpenCSV(path)
	if err != nil {
		t.Fatalf("OpenCSV: %v", err)
	}
	defer r.Close()

	rec, err := r.Next()
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	if rec.Values[model.KeyAge] != "41" {
		t.Errorf("age = %q", rec.Values[model.KeyAge])
	}
	if _, ok := rec.Value(model.KeyTarget); ok {
		t.Error("short row should not carry billing_amount")
	}
	if _, err := r.Next(); !errors.Is(err, io.EOF) {
		t.Errorf("second Next = %v, want io.EOF", err)
	}
}

func TestSynthesize_Deterministic(t *testing.T) {
	a := Synthesize(SynthOptions{Rows: 20, Seed: 3})
	b := Synthesize(SynthOptions{Rows: 20, Seed: 3})
	for i := range a {
		if *a[i].BillingAmount != *b[i].BillingAmount || *a[i].MedicalCondition != *b[i].MedicalCondition {
			t.Fatalf("row %d differs between runs with the same seed", i)
		}
	}
}

func TestSynthesize_DirtyRows(t *testing.T) {
	rows := Synthesize(SynthOptions{Rows: 100, Seed: 1, DirtyFraction: 0.1})
	var missing, badDate int
	for _, r := range rows {
		if r.BloodType == nil {
			missing++
		}
		if r.DischargeDate != nil && *r.DischargeDate == "not-a-date" {
			badDate++
		}
	}
	if missing == 0 || badDate == 0 {
		t.Errorf("expected dirty rows, got %d missing and %d bad dates", missing, badDate)
	}
}
