package model

import "strconv"

// DatasetRow mirrors the Parquet layout of the raw healthcare dataset.
// Numeric columns are optional so missing cells survive the read and are
// dropped by the cleaner instead.
type DatasetRow struct {
	Name              string   `parquet:"name"`
	Age               *int64   `parquet:"age,optional"`
	Gender            *string  `parquet:"gender,optional"`
	BloodType         *string  `parquet:"blood_type,optional"`
	MedicalCondition  *string  `parquet:"medical_condition,optional"`
	DateOfAdmission   *string  `parquet:"date_of_admission,optional"`
	Doctor            string   `parquet:"doctor"`
	Hospital          string   `parquet:"hospital"`
	InsuranceProvider *string  `parquet:"insurance_provider,optional"`
	BillingAmount     *float64 `parquet:"billing_amount,optional"`
	RoomNumber        *int64   `parquet:"room_number,optional"`
	AdmissionType     *string  `parquet:"admission_type,optional"`
	DischargeDate     *string  `parquet:"discharge_date,optional"`
	Medication        *string  `parquet:"medication,optional"`
	TestResults       *string  `parquet:"test_results,optional"`
}

// DatasetColumns is the CSV header order of the raw dataset.
var DatasetColumns = []string{
	"Name", "Age", "Gender", "Blood Type", "Medical Condition", "Date of Admission",
	"Doctor", "Hospital", "Insurance Provider", "Billing Amount", "Room Number",
	"Admission Type", "Discharge Date", "Medication", "Test Results",
}

// Raw converts the row into a RawRecord keyed by normalized column name.
func (r *DatasetRow) Raw(rowNum int64) RawRecord {
	v := map[string]string{
		"name":     r.Name,
		"doctor":   r.Doctor,
		"hospital": r.Hospital,
	}
	putStr(v, KeyAge, intStr(r.Age))
	putStr(v, KeyGender, r.Gender)
	putStr(v, "blood_type", r.BloodType)
	putStr(v, KeyMedicalCondition, r.MedicalCondition)
	putStr(v, KeyAdmissionDate, r.DateOfAdmission)
	putStr(v, "insurance_provider", r.InsuranceProvider)
	putStr(v, KeyTarget, floatStr(r.BillingAmount))
	putStr(v, "room_number", intStr(r.RoomNumber))
	putStr(v, "admission_type", r.AdmissionType)
	putStr(v, KeyDischargeDate, r.DischargeDate)
	putStr(v, KeyMedication, r.Medication)
	putStr(v, "test_results", r.TestResults)
	return RawRecord{Row: rowNum, Values: v}
}

// CSVValues returns the row in DatasetColumns order.
func (r *DatasetRow) CSVValues() []string {
	return []string{
		r.Name, deref(intStr(r.Age)), deref(r.Gender), deref(r.BloodType),
		deref(r.MedicalCondition), deref(r.DateOfAdmission), r.Doctor, r.Hospital,
		deref(r.InsuranceProvider), deref(floatStr(r.BillingAmount)), deref(intStr(r.RoomNumber)),
		deref(r.AdmissionType), deref(r.DischargeDate), deref(r.Medication), deref(r.TestResults),
	}
}

func putStr(m map[string]string, key string, v *string) {
	if v != nil {
		m[key] = *v
	}
}

func intStr(v *int64) *string {
	if v == nil {
		return nil
	}
	s := strconv.FormatInt(*v, 10)
	return &s
}

func floatStr(v *float64) *string {
	if v == nil {
		return nil
	}
	s := strconv.FormatFloat(*v, 'f', -1, 64)
	return &s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
