package model

import (
	"fmt"
	"slices"
	"strconv"
)

// Enumerations accepted on an inference request.
var (
	Genders            = []string{"Male", "Female"}
	BloodTypes         = []string{"A+", "A-", "B+", "B-", "O+", "O-", "AB+", "AB-"}
	InsuranceProviders = []string{"Private", "Medicare", "Medicaid", "None"}
	MedicalConditions  = []string{"Cancer", "Diabetes", "Heart Disease", "Respiratory", "Other"}
	Symptoms           = []string{"Fever", "Pain", "Fatigue", "Nausea", "Swelling", "Other"}
	AdmissionTypes     = []string{"Emergency", "Urgent", "Elective"}
	TreatmentPlans     = []string{"Surgery", "Medication", "Therapy", "Observation"}
	RoomTypes          = []string{"General Ward", "Semi-Private", "Private", "ICU"}
	Procedures         = []string{"MRI Scan", "X-Ray", "Blood Test", "Surgery", "Physical Therapy"}
	Medications        = []string{"Antibiotics", "Painkillers", "Insulin", "Chemotherapy", "Other"}
)

// PatientRequest is the structured input submitted by the estimate form.
type PatientRequest struct {
	Age               int      `json:"age"`
	Gender            string   `json:"gender"`
	Height            int      `json:"height"`
	Weight            int      `json:"weight"`
	BloodType         string   `json:"blood_type"`
	InsuranceProvider string   `json:"insurance_provider"`
	MedicalCondition  string   `json:"medical_condition"`
	Symptoms          []string `json:"symptoms"`
	AdmissionType     string   `json:"admission_type"`
	TreatmentPlan     string   `json:"treatment_plan"`
	PlannedStay       int      `json:"planned_stay"`
	RoomType          string   `json:"room_type"`
	Procedures        []string `json:"procedures"`
	Medications       []string `json:"medications"`
}

// Validate checks ranges and enumerations.
func (r *PatientRequest) Validate() error {
	if err := inRange("age", r.Age, 0, 120); err != nil {
		return err
	}
	if err := inRange("height", r.Height, 100, 250); err != nil {
		return err
	}
	if err := inRange("weight", r.Weight, 30, 200); err != nil {
		return err
	}
	if err := inRange("planned_stay", r.PlannedStay, 1, 30); err != nil {
		return err
	}
	for _, c := range []struct {
		name    string
		value   string
		allowed []string
	}{
		{"gender", r.Gender, Genders},
		{"blood_type", r.BloodType, BloodTypes},
		{"insurance_provider", r.InsuranceProvider, InsuranceProviders},
		{"medical_condition", r.MedicalCondition, MedicalConditions},
		{"admission_type", r.AdmissionType, AdmissionTypes},
		{"treatment_plan", r.TreatmentPlan, TreatmentPlans},
		{"room_type", r.RoomType, RoomTypes},
	} {
		if !slices.Contains(c.allowed, c.value) {
			return fmt.Errorf("%s: %q is not one of %v", c.name, c.value, c.allowed)
		}
	}
	for _, c := range []struct {
		name    string
		values  []string
		allowed []string
	}{
		{"symptoms", r.Symptoms, Symptoms},
		{"procedures", r.Procedures, Procedures},
		{"medications", r.Medications, Medications},
	} {
		for _, v := range c.values {
			if !slices.Contains(c.allowed, v) {
				return fmt.Errorf("%s: %q is not one of %v", c.name, v, c.allowed)
			}
		}
	}
	return nil
}

// RawRecord converts the request into the same raw shape the dataset reader
// produces. The planned stay stands in for the derived stay length.
func (r *PatientRequest) RawRecord() RawRecord {
	return RawRecord{
		Values: map[string]string{
			KeyAge:               strconv.Itoa(r.Age),
			KeyGender:            r.Gender,
			"height":             strconv.Itoa(r.Height),
			"weight":             strconv.Itoa(r.Weight),
			"blood_type":         r.BloodType,
			"insurance_provider": r.InsuranceProvider,
			KeyMedicalCondition:  r.MedicalCondition,
			"admission_type":     r.AdmissionType,
			"treatment_plan":     r.TreatmentPlan,
			KeyStayLength:        strconv.Itoa(r.PlannedStay),
			"room_type":          r.RoomType,
		},
		Sets: map[string][]string{
			KeySymptom:    slices.Clone(r.Symptoms),
			KeyProcedure:  slices.Clone(r.Procedures),
			KeyMedication: slices.Clone(r.Medications),
		},
	}
}

func inRange(name string, v, lo, hi int) error {
	if v < lo || v > hi {
		return fmt.Errorf("%s: %d outside [%d, %d]", name, v, lo, hi)
	}
	return nil
}
