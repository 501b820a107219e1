package dataset

import (
	"fmt"
	"math"
	"math/rand"
	"time"

	"github.com/gyeh/patientcost/internal/model"
)

// SynthOptions controls Synthesize.
type SynthOptions struct {
	Rows int
	Seed int64
	// DirtyFraction of rows get a defect: a duplicate, a blank required cell
	// or an unparseable date, in rotation.
	DirtyFraction float64
}

var (
	synthConditions = []string{"Cancer", "Diabetes", "Heart Disease", "Respiratory", "Obesity", "Arthritis"}
	synthInsurers   = []string{"Aetna", "Blue Cross", "Cigna", "UnitedHealthcare", "Medicare"}
	synthMedication = []string{"Aspirin", "Ibuprofen", "Paracetamol", "Penicillin", "Lipitor", "Insulin"}
	synthResults    = []string{"Normal", "Abnormal", "Inconclusive"}
	synthAdmission  = map[string]float64{"Emergency": 3000, "Urgent": 1500, "Elective": 0}
	synthAdmOrder   = []string{"Emergency", "Urgent", "Elective"}
)

// Synthesize generates rows in the raw dataset layout whose billing amount is
// a noisy linear function of risk, stay length, age, admission type and gender.
func Synthesize(opts SynthOptions) []model.DatasetRow {
	rng := rand.New(rand.NewSource(opts.Seed))
	base := time.Date(2022, 1, 1, 0, 0, 0, 0, time.UTC)

	rows := make([]model.DatasetRow, 0, opts.Rows)
	dirtyEvery := 0
	if opts.DirtyFraction > 0 {
		dirtyEvery = int(math.Max(1, math.Round(1/opts.DirtyFraction)))
	}

	for i := 0; i < opts.Rows; i++ {
		if dirtyEvery > 0 && i > 0 && i%dirtyEvery == 0 {
			rows = append(rows, dirtyRow(rows[len(rows)-1], i/dirtyEvery))
			continue
		}

		age := int64(1 + rng.Intn(90))
		gender := model.Genders[rng.Intn(2)]
		condition := synthConditions[rng.Intn(len(synthConditions))]
		admission := synthAdmOrder[rng.Intn(len(synthAdmOrder))]
		stay := rng.Intn(30)
		admitted := base.AddDate(0, 0, rng.Intn(700))
		discharged := admitted.AddDate(0, 0, stay)

		bill := 4000 +
			6000*float64(model.RiskScores[condition]) +
			1200*float64(stay) +
			35*float64(age) +
			synthAdmission[admission] +
			rng.NormFloat64()*1500
		if gender == "Male" {
			bill += 500
		}
		bill = math.Round(bill*100) / 100
		room := int64(100 + rng.Intn(400))

		rows = append(rows, model.DatasetRow{
			Name:              fmt.Sprintf("Patient %05d", i+1),
			Age:               &age,
			Gender:            strPtr(gender),
			BloodType:         strPtr(model.BloodTypes[rng.Intn(len(model.BloodTypes))]),
			MedicalCondition:  strPtr(condition),
			DateOfAdmission:   strPtr(admitted.Format("2006-01-02")),
			Doctor:            fmt.Sprintf("Dr. %c. Smith", 'A'+rune(rng.Intn(26))),
			Hospital:          fmt.Sprintf("General Hospital %d", 1+rng.Intn(5)),
			InsuranceProvider: strPtr(synthInsurers[rng.Intn(len(synthInsurers))]),
			BillingAmount:     &bill,
			RoomNumber:        &room,
			AdmissionType:     strPtr(admission),
			DischargeDate:     strPtr(discharged.Format("2006-01-02")),
			Medication:        strPtr(synthMedication[rng.Intn(len(synthMedication))]),
			TestResults:       strPtr(synthResults[rng.Intn(len(synthResults))]),
		})
	}
	return rows
}

func dirtyRow(prev model.DatasetRow, n int) model.DatasetRow {
	row := prev
	switch n % 3 {
	case 0:
		// exact duplicate of the previous row
	case 1:
		row.Name = prev.Name + " (missing)"
		row.BloodType = nil
	case 2:
		row.Name = prev.Name + " (bad date)"
		row.DischargeDate = strPtr("not-a-date")
	}
	return row
}

func strPtr(s string) *string { return &s }
