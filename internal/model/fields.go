package model

// FieldKind selects the encoding rule applied to a field.
type FieldKind string

const (
	// KindNumeric fields are z-score scaled with training-time statistics.
	KindNumeric FieldKind = "numeric"
	// KindBinary fields emit one column: 1 for the declared positive value, else 0.
	KindBinary FieldKind = "binary"
	// KindCategorical fields emit one dummy column per category observed in training.
	KindCategorical FieldKind = "categorical"
)

// Field is one entry of the encoding-rule table shared by training and inference.
type Field struct {
	Key      string    `json:"key" yaml:"key"`
	Kind     FieldKind `json:"kind" yaml:"kind"`
	Positive string    `json:"positive,omitempty" yaml:"positive,omitempty"` // binary only
	Negative string    `json:"negative,omitempty" yaml:"negative,omitempty"` // binary only
	Multi    bool      `json:"multi,omitempty" yaml:"multi,omitempty"`       // may carry several categories per record
	Derived  bool      `json:"derived,omitempty" yaml:"derived,omitempty"`
}

// Raw keys that are read by the cleaner but never encoded directly.
const (
	KeyAdmissionDate = "date_of_admission"
	KeyDischargeDate = "discharge_date"
	KeyTarget        = "billing_amount"
)

// Encoded field keys referenced by name in derivation code.
const (
	KeyAge              = "age"
	KeyGender           = "gender"
	KeyMedicalCondition = "medical_condition"
	KeyAgeGroup         = "age_group"
	KeyStayLength       = "stay_length"
	KeyRiskScore        = "risk_score"
	KeyMedication       = "medication"
	KeyProcedure        = "procedure"
	KeySymptom          = "symptom"
)

// AllFields lists every encodable field in canonical order. The order defines
// the column discovery order of the wide training matrix.
var AllFields = []Field{
	{Key: KeyAge, Kind: KindNumeric},
	{Key: KeyGender, Kind: KindBinary, Positive: "Male", Negative: "Female"},
	{Key: "blood_type", Kind: KindCategorical},
	{Key: KeyMedicalCondition, Kind: KindCategorical},
	{Key: "insurance_provider", Kind: KindCategorical},
	{Key: "admission_type", Kind: KindCategorical},
	{Key: KeyMedication, Kind: KindCategorical, Multi: true},
	{Key: KeyAgeGroup, Kind: KindCategorical, Derived: true},
	{Key: KeyStayLength, Kind: KindNumeric, Derived: true},
	{Key: KeyRiskScore, Kind: KindNumeric, Derived: true},
	{Key: "height", Kind: KindNumeric},
	{Key: "weight", Kind: KindNumeric},
	{Key: "treatment_plan", Kind: KindCategorical},
	{Key: "room_type", Kind: KindCategorical},
	{Key: KeySymptom, Kind: KindCategorical, Multi: true},
	{Key: KeyProcedure, Kind: KindCategorical, Multi: true},
}

// RequiredColumns are the raw dataset keys a record must carry to survive cleaning.
var RequiredColumns = []string{
	KeyAge,
	KeyGender,
	"blood_type",
	KeyMedicalCondition,
	KeyAdmissionDate,
	KeyDischargeDate,
	"insurance_provider",
	"admission_type",
	KeyMedication,
	KeyTarget,
}

// DroppedColumns are dataset columns that carry no predictive meaning.
var DroppedColumns = []string{"name", "doctor", "hospital", "room_number", "test_results"}

// FieldByKey returns the Field declared for key, or ok=false.
func FieldByKey(fields []Field, key string) (Field, bool) {
	for _, f := range fields {
		if f.Key == key {
			return f, true
		}
	}
	return Field{}, false
}

// RiskScores maps a primary diagnosis to its fixed severity proxy.
// Unmapped diagnoses score 0.
var RiskScores = map[string]int{
	"Cancer":        3,
	"Diabetes":      2,
	"Heart Disease": 2,
	"Respiratory":   1,
	"Other":         1,
}

// AgeGroupEdges are the upper-inclusive bin edges for age_group.
var AgeGroupEdges = []float64{0, 18, 35, 50, 65, 100}

// AgeGroupLabels label the bins between consecutive AgeGroupEdges.
var AgeGroupLabels = []string{"Child", "Young Adult", "Adult", "Senior", "Elder"}

// AgeGroupUnknown labels records whose age could not be parsed.
const AgeGroupUnknown = "Unknown"
