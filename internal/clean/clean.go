// Package clean deduplicates raw records, drops incomplete ones and attaches
// the derived fields (stay_length, age_group, risk_score).
package clean

import (
	"errors"
	"math"
	"time"

	"github.com/rs/zerolog"

	"github.com/gyeh/patientcost/internal/model"
	"github.com/gyeh/patientcost/internal/normalize"
)

// Result is the output of Batch.
type Result struct {
	Records  []model.CleanRecord
	Report   model.CleanReport
	Duration time.Duration
}

// Batch cleans a dataset batch. Duplicates, rows missing a required column,
// rows with malformed dates and rows without a numeric target are dropped and
// counted; none of them abort the batch.
func Batch(raws []model.RawRecord, fields []model.Field, log zerolog.Logger) *Result {
	start := time.Now()
	res := &Result{Records: make([]model.CleanRecord, 0, len(raws))}
	seen := make(map[string]bool, len(raws))

	for _, raw := range raws {
		res.Report.RowsRead++

		h := string(normalize.RowHash(raw.HashFields()))
		if seen[h] {
			res.Report.Duplicates++
			continue
		}
		seen[h] = true

		if err := checkRequired(raw); err != nil {
			res.Report.MissingFields++
			log.Debug().Err(err).Int64("row", raw.Row).Msg("row dropped")
			continue
		}

		rec, err := Record(raw, fields)
		if err != nil {
			var mde *MalformedDateError
			if errors.As(err, &mde) {
				res.Report.MalformedDates++
			}
			log.Warn().Err(err).Int64("row", raw.Row).Msg("row dropped")
			continue
		}
		if !rec.HasTarget {
			res.Report.InvalidTarget++
			log.Warn().Int64("row", raw.Row).Str("value", raw.Values[model.KeyTarget]).Msg("row dropped: non-numeric target")
			continue
		}
		for _, v := range rec.Numeric {
			if model.IsMissing(v) {
				res.Report.CoercedNumeric++
			}
		}
		res.Records = append(res.Records, rec)
	}

	res.Report.RowsKept = int64(len(res.Records))
	res.Duration = time.Since(start)
	log.Info().
		Int64("rows_read", res.Report.RowsRead).
		Int64("rows_kept", res.Report.RowsKept).
		Int64("duplicates", res.Report.Duplicates).
		Int64("missing_fields", res.Report.MissingFields).
		Int64("malformed_dates", res.Report.MalformedDates).
		Int64("invalid_target", res.Report.InvalidTarget).
		Int64("coerced_numeric", res.Report.CoercedNumeric).
		Dur("duration", res.Duration).
		Msg("clean complete")
	return res
}

// Record cleans a single record against the given rule table. It is shared
// by the training batch and the inference path. A stay_length value carried
// directly (a planned stay) takes precedence over the date pair.
func Record(raw model.RawRecord, fields []model.Field) (model.CleanRecord, error) {
	rec := model.NewCleanRecord(raw.Row)

	for _, f := range fields {
		if f.Derived {
			continue
		}
		switch f.Kind {
		case model.KindNumeric:
			if v, ok := raw.Value(f.Key); ok {
				n, _ := normalize.ParseNumber(v)
				rec.Numeric[f.Key] = n
			}
		case model.KindBinary, model.KindCategorical:
			if cats := categories(raw, f.Key); len(cats) > 0 {
				rec.Categories[f.Key] = cats
			}
		}
	}

	if err := deriveFields(raw, fields, &rec); err != nil {
		return model.CleanRecord{}, err
	}

	if v, ok := raw.Value(model.KeyTarget); ok {
		if n, ok := normalize.ParseNumber(v); ok {
			rec.Target = n
			rec.HasTarget = true
		}
	}
	return rec, nil
}

func deriveFields(raw model.RawRecord, fields []model.Field, rec *model.CleanRecord) error {
	declared := func(key string) bool {
		f, ok := model.FieldByKey(fields, key)
		return ok && f.Derived
	}

	if declared(model.KeyStayLength) {
		days, ok, err := stayLength(raw)
		if err != nil {
			return err
		}
		if ok {
			rec.Numeric[model.KeyStayLength] = days
		}
	}

	if declared(model.KeyAgeGroup) {
		if age, ok := rec.Numeric[model.KeyAge]; ok {
			rec.Categories[model.KeyAgeGroup] = []string{AgeGroup(age)}
		}
	}

	if declared(model.KeyRiskScore) {
		if cond := rec.Categories[model.KeyMedicalCondition]; len(cond) > 0 {
			rec.Numeric[model.KeyRiskScore] = float64(RiskScore(cond[0]))
		}
	}
	return nil
}

func stayLength(raw model.RawRecord) (float64, bool, error) {
	if v, ok := raw.Value(model.KeyStayLength); ok {
		n, _ := normalize.ParseNumber(v)
		return n, true, nil
	}

	adm, hasAdm := raw.Value(model.KeyAdmissionDate)
	dis, hasDis := raw.Value(model.KeyDischargeDate)
	if !hasAdm && !hasDis {
		return math.NaN(), false, nil
	}
	if !hasAdm {
		return 0, false, &MalformedDateError{Row: raw.Row, Field: model.KeyAdmissionDate, Reason: "discharge date without admission date"}
	}
	if !hasDis {
		return 0, false, &MalformedDateError{Row: raw.Row, Field: model.KeyDischargeDate, Reason: "admission date without discharge date"}
	}

	admitted := normalize.ParseDate(adm)
	if admitted == nil {
		return 0, false, &MalformedDateError{Row: raw.Row, Field: model.KeyAdmissionDate, Value: adm, Reason: "unrecognized date format"}
	}
	discharged := normalize.ParseDate(dis)
	if discharged == nil {
		return 0, false, &MalformedDateError{Row: raw.Row, Field: model.KeyDischargeDate, Value: dis, Reason: "unrecognized date format"}
	}
	if discharged.Before(*admitted) {
		return 0, false, &MalformedDateError{Row: raw.Row, Field: model.KeyDischargeDate, Value: dis, Reason: "discharge precedes admission"}
	}
	return float64(normalize.DaysBetween(*admitted, *discharged)), true, nil
}

func checkRequired(raw model.RawRecord) error {
	for _, col := range model.RequiredColumns {
		if _, ok := raw.Value(col); ok {
			continue
		}
		if len(raw.Sets[col]) > 0 {
			continue
		}
		return &MissingFieldError{Row: raw.Row, Field: col}
	}
	return nil
}

func categories(raw model.RawRecord, key string) []string {
	var vals []string
	if v, ok := raw.Value(key); ok {
		vals = append(vals, v)
	}
	vals = append(vals, raw.Sets[key]...)
	return normalize.Categories(vals)
}
