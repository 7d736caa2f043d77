package importer

import (
	"context"
	"io"

	"ryotgo/models"
)

// OpenScaleAdapter parses an Open Scale Android app CSV export (one row
// per weigh-in: date, weight, and a handful of optional body-composition
// columns) into UserMeasurement rows.
type OpenScaleAdapter struct {
	r io.Reader
}

func NewOpenScaleAdapter(r io.Reader) *OpenScaleAdapter {
	return &OpenScaleAdapter{r: r}
}

func (a *OpenScaleAdapter) Source() models.ImportSource { return models.ImportOpenScale }

// openScaleStatColumns maps an Open Scale CSV column to the stat name
// stored on UserMeasurement.
var openScaleStatColumns = map[string]string{
	"weight":      "weight",
	"fat":         "body_fat",
	"water":       "water",
	"muscle":      "muscle",
	"bone":        "bone_mass",
	"waist":       "waist",
	"hip":         "hip",
	"chest":       "chest",
	"visceral_fat": "visceral_fat",
}

func (a *OpenScaleAdapter) Import(ctx context.Context) (models.ImportResult, error) {
	var result models.ImportResult
	rows, err := readCSVRows(a.r)
	if err != nil {
		return result, err
	}
	for _, row := range rows {
		ts := parseCSVDate(row["date"])
		if ts == nil {
			appendFailure(&result, row["date"], entityLot(models.EntityMeasurement), models.StepInputTransformation, errString("open scale row has no parseable date"))
			continue
		}
		m := models.UserMeasurement{Timestamp: *ts, Comment: row["comment"]}
		for column, statName := range openScaleStatColumns {
			if v, ok := row[column]; ok && v != "" && v != "0.0" {
				m.Stats = append(m.Stats, models.UserMeasurementStat{Name: statName, Value: v})
			}
		}
		if len(m.Stats) == 0 {
			continue
		}
		result.Completed = append(result.Completed, models.ImportCompletedItem{
			Lot:         models.EntityMeasurement,
			Measurement: &models.ImportOrExportMeasurementItem{Measurement: m},
		})
	}
	return result, nil
}
