package importer

import (
	"context"
	"encoding/json"
	"io"

	"ryotgo/models"
)

// GenericJSONAdapter re-imports the system's own export format
// (ExportAllResponse), the round-trip source. Every element already
// arrives in its ImportOrExport* shape, collections included, so this
// adapter just relabels each array entry as the matching
// ImportCompletedItem variant.
type GenericJSONAdapter struct {
	r io.Reader
}

func NewGenericJSONAdapter(r io.Reader) *GenericJSONAdapter {
	return &GenericJSONAdapter{r: r}
}

func (a *GenericJSONAdapter) Source() models.ImportSource { return models.ImportGenericJSON }

func (a *GenericJSONAdapter) Import(ctx context.Context) (models.ImportResult, error) {
	var result models.ImportResult
	var doc models.ExportAllResponse
	if err := json.NewDecoder(a.r).Decode(&doc); err != nil {
		return result, err
	}

	for i := range doc.Media {
		result.Completed = append(result.Completed, models.ImportCompletedItem{Lot: models.EntityMetadata, Metadata: &doc.Media[i]})
	}
	for i := range doc.MediaGroup {
		result.Completed = append(result.Completed, models.ImportCompletedItem{Lot: models.EntityMetadataGroup, MetadataGroup: &doc.MediaGroup[i]})
	}
	for i := range doc.People {
		result.Completed = append(result.Completed, models.ImportCompletedItem{Lot: models.EntityPerson, Person: &doc.People[i]})
	}
	for i := range doc.Measurements {
		result.Completed = append(result.Completed, models.ImportCompletedItem{Lot: models.EntityMeasurement, Measurement: &doc.Measurements[i]})
	}
	for i := range doc.Workouts {
		result.Completed = append(result.Completed, models.ImportCompletedItem{
			Lot:                models.EntityWorkout,
			ApplicationWorkout: &models.ImportOrExportApplicationWorkoutItem{Workout: doc.Workouts[i]},
		})
	}
	return result, nil
}
