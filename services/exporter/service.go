// Package exporter implements the data export pipeline (C7): the
// inverse of services/importer, streaming a user's entire library out
// as one generic-JSON document the same generic importer adapter can
// read back in. Grounded on services/importer's Processor/Runner split
// for its paginate-and-fetch shape, adapted from a commit loop into a
// read loop.
package exporter

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	gonanoid "github.com/matoous/go-nanoid/v2"
	"golang.org/x/sync/errgroup"

	"ryotgo/internal/database"
	"ryotgo/internal/objectstorage"
	"ryotgo/models"
)

// pageSize is the export's pagination unit per spec.md §4.7: each
// top-level array is read 1000 entities at a time rather than all at
// once, so a library with hundreds of thousands of rows never needs
// its full entity set resident in memory at once.
const pageSize = 1000

// Service builds and stores per-user export documents.
type Service struct {
	metadata      *database.MetadataRepository
	metadataGroup *database.MetadataGroupRepository
	person        *database.PersonRepository
	seen          *database.SeenRepository
	measurement   *database.MeasurementRepository
	workout       *database.WorkoutRepository
	collections   *database.CollectionRepository
	reviews       *database.ReviewRepository
	store         *objectstorage.Store
}

func NewService(
	metadata *database.MetadataRepository,
	metadataGroup *database.MetadataGroupRepository,
	person *database.PersonRepository,
	seen *database.SeenRepository,
	measurement *database.MeasurementRepository,
	workout *database.WorkoutRepository,
	collections *database.CollectionRepository,
	reviews *database.ReviewRepository,
	store *objectstorage.Store,
) *Service {
	return &Service{
		metadata: metadata, metadataGroup: metadataGroup, person: person, seen: seen,
		measurement: measurement, workout: workout, collections: collections, reviews: reviews,
		store: store,
	}
}

// Export streams the whole of userID's library into a single JSON
// object and uploads it to exports/{user_id}/{nanoid}.json, returning
// the listing entry for the object it just wrote.
func (s *Service) Export(ctx context.Context, userID string) (*models.ExportEntry, error) {
	id, err := gonanoid.New()
	if err != nil {
		return nil, fmt.Errorf("generating export id: %w", err)
	}
	key := fmt.Sprintf("exports/%s/%s.json", userID, id)

	startedAt := time.Now().UTC()
	pr, pw := io.Pipe()
	counts := make(map[string]int, 5)

	group, gctx := errgroup.WithContext(ctx)
	group.Go(func() error {
		defer pw.Close()
		w := bufio.NewWriter(pw)
		if err := s.writeDocument(gctx, w, userID, startedAt, counts); err != nil {
			pw.CloseWithError(err)
			return err
		}
		return w.Flush()
	})
	group.Go(func() error {
		err := s.store.Put(gctx, key, pr, "application/json", map[string]string{
			"started_at": startedAt.Format(time.RFC3339),
		})
		if err != nil {
			pr.CloseWithError(err)
		}
		return err
	})

	if err := group.Wait(); err != nil {
		return nil, err
	}

	var exported []string
	for _, k := range []string{"media", "media_group", "people", "measurements", "workouts"} {
		if counts[k] > 0 {
			exported = append(exported, k)
		}
	}
	endedAt := time.Now().UTC()

	// The exported/ended_at headers are only knowable once the body has
	// finished streaming, so they're stamped on with a follow-up
	// self-copy (see objectstorage.Store.UpdateMetadata) rather than
	// being part of the original PutObject request.
	if err := s.store.UpdateMetadata(ctx, key, map[string]string{
		"started_at": startedAt.Format(time.RFC3339),
		"ended_at":   endedAt.Format(time.RFC3339),
		"exported":   strings.Join(exported, ","),
	}); err != nil {
		return nil, err
	}

	return &models.ExportEntry{Key: key, StartedAt: startedAt, EndedAt: endedAt, Exported: exported}, nil
}

// writeDocument streams the five top-level arrays into w in full,
// paginated pageSize at a time, recording each category's row count
// into counts for the caller to derive the exported header from.
func (s *Service) writeDocument(ctx context.Context, w *bufio.Writer, userID string, generatedOn time.Time, counts map[string]int) error {
	fmt.Fprintf(w, `{"formatVersion":"v1","generatedOn":%q,`, generatedOn.Format(time.RFC3339))

	w.WriteString(`"media":`)
	n, err := s.streamMedia(ctx, w, userID)
	if err != nil {
		return err
	}
	counts["media"] = n

	w.WriteString(`,"media_group":`)
	if n, err = s.streamMediaGroups(ctx, w, userID); err != nil {
		return err
	}
	counts["media_group"] = n

	w.WriteString(`,"people":`)
	if n, err = s.streamPeople(ctx, w, userID); err != nil {
		return err
	}
	counts["people"] = n

	w.WriteString(`,"measurements":`)
	if n, err = s.streamMeasurements(ctx, w, userID); err != nil {
		return err
	}
	counts["measurements"] = n

	w.WriteString(`,"workouts":`)
	if n, err = s.streamWorkouts(ctx, w, userID); err != nil {
		return err
	}
	counts["workouts"] = n

	_, err = w.WriteString("}")
	return err
}

// streamArray paginates through fetchIDs pageSize at a time, feeding
// each id through fetchOne, and json.Encoder.Encode-ing the result
// directly into w with manual bracket/comma bookkeeping so no
// intermediate slice of the whole array is ever built.
func streamArray[T any](ctx context.Context, w *bufio.Writer, fetchIDs func(offset int) ([]string, error), fetchOne func(id string) (T, error)) (int, error) {
	enc := json.NewEncoder(w)
	w.WriteByte('[')
	total := 0
	offset := 0
	for {
		if err := ctx.Err(); err != nil {
			return total, err
		}
		ids, err := fetchIDs(offset)
		if err != nil {
			return total, err
		}
		if len(ids) == 0 {
			break
		}
		for _, id := range ids {
			item, err := fetchOne(id)
			if err != nil {
				return total, err
			}
			if total > 0 {
				w.WriteByte(',')
			}
			if err := enc.Encode(item); err != nil {
				return total, err
			}
			total++
		}
		if len(ids) < pageSize {
			break
		}
		offset += pageSize
	}
	w.WriteByte(']')
	return total, nil
}

func (s *Service) streamMedia(ctx context.Context, w *bufio.Writer, userID string) (int, error) {
	return streamArray(ctx, w,
		func(offset int) ([]string, error) { return s.metadata.IDsForUser(ctx, userID, pageSize, offset) },
		func(id string) (models.ImportOrExportMetadataItem, error) { return s.metadataItem(ctx, userID, id) },
	)
}

func (s *Service) streamMediaGroups(ctx context.Context, w *bufio.Writer, userID string) (int, error) {
	return streamArray(ctx, w,
		func(offset int) ([]string, error) { return s.metadataGroup.IDsForUser(ctx, userID, pageSize, offset) },
		func(id string) (models.ImportOrExportMetadataGroupItem, error) { return s.metadataGroupItem(ctx, userID, id) },
	)
}

func (s *Service) streamPeople(ctx context.Context, w *bufio.Writer, userID string) (int, error) {
	return streamArray(ctx, w,
		func(offset int) ([]string, error) { return s.person.IDsForUser(ctx, userID, pageSize, offset) },
		func(id string) (models.ImportOrExportPersonItem, error) { return s.personItem(ctx, userID, id) },
	)
}

// streamMeasurements and streamWorkouts paginate directly over rows
// (measurements and workouts have no separate history sub-table to
// worry about splitting across a page boundary), so they bypass
// streamArray's id-then-fetch indirection and just re-encode each page.
func (s *Service) streamMeasurements(ctx context.Context, w *bufio.Writer, userID string) (int, error) {
	enc := json.NewEncoder(w)
	w.WriteByte('[')
	total := 0
	offset := 0
	for {
		page, err := s.measurement.ForExport(ctx, userID, pageSize, offset)
		if err != nil {
			return total, err
		}
		if len(page) == 0 {
			break
		}
		for _, m := range page {
			if total > 0 {
				w.WriteByte(',')
			}
			item := models.ImportOrExportMeasurementItem{Measurement: *m}
			if err := enc.Encode(item); err != nil {
				return total, err
			}
			total++
		}
		if len(page) < pageSize {
			break
		}
		offset += pageSize
	}
	w.WriteByte(']')
	return total, nil
}

func (s *Service) streamWorkouts(ctx context.Context, w *bufio.Writer, userID string) (int, error) {
	enc := json.NewEncoder(w)
	w.WriteByte('[')
	total := 0
	offset := 0
	for {
		page, err := s.workout.ForExport(ctx, userID, pageSize, offset)
		if err != nil {
			return total, err
		}
		if len(page) == 0 {
			break
		}
		for _, wk := range page {
			if total > 0 {
				w.WriteByte(',')
			}
			if err := enc.Encode(*wk); err != nil {
				return total, err
			}
			total++
		}
		if len(page) < pageSize {
			break
		}
		offset += pageSize
	}
	w.WriteByte(']')
	return total, nil
}

func (s *Service) metadataItem(ctx context.Context, userID, id string) (models.ImportOrExportMetadataItem, error) {
	m, err := s.metadata.Get(ctx, id)
	if err != nil {
		return models.ImportOrExportMetadataItem{}, err
	}
	item := models.ImportOrExportMetadataItem{Lot: m.Lot, Source: m.Source, Identifier: m.Identifier}

	history, err := s.seen.HistoryForMetadata(ctx, userID, id)
	if err != nil {
		return item, err
	}
	for _, sr := range history {
		item.Seen = append(item.Seen, models.ImportItemSeen{
			Progress: sr.Progress, StartedOn: sr.StartedOn, FinishedOn: sr.FinishedOn,
			ProviderWatchedOn: sr.ProviderWatchedOn,
			ShowExtra:         sr.ShowExtra, PodcastExtra: sr.PodcastExtra,
			MangaExtra: sr.MangaExtra, AnimeExtra: sr.AnimeExtra,
		})
	}

	reviews, err := s.userReviews(ctx, userID, id, models.EntityMetadata)
	if err != nil {
		return item, err
	}
	item.Reviews = reviews

	cols, err := s.collections.NamesForEntity(ctx, userID, id, models.EntityMetadata)
	if err != nil {
		return item, err
	}
	item.Collections = cols
	return item, nil
}

func (s *Service) metadataGroupItem(ctx context.Context, userID, id string) (models.ImportOrExportMetadataGroupItem, error) {
	g, err := s.metadataGroup.Get(ctx, id)
	if err != nil {
		return models.ImportOrExportMetadataGroupItem{}, err
	}
	item := models.ImportOrExportMetadataGroupItem{Lot: g.Lot, Source: g.Source, Identifier: g.Identifier, Title: g.Title}

	reviews, err := s.userReviews(ctx, userID, id, models.EntityMetadataGroup)
	if err != nil {
		return item, err
	}
	item.Reviews = reviews

	cols, err := s.collections.NamesForEntity(ctx, userID, id, models.EntityMetadataGroup)
	if err != nil {
		return item, err
	}
	item.Collections = cols
	return item, nil
}

func (s *Service) personItem(ctx context.Context, userID, id string) (models.ImportOrExportPersonItem, error) {
	p, err := s.person.Get(ctx, id)
	if err != nil {
		return models.ImportOrExportPersonItem{}, err
	}
	item := models.ImportOrExportPersonItem{Source: p.Source, Identifier: p.Identifier, Name: p.Name}

	reviews, err := s.userReviews(ctx, userID, id, models.EntityPerson)
	if err != nil {
		return item, err
	}
	item.Reviews = reviews

	cols, err := s.collections.NamesForEntity(ctx, userID, id, models.EntityPerson)
	if err != nil {
		return item, err
	}
	item.Collections = cols
	return item, nil
}

// userReviews filters ReviewRepository.ForEntity (which returns every
// reviewer's rows) down to the exporting user's own reviews.
func (s *Service) userReviews(ctx context.Context, userID, entityID string, lot models.EntityLot) ([]models.ImportItemReview, error) {
	all, err := s.reviews.ForEntity(ctx, entityID, lot)
	if err != nil {
		return nil, err
	}
	var out []models.ImportItemReview
	for _, rv := range all {
		if rv.UserID != userID {
			continue
		}
		var rating *string
		if rv.Rating != nil {
			str := rv.Rating.String()
			rating = &str
		}
		out = append(out, models.ImportItemReview{
			Rating: rating, Text: rv.TextContent, PostedOn: rv.CreatedOn,
			ShowExtra: rv.ShowExtra, PodcastExtra: rv.PodcastExtra,
		})
	}
	return out, nil
}

// ListExports enumerates userID's previously generated export objects,
// reading each one's started_at/ended_at/exported back from the
// x-amz-meta-* headers Export wrote rather than from a database table.
func (s *Service) ListExports(ctx context.Context, userID string) ([]models.ExportEntry, error) {
	objs, err := s.store.List(ctx, fmt.Sprintf("exports/%s/", userID))
	if err != nil {
		return nil, err
	}
	out := make([]models.ExportEntry, 0, len(objs))
	for _, obj := range objs {
		entry := models.ExportEntry{Key: obj.Key, SizeBytes: obj.Size}
		if v, ok := obj.Metadata["started_at"]; ok {
			entry.StartedAt, _ = time.Parse(time.RFC3339, v)
		}
		if v, ok := obj.Metadata["ended_at"]; ok {
			entry.EndedAt, _ = time.Parse(time.RFC3339, v)
		}
		if v, ok := obj.Metadata["exported"]; ok && v != "" {
			entry.Exported = strings.Split(v, ",")
		}
		out = append(out, entry)
	}
	return out, nil
}
