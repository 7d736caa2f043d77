package importer

import (
	"context"
	"encoding/xml"
	"io"
	"strconv"

	"ryotgo/models"
)

// MyAnimeListAdapter parses the classic MAL export XML (one
// <anime>/<manga> element per list entry, the same format MAL's own
// "export list" feature produces). No third-party XML library appears
// anywhere in the retrieved corpus, so this leans on encoding/xml
// directly; see the grounding ledger for the stdlib justification.
type MyAnimeListAdapter struct {
	r io.Reader
}

func NewMyAnimeListAdapter(r io.Reader) *MyAnimeListAdapter {
	return &MyAnimeListAdapter{r: r}
}

func (a *MyAnimeListAdapter) Source() models.ImportSource { return models.ImportMyAnimeList }

type malXMLEntry struct {
	XMLName    xml.Name `xml:"-"`
	SeriesID   string   `xml:"series_animedb_id"`
	MangaDBID  string   `xml:"series_mangadb_id"`
	Status     string   `xml:"my_status"`
	Score      int      `xml:"my_score"`
	FinishDate string   `xml:"my_finish_date"`
	NumRead    int      `xml:"my_read_chapters"`
	NumWatched int      `xml:"my_watched_episodes"`
}

type malXMLDocument struct {
	XMLName xml.Name      `xml:"myanimelist"`
	Anime   []malXMLEntry `xml:"anime"`
	Manga   []malXMLEntry `xml:"manga"`
}

func (a *MyAnimeListAdapter) Import(ctx context.Context) (models.ImportResult, error) {
	var result models.ImportResult
	var doc malXMLDocument
	if err := xml.NewDecoder(a.r).Decode(&doc); err != nil {
		return result, err
	}

	for _, e := range doc.Anime {
		a.appendEntry(&result, models.LotAnime, e.SeriesID, e)
	}
	for _, e := range doc.Manga {
		a.appendEntry(&result, models.LotManga, e.MangaDBID, e)
	}
	return result, nil
}

func (a *MyAnimeListAdapter) appendEntry(result *models.ImportResult, lot models.MediaLot, id string, e malXMLEntry) {
	if id == "" || id == "0" {
		appendFailure(result, id, entityLot(models.EntityMetadata), models.StepInputTransformation, errString("myanimelist entry has no series id"))
		return
	}
	item := models.ImportOrExportMetadataItem{
		Lot: lot, Source: models.SourceMAL, Identifier: id,
		Collections: []string{malShelf(e.Status)},
	}
	progress := 0.0
	if lot == models.LotAnime && e.NumWatched > 0 {
		progress = 100
	} else if lot == models.LotManga && e.NumRead > 0 {
		progress = 100
	}
	if e.Status == "Completed" {
		seen := models.ImportItemSeen{Progress: 100, FinishedOn: parseCSVDate(e.FinishDate)}
		item.Seen = append(item.Seen, seen)
	} else if progress > 0 {
		item.Seen = append(item.Seen, models.ImportItemSeen{Progress: progress})
	}
	if e.Score > 0 {
		r := strconv.Itoa(e.Score * 10)
		item.Reviews = append(item.Reviews, models.ImportItemReview{Rating: &r})
	}
	result.Completed = append(result.Completed, models.ImportCompletedItem{Lot: models.EntityMetadata, Metadata: &item})
}

func malShelf(status string) string {
	switch status {
	case "Completed":
		return "Completed"
	case "Watching", "Reading":
		return "In Progress"
	case "Plan to Watch", "Plan to Read":
		return "Watchlist"
	case "On-Hold":
		return "Monitoring"
	default:
		return status
	}
}
