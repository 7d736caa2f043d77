package importer

import (
	"context"
	"fmt"

	"ryotgo/models"
	"ryotgo/services/providers"
)

// isbnResolver chains catalog lookups by ISBN, matching the spec's
// goodreads-style note: "ISBN -> book id via Hardcover -> GoogleBooks ->
// Openlibrary fallback chain." Each provider is tried in order and the
// first hit wins; CSV adapters that only carry an ISBN (Goodreads,
// StoryGraph) use this instead of guessing a Source/Identifier pair.
type isbnResolver struct {
	hardcover   *providers.HardcoverAdapter
	googleBooks *providers.GoogleBooksAdapter
	openlibrary *providers.OpenlibraryAdapter
}

func newISBNResolver(hardcover *providers.HardcoverAdapter, googleBooks *providers.GoogleBooksAdapter, openlibrary *providers.OpenlibraryAdapter) *isbnResolver {
	return &isbnResolver{hardcover: hardcover, googleBooks: googleBooks, openlibrary: openlibrary}
}

// resolve returns the first provider/identifier pair that has a result
// for isbn, trying Hardcover, then GoogleBooks, then Openlibrary.
func (r *isbnResolver) resolve(ctx context.Context, isbn string) (models.MediaSource, string, error) {
	if r.hardcover != nil {
		if res, err := r.hardcover.SearchMetadata(ctx, isbn, 1, false); err == nil && len(res.Items) > 0 {
			return models.SourceHardcover, res.Items[0].Identifier, nil
		}
	}
	if r.googleBooks != nil {
		if res, err := r.googleBooks.SearchMetadata(ctx, "isbn:"+isbn, 1, false); err == nil && len(res.Items) > 0 {
			return models.SourceGoogleBooks, res.Items[0].Identifier, nil
		}
	}
	if r.openlibrary != nil {
		if res, err := r.openlibrary.SearchMetadata(ctx, isbn, 1, false); err == nil && len(res.Items) > 0 {
			return models.SourceOpenlibrary, res.Items[0].Identifier, nil
		}
	}
	return "", "", fmt.Errorf("no catalog match for isbn %s", isbn)
}
