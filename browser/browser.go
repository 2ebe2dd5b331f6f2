// Package browser abstracts the headless-browser collaborator behind
// narrow interfaces so the harvester can be exercised without Chrome.
package browser

import "context"

// Page is one isolated tab context. A page is opened per harvested URL
// and closed on both success and failure paths.
type Page interface {
	// Navigate loads url and waits for the document to be ready,
	// bounded by the implementation's configured timeout.
	Navigate(ctx context.Context, url string) error

	// Evaluate runs a script against the live document and unmarshals
	// the JSON-serializable result into out. A nil out discards it.
	Evaluate(ctx context.Context, script string, out any) error

	// QueryCount returns the number of elements matching selector.
	QueryCount(ctx context.Context, selector string) (int, error)

	// ScrollTo scrolls the document to a vertical position expressed as
	// a fraction of the full scroll height (0 top, 1 bottom).
	ScrollTo(ctx context.Context, fraction float64) error

	// HTML returns the rendered document markup.
	HTML(ctx context.Context) (string, error)

	// Close releases the tab context.
	Close()
}

// Session owns the shared browser process. One session is shared
// serially across all pages in a batch and released once at the end.
type Session interface {
	NewPage() (Page, error)
	Close()
}
