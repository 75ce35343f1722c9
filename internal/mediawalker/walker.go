// Package mediawalker lazily traverses a Sony imaging device's media
// storage hierarchy via the avContent service, yielding items one at
// a time without materializing the whole tree.
package mediawalker

import (
	"context"
	"encoding/json"
	"fmt"
	"path"
)

// WalkMode groups yielded items either in one flat sequence or by
// capture date, matching the `--folder-view` CLI collaborator
// contract.
type WalkMode int

const (
	ModeFlat WalkMode = iota
	ModeDate
)

// invoker is the subset of deviceproxy.Proxy the walker needs; kept
// narrow so tests can supply a fake.
type invoker interface {
	Invoke(ctx context.Context, endpoint, method string, params []interface{}) json.RawMessage
}

// Original is one download URL for an item's content.
type Original struct {
	URL         string `json:"url"`
	StillObject string `json:"stillObject,omitempty"`
}

// Item is one file yielded by the walker.
type Item struct {
	URI         string
	Title       string
	ContentKind string
	CreatedTime string // RFC3339, as reported by the device; "" if absent
	Folder      string // "" for ModeFlat, else the capture-date or directory path
	Originals   []Original
}

// MIMEType reports the content MIME type by kind, per spec: JPEG
// stills, raw stills, and movies.
func (it Item) MIMEType() string {
	switch {
	case it.ContentKind == "still":
		if len(it.Originals) > 0 && it.Originals[0].StillObject == "raw" {
			return "image/x-sony-arw"
		}

		return "image/jpeg"
	case len(it.ContentKind) >= 5 && it.ContentKind[:5] == "movie":
		return "video/mp4"
	default:
		return "application/octet-stream"
	}
}

// OriginalURL returns the first original download URL, if any.
func (it Item) OriginalURL() string {
	if len(it.Originals) == 0 {
		return ""
	}

	return it.Originals[0].URL
}

// Walker lazily enumerates every item under every source on the
// device, in the teacher's directory-walk-and-yield style: Next is
// called repeatedly until it reports no more items.
type Walker struct {
	dev  invoker
	mode WalkMode

	seeded  bool
	pending []pendingDir
	items   []Item
	idx     int
}

type pendingDir struct {
	uri, folder string
}

// New returns a Walker over dev's media hierarchy in the given mode.
func New(dev invoker, mode WalkMode) *Walker {
	return &Walker{dev: dev, mode: mode}
}

// Next returns the next item, or ok=false once the hierarchy is
// exhausted.
func (w *Walker) Next(ctx context.Context) (*Item, bool, error) {
	for {
		if w.idx < len(w.items) {
			it := w.items[w.idx]
			w.idx++

			return &it, true, nil
		}

		if !w.seeded {
			w.seeded = true

			if err := w.seedSources(ctx); err != nil {
				return nil, false, err
			}
		}

		if len(w.pending) == 0 {
			return nil, false, nil
		}

		dir := w.pending[0]
		w.pending = w.pending[1:]

		items, err := w.listContents(ctx, dir.uri)
		if err != nil {
			return nil, false, err
		}

		w.items = w.items[:0]
		w.idx = 0

		for _, f := range items {
			if f.ContentKind == "directory" {
				folder := f.Title
				if dir.folder != "" {
					folder = path.Join(dir.folder, f.Title)
				}

				w.pending = append(w.pending, pendingDir{uri: f.URI, folder: folder})

				continue
			}

			if w.mode == ModeFlat {
				f.Folder = ""
			} else {
				f.Folder = dir.folder
			}

			w.items = append(w.items, f)
		}
	}
}

// Find scans the whole hierarchy for the item whose URI's last path
// segment equals name, per the façade's media-content route.
func (w *Walker) Find(ctx context.Context, name string) (*Item, error) {
	for {
		it, ok, err := w.Next(ctx)
		if err != nil {
			return nil, err
		}

		if !ok {
			return nil, nil
		}

		if path.Base(it.URI) == name || it.URI == name {
			return it, nil
		}
	}
}

func (w *Walker) seedSources(ctx context.Context) error {
	schemesRaw := w.dev.Invoke(ctx, "avContent", "getSchemeList", nil)

	var schemesResp struct {
		Result [][]map[string]interface{} `json:"result"`
	}
	if err := json.Unmarshal(schemesRaw, &schemesResp); err != nil {
		return fmt.Errorf("mediawalker: decode getSchemeList: %w", err)
	}

	if len(schemesResp.Result) == 0 {
		return nil
	}

	for _, sch := range schemesResp.Result[0] {
		srcRaw := w.dev.Invoke(ctx, "avContent", "getSourceList", []interface{}{sch})

		var srcResp struct {
			Result [][]map[string]interface{} `json:"result"`
		}
		if err := json.Unmarshal(srcRaw, &srcResp); err != nil {
			continue
		}

		if len(srcResp.Result) == 0 {
			continue
		}

		for _, s := range srcResp.Result[0] {
			source, _ := s["source"].(string)
			if source != "" {
				w.pending = append(w.pending, pendingDir{uri: source})
			}
		}
	}

	return nil
}

// listContents pages through getContentCount/getContentList in
// batches of 100, per the original implementation's iteration.
func (w *Walker) listContents(ctx context.Context, uri string) ([]Item, error) {
	view := "flat"
	if w.mode == ModeDate {
		view = "date"
	}

	countRaw := w.dev.Invoke(ctx, "avContent", "getContentCount", []interface{}{
		map[string]interface{}{"uri": uri, "view": view},
	})

	var countResp struct {
		Result []struct {
			Count int `json:"count"`
		} `json:"result"`
	}
	if err := json.Unmarshal(countRaw, &countResp); err != nil || len(countResp.Result) == 0 {
		return nil, nil
	}

	count := countResp.Result[0].Count

	var out []Item

	for start := 0; start < count; start += 100 {
		listRaw := w.dev.Invoke(ctx, "avContent", "getContentList", []interface{}{
			map[string]interface{}{"uri": uri, "stIdx": start, "cnt": 100, "view": view},
		})

		var listResp struct {
			Result [][]rawItem `json:"result"`
		}
		if err := json.Unmarshal(listRaw, &listResp); err != nil || len(listResp.Result) == 0 {
			break
		}

		for _, ri := range listResp.Result[0] {
			out = append(out, ri.toItem())
		}
	}

	return out, nil
}

// rawItem mirrors one avContent.getContentList result entry.
type rawItem struct {
	URI         string `json:"uri"`
	Title       string `json:"title"`
	ContentKind string `json:"contentKind"`
	CreatedTime string `json:"createdTime"`
	Content     struct {
		Original []Original `json:"original"`
	} `json:"content"`
}

func (ri rawItem) toItem() Item {
	return Item{
		URI:         ri.URI,
		Title:       ri.Title,
		ContentKind: ri.ContentKind,
		CreatedTime: ri.CreatedTime,
		Originals:   ri.Content.Original,
	}
}
