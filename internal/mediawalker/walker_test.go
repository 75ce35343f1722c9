package mediawalker

import (
	"context"
	"encoding/json"
	"testing"
)

type fakeDevice struct {
	responses map[string]string
}

func (f *fakeDevice) Invoke(_ context.Context, endpoint, method string, params []interface{}) json.RawMessage {
	key := endpoint + "." + method

	if params != nil {
		if m, ok := params[0].(map[string]interface{}); ok {
			if uri, ok := m["uri"].(string); ok {
				key += ":" + uri
			}
		}
	}

	if resp, ok := f.responses[key]; ok {
		return json.RawMessage(resp)
	}

	return json.RawMessage(`{"result":[[]]}`)
}

func newFixtureDevice() *fakeDevice {
	return &fakeDevice{responses: map[string]string{
		"avContent.getSchemeList":     `{"result":[[{"scheme":"storage"}]]}`,
		"avContent.getSourceList":     `{"result":[[{"source":"storage:memoryCard1"}]]}`,
		"avContent.getContentCount:storage:memoryCard1": `{"result":[{"count":2}]}`,
		"avContent.getContentList:storage:memoryCard1": `{"result":[[
			{"uri":"storage:memoryCard1/100MSDCF","title":"100MSDCF","contentKind":"directory"},
			{"uri":"storage:memoryCard1/DSC0001.JPG","title":"DSC0001.JPG","contentKind":"still",
			 "content":{"original":[{"url":"http://camera/DSC0001.JPG","stillObject":"jpeg"}]}}
		]]}`,
		"avContent.getContentCount:storage:memoryCard1/100MSDCF": `{"result":[{"count":1}]}`,
		"avContent.getContentList:storage:memoryCard1/100MSDCF": `{"result":[[
			{"uri":"storage:memoryCard1/100MSDCF/DSC0002.JPG","title":"DSC0002.JPG","contentKind":"still",
			 "content":{"original":[{"url":"http://camera/DSC0002.JPG","stillObject":"jpeg"}]}}
		]]}`,
	}}
}

func TestWalkerFlatYieldsEveryLeaf(t *testing.T) {
	w := New(newFixtureDevice(), ModeFlat)

	var uris []string

	for {
		it, ok, err := w.Next(context.Background())
		if err != nil {
			t.Fatalf("Next: %v", err)
		}

		if !ok {
			break
		}

		uris = append(uris, it.URI)

		if it.Folder != "" {
			t.Errorf("ModeFlat should leave Folder empty, got %q for %s", it.Folder, it.URI)
		}
	}

	if len(uris) != 2 {
		t.Fatalf("expected 2 leaf items, got %d: %v", len(uris), uris)
	}
}

func TestWalkerFindMatchesLastPathSegment(t *testing.T) {
	w := New(newFixtureDevice(), ModeFlat)

	it, err := w.Find(context.Background(), "DSC0002.JPG")
	if err != nil {
		t.Fatalf("Find: %v", err)
	}

	if it == nil {
		t.Fatal("expected a match")
	}

	if it.MIMEType() != "image/jpeg" {
		t.Errorf("expected image/jpeg, got %s", it.MIMEType())
	}

	if it.OriginalURL() != "http://camera/DSC0002.JPG" {
		t.Errorf("unexpected original URL: %s", it.OriginalURL())
	}
}

func TestWalkerFindNoMatchReturnsNil(t *testing.T) {
	w := New(newFixtureDevice(), ModeFlat)

	it, err := w.Find(context.Background(), "NOPE.JPG")
	if err != nil {
		t.Fatalf("Find: %v", err)
	}

	if it != nil {
		t.Errorf("expected no match, got %+v", it)
	}
}

func TestWalkerDateModeGroupsByFolder(t *testing.T) {
	w := New(newFixtureDevice(), ModeDate)

	var gotFolder bool

	for {
		it, ok, err := w.Next(context.Background())
		if err != nil {
			t.Fatalf("Next: %v", err)
		}

		if !ok {
			break
		}

		if it.Folder == "100MSDCF" {
			gotFolder = true
		}
	}

	if !gotFolder {
		t.Error("expected nested item's Folder to carry the parent directory title")
	}
}
