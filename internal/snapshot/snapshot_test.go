package snapshot

import (
	"context"
	"encoding/json"
	"testing"
	"time"
)

// fakeDevice is a minimal invoker double driven by a queue of canned
// cameraStatus values (consumed in order on each getEvent call) plus
// a fixed set of avContent responses, mirroring mediawalker's fixture
// style.
type fakeDevice struct {
	statuses []string
	statusAt int

	schemeList  string
	sourceList  string
	count       string
	contentList string

	calls []string
}

func (f *fakeDevice) Invoke(_ context.Context, endpoint, method string, _ []interface{}) json.RawMessage {
	f.calls = append(f.calls, endpoint+"."+method)

	switch {
	case endpoint == "camera" && method == "getEvent":
		status := "IDLE"
		if f.statusAt < len(f.statuses) {
			status = f.statuses[f.statusAt]
			f.statusAt++
		} else if len(f.statuses) > 0 {
			status = f.statuses[len(f.statuses)-1]
		}

		return json.RawMessage(`{"result":[{},{"cameraStatus":"` + status + `"},{},{}]}`)
	case endpoint == "camera" && method == "setCameraFunction":
		return json.RawMessage(`{"result":[0]}`)
	case endpoint == "camera" && method == "setShootMode":
		return json.RawMessage(`{"result":[0]}`)
	case endpoint == "camera" && method == "actTakePicture":
		return json.RawMessage(`{"result":[["http://192.168.122.1:8080/postview/image.jpg"]]}`)
	case endpoint == "avContent" && method == "getSchemeList":
		return json.RawMessage(f.schemeList)
	case endpoint == "avContent" && method == "getSourceList":
		return json.RawMessage(f.sourceList)
	case endpoint == "avContent" && method == "getContentCount":
		return json.RawMessage(f.count)
	case endpoint == "avContent" && method == "getContentList":
		return json.RawMessage(f.contentList)
	case endpoint == "avContent" && method == "deleteContent":
		return json.RawMessage(`{"result":[0]}`)
	default:
		return json.RawMessage(`{"result":[0]}`)
	}
}

func TestStatusDecodesCameraStatus(t *testing.T) {
	dev := &fakeDevice{statuses: []string{"IDLE"}}

	got, err := Status(context.Background(), dev)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got != "IDLE" {
		t.Errorf("expected IDLE, got %q", got)
	}
}

func TestAwaitStateTimesOutWhenStateNeverMatches(t *testing.T) {
	dev := &fakeDevice{statuses: []string{"NotReady"}}

	err := AwaitState(context.Background(), dev, "IDLE", 2, time.Millisecond)
	if err != ErrDeviceStateTimeout {
		t.Fatalf("expected ErrDeviceStateTimeout, got %v", err)
	}
}

func TestAwaitStateSucceedsOnFirstMatch(t *testing.T) {
	dev := &fakeDevice{statuses: []string{"IDLE"}}

	if err := AwaitState(context.Background(), dev, "IDLE", 3, time.Millisecond); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestSnapPictureFromIdleReturnsPostviewURL(t *testing.T) {
	dev := &fakeDevice{statuses: []string{"IDLE", "IDLE", "IDLE"}}

	url, err := SnapPicture(context.Background(), dev)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if url != "http://192.168.122.1:8080/postview/image.jpg" {
		t.Errorf("unexpected postview url: %q", url)
	}
}

func TestSnapPictureFromContentsTransferSwitchesFunctionFirst(t *testing.T) {
	dev := &fakeDevice{statuses: []string{"ContentsTransfer", "IDLE", "IDLE", "IDLE"}}

	if _, err := SnapPicture(context.Background(), dev); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	found := false

	for _, c := range dev.calls {
		if c == "camera.setCameraFunction" {
			found = true
		}
	}

	if !found {
		t.Errorf("expected setCameraFunction to be called, calls: %v", dev.calls)
	}
}

func TestDeletePictureSelectsMostRecentlyCreatedFile(t *testing.T) {
	dev := &fakeDevice{
		statuses:   []string{"ContentsTransfer", "ContentsTransfer"},
		schemeList: `{"result":[[{"scheme":"storage"}]]}`,
		sourceList: `{"result":[[{"source":"storage:memoryCard1"}]]}`,
		count:      `{"result":[{"count":2}]}`,
		contentList: `{"result":[[
			{"uri":"storage:memoryCard1/DSC0001.JPG","title":"DSC0001","contentKind":"still","createdTime":"2026-07-29T10:00:00Z"},
			{"uri":"storage:memoryCard1/DSC0002.JPG","title":"DSC0002","contentKind":"still","createdTime":"2026-07-30T09:00:00Z"}
		]]}`,
	}

	if err := DeletePicture(context.Background(), dev); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(dev.calls) == 0 || dev.calls[len(dev.calls)-2] != "avContent.deleteContent" {
		t.Fatalf("expected deleteContent to be called near the end, calls: %v", dev.calls)
	}
}

func TestDeletePictureNoFilesIsNoop(t *testing.T) {
	dev := &fakeDevice{
		statuses:    []string{"ContentsTransfer", "ContentsTransfer"},
		schemeList:  `{"result":[[{"scheme":"storage"}]]}`,
		sourceList:  `{"result":[[{"source":"storage:memoryCard1"}]]}`,
		count:       `{"result":[{"count":0}]}`,
		contentList: `{"result":[[]]}`,
	}

	if err := DeletePicture(context.Background(), dev); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for _, c := range dev.calls {
		if c == "avContent.deleteContent" {
			t.Errorf("did not expect deleteContent to be called, calls: %v", dev.calls)
		}
	}
}
