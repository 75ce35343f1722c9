// Package snapshot orchestrates the non-core still-capture utilities:
// snapping a picture, awaiting the device's state machine, and
// deleting the most recent file. Downloading is left to the CLI
// commands; StoreMode only names their choice.
package snapshot

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/sonyimg/gateway/internal/mediawalker"
)

// invoker is the subset of deviceproxy.Proxy the orchestrator needs;
// kept narrow so tests can supply a fake, mirroring mediawalker's
// invoker interface.
type invoker interface {
	Invoke(ctx context.Context, endpoint, method string, params []interface{}) json.RawMessage
}

// ErrDeviceStateTimeout is the one distinguished failure the
// orchestrator must handle: the device never reached the awaited
// state within the allotted attempts.
var ErrDeviceStateTimeout = errors.New("snapshot: device did not reach expected state")

// StoreMode selects what the CLI utilities persist locally.
type StoreMode int

const (
	StoreNone StoreMode = iota
	StorePostview
	StoreOriginal
)

// ParseStoreMode parses the `--store-mode` flag value.
func ParseStoreMode(s string) (StoreMode, error) {
	switch s {
	case "none", "":
		return StoreNone, nil
	case "postview":
		return StorePostview, nil
	case "original":
		return StoreOriginal, nil
	default:
		return StoreNone, fmt.Errorf("snapshot: unknown store mode %q", s)
	}
}

const (
	defaultPollTries = 10
	defaultPollSleep = time.Second
)

// Status queries camera.getEvent and returns the cameraStatus field.
func Status(ctx context.Context, p invoker) (string, error) {
	raw := p.Invoke(ctx, "camera", "getEvent", []interface{}{false})

	var resp struct {
		Result []json.RawMessage `json:"result"`
		Error  []interface{}     `json:"error"`
	}

	if err := json.Unmarshal(raw, &resp); err != nil {
		return "", fmt.Errorf("snapshot: decode getEvent: %w", err)
	}

	if len(resp.Error) > 0 {
		return "", fmt.Errorf("snapshot: getEvent failed: %v", resp.Error)
	}

	if len(resp.Result) < 2 {
		return "", fmt.Errorf("snapshot: unexpected getEvent response")
	}

	var status struct {
		CameraStatus string `json:"cameraStatus"`
	}

	if err := json.Unmarshal(resp.Result[1], &status); err != nil {
		return "", fmt.Errorf("snapshot: decode cameraStatus: %w", err)
	}

	return status.CameraStatus, nil
}

// AwaitState polls Status up to tries times (sleeping sleep between
// attempts, defaulting to 10 tries / 1s) until it matches state, or
// returns ErrDeviceStateTimeout.
func AwaitState(ctx context.Context, p invoker, state string, tries int, sleep time.Duration) error {
	if tries <= 0 {
		tries = defaultPollTries
	}

	if sleep <= 0 {
		sleep = defaultPollSleep
	}

	for i := 0; i < tries; i++ {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		got, err := Status(ctx, p)
		if err == nil && got == state {
			return nil
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(sleep):
		}
	}

	return ErrDeviceStateTimeout
}

// SnapPicture drives the camera through the Remote Shooting state
// machine and takes one still, returning its postview URL.
func SnapPicture(ctx context.Context, p invoker) (string, error) {
	status, err := Status(ctx, p)
	if err != nil {
		return "", err
	}

	if status == "ContentsTransfer" {
		p.Invoke(ctx, "camera", "setCameraFunction", []interface{}{"Remote Shooting"})

		if err := AwaitState(ctx, p, "IDLE", 0, 0); err != nil {
			return "", err
		}
	}

	p.Invoke(ctx, "camera", "setShootMode", []interface{}{"still"})

	if err := AwaitState(ctx, p, "IDLE", 0, 0); err != nil {
		return "", err
	}

	raw := p.Invoke(ctx, "camera", "actTakePicture", nil)

	if err := AwaitState(ctx, p, "IDLE", 0, 0); err != nil {
		return "", err
	}

	var resp struct {
		Result [][]string `json:"result"`
	}

	if err := json.Unmarshal(raw, &resp); err != nil {
		return "", fmt.Errorf("snapshot: decode actTakePicture: %w", err)
	}

	if len(resp.Result) == 0 || len(resp.Result[0]) == 0 {
		return "", fmt.Errorf("snapshot: no postview URL returned")
	}

	return resp.Result[0][0], nil
}

// DeletePicture switches to Contents Transfer mode, finds the most
// recently created file on the device, and deletes it — the postview
// URL carries no file identity, so the most recent file stands in for
// the one just captured.
func DeletePicture(ctx context.Context, p invoker) error {
	status, err := Status(ctx, p)
	if err != nil {
		return err
	}

	if status != "ContentsTransfer" {
		p.Invoke(ctx, "camera", "setCameraFunction", []interface{}{"Contents Transfer"})

		if err := AwaitState(ctx, p, "ContentsTransfer", 0, 0); err != nil {
			return err
		}
	}

	walker := mediawalker.New(p, mediawalker.ModeFlat)

	var (
		latest     *mediawalker.Item
		latestTime time.Time
	)

	for {
		item, ok, err := walker.Next(ctx)
		if err != nil {
			return err
		}

		if !ok {
			break
		}

		created, err := time.Parse(time.RFC3339, item.CreatedTime)
		if err != nil {
			continue
		}

		if latest == nil || created.After(latestTime) {
			itemCopy := *item
			latest = &itemCopy
			latestTime = created
		}
	}

	if latest != nil {
		p.Invoke(ctx, "avContent", "deleteContent", []interface{}{
			map[string]interface{}{"uri": []string{latest.URI}},
		})

		if err := AwaitState(ctx, p, "ContentsTransfer", 0, 0); err != nil {
			return err
		}
	}

	if status != "ContentsTransfer" {
		p.Invoke(ctx, "camera", "setCameraFunction", []interface{}{"Remote Shooting"})

		return AwaitState(ctx, p, "IDLE", 0, 0)
	}

	return nil
}
