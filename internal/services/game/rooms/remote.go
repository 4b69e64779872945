package rooms

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/louisbranch/darkwater/internal/services/rooms/domain/room"
)

const defaultRequestTimeout = 10 * time.Second

// Remote talks to a rooms service over HTTP.
type Remote struct {
	baseURL string
	client  *http.Client
}

// NewRemote returns a remote store for the rooms service at baseURL.
func NewRemote(baseURL string) *Remote {
	return &Remote{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: defaultRequestTimeout},
	}
}

// Get implements Store.
func (r *Remote) Get(ctx context.Context, code string) (room.Record, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.roomURL(code), nil)
	if err != nil {
		return room.Record{}, fmt.Errorf("build room request: %w", err)
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return room.Record{}, fmt.Errorf("get room %s: %w", code, err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		return room.Record{}, ErrNotFound
	default:
		return room.Record{}, fmt.Errorf("get room %s: unexpected status %d", code, resp.StatusCode)
	}

	var rec room.Record
	if err := json.NewDecoder(resp.Body).Decode(&rec); err != nil {
		return room.Record{}, fmt.Errorf("decode room %s: %w", code, err)
	}
	return rec, nil
}

// Put implements Store.
func (r *Remote) Put(ctx context.Context, rec room.Record) (room.Record, error) {
	body, err := json.Marshal(rec)
	if err != nil {
		return room.Record{}, fmt.Errorf("encode room %s: %w", rec.RoomCode, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.roomURL(rec.RoomCode), bytes.NewReader(body))
	if err != nil {
		return room.Record{}, fmt.Errorf("build room request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		return room.Record{}, fmt.Errorf("put room %s: %w", rec.RoomCode, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return room.Record{}, fmt.Errorf("put room %s: unexpected status %d", rec.RoomCode, resp.StatusCode)
	}

	var merged room.Record
	if err := json.NewDecoder(resp.Body).Decode(&merged); err != nil {
		return room.Record{}, fmt.Errorf("decode merged room %s: %w", rec.RoomCode, err)
	}
	return merged, nil
}

// Delete implements Store.
func (r *Remote) Delete(ctx context.Context, code string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, r.roomURL(code), nil)
	if err != nil {
		return fmt.Errorf("build room request: %w", err)
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return fmt.Errorf("delete room %s: %w", code, err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusNoContent, http.StatusOK, http.StatusNotFound:
		return nil
	default:
		return fmt.Errorf("delete room %s: unexpected status %d", code, resp.StatusCode)
	}
}

func (r *Remote) roomURL(code string) string {
	return r.baseURL + "/api/rooms/" + code
}

var _ Store = (*Remote)(nil)
