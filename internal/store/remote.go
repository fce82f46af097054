package store

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sony/gobreaker"

	"github.com/i474232898/weather-map-sync/internal/common"
)

// RemoteStore keeps favorites on the companion weather service
// (GET/POST /favorites, DELETE /favorites?id=).
type RemoteStore struct {
	baseURL string
	httpCfg common.HTTPClientConfig
	circuit *gobreaker.CircuitBreaker
}

func NewRemoteStore(client *http.Client, baseURL string) *RemoteStore {
	return &RemoteStore{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpCfg: common.HTTPClientConfig{
			Client: client,
			Backoff: common.BackoffConfig{
				MaxRetries:      2,
				InitialInterval: 200 * time.Millisecond,
				MaxInterval:     2 * time.Second,
			},
		},
		circuit: common.NewBreaker("favorites"),
	}
}

// remoteFavorite accepts numeric or string ids.
type remoteFavorite struct {
	ID               remoteID `json:"id"`
	PlaceName        string   `json:"placeName"`
	PlaceDescription string   `json:"placeDescription"`
}

type remoteID string

func (id *remoteID) UnmarshalJSON(b []byte) error {
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*id = remoteID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("favorite id: %w", err)
	}
	*id = remoteID(n.String())
	return nil
}

func (f remoteFavorite) favorite() Favorite {
	return Favorite{ID: string(f.ID), PlaceName: f.PlaceName, PlaceDescription: f.PlaceDescription}
}

func (s *RemoteStore) List(ctx context.Context) ([]Favorite, error) {
	resp, err := common.DoRequestWithResilience(ctx, s.httpCfg, s.circuit, func() (*http.Request, error) {
		return http.NewRequest(http.MethodGet, s.baseURL+"/favorites", nil)
	})
	if err != nil {
		return nil, fmt.Errorf("list favorites: %w", err)
	}
	defer resp.Body.Close()

	var payload []remoteFavorite
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode favorites: %w", err)
	}
	out := make([]Favorite, 0, len(payload))
	for _, f := range payload {
		out = append(out, f.favorite())
	}
	return out, nil
}

// Get scans the list; the service has no single-favorite endpoint.
func (s *RemoteStore) Get(ctx context.Context, id string) (Favorite, error) {
	all, err := s.List(ctx)
	if err != nil {
		return Favorite{}, err
	}
	for _, f := range all {
		if f.ID == id {
			return f, nil
		}
	}
	return Favorite{}, ErrNotFound
}

// Create posts f. The service assigns the id; when it does not echo the
// created favorite the returned value has an empty id.
func (s *RemoteStore) Create(ctx context.Context, f Favorite) (Favorite, error) {
	f = NewFavorite(f.PlaceName, f.PlaceDescription)
	body, err := json.Marshal(map[string]string{
		"placeName":        f.PlaceName,
		"placeDescription": f.PlaceDescription,
	})
	if err != nil {
		return Favorite{}, err
	}

	resp, err := common.DoRequestWithResilience(ctx, s.httpCfg, s.circuit, func() (*http.Request, error) {
		req, err := http.NewRequest(http.MethodPost, s.baseURL+"/favorites", bytes.NewReader(body))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")
		return req, nil
	})
	if err != nil {
		return Favorite{}, fmt.Errorf("create favorite: %w", err)
	}
	defer resp.Body.Close()

	var created remoteFavorite
	if err := json.NewDecoder(resp.Body).Decode(&created); err == nil && created.ID != "" {
		return created.favorite(), nil
	}
	return f, nil
}

func (s *RemoteStore) Delete(ctx context.Context, id string) error {
	values := url.Values{}
	values.Set("id", id)

	resp, err := common.DoRequestWithResilience(ctx, s.httpCfg, s.circuit, func() (*http.Request, error) {
		return http.NewRequest(http.MethodDelete, s.baseURL+"/favorites?"+values.Encode(), nil)
	})
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("delete favorite: %w", err)
	}
	resp.Body.Close()
	return nil
}

func (s *RemoteStore) Close() error {
	return nil
}
