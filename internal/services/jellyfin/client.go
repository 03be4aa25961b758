package jellyfin

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"jellysports/internal/services"
)

// itemFields are requested on single-item reads so updates post back a
// complete item.
const itemFields = "Path,ParentId,Overview,Genres,Tags,Studios,People,ProviderIds,ProductionLocations,Taglines,DateCreated,PremiereDate,SortName,OriginalTitle"

// HTTPDoer describes the HTTP client used by the Jellyfin client.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Library is a Jellyfin virtual folder.
type Library struct {
	Name      string   `json:"Name"`
	ItemID    string   `json:"ItemId"`
	Locations []string `json:"Locations"`
}

// Item is a Jellyfin item. The decoded document is kept whole so updates
// can send back every field the server returned.
type Item struct {
	ID                string `json:"Id"`
	Name              string `json:"Name"`
	Type              string `json:"Type"`
	Path              string `json:"Path"`
	SeriesID          string `json:"SeriesId"`
	ParentID          string `json:"ParentId"`
	IndexNumber       *int   `json:"IndexNumber"`
	ParentIndexNumber *int   `json:"ParentIndexNumber"`

	raw map[string]json.RawMessage
}

// UnmarshalJSON keeps the raw document next to the typed fields.
func (i *Item) UnmarshalJSON(data []byte) error {
	type plain Item
	var typed plain
	if err := json.Unmarshal(data, &typed); err != nil {
		return err
	}
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*i = Item(typed)
	i.raw = raw
	return nil
}

func (i Item) with(overrides map[string]any) map[string]any {
	doc := make(map[string]any, len(i.raw)+len(overrides))
	for k, v := range i.raw {
		doc[k] = v
	}
	for k, v := range overrides {
		doc[k] = v
	}
	return doc
}

type itemsResponse struct {
	Items []Item `json:"Items"`
}

// Client is a thin wrapper over the Jellyfin HTTP API.
type Client struct {
	baseURL string
	apiKey  string
	http    HTTPDoer
}

// NewClient builds a client for the server at baseURL.
func NewClient(baseURL, apiKey string, doer HTTPDoer) (*Client, error) {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	apiKey = strings.TrimSpace(apiKey)
	if baseURL == "" || apiKey == "" {
		return nil, services.Wrap(services.ErrConfiguration, "jellyfin", "new client", "url and api key required", nil)
	}
	if doer == nil {
		doer = http.DefaultClient
	}
	return &Client{baseURL: baseURL, apiKey: apiKey, http: doer}, nil
}

// VirtualFolders lists the configured libraries.
func (c *Client) VirtualFolders(ctx context.Context) ([]Library, error) {
	var out []Library
	if err := c.getJSON(ctx, "Library/VirtualFolders", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// MediaFolders lists top-level media folders.
func (c *Client) MediaFolders(ctx context.Context) ([]Item, error) {
	var out itemsResponse
	if err := c.getJSON(ctx, "Library/MediaFolders", nil, &out); err != nil {
		return nil, err
	}
	return out.Items, nil
}

// Items queries items. Keys of query are sent as given.
func (c *Client) Items(ctx context.Context, query url.Values) ([]Item, error) {
	var out itemsResponse
	if err := c.getJSON(ctx, "Items", query, &out); err != nil {
		return nil, err
	}
	return out.Items, nil
}

// Item reads one item with the fields an update needs.
func (c *Client) Item(ctx context.Context, id string) (Item, error) {
	items, err := c.Items(ctx, url.Values{"Ids": {id}, "Fields": {itemFields}})
	if err != nil {
		return Item{}, err
	}
	if len(items) == 0 {
		return Item{}, services.Wrap(services.ErrNotFound, "jellyfin", "get item", id, nil)
	}
	return items[0], nil
}

// Refresh asks the server to rescan an item and everything below it.
func (c *Client) Refresh(ctx context.Context, id string) error {
	endpoint := "Items/" + url.PathEscape(id) + "/Refresh"
	return c.send(ctx, endpoint, url.Values{"Recursive": {"true"}}, "", nil)
}

// UpdateItem posts item back with overrides applied.
func (c *Client) UpdateItem(ctx context.Context, item Item, overrides map[string]any) error {
	body, err := json.Marshal(item.with(overrides))
	if err != nil {
		return fmt.Errorf("encode item %s: %w", item.ID, err)
	}
	return c.send(ctx, "Items/"+url.PathEscape(item.ID), nil, "application/json", body)
}

// UploadPrimaryImage replaces the primary image of an item with a JPEG.
func (c *Client) UploadPrimaryImage(ctx context.Context, id string, jpeg []byte) error {
	body := make([]byte, base64.StdEncoding.EncodedLen(len(jpeg)))
	base64.StdEncoding.Encode(body, jpeg)
	return c.send(ctx, "Items/"+url.PathEscape(id)+"/Images/Primary", nil, "image/jpeg", body)
}

func (c *Client) getJSON(ctx context.Context, endpoint string, query url.Values, out any) error {
	resp, err := c.do(ctx, http.MethodGet, endpoint, query, "", nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s: %w", endpoint, err)
	}
	return nil
}

func (c *Client) send(ctx context.Context, endpoint string, query url.Values, contentType string, body []byte) error {
	resp, err := c.do(ctx, http.MethodPost, endpoint, query, contentType, body)
	if err != nil {
		return err
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return resp.Body.Close()
}

func (c *Client) do(ctx context.Context, method, endpoint string, query url.Values, contentType string, body []byte) (*http.Response, error) {
	target := c.baseURL + "/" + endpoint
	if len(query) > 0 {
		target += "?" + query.Encode()
	}
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return nil, fmt.Errorf("build jellyfin request: %w", err)
	}
	req.Header.Set("Authorization", fmt.Sprintf("MediaBrowser Token=%q", c.apiKey))
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, services.Wrap(services.ErrTransient, "jellyfin", method+" "+endpoint, "request failed", err)
	}
	if resp.StatusCode >= http.StatusMultipleChoices {
		resp.Body.Close()
		marker := services.ErrTransient
		if resp.StatusCode == http.StatusNotFound {
			marker = services.ErrNotFound
		}
		return nil, services.Wrap(marker, "jellyfin", method+" "+endpoint, fmt.Sprintf("status %d", resp.StatusCode), nil)
	}
	return resp, nil
}
