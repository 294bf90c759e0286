// Package graph is a thin typed client for the remote drive API that
// stores documents, spreadsheets and presentations. The coordinator never
// touches it; only the HTTP CRUD handlers do.
package graph

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"golang.org/x/oauth2/clientcredentials"
)

const defaultBaseURL = "https://graph.microsoft.com/v1.0"

// Client talks to the drive API with an app-only OAuth2 token source.
type Client struct {
	base  string
	httpc *http.Client
}

// New builds a client authenticating via the OAuth2 client-credentials
// flow against the given tenant.
func New(tenantID, clientID, clientSecret, baseURL string) *Client {
	cc := clientcredentials.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		TokenURL:     fmt.Sprintf("https://login.microsoftonline.com/%s/oauth2/v2.0/token", tenantID),
		Scopes:       []string{"https://graph.microsoft.com/.default"},
	}
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &Client{base: baseURL, httpc: cc.Client(context.Background())}
}

// NewWithHTTPClient skips token handling; used by tests against a fake
// drive server.
func NewWithHTTPClient(baseURL string, httpc *http.Client) *Client {
	return &Client{base: baseURL, httpc: httpc}
}

// Me fetches the profile of the acting account.
func (c *Client) Me(ctx context.Context) (*Profile, error) {
	var p Profile
	err := c.getJSON(ctx, "/me?$select=displayName,mail,userPrincipalName", &p)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// Search lists drive items matching the given term (e.g. ".docx").
func (c *Client) Search(ctx context.Context, term string) ([]DriveItem, error) {
	path := fmt.Sprintf("/me/drive/root/search(q='%s')", url.PathEscape(term))
	var list itemList
	if err := c.getJSON(ctx, path, &list); err != nil {
		return nil, err
	}
	return list.Value, nil
}

// Item fetches metadata of a single drive item.
func (c *Client) Item(ctx context.Context, id string) (*DriveItem, error) {
	var item DriveItem
	if err := c.getJSON(ctx, "/me/drive/items/"+url.PathEscape(id), &item); err != nil {
		return nil, err
	}
	return &item, nil
}

// Content downloads the raw content of a drive item.
func (c *Client) Content(ctx context.Context, id string) ([]byte, error) {
	resp, err := c.do(ctx, http.MethodGet, "/me/drive/items/"+url.PathEscape(id)+"/content", nil, "")
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	return io.ReadAll(resp.Body)
}

// UploadContent replaces the content of a drive item.
func (c *Client) UploadContent(ctx context.Context, id string, content []byte) error {
	resp, err := c.do(ctx, http.MethodPut, "/me/drive/items/"+url.PathEscape(id)+"/content", bytes.NewReader(content), "application/octet-stream")
	if err != nil {
		return err
	}
	resp.Body.Close()
	return nil
}

// Create makes a new empty file in the drive root.
func (c *Client) Create(ctx context.Context, name string) (*DriveItem, error) {
	body, err := json.Marshal(map[string]any{
		"name": name,
		"file": map[string]any{},
	})
	if err != nil {
		return nil, err
	}
	resp, err := c.do(ctx, http.MethodPost, "/me/drive/root/children", bytes.NewReader(body), "application/json")
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	var item DriveItem
	if err := json.NewDecoder(resp.Body).Decode(&item); err != nil {
		return nil, fmt.Errorf("decode created item: %w", err)
	}
	return &item, nil
}

// Delete removes a drive item.
func (c *Client) Delete(ctx context.Context, id string) error {
	resp, err := c.do(ctx, http.MethodDelete, "/me/drive/items/"+url.PathEscape(id), nil, "")
	if err != nil {
		return err
	}
	resp.Body.Close()
	return nil
}

func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	resp, err := c.do(ctx, http.MethodGet, path, nil, "")
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}

func (c *Client) do(ctx context.Context, method, path string, body io.Reader, contentType string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.base+path, body)
	if err != nil {
		return nil, err
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		defer resp.Body.Close()
		return nil, decodeAPIError(resp)
	}
	return resp, nil
}
