// Package drive is a minimal Google Drive v3 client covering what the
// bookshelf needs: listing folders, listing the PDFs inside a folder, and
// downloading file content.
package drive

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/markb/driveshelf/internal/auth"
)

// DefaultBaseURL is the Drive v3 API root.
const DefaultBaseURL = "https://www.googleapis.com/drive/v3"

const pageSize = 100

// TokenProvider supplies a valid access token for each request.
// *auth.Manager satisfies it.
type TokenProvider interface {
	GetValidAccessToken(ctx context.Context) (string, error)
}

// File is a Drive file or folder as reported by the files.list endpoint.
type File struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	MimeType     string `json:"mimeType"`
	Size         int64  `json:"size,string,omitempty"`
	ModifiedTime string `json:"modifiedTime,omitempty"`
}

type fileList struct {
	Files         []File `json:"files"`
	NextPageToken string `json:"nextPageToken"`
}

// Client calls the Drive REST API with tokens from the provider.
type Client struct {
	tokens TokenProvider

	// BaseURL is overridable for tests.
	BaseURL string

	// HTTPClient performs the requests. Downloads stream, so it carries no
	// overall timeout; list calls are bounded per-request.
	HTTPClient *http.Client
}

// NewClient creates a Drive client.
func NewClient(tokens TokenProvider) *Client {
	return &Client{
		tokens:     tokens,
		BaseURL:    DefaultBaseURL,
		HTTPClient: &http.Client{},
	}
}

func (c *Client) get(ctx context.Context, path string, query url.Values) (*http.Response, error) {
	token, err := c.tokens.GetValidAccessToken(ctx)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+path+"?"+query.Encode(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", auth.ErrHTTPRequestFailed, err)
	}
	if resp.StatusCode != http.StatusOK {
		defer resp.Body.Close()
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("%w: drive API returned %s: %s",
			auth.ErrHTTPRequestFailed, resp.Status, string(body))
	}
	return resp, nil
}

func (c *Client) listFiles(ctx context.Context, q string) ([]File, error) {
	var all []File
	pageToken := ""
	for {
		query := url.Values{
			"q":        {q},
			"fields":   {"nextPageToken, files(id, name, mimeType, size, modifiedTime)"},
			"pageSize": {strconv.Itoa(pageSize)},
			"orderBy":  {"name"},
		}
		if pageToken != "" {
			query.Set("pageToken", pageToken)
		}

		listCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
		resp, err := c.get(listCtx, "/files", query)
		if err != nil {
			cancel()
			return nil, err
		}

		var page fileList
		err = json.NewDecoder(resp.Body).Decode(&page)
		resp.Body.Close()
		cancel()
		if err != nil {
			return nil, fmt.Errorf("%w: %v", auth.ErrInvalidResponse, err)
		}

		all = append(all, page.Files...)
		if page.NextPageToken == "" {
			return all, nil
		}
		pageToken = page.NextPageToken
	}
}

// ListFolders returns the user's non-trashed Drive folders.
func (c *Client) ListFolders(ctx context.Context) ([]File, error) {
	return c.listFiles(ctx,
		"mimeType = 'application/vnd.google-apps.folder' and trashed = false")
}

// ListFolderPDFs returns the non-trashed PDF files directly inside a folder.
func (c *Client) ListFolderPDFs(ctx context.Context, folderID string) ([]File, error) {
	q := fmt.Sprintf("'%s' in parents and mimeType = 'application/pdf' and trashed = false",
		folderID)
	return c.listFiles(ctx, q)
}
