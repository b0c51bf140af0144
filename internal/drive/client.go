// Package drive talks to the remote object store and drains the export queue
// into it.
package drive

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const folderMimeType = "application/vnd.google-apps.folder"

// TokenSource supplies a bearer token for the remote store. Implementations
// return an empty token (not an error) when the user has no valid credentials
// and either interactive is false or the consent flow was declined.
type TokenSource interface {
	Token(ctx context.Context, interactive bool) (string, error)
}

// Folder is the remote destination folder's state.
type Folder struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Trashed bool   `json:"trashed"`
}

// ObjectStore is the remote side consumed by the uploader.
type ObjectStore interface {
	GetFolder(ctx context.Context, token, id string) (*Folder, error)
	CreateFolder(ctx context.Context, token, name string) (string, error)
	Upload(ctx context.Context, token, folderID, filename string, content []byte) (string, error)
}

// StatusError is a non-success response from the remote store.
type StatusError struct {
	StatusCode int
	Message    string
}

func (e *StatusError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("remote store: %s (HTTP %d)", e.Message, e.StatusCode)
	}
	return fmt.Sprintf("remote store: HTTP %d", e.StatusCode)
}

// AuthFailure reports whether the error means credentials are invalid or
// expired rather than a transient fault.
func (e *StatusError) AuthFailure() bool {
	return e.StatusCode == http.StatusUnauthorized || e.StatusCode == http.StatusForbidden
}

// NotFound reports whether the remote object is gone.
func (e *StatusError) NotFound() bool { return e.StatusCode == http.StatusNotFound }

// Client is an HTTP client for a Drive-style object store.
type Client struct {
	http       *http.Client
	apiBase    string
	uploadBase string
}

func NewClient(apiBase, uploadBase string) *Client {
	return &Client{
		http:       &http.Client{Timeout: 60 * time.Second},
		apiBase:    apiBase,
		uploadBase: uploadBase,
	}
}

// GetFolder looks up a folder by id, returning its existence and trashed
// state. A missing folder surfaces as a StatusError with NotFound true.
func (c *Client) GetFolder(ctx context.Context, token, id string) (*Folder, error) {
	url := fmt.Sprintf("%s/files/%s?fields=id,name,trashed", c.apiBase, id)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("get folder: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, statusError(resp)
	}
	var f Folder
	if err := json.NewDecoder(resp.Body).Decode(&f); err != nil {
		return nil, fmt.Errorf("decode folder: %w", err)
	}
	return &f, nil
}

// CreateFolder creates a destination folder and returns its id.
func (c *Client) CreateFolder(ctx context.Context, token, name string) (string, error) {
	body, err := json.Marshal(map[string]string{
		"name":     name,
		"mimeType": folderMimeType,
	})
	if err != nil {
		return "", err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiBase+"/files", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json; charset=UTF-8")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("create folder: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return "", statusError(resp)
	}
	var f Folder
	if err := json.NewDecoder(resp.Body).Decode(&f); err != nil {
		return "", fmt.Errorf("decode folder: %w", err)
	}
	return f.ID, nil
}

// Upload sends content as a multipart/related request: a JSON metadata part
// naming the file and its parent folder, then a base64-encoded media part.
// Returns the remote file id.
func (c *Client) Upload(ctx context.Context, token, folderID, filename string, content []byte) (string, error) {
	const boundary = "pocketledger-upload-boundary"

	meta, err := json.Marshal(map[string]any{
		"name":    filename,
		"parents": []string{folderID},
	})
	if err != nil {
		return "", err
	}

	var body bytes.Buffer
	fmt.Fprintf(&body, "--%s\r\n", boundary)
	body.WriteString("Content-Type: application/json; charset=UTF-8\r\n\r\n")
	body.Write(meta)
	fmt.Fprintf(&body, "\r\n--%s\r\n", boundary)
	body.WriteString("Content-Type: text/csv\r\n")
	body.WriteString("Content-Transfer-Encoding: base64\r\n\r\n")
	body.WriteString(base64.StdEncoding.EncodeToString(content))
	fmt.Fprintf(&body, "\r\n--%s--\r\n", boundary)

	url := c.uploadBase + "/files?uploadType=multipart"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, &body)
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "multipart/related; boundary="+boundary)

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("upload: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return "", statusError(resp)
	}
	var out struct {
		ID string `json:"id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decode upload response: %w", err)
	}
	return out.ID, nil
}

// statusError extracts a provider-supplied message when the body carries one.
func statusError(resp *http.Response) error {
	se := &StatusError{StatusCode: resp.StatusCode}
	data, err := io.ReadAll(io.LimitReader(resp.Body, 8<<10))
	if err == nil {
		var wrapped struct {
			Error struct {
				Message string `json:"message"`
			} `json:"error"`
		}
		if json.Unmarshal(data, &wrapped) == nil && wrapped.Error.Message != "" {
			se.Message = wrapped.Error.Message
		}
	}
	return se
}
