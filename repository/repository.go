// Copyright (c) 2024 The DataONE Project and its Contributors
//
// Permission is hereby granted, free of charge, to any person obtaining a copy of
// this software and associated documentation files (the "Software"), to deal in
// the Software without restriction, including without limitation the rights to
// use, copy, modify, merge, publish, distribute, sublicense, and/or sell copies
// of the Software, and to permit persons to whom the Software is furnished to do
// so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in all
// copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
// SOFTWARE.

// The repository package talks to a DataONE member node's REST API: fetching
// objects and their system metadata, following obsolescence chains, and
// storing revised resource maps.
package repository

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/url"
	"time"

	"github.com/dataone/dps/auth"
	"github.com/dataone/dps/index"
	"github.com/dataone/dps/ore"
	"github.com/dataone/dps/sysmeta"
)

// Endpoints names the service URLs of one repository. Each base URL is
// expected to end in a slash.
type Endpoints struct {
	// the system metadata service ("/meta/")
	MetadataURL string
	// the object service ("/object/")
	ObjectURL string
	// the package download service
	PackageURL string
	// the identifier resolve service
	ResolveURL string
}

// Client provides access to one repository.
type Client struct {
	Endpoints Endpoints
	Auth      auth.Provider

	// the HTTP client used for all requests
	Client http.Client
}

// Creates a repository client for the given endpoints. Requests carry the
// credentials of the given authorization provider; pass nil for anonymous
// access.
func NewClient(endpoints Endpoints, provider auth.Provider) (*Client, error) {
	for _, base := range []string{endpoints.MetadataURL, endpoints.ObjectURL} {
		if _, err := url.ParseRequestURI(base); err != nil {
			return nil, &InvalidEndpointError{URL: base}
		}
	}
	if provider == nil {
		provider = auth.AnonymousProvider{}
	}
	return &Client{
		Endpoints: endpoints,
		Auth:      provider,
		Client:    index.SecureHTTPClient(60 * time.Second),
	}, nil
}

// performs a GET against the given service base, mapping 401 and 404 to
// their typed errors
func (c *Client) get(ctx context.Context, base, pid string) ([]byte, error) {
	requestURL := base + url.PathEscape(pid)
	request, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, http.NoBody)
	if err != nil {
		return nil, err
	}
	auth.Apply(c.Auth, request)

	response, err := c.Client.Do(request)
	if err != nil {
		return nil, err
	}
	defer response.Body.Close()
	switch response.StatusCode {
	case http.StatusOK:
	case http.StatusUnauthorized, http.StatusForbidden:
		return nil, &UnauthorizedError{Pid: pid}
	case http.StatusNotFound:
		return nil, &ObjectNotFoundError{Pid: pid}
	default:
		return nil, &TransportError{URL: requestURL, StatusCode: response.StatusCode}
	}
	return io.ReadAll(response.Body)
}

// SystemMetadata fetches and parses the system metadata for an object.
func (c *Client) SystemMetadata(ctx context.Context, pid string) (*sysmeta.SystemMetadata, error) {
	body, err := c.get(ctx, c.Endpoints.MetadataURL, pid)
	if err != nil {
		return nil, err
	}
	return sysmeta.Parse(body)
}

// Object fetches the bytes of an object.
func (c *Client) Object(ctx context.Context, pid string) ([]byte, error) {
	return c.get(ctx, c.Endpoints.ObjectURL, pid)
}

// ResourceMap fetches an object and parses it as an OAI-ORE resource map.
func (c *Client) ResourceMap(ctx context.Context, pid string) (*ore.GraphDocument, error) {
	body, err := c.Object(ctx, pid)
	if err != nil {
		return nil, err
	}
	return ore.ParseResourceMap(body, c.Endpoints.ResolveURL)
}

// LatestVersion follows an object's obsolescence chain forward and returns
// the identifier of the newest version reachable. A successor whose system
// metadata cannot be read (not found, or not readable with our credentials)
// ends the chain at the last readable version.
func (c *Client) LatestVersion(ctx context.Context, pid string) (string, error) {
	previous := ""
	latest := pid
	seen := map[string]bool{pid: true}
	for {
		meta, err := c.SystemMetadata(ctx, latest)
		if err != nil {
			var notFound *ObjectNotFoundError
			var unauthorized *UnauthorizedError
			if previous != "" && (errors.As(err, &notFound) || errors.As(err, &unauthorized)) {
				// the successor is not readable, so the chain ends at the
				// last version that was
				return previous, nil
			}
			return "", err
		}
		if meta.ObsoletedBy == "" || seen[meta.ObsoletedBy] {
			return latest, nil
		}
		seen[meta.ObsoletedBy] = true
		previous = latest
		latest = meta.ObsoletedBy
	}
}

// SaveResourceMap stores a revised resource map: a multipart update naming
// the identifier being replaced, the new identifier, the map document and
// its system metadata.
func (c *Client) SaveResourceMap(ctx context.Context, oldPid, newPid string,
	sysmetaDocument, mapDocument []byte, checksum string) error {
	var body bytes.Buffer
	form := multipart.NewWriter(&body)
	if err := writeSaveForm(form, oldPid, newPid, sysmetaDocument, mapDocument, checksum); err != nil {
		return err
	}

	// an object with a prior identity is updated in place of that identity;
	// a brand new one is created
	method := http.MethodPut
	requestURL := c.Endpoints.ObjectURL + url.PathEscape(oldPid)
	if oldPid == "" {
		method = http.MethodPost
		requestURL = c.Endpoints.ObjectURL
	}
	request, err := http.NewRequestWithContext(ctx, method, requestURL, &body)
	if err != nil {
		return err
	}
	request.Header.Set("Content-Type", form.FormDataContentType())
	auth.Apply(c.Auth, request)

	response, err := c.Client.Do(request)
	if err != nil {
		return err
	}
	defer response.Body.Close()
	if response.StatusCode != http.StatusOK {
		return &TransportError{URL: requestURL, StatusCode: response.StatusCode}
	}
	slog.Debug("stored resource map", "pid", newPid, "replacing", oldPid)
	return nil
}

// writes the fields and file parts of a resource map save
func writeSaveForm(form *multipart.Writer, oldPid, newPid string,
	sysmetaDocument, mapDocument []byte, checksum string) error {
	if oldPid != "" {
		if err := form.WriteField("pid", oldPid); err != nil {
			return err
		}
	}
	if err := form.WriteField("newPid", newPid); err != nil {
		return err
	}
	if err := form.WriteField("checksum", checksum); err != nil {
		return err
	}
	part, err := form.CreateFormFile("sysmeta", "sysmeta.xml")
	if err != nil {
		return err
	}
	if _, err := part.Write(sysmetaDocument); err != nil {
		return err
	}
	part, err = form.CreateFormFile("object", "resourceMap.xml")
	if err != nil {
		return err
	}
	if _, err := part.Write(mapDocument); err != nil {
		return err
	}
	return form.Close()
}

// UpdateSystemMetadata replaces the stored system metadata for an object
// without touching its bytes.
func (c *Client) UpdateSystemMetadata(ctx context.Context, meta *sysmeta.SystemMetadata) error {
	document, err := meta.Serialize()
	if err != nil {
		return err
	}
	var body bytes.Buffer
	form := multipart.NewWriter(&body)
	if err := form.WriteField("pid", meta.Identifier); err != nil {
		return err
	}
	part, err := form.CreateFormFile("sysmeta", "sysmeta.xml")
	if err != nil {
		return err
	}
	if _, err := part.Write(document); err != nil {
		return err
	}
	if err := form.Close(); err != nil {
		return err
	}

	requestURL := c.Endpoints.MetadataURL + url.PathEscape(meta.Identifier)
	request, err := http.NewRequestWithContext(ctx, http.MethodPut, requestURL, &body)
	if err != nil {
		return err
	}
	request.Header.Set("Content-Type", form.FormDataContentType())
	auth.Apply(c.Auth, request)

	response, err := c.Client.Do(request)
	if err != nil {
		return err
	}
	defer response.Body.Close()
	switch response.StatusCode {
	case http.StatusOK:
		return nil
	case http.StatusUnauthorized, http.StatusForbidden:
		return &UnauthorizedError{Pid: meta.Identifier}
	case http.StatusNotFound:
		return &ObjectNotFoundError{Pid: meta.Identifier}
	default:
		return &TransportError{URL: requestURL, StatusCode: response.StatusCode}
	}
}
