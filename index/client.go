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

package index

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/dataone/dps/auth"
)

// Solr-backed query service client (implements the QueryService interface)
type Client struct {
	// base URL of the repository's Solr query endpoint
	BaseURL string
	// credentials applied to outgoing requests
	Auth auth.Provider
	// HTTP client used for queries
	Client http.Client
}

// Creates a query service client for the Solr endpoint at the given base URL.
// Credentials come from the given provider; pass nil for anonymous access.
func NewClient(baseURL string, provider auth.Provider) (*Client, error) {
	if _, err := url.ParseRequestURI(baseURL); err != nil {
		return nil, &InvalidResponseError{
			Message: "invalid query service URL: " + baseURL,
		}
	}
	if provider == nil {
		provider = auth.AnonymousProvider{}
	}
	return &Client{
		BaseURL: baseURL,
		Auth:    provider,
		Client:  SecureHTTPClient(30 * time.Second),
	}, nil
}

func (c *Client) Query(ctx context.Context, req Request) (Results, error) {
	var results Results

	p := url.Values{}
	p.Add("q", req.Filter)
	if len(req.Fields) > 0 {
		p.Add("fl", strings.Join(req.Fields, ","))
	}
	if req.Rows > 0 {
		p.Add("rows", strconv.Itoa(req.Rows))
	}
	if req.Sort != "" {
		p.Add("sort", req.Sort)
	}
	if req.GroupField != "" {
		p.Add("group", "true")
		p.Add("group.field", req.GroupField)
		p.Add("group.limit", strconv.Itoa(req.GroupLimit))
	}
	p.Add("wt", "json")

	// base URLs may or may not carry their own query separator
	queryURL := c.BaseURL
	switch {
	case strings.HasSuffix(queryURL, "?") || strings.HasSuffix(queryURL, "&"):
	case strings.Contains(queryURL, "?"):
		queryURL += "&"
	default:
		queryURL += "?"
	}
	queryURL += p.Encode()
	slog.Debug("Index query", "url", queryURL)

	request, err := http.NewRequestWithContext(ctx, http.MethodGet, queryURL, http.NoBody)
	if err != nil {
		return results, err
	}
	auth.Apply(c.Auth, request)

	resp, err := c.Client.Do(request)
	if err != nil {
		return results, &TransportError{URL: queryURL, Message: err.Error()}
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return results, &TransportError{URL: queryURL, StatusCode: resp.StatusCode}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return results, &TransportError{URL: queryURL, Message: err.Error()}
	}
	return parseResults(body)
}

// decodes a Solr JSON response in either flat or grouped form; a response with
// no docs is an empty result, not an error
func parseResults(body []byte) (Results, error) {
	var results Results

	type docList struct {
		NumFound int      `json:"numFound"`
		Docs     []Record `json:"docs"`
	}
	type group struct {
		GroupValue string  `json:"groupValue"`
		DocList    docList `json:"doclist"`
	}
	type groupField struct {
		Groups []group `json:"groups"`
	}
	var solrResponse struct {
		Response *docList              `json:"response"`
		Grouped  map[string]groupField `json:"grouped"`
	}
	if err := json.Unmarshal(body, &solrResponse); err != nil {
		return results, &InvalidResponseError{Message: err.Error()}
	}

	results.Docs = make([]Record, 0)
	if solrResponse.Response != nil {
		results.NumFound = solrResponse.Response.NumFound
		if solrResponse.Response.Docs != nil {
			results.Docs = solrResponse.Response.Docs
		}
	}
	if solrResponse.Grouped != nil {
		results.Groups = make(map[string][]Record)
		for _, field := range solrResponse.Grouped {
			for _, g := range field.Groups {
				results.Groups[g.GroupValue] = append(results.Groups[g.GroupValue],
					g.DocList.Docs...)
			}
		}
	}
	return results, nil
}
