// Copyright 2019 Google Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package api implements a client for the paginated Google Genomics
// reads search API.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/googleapi"
)

const (
	defaultEndpoint = "https://genomics.googleapis.com"

	// Scope is the OAuth2 scope required to search reads.
	Scope = "https://www.googleapis.com/auth/genomics.readonly"
)

// Client performs authenticated search requests against the remote
// reads API, one page at a time.  The HTTP client passed to NewClient
// carries whatever credentials the caller has established; Client adds
// none of its own.  Must be created with one of the New*Client
// functions.
type Client struct {
	hc       *http.Client
	endpoint string
}

// NewClient returns a Client that issues requests using hc against the
// production API endpoint.
func NewClient(hc *http.Client) *Client {
	return &Client{hc: hc, endpoint: defaultEndpoint}
}

// NewDefaultClient returns a Client authenticated with the application
// default credentials, requesting read-only genomics scope.
func NewDefaultClient(ctx context.Context) (*Client, error) {
	hc, err := google.DefaultClient(ctx, Scope)
	if err != nil {
		return nil, fmt.Errorf("creating default credentials client: %v", err)
	}
	return NewClient(hc), nil
}

// NewClientFromBearerToken returns a Client that authenticates every
// request with the provided OAuth2 bearer token.
func NewClientFromBearerToken(ctx context.Context, token string) *Client {
	source := oauth2.StaticTokenSource(&oauth2.Token{
		TokenType:   "Bearer",
		AccessToken: token,
	})
	return NewClient(oauth2.NewClient(ctx, source))
}

// SetEndpoint overrides the API endpoint, e.g. to target a local
// development server.  The endpoint must not have a trailing slash.
func (c *Client) SetEndpoint(endpoint string) {
	c.endpoint = endpoint
}

// SearchReads fetches a single page of reads described by req.  A
// non-empty fields mask restricts which record attributes the server
// returns; when paging, it must retain nextPageToken or the result set
// will be silently truncated to one page.
func (c *Client) SearchReads(ctx context.Context, req *SearchReadsRequest, fields string) (*SearchReadsResponse, error) {
	var resp SearchReadsResponse
	if err := c.searchPage(ctx, "reads", req, fields, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// SearchReadsPage fetches one page of reads from a read group set that
// overlap the 0-based half-open range [start, end) on the named
// reference.  It returns the page's records and the continuation token
// for the next page; an empty token signals the end of the result set.
func (c *Client) SearchReadsPage(ctx context.Context, readGroupSetID, referenceName string, start, end int64, fields, pageToken string) ([]*Read, string, error) {
	resp, err := c.SearchReads(ctx, &SearchReadsRequest{
		ReadGroupSetIDs: []string{readGroupSetID},
		ReferenceName:   referenceName,
		Start:           start,
		End:             end,
		PageToken:       pageToken,
	}, fields)
	if err != nil {
		return nil, "", err
	}
	return resp.Alignments, resp.NextPageToken, nil
}

// searchPage performs one paginated search call scoped to the named
// resource type.  Transport and API errors are returned as-is; non-2xx
// responses surface as *googleapi.Error.
func (c *Client) searchPage(ctx context.Context, resource string, body interface{}, fields string, result interface{}) error {
	encoded, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("encoding request: %v", err)
	}

	target := fmt.Sprintf("%s/v1/%s/search", c.endpoint, resource)
	if fields != "" {
		target += "?fields=" + url.QueryEscape(fields)
	}

	req, err := http.NewRequest("POST", target, bytes.NewReader(encoded))
	if err != nil {
		return fmt.Errorf("creating request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.hc.Do(req.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("searching %s: %v", resource, err)
	}
	defer resp.Body.Close()

	if err := googleapi.CheckResponse(resp); err != nil {
		return err
	}

	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return fmt.Errorf("decoding response: %v", err)
	}
	return nil
}
