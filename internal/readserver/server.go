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

// Package readserver serves the paginated reads search wire protocol
// from an in-memory read store, for development and testing against the
// client without live credentials.
package readserver

import (
	"bytes"
	"encoding/base64"
	"encoding/gob"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/googlegenomics/genomics-reads/api"
	"github.com/googlegenomics/genomics-reads/internal/analytics"
	"github.com/googlegenomics/genomics-reads/internal/genomics"
)

const (
	defaultPageSize = 256
	maxPageSize     = 2048
)

// Register installs the search endpoint on router, serving reads from
// store.  pageSize bounds how many records one response carries; zero
// selects the default.
func Register(router *gin.Engine, store *Store, pageSize int) {
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}
	router.POST("/v1/reads/search", searchReads(store, pageSize))
}

func searchReads(store *Store, pageSize int) func(c *gin.Context) {
	return func(c *gin.Context) {
		track := analytics.TrackerFromContext(c.Request.Context())
		track(analytics.Event("Reads", "Search Request Received", "", nil))

		var req api.SearchReadsRequest
		if err := json.NewDecoder(c.Request.Body).Decode(&req); err != nil {
			writeError(c, http.StatusBadRequest, fmt.Sprintf("decoding request: %v", err))
			return
		}
		if req.ReferenceName == "" {
			writeError(c, http.StatusBadRequest, "no reference name specified")
			return
		}
		if req.End != 0 && req.Start > req.End {
			writeError(c, http.StatusBadRequest, fmt.Sprintf("invalid range: %d > %d", req.Start, req.End))
			return
		}

		offset := 0
		if req.PageToken != "" {
			n, err := decodePageToken(req.PageToken)
			if err != nil {
				writeError(c, http.StatusBadRequest, fmt.Sprintf("invalid page token: %v", err))
				return
			}
			offset = n
		}

		size := pageSize
		if req.PageSize > 0 && req.PageSize < size {
			size = req.PageSize
		}
		if size > maxPageSize {
			size = maxPageSize
		}

		matches := store.match(&req)
		response := api.SearchReadsResponse{}
		if offset < len(matches) {
			end := offset + size
			if end > len(matches) {
				end = len(matches)
			}
			response.Alignments = matches[offset:end]
			if end < len(matches) {
				token, err := encodePageToken(end)
				if err != nil {
					writeError(c, http.StatusInternalServerError, fmt.Sprintf("encoding page token: %v", err))
					return
				}
				response.NextPageToken = token
			}
		}

		count := int64(len(response.Alignments))
		track(analytics.Event("Reads", "Search Response Sent", "", &count))
		c.JSON(http.StatusOK, &response)
	}
}

// match returns the stored reads selected by req, in store order.
func (s *Store) match(req *api.SearchReadsRequest) []*api.Read {
	if len(req.ReadGroupSetIDs) > 0 && !contains(req.ReadGroupSetIDs, s.readGroupSetID) {
		return nil
	}

	// "*" selects unmapped reads, per the search API convention.
	if req.ReferenceName == "*" {
		var matches []*api.Read
		for _, read := range s.reads {
			if read.Alignment == nil || read.Alignment.Position == nil || read.Alignment.Position.Position == nil {
				matches = append(matches, read)
			}
		}
		return matches
	}

	wanted := canonicalName(req.ReferenceName)
	var matches []*api.Read
	for _, read := range s.reads {
		if read.Alignment == nil || read.Alignment.Position == nil || read.Alignment.Position.Position == nil {
			continue
		}
		position := read.Alignment.Position
		if canonicalName(position.ReferenceName) != wanted {
			continue
		}
		start := *position.Position
		end := start + referenceLength(read)
		if end > req.Start && (req.End == 0 || start < req.End) {
			matches = append(matches, read)
		}
	}
	return matches
}

// canonicalName reduces a reference name to its bare (NCBI style)
// spelling so queries match regardless of "chr" prefixing.
func canonicalName(name string) string {
	canonical, err := genomics.ReferenceName(name, genomics.StyleNCBI)
	if err != nil {
		return name
	}
	return canonical
}

func contains(ids []string, id string) bool {
	for _, candidate := range ids {
		if candidate == id {
			return true
		}
	}
	return false
}

// Page tokens are opaque to clients: a gob-encoded offset, base64
// wrapped.
type pageState struct {
	Offset int
}

func encodePageToken(offset int) (string, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(pageState{Offset: offset}); err != nil {
		return "", err
	}
	return base64.URLEncoding.EncodeToString(buf.Bytes()), nil
}

func decodePageToken(token string) (int, error) {
	raw, err := base64.URLEncoding.DecodeString(token)
	if err != nil {
		return 0, fmt.Errorf("base64: %v", err)
	}
	var state pageState
	if err := gob.NewDecoder(bytes.NewReader(raw)).Decode(&state); err != nil {
		return 0, fmt.Errorf("gob: %v", err)
	}
	if state.Offset < 0 {
		return 0, fmt.Errorf("negative offset %d", state.Offset)
	}
	return state.Offset, nil
}

// writeError responds with the Google API error body shape so clients
// surface it as a typed API error.
func writeError(c *gin.Context, code int, message string) {
	c.JSON(code, gin.H{
		"error": gin.H{
			"code":    code,
			"message": message,
		},
	})
}
