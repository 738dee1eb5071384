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

package readserver

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/googlegenomics/genomics-reads/api"
	"github.com/googlegenomics/genomics-reads/reads"
	"github.com/googlegenomics/genomics-reads/sam"
)

const testSAM = "@HD\tVN:1.6\tSO:coordinate\n" +
	"@SQ\tSN:chr1\tLN:248956422\n" +
	"r1\t99\tchr1\t101\t60\t36M\t=\t301\t236\tACGTACGT\t*\n" +
	"r1\t147\tchr1\t301\t60\t36M\t=\t101\t-236\tACGTACGT\t*\n" +
	"r2\t0\tchr1\t1001\t60\t10M2D26M\t*\t0\t0\tACGTACGT\t*\n" +
	"r3\t16\tchr1\t5001\t60\t36M\t*\t0\t0\tACGTACGT\t*\n" +
	"r4\t0\tchr1\t9001\t60\t36M\t*\t0\t0\tACGTACGT\t*\n" +
	"r5\t4\t*\t0\t0\t*\t*\t0\t0\tACGTACGT\t*\n"

func testStore(t *testing.T) *Store {
	store, err := LoadSAM("rgs-test", strings.NewReader(testSAM))
	if err != nil {
		t.Fatalf("Failed to load test alignments: %v", err)
	}
	return store
}

func setupRouter(t *testing.T, pageSize int) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	Register(router, testStore(t), pageSize)
	return router
}

func search(t *testing.T, router *gin.Engine, request *api.SearchReadsRequest) (*httptest.ResponseRecorder, *api.SearchReadsResponse) {
	body, err := json.Marshal(request)
	if err != nil {
		t.Fatalf("Failed to encode request: %v", err)
	}

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("POST", "/v1/reads/search", bytes.NewReader(body))
	router.ServeHTTP(w, req)

	var response api.SearchReadsResponse
	if w.Code == http.StatusOK {
		if err := json.Unmarshal(w.Body.Bytes(), &response); err != nil {
			t.Fatalf("Failed to decode response: %v", err)
		}
	}
	return w, &response
}

func TestSearchRoute_Pagination(t *testing.T) {
	router := setupRouter(t, 2)

	var names []string
	var pages int
	token := ""
	for {
		w, response := search(t, router, &api.SearchReadsRequest{
			ReadGroupSetIDs: []string{"rgs-test"},
			ReferenceName:   "chr1",
			PageToken:       token,
		})
		assert.Equal(t, http.StatusOK, w.Code)
		assert.True(t, len(response.Alignments) <= 2)

		pages++
		for _, read := range response.Alignments {
			names = append(names, read.FragmentName)
		}
		if response.NextPageToken == "" {
			break
		}
		token = response.NextPageToken
	}

	assert.Equal(t, 3, pages)
	assert.Equal(t, []string{"r1", "r1", "r2", "r3", "r4"}, names)
}

func TestSearchRoute_RangeFilter(t *testing.T) {
	router := setupRouter(t, 0)

	w, response := search(t, router, &api.SearchReadsRequest{
		ReferenceName: "chr1",
		Start:         1000,
		End:           1012,
	})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, len(response.Alignments))
	assert.Equal(t, "r2", response.Alignments[0].FragmentName)
}

func TestSearchRoute_NamingStyleInsensitive(t *testing.T) {
	router := setupRouter(t, 0)

	w, response := search(t, router, &api.SearchReadsRequest{ReferenceName: "1"})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 5, len(response.Alignments))
}

func TestSearchRoute_UnmappedReads(t *testing.T) {
	router := setupRouter(t, 0)

	w, response := search(t, router, &api.SearchReadsRequest{ReferenceName: "*"})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, len(response.Alignments))
	assert.Equal(t, "r5", response.Alignments[0].FragmentName)
	assert.Nil(t, response.Alignments[0].Alignment)
}

func TestSearchRoute_WrongReadGroupSet(t *testing.T) {
	router := setupRouter(t, 0)

	w, response := search(t, router, &api.SearchReadsRequest{
		ReadGroupSetIDs: []string{"someone-else"},
		ReferenceName:   "chr1",
	})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 0, len(response.Alignments))
	assert.Equal(t, "", response.NextPageToken)
}

func TestSearchRoute_InvalidInputs(t *testing.T) {
	router := setupRouter(t, 0)

	testCases := []struct {
		name    string
		request *api.SearchReadsRequest
	}{
		{"missing reference name", &api.SearchReadsRequest{}},
		{"start after end", &api.SearchReadsRequest{ReferenceName: "chr1", Start: 200, End: 100}},
		{"bad page token", &api.SearchReadsRequest{ReferenceName: "chr1", PageToken: "not-a-token"}},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			w, _ := search(t, router, tc.request)
			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Contains(t, w.Body.String(), "error")
		})
	}
}

func TestLoadSAM_FlagRoundTrip(t *testing.T) {
	store := testStore(t)

	// Paired reads with mapped mates carry enough structure to rebuild
	// their FLAG field exactly.
	assert.Equal(t, sam.Flags(99), sam.DecodeFlags(store.reads[0]))
	assert.Equal(t, sam.Flags(147), sam.DecodeFlags(store.reads[1]))
}

func TestLoadSAM_Positions(t *testing.T) {
	store := testStore(t)

	first := store.reads[0]
	assert.Equal(t, 2, first.NumberReads)
	if assert.NotNil(t, first.ReadNumber) {
		assert.Equal(t, 0, *first.ReadNumber)
	}
	if assert.NotNil(t, first.Alignment) && assert.NotNil(t, first.Alignment.Position) {
		assert.Equal(t, int64(100), *first.Alignment.Position.Position)
	}
	if assert.NotNil(t, first.NextMatePosition) && assert.NotNil(t, first.NextMatePosition.Position) {
		assert.Equal(t, "chr1", first.NextMatePosition.ReferenceName)
		assert.Equal(t, int64(300), *first.NextMatePosition.Position)
	}

	unmapped := store.reads[5]
	assert.Nil(t, unmapped.Alignment)
	assert.Nil(t, unmapped.NextMatePosition)
}

func TestLoadSAM_Cigar(t *testing.T) {
	store := testStore(t)

	text, err := sam.Cigar(store.reads[2])
	assert.NoError(t, err)
	assert.Equal(t, "10M2D26M", text)
}

func TestLoadSAM_Malformed(t *testing.T) {
	testCases := []struct{ name, line string }{
		{"too few fields", "r1\t0\tchr1\t100\n"},
		{"bad flag", "r1\txyz\tchr1\t100\t60\t36M\t*\t0\t0\t*\t*\n"},
		{"bad cigar", "r1\t0\tchr1\t100\t60\t36Q\t*\t0\t0\t*\t*\n"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := LoadSAM("rgs-test", strings.NewReader(tc.line))
			assert.Error(t, err)
		})
	}
}

func TestEndToEnd_FetchAll(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	Register(router, testStore(t), 2)

	server := httptest.NewServer(router)
	defer server.Close()

	client := api.NewClient(http.DefaultClient)
	client.SetEndpoint(server.URL)

	records, err := reads.FetchAllReads(context.Background(), client, "rgs-test", "chr1", 0, 0, "")
	if err != nil {
		t.Fatalf("FetchAllReads failed: %v", err)
	}
	assert.Equal(t, 5, len(records))

	collection, err := sam.ToAlignments(records, true, "UCSC")
	if err != nil {
		t.Fatalf("ToAlignments failed: %v", err)
	}
	first := collection.Records[0]
	assert.Equal(t, "r1", first.Name)
	assert.Equal(t, "chr1", first.Reference)
	if assert.NotNil(t, first.Pos) {
		assert.Equal(t, int64(101), *first.Pos)
	}
	assert.Equal(t, sam.Flags(99), first.Flag)
	assert.Equal(t, "+", first.Strand)
}
