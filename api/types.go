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

package api

// Read is a single sequencing read as returned by the reads search
// endpoint.  Fields that the server omitted decode as their zero value;
// the pointer fields distinguish an absent value from an explicit zero,
// which matters for flag derivation (an absent mapped position marks the
// read as unmapped).
//
// Integer fields that are 64 bits wide on the wire are encoded as JSON
// strings, following the Google API JSON conventions.
type Read struct {
	ID             string `json:"id,omitempty"`
	ReadGroupID    string `json:"readGroupId,omitempty"`
	ReadGroupSetID string `json:"readGroupSetId,omitempty"`

	// FragmentName identifies the sequenced fragment.  Both mates of a
	// paired read share the same fragment name.
	FragmentName   string `json:"fragmentName,omitempty"`
	FragmentLength int    `json:"fragmentLength,omitempty"`

	// NumberReads is the number of reads in the fragment (1 or 2).
	NumberReads     int  `json:"numberReads,omitempty"`
	ProperPlacement bool `json:"properPlacement,omitempty"`

	// ReadNumber is 0 for the first read of a pair and 1 for the second.
	// It is nil for unpaired reads.
	ReadNumber *int `json:"readNumber,omitempty"`

	SecondaryAlignment        bool `json:"secondaryAlignment,omitempty"`
	SupplementaryAlignment    bool `json:"supplementaryAlignment,omitempty"`
	FailedVendorQualityChecks bool `json:"failedVendorQualityChecks,omitempty"`
	DuplicateFragment         bool `json:"duplicateFragment,omitempty"`

	// Alignment is nil for unmapped reads.
	Alignment *LinearAlignment `json:"alignment,omitempty"`

	// NextMatePosition is nil when the mate is unmapped or the read is
	// unpaired.
	NextMatePosition *Position `json:"nextMatePosition,omitempty"`

	AlignedSequence string `json:"alignedSequence,omitempty"`
	AlignedQuality  []int  `json:"alignedQuality,omitempty"`
}

// LinearAlignment describes the mapping of a read to a reference.
type LinearAlignment struct {
	Position       *Position   `json:"position,omitempty"`
	MappingQuality int         `json:"mappingQuality,omitempty"`
	Cigar          []CigarUnit `json:"cigar,omitempty"`
}

// Position is a 0-based offset on a named reference sequence.
type Position struct {
	ReferenceName string `json:"referenceName,omitempty"`
	// Position is nil when the offset itself is unknown even though the
	// surrounding structure is present.
	Position      *int64 `json:"position,string,omitempty"`
	ReverseStrand bool   `json:"reverseStrand,omitempty"`
}

// CigarUnit is one operation of an alignment CIGAR.  Operation is one of
// the enum values listed in the sam package's symbol table.
type CigarUnit struct {
	Operation       string `json:"operation,omitempty"`
	OperationLength int64  `json:"operationLength,string,omitempty"`
}

// SearchReadsRequest is the body of a reads search call.
type SearchReadsRequest struct {
	ReadGroupSetIDs []string `json:"readGroupSetIds,omitempty"`
	ReferenceName   string   `json:"referenceName,omitempty"`
	// Start and End bound the query range in 0-based half-open
	// coordinates (the GA4GH convention).
	Start     int64  `json:"start,string"`
	End       int64  `json:"end,string"`
	PageToken string `json:"pageToken,omitempty"`
	PageSize  int    `json:"pageSize,omitempty"`
}

// SearchReadsResponse is one page of a reads search result.  A non-empty
// NextPageToken means more pages remain; it must be passed back verbatim
// to retrieve the next page.
type SearchReadsResponse struct {
	Alignments    []*Read `json:"alignments,omitempty"`
	NextPageToken string  `json:"nextPageToken,omitempty"`
}
