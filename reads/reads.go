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

// Package reads drives paginated read searches to completion,
// accumulating the pages into a caller-chosen representation.
package reads

import (
	"context"
	"fmt"
	"log"

	"github.com/googlegenomics/genomics-reads/api"
)

// PageFetcher fetches one page of a reads search.  *api.Client
// satisfies this interface; tests substitute synthetic page sources.
type PageFetcher interface {
	SearchReadsPage(ctx context.Context, readGroupSetID, referenceName string, start, end int64, fields, pageToken string) ([]*api.Read, string, error)
}

// Result is an accumulated fetch result.  Implementations are owned by
// a single FetchAll call and are never shared between calls.
type Result interface {
	// Merge appends another result of the same kind, preserving order,
	// and returns the combined value.
	Merge(other Result) (Result, error)
}

// Converter transforms each page of raw reads into the accumulated
// form.  Feeding pages through the converter as they arrive bounds peak
// memory by one raw page plus the converted result, rather than by the
// whole raw dataset.
type Converter interface {
	// Empty returns the identity value the accumulation starts from.
	Empty() Result
	// Convert transforms one page of reads.
	Convert(records []*api.Read) (Result, error)
}

// Raw is the default converter: a pass-through that accumulates the
// unconverted records of every page into a flat ordered sequence.
type Raw struct{}

// Empty returns an empty raw read sequence.
func (Raw) Empty() Result { return RawReads(nil) }

// Convert returns the page's records unchanged.
func (Raw) Convert(records []*api.Read) (Result, error) { return RawReads(records), nil }

// RawReads is the Result produced by the Raw converter.
type RawReads []*api.Read

// Merge appends another raw read sequence.
func (r RawReads) Merge(other Result) (Result, error) {
	o, ok := other.(RawReads)
	if !ok {
		return nil, fmt.Errorf("cannot merge %T into raw reads", other)
	}
	return append(r, o...), nil
}

// FetchAll retrieves every read from a read group set overlapping the
// 0-based half-open range [start, end) on the named reference, fetching
// pages strictly sequentially until the server returns no continuation
// token.  Pages arrive and are concatenated in server order; nothing is
// reordered, deduplicated or retried at this layer.
//
// A non-empty fields mask restricts the attributes returned per record;
// it must retain nextPageToken for paging to work.  A nil converter
// accumulates the raw records.
//
// Any page fetch or conversion error aborts the loop immediately and is
// returned to the caller; partially accumulated data is discarded.
func FetchAll(ctx context.Context, fetcher PageFetcher, readGroupSetID, referenceName string, start, end int64, fields string, converter Converter) (Result, error) {
	if converter == nil {
		converter = Raw{}
	}

	acc := converter.Empty()
	var pageToken string
	for page := 1; ; page++ {
		records, nextPageToken, err := fetcher.SearchReadsPage(ctx, readGroupSetID, referenceName, start, end, fields, pageToken)
		if err != nil {
			return nil, err
		}

		batch, err := converter.Convert(records)
		if err != nil {
			return nil, err
		}
		if acc, err = acc.Merge(batch); err != nil {
			return nil, err
		}

		if nextPageToken == "" {
			log.Printf("Read search of %s %s:%d-%d complete after %d page(s)", readGroupSetID, referenceName, start, end, page)
			return acc, nil
		}
		pageToken = nextPageToken
		log.Printf("Continuing read search with page token %q (%d record(s) on page %d)", pageToken, len(records), page)
	}
}

// FetchAllReads retrieves every matching read without conversion.
func FetchAllReads(ctx context.Context, fetcher PageFetcher, readGroupSetID, referenceName string, start, end int64, fields string) ([]*api.Read, error) {
	result, err := FetchAll(ctx, fetcher, readGroupSetID, referenceName, start, end, fields, Raw{})
	if err != nil {
		return nil, err
	}
	return []*api.Read(result.(RawReads)), nil
}
