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

// This binary fetches reads from the reads search API and prints them
// as SAM text.  It supports Google authentication.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/pkg/profile"

	"github.com/googlegenomics/genomics-reads/api"
	"github.com/googlegenomics/genomics-reads/export"
	"github.com/googlegenomics/genomics-reads/internal/genomics"
	"github.com/googlegenomics/genomics-reads/reads"
	"github.com/googlegenomics/genomics-reads/sam"
)

var (
	readGroupSet = flag.String("read_group_set", "", "read group set ID to search")
	region       = flag.String("r", "", "region to fetch, as name:start-end (0-based half-open)")
	fields       = flag.String("fields", "", "optional response field mask")

	token    = flag.String("token", "", "OAuth2 bearer token (default credentials are used if empty)")
	endpoint = flag.String("api", "", "API endpoint override, e.g. a local development server")

	output    = flag.String("o", "", "output destination: a file path, gs://bucket/object, or stdout if empty")
	countOnly = flag.Bool("count", false, "print the matching read count instead of alignments")

	style     = flag.String("naming_style", genomics.StyleUCSC, "reference naming style (UCSC, NCBI, Ensembl, dbSNP)")
	zeroBased = flag.Bool("zero_based", false, "keep the API's 0-based coordinates instead of shifting to 1-based")

	cpuProfile = flag.Bool("cpu_profile", false, "write a CPU profile")
)

func main() {
	flag.Parse()

	if *readGroupSet == "" {
		log.Fatalf("You must specify a read group set with -read_group_set.")
	}
	query, err := genomics.ParseRegion(*region)
	if err != nil {
		log.Fatalf("Failed to parse region %q: %v", *region, err)
	}

	if *cpuProfile {
		defer profile.Start(profile.CPUProfile).Stop()
	}

	ctx := context.Background()
	var client *api.Client
	if *token != "" {
		client = api.NewClientFromBearerToken(ctx, *token)
	} else if client, err = api.NewDefaultClient(ctx); err != nil {
		log.Fatalf("Failed to create client: %v", err)
	}
	if *endpoint != "" {
		client.SetEndpoint(strings.TrimSuffix(*endpoint, "/"))
	}

	if *countOnly {
		records, err := reads.FetchAllReads(ctx, client, *readGroupSet, query.ReferenceName, query.Start, query.End, *fields)
		if err != nil {
			log.Fatalf("Read search failed: %v", err)
		}
		fmt.Println(len(records))
		return
	}

	converter := sam.Converter{OneBasedCoord: !*zeroBased, NamingStyle: *style}
	result, err := reads.FetchAll(ctx, client, *readGroupSet, query.ReferenceName, query.Start, query.End, *fields, converter)
	if err != nil {
		log.Fatalf("Read search failed: %v", err)
	}
	collection := result.(*sam.Collection)

	if *output == "" {
		if err := collection.WriteText(os.Stdout); err != nil {
			log.Fatalf("Failed to write alignments: %v", err)
		}
		return
	}

	var destination export.Destination
	if strings.HasPrefix(*output, "gs://") {
		bucket, object, err := parseGCSPath(*output)
		if err != nil {
			log.Fatalf("Failed to parse output path: %v", err)
		}
		if destination, err = export.NewGCSDestination(ctx, bucket, object); err != nil {
			log.Fatalf("Failed to create GCS destination: %v", err)
		}
	} else {
		destination = export.FileDestination(*output)
	}

	if err := export.WriteSAM(ctx, destination, collection); err != nil {
		log.Fatalf("Failed to export alignments: %v", err)
	}
	log.Printf("Wrote %d alignment(s) to %s", len(collection.Records), *output)
}

// parseGCSPath splits gs://bucket/object into its bucket and object.
func parseGCSPath(path string) (string, string, error) {
	if parts := strings.SplitN(strings.TrimPrefix(path, "gs://"), "/", 2); len(parts) == 2 {
		if parts[0] != "" && parts[1] != "" {
			return parts[0], parts[1], nil
		}
	}
	return "", "", fmt.Errorf("invalid GCS path %q (want gs://bucket/object)", path)
}
