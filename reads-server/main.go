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

// This binary serves the paginated reads search API from a local SAM
// file, for developing and testing clients without live credentials.
package main

import (
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/googlegenomics/genomics-reads/internal/analytics"
	"github.com/googlegenomics/genomics-reads/internal/readserver"
)

var (
	port     = flag.Int("port", 8080, "HTTP service port")
	pageSize = flag.Int("page_size", 0, "records per response page (0 selects the default)")

	samFile      = flag.String("sam", "", "SAM file containing the alignments to serve")
	readGroupSet = flag.String("read_group_set", "local", "read group set ID the alignments are served under")

	secure    = flag.Bool("secure", false, "serve in HTTPS-only mode")
	httpsCert = flag.String("https_cert", "", "HTTPS certificate file")
	httpsKey  = flag.String("https_key", "", "HTTPS key file")

	// Enable or disable anonymous usage tracking.
	//
	// If enabled, anonymous information about requests handled by the server is
	// logged to Google via Google Analytics.
	trackUsage = flag.Bool("track_usage", false, "anonymous usage tracking")
)

func main() {
	flag.Parse()

	if *samFile == "" {
		log.Fatalf("You must specify a SAM file to serve with -sam.")
	}
	if *secure && (*httpsCert == "" || *httpsKey == "") {
		log.Fatalf("You must specify both -https_cert and -https_key in secure mode.")
	}

	f, err := os.Open(*samFile)
	if err != nil {
		log.Fatalf("Failed to open %q: %v", *samFile, err)
	}
	store, err := readserver.LoadSAM(*readGroupSet, f)
	f.Close()
	if err != nil {
		log.Fatalf("Failed to load alignments: %v", err)
	}
	log.Printf("Serving %d read(s) as read group set %q", store.Len(), store.ReadGroupSetID())

	router := gin.Default()
	readserver.Register(router, store, *pageSize)

	handler := http.Handler(router)
	if *trackUsage {
		log.Printf("Enabling anonymous usage tracking")

		client := analytics.NewClient("UA-103022118-1", uuid.New().String())
		handler = analytics.TrackingHandler(handler, func(hits []analytics.Hit) {
			if err := client.Send(hits); err != nil {
				log.Printf("Failed to send %d hits to analytics: %v", len(hits), err)
			}
		})
	}

	address := fmt.Sprintf(":%d", *port)
	if *secure {
		if err := http.ListenAndServeTLS(address, *httpsCert, *httpsKey, handler); err != nil {
			log.Fatalf("HTTPS server returned an error: %v", err)
		}
	} else {
		if err := http.ListenAndServe(address, handler); err != nil {
			log.Fatalf("HTTP server returned an error: %v", err)
		}
	}
}
