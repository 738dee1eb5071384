// Package app exposes the development reads search server on App
// Engine.  The served SAM file is bundled with the app and named by the
// READS_SAM_FILE environment variable.
package app

import (
	"log"
	"net/http"
	"os"

	"github.com/gin-gonic/gin"
	"google.golang.org/appengine"

	"github.com/googlegenomics/genomics-reads/internal/readserver"
)

func init() {
	path := os.Getenv("READS_SAM_FILE")
	if path == "" {
		log.Fatalf("READS_SAM_FILE must name a bundled SAM file")
	}
	f, err := os.Open(path)
	if err != nil {
		log.Fatalf("Failed to open %q: %v", path, err)
	}
	defer f.Close()

	readGroupSet := os.Getenv("READ_GROUP_SET_ID")
	if readGroupSet == "" {
		readGroupSet = "local"
	}
	store, err := readserver.LoadSAM(readGroupSet, f)
	if err != nil {
		log.Fatalf("Failed to load alignments: %v", err)
	}

	router := gin.New()
	readserver.Register(router, store, 0)
	http.Handle("/", withRequestContext(router))
}

// withRequestContext attaches the App Engine request context so runtime
// services are reachable from handlers.
func withRequestContext(h http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		h.ServeHTTP(w, req.WithContext(appengine.NewContext(req)))
	})
}
