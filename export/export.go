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

// Package export writes accumulated alignment collections to external
// storage as SAM text.
package export

import (
	"context"
	"fmt"
	"io"
	"os"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"

	"github.com/googlegenomics/genomics-reads/sam"
)

// Destination is a writable location for exported alignments.
type Destination interface {
	// NewWriter returns a writer that stores bytes at the destination.
	// The caller must Close the writer to commit the data.
	NewWriter(ctx context.Context) (io.WriteCloser, error)
}

// FileDestination writes to a path on the local filesystem.
type FileDestination string

// NewWriter creates (or truncates) the destination file.
func (d FileDestination) NewWriter(_ context.Context) (io.WriteCloser, error) {
	return os.Create(string(d))
}

// GCSDestination writes to an object in Google Cloud Storage.  Must be
// created with NewGCSDestination.
type GCSDestination struct {
	bucket, object string
	client         *storage.Client
}

// NewGCSDestination returns a destination for the named bucket and
// object.  With no options the client uses the application default
// credentials.
func NewGCSDestination(ctx context.Context, bucket, object string, opts ...option.ClientOption) (*GCSDestination, error) {
	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating storage client: %v", err)
	}
	return &GCSDestination{bucket: bucket, object: object, client: client}, nil
}

// NewWriter opens a writer to the destination object.  The object
// becomes visible once the writer is closed.
func (d *GCSDestination) NewWriter(ctx context.Context) (io.WriteCloser, error) {
	return d.client.Bucket(d.bucket).Object(d.object).NewWriter(ctx), nil
}

// WriteSAM renders the collection as SAM text at dst.
func WriteSAM(ctx context.Context, dst Destination, collection *sam.Collection) error {
	w, err := dst.NewWriter(ctx)
	if err != nil {
		return fmt.Errorf("opening destination: %v", err)
	}
	if err := collection.WriteText(w); err != nil {
		w.Close()
		return fmt.Errorf("writing alignments: %v", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("closing destination: %v", err)
	}
	return nil
}
