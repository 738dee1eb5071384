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

// Package sam converts raw read records into SAM-style alignments:
// it derives the alignment FLAG field from the record's boolean
// attributes, renders structured CIGAR operations into their compact
// string form and assembles per-read fields into an ordered collection.
package sam

import (
	"fmt"
	"io"
	"strings"

	"github.com/googlegenomics/genomics-reads/api"
	"github.com/googlegenomics/genomics-reads/internal/genomics"
	"github.com/googlegenomics/genomics-reads/reads"
)

// Flags represents an alignment FLAG field.
type Flags uint16

const (
	Paired        Flags = 1 << iota // The read has two reads in its fragment.
	ProperPair                      // The read is mapped in a proper pair.
	Unmapped                        // The read itself has no mapped position.
	MateUnmapped                    // The mate has no mapped position.
	Reverse                         // The read is mapped to the reverse strand.
	MateReverse                     // The mate is mapped to the reverse strand.
	Read1                           // This is the first read of the pair.
	Read2                           // This is the second read of the pair.
	Secondary                       // Not the primary alignment.
	QCFail                          // Failed vendor quality checks.
	Duplicate                       // PCR or optical duplicate.
	Supplementary                   // Supplementary alignment.
)

// cigarSymbols maps the API's CIGAR operation enum onto the canonical
// single-character SAM operators.
var cigarSymbols = map[string]string{
	"ALIGNMENT_MATCH":   "M",
	"CLIP_HARD":         "H",
	"CLIP_SOFT":         "S",
	"DELETE":            "D",
	"INSERT":            "I",
	"PAD":               "P",
	"SEQUENCE_MATCH":    "=",
	"SEQUENCE_MISMATCH": "X",
	"SKIP":              "N",
}

// DecodeFlags derives the alignment FLAG field for a read.  Each bit is
// computed from a disjoint subset of the record's fields, so the bits
// carry no ordering dependency.  Boolean attributes that the server
// omitted count as false; the Unmapped and MateUnmapped bits instead
// trigger specifically on the absence of a mapped position.
func DecodeFlags(read *api.Read) Flags {
	var flag Flags
	if read.NumberReads == 2 {
		flag |= Paired
	}
	if read.ProperPlacement {
		flag |= ProperPair
	}
	if read.Alignment == nil || read.Alignment.Position == nil || read.Alignment.Position.Position == nil {
		flag |= Unmapped
	}
	if read.NextMatePosition == nil || read.NextMatePosition.Position == nil {
		flag |= MateUnmapped
	}
	if read.Alignment != nil && read.Alignment.Position != nil && read.Alignment.Position.ReverseStrand {
		flag |= Reverse
	}
	if read.NextMatePosition != nil && read.NextMatePosition.ReverseStrand {
		flag |= MateReverse
	}
	if read.ReadNumber != nil {
		switch *read.ReadNumber {
		case 0:
			flag |= Read1
		case 1:
			flag |= Read2
		}
	}
	if read.SecondaryAlignment {
		flag |= Secondary
	}
	if read.FailedVendorQualityChecks {
		flag |= QCFail
	}
	if read.DuplicateFragment {
		flag |= Duplicate
	}
	if read.SupplementaryAlignment {
		flag |= Supplementary
	}
	return flag
}

// Cigar renders a read's CIGAR operations into the compact string form,
// e.g. "10M2D".  A read with no alignment or no CIGAR yields the empty
// string.  An operation enum missing from the symbol table is an error:
// it indicates an API contract change and must not be papered over with
// a blank operator.
func Cigar(read *api.Read) (string, error) {
	if read.Alignment == nil {
		return "", nil
	}
	var b strings.Builder
	for _, unit := range read.Alignment.Cigar {
		symbol, ok := cigarSymbols[unit.Operation]
		if !ok {
			return "", fmt.Errorf("unknown cigar operation %q", unit.Operation)
		}
		fmt.Fprintf(&b, "%d%s", unit.OperationLength, symbol)
	}
	return b.String(), nil
}

// Record is one alignment in SAM terms.
type Record struct {
	Name      string
	Flag      Flags
	Reference string
	// Pos is nil for unmapped reads.  It is 1-based when produced by a
	// converter with OneBasedCoord set, 0-based otherwise.
	Pos    *int64
	Cigar  string
	Strand string // "+" or "-"
}

// Collection is an ordered set of alignment records.  It is owned
// exclusively by the caller that accumulated it.
type Collection struct {
	Records []*Record
}

// Merge appends the records of another collection, preserving order.
// It implements reads.Result.
func (c *Collection) Merge(other reads.Result) (reads.Result, error) {
	o, ok := other.(*Collection)
	if !ok {
		return nil, fmt.Errorf("cannot merge %T into an alignment collection", other)
	}
	c.Records = append(c.Records, o.Records...)
	return c, nil
}

// WriteText writes the collection as SAM text lines.  Fields this
// collection does not carry (mapping quality, mate, sequence, quality)
// are emitted as their SAM placeholder values, and unmapped reads get a
// "*" CIGAR and position 0.
func (c *Collection) WriteText(w io.Writer) error {
	for _, record := range c.Records {
		var pos int64
		if record.Pos != nil {
			pos = *record.Pos
		}
		reference, cigar := record.Reference, record.Cigar
		if reference == "" {
			reference = "*"
		}
		if cigar == "" {
			cigar = "*"
		}
		if _, err := fmt.Fprintf(w, "%s\t%d\t%s\t%d\t255\t%s\t*\t0\t0\t*\t*\n",
			record.Name, record.Flag, reference, pos, cigar); err != nil {
			return fmt.Errorf("writing record %q: %v", record.Name, err)
		}
	}
	return nil
}

// Converter builds alignment collections from raw read pages.  It
// implements reads.Converter, so it can be fed directly to
// reads.FetchAll to convert incrementally as pages arrive.
type Converter struct {
	// OneBasedCoord shifts mapped positions from the API's 0-based
	// convention to 1-based coordinates.
	OneBasedCoord bool
	// NamingStyle selects the reference naming style the assembled
	// records use, e.g. genomics.StyleUCSC for "chr22".
	NamingStyle string
}

// NewConverter returns a Converter with the conventional defaults:
// 1-based coordinates and UCSC reference names.
func NewConverter() Converter {
	return Converter{OneBasedCoord: true, NamingStyle: genomics.StyleUCSC}
}

// Empty returns an empty, well-typed collection.
func (v Converter) Empty() reads.Result {
	return &Collection{}
}

// Convert transforms one page of reads.
func (v Converter) Convert(records []*api.Read) (reads.Result, error) {
	return v.ToAlignments(records)
}

// ToAlignments assembles the decoded per-read fields into a collection.
// Zero reads yield an empty collection.  An absent mapped position stays
// absent; it is never coerced to 0 or 1.
func (v Converter) ToAlignments(records []*api.Read) (*Collection, error) {
	if err := genomics.CheckStyle(v.NamingStyle); err != nil {
		return nil, err
	}

	collection := &Collection{Records: make([]*Record, 0, len(records))}
	for _, read := range records {
		cigar, err := Cigar(read)
		if err != nil {
			return nil, fmt.Errorf("read %q: %v", read.FragmentName, err)
		}

		record := &Record{
			Name:   read.FragmentName,
			Flag:   DecodeFlags(read),
			Cigar:  cigar,
			Strand: "+",
		}
		if record.Flag&Reverse != 0 {
			record.Strand = "-"
		}

		if read.Alignment != nil && read.Alignment.Position != nil {
			position := read.Alignment.Position
			if position.ReferenceName != "" {
				name, err := genomics.ReferenceName(position.ReferenceName, v.NamingStyle)
				if err != nil {
					return nil, err
				}
				record.Reference = name
			}
			if position.Position != nil {
				pos := *position.Position
				if v.OneBasedCoord {
					pos++
				}
				record.Pos = &pos
			}
		}

		collection.Records = append(collection.Records, record)
	}
	return collection, nil
}

// ToAlignments converts raw reads into an alignment collection using
// the given coordinate convention and reference naming style.
func ToAlignments(records []*api.Read, oneBasedCoord bool, namingStyle string) (*Collection, error) {
	return Converter{OneBasedCoord: oneBasedCoord, NamingStyle: namingStyle}.ToAlignments(records)
}
