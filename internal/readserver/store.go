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
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/googlegenomics/genomics-reads/api"
)

// SAM flag bits used when decoding stored alignments.
const (
	flagPaired       = 0x1
	flagProperPair   = 0x2
	flagUnmapped     = 0x4
	flagMateUnmapped = 0x8
	flagReverse      = 0x10
	flagMateReverse  = 0x20
	flagRead1        = 0x40
	flagRead2        = 0x80
	flagSecondary    = 0x100
	flagQCFail       = 0x200
	flagDuplicate    = 0x400
	flagSupplement   = 0x800
)

// cigarOperations maps SAM CIGAR operators back onto the API operation
// enum served on the wire.
var cigarOperations = map[byte]string{
	'M': "ALIGNMENT_MATCH",
	'H': "CLIP_HARD",
	'S': "CLIP_SOFT",
	'D': "DELETE",
	'I': "INSERT",
	'P': "PAD",
	'=': "SEQUENCE_MATCH",
	'X': "SEQUENCE_MISMATCH",
	'N': "SKIP",
}

// Store holds the reads of a single read group set, in file order, for
// serving through the search endpoint.
type Store struct {
	readGroupSetID string
	reads          []*api.Read
}

// NewStore returns a store serving the provided reads as the named read
// group set.
func NewStore(readGroupSetID string, reads []*api.Read) *Store {
	return &Store{readGroupSetID: readGroupSetID, reads: reads}
}

// ReadGroupSetID returns the identifier the store's reads are served
// under.
func (s *Store) ReadGroupSetID() string { return s.readGroupSetID }

// Len returns the number of stored reads.
func (s *Store) Len() int { return len(s.reads) }

// LoadSAM builds a store from SAM text, decoding each alignment line
// back into the wire record shape (positions become 0-based, FLAG bits
// become the individual boolean attributes).  Header lines are skipped.
func LoadSAM(readGroupSetID string, r io.Reader) (*Store, error) {
	var reads []*api.Read

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 1024*1024), 1024*1024)
	line := 0
	for scanner.Scan() {
		line++
		text := scanner.Text()
		if text == "" || strings.HasPrefix(text, "@") {
			continue
		}
		read, err := parseAlignmentLine(text)
		if err != nil {
			return nil, fmt.Errorf("line %d: %v", line, err)
		}
		read.ReadGroupSetID = readGroupSetID
		reads = append(reads, read)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading alignments: %v", err)
	}

	return NewStore(readGroupSetID, reads), nil
}

func parseAlignmentLine(text string) (*api.Read, error) {
	fields := strings.Split(text, "\t")
	if len(fields) < 11 {
		return nil, fmt.Errorf("%d fields (want at least 11)", len(fields))
	}

	flag, err := strconv.ParseUint(fields[1], 10, 16)
	if err != nil {
		return nil, fmt.Errorf("parsing flag: %v", err)
	}
	pos, err := strconv.ParseInt(fields[3], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("parsing position: %v", err)
	}
	mapq, err := strconv.Atoi(fields[4])
	if err != nil {
		return nil, fmt.Errorf("parsing mapping quality: %v", err)
	}

	read := &api.Read{
		FragmentName:              fields[0],
		NumberReads:               1,
		ProperPlacement:           flag&flagProperPair != 0,
		SecondaryAlignment:        flag&flagSecondary != 0,
		SupplementaryAlignment:    flag&flagSupplement != 0,
		FailedVendorQualityChecks: flag&flagQCFail != 0,
		DuplicateFragment:         flag&flagDuplicate != 0,
	}
	if flag&flagPaired != 0 {
		read.NumberReads = 2
	}
	switch {
	case flag&flagRead1 != 0:
		number := 0
		read.ReadNumber = &number
	case flag&flagRead2 != 0:
		number := 1
		read.ReadNumber = &number
	}

	if flag&flagUnmapped == 0 && pos > 0 {
		offset := pos - 1
		alignment := &api.LinearAlignment{
			Position: &api.Position{
				ReferenceName: fields[2],
				Position:      &offset,
				ReverseStrand: flag&flagReverse != 0,
			},
			MappingQuality: mapq,
		}
		if fields[5] != "*" {
			cigar, err := parseCigar(fields[5])
			if err != nil {
				return nil, err
			}
			alignment.Cigar = cigar
		}
		read.Alignment = alignment
	}

	if flag&flagMateUnmapped == 0 && flag&flagPaired != 0 {
		if mate, err := parseMatePosition(fields, flag); err != nil {
			return nil, err
		} else if mate != nil {
			read.NextMatePosition = mate
		}
	}

	if fields[9] != "*" {
		read.AlignedSequence = fields[9]
	}
	return read, nil
}

func parseMatePosition(fields []string, flag uint64) (*api.Position, error) {
	pnext, err := strconv.ParseInt(fields[7], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("parsing mate position: %v", err)
	}
	if pnext == 0 {
		return nil, nil
	}

	reference := fields[6]
	if reference == "=" {
		reference = fields[2]
	}
	offset := pnext - 1
	return &api.Position{
		ReferenceName: reference,
		Position:      &offset,
		ReverseStrand: flag&flagMateReverse != 0,
	}, nil
}

func parseCigar(s string) ([]api.CigarUnit, error) {
	var units []api.CigarUnit
	var length int64
	var digits bool
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c >= '0' && c <= '9' {
			length = length*10 + int64(c-'0')
			digits = true
			continue
		}
		operation, ok := cigarOperations[c]
		if !ok || !digits {
			return nil, fmt.Errorf("malformed cigar %q", s)
		}
		units = append(units, api.CigarUnit{Operation: operation, OperationLength: length})
		length, digits = 0, false
	}
	if digits {
		return nil, fmt.Errorf("malformed cigar %q", s)
	}
	return units, nil
}

// referenceLength returns the number of reference bases the read's
// CIGAR consumes.  Reads without a CIGAR count as one base so that a
// bare position still overlaps a query range containing it.
func referenceLength(read *api.Read) int64 {
	if read.Alignment == nil || len(read.Alignment.Cigar) == 0 {
		return 1
	}
	var length int64
	for _, unit := range read.Alignment.Cigar {
		switch unit.Operation {
		case "ALIGNMENT_MATCH", "DELETE", "SKIP", "SEQUENCE_MATCH", "SEQUENCE_MISMATCH":
			length += unit.OperationLength
		}
	}
	if length == 0 {
		return 1
	}
	return length
}
