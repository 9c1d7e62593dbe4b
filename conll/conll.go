// Package conll reads CoNLL-style dependency treebank files: UTF-8 text,
// one token per line, blank lines ending a sentence, '#'-prefixed comment
// lines ignored. This framing/field-splitting is implemented directly
// (rather than treated as a black box) because the core's Public Operations
// (ImportTreebank in particular) must parse it and surface MalformedLine /
// IOError failures per the error-handling design. The tree construction
// itself — matching head ids, attaching children — belongs to the em
// package, which consumes the already-split records this package produces.
package conll

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/pkg/errors"
)

// NumFields is the number of tab-separated fields every CoNLL line must
// have (after padding missing trailing fields with "").
const NumFields = 10

// Record is one CoNLL token line, split into its 10 fields.
//
//	0 token id ("1"-based; "0" denotes the virtual sentence root as a head
//	  reference, never as a token's own id)
//	1 surface form
//	3 POS
//	6 head token id ("0" marks this token as the sentence root)
//	7 dependency label
type Record [NumFields]string

// ID returns field 0.
func (r Record) ID() string { return r[0] }

// Form returns field 1.
func (r Record) Form() string { return r[1] }

// POS returns field 3.
func (r Record) POS() string { return r[3] }

// Head returns field 6.
func (r Record) Head() string { return r[6] }

// Label returns field 7.
func (r Record) Label() string { return r[7] }

// IsRoot reports whether this record's head marks it as the sentence root.
func (r Record) IsRoot() bool { return r.Head() == "0" }

// MalformedLineError reports a CoNLL line that could not be parsed: it
// lacks a terminating newline, has more than NumFields fields, or (for
// model files handled by modelio) a wrong field count.
type MalformedLineError struct {
	Line    int
	Content string
	Reason  string
}

func (e *MalformedLineError) Error() string {
	return fmt.Sprintf("conll: malformed line %d (%s): %q", e.Line, e.Reason, e.Content)
}

// Visitor receives one parsed sentence at a time (a non-empty slice of
// Records). Returning an error aborts reading.
type Visitor func(sentence []Record) error

// Read parses r as a CoNLL treebank, invoking visit once per sentence. A
// trailing sentence not terminated by a blank line is still delivered once
// r is exhausted.
func Read(r io.Reader, visit Visitor) error {
	br := bufio.NewReader(r)
	var sentence []Record
	lineNo := 0

	for {
		lineNo++
		line, err := br.ReadString('\n')
		if err == io.EOF {
			if line == "" {
				break
			}
			return &MalformedLineError{Line: lineNo, Content: line, Reason: "missing terminating newline"}
		}
		if err != nil {
			return errors.Wrapf(err, "conll: reading line %d", lineNo)
		}

		trimmed := strings.TrimSuffix(line, "\n")
		trimmed = strings.TrimSuffix(trimmed, "\r")

		switch {
		case strings.HasPrefix(trimmed, "#"):
			continue
		case trimmed == "":
			if len(sentence) == 0 {
				continue
			}
			if err := visit(sentence); err != nil {
				return err
			}
			sentence = nil
		default:
			rec, err := parseRecord(trimmed, lineNo)
			if err != nil {
				return err
			}
			sentence = append(sentence, rec)
		}
	}

	if len(sentence) > 0 {
		if err := visit(sentence); err != nil {
			return err
		}
	}
	return nil
}

func parseRecord(line string, lineNo int) (Record, error) {
	var rec Record
	fields := strings.Split(line, "\t")
	if len(fields) > NumFields {
		return rec, &MalformedLineError{Line: lineNo, Content: line, Reason: "too many fields"}
	}
	copy(rec[:], fields)
	return rec, nil
}
