// Copyright 2026 Tabwire, Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package packfile reads and writes pack files: flat archives of
// encoded values, each labeled with the name of its schema type,
// snappy compressed and checksummed with xxhash64.
package packfile

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"math"
	"os"

	"github.com/cespare/xxhash/v2"
	"github.com/golang/snappy"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/tabwire/tabwire/codec"
	"github.com/tabwire/tabwire/schema"
)

// Magic leads every pack file.
const Magic = "TWPK1\n"

// Type and schema names longer than this mean the index is garbage.
const maxNameLen = 1 << 16

// ErrCorruptPackfile is the error used when the file being read is
// corrupt.
var ErrCorruptPackfile = errors.New("pack file is corrupt")

// ErrSchemaMismatch is the error used when a pack file was built for
// a different schema than the registry it is checked against.
var ErrSchemaMismatch = errors.New("pack file schema does not match registry")

// Record pairs an encoded value with the name of its schema type.
type Record struct {
	TypeName string
	Data     []byte
}

// Writer accumulates records and writes them out in one pass.
type Writer struct {
	schemaName string
	records    []Record
}

// NewWriter returns a writer for records of the named schema.
func NewWriter(schemaName string) *Writer {
	return &Writer{schemaName: schemaName}
}

// Add appends a record. The writer borrows |data| until WriteTo.
func (w *Writer) Add(typeName string, data []byte) {
	w.records = append(w.records, Record{TypeName: typeName, Data: data})
}

// Len returns the number of records added so far.
func (w *Writer) Len() int {
	return len(w.records)
}

// WriteTo writes out:
//
//	magic "TWPK1\n"
//	uint32 schema name length, schema name
//	uint32 record count
//
// for each record:
//
//	uint32 type name length, type name
//	uint32 raw length
//	uint32 compressed length
//	uint64 xxhash64 of the raw bytes
//
// then for each record its snappy block. Integers are little endian,
// matching the value encoding.
func (w *Writer) WriteTo(wr io.Writer) (int64, error) {
	comp := make([][]byte, len(w.records))
	for i, rec := range w.records {
		if uint64(len(rec.Data)) > math.MaxUint32 {
			return 0, errors.Errorf("record %d (%s) is too large to pack", i, rec.TypeName)
		}
		comp[i] = snappy.Encode(nil, rec.Data)
	}

	cw := &countingWriter{wr: wr}
	err := writeBytes(cw, []byte(Magic))
	if err == nil {
		err = writeString(cw, w.schemaName)
	}
	if err == nil {
		err = writeUint32(cw, uint32(len(w.records)))
	}
	if err != nil {
		return cw.n, errors.Wrap(err, "writing pack header")
	}

	for i, rec := range w.records {
		err = writeString(cw, rec.TypeName)
		if err == nil {
			err = writeUint32(cw, uint32(len(rec.Data)))
		}
		if err == nil {
			err = writeUint32(cw, uint32(len(comp[i])))
		}
		if err == nil {
			err = writeUint64(cw, xxhash.Sum64(rec.Data))
		}
		if err != nil {
			return cw.n, errors.Wrap(err, "writing pack index")
		}
	}

	for i := range comp {
		if err = writeBytes(cw, comp[i]); err != nil {
			return cw.n, errors.Wrap(err, "writing pack records")
		}
	}
	return cw.n, nil
}

// WriteFile writes the records to a pack file at |path|.
func WriteFile(path, schemaName string, records []Record) (err error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, os.ModePerm)
	if err != nil {
		return errors.Wrap(err, "creating pack file")
	}
	defer func() {
		closeErr := f.Close()
		if err == nil {
			err = closeErr
		}
	}()

	w := NewWriter(schemaName)
	for _, rec := range records {
		w.Add(rec.TypeName, rec.Data)
	}
	_, err = w.WriteTo(f)
	return err
}

// Reader holds the records of a parsed pack file. Checksums and
// lengths are checked during parsing; Verify additionally checks
// every record against its schema type.
type Reader struct {
	schemaName string
	records    []Record
}

type indexEntry struct {
	typeName string
	rawLen   uint32
	compLen  uint32
	sum      uint64
}

// NewReader parses a whole pack file from |rd|. See Writer.WriteTo
// for the layout.
func NewReader(rd io.Reader) (*Reader, error) {
	magic := make([]byte, len(Magic))
	if err := readFull(rd, magic, "pack magic"); err != nil {
		return nil, err
	}
	if !bytes.Equal(magic, []byte(Magic)) {
		return nil, fmt.Errorf("bad magic %q - %w", magic, ErrCorruptPackfile)
	}

	schemaName, err := readString(rd, "schema name")
	if err != nil {
		return nil, err
	}
	count, err := readUint32(rd, "record count")
	if err != nil {
		return nil, err
	}

	entries := make([]indexEntry, count)
	for i := range entries {
		entries[i].typeName, err = readString(rd, "record type name")
		if err == nil {
			entries[i].rawLen, err = readUint32(rd, "record length")
		}
		if err == nil {
			entries[i].compLen, err = readUint32(rd, "record compressed length")
		}
		if err == nil {
			entries[i].sum, err = readUint64(rd, "record checksum")
		}
		if err != nil {
			return nil, err
		}
		max := snappy.MaxEncodedLen(int(entries[i].rawLen))
		if max < 0 || entries[i].compLen > uint32(max) {
			return nil, fmt.Errorf("record %d sizes are implausible - %w", i, ErrCorruptPackfile)
		}
	}

	records := make([]Record, count)
	for i, ent := range entries {
		comp := make([]byte, ent.compLen)
		if err := readFull(rd, comp, "record payload"); err != nil {
			return nil, err
		}
		raw, err := snappy.Decode(nil, comp)
		if err != nil {
			return nil, fmt.Errorf("record %d does not decompress (%v) - %w", i, err, ErrCorruptPackfile)
		}
		if uint64(len(raw)) != uint64(ent.rawLen) {
			return nil, fmt.Errorf("record %d decompressed to %d bytes, index says %d - %w",
				i, len(raw), ent.rawLen, ErrCorruptPackfile)
		}
		if xxhash.Sum64(raw) != ent.sum {
			return nil, fmt.Errorf("checksum mismatch on record %d (%s) - %w",
				i, ent.typeName, ErrCorruptPackfile)
		}
		records[i] = Record{TypeName: ent.typeName, Data: raw}
	}

	var trailer [1]byte
	if _, err := io.ReadFull(rd, trailer[:]); err != io.EOF {
		return nil, fmt.Errorf("trailing bytes after records - %w", ErrCorruptPackfile)
	}

	logrus.Debugf("read pack: schema %q, %d records", schemaName, count)
	return &Reader{schemaName: schemaName, records: records}, nil
}

// ReadFile parses the pack file at |path|.
func ReadFile(path string) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "opening pack file")
	}
	defer f.Close()
	return NewReader(f)
}

// SchemaName returns the schema name recorded in the pack.
func (r *Reader) SchemaName() string {
	return r.schemaName
}

// Len returns the number of records in the pack.
func (r *Reader) Len() int {
	return len(r.records)
}

// Record returns the i'th record. Its data is owned by the reader.
func (r *Reader) Record(i int) Record {
	return r.records[i]
}

// Records returns all records in pack order.
func (r *Reader) Records() []Record {
	return r.records
}

// Verify checks every record against its named type in |reg|,
// fanning the records out across goroutines. Records naming types
// the registry does not declare fail verification.
func (r *Reader) Verify(ctx context.Context, reg *schema.Registry) error {
	if reg.Name() != "" && r.schemaName != "" && reg.Name() != r.schemaName {
		return fmt.Errorf("pack is for schema %q, registry is %q - %w",
			r.schemaName, reg.Name(), ErrSchemaMismatch)
	}

	eg, egCtx := errgroup.WithContext(ctx)
	for i := range r.records {
		rec := r.records[i]
		i := i
		eg.Go(func() error {
			if err := egCtx.Err(); err != nil {
				return err
			}
			t, ok := reg.Lookup(rec.TypeName)
			if !ok {
				return fmt.Errorf("record %d names unknown type %q - %w",
					i, rec.TypeName, ErrCorruptPackfile)
			}
			if err := codec.Verify(t, rec.Data); err != nil {
				return errors.Wrapf(err, "record %d (%s)", i, rec.TypeName)
			}
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return err
	}

	logrus.Debugf("verified pack: %d records against schema %q", len(r.records), reg.Name())
	return nil
}

type countingWriter struct {
	wr io.Writer
	n  int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.wr.Write(p)
	c.n += int64(n)
	return n, err
}

func writeBytes(wr io.Writer, p []byte) error {
	_, err := wr.Write(p)
	return err
}

func writeUint32(wr io.Writer, v uint32) error {
	var b [4]byte
	b[0] = byte(v)
	b[1] = byte(v >> 8)
	b[2] = byte(v >> 16)
	b[3] = byte(v >> 24)
	return writeBytes(wr, b[:])
}

func writeUint64(wr io.Writer, v uint64) error {
	var b [8]byte
	for i := range b {
		b[i] = byte(v >> (8 * i))
	}
	return writeBytes(wr, b[:])
}

func writeString(wr io.Writer, s string) error {
	if err := writeUint32(wr, uint32(len(s))); err != nil {
		return err
	}
	return writeBytes(wr, []byte(s))
}

// readFull fills |p|, mapping the EOFs of a truncated file to
// ErrCorruptPackfile.
func readFull(rd io.Reader, p []byte, what string) error {
	if _, err := io.ReadFull(rd, p); err != nil {
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			return fmt.Errorf("EOF reading %s - %w", what, ErrCorruptPackfile)
		}
		return errors.Wrap(err, "reading "+what)
	}
	return nil
}

func readUint32(rd io.Reader, what string) (uint32, error) {
	var b [4]byte
	if err := readFull(rd, b[:], what); err != nil {
		return 0, err
	}
	return uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16 | uint32(b[3])<<24, nil
}

func readUint64(rd io.Reader, what string) (uint64, error) {
	var b [8]byte
	if err := readFull(rd, b[:], what); err != nil {
		return 0, err
	}
	var v uint64
	for i := range b {
		v |= uint64(b[i]) << (8 * i)
	}
	return v, nil
}

func readString(rd io.Reader, what string) (string, error) {
	n, err := readUint32(rd, what+" length")
	if err != nil {
		return "", err
	}
	if n > maxNameLen {
		return "", fmt.Errorf("%s of %d bytes is implausible - %w", what, n, ErrCorruptPackfile)
	}
	b := make([]byte, n)
	if err := readFull(rd, b, what); err != nil {
		return "", err
	}
	return string(b), nil
}
