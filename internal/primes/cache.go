package primes

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// ErrShortCache is returned when the cache file holds fewer primes than requested.
var ErrShortCache = errors.New("cache holds fewer primes than requested")

// Load reads the first count primes from a cache file of raw little-endian
// uint32 values. Extra trailing entries are ignored. A short or structurally
// invalid file is an error, so callers can fall back to regeneration.
func Load(path string, count int) (Table, error) {
	if count <= 0 || count > MaxPrimes {
		return nil, fmt.Errorf("invalid prime count %d", count)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	buf := make([]byte, 4*count)
	n, err := io.ReadFull(bufio.NewReader(f), buf)
	if err != nil {
		if errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: found %d of %d", ErrShortCache, n/4, count)
		}
		return nil, fmt.Errorf("failed to read prime cache: %w", err)
	}

	table := make(Table, count)
	for i := range table {
		table[i] = binary.LittleEndian.Uint32(buf[4*i:])
	}
	if err := table.Validate(); err != nil {
		return nil, fmt.Errorf("invalid prime cache: %w", err)
	}
	return table, nil
}

// Save writes the table to path, replacing any existing file. The data is
// written to a temporary file in the same directory and renamed into place.
func Save(path string, table Table) error {
	if len(table) == 0 {
		return ErrEmptyTable
	}
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create prime cache: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) // no-op after a successful rename

	w := bufio.NewWriter(tmp)
	var word [4]byte
	for _, p := range table {
		binary.LittleEndian.PutUint32(word[:], p)
		if _, err := w.Write(word[:]); err != nil {
			tmp.Close()
			return fmt.Errorf("failed to write prime cache: %w", err)
		}
	}
	if err := w.Flush(); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write prime cache: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write prime cache: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("failed to install prime cache: %w", err)
	}
	return nil
}
