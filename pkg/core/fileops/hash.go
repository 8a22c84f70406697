package fileops

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
)

const (
	// osdbHashChunkSize is the size of the chunk read from the start and end of the file.
	osdbHashChunkSize = 65536 // 64 * 1024
)

// ErrEmptyFile is returned when hashing a zero-length file.
var ErrEmptyFile = errors.New("file is empty")

// checksumBuffer calculates the sum of 64-bit little-endian integers in the buffer.
// A trailing partial word is ignored.
func checksumBuffer(buf []byte) (sum uint64) {
	for i := 0; i+8 <= len(buf); i += 8 {
		sum += binary.LittleEndian.Uint64(buf[i : i+8])
	}
	return
}

// ComputeOSDbHash calculates the OpenSubtitles movie hash over r: the file
// size plus the word sums of the first and last 64 KiB. Files smaller than
// 64 KiB hash the whole content as both chunks.
func ComputeOSDbHash(r io.ReaderAt, size int64) (string, error) {
	if size <= 0 {
		return "", ErrEmptyFile
	}

	chunk := int64(osdbHashChunkSize)
	if size < chunk {
		chunk = size
	}

	buf := make([]byte, chunk)
	if _, err := r.ReadAt(buf, 0); err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("failed to read start chunk: %w", err)
	}
	head := checksumBuffer(buf)

	if _, err := r.ReadAt(buf, size-chunk); err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("failed to read end chunk: %w", err)
	}
	tail := checksumBuffer(buf)

	// uint64 overflow is part of the algorithm
	return fmt.Sprintf("%016x", uint64(size)+head+tail), nil
}

// CalculateOSDbHash calculates the OpenSubtitles movie hash of a file on disk.
// Based on the algorithm described at: http://trac.opensubtitles.org/projects/opensubtitles/wiki/HashSourceCodes
func CalculateOSDbHash(filePath string) (hash string, byteSize int64, err error) {
	file, err := os.Open(filePath)
	if err != nil {
		return "", 0, fmt.Errorf("failed to open file for OSDb hashing '%s': %w", filePath, err)
	}
	defer file.Close()

	stat, err := file.Stat()
	if err != nil {
		return "", 0, fmt.Errorf("failed to stat file '%s': %w", filePath, err)
	}
	byteSize = stat.Size()

	hash, err = ComputeOSDbHash(file, byteSize)
	if err != nil {
		return "", byteSize, fmt.Errorf("failed to hash '%s': %w", filePath, err)
	}
	return hash, byteSize, nil
}
