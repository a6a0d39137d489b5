// Package stream reads files in bounded chunks and applies a caller-supplied
// content predicate incrementally. It guarantees bounded memory regardless
// of file size and never splits a complete line across predicate calls.
package stream

import (
	"bytes"
	"errors"
	"io"
	"os"

	"github.com/standardbeagle/findql/internal/alloc"
	"github.com/standardbeagle/findql/internal/debug"
	ferrors "github.com/standardbeagle/findql/internal/errors"
	"github.com/standardbeagle/findql/internal/types"
)

// Matcher decides whether a piece of content matches. It must depend only
// on the text it is given; the processor may call it on raw chunks, on
// newline-terminated buffer prefixes, and on the final remainder.
type Matcher func(content []byte) bool

// LineMatcher decides whether a single line matches.
type LineMatcher func(line []byte) bool

// Options bounds one processing run.
type Options struct {
	ChunkSize        int   // read size; 0 uses the default
	MaxFileSize      int64 // files larger than this are rejected; 0 uses the default
	EarlyTermination bool  // stop at the first matching chunk
	MaxMatchedChunks int   // diagnostic chunk cap; 0 uses the default
}

// DefaultMaxMatchedChunks bounds the diagnostic chunk list.
const DefaultMaxMatchedChunks = 16

func (o Options) withDefaults() Options {
	if o.ChunkSize <= 0 {
		o.ChunkSize = types.DefaultChunkSize
	}
	if o.MaxFileSize <= 0 {
		o.MaxFileSize = types.DefaultMaxFileSize
	}
	if o.MaxMatchedChunks <= 0 {
		o.MaxMatchedChunks = DefaultMaxMatchedChunks
	}
	return o
}

// Result reports one file's processing outcome. Err carries per-file I/O
// failures; partial results gathered before the failure are retained.
type Result struct {
	Matched       bool
	MatchedChunks [][]byte // diagnostic copies of matching chunks; nil with early termination
	Err           error
}

// MatchedLine is one matching line with its byte offset in the file.
type MatchedLine struct {
	Line   string
	Offset int64
}

// LinesResult reports a line-extraction run.
type LinesResult struct {
	Lines     []MatchedLine
	Truncated bool // the line cap was hit and scanning stopped
	Err       error
}

// ProcessInChunks evaluates matcher against the file at path without ever
// holding more than the accumulation cap in memory. Files smaller than one
// chunk are read whole; larger files stream.
func ProcessInChunks(path string, matcher Matcher, opts Options) Result {
	opts = opts.withDefaults()

	info, err := os.Stat(path)
	if err != nil {
		return Result{Err: ferrors.NewFileError("stat", path, err)}
	}
	if info.Size() > opts.MaxFileSize {
		return Result{Err: ferrors.NewContentTooLargeError(path, info.Size(), opts.MaxFileSize)}
	}

	if info.Size() < int64(opts.ChunkSize) {
		content, err := os.ReadFile(path)
		if err != nil {
			return Result{Err: ferrors.NewFileError("read", path, err)}
		}
		return Result{Matched: matcher(content)}
	}

	return streamFile(path, matcher, opts)
}

// streamFile is the large-file path: read chunkwise, check each raw chunk
// first for a cheap early hit, and keep a line-safe accumulation buffer.
func streamFile(path string, matcher Matcher, opts Options) Result {
	f, err := os.Open(path)
	if err != nil {
		return Result{Err: ferrors.NewFileError("open", path, err)}
	}
	// Close exactly once on every exit: match, EOF, or error.
	defer f.Close()

	var (
		res   Result
		buf   []byte
		chunk = alloc.Buffers.Get(opts.ChunkSize)[:opts.ChunkSize]
	)
	defer alloc.Buffers.Put(chunk)

	for {
		n, err := f.Read(chunk)
		if n > 0 {
			data := chunk[:n]

			// Cheap early hit on the raw chunk
			if matcher(data) {
				if opts.EarlyTermination {
					res.Matched = true
					return res
				}
				res.Matched = true
				res.MatchedChunks = appendChunk(res.MatchedChunks, data, opts.MaxMatchedChunks)
			}

			buf = append(buf, data...)
			if len(buf) > types.StreamBufferCap {
				buf = splitAtLastNewline(buf, matcher, opts, &res)
			}
		}

		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			res.Err = ferrors.NewFileError("read", path, err)
			return res
		}
	}

	// Final flush: whatever remains is a complete trailing segment
	if !res.Matched && len(buf) > 0 && matcher(buf) {
		res.Matched = true
	}
	return res
}

// splitAtLastNewline scans the newline-terminated prefix of an overfull
// buffer and retains only the remainder after that newline, so a line
// spanning two chunks is always seen whole exactly once. When the buffer
// holds no newline at all it is scanned and dropped wholesale; a single
// "line" larger than the cap cannot be preserved within bounded memory.
func splitAtLastNewline(buf []byte, matcher Matcher, opts Options, res *Result) []byte {
	idx := bytes.LastIndexByte(buf, '\n')
	if idx < 0 {
		debug.LogStream("buffer cap hit with no newline, scanning %d bytes and resetting\n", len(buf))
		if !res.Matched && !opts.EarlyTermination && matcher(buf) {
			res.Matched = true
		}
		return buf[:0]
	}

	if !res.Matched && !opts.EarlyTermination && matcher(buf[:idx+1]) {
		res.Matched = true
	}

	rest := buf[idx+1:]
	// Move the remainder to the front so the backing array is reused
	n := copy(buf, rest)
	return buf[:n]
}

// appendChunk copies data into the diagnostic list, respecting the cap.
// Chunks must be copied because the read buffer is reused.
func appendChunk(chunks [][]byte, data []byte, limit int) [][]byte {
	if len(chunks) >= limit {
		return chunks
	}
	return append(chunks, append([]byte(nil), data...))
}

// ExtractMatchedLines behaves like ProcessInChunks but applies a per-line
// predicate and returns every matching line with its byte offset, capped at
// the configured maximum to bound memory on pathological inputs.
func ExtractMatchedLines(path string, matcher LineMatcher, opts Options) LinesResult {
	opts = opts.withDefaults()

	info, err := os.Stat(path)
	if err != nil {
		return LinesResult{Err: ferrors.NewFileError("stat", path, err)}
	}
	if info.Size() > opts.MaxFileSize {
		return LinesResult{Err: ferrors.NewContentTooLargeError(path, info.Size(), opts.MaxFileSize)}
	}

	f, err := os.Open(path)
	if err != nil {
		return LinesResult{Err: ferrors.NewFileError("open", path, err)}
	}
	defer f.Close()

	var (
		res      LinesResult
		buf      []byte
		offset   int64
		skipping bool // inside a line too long to buffer; drop until newline
		chunk    = make([]byte, opts.ChunkSize)
	)

	emit := func(line []byte, lineOffset int64) bool {
		if !matcher(line) {
			return true
		}
		res.Lines = append(res.Lines, MatchedLine{Line: string(line), Offset: lineOffset})
		if len(res.Lines) >= types.MaxExtractedLines {
			res.Truncated = true
			return false
		}
		return true
	}

	for {
		n, err := f.Read(chunk)
		if n > 0 {
			buf = append(buf, chunk[:n]...)
			for {
				idx := bytes.IndexByte(buf, '\n')
				if idx < 0 {
					break
				}
				if skipping {
					// Tail fragment of an over-cap line; not a real line,
					// never handed to the matcher.
					skipping = false
				} else if !emit(buf[:idx], offset) {
					return res
				}
				offset += int64(idx + 1)
				buf = buf[idx+1:]
			}
			// A line longer than the cap cannot be buffered whole within
			// bounded memory; drop what we have and keep dropping until
			// its terminating newline.
			if len(buf) > types.StreamBufferCap {
				debug.LogStream("line exceeds buffer cap at offset %d, skipping %d bytes\n", offset, len(buf))
				offset += int64(len(buf))
				buf = buf[:0]
				skipping = true
			}
		}

		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			res.Err = ferrors.NewFileError("read", path, err)
			return res
		}
	}

	if len(buf) > 0 && !skipping {
		emit(buf, offset)
	}
	return res
}
