package telemetry

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/zstd"
)

// TraceVersion is incremented when the trace format changes.
const TraceVersion = 1

// TraceHeader is the first line of a frame trace. It carries everything
// needed to rerun the simulation that produced the trace.
type TraceHeader struct {
	Version int    `json:"version"`
	// RunID is random per run and is deliberately not part of Frame, so a
	// replay compares equal frame by frame.
	RunID   string `json:"run_id"`
	Seed    int64  `json:"seed"`
	Every   int    `json:"every"`  // frames between recorded frames
	Config  string `json:"config"` // effective config as YAML
}

// TraceWriter writes a zstd-compressed JSONL frame trace:
// one header line followed by one line per recorded frame.
type TraceWriter struct {
	f     *os.File
	enc   *zstd.Encoder
	w     *bufio.Writer
	every int32
}

// CreateTrace creates a trace file at path and writes its header.
func CreateTrace(path string, header TraceHeader) (*TraceWriter, error) {
	if header.Every < 1 {
		header.Every = 1
	}
	header.Version = TraceVersion

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating trace dir: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("creating trace: %w", err)
	}
	enc, err := zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedFastest))
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("zstd writer: %w", err)
	}

	tw := &TraceWriter{
		f:     f,
		enc:   enc,
		w:     bufio.NewWriterSize(enc, 128*1024),
		every: int32(header.Every),
	}
	if err := tw.writeLine(header); err != nil {
		_ = tw.Close()
		return nil, fmt.Errorf("writing trace header: %w", err)
	}
	return tw, nil
}

// WriteFrame records the frame if it falls on the trace interval.
func (tw *TraceWriter) WriteFrame(frame Frame) error {
	if frame.Frame%tw.every != 0 {
		return nil
	}
	return tw.writeLine(frame)
}

func (tw *TraceWriter) writeLine(v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	if _, err := tw.w.Write(b); err != nil {
		return err
	}
	return tw.w.WriteByte('\n')
}

// Close flushes buffered frames and closes the file.
func (tw *TraceWriter) Close() error {
	var errs []error
	if tw.w != nil {
		errs = append(errs, tw.w.Flush())
		tw.w = nil
	}
	if tw.enc != nil {
		errs = append(errs, tw.enc.Close())
		tw.enc = nil
	}
	if tw.f != nil {
		errs = append(errs, tw.f.Close())
		tw.f = nil
	}
	return errors.Join(errs...)
}

// TraceReader reads a frame trace written by TraceWriter.
type TraceReader struct {
	f      *os.File
	dec    *zstd.Decoder
	sc     *bufio.Scanner
	header TraceHeader
}

// OpenTrace opens a trace and reads its header.
func OpenTrace(path string) (*TraceReader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening trace: %w", err)
	}
	dec, err := zstd.NewReader(f)
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("zstd reader: %w", err)
	}

	sc := bufio.NewScanner(dec)
	sc.Buffer(make([]byte, 64*1024), 8*1024*1024)
	tr := &TraceReader{f: f, dec: dec, sc: sc}

	if !sc.Scan() {
		err := sc.Err()
		if err == nil {
			err = io.ErrUnexpectedEOF
		}
		tr.Close()
		return nil, fmt.Errorf("reading trace header: %w", err)
	}
	if err := json.Unmarshal(sc.Bytes(), &tr.header); err != nil {
		tr.Close()
		return nil, fmt.Errorf("parsing trace header: %w", err)
	}
	if tr.header.Version != TraceVersion {
		tr.Close()
		return nil, fmt.Errorf("trace version %d, want %d", tr.header.Version, TraceVersion)
	}
	return tr, nil
}

// Header returns the trace header.
func (tr *TraceReader) Header() TraceHeader {
	return tr.header
}

// Next returns the next recorded frame, or io.EOF after the last one.
func (tr *TraceReader) Next() (Frame, error) {
	if !tr.sc.Scan() {
		if err := tr.sc.Err(); err != nil {
			return Frame{}, err
		}
		return Frame{}, io.EOF
	}
	var frame Frame
	if err := json.Unmarshal(tr.sc.Bytes(), &frame); err != nil {
		return Frame{}, fmt.Errorf("parsing frame: %w", err)
	}
	return frame, nil
}

// Close releases the decoder and file.
func (tr *TraceReader) Close() error {
	tr.dec.Close()
	return tr.f.Close()
}
