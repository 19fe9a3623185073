// Package replay records per-tick agent trajectories as zstd-compressed
// JSON lines and compares recordings to find where two runs diverge.
package replay

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/klauspost/compress/zstd"

	"github.com/talgya/townfolk/internal/clock"
	"github.com/talgya/townfolk/internal/engine"
)

// Position is one agent's place and state at the end of a tick.
type Position struct {
	ID    uint64 `json:"id"`
	X     int    `json:"x"`
	Y     int    `json:"y"`
	State string `json:"state"`
}

// Frame is one tick's trajectory entry.
type Frame struct {
	Tick   uint64     `json:"tick"`
	Time   clock.Time `json:"time"`
	Moved  int        `json:"moved"`
	Nudged int        `json:"nudged"`
	Agents []Position `json:"agents"`
}

// FrameOf captures the simulation after the tick described by r.
func FrameOf(sim *engine.Simulation, r engine.TickReport) Frame {
	f := Frame{
		Tick:   r.Tick,
		Time:   r.Time,
		Moved:  r.Moved,
		Nudged: r.Nudged,
		Agents: make([]Position, len(sim.Agents)),
	}
	for i, a := range sim.Agents {
		f.Agents[i] = Position{ID: uint64(a.ID), X: a.Pos.X, Y: a.Pos.Y, State: a.State.String()}
	}
	return f
}

// Writer appends frames to a zstd-compressed JSONL stream.
type Writer struct {
	mu  sync.Mutex
	f   *os.File // Set when the writer owns the file
	enc *zstd.Encoder
	w   *bufio.Writer
}

// NewWriter writes frames to dst. Close flushes the compressor but does not
// close dst.
func NewWriter(dst io.Writer) (*Writer, error) {
	enc, err := zstd.NewWriter(dst, zstd.WithEncoderLevel(zstd.SpeedFastest))
	if err != nil {
		return nil, fmt.Errorf("replay: new encoder: %w", err)
	}
	return &Writer{enc: enc, w: bufio.NewWriterSize(enc, 128*1024)}, nil
}

// Create opens path for writing, replacing any earlier recording.
func Create(path string) (*Writer, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("replay: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("replay: %w", err)
	}
	w, err := NewWriter(f)
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	w.f = f
	return w, nil
}

// Write appends one frame.
func (w *Writer) Write(fr Frame) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.w == nil {
		return errors.New("replay: write on closed writer")
	}
	b, err := json.Marshal(fr)
	if err != nil {
		return fmt.Errorf("replay: encode tick %d: %w", fr.Tick, err)
	}
	if _, err := w.w.Write(b); err != nil {
		return err
	}
	return w.w.WriteByte('\n')
}

// Close flushes buffered frames and ends the compressed stream.
func (w *Writer) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	var errs []error
	if w.w != nil {
		errs = append(errs, w.w.Flush())
		w.w = nil
	}
	if w.enc != nil {
		errs = append(errs, w.enc.Close())
		w.enc = nil
	}
	if w.f != nil {
		errs = append(errs, w.f.Close())
		w.f = nil
	}
	return errors.Join(errs...)
}

// Read decodes every frame in a recording.
func Read(r io.Reader) ([]Frame, error) {
	dec, err := zstd.NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("replay: new decoder: %w", err)
	}
	defer dec.Close()

	var frames []Frame
	sc := bufio.NewScanner(dec)
	sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	for sc.Scan() {
		if len(sc.Bytes()) == 0 {
			continue
		}
		var fr Frame
		if err := json.Unmarshal(sc.Bytes(), &fr); err != nil {
			return frames, fmt.Errorf("replay: decode frame %d: %w", len(frames), err)
		}
		frames = append(frames, fr)
	}
	if err := sc.Err(); err != nil {
		return frames, fmt.Errorf("replay: read: %w", err)
	}
	return frames, nil
}

// ReadFile decodes the recording at path.
func ReadFile(path string) ([]Frame, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("replay: %w", err)
	}
	defer f.Close()
	return Read(f)
}

// Diff compares two recordings frame by frame and returns the tick of the
// first frame whose agents differ. A recording that ends early differs at
// the first tick the other one has and it lacks. ok is false when the
// recordings match.
func Diff(a, b []Frame) (tick uint64, ok bool) {
	n := min(len(a), len(b))
	for i := 0; i < n; i++ {
		if !sameFrame(a[i], b[i]) {
			return a[i].Tick, true
		}
	}
	switch {
	case len(a) > n:
		return a[n].Tick, true
	case len(b) > n:
		return b[n].Tick, true
	}
	return 0, false
}

func sameFrame(a, b Frame) bool {
	if a.Tick != b.Tick || a.Time != b.Time || len(a.Agents) != len(b.Agents) {
		return false
	}
	for i := range a.Agents {
		if a.Agents[i] != b.Agents[i] {
			return false
		}
	}
	return true
}
