package capture

import (
	"errors"
	"os"
	"sync"
	"time"

	"github.com/fxamacker/cbor/v2"
	"github.com/google/uuid"
)

// FileRecorder appends exchanges to a capture file.
// Every recorder gets its own session ID so several runs can share a file.
type FileRecorder struct {
	mu      sync.Mutex
	session string
	file    *os.File
	encoder *cbor.Encoder
	err     error // first write failure, reported by Close
	closed  bool
}

// NewFileRecorder opens (or creates) the capture file in append mode.
func NewFileRecorder(path string) (*FileRecorder, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, err
	}

	return &FileRecorder{
		session: uuid.NewString(),
		file:    f,
		encoder: encMode.NewEncoder(f),
	}, nil
}

func (r *FileRecorder) SessionID() string {
	return r.session
}

func (r *FileRecorder) Sent(port string, data []byte) {
	r.record(Event{Port: port, Direction: DirectionOut, Data: data})
}

func (r *FileRecorder) Received(port string, data []byte) {
	r.record(Event{Port: port, Direction: DirectionIn, Data: data})
}

func (r *FileRecorder) Failed(port string, err error) {
	r.record(Event{Port: port, Direction: DirectionError, Error: err.Error()})
}

func (r *FileRecorder) record(e Event) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return
	}

	e.Timestamp = time.Now()
	e.SessionID = r.session
	e.Data = append([]byte(nil), e.Data...)

	// A capture must never break the exchange with the unit.
	if err := r.encoder.Encode(e); err != nil && r.err == nil {
		r.err = err
	}
}

// Close returns the first write failure of the session, if any.
// It is safe to call several times.
func (r *FileRecorder) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return nil
	}

	r.closed = true
	return errors.Join(r.err, r.file.Close())
}
