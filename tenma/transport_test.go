package tenma

import (
	"errors"
	"sync"

	"github.com/stretchr/testify/mock"
)

// scriptedTransport replies to exact payloads. The last queued reply of a
// payload is repeated once the queue is down to one element.
type scriptedTransport struct {
	mu      sync.Mutex
	replies map[string][][]byte
	fail    map[string]error
	writes  []string
	pending []byte
	closed  bool
}

func newScripted() *scriptedTransport {
	return &scriptedTransport{
		replies: map[string][][]byte{},
		fail:    map[string]error{},
	}
}

func (s *scriptedTransport) on(payload string, replies ...string) *scriptedTransport {
	for _, r := range replies {
		s.replies[payload] = append(s.replies[payload], []byte(r))
	}
	return s
}

func (s *scriptedTransport) failOn(payload string, err error) *scriptedTransport {
	s.fail[payload] = err
	return s
}

func (s *scriptedTransport) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return 0, errors.New("closed")
	}

	payload := string(p)
	s.writes = append(s.writes, payload)
	if err := s.fail[payload]; err != nil {
		return 0, err
	}

	if q := s.replies[payload]; len(q) > 0 {
		s.pending = append(s.pending, q[0]...)
		if len(q) > 1 {
			s.replies[payload] = q[1:]
		}
	}
	return len(p), nil
}

func (s *scriptedTransport) ReadAvailable() ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := s.pending
	s.pending = nil
	return out, nil
}

func (s *scriptedTransport) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.closed = true
	return nil
}

func (s *scriptedTransport) written() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	return append([]string(nil), s.writes...)
}

// MockTransport fails the test on any unexpected call.
type MockTransport struct {
	mock.Mock
}

func (m *MockTransport) Write(p []byte) (int, error) {
	args := m.Called(p)
	return args.Int(0), args.Error(1)
}

func (m *MockTransport) ReadAvailable() ([]byte, error) {
	args := m.Called()
	b, _ := args.Get(0).([]byte)
	return b, args.Error(1)
}

func (m *MockTransport) Close() error {
	return m.Called().Error(0)
}

type exchange struct {
	direction string
	data      string
}

type memoryRecorder struct {
	exchanges []exchange
}

func (r *memoryRecorder) Sent(_ string, data []byte) {
	r.exchanges = append(r.exchanges, exchange{direction: ">>", data: string(data)})
}

func (r *memoryRecorder) Received(_ string, data []byte) {
	r.exchanges = append(r.exchanges, exchange{direction: "<<", data: string(data)})
}

func (r *memoryRecorder) Failed(_ string, err error) {
	r.exchanges = append(r.exchanges, exchange{direction: "!!", data: err.Error()})
}

func supply(t Transport, model string, opts ...Option) *PowerSupply {
	p, ok := Lookup(model)
	if !ok {
		panic("unknown model " + model)
	}
	return New("test", t, p, append([]Option{WithSettleDelay(0)}, opts...)...)
}
