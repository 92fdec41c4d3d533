package transcribe

import (
	"io"
	"sync"
)

// ResultStream is a pull-based alternative to callback subscription.
// Events pushed for the watched identifier are buffered and handed out
// by Next in arrival order.
type ResultStream struct {
	id     int64
	cancel func()

	mu     sync.Mutex
	buf    []Transcription
	done   bool
	err    error
	notify chan struct{}
}

// Watch subscribes to a transcription identifier and returns a stream
// of its events. The stream terminates with the final event followed by
// io.EOF, or with the failure that resolved the subscription. For
// unauthorized or bot sessions the stream is already terminated.
func (m *Manager) Watch(id int64) *ResultStream {
	s := &ResultStream{
		id:     id,
		notify: make(chan struct{}, 1),
	}
	s.cancel = func() { m.Fail(id, ErrCanceled) }

	if !m.allowed() {
		s.done = true
		s.err = &RequestError{ID: id, Err: ErrClosed}
		return s
	}
	m.Subscribe(id, s.push)
	return s
}

// push is the subscription handler feeding the stream.
func (s *ResultStream) push(res Transcription, err error) {
	s.mu.Lock()
	if s.done {
		s.mu.Unlock()
		return
	}
	if err != nil {
		s.done = true
		s.err = err
	} else {
		s.buf = append(s.buf, res)
		if !res.Pending {
			s.done = true
		}
	}
	s.mu.Unlock()

	select {
	case s.notify <- struct{}{}:
	default:
	}
}

// Next returns the next event. After the final event it returns io.EOF;
// after a failure it returns the failure. Next blocks until an event
// arrives; the fixed deadline guarantees it terminates.
func (s *ResultStream) Next() (Transcription, error) {
	for {
		s.mu.Lock()
		if len(s.buf) > 0 {
			res := s.buf[0]
			s.buf = s.buf[1:]
			s.mu.Unlock()
			return res, nil
		}
		if s.done {
			err := s.err
			s.mu.Unlock()
			if err == nil {
				err = io.EOF
			}
			return Transcription{}, err
		}
		s.mu.Unlock()

		<-s.notify
	}
}

// Close cancels the watch if it is still pending. Events already
// buffered remain readable.
func (s *ResultStream) Close() error {
	s.mu.Lock()
	done := s.done
	s.mu.Unlock()

	if !done {
		s.cancel()
	}
	return nil
}
