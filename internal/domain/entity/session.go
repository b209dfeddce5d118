package entity

import (
	"errors"
	"fmt"
	"sync"
)

type SessionState string

const (
	SessionIdle       SessionState = "idle"
	SessionProcessing SessionState = "processing"
	SessionSuccess    SessionState = "success"
	SessionError      SessionState = "error"
)

var ErrAttemptInFlight = errors.New("an extraction attempt is already in flight")

// Session tracks one caller's attempts. It holds at most one outcome, either a
// result or an error, and only one attempt may be in flight at a time.
type Session struct {
	mu     sync.Mutex
	state  SessionState
	file   string
	result *ExtractionResult
	err    error
}

func NewSession() *Session {
	return &Session{state: SessionIdle}
}

func (s *Session) State() SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Start moves the session to processing and discards any previous outcome.
func (s *Session) Start(fileName string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == SessionProcessing {
		return ErrAttemptInFlight
	}
	s.state = SessionProcessing
	s.file = fileName
	s.result = nil
	s.err = nil
	return nil
}

func (s *Session) Succeed(res *ExtractionResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != SessionProcessing {
		return fmt.Errorf("succeed from state %s", s.state)
	}
	if res == nil {
		return errors.New("succeed with nil result")
	}
	s.state = SessionSuccess
	s.result = res
	return nil
}

func (s *Session) Fail(err error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != SessionProcessing {
		return fmt.Errorf("fail from state %s", s.state)
	}
	if err == nil {
		return errors.New("fail with nil error")
	}
	s.state = SessionError
	s.err = err
	return nil
}

// Reset discards the current outcome and returns to idle.
func (s *Session) Reset() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == SessionProcessing {
		return ErrAttemptInFlight
	}
	s.state = SessionIdle
	s.file = ""
	s.result = nil
	s.err = nil
	return nil
}

// Outcome returns the stored result and error. At most one is non-nil.
func (s *Session) Outcome() (*ExtractionResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.result, s.err
}

func (s *Session) FileName() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.file
}
