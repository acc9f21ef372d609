package testutil

import (
	"context"
	"strings"
	"sync"

	"github.com/dalemusser/stratagate/internal/app/system/mailer"
)

// FakeSender records emails instead of sending them.
type FakeSender struct {
	mu   sync.Mutex
	sent []mailer.Email
	err  error
}

// NewFakeSender creates a FakeSender that accepts every email.
func NewFakeSender() *FakeSender {
	return &FakeSender{}
}

// Fail makes subsequent sends return err without recording the email.
func (s *FakeSender) Fail(err error) {
	s.mu.Lock()
	s.err = err
	s.mu.Unlock()
}

func (s *FakeSender) Send(ctx context.Context, e mailer.Email) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.sent = append(s.sent, e)
	return nil
}

// Sent returns a copy of the recorded emails.
func (s *FakeSender) Sent() []mailer.Email {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]mailer.Email(nil), s.sent...)
}

// Last returns the most recently recorded email.
func (s *FakeSender) Last() (mailer.Email, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.sent) == 0 {
		return mailer.Email{}, false
	}
	return s.sent[len(s.sent)-1], true
}

// WithSubject returns recorded emails whose subject contains substr.
func (s *FakeSender) WithSubject(substr string) []mailer.Email {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []mailer.Email
	for _, e := range s.sent {
		if strings.Contains(e.Subject, substr) {
			out = append(out, e)
		}
	}
	return out
}
