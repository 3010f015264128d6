package service

import (
	"context"
	"sync"
)

type Syncher interface {
	Wait() error
}

// Signal is a Syncher set once.
type Signal struct {
	once sync.Once
	ch   chan struct{}
	err  error
}

var _ Syncher = (*Signal)(nil)

func NewSignal() *Signal {
	return &Signal{ch: make(chan struct{})}
}

// Done sets the signal. Only the first call is effective.
func (s *Signal) Done(err error) {
	s.once.Do(func() {
		s.err = err
		close(s.ch)
	})
}

func (s *Signal) Wait() error {
	<-s.ch
	return s.err
}

// Func provides a service executing the given function.
// It is ready immediately.
func Func(name string, f func(ctx context.Context) error) Service {
	return &function{name: name, run: f}
}

type function struct {
	name string
	run  func(ctx context.Context) error
}

func (f *function) Name() string {
	return f.name
}

func (f *function) Start(ctx context.Context) (Syncher, Syncher, error) {
	done := NewSignal()
	go func() {
		done.Done(f.run(ctx))
	}()
	return nil, done, nil
}
