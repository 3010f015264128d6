package service

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/mandelsoft/dbinit/pkg/ctxutil"
)

// Service is a long running activity. The ready syncher
// may be nil if the service is ready immediately.
type Service interface {
	Name() string
	Start(ctx context.Context) (ready Syncher, done Syncher, err error)
}

// Group runs a set of services sharing a common lifetime.
// The first service finishing cancels all others.
type Group struct {
	lock sync.Mutex
	ctx  context.Context
	wg   sync.WaitGroup
	errs []error
}

func NewGroup(ctx context.Context) *Group {
	return &Group{
		ctx: ctxutil.CancelContext(ctx),
	}
}

func (g *Group) Context() context.Context {
	return g.ctx
}

// Start starts the given services and waits until all
// of them are ready. If a service fails to start,
// the group is cancelled.
func (g *Group) Start(list ...Service) error {
	var ready []Syncher
	for _, s := range list {
		r, done, err := s.Start(g.ctx)
		if err == nil && done == nil {
			err = fmt.Errorf("no done syncher")
		}
		if err != nil {
			g.abort()
			return fmt.Errorf("service %s: %w", s.Name(), err)
		}
		log.Debug("service {{service}} started", "service", s.Name())
		g.watch(s, done)
		if r != nil {
			ready = append(ready, r)
		}
	}

	for _, r := range ready {
		if err := r.Wait(); err != nil {
			g.abort()
			return err
		}
	}
	return nil
}

func (g *Group) watch(s Service, done Syncher) {
	g.wg.Add(1)
	go func() {
		defer g.wg.Done()
		err := done.Wait()
		if err != nil {
			log.LogError(err, "service {{service}} failed", "service", s.Name())
			g.lock.Lock()
			g.errs = append(g.errs, fmt.Errorf("service %s: %w", s.Name(), err))
			g.lock.Unlock()
		} else {
			log.Debug("service {{service}} finished", "service", s.Name())
		}
		g.Cancel()
	}()
}

func (g *Group) abort() {
	g.Cancel()
	g.wg.Wait()
}

func (g *Group) Cancel() {
	ctxutil.Cancel(g.ctx)
}

// Wait waits until all started services are finished.
func (g *Group) Wait() error {
	g.wg.Wait()
	g.lock.Lock()
	defer g.lock.Unlock()
	return errors.Join(g.errs...)
}
