package docstore

import (
	"context"
	"time"
)

// signal wakes a watcher without blocking.  notify channels have a buffer of
// one so bursts of changes collapse into a single reload.
func signal(notify chan struct{}) {
	select {
	case notify <- struct{}{}:
	default:
	}
}

// watch emits a snapshot produced by load right away and again after every
// signal on notify, until ctx is done.  Changes that land while a snapshot is
// being read or delivered collapse into one more reload, so a slow reader
// always catches up with the latest state instead of replaying history.
func watch(ctx context.Context, load func(context.Context) ([]Document, error), notify <-chan struct{}, stop func()) <-chan Snapshot {
	out := make(chan Snapshot)
	go func() {
		defer close(out)
		if stop != nil {
			defer stop()
		}
		for {
			docs, err := load(ctx)
			if ctx.Err() != nil {
				return
			}
			select {
			case out <- Snapshot{Docs: docs, Err: err}:
			case <-ctx.Done():
				return
			}
			select {
			case <-notify:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out
}

// poll signals notify every interval until ctx is done.
func poll(ctx context.Context, interval time.Duration, notify chan struct{}) {
	if interval <= 0 {
		interval = 2 * time.Second
	}
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-t.C:
			signal(notify)
		case <-ctx.Done():
			return
		}
	}
}
