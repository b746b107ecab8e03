package workspace

import (
	"sync"
	"time"
)

// progressTicker advances a workspace's simulated upload progress on a fixed
// interval until stopped. The byte transfer is not observable through the
// multipart request, so progress is an approximation capped below 100.
type progressTicker struct {
	stopOnce sync.Once
	stopCh   chan struct{}
	doneCh   chan struct{}
}

// startProgress ticks for the submission identified by gen.
func (w *Workspace) startProgress(gen uint64) *progressTicker {
	p := &progressTicker{
		stopCh: make(chan struct{}),
		doneCh: make(chan struct{}),
	}

	go func() {
		defer close(p.doneCh)

		ticker := time.NewTicker(w.opts.ProgressTick)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				if !w.advanceProgress(gen) {
					return
				}
			case <-p.stopCh:
				return
			}
		}
	}()

	return p
}

// Stop halts the ticker and waits for the goroutine, so no tick can land
// after Stop returns.
func (p *progressTicker) Stop() {
	p.stopOnce.Do(func() { close(p.stopCh) })
	<-p.doneCh
}

// advanceProgress reports whether ticking should continue.
func (w *Workspace) advanceProgress(gen uint64) bool {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.uploadSeq != gen || w.phase != PhaseUploading {
		return false
	}
	if w.progress >= w.opts.ProgressCap {
		return false
	}
	w.progress = min(w.progress+w.opts.ProgressStep, w.opts.ProgressCap)
	return true
}
