package forms

import (
	"context"

	"go.uber.org/zap"
)

// startAsyncLocked supersedes any check in flight for c and, when c has async
// validators and its sync validators pass, issues a new one. Each check is
// tagged with the control's generation; a result whose generation no longer
// matches is dropped.
func (e *Engine) startAsyncLocked(c Control) {
	n := c.base()
	n.stopAsync()
	if len(n.asyncValidators) == 0 || len(n.syncErrors) > 0 || e.closed {
		return
	}

	n.asyncPending = true
	gen := n.asyncGen
	value := c.Value()
	path := PathOf(c)
	validators := append([]AsyncValidator(nil), n.asyncValidators...)

	ctx, cancel := context.WithCancel(e.ctx)
	run := func() {
		go e.runAsync(ctx, cancel, c, gen, path, value, validators)
	}
	if e.asyncDelay <= 0 {
		n.cancelAsync = cancel
		run()
		return
	}
	timer := e.clock.AfterFunc(e.asyncDelay, run)
	n.cancelAsync = func() {
		timer.Stop()
		cancel()
	}
}

func (e *Engine) runAsync(ctx context.Context, cancel context.CancelFunc, c Control, gen uint64, path string, value any, validators []AsyncValidator) {
	defer cancel()
	if ctx.Err() != nil {
		return
	}

	checkCtx := ctx
	if e.asyncTimeout > 0 {
		var stop context.CancelFunc
		checkCtx, stop = context.WithTimeout(ctx, e.asyncTimeout)
		defer stop()
	}

	// validators that ignore ctx must not hold the field pending past the
	// timeout; their late result lands in the buffered channel and is dropped
	done := make(chan asyncOutcome, 1)
	go func() {
		var out asyncOutcome
		for _, validate := range validators {
			res, err := validate(checkCtx, value)
			if err != nil {
				out.err = err
				break
			}
			out.errs = mergeErrors(out.errs, res)
		}
		done <- out
	}()

	var (
		errs    Errors
		failure error
	)
	select {
	case out := <-done:
		errs, failure = out.errs, out.err
		if failure == nil && checkCtx.Err() != nil {
			failure = checkCtx.Err()
		}
	case <-checkCtx.Done():
		failure = checkCtx.Err()
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	n := c.base()
	if e.closed || n.asyncGen != gen {
		e.logger.Debug("discarding stale async result", zap.String("path", path))
		return
	}
	n.asyncPending = false
	n.cancelAsync = nil
	if failure != nil {
		e.logger.Warn("async validation failed", zap.String("path", path), zap.Error(failure))
		errs = Errors{ErrorAsyncUnavailable: failure.Error()}
	}
	n.asyncErrors = errs
	refreshStatus(e.root)
	e.notifyLocked()
}

type asyncOutcome struct {
	errs Errors
	err  error
}
