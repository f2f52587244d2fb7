package utils

import (
	"sync"
	"time"
)

// Debounce delays fn until wait has passed without another call. With
// immediate set, fn runs synchronously on the first call of a burst instead
// and later calls within wait only extend the quiet period. cancel stops a
// pending invocation.
func Debounce(fn func(), wait time.Duration, immediate bool) (call func(), cancel func()) {
	var (
		mu    sync.Mutex
		timer *time.Timer
		gen   uint64
	)

	call = func() {
		mu.Lock()
		runNow := immediate && timer == nil
		if timer != nil {
			timer.Stop()
		}
		gen++
		mine := gen
		timer = time.AfterFunc(wait, func() {
			mu.Lock()
			if mine != gen {
				mu.Unlock()
				return
			}
			timer = nil
			mu.Unlock()
			if !immediate {
				fn()
			}
		})
		mu.Unlock()

		if runNow {
			fn()
		}
	}

	cancel = func() {
		mu.Lock()
		defer mu.Unlock()
		if timer != nil {
			timer.Stop()
			timer = nil
		}
		gen++
	}
	return call, cancel
}
