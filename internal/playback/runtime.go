package playback

import "sync"

// The external player runtime loads once per process. Every engine instance
// awaits the same readiness signal; the loader never runs twice even when
// several event views start concurrently.
var runtimeRegistry struct {
	once sync.Once
	done chan struct{}
	err  error

	mu sync.Mutex
}

// LoadRuntime runs loader exactly once per process (first caller wins) and
// returns a channel that closes when loading finished, successfully or not.
// Check RuntimeErr after the channel closes.
func LoadRuntime(loader func() error) <-chan struct{} {
	runtimeRegistry.mu.Lock()
	if runtimeRegistry.done == nil {
		runtimeRegistry.done = make(chan struct{})
	}
	done := runtimeRegistry.done
	runtimeRegistry.mu.Unlock()

	runtimeRegistry.once.Do(func() {
		go func() {
			err := loader()
			runtimeRegistry.mu.Lock()
			runtimeRegistry.err = err
			runtimeRegistry.mu.Unlock()
			close(done)
		}()
	})
	return done
}

// RuntimeErr reports the loader's result. Only meaningful after the channel
// from LoadRuntime has closed.
func RuntimeErr() error {
	runtimeRegistry.mu.Lock()
	defer runtimeRegistry.mu.Unlock()
	return runtimeRegistry.err
}
