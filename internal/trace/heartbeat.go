package trace

import (
	"runtime"
	"strconv"
	"sync"
	"time"
)

// Heartbeat emits periodic liveness events carrying the number of open
// spans and goroutines. A run of beats with the same open spans and no span
// ends between them points at a unit that never finishes.
type Heartbeat struct {
	tracer   Tracer
	interval time.Duration
	stopCh   chan struct{}
	done     chan struct{}
	stopOnce sync.Once
}

// StartHeartbeat returns nil when tracing is off or interval is not positive.
func StartHeartbeat(tracer Tracer, interval time.Duration) *Heartbeat {
	if tracer == nil || !tracer.Enabled() || interval <= 0 {
		return nil
	}
	h := &Heartbeat{
		tracer:   tracer,
		interval: interval,
		stopCh:   make(chan struct{}),
		done:     make(chan struct{}),
	}
	go h.run()
	return h
}

func (h *Heartbeat) run() {
	defer close(h.done)
	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()

	var beats uint64
	for {
		select {
		case <-ticker.C:
			beats++
			h.beat(beats)
		case <-h.stopCh:
			return
		}
	}
}

func (h *Heartbeat) beat(n uint64) {
	h.tracer.Emit(&Event{
		Time:   time.Now(),
		Seq:    NextSeq(),
		Kind:   KindHeartbeat,
		Scope:  ScopeDriver,
		GID:    getGoroutineID(),
		Name:   "heartbeat",
		Detail: "#" + strconv.FormatUint(n, 10),
		Extra: map[string]string{
			"open_spans": strconv.FormatInt(OpenSpans(), 10),
			"goroutines": strconv.Itoa(runtime.NumGoroutine()),
		},
	})
}

// Stop ends the heartbeat goroutine and waits for it. Safe on a nil
// receiver and when called more than once.
func (h *Heartbeat) Stop() {
	if h == nil {
		return
	}
	h.stopOnce.Do(func() { close(h.stopCh) })
	<-h.done
}
