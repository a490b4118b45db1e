package hidapi

import (
	"sync"
	"time"
)

// reportPump adapts a blocking native read into timeout-capable reads
// for backends whose driver library has no timed read. One goroutine
// drains the device into a small channel and read selects against a
// timer. Closing the native handle unblocks the pending read, which
// terminates the goroutine.
type reportPump struct {
	frames chan []byte
	done   chan struct{}

	mu  sync.Mutex
	err error

	stopOnce sync.Once
}

func newReportPump(read func() ([]byte, error)) *reportPump {
	p := &reportPump{
		frames: make(chan []byte, 16),
		done:   make(chan struct{}),
	}
	go p.loop(read)
	return p
}

func (p *reportPump) loop(read func() ([]byte, error)) {
	for {
		frame, err := read()
		if err != nil {
			p.mu.Lock()
			p.err = err
			p.mu.Unlock()
			close(p.frames)
			return
		}
		select {
		case p.frames <- frame:
		case <-p.done:
			return
		}
	}
}

// read copies the next report into dst, waiting at most timeout. A
// timeout <= 0 is a poll: a buffered report is delivered immediately,
// otherwise 0 bytes and no error, matching hid_read_timeout with a
// zero timeout. An elapsed timeout likewise yields 0 bytes and no
// error. Buffered reports are still delivered after the device errors;
// the terminal error surfaces once they are drained.
func (p *reportPump) read(dst []byte, timeout time.Duration) (int, error) {
	// empty dst is a liveness probe: consume nothing, report only a
	// terminal pump error
	if len(dst) == 0 {
		return 0, p.lastErr()
	}
	if timeout <= 0 {
		select {
		case frame, ok := <-p.frames:
			if !ok {
				return 0, p.lastErr()
			}
			return copy(dst, frame), nil
		default:
			return 0, nil
		}
	}
	select {
	case frame, ok := <-p.frames:
		if !ok {
			return 0, p.lastErr()
		}
		return copy(dst, frame), nil
	case <-time.After(timeout):
		return 0, nil
	}
}

// readBlocking waits until a report arrives or the device errors.
func (p *reportPump) readBlocking(dst []byte) (int, error) {
	frame, ok := <-p.frames
	if !ok {
		return 0, p.lastErr()
	}
	return copy(dst, frame), nil
}

func (p *reportPump) lastErr() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.err
}

func (p *reportPump) stop() {
	p.stopOnce.Do(func() {
		close(p.done)
	})
}
