package hidapi

import (
	"bytes"
	"errors"
	"io"
	"testing"
	"time"
)

func TestReportPumpDelivery(t *testing.T) {
	src := make(chan []byte, 2)
	src <- []byte{1, 2, 3}
	src <- []byte{4, 5}

	p := newReportPump(func() ([]byte, error) {
		frame, ok := <-src
		if !ok {
			return nil, io.EOF
		}
		return frame, nil
	})
	defer p.stop()
	defer close(src)

	buf := make([]byte, 8)
	n, err := p.readBlocking(buf)
	if err != nil || !bytes.Equal(buf[:n], []byte{1, 2, 3}) {
		t.Fatalf("read = %v (%v)", buf[:n], err)
	}
	n, err = p.read(buf, time.Second)
	if err != nil || !bytes.Equal(buf[:n], []byte{4, 5}) {
		t.Fatalf("read = %v (%v)", buf[:n], err)
	}
}

func TestReportPumpTimeout(t *testing.T) {
	block := make(chan struct{})
	p := newReportPump(func() ([]byte, error) {
		<-block
		return nil, io.EOF
	})
	defer func() {
		close(block)
		p.stop()
	}()

	start := time.Now()
	n, err := p.read(make([]byte, 8), 50*time.Millisecond)
	if err != nil {
		t.Fatalf("timeout is not an error: %v", err)
	}
	if n != 0 {
		t.Fatalf("expected no data, got %d bytes", n)
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Fatalf("timed read took %v", elapsed)
	}
}

func TestReportPumpZeroTimeoutPolls(t *testing.T) {
	src := make(chan []byte, 1)
	p := newReportPump(func() ([]byte, error) {
		frame, ok := <-src
		if !ok {
			return nil, io.EOF
		}
		return frame, nil
	})
	defer p.stop()
	defer close(src)

	// nothing buffered: the poll comes back empty right away
	buf := make([]byte, 8)
	start := time.Now()
	n, err := p.read(buf, 0)
	if err != nil || n != 0 {
		t.Fatalf("poll = %d bytes (%v)", n, err)
	}
	if elapsed := time.Since(start); elapsed > 100*time.Millisecond {
		t.Fatalf("poll took %v", elapsed)
	}

	// once a report is buffered the poll delivers it
	src <- []byte{0x42}
	deadline := time.Now().Add(time.Second)
	for {
		n, err = p.read(buf, 0)
		if err != nil {
			t.Fatalf("poll failed: %v", err)
		}
		if n > 0 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("report never delivered")
		}
		time.Sleep(time.Millisecond)
	}
	if !bytes.Equal(buf[:n], []byte{0x42}) {
		t.Fatalf("poll = %v", buf[:n])
	}
}

func TestReportPumpSurfacesTerminalError(t *testing.T) {
	readErr := errors.New("device disconnected")
	src := make(chan []byte, 1)
	src <- []byte{0xaa}

	p := newReportPump(func() ([]byte, error) {
		frame, ok := <-src
		if !ok {
			return nil, readErr
		}
		return frame, nil
	})
	close(src)

	// the buffered frame is still delivered first
	buf := make([]byte, 8)
	n, err := p.read(buf, time.Second)
	if err != nil || n != 1 || buf[0] != 0xaa {
		t.Fatalf("read = %v bytes (%v)", n, err)
	}

	if _, err := p.readBlocking(buf); !errors.Is(err, readErr) {
		t.Fatalf("expected terminal error, got %v", err)
	}
	// the error keeps surfacing on later reads
	if _, err := p.read(buf, time.Second); !errors.Is(err, readErr) {
		t.Fatalf("expected terminal error again, got %v", err)
	}
}
