package audio

import (
	"fmt"
	"sync"
)

// RingBuffer is a circular byte buffer between the device callback and a session.
// The callback side never blocks; the session side blocks until data or space is
// available, or the buffer is closed.
type RingBuffer struct {
	mu       sync.Mutex
	cond     *sync.Cond
	buffer   []byte
	size     int
	writePos int
	readPos  int
	full     bool
	closed   bool
	overrun  bool
}

// NewRingBuffer creates a new ring buffer with the specified size in bytes
func NewRingBuffer(size int) *RingBuffer {
	rb := &RingBuffer{
		buffer: make([]byte, size),
		size:   size,
	}
	rb.cond = sync.NewCond(&rb.mu)
	return rb
}

// Write copies as much of data as fits and returns the number of bytes written.
// A short write marks the buffer as overrun.
func (rb *RingBuffer) Write(data []byte) (int, error) {
	rb.mu.Lock()
	defer rb.mu.Unlock()

	if rb.closed {
		return 0, ErrClosed
	}
	n := rb.put(data)
	if n < len(data) {
		rb.overrun = true
	}
	if n > 0 {
		rb.cond.Broadcast()
	}
	if n < len(data) {
		return n, fmt.Errorf("buffer is full")
	}
	return n, nil
}

// Read copies up to len(data) bytes and returns the count, zero if empty
func (rb *RingBuffer) Read(data []byte) int {
	rb.mu.Lock()
	defer rb.mu.Unlock()

	n := rb.take(data)
	if n > 0 {
		rb.cond.Broadcast()
	}
	return n
}

// ReadBlocking waits until at least min bytes are buffered and then copies up to
// len(data) bytes, rounded down to a multiple of min
func (rb *RingBuffer) ReadBlocking(data []byte, min int) (int, error) {
	rb.mu.Lock()
	defer rb.mu.Unlock()

	for !rb.closed && !rb.overrun && rb.available() < min {
		rb.cond.Wait()
	}
	if rb.overrun {
		return 0, ErrOverrun
	}
	if rb.closed && rb.available() < min {
		return 0, ErrClosed
	}

	want := len(data)
	if avail := rb.available(); avail < want {
		want = avail
	}
	want -= want % min
	n := rb.take(data[:want])
	rb.cond.Broadcast()
	return n, nil
}

// WriteBlocking waits until at least min bytes are free and then copies as much of
// data as fits, rounded down to a multiple of min
func (rb *RingBuffer) WriteBlocking(data []byte, min int) (int, error) {
	rb.mu.Lock()
	defer rb.mu.Unlock()

	for !rb.closed && rb.size-rb.available() < min {
		rb.cond.Wait()
	}
	if rb.closed {
		return 0, ErrClosed
	}

	want := len(data)
	if free := rb.size - rb.available(); free < want {
		want = free
	}
	want -= want % min
	n := rb.put(data[:want])
	rb.cond.Broadcast()
	return n, nil
}

// WaitEmpty blocks until every buffered byte has been read
func (rb *RingBuffer) WaitEmpty() error {
	rb.mu.Lock()
	defer rb.mu.Unlock()

	for !rb.closed && rb.available() > 0 {
		rb.cond.Wait()
	}
	if rb.closed {
		return ErrClosed
	}
	return nil
}

// Available returns the number of bytes available to read
func (rb *RingBuffer) Available() int {
	rb.mu.Lock()
	defer rb.mu.Unlock()
	return rb.available()
}

// Reset clears the buffer and the overrun flag
func (rb *RingBuffer) Reset() {
	rb.mu.Lock()
	defer rb.mu.Unlock()

	rb.readPos = 0
	rb.writePos = 0
	rb.full = false
	rb.overrun = false
	rb.cond.Broadcast()
}

// Close wakes every blocked reader and writer
func (rb *RingBuffer) Close() {
	rb.mu.Lock()
	defer rb.mu.Unlock()

	rb.closed = true
	rb.cond.Broadcast()
}

// Size returns the total size of the buffer
func (rb *RingBuffer) Size() int {
	return rb.size
}

// IsFull returns true if the buffer is full
func (rb *RingBuffer) IsFull() bool {
	rb.mu.Lock()
	defer rb.mu.Unlock()
	return rb.full
}

// IsEmpty returns true if the buffer is empty
func (rb *RingBuffer) IsEmpty() bool {
	rb.mu.Lock()
	defer rb.mu.Unlock()
	return rb.readPos == rb.writePos && !rb.full
}

func (rb *RingBuffer) available() int {
	if rb.full {
		return rb.size
	}
	if rb.writePos >= rb.readPos {
		return rb.writePos - rb.readPos
	}
	return rb.size - rb.readPos + rb.writePos
}

// put and take assume rb.mu is held
func (rb *RingBuffer) put(data []byte) int {
	free := rb.size - rb.available()
	if len(data) > free {
		data = data[:free]
	}
	written := 0
	for written < len(data) {
		n := copy(rb.buffer[rb.writePos:], data[written:])
		rb.writePos = (rb.writePos + n) % rb.size
		written += n
	}
	if written > 0 && rb.writePos == rb.readPos {
		rb.full = true
	}
	return written
}

func (rb *RingBuffer) take(data []byte) int {
	avail := rb.available()
	if len(data) > avail {
		data = data[:avail]
	}
	read := 0
	for read < len(data) {
		end := rb.size
		if rb.writePos > rb.readPos {
			end = rb.writePos
		}
		n := copy(data[read:], rb.buffer[rb.readPos:end])
		rb.readPos = (rb.readPos + n) % rb.size
		read += n
		rb.full = false
	}
	return read
}
