package audio

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRingBufferWrapsAround(t *testing.T) {
	rb := NewRingBuffer(8)

	n, err := rb.Write([]byte{1, 2, 3, 4, 5, 6})
	require.NoError(t, err)
	assert.Equal(t, 6, n)

	out := make([]byte, 4)
	assert.Equal(t, 4, rb.Read(out))
	assert.Equal(t, []byte{1, 2, 3, 4}, out)

	n, err = rb.Write([]byte{7, 8, 9, 10, 11, 12})
	require.NoError(t, err)
	assert.Equal(t, 6, n)
	assert.True(t, rb.IsFull())

	out = make([]byte, 8)
	assert.Equal(t, 8, rb.Read(out))
	assert.Equal(t, []byte{5, 6, 7, 8, 9, 10, 11, 12}, out)
	assert.True(t, rb.IsEmpty())
}

func TestRingBufferOverrun(t *testing.T) {
	rb := NewRingBuffer(4)

	n, err := rb.Write([]byte{1, 2, 3, 4, 5, 6})
	assert.Error(t, err)
	assert.Equal(t, 4, n)

	_, err = rb.ReadBlocking(make([]byte, 4), 2)
	assert.ErrorIs(t, err, ErrOverrun)

	rb.Reset()
	assert.True(t, rb.IsEmpty())
	_, err = rb.Write([]byte{1, 2})
	require.NoError(t, err)
	n, err = rb.ReadBlocking(make([]byte, 4), 2)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestRingBufferReadBlockingWholeFrames(t *testing.T) {
	rb := NewRingBuffer(16)
	_, err := rb.Write([]byte{1, 2, 3, 4, 5})
	require.NoError(t, err)

	n, err := rb.ReadBlocking(make([]byte, 16), 2)
	require.NoError(t, err)
	assert.Equal(t, 4, n)
	assert.Equal(t, 1, rb.Available())
}

func TestRingBufferBlocksUntilData(t *testing.T) {
	rb := NewRingBuffer(16)
	done := make(chan int)
	go func() {
		n, _ := rb.ReadBlocking(make([]byte, 8), 4)
		done <- n
	}()

	select {
	case <-done:
		t.Fatal("read returned before data was written")
	case <-time.After(20 * time.Millisecond):
	}

	_, err := rb.Write([]byte{1, 2, 3, 4})
	require.NoError(t, err)
	select {
	case n := <-done:
		assert.Equal(t, 4, n)
	case <-time.After(time.Second):
		t.Fatal("read did not wake up")
	}
}

func TestRingBufferCloseWakesWaiters(t *testing.T) {
	rb := NewRingBuffer(4)
	_, err := rb.Write([]byte{1, 2, 3, 4})
	require.NoError(t, err)

	errs := make(chan error, 2)
	go func() {
		_, err := rb.WriteBlocking([]byte{5, 6}, 2)
		errs <- err
	}()
	go func() {
		errs <- rb.WaitEmpty()
	}()

	time.Sleep(10 * time.Millisecond)
	rb.Close()
	for i := 0; i < 2; i++ {
		select {
		case err := <-errs:
			assert.ErrorIs(t, err, ErrClosed)
		case <-time.After(time.Second):
			t.Fatal("waiter not released by Close")
		}
	}
}
