package stream

import (
	"context"
	"testing"
	"time"
)

func TestBatchDrainFIFO(t *testing.T) {
	b := NewBatch[int]()
	_ = b.Append(1)
	_ = b.Append(2)
	_ = b.Append(3)
	got := b.Drain()
	want := []int{1, 2, 3}
	if len(got) != len(want) {
		t.Fatalf("Drain = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("Drain[%d] = %d, want %d", i, got[i], want[i])
		}
	}
	if b.Len() != 0 {
		t.Fatalf("Len after Drain = %d, want 0", b.Len())
	}
}

func TestBatchNextBlocksUntilAppend(t *testing.T) {
	b := NewBatch[string]()
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	done := make(chan string, 1)
	go func() {
		v, ok := b.Next(ctx)
		if !ok {
			done <- ""
			return
		}
		done <- v
	}()

	time.Sleep(10 * time.Millisecond)
	_ = b.Append("hello")

	select {
	case v := <-done:
		if v != "hello" {
			t.Fatalf("Next = %q, want %q", v, "hello")
		}
	case <-time.After(time.Second):
		t.Fatal("Next did not return after Append")
	}
}

func TestBatchAppendFailsAfterClose(t *testing.T) {
	b := NewBatch[int]()
	b.Close()
	if err := b.Append(1); err != ErrClosed {
		t.Fatalf("Append after Close: err = %v, want ErrClosed", err)
	}
}

func TestBatchNextReturnsFalseWhenClosedAndEmpty(t *testing.T) {
	b := NewBatch[int]()
	_ = b.Append(1)
	b.Close()

	ctx := context.Background()
	v, ok := b.Next(ctx)
	if !ok || v != 1 {
		t.Fatalf("Next = %v, %v, want 1, true", v, ok)
	}
	_, ok = b.Next(ctx)
	if ok {
		t.Fatalf("Next on closed+empty batch: want ok=false")
	}
}
