package gopool

import (
	"runtime"
	"sync/atomic"
	"testing"
)

func TestPoolRun(t *testing.T) {
	p, err := New(2)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer p.Release()
	if p.Cap() != 2 {
		t.Fatalf("Cap = %d, want 2", p.Cap())
	}

	var done int32
	tasks := make([]func(), 20)
	for i := range tasks {
		tasks[i] = func() { atomic.AddInt32(&done, 1) }
	}
	p.Run(tasks)
	if done != 20 {
		t.Fatalf("ran %d tasks, want 20", done)
	}
}

func TestRunAfterRelease(t *testing.T) {
	p, err := New(1)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	p.Release()

	var done int32
	p.Run([]func(){func() { atomic.AddInt32(&done, 1) }})
	if done != 1 {
		t.Fatalf("task not run after release")
	}
}

func TestThreads(t *testing.T) {
	if got := Threads(0); got != 1 {
		t.Errorf("Threads(0) = %d", got)
	}
	if got := Threads(1 << 20); got != runtime.NumCPU() {
		t.Errorf("Threads(large) = %d, want %d", got, runtime.NumCPU())
	}
}
