package cmap

import (
	"strconv"
	"sync"
	"testing"
)

func TestDeleteFunc(t *testing.T) {
	m := New[int]()
	for i := 0; i < 100; i++ {
		put(m, strconv.Itoa(i), i)
	}

	removed := m.DeleteFunc(func(_ string, v int) bool {
		return v%2 == 0
	})
	if removed != 50 {
		t.Errorf("DeleteFunc() removed %d, want 50", removed)
	}
	if m.Count() != 50 {
		t.Errorf("Count() = %d, want 50", m.Count())
	}
	for i := 0; i < 100; i++ {
		_, ok := get(m, strconv.Itoa(i))
		if ok != (i%2 == 1) {
			t.Errorf("key %d present = %v", i, ok)
		}
	}
}

func TestDeleteFunc_ByKey(t *testing.T) {
	m := New[int]()
	put(m, "token:a", 1)
	put(m, "limiter:a", 1)

	if n := m.DeleteFunc(func(k string, _ int) bool { return k == "token:a" }); n != 1 {
		t.Errorf("DeleteFunc() removed %d, want 1", n)
	}
	if _, ok := get(m, "limiter:a"); !ok {
		t.Error("limiter:a should survive")
	}
}

func TestConcurrentWriteAndSweep(t *testing.T) {
	m := New[int]()
	for i := 0; i < 1000; i++ {
		put(m, strconv.Itoa(i), i)
	}

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(2)

		go func(base int) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				put(m, strconv.Itoa(base*100+j), j)
			}
		}(i + 100)

		go func() {
			defer wg.Done()
			m.DeleteFunc(func(_ string, v int) bool { return v > 900 })
		}()
	}
	wg.Wait()

	m.DeleteFunc(func(_ string, v int) bool { return v > 900 })
	if n := m.DeleteFunc(func(_ string, v int) bool { return v > 900 }); n != 0 {
		t.Errorf("second sweep removed %d, want 0", n)
	}
}
