package logging

import "testing"

func TestNewProgressSamplerDefaults(t *testing.T) {
	for _, size := range []float64{0, -1} {
		if s := NewProgressSampler(size); s.bucketSize != 10 || s.lastBucket != -1 {
			t.Fatalf("NewProgressSampler(%v) = %+v", size, s)
		}
	}
}

func TestProgressSamplerBuckets(t *testing.T) {
	s := NewProgressSampler(25)
	var logged []int
	for done := 1; done <= 20; done++ {
		if s.ShouldLog(done, 20) {
			logged = append(logged, done)
		}
	}
	// 5%, 25%, 50%, 75%, then the final item.
	want := []int{1, 5, 10, 15, 20}
	if len(logged) != len(want) {
		t.Fatalf("logged %v, want %v", logged, want)
	}
	for i := range want {
		if logged[i] != want[i] {
			t.Fatalf("logged %v, want %v", logged, want)
		}
	}
	if s.ShouldLog(20, 20) {
		t.Fatal("completion must log once")
	}

	s.Reset()
	if !s.ShouldLog(20, 20) {
		t.Fatal("Reset must allow logging again")
	}
}

func TestProgressSamplerEdgeCases(t *testing.T) {
	var nilSampler *ProgressSampler
	if !nilSampler.ShouldLog(1, 2) {
		t.Fatal("nil sampler logs everything")
	}
	nilSampler.Reset()

	s := NewProgressSampler(10)
	if s.ShouldLog(0, 10) || s.ShouldLog(3, 0) {
		t.Fatal("nothing done or nothing to do must not log")
	}
}
