package decoder

import (
	"reflect"
	"testing"
	"time"
)

func TestDefaultDecoders(t *testing.T) {
	s := NewDefault()
	all := s.All()
	if len(all) != 3 {
		t.Fatalf("expected 3 decoders, got %d", len(all))
	}
	if !all[0].Active || !all[0].Unlocked {
		t.Error("VLF should start unlocked and active")
	}
	for _, d := range all[1:] {
		if d.Unlocked || d.Active {
			t.Errorf("%s should start locked", d.ID)
		}
	}
}

func TestTickOverflowResetsWithoutCarry(t *testing.T) {
	s := New([]Decoder{{ID: "X", Rate: 30, Progress: 99.5, Unlocked: true, Active: true}})

	done := s.Tick(time.Second)
	if !reflect.DeepEqual(done, []ID{"X"}) {
		t.Fatalf("Tick() = %v, expected [X]", done)
	}
	d, _ := s.Get("X")
	if d.Progress != 0 {
		t.Errorf("progress = %v after overflow, expected 0", d.Progress)
	}

	if done := s.Tick(time.Second); len(done) != 0 {
		t.Errorf("second tick produced %v", done)
	}
	d, _ = s.Get("X")
	if d.Progress != 0.5 {
		t.Errorf("progress = %v after second tick, expected 0.5", d.Progress)
	}
}

func TestTickAccumulatesOnlyActive(t *testing.T) {
	s := NewDefault()
	for i := 0; i < 60; i++ {
		s.Tick(time.Second)
	}

	vlf, _ := s.Get("VLF")
	if diff := vlf.Progress - 0.5; diff > 1e-9 || diff < -1e-9 {
		t.Errorf("VLF progress = %v after one minute, expected 0.5", vlf.Progress)
	}
	lf, _ := s.Get("LF")
	if lf.Progress != 0 {
		t.Errorf("locked LF progressed to %v", lf.Progress)
	}
}

func TestTickIgnoresNonPositiveElapsed(t *testing.T) {
	s := New([]Decoder{{ID: "X", Rate: 60, Progress: 10, Unlocked: true, Active: true}})
	s.Tick(0)
	s.Tick(-time.Second)
	if d, _ := s.Get("X"); d.Progress != 10 {
		t.Errorf("progress changed to %v", d.Progress)
	}
}

func TestUnlockIsOneWay(t *testing.T) {
	s := NewDefault()

	if !s.Unlock("LF") {
		t.Fatal("first Unlock(LF) should report a transition")
	}
	if s.Unlock("LF") {
		t.Error("second Unlock(LF) should report false")
	}
	if s.Unlock("NOPE") {
		t.Error("unknown decoder unlocked")
	}
	lf, _ := s.Get("LF")
	if !lf.Unlocked || !lf.Active {
		t.Errorf("LF after unlock = %+v", lf)
	}
}

func TestDue(t *testing.T) {
	s := NewDefault()

	tests := []struct {
		docs     int
		expected []ID
	}{
		{0, nil},
		{49, nil},
		{50, []ID{"LF"}},
		{200, []ID{"LF", "MF"}},
	}
	for _, tc := range tests {
		if got := s.Due(tc.docs); !reflect.DeepEqual(got, tc.expected) {
			t.Errorf("Due(%d) = %v, expected %v", tc.docs, got, tc.expected)
		}
	}

	s.Unlock("LF")
	if got := s.Due(200); !reflect.DeepEqual(got, []ID{"MF"}) {
		t.Errorf("Due after unlock = %v", got)
	}
}

func TestIdleYield(t *testing.T) {
	s := NewDefault()

	got := s.IdleYield(10)
	expected := []Yield{{ID: "VLF", Count: 5}}
	if !reflect.DeepEqual(got, expected) {
		t.Errorf("IdleYield(10) = %v, expected %v", got, expected)
	}

	s.Unlock("LF")
	got = s.IdleYield(7)
	expected = []Yield{{ID: "VLF", Count: 3}, {ID: "LF", Count: 2}}
	if !reflect.DeepEqual(got, expected) {
		t.Errorf("IdleYield(7) = %v, expected %v", got, expected)
	}

	if got := s.IdleYield(0); got != nil {
		t.Errorf("IdleYield(0) = %v", got)
	}
	if got := s.IdleYield(1); got != nil {
		t.Errorf("IdleYield(1) = %v, expected nothing below one document", got)
	}
}

func TestNewNormalizes(t *testing.T) {
	s := New([]Decoder{
		{ID: "A", Rate: 1, Active: true},
		{ID: "A", Rate: 2},
		{ID: "B", Rate: -1, Progress: 150, Unlocked: true},
		{ID: ""},
	})
	all := s.All()
	if len(all) != 2 {
		t.Fatalf("expected 2 decoders, got %d", len(all))
	}
	if all[0].Active {
		t.Error("active without unlocked should be cleared")
	}
	if all[1].Rate != 0 || all[1].Progress != 0 {
		t.Errorf("B not normalized: %+v", all[1])
	}
}

func TestRestore(t *testing.T) {
	s := NewDefault()
	s.Restore([]Decoder{
		{ID: "VLF", Rate: 0.5, Progress: 42, Unlocked: true, Active: true},
		{ID: "LF", Rate: 0.3, Progress: 7, Unlocked: true, Active: true},
		{ID: "HF", Name: "HF", Rate: 1, Unlocked: true, Active: true},
	})

	vlf, _ := s.Get("VLF")
	if vlf.Progress != 42 {
		t.Errorf("VLF progress = %v", vlf.Progress)
	}
	lf, _ := s.Get("LF")
	if !lf.Unlocked || !lf.Active || lf.Progress != 7 {
		t.Errorf("LF = %+v", lf)
	}
	if lf.UnlockAt != 50 {
		t.Errorf("restore dropped UnlockAt: %d", lf.UnlockAt)
	}
	if _, ok := s.Get("HF"); !ok {
		t.Error("unknown saved decoder should be appended")
	}
}
