package hello

import "testing"

func TestBounceStaysInRange(t *testing.T) {
	b := NewBounce(-0.5, 0.5, 0.005)
	reversals := 0
	prevStep := b.Step
	for range 1000 {
		v := b.Advance()
		if v < b.Min || v > b.Max {
			t.Fatalf("Advance() = %v, outside [%v, %v]", v, b.Min, b.Max)
		}
		if b.Step != prevStep {
			reversals++
			prevStep = b.Step
		}
	}
	// 1000 steps of 0.005 cover 5 units, i.e. 5 sweeps of the unit range.
	if reversals < 4 || reversals > 5 {
		t.Errorf("reversals = %d, want 4 or 5", reversals)
	}
}

func TestBounceReversesAtMax(t *testing.T) {
	b := Bounce{Value: 0.499, Step: 0.005, Min: -0.5, Max: 0.5}
	if v := b.Advance(); v != 0.5 {
		t.Errorf("Advance() = %v, want clamp to 0.5", v)
	}
	if b.Step >= 0 {
		t.Errorf("Step = %v after hitting Max, want negative", b.Step)
	}
	if v := b.Advance(); v >= 0.5 {
		t.Errorf("Advance() after reversal = %v, want < 0.5", v)
	}
}

func TestWrap(t *testing.T) {
	w := Wrap{Value: 1.248, Step: 0.005, Min: -1.25, Max: 1.25}
	if v := w.Advance(); v != -1.25 {
		t.Errorf("Advance() past Max = %v, want -1.25", v)
	}
	if v := w.Advance(); v <= -1.25 || v > -1.24 {
		t.Errorf("Advance() after wrap = %v, want just above -1.25", v)
	}
}
