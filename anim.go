package hello

// Bounce moves Value by Step every frame and reverses direction whenever
// it leaves [Min, Max]. The triangle-matrix and triangle-moving samples use
// it for their horizontal sweep.
type Bounce struct {
	Value, Step float32
	Min, Max    float32
}

// NewBounce returns a Bounce starting at min and moving up by step.
func NewBounce(min, max, step float32) Bounce {
	return Bounce{Value: min, Step: step, Min: min, Max: max}
}

// Advance moves one step and returns the new value.
func (b *Bounce) Advance() float32 {
	b.Value += b.Step
	switch {
	case b.Value > b.Max:
		b.Value = b.Max
		b.Step = -b.Step
	case b.Value < b.Min:
		b.Value = b.Min
		b.Step = -b.Step
	}
	return b.Value
}

// Wrap moves Value by Step every frame and jumps back to Min once it
// passes Max. The constant-buffer sample uses it to slide the triangle
// off one edge and back in from the other.
type Wrap struct {
	Value, Step float32
	Min, Max    float32
}

// Advance moves one step and returns the new value.
func (w *Wrap) Advance() float32 {
	w.Value += w.Step
	if w.Value > w.Max {
		w.Value = w.Min
	}
	return w.Value
}
