package core

import "testing"

func newTestRegulator() *Regulator {
	cfg := DefaultConfig()
	return NewRegulator(&cfg)
}

func TestRegulatorOutputBounds(t *testing.T) {
	r := newTestRegulator()
	for measured := uint32(0); measured <= 1000; measured += 7 {
		duty, _ := r.Update(53, measured)
		if duty < r.Min || duty > r.Max {
			t.Fatalf("Duty %d out of [%d, %d] for measured %d", duty, r.Min, r.Max, measured)
		}
	}
}

func TestRegulatorIntegralClamp(t *testing.T) {
	r := newTestRegulator()

	for i := 0; i < 100; i++ {
		r.Update(53, 0)
		if r.Integral() > r.IntegralMax {
			t.Fatalf("Integral %d above clamp %d", r.Integral(), r.IntegralMax)
		}
	}
	if r.Integral() != 250 {
		t.Errorf("Expected integral saturated at 250, got %d", r.Integral())
	}

	for i := 0; i < 100; i++ {
		r.Update(0, 4000)
		if r.Integral() < -r.IntegralMax {
			t.Fatalf("Integral %d below clamp %d", r.Integral(), -r.IntegralMax)
		}
	}
	if r.Integral() != -250 {
		t.Errorf("Expected integral saturated at -250, got %d", r.Integral())
	}
}

func TestRegulatorSteadyState(t *testing.T) {
	r := newTestRegulator()
	r.integral = 200

	var last uint32
	for i := 0; i < 10; i++ {
		duty, saturated := r.Update(53, 53)
		if saturated {
			t.Fatalf("Unexpected saturation at zero error")
		}
		if i > 0 && duty != last {
			t.Fatalf("Expected steady output at zero error, got %d then %d", last, duty)
		}
		last = duty
	}
	// 0.145 * 200 = 29
	if last != 29 {
		t.Errorf("Expected duty 29, got %d", last)
	}
}

func TestRegulatorRounding(t *testing.T) {
	r := newTestRegulator()

	// error 10: P = 6.5, I = 0.145 * 10 = 1.45, total 7.95
	duty, _ := r.Update(53, 43)
	if duty != 8 {
		t.Errorf("Expected rounded duty 8, got %d", duty)
	}
}

func TestRegulatorSaturationFlag(t *testing.T) {
	r := newTestRegulator()
	duty, saturated := r.Update(53, 53)
	if !saturated || duty != r.Min {
		t.Errorf("Expected clamp to PWM_MIN with zero output, got duty=%d saturated=%v", duty, saturated)
	}
	r.Reset()
	if r.Integral() != 0 {
		t.Errorf("Expected integral cleared by Reset, got %d", r.Integral())
	}
}
