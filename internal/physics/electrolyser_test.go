package physics

import (
	"errors"
	"testing"
)

func TestElectrolyserKnownPoints(t *testing.T) {
	stack := DefaultPEMStack()
	cases := []struct {
		current  float64
		voltage  float64
		power    float64
		hydrogen float64
		heat     float64
	}{
		{100, 66.786923, 6678.6923, 0.0376100, 5198.6923},
		{250, 142.353933, 35588.4833, 0.0940250, 31888.4833},
		// j = jL: concentration overpotential capped
		{1500, 818.401260, 1227601.8899, 0.5641499, 1205401.8899},
	}
	for _, tc := range cases {
		p := stack.Operate(tc.current)
		if !almostEqual(p.StackVoltageV, tc.voltage, 1e-5) {
			t.Errorf("I=%v: voltage = %.6f, want %.6f", tc.current, p.StackVoltageV, tc.voltage)
		}
		if !almostEqual(p.PowerW, tc.power, 1e-3) {
			t.Errorf("I=%v: power = %.4f, want %.4f", tc.current, p.PowerW, tc.power)
		}
		if !almostEqual(p.HydrogenKgH, tc.hydrogen, 1e-6) {
			t.Errorf("I=%v: hydrogen = %.7f, want %.7f", tc.current, p.HydrogenKgH, tc.hydrogen)
		}
		if !almostEqual(p.HeatW, tc.heat, 1e-3) {
			t.Errorf("I=%v: heat = %.4f, want %.4f", tc.current, p.HeatW, tc.heat)
		}
	}
}

func TestElectrolyserLUT(t *testing.T) {
	lut, err := DefaultPEMStack().LUT(500, 5000)
	if err != nil {
		t.Fatalf("LUT: %v", err)
	}
	if len(lut) != 5000 {
		t.Fatalf("len = %d", len(lut))
	}
	if !almostEqual(lut[0].CurrentA, 0.1, 1e-12) || !almostEqual(lut[4999].CurrentA, 500, 1e-9) {
		t.Fatalf("current range = %v..%v", lut[0].CurrentA, lut[4999].CurrentA)
	}
	for i := 1; i < len(lut); i++ {
		if lut[i].StackVoltageV <= lut[i-1].StackVoltageV {
			t.Fatalf("voltage not increasing at %v A", lut[i].CurrentA)
		}
	}
}

func TestElectrolyserLUTRejectsInvalid(t *testing.T) {
	if _, err := DefaultPEMStack().LUT(0, 10); !errors.Is(err, ErrInvalidLUT) {
		t.Fatalf("err = %v", err)
	}
	if _, err := DefaultPEMStack().LUT(100, 0); !errors.Is(err, ErrInvalidLUT) {
		t.Fatalf("err = %v", err)
	}
	if _, err := (ElectrolyserStack{}).LUT(100, 10); !errors.Is(err, ErrInvalidStack) {
		t.Fatalf("err = %v", err)
	}
}
