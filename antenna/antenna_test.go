package antenna

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/wiless/radarperf/rf"
)

func gaussianBeam(t *testing.T, bw float64, circular bool) *RadiationPattern {
	t.Helper()
	p, err := Gaussian(3, 1, 1, 90, 0, bw, circular)
	if err != nil {
		t.Fatalf("Gaussian: %v", err)
	}
	return p
}

func TestNewRadiationPatternValidates(t *testing.T) {
	theta := []float64{0, 90, 180}
	phi := []float64{0, 180}
	good := [][]complex128{{1, 1}, {1, 1}, {1, 1}}
	if _, err := NewRadiationPattern(3, theta, phi, good, good); err != nil {
		t.Fatalf("valid pattern rejected: %v", err)
	}
	cases := []struct {
		name       string
		theta, phi []float64
		et         [][]complex128
	}{
		{"row count", theta, phi, [][]complex128{{1, 1}, {1, 1}}},
		{"column count", theta, phi, [][]complex128{{1, 1}, {1}, {1, 1}}},
		{"theta beyond 180", []float64{0, 90, 190}, phi, good},
		{"phi reaches 360", theta, []float64{0, 360}, good},
		{"theta not increasing", []float64{0, 90, 90}, phi, good},
		{"nan field", theta, phi, [][]complex128{{1, 1}, {complex(math.NaN(), 0), 1}, {1, 1}}},
	}
	for _, c := range cases {
		if _, err := NewRadiationPattern(3, c.theta, c.phi, c.et, good); !errors.Is(err, rf.ErrInvalidPattern) {
			t.Errorf("%s: err = %v, want ErrInvalidPattern", c.name, err)
		}
	}
}

func TestNormalize(t *testing.T) {
	dipole, err := HalfWaveDipole(3, 2, 10)
	if err != nil {
		t.Fatal(err)
	}
	for _, p := range []*RadiationPattern{dipole, gaussianBeam(t, 20, false)} {
		before, _, _ := p.MaxGain()
		for _, target := range []float64{-20, 0, 12.5, 40} {
			n, err := p.Normalize(target)
			if err != nil {
				t.Fatal(err)
			}
			if g, _, _ := n.MaxGain(); math.Abs(g-target) > 1e-9 {
				t.Errorf("Normalize(%v).MaxGain() = %v", target, g)
			}
		}
		if after, _, _ := p.MaxGain(); after != before {
			t.Errorf("source pattern mutated: %v -> %v", before, after)
		}
	}

	zero := [][]complex128{{0, 0}, {0, 0}}
	p, _ := NewRadiationPattern(3, []float64{0, 90}, []float64{0, 90}, zero, zero)
	if _, err := p.Normalize(0); !errors.Is(err, rf.ErrInvalidPattern) {
		t.Errorf("zero pattern normalize err = %v", err)
	}
}

func TestInterpolateRoundTrip(t *testing.T) {
	src, err := Gaussian(3, 5, 5, 60, 40, 60, true)
	if err != nil {
		t.Fatal(err)
	}
	dst, err := src.Interpolate(2.5, 2.5)
	if err != nil {
		t.Fatal(err)
	}
	if nt, np := dst.Shape(); nt != 73 || np != 144 {
		t.Fatalf("interpolated shape = %dx%d, want 73x144", nt, np)
	}
	for _, phi := range []float64{0, 40, 180, 355} {
		orig := src.Slice(Elevation, phi, Total)
		for k, th := range orig.Angles {
			if orig.Values[k] < -60 {
				continue
			}
			if got := dst.GainAt(th, phi); math.Abs(got-orig.Values[k]) > 1e-6 {
				t.Errorf("gain at knot (%v,%v) = %v, want %v", th, phi, got, orig.Values[k])
			}
		}
	}
	// between knots the value stays between its neighbours' envelope
	g := dst.GainAt(60, 42.5)
	if g > 0.01 || g < -1 {
		t.Errorf("gain near boresight = %v", g)
	}
}

func TestInterpolateCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	p := gaussianBeam(t, 20, false)
	out, err := p.InterpolateContext(ctx, 0.5, 0.5)
	if !errors.Is(err, context.Canceled) || out != nil {
		t.Errorf("cancelled interpolate = %v, %v", out, err)
	}
	if _, err := p.Interpolate(0, 1); !errors.Is(err, rf.ErrInvalidParameter) {
		t.Errorf("zero step err = %v", err)
	}
}

func TestBeamwidthOrdering(t *testing.T) {
	p := gaussianBeam(t, 20, false)
	for _, s := range []PatternSlice{p.Slice(Elevation, 0, Total), p.Slice(Azimuth, 90, Total)} {
		b3, b10, b20 := s.Beamwidth(-3), s.Beamwidth(-10), s.Beamwidth(-20)
		if !(b3 <= b10 && b10 <= b20) {
			t.Errorf("%v beamwidths not ordered: %v %v %v", s.Plane, b3, b10, b20)
		}
		if math.Abs(b3-20) > 0.5 {
			t.Errorf("%v -3 dB beamwidth = %v, want about 20", s.Plane, b3)
		}
	}
	if !p.Slice(Azimuth, 90, Total).Circular {
		t.Error("full azimuth cut should be circular")
	}
	if bw := p.Slice(Elevation, 0, Total).Beamwidth(-300); bw != 0 {
		t.Errorf("beamwidth with no crossing = %v, want 0", bw)
	}
}

func TestSidelobeLevel(t *testing.T) {
	a := NewArraySetting()
	a.Omni = true
	p, err := a.Pattern(3, 0.5, 90)
	if err != nil {
		t.Fatal(err)
	}
	sll := p.SidelobeLevel(Elevation, 0)
	if sll > -12 || sll < -13.5 {
		t.Errorf("8 element uniform array sidelobe = %v dB, want about -13", sll)
	}
	if d := p.Statistics().PeakDirectivityDbi; math.Abs(d-10*math.Log10(8)) > 0.2 {
		t.Errorf("array directivity = %v dBi", d)
	}

	narrow := PatternSlice{Angles: []float64{0, 5, 10}, Values: []float64{-1, 0, -2}}
	if !math.IsInf(narrow.SidelobeLevel(), -1) {
		t.Errorf("no samples outside window should give -Inf, got %v", narrow.SidelobeLevel())
	}
}

func TestArraySteering(t *testing.T) {
	a := NewArraySetting()
	a.Omni = true
	a.SteerDeg = 60
	p, err := a.Pattern(3, 1, 30)
	if err != nil {
		t.Fatal(err)
	}
	if _, th, _ := p.MaxGain(); math.Abs(th-60) > 1 {
		t.Errorf("steered peak at theta %v, want 60", th)
	}
	if err := a.Set(`{"n": 0}`); !errors.Is(err, rf.ErrInvalidParameter) {
		t.Errorf("zero elements err = %v", err)
	}
}

func TestDirectivity(t *testing.T) {
	iso, _ := Isotropic(3, 1, 5)
	if d := iso.DirectivityAt(45, 100); math.Abs(d) > 0.05 {
		t.Errorf("isotropic directivity = %v dBi", d)
	}
	dipole, _ := HalfWaveDipole(3, 1, 10)
	if d := dipole.DirectivityAt(90, 0); math.Abs(d-2.15) > 0.1 {
		t.Errorf("dipole directivity = %v dBi, want 2.15", d)
	}
}

func TestStatistics(t *testing.T) {
	circ := gaussianBeam(t, 30, true)
	st := circ.Statistics(-3, -10, -20)
	if st.MaxThetaDeg != 90 || st.MaxPhiDeg != 0 {
		t.Errorf("peak at (%v,%v)", st.MaxThetaDeg, st.MaxPhiDeg)
	}
	if math.Abs(st.AxialRatioAtPeakDb) > 1e-9 {
		t.Errorf("circular axial ratio = %v", st.AxialRatioAtPeakDb)
	}
	if len(st.Beamwidths) != 3 || st.Beamwidths[0].HPlaneDeg > st.Beamwidths[2].HPlaneDeg {
		t.Errorf("beamwidths = %+v", st.Beamwidths)
	}
	if st.FrontToBackDb < 100 {
		t.Errorf("front to back = %v", st.FrontToBackDb)
	}
	lin := gaussianBeam(t, 30, false)
	if ar := lin.AxialRatioAt(90, 0); ar < 100 {
		t.Errorf("linear axial ratio = %v", ar)
	}
}

func TestNearestSampleFallback(t *testing.T) {
	p := gaussianBeam(t, 20, false)
	if p.GainAt(-10, 0) != p.GainAt(0, 0) {
		t.Error("theta below range should use first sample")
	}
	if p.GainAt(90, 725) != p.GainAt(90, 5) {
		t.Error("phi should wrap around the circle")
	}
	if p.GainAt(90, 359.8) != p.GainAt(90, 0) {
		t.Error("phi 359.8 should snap to 0")
	}
}

func TestWrap(t *testing.T) {
	cases := []struct{ in, to180, fold, to360 float64 }{
		{0, 0, 0, 0},
		{200, -160, 160, 200},
		{-200, 160, 160, 160},
		{540, 180, 180, 180},
		{-30, -30, 30, 330},
	}
	for _, c := range cases {
		if got := Wrap180To180(c.in); math.Abs(got-c.to180) > 1e-9 && !(math.Abs(got) == 180 && math.Abs(c.to180) == 180) {
			t.Errorf("Wrap180To180(%v) = %v, want %v", c.in, got, c.to180)
		}
		if got := Wrap0To180(c.in); math.Abs(got-c.fold) > 1e-9 {
			t.Errorf("Wrap0To180(%v) = %v, want %v", c.in, got, c.fold)
		}
		if got := Wrap0To360(c.in); math.Abs(got-c.to360) > 1e-9 {
			t.Errorf("Wrap0To360(%v) = %v, want %v", c.in, got, c.to360)
		}
	}
}

func TestSectorPattern(t *testing.T) {
	s := NewSectorSetting()
	_, _, g := s.PatternDb(90, 0)
	if g != s.MaxGainDbi {
		t.Errorf("boresight gain = %v", g)
	}
	_, _, g = s.PatternDb(90, 32.5)
	if math.Abs(g-(s.MaxGainDbi-3)) > 1e-9 {
		t.Errorf("gain at half beamwidth = %v", g)
	}
	_, _, g = s.PatternDb(90, 180)
	if math.Abs(g-(s.MaxGainDbi-s.Am)) > 1e-9 {
		t.Errorf("back lobe gain = %v", g)
	}
	p, err := Sector(3, 5, 5, *s)
	if err != nil {
		t.Fatal(err)
	}
	if bw := p.Beamwidth(Azimuth, 90, -3); math.Abs(bw-65) > 1 {
		t.Errorf("sector azimuth beamwidth = %v", bw)
	}
}

func TestSpecBuild(t *testing.T) {
	s := DefaultSpec()
	if p, err := s.Build(context.Background(), 3); p != nil || err != nil {
		t.Errorf("KindNone build = %v, %v", p, err)
	}
	s.Kind = KindGaussian
	s.BeamwidthDeg = 10
	s.ThetaStepDeg, s.PhiStepDeg = 2, 10
	s.Normalize, s.PeakGainDbi = true, 30
	s.ResampleThetaDeg, s.ResamplePhiDeg = 1, 5
	p, err := s.Build(context.Background(), 3)
	if err != nil {
		t.Fatal(err)
	}
	if g, _, _ := p.MaxGain(); math.Abs(g-30) > 0.05 {
		t.Errorf("normalized resampled peak = %v", g)
	}
	if nt, np := p.Shape(); nt != 181 || np != 72 {
		t.Errorf("shape = %dx%d", nt, np)
	}
	var k Kind
	if err := k.UnmarshalText([]byte("Array")); err != nil || k != KindArray {
		t.Errorf("UnmarshalText = %v, %v", k, err)
	}
	s.ResamplePhiDeg = 0
	if err := s.Validate(); !errors.Is(err, rf.ErrInvalidParameter) {
		t.Errorf("half-set resample err = %v", err)
	}
}

func TestSpecGridLimits(t *testing.T) {
	s := DefaultSpec()
	s.Kind = KindIsotropic
	s.ThetaStepDeg, s.PhiStepDeg = 0.25, 0.25
	if err := s.Validate(); err != nil {
		t.Errorf("quarter degree grid rejected: %v", err)
	}
	s.ThetaStepDeg, s.PhiStepDeg = 1e-4, 1e-4
	if err := s.Validate(); !errors.Is(err, rf.ErrInvalidParameter) {
		t.Errorf("1e-4 degree grid err = %v, want ErrInvalidParameter", err)
	}
	s.ThetaStepDeg, s.PhiStepDeg = 1, 5
	s.ResampleThetaDeg, s.ResamplePhiDeg = 0.01, 0.01
	if _, err := s.Build(context.Background(), 3); !errors.Is(err, rf.ErrInvalidParameter) {
		t.Errorf("0.01 degree resample err = %v, want ErrInvalidParameter", err)
	}
	s.Kind = KindArray
	s.ResampleThetaDeg, s.ResamplePhiDeg = 0, 0
	s.Array.N = MaxArrayElements + 1
	if err := s.Validate(); !errors.Is(err, rf.ErrInvalidParameter) {
		t.Errorf("oversized array err = %v, want ErrInvalidParameter", err)
	}
}
