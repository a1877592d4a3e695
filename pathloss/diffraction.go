package pathloss

import (
	"math"
	"strings"

	"github.com/wiless/radarperf/rf"
	"github.com/wiless/radarperf/terrain"
)

type TerrainType int

const (
	TerrainUnspecified TerrainType = iota
	Flat
	RollingHills
	Mountainous
	Urban
	Suburban
	Sea
	Desert
	Forest
)

var TerrainTypes = [...]string{
	"Unspecified",
	"Flat",
	"RollingHills",
	"Mountainous",
	"Urban",
	"Suburban",
	"Sea",
	"Desert",
	"Forest",
}

// terrainCorrectionDb is the coarse additional loss per terrain class.
var terrainCorrectionDb = [...]float64{
	TerrainUnspecified: 0,
	Flat:               0,
	RollingHills:       10,
	Mountainous:        20,
	Urban:              15,
	Suburban:           8,
	Sea:                -5,
	Desert:             5,
	Forest:             12,
}

func (t TerrainType) String() string {
	if int(t) < 0 || int(t) >= len(TerrainTypes) {
		return "Unknown-TerrainType"
	}
	return TerrainTypes[t]
}

func ParseTerrainType(s string) (TerrainType, error) {
	key := strings.ReplaceAll(strings.TrimSpace(s), "_", "")
	if key == "" {
		return TerrainUnspecified, nil
	}
	for i, name := range TerrainTypes {
		if strings.EqualFold(key, name) {
			return TerrainType(i), nil
		}
	}
	return TerrainUnspecified, rf.InvalidParameter("unknown terrain type %q", s)
}

func (t TerrainType) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

func (t *TerrainType) UnmarshalText(b []byte) error {
	v, err := ParseTerrainType(string(b))
	if err != nil {
		return err
	}
	*t = v
	return nil
}

// TerrainCorrection returns the additional loss in dB for a terrain class.
func TerrainCorrection(t TerrainType) float64 {
	if int(t) < 0 || int(t) >= len(terrainCorrectionDb) {
		return 0
	}
	return terrainCorrectionDb[t]
}

// earthBulge is the apparent rise of the ground at distance d along a path of
// length total on a sphere of effective radius re (all metres).
func earthBulge(d, total, re float64) float64 {
	return d * (total - d) / (2 * re)
}

// sightline returns the straight-line height between the two antenna tips at
// distance d. Antenna heights are above the local ground at each end.
func sightline(p *terrain.Profile, d, txHeightM, rxHeightM float64) float64 {
	_, e0 := p.Sample(0)
	total, eN := p.Sample(p.Len() - 1)
	hTx := txHeightM + e0
	hRx := rxHeightM + eN
	return hTx - (hTx-hRx)*d/total
}

// LineOfSight reports whether no interior terrain sample, raised by the 4/3
// Earth bulge, reaches the straight line between the two antennas. Profiles with
// fewer than two samples or zero length are treated as line of sight. A
// non-positive earthRadiusM selects rf.EarthRadiusM.
func LineOfSight(p *terrain.Profile, txHeightM, rxHeightM, earthRadiusM float64) bool {
	if p.Len() < 2 || p.TotalDistanceM() <= 0 {
		return true
	}
	if earthRadiusM <= 0 {
		earthRadiusM = rf.EarthRadiusM
	}
	re := rf.EffectiveEarthRadiusM(earthRadiusM)
	total := p.TotalDistanceM()
	for i := 1; i < p.Len()-1; i++ {
		d, e := p.Sample(i)
		if e+earthBulge(d, total, re) >= sightline(p, d, txHeightM, rxHeightM) {
			return false
		}
	}
	return true
}

// FresnelParameter returns the dimensionless knife-edge parameter
// v = h*sqrt(2(d1+d2)/(lambda*d1*d2)), with h, d1 and d2 in metres.
func FresnelParameter(hM, d1M, d2M, freqGHz float64) float64 {
	lambda := rf.WavelengthM(freqGHz)
	return hM * math.Sqrt(2*(d1M+d2M)/(lambda*d1M*d2M))
}

func knifeEdgeMid(v float64) float64  { return 6 + 9*v - 1.27*v*v }
func knifeEdgeHigh(v float64) float64 { return 13 + 20*math.Log10(v) }
func knifeEdgeFar(v float64) float64  { return 20 + 10*math.Log10(v) + 0.003*v*v }

// Offsets that join the three regimes at v=1 and v=2.4.
var (
	knifeEdgeHighOffset = knifeEdgeMid(1) - knifeEdgeHigh(1)
	knifeEdgeFarOffset  = knifeEdgeHigh(2.4) + knifeEdgeHighOffset - knifeEdgeFar(2.4)
)

// KnifeEdgeLoss maps the Fresnel parameter to diffraction loss in dB. The
// upper two regimes are shifted so the curve is continuous at v=1 and v=2.4.
func KnifeEdgeLoss(v float64) float64 {
	switch {
	case v <= 0:
		return 0
	case v <= 1:
		return knifeEdgeMid(v)
	case v <= 2.4:
		return knifeEdgeHigh(v) + knifeEdgeHighOffset
	default:
		return knifeEdgeFar(v) + knifeEdgeFarOffset
	}
}

// DiffractionLoss returns the single knife-edge loss of the highest obstacle
// on the profile. It is zero for profiles with fewer than two samples and
// when the obstacle does not rise above the sightline.
func DiffractionLoss(p *terrain.Profile, freqGHz, txHeightM, rxHeightM float64) (float64, error) {
	if err := rf.Positive("frequency", freqGHz); err != nil {
		return 0, err
	}
	if err := rf.NonNegative("tx height", txHeightM); err != nil {
		return 0, err
	}
	if err := rf.NonNegative("rx height", rxHeightM); err != nil {
		return 0, err
	}
	return diffractionLoss(p, freqGHz, txHeightM, rxHeightM, rf.EarthRadiusM), nil
}

func diffractionLoss(p *terrain.Profile, freqGHz, txHeightM, rxHeightM, earthRadiusM float64) float64 {
	if p.Len() < 2 {
		return 0
	}
	total := p.TotalDistanceM()
	d1, obstacle := p.MaxObstacle()
	if d1 <= 0 || d1 >= total {
		return 0
	}
	re := rf.EffectiveEarthRadiusM(earthRadiusM)
	h := obstacle + earthBulge(d1, total, re) - sightline(p, d1, txHeightM, rxHeightM)
	if h <= 0 {
		return 0
	}
	return KnifeEdgeLoss(FresnelParameter(h, d1, total-d1, freqGHz))
}

// KnifeEdgeDiffraction is the loss of a single obstacle of height
// obstacleHeightM above the direct path at obstacleDistKm along a path of distKm.
func KnifeEdgeDiffraction(freqGHz, distKm, obstacleHeightM, obstacleDistKm float64) (float64, error) {
	if err := rf.Positive("frequency", freqGHz); err != nil {
		return 0, err
	}
	if err := rf.Positive("distance", distKm); err != nil {
		return 0, err
	}
	if err := rf.Finite("obstacle height", obstacleHeightM); err != nil {
		return 0, err
	}
	if !(obstacleDistKm > 0 && obstacleDistKm < distKm) {
		return 0, rf.InvalidGeometry("obstacle at %v km is not between the ends of a %v km path", obstacleDistKm, distKm)
	}
	d1 := obstacleDistKm * 1e3
	d2 := (distKm - obstacleDistKm) * 1e3
	return KnifeEdgeLoss(FresnelParameter(obstacleHeightM, d1, d2, freqGHz)), nil
}

// FresnelZoneRadii returns the radii in metres of the first n Fresnel zones at
// pointKm along a path of distKm.
func FresnelZoneRadii(freqGHz, distKm, pointKm float64, n int) ([]float64, error) {
	if err := rf.Positive("frequency", freqGHz); err != nil {
		return nil, err
	}
	if err := rf.Positive("distance", distKm); err != nil {
		return nil, err
	}
	if n < 1 {
		return nil, rf.InvalidParameter("zone count must be >= 1, got %d", n)
	}
	if !(pointKm > 0 && pointKm < distKm) {
		return nil, rf.InvalidGeometry("point at %v km is not between the ends of a %v km path", pointKm, distKm)
	}
	lambda := rf.WavelengthM(freqGHz)
	d1 := pointKm * 1e3
	d2 := (distKm - pointKm) * 1e3
	radii := make([]float64, n)
	for i := range radii {
		radii[i] = math.Sqrt(float64(i+1) * lambda * d1 * d2 / (d1 + d2))
	}
	return radii, nil
}
