package pathloss

import (
	"math"

	"github.com/wiless/radarperf/rf"
)

// freeSpaceConstant is the fixed term of FreeSpaceLoss.
const freeSpaceConstant = 32.44

// FreeSpaceLoss returns 20*log10(d) + 20*log10(f) + 32.44 dB with d in km and f in GHz.
func FreeSpaceLoss(freqGHz, distKm float64) (float64, error) {
	if err := rf.Positive("frequency", freqGHz); err != nil {
		return 0, err
	}
	if err := rf.Positive("distance", distKm); err != nil {
		return 0, err
	}
	return freeSpaceLoss(freqGHz, distKm), nil
}

func freeSpaceLoss(freqGHz, distKm float64) float64 {
	return 20*math.Log10(distKm) + 20*math.Log10(freqGHz) + freeSpaceConstant
}

// CriticalDistanceM is the two-ray breakpoint distance 4*ht*hr*f/c in metres.
func CriticalDistanceM(freqGHz, txHeightM, rxHeightM float64) float64 {
	return 4 * txHeightM * rxHeightM * freqGHz * 1e9 / rf.SpeedOfLight
}

// TwoRayLoss returns free-space loss inside the critical distance and the
// plane-earth loss 40*log10(d) - 20*log10(ht) - 20*log10(hr) beyond it, with
// d in metres. The branches do not meet: crossing CriticalDistanceM steps the
// loss up by about 50 dB for any frequency and pair of heights.
func TwoRayLoss(freqGHz, distKm, txHeightM, rxHeightM float64) (float64, error) {
	if err := rf.Positive("frequency", freqGHz); err != nil {
		return 0, err
	}
	if err := rf.Positive("distance", distKm); err != nil {
		return 0, err
	}
	if err := rf.Positive("tx height", txHeightM); err != nil {
		return 0, err
	}
	if err := rf.Positive("rx height", rxHeightM); err != nil {
		return 0, err
	}
	return twoRayLoss(freqGHz, distKm, txHeightM, rxHeightM), nil
}

func twoRayLoss(freqGHz, distKm, ht, hr float64) float64 {
	dM := distKm * 1e3
	if dM <= CriticalDistanceM(freqGHz, ht, hr) {
		return freeSpaceLoss(freqGHz, distKm)
	}
	return 40*math.Log10(dM) - 20*math.Log10(ht) - 20*math.Log10(hr)
}

// ReceivedPowerDbm returns the one-way received power in dBm.
func ReceivedPowerDbm(txPowerW, txGainDbi, rxGainDbi, lossDb float64) (float64, error) {
	if err := rf.Positive("transmit power", txPowerW); err != nil {
		return 0, err
	}
	return rf.Db(txPowerW) + 30 + txGainDbi + rxGainDbi - lossDb, nil
}
