package main

import (
	"encoding/json"
	"fmt"
	"io"
	"math"

	"github.com/fatih/color"
	"gopkg.in/yaml.v3"

	"github.com/wiless/radarperf"
	"github.com/wiless/radarperf/rf"
)

var (
	heading = color.New(color.FgCyan, color.Bold)
	good    = color.New(color.FgGreen, color.Bold)
	bad     = color.New(color.FgRed, color.Bold)
)

func write(w io.Writer, format string, s radarperf.Scenario, rep radarperf.Report) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(rep)
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		defer enc.Close()
		return enc.Encode(rep)
	case "text", "":
		writeText(w, s, rep)
		return nil
	}
	return rf.InvalidParameter("unknown output format %q", format)
}

func dbOrDash(v float64) string {
	if math.IsInf(v, 0) || math.IsNaN(v) {
		return "-"
	}
	return fmt.Sprintf("%.2f", v)
}

func writeText(w io.Writer, s radarperf.Scenario, rep radarperf.Report) {
	l, d := rep.Loss, rep.Detection

	heading.Fprintln(w, "Scenario")
	fmt.Fprintf(w, "  frequency        %.3f GHz\n", s.Radar.FreqGHz)
	fmt.Fprintf(w, "  target range     %.1f m (RCS %.3g m2, %v)\n", s.Target.RangeM, s.Target.RCSM2, s.Target.Fluctuation)
	fmt.Fprintf(w, "  antenna gain     %.2f dBi\n", rep.AntennaGainDbi)

	heading.Fprintln(w, "Propagation (one way)")
	fmt.Fprintf(w, "  %-16s %8.2f dB\n", l.Model, l.BasicDb)
	fmt.Fprintf(w, "  %-16s %8.2f dB\n", "atmospheric", l.AtmosphericDb)
	fmt.Fprintf(w, "  %-16s %8.2f dB\n", "precipitation", l.PrecipitationDb)
	fmt.Fprintf(w, "  %-16s %8.2f dB\n", "fog", l.FogDb)
	fmt.Fprintf(w, "  %-16s %8.2f dB\n", "diffraction", l.DiffractionDb)
	fmt.Fprintf(w, "  %-16s %8.2f dB\n", "terrain", l.TerrainDb)
	fmt.Fprintf(w, "  %-16s %8.2f dB\n", "total", l.TotalDb)
	fmt.Fprintf(w, "  %-16s %8.2f dB (not in total)\n", "multipath", l.MultipathDb)
	fmt.Fprintf(w, "  %-16s %v\n", "line of sight", l.LineOfSight)

	heading.Fprintln(w, "Detection")
	fmt.Fprintf(w, "  losses           %.2f dB\n", rep.LossesDb)
	fmt.Fprintf(w, "  SNR              %s dB (threshold %.2f, %d pulses)\n", dbOrDash(d.SNRDb), d.Threshold, d.Pulses)
	fmt.Fprintf(w, "  Pd               %.4f at Pfa %.1e\n", d.Pd, d.Pfa)
	fmt.Fprintf(w, "  max range        %.1f m\n", d.MaxRangeM)
	fmt.Fprintf(w, "  min RCS          %.4g m2\n", d.MinRCSM2)
	fmt.Fprintf(w, "  doppler          %.1f Hz\n", d.DopplerShiftHz)
	if d.Detected(s.Criteria) {
		good.Fprintln(w, "  DETECTED")
	} else {
		bad.Fprintln(w, "  NOT DETECTED")
	}

	if p := rep.Pattern; p != nil {
		heading.Fprintln(w, "Antenna pattern")
		fmt.Fprintf(w, "  peak gain        %.2f dBi at theta %.1f phi %.1f\n", p.MaxGainDbi, p.MaxThetaDeg, p.MaxPhiDeg)
		for _, bw := range p.Beamwidths {
			fmt.Fprintf(w, "  %4.0f dB width    E %.1f deg  H %.1f deg\n", bw.LevelDb, bw.EPlaneDeg, bw.HPlaneDeg)
		}
		if p.EPlaneSidelobeDb != nil {
			fmt.Fprintf(w, "  E sidelobe       %.2f dB\n", *p.EPlaneSidelobeDb)
		}
		fmt.Fprintf(w, "  front/back       %s dB\n", dbOrDash(p.FrontToBackDb))
	}
}
