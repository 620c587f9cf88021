// Command dredge-report runs one analysis pass from the command line: decode
// the given telemetry logs, detect cycles, load zones, compute the per-cycle
// metrics and print (or export) the result.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/harbour-data/dredge.report/internal/config"
	"github.com/harbour-data/dredge.report/internal/export"
	"github.com/harbour-data/dredge.report/internal/geo"
	"github.com/harbour-data/dredge.report/internal/session"
	"github.com/harbour-data/dredge.report/internal/units"
)

var (
	telemetryFlag = flag.String("telemetry", "", "Comma-separated telemetry log files (required)")
	zonesFlag     = flag.String("zones", "", "Optional zone definition file")
	zonesFormat   = flag.String("zones-format", "landxml", "Zone file format: landxml or flat")
	configFlag    = flag.String("config", "", "Optional pass configuration JSON file")
	crsFlag       = flag.String("crs", "", `Manual CRS override, e.g. "utm:32", "gk:3" or "rd"`)
	exportFlag    = flag.String("export", "", "Optional SQLite export path")
	tracesFlag    = flag.Bool("traces", false, "Print the extraction audit trace per cycle")
)

func main() {
	flag.Parse()

	if *telemetryFlag == "" {
		flag.Usage()
		os.Exit(2)
	}

	cfg := config.EmptyPassConfig()
	if *configFlag != "" {
		var err error
		cfg, err = config.LoadPassConfig(*configFlag)
		if err != nil {
			log.Fatalf("failed to load config: %v", err)
		}
	}

	sess := session.New(cfg)

	for _, path := range strings.Split(*telemetryFlag, ",") {
		data, err := os.ReadFile(strings.TrimSpace(path))
		if err != nil {
			log.Fatalf("failed to read telemetry file: %v", err)
		}
		if err := sess.AddTelemetry(data); err != nil {
			log.Fatalf("failed to process telemetry: %v", err)
		}
	}

	if *crsFlag != "" {
		system, zone, err := parseCRSFlag(*crsFlag)
		if err != nil {
			log.Fatalf("invalid -crs: %v", err)
		}
		if err := sess.SetManualCRS(system, zone); err != nil {
			log.Fatalf("failed to set CRS: %v", err)
		}
	}

	if *zonesFlag != "" {
		data, err := os.ReadFile(*zonesFlag)
		if err != nil {
			log.Fatalf("failed to read zone file: %v", err)
		}
		if err := sess.AddZones(data, session.ZoneFormat(*zonesFormat)); err != nil {
			log.Fatalf("failed to load zones: %v", err)
		}
	}

	printSummary(sess, cfg)

	if *exportFlag != "" {
		if err := exportPass(sess, *exportFlag); err != nil {
			log.Fatalf("export failed: %v", err)
		}
		fmt.Printf("\nexported to %s\n", *exportFlag)
	}
}

// parseCRSFlag decodes the "system:zone" override syntax ("rd" has no zone).
func parseCRSFlag(s string) (geo.System, int, error) {
	system, zoneStr, found := strings.Cut(s, ":")
	if !found {
		return geo.System(system), 0, nil
	}
	zone, err := strconv.Atoi(zoneStr)
	if err != nil {
		return "", 0, fmt.Errorf("zone %q is not a number", zoneStr)
	}
	return geo.System(system), zone, nil
}

func printSummary(sess *session.Session, cfg *config.PassConfig) {
	st := sess.Status()
	fmt.Printf("samples: %d (%d rows dropped)\n", st.SampleCount, st.DroppedRows)
	if st.CRSResolved {
		fmt.Printf("crs: %s (EPSG:%d)\n", st.CRS.System, st.CRS.EPSG)
	} else {
		fmt.Println("crs: unresolved (use -crs to select manually)")
	}
	for _, warning := range st.Warnings {
		fmt.Printf("warning: %s\n", warning)
	}

	format := cfg.GetDurationFormat()
	tz := cfg.GetDisplayTimezone()
	fmt.Printf("\ncycles: %d (%d complete)\n", st.CycleCount, st.CompleteCycles)
	for _, m := range sess.Metrics() {
		line := fmt.Sprintf("  #%d", m.Cycle.Number)
		if !m.Complete {
			line += " (incomplete)"
		}
		if m.Cycle.EmptyRunStart != nil {
			local, err := units.ConvertTime(*m.Cycle.EmptyRunStart, tz)
			if err == nil {
				line += " " + local.Format("02.01. 15:04")
			}
		}
		if m.TotalDuration != nil {
			line += " " + units.FormatDuration(*m.TotalDuration, format)
		}
		if m.NetDisplacement != nil {
			line += fmt.Sprintf(" net %.0ft", *m.NetDisplacement)
		}
		if m.SolidsMass != nil {
			line += fmt.Sprintf(" solids %.0ft", *m.SolidsMass)
		}
		line += " side=" + m.DredgeSide
		if m.Zone != nil {
			line += " zone=" + *m.Zone
		}
		fmt.Println(line)

		if *tracesFlag {
			if v, ok := sess.ExtractionValues(m.Cycle.Number); ok {
				for _, entry := range v.Trace {
					fmt.Printf("    %s\n", entry)
				}
			}
		}
	}
}

func exportPass(sess *session.Session, path string) error {
	db, err := export.Open(path)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := db.WriteSamples(sess.Samples(), sess.Attributions()); err != nil {
		return err
	}
	if err := db.WriteCycles(sess.Metrics()); err != nil {
		return err
	}
	return db.WriteZones(sess.Zones())
}
