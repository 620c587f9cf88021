// Package export materializes the derived tables of a pass into a SQLite
// file for downstream report tooling. The file is a write-only product: it is
// regenerated wholesale on every export and never read back by the pipeline.
package export

import (
	"database/sql"
	"fmt"
	"math"
	"time"

	_ "modernc.org/sqlite"

	"github.com/harbour-data/dredge.report/internal/attribution"
	"github.com/harbour-data/dredge.report/internal/metrics"
	"github.com/harbour-data/dredge.report/internal/telemetry"
	"github.com/harbour-data/dredge.report/internal/zones"
)

type DB struct {
	*sql.DB
}

// Open creates (or truncates the tables of) the export database at path.
func Open(path string) (*DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	_, err = db.Exec(`
		DROP TABLE IF EXISTS samples;
		DROP TABLE IF EXISTS cycles;
		DROP TABLE IF EXISTS cycle_metrics;
		DROP TABLE IF EXISTS zones;

		CREATE TABLE samples (
			timestamp         TIMESTAMP,
			status            BIGINT,
			cycle_number      BIGINT,
			segment           BIGINT,
			ship_easting      DOUBLE,
			ship_northing     DOUBLE,
			speed_kn          DOUBLE,
			displacement      DOUBLE,
			cargo_volume      DOUBLE,
			mixture_density_bb DOUBLE,
			mixture_density_sb DOUBLE,
			abs_head_depth_bb DOUBLE,
			abs_head_depth_sb DOUBLE,
			zone              TEXT
		);
		CREATE TABLE cycles (
			number            BIGINT PRIMARY KEY,
			complete          BOOLEAN,
			empty_run_start   TIMESTAMP,
			dredge_start      TIMESTAMP,
			loaded_run_start  TIMESTAMP,
			discharge_start   TIMESTAMP,
			cycle_end         TIMESTAMP
		);
		CREATE TABLE cycle_metrics (
			number            BIGINT PRIMARY KEY,
			complete          BOOLEAN,
			net_displacement  DOUBLE,
			net_volume        DOUBLE,
			cargo_density     DOUBLE,
			solids_fraction   DOUBLE,
			solids_volume     DOUBLE,
			solids_mass       DOUBLE,
			bottom_volume     DOUBLE,
			empty_run_s       DOUBLE,
			dredge_s          DOUBLE,
			loaded_run_s      DOUBLE,
			discharge_s       DOUBLE,
			total_s           DOUBLE,
			empty_run_km      DOUBLE,
			dredge_km         DOUBLE,
			loaded_run_km     DOUBLE,
			discharge_km      DOUBLE,
			dredge_side       TEXT,
			zone              TEXT,
			amob_s            DOUBLE
		);
		CREATE TABLE zones (
			name              TEXT,
			vertex            BIGINT,
			lon               DOUBLE,
			lat               DOUBLE,
			target_depth      DOUBLE,
			reference_density DOUBLE,
			site_factor       DOUBLE,
			min_density       DOUBLE,
			max_density       DOUBLE
		);
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create export schema: %w", err)
	}

	return &DB{db}, nil
}

// WriteSamples inserts the sample table with its attribution, one transaction
// for the whole upload.
func (db *DB) WriteSamples(samples []telemetry.Sample, attrs []attribution.Attribution) error {
	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`INSERT INTO samples (
		timestamp, status, cycle_number, segment,
		ship_easting, ship_northing, speed_kn,
		displacement, cargo_volume,
		mixture_density_bb, mixture_density_sb,
		abs_head_depth_bb, abs_head_depth_sb, zone
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for i := range samples {
		s := &samples[i]
		var zone *string
		if i < len(attrs) {
			zone = attrs[i].Zone
		}
		_, err = stmt.Exec(
			s.Timestamp.Format(time.RFC3339),
			s.Status,
			intOrNull(s.CycleNumber),
			s.Segment,
			floatOrNull(s.ShipEasting),
			floatOrNull(s.ShipNorthing),
			floatOrNull(s.SpeedKn),
			floatOrNull(s.Displacement),
			floatOrNull(s.CargoVolume),
			floatOrNull(s.MixtureDensityBB),
			floatOrNull(s.MixtureDensitySB),
			floatOrNull(s.AbsHeadDepthBB),
			floatOrNull(s.AbsHeadDepthSB),
			zone,
		)
		if err != nil {
			return err
		}
	}
	return tx.Commit()
}

// WriteCycles inserts the cycle table and the per-cycle metrics.
func (db *DB) WriteCycles(results []metrics.CycleMetrics) error {
	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	cycleStmt, err := tx.Prepare(`INSERT INTO cycles (
		number, complete, empty_run_start, dredge_start,
		loaded_run_start, discharge_start, cycle_end
	) VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer cycleStmt.Close()

	metricStmt, err := tx.Prepare(`INSERT INTO cycle_metrics (
		number, complete,
		net_displacement, net_volume, cargo_density,
		solids_fraction, solids_volume, solids_mass, bottom_volume,
		empty_run_s, dredge_s, loaded_run_s, discharge_s, total_s,
		empty_run_km, dredge_km, loaded_run_km, discharge_km,
		dredge_side, zone, amob_s
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer metricStmt.Close()

	for _, m := range results {
		c := m.Cycle
		_, err = cycleStmt.Exec(
			c.Number, m.Complete,
			timeOrNull(c.EmptyRunStart),
			timeOrNull(c.DredgeStart),
			timeOrNull(c.LoadedRunStart),
			timeOrNull(c.DischargeStart),
			timeOrNull(c.End),
		)
		if err != nil {
			return err
		}

		_, err = metricStmt.Exec(
			c.Number, m.Complete,
			m.NetDisplacement, m.NetVolume, m.CargoDensity,
			m.SolidsFraction, m.SolidsVolume, m.SolidsMass, m.BottomVolume,
			secondsOrNull(m.EmptyRunDuration),
			secondsOrNull(m.DredgeDuration),
			secondsOrNull(m.LoadedRunDuration),
			secondsOrNull(m.DischargeDuration),
			secondsOrNull(m.TotalDuration),
			m.EmptyRunKm, m.DredgeKm, m.LoadedRunKm, m.DischargeKm,
			m.DredgeSide, m.Zone, m.AMOBDuration.Seconds(),
		)
		if err != nil {
			return err
		}
	}
	return tx.Commit()
}

// WriteZones inserts the zone rings, one row per vertex.
func (db *DB) WriteZones(zs []zones.Zone) error {
	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`INSERT INTO zones (
		name, vertex, lon, lat,
		target_depth, reference_density, site_factor, min_density, max_density
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, z := range zs {
		for i, p := range z.Ring {
			_, err = stmt.Exec(z.Name, i, p.Lon, p.Lat,
				z.TargetDepth, z.ReferenceDensity, z.SiteFactor, z.MinDensity, z.MaxDensity)
			if err != nil {
				return err
			}
		}
	}
	return tx.Commit()
}

func floatOrNull(v float64) interface{} {
	if math.IsNaN(v) {
		return nil
	}
	return v
}

func intOrNull(v *int) interface{} {
	if v == nil {
		return nil
	}
	return *v
}

func timeOrNull(t *time.Time) interface{} {
	if t == nil {
		return nil
	}
	return t.Format(time.RFC3339)
}

func secondsOrNull(d *time.Duration) interface{} {
	if d == nil {
		return nil
	}
	return d.Seconds()
}
