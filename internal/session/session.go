// Package session owns the state of one analysis pass: the uploaded inputs,
// the operator configuration and every derived table. All derived state is
// recomputed wholesale from the retained inputs, so re-running a pass after a
// config change always yields the same result as a fresh upload.
package session

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/harbour-data/dredge.report/internal/attribution"
	"github.com/harbour-data/dredge.report/internal/config"
	"github.com/harbour-data/dredge.report/internal/cycle"
	"github.com/harbour-data/dredge.report/internal/extract"
	"github.com/harbour-data/dredge.report/internal/geo"
	"github.com/harbour-data/dredge.report/internal/metrics"
	"github.com/harbour-data/dredge.report/internal/monitoring"
	"github.com/harbour-data/dredge.report/internal/telemetry"
	"github.com/harbour-data/dredge.report/internal/zones"
)

// ZoneFormat names a zone-file exchange format.
type ZoneFormat string

const (
	ZoneFormatLandXML ZoneFormat = "landxml"
	ZoneFormatFlat    ZoneFormat = "flat"
)

type zoneFile struct {
	data   []byte
	format ZoneFormat
}

// Status is the operator-facing summary of the pass after the last
// recomputation.
type Status struct {
	ID             string   `json:"id"`
	CreatedAt      string   `json:"created_at"`
	SampleCount    int      `json:"sample_count"`
	DroppedRows    int      `json:"dropped_rows"`
	CRS            geo.CRS  `json:"crs"`
	CRSResolved    bool     `json:"crs_resolved"`
	ZoneCount      int      `json:"zone_count"`
	CycleCount     int      `json:"cycle_count"`
	CompleteCycles int      `json:"complete_cycles"`
	Warnings       []string `json:"warnings,omitempty"`
}

// Session is one analysis pass. All exported methods are safe for concurrent
// use; Recompute serializes against readers with the session lock.
type Session struct {
	mu sync.RWMutex

	id        string
	createdAt time.Time

	cfg            *config.PassConfig
	telemetryFiles [][]byte
	zoneFiles      []zoneFile
	densityLookup  zones.DensityLookup
	manualCRS      *geo.CRS

	table       *telemetry.Table
	crs         geo.CRS
	transformer *geo.Transformer
	zoneList    []zones.Zone
	cycles      []cycle.Cycle
	attrs       []attribution.Attribution
	values      map[int]extract.Values
	results     []metrics.CycleMetrics
	warnings    []string
}

// New creates an empty session with the given configuration. A nil config
// means all defaults.
func New(cfg *config.PassConfig) *Session {
	if cfg == nil {
		cfg = config.EmptyPassConfig()
	}
	return &Session{
		id:        uuid.NewString(),
		createdAt: time.Now().UTC(),
		cfg:       cfg,
		values:    map[int]extract.Values{},
	}
}

// ID returns the session identifier.
func (s *Session) ID() string {
	return s.id
}

// SetConfig replaces the pass configuration and recomputes.
func (s *Session) SetConfig(cfg *config.PassConfig) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	s.cfg = cfg
	s.mu.Unlock()
	return s.Recompute()
}

// Config returns the current pass configuration.
func (s *Session) Config() *config.PassConfig {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cfg
}

// AddTelemetry appends a raw log file to the upload set and recomputes.
func (s *Session) AddTelemetry(data []byte) error {
	s.mu.Lock()
	s.telemetryFiles = append(s.telemetryFiles, data)
	s.mu.Unlock()
	return s.Recompute()
}

// AddZones appends a zone definition file and recomputes. Zone geometry
// needs the working CRS: an upload on an unresolved session is refused with
// ErrCRSUnresolved and the file is not retained, so a later manual selection
// never resurrects a rejected upload.
func (s *Session) AddZones(data []byte, format ZoneFormat) error {
	switch format {
	case ZoneFormatLandXML, ZoneFormatFlat:
	default:
		return fmt.Errorf("unknown zone format %q", format)
	}
	s.mu.Lock()
	if s.transformer == nil {
		s.mu.Unlock()
		return geo.ErrCRSUnresolved
	}
	s.zoneFiles = append(s.zoneFiles, zoneFile{data: data, format: format})
	s.mu.Unlock()
	return s.Recompute()
}

// SetDensityLookup installs the reference table used to back-fill density
// polygon attributes, then recomputes.
func (s *Session) SetDensityLookup(lookup zones.DensityLookup) error {
	s.mu.Lock()
	s.densityLookup = lookup
	s.mu.Unlock()
	return s.Recompute()
}

// SetManualCRS overrides the auto-detection result and recomputes. It is the
// unblocking path for uploads whose coordinate ranges are ambiguous.
func (s *Session) SetManualCRS(system geo.System, zone int) error {
	crs, err := geo.Manual(system, zone)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.manualCRS = &crs
	s.mu.Unlock()
	return s.Recompute()
}

// CRS returns the working coordinate system of the pass.
func (s *Session) CRS() geo.CRS {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.crs
}

// Recompute rebuilds every derived table from the retained inputs. It is safe
// to call at any time; a pass with no telemetry yields empty tables. The only
// errors are operator-input errors (a malformed extraction strategy or an
// unparseable zone file); an unresolved CRS is a status, not an error, and
// merely leaves the geometry-dependent tables empty.
func (s *Session) Recompute() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	strat, err := extract.ParseStrategy(s.cfg.Extraction)
	if err != nil {
		return err
	}

	s.warnings = nil
	s.table = telemetry.ParseFiles(s.telemetryFiles...)
	s.table.AssignSegments(s.cfg.GetTrackGap())

	if s.manualCRS != nil {
		s.crs = *s.manualCRS
	} else {
		s.crs = geo.Resolve(s.table.MaxEasting, s.table.MaxNorthing)
	}
	s.transformer = nil
	if s.crs.Resolved() {
		tr, err := geo.NewTransformer(s.crs)
		if err != nil {
			return err
		}
		s.transformer = tr
	} else if len(s.table.Samples) > 0 {
		s.warnings = append(s.warnings,
			"coordinate system could not be detected; zone and track output blocked until a manual selection is made")
	}

	cycle.AssignNumbers(s.table.Samples, s.cfg.GetCycleStartNumber())
	s.cycles = cycle.Segment(s.table.Samples, cycle.Config{
		MinRunningSpeedKn: s.cfg.GetMinRunningSpeedKn(),
		StartNumber:       s.cfg.GetCycleStartNumber(),
	})

	if err := s.loadZones(); err != nil {
		return err
	}
	if err := s.attribute(); err != nil {
		return err
	}

	s.values = map[int]extract.Values{}
	for _, c := range s.cycles {
		s.values[c.Number] = extract.Extract(s.table.Samples, c, strat, s.table.Caps)
	}

	s.results = metrics.Aggregate(s.table.Samples, s.attrs, s.cycles, s.values, metrics.Params{
		SolidsDensity:    s.cfg.GetSolidsDensity(),
		WaterDensity:     s.cfg.GetWaterDensity(),
		InSituDensity:    s.cfg.GetInSituDensity(),
		AMOBDensity:      s.cfg.GetAMOBDensity(),
		SideActivityBand: s.cfg.GetSideActivityBand(),
	})

	monitoring.Logf("session %s: recomputed %d samples, %d cycles (%d complete), %d zones",
		s.id, len(s.table.Samples), len(s.cycles), len(cycle.CompleteOnly(s.cycles)), len(s.zoneList))
	return nil
}

// loadZones parses every retained zone file through the current transformer.
// Files are only ever retained on a resolved session (AddZones gates them).
func (s *Session) loadZones() error {
	s.zoneList = nil
	if s.transformer == nil || len(s.zoneFiles) == 0 {
		return nil
	}
	for i, zf := range s.zoneFiles {
		var res *zones.LoadResult
		var err error
		switch zf.format {
		case ZoneFormatLandXML:
			res, err = zones.ParseLandXML(zf.data, s.transformer)
		case ZoneFormatFlat:
			res, err = zones.ParseFlat(zf.data, s.transformer, s.densityLookup)
		}
		if err != nil {
			return fmt.Errorf("zone file %d: %w", i+1, err)
		}
		s.zoneList = append(s.zoneList, res.Zones...)
		s.warnings = append(s.warnings, res.Warnings...)
	}
	s.warnings = append(s.warnings, attribution.OverlapWarnings(s.zoneList)...)
	return nil
}

// attribute assigns zones to the dredge-phase samples. Samples left outside
// every polygon pick up the configured manual target depth when one is set.
func (s *Session) attribute() error {
	s.attrs = make([]attribution.Attribution, len(s.table.Samples))
	if s.transformer == nil {
		return nil
	}

	loc := attribution.NewListLocator(s.zoneList)
	attrs, err := attribution.Attribute(s.table.Samples, s.transformer, loc)
	if err != nil {
		return err
	}
	s.attrs = attrs

	if depth := s.cfg.GetManualZoneDepth(); depth != 0 {
		for i := range s.attrs {
			if s.table.Samples[i].Status != telemetry.StatusDredging {
				continue
			}
			if s.attrs[i].Zone == nil && s.attrs[i].TargetDepth == nil {
				d := depth
				s.attrs[i].TargetDepth = &d
			}
		}
	}
	return nil
}

// Samples returns the decoded sample table of the pass.
func (s *Session) Samples() []telemetry.Sample {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.table == nil {
		return nil
	}
	return s.table.Samples
}

// Capabilities returns the channel capability descriptor of the upload.
func (s *Session) Capabilities() telemetry.Capabilities {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.table == nil {
		return telemetry.Capabilities{}
	}
	return s.table.Caps
}

// Cycles returns the detected cycle table, incomplete cycles included.
func (s *Session) Cycles() []cycle.Cycle {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cycles
}

// Zones returns the loaded zone list.
func (s *Session) Zones() []zones.Zone {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.zoneList
}

// Attributions returns the per-sample zone assignments, aligned with
// Samples().
func (s *Session) Attributions() []attribution.Attribution {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.attrs
}

// TableSnapshot is a consistent view of the sample table with its aligned
// attribution, taken under one lock acquisition so a concurrent recompute
// cannot interleave.
type TableSnapshot struct {
	Samples      []telemetry.Sample        `json:"samples"`
	Capabilities telemetry.Capabilities    `json:"capabilities"`
	Attributions []attribution.Attribution `json:"attributions"`
}

// Snapshot returns the sample table, capability descriptor and attribution
// of the last recompute as one consistent unit.
func (s *Session) Snapshot() TableSnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snap := TableSnapshot{Attributions: s.attrs}
	if s.table != nil {
		snap.Samples = s.table.Samples
		snap.Capabilities = s.table.Caps
	}
	return snap
}

// Metrics returns the per-cycle metrics table.
func (s *Session) Metrics() []metrics.CycleMetrics {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.results
}

// ExtractionValues returns the start/end resolution (with audit trace) for
// the given cycle number.
func (s *Session) ExtractionValues(cycleNumber int) (extract.Values, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.values[cycleNumber]
	return v, ok
}

// Status summarizes the pass for the operator.
func (s *Session) Status() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st := Status{
		ID:          s.id,
		CreatedAt:   s.createdAt.Format(time.RFC3339),
		CRS:         s.crs,
		CRSResolved: s.crs.Resolved(),
		ZoneCount:   len(s.zoneList),
		CycleCount:  len(s.cycles),
		Warnings:    s.warnings,
	}
	if s.table != nil {
		st.SampleCount = len(s.table.Samples)
		st.DroppedRows = s.table.DroppedRows
	}
	st.CompleteCycles = len(cycle.CompleteOnly(s.cycles))
	return st
}
