package telemetry

import (
	"bufio"
	"bytes"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/harbour-data/dredge.report/internal/monitoring"
)

// timestampLayout matches the concatenated date and time sub-fields of the
// vessel log format.
const timestampLayout = "02.01.2006 15:04:05"

// Control bytes that optionally wrap each record line.
const (
	recordStart = 0x02
	recordEnd   = 0x03
)

// Table is the decoded, time-sorted sample table of one upload, plus the
// metadata downstream stages need: dropped-row count for the operator,
// maximum coordinate magnitudes for CRS inference, and the channel
// capability descriptor.
type Table struct {
	Samples     []Sample     `json:"samples"`
	DroppedRows int          `json:"dropped_rows"`
	MaxEasting  float64      `json:"max_easting"`
	MaxNorthing float64      `json:"max_northing"`
	Caps        Capabilities `json:"capabilities"`
}

// ParseFiles decodes one or more raw log files, merges them, sorts the
// result by reconstructed timestamp and derives the aggregate channels.
// Decoding never fails on malformed rows: fields that do not coerce become
// NaN and rows without a usable timestamp are dropped and counted.
func ParseFiles(files ...[]byte) *Table {
	t := &Table{
		MaxEasting:  math.NaN(),
		MaxNorthing: math.NaN(),
	}
	for _, data := range files {
		t.parseOne(data)
	}

	// Defensive sort: files may be concatenated out of order and loggers
	// occasionally emit duplicated tails after power cycles.
	sort.SliceStable(t.Samples, func(i, j int) bool {
		return t.Samples[i].Timestamp.Before(t.Samples[j].Timestamp)
	})

	t.Caps = detectCapabilities(t.Samples)
	for i := range t.Samples {
		derive(&t.Samples[i], t.Caps)
	}
	if t.DroppedRows > 0 {
		monitoring.Logf("telemetry: dropped %d rows with unparseable timestamps", t.DroppedRows)
	}
	return t
}

func (t *Table) parseOne(data []byte) {
	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		line = strings.TrimPrefix(line, string(rune(recordStart)))
		line = strings.TrimSuffix(line, string(rune(recordEnd)))
		line = strings.TrimRight(line, "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}

		fields := strings.Split(line, "\t")
		if len(fields) < 3 {
			t.DroppedRows++
			continue
		}

		ts, err := time.Parse(timestampLayout, fields[colDate]+" "+fields[colTime])
		if err != nil {
			t.DroppedRows++
			continue
		}

		s := decodeSample(ts, fields)
		t.trackExtents(s)
		t.Samples = append(t.Samples, s)
	}
}

// decodeSample coerces the instrument columns of one record. Missing columns
// (short rows) and coercion failures both yield NaN for the field only.
func decodeSample(ts time.Time, fields []string) Sample {
	num := func(idx int) float64 {
		if idx >= len(fields) {
			return math.NaN()
		}
		v := strings.TrimSpace(fields[idx])
		if v == "" {
			return math.NaN()
		}
		// Some exports use a decimal comma.
		f, err := strconv.ParseFloat(strings.Replace(v, ",", ".", 1), 64)
		if err != nil {
			return math.NaN()
		}
		return f
	}

	status := -1
	if v := num(colStatus); !math.IsNaN(v) {
		status = int(v)
	}

	s := Sample{
		Timestamp:         ts.UTC(),
		Status:            status,
		ShipEasting:       num(colShipEasting),
		ShipNorthing:      num(colShipNorthing),
		BBEasting:         num(colBBEasting),
		BBNorthing:        num(colBBNorthing),
		SBEasting:         num(colSBEasting),
		SBNorthing:        num(colSBNorthing),
		SpeedKn:           num(colSpeed),
		Course:            num(colCourse),
		Heading:           num(colHeading),
		Displacement:      num(colDisplacement),
		CargoVolume:       num(colCargoVolume),
		DraughtFore:       num(colDraughtFore),
		DraughtAft:        num(colDraughtAft),
		MixtureDensityBB:  num(colMixtureDensityBB),
		MixtureDensitySB:  num(colMixtureDensitySB),
		MixtureVelocityBB: num(colMixtureVelocityBB),
		MixtureVelocitySB: num(colMixtureVelocitySB),
		HeadDepthBB:       num(colHeadDepthBB),
		HeadDepthSB:       num(colHeadDepthSB),
		Tide:              num(colTide),
		PumpSpeedBB:       num(colPumpSpeedBB),
		PumpSpeedSB:       num(colPumpSpeedSB),
		PumpPressureBB:    num(colPumpPressureBB),
		PumpPressureSB:    num(colPumpPressureSB),
		VacuumBB:          num(colVacuumBB),
		VacuumSB:          num(colVacuumSB),
		SwellCompBB:       num(colSwellCompBB),
		SwellCompSB:       num(colSwellCompSB),
		OverflowLevel:     num(colOverflowLevel),
		PumpPowerBB:       num(colPumpPowerBB),
		PumpPowerSB:       num(colPumpPowerSB),
		AMOBBB:            num(colAMOBBB),
		AMOBSB:            num(colAMOBSB),
	}
	for i := 0; i < 6; i++ {
		s.FillLevels[i] = num(colFillLevel1 + i)
	}
	return s
}

func (t *Table) trackExtents(s Sample) {
	for _, e := range []float64{s.ShipEasting, s.BBEasting, s.SBEasting} {
		if !math.IsNaN(e) && (math.IsNaN(t.MaxEasting) || e > t.MaxEasting) {
			t.MaxEasting = e
		}
	}
	for _, n := range []float64{s.ShipNorthing, s.BBNorthing, s.SBNorthing} {
		if !math.IsNaN(n) && (math.IsNaN(t.MaxNorthing) || n > t.MaxNorthing) {
			t.MaxNorthing = n
		}
	}
}

// detectCapabilities scans the table once and marks a channel present when
// any sample carries a finite value for it.
func detectCapabilities(samples []Sample) Capabilities {
	var c Capabilities
	for i := range samples {
		s := &samples[i]
		c.Displacement = c.Displacement || !math.IsNaN(s.Displacement)
		c.CargoVolume = c.CargoVolume || !math.IsNaN(s.CargoVolume)
		c.MixtureDensityBB = c.MixtureDensityBB || !math.IsNaN(s.MixtureDensityBB)
		c.MixtureDensitySB = c.MixtureDensitySB || !math.IsNaN(s.MixtureDensitySB)
		c.MixtureVelocityBB = c.MixtureVelocityBB || !math.IsNaN(s.MixtureVelocityBB)
		c.MixtureVelocitySB = c.MixtureVelocitySB || !math.IsNaN(s.MixtureVelocitySB)
		c.HeadDepthBB = c.HeadDepthBB || !math.IsNaN(s.HeadDepthBB)
		c.HeadDepthSB = c.HeadDepthSB || !math.IsNaN(s.HeadDepthSB)
		c.Tide = c.Tide || !math.IsNaN(s.Tide)
		for j := 0; j < 6; j++ {
			c.FillLevels[j] = c.FillLevels[j] || !math.IsNaN(s.FillLevels[j])
		}
		c.PumpChannelsBB = c.PumpChannelsBB ||
			!math.IsNaN(s.PumpSpeedBB) || !math.IsNaN(s.PumpPressureBB) || !math.IsNaN(s.PumpPowerBB)
		c.PumpChannelsSB = c.PumpChannelsSB ||
			!math.IsNaN(s.PumpSpeedSB) || !math.IsNaN(s.PumpPressureSB) || !math.IsNaN(s.PumpPowerSB)
		c.AMOB = c.AMOB || !math.IsNaN(s.AMOBBB) || !math.IsNaN(s.AMOBSB)
	}
	return c
}

// AssignSegments numbers contiguous plot segments: a gap between consecutive
// samples longer than the threshold starts a new segment. Segments exist so
// track rendering does not draw lines across logging outages; they never
// influence cycle boundaries.
func (t *Table) AssignSegments(gap time.Duration) {
	if gap <= 0 || len(t.Samples) == 0 {
		return
	}
	seg := 0
	t.Samples[0].Segment = seg
	for i := 1; i < len(t.Samples); i++ {
		if t.Samples[i].Timestamp.Sub(t.Samples[i-1].Timestamp) > gap {
			seg++
		}
		t.Samples[i].Segment = seg
	}
}
