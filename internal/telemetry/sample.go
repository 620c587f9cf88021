// Package telemetry decodes raw dredger log files into a typed, time-sorted
// sample table. The logs are newline-delimited, tab-separated records with a
// fixed 42-column schema; decoding is tolerant by design (bad numeric fields
// become NaN, rows without a usable timestamp are dropped and counted).
package telemetry

import "time"

// Status codes recorded by the vessel PLC for each sample. Codes 4-6 are
// variants of the discharge phase (pumping ashore, bottom-door dumping,
// rainbowing) and are treated as one family by the cycle machine.
const (
	StatusEmptyRun        = 1
	StatusDredging        = 2
	StatusLoadedRun       = 3
	StatusDischargePump   = 4
	StatusDischargeBottom = 5
	StatusDischargeBow    = 6
)

// IsDischarge reports whether the status code belongs to the discharge
// family.
func IsDischarge(status int) bool {
	return status == StatusDischargePump || status == StatusDischargeBottom || status == StatusDischargeBow
}

// Sample is one telemetry record. Position pairs are in the raw working
// projection (metres); any instrument field may be NaN when the source row
// failed numeric coercion or the channel is absent on the vessel.
type Sample struct {
	Timestamp time.Time `json:"timestamp"`
	Status    int       `json:"status"`

	ShipEasting  float64 `json:"ship_easting"`
	ShipNorthing float64 `json:"ship_northing"`
	BBEasting    float64 `json:"bb_easting"`
	BBNorthing   float64 `json:"bb_northing"`
	SBEasting    float64 `json:"sb_easting"`
	SBNorthing   float64 `json:"sb_northing"`

	SpeedKn float64 `json:"speed_kn"`
	Course  float64 `json:"course"`
	Heading float64 `json:"heading"`

	Displacement float64 `json:"displacement"`
	CargoVolume  float64 `json:"cargo_volume"`

	DraughtFore float64 `json:"draught_fore"`
	DraughtAft  float64 `json:"draught_aft"`

	MixtureDensityBB  float64 `json:"mixture_density_bb"`
	MixtureDensitySB  float64 `json:"mixture_density_sb"`
	MixtureVelocityBB float64 `json:"mixture_velocity_bb"`
	MixtureVelocitySB float64 `json:"mixture_velocity_sb"`

	HeadDepthBB float64 `json:"head_depth_bb"`
	HeadDepthSB float64 `json:"head_depth_sb"`
	Tide        float64 `json:"tide"`

	PumpSpeedBB    float64 `json:"pump_speed_bb"`
	PumpSpeedSB    float64 `json:"pump_speed_sb"`
	PumpPressureBB float64 `json:"pump_pressure_bb"`
	PumpPressureSB float64 `json:"pump_pressure_sb"`
	VacuumBB       float64 `json:"vacuum_bb"`
	VacuumSB       float64 `json:"vacuum_sb"`
	SwellCompBB    float64 `json:"swell_comp_bb"`
	SwellCompSB    float64 `json:"swell_comp_sb"`

	FillLevels    [6]float64 `json:"fill_levels"`
	OverflowLevel float64    `json:"overflow_level"`

	PumpPowerBB float64 `json:"pump_power_bb"`
	PumpPowerSB float64 `json:"pump_power_sb"`
	AMOBBB      float64 `json:"amob_bb"`
	AMOBSB      float64 `json:"amob_sb"`

	// Derived at ingestion (see Derive).
	AbsHeadDepthBB float64 `json:"abs_head_depth_bb"`
	AbsHeadDepthSB float64 `json:"abs_head_depth_sb"`
	MeanFill       float64 `json:"mean_fill"`

	// CycleNumber is assigned by the cycle numbering pass; nil before the
	// first status-1 run. Segment is the plot-segment id derived from track
	// gaps; it is a presentation aid and never a phase boundary.
	CycleNumber *int `json:"cycle_number"`
	Segment     int  `json:"segment"`
}
