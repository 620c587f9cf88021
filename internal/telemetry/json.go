package telemetry

import (
	"encoding/json"
	"math"
	"time"
)

// sampleWire is the JSON form of Sample. Instrument values are NaN in memory
// but null on the wire: encoding/json refuses raw NaN, and consumers want
// "reading absent" to be explicit.
type sampleWire struct {
	Timestamp time.Time `json:"timestamp"`
	Status    int       `json:"status"`

	ShipEasting  *float64 `json:"ship_easting"`
	ShipNorthing *float64 `json:"ship_northing"`
	BBEasting    *float64 `json:"bb_easting"`
	BBNorthing   *float64 `json:"bb_northing"`
	SBEasting    *float64 `json:"sb_easting"`
	SBNorthing   *float64 `json:"sb_northing"`

	SpeedKn *float64 `json:"speed_kn"`
	Course  *float64 `json:"course"`
	Heading *float64 `json:"heading"`

	Displacement *float64 `json:"displacement"`
	CargoVolume  *float64 `json:"cargo_volume"`

	DraughtFore *float64 `json:"draught_fore"`
	DraughtAft  *float64 `json:"draught_aft"`

	MixtureDensityBB  *float64 `json:"mixture_density_bb"`
	MixtureDensitySB  *float64 `json:"mixture_density_sb"`
	MixtureVelocityBB *float64 `json:"mixture_velocity_bb"`
	MixtureVelocitySB *float64 `json:"mixture_velocity_sb"`

	HeadDepthBB *float64 `json:"head_depth_bb"`
	HeadDepthSB *float64 `json:"head_depth_sb"`
	Tide        *float64 `json:"tide"`

	PumpSpeedBB    *float64 `json:"pump_speed_bb"`
	PumpSpeedSB    *float64 `json:"pump_speed_sb"`
	PumpPressureBB *float64 `json:"pump_pressure_bb"`
	PumpPressureSB *float64 `json:"pump_pressure_sb"`
	VacuumBB       *float64 `json:"vacuum_bb"`
	VacuumSB       *float64 `json:"vacuum_sb"`
	SwellCompBB    *float64 `json:"swell_comp_bb"`
	SwellCompSB    *float64 `json:"swell_comp_sb"`

	FillLevels    [6]*float64 `json:"fill_levels"`
	OverflowLevel *float64    `json:"overflow_level"`

	PumpPowerBB *float64 `json:"pump_power_bb"`
	PumpPowerSB *float64 `json:"pump_power_sb"`
	AMOBBB      *float64 `json:"amob_bb"`
	AMOBSB      *float64 `json:"amob_sb"`

	AbsHeadDepthBB *float64 `json:"abs_head_depth_bb"`
	AbsHeadDepthSB *float64 `json:"abs_head_depth_sb"`
	MeanFill       *float64 `json:"mean_fill"`

	CycleNumber *int `json:"cycle_number"`
	Segment     int  `json:"segment"`
}

func nullable(v float64) *float64 {
	if math.IsNaN(v) {
		return nil
	}
	return &v
}

func denull(p *float64) float64 {
	if p == nil {
		return math.NaN()
	}
	return *p
}

func (s Sample) MarshalJSON() ([]byte, error) {
	w := sampleWire{
		Timestamp: s.Timestamp,
		Status:    s.Status,

		ShipEasting:  nullable(s.ShipEasting),
		ShipNorthing: nullable(s.ShipNorthing),
		BBEasting:    nullable(s.BBEasting),
		BBNorthing:   nullable(s.BBNorthing),
		SBEasting:    nullable(s.SBEasting),
		SBNorthing:   nullable(s.SBNorthing),

		SpeedKn: nullable(s.SpeedKn),
		Course:  nullable(s.Course),
		Heading: nullable(s.Heading),

		Displacement: nullable(s.Displacement),
		CargoVolume:  nullable(s.CargoVolume),

		DraughtFore: nullable(s.DraughtFore),
		DraughtAft:  nullable(s.DraughtAft),

		MixtureDensityBB:  nullable(s.MixtureDensityBB),
		MixtureDensitySB:  nullable(s.MixtureDensitySB),
		MixtureVelocityBB: nullable(s.MixtureVelocityBB),
		MixtureVelocitySB: nullable(s.MixtureVelocitySB),

		HeadDepthBB: nullable(s.HeadDepthBB),
		HeadDepthSB: nullable(s.HeadDepthSB),
		Tide:        nullable(s.Tide),

		PumpSpeedBB:    nullable(s.PumpSpeedBB),
		PumpSpeedSB:    nullable(s.PumpSpeedSB),
		PumpPressureBB: nullable(s.PumpPressureBB),
		PumpPressureSB: nullable(s.PumpPressureSB),
		VacuumBB:       nullable(s.VacuumBB),
		VacuumSB:       nullable(s.VacuumSB),
		SwellCompBB:    nullable(s.SwellCompBB),
		SwellCompSB:    nullable(s.SwellCompSB),

		OverflowLevel: nullable(s.OverflowLevel),

		PumpPowerBB: nullable(s.PumpPowerBB),
		PumpPowerSB: nullable(s.PumpPowerSB),
		AMOBBB:      nullable(s.AMOBBB),
		AMOBSB:      nullable(s.AMOBSB),

		AbsHeadDepthBB: nullable(s.AbsHeadDepthBB),
		AbsHeadDepthSB: nullable(s.AbsHeadDepthSB),
		MeanFill:       nullable(s.MeanFill),

		CycleNumber: s.CycleNumber,
		Segment:     s.Segment,
	}
	for i := range s.FillLevels {
		w.FillLevels[i] = nullable(s.FillLevels[i])
	}
	return json.Marshal(w)
}

func (s *Sample) UnmarshalJSON(data []byte) error {
	var w sampleWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	*s = Sample{
		Timestamp: w.Timestamp,
		Status:    w.Status,

		ShipEasting:  denull(w.ShipEasting),
		ShipNorthing: denull(w.ShipNorthing),
		BBEasting:    denull(w.BBEasting),
		BBNorthing:   denull(w.BBNorthing),
		SBEasting:    denull(w.SBEasting),
		SBNorthing:   denull(w.SBNorthing),

		SpeedKn: denull(w.SpeedKn),
		Course:  denull(w.Course),
		Heading: denull(w.Heading),

		Displacement: denull(w.Displacement),
		CargoVolume:  denull(w.CargoVolume),

		DraughtFore: denull(w.DraughtFore),
		DraughtAft:  denull(w.DraughtAft),

		MixtureDensityBB:  denull(w.MixtureDensityBB),
		MixtureDensitySB:  denull(w.MixtureDensitySB),
		MixtureVelocityBB: denull(w.MixtureVelocityBB),
		MixtureVelocitySB: denull(w.MixtureVelocitySB),

		HeadDepthBB: denull(w.HeadDepthBB),
		HeadDepthSB: denull(w.HeadDepthSB),
		Tide:        denull(w.Tide),

		PumpSpeedBB:    denull(w.PumpSpeedBB),
		PumpSpeedSB:    denull(w.PumpSpeedSB),
		PumpPressureBB: denull(w.PumpPressureBB),
		PumpPressureSB: denull(w.PumpPressureSB),
		VacuumBB:       denull(w.VacuumBB),
		VacuumSB:       denull(w.VacuumSB),
		SwellCompBB:    denull(w.SwellCompBB),
		SwellCompSB:    denull(w.SwellCompSB),

		OverflowLevel: denull(w.OverflowLevel),

		PumpPowerBB: denull(w.PumpPowerBB),
		PumpPowerSB: denull(w.PumpPowerSB),
		AMOBBB:      denull(w.AMOBBB),
		AMOBSB:      denull(w.AMOBSB),

		AbsHeadDepthBB: denull(w.AbsHeadDepthBB),
		AbsHeadDepthSB: denull(w.AbsHeadDepthSB),
		MeanFill:       denull(w.MeanFill),

		CycleNumber: w.CycleNumber,
		Segment:     w.Segment,
	}
	for i := range w.FillLevels {
		s.FillLevels[i] = denull(w.FillLevels[i])
	}
	return nil
}
