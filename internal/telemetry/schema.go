package telemetry

// The fixed column layout of the vessel log format. The first two columns
// carry the record date and time; everything else is an instrument channel.
const (
	colDate = iota
	colTime
	colStatus
	colShipEasting
	colShipNorthing
	colBBEasting
	colBBNorthing
	colSBEasting
	colSBNorthing
	colSpeed
	colCourse
	colHeading
	colDisplacement
	colCargoVolume
	colDraughtFore
	colDraughtAft
	colMixtureDensityBB
	colMixtureDensitySB
	colMixtureVelocityBB
	colMixtureVelocitySB
	colHeadDepthBB
	colHeadDepthSB
	colTide
	colPumpSpeedBB
	colPumpSpeedSB
	colPumpPressureBB
	colPumpPressureSB
	colVacuumBB
	colVacuumSB
	colSwellCompBB
	colSwellCompSB
	colFillLevel1
	colFillLevel2
	colFillLevel3
	colFillLevel4
	colFillLevel5
	colFillLevel6
	colOverflowLevel
	colPumpPowerBB
	colPumpPowerSB
	colAMOBBB
	colAMOBSB

	// ColumnCount is the width of the fixed schema.
	ColumnCount = colAMOBSB + 1
)

// Capabilities records which optional instrument channels carry data in an
// upload. It is detected once at ingestion so downstream components check a
// descriptor instead of probing columns mid-computation.
type Capabilities struct {
	Displacement      bool    `json:"displacement"`
	CargoVolume       bool    `json:"cargo_volume"`
	MixtureDensityBB  bool    `json:"mixture_density_bb"`
	MixtureDensitySB  bool    `json:"mixture_density_sb"`
	MixtureVelocityBB bool    `json:"mixture_velocity_bb"`
	MixtureVelocitySB bool    `json:"mixture_velocity_sb"`
	HeadDepthBB       bool    `json:"head_depth_bb"`
	HeadDepthSB       bool    `json:"head_depth_sb"`
	Tide              bool    `json:"tide"`
	FillLevels        [6]bool `json:"fill_levels"`
	PumpChannelsBB    bool    `json:"pump_channels_bb"`
	PumpChannelsSB    bool    `json:"pump_channels_sb"`
	AMOB              bool    `json:"amob"`
}
