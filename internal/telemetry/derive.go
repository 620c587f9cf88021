package telemetry

import "math"

// derive computes the aggregate channels of one sample.
//
// Absolute head depth converts the hull-relative suction-head sensor into a
// depth below datum: -(head_depth - tide). Mean fill averages whichever of
// the six hopper tank sensors the vessel actually carries.
func derive(s *Sample, caps Capabilities) {
	s.AbsHeadDepthBB = absHeadDepth(s.HeadDepthBB, s.Tide)
	s.AbsHeadDepthSB = absHeadDepth(s.HeadDepthSB, s.Tide)

	var sum float64
	var n int
	for i := 0; i < 6; i++ {
		if !caps.FillLevels[i] {
			continue
		}
		if v := s.FillLevels[i]; !math.IsNaN(v) {
			sum += v
			n++
		}
	}
	if n == 0 {
		s.MeanFill = math.NaN()
	} else {
		s.MeanFill = sum / float64(n)
	}
}

func absHeadDepth(head, tide float64) float64 {
	if math.IsNaN(head) || math.IsNaN(tide) {
		return math.NaN()
	}
	return -(head - tide)
}
