package strategy

// Params holds config for the four-layer quoter, organized by layer.
type Params struct {
	// Layer 1: adverse selection (Glosten-Milgrom). Near resolution the
	// flow is dominated by informed traders, so the spread widens.
	BaseSpread       float64 `yaml:"baseSpread" json:"base_spread"`
	PInformedBase    float64 `yaml:"pInformedBase" json:"p_informed_base"`
	TimeDecayMinutes float64 `yaml:"timeDecayMinutes" json:"time_decay_minutes"`

	// Layer 2: oracle-adjusted offsets.
	OracleSensitivity float64 `yaml:"oracleSensitivity" json:"oracle_sensitivity"`

	// Layer 3: inventory skew.
	GammaInv   float64 `yaml:"gammaInv" json:"gamma_inv"`
	LambdaSize float64 `yaml:"lambdaSize" json:"lambda_size"`
	BaseSize   float64 `yaml:"baseSize" json:"base_size"`

	// Layer 4: edge check.
	EdgeThreshold float64 `yaml:"edgeThreshold" json:"edge_threshold"`
	MinOffset     float64 `yaml:"minOffset" json:"min_offset"`
}

// DefaultParams returns the default quoter parameters.
func DefaultParams() Params {
	return Params{
		BaseSpread:        0.02,
		PInformedBase:     0.2,
		TimeDecayMinutes:  5.0,
		OracleSensitivity: 5.0,
		GammaInv:          0.5,
		LambdaSize:        1.0,
		BaseSize:          50.0,
		EdgeThreshold:     0.01,
		MinOffset:         0.01,
	}
}

// Validate checks that the parameters are usable.
func (p Params) Validate() bool {
	if p.BaseSpread <= 0 || p.BaseSize <= 0 {
		return false
	}
	if p.PInformedBase < 0 || p.PInformedBase > 1 {
		return false
	}
	if p.TimeDecayMinutes <= 0 {
		return false
	}
	if p.GammaInv < 0 || p.LambdaSize < 0 {
		return false
	}
	if p.EdgeThreshold < 0 || p.MinOffset <= 0 {
		return false
	}
	return true
}
