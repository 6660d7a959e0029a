package domain

// Cold-chain safety band and sensor thresholds. TempMin/TempMax bound
// the safe transport band for vaccines; a light reading below
// LightLidThreshold means the box interior is lit, i.e. the lid is off.
const (
	TempMin = 2.0
	TempMax = 8.0

	LightLidThreshold = 600

	// CriticalAlertCode is the alert marker the firmware sets when its
	// local sensors (accelerometer, light) detect a tamper event.
	CriticalAlertCode = "EVENTO_CRITICO"
)

// ViolationPolicy selects how a reading's violation flag is derived.
type ViolationPolicy string

const (
	// PolicyExplicitAlert trusts the edge device: a reading is a
	// violation only when the payload carries the critical alert code.
	// The firmware sees raw accelerometer and light data the backend
	// never receives, so its verdict wins.
	PolicyExplicitAlert ViolationPolicy = "explicit_alert"

	// PolicyThreshold re-derives the violation centrally from the
	// temperature band and the light level. Fallback for firmware
	// generations that never report an alert code.
	PolicyThreshold ViolationPolicy = "threshold"
)

// Classify computes the violation flag for a reading under the given
// policy. The two policies are never blended: a deployment runs one or
// the other.
func Classify(r *Reading, policy ViolationPolicy) bool {
	switch policy {
	case PolicyThreshold:
		if r.Temperature > TempMax || r.Temperature < TempMin {
			return true
		}
		return r.Light != nil && *r.Light < LightLidThreshold
	default:
		return r.AlertCode == CriticalAlertCode
	}
}
