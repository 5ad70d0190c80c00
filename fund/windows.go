package fund

// ReturnWindow is a fixed trailing horizon measured in calendar days from
// the fund's latest available NAV date, never from the wall clock.
type ReturnWindow struct {
	Label        string
	LookbackDays int
}

// SinceInceptionLabel names the variable-length window resolved from the
// earliest recorded observation instead of a lookback date.
const SinceInceptionLabel = "since_inception"

// Windows is the fixed lookback set. Every label appears in a NAV report,
// with either a computed value or an insufficient-data marker.
var Windows = []ReturnWindow{
	{Label: "1_week", LookbackDays: 7},
	{Label: "1_month", LookbackDays: 30},
	{Label: "3_month", LookbackDays: 90},
	{Label: "6_month", LookbackDays: 180},
	{Label: "1_year", LookbackDays: 365},
}
