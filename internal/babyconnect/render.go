package babyconnect

import "strconv"

// renderMinutes phrases a duration for speech: "50 minutes",
// "1 hour", "8 hours and 29 minutes".
func renderMinutes(mins int) string {
	if mins < 0 {
		mins = 0
	}
	hours, rem := mins/60, mins%60

	switch {
	case hours == 0:
		return plural(rem, "minute")
	case rem == 0:
		return plural(hours, "hour")
	default:
		return plural(hours, "hour") + " and " + plural(rem, "minute")
	}
}

// renderOunces phrases a bottle total: "9.5 ounces", "16 ounces".
func renderOunces(oz float64) string {
	if oz == 1 {
		return "1 ounce"
	}
	return strconv.FormatFloat(oz, 'f', -1, 64) + " ounces"
}

func plural(n int, unit string) string {
	s := strconv.Itoa(n) + " " + unit
	if n != 1 {
		s += "s"
	}
	return s
}
