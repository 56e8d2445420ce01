package skill

// Intent is the closed set of requests the skill understands. Wire
// names arrive as strings from the voice platform; everything past
// the parse boundary matches on this enum so dispatch is exhaustive.
type Intent int

const (
	IntentUnknown Intent = iota
	IntentLaunch
	IntentSleepStatus
	IntentSleepTotal
	IntentBottleStatus
	IntentBottleTotal
	IntentDiaperStatus
	IntentYes
	IntentNo
	IntentChildName
	IntentCancel
	IntentStop
	IntentThanks
)

var wireToIntent = map[string]Intent{
	"SleepStatus":         IntentSleepStatus,
	"SleepTotal":          IntentSleepTotal,
	"BottleStatus":        IntentBottleStatus,
	"BottleTotal":         IntentBottleTotal,
	"DiaperStatus":        IntentDiaperStatus,
	"AMAZON.YesIntent":    IntentYes,
	"AMAZON.NoIntent":     IntentNo,
	"ChildName":           IntentChildName,
	"AMAZON.CancelIntent": IntentCancel,
	"AMAZON.StopIntent":   IntentStop,
	"EndWithThanks":       IntentThanks,
}

// ParseIntent maps a platform intent name to the enum. Unrecognized
// names map to IntentUnknown, which the dispatcher answers with the
// generic didn't-understand prompt.
func ParseIntent(name string) Intent {
	return wireToIntent[name]
}

// Primary reports whether the intent is a status/total query, i.e.
// one that resolves a child and is recorded for later resumption.
func (i Intent) Primary() bool {
	switch i {
	case IntentSleepStatus, IntentSleepTotal, IntentBottleStatus,
		IntentBottleTotal, IntentDiaperStatus:
		return true
	}
	return false
}

func (i Intent) String() string {
	for name, intent := range wireToIntent {
		if intent == i {
			return name
		}
	}
	if i == IntentLaunch {
		return "LaunchRequest"
	}
	return "Unknown"
}
