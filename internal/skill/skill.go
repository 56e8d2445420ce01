// Package skill holds the dialogue core: it decides which child a
// status query refers to, asks a clarifying question when it cannot,
// and phrases the answers. It is deliberately free of any HTTP or
// platform plumbing; each turn is a value in and a value out.
package skill

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/nightfeed/bcskill/internal/babyconnect"
)

// ErrMissingIntentName signals a primary query turn that arrived
// without an intent name. That is a malformed request from the
// platform, the one condition that surfaces as a server error rather
// than a spoken response.
var ErrMissingIntentName = errors.New("missing intent name on primary query turn")

// Account is the per-request handle onto the childcare service,
// already authenticated by the gate.
type Account interface {
	ChildList(ctx context.Context) ([]babyconnect.Child, error)
	SleepStatus(ctx context.Context, kidID int64) (babyconnect.Status, error)
	BottleStatus(ctx context.Context, kidID int64) (babyconnect.Status, error)
	DiaperStatus(ctx context.Context, kidID int64) (babyconnect.Status, error)
}

// Request is one decoded voice turn.
type Request struct {
	Intent     Intent
	IntentName string // raw platform name, kept for session bookkeeping
	Child      string // Child slot value, may be empty
	NewSession bool
	Memory     Memory
}

// Turn is the skill's answer to one request. Memory is the complete
// next session snapshot; a zero Memory clears the conversation.
type Turn struct {
	Speech      string
	CardTitle   string
	CardContent string
	EndSession  bool
	Memory      Memory
}

const (
	msgWelcome         = "Welcome to Baby Connect. How can I help you?"
	msgDidntUnderstand = "Sorry. I didn't understand your request."
	msgNoChildren      = "Sorry. You don't have any children registered with Baby Connect."
	msgWhichChild      = "Which child did you mean?"
	msgDidntCatchName  = "Sorry. I didn't catch the child's name. Which child did you mean?"
	msgOkayWhichChild  = "Okay. Which child did you mean?"
	msgCouldntRemember = "Sorry. I couldn't remember what you asked for."
	msgNotLinked       = "Your Baby Connect account is not linked. Please use the Alexa App to link the account."
	msgLoginFailed     = "Your Baby Connect account information is incorrect. Please use the Alexa App to re-link the account."
	cardTitle          = "Sleep"
)

// NotLinkedTurn and LoginFailedTurn are the terminal responses for
// the two authentication failure modes.
func NotLinkedTurn() Turn {
	return Turn{Speech: msgNotLinked, EndSession: true}
}

func LoginFailedTurn() Turn {
	return Turn{Speech: msgLoginFailed, EndSession: true}
}

// Handle dispatches one turn. The returned error is reserved for the
// two non-conversational failure modes: an upstream fault, or the
// structural case of a primary turn arriving without an intent name.
// Every user-facing branch resolves into a Turn.
func Handle(ctx context.Context, acct Account, req Request) (Turn, error) {
	switch req.Intent {
	case IntentLaunch:
		return Turn{Speech: msgWelcome, Memory: req.Memory}, nil

	case IntentCancel, IntentStop:
		return farewell(req, "Okay."), nil

	case IntentThanks:
		return farewell(req, "You're welcome."), nil

	case IntentYes:
		return handleYesNo(ctx, acct, req, true)

	case IntentNo:
		return handleYesNo(ctx, acct, req, false)

	case IntentChildName:
		return handleChildName(ctx, acct, req)

	case IntentSleepStatus, IntentSleepTotal, IntentBottleStatus,
		IntentBottleTotal, IntentDiaperStatus:
		return answer(ctx, acct, req, req.Intent)

	default:
		return didntUnderstand(req.Memory), nil
	}
}

// farewell ends the conversation, speaking only when there was a
// conversation to end.
func farewell(req Request, speech string) Turn {
	t := Turn{EndSession: true}
	if !req.NewSession {
		t.Speech = speech
	}
	return t
}

func didntUnderstand(mem Memory) Turn {
	return Turn{Speech: msgDidntUnderstand, Memory: mem}
}

// answer runs a primary query intent: resolve the child, fetch the
// status, phrase the sentence. A clarification turn from the resolver
// short-circuits the rest.
func answer(ctx context.Context, acct Account, req Request, intent Intent) (Turn, error) {
	kid, mem, clarify, err := resolveChild(ctx, acct, req)
	if err != nil {
		return Turn{}, err
	}
	if clarify != nil {
		return *clarify, nil
	}

	var status babyconnect.Status
	switch intent {
	case IntentSleepStatus, IntentSleepTotal:
		status, err = acct.SleepStatus(ctx, kid.ID)
	case IntentBottleStatus, IntentBottleTotal:
		status, err = acct.BottleStatus(ctx, kid.ID)
	case IntentDiaperStatus:
		status, err = acct.DiaperStatus(ctx, kid.ID)
	default:
		return Turn{}, fmt.Errorf("answer called with non-primary intent %v", intent)
	}
	if err != nil {
		return Turn{}, fmt.Errorf("fetch status for %s: %w", kid.Name, err)
	}

	content := renderAnswer(intent, kid.Name, status)
	log.Printf("[skill] %v for %s: %s", intent, kid.Name, content)
	return Turn{
		Speech:      content,
		CardTitle:   cardTitle,
		CardContent: content,
		Memory:      mem,
	}, nil
}

func renderAnswer(intent Intent, name string, st babyconnect.Status) string {
	switch intent {
	case IntentSleepStatus:
		if st.IsSleeping {
			return name + " is currently sleeping. He has been asleep for " +
				st.ElapsedRendered + "."
		}
		return name + " was last asleep " + st.ElapsedRendered + " ago."
	case IntentSleepTotal:
		return name + " has had " + st.TotalRendered + " of sleep today."
	case IntentBottleStatus:
		return name + " last ate " + st.ElapsedRendered + " ago."
	case IntentBottleTotal:
		return name + " has had " + st.TotalRendered + " to drink today."
	case IntentDiaperStatus:
		return name + " was last changed " + st.ElapsedRendered + " ago."
	}
	return ""
}
