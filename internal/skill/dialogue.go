package skill

import (
	"context"
	"log"
	"strconv"
	"strings"
)

// handleYesNo answers the confirm-child question. Anything outside an
// active confirmchild sub-dialogue gets the generic didn't-understand
// response; a yes resumes the deferred query with the proposed child,
// a no drops the guess and asks for the name instead.
func handleYesNo(ctx context.Context, acct Account, req Request, isYes bool) (Turn, error) {
	if req.NewSession {
		return firstTurnMisfire(), nil
	}
	if req.Memory.State != StateConfirmChild {
		return didntUnderstand(req.Memory), nil
	}

	if isYes {
		mem := req.Memory
		mem.State = StateNone
		return resume(ctx, acct, req, mem)
	}

	mem := req.Memory
	mem.State = StateChooseChild
	mem.LastChild = ""
	mem.LastChildID = ""
	return Turn{Speech: msgOkayWhichChild, Memory: mem}, nil
}

// handleChildName answers the choose-child question with a bare name.
func handleChildName(ctx context.Context, acct Account, req Request) (Turn, error) {
	if req.NewSession {
		return firstTurnMisfire(), nil
	}
	if req.Memory.State != StateChooseChild {
		return didntUnderstand(req.Memory), nil
	}

	childList, err := acct.ChildList(ctx)
	if err != nil {
		return Turn{}, err
	}

	for _, kid := range childList {
		if req.Child != "" && strings.EqualFold(kid.Name, req.Child) {
			mem := req.Memory
			mem.State = StateNone
			mem.LastChild = kid.Name
			mem.LastChildID = strconv.FormatInt(kid.ID, 10)
			return resume(ctx, acct, req, mem)
		}
	}

	log.Printf("[skill] didn't find child %q, staying in choosechild", req.Child)
	return Turn{Speech: msgDidntCatchName, Memory: req.Memory}, nil
}

// firstTurnMisfire handles a yes/no/name turn opening a brand new
// conversation. There is nothing to continue, so the session is
// cleared and closed.
func firstTurnMisfire() Turn {
	return Turn{Speech: msgDidntUnderstand, EndSession: true}
}

// resume re-runs the query that was interrupted by disambiguation,
// now that the child is settled in mem. The switch is intentionally
// total over the primary intents: sleep queries resume, the bottle
// and diaper queries were never added to the resume set and fall out
// with every other value (kept as-is pending product confirmation).
func resume(ctx context.Context, acct Account, req Request, mem Memory) (Turn, error) {
	last := ParseIntent(mem.LastIntent)
	log.Printf("[skill] chaining to previous intent %s", mem.LastIntent)

	switch last {
	case IntentSleepStatus, IntentSleepTotal:
		req.Memory = mem
		return answer(ctx, acct, req, last)
	case IntentBottleStatus, IntentBottleTotal, IntentDiaperStatus:
		return couldntRemember(mem), nil
	default:
		return couldntRemember(mem), nil
	}
}

func couldntRemember(mem Memory) Turn {
	return Turn{Speech: msgCouldntRemember, EndSession: true, Memory: mem}
}
