package skill

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"strings"

	"github.com/nightfeed/bcskill/internal/babyconnect"
)

// resolveChild determines which child the current turn refers to.
// Exactly one of the first and third results is meaningful: either a
// resolved child with the memory snapshot to persist, or a
// clarification turn that pauses the query.
//
// Resolution order: explicit slot match, then the child remembered in
// the session, then the only child on the account. The child list is
// fetched fresh every turn; a remembered child id is trusted without
// re-checking it against the list.
func resolveChild(ctx context.Context, acct Account, req Request) (babyconnect.Child, Memory, *Turn, error) {
	mem := req.Memory

	// Mid-disambiguation with no new slot value: don't try to
	// resolve, just repeat the pending question. The platform
	// sometimes re-fires the primary intent without the slot.
	if req.Child == "" {
		switch mem.State {
		case StateConfirmChild:
			t := Turn{Speech: "Did you mean " + mem.LastChild + "?", Memory: mem}
			return babyconnect.Child{}, mem, &t, nil
		case StateChooseChild:
			t := Turn{Speech: msgWhichChild, Memory: mem}
			return babyconnect.Child{}, mem, &t, nil
		}
	}

	childList, err := acct.ChildList(ctx)
	if err != nil {
		return babyconnect.Child{}, mem, nil, fmt.Errorf("fetch child list: %w", err)
	}

	var kid *babyconnect.Child
	switch {
	case req.Child != "":
		log.Printf("[skill] looking for child %q", req.Child)
		for i := range childList {
			if strings.EqualFold(childList[i].Name, req.Child) {
				kid = &childList[i]
				break
			}
		}
	case mem.LastChildID != "":
		id, err := strconv.ParseInt(mem.LastChildID, 10, 64)
		if err != nil {
			return babyconnect.Child{}, mem, nil, fmt.Errorf("corrupt lastChildId %q: %w", mem.LastChildID, err)
		}
		kid = &babyconnect.Child{ID: id, Name: mem.LastChild}
	case len(childList) == 1:
		kid = &childList[0]
	}

	// Remember which query we are answering so a clarification
	// sub-dialogue can resume it. Only genuine primary turns record
	// this; a resumed turn carries the platform yes/no/name intent
	// and leaves it untouched. A primary turn without an intent name
	// is a malformed request from the platform, not a user error.
	if req.IntentName == "" {
		return babyconnect.Child{}, mem, nil, ErrMissingIntentName
	}
	if !strings.HasPrefix(req.IntentName, "AMAZON.") && req.IntentName != "ChildName" {
		log.Printf("[skill] setting lastIntent to %s", req.IntentName)
		mem.LastIntent = req.IntentName
	}

	if kid == nil {
		switch {
		case len(childList) == 0:
			log.Printf("[skill] no children registered")
			t := Turn{Speech: msgNoChildren, EndSession: true}
			return babyconnect.Child{}, Memory{}, &t, nil

		case len(childList) == 1:
			// The slot must have been filled here; an empty slot
			// with a single child would have matched above.
			only := childList[0]
			log.Printf("[skill] %q not found, proposing only child %s", req.Child, only.Name)
			mem.State = StateConfirmChild
			mem.LastChild = only.Name
			mem.LastChildID = strconv.FormatInt(only.ID, 10)
			t := Turn{
				Speech: "Sorry, I thought you said " + req.Child +
					" but that name isn't available. Did you mean " + only.Name + "?",
				Memory: mem,
			}
			return babyconnect.Child{}, mem, &t, nil

		default:
			log.Printf("[skill] %q not found among %d children", req.Child, len(childList))
			mem.State = StateChooseChild
			mem.LastChild = ""
			mem.LastChildID = ""
			t := Turn{Speech: msgWhichChild, Memory: mem}
			return babyconnect.Child{}, mem, &t, nil
		}
	}

	mem.State = StateNone
	mem.LastChild = kid.Name
	mem.LastChildID = strconv.FormatInt(kid.ID, 10)
	return *kid, mem, nil, nil
}
