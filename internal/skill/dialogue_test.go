package skill

import (
	"testing"

	"github.com/nightfeed/bcskill/internal/babyconnect"
)

func confirmMemory() Memory {
	return Memory{State: StateConfirmChild, LastChild: "George", LastChildID: "2", LastIntent: "SleepStatus"}
}

func TestYesResumesConfirmedChild(t *testing.T) {
	acct := georgeAccount()
	req := Request{Intent: IntentYes, IntentName: "AMAZON.YesIntent", Memory: confirmMemory()}

	turn := handle(t, acct, req)

	want := "George is currently sleeping. He has been asleep for 50 minutes."
	if turn.Speech != want {
		t.Errorf("speech = %q, want %q", turn.Speech, want)
	}
	wantMem := Memory{LastChild: "George", LastChildID: "2", LastIntent: "SleepStatus"}
	if turn.Memory != wantMem {
		t.Errorf("memory = %+v, want %+v", turn.Memory, wantMem)
	}
	if acct.lastStatusID != 2 {
		t.Errorf("status fetched for id %d, want 2", acct.lastStatusID)
	}
}

func TestNoEntersChooseChild(t *testing.T) {
	req := Request{Intent: IntentNo, IntentName: "AMAZON.NoIntent", Memory: confirmMemory()}

	turn := handle(t, georgeAccount(), req)

	if turn.Speech != msgOkayWhichChild {
		t.Errorf("speech = %q, want %q", turn.Speech, msgOkayWhichChild)
	}
	if turn.EndSession {
		t.Error("choose question should keep the conversation open")
	}
	// The rejected guess is dropped; the deferred intent survives.
	wantMem := Memory{State: StateChooseChild, LastIntent: "SleepStatus"}
	if turn.Memory != wantMem {
		t.Errorf("memory = %+v, want %+v", turn.Memory, wantMem)
	}
}

func TestChildNameResumesDeferredIntent(t *testing.T) {
	acct := georgeAccount()
	mem := Memory{State: StateChooseChild, LastIntent: "SleepTotal"}
	req := Request{Intent: IntentChildName, IntentName: "ChildName", Child: "George", Memory: mem}

	turn := handle(t, acct, req)

	want := "George has had 30 minutes of sleep today."
	if turn.Speech != want {
		t.Errorf("speech = %q, want %q", turn.Speech, want)
	}
	wantMem := Memory{LastChild: "George", LastChildID: "2", LastIntent: "SleepTotal"}
	if turn.Memory != wantMem {
		t.Errorf("memory = %+v, want %+v", turn.Memory, wantMem)
	}
}

func TestChildNameCaseInsensitive(t *testing.T) {
	mem := Memory{State: StateChooseChild, LastIntent: "SleepStatus"}
	req := Request{Intent: IntentChildName, IntentName: "ChildName", Child: "GEORGE", Memory: mem}

	turn := handle(t, georgeAccount(), req)
	if turn.Memory.LastChild != "George" {
		t.Errorf("lastChild = %q, want George", turn.Memory.LastChild)
	}
}

func TestChildNameNoMatchStaysInChooseChild(t *testing.T) {
	mem := Memory{State: StateChooseChild, LastIntent: "SleepStatus"}
	req := Request{Intent: IntentChildName, IntentName: "ChildName", Child: "Ringo", Memory: mem}

	turn := handle(t, georgeAccount(), req)

	if turn.Speech != msgDidntCatchName {
		t.Errorf("speech = %q, want %q", turn.Speech, msgDidntCatchName)
	}
	if turn.EndSession {
		t.Error("conversation should stay open for another try")
	}
	if turn.Memory != mem {
		t.Errorf("memory = %+v, want unchanged %+v", turn.Memory, mem)
	}
}

func TestYesOutsideConfirmState(t *testing.T) {
	tests := []struct {
		name string
		mem  Memory
	}{
		{"no sub-dialogue", Memory{LastIntent: "SleepStatus"}},
		{"choose state", Memory{State: StateChooseChild, LastIntent: "SleepStatus"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := Request{Intent: IntentYes, IntentName: "AMAZON.YesIntent", Memory: tt.mem}
			turn := handle(t, georgeAccount(), req)
			if turn.Speech != msgDidntUnderstand {
				t.Errorf("speech = %q, want %q", turn.Speech, msgDidntUnderstand)
			}
			if turn.EndSession {
				t.Error("state mismatch should not end the conversation")
			}
			if turn.Memory != tt.mem {
				t.Errorf("memory = %+v, want unchanged %+v", turn.Memory, tt.mem)
			}
		})
	}
}

func TestChildNameOutsideChooseState(t *testing.T) {
	mem := Memory{State: StateConfirmChild, LastChild: "George", LastChildID: "2"}
	req := Request{Intent: IntentChildName, IntentName: "ChildName", Child: "George", Memory: mem}

	turn := handle(t, georgeAccount(), req)
	if turn.Speech != msgDidntUnderstand {
		t.Errorf("speech = %q, want %q", turn.Speech, msgDidntUnderstand)
	}
	if turn.Memory != mem {
		t.Errorf("memory = %+v, want unchanged %+v", turn.Memory, mem)
	}
}

func TestSubDialogueAsFirstTurn(t *testing.T) {
	for _, intent := range []Intent{IntentYes, IntentNo, IntentChildName} {
		req := Request{
			Intent:     intent,
			IntentName: intent.String(),
			NewSession: true,
			Memory:     confirmMemory(),
		}
		turn := handle(t, georgeAccount(), req)

		if turn.Speech != msgDidntUnderstand {
			t.Errorf("%v: speech = %q, want %q", intent, turn.Speech, msgDidntUnderstand)
		}
		if !turn.EndSession {
			t.Errorf("%v: first-turn sub-dialogue should end the conversation", intent)
		}
		if turn.Memory != (Memory{}) {
			t.Errorf("%v: memory should be cleared, got %+v", intent, turn.Memory)
		}
	}
}

func TestResumeOutsideWhitelist(t *testing.T) {
	for _, last := range []string{"BottleStatus", "BottleTotal", "DiaperStatus", "", "Bogus"} {
		mem := confirmMemory()
		mem.LastIntent = last
		req := Request{Intent: IntentYes, IntentName: "AMAZON.YesIntent", Memory: mem}

		turn := handle(t, georgeAccount(), req)

		if turn.Speech != msgCouldntRemember {
			t.Errorf("lastIntent %q: speech = %q, want %q", last, turn.Speech, msgCouldntRemember)
		}
		if !turn.EndSession {
			t.Errorf("lastIntent %q: should end the conversation", last)
		}
	}
}

func TestNoThenChooseFlow(t *testing.T) {
	// Full sub-dialogue: confirm rejected, then a name picks the
	// other child and resumes the deferred query.
	acct := georgeAccount()
	acct.children = append(acct.children, babyconnect.Child{ID: 3, Name: "Ringo"})

	noTurn := handle(t, acct, Request{Intent: IntentNo, IntentName: "AMAZON.NoIntent", Memory: confirmMemory()})
	if noTurn.Memory.State != StateChooseChild {
		t.Fatalf("state after no = %q, want %q", noTurn.Memory.State, StateChooseChild)
	}

	nameTurn := handle(t, acct, Request{
		Intent:     IntentChildName,
		IntentName: "ChildName",
		Child:      "Ringo",
		Memory:     noTurn.Memory,
	})

	want := "Ringo is currently sleeping. He has been asleep for 50 minutes."
	if nameTurn.Speech != want {
		t.Errorf("speech = %q, want %q", nameTurn.Speech, want)
	}
	if acct.lastStatusID != 3 {
		t.Errorf("status fetched for id %d, want 3", acct.lastStatusID)
	}
}
