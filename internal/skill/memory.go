package skill

// Sub-dialogue states stored in session memory. An absent state means
// no disambiguation is pending.
const (
	StateNone         = ""
	StateConfirmChild = "confirmchild"
	StateChooseChild  = "choosechild"
)

// Session attribute keys. These survive between turns of one
// conversation, carried by the voice platform.
const (
	keyState       = "state"
	keyLastChild   = "lastChild"
	keyLastChildID = "lastChildId"
	keyLastIntent  = "lastIntent"
)

// Memory is the conversation-scoped state, decoded once from the
// incoming session attributes. It is passed by value: handlers take a
// snapshot in and hand the next snapshot back on the Turn, so no two
// collaborators ever share a mutable session object.
type Memory struct {
	State       string
	LastChild   string
	LastChildID string
	LastIntent  string
}

func DecodeMemory(attrs map[string]string) Memory {
	return Memory{
		State:       attrs[keyState],
		LastChild:   attrs[keyLastChild],
		LastChildID: attrs[keyLastChildID],
		LastIntent:  attrs[keyLastIntent],
	}
}

// Encode renders the snapshot as session attributes, omitting empty
// fields. The zero Memory encodes to an empty map, which is how a
// turn clears the conversation.
func (m Memory) Encode() map[string]string {
	attrs := make(map[string]string, 4)
	if m.State != "" {
		attrs[keyState] = m.State
	}
	if m.LastChild != "" {
		attrs[keyLastChild] = m.LastChild
	}
	if m.LastChildID != "" {
		attrs[keyLastChildID] = m.LastChildID
	}
	if m.LastIntent != "" {
		attrs[keyLastIntent] = m.LastIntent
	}
	return attrs
}
