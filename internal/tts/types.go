package tts

// State says which provider Speak tries first.
type State int

const (
	// StateNormal tries the premium provider first.
	StateNormal State = iota
	// StateDegraded goes straight to the free provider.
	StateDegraded
)

func (s State) String() string {
	if s == StateDegraded {
		return "DEGRADED"
	}
	return "NORMAL"
}

// ProviderPremium names the premium provider in events.
const ProviderPremium = "elevenlabs"
