package models

// InteractionKind is what the acting user did to the counterpart. A
// pair of users holds at most one live interaction; writing a new one
// replaces the previous kind.
type InteractionKind string

const (
	KindWave         InteractionKind = "wave"
	KindIntro        InteractionKind = "intro"
	KindConversation InteractionKind = "conversation"
	KindPass         InteractionKind = "pass"
	KindBlock        InteractionKind = "block"
)

func (k InteractionKind) Valid() bool {
	switch k {
	case KindWave, KindIntro, KindConversation, KindPass, KindBlock:
		return true
	}
	return false
}

// ConnectionStatus is the relationship between two members as seen
// from one side. Directional kinds (wave, intro) resolve differently
// for the actor and the counterpart.
type ConnectionStatus string

const (
	ConnectionNone          ConnectionStatus = "no-interaction"
	ConnectionWaveSent      ConnectionStatus = "wave-sent"
	ConnectionWaveReceived  ConnectionStatus = "wave-received"
	ConnectionIntroSent     ConnectionStatus = "intro-sent"
	ConnectionIntroReceived ConnectionStatus = "intro-received"
	ConnectionConnected     ConnectionStatus = "connected"
	ConnectionPassed        ConnectionStatus = "passed"
	ConnectionBlocked       ConnectionStatus = "blocked"
)

// CanInteract reports whether the viewer may still wave, intro or
// message the counterpart.
func (c ConnectionStatus) CanInteract() bool {
	return c != ConnectionPassed && c != ConnectionBlocked
}

// Interaction stores the single live record for a user pair. UserAID
// and UserBID are kept in ascending order so each pair maps to one
// row; ActorID says which of the two wrote the current kind.
type Interaction struct {
	Model
	UserAID uint            `json:"user_a_id" gorm:"not null;uniqueIndex:idx_interaction_pair"`
	UserBID uint            `json:"user_b_id" gorm:"not null;uniqueIndex:idx_interaction_pair"`
	ActorID uint            `json:"actor_id" gorm:"not null"`
	Kind    InteractionKind `json:"kind" gorm:"not null"`
	Message string          `json:"message,omitempty"`
}

// NormalizePair orders two user ids ascending.
func NormalizePair(a, b uint) (uint, uint) {
	if a > b {
		return b, a
	}
	return a, b
}

// Counterpart returns the other member of the pair.
func (in *Interaction) Counterpart(viewerID uint) uint {
	if in.UserAID == viewerID {
		return in.UserBID
	}
	return in.UserAID
}

// Locked reports whether the record may only be rewritten by its
// author. A pass or block freezes the pair for the other member.
func (in *Interaction) Locked() bool {
	return in.Kind == KindPass || in.Kind == KindBlock
}

// CanOverwrite reports whether actorID may replace this record.
func (in *Interaction) CanOverwrite(actorID uint) bool {
	if in.Locked() {
		return in.ActorID == actorID
	}
	return true
}

// ResolveConnection derives the viewer's status from the live record.
// A nil record means the pair never interacted.
func ResolveConnection(viewerID uint, in *Interaction) ConnectionStatus {
	if in == nil {
		return ConnectionNone
	}
	switch in.Kind {
	case KindConversation:
		return ConnectionConnected
	case KindPass:
		return ConnectionPassed
	case KindBlock:
		return ConnectionBlocked
	case KindWave:
		if in.ActorID == viewerID {
			return ConnectionWaveSent
		}
		return ConnectionWaveReceived
	case KindIntro:
		if in.ActorID == viewerID {
			return ConnectionIntroSent
		}
		return ConnectionIntroReceived
	}
	return ConnectionNone
}

// ConnectionResponse is what the status endpoint returns.
type ConnectionResponse struct {
	Counterpart UserResponse     `json:"counterpart"`
	Status      ConnectionStatus `json:"status"`
	CanInteract bool             `json:"can_interact"`
	Message     string           `json:"message,omitempty"`
}

// InteractionRequest is the body accepted by wave and intro writes.
type InteractionRequest struct {
	Message string `json:"message" conform:"trim"`
}
