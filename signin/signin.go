// Package signin makes a locally signed-in profile look signed in to the
// online service.
package signin

// State is a profile's sign-in state.
type State int

const (
	NotSignedIn State = iota
	SignedInLocally
	SignedInToLive
)

func (s State) String() string {
	switch s {
	case NotSignedIn:
		return "not signed in"
	case SignedInLocally:
		return "signed in locally"
	case SignedInToLive:
		return "signed in to live"
	default:
		return "unknown"
	}
}

// Info is the sign-in record of a profile.
type Info struct {
	XUID        uint64
	State       State
	Name        string
	SponsorXUID uint64
}

// Privilege names a capability checked before online play.
type Privilege uint32

const (
	PrivilegeMultiplayerSessions Privilege = 254
	PrivilegeCommunications      Privilege = 252
	PrivilegeProfileViewing      Privilege = 249
	PrivilegeUserCreatedContent  Privilege = 247
	PrivilegePresence            Privilege = 244
	PrivilegeContentAuthor       Privilege = 243
	PrivilegePurchaseContent     Privilege = 245
)

// SpoofState promotes a local sign-in to an online one. Profiles that are
// not signed in stay that way.
func SpoofState(s State) State {
	if s == SignedInLocally {
		return SignedInToLive
	}
	return s
}

// SpoofInfo applies SpoofState to info.
func SpoofInfo(info Info) Info {
	info.State = SpoofState(info.State)
	return info
}

// CheckPrivilege grants every privilege.
func CheckPrivilege(Privilege) bool {
	return true
}
