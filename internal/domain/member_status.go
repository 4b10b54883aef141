package domain

// MemberStatus is the lifecycle status of a registration group member.
type MemberStatus string

const (
	MemberStatusInvited  MemberStatus = "invited"
	MemberStatusPending  MemberStatus = "pending"
	MemberStatusActive   MemberStatus = "active"
	MemberStatusDeclined MemberStatus = "declined"
	MemberStatusRemoved  MemberStatus = "removed"
)

// memberTransitions lists, for each status, the statuses it may move to.
// declined and removed can only come back through a fresh invite.
var memberTransitions = map[MemberStatus][]MemberStatus{
	MemberStatusInvited:  {MemberStatusInvited, MemberStatusActive, MemberStatusDeclined, MemberStatusRemoved},
	MemberStatusPending:  {MemberStatusPending, MemberStatusActive, MemberStatusDeclined, MemberStatusRemoved},
	MemberStatusActive:   {MemberStatusActive, MemberStatusRemoved},
	MemberStatusDeclined: {MemberStatusDeclined, MemberStatusInvited},
	MemberStatusRemoved:  {MemberStatusRemoved, MemberStatusInvited},
}

// CanTransition reports whether a member in status current may be moved to next.
// Unknown statuses are never allowed.
func CanTransition(current, next MemberStatus) bool {
	for _, s := range memberTransitions[current] {
		if s == next {
			return true
		}
	}
	return false
}

// Valid reports whether s is a known member status.
func (s MemberStatus) Valid() bool {
	_, ok := memberTransitions[s]
	return ok
}

// Seated reports whether the member occupies a seat in the group for capacity purposes.
func (s MemberStatus) Seated() bool {
	return s == MemberStatusInvited || s == MemberStatusPending || s == MemberStatusActive
}
