package domain

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanTransition(t *testing.T) {
	all := []MemberStatus{
		MemberStatusInvited,
		MemberStatusPending,
		MemberStatusActive,
		MemberStatusDeclined,
		MemberStatusRemoved,
	}
	allowed := map[MemberStatus]map[MemberStatus]bool{
		MemberStatusInvited:  {MemberStatusInvited: true, MemberStatusActive: true, MemberStatusDeclined: true, MemberStatusRemoved: true},
		MemberStatusPending:  {MemberStatusPending: true, MemberStatusActive: true, MemberStatusDeclined: true, MemberStatusRemoved: true},
		MemberStatusActive:   {MemberStatusActive: true, MemberStatusRemoved: true},
		MemberStatusDeclined: {MemberStatusDeclined: true, MemberStatusInvited: true},
		MemberStatusRemoved:  {MemberStatusRemoved: true, MemberStatusInvited: true},
	}

	for _, from := range all {
		for _, to := range all {
			t.Run(fmt.Sprintf("%s to %s", from, to), func(t *testing.T) {
				assert.Equal(t, allowed[from][to], CanTransition(from, to))
			})
		}
	}
}

func TestCanTransition_recovery_paths(t *testing.T) {
	assert.False(t, CanTransition(MemberStatusDeclined, MemberStatusActive))
	assert.False(t, CanTransition(MemberStatusRemoved, MemberStatusActive))
	assert.True(t, CanTransition(MemberStatusDeclined, MemberStatusInvited))
	assert.True(t, CanTransition(MemberStatusRemoved, MemberStatusInvited))
	assert.False(t, CanTransition(MemberStatusActive, MemberStatusInvited))
}

func TestCanTransition_unknown_status(t *testing.T) {
	assert.False(t, CanTransition("archived", MemberStatusActive))
	assert.False(t, CanTransition(MemberStatusInvited, "archived"))
	assert.False(t, CanTransition("archived", "archived"))
}

func TestMemberStatus_Seated(t *testing.T) {
	tests := []struct {
		status MemberStatus
		want   bool
	}{
		{MemberStatusInvited, true},
		{MemberStatusPending, true},
		{MemberStatusActive, true},
		{MemberStatusDeclined, false},
		{MemberStatusRemoved, false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.status.Seated(), string(tt.status))
	}
}
