package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEvaluateWinner(t *testing.T) {
	p := func(role Role, alive bool) *Player {
		return &Player{ID: string(role), Role: role, Alive: alive}
	}

	tests := []struct {
		name    string
		players []*Player
		winner  Winner
		over    bool
	}{
		{
			name: "game continues while citizens outnumber murderers",
			players: []*Player{
				p(RoleRedJ, true), p(RoleBlackJ, true),
				p(RoleCitizen, true), p(RoleCitizen, true), p(RolePoliceman, true),
			},
		},
		{
			name: "citizens win when both murderers are dead",
			players: []*Player{
				p(RoleRedJ, false), p(RoleBlackJ, false),
				p(RoleCitizen, true), p(RoleCitizen, false),
			},
			winner: WinnerCitizens,
			over:   true,
		},
		{
			name: "murderers win at parity",
			players: []*Player{
				p(RoleRedJ, true), p(RoleBlackJ, true),
				p(RoleCitizen, true), p(RoleMayor, true),
			},
			winner: WinnerMurderers,
			over:   true,
		},
		{
			name: "a lone surviving murderer wins",
			players: []*Player{
				p(RoleRedJ, true), p(RoleBlackJ, false),
				p(RoleCitizen, true), p(RoleCitizen, false),
			},
			winner: WinnerMurderers,
			over:   true,
		},
		{
			name: "dead players do not count toward either side",
			players: []*Player{
				p(RoleRedJ, false), p(RoleBlackJ, true),
				p(RoleCitizen, true), p(RoleDoctor, true),
			},
		},
		{
			name:    "an empty roster has no murderers",
			players: nil,
			winner:  WinnerCitizens,
			over:    true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			winner, over := EvaluateWinner(tt.players)
			assert.Equal(t, tt.over, over)
			assert.Equal(t, tt.winner, winner)
		})
	}
}
