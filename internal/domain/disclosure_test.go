package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRoleViewDisclosure(t *testing.T) {
	r := startedRoom(RoleRedJ, RoleBlackJ, RolePoliceman, RoleSnitch, RoleDoctor, RoleCitizen)

	view := func(id string) RoleView {
		p, err := r.Player(id)
		if err != nil {
			t.Fatalf("player %s: %v", id, err)
		}
		return r.RoleViewFor(p)
	}

	assert.Equal(t, []string{"nickp2"}, view("p1").VisibleMurderers, "Red J sees the Black J")
	assert.Equal(t, []string{"nickp1"}, view("p2").VisibleMurderers, "Black J sees the Red J")
	assert.Equal(t, []string{"nickp1"}, view("p3").VisibleMurderers, "policeman sees the Red J")
	assert.Equal(t, []string{"nickp2"}, view("p4").VisibleMurderers, "snitch sees the Black J")
	assert.Empty(t, view("p5").VisibleMurderers)
	assert.Empty(t, view("p6").VisibleMurderers)

	assert.Equal(t, RoleDoctor, view("p5").Role, "everyone sees their own role")
}

func TestRoleViewOmitsDeadMurderers(t *testing.T) {
	r := startedRoom(RoleRedJ, RoleBlackJ, RolePoliceman, RoleSnitch, RoleCitizen)

	p1, _ := r.Player("p1")
	p1.Alive = false

	assert.Empty(t, r.RoleViewFor(mustPlayer(t, r, "p3")).VisibleMurderers,
		"a dead Red J disappears from the policeman's view")
	assert.Empty(t, r.RoleViewFor(mustPlayer(t, r, "p2")).VisibleMurderers)
	assert.Equal(t, []string{"nickp2"}, r.RoleViewFor(mustPlayer(t, r, "p4")).VisibleMurderers,
		"the snitch's Black J is still alive")
}
