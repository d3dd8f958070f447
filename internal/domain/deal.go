package domain

import "math/rand"

// MinPlayers is the smallest roster that can start a game: the two murderer
// roles are mandatory and always dealt.
const MinPlayers = 2

// rolePool builds the canonical ordered pool for n players: the two
// murderers first, then each enabled optional role in priority order, then
// the remaining named roles. The pool is truncated to n and padded with
// citizens when the roster outgrows it.
func rolePool(n int, enabled map[OptionalRole]bool) []Role {
	pool := []Role{RoleRedJ, RoleBlackJ}
	if enabled[OptionalDoctor] {
		pool = append(pool, RoleDoctor)
	}
	pool = append(pool, RolePoliceman, RoleSnitch, RoleButcher, RoleMayor)

	if len(pool) > n {
		pool = pool[:n]
	}
	for len(pool) < n {
		pool = append(pool, RoleCitizen)
	}
	return pool
}

// DealRoles returns a uniformly shuffled role assignment for n players, one
// role per player in roster order. It fails before any state is touched when
// the roster cannot seat the mandatory roles.
func DealRoles(n int, enabled map[OptionalRole]bool) ([]Role, error) {
	if n < MinPlayers {
		return nil, ErrNotEnoughPlayers
	}

	roles := rolePool(n, enabled)
	rand.Shuffle(len(roles), func(i, j int) {
		roles[i], roles[j] = roles[j], roles[i]
	})
	return roles, nil
}
