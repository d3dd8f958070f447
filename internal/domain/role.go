package domain

// Role is a character dealt to a player at game start.
type Role string

const (
	RoleRedJ      Role = "Red J"
	RoleBlackJ    Role = "Black J"
	RolePoliceman Role = "Policeman"
	RoleSnitch    Role = "Snitch"
	RoleDoctor    Role = "Doctor"
	RoleButcher   Role = "Butcher"
	RoleMayor     Role = "Mayor"
	RoleCitizen   Role = "Citizen"
)

// String returns the string representation of the role
func (r Role) String() string {
	return string(r)
}

// IsMurderer returns true for the two murderer roles.
func (r Role) IsMurderer() bool {
	return r == RoleRedJ || r == RoleBlackJ
}

// HasNightAction returns true for roles that must act or pass each night.
func (r Role) HasNightAction() bool {
	return r == RoleButcher || r == RoleDoctor
}

// OptionalRole identifies a role the host can toggle in the lobby. The set
// is closed; anything else arriving from the wire is rejected at the boundary.
type OptionalRole string

const (
	OptionalDoctor OptionalRole = "doctor"
)

// ParseOptionalRole validates a toggle identifier received from a client.
func ParseOptionalRole(s string) (OptionalRole, error) {
	switch OptionalRole(s) {
	case OptionalDoctor:
		return OptionalDoctor, nil
	}
	return "", ErrInvalidRoleToggle
}

// DefaultEnabledRoles returns the initial optional-role toggles for a new room.
func DefaultEnabledRoles() map[OptionalRole]bool {
	return map[OptionalRole]bool{
		OptionalDoctor: true,
	}
}
