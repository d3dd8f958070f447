package domain

// RoleView is the private, per-player slice of game knowledge. It is built
// fresh on every request and never cached: murderer liveness changes over
// the game and dead murderers must not be disclosed.
type RoleView struct {
	Role             Role     `json:"role"`
	Nickname         string   `json:"nickname"`
	IsAlive          bool     `json:"isAlive"`
	VisibleMurderers []string `json:"visibleMurderers"`
}

// RoleViewFor computes what a player is allowed to see: always their own
// role, and for the informed roles the nicknames of specific live murderers.
// Each murderer sees its live counterpart, the policeman sees the live Red J
// and the snitch sees the live Black J; everyone else sees nothing extra.
func (r *Room) RoleViewFor(p *Player) RoleView {
	view := RoleView{
		Role:             p.Role,
		Nickname:         p.Nickname,
		IsAlive:          p.Alive,
		VisibleMurderers: []string{},
	}

	var watched Role
	switch p.Role {
	case RoleRedJ:
		watched = RoleBlackJ
	case RoleBlackJ:
		watched = RoleRedJ
	case RolePoliceman:
		watched = RoleRedJ
	case RoleSnitch:
		watched = RoleBlackJ
	default:
		return view
	}

	for _, other := range r.Players() {
		if other.ID != p.ID && other.Alive && other.Role == watched {
			view.VisibleMurderers = append(view.VisibleMurderers, other.Nickname)
		}
	}
	return view
}
