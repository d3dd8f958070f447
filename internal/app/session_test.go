package app

import (
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/Stavsavv/PalermoNight/internal/domain"
)

// fakeClient records every event delivered to one player.
type fakeClient struct {
	mu     sync.Mutex
	events []domain.Event
}

func (c *fakeClient) Send(event domain.Event) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, event)
	return nil
}

func (c *fakeClient) Close() error { return nil }

func (c *fakeClient) ofType(t domain.EventType) []domain.Event {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []domain.Event
	for _, e := range c.events {
		if e.Type == t {
			out = append(out, e)
		}
	}
	return out
}

type RoomSessionTestSuite struct {
	suite.Suite
	session *RoomSession
	ids     []string
	clients map[string]*fakeClient
}

func TestRoomSessionSuite(t *testing.T) {
	suite.Run(t, new(RoomSessionTestSuite))
}

func (s *RoomSessionTestSuite) SetupTest() {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	s.session = NewRoomSession(domain.NewRoom("GAME42"), nil, logger)
	s.ids = nil
	s.clients = make(map[string]*fakeClient)
}

func (s *RoomSessionTestSuite) TearDownTest() {
	s.session.Close()
}

// joinPlayers fills the room with n connected players p1..pn.
func (s *RoomSessionTestSuite) joinPlayers(n int) {
	for i := 1; i <= n; i++ {
		id := fmt.Sprintf("p%d", i)
		client := &fakeClient{}
		s.session.RegisterClient(id, client)
		_, err := s.session.Join(id, "nick"+id)
		s.Require().NoError(err)
		s.ids = append(s.ids, id)
		s.clients[id] = client
	}
}

// playerWithRole finds the player the shuffle dealt the given role to.
func (s *RoomSessionTestSuite) playerWithRole(role domain.Role) *domain.Player {
	for _, p := range s.session.room.Players() {
		if p.Role == role {
			return p
		}
	}
	s.Require().FailNowf("role not dealt", "no player holds %s", role)
	return nil
}

// waitFor polls a client until at least one event of the given type arrived.
func (s *RoomSessionTestSuite) waitFor(client *fakeClient, t domain.EventType) domain.Event {
	var got []domain.Event
	s.Require().Eventuallyf(func() bool {
		got = client.ofType(t)
		return len(got) > 0
	}, time.Second, 5*time.Millisecond, "no %s event delivered", t)
	return got[len(got)-1]
}

func (s *RoomSessionTestSuite) waitForNone(client *fakeClient, t domain.EventType) {
	// Give the broadcaster goroutine a chance to drain before asserting absence.
	time.Sleep(50 * time.Millisecond)
	s.Require().Empty(client.ofType(t))
}

func (s *RoomSessionTestSuite) TestJoinAnnouncesToOthers() {
	s.joinPlayers(2)

	ev := s.waitFor(s.clients["p1"], domain.EventPlayerJoined)
	payload, ok := ev.Payload.(domain.MembershipPayload)
	s.Require().True(ok)
	s.Equal("p2", payload.PlayerID)

	// The joiner never hears about their own join.
	for _, e := range s.clients["p2"].ofType(domain.EventPlayerJoined) {
		s.NotEqual("p2", e.Payload.(domain.MembershipPayload).PlayerID)
	}
}

func (s *RoomSessionTestSuite) TestJoinResultMarksHost() {
	s.joinPlayers(2)

	res, err := s.session.Join("p3", "nickp3")
	s.Require().NoError(err)
	s.False(res.IsHost)
	s.Len(res.Roster, 3)
}

func (s *RoomSessionTestSuite) TestToggleRoleHostOnly() {
	s.joinPlayers(2)

	err := s.session.ToggleRole("p2", "doctor")
	s.Require().ErrorIs(err, domain.ErrNotHost)

	s.Require().NoError(s.session.ToggleRole("p1", "doctor"))
	ev := s.waitFor(s.clients["p2"], domain.EventRolesUpdated)
	payload := ev.Payload.(domain.RolesUpdatedPayload)
	s.False(payload.RolesEnabled[domain.OptionalDoctor])

	err = s.session.ToggleRole("p1", "vampire")
	s.Require().ErrorIs(err, domain.ErrInvalidRoleToggle)
}

func (s *RoomSessionTestSuite) TestStartValidation() {
	s.joinPlayers(2)

	s.Require().ErrorIs(s.session.Start("p2"), domain.ErrNotHost)
	s.Require().NoError(s.session.Start("p1"))
	s.Require().ErrorIs(s.session.Start("p1"), domain.ErrGameAlreadyStarted)
}

func (s *RoomSessionTestSuite) TestStartDealsRolesPrivately() {
	s.joinPlayers(5)
	s.Require().NoError(s.session.Start("p1"))

	dealt := make(map[domain.Role]int)
	for id, client := range s.clients {
		ev := s.waitFor(client, domain.EventRoleAssignment)
		s.Equal(id, ev.To, "role assignments are addressed individually")
		payload := ev.Payload.(domain.RoleAssignmentPayload)
		dealt[payload.Role]++

		s.Len(client.ofType(domain.EventRoleAssignment), 1,
			"a player must see exactly one assignment: their own")
	}
	s.Equal(1, dealt[domain.RoleRedJ])
	s.Equal(1, dealt[domain.RoleBlackJ])
	s.Equal(1, dealt[domain.RoleDoctor])

	started := s.waitFor(s.clients["p1"], domain.EventGameStarted)
	for _, entry := range started.Payload.(domain.GameStartedPayload).Players {
		s.Empty(entry.Role, "the public announcement carries no roles")
	}

	s.Equal(domain.PhaseNight, s.session.Phase())
}

func (s *RoomSessionTestSuite) TestNightInfoGoesToLivingPlayersOnly() {
	s.joinPlayers(5)
	s.Require().NoError(s.session.Start("p1"))

	redJ := s.playerWithRole(domain.RoleRedJ)
	blackJ := s.playerWithRole(domain.RoleBlackJ)

	ev := s.waitFor(s.clients[redJ.ID], domain.EventNightInfo)
	s.Equal(redJ.ID, ev.To)
	view := ev.Payload.(domain.RoleView)
	s.Equal(domain.RoleRedJ, view.Role)
	s.Equal([]string{blackJ.Nickname}, view.VisibleMurderers)
}

// Five players with the doctor enabled deal no butcher, so the doctor is the
// lone night actor and a skip opens the day.
func (s *RoomSessionTestSuite) startFivePlayerDay() {
	s.joinPlayers(5)
	s.Require().NoError(s.session.Start("p1"))

	doctor := s.playerWithRole(domain.RoleDoctor)
	s.Require().NoError(s.session.PlayerAction(doctor.ID, ActionSkip, "", false, false))
	s.Require().Equal(domain.PhaseDay, s.session.Phase())
}

func (s *RoomSessionTestSuite) TestCitizensWinByLynchingBothMurderers() {
	s.startFivePlayerDay()

	redJ := s.playerWithRole(domain.RoleRedJ)
	for _, id := range s.ids {
		s.Require().NoError(s.session.Vote(id, redJ.ID))
	}

	ev := s.waitFor(s.clients["p1"], domain.EventPlayerEliminated)
	payload := ev.Payload.(domain.PlayerEliminatedPayload)
	s.Equal(redJ.ID, payload.PlayerID)
	s.Equal(domain.VerdictGuilty, payload.Verdict)

	// One murderer down, three citizens standing: a new night begins and the
	// doctor is owed again.
	s.Require().Equal(domain.PhaseNight, s.session.Phase())
	doctor := s.playerWithRole(domain.RoleDoctor)
	s.Require().NoError(s.session.PlayerAction(doctor.ID, ActionSkip, "", false, false))

	blackJ := s.playerWithRole(domain.RoleBlackJ)
	for _, id := range s.ids {
		if id == redJ.ID {
			s.Require().ErrorIs(s.session.Vote(id, blackJ.ID), domain.ErrDeadPlayerVote)
			continue
		}
		s.Require().NoError(s.session.Vote(id, blackJ.ID))
	}

	ended := s.waitFor(s.clients["p1"], domain.EventGameEnded)
	endPayload := ended.Payload.(domain.GameEndedPayload)
	s.Equal(domain.WinnerCitizens, endPayload.Winner)
	for _, entry := range endPayload.Players {
		s.NotEmpty(entry.Role, "the final roster reveals every role")
	}
	s.Equal(domain.PhaseEnded, s.session.Phase())
}

func (s *RoomSessionTestSuite) TestDoctorProtectionBlocksElimination() {
	s.joinPlayers(5)
	s.Require().NoError(s.session.Start("p1"))

	doctor := s.playerWithRole(domain.RoleDoctor)
	policeman := s.playerWithRole(domain.RolePoliceman)
	s.Require().NoError(s.session.PlayerAction(doctor.ID, ActionChooseTarget, policeman.ID, false, false))

	ack := s.waitFor(s.clients[doctor.ID], domain.EventDoctorAction)
	s.Equal(doctor.ID, ack.To, "the protection choice stays between the doctor and the server")
	otherID := s.ids[0]
	if otherID == doctor.ID {
		otherID = s.ids[1]
	}
	s.waitForNone(s.clients[otherID], domain.EventDoctorAction)

	s.Require().Equal(domain.PhaseDay, s.session.Phase())
	for _, id := range s.ids {
		s.Require().NoError(s.session.Vote(id, policeman.ID))
	}

	ev := s.waitFor(s.clients["p1"], domain.EventPlayerProtected)
	s.Equal(policeman.ID, ev.Payload.(domain.PlayerProtectedPayload).PlayerID)
	s.waitForNone(s.clients["p1"], domain.EventPlayerEliminated)
	s.Equal(domain.PhaseNight, s.session.Phase(), "a protected round still advances")
}

func (s *RoomSessionTestSuite) TestTieBroadcastsNoElimination() {
	s.startFivePlayerDay()

	s.Require().NoError(s.session.Vote(s.ids[0], s.ids[1]))
	s.Require().NoError(s.session.Vote(s.ids[1], s.ids[0]))
	for _, id := range s.ids[2:] {
		s.Require().NoError(s.session.Vote(id, id))
	}

	// 1-1-1-1-1: five leaders tie, nobody dies.
	s.waitFor(s.clients["p1"], domain.EventNoElimination)
	s.Equal(domain.PhaseNight, s.session.Phase())
}

// Six players with the doctor disabled deal a butcher and a mayor.
func (s *RoomSessionTestSuite) startSixPlayerNight() {
	s.joinPlayers(6)
	s.Require().NoError(s.session.ToggleRole("p1", "doctor"))
	s.Require().NoError(s.session.Start("p1"))
}

func (s *RoomSessionTestSuite) TestButcherMuteIsPublicAndBlocksVoting() {
	s.startSixPlayerNight()

	butcher := s.playerWithRole(domain.RoleButcher)
	snitch := s.playerWithRole(domain.RoleSnitch)
	s.Require().NoError(s.session.PlayerAction(butcher.ID, ActionChooseTarget, snitch.ID, true, false))

	ev := s.waitFor(s.clients[snitch.ID], domain.EventButcherAction)
	payload := ev.Payload.(domain.ButcherActionPayload)
	s.Equal(snitch.ID, payload.TargetID)
	s.True(payload.Mute)

	s.Require().Equal(domain.PhaseDay, s.session.Phase())
	s.Require().ErrorIs(s.session.Vote(snitch.ID, butcher.ID), domain.ErrMutedOrSilencedVote)
	s.Require().ErrorIs(s.session.Chat(snitch.ID, "it was the butcher"), domain.ErrActionNotPermitted)
}

func (s *RoomSessionTestSuite) TestMayorOverrideResolvesImmediately() {
	s.startSixPlayerNight()

	butcher := s.playerWithRole(domain.RoleButcher)
	mayor := s.playerWithRole(domain.RoleMayor)
	policeman := s.playerWithRole(domain.RolePoliceman)
	snitch := s.playerWithRole(domain.RoleSnitch)
	s.Require().NoError(s.session.PlayerAction(butcher.ID, ActionSkip, "", false, false))

	// Two votes give the policeman a unique lead; the mayor then forces the
	// round onto the snitch before anyone else votes.
	s.Require().NoError(s.session.Vote(butcher.ID, policeman.ID))
	s.Require().NoError(s.session.Vote(snitch.ID, policeman.ID))
	s.Require().NoError(s.session.PlayerAction(mayor.ID, ActionOverrideVote, snitch.ID, false, false))

	override := s.waitFor(s.clients["p1"], domain.EventMayorOverride)
	s.Equal(mayor.ID, override.Payload.(domain.MayorOverridePayload).PlayerID)

	eliminated := s.waitFor(s.clients["p1"], domain.EventPlayerEliminated)
	elim := eliminated.Payload.(domain.PlayerEliminatedPayload)
	s.Equal(snitch.ID, elim.PlayerID)
	s.Equal(domain.VerdictInnocent, elim.Verdict)

	penalty := s.waitFor(s.clients["p1"], domain.EventMayorPenalty)
	s.Equal(mayor.ID, penalty.Payload.(domain.MayorPenaltyPayload).PlayerID)

	// Two murderers against the two remaining citizens: parity ends the game.
	ended := s.waitFor(s.clients["p1"], domain.EventGameEnded)
	s.Equal(domain.WinnerMurderers, ended.Payload.(domain.GameEndedPayload).Winner)
}

func (s *RoomSessionTestSuite) TestLeaveUnblocksNight() {
	s.joinPlayers(5)
	s.Require().NoError(s.session.Start("p1"))

	doctor := s.playerWithRole(domain.RoleDoctor)
	s.Require().Equal(domain.PhaseNight, s.session.Phase())

	empty := s.session.Leave(doctor.ID)
	s.False(empty)
	s.Equal(domain.PhaseDay, s.session.Phase(), "a departed night actor no longer blocks morning")
}

func (s *RoomSessionTestSuite) TestLeaveCompletesTally() {
	s.startFivePlayerDay()

	redJ := s.playerWithRole(domain.RoleRedJ)
	leaver := s.ids[4]
	if leaver == redJ.ID {
		leaver = s.ids[3]
	}
	for _, id := range s.ids {
		if id == leaver {
			continue
		}
		s.Require().NoError(s.session.Vote(id, redJ.ID))
	}
	s.Require().Equal(domain.PhaseDay, s.session.Phase(), "one voter is still missing")

	s.session.Leave(leaver)

	ev := s.waitFor(s.clients[redJ.ID], domain.EventPlayerEliminated)
	s.Equal(redJ.ID, ev.Payload.(domain.PlayerEliminatedPayload).PlayerID)
	s.Equal(domain.PhaseNight, s.session.Phase(), "the shrunken tally resolves the day")
}

func (s *RoomSessionTestSuite) TestChatRules() {
	s.joinPlayers(3)

	err := s.session.Chat("p1", "hello")
	s.Require().ErrorIs(err, domain.ErrActionNotPermitted, "the lobby has no day chat")

	s.Require().NoError(s.session.Start("p1"))
	// n=3 with the doctor enabled deals murderers plus a doctor
	doctor := s.playerWithRole(domain.RoleDoctor)
	s.Require().NoError(s.session.PlayerAction(doctor.ID, ActionSkip, "", false, false))
	s.Require().Equal(domain.PhaseDay, s.session.Phase())

	s.Require().ErrorIs(s.session.Chat("p1", "   "), domain.ErrMalformedAction)
	s.Require().NoError(s.session.Chat("p1", "  good morning  "))

	ev := s.waitFor(s.clients["p2"], domain.EventChat)
	payload := ev.Payload.(domain.ChatPayload)
	s.Equal("good morning", payload.Message, "chat lines are trimmed")
	s.Equal("nickp1", payload.Nickname)
}

func (s *RoomSessionTestSuite) TestRestartReturnsRoomToLobby() {
	s.startFivePlayerDay()

	blackJ := s.playerWithRole(domain.RoleBlackJ)
	redJ := s.playerWithRole(domain.RoleRedJ)
	citizensWin := func(target *domain.Player) {
		for _, p := range s.session.room.Players() {
			if p.Alive && p.CanVote() {
				s.Require().NoError(s.session.Vote(p.ID, target.ID))
			}
		}
	}
	citizensWin(redJ)
	doctor := s.playerWithRole(domain.RoleDoctor)
	s.Require().NoError(s.session.PlayerAction(doctor.ID, ActionSkip, "", false, false))
	citizensWin(blackJ)
	s.Require().Equal(domain.PhaseEnded, s.session.Phase())

	s.Require().ErrorIs(s.session.Restart("p2"), domain.ErrNotHost)
	s.Require().NoError(s.session.Restart("p1"))

	ev := s.waitFor(s.clients["p1"], domain.EventGameRestarted)
	payload := ev.Payload.(domain.GameRestartedPayload)
	s.Equal(domain.PhaseLobby, payload.Phase)
	s.Len(payload.Players, 5)
	s.Equal(domain.PhaseLobby, s.session.Phase())
}
