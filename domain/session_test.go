package domain

import (
	"fmt"
	"testing"
	"time"

	"planning-poker/errors"

	"github.com/stretchr/testify/require"
)

const localNode = "node-a"

var t0 = time.Date(2026, 10, 18, 9, 0, 0, 0, time.UTC)

func newSprintSession(t *testing.T) *Session {
	t.Helper()
	req := require.New(t)
	s := NewSession("Sprint 7", localNode, t0)
	_, err := s.Join("Ana", Facilitator, t0)
	req.NoError(err)
	_, err = s.Join("Bo", Member, t0.Add(time.Second))
	req.NoError(err)
	return s
}

func kinds(messages []Message) []MessageKind {
	var out []MessageKind
	for _, m := range messages {
		out = append(out, m.Kind())
	}
	return out
}

func TestSession_Join_Sequence_Keeps_One_Facilitator(t *testing.T) {
	req := require.New(t)
	s := NewSession("Team", localNode, t0)

	// Given a sequence of unique joins with a single facilitator request
	roles := []Role{Member, Observer, Facilitator, Member, Observer, Member}
	for i, role := range roles {
		_, err := s.Join(fmt.Sprintf("p%d", i), role, t0)
		req.NoError(err)
	}

	// Then every join is present and exactly one facilitator exists
	req.Len(s.Participants(), len(roles))
	facilitators := 0
	for _, p := range s.Participants() {
		if p.Role == Facilitator {
			facilitators++
		}
	}
	req.Equal(1, facilitators)
}

func TestSession_Join_Refuses_Duplicates(t *testing.T) {
	req := require.New(t)
	s := newSprintSession(t)

	// When the same name joins twice
	_, err := s.Join("Ana", Member, t0)
	req.ErrorIs(err, errors.ErrDuplicateParticipant)

	// When a second facilitator joins
	_, err = s.Join("Cy", Facilitator, t0)
	req.ErrorIs(err, errors.ErrDuplicateParticipant)

	// Names are case-sensitive
	_, err = s.Join("ana", Member, t0)
	req.NoError(err)

	_, err = s.Join("  ", Member, t0)
	req.ErrorIs(err, errors.ErrInvalidArgument)
}

func TestSession_Join_Notifies_Existing_Participants(t *testing.T) {
	req := require.New(t)
	s := newSprintSession(t)

	ana, _ := s.Participant("Ana")
	bo, _ := s.Participant("Bo")

	// Then only Ana was notified of Bo's arrival
	req.Equal([]MessageKind{ParticipantJoinedKind}, kinds(ana.Mailbox.Pending()))
	req.False(bo.Mailbox.HasMessage())

	msg, ok := ana.Mailbox.PopMessage()
	req.True(ok)
	req.Equal(ParticipantJoinedMessage{Name: "Bo", Role: Member}, msg.Payload)
}

func TestSession_Sprint7_Scenario(t *testing.T) {
	req := require.New(t)
	s := newSprintSession(t)

	// Given a started round
	req.NoError(s.StartEstimation("Ana", t0))
	req.Equal(Estimating, s.State())

	// When both vote 5
	req.NoError(s.SubmitEstimation("Ana", NewEstimation(5), t0))
	req.Equal(Estimating, s.State())
	req.NoError(s.SubmitEstimation("Bo", NewEstimation(5), t0))

	// Then the round finished with both votes in join order
	req.Equal(Finished, s.State())
	result := s.Result()
	req.Len(result, 2)
	req.Equal("Ana", result[0].Name)
	req.True(result[0].Estimation.Equal(NewEstimation(5)))
	req.Equal("Bo", result[1].Name)
	req.True(result[1].Estimation.Equal(NewEstimation(5)))

	bo, _ := s.Participant("Bo")
	pending := bo.Mailbox.Pending()
	last := pending[len(pending)-1]
	ended, ok := last.Payload.(EstimationEndedMessage)
	req.True(ok)
	req.Equal(1, ended.Round)
	req.Len(ended.Result, 2)
}

func TestSession_Infinity_And_Null_Votes_Complete_The_Round(t *testing.T) {
	req := require.New(t)
	s := newSprintSession(t)
	req.NoError(s.StartEstimation("Ana", t0))

	// When the facilitator plays infinity the round stays open
	req.NoError(s.SubmitEstimation("Ana", InfiniteEstimation(), t0))
	req.Equal(Estimating, s.State())

	// When the member plays the null card, it counts as a vote
	req.NoError(s.SubmitEstimation("Bo", NullEstimation(), t0))
	req.Equal(Finished, s.State())

	result := s.Result()
	req.True(result[0].Estimation.IsInfinite())
	req.True(result[1].Estimation.IsNull())
}

func TestSession_Round_State_Violations(t *testing.T) {
	req := require.New(t)
	s := newSprintSession(t)
	_, err := s.Join("Obs", Observer, t0)
	req.NoError(err)

	// Voting when no round is open
	req.ErrorIs(s.SubmitEstimation("Bo", NewEstimation(3), t0), errors.ErrInvalidOperation)
	// Canceling when no round is open
	req.ErrorIs(s.CancelEstimation("Ana", t0), errors.ErrInvalidOperation)
	// Members cannot start a round
	req.ErrorIs(s.StartEstimation("Bo", t0), errors.ErrInvalidOperation)

	req.NoError(s.StartEstimation("Ana", t0))
	// Starting twice
	req.ErrorIs(s.StartEstimation("Ana", t0), errors.ErrInvalidOperation)
	// Observers cannot vote
	req.ErrorIs(s.SubmitEstimation("Obs", NewEstimation(3), t0), errors.ErrInvalidOperation)
	// Cards outside the set are refused
	req.ErrorIs(s.SubmitEstimation("Bo", NewEstimation(4), t0), errors.ErrInvalidArgument)
	// Non facilitators cannot cancel
	req.ErrorIs(s.CancelEstimation("Bo", t0), errors.ErrInvalidOperation)
	// Card set is frozen while estimating
	req.ErrorIs(s.SetAvailableEstimations("Ana", []Estimation{NewEstimation(1)}, t0), errors.ErrInvalidOperation)
	// Unknown voter
	req.ErrorIs(s.SubmitEstimation("Nobody", NewEstimation(3), t0), errors.ErrParticipantNotFound)
}

func TestSession_Cancel_Discards_Votes(t *testing.T) {
	req := require.New(t)
	s := newSprintSession(t)
	req.NoError(s.StartEstimation("Ana", t0))
	req.NoError(s.SubmitEstimation("Ana", NewEstimation(8), t0))

	// When the facilitator cancels
	req.NoError(s.CancelEstimation("Ana", t0))

	// Then the session is idle and slots are cleared
	req.Equal(Idle, s.State())
	ana, _ := s.Participant("Ana")
	req.Nil(ana.Estimation)
	req.Nil(s.Result())

	bo, _ := s.Participant("Bo")
	pending := bo.Mailbox.Pending()
	req.Equal(EstimationCanceledKind, pending[len(pending)-1].Kind())

	// And a new round can start with empty slots
	req.NoError(s.StartEstimation("Ana", t0))
	req.Equal(2, s.Round())
}

func TestSession_New_Round_Clears_Previous_Votes(t *testing.T) {
	req := require.New(t)
	s := newSprintSession(t)
	req.NoError(s.StartEstimation("Ana", t0))
	req.NoError(s.SubmitEstimation("Ana", NewEstimation(1), t0))
	req.NoError(s.SubmitEstimation("Bo", NewEstimation(2), t0))
	req.Equal(Finished, s.State())

	req.NoError(s.StartEstimation("Ana", t0))
	for _, p := range s.Participants() {
		req.Nil(p.Estimation)
	}
	req.Nil(s.Result())
}

func TestSession_Disconnect_Facilitator_Promotes_Longest_Tenured_Member(t *testing.T) {
	req := require.New(t)
	s := newSprintSession(t)
	_, err := s.Join("Obs", Observer, t0)
	req.NoError(err)
	_, err = s.Join("Cy", Member, t0.Add(time.Minute))
	req.NoError(err)

	// When the facilitator leaves
	req.NoError(s.Disconnect("Ana", t0))

	// Then Bo, the earliest member, is promoted
	f, ok := s.Facilitator()
	req.True(ok)
	req.Equal("Bo", f.Name)
	cy, _ := s.Participant("Cy")
	req.Equal(Member, cy.Role)

	obs, _ := s.Participant("Obs")
	req.Contains(kinds(obs.Mailbox.Pending()), FacilitatorPromotedKind)
}

func TestSession_Disconnect_Facilitator_Without_Members(t *testing.T) {
	req := require.New(t)
	s := NewSession("Solo", localNode, t0)
	_, err := s.Join("Ana", Facilitator, t0)
	req.NoError(err)
	_, err = s.Join("Obs", Observer, t0)
	req.NoError(err)

	req.NoError(s.Disconnect("Ana", t0))
	_, ok := s.Facilitator()
	req.False(ok)

	// A later join may claim the role
	_, err = s.Join("Dee", Facilitator, t0)
	req.NoError(err)

	req.NoError(s.Disconnect("Dee", t0))
	req.NoError(s.Disconnect("Obs", t0))
	req.True(s.IsEmpty())
	req.ErrorIs(s.Disconnect("Obs", t0), errors.ErrParticipantNotFound)
}

func TestSession_Disconnect_Mid_Round_Keeps_Cast_Vote(t *testing.T) {
	req := require.New(t)
	s := newSprintSession(t)
	_, err := s.Join("Cy", Member, t0)
	req.NoError(err)
	req.NoError(s.StartEstimation("Ana", t0))

	// Given Bo voted then left
	req.NoError(s.SubmitEstimation("Bo", NewEstimation(13), t0))
	req.NoError(s.Disconnect("Bo", t0))
	req.Equal(Estimating, s.State())

	// When the remaining voters vote
	req.NoError(s.SubmitEstimation("Cy", NewEstimation(3), t0))
	req.NoError(s.SubmitEstimation("Ana", NewEstimation(5), t0))

	// Then Bo's vote is part of the result, in join order
	req.Equal(Finished, s.State())
	result := s.Result()
	req.Len(result, 3)
	req.Equal([]string{"Ana", "Bo", "Cy"}, []string{result[0].Name, result[1].Name, result[2].Name})
}

func TestSession_Disconnect_Last_Outstanding_Voter_Completes_Round(t *testing.T) {
	req := require.New(t)
	s := newSprintSession(t)
	req.NoError(s.StartEstimation("Ana", t0))
	req.NoError(s.SubmitEstimation("Ana", NewEstimation(2), t0))

	// When Bo leaves without voting
	req.NoError(s.Disconnect("Bo", t0))

	// Then the round ends with Ana only
	req.Equal(Finished, s.State())
	req.Len(s.Result(), 1)
	req.Equal("Ana", s.Result()[0].Name)
}

func TestSession_Available_Estimations(t *testing.T) {
	req := require.New(t)
	s := newSprintSession(t)

	values := []Estimation{NewEstimation(1), NewEstimation(2), NewEstimation(1), NullEstimation()}
	req.NoError(s.SetAvailableEstimations("Ana", values, t0))
	req.Len(s.AvailableEstimations(), 3)

	req.ErrorIs(s.SetAvailableEstimations("Bo", values, t0), errors.ErrInvalidOperation)
	req.ErrorIs(s.SetAvailableEstimations("Ana", nil, t0), errors.ErrInvalidArgument)

	bo, _ := s.Participant("Bo")
	pending := bo.Mailbox.Pending()
	req.Equal(AvailableEstimationsChangeKind, pending[len(pending)-1].Kind())
}

func TestSession_Timer_Does_Not_Affect_Round(t *testing.T) {
	req := require.New(t)
	s := newSprintSession(t)
	_, err := s.Join("Obs", Observer, t0)
	req.NoError(err)

	req.NoError(s.StartTimer("Bo", 2*time.Minute, t0))
	end, ok := s.TimerEndTime()
	req.True(ok)
	req.Equal(t0.Add(2*time.Minute), end)
	req.Equal(Idle, s.State())

	req.ErrorIs(s.StartTimer("Obs", time.Minute, t0), errors.ErrInvalidOperation)
	req.ErrorIs(s.StartTimer("Bo", 0, t0), errors.ErrInvalidArgument)

	req.NoError(s.CancelTimer("Ana", t0))
	_, ok = s.TimerEndTime()
	req.False(ok)
	// Canceling again is a no-op
	req.NoError(s.CancelTimer("Ana", t0))
}

func TestSession_Events_Are_Sequenced_Without_Gaps(t *testing.T) {
	req := require.New(t)
	s := newSprintSession(t)
	req.NoError(s.StartEstimation("Ana", t0))
	req.NoError(s.SubmitEstimation("Ana", NewEstimation(5), t0))
	req.NoError(s.SubmitEstimation("Bo", NewEstimation(5), t0))

	events := s.FlushEvents()
	for i, evt := range events {
		req.Equal(uint64(i+1), evt.Seq)
		req.Equal(localNode, evt.Node)
		req.Equal("Sprint 7", evt.Session)
	}
	req.Equal(SessionCreatedType, events[0].Kind())
	req.Equal(EstimationEndedType, events[len(events)-1].Kind())
	req.Empty(s.FlushEvents())
}

func TestSession_ApplyRemote_Replays_And_Drops_Duplicates(t *testing.T) {
	req := require.New(t)

	// Given node A produced a full round
	a := newSprintSession(t)
	req.NoError(a.StartEstimation("Ana", t0))
	req.NoError(a.SubmitEstimation("Ana", NewEstimation(5), t0))
	events := a.FlushEvents()

	// And node B mirrors it
	b := NewProxySession("Sprint 7", localNode, "node-b", t0)
	for _, evt := range events {
		req.True(b.ApplyRemote(evt, t0))
	}
	req.Equal(Estimating, b.State())
	req.Len(b.Participants(), 2)
	req.Equal(a.LastSeq(localNode), b.LastSeq(localNode))

	// When the last vote arrives, then a duplicate of it
	req.NoError(a.SubmitEstimation("Bo", NewEstimation(5), t0))
	final := a.FlushEvents()
	for _, evt := range final {
		b.ApplyRemote(evt, t0)
	}
	req.Equal(Finished, b.State())
	snapshot := b.Snapshot()

	for _, evt := range final {
		req.False(b.ApplyRemote(evt, t0))
	}
	req.Equal(snapshot, b.Snapshot())

	// Own events are never re-applied
	req.False(a.ApplyRemote(final[0], t0))
}

func TestSession_ApplyRemote_Tolerates_Gaps(t *testing.T) {
	req := require.New(t)
	a := newSprintSession(t)
	events := a.FlushEvents()

	b := NewProxySession("Sprint 7", localNode, "node-b", t0)
	// Event 2 (Ana joined) is lost
	req.True(b.ApplyRemote(events[0], t0))
	req.True(b.ApplyRemote(events[2], t0))

	req.Len(b.Participants(), 1)
	req.Equal(uint64(3), b.LastSeq(localNode))
	// The lost event arriving late is treated as stale
	req.False(b.ApplyRemote(events[1], t0))
}

func TestSession_Remote_Votes_Complete_On_Every_Node(t *testing.T) {
	req := require.New(t)
	a := newSprintSession(t)
	req.NoError(a.StartEstimation("Ana", t0))

	b := NewProxySession("Sprint 7", localNode, "node-b", t0)
	for _, evt := range a.FlushEvents() {
		b.ApplyRemote(evt, t0)
	}

	// Given Ana votes through node A and Bo through node B concurrently
	req.NoError(a.SubmitEstimation("Ana", NewEstimation(3), t0))
	req.NoError(b.SubmitEstimation("Bo", NewEstimation(8), t0))
	fromA := a.FlushEvents()
	fromB := b.FlushEvents()

	// When each node applies the other's vote
	for _, evt := range fromB {
		a.ApplyRemote(evt, t0)
	}
	for _, evt := range fromA {
		b.ApplyRemote(evt, t0)
	}

	// Then both finished the same round with the same result
	req.Equal(Finished, a.State())
	req.Equal(Finished, b.State())
	req.Equal(a.Result(), b.Result())

	// And the endings they exchange do not post a second result message
	bo, _ := b.Participant("Bo")
	before := len(bo.Mailbox.Pending())
	for _, evt := range a.FlushEvents() {
		b.ApplyRemote(evt, t0)
	}
	req.Len(bo.Mailbox.Pending(), before)
}

func TestSession_Snapshot_Restore(t *testing.T) {
	req := require.New(t)
	s := newSprintSession(t)
	req.NoError(s.StartEstimation("Ana", t0))
	req.NoError(s.SubmitEstimation("Bo", NullEstimation(), t0))
	req.NoError(s.StartTimer("Ana", time.Minute, t0))

	restored := RestoreSession(s.Snapshot(), localNode)

	req.Equal(s.Snapshot(), restored.Snapshot())
	req.Equal(Estimating, restored.State())
	bo, _ := restored.Participant("Bo")
	req.NotNil(bo.Estimation)
	req.True(bo.Estimation.IsNull())

	// Local numbering resumes after the persisted sequence
	req.NoError(restored.SubmitEstimation("Ana", NewEstimation(1), t0))
	events := restored.FlushEvents()
	req.Equal(s.LastSeq(localNode)+1, events[0].Seq)
}

func TestSession_Concurrent_Facilitator_Joins_Converge(t *testing.T) {
	req := require.New(t)
	a := NewSession("Retro", localNode, t0)
	b := NewProxySession("Retro", localNode, "node-b", t0)
	for _, evt := range a.FlushEvents() {
		b.ApplyRemote(evt, t0)
	}

	// Given Ana and Bo both claim the Facilitator role on different nodes, Bo first
	_, err := a.Join("Ana", Facilitator, t0.Add(2*time.Second))
	req.NoError(err)
	_, err = b.Join("Bo", Facilitator, t0.Add(time.Second))
	req.NoError(err)
	fromA, fromB := a.FlushEvents(), b.FlushEvents()

	// When each node applies the other's join
	for _, evt := range fromB {
		a.ApplyRemote(evt, t0)
	}
	for _, evt := range fromA {
		b.ApplyRemote(evt, t0)
	}

	// Then both agree that the earliest join holds the role
	for _, s := range []*Session{a, b} {
		f, ok := s.Facilitator()
		req.True(ok)
		req.Equal("Bo", f.Name)
		ana, _ := s.Participant("Ana")
		req.Equal(Member, ana.Role)
	}
	ana, _ := a.Participant("Ana")
	req.Contains(kinds(ana.Mailbox.Pending()), FacilitatorPromotedKind)
}

func TestSession_Promotion_Racing_A_Facilitator_Join_Converges(t *testing.T) {
	req := require.New(t)
	a := newSprintSession(t)
	b := NewProxySession("Sprint 7", localNode, "node-b", t0)
	for _, evt := range a.FlushEvents() {
		b.ApplyRemote(evt, t0)
	}

	// Given Ana leaves node A, which promotes Bo
	req.NoError(a.Disconnect("Ana", t0.Add(4*time.Second)))
	fromA := a.FlushEvents()
	req.Len(fromA, 2)

	// And node B sees the departure and lets Cy claim the role before the promotion arrives
	b.ApplyRemote(fromA[0], t0)
	_, err := b.Join("Cy", Facilitator, t0.Add(5*time.Second))
	req.NoError(err)
	b.ApplyRemote(fromA[1], t0)
	for _, evt := range b.FlushEvents() {
		a.ApplyRemote(evt, t0)
	}

	// Then Bo, who joined first, is the facilitator on both nodes
	for _, s := range []*Session{a, b} {
		f, ok := s.Facilitator()
		req.True(ok)
		req.Equal("Bo", f.Name)
		cy, _ := s.Participant("Cy")
		req.Equal(Member, cy.Role)
	}
}

func TestSession_Refresh_Closes_Mailboxes_Of_Departed(t *testing.T) {
	req := require.New(t)
	a := newSprintSession(t)
	b := NewProxySession("Sprint 7", localNode, "node-b", t0)
	for _, evt := range a.FlushEvents() {
		b.ApplyRemote(evt, t0)
	}
	staleBo, _ := b.Participant("Bo")

	// Given node B missed Bo leaving and a new round
	req.NoError(a.Disconnect("Bo", t0))
	req.NoError(a.StartEstimation("Ana", t0))

	// When it refreshes from the owner snapshot
	req.True(b.Refresh(a.Snapshot()))

	// Then the mailbox of Bo is closed and Ana is told what was missed
	req.True(staleBo.Mailbox.IsClosed())
	req.Len(b.Participants(), 1)
	ana, _ := b.Participant("Ana")
	req.Equal([]MessageKind{ParticipantJoinedKind, ParticipantDisconnectedKind, EstimationStartedKind},
		kinds(ana.Mailbox.Pending()))
	req.Equal(a.LastSeq(localNode), b.LastSeq(localNode))
	req.False(b.Refresh(a.Snapshot()))
}
