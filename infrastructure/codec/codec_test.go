package codec

import (
	"planning-poker/domain"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

var at = time.Date(2026, 10, 18, 14, 30, 0, 123456789, time.UTC)

func finishedSession(t *testing.T) *domain.Session {
	t.Helper()
	req := require.New(t)
	s := domain.NewSession("Sprint 7", "node-a", at)
	_, err := s.Join("Ana", domain.Facilitator, at)
	req.NoError(err)
	_, err = s.Join("Bo", domain.Member, at.Add(time.Second))
	req.NoError(err)
	req.NoError(s.StartEstimation("Ana", at))
	req.NoError(s.SubmitEstimation("Ana", domain.InfiniteEstimation(), at))
	req.NoError(s.SubmitEstimation("Bo", domain.NullEstimation(), at))
	req.NoError(s.StartTimer("Bo", time.Minute, at))
	return s
}

func TestSnapshot_Encoding_Preserves_Session(t *testing.T) {
	req := require.New(t)
	snap := finishedSession(t).Snapshot()

	data, err := MarshalSnapshot(snap)
	req.NoError(err)
	decoded, err := UnmarshalSnapshot(data)
	req.NoError(err)

	req.Equal(snap, decoded)
	req.True(decoded.Result[0].Estimation.IsInfinite())
	req.True(decoded.Result[1].Estimation.IsNull())
}

func TestSnapshot_Corrupt_Data(t *testing.T) {
	req := require.New(t)

	_, err := UnmarshalSnapshot([]byte("not a protobuf message \xff\xff"))
	req.Error(err)

	empty, err := MarshalEnvelope(Envelope{Kind: HeartbeatEnvelope, From: "node-a"})
	req.NoError(err)
	// A valid struct without a session name is not a snapshot
	_, err = UnmarshalSnapshot(empty)
	req.Error(err)
}

func TestEnvelope_Carries_Every_Event_Kind(t *testing.T) {
	req := require.New(t)
	s := finishedSession(t)
	req.NoError(s.CancelTimer("Ana", at))
	req.NoError(s.SetAvailableEstimations("Ana", []domain.Estimation{domain.NewEstimation(1), domain.NullEstimation()}, at))
	req.NoError(s.StartEstimation("Ana", at))
	req.NoError(s.CancelEstimation("Ana", at))
	req.NoError(s.Disconnect("Ana", at))

	events := s.FlushEvents()
	seen := map[domain.EventKind]bool{}
	for _, evt := range events {
		evt := evt
		data, err := MarshalEnvelope(Envelope{Kind: EventEnvelope, From: "node-a", Event: &evt, SentAt: at})
		req.NoError(err)

		env, err := UnmarshalEnvelope(data)
		req.NoError(err)
		req.Equal(EventEnvelope, env.Kind)
		req.Equal(at, env.SentAt)
		req.Equal(evt, *env.Event)
		seen[evt.Kind()] = true
	}
	// Everything except ParticipantReconnected went through
	req.Len(seen, 11)
}

func TestEnvelope_State_Reply_And_Heartbeat(t *testing.T) {
	req := require.New(t)
	snap := finishedSession(t).Snapshot()

	data, err := MarshalEnvelope(Envelope{
		Kind:      StateReplyEnvelope,
		From:      "node-a",
		To:        "node-b",
		RequestID: "req-1",
		Snapshots: []domain.SessionSnapshot{snap},
	})
	req.NoError(err)
	env, err := UnmarshalEnvelope(data)
	req.NoError(err)
	req.Equal("node-b", env.To)
	req.Equal("req-1", env.RequestID)
	req.Len(env.Snapshots, 1)
	req.Equal(snap, env.Snapshots[0])

	data, err = MarshalEnvelope(Envelope{
		Kind:  HeartbeatEnvelope,
		From:  "node-a",
		Stats: &domain.NodeStats{PID: 42, Status: "R", CPUPercent: 1.5, RSSBytes: 1024, Sessions: 3},
	})
	req.NoError(err)
	env, err = UnmarshalEnvelope(data)
	req.NoError(err)
	req.Equal(domain.NodeStats{PID: 42, Status: "R", CPUPercent: 1.5, RSSBytes: 1024, Sessions: 3}, *env.Stats)

	data, err = MarshalEnvelope(Envelope{Kind: RequestStateEnvelope, From: "node-b", Sessions: []string{"Sprint 7"}})
	req.NoError(err)
	env, err = UnmarshalEnvelope(data)
	req.NoError(err)
	req.Equal([]string{"Sprint 7"}, env.Sessions)
}

func TestEnvelope_Rejects_Malformed(t *testing.T) {
	req := require.New(t)

	data, err := MarshalEnvelope(Envelope{Kind: "gossip", From: "node-a"})
	req.NoError(err)
	_, err = UnmarshalEnvelope(data)
	req.Error(err)

	data, err = MarshalEnvelope(Envelope{Kind: EventEnvelope, From: "node-a"})
	req.NoError(err)
	_, err = UnmarshalEnvelope(data)
	req.Error(err)

	data, err = MarshalEnvelope(Envelope{Kind: HeartbeatEnvelope})
	req.NoError(err)
	_, err = UnmarshalEnvelope(data)
	req.Error(err)
}

func TestEnvelope_Sequences_Beyond_Float_Precision(t *testing.T) {
	req := require.New(t)
	seq := uint64(1<<60 + 1)

	// Given an event and a snapshot carrying a sequence a double cannot hold
	evt := domain.Event{Session: "Sprint 7", Node: "node-a", Seq: seq, At: at, Payload: domain.TimerCanceled{}}
	snap := finishedSession(t).Snapshot()
	snap.Seqs["node-a"] = seq

	data, err := MarshalEnvelope(Envelope{Kind: EventEnvelope, From: "node-a", Event: &evt})
	req.NoError(err)
	decodedEvent, err := UnmarshalEnvelope(data)
	req.NoError(err)
	data, err = MarshalSnapshot(snap)
	req.NoError(err)
	decodedSnap, err := UnmarshalSnapshot(data)
	req.NoError(err)

	// Then both come back exact
	req.Equal(seq, decodedEvent.Event.Seq)
	req.Equal(seq, decodedSnap.Seqs["node-a"])
}

func TestSnapshot_Reads_Numeric_Counters(t *testing.T) {
	req := require.New(t)

	// Given a snapshot stored with numeric counters
	snap := snapshotFromMap(map[string]any{
		"name":        "Sprint 7",
		"next_tenure": float64(2),
		"seqs":        map[string]any{"node-a": float64(7)},
		"participants": []any{
			map[string]any{"name": "Ana", "role": "facilitator", "tenure": float64(1)},
		},
	})

	req.Equal(2, snap.NextTenure)
	req.Equal(uint64(7), snap.Seqs["node-a"])
	req.Equal(1, snap.Participants[0].Tenure)
}
