// Package codec encodes session snapshots and bus envelopes as protobuf
// Struct messages. Times are RFC 3339 strings with nanoseconds, estimations
// are numbers (infinity included) or protobuf null. Sequences and tenures are
// decimal strings, Struct numbers being doubles.
package codec

import (
	"fmt"
	"math"
	"planning-poker/domain"
	"strconv"
	"time"

	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"
)

type EnvelopeKind string

const (
	EventEnvelope        EnvelopeKind = "event"
	RequestStateEnvelope EnvelopeKind = "request-state"
	StateReplyEnvelope   EnvelopeKind = "state-reply"
	HeartbeatEnvelope    EnvelopeKind = "heartbeat"
)

// Envelope is one message exchanged between nodes on the bus.
type Envelope struct {
	Kind EnvelopeKind
	From string
	// To addresses a state reply, empty means every node.
	To        string
	RequestID string
	// Sessions restricts a state request to the named sessions, empty means every owned session.
	Sessions  []string
	Event     *domain.Event
	Snapshots []domain.SessionSnapshot
	Stats     *domain.NodeStats
	SentAt    time.Time
}

func MarshalEnvelope(env Envelope) ([]byte, error) {
	m := map[string]any{
		"kind":       string(env.Kind),
		"from":       env.From,
		"to":         env.To,
		"request_id": env.RequestID,
		"sessions":   stringsToList(env.Sessions),
		"sent_at":    formatTime(env.SentAt),
	}
	if env.Event != nil {
		evt, err := eventToMap(*env.Event)
		if err != nil {
			return nil, err
		}
		m["event"] = evt
	}
	if len(env.Snapshots) > 0 {
		snaps := make([]any, 0, len(env.Snapshots))
		for _, s := range env.Snapshots {
			snaps = append(snaps, snapshotToMap(s))
		}
		m["snapshots"] = snaps
	}
	if env.Stats != nil {
		m["stats"] = map[string]any{
			"pid":         float64(env.Stats.PID),
			"status":      env.Stats.Status,
			"cpu_percent": env.Stats.CPUPercent,
			"rss_bytes":   float64(env.Stats.RSSBytes),
			"sessions":    float64(env.Stats.Sessions),
		}
	}
	return marshal(m)
}

func UnmarshalEnvelope(data []byte) (Envelope, error) {
	m, err := unmarshal(data)
	if err != nil {
		return Envelope{}, err
	}
	env := Envelope{
		Kind:      EnvelopeKind(str(m, "kind")),
		From:      str(m, "from"),
		To:        str(m, "to"),
		RequestID: str(m, "request_id"),
		Sessions:  strs(m, "sessions"),
		SentAt:    parseTime(str(m, "sent_at")),
	}
	switch env.Kind {
	case EventEnvelope, RequestStateEnvelope, StateReplyEnvelope, HeartbeatEnvelope:
	default:
		return Envelope{}, fmt.Errorf("unknown envelope kind %q", env.Kind)
	}
	if env.From == "" {
		return Envelope{}, fmt.Errorf("envelope %s without sender", env.Kind)
	}
	if evt, ok := m["event"].(map[string]any); ok {
		e, err := eventFromMap(evt)
		if err != nil {
			return Envelope{}, err
		}
		env.Event = &e
	}
	if env.Kind == EventEnvelope && env.Event == nil {
		return Envelope{}, fmt.Errorf("event envelope from %s without event", env.From)
	}
	for _, s := range list(m, "snapshots") {
		if sm, ok := s.(map[string]any); ok {
			env.Snapshots = append(env.Snapshots, snapshotFromMap(sm))
		}
	}
	if stats, ok := m["stats"].(map[string]any); ok {
		env.Stats = &domain.NodeStats{
			PID:        int32(num(stats, "pid")),
			Status:     str(stats, "status"),
			CPUPercent: num(stats, "cpu_percent"),
			RSSBytes:   uint64(num(stats, "rss_bytes")),
			Sessions:   int(num(stats, "sessions")),
		}
	}
	return env, nil
}

func MarshalSnapshot(snap domain.SessionSnapshot) ([]byte, error) {
	return marshal(snapshotToMap(snap))
}

func UnmarshalSnapshot(data []byte) (domain.SessionSnapshot, error) {
	m, err := unmarshal(data)
	if err != nil {
		return domain.SessionSnapshot{}, err
	}
	snap := snapshotFromMap(m)
	if snap.Name == "" {
		return domain.SessionSnapshot{}, fmt.Errorf("snapshot without session name")
	}
	return snap, nil
}

func marshal(m map[string]any) ([]byte, error) {
	s, err := structpb.NewStruct(m)
	if err != nil {
		return nil, fmt.Errorf("failed to build struct: %w", err)
	}
	return proto.Marshal(s)
}

func unmarshal(data []byte) (map[string]any, error) {
	var s structpb.Struct
	if err := proto.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("failed to unmarshal struct: %w", err)
	}
	return s.AsMap(), nil
}

func snapshotToMap(s domain.SessionSnapshot) map[string]any {
	participants := make([]any, 0, len(s.Participants))
	for _, p := range s.Participants {
		pm := map[string]any{
			"name":          p.Name,
			"role":          string(p.Role),
			"node":          p.Node,
			"tenure":        formatCounter(uint64(p.Tenure)),
			"joined_at":     formatTime(p.JoinedAt),
			"last_activity": formatTime(p.LastActivity),
		}
		if p.Estimation != nil {
			pm["estimation"] = estimationToValue(*p.Estimation)
		}
		participants = append(participants, pm)
	}
	departed := make([]any, 0, len(s.Departed))
	for _, d := range s.Departed {
		departed = append(departed, map[string]any{
			"name":       d.Name,
			"tenure":     formatCounter(uint64(d.Tenure)),
			"estimation": estimationToValue(d.Estimation),
		})
	}
	seqs := make(map[string]any, len(s.Seqs))
	for node, seq := range s.Seqs {
		seqs[node] = formatCounter(seq)
	}
	m := map[string]any{
		"name":          s.Name,
		"owner":         s.Owner,
		"state":         string(s.State),
		"round":         float64(s.Round),
		"cards":         estimationsToList(s.Cards),
		"participants":  participants,
		"departed":      departed,
		"result":        resultToList(s.Result),
		"created_at":    formatTime(s.CreatedAt),
		"last_activity": formatTime(s.LastActivity),
		"next_tenure":   formatCounter(uint64(s.NextTenure)),
		"seqs":          seqs,
	}
	if s.TimerEnd != nil {
		m["timer_end"] = formatTime(*s.TimerEnd)
	}
	return m
}

func snapshotFromMap(m map[string]any) domain.SessionSnapshot {
	snap := domain.SessionSnapshot{
		Name:         str(m, "name"),
		Owner:        str(m, "owner"),
		State:        domain.State(str(m, "state")),
		Round:        int(num(m, "round")),
		Cards:        estimationsFromList(list(m, "cards")),
		Result:       resultFromList(list(m, "result")),
		CreatedAt:    parseTime(str(m, "created_at")),
		LastActivity: parseTime(str(m, "last_activity")),
		NextTenure:   int(counter(m["next_tenure"])),
		Seqs:         make(map[string]uint64),
	}
	if end, ok := m["timer_end"].(string); ok {
		t := parseTime(end)
		snap.TimerEnd = &t
	}
	for _, raw := range list(m, "participants") {
		pm, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		ps := domain.ParticipantSnapshot{
			Name:         str(pm, "name"),
			Role:         domain.Role(str(pm, "role")),
			Node:         str(pm, "node"),
			Tenure:       int(counter(pm["tenure"])),
			JoinedAt:     parseTime(str(pm, "joined_at")),
			LastActivity: parseTime(str(pm, "last_activity")),
		}
		if v, ok := pm["estimation"]; ok {
			e := estimationFromValue(v)
			ps.Estimation = &e
		}
		snap.Participants = append(snap.Participants, ps)
	}
	for _, raw := range list(m, "departed") {
		dm, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		snap.Departed = append(snap.Departed, domain.DepartedVoteSnapshot{
			Name:       str(dm, "name"),
			Tenure:     int(counter(dm["tenure"])),
			Estimation: estimationFromValue(dm["estimation"]),
		})
	}
	if seqs, ok := m["seqs"].(map[string]any); ok {
		for node, v := range seqs {
			if seq := counter(v); seq > 0 {
				snap.Seqs[node] = seq
			}
		}
	}
	return snap
}

func eventToMap(e domain.Event) (map[string]any, error) {
	m := map[string]any{
		"session": e.Session,
		"node":    e.Node,
		"seq":     formatCounter(e.Seq),
		"at":      formatTime(e.At),
	}
	if e.Payload == nil {
		return nil, fmt.Errorf("event %s/%d without payload", e.Session, e.Seq)
	}
	m["kind"] = string(e.Kind())
	switch p := e.Payload.(type) {
	case domain.SessionCreated:
		m["cards"] = estimationsToList(p.Cards)
	case domain.ParticipantJoined:
		m["name"] = p.Name
		m["role"] = string(p.Role)
		m["home"] = p.Node
		m["joined_at"] = formatTime(p.At)
	case domain.ParticipantReconnected:
		m["name"] = p.Name
		m["home"] = p.Node
	case domain.ParticipantDisconnected:
		m["name"] = p.Name
	case domain.FacilitatorPromoted:
		m["name"] = p.Name
	case domain.EstimationStarted:
		m["round"] = float64(p.Round)
	case domain.EstimationSubmitted:
		m["name"] = p.Name
		m["value"] = estimationToValue(p.Value)
	case domain.EstimationEnded:
		m["round"] = float64(p.Round)
		m["result"] = resultToList(p.Result)
	case domain.EstimationCanceled:
		m["round"] = float64(p.Round)
	case domain.AvailableEstimationsChanged:
		m["cards"] = estimationsToList(p.Values)
	case domain.TimerStarted:
		m["end_time"] = formatTime(p.EndTime)
	case domain.TimerCanceled:
	default:
		return nil, fmt.Errorf("unsupported event payload %T", e.Payload)
	}
	return m, nil
}

func eventFromMap(m map[string]any) (domain.Event, error) {
	e := domain.Event{
		Session: str(m, "session"),
		Node:    str(m, "node"),
		Seq:     counter(m["seq"]),
		At:      parseTime(str(m, "at")),
	}
	switch kind := domain.EventKind(str(m, "kind")); kind {
	case domain.SessionCreatedType:
		e.Payload = domain.SessionCreated{Cards: estimationsFromList(list(m, "cards"))}
	case domain.ParticipantJoinedType:
		e.Payload = domain.ParticipantJoined{
			Name: str(m, "name"),
			Role: domain.Role(str(m, "role")),
			Node: str(m, "home"),
			At:   parseTime(str(m, "joined_at")),
		}
	case domain.ParticipantReconnectedType:
		e.Payload = domain.ParticipantReconnected{Name: str(m, "name"), Node: str(m, "home")}
	case domain.ParticipantDisconnectedType:
		e.Payload = domain.ParticipantDisconnected{Name: str(m, "name")}
	case domain.FacilitatorPromotedType:
		e.Payload = domain.FacilitatorPromoted{Name: str(m, "name")}
	case domain.EstimationStartedType:
		e.Payload = domain.EstimationStarted{Round: int(num(m, "round"))}
	case domain.EstimationSubmittedType:
		e.Payload = domain.EstimationSubmitted{Name: str(m, "name"), Value: estimationFromValue(m["value"])}
	case domain.EstimationEndedType:
		e.Payload = domain.EstimationEnded{Round: int(num(m, "round")), Result: resultFromList(list(m, "result"))}
	case domain.EstimationCanceledType:
		e.Payload = domain.EstimationCanceled{Round: int(num(m, "round"))}
	case domain.AvailableEstimationsChangedType:
		e.Payload = domain.AvailableEstimationsChanged{Values: estimationsFromList(list(m, "cards"))}
	case domain.TimerStartedType:
		e.Payload = domain.TimerStarted{EndTime: parseTime(str(m, "end_time"))}
	case domain.TimerCanceledType:
		e.Payload = domain.TimerCanceled{}
	default:
		return domain.Event{}, fmt.Errorf("unknown event kind %q", kind)
	}
	if e.Session == "" || e.Node == "" || e.Seq == 0 {
		return domain.Event{}, fmt.Errorf("incomplete %s event", e.Kind())
	}
	return e, nil
}

func estimationToValue(e domain.Estimation) any {
	v, ok := e.Value()
	if !ok {
		return nil
	}
	return v
}

func estimationFromValue(v any) domain.Estimation {
	f, ok := v.(float64)
	if !ok {
		return domain.NullEstimation()
	}
	if math.IsInf(f, 1) {
		return domain.InfiniteEstimation()
	}
	return domain.NewEstimation(f)
}

func estimationsToList(values []domain.Estimation) []any {
	out := make([]any, 0, len(values))
	for _, v := range values {
		out = append(out, estimationToValue(v))
	}
	return out
}

func estimationsFromList(values []any) []domain.Estimation {
	if len(values) == 0 {
		return nil
	}
	out := make([]domain.Estimation, 0, len(values))
	for _, v := range values {
		out = append(out, estimationFromValue(v))
	}
	return out
}

func resultToList(result []domain.EstimationResultItem) []any {
	out := make([]any, 0, len(result))
	for _, item := range result {
		out = append(out, map[string]any{
			"name":       item.Name,
			"estimation": estimationToValue(item.Estimation),
		})
	}
	return out
}

func resultFromList(values []any) []domain.EstimationResultItem {
	if len(values) == 0 {
		return nil
	}
	out := make([]domain.EstimationResultItem, 0, len(values))
	for _, v := range values {
		im, ok := v.(map[string]any)
		if !ok {
			continue
		}
		out = append(out, domain.EstimationResultItem{
			Name:       str(im, "name"),
			Estimation: estimationFromValue(im["estimation"]),
		})
	}
	return out
}

func stringsToList(values []string) []any {
	out := make([]any, 0, len(values))
	for _, v := range values {
		out = append(out, v)
	}
	return out
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}
	}
	return t.UTC()
}

func str(m map[string]any, key string) string {
	s, _ := m[key].(string)
	return s
}

func num(m map[string]any, key string) float64 {
	f, _ := m[key].(float64)
	return f
}

func formatCounter(n uint64) string {
	return strconv.FormatUint(n, 10)
}

// counter reads a decimal string, or a number written by an older node.
func counter(v any) uint64 {
	switch c := v.(type) {
	case string:
		n, err := strconv.ParseUint(c, 10, 64)
		if err != nil {
			return 0
		}
		return n
	case float64:
		if c < 0 {
			return 0
		}
		return uint64(c)
	}
	return 0
}

func list(m map[string]any, key string) []any {
	l, _ := m[key].([]any)
	return l
}

func strs(m map[string]any, key string) []string {
	var out []string
	for _, v := range list(m, key) {
		if s, ok := v.(string); ok {
			out = append(out, s)
		}
	}
	return out
}
