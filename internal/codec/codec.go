// Package codec 感知层 JSON 信封与引擎闭合结构之间的转换。
// 入站信封先过 schema 再逐字段解析；任何一步失败都返回
// ErrMalformed 包装的错误，由网关记诊断后丢弃。
package codec

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"blackjack-lite/card"
	"blackjack-lite/engine"
)

var ErrMalformed = errors.New("malformed envelope")

// InboundEnvelope 感知层入站消息。
type InboundEnvelope struct {
	Type    string         `json:"type"`
	Seq     uint64         `json:"seq,omitempty"`
	AtMs    int64          `json:"at_ms,omitempty"`
	Payload InboundPayload `json:"payload,omitempty"`
}

// InboundPayload 开放 payload 中本引擎关心的键。未知键直接忽略。
type InboundPayload struct {
	RoundID string   `json:"round_id"`
	Card    string   `json:"card"`
	Seat    string   `json:"seat"`
	Phase   string   `json:"phase"`
	Outcome string   `json:"outcome"`
	Amount  *float64 `json:"amount"`
}

// DecodeEvent 解析一条入站信封。
func DecodeEvent(raw []byte) (engine.Event, error) {
	var generic interface{}
	if err := json.Unmarshal(raw, &generic); err != nil {
		return engine.Event{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if err := inboundSchema.Validate(generic); err != nil {
		return engine.Event{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	var env InboundEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return engine.Event{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return envelopeToEvent(env)
}

func envelopeToEvent(env InboundEnvelope) (engine.Event, error) {
	kind, ok := engine.ParseEventKind(env.Type)
	if !ok {
		return engine.Event{}, fmt.Errorf("%w: unknown event type %q", ErrMalformed, env.Type)
	}

	ev := engine.Event{
		Kind:    kind,
		RoundID: env.Payload.RoundID,
	}
	if env.AtMs > 0 {
		ev.At = time.UnixMilli(env.AtMs)
	}

	switch kind {
	case engine.EventCardShared:
		c, err := card.Parse(env.Payload.Card)
		if err != nil {
			return engine.Event{}, fmt.Errorf("%w: card: %v", ErrMalformed, err)
		}
		ev.Card = c
	case engine.EventCardDealt:
		c, err := card.Parse(env.Payload.Card)
		if err != nil {
			return engine.Event{}, fmt.Errorf("%w: card: %v", ErrMalformed, err)
		}
		seat, ok := engine.ParseSeat(env.Payload.Seat)
		if !ok {
			return engine.Event{}, fmt.Errorf("%w: unknown seat %q", ErrMalformed, env.Payload.Seat)
		}
		ev.Card = c
		ev.Seat = seat
	case engine.EventStateText:
		if env.Payload.Phase == "" {
			return engine.Event{}, fmt.Errorf("%w: state event without phase text", ErrMalformed)
		}
		ev.PhaseText = env.Payload.Phase
	case engine.EventRoundEnd:
		outcome, ok := engine.ParseOutcome(env.Payload.Outcome)
		if !ok {
			return engine.Event{}, fmt.Errorf("%w: unknown outcome %q", ErrMalformed, env.Payload.Outcome)
		}
		ev.Outcome = outcome
		if env.Payload.Amount != nil {
			ev.Amount = *env.Payload.Amount
		}
	case engine.EventBankroll:
		if env.Payload.Amount == nil {
			return engine.Event{}, fmt.Errorf("%w: bankroll event without amount", ErrMalformed)
		}
		ev.Amount = *env.Payload.Amount
	}
	return ev, nil
}

// OutboundEnvelope 出站通告信封。
type OutboundEnvelope struct {
	Type    string          `json:"type"`
	AtMs    int64           `json:"at_ms"`
	RoundID string          `json:"round_id,omitempty"`
	Phase   string          `json:"phase"`
	Payload OutboundPayload `json:"payload"`
}

// OutboundPayload 建议正文。打法建议带手牌视图，其余类型省略。
type OutboundPayload struct {
	Action     string               `json:"action,omitempty"`
	Amount     float64              `json:"amount,omitempty"`
	Units      float64              `json:"units,omitempty"`
	SitOut     bool                 `json:"sit_out,omitempty"`
	ReasonCode string               `json:"reason_code,omitempty"`
	Reason     string               `json:"reason,omitempty"`
	Hand       *HandPayload         `json:"hand,omitempty"`
	Count      engine.CountSnapshot `json:"count"`
	Risk       engine.RiskSnapshot  `json:"risk"`
}

type HandPayload struct {
	Cards       []string `json:"cards"`
	Value       int      `json:"value"`
	Soft        bool     `json:"soft"`
	Blackjack   bool     `json:"blackjack,omitempty"`
	Bust        bool     `json:"bust,omitempty"`
	DealerUp    string   `json:"dealer_up,omitempty"`
	DealerValue int      `json:"dealer_value,omitempty"`
}

// EncodeAdvice 序列化一条建议。
func EncodeAdvice(a engine.Advice) ([]byte, error) {
	env := OutboundEnvelope{
		Type:    a.Kind.String(),
		AtMs:    a.At.UnixMilli(),
		RoundID: a.RoundID,
		Phase:   a.Phase.String(),
		Payload: OutboundPayload{
			Amount:     a.Amount,
			Units:      a.Units,
			SitOut:     a.SitOut,
			ReasonCode: a.ReasonCode,
			Reason:     a.Reason,
			Count:      a.Count,
			Risk:       a.Risk,
		},
	}
	if a.Kind == engine.AdvicePlay {
		env.Payload.Action = a.Action.String()
		env.Payload.Hand = &HandPayload{
			Cards:       a.Hand.Cards,
			Value:       a.Hand.Value,
			Soft:        a.Hand.Soft,
			Blackjack:   a.Hand.Blackjack,
			Bust:        a.Hand.Bust,
			DealerUp:    a.Hand.DealerUp,
			DealerValue: a.Hand.DealerValue,
		}
	}
	return json.Marshal(env)
}
