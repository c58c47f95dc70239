package engine

import "strings"

// Phase 牌局阶段
type Phase byte

const (
	PhaseIdle          Phase = 0
	PhaseBetsOpen      Phase = 1
	PhaseDealing       Phase = 2
	PhaseMyAction      Phase = 3
	PhaseOthersActions Phase = 4
	PhaseDealerPlay    Phase = 5
	PhasePayouts       Phase = 6
)

var PhaseDictionary = map[Phase]string{
	PhaseIdle:          "idle",
	PhaseBetsOpen:      "bets_open",
	PhaseDealing:       "dealing",
	PhaseMyAction:      "my_action",
	PhaseOthersActions: "others_actions",
	PhaseDealerPlay:    "dealer_play",
	PhasePayouts:       "payouts",
}

func (p Phase) String() string { return PhaseDictionary[p] }

// phaseTextAliases 感知层吐出的阶段文案到 Phase 的映射。
// 感知层读屏结果并不规范，这里集中吸收各种别名。
var phaseTextAliases = map[string]Phase{
	"idle":           PhaseIdle,
	"waiting":        PhaseIdle,
	"bets_open":      PhaseBetsOpen,
	"betting":        PhaseBetsOpen,
	"place_bets":     PhaseBetsOpen,
	"dealing":        PhaseDealing,
	"cards_dealt":    PhaseDealing,
	"my_action":      PhaseMyAction,
	"player_action":  PhaseMyAction,
	"your_turn":      PhaseMyAction,
	"others_actions": PhaseOthersActions,
	"others_action":  PhaseOthersActions,
	"other_players":  PhaseOthersActions,
	"dealer_play":    PhaseDealerPlay,
	"dealer_action":  PhaseDealerPlay,
	"dealer_turn":    PhaseDealerPlay,
	"payouts":        PhasePayouts,
	"results":        PhasePayouts,
	"round_end":      PhasePayouts,
}

// ParsePhaseText 归一化阶段文案；未识别返回 false。
func ParsePhaseText(text string) (Phase, bool) {
	key := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(text)), " ", "_")
	p, ok := phaseTextAliases[key]
	return p, ok
}

// Action 出牌建议动作
type Action byte

const (
	ActionNone      Action = 0
	ActionHit       Action = 1
	ActionStand     Action = 2
	ActionDouble    Action = 3
	ActionSplit     Action = 4
	ActionSurrender Action = 5
	ActionInsurance Action = 6
)

var ActionDictionary = map[Action]string{
	ActionNone:      "NONE",
	ActionHit:       "HIT",
	ActionStand:     "STAND",
	ActionDouble:    "DOUBLE",
	ActionSplit:     "SPLIT",
	ActionSurrender: "SURRENDER",
	ActionInsurance: "INSURANCE",
}

func (a Action) String() string { return ActionDictionary[a] }

// EventKind 入站事件类型（感知层契约）。
type EventKind byte

const (
	EventNone           EventKind = 0
	EventRoundStart     EventKind = 1
	EventRoundEnd       EventKind = 2
	EventCardShared     EventKind = 3 // 共享手牌（发给本座位的牌）
	EventCardDealt      EventKind = 4 // 指定座位的牌（庄家/他人）
	EventStateText      EventKind = 5 // 阶段文案观测
	EventDecisionLocked EventKind = 6 // 本座位操作已锁定
	EventShoeShuffle    EventKind = 7 // 换靴信号
	EventBankroll       EventKind = 8 // 余额观测（绝对值）
	EventNewSession     EventKind = 9 // 会话重置信号
)

var EventKindDictionary = map[EventKind]string{
	EventNone:           "NONE",
	EventRoundStart:     "ROUND_START",
	EventRoundEnd:       "ROUND_END",
	EventCardShared:     "CARD_DEALT_SHARED",
	EventCardDealt:      "CARD_DEALT",
	EventStateText:      "STATE_TEXT",
	EventDecisionLocked: "MY_DECISION_LOCKED",
	EventShoeShuffle:    "SHOE_SHUFFLE",
	EventBankroll:       "BANKROLL_UPDATE",
	EventNewSession:     "NEW_SESSION",
}

func (k EventKind) String() string { return EventKindDictionary[k] }

// ParseEventKind 事件类型反查。
func ParseEventKind(s string) (EventKind, bool) {
	for k, name := range EventKindDictionary {
		if name == s {
			return k, k != EventNone
		}
	}
	return EventNone, false
}

// Seat 牌的归属座位。
type Seat byte

const (
	SeatPlayer Seat = 0
	SeatDealer Seat = 1
	SeatOthers Seat = 2
)

var SeatDictionary = map[Seat]string{
	SeatPlayer: "player",
	SeatDealer: "dealer",
	SeatOthers: "others",
}

func (s Seat) String() string { return SeatDictionary[s] }

func ParseSeat(s string) (Seat, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "player", "me", "hero":
		return SeatPlayer, true
	case "dealer":
		return SeatDealer, true
	case "others", "other":
		return SeatOthers, true
	}
	return SeatPlayer, false
}

// Outcome 单局结果。
type Outcome byte

const (
	OutcomeUnknown   Outcome = 0
	OutcomeWin       Outcome = 1
	OutcomeLoss      Outcome = 2
	OutcomePush      Outcome = 3
	OutcomeBlackjack Outcome = 4
	OutcomeSurrender Outcome = 5
	OutcomeAbnormal  Outcome = 6 // 强制关闭的残局
)

var OutcomeDictionary = map[Outcome]string{
	OutcomeUnknown:   "unknown",
	OutcomeWin:       "win",
	OutcomeLoss:      "loss",
	OutcomePush:      "push",
	OutcomeBlackjack: "blackjack",
	OutcomeSurrender: "surrender",
	OutcomeAbnormal:  "abnormal",
}

func (o Outcome) String() string { return OutcomeDictionary[o] }

func ParseOutcome(s string) (Outcome, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "win":
		return OutcomeWin, true
	case "loss", "lose":
		return OutcomeLoss, true
	case "push", "tie":
		return OutcomePush, true
	case "blackjack", "bj":
		return OutcomeBlackjack, true
	case "surrender":
		return OutcomeSurrender, true
	}
	return OutcomeUnknown, false
}

// CountSystem 计数系统。
type CountSystem byte

const (
	SystemHiLo CountSystem = 0
	SystemZen  CountSystem = 1
)

var CountSystemDictionary = map[CountSystem]string{
	SystemHiLo: "hilo",
	SystemZen:  "zen",
}

func (s CountSystem) String() string { return CountSystemDictionary[s] }

func ParseCountSystem(s string) (CountSystem, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "hilo", "hi-lo", "hi_lo":
		return SystemHiLo, true
	case "zen":
		return SystemZen, true
	}
	return SystemHiLo, false
}

// Rounding 真数取整策略：下注与打法可独立配置。
type Rounding byte

const (
	RoundFloor   Rounding = 0
	RoundNearest Rounding = 1
	RoundExact   Rounding = 2
)

var RoundingDictionary = map[Rounding]string{
	RoundFloor:   "floor",
	RoundNearest: "round",
	RoundExact:   "exact",
}

func (r Rounding) String() string { return RoundingDictionary[r] }

func ParseRounding(s string) (Rounding, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "floor":
		return RoundFloor, true
	case "round", "nearest":
		return RoundNearest, true
	case "exact":
		return RoundExact, true
	}
	return RoundFloor, false
}
