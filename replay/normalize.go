package replay

import (
	"fmt"
	"sort"
	"time"

	"blackjack-lite/card"
	"blackjack-lite/engine"
)

const currentTapeVersion = 1

// normalizeTape 校验磁带并转换为引擎事件。事件按 seq 稳定排序，
// 重放永远不依赖磁带文件里的物理顺序。
func normalizeTape(tape *Tape) ([]engine.Event, error) {
	if tape == nil {
		return nil, &TapeError{StepIndex: -1, Reason: "empty_tape", Message: "tape is nil"}
	}
	if tape.TapeVersion != 0 && tape.TapeVersion != currentTapeVersion {
		return nil, &TapeError{StepIndex: -1, Reason: "unsupported_version",
			Message: fmt.Sprintf("tape version %d not supported", tape.TapeVersion)}
	}
	if len(tape.Events) == 0 {
		return nil, &TapeError{StepIndex: -1, Reason: "empty_tape", Message: "tape has no events"}
	}

	ordered := make([]TapeEvent, len(tape.Events))
	copy(ordered, tape.Events)
	sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].Seq < ordered[j].Seq })

	out := make([]engine.Event, 0, len(ordered))
	for i, te := range ordered {
		ev, err := normalizeEvent(i, te)
		if err != nil {
			return nil, err
		}
		out = append(out, ev)
	}
	return out, nil
}

func normalizeEvent(step int, te TapeEvent) (engine.Event, error) {
	kind, ok := engine.ParseEventKind(te.Type)
	if !ok {
		return engine.Event{}, &TapeError{StepIndex: step, Reason: "unknown_event_type",
			Message: fmt.Sprintf("unknown event type %q", te.Type)}
	}

	ev := engine.Event{
		Kind:    kind,
		RoundID: te.RoundID,
		Amount:  te.Amount,
	}
	if te.AtMs > 0 {
		ev.At = time.UnixMilli(te.AtMs)
	}

	switch kind {
	case engine.EventCardShared, engine.EventCardDealt:
		c, err := card.Parse(te.Card)
		if err != nil {
			return engine.Event{}, &TapeError{StepIndex: step, Reason: "invalid_card",
				Message: fmt.Sprintf("unparseable card %q: %v", te.Card, err)}
		}
		ev.Card = c
		if kind == engine.EventCardDealt {
			seat, ok := engine.ParseSeat(te.Seat)
			if !ok {
				return engine.Event{}, &TapeError{StepIndex: step, Reason: "invalid_seat",
					Message: fmt.Sprintf("unknown seat %q", te.Seat)}
			}
			ev.Seat = seat
		}
	case engine.EventStateText:
		if te.Phase == "" {
			return engine.Event{}, &TapeError{StepIndex: step, Reason: "missing_phase",
				Message: "state event without phase text"}
		}
		ev.PhaseText = te.Phase
	case engine.EventRoundEnd:
		outcome, ok := engine.ParseOutcome(te.Outcome)
		if !ok {
			return engine.Event{}, &TapeError{StepIndex: step, Reason: "invalid_outcome",
				Message: fmt.Sprintf("unknown outcome %q", te.Outcome)}
		}
		ev.Outcome = outcome
	}
	return ev, nil
}
