package engine

import "log"

// phaseTransitions 合法的阶段推进图。
// OthersActions 只是信息性过站；MyAction 可被跳过（天生 BJ / 空手）。
var phaseTransitions = map[Phase][]Phase{
	PhaseIdle:          {PhaseBetsOpen},
	PhaseBetsOpen:      {PhaseDealing, PhaseIdle},
	PhaseDealing:       {PhaseMyAction, PhaseOthersActions, PhasePayouts},
	PhaseMyAction:      {PhaseOthersActions, PhaseDealerPlay, PhasePayouts},
	PhaseOthersActions: {PhaseDealerPlay, PhasePayouts},
	PhaseDealerPlay:    {PhasePayouts},
	PhasePayouts:       {PhaseIdle, PhaseBetsOpen},
}

func canTransition(from, to Phase) bool {
	for _, p := range phaseTransitions[from] {
		if p == to {
			return true
		}
	}
	return false
}

// transitionLocked 推进阶段；非法推进记诊断并忽略，绝不让状态机崩。
func (e *Engine) transitionLocked(to Phase) bool {
	if e.phase == to {
		return false
	}
	if !canTransition(e.phase, to) {
		log.Printf("[Engine %s] invalid transition %s → %s, ignored", e.sessionID, e.phase, to)
		e.stats.EventsDiscarded++
		return false
	}
	e.phase = to
	if e.round != nil {
		e.round.Phase = to
	}
	return true
}

// forceTransitionLocked 仅供强制收尾使用。
func (e *Engine) forceTransitionLocked(to Phase) {
	e.phase = to
	if e.round != nil {
		e.round.Phase = to
	}
}
