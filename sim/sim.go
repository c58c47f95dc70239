// Package sim 用可复现的随机牌靴驱动完整会话：按感知层事件契约
// 把一局局牌喂给引擎，并按引擎给出的建议出牌，产出可重放的 tape。
// 用于离线核对策略与风控行为，不接任何真实牌桌。
package sim

import (
	"fmt"
	"math/rand"
	"time"

	"blackjack-lite/card"
	"blackjack-lite/engine"
	"blackjack-lite/replay"
)

// Options 模拟参数。零值字段取 DefaultOptions 的默认。
type Options struct {
	Seed       int64
	Rounds     int
	OtherSeats int // 同桌其他座位数
	Cut        int // 剩余张数低于该值时洗靴
	Config     engine.Config
}

// DefaultOptions 100 局、两名同桌、一副牌的切牌深度。
func DefaultOptions() Options {
	return Options{
		Seed:       1,
		Rounds:     100,
		OtherSeats: 2,
		Cut:        52,
		Config:     engine.DefaultConfig(),
	}
}

// Result 模拟结果：喂入引擎的完整 tape 与最终会话快照。
type Result struct {
	SessionID    string
	RoundsPlayed int
	Halted       bool
	Tape         *replay.Tape
	Final        engine.Snapshot
}

type simulator struct {
	rng  *rand.Rand
	opts Options

	shoe card.CardList
	eng  *engine.Engine
	rec  *replay.Recorder
	at   time.Time
}

// Run 执行一次完整模拟。风控停机会提前结束会话。
func Run(opts Options) (*Result, error) {
	if opts.Rounds <= 0 {
		opts.Rounds = DefaultOptions().Rounds
	}
	if opts.Cut <= 0 {
		opts.Cut = DefaultOptions().Cut
	}
	if opts.OtherSeats < 0 {
		opts.OtherSeats = 0
	}

	sessionID := fmt.Sprintf("sim-%d", opts.Seed)
	eng, err := engine.New(sessionID, opts.Config)
	if err != nil {
		return nil, err
	}

	s := &simulator{
		rng:  rand.New(rand.NewSource(opts.Seed)),
		opts: opts,
		eng:  eng,
		rec:  replay.NewRecorder(sessionID),
		at:   time.Unix(0, 0).UTC(),
	}
	s.reshuffle(false)

	res := &Result{SessionID: sessionID}
	for i := 0; i < opts.Rounds; i++ {
		s.playRound(fmt.Sprintf("r-%04d", i+1))
		res.RoundsPlayed++
		if eng.Halted() {
			res.Halted = true
			break
		}
	}

	res.Tape = s.rec.Tape()
	res.Final = eng.Snapshot()
	return res, nil
}

// feed 给事件打上单调递增的时间戳，先录 tape 再喂引擎。
func (s *simulator) feed(ev engine.Event) []engine.Advice {
	s.at = s.at.Add(time.Second)
	ev.At = s.at
	s.rec.Append(ev)
	return s.eng.HandleEvent(ev)
}

func (s *simulator) reshuffle(announce bool) {
	deck := card.Deck()
	s.shoe = s.shoe[:0]
	for i := 0; i < s.opts.Config.Rules.Decks; i++ {
		s.shoe.Add(deck...)
	}
	s.shoe.Shuffle(s.rng)
	if announce {
		s.feed(engine.Event{Kind: engine.EventShoeShuffle})
	}
}

func (s *simulator) draw() card.Card {
	c := s.shoe.PopCard()
	if c == card.CardInvalid {
		// 切牌位保证局中不会摸空，兜底重建
		s.reshuffle(false)
		c = s.shoe.PopCard()
	}
	return c
}

func (s *simulator) playRound(roundID string) {
	if s.shoe.Count() < s.opts.Cut {
		s.reshuffle(true)
	}

	advices := s.feed(engine.Event{Kind: engine.EventRoundStart, RoundID: roundID})
	bet, sitOut := betFromAdvice(advices, s.opts.Config.Bet.TableMin)
	if sitOut {
		// 离桌观望：本局不入牌局，喂一个零额收尾维持状态机
		s.feed(engine.Event{Kind: engine.EventRoundEnd, RoundID: roundID, Outcome: engine.OutcomePush, Amount: 0})
		return
	}

	player := engine.NewHand()
	dealer := engine.NewHand()
	others := make([]*engine.Hand, s.opts.OtherSeats)
	for i := range others {
		others[i] = engine.NewHand()
	}

	// 首轮发牌：本座位明牌、他人明牌、庄家一明一暗
	dealToPlayer := func() {
		c := s.draw()
		player.Add(c)
		s.feed(engine.Event{Kind: engine.EventCardShared, Card: c})
	}
	dealToOthers := func() {
		for _, h := range others {
			c := s.draw()
			h.Add(c)
			s.feed(engine.Event{Kind: engine.EventCardDealt, Seat: engine.SeatOthers, Card: c})
		}
	}

	dealToPlayer()
	dealToOthers()
	dealerUp := s.draw()
	dealer.Add(dealerUp)
	s.feed(engine.Event{Kind: engine.EventCardDealt, Seat: engine.SeatDealer, Card: dealerUp})

	dealToPlayer()
	dealToOthers()
	dealerHole := s.draw()
	dealer.Add(dealerHole)
	// 暗牌以牌背喂入，引擎不计数；庄家行动时再亮真牌
	s.feed(engine.Event{Kind: engine.EventCardDealt, Seat: engine.SeatDealer, Card: card.CardHole})

	doubled := false
	surrendered := false
	insurance := 0.0
	if !player.IsBlackjack() {
		surrendered, doubled, insurance = s.playMyHand(player, bet)
		s.feed(engine.Event{Kind: engine.EventDecisionLocked})
	} else {
		// 天生 BJ 无行动，仅让引擎走过本阶段
		s.feed(engine.Event{Kind: engine.EventStateText, PhaseText: "my_action"})
	}
	if doubled {
		bet *= 2
	}

	// 他人按庄家规则简化出牌，只为维持真实的计数流
	for _, h := range others {
		for h.Value() < 17 {
			c := s.draw()
			h.Add(c)
			s.feed(engine.Event{Kind: engine.EventCardDealt, Seat: engine.SeatOthers, Card: c})
		}
	}

	// 只要桌上还有活手牌，庄家就要亮暗牌并打完
	s.feed(engine.Event{Kind: engine.EventStateText, PhaseText: "dealer_play"})
	s.feed(engine.Event{Kind: engine.EventCardDealt, Seat: engine.SeatDealer, Card: dealerHole})
	for s.dealerMustHit(dealer) {
		c := s.draw()
		dealer.Add(c)
		s.feed(engine.Event{Kind: engine.EventCardDealt, Seat: engine.SeatDealer, Card: c})
	}

	s.feed(engine.Event{Kind: engine.EventStateText, PhaseText: "payouts"})

	outcome, amount := settle(player, dealer, bet, insurance, surrendered, s.opts.Config.Rules.BlackjackPayout)
	s.feed(engine.Event{Kind: engine.EventRoundEnd, RoundID: roundID, Outcome: outcome, Amount: amount})
}

// playMyHand 反复以 my_action 观测询问引擎并执行建议，直到停牌、
// 爆牌或加倍后锁定。返回是否投降、是否加倍与保险投入。
func (s *simulator) playMyHand(player *engine.Hand, bet float64) (surrendered, doubled bool, insurance float64) {
	for step := 0; step < 16; step++ {
		advices := s.feed(engine.Event{Kind: engine.EventStateText, PhaseText: "my_action"})
		play, ok := playFromAdvice(advices)
		if !ok {
			return
		}

		switch play.Action {
		case engine.ActionInsurance:
			insurance = bet / 2
		case engine.ActionHit, engine.ActionSplit:
			// 分牌简化为单手续牌：只跟踪主手牌的牌流
			c := s.draw()
			player.Add(c)
			s.feed(engine.Event{Kind: engine.EventCardShared, Card: c})
			if player.IsBust() {
				return
			}
		case engine.ActionDouble:
			doubled = true
			c := s.draw()
			player.Add(c)
			s.feed(engine.Event{Kind: engine.EventCardShared, Card: c})
			return
		case engine.ActionSurrender:
			surrendered = true
			return
		default:
			return
		}
	}
	return
}

func (s *simulator) dealerMustHit(dealer *engine.Hand) bool {
	v := dealer.Value()
	if v < 17 {
		return true
	}
	return v == 17 && dealer.IsSoft() && s.opts.Config.Rules.DealerHitsSoft17
}

// settle 按庄闲终牌与保险结算净收益，折算成单局结果与金额。
func settle(player, dealer *engine.Hand, bet, insurance float64, surrendered bool, bjPayout float64) (engine.Outcome, float64) {
	dealerBJ := dealer.IsBlackjack()

	net := 0.0
	if insurance > 0 {
		if dealerBJ {
			net += insurance * 2
		} else {
			net -= insurance
		}
	}

	switch {
	case surrendered:
		return engine.OutcomeSurrender, bet / 2
	case player.IsBlackjack() && !dealerBJ:
		return engine.OutcomeBlackjack, bet * bjPayout
	case player.IsBlackjack() && dealerBJ:
		// 保险对赌赢了也只按净值归类
	case player.IsBust() || dealerBJ:
		net -= bet
	case dealer.IsBust() || player.Value() > dealer.Value():
		net += bet
	case player.Value() < dealer.Value():
		net -= bet
	}

	switch {
	case net > 0:
		return engine.OutcomeWin, net
	case net < 0:
		return engine.OutcomeLoss, -net
	default:
		return engine.OutcomePush, 0
	}
}

func betFromAdvice(advices []engine.Advice, fallback float64) (amount float64, sitOut bool) {
	for _, a := range advices {
		switch a.Kind {
		case engine.AdviceBet:
			return a.Amount, a.SitOut
		case engine.AdviceRiskAlert:
			if a.SitOut {
				return 0, true
			}
		}
	}
	return fallback, false
}

func playFromAdvice(advices []engine.Advice) (engine.Advice, bool) {
	for _, a := range advices {
		if a.Kind == engine.AdvicePlay {
			return a, true
		}
	}
	return engine.Advice{}, false
}
