package replay

// Tape 一段会话的感知事件磁带：同一盘磁带 + 同一份配置
// 必须重放出字节级相同的建议序列。
type Tape struct {
	TapeVersion int         `json:"tape_version"`
	SessionID   string      `json:"session_id"`
	Events      []TapeEvent `json:"events"`
}

// TapeEvent 磁带上的一条事件。字段按事件类型选填：
// 牌事件带 card/seat，阶段事件带 phase，收尾事件带 outcome/amount。
type TapeEvent struct {
	Seq     uint64  `json:"seq"`
	AtMs    int64   `json:"at_ms,omitempty"`
	Type    string  `json:"type"`
	RoundID string  `json:"round_id,omitempty"`
	Card    string  `json:"card,omitempty"`
	Seat    string  `json:"seat,omitempty"`
	Phase   string  `json:"phase,omitempty"`
	Outcome string  `json:"outcome,omitempty"`
	Amount  float64 `json:"amount,omitempty"`
}
