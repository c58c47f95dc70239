package replay

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"blackjack-lite/engine"
)

// Report 一次重放的完整结果。
type Report struct {
	SessionID string          `json:"session_id"`
	EventsFed int             `json:"events_fed"`
	Advice    []engine.Advice `json:"advice"`
	Final     engine.Snapshot `json:"final"`
}

// Run 在全新引擎上按序重放磁带。引擎与配置都是纯函数式输入：
// 同一盘磁带 + 同一份配置 → 同一串建议。
func Run(tape *Tape, cfg engine.Config) (*Report, error) {
	events, err := normalizeTape(tape)
	if err != nil {
		return nil, err
	}

	sessionID := tape.SessionID
	if sessionID == "" {
		sessionID = "replay"
	}
	eng, err := engine.New(sessionID, cfg)
	if err != nil {
		return nil, fmt.Errorf("replay engine: %w", err)
	}

	report := &Report{SessionID: sessionID, EventsFed: len(events)}
	for _, ev := range events {
		report.Advice = append(report.Advice, eng.HandleEvent(ev)...)
	}
	report.Final = eng.Snapshot()
	return report, nil
}

// Load 从 JSON 流读磁带。
func Load(r io.Reader) (*Tape, error) {
	var tape Tape
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&tape); err != nil {
		return nil, &TapeError{StepIndex: -1, Reason: "invalid_json", Message: err.Error()}
	}
	return &tape, nil
}

// LoadFile 从磁带文件读。
func LoadFile(path string) (*Tape, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Load(f)
}
