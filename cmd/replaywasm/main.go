//go:build js && wasm

package main

import (
	"encoding/json"
	"errors"
	"syscall/js"

	"blackjack-lite/engine"
	"blackjack-lite/replay"
)

type runRequest struct {
	Tape *replay.Tape `json:"tape"`
}

type runResponse struct {
	OK     bool              `json:"ok"`
	Report *replay.Report    `json:"report,omitempty"`
	Error  *replay.TapeError `json:"error,omitempty"`
}

func main() {
	js.Global().Set("__replayRun", js.FuncOf(func(this js.Value, args []js.Value) any {
		if len(args) < 1 {
			return mustJSON(runResponse{
				OK:    false,
				Error: &replay.TapeError{StepIndex: -1, Reason: "invalid_request", Message: "missing request payload"},
			})
		}
		raw := args[0].String()
		resp := handleRun(raw)
		return mustJSON(resp)
	}))

	select {}
}

func handleRun(raw string) runResponse {
	var req runRequest
	if err := json.Unmarshal([]byte(raw), &req); err != nil {
		return runResponse{
			OK:    false,
			Error: &replay.TapeError{StepIndex: -1, Reason: "invalid_json", Message: err.Error()},
		}
	}

	report, err := replay.Run(req.Tape, engine.DefaultConfig())
	if err != nil {
		var tapeErr *replay.TapeError
		if errors.As(err, &tapeErr) {
			return runResponse{OK: false, Error: tapeErr}
		}
		return runResponse{
			OK:    false,
			Error: &replay.TapeError{StepIndex: -1, Reason: "replay_failed", Message: err.Error()},
		}
	}
	return runResponse{OK: true, Report: report}
}

func mustJSON(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		fallback := runResponse{
			OK:    false,
			Error: &replay.TapeError{StepIndex: -1, Reason: "marshal_failed", Message: err.Error()},
		}
		b2, _ := json.Marshal(fallback)
		return string(b2)
	}
	return string(b)
}
