package codec

import "github.com/santhosh-tekuri/jsonschema/v5"

// 入站信封的结构契约。payload 是开放的 key/value：感知层可以多给，
// 字段级校验由 Decode 按事件类型做。
const inboundSchemaJSON = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "required": ["type"],
  "properties": {
    "type": {"type": "string", "minLength": 1},
    "seq": {"type": "integer", "minimum": 0},
    "at_ms": {"type": "integer", "minimum": 0},
    "payload": {
      "type": "object",
      "properties": {
        "round_id": {"type": "string"},
        "card": {"type": "string"},
        "seat": {"type": "string"},
        "phase": {"type": "string"},
        "outcome": {"type": "string"},
        "amount": {"type": "number"}
      },
      "additionalProperties": true
    }
  },
  "additionalProperties": false
}`

var inboundSchema = jsonschema.MustCompileString("inbound.schema.json", inboundSchemaJSON)
