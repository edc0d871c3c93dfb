package feed

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Parse splits a WebSocket payload into book updates. The feed sends
// either a single object or an array of objects; elements that are not
// book snapshots, or that are missing their token id or either side,
// are dropped. The returned count is how many elements were dropped as
// malformed, for logging.
func Parse(data []byte) ([]BookUpdate, int, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, 0, nil
	}

	var raw []json.RawMessage
	if data[0] == '[' {
		if err := json.Unmarshal(data, &raw); err != nil {
			return nil, 0, fmt.Errorf("parsing message array: %w", err)
		}
	} else {
		raw = []json.RawMessage{data}
	}

	var updates []BookUpdate
	dropped := 0
	for _, elem := range raw {
		var u BookUpdate
		if err := json.Unmarshal(elem, &u); err != nil {
			dropped++
			continue
		}
		if u.EventType != "" && u.EventType != EventTypeBook {
			// Other event types (price_change, tick_size_change)
			// are not snapshots; ignore them.
			continue
		}
		if !u.valid() {
			dropped++
			continue
		}
		updates = append(updates, u)
	}
	return updates, dropped, nil
}
