package bridge

import (
	"encoding/json"
	"fmt"
)

// Encode 将 Snapshot 编码为 JSON 数组（一个 Tick 对应一条消息）
// nil 与空 Snapshot 都编码为 "[]"，不会出现 "null"
func Encode(s Snapshot) ([]byte, error) {
	if s == nil {
		s = Snapshot{}
	}
	b, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("encode snapshot: %w", err)
	}
	return b, nil
}

// Decode 订阅端使用：把一条消息还原为 Snapshot
func Decode(payload []byte) (Snapshot, error) {
	var s Snapshot
	if err := json.Unmarshal(payload, &s); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	if s == nil {
		s = Snapshot{}
	}
	return s, nil
}
