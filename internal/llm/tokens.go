package llm

import (
	"fmt"
	"sync"

	"github.com/tiktoken-go/tokenizer"
)

var (
	codecOnce sync.Once
	codec     tokenizer.Codec
	codecErr  error
)

// CountTokens estimates the prompt size of messages with the cl100k_base
// encoding. Grok uses its own tokenizer, so treat the result as approximate.
func CountTokens(messages []Message) (int, error) {
	codecOnce.Do(func() {
		codec, codecErr = tokenizer.Get(tokenizer.Cl100kBase)
	})
	if codecErr != nil {
		return 0, fmt.Errorf("load tokenizer: %w", codecErr)
	}
	total := 0
	for _, msg := range messages {
		ids, _, err := codec.Encode(msg.Content)
		if err != nil {
			return 0, fmt.Errorf("encode %s message: %w", msg.Role, err)
		}
		total += len(ids)
	}
	return total, nil
}
