// Package stream implements the response-streaming relay: it decodes the
// provider's event-record byte stream into text fragments and forwards them
// to the client while accumulating the full reply for persistence.
package stream

import (
	"encoding/json"
	"errors"
	"io"
	"iter"
	"strings"
)

const (
	dataPrefix   = "data: "
	doneSentinel = "[DONE]"
)

// completionChunk mirrors the provider's incremental record; only the text
// delta at choices[0].delta.content is of interest.
type completionChunk struct {
	Choices []struct {
		Delta struct {
			Content string `json:"content"`
		} `json:"delta"`
	} `json:"choices"`
}

// Fragments decodes the raw completion byte stream into a lazy, forward-only
// sequence of text fragments. The sequence is finite and not restartable.
//
// Records are newline-delimited "data: <json>" lines. Lines without the
// prefix (blank lines, comments, heartbeats) and lines whose payload fails to
// parse are skipped silently. The "[DONE]" sentinel ends the sequence; so
// does end of input without a sentinel. A read error mid-stream is yielded
// once and ends the sequence.
func Fragments(r io.Reader) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		buf := make([]byte, 4096)
		var pending string

		for {
			n, err := r.Read(buf)
			if n > 0 {
				pending += string(buf[:n])

				// The trailing segment may be an incomplete line; hold it
				// back for the next read.
				lines := strings.Split(pending, "\n")
				pending = lines[len(lines)-1]

				for _, line := range lines[:len(lines)-1] {
					line = strings.TrimSpace(line)
					if !strings.HasPrefix(line, dataPrefix) {
						continue
					}

					payload := strings.TrimPrefix(line, dataPrefix)
					if payload == doneSentinel {
						return
					}

					var chunk completionChunk
					if jsonErr := json.Unmarshal([]byte(payload), &chunk); jsonErr != nil {
						continue
					}
					if len(chunk.Choices) == 0 {
						continue
					}

					if delta := chunk.Choices[0].Delta.Content; delta != "" {
						if !yield(delta, nil) {
							return
						}
					}
				}
			}

			if err != nil {
				if errors.Is(err, io.EOF) {
					return
				}
				yield("", err)
				return
			}
		}
	}
}
