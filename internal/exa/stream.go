package exa

import (
	"bufio"
	"bytes"
	"encoding/json"
	"io"
	"strings"

	"github.com/liliang-cn/exaanswer/internal/domain"
)

// AnswerStream decodes the server-sent events of a streaming answer.
//
//	data: {"choices":[{"delta":{"content":"Go is"}}]}
//	data: {"citations":[{"id":"...","url":"https://go.dev","title":"Go"}]}
//	data: [DONE]
type AnswerStream struct {
	body   io.ReadCloser
	reader *bufio.Reader
	done   bool
}

func newAnswerStream(body io.ReadCloser) *AnswerStream {
	return &AnswerStream{
		body:   body,
		reader: bufio.NewReader(body),
	}
}

type streamFrame struct {
	Choices []struct {
		Delta struct {
			Content *string `json:"content"`
		} `json:"delta"`
	} `json:"choices"`
	Citations json.RawMessage `json:"citations"`
}

// Recv returns the next chunk in upstream order, or io.EOF once the
// stream is exhausted. Frames with neither content nor citations are
// skipped, as are frames that fail to decode.
func (s *AnswerStream) Recv() (domain.Chunk, error) {
	for !s.done {
		line, err := s.reader.ReadString('\n')
		if err != nil {
			if err != io.EOF {
				return domain.Chunk{}, err
			}
			s.done = true
		}

		payload, ok := dataPayload(line)
		if !ok {
			continue
		}
		if payload == "[DONE]" {
			s.done = true
			break
		}

		var frame streamFrame
		if err := json.Unmarshal([]byte(payload), &frame); err != nil {
			continue
		}
		chunk := frame.chunk()
		if (chunk.Content == nil || *chunk.Content == "") && chunk.Citations == nil {
			continue
		}
		return chunk, nil
	}
	return domain.Chunk{}, io.EOF
}

// Close releases the underlying response body.
func (s *AnswerStream) Close() error {
	return s.body.Close()
}

func dataPayload(line string) (string, bool) {
	line = strings.TrimSpace(line)
	if !strings.HasPrefix(line, "data:") {
		return "", false
	}
	payload := strings.TrimSpace(strings.TrimPrefix(line, "data:"))
	return payload, payload != ""
}

func (f streamFrame) chunk() domain.Chunk {
	var chunk domain.Chunk
	if len(f.Choices) > 0 {
		chunk.Content = f.Choices[0].Delta.Content
	}

	raw := bytes.TrimSpace(f.Citations)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) || bytes.Equal(raw, []byte(`"null"`)) {
		return chunk
	}
	var citations []domain.Citation
	if err := json.Unmarshal(raw, &citations); err == nil {
		if citations == nil {
			citations = []domain.Citation{}
		}
		chunk.Citations = citations
	}
	return chunk
}
