package domain

import (
	"bytes"
	"encoding/json"
	"strconv"
)

// DefaultCitationTitle is used when a citation carries no title
const DefaultCitationTitle = "Source"

// AnswerRequest is the request to stream an answer.
// Query is kept raw so that any JSON value can be checked for emptiness.
type AnswerRequest struct {
	Query json.RawMessage `json:"query"`
}

// UnmarshalJSON rejects a null body. Bodies that are not objects carry no
// query at all.
func (r *AnswerRequest) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case bytes.Equal(data, []byte("null")):
		return ErrNullBody
	case len(data) == 0 || data[0] != '{':
		*r = AnswerRequest{}
		return nil
	}

	var body struct {
		Query json.RawMessage `json:"query"`
	}
	if err := json.Unmarshal(data, &body); err != nil {
		return err
	}
	r.Query = body.Query
	return nil
}

// QueryText returns the query as text. Missing, null, false, zero and empty
// string queries yield ErrQueryRequired; other non-string values yield
// ErrQueryNotText.
func (r *AnswerRequest) QueryText() (string, error) {
	if r == nil {
		return "", ErrQueryRequired
	}
	raw := bytes.TrimSpace(r.Query)
	if len(raw) == 0 {
		return "", ErrQueryRequired
	}

	switch raw[0] {
	case 'n', 'f':
		return "", ErrQueryRequired
	case '"':
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return "", err
		}
		if s == "" {
			return "", ErrQueryRequired
		}
		return s, nil
	case '-', '0', '1', '2', '3', '4', '5', '6', '7', '8', '9':
		if n, err := strconv.ParseFloat(string(raw), 64); err == nil && n == 0 {
			return "", ErrQueryRequired
		}
	}
	return "", ErrQueryNotText
}

// citationFields lists the citation keys relayed downstream, in output order
var citationFields = []string{"id", "url", "title", "publishedDate", "author", "text"}

// Citation represents a source reference attached to a chunk.
// URL is nil when the upstream sent no url string.
type Citation struct {
	ID            string  `json:"id,omitempty"`
	URL           *string `json:"url,omitempty"`
	Title         string  `json:"title,omitempty"`
	PublishedDate string  `json:"publishedDate,omitempty"`
	Author        string  `json:"author,omitempty"`
	Text          string  `json:"text,omitempty"`

	// raw holds the decoded values as sent, so empty and null fields survive
	raw map[string]json.RawMessage
}

// UnmarshalJSON decodes the citation and remembers the raw field values
func (c *Citation) UnmarshalJSON(data []byte) error {
	type plain Citation
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*c = Citation(p)
	c.raw = raw
	return nil
}

// MarshalJSON writes the known citation fields exactly as they were received.
// Citations built in code fall back to the tagged struct encoding.
func (c Citation) MarshalJSON() ([]byte, error) {
	type plain Citation
	var buf bytes.Buffer
	if c.raw == nil {
		enc := json.NewEncoder(&buf)
		enc.SetEscapeHTML(false)
		if err := enc.Encode(plain(c)); err != nil {
			return nil, err
		}
		return bytes.TrimRight(buf.Bytes(), "\n"), nil
	}

	buf.WriteByte('{')
	n := 0
	for _, key := range citationFields {
		v, ok := c.raw[key]
		if !ok {
			continue
		}
		if n > 0 {
			buf.WriteByte(',')
		}
		buf.WriteString(strconv.Quote(key))
		buf.WriteByte(':')
		buf.Write(v)
		n++
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// DisplayTitle returns the title used when rendering the citation as a link
func (c Citation) DisplayTitle() string {
	if c.Title == "" {
		return DefaultCitationTitle
	}
	return c.Title
}

// Chunk is one increment of an upstream streaming answer.
// Content is nil when the upstream frame carried no text at all.
type Chunk struct {
	Content   *string
	Citations []Citation
}

// HasCitations reports whether the chunk carries at least one citation
func (c Chunk) HasCitations() bool {
	return len(c.Citations) > 0
}

// ChunkStream is a lazy, ordered sequence of chunks.
// Recv returns io.EOF once the sequence is exhausted.
type ChunkStream interface {
	Recv() (Chunk, error)
	Close() error
}

// CitationsRecord is the outbound record carrying a chunk's raw citations
type CitationsRecord struct {
	Citations []Citation `json:"citations"`
}

// DeltaRecord is the outbound record carrying a chunk's content
type DeltaRecord struct {
	Choices []Choice `json:"choices"`
}

// Choice wraps a delta, chat-completion style
type Choice struct {
	Delta Delta `json:"delta"`
}

// Delta holds the content fragment of a DeltaRecord
type Delta struct {
	Content *string `json:"content,omitempty"`
}

// NewDeltaRecord builds a single-choice delta record
func NewDeltaRecord(content *string) DeltaRecord {
	return DeltaRecord{Choices: []Choice{{Delta: Delta{Content: content}}}}
}
