package service

import (
	"context"
	"errors"
	"fmt"
	"io"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/liliang-cn/exaanswer/internal/config"
	"github.com/liliang-cn/exaanswer/internal/domain"
	"github.com/liliang-cn/exaanswer/internal/tracer"
)

// Answerer opens upstream answer streams
type Answerer interface {
	Answer(ctx context.Context, query, model string) (domain.ChunkStream, error)
}

// RecordWriter receives outbound records, one at a time
type RecordWriter interface {
	WriteRecord(record any) error
}

// AnswerService relays upstream answer streams
type AnswerService struct {
	upstream Answerer
	model    string
	logger   *zap.Logger
}

// NewAnswerService creates a new answer service
func NewAnswerService(cfg *config.Config, upstream Answerer, logger *zap.Logger) *AnswerService {
	return &AnswerService{
		upstream: upstream,
		model:    cfg.Exa.Model,
		logger:   logger,
	}
}

// Open validates the request and opens the upstream stream.
// Upstream errors are returned unwrapped so their message reaches the caller as is.
func (s *AnswerService) Open(ctx context.Context, req *domain.AnswerRequest) (domain.ChunkStream, error) {
	query, err := req.QueryText()
	if err != nil {
		return nil, err
	}

	ctx, span := tracer.Start(ctx, "answer.open",
		attribute.String("exa.model", s.model),
		attribute.Int("query.length", len(query)),
	)
	stream, err := s.upstream.Answer(ctx, query, s.model)
	tracer.End(span, err)
	if err != nil {
		return nil, err
	}
	return stream, nil
}

// Relay pulls chunks from stream in order, formats each one and hands its
// records to w before pulling the next. It closes stream when done.
func (s *AnswerService) Relay(ctx context.Context, stream domain.ChunkStream, w RecordWriter) (err error) {
	_, span := tracer.Start(ctx, "answer.relay", attribute.String("exa.model", s.model))
	defer stream.Close()

	var chunks, citations int
	defer func() {
		span.SetAttributes(
			attribute.Int("relay.chunks", chunks),
			attribute.Int("relay.citations", citations),
		)
		tracer.End(span, err)
	}()

	for {
		chunk, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("receive chunk: %w", err)
		}

		if chunk.HasCitations() {
			citations += len(chunk.Citations)
			s.logger.Info("Sending citations",
				zap.Int("chunk", chunks),
				zap.Strings("urls", citationURLs(chunk.Citations)),
			)
		}

		for _, record := range FormatChunk(chunk) {
			if err := w.WriteRecord(record); err != nil {
				return fmt.Errorf("write record: %w", err)
			}
		}
		chunks++
	}
}

func citationURLs(citations []domain.Citation) []string {
	urls := make([]string, 0, len(citations))
	for _, c := range citations {
		if c.URL != nil {
			urls = append(urls, *c.URL)
		}
	}
	return urls
}
