package handler

import (
	"log/slog"

	"go.hackfix.me/hello/web/server/types"
)

// Pipeline defines the processing stages for HTTP requests and responses.
// It provides a fluent interface for configuring serialization and processors.
// A Pipeline must not be modified after it's passed to Handle.
type Pipeline struct {
	serializer         Serializer
	requestProcessors  []RequestProcessor
	responseProcessors []ResponseProcessor
	errorLevel         types.ErrorLevel
	logger             *slog.Logger
}

// NewPipeline creates a new empty pipeline for configuring request/response
// processing. Error messages are sanitized with types.ErrorLevelMinimal unless
// changed with ErrorLevel.
func NewPipeline() *Pipeline {
	return &Pipeline{errorLevel: types.ErrorLevelMinimal}
}

// Clone returns a copy of the pipeline that can be modified independently.
func (p *Pipeline) Clone() *Pipeline {
	c := *p
	c.requestProcessors = append([]RequestProcessor(nil), p.requestProcessors...)
	c.responseProcessors = append([]ResponseProcessor(nil), p.responseProcessors...)
	return &c
}

// Serializer sets the response serializer for this pipeline.
func (p *Pipeline) Serializer(s Serializer) *Pipeline {
	p.serializer = s
	return p
}

// ErrorLevel sets the detail level of error messages sent to clients.
func (p *Pipeline) ErrorLevel(lvl types.ErrorLevel) *Pipeline {
	p.errorLevel = lvl
	return p
}

// Logger sets the logger used to report server errors.
func (p *Pipeline) Logger(logger *slog.Logger) *Pipeline {
	p.logger = logger
	return p
}

// ProcessRequest adds one or more request processors to the pipeline.
func (p *Pipeline) ProcessRequest(processor ...RequestProcessor) *Pipeline {
	p.requestProcessors = append(p.requestProcessors, processor...)
	return p
}

// ProcessResponse adds one or more response processors to the pipeline.
func (p *Pipeline) ProcessResponse(processor ...ResponseProcessor) *Pipeline {
	p.responseProcessors = append(p.responseProcessors, processor...)
	return p
}
