package llm

import "go.opentelemetry.io/otel"

const scopeName = "github.com/nadzzz/tandem/internal/llm"

var tracer = otel.Tracer(scopeName)
