package turn

import "go.opentelemetry.io/otel"

const scopeName = "github.com/nadzzz/tandem/internal/turn"

var tracer = otel.Tracer(scopeName)
