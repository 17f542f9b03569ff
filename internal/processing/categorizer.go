package processing

import (
	"context"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// Categorize classifies text as urgent, high_risk or base. An unexpected
// model answer reads as base; a failed call uses the keyword rules.
func (p *Pipeline) Categorize(ctx context.Context, text string) (Category, Source) {
	ctx, span := p.tracer.Start(ctx, "processing.Categorize")
	defer span.End()

	reply, err := p.llm.Complete(ctx, buildCategorizeRequest(text))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "llm failed")
		p.fallback("categorize", err)
		c := detectCategory(text)
		span.SetAttributes(attribute.String("category", string(c)), attribute.Bool("fallback", true))
		return c, SourceFallback
	}

	c, ok := ParseCategory(strings.Trim(strings.ToLower(strings.TrimSpace(reply)), `"'.`))
	if !ok {
		c = CategoryBase
	}
	span.SetAttributes(attribute.String("category", string(c)))
	return c, SourceLLM
}
