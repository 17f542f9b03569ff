package processing

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/mrericsingh-eng/normalize/internal/integrations/emergency"
	"github.com/mrericsingh-eng/normalize/internal/llm"
	"github.com/mrericsingh-eng/normalize/internal/places"
)

// Geocoder resolves a place name to an ISO 3166-1 alpha-2 country code.
type Geocoder interface {
	CountryCode(ctx context.Context, name string) (string, error)
}

// EmergencyDirectory lists the emergency numbers of a country.
type EmergencyDirectory interface {
	Numbers(ctx context.Context, code string) ([]string, error)
}

// staticDirectory answers from the built-in table only.
type staticDirectory struct{}

func (staticDirectory) Numbers(_ context.Context, code string) ([]string, error) {
	nums := places.EmergencyNumbers(code)
	if len(nums) == 0 {
		return nil, fmt.Errorf("%w: %s", emergency.ErrNotFound, code)
	}
	return nums, nil
}

// Deps are the collaborators of a Pipeline. LLM defaults to the none
// provider, Emergency to the built-in table. A nil Geocoder disables
// geocoding.
type Deps struct {
	LLM       llm.Client
	Geocoder  Geocoder
	Emergency EmergencyDirectory
	Logger    *zap.Logger
	// LookupConcurrency bounds geocode and emergency fan-out per message.
	LookupConcurrency int
}

// Pipeline turns one message into a NormalizeOut.
type Pipeline struct {
	llm         llm.Client
	geo         Geocoder
	sos         EmergencyDirectory
	logger      *zap.Logger
	tracer      trace.Tracer
	concurrency int
}

func NewPipeline(d Deps) *Pipeline {
	p := &Pipeline{
		llm:         d.LLM,
		geo:         d.Geocoder,
		sos:         d.Emergency,
		logger:      d.Logger,
		tracer:      otel.Tracer("normalize"),
		concurrency: d.LookupConcurrency,
	}
	if p.llm == nil {
		p.llm = llm.None{}
	}
	if p.sos == nil {
		p.sos = staticDirectory{}
	}
	if p.logger == nil {
		p.logger = zap.NewNop()
	}
	if p.concurrency <= 0 {
		p.concurrency = 4
	}
	return p
}

// Run normalizes one message. It also returns the names of the stages that
// fell back to the deterministic path. Collaborator failures only degrade
// the answer; Run fails on context cancellation or a panic in a stage.
func (p *Pipeline) Run(ctx context.Context, in NormalizeIn) (NormalizeOut, []string, error) {
	ctx, span := p.tracer.Start(ctx, "processing.Run",
		trace.WithAttributes(attribute.String("message_id", in.MessageID)))
	defer span.End()

	start := time.Now()
	log := p.logger.With(zap.String("message_id", in.MessageID))

	var (
		category   Category
		catSrc     Source
		contact    Contact
		contactSrc Source
		extraction Extraction
		entSrc     Source
	)

	var g errgroup.Group
	g.Go(guard("categorize", func() { category, catSrc = p.Categorize(ctx, in.Text) }))
	g.Go(guard("contact", func() { contact, contactSrc = p.ExtractContact(ctx, in.Text) }))
	g.Go(guard("entities", func() { extraction, entSrc = p.ExtractEntities(ctx, in.Text) }))
	if err := g.Wait(); err != nil {
		return p.fail(span, log, err)
	}
	if err := ctx.Err(); err != nil {
		return p.fail(span, log, err)
	}

	var numbers []string
	if err := guard("enrich", func() {
		numbers = p.Enrich(ctx, extraction.Entities, extraction.Countries)
	})(); err != nil {
		return p.fail(span, log, err)
	}
	if err := ctx.Err(); err != nil {
		return p.fail(span, log, err)
	}

	// The model's typo verdict is final; the detector only stands in for it.
	typos := extraction.Typos
	if entSrc == SourceFallback {
		typos = DetectTypos(in.Text, contact, extraction.Entities)
	}

	out := NormalizeOut{
		MessageID: in.MessageID,
		Category:  category,
	}
	if !contact.IsEmpty() {
		out.Contact = &contact
	}
	if len(extraction.Entities) > 0 {
		out.Entities = extraction.Entities
	}
	enrichment := Enrichment{LocalEmergencyNumbers: numbers, Typos: typos}
	if !enrichment.IsEmpty() {
		out.Enrichment = &enrichment
	}

	var fallbacks []string
	for _, s := range []struct {
		name string
		src  Source
	}{{"categorize", catSrc}, {"contact", contactSrc}, {"entities", entSrc}} {
		if s.src == SourceFallback {
			fallbacks = append(fallbacks, s.name)
		}
	}

	span.SetAttributes(attribute.String("category", string(category)))
	log.Debug("message normalized",
		zap.String("category", string(category)),
		zap.Strings("fallbacks", fallbacks),
		zap.Int("entities", len(out.Entities)),
		zap.Duration("took", time.Since(start)))
	return out, fallbacks, nil
}

func (p *Pipeline) fail(span trace.Span, log *zap.Logger, err error) (NormalizeOut, []string, error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, "normalize failed")
	if !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded) {
		log.Error("normalize failed", zap.Error(err))
	}
	return NormalizeOut{}, nil, err
}

// guard turns a panic in fn into an error.
func guard(stage string, fn func()) func() error {
	return func() (err error) {
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("%s stage panicked: %v", stage, r)
			}
		}()
		fn()
		return nil
	}
}

// fallback logs why a stage left the model path. A missing provider is the
// configured mode, not a failure.
func (p *Pipeline) fallback(stage string, err error) {
	if errors.Is(err, llm.ErrNoProvider) {
		p.logger.Debug("no llm provider, using fallback", zap.String("stage", stage))
		return
	}
	p.logger.Warn("llm stage failed, using fallback",
		zap.String("stage", stage),
		zap.String("provider", p.llm.Name()),
		zap.Error(err))
}
