package dataprocessing

import (
	"context"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"salespulse/pkg/contracts/domain"
)

const tracerName = "salespulse/dataprocessing"

// Stage names used for metrics and span labels.
const (
	StageParse        = "parse"
	StageDateFilter   = "date_filter"
	StageDedup        = "dedup"
	StageOutlier      = "outlier_filter"
	StageEnrich       = "enrich"
)

// Metrics holds the pipeline's Prometheus instrumentation.
type Metrics struct {
	Runs        prometheus.Counter
	RowsIn      prometheus.Counter
	RowsCleaned prometheus.Counter
	RowsDropped *prometheus.CounterVec
}

// NewMetrics registers the pipeline metrics on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		Runs: factory.NewCounter(prometheus.CounterOpts{
			Name: "salespulse_pipeline_runs_total",
			Help: "Number of cleaning pipeline executions.",
		}),
		RowsIn: factory.NewCounter(prometheus.CounterOpts{
			Name: "salespulse_pipeline_rows_in_total",
			Help: "Raw rows read into the pipeline.",
		}),
		RowsCleaned: factory.NewCounter(prometheus.CounterOpts{
			Name: "salespulse_pipeline_rows_cleaned_total",
			Help: "Rows surviving every cleaning stage.",
		}),
		RowsDropped: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "salespulse_pipeline_rows_dropped_total",
			Help: "Rows dropped, partitioned by pipeline stage.",
		}, []string{"stage"}),
	}
}

// Pipeline runs the cleaning and enrichment stages in their fixed order:
// parse, date exclusion, deduplication, outlier filtering, enrichment.
// A run is synchronous, deterministic and free of I/O; the cleaned table it
// produces is immutable.
type Pipeline struct {
	parser  *Parser
	logger  *slog.Logger
	metrics *Metrics
	tracer  trace.Tracer
}

// NewPipeline creates a pipeline. metrics may be nil when row accounting is
// not wanted (tests, one-shot tooling).
func NewPipeline(logger *slog.Logger, metrics *Metrics) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{
		parser:  NewParser(logger),
		logger:  logger.With(slog.String("component", "pipeline")),
		metrics: metrics,
		tracer:  otel.Tracer(tracerName),
	}
}

// Clean runs every stage against the raw table and returns the canonical
// cleaned table. The only error conditions are those of parsing (missing
// Order Date column); all data defects narrow the surviving set silently.
func (p *Pipeline) Clean(ctx context.Context, table domain.RawTable) (*domain.CleanedTable, error) {
	ctx, span := p.tracer.Start(ctx, "pipeline.clean",
		trace.WithAttributes(attribute.Int("rows_in", len(table.Rows))))
	defer span.End()

	if p.metrics != nil {
		p.metrics.Runs.Inc()
		p.metrics.RowsIn.Add(float64(len(table.Rows)))
	}

	dataset, err := p.runParse(ctx, table)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	records := dataset.Records
	records = p.runStage(ctx, StageDateFilter, records, filterExcludedDate)
	records = p.runStage(ctx, StageDedup, records, func(rs []domain.OrderRecord) []domain.OrderRecord {
		return deduplicate(rs, dataset.Columns)
	})
	records = p.runStage(ctx, StageOutlier, records, func(rs []domain.OrderRecord) []domain.OrderRecord {
		return filterOutliers(rs, dataset.Columns)
	})

	_, enrichSpan := p.tracer.Start(ctx, "pipeline."+StageEnrich)
	cleaned := enrich(records)
	enrichSpan.End()

	if p.metrics != nil {
		p.metrics.RowsCleaned.Add(float64(len(cleaned)))
	}

	p.logger.InfoContext(ctx, "pipeline run complete",
		slog.Int("rows_in", len(table.Rows)),
		slog.Int("rows_cleaned", len(cleaned)))

	span.SetAttributes(attribute.Int("rows_cleaned", len(cleaned)))

	return &domain.CleanedTable{
		Records: cleaned,
		Columns: dataset.Columns,
	}, nil
}

// runParse wraps the parse stage with its span and drop accounting.
func (p *Pipeline) runParse(ctx context.Context, table domain.RawTable) (domain.Dataset, error) {
	ctx, span := p.tracer.Start(ctx, "pipeline."+StageParse)
	defer span.End()

	dataset, err := p.parser.Parse(ctx, table)
	if err != nil {
		return domain.Dataset{}, err
	}

	p.countDropped(StageParse, len(table.Rows)-len(dataset.Records))
	return dataset, nil
}

// runStage executes one filtering stage under a span and records how many
// rows it dropped.
func (p *Pipeline) runStage(ctx context.Context, stage string, records []domain.OrderRecord, fn func([]domain.OrderRecord) []domain.OrderRecord) []domain.OrderRecord {
	ctx, span := p.tracer.Start(ctx, "pipeline."+stage,
		trace.WithAttributes(attribute.Int("rows_in", len(records))))
	defer span.End()

	kept := fn(records)
	dropped := len(records) - len(kept)
	p.countDropped(stage, dropped)

	p.logger.DebugContext(ctx, "stage complete",
		slog.String("stage", stage),
		slog.Int("rows_in", len(records)),
		slog.Int("dropped", dropped))

	span.SetAttributes(attribute.Int("rows_dropped", dropped))
	return kept
}

func (p *Pipeline) countDropped(stage string, n int) {
	if p.metrics == nil || n <= 0 {
		return
	}
	p.metrics.RowsDropped.WithLabelValues(stage).Add(float64(n))
}
