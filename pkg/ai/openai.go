package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	openai "github.com/sashabaranov/go-openai"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var (
	aiDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "classdesk",
		Subsystem: "ai",
		Name:      "summary_duration_seconds",
		Help:      "Duration of AI review summary requests",
	}, []string{"model"})

	aiFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "classdesk",
		Subsystem: "ai",
		Name:      "summary_failures_total",
		Help:      "Number of AI review summary failures",
	}, []string{"model"})
)

// OpenAIConfig defines configuration options for the OpenAI summarizer.
type OpenAIConfig struct {
	APIKey      string
	Model       string
	MaxTokens   int
	Temperature float32
	Logger      zerolog.Logger
}

// OpenAISummarizer implements Summarizer against the OpenAI chat completion API.
type OpenAISummarizer struct {
	client *openai.Client
	cfg    OpenAIConfig
	tracer trace.Tracer
	logger zerolog.Logger
}

// NewOpenAISummarizer builds a new summarizer using the provided configuration.
func NewOpenAISummarizer(cfg OpenAIConfig) (*OpenAISummarizer, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("openai api key is required")
	}

	if cfg.Model == "" {
		cfg.Model = "gpt-4o-mini"
	}

	if cfg.MaxTokens == 0 {
		cfg.MaxTokens = 384
	}

	tracer := otel.Tracer("github.com/classdesk/classdesk-api/pkg/ai/openai")
	logger := cfg.Logger
	if logger.GetLevel() == zerolog.Disabled {
		logger = zerolog.Nop()
	}

	config := openai.DefaultConfig(cfg.APIKey)
	client := openai.NewClientWithConfig(config)

	return &OpenAISummarizer{
		client: client,
		cfg:    cfg,
		tracer: tracer,
		logger: logger,
	}, nil
}

// Summarize sends the speech score digest request to OpenAI and parses the response.
func (s *OpenAISummarizer) Summarize(parent context.Context, input ReviewInput) (ReviewSummary, error) {
	ctx, span := s.tracer.Start(parent, "openai.summarize", trace.WithAttributes(
		attribute.String("model", s.cfg.Model),
	))
	defer span.End()

	start := time.Now()
	request := openai.ChatCompletionRequest{
		Model:       s.cfg.Model,
		MaxTokens:   s.cfg.MaxTokens,
		Temperature: s.cfg.Temperature,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: summarizerSystemPrompt(),
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: buildSummaryPrompt(input),
			},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{Type: openai.ChatCompletionResponseFormatTypeJSONObject},
	}

	resp, err := s.client.CreateChatCompletion(ctx, request)
	aiDuration.WithLabelValues(s.cfg.Model).Observe(time.Since(start).Seconds())
	if err != nil {
		aiFailures.WithLabelValues(s.cfg.Model).Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return ReviewSummary{}, fmt.Errorf("openai summarize: %w", err)
	}

	if len(resp.Choices) == 0 {
		err := fmt.Errorf("no choices returned from openai")
		aiFailures.WithLabelValues(s.cfg.Model).Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return ReviewSummary{}, err
	}

	content := strings.TrimSpace(resp.Choices[0].Message.Content)
	summary, err := parseSummaryResponse(content)
	if err != nil {
		aiFailures.WithLabelValues(s.cfg.Model).Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return ReviewSummary{}, err
	}

	return summary, nil
}

func summarizerSystemPrompt() string {
	return "You are an assistant helping a teacher review automated speech scoring results. Respond with a JSON object contai" +
		"ning summary (two sentences at most), strengths (array of short phrases), and weaknesses (array of short phrases). Be" +
		" concrete and neutral; never invent details absent from the scores or transcript."
}

func buildSummaryPrompt(input ReviewInput) string {
	builder := strings.Builder{}
	builder.WriteString("# Assignment\n")
	builder.WriteString(input.AssignmentTitle)
	builder.WriteString("\n\n## Student\n")
	builder.WriteString(input.StudentName)
	builder.WriteString(fmt.Sprintf("\n\n## Scores\noverall: %.1f\npronunciation: %.1f\nfluency: %.1f\ncompleteness: %.1f\n",
		input.Overall, input.Pronunciation, input.Fluency, input.Completeness))
	if input.Transcript != "" {
		builder.WriteString("\n## Transcript\n")
		builder.WriteString(input.Transcript)
	}
	builder.WriteString("\nReturn JSON.")
	return builder.String()
}

func parseSummaryResponse(content string) (ReviewSummary, error) {
	var summary ReviewSummary
	if err := json.Unmarshal([]byte(content), &summary); err != nil {
		return ReviewSummary{}, fmt.Errorf("parse summary json: %w", err)
	}

	if strings.TrimSpace(summary.Summary) == "" {
		return ReviewSummary{}, fmt.Errorf("summary missing from response")
	}

	return summary, nil
}
