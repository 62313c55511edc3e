package discovery

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/curricula/backend/internal/apperr"
)

// MaxDiscovered caps how many candidates one discovery returns.
const MaxDiscovered = 10

const discoverPrompt = `Find %d high-quality educational resources about: %s

Guidelines:
- Only include resources that actually exist and are currently available
- Prefer primary sources (official course pages, publisher sites) over aggregators
- Include a mix of free and paid resources
- Focus on quality over quantity
- Prefer high-quality, indie creators over mainstream ones when possible
- Prefer resources sold directly by the creator over resources sold through a third party
- Avoid resources that are too sales-y or marketing-heavy
- For books, use publisher or Amazon links
- For courses, use official platform links
- Provide accurate pricing when possible`

const extractPrompt = `Extract information about this educational resource from the following page content.

URL: %s

Page Content:
%s

Based on this content, extract the resource metadata. Be accurate about pricing: look for actual prices mentioned. For type, determine if this is a book, course, YouTube series, podcast, article, or cohort-based program.`

// PageReader fetches page content for extraction.
type PageReader interface {
	Markdown(ctx context.Context, pageURL string) (string, error)
	PreviewImage(ctx context.Context, pageURL string) string
}

// Service runs model-backed discovery and extraction.
type Service struct {
	discoverer Completer
	extractor  Completer
	reader     PageReader
	logger     *zap.Logger
}

// NewService creates a discovery service.
func NewService(discoverer, extractor Completer, reader PageReader, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{discoverer: discoverer, extractor: extractor, reader: reader, logger: logger}
}

// Discover asks the discovery model for resources about topic. Candidates that do not
// fit the catalog are dropped.
func (s *Service) Discover(ctx context.Context, topic string) ([]Candidate, error) {
	topic = strings.TrimSpace(topic)
	if topic == "" {
		return nil, apperr.ValidationFields("Topic is required", map[string][]string{"topic": {"Topic is required"}})
	}

	raw, err := s.discoverer.Complete(ctx, CompletionRequest{
		Prompt:     fmt.Sprintf(discoverPrompt, MaxDiscovered, topic),
		SchemaName: "discovered_resources",
		Schema:     discoverySchema(),
	})
	if err != nil {
		s.logger.Error("discover resources", zap.String("topic", topic), zap.Error(err))
		return nil, apperr.Upstream("Failed to discover resources", err)
	}
	var out struct {
		Resources []Candidate `json:"resources"`
	}
	if err := decodeJSON(raw, &out); err != nil {
		s.logger.Error("discover resources", zap.String("topic", topic), zap.Error(err))
		return nil, apperr.Upstream("Failed to discover resources", err)
	}

	found := make([]Candidate, 0, len(out.Resources))
	for _, c := range out.Resources {
		if len(found) == MaxDiscovered {
			break
		}
		if err := c.Normalize(); err != nil {
			s.logger.Debug("drop discovered candidate", zap.String("title", c.Title), zap.Error(err))
			continue
		}
		found = append(found, c)
	}
	s.logger.Info("discovered resources", zap.String("topic", topic), zap.Int("returned", len(out.Resources)), zap.Int("kept", len(found)))
	return found, nil
}

// Extract reads pageURL and asks the extraction model to describe the resource on it.
func (s *Service) Extract(ctx context.Context, pageURL string) (*Candidate, error) {
	pageURL = strings.TrimSpace(pageURL)
	if !isWebURL(pageURL) {
		return nil, apperr.ValidationFields("Invalid URL", map[string][]string{"url": {"Invalid URL"}})
	}

	var (
		markdown string
		image    string
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		markdown, err = s.reader.Markdown(gctx, pageURL)
		return err
	})
	g.Go(func() error {
		image = s.reader.PreviewImage(gctx, pageURL)
		return nil
	})
	if err := g.Wait(); err != nil {
		s.logger.Error("fetch page", zap.String("url", pageURL), zap.Error(err))
		return nil, apperr.Upstream("Failed to fetch page", err)
	}

	raw, err := s.extractor.Complete(ctx, CompletionRequest{
		Prompt:     fmt.Sprintf(extractPrompt, pageURL, truncate(markdown, MaxPageChars)),
		SchemaName: "extracted_resource",
		Schema:     candidateSchema(false),
	})
	if err != nil {
		s.logger.Error("extract resource", zap.String("url", pageURL), zap.Error(err))
		return nil, apperr.Upstream("Failed to extract from URL", err)
	}
	var c Candidate
	if err := decodeJSON(raw, &c); err != nil {
		s.logger.Error("extract resource", zap.String("url", pageURL), zap.Error(err))
		return nil, apperr.Upstream("Failed to extract from URL", err)
	}
	c.URL = pageURL
	c.ImageURL = image
	if err := c.Normalize(); err != nil {
		s.logger.Warn("unusable extraction", zap.String("url", pageURL), zap.Error(err))
		return nil, apperr.Upstream("Failed to extract from URL", err)
	}
	return &c, nil
}
