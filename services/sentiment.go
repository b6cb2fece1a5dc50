package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"

	"shop-scraper/config"
	"shop-scraper/models"
	"shop-scraper/utils"
)

// ErrClassifier is wrapped by every classifier failure.
var ErrClassifier = errors.New("sentiment classifier failed")

// Prediction is one classifier output.
type Prediction struct {
	Label      models.SentimentLabel
	Confidence float64
}

// Classifier labels a batch of texts. The result has one prediction per
// input, in input order.
type Classifier interface {
	Classify(ctx context.Context, texts []string) ([]Prediction, error)
}

// ─────────────────────────────────────────────
// Enricher
// ─────────────────────────────────────────────

// Enricher attaches sentiment to reviews in batches.
type Enricher struct {
	classifier  Classifier
	batchSize   int
	concurrency int
	rateLimit   time.Duration
	maxChars    int
	logger      *utils.Logger
	metrics     *utils.Metrics
}

// NewEnricher creates an Enricher using the sentiment settings in cfg.
func NewEnricher(cfg *config.Config, classifier Classifier, logger *utils.Logger, metrics *utils.Metrics) *Enricher {
	return &Enricher{
		classifier:  classifier,
		batchSize:   cfg.SentimentBatchSize,
		concurrency: cfg.SentimentConcurrency,
		rateLimit:   cfg.SentimentRateLimit,
		maxChars:    cfg.SentimentMaxChars,
		logger:      logger,
		metrics:     metrics,
	}
}

// Enrich returns a copy of reviews with label and confidence attached. The
// output has the same length and order as the input; nothing is dropped.
// If any batch fails the whole call fails and the input is left untouched,
// so callers can fall back to the raw reviews.
func (e *Enricher) Enrich(ctx context.Context, reviews []models.Review) ([]models.Review, error) {
	if len(reviews) == 0 {
		return []models.Review{}, nil
	}

	size := e.batchSize
	if size < 1 {
		size = len(reviews)
	}
	nBatches := (len(reviews) + size - 1) / size
	results := make([][]Prediction, nBatches)

	var (
		mu       sync.Mutex
		firstErr error
	)
	pool := utils.NewWorkerPool(e.concurrency, e.rateLimit)

	for b := 0; b < nBatches; b++ {
		idx := b
		start := idx * size
		end := start + size
		if end > len(reviews) {
			end = len(reviews)
		}

		texts := make([]string, 0, end-start)
		for _, r := range reviews[start:end] {
			texts = append(texts, Truncate(r.Text, e.maxChars))
		}

		pool.Submit(func() {
			if ctx.Err() != nil {
				return
			}
			preds, err := e.classifier.Classify(ctx, texts)
			if err == nil && len(preds) != len(texts) {
				err = fmt.Errorf("%w: got %d predictions for %d texts", ErrClassifier, len(preds), len(texts))
			}
			if err != nil {
				e.metrics.IncBatch("failed")
				mu.Lock()
				if firstErr == nil {
					firstErr = fmt.Errorf("enrich: batch %d: %w", idx, err)
				}
				mu.Unlock()
				return
			}
			e.metrics.IncBatch("ok")
			results[idx] = preds
		})
	}
	pool.Wait()

	if firstErr != nil {
		return nil, firstErr
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("enrich: %w", err)
	}

	out := make([]models.Review, len(reviews))
	copy(out, reviews)
	for b, preds := range results {
		for i, p := range preds {
			out[b*size+i].SentimentLabel = p.Label
			out[b*size+i].Confidence = p.Confidence
		}
	}
	e.logger.Info("[enrich] Labelled %d reviews in %d batches", len(out), nBatches)
	return out, nil
}

// Truncate cuts s to at most n runes.
func Truncate(s string, n int) string {
	if n <= 0 {
		return s
	}
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos]
		}
		i++
	}
	return s
}

// ─────────────────────────────────────────────
// HuggingFace inference API
// ─────────────────────────────────────────────

// HuggingFaceClassifier calls a hosted text-classification model such as
// distilbert-base-uncased-finetuned-sst-2-english.
type HuggingFaceClassifier struct {
	client   *resty.Client
	endpoint string
}

// NewHuggingFaceClassifier creates a classifier posting to endpoint. token may
// be empty for anonymous access.
func NewHuggingFaceClassifier(endpoint, token string, timeout time.Duration) *HuggingFaceClassifier {
	client := resty.New()
	client.SetHeader("Content-Type", "application/json")
	client.SetTimeout(timeout)
	if token != "" {
		client.SetAuthToken(token)
	}
	return &HuggingFaceClassifier{client: client, endpoint: endpoint}
}

// Client exposes the underlying HTTP client so tests can swap the transport.
func (c *HuggingFaceClassifier) Client() *resty.Client {
	return c.client
}

type hfRequest struct {
	Inputs  []string        `json:"inputs"`
	Options map[string]bool `json:"options,omitempty"`
}

type hfScore struct {
	Label string  `json:"label"`
	Score float64 `json:"score"`
}

type hfError struct {
	Error string `json:"error"`
}

func (c *HuggingFaceClassifier) Classify(ctx context.Context, texts []string) ([]Prediction, error) {
	res, err := c.client.R().
		SetContext(ctx).
		SetBody(hfRequest{Inputs: texts, Options: map[string]bool{"wait_for_model": true}}).
		Post(c.endpoint)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrClassifier, err)
	}

	body := res.Body()
	if res.StatusCode() != http.StatusOK {
		var apiErr hfError
		if json.Unmarshal(body, &apiErr) == nil && apiErr.Error != "" {
			return nil, fmt.Errorf("%w: status %d: %s", ErrClassifier, res.StatusCode(), apiErr.Error)
		}
		return nil, fmt.Errorf("%w: status %d", ErrClassifier, res.StatusCode())
	}

	return parseHFResponse(body, len(texts))
}

// parseHFResponse accepts both the nested form (one list of label scores per
// input) and the flat form some deployments return for single inputs.
func parseHFResponse(body []byte, n int) ([]Prediction, error) {
	var nested [][]hfScore
	if err := json.Unmarshal(body, &nested); err == nil {
		preds := make([]Prediction, 0, len(nested))
		for _, scores := range nested {
			p, err := bestScore(scores)
			if err != nil {
				return nil, err
			}
			preds = append(preds, p)
		}
		return preds, nil
	}

	var flat []hfScore
	if err := json.Unmarshal(body, &flat); err == nil {
		if n == 1 {
			p, err := bestScore(flat)
			if err != nil {
				return nil, err
			}
			return []Prediction{p}, nil
		}
		preds := make([]Prediction, 0, len(flat))
		for _, s := range flat {
			p, err := bestScore([]hfScore{s})
			if err != nil {
				return nil, err
			}
			preds = append(preds, p)
		}
		return preds, nil
	}

	var apiErr hfError
	if json.Unmarshal(body, &apiErr) == nil && apiErr.Error != "" {
		return nil, fmt.Errorf("%w: %s", ErrClassifier, apiErr.Error)
	}
	return nil, fmt.Errorf("%w: unexpected response %.120q", ErrClassifier, body)
}

func bestScore(scores []hfScore) (Prediction, error) {
	if len(scores) == 0 {
		return Prediction{}, fmt.Errorf("%w: empty score list", ErrClassifier)
	}
	best := scores[0]
	for _, s := range scores[1:] {
		if s.Score > best.Score {
			best = s
		}
	}
	label, err := normaliseLabel(best.Label)
	if err != nil {
		return Prediction{}, err
	}
	return Prediction{Label: label, Confidence: best.Score}, nil
}

func normaliseLabel(raw string) (models.SentimentLabel, error) {
	switch strings.ToUpper(strings.TrimSpace(raw)) {
	case "POSITIVE", "POS", "LABEL_1":
		return models.Positive, nil
	case "NEGATIVE", "NEG", "LABEL_0":
		return models.Negative, nil
	}
	return "", fmt.Errorf("%w: unknown label %q", ErrClassifier, raw)
}

// ─────────────────────────────────────────────
// Offline lexicon
// ─────────────────────────────────────────────

var positiveWords = map[string]struct{}{
	"good": {}, "great": {}, "excellent": {}, "amazing": {}, "love": {}, "loved": {},
	"perfect": {}, "best": {}, "delicious": {}, "nice": {}, "happy": {}, "fantastic": {},
	"awesome": {}, "recommend": {}, "wonderful": {}, "fresh": {}, "tasty": {}, "enjoy": {},
	"enjoyed": {}, "favorite": {}, "favourite": {}, "quality": {}, "fast": {}, "satisfied": {},
}

var negativeWords = map[string]struct{}{
	"bad": {}, "terrible": {}, "awful": {}, "hate": {}, "hated": {}, "worst": {},
	"poor": {}, "disappointed": {}, "disappointing": {}, "broken": {}, "stale": {},
	"slow": {}, "horrible": {}, "waste": {}, "never": {}, "not": {}, "bland": {},
	"expensive": {}, "overpriced": {}, "late": {}, "damaged": {}, "refund": {},
}

// LexiconClassifier is an offline word-list classifier used when no
// inference endpoint is available.
type LexiconClassifier struct{}

func (LexiconClassifier) Classify(ctx context.Context, texts []string) ([]Prediction, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	preds := make([]Prediction, len(texts))
	for i, t := range texts {
		preds[i] = lexiconScore(t)
	}
	return preds, nil
}

func lexiconScore(text string) Prediction {
	var pos, neg int
	for _, w := range Tokenize(text) {
		if _, ok := positiveWords[w]; ok {
			pos++
		}
		if _, ok := negativeWords[w]; ok {
			neg++
		}
	}

	label := models.Positive
	if neg > pos {
		label = models.Negative
	}
	if pos+neg == 0 {
		return Prediction{Label: label, Confidence: 0.5}
	}
	diff := pos - neg
	if diff < 0 {
		diff = -diff
	}
	return Prediction{Label: label, Confidence: 0.5 + 0.5*float64(diff)/float64(pos+neg)}
}

// NewClassifier builds the classifier selected by SENTIMENT_PROVIDER. It
// returns nil for "none".
func NewClassifier(cfg *config.Config) Classifier {
	switch cfg.SentimentProvider {
	case "huggingface":
		return NewHuggingFaceClassifier(cfg.SentimentEndpoint, cfg.SentimentToken, cfg.SentimentTimeout)
	case "lexicon":
		return LexiconClassifier{}
	default:
		return nil
	}
}
