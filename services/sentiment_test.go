package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/jarcoal/httpmock"
	"github.com/stretchr/testify/require"

	"shop-scraper/config"
	"shop-scraper/models"
	"shop-scraper/utils"
)

const testEndpoint = "http://inference.test/models/sst2"

// echoClassifier labels each text by whether it contains "bad" and records
// every batch it receives.
type echoClassifier struct {
	mu      sync.Mutex
	batches [][]string
	failOn  string
}

func (c *echoClassifier) Classify(_ context.Context, texts []string) ([]Prediction, error) {
	c.mu.Lock()
	c.batches = append(c.batches, texts)
	c.mu.Unlock()

	preds := make([]Prediction, len(texts))
	for i, t := range texts {
		if c.failOn != "" && strings.Contains(t, c.failOn) {
			return nil, fmt.Errorf("%w: boom", ErrClassifier)
		}
		if strings.Contains(t, "bad") {
			preds[i] = Prediction{Label: models.Negative, Confidence: 0.9}
		} else {
			preds[i] = Prediction{Label: models.Positive, Confidence: 0.8}
		}
	}
	return preds, nil
}

func testEnricher(c Classifier, batch, workers, maxChars int) *Enricher {
	cfg := &config.Config{
		SentimentBatchSize:   batch,
		SentimentConcurrency: workers,
		SentimentMaxChars:    maxChars,
	}
	return NewEnricher(cfg, c, utils.NewDiscardLogger(), nil)
}

func TestEnrichPreservesLengthAndOrder(t *testing.T) {
	in := []models.Review{
		{Date: "2024-01-01", Text: "good a", Rating: 5},
		{Date: "2024-01-02", Text: "bad b", Rating: 1},
		{Date: "2024-01-03", Text: "good c", Rating: 4},
		{Date: "2024-01-04", Text: "bad d", Rating: 2},
		{Date: "2024-01-05", Text: "good e", Rating: 5},
	}
	e := testEnricher(&echoClassifier{}, 2, 3, 512)

	out, err := e.Enrich(context.Background(), in)
	require.NoError(t, err)
	require.Len(t, out, len(in))

	for i := range in {
		require.Equal(t, in[i].Text, out[i].Text, "review %d moved", i)
		require.Equal(t, in[i].Date, out[i].Date)
		require.True(t, out[i].Enriched(), "review %d not enriched", i)
	}
	require.Equal(t, models.Negative, out[1].SentimentLabel)
	require.Equal(t, models.Positive, out[2].SentimentLabel)
	require.False(t, in[0].Enriched(), "input must not be mutated")
}

func TestEnrichTruncatesInput(t *testing.T) {
	c := &echoClassifier{}
	e := testEnricher(c, 8, 1, 5)

	_, err := e.Enrich(context.Background(), []models.Review{{Text: "ééééééé long"}})
	require.NoError(t, err)
	require.Equal(t, [][]string{{"ééééé"}}, c.batches)
}

func TestEnrichBatchFailureFailsWhole(t *testing.T) {
	in := []models.Review{{Text: "fine"}, {Text: "explode"}, {Text: "fine too"}}
	e := testEnricher(&echoClassifier{failOn: "explode"}, 1, 2, 512)

	out, err := e.Enrich(context.Background(), in)
	require.Error(t, err)
	require.True(t, errors.Is(err, ErrClassifier), "error should wrap ErrClassifier: %v", err)
	require.Nil(t, out)
}

func TestEnrichEmpty(t *testing.T) {
	e := testEnricher(&echoClassifier{}, 4, 1, 512)
	out, err := e.Enrich(context.Background(), nil)
	require.NoError(t, err)
	require.Empty(t, out)
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		s    string
		n    int
		want string
	}{
		{"hello", 10, "hello"},
		{"hello", 3, "hel"},
		{"héllo", 2, "hé"},
		{"hello", 0, "hello"},
	}
	for _, tt := range tests {
		if got := Truncate(tt.s, tt.n); got != tt.want {
			t.Errorf("Truncate(%q, %d) = %q; want %q", tt.s, tt.n, got, tt.want)
		}
	}
}

func newMockedHF(t *testing.T, responder httpmock.Responder) *HuggingFaceClassifier {
	t.Helper()
	c := NewHuggingFaceClassifier(testEndpoint, "secret", 0)
	transport := httpmock.NewMockTransport()
	transport.RegisterResponder(http.MethodPost, testEndpoint, responder)
	c.Client().SetTransport(transport)
	return c
}

func TestHuggingFaceClassifierNested(t *testing.T) {
	var gotAuth string
	var gotBody hfRequest
	c := newMockedHF(t, func(req *http.Request) (*http.Response, error) {
		gotAuth = req.Header.Get("Authorization")
		if err := json.NewDecoder(req.Body).Decode(&gotBody); err != nil {
			return nil, err
		}
		return httpmock.NewStringResponse(http.StatusOK, `[
			[{"label":"POSITIVE","score":0.98},{"label":"NEGATIVE","score":0.02}],
			[{"label":"POSITIVE","score":0.10},{"label":"NEGATIVE","score":0.90}]
		]`), nil
	})

	preds, err := c.Classify(context.Background(), []string{"love it", "hate it"})
	require.NoError(t, err)

	want := []Prediction{
		{Label: models.Positive, Confidence: 0.98},
		{Label: models.Negative, Confidence: 0.90},
	}
	if diff := cmp.Diff(want, preds); diff != "" {
		t.Errorf("Classify mismatch (-want +got):\n%s", diff)
	}
	require.Equal(t, "Bearer secret", gotAuth)
	require.Equal(t, []string{"love it", "hate it"}, gotBody.Inputs)
}

func TestHuggingFaceClassifierFlatSingle(t *testing.T) {
	c := newMockedHF(t, httpmock.NewStringResponder(http.StatusOK,
		`[{"label":"NEGATIVE","score":0.7},{"label":"POSITIVE","score":0.3}]`))

	preds, err := c.Classify(context.Background(), []string{"meh"})
	require.NoError(t, err)
	require.Equal(t, []Prediction{{Label: models.Negative, Confidence: 0.7}}, preds)
}

func TestHuggingFaceClassifierErrors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{"model loading", http.StatusServiceUnavailable, `{"error":"Model is currently loading"}`},
		{"bad status no body", http.StatusInternalServerError, ``},
		{"error in 200", http.StatusOK, `{"error":"quota exceeded"}`},
		{"unknown label", http.StatusOK, `[[{"label":"NEUTRAL","score":1}]]`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newMockedHF(t, httpmock.NewStringResponder(tt.status, tt.body))
			_, err := c.Classify(context.Background(), []string{"x"})
			require.Error(t, err)
			require.ErrorIs(t, err, ErrClassifier)
		})
	}
}

func TestLexiconClassifier(t *testing.T) {
	preds, err := LexiconClassifier{}.Classify(context.Background(), []string{
		"Great taste, I love it",
		"Terrible and stale, what a waste",
		"It arrived on Tuesday",
	})
	require.NoError(t, err)
	require.Len(t, preds, 3)

	require.Equal(t, models.Positive, preds[0].Label)
	require.Equal(t, 1.0, preds[0].Confidence)
	require.Equal(t, models.Negative, preds[1].Label)
	require.Equal(t, 0.5, preds[2].Confidence)
}
