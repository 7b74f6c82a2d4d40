package core

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"
)

const (
	defaultMatchCount    = 5
	searchRequestTimeout = 10 * time.Second
)

// Snippet is one unit of retrieved knowledge base content.
type Snippet struct {
	Content  string         `json:"content"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// ContextProvider supplies knowledge base snippets for a user query.
// Implementations never fail and never return an empty slice.
type ContextProvider interface {
	FetchContext(ctx context.Context, query string) []Snippet
}

// Availability of the backing search source. Unavailable is sticky:
// once the source has failed, the process stops retrying it.
type Availability int

const (
	AvailabilityUnknown Availability = iota
	Available
	Unavailable
)

// fallbackContext is served whenever the search backend is missing,
// unreachable or empty-handed.
var fallbackContext = []Snippet{{
	Content: `Functional Genomic Medicine is a revolutionary clinic specializing in precision medicine for autism spectrum disorders, PANDAS/PANS, autoimmune conditions, cognitive decline, and mental wellness.

The clinic's flagship service is the Posey Protocol, a unique 8-step personalized genomic protocol developed by Dr. Gwendolyn Posey. It analyzes over 800 genes to identify root biological causes and create targeted interventions.

Key Services:
- ASD & PANDAS/PANS Treatment: Comprehensive genomic analysis for autism and autoimmune neuropsychiatric disorders
- Brain Optimization: Cognitive enhancement through precision medicine
- Executive Combination: Complete health assessment with genomic insights
- Mental Wellness: Integrative psychiatric care using genetic profiling
- Mighty Mind & Body: Holistic approach to mental and physical health

For scheduling consultations, visit: https://functionalgenomicmedicine.com/contact-us/`,
	Metadata: map[string]any{"source": "fallback"},
}}

// ContextService retrieves knowledge base snippets via a PostgREST-style
// full-text search over the documents table.
type ContextService struct {
	baseURL    string
	apiKey     string
	matchCount int
	httpClient *http.Client

	// Availability is exported so tests can inspect the sticky state.
	// Direct reads and writes are only safe between sequential calls;
	// concurrent resets must go through ResetAvailability, which takes
	// the lock.
	mu           sync.Mutex
	Availability Availability
}

// ResetAvailability overwrites the cached availability state under the
// lock, so tests can clear stickiness while the service is in use.
func (s *ContextService) ResetAvailability(a Availability) {
	s.setAvailability(a)
}

func NewContextService(baseURL, apiKey string) *ContextService {
	s := &ContextService{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		apiKey:     apiKey,
		matchCount: defaultMatchCount,
		httpClient: &http.Client{Timeout: searchRequestTimeout},
	}
	if s.baseURL == "" || s.apiKey == "" {
		log.Println("WARNING: search backend not configured, context retrieval will use the fallback snippet")
		s.Availability = Unavailable
	}
	return s
}

// FetchContext runs the text search for query. It absorbs every failure
// mode into the fallback snippet and therefore never returns an error
// or an empty slice.
func (s *ContextService) FetchContext(ctx context.Context, query string) []Snippet {
	s.mu.Lock()
	available := s.Availability
	s.mu.Unlock()

	if available == Unavailable {
		return fallbackContext
	}

	snippets, err := s.search(ctx, query)
	if err != nil {
		log.Printf("Context search failed (using fallback, caching unavailability): %v", err)
		s.setAvailability(Unavailable)
		return fallbackContext
	}

	if available == AvailabilityUnknown {
		s.setAvailability(Available)
	}
	if len(snippets) == 0 {
		return fallbackContext
	}
	return snippets
}

func (s *ContextService) setAvailability(a Availability) {
	s.mu.Lock()
	s.Availability = a
	s.mu.Unlock()
}

func (s *ContextService) search(ctx context.Context, query string) ([]Snippet, error) {
	searchURL := fmt.Sprintf("%s/rest/v1/documents?select=content,metadata&content=fts.%s&limit=%d",
		s.baseURL, url.QueryEscape(query), s.matchCount)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, searchURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create search request: %w", err)
	}
	req.Header.Set("apikey", s.apiKey)
	req.Header.Set("Authorization", "Bearer "+s.apiKey)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to reach search backend: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("search backend returned %d: %s", resp.StatusCode, string(body))
	}

	var snippets []Snippet
	if err := json.NewDecoder(resp.Body).Decode(&snippets); err != nil {
		return nil, fmt.Errorf("failed to decode search response: %w", err)
	}

	// Drop rows with empty content so the concatenated context stays
	// meaningful.
	filtered := snippets[:0]
	for _, sn := range snippets {
		if strings.TrimSpace(sn.Content) != "" {
			filtered = append(filtered, sn)
		}
	}
	return filtered, nil
}
