// Package importer fetches transaction records from the external feed.
package importer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"

	"github.com/iho/ledgerly/internal/domain"
	"github.com/iho/ledgerly/internal/usecase"
)

const (
	defaultTimeout = 10 * time.Second
	maxBodyBytes   = 32 << 20
)

// ErrUpstream is returned when the feed answers with a non-2xx status.
var ErrUpstream = errors.New("import source returned an error status")

var _ usecase.ImportSource = (*HTTPSource)(nil)

// HTTPSource implements usecase.ImportSource over a JSON HTTP endpoint.
type HTTPSource struct {
	url        string
	client     *http.Client
	logger     zerolog.Logger
	maxRetries uint64
	backoff    func() backoff.BackOff
}

// Option configures an HTTPSource.
type Option func(*HTTPSource)

// WithHTTPClient replaces the default client.
func WithHTTPClient(c *http.Client) Option {
	return func(s *HTTPSource) { s.client = c }
}

// WithMaxRetries sets how many times a failed fetch is retried.
func WithMaxRetries(n uint64) Option {
	return func(s *HTTPSource) { s.maxRetries = n }
}

// NewHTTPSource creates a source for url. A zero timeout means 10s per attempt.
func NewHTTPSource(url string, timeout time.Duration, logger zerolog.Logger, opts ...Option) *HTTPSource {
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	s := &HTTPSource{
		url:        url,
		client:     &http.Client{Timeout: timeout},
		logger:     logger.With().Str("component", "importer").Logger(),
		maxRetries: 3,
		backoff: func() backoff.BackOff {
			b := backoff.NewExponentialBackOff()
			b.InitialInterval = 200 * time.Millisecond
			b.MaxInterval = 2 * time.Second
			return b
		},
	}
	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Fetch downloads the record array. Network failures and 5xx answers are retried
// with exponential backoff; 4xx answers and malformed bodies are not.
func (s *HTTPSource) Fetch(ctx context.Context) ([]domain.RawRecord, error) {
	var records []domain.RawRecord
	attempt := 0

	operation := func() error {
		attempt++

		var err error
		records, err = s.fetchOnce(ctx)
		if err == nil {
			return nil
		}

		var status *statusError
		if errors.As(err, &status) && status.code < http.StatusInternalServerError {
			return backoff.Permanent(err)
		}
		var syntax *json.SyntaxError
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &syntax) || errors.As(err, &typeErr) {
			return backoff.Permanent(err)
		}

		s.logger.Warn().Err(err).Int("attempt", attempt).Msg("import fetch failed, retrying")

		return err
	}

	b := backoff.WithContext(backoff.WithMaxRetries(s.backoff(), s.maxRetries), ctx)
	if err := backoff.Retry(operation, b); err != nil {
		return nil, fmt.Errorf("fetch %s: %w", s.url, err)
	}

	s.logger.Info().Int("records", len(records)).Int("attempts", attempt).Msg("import source fetched")

	return records, nil
}

type statusError struct {
	code int
}

func (e *statusError) Error() string {
	return fmt.Sprintf("%s: %d", ErrUpstream.Error(), e.code)
}

func (e *statusError) Unwrap() error {
	return ErrUpstream
}

func (s *HTTPSource) fetchOnce(ctx context.Context) ([]domain.RawRecord, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return nil, backoff.Permanent(err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return nil, &statusError{code: resp.StatusCode}
	}

	return DecodeRecords(io.LimitReader(resp.Body, maxBodyBytes))
}

// DecodeRecords reads a JSON array of record objects. Numbers are kept as
// json.Number so amounts are not rounded through float64.
func DecodeRecords(r io.Reader) ([]domain.RawRecord, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()

	var records []domain.RawRecord
	if err := dec.Decode(&records); err != nil {
		return nil, err
	}

	return records, nil
}
