// Package ingestion bulk-imports journal entries for one user. Sources are
// local files or HTTP(S) URLs holding JSON Lines or a JSON array of
// {"title", "content"} records. Each record goes through the journal
// service, so it is validated and embedded exactly like an API create.
// This pipeline is invoked by the `journal import` CLI command.
package ingestion

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/Badar25/Journal-backend/internal/journal"
	"github.com/Badar25/Journal-backend/internal/logging"
	"github.com/Badar25/Journal-backend/internal/result"
	"github.com/Badar25/Journal-backend/internal/service"
)

// Creator is satisfied by *service.Service.
type Creator interface {
	Create(ctx context.Context, owner string, d journal.Draft) result.Result[service.Created]
}

// Source names one import file or URL.
type Source struct {
	// Location is a filesystem path or an http(s) URL.
	Location string
}

// Record is one entry in an import source.
type Record struct {
	// Title is the entry heading.
	Title string `json:"title"`

	// Content is the entry body. Bodies over the content limit are split
	// into consecutive entries unless splitting is disabled.
	Content string `json:"content"`
}

// Config holds the configuration for the import pipeline.
type Config struct {
	// NoSplit rejects over-long content instead of splitting it.
	NoSplit bool

	// MaxBytes bounds the size of one source. Defaults to 32 MiB if zero.
	MaxBytes int64

	// HTTPTimeout is the timeout for each URL fetch. Defaults to 30s if zero.
	HTTPTimeout time.Duration

	// UserAgent is the HTTP User-Agent header sent with fetch requests.
	UserAgent string
}

// Report summarises an import run.
type Report struct {
	// Imported is the number of entries created.
	Imported int

	// Skipped is the number of records rejected by validation.
	Skipped int

	// IDs lists the created entry IDs in import order.
	IDs []string
}

// Pipeline orchestrates the read, decode, split and create flow for a set
// of sources.
type Pipeline struct {
	// creator validates, embeds and stores each entry.
	creator Creator

	// cfg holds the resolved pipeline configuration.
	cfg *Config

	// httpClient is the HTTP client used for URL sources.
	httpClient *http.Client
}

// NewPipeline constructs a Pipeline from the provided dependencies and config.
func NewPipeline(creator Creator, cfg *Config) (*Pipeline, error) {
	if creator == nil {
		return nil, fmt.Errorf("ingestion: creator must not be nil")
	}
	if cfg == nil {
		cfg = &Config{}
	}
	if cfg.MaxBytes <= 0 {
		cfg.MaxBytes = 32 << 20
	}
	if cfg.HTTPTimeout <= 0 {
		cfg.HTTPTimeout = 30 * time.Second
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = "journal-import/1.0"
	}

	return &Pipeline{
		creator: creator,
		cfg:     cfg,
		httpClient: &http.Client{
			Timeout: cfg.HTTPTimeout,
		},
	}, nil
}

// Import reads every source in order and creates one entry per record (or
// per chunk of a split record) owned by owner. Records that fail
// validation are skipped and counted; a storage or embedding failure
// stops the run and is returned together with the partial report.
// Progress is reported via the optional progress callback.
func (p *Pipeline) Import(ctx context.Context, owner string, sources []Source, progress func(msg string)) (Report, error) {
	if progress == nil {
		progress = func(string) {}
	}
	var rep Report
	if strings.TrimSpace(owner) == "" {
		return rep, fmt.Errorf("ingestion: owner must not be empty")
	}

	log := logging.FromContext(ctx)
	for _, src := range sources {
		progress(fmt.Sprintf("reading %s", src.Location))

		records, err := p.read(ctx, src.Location)
		if err != nil {
			return rep, fmt.Errorf("ingestion: read %s: %w", src.Location, err)
		}
		progress(fmt.Sprintf("decoded %d records from %s", len(records), src.Location))

		for i, rec := range records {
			drafts := []journal.Draft{{Title: rec.Title, Content: rec.Content}}
			if !p.cfg.NoSplit {
				drafts = SplitDraft(drafts[0])
			}
			for _, d := range drafts {
				r := p.creator.Create(ctx, owner, d)
				if r.IsOk() {
					rep.Imported++
					rep.IDs = append(rep.IDs, r.Value().ID)
					continue
				}
				if r.Kind().IsValidation() {
					rep.Skipped++
					log.Warn("ingestion: record skipped",
						slog.String("source", src.Location),
						slog.Int("record", i+1),
						slog.String("kind", string(r.Kind())),
					)
					continue
				}
				return rep, fmt.Errorf("ingestion: create from %s record %d: %w", src.Location, i+1, r.Err())
			}
		}

		progress(fmt.Sprintf("imported %s (%d total, %d skipped)", src.Location, rep.Imported, rep.Skipped))
	}

	return rep, nil
}

// read loads and decodes one source.
func (p *Pipeline) read(ctx context.Context, location string) ([]Record, error) {
	var body io.ReadCloser
	if strings.HasPrefix(location, "http://") || strings.HasPrefix(location, "https://") {
		rc, err := p.fetch(ctx, location)
		if err != nil {
			return nil, err
		}
		body = rc
	} else {
		f, err := os.Open(location)
		if err != nil {
			return nil, fmt.Errorf("open: %w", err)
		}
		body = f
	}
	defer body.Close()

	return Decode(io.LimitReader(body, p.cfg.MaxBytes))
}

// fetch opens the body of a URL.
func (p *Pipeline) fetch(ctx context.Context, url string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", p.cfg.UserAgent)
	req.Header.Set("Accept", "application/json, application/x-ndjson")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http get: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("unexpected status %d for %s", resp.StatusCode, url)
	}
	return resp.Body, nil
}

// Decode reads either a JSON array of records or a stream of records
// (JSON Lines or concatenated objects).
func Decode(r io.Reader) ([]Record, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, nil
	}

	if data[0] == '[' {
		var out []Record
		if err := json.Unmarshal(data, &out); err != nil {
			return nil, fmt.Errorf("decode array: %w", err)
		}
		return out, nil
	}

	var out []Record
	dec := json.NewDecoder(bytes.NewReader(data))
	for {
		var rec Record
		err := dec.Decode(&rec)
		if errors.Is(err, io.EOF) {
			return out, nil
		}
		if err != nil {
			return nil, fmt.Errorf("decode record %d: %w", len(out)+1, err)
		}
		out = append(out, rec)
	}
}
