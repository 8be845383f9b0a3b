// Package snapshot exports the stored correlation configs as JSONL and
// ships the result to backup destinations.
package snapshot

import (
	"bufio"
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/alfredjeanlab/corrlog/internal/idgen"
	"github.com/alfredjeanlab/corrlog/internal/model"
)

// FormatVersion is written into every snapshot header.
const FormatVersion = "1"

const (
	typeHeader = "header"
	typeConfig = "correlation_config"
)

// Source supplies the configs to export.
type Source interface {
	GetAll(ctx context.Context) ([]model.CorrelationConfig, error)
}

// SourceFunc adapts a function to Source.
type SourceFunc func(ctx context.Context) ([]model.CorrelationConfig, error)

func (f SourceFunc) GetAll(ctx context.Context) ([]model.CorrelationConfig, error) { return f(ctx) }

// Header is the first JSONL record of a snapshot.
type Header struct {
	Version     string    `json:"version"`
	Type        string    `json:"type"`
	ID          string    `json:"id"`
	Timestamp   time.Time `json:"timestamp"`
	ConfigCount int       `json:"config_count"`
	// Digest is the hex SHA-256 of the config records that follow the
	// header. Two snapshots of the same configs share a digest.
	Digest string `json:"digest"`
}

// record wraps a single JSONL line with a type discriminator.
type record struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// ExportJSONL writes a header and one record per config, in catalog
// order, to w.
func ExportJSONL(ctx context.Context, src Source, w io.Writer) (*Header, error) {
	configs, err := src.GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("list correlation configs: %w", err)
	}
	id, err := idgen.GenerateWithPrefix(idgen.SnapshotPrefix)
	if err != nil {
		return nil, err
	}

	var body bytes.Buffer
	enc := json.NewEncoder(&body)
	enc.SetEscapeHTML(false)
	for _, c := range configs {
		data, err := json.Marshal(c)
		if err != nil {
			return nil, fmt.Errorf("marshal config %s: %w", c.Component, err)
		}
		if err := enc.Encode(record{Type: typeConfig, Data: data}); err != nil {
			return nil, fmt.Errorf("encode config %s: %w", c.Component, err)
		}
	}
	sum := sha256.Sum256(body.Bytes())

	h := &Header{
		Version:     FormatVersion,
		Type:        typeHeader,
		ID:          id,
		Timestamp:   time.Now().UTC(),
		ConfigCount: len(configs),
		Digest:      hex.EncodeToString(sum[:]),
	}
	henc := json.NewEncoder(w)
	henc.SetEscapeHTML(false)
	if err := henc.Encode(h); err != nil {
		return nil, fmt.Errorf("encode header: %w", err)
	}
	if _, err := w.Write(body.Bytes()); err != nil {
		return nil, fmt.Errorf("write configs: %w", err)
	}

	return h, nil
}

// ReadJSONL parses a snapshot written by ExportJSONL. The record count
// must match the header, and so must the digest when the header has one.
func ReadJSONL(r io.Reader) (*Header, []model.CorrelationConfig, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)

	var (
		h       *Header
		configs []model.CorrelationConfig
		line    int
		digest  = sha256.New()
	)
	for sc.Scan() {
		line++
		raw := sc.Bytes()
		if len(raw) == 0 {
			continue
		}
		if h == nil {
			h = &Header{}
			if err := json.Unmarshal(raw, h); err != nil {
				return nil, nil, fmt.Errorf("line %d: decode header: %w", line, err)
			}
			if h.Type != typeHeader {
				return nil, nil, fmt.Errorf("line %d: expected header, got %q", line, h.Type)
			}
			if h.Version != FormatVersion {
				return nil, nil, fmt.Errorf("unsupported snapshot version %q", h.Version)
			}
			continue
		}

		digest.Write(raw)
		digest.Write([]byte{'\n'})

		var rec record
		if err := json.Unmarshal(raw, &rec); err != nil {
			return nil, nil, fmt.Errorf("line %d: decode record: %w", line, err)
		}
		if rec.Type != typeConfig {
			return nil, nil, fmt.Errorf("line %d: unknown record type %q", line, rec.Type)
		}
		var c model.CorrelationConfig
		if err := json.Unmarshal(rec.Data, &c); err != nil {
			return nil, nil, fmt.Errorf("line %d: decode config: %w", line, err)
		}
		if c.Properties == nil {
			c.Properties = []model.CorrelationConfigProperty{}
		}
		configs = append(configs, c)
	}
	if err := sc.Err(); err != nil {
		return nil, nil, fmt.Errorf("read snapshot: %w", err)
	}
	if h == nil {
		return nil, nil, fmt.Errorf("empty snapshot")
	}
	if len(configs) != h.ConfigCount {
		return nil, nil, fmt.Errorf("snapshot %s: header says %d configs, found %d", h.ID, h.ConfigCount, len(configs))
	}
	if h.Digest != "" && h.Digest != hex.EncodeToString(digest.Sum(nil)) {
		return nil, nil, fmt.Errorf("snapshot %s: digest mismatch", h.ID)
	}
	return h, configs, nil
}

// readHeaderFile returns the header of the snapshot at path, or nil when
// the file does not exist or does not start with a header.
func readHeaderFile(path string) *Header {
	f, err := os.Open(path)
	if err != nil {
		return nil
	}
	defer f.Close()

	line, err := bufio.NewReader(f).ReadBytes('\n')
	if err != nil && len(line) == 0 {
		return nil
	}
	var h Header
	if json.Unmarshal(line, &h) != nil || h.Type != typeHeader {
		return nil
	}
	return &h
}
