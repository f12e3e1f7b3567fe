// Package snapshot exports the gallery of every completed fetch cycle to S3
// and reads exported snapshots back.
//
// Keys are laid out per contract and cycle kind:
//
//	<prefix>/<contract>/collection/gen-<generation>-<unix>.json.gz
//	<prefix>/<contract>/collection/latest.json
//	<prefix>/<contract>/wallet/<account>/gen-<generation>-<unix>.json.gz
//	<prefix>/<contract>/wallet/<account>/latest.json
package snapshot

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"path"
	"strings"

	"github.com/ethereum/go-ethereum/common"

	"github.com/PixelPunkNFT/THE-FOOLS/internal/domain/entity"
	"github.com/PixelPunkNFT/THE-FOOLS/internal/ports/outbound"
	"github.com/PixelPunkNFT/THE-FOOLS/internal/services/gallery"
)

const latestName = "latest.json"

// Config holds configuration for the exporter.
type Config struct {
	Bucket   string
	Prefix   string
	Network  entity.Network
	Contract common.Address
	Logger   *slog.Logger
}

// ConfigDefaults returns the default configuration.
func ConfigDefaults() Config {
	return Config{
		Prefix: "snapshots",
		Logger: slog.Default(),
	}
}

// Exporter writes gallery snapshots to S3.
type Exporter struct {
	writer outbound.S3Writer
	reader outbound.S3Reader
	config Config
	logger *slog.Logger
}

var _ gallery.CycleObserver = (*Exporter)(nil)

// NewExporter creates a new Exporter. reader may be nil when snapshots are
// only written.
func NewExporter(writer outbound.S3Writer, reader outbound.S3Reader, config Config) (*Exporter, error) {
	if writer == nil {
		return nil, errors.New("s3 writer is required")
	}
	if config.Bucket == "" {
		return nil, errors.New("bucket is required")
	}
	defaults := ConfigDefaults()
	if config.Prefix == "" {
		config.Prefix = defaults.Prefix
	}
	config.Prefix = strings.Trim(config.Prefix, "/")
	if config.Logger == nil {
		config.Logger = defaults.Logger
	}

	return &Exporter{
		writer: writer,
		reader: reader,
		config: config,
		logger: config.Logger.With("component", "snapshot-exporter"),
	}, nil
}

// Dir returns the key prefix of one cycle kind. account is ignored for
// collection cycles.
func (e *Exporter) Dir(cycle entity.CycleKind, account string) string {
	dir := path.Join(e.config.Prefix, e.config.Contract.Hex(), string(cycle))
	if cycle == entity.CycleWallet && account != "" {
		dir = path.Join(dir, account)
	}
	return dir
}

// CycleFinished writes an immutable snapshot of the cycle and replaces the
// latest pointer of its kind.
func (e *Exporter) CycleFinished(ctx context.Context, snap entity.GallerySnapshot) error {
	view := entity.NewGalleryView(snap, e.config.Network, e.config.Contract, true)
	body, err := json.Marshal(view)
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot: %w", err)
	}

	dir := e.Dir(snap.Kind, snap.Account)
	key := path.Join(dir, fmt.Sprintf("gen-%d-%d.json.gz", snap.Generation, view.RenderedAt.Unix()))

	wrote, err := e.writer.WriteFileIfNotExists(ctx, e.config.Bucket, key, bytes.NewReader(body), true)
	if err != nil {
		return fmt.Errorf("failed to write snapshot %s: %w", key, err)
	}
	if !wrote {
		e.logger.Debug("snapshot already exported", "key", key)
	}

	latest := path.Join(dir, latestName)
	if err := e.writer.WriteFile(ctx, e.config.Bucket, latest, bytes.NewReader(body), false); err != nil {
		return fmt.Errorf("failed to write %s: %w", latest, err)
	}

	e.logger.Info("snapshot exported",
		"bucket", e.config.Bucket,
		"key", key,
		"nfts", view.Total)
	return nil
}

// List returns the exported snapshots of the contract, newest first.
func (e *Exporter) List(ctx context.Context) ([]outbound.S3File, error) {
	if e.reader == nil {
		return nil, errors.New("exporter has no s3 reader")
	}
	return e.reader.ListFiles(ctx, e.config.Bucket, path.Join(e.config.Prefix, e.config.Contract.Hex())+"/")
}

// Load reads one exported snapshot.
func (e *Exporter) Load(ctx context.Context, key string) (*entity.GalleryView, error) {
	if e.reader == nil {
		return nil, errors.New("exporter has no s3 reader")
	}
	rc, err := e.reader.StreamFile(ctx, e.config.Bucket, key)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	var view entity.GalleryView
	if err := json.NewDecoder(rc).Decode(&view); err != nil {
		return nil, fmt.Errorf("failed to decode snapshot %s: %w", key, err)
	}
	return &view, nil
}

// Latest reads the most recent snapshot of one cycle kind.
func (e *Exporter) Latest(ctx context.Context, cycle entity.CycleKind, account string) (*entity.GalleryView, error) {
	return e.Load(ctx, path.Join(e.Dir(cycle, account), latestName))
}
