package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strconv"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/noah-isme/fieldops-api/internal/models"
	"github.com/noah-isme/fieldops-api/pkg/archive"
	appErrors "github.com/noah-isme/fieldops-api/pkg/errors"
	"github.com/noah-isme/fieldops-api/pkg/export"
)

// ManifestName is the archive-root file listing every attached and failed photo.
const ManifestName = "_manifest.csv"

type hierarchyResolver interface {
	ResolveIdentity(ctx context.Context, userID string) (models.Identity, error)
	ResolveDay(ctx context.Context, identity models.Identity, date string) (*models.ExportTree, error)
	ResolveWorker(ctx context.Context, workerID string) (*models.ExportTree, error)
	ResolveItem(ctx context.Context, itemID string) (*models.ExportTree, error)
}

type photoFetcher interface {
	Fetch(ctx context.Context, address string) ([]byte, error)
}

type csvRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

// ExportConfig tunes export behaviour. A zero MaxConcurrentFetches leaves photo retrievals unbounded;
// StreamDay writes day archives straight to the response instead of buffering them.
type ExportConfig struct {
	MaxConcurrentFetches int
	StreamDay            bool
	IncludeManifest      bool
	CompressionLevel     int
}

// ExportService turns a scope into a finished archive: it resolves the hierarchy, fetches every
// photo concurrently and attaches the results, recording failures without aborting.
type ExportService struct {
	hierarchy hierarchyResolver
	fetcher   photoFetcher
	csv       csvRenderer
	metrics   *MetricsService
	cfg       ExportConfig
	logger    *zap.Logger
	now       func() time.Time
}

// NewExportService constructs an ExportService.
func NewExportService(hierarchy hierarchyResolver, fetcher photoFetcher, metrics *MetricsService, cfg ExportConfig, logger *zap.Logger, csv csvRenderer) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if csv == nil {
		csv = export.NewCSVExporter()
	}
	return &ExportService{
		hierarchy: hierarchy,
		fetcher:   fetcher,
		csv:       csv,
		metrics:   metrics,
		cfg:       cfg,
		logger:    logger,
		now:       time.Now,
	}
}

// PreparedExport is an archive whose photos have all settled, ready to be emitted.
type PreparedExport struct {
	Scope    models.ScopeKind
	Filename string
	Added    int
	Failures []models.PhotoFailure
	// Stream reports whether the archive should be written without Content-Length.
	Stream bool

	tree    *archive.Tree
	emitter archive.Emitter
}

// NewPreparedExport wraps a built tree. name is the archive base name without extension.
func NewPreparedExport(kind models.ScopeKind, name string, tree *archive.Tree, emitter archive.Emitter) *PreparedExport {
	return &PreparedExport{
		Scope:    kind,
		Filename: name + ".zip",
		Added:    tree.FileCount(),
		tree:     tree,
		emitter:  emitter,
	}
}

// WriteTo encodes the archive into w.
func (p *PreparedExport) WriteTo(w io.Writer) (int64, error) {
	n, err := p.emitter.WriteTo(w, p.tree)
	if err != nil {
		return n, appErrors.Wrap(err, appErrors.ErrArchiveEncoding.Code, appErrors.ErrArchiveEncoding.Status, appErrors.ErrArchiveEncoding.Message)
	}
	return n, nil
}

// Bytes encodes the archive into memory.
func (p *PreparedExport) Bytes() ([]byte, error) {
	data, err := p.emitter.Bytes(p.tree)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrArchiveEncoding.Code, appErrors.ErrArchiveEncoding.Status, appErrors.ErrArchiveEncoding.Message)
	}
	return data, nil
}

// Paths lists the archive entries in emission order.
func (p *PreparedExport) Paths() []string {
	return p.tree.Paths()
}

// Export resolves scope for the authenticated user and fetches every photo. It only returns once all
// retrievals settled, so a prepared export is never partially built.
func (s *ExportService) Export(ctx context.Context, userID string, scope models.ExportScope) (*PreparedExport, error) {
	prepared, err := s.export(ctx, userID, scope)
	outcome := "ok"
	if err != nil {
		outcome = outcomeLabel(err)
		s.logger.Info("export rejected",
			zap.String("scope", string(scope.Kind)),
			zap.String("user_id", userID),
			zap.String("outcome", outcome),
			zap.Error(err),
		)
	}
	s.metrics.RecordExport(string(scope.Kind), outcome)
	return prepared, err
}

func (s *ExportService) export(ctx context.Context, userID string, scope models.ExportScope) (*PreparedExport, error) {
	tree, err := s.resolve(ctx, userID, scope)
	if err != nil {
		return nil, err
	}

	if !tree.HasAddressedPhoto() {
		if scope.Kind == models.ScopeSingleItem {
			return nil, appErrors.ErrItemHasNoPhotos
		}
		return nil, appErrors.ErrNoDownloadablePhotos
	}

	built := archive.NewTree()
	failures := NewFailureCollector()
	if err := s.fetchAll(ctx, tree, built, failures); err != nil {
		return nil, err
	}

	if built.FileCount() == 0 {
		return nil, appErrors.Clone(appErrors.ErrNoPhotosDownloaded,
			fmt.Sprintf("%s: %s", appErrors.ErrNoPhotosDownloaded.Message, failures.Summary()))
	}

	added := built.FileCount()
	if s.cfg.IncludeManifest {
		s.attachManifest(tree, built, failures)
	}

	prepared := NewPreparedExport(scope.Kind, tree.Name, built, archive.Emitter{Level: s.cfg.CompressionLevel, Modified: s.now()})
	prepared.Added = added
	prepared.Failures = failures.Snapshot()
	prepared.Stream = scope.Kind == models.ScopeAllForDate && s.cfg.StreamDay
	s.metrics.ObserveArchive(built.FileCount())
	s.logger.Info("export built",
		zap.String("scope", string(scope.Kind)),
		zap.String("user_id", userID),
		zap.String("filename", prepared.Filename),
		zap.Int("added", prepared.Added),
		zap.Int("failed", len(prepared.Failures)),
		zap.Int64("bytes", built.Size()),
	)
	return prepared, nil
}

func (s *ExportService) resolve(ctx context.Context, userID string, scope models.ExportScope) (*models.ExportTree, error) {
	switch scope.Kind {
	case models.ScopeAllForDate:
		if _, _, err := DayRange(scope.Date); err != nil {
			return nil, err
		}
		identity, err := s.hierarchy.ResolveIdentity(ctx, userID)
		if err != nil {
			return nil, err
		}
		return s.hierarchy.ResolveDay(ctx, identity, scope.Date)
	case models.ScopeSingleWorker:
		return s.hierarchy.ResolveWorker(ctx, scope.WorkerID)
	case models.ScopeSingleItem:
		return s.hierarchy.ResolveItem(ctx, scope.ItemID)
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown export scope %q", scope.Kind))
	}
}

// fetchAll retrieves every addressed photo in tree concurrently and attaches the successes to built.
func (s *ExportService) fetchAll(ctx context.Context, tree *models.ExportTree, built *archive.Tree, failures *FailureCollector) error {
	g, gctx := errgroup.WithContext(ctx)
	if s.cfg.MaxConcurrentFetches > 0 {
		g.SetLimit(s.cfg.MaxConcurrentFetches)
	}

	for _, unit := range tree.Units {
		for _, worker := range unit.Workers {
			for _, item := range worker.Items {
				dir := folderPath(tree.Root, unit.Folder, worker.Folder, item.Folder)
				contextPath := path.Join(nonEmpty(unit.Folder, worker.Folder, item.Folder)...)
				for index, photo := range item.Photos {
					address := photo.RemoteAddress()
					if address == "" {
						continue
					}
					g.Go(func() error {
						s.fetchPhoto(gctx, built, failures, dir, contextPath, index, photo, address)
						return nil
					})
				}
			}
		}
	}

	_ = g.Wait()
	if err := ctx.Err(); err != nil {
		return err
	}
	return nil
}

func (s *ExportService) fetchPhoto(ctx context.Context, built *archive.Tree, failures *FailureCollector, dir []string, contextPath string, index int, photo models.PhotoRef, address string) {
	start := time.Now()
	data, err := s.fetcher.Fetch(ctx, address)
	s.metrics.ObservePhotoFetch(err == nil, time.Since(start))
	if err == nil {
		err = built.AddFile(dir, archive.PhotoFilename(index, photo.DisplayName(), address), data)
	}
	if err != nil {
		failure := models.PhotoFailure{ContextPath: contextPath, PhotoIndex: index + 1, Reason: err.Error()}
		failures.Add(failure)
		s.logger.Warn("photo fetch failed",
			zap.String("context_path", failure.ContextPath),
			zap.Int("photo_index", failure.PhotoIndex),
			zap.String("photo_id", photo.ID),
			zap.String("reason", failure.Reason),
		)
	}
}

func (s *ExportService) attachManifest(tree *models.ExportTree, built *archive.Tree, failures *FailureCollector) {
	dataset := export.Dataset{Headers: []string{"path", "status", "photo_index", "reason"}}
	for _, name := range built.Paths() {
		dataset.Append(map[string]string{"path": name, "status": "ok"})
	}
	for _, failure := range failures.Snapshot() {
		dataset.Append(map[string]string{
			"path":        failure.ContextPath,
			"status":      "failed",
			"photo_index": strconv.Itoa(failure.PhotoIndex),
			"reason":      failure.Reason,
		})
	}

	payload, err := s.csv.Render(dataset)
	if err == nil {
		err = built.AddFile(tree.Root, ManifestName, payload)
	}
	if err != nil {
		s.logger.Warn("manifest skipped", zap.Error(err))
	}
}

func folderPath(root []string, segments ...string) []string {
	dir := make([]string, 0, len(root)+len(segments))
	dir = append(dir, root...)
	return append(dir, nonEmpty(segments...)...)
}

func nonEmpty(segments ...string) []string {
	out := make([]string, 0, len(segments))
	for _, segment := range segments {
		if segment != "" {
			out = append(out, segment)
		}
	}
	return out
}

func outcomeLabel(err error) string {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return "cancelled"
	}
	appErr := appErrors.FromError(err)
	switch {
	case appErr.Status >= 500:
		return "error"
	case appErr.Status == 404:
		return "not_found"
	default:
		return "rejected"
	}
}
