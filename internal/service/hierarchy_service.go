package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/noah-isme/fieldops-api/internal/models"
	"github.com/noah-isme/fieldops-api/pkg/archive"
	appErrors "github.com/noah-isme/fieldops-api/pkg/errors"
)

const (
	hierarchyCachePrefix = "export:hierarchy:"
	dateLayout           = "2006-01-02"
	fallbackRootName     = "export"
)

var datePattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

type profileReader interface {
	FindByID(ctx context.Context, id string) (*models.Profile, error)
	FindWorker(ctx context.Context, id string) (*models.WorkerRef, error)
	ListUnitsOwnedBy(ctx context.Context, ownerID string) ([]models.UnitRef, error)
	ListWorkersOwnedBy(ctx context.Context, ownerID string) ([]models.WorkerRef, error)
}

type itemReader interface {
	ListByWorker(ctx context.Context, workerID string) ([]models.ItemSummary, error)
	ListByWorkersInRange(ctx context.Context, workerIDs []string, from, to time.Time) ([]models.ItemSummary, error)
	GetWithPhotos(ctx context.Context, itemID string) (*models.ItemDetail, error)
	ListPhotos(ctx context.Context, itemID string) ([]models.PhotoRef, error)
}

type hierarchyCache interface {
	Get(ctx context.Context, key string, dest interface{}) (bool, error)
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Invalidate(ctx context.Context, keys ...string) error
}

// HierarchyConfig tunes hierarchy resolution.
type HierarchyConfig struct {
	// MaxConcurrentLookups bounds parallel data store lookups. Zero means unbounded.
	MaxConcurrentLookups int
	CacheTTL             time.Duration
}

// HierarchyService expands an export scope into the ownership tree that the archive mirrors.
type HierarchyService struct {
	profiles profileReader
	items    itemReader
	cache    hierarchyCache
	cfg      HierarchyConfig
	logger   *zap.Logger
}

// NewHierarchyService constructs a HierarchyService. cache may be nil.
func NewHierarchyService(profiles profileReader, items itemReader, cache hierarchyCache, cfg HierarchyConfig, logger *zap.Logger) *HierarchyService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &HierarchyService{profiles: profiles, items: items, cache: cache, cfg: cfg, logger: logger}
}

// ResolveIdentity loads the profile behind an authenticated user id.
func (s *HierarchyService) ResolveIdentity(ctx context.Context, userID string) (models.Identity, error) {
	profile, err := s.profiles.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Identity{}, appErrors.Clone(appErrors.ErrProfileNotFound, "user profile not found")
		}
		return models.Identity{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load profile")
	}
	return models.IdentityFromProfile(*profile), nil
}

// DayRange validates date and returns the closed UTC interval covering it.
func DayRange(date string) (time.Time, time.Time, error) {
	if !datePattern.MatchString(date) {
		return time.Time{}, time.Time{}, appErrors.ErrInvalidDateFormat
	}
	from, err := time.ParseInLocation(dateLayout, date, time.UTC)
	if err != nil {
		return time.Time{}, time.Time{}, appErrors.Wrap(err, appErrors.ErrInvalidDateFormat.Code, appErrors.ErrInvalidDateFormat.Status, appErrors.ErrInvalidDateFormat.Message)
	}
	return from, from.Add(24*time.Hour - time.Millisecond), nil
}

// Ownership expands identity into its units and their workers according to its role.
// Roles other than ORG_ADMIN and UNIT_LEAD are rejected before any cache or data store access.
func (s *HierarchyService) Ownership(ctx context.Context, identity models.Identity) (models.Ownership, error) {
	if !CanExportDay(identity.Role) {
		return models.Ownership{}, appErrors.ErrNoUnits
	}
	ownership, err := s.loadOwnership(ctx, identity)
	if err != nil {
		return models.Ownership{}, err
	}
	var empty error
	switch {
	case len(ownership.Units) == 0:
		empty = appErrors.ErrNoUnits
	case ownership.WorkerCount() == 0:
		empty = appErrors.ErrNoWorkers
	default:
		return ownership, nil
	}
	// An empty hierarchy must not stay pinned for the TTL once workers get assigned.
	if s.cache != nil {
		if err := s.cache.Invalidate(ctx, hierarchyCachePrefix+identity.ID); err != nil {
			s.logger.Warn("hierarchy cache invalidate failed", zap.String("identity_id", identity.ID), zap.Error(err))
		}
	}
	return models.Ownership{}, empty
}

// CanExportDay reports whether role owns a hierarchy that a day export can walk.
func CanExportDay(role models.UserRole) bool {
	return role == models.RoleOrgAdmin || role == models.RoleUnitLead
}

func (s *HierarchyService) loadOwnership(ctx context.Context, identity models.Identity) (models.Ownership, error) {
	key := hierarchyCachePrefix + identity.ID
	var ownership models.Ownership
	if s.cache != nil {
		if hit, err := s.cache.Get(ctx, key, &ownership); err == nil && hit {
			return ownership, nil
		}
	}

	switch identity.Role {
	case models.RoleUnitLead:
		workers, err := s.profiles.ListWorkersOwnedBy(ctx, identity.ID)
		if err != nil {
			return models.Ownership{}, wrapStoreError(err, "failed to list workers")
		}
		ownership.Units = []models.UnitWorkers{{
			UnitID:      models.SelfUnitID,
			DisplayName: identity.DisplayName,
			Workers:     workers,
		}}
	case models.RoleOrgAdmin:
		units, err := s.profiles.ListUnitsOwnedBy(ctx, identity.ID)
		if err != nil {
			return models.Ownership{}, wrapStoreError(err, "failed to list units")
		}
		ownership.Units = make([]models.UnitWorkers, len(units))
		g, gctx := errgroup.WithContext(ctx)
		s.limit(g)
		for i, unit := range units {
			g.Go(func() error {
				workers, err := s.profiles.ListWorkersOwnedBy(gctx, unit.ID)
				if err != nil {
					return err
				}
				ownership.Units[i] = models.UnitWorkers{UnitID: unit.ID, DisplayName: unit.DisplayName(), Workers: workers}
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return models.Ownership{}, wrapStoreError(err, "failed to list workers")
		}
	}

	if s.cache != nil {
		_ = s.cache.Set(ctx, key, ownership, s.cfg.CacheTTL)
	}
	return ownership, nil
}

// ResolveDay builds the tree for every item recorded on date across the identity's workers.
func (s *HierarchyService) ResolveDay(ctx context.Context, identity models.Identity, date string) (*models.ExportTree, error) {
	from, to, err := DayRange(date)
	if err != nil {
		return nil, err
	}

	ownership, err := s.Ownership(ctx, identity)
	if err != nil {
		return nil, err
	}

	items, err := s.items.ListByWorkersInRange(ctx, ownership.WorkerIDs(), from, to)
	if err != nil {
		return nil, wrapStoreError(err, "failed to list items")
	}
	if len(items) == 0 {
		return nil, appErrors.Clone(appErrors.ErrNoItemsInRange, fmt.Sprintf("no items were recorded on %s", date))
	}

	photos, err := s.loadPhotos(ctx, items)
	if err != nil {
		return nil, err
	}

	byWorker := make(map[string][]models.ItemNode, len(items))
	for i, item := range items {
		if len(photos[i]) == 0 || item.WorkerID == nil {
			continue
		}
		byWorker[*item.WorkerID] = append(byWorker[*item.WorkerID], models.ItemNode{ID: item.ID, Folder: item.Name, Photos: photos[i]})
	}

	tree := &models.ExportTree{
		Name: dayArchiveName(identity.DisplayName, date),
		Root: []string{archive.OrFallback(identity.DisplayName, fallbackRootName), date},
	}

	unitNames := make([]string, len(ownership.Units))
	unitIDs := make([]string, len(ownership.Units))
	for i, unit := range ownership.Units {
		unitNames[i] = archive.OrFallback(unit.DisplayName, "unit_"+archive.ShortID(unit.UnitID))
		unitIDs[i] = unit.UnitID
	}
	unitFolders := UniqueNames(unitNames, unitIDs)

	for i, unit := range ownership.Units {
		node := models.UnitNode{ID: unit.UnitID}
		if identity.Role == models.RoleOrgAdmin {
			node.Folder = unitFolders[i]
		}

		workerNames := make([]string, len(unit.Workers))
		workerIDs := make([]string, len(unit.Workers))
		for j, worker := range unit.Workers {
			workerNames[j] = archive.OrFallback(worker.DisplayName(), "worker_"+archive.ShortID(worker.ID))
			workerIDs[j] = worker.ID
		}
		workerFolders := UniqueNames(workerNames, workerIDs)

		for j, worker := range unit.Workers {
			items := byWorker[worker.ID]
			if len(items) == 0 {
				continue
			}
			node.Workers = append(node.Workers, models.WorkerNode{ID: worker.ID, Folder: workerFolders[j], Items: itemFolders(items)})
		}
		if len(node.Workers) > 0 {
			tree.Units = append(tree.Units, node)
		}
	}

	s.logger.Debug("day hierarchy resolved",
		zap.String("identity_id", identity.ID),
		zap.String("date", date),
		zap.Int("items", tree.ItemCount()),
	)
	return tree, nil
}

// ResolveWorker builds the tree for every item of one worker, regardless of creation time.
func (s *HierarchyService) ResolveWorker(ctx context.Context, workerID string) (*models.ExportTree, error) {
	var displayName string
	worker, err := s.profiles.FindWorker(ctx, workerID)
	switch {
	case err == nil:
		displayName = worker.DisplayName()
	case errors.Is(err, sql.ErrNoRows):
	default:
		return nil, wrapStoreError(err, "failed to load worker")
	}

	items, err := s.items.ListByWorker(ctx, workerID)
	if err != nil {
		return nil, wrapStoreError(err, "failed to list items")
	}
	if len(items) == 0 {
		return nil, appErrors.ErrWorkerHasNoItems
	}

	photos, err := s.loadPhotos(ctx, items)
	if err != nil {
		return nil, err
	}

	nodes := make([]models.ItemNode, 0, len(items))
	for i, item := range items {
		if len(photos[i]) == 0 {
			continue
		}
		nodes = append(nodes, models.ItemNode{ID: item.ID, Folder: item.Name, Photos: photos[i]})
	}

	tree := &models.ExportTree{Name: archive.OrFallback(displayName, "Worker")}
	if len(nodes) > 0 {
		tree.Units = []models.UnitNode{{
			ID:      models.SelfUnitID,
			Workers: []models.WorkerNode{{ID: workerID, Items: itemFolders(nodes)}},
		}}
	}
	return tree, nil
}

// ResolveItem builds the tree for a single item.
func (s *HierarchyService) ResolveItem(ctx context.Context, itemID string) (*models.ExportTree, error) {
	detail, err := s.items.GetWithPhotos(ctx, itemID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrItemNotFound
		}
		return nil, wrapStoreError(err, "failed to load item")
	}
	if len(detail.Photos) == 0 {
		return nil, appErrors.ErrItemHasNoPhotos
	}

	folder := itemFolderName(detail.Name, detail.ID)
	return &models.ExportTree{
		Name: folder,
		Units: []models.UnitNode{{
			ID: models.SelfUnitID,
			Workers: []models.WorkerNode{{
				Items: []models.ItemNode{{ID: detail.ID, Folder: folder, Photos: detail.Photos}},
			}},
		}},
	}, nil
}

// loadPhotos fetches the photo lists of items concurrently. The result is indexed like items.
func (s *HierarchyService) loadPhotos(ctx context.Context, items []models.ItemSummary) ([][]models.PhotoRef, error) {
	photos := make([][]models.PhotoRef, len(items))
	g, gctx := errgroup.WithContext(ctx)
	s.limit(g)
	for i, item := range items {
		g.Go(func() error {
			list, err := s.items.ListPhotos(gctx, item.ID)
			if err != nil {
				return err
			}
			photos[i] = list
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, wrapStoreError(err, "failed to list photos")
	}
	return photos, nil
}

func (s *HierarchyService) limit(g *errgroup.Group) {
	if s.cfg.MaxConcurrentLookups > 0 {
		g.SetLimit(s.cfg.MaxConcurrentLookups)
	}
}

// itemFolders assigns sanitized, sibling-unique folder names. Folder holds the raw item name on input.
func itemFolders(items []models.ItemNode) []models.ItemNode {
	names := make([]string, len(items))
	ids := make([]string, len(items))
	for i, item := range items {
		names[i] = itemFolderName(item.Folder, item.ID)
		ids[i] = item.ID
	}
	unique := UniqueNames(names, ids)
	out := make([]models.ItemNode, len(items))
	for i, item := range items {
		item.Folder = unique[i]
		out[i] = item
	}
	return out
}

func itemFolderName(name, id string) string {
	return archive.OrFallback(name, "item_"+archive.ShortID(id))
}

func dayArchiveName(displayName, date string) string {
	if name := archive.Sanitize(displayName); name != "" {
		return name + " - " + date
	}
	return date
}

// UniqueNames returns names with later duplicates suffixed by " (<id8>)". Comparison ignores case so
// the archive also extracts cleanly on case-insensitive file systems.
func UniqueNames(names, ids []string) []string {
	out := make([]string, len(names))
	taken := make(map[string]struct{}, len(names))
	for i, name := range names {
		candidate := name
		if _, exists := taken[strings.ToLower(candidate)]; exists {
			candidate = fmt.Sprintf("%s (%s)", name, archive.ShortID(ids[i]))
			for n := 2; ; n++ {
				if _, exists := taken[strings.ToLower(candidate)]; !exists {
					break
				}
				candidate = fmt.Sprintf("%s (%s-%d)", name, archive.ShortID(ids[i]), n)
			}
		}
		taken[strings.ToLower(candidate)] = struct{}{}
		out[i] = candidate
	}
	return out
}

func wrapStoreError(err error, message string) error {
	var appErr *appErrors.Error
	if errors.As(err, &appErr) {
		return appErr
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, message)
}
