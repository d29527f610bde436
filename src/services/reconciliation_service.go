package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/username/riconcilia/src/logger"
	"github.com/username/riconcilia/src/model"
	"github.com/username/riconcilia/src/models"
	"github.com/username/riconcilia/src/parsers"
	"github.com/username/riconcilia/src/processors"
)

type reconciliationServiceImpl struct {
	db                   *sql.DB
	registry             *InstallationRegistry
	theoreticalProcessor processors.TheoreticalProcessor
	profiles             []processors.CategoryProfile
	headerScanRows       int

	// Runs purge and rewrite shared tables, so only one may be active.
	mu sync.Mutex
}

func NewReconciliationService(
	db *sql.DB,
	registry *InstallationRegistry,
	theoreticalProcessor processors.TheoreticalProcessor,
	headerScanRows int,
) ReconciliationService {
	return &reconciliationServiceImpl{
		db:                   db,
		registry:             registry,
		theoreticalProcessor: theoreticalProcessor,
		profiles:             processors.Profiles(),
		headerScanRows:       headerScanRows,
	}
}

func (s *reconciliationServiceImpl) Run(ctx context.Context, cfg RunConfig) (*RunResult, error) {
	if !s.mu.TryLock() {
		return nil, ErrRunInProgress
	}
	defer s.mu.Unlock()

	runID := cfg.RunID
	if runID == "" {
		runID = uuid.NewString()
	}
	log := logger.FromContext(ctx).With(slog.String("runID", runID))
	ctx = logger.ToContext(ctx, log)
	start := time.Now()

	log.Info("Reconciliation run START", "inputDir", cfg.InputDir)

	feeds, err := DiscoverFeeds(cfg.InputDir)
	if err != nil {
		return nil, err
	}
	if feeds.POSExport == "" {
		return nil, ErrTheoreticalExportMissing
	}
	log.Info("Input files discovered",
		"posExport", feeds.POSExport, "cash", feeds.Cash, "bankCard", feeds.BankCard,
		"fuelCard", feeds.FuelCard, "voucher", feeds.Voucher, "mobilePay", feeds.MobilePay)

	exportRows, err := s.readPOSExport(feeds.POSExport)
	if err != nil {
		return nil, err
	}
	days := s.theoreticalProcessor.Aggregate(exportRows)

	result := &RunResult{RunID: runID, Feeds: feeds}

	// Registry lookups happen before any transaction: the pool has a single connection.
	installationIDs := make(map[int64]int64)
	codes := processors.POSCodes(days)
	for _, code := range codes {
		id, err := s.registry.Lookup(ctx, s.db, code)
		if errors.Is(err, model.ErrInstallationNotFound) {
			log.Warn("POS code not in installation registry, skipping", "posCode", code)
			result.SkippedPOSCodes = append(result.SkippedPOSCodes, code)
			continue
		}
		if err != nil {
			return nil, err
		}
		installationIDs[code] = id
	}

	if err := s.writeImportAudit(ctx, s.theoreticalProcessor.BuildAuditRecords(exportRows, installationIDs)); err != nil {
		return nil, err
	}

	categoryFeeds := s.loadFeeds(ctx, feeds)

	for _, code := range codes {
		id, ok := installationIDs[code]
		if !ok {
			continue
		}
		if err := s.reconcileInstallation(ctx, id, code, processors.DaysFor(days, code), categoryFeeds); err != nil {
			return nil, fmt.Errorf("installation %d (pos code %d): %w", id, code, err)
		}
		result.InstallationsProcessed++
	}

	log.Info("Reconciliation run END",
		"installations", result.InstallationsProcessed, "skipped", len(result.SkippedPOSCodes), "duration", time.Since(start))
	return result, nil
}

func (s *reconciliationServiceImpl) readPOSExport(path string) ([]models.POSExportRow, error) {
	block, err := parsers.ReadWorkbook(path, parsers.POSExportSheet)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrNoTheoreticalData, err)
	}
	rows, err := parsers.ParsePOSExport(block)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrNoTheoreticalData, err)
	}
	if len(rows) == 0 {
		return nil, ErrNoTheoreticalData
	}
	return rows, nil
}

// writeImportAudit replaces the audit copy of every installation present in the export,
// committing before any matcher runs.
func (s *reconciliationServiceImpl) writeImportAudit(ctx context.Context, audit map[int64][]models.ImportAudit) error {
	if len(audit) == 0 {
		return nil
	}
	ids := make([]int64, 0, len(audit))
	for id := range audit {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin import audit transaction: %w", err)
	}
	defer tx.Rollback()

	inserted := 0
	for _, id := range ids {
		if err := model.DeleteImportAudit(ctx, tx, id); err != nil {
			return err
		}
		for _, row := range audit[id] {
			if err := model.InsertImportAudit(ctx, tx, row); err != nil {
				return err
			}
			inserted++
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit import audit: %w", err)
	}
	logger.FromContext(ctx).Info("Import audit written", "installations", len(ids), "rows", inserted)
	return nil
}

// loadFeeds reads and normalizes each settlement feed once per run.
func (s *reconciliationServiceImpl) loadFeeds(ctx context.Context, feeds FeedSet) map[models.Category]processors.CategoryFeed {
	log := logger.FromContext(ctx)
	out := make(map[models.Category]processors.CategoryFeed, len(s.profiles))

	for _, p := range s.profiles {
		path := feeds.PathFor(p.Category)
		if path == "" {
			log.Info("Settlement feed not uploaded", "category", p.Category)
			out[p.Category] = processors.CategoryFeed{}
			continue
		}
		feed := s.loadFeed(path, p)
		if feed.Err != nil {
			log.Warn("Settlement feed unreadable", "category", p.Category, "file", path, "error", feed.Err)
		} else {
			log.Info("Settlement feed loaded", "category", p.Category, "records", len(feed.Records), "hasIdentifier", feed.HasIdentifier)
		}
		out[p.Category] = feed
	}
	return out
}

func (s *reconciliationServiceImpl) loadFeed(path string, profile processors.CategoryProfile) processors.CategoryFeed {
	layout, ok := parsers.LayoutFor(profile.Category)
	if !ok {
		return processors.CategoryFeed{Present: true, Err: fmt.Errorf("no layout for category %s", profile.Category)}
	}
	layout.HeaderScanRows = s.headerScanRows

	block, err := parsers.ReadWorkbook(path, layout.Sheet)
	if err != nil {
		return processors.CategoryFeed{Present: true, Err: err}
	}
	normalized, err := parsers.Normalize(block, layout)
	if err != nil {
		return processors.CategoryFeed{Present: true, Err: err}
	}

	feed := processors.CategoryFeed{Present: true, HasIdentifier: normalized.HasIdentifier}
	if profile.Unaggregated {
		feed.Records = parsers.Records(normalized.Rows)
	} else {
		feed.Records = parsers.Aggregate(normalized.Rows)
	}
	return feed
}

// reconcileInstallation purges and rewrites the installation's report in one transaction.
func (s *reconciliationServiceImpl) reconcileInstallation(ctx context.Context, installationID, posCode int64, days []models.TheoreticalDay, feeds map[models.Category]processors.CategoryFeed) error {
	log := logger.FromContext(ctx).With("installationID", installationID, "posCode", posCode)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	purged, err := model.PurgeReports(ctx, tx, installationID)
	if err != nil {
		return err
	}

	statusCounts := make(map[models.Status]int)
	written := 0
	for _, p := range s.profiles {
		rows := processors.NewMatcher(p).Reconcile(installationID, posCode, days, feeds[p.Category])
		for _, row := range rows {
			if err := model.UpsertReport(ctx, tx, row); err != nil {
				return err
			}
			statusCounts[row.Status]++
			written++
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}

	log.Info("Installation reconciled",
		"purged", purged, "written", written,
		"quadrato", statusCounts[models.StatusBalanced],
		"anomaliaLieve", statusCounts[models.StatusMinorAnomaly],
		"anomaliaGrave", statusCounts[models.StatusMajorAnomaly],
		"nonTrovato", statusCounts[models.StatusNotFound])
	return nil
}
