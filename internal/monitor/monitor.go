// Package monitor runs the polling scheduler and the per-watch workflow:
// batched concurrent checks against the marketplace, dedup and filtering of
// listing summaries, and notification dispatch. Failures are absorbed and
// metered at the watch and item boundaries so one watch can never block
// another.
package monitor

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"vintedwatch/internal/client"
	"vintedwatch/internal/metrics"
	"vintedwatch/internal/misc"
	"vintedwatch/internal/model"
)

// groupPause is the fixed delay between watch groups within one sweep,
// smoothing bursts that the concurrency cap alone would not.
const groupPause = time.Second

type Repository interface {
	WatchesFindActive(ctx context.Context) ([]model.Watch, error)
	WatchLastItemUpdate(ctx context.Context, watchID primitive.ObjectID, lastItem string) error
	WatchLastCheckedUpdate(ctx context.Context, watchID primitive.ObjectID, lastChecked time.Time) error
	UserFind(ctx context.Context, userID primitive.ObjectID) (model.User, error)
	ItemInsert(ctx context.Context, i model.Item) error
	ItemExists(ctx context.Context, itemID string) (bool, error)
}

type Marketplace interface {
	FetchCatalogItems(credential string, queryURL string, useCache bool) ([]client.CatalogItem, error)
	FetchItem(credential string, itemID string, useCache bool) (model.Item, error)
}

type Notifier interface {
	Send(recipientID string, message string) error
}

type logger interface {
	Debug(v ...any)
	Info(v ...any)
	Warn(v ...any)
	Debugf(format string, v ...any)
	Infof(format string, v ...any)
	Errorf(format string, v ...any)
}

type Service struct {
	Repo        Repository
	Marketplace Marketplace
	Notifier    Notifier
	Metrics     *metrics.Aggregator
	Logger      logger

	PollingInterval        time.Duration
	ConcurrentChecks       int
	FilterZeroStarProfiles bool

	mu              sync.Mutex
	credential      string
	running         bool
	sweepInProgress bool
	stop            chan struct{}
}

// SetCredential swaps the session credential used by subsequent checks.
// Checks already in flight keep the credential they started with.
func (s *Service) SetCredential(credential string) {
	s.mu.Lock()
	s.credential = credential
	s.mu.Unlock()
	s.Logger.Info("SetCredential: Session credential set in monitoring service")
}

func (s *Service) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// Start marks the service running, performs one immediate sweep and then
// sweeps on every tick of the polling interval. A no-op when already running
// or when no credential has been set.
func (s *Service) Start() {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		s.Logger.Warn("Start: Monitoring service is already running")
		return
	}
	if s.credential == "" {
		s.mu.Unlock()
		s.Logger.Warn("Start: Cannot start monitoring service without a session credential")
		return
	}
	s.running = true
	s.stop = make(chan struct{})
	stop := s.stop
	s.mu.Unlock()

	s.Logger.Info("Start: Starting monitoring service with interval:", s.PollingInterval)
	go s.run(stop)
}

// Stop disarms the scheduler. In-flight checks are allowed to finish; only
// new sweeps are prevented.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running {
		s.Logger.Warn("Stop: Monitoring service is not running")
		return
	}
	close(s.stop)
	s.running = false
	s.Logger.Info("Stop: Monitoring service stopped")
}

func (s *Service) run(stop chan struct{}) {
	ticker := time.NewTicker(s.PollingInterval)
	defer ticker.Stop()

	s.RunSweep(context.Background())
	for {
		select {
		case <-ticker.C:
			s.RunSweep(context.Background())
		case <-stop:
			return
		}
	}
}

// RunSweep performs one full pass over all active watches, checking them in
// groups of ConcurrentChecks with a fixed pause between groups. A tick that
// fires while a sweep is still running is skipped, so at most one sweep is in
// flight even when a sweep outlasts the polling interval.
func (s *Service) RunSweep(ctx context.Context) {
	s.mu.Lock()
	if s.sweepInProgress {
		s.mu.Unlock()
		s.Logger.Warn("RunSweep: Previous sweep still in progress, skipping this tick")
		return
	}
	s.sweepInProgress = true
	credential := s.credential
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		s.sweepInProgress = false
		s.mu.Unlock()
	}()

	watches, err := s.Repo.WatchesFindActive(ctx)
	if err != nil {
		s.Logger.Errorf("RunSweep: Error getting active Watches, err: %v", err)
		s.Metrics.RecordError("Repository", err.Error())
		return
	}
	if len(watches) == 0 {
		s.Logger.Debug("RunSweep: No active watches to check")
		return
	}
	s.Metrics.UpdateWatchCounts(len(watches), len(watches))
	s.Logger.Infof("RunSweep: Checking %d active Watch(es)", len(watches))

	groupSize := s.ConcurrentChecks
	if groupSize <= 0 {
		groupSize = 1
	}
	for start := 0; start < len(watches); start += groupSize {
		end := misc.Min(start+groupSize, len(watches))

		var wg sync.WaitGroup
		for _, w := range watches[start:end] {
			w := w
			wg.Add(1)
			go func() {
				defer wg.Done()
				s.checkWatch(ctx, credential, w)
			}()
		}
		wg.Wait()

		if end < len(watches) {
			time.Sleep(groupPause)
		}
	}
	s.Logger.Info("RunSweep: Finished checking all watches")
}

// checkWatch fetches the watch's catalog page and feeds every summary through
// the per-item workflow. Empty or failed results leave the watch untouched.
func (s *Service) checkWatch(ctx context.Context, credential string, w model.Watch) {
	s.Logger.Debugf("checkWatch: Checking Watch: %s, ID: %s", w.Name, w.ID.Hex())

	items, err := s.Marketplace.FetchCatalogItems(credential, w.URL, true)
	if err != nil {
		s.Logger.Errorf("checkWatch: Error fetching catalog items for Watch: %s, err: %v", w.ID.Hex(), err)
		s.Metrics.RecordError("WatchCheck", err.Error())
		return
	}
	if len(items) == 0 {
		s.Logger.Debugf("checkWatch: No items found for Watch: %s", w.ID.Hex())
		s.Metrics.RecordWatchCheck(0)
		return
	}
	s.Logger.Debugf("checkWatch: Found %d item(s) for Watch: %s", len(items), w.ID.Hex())
	s.Metrics.RecordWatchCheck(len(items))

	u, err := s.Repo.UserFind(ctx, w.UserID)
	if err != nil {
		s.Logger.Errorf("checkWatch: Error getting owner of Watch: %s, err: %v", w.ID.Hex(), err)
		s.Metrics.RecordError("Repository", err.Error())
		return
	}
	if !u.Preferences.Notifications {
		s.Logger.Debugf("checkWatch: Notifications disabled for User: %s", u.TelegramID)
		return
	}

	for _, summary := range items {
		s.processItem(ctx, credential, summary, w, u)
	}

	if err = s.Repo.WatchLastCheckedUpdate(ctx, w.ID, time.Now()); err != nil {
		s.Logger.Errorf("checkWatch: Error updating LastChecked on Watch: %s, err: %v", w.ID.Hex(), err)
		s.Metrics.RecordError("Repository", err.Error())
	}
}

// processItem gates one listing summary through the dedup and filter chain,
// cheapest check first, and only fetches full detail for listings that pass
// every gate. A failure here is terminal for this item only.
func (s *Service) processItem(ctx context.Context, credential string, summary client.CatalogItem, w model.Watch, u model.User) {
	itemID := summary.ItemID()

	if itemID == w.LastItem {
		return
	}

	exists, err := s.Repo.ItemExists(ctx, itemID)
	if err != nil {
		s.Logger.Errorf("processItem: Error checking item ledger for ItemID: %s, err: %v", itemID, err)
		s.Metrics.RecordError("ItemProcessing", err.Error())
		return
	}
	if exists {
		return
	}

	if keyword, banned := bannedKeywordMatch(w.BannedKeywords, summary.Title, summary.Description); banned {
		s.Logger.Debugf("processItem: ItemID: %s filtered out by keyword %q on Watch: %s", itemID, keyword, w.ID.Hex())
		return
	}

	if s.FilterZeroStarProfiles && summary.User.FeedbackReputation == 0 {
		s.Logger.Debugf("processItem: ItemID: %s filtered out, seller has zero reputation", itemID)
		return
	}

	item, err := s.Marketplace.FetchItem(credential, itemID, true)
	if err != nil {
		s.Logger.Errorf("processItem: Error fetching detail for ItemID: %s, err: %v", itemID, err)
		s.Metrics.RecordError("ItemProcessing", err.Error())
		return
	}

	if err = s.Repo.ItemInsert(ctx, item); err != nil {
		s.Logger.Errorf("processItem: Error inserting Item with ItemID: %s, err: %v", itemID, err)
		s.Metrics.RecordError("ItemProcessing", err.Error())
		return
	}

	if err = s.Repo.WatchLastItemUpdate(ctx, w.ID, itemID); err != nil {
		s.Logger.Errorf("processItem: Error updating LastItem on Watch: %s, err: %v", w.ID.Hex(), err)
		s.Metrics.RecordError("Repository", err.Error())
		return
	}

	s.notify(item, w, u)
}

// notify formats and delivers the new-item message. A lost notification is
// metered and swallowed; it does not retry and does not block later items.
func (s *Service) notify(item model.Item, w model.Watch, u model.User) {
	message := formatItemMessage(item, w)
	if err := s.Notifier.Send(u.TelegramID, message); err != nil {
		s.Logger.Errorf("notify: Error sending notification to User: %s for ItemID: %s, err: %v",
			u.TelegramID, item.ItemID, err)
		s.Metrics.RecordError("Notification", err.Error())
		return
	}
	s.Metrics.RecordNotificationSent()
	s.Logger.Infof("notify: Notification sent to User: %s for ItemID: %s", u.TelegramID, item.ItemID)
}

// bannedKeywordMatch reports the first banned keyword appearing as a
// case-insensitive substring of the listing's title or description.
func bannedKeywordMatch(bannedKeywords []string, title string, description string) (string, bool) {
	if len(bannedKeywords) == 0 {
		return "", false
	}
	title = strings.ToLower(title)
	description = strings.ToLower(description)
	for _, keyword := range bannedKeywords {
		k := strings.ToLower(keyword)
		if strings.Contains(title, k) || strings.Contains(description, k) {
			return keyword, true
		}
	}
	return "", false
}

func formatItemMessage(i model.Item, w model.Watch) string {
	size := i.Size
	if size == "" {
		size = "N/A"
	}
	brand := i.Brand
	if brand == "" {
		brand = "N/A"
	}
	description := "N/A"
	if i.Description != "" {
		description = misc.StringLimit(i.Description, 100)
	}
	return fmt.Sprintf("🔔 *New Item Found!*\n\n"+
		"*%s*\n\n"+
		"💰 Price: %.2f %s\n"+
		"👕 Size: %s\n"+
		"🏷️ Brand: %s\n"+
		"👤 Seller: %s (⭐ %g)\n\n"+
		"📝 Description: %s\n\n"+
		"🔍 Watch: %s\n\n"+
		"[View on Vinted](%s)",
		i.Title, i.Price, i.Currency, size, brand, i.Seller.Username, i.Seller.Rating, description, w.Name, i.URL)
}
