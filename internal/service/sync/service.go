// Package sync decides, per read, which store is authoritative, fans writes
// out to the primary and legacy local collections, and pushes PRO accounts'
// data to the remote store. Remote failures always degrade to local data:
// availability over consistency, which is the right trade for an
// offline-first personal health tool.
package sync

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/glucolog/glucolog-api/internal/model"
	"github.com/glucolog/glucolog-api/internal/repository"
	"github.com/glucolog/glucolog-api/internal/store/localstore"
	"github.com/glucolog/glucolog-api/pkg/errors"
	"github.com/glucolog/glucolog-api/pkg/logger"
	"github.com/glucolog/glucolog-api/pkg/metrics"
)

// LoadSource identifies which store satisfied a unified read.
type LoadSource string

const (
	SourcePrimary LoadSource = "primary"
	SourceLegacy  LoadSource = "legacy"
	SourceEmpty   LoadSource = "empty"
)

// LoadResult carries the collections plus enough context for a caller to
// distinguish "no data" from "failed to load data". Reason is empty on a
// clean primary read.
type LoadResult struct {
	Data   model.DataSet
	Source LoadSource
	Reason string
}

type Service struct {
	store   localstore.Store
	users   repository.UserRepository
	records repository.GlucoseRecordRepository
	alerts  repository.AlertRepository
	logger  *logger.Logger
	metrics *metrics.Metrics
	now     func() time.Time
}

func NewService(
	store localstore.Store,
	users repository.UserRepository,
	records repository.GlucoseRecordRepository,
	alerts repository.AlertRepository,
	logger *logger.Logger,
	metrics *metrics.Metrics,
) *Service {
	return &Service{
		store:   store,
		users:   users,
		records: records,
		alerts:  alerts,
		logger:  logger,
		metrics: metrics,
		now:     time.Now,
	}
}

// ReadUnified presents one read view over the primary and legacy local
// collections. A malformed or absent primary falls back to the legacy key;
// if both are unusable the result is empty, never an error; storage
// corruption must not take the caller down.
func (s *Service) ReadUnified() LoadResult {
	ds, ok, reason := s.readDataSet(localstore.KeyPrimary)
	if ok {
		normalize(&ds)
		return LoadResult{Data: ds, Source: SourcePrimary}
	}
	primaryReason := reason

	ds, ok, reason = s.readDataSet(localstore.KeyLegacy)
	if ok {
		normalize(&ds)
		return LoadResult{Data: ds, Source: SourceLegacy, Reason: "primary " + primaryReason}
	}

	empty := model.DataSet{}
	normalize(&empty)
	return LoadResult{
		Data:   empty,
		Source: SourceEmpty,
		Reason: fmt.Sprintf("primary %s, legacy %s", primaryReason, reason),
	}
}

// SaveRecord normalizes the record's timestamp and appends it to the primary
// collection, then independently to the legacy one. The two writes are
// best-effort with no rollback; a legacy failure is logged and swallowed,
// only a primary failure aborts the action.
func (s *Service) SaveRecord(record *model.GlucoseRecord) error {
	record.NormalizeTimestamp()

	primaryErr := s.appendRecord(localstore.KeyPrimary, record)
	if primaryErr != nil {
		s.metrics.SyncOperations.WithLabelValues("save_record", "error").Inc()
		s.logger.Error(primaryErr, "failed to persist record to primary store")
	}

	if err := s.appendRecord(localstore.KeyLegacy, record); err != nil {
		// Best-effort backup copy; the primary write stands on its own.
		s.logger.Error(err, "failed to persist record to legacy store")
	}

	if primaryErr != nil {
		return fmt.Errorf("failed to save record: %w", primaryErr)
	}
	s.metrics.SyncOperations.WithLabelValues("save_record", "success").Inc()
	return nil
}

// SaveAlert appends an alert to both local collections, same contract as
// SaveRecord.
func (s *Service) SaveAlert(alert *model.Alert) error {
	primaryErr := s.mutateDataSet(localstore.KeyPrimary, func(ds *model.DataSet) {
		ds.Alerts = append(ds.Alerts, *alert)
	})
	if err := s.mutateDataSet(localstore.KeyLegacy, func(ds *model.DataSet) {
		ds.Alerts = append(ds.Alerts, *alert)
	}); err != nil {
		s.logger.Error(err, "failed to persist alert to legacy store")
	}
	if primaryErr != nil {
		return fmt.Errorf("failed to save alert: %w", primaryErr)
	}
	return nil
}

// DismissAlert deletes the user's alert from both collections. Another
// user's alert is reported as missing, not dismissed.
func (s *Service) DismissAlert(userID, id uuid.UUID) error {
	found := false
	remove := func(ds *model.DataSet) {
		kept := ds.Alerts[:0]
		for _, a := range ds.Alerts {
			if a.ID == id && a.UserID == userID {
				found = true
				continue
			}
			kept = append(kept, a)
		}
		ds.Alerts = kept
	}
	primaryErr := s.mutateDataSet(localstore.KeyPrimary, remove)
	if err := s.mutateDataSet(localstore.KeyLegacy, remove); err != nil {
		s.logger.Error(err, "failed to remove alert from legacy store")
	}
	if primaryErr != nil {
		return fmt.Errorf("failed to dismiss alert: %w", primaryErr)
	}
	if !found {
		return errors.NotFound("alert", nil)
	}
	return nil
}

// UpdateRecord rewrites a record in both collections.
func (s *Service) UpdateRecord(record *model.GlucoseRecord) error {
	record.NormalizeTimestamp()
	replace := func(ds *model.DataSet) {
		for i := range ds.Records {
			if ds.Records[i].ID == record.ID {
				ds.Records[i] = *record
			}
		}
	}
	primaryErr := s.mutateDataSet(localstore.KeyPrimary, replace)
	if err := s.mutateDataSet(localstore.KeyLegacy, replace); err != nil {
		s.logger.Error(err, "failed to update record in legacy store")
	}
	if primaryErr != nil {
		return fmt.Errorf("failed to update record: %w", primaryErr)
	}
	return nil
}

// DeleteRecord removes a record from both collections.
func (s *Service) DeleteRecord(id uuid.UUID) error {
	remove := func(ds *model.DataSet) {
		kept := ds.Records[:0]
		for _, r := range ds.Records {
			if r.ID != id {
				kept = append(kept, r)
			}
		}
		ds.Records = kept
	}
	primaryErr := s.mutateDataSet(localstore.KeyPrimary, remove)
	if err := s.mutateDataSet(localstore.KeyLegacy, remove); err != nil {
		s.logger.Error(err, "failed to remove record from legacy store")
	}
	if primaryErr != nil {
		return fmt.Errorf("failed to delete record: %w", primaryErr)
	}
	return nil
}

// ExportSnapshot produces the versioned export document. PRO accounts are
// served from the remote store when it answers; any remote failure falls
// back to the local snapshot with nothing but a log to tell the difference.
// FREE accounts never touch the remote store.
func (s *Service) ExportSnapshot(ctx context.Context, userID uuid.UUID, isPro bool) *model.Snapshot {
	if isPro {
		if snap, err := s.remoteSnapshot(ctx, userID); err == nil {
			return snap
		} else {
			s.metrics.RemoteFallbacks.Inc()
			s.logger.Error(err, "remote export failed, using local snapshot", "user_id", userID.String())
		}
	}
	return s.localSnapshot(userID)
}

// SyncToRemote pushes the data set to the remote store: records without a
// remote identifier are created, the rest updated; alerts without one are
// created. Per-entity failures are logged and skipped; sync is at-least-once
// with no idempotency key beyond the record's own identifier, and remote-only
// changes are never pulled down (last local write wins).
func (s *Service) SyncToRemote(ctx context.Context, userID uuid.UUID, ds *model.DataSet) error {
	timer := prometheus.NewTimer(s.metrics.SyncLatency)
	defer timer.ObserveDuration()

	for i := range ds.Records {
		record := &ds.Records[i]
		if record.UserID != userID {
			continue
		}
		if record.RemoteID == nil {
			remoteID, err := s.records.Create(ctx, record)
			if err != nil {
				s.logger.Error(err, "failed to create remote record", "record_id", record.ID.String())
				continue
			}
			record.RemoteID = &remoteID
		} else {
			if err := s.records.Update(ctx, *record.RemoteID, record); err != nil {
				s.logger.Error(err, "failed to update remote record", "record_id", record.ID.String())
				continue
			}
		}
		s.metrics.SyncedRecords.Inc()
	}

	for i := range ds.Alerts {
		alert := &ds.Alerts[i]
		if alert.UserID != userID || alert.RemoteID != nil {
			continue
		}
		remoteID, err := s.alerts.Create(ctx, alert)
		if err != nil {
			s.logger.Error(err, "failed to create remote alert", "alert_id", alert.ID.String())
			continue
		}
		alert.RemoteID = &remoteID
	}

	// Persist assigned remote IDs so the next push becomes updates.
	if err := s.writeDataSet(localstore.KeyPrimary, ds); err != nil {
		return fmt.Errorf("failed to persist sync state: %w", err)
	}
	if err := s.writeDataSet(localstore.KeyLegacy, ds); err != nil {
		s.logger.Error(err, "failed to persist sync state to legacy store")
	}

	stamp := s.now().UTC().Format(time.RFC3339)
	if err := s.store.Set(localstore.LastSyncKey(userID.String()), []byte(stamp)); err != nil {
		s.logger.Error(err, "failed to record last sync timestamp")
	}

	s.metrics.SyncOperations.WithLabelValues("sync_to_remote", "success").Inc()
	return nil
}

// DeleteEverything wipes a user's data: best-effort remote deletes for PRO
// accounts (logged, not retried), then unconditionally every local key
// containing the user identifier, and no others.
func (s *Service) DeleteEverything(ctx context.Context, userID uuid.UUID, isPro bool) error {
	if isPro {
		if err := s.records.DeleteForUser(ctx, userID); err != nil {
			s.logger.Error(err, "failed to delete remote records", "user_id", userID.String())
		}
		if err := s.alerts.DeleteForUser(ctx, userID); err != nil {
			s.logger.Error(err, "failed to delete remote alerts", "user_id", userID.String())
		}
	}

	keys, err := s.store.Keys()
	if err != nil {
		return fmt.Errorf("failed to list local keys: %w", err)
	}
	id := userID.String()
	for _, key := range keys {
		if !containsID(key, id) {
			continue
		}
		if err := s.store.Delete(key); err != nil {
			s.logger.Error(err, "failed to delete local key", "key", key)
		}
	}

	s.metrics.SyncOperations.WithLabelValues("delete_everything", "success").Inc()
	return nil
}

// MigrateLegacy folds a legacy-only data set into the primary key and stamps
// the schema version, so the legacy shape stops being a silent fallback.
// Returns true when a migration actually ran.
func (s *Service) MigrateLegacy() (bool, error) {
	if _, ok, _ := s.readDataSet(localstore.KeyPrimary); ok {
		return false, nil
	}

	ds, ok, _ := s.readDataSet(localstore.KeyLegacy)
	if !ok {
		return false, nil
	}

	normalize(&ds)
	ds.SchemaVersion = model.SchemaVersion
	if err := s.writeDataSet(localstore.KeyPrimary, &ds); err != nil {
		return false, fmt.Errorf("failed to migrate legacy data: %w", err)
	}

	s.logger.Info("migrated legacy data set to primary key",
		"records", len(ds.Records), "schema_version", ds.SchemaVersion)
	return true, nil
}

// LastSyncedAt returns the recorded last-sync time, zero when never synced.
func (s *Service) LastSyncedAt(userID uuid.UUID) time.Time {
	blob, ok, err := s.store.Get(localstore.LastSyncKey(userID.String()))
	if err != nil || !ok {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339, string(blob))
	if err != nil {
		return time.Time{}
	}
	return t
}

func (s *Service) remoteSnapshot(ctx context.Context, userID uuid.UUID) (*model.Snapshot, error) {
	user, err := s.users.Get(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch remote profile: %w", err)
	}
	records, err := s.records.List(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch remote records: %w", err)
	}
	alerts, err := s.alerts.List(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch remote alerts: %w", err)
	}

	snap := &model.Snapshot{
		User:       user,
		Records:    make([]model.GlucoseRecord, 0, len(records)),
		Alerts:     make([]model.Alert, 0, len(alerts)),
		ExportedAt: s.now().UTC(),
		Version:    model.SnapshotVersion,
	}
	for _, r := range records {
		r.NormalizeTimestamp()
		snap.Records = append(snap.Records, *r)
	}
	for _, a := range alerts {
		snap.Alerts = append(snap.Alerts, *a)
	}
	return snap, nil
}

func (s *Service) localSnapshot(userID uuid.UUID) *model.Snapshot {
	result := s.ReadUnified()

	records := make([]model.GlucoseRecord, 0, len(result.Data.Records))
	for _, r := range result.Data.Records {
		if r.UserID == userID {
			records = append(records, r)
		}
	}
	alerts := make([]model.Alert, 0, len(result.Data.Alerts))
	for _, a := range result.Data.Alerts {
		if a.UserID == userID {
			alerts = append(alerts, a)
		}
	}

	return &model.Snapshot{
		User:       s.localProfile(userID),
		Records:    records,
		Alerts:     alerts,
		ExportedAt: s.now().UTC(),
		Version:    model.SnapshotVersion,
	}
}

// localProfile reads the cached profile from the settings key, degrading to
// a bare identity when it is absent or unreadable.
func (s *Service) localProfile(userID uuid.UUID) *model.User {
	blob, ok, err := s.store.Get(localstore.KeySettings)
	if err != nil || !ok {
		return &model.User{Base: model.Base{ID: userID}}
	}
	var user model.User
	if err := json.Unmarshal(blob, &user); err != nil || user.ID != userID {
		return &model.User{Base: model.Base{ID: userID}}
	}
	return &user
}

// CacheProfile writes the profile under the settings key so FREE exports and
// offline reads still carry user data.
func (s *Service) CacheProfile(user *model.User) {
	blob, err := json.Marshal(user)
	if err != nil {
		return
	}
	if err := s.store.Set(localstore.KeySettings, blob); err != nil {
		s.logger.Error(err, "failed to cache profile")
	}
}

// WriteBackup writes the per-user legacy snapshot key.
func (s *Service) WriteBackup(userID uuid.UUID, ds *model.DataSet) error {
	return s.writeDataSet(localstore.LegacyBackupKey(userID.String()), ds)
}

// readDataSet loads and validates one serialized collection. ok is false for
// a missing key, malformed JSON, or a records field that is not an array;
// the reason string says which.
func (s *Service) readDataSet(key string) (model.DataSet, bool, string) {
	blob, ok, err := s.store.Get(key)
	if err != nil {
		s.metrics.LocalStoreOperations.WithLabelValues("get", "error").Inc()
		return model.DataSet{}, false, "unreadable: " + err.Error()
	}
	if !ok {
		return model.DataSet{}, false, "key missing"
	}

	var probe struct {
		Records *json.RawMessage `json:"records"`
	}
	if err := json.Unmarshal(blob, &probe); err != nil {
		return model.DataSet{}, false, "malformed JSON"
	}
	if probe.Records == nil || !isJSONArray(*probe.Records) {
		return model.DataSet{}, false, "records field is not an array"
	}

	var ds model.DataSet
	if err := json.Unmarshal(blob, &ds); err != nil {
		return model.DataSet{}, false, "malformed records"
	}
	s.metrics.LocalStoreOperations.WithLabelValues("get", "success").Inc()
	return ds, true, ""
}

func (s *Service) writeDataSet(key string, ds *model.DataSet) error {
	blob, err := json.Marshal(ds)
	if err != nil {
		return fmt.Errorf("failed to marshal data set: %w", err)
	}
	if err := s.store.Set(key, blob); err != nil {
		s.metrics.LocalStoreOperations.WithLabelValues("set", "error").Inc()
		return err
	}
	s.metrics.LocalStoreOperations.WithLabelValues("set", "success").Inc()
	return nil
}

// mutateDataSet applies fn to the collection under key and persists it.
// A missing or malformed collection starts from empty; the mutation is the
// user's action and must not be lost to prior corruption.
func (s *Service) mutateDataSet(key string, fn func(*model.DataSet)) error {
	ds, _, _ := s.readDataSet(key)
	normalize(&ds)
	fn(&ds)
	return s.writeDataSet(key, &ds)
}

func (s *Service) appendRecord(key string, record *model.GlucoseRecord) error {
	return s.mutateDataSet(key, func(ds *model.DataSet) {
		ds.Records = append(ds.Records, *record)
	})
}

func normalize(ds *model.DataSet) {
	if ds.Records == nil {
		ds.Records = []model.GlucoseRecord{}
	}
	if ds.Alerts == nil {
		ds.Alerts = []model.Alert{}
	}
	if ds.Payments == nil {
		ds.Payments = []model.Payment{}
	}
	for i := range ds.Records {
		ds.Records[i].NormalizeTimestamp()
	}
}

func isJSONArray(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) > 0 && trimmed[0] == '['
}

func containsID(key, id string) bool {
	return id != "" && strings.Contains(key, id)
}
