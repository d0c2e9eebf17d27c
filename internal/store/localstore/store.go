// Package localstore is the offline working set: string-keyed JSON blobs
// persisted per key, the way the source of truth looks to a FREE account.
package localstore

// Store is a string-keyed blob store. Handles are passed explicitly to every
// consumer; there is no ambient global store.
type Store interface {
	// Get returns the blob under key. The second return is false when the
	// key is absent; absence is not an error.
	Get(key string) ([]byte, bool, error)
	Set(key string, value []byte) error
	Delete(key string) error
	Keys() ([]string, error)
}

// Well-known keys of the working set.
const (
	// KeyPrimary holds the live {records, alerts, payments} collection.
	KeyPrimary = "glucolog_data"
	// KeyLegacy is the backup copy kept in the pre-migration shape.
	KeyLegacy = "gluco_backup"

	KeyInventory = "gluco_inventory"
	KeyReminders = "gluco_reminders"
	KeySettings  = "gluco_settings"
)

// LegacyBackupKey is the per-user snapshot variant of the legacy key.
func LegacyBackupKey(userID string) string {
	return KeyLegacy + "_" + userID
}

// LastSyncKey stores the timestamp of the user's last push to the remote store.
func LastSyncKey(userID string) string {
	return "last_sync_" + userID
}
