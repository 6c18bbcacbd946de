package storage

import "strings"

// ObjectKey recovers the storage key from a persisted locator. Both backend
// locator shapes end in the object name:
//
//	file:///var/lib/kikitori/uploads/{key}
//	https://{account}.r2.cloudflarestorage.com/{bucket}/{key}
//
// An empty locator (history backfill records have no blob) yields "".
func ObjectKey(locator string) string {
	locator = strings.TrimSuffix(locator, "/")
	if locator == "" {
		return ""
	}
	idx := strings.LastIndex(locator, "/")
	if idx < 0 {
		return locator
	}
	return locator[idx+1:]
}
