package submission

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"Backend-QA-Portal/src/services/storage"

	"github.com/rs/zerolog"
)

// Reconcile returns keys referenced by old but no longer referenced anywhere
// in next, sorted. A key still used by another field is not orphaned.
func Reconcile(old, next []string) []string {
	keep := make(map[string]struct{}, len(next))
	for _, k := range next {
		keep[k] = struct{}{}
	}
	seen := make(map[string]struct{}, len(old))
	var orphaned []string
	for _, k := range old {
		if k == "" {
			continue
		}
		if _, ok := keep[k]; ok {
			continue
		}
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		orphaned = append(orphaned, k)
	}
	sort.Strings(orphaned)
	return orphaned
}

// EvidencePrefix is the key space PresignUpload issues for one department and year.
func EvidencePrefix(year, department string) string {
	return fmt.Sprintf("evidence/%s/%s/", year, department)
}

// ownsKey: key ต้องอยู่ใต้ prefix ของภาควิชาเองและไม่มี sub-path
func ownsKey(key, prefix string) bool {
	if !strings.HasPrefix(key, prefix) {
		return false
	}
	name := key[len(prefix):]
	return name != "" && !strings.Contains(name, "/")
}

const cleanupTimeout = 30 * time.Second

// cleanupOrphans runs after a successful save. Failure leaves stray objects
// in the bucket and is only logged.
func cleanupOrphans(ctx context.Context, store storage.ObjectStorage, log zerolog.Logger, submissionID string, keys []string) {
	if len(keys) == 0 || store == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cleanupTimeout)
	defer cancel()

	if err := store.DeleteObjects(ctx, keys); err != nil {
		log.Warn().Err(err).
			Str("submission", submissionID).
			Strs("keys", keys).
			Msg("⚠️ orphaned file cleanup failed")
		return
	}
	log.Debug().Str("submission", submissionID).Int("count", len(keys)).Msg("🧹 orphaned files removed")
}
