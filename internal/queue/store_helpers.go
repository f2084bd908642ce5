package queue

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/OneOfOne/xxhash"
)

const jobColumns = "id, image_url, claim, status, verdict, confidence, explanation, evidence_json, real_context_json, claim_context_json, issues_json, content_hash, perceptual_hash, cached, error_message, request_id, attempts, progress_stage, created_at, updated_at, last_heartbeat, completed_at"

const cacheColumns = "content_hash, url_key, perceptual_hash, secondary_hash, verdict, confidence, explanation, first_seen, last_seen, hits"

type scanner interface{ Scan(dest ...any) error }

func scanJob(row scanner) (*Job, error) {
	var (
		job                                 Job
		claim, verdict, explanation         sql.NullString
		evidence, realCtx, claimCtx, issues sql.NullString
		contentHash, phash, errMsg, reqID   sql.NullString
		stage                               sql.NullString
		confidence                          sql.NullFloat64
		cached                              int
		status, createdRaw, updatedRaw      string
		heartbeatRaw, completedRaw          sql.NullString
	)
	if err := row.Scan(
		&job.ID, &job.ImageURL, &claim, &status, &verdict, &confidence, &explanation,
		&evidence, &realCtx, &claimCtx, &issues, &contentHash, &phash, &cached,
		&errMsg, &reqID, &job.Attempts, &stage, &createdRaw, &updatedRaw,
		&heartbeatRaw, &completedRaw,
	); err != nil {
		return nil, err
	}
	job.Claim = claim.String
	job.Status = Status(status)
	job.Verdict = verdict.String
	job.Confidence = confidence.Float64
	job.Explanation = explanation.String
	job.EvidenceJSON = evidence.String
	job.RealContextJSON = realCtx.String
	job.ClaimContextJSON = claimCtx.String
	job.IssuesJSON = issues.String
	job.ContentHash = contentHash.String
	job.PerceptualHash = phash.String
	job.Cached = cached != 0
	job.ErrorMessage = errMsg.String
	job.RequestID = reqID.String
	job.ProgressStage = stage.String
	if t, err := parseTimeString(createdRaw); err == nil {
		job.CreatedAt = t
	}
	if t, err := parseTimeString(updatedRaw); err == nil {
		job.UpdatedAt = t
	}
	job.LastHeartbeat = parseNullableTime(heartbeatRaw)
	job.CompletedAt = parseNullableTime(completedRaw)
	return &job, nil
}

func scanCacheEntry(row scanner) (*CacheEntry, error) {
	var (
		entry                      CacheEntry
		urlKey, phash, dhash, expl sql.NullString
		firstSeenRaw, lastSeenRaw  string
	)
	if err := row.Scan(
		&entry.ContentHash, &urlKey, &phash, &dhash, &entry.Verdict, &entry.Confidence,
		&expl, &firstSeenRaw, &lastSeenRaw, &entry.Hits,
	); err != nil {
		return nil, err
	}
	entry.URLKey = urlKey.String
	entry.PerceptualHash = phash.String
	entry.SecondaryHash = dhash.String
	entry.Explanation = expl.String
	if t, err := parseTimeString(firstSeenRaw); err == nil {
		entry.FirstSeen = t
	}
	if t, err := parseTimeString(lastSeenRaw); err == nil {
		entry.LastSeen = t
	}
	return &entry, nil
}

// URLKey returns the cache key for an image URL: a 64-bit xxhash rendered as hex.
func URLKey(rawURL string) string {
	h := xxhash.NewS64(0)
	_, _ = h.Write([]byte(strings.TrimSpace(rawURL)))
	return fmt.Sprintf("%016x", h.Sum64())
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func nullableTime(value *time.Time) any {
	if value == nil {
		return nil
	}
	return formatTime(*value)
}

// timeLayout is fixed width so stored timestamps compare correctly as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func boolToInt(value bool) int {
	if value {
		return 1
	}
	return 0
}

func parseNullableTime(value sql.NullString) *time.Time {
	if !value.Valid {
		return nil
	}
	t, err := parseTimeString(value.String)
	if err != nil {
		return nil
	}
	return &t
}

func parseTimeString(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, errors.New("empty")
	}
	if t, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02 15:04:05", value)
}

func makePlaceholders(count int) string {
	if count <= 0 {
		return ""
	}
	return strings.TrimSuffix(strings.Repeat("?,", count), ",")
}

func statusArgs(statuses []Status) []any {
	args := make([]any, len(statuses))
	for i, status := range statuses {
		args[i] = status
	}
	return args
}
