package verification

import (
	"context"
	"log/slog"
	"strings"

	"visualverify/internal/config"
	"visualverify/internal/evidence"
	"visualverify/internal/fetch"
	"visualverify/internal/fingerprint"
	"visualverify/internal/logging"
	"visualverify/internal/queue"
	"visualverify/internal/services"
	"visualverify/internal/stage"
	"visualverify/internal/verify"
)

// StageName identifies the verifier in logs, errors and health reports.
const StageName = "verifier"

// Progress steps reported while a job runs.
const (
	StepCacheLookup = "checking cache"
	StepDownload    = "downloading image"
	StepFingerprint = "fingerprinting"
	StepEvidence    = "collecting evidence"
	StepAnalysis    = "analyzing"
)

// Downloader fetches image bytes.
type Downloader interface {
	Download(ctx context.Context, url string) ([]byte, error)
}

// EvidenceCollector gathers evidence for a query.
type EvidenceCollector interface {
	Collect(ctx context.Context, q evidence.Query) []verify.EvidenceItem
}

// Verifier is the verification stage handler.
type Verifier struct {
	store      *queue.Store
	cache      config.Cache
	downloader Downloader
	collector  EvidenceCollector
	logger     *slog.Logger
	warning    string
}

var _ stage.Handler = (*Verifier)(nil)

// NewVerifier wires the stage from configuration.
func NewVerifier(cfg *config.Config, store *queue.Store, logger *slog.Logger) *Verifier {
	v := NewVerifierWithDependencies(cfg.Cache, store, fetch.NewFromConfig(cfg), evidence.NewFromConfig(cfg, logger), logger)
	if !cfg.APIKeysConfigured() && len(cfg.Providers.Feeds) == 0 {
		v.warning = "no evidence providers configured; verdicts will be UNVERIFIED"
	}
	return v
}

// NewVerifierWithDependencies builds the stage from explicit collaborators.
// A nil store disables the verdict cache.
func NewVerifierWithDependencies(cache config.Cache, store *queue.Store, downloader Downloader, collector EvidenceCollector, logger *slog.Logger) *Verifier {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Verifier{
		store:      store,
		cache:      cache,
		downloader: downloader,
		collector:  collector,
		logger:     logging.NewComponentLogger(logger, StageName),
	}
}

// Prepare rejects jobs whose image URL cannot be fetched.
func (v *Verifier) Prepare(_ context.Context, job *queue.Job) error {
	if _, err := fetch.ValidateURL(job.ImageURL); err != nil {
		return err
	}
	job.ProgressStage = StepCacheLookup
	return nil
}

// Execute runs the pipeline and records the outcome on job. The caller
// persists the job.
func (v *Verifier) Execute(ctx context.Context, job *queue.Job) error {
	progress := func(step string) {
		job.ProgressStage = step
		if v.store == nil {
			return
		}
		if err := v.store.SetStage(ctx, job.ID, step); err != nil {
			v.logger.Debug("progress update failed", logging.Error(err))
		}
	}
	outcome, err := v.Check(ctx, Request{ImageURL: job.ImageURL, Claim: job.Claim}, progress)
	if err != nil {
		return err
	}
	if outcome.Cached != nil {
		job.SetCached(*outcome.Cached)
		return nil
	}
	if err := job.SetResult(outcome.Result); err != nil {
		return services.Wrap(services.ErrValidation, StageName, "record result", "", err)
	}
	return nil
}

// HealthCheck reports whether the stage can run.
func (v *Verifier) HealthCheck(context.Context) stage.Health {
	if v.downloader == nil || v.collector == nil {
		return stage.Unhealthy(StageName, "verifier dependencies missing")
	}
	if v.warning != "" {
		return stage.Degraded(StageName, v.warning)
	}
	return stage.Healthy(StageName)
}

// Request is one verification. When Image is set the download step is
// skipped and the URL cache is not consulted.
type Request struct {
	ImageURL string
	Image    []byte
	Claim    string
}

// Outcome is the result of Check. Exactly one of Result and Cached is
// meaningful: Cached is non-nil when the verdict came from the cache.
type Outcome struct {
	Result verify.Result
	Cached *queue.CacheEntry
}

// Check runs the verification pipeline. It fails only when the image cannot
// be obtained; every later failure is reported as an ERROR verdict.
func (v *Verifier) Check(ctx context.Context, req Request, progress stage.ProgressFunc) (Outcome, error) {
	if progress == nil {
		progress = func(string) {}
	}
	logger := logging.WithContext(ctx, v.logger)
	imageURL := strings.TrimSpace(req.ImageURL)
	data := req.Image

	if data == nil {
		progress(StepCacheLookup)
		if entry := v.lookup(ctx, "url", func() (*queue.CacheEntry, error) { return v.store.CacheByURL(ctx, imageURL) }); entry != nil {
			return Outcome{Cached: entry}, nil
		}

		progress(StepDownload)
		downloaded, err := v.downloader.Download(ctx, imageURL)
		if err != nil {
			return Outcome{}, err
		}
		data = downloaded
	}

	progress(StepFingerprint)
	fp, fpErr := fingerprint.Compute(data)
	if fpErr != nil {
		logging.WarnWithContext(logger, "image could not be decoded", "image_decode_failed",
			logging.Error(fpErr),
			logging.String(logging.FieldImpact, "job completes with an ERROR verdict"),
			logging.String(logging.FieldErrorHint, "check that the URL points at an image"),
		)
		return Outcome{Result: verify.ErrorResult(fpErr)}, nil
	}
	if entry := v.cachedByImage(ctx, fp, imageURL); entry != nil {
		return Outcome{Cached: entry}, nil
	}

	progress(StepEvidence)
	items := v.collector.Collect(ctx, evidence.Query{ImageURL: imageURL, Claim: req.Claim})

	progress(StepAnalysis)
	result := verify.Verify(data, req.Claim, items)
	logger.Info("verification finished",
		logging.String(logging.FieldEventType, "verdict"),
		logging.String("verdict", string(result.Verdict)),
		logging.Float64("confidence", result.Confidence),
		logging.Int("evidence", len(result.Evidence)),
		logging.Int("issues", len(result.Issues)),
	)
	v.remember(ctx, result, imageURL)
	return Outcome{Result: result}, nil
}

func (v *Verifier) cacheEnabled() bool {
	return v.store != nil && v.cache.Enabled
}

func (v *Verifier) lookup(ctx context.Context, kind string, fn func() (*queue.CacheEntry, error)) *queue.CacheEntry {
	if !v.cacheEnabled() {
		return nil
	}
	entry, err := fn()
	if err != nil {
		logging.WarnWithContext(logging.WithContext(ctx, v.logger), "cache lookup failed", "cache_lookup_failed",
			logging.String("lookup", kind),
			logging.Error(err),
			logging.String(logging.FieldImpact, "image will be verified from scratch"),
		)
		return nil
	}
	if entry != nil {
		logging.WithContext(ctx, v.logger).Info("cache hit",
			logging.Args(logging.DecisionAttrs("cache_lookup", "hit", kind)...)...,
		)
	}
	return entry
}

func (v *Verifier) cachedByImage(ctx context.Context, fp fingerprint.Fingerprint, imageURL string) *queue.CacheEntry {
	entry := v.lookup(ctx, "content", func() (*queue.CacheEntry, error) { return v.store.CacheByContent(ctx, fp.ContentHash) })
	if entry == nil {
		entry = v.lookup(ctx, "near_duplicate", func() (*queue.CacheEntry, error) {
			return v.store.CacheNearDuplicate(ctx, fp.PerceptualHash, v.cache.NearDuplicateDistance)
		})
		if entry == nil {
			return nil
		}
		// A near duplicate is a different file; report this image's hashes.
		entry.ContentHash = fp.ContentHash
		entry.PerceptualHash = fp.PerceptualHash
		entry.SecondaryHash = fp.SecondaryHash
	}
	if imageURL != "" {
		entry.URLKey = queue.URLKey(imageURL)
		if err := v.store.PutCache(ctx, *entry); err != nil {
			v.logger.Debug("cache url association failed", logging.Error(err))
		}
	}
	return entry
}

func (v *Verifier) remember(ctx context.Context, result verify.Result, imageURL string) {
	if !v.cacheEnabled() || result.Verdict == verify.VerdictError || result.Fingerprint == nil {
		return
	}
	entry := queue.CacheEntry{
		ContentHash:    result.Fingerprint.ContentHash,
		PerceptualHash: result.Fingerprint.PerceptualHash,
		SecondaryHash:  result.Fingerprint.SecondaryHash,
		Verdict:        string(result.Verdict),
		Confidence:     result.Confidence,
		Explanation:    result.Explanation,
	}
	if imageURL != "" {
		entry.URLKey = queue.URLKey(imageURL)
	}
	if err := v.store.PutCache(ctx, entry); err != nil {
		logging.WarnWithContext(logging.WithContext(ctx, v.logger), "cache write failed", "cache_write_failed",
			logging.Error(err),
			logging.String(logging.FieldImpact, "repeat submissions will be verified again"),
		)
	}
}
