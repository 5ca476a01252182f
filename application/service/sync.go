package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/codecite/codecite/domain/event"
	"github.com/codecite/codecite/domain/repository"
	"github.com/codecite/codecite/domain/structure"
	"github.com/codecite/codecite/domain/syncjob"
	"github.com/codecite/codecite/infrastructure/advisor"
	"github.com/codecite/codecite/infrastructure/extraction"
	"github.com/codecite/codecite/infrastructure/hosting"
)

// ErrJobNotCancellable reports a cancel request against a job that already
// reached a terminal state.
var ErrJobNotCancellable = errors.New("job is not cancellable")

// Orchestrator runs sync jobs through their stages: it walks the repository
// at its head commit, extracts structures, classifies them against the stored
// active set, records the outcome, and emits change events for drifted files.
type Orchestrator struct {
	repositories RepositoryStore
	structures   StructureStore
	references   ReferenceStore
	events       EventStore
	jobs         JobStore
	host         hosting.Client
	extractor    *extraction.Extractor
	advisor      advisor.Advisor
	registry     *ProgressRegistry
	logger       *slog.Logger

	mu      sync.Mutex
	cancels map[string]context.CancelFunc
}

// NewOrchestrator creates an Orchestrator. The advisor may be nil; doc-impact
// assessment then uses the deterministic fallback only.
func NewOrchestrator(
	repositories RepositoryStore,
	structures StructureStore,
	references ReferenceStore,
	events EventStore,
	jobs JobStore,
	host hosting.Client,
	docAdvisor advisor.Advisor,
	registry *ProgressRegistry,
	logger *slog.Logger,
) *Orchestrator {
	if logger == nil {
		logger = slog.Default()
	}
	if registry == nil {
		registry = NewProgressRegistry()
	}
	return &Orchestrator{
		repositories: repositories,
		structures:   structures,
		references:   references,
		events:       events,
		jobs:         jobs,
		host:         host,
		extractor:    extraction.New(),
		advisor:      docAdvisor,
		registry:     registry,
		logger:       logger,
		cancels:      make(map[string]context.CancelFunc),
	}
}

// Registry exposes the progress registry for API polling.
func (o *Orchestrator) Registry() *ProgressRegistry {
	return o.registry
}

// Trigger creates a new job for the repository. At most one pending or
// running job may exist per repository; a second trigger returns
// syncjob.ErrAlreadyRunning. A failed job rearmed for retry counts as
// pending, so manual triggers are rejected until the retry sweep runs it or
// it is cancelled.
func (o *Orchestrator) Trigger(ctx context.Context, repositoryID int64, jobType syncjob.Type) (syncjob.Job, error) {
	if _, err := o.repositories.FindOne(ctx, repository.WithID(repositoryID)); err != nil {
		return syncjob.Job{}, err
	}
	return o.jobs.CreateExclusive(ctx, syncjob.New(repositoryID, jobType))
}

// Cancel requests cancellation of a job. A running job stops at its next
// stage checkpoint; a pending job is cancelled immediately. Terminal jobs
// return ErrJobNotCancellable.
func (o *Orchestrator) Cancel(ctx context.Context, jobID string) error {
	o.mu.Lock()
	cancel, running := o.cancels[jobID]
	o.mu.Unlock()

	if running {
		cancel()
		return nil
	}

	job, err := o.jobs.FindOne(ctx, repository.WithID(jobID))
	if err != nil {
		return err
	}
	cancelled, err := job.Cancel()
	if err != nil {
		return fmt.Errorf("%w: %s", ErrJobNotCancellable, job.Status())
	}
	_, err = o.jobs.Save(ctx, cancelled)
	return err
}

// Execute runs one job to a terminal or rearmed state. Failures below the
// retry budget rearm the job for the retry sweep; cancellation observed at a
// stage checkpoint lands on cancelled. Execute itself errors only when the
// outcome cannot be persisted.
func (o *Orchestrator) Execute(ctx context.Context, job syncjob.Job) error {
	runCtx, cancel := context.WithCancel(ctx)
	o.mu.Lock()
	o.cancels[job.ID()] = cancel
	o.mu.Unlock()

	defer func() {
		cancel()
		o.mu.Lock()
		delete(o.cancels, job.ID())
		o.mu.Unlock()
		o.registry.Remove(job.ID())
	}()

	result, runErr := o.run(runCtx, job)
	if runErr == nil {
		return nil
	}

	if errors.Is(runErr, context.Canceled) {
		cancelled, err := result.Cancel()
		if err != nil {
			return fmt.Errorf("orchestrator: cancel job %s: %w", job.ID(), err)
		}
		if _, err := o.jobs.Save(ctx, cancelled); err != nil {
			return fmt.Errorf("orchestrator: persist cancelled job: %w", err)
		}
		o.logger.Info("sync job cancelled", slog.String("job_id", job.ID()))
		return nil
	}

	failed, err := result.Fail(runErr, time.Now())
	if err != nil {
		return fmt.Errorf("orchestrator: fail job %s: %w", job.ID(), err)
	}
	if _, err := o.jobs.Save(ctx, failed); err != nil {
		return fmt.Errorf("orchestrator: persist failed job: %w", err)
	}
	o.logger.Error("sync job failed",
		slog.String("job_id", job.ID()),
		slog.Int("retry_count", failed.RetryCount()),
		slog.String("error", runErr.Error()),
	)
	return nil
}

// run advances the job through its stages. It returns the job in the state it
// reached so Execute can settle the failure or cancellation path. ctx errors
// surface only at stage checkpoints.
func (o *Orchestrator) run(ctx context.Context, job syncjob.Job) (syncjob.Job, error) {
	// Stage: initializing.
	if err := ctx.Err(); err != nil {
		return job, err
	}
	o.setStage(job, syncjob.StageInitializing, "loading repository")

	running, err := job.Start()
	if err != nil {
		return job, fmt.Errorf("start job: %w", err)
	}
	if running, err = o.jobs.Save(ctx, running); err != nil {
		return job, fmt.Errorf("persist running job: %w", err)
	}

	repo, err := o.repositories.FindOne(ctx, repository.WithID(running.RepositoryID()))
	if err != nil {
		return running, fmt.Errorf("load repository: %w", err)
	}
	branch := repo.Policy().Branch()
	if branch == "" {
		branch = repo.DefaultBranch()
	}

	// Stage: fetching commits.
	if err := ctx.Err(); err != nil {
		return running, err
	}
	o.setStage(running, syncjob.StageFetchingCommits, "listing commits")

	commits, err := o.host.Commits(ctx, repo.Owner(), repo.Name(), hosting.CommitOptions{
		Since: repo.LastSyncedAt(),
		SHA:   branch,
	})
	if err != nil {
		return running, fmt.Errorf("list commits: %w", err)
	}
	if len(commits) == 0 || commits[0].SHA == repo.LastSyncedCommit() {
		return o.completeNoChange(ctx, running, repo)
	}
	head := commits[0].SHA

	// Stage: analyzing files.
	if err := ctx.Err(); err != nil {
		return running, err
	}
	files, err := o.listSourceFiles(ctx, repo, head)
	if err != nil {
		return running, fmt.Errorf("list repository files: %w", err)
	}

	newSet, analyzed, err := o.analyzeFiles(ctx, running, repo, head, files)
	if err != nil {
		return running, err
	}

	oldSet, err := o.structures.ActiveByRepository(ctx, repo.ID())
	if err != nil {
		return running, fmt.Errorf("load active structures: %w", err)
	}
	diff := structure.Classify(oldSet, newSet)

	// Stage: saving results.
	if err := ctx.Err(); err != nil {
		return running, err
	}
	o.setStage(running, syncjob.StageSavingResults, "recording structures and events")

	changeEvents, err := o.saveResults(ctx, repo, head, commits[0], diff)
	if err != nil {
		return running, err
	}

	o.assessDocImpact(ctx, repo, diff)

	synced := repo.MarkSynced(head, time.Now().UTC())
	if _, err := o.repositories.Save(ctx, synced); err != nil {
		return running, fmt.Errorf("record sync position: %w", err)
	}

	metadata := syncjob.Metadata{
		FromCommit:      repo.LastSyncedCommit(),
		ToCommit:        head,
		FilesAnalyzed:   analyzed,
		FunctionsFound:  len(newSet),
		ChangesDetected: len(diff.Added()) + len(diff.Deleted()) + len(diff.Modified()) + len(diff.Moved()) + len(diff.Renamed()),
	}
	done, err := running.Complete(metadata)
	if err != nil {
		return running, fmt.Errorf("complete job: %w", err)
	}
	if _, err := o.jobs.Save(ctx, done); err != nil {
		return running, fmt.Errorf("persist completed job: %w", err)
	}
	o.setStage(done, syncjob.StageCompleted, "sync complete")

	o.logger.Info("sync job completed",
		slog.String("job_id", done.ID()),
		slog.String("repository", repo.FullName()),
		slog.String("to_commit", head),
		slog.Int("functions_found", len(newSet)),
		slog.Int("changes_detected", metadata.ChangesDetected),
		slog.Int("events_created", len(changeEvents)),
	)
	return done, nil
}

// completeNoChange settles a job when the head commit has not moved.
func (o *Orchestrator) completeNoChange(ctx context.Context, running syncjob.Job, repo repository.Repository) (syncjob.Job, error) {
	done, err := running.Complete(syncjob.Metadata{
		FromCommit: repo.LastSyncedCommit(),
		ToCommit:   repo.LastSyncedCommit(),
	})
	if err != nil {
		return running, fmt.Errorf("complete job: %w", err)
	}
	if _, err := o.jobs.Save(ctx, done); err != nil {
		return running, fmt.Errorf("persist completed job: %w", err)
	}
	o.setStage(done, syncjob.StageCompleted, "no new commits")
	o.logger.Info("sync job found no new commits",
		slog.String("job_id", done.ID()),
		slog.String("repository", repo.FullName()),
	)
	return done, nil
}

// listSourceFiles walks the repository tree at the given ref and returns the
// supported, non-ignored source files.
func (o *Orchestrator) listSourceFiles(ctx context.Context, repo repository.Repository, ref string) ([]string, error) {
	var files []string
	queue := []string{""}
	for len(queue) > 0 {
		dir := queue[0]
		queue = queue[1:]

		entries, err := o.host.ListDirectory(ctx, repo.Owner(), repo.Name(), dir, ref)
		if err != nil {
			return nil, fmt.Errorf("list %q: %w", dir, err)
		}
		for _, entry := range entries {
			switch entry.Type {
			case "dir":
				queue = append(queue, entry.Path)
			case "file":
				if repo.Policy().Ignores(entry.Path) {
					continue
				}
				if extraction.Supported(entry.Path) {
					files = append(files, entry.Path)
				}
			}
		}
	}
	return files, nil
}

// analyzeFiles extracts structures from every source file, reporting per-file
// progress into the 30-80 band.
func (o *Orchestrator) analyzeFiles(ctx context.Context, job syncjob.Job, repo repository.Repository, head string, files []string) ([]structure.CodeStructure, int, error) {
	var newSet []structure.CodeStructure
	for i, path := range files {
		o.registry.Set(syncjob.Progress{
			JobID:          job.ID(),
			Stage:          syncjob.StageAnalyzingFiles,
			Progress:       syncjob.AnalysisProgress(i, len(files)),
			ProcessedFiles: i,
			TotalFiles:     len(files),
			CurrentFile:    path,
		})

		content, err := o.host.FileContent(ctx, repo.Owner(), repo.Name(), path, head)
		if errors.Is(err, hosting.ErrFileAbsent) {
			continue
		}
		if err != nil {
			return nil, 0, fmt.Errorf("fetch %s: %w", path, err)
		}

		candidates, err := o.extractor.Extract(path, content)
		if err != nil {
			// Unsupported files are filtered before this point; treat any
			// residual extraction error as a skip, not a job failure.
			o.logger.Warn("skipping unparseable file",
				slog.String("repository", repo.FullName()),
				slog.String("file", path),
				slog.String("error", err.Error()),
			)
			continue
		}
		for _, c := range candidates {
			newSet = append(newSet, structure.FromCandidate(repo.ID(), head, c))
		}
	}
	return newSet, len(files), nil
}

// saveResults records the new structure rows, retires superseded old rows,
// and creates change events for drifted files that have active references.
func (o *Orchestrator) saveResults(ctx context.Context, repo repository.Repository, head string, headCommit hosting.Commit, diff structure.Diff) ([]event.CodeChangeEvent, error) {
	var toSave []structure.CodeStructure
	toSave = append(toSave, diff.Added()...)
	var toRetire []int64

	for _, pair := range diff.Modified() {
		toSave = append(toSave, pair.New)
		toRetire = append(toRetire, pair.Old.ID())
	}
	for _, pair := range diff.Moved() {
		toSave = append(toSave, pair.New)
		toRetire = append(toRetire, pair.Old.ID())
	}
	for _, pair := range diff.Renamed() {
		toSave = append(toSave, pair.New)
		toRetire = append(toRetire, pair.Old.ID())
	}
	for _, old := range diff.Deleted() {
		toRetire = append(toRetire, old.ID())
	}

	if _, err := o.structures.SaveAll(ctx, toSave); err != nil {
		return nil, fmt.Errorf("save structures: %w", err)
	}
	if err := o.structures.DeactivateByIDs(ctx, toRetire); err != nil {
		return nil, fmt.Errorf("retire structures: %w", err)
	}

	changeEvents, err := o.driftEvents(ctx, repo, head, headCommit, diff)
	if err != nil {
		return nil, err
	}
	if _, err := o.events.SaveAll(ctx, changeEvents); err != nil {
		return nil, fmt.Errorf("save change events: %w", err)
	}
	return changeEvents, nil
}

// driftEvents builds one pending event per drifted file that has at least one
// active reference. A file whose structures were all deleted produces a
// deleted event; moves and renames produce their own event types carrying the
// pre-change path, so references citing the old location relocate against the
// new file; any other drift produces a modified event.
func (o *Orchestrator) driftEvents(ctx context.Context, repo repository.Repository, head string, headCommit hosting.Commit, diff structure.Diff) ([]event.CodeChangeEvent, error) {
	// refPaths lists every path whose active references the event names; for
	// a moved file that is both the vacated and the receiving path.
	type drift struct {
		changeType event.ChangeType
		refPaths   []string
		oldPath    string
	}

	changed := make(map[string]drift)
	for _, old := range diff.Deleted() {
		changed[old.FilePath()] = drift{changeType: event.ChangeDeleted, refPaths: []string{old.FilePath()}}
	}
	for _, pair := range diff.Modified() {
		changed[pair.New.FilePath()] = drift{changeType: event.ChangeModified, refPaths: []string{pair.New.FilePath()}}
	}
	for _, pair := range diff.Moved() {
		changed[pair.New.FilePath()] = drift{
			changeType: event.ChangeMoved,
			refPaths:   []string{pair.Old.FilePath(), pair.New.FilePath()},
			oldPath:    pair.Old.FilePath(),
		}
	}
	for _, pair := range diff.Renamed() {
		d := drift{changeType: event.ChangeRenamed, refPaths: []string{pair.New.FilePath()}}
		if pair.Old.FilePath() != pair.New.FilePath() {
			d.refPaths = []string{pair.Old.FilePath(), pair.New.FilePath()}
			d.oldPath = pair.Old.FilePath()
		}
		changed[pair.New.FilePath()] = d
	}
	for _, added := range diff.Added() {
		if _, exists := changed[added.FilePath()]; !exists {
			changed[added.FilePath()] = drift{changeType: event.ChangeModified, refPaths: []string{added.FilePath()}}
		}
	}

	var events []event.CodeChangeEvent
	for path, d := range changed {
		var ids []string
		seen := make(map[string]bool)
		for _, refPath := range d.refPaths {
			refs, err := o.references.ActiveByFile(ctx, repo.Owner(), repo.Name(), refPath)
			if err != nil {
				return nil, fmt.Errorf("look up references for %s: %w", refPath, err)
			}
			for _, ref := range refs {
				if !seen[ref.ID()] {
					seen[ref.ID()] = true
					ids = append(ids, ref.ID())
				}
			}
		}
		if len(ids) == 0 {
			continue
		}
		ev := event.New(repo.FullName(), path, d.changeType, head, headCommit.Author.Date, ids)
		if d.oldPath != "" {
			ev = ev.WithOldFilePath(d.oldPath)
		}
		events = append(events, ev)
	}
	return events, nil
}

// assessDocImpact asks the advisor whether documentation likely needs an
// update. Best effort: an advisor error falls back to the deterministic rule
// and never fails the job.
func (o *Orchestrator) assessDocImpact(ctx context.Context, repo repository.Repository, diff structure.Diff) {
	var assessment advisor.Assessment
	var err error
	if o.advisor != nil {
		assessment, err = o.advisor.Assess(ctx, repo.FullName(), diff)
	}
	if o.advisor == nil || err != nil {
		if err != nil {
			o.logger.Warn("advisor unavailable, using fallback",
				slog.String("repository", repo.FullName()),
				slog.String("error", err.Error()),
			)
		}
		assessment = advisor.Fallback(diff)
	}

	o.logger.Info("documentation impact assessed",
		slog.String("repository", repo.FullName()),
		slog.Bool("should_update", assessment.ShouldUpdate),
		slog.Float64("confidence", assessment.Confidence),
		slog.String("summary", assessment.Summary),
	)
}

// setStage publishes a stage checkpoint to the progress registry.
func (o *Orchestrator) setStage(job syncjob.Job, stage syncjob.Stage, message string) {
	o.registry.Set(syncjob.Progress{
		JobID:    job.ID(),
		Stage:    stage,
		Progress: stage.BaseProgress(),
		Message:  message,
	})
}
