package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/codecite/codecite/domain/citation"
	"github.com/codecite/codecite/domain/event"
	"github.com/codecite/codecite/domain/repository"
	"github.com/codecite/codecite/infrastructure/hosting"
	"github.com/codecite/codecite/infrastructure/relocation"
)

// processBatchSize caps how many pending events one ProcessPending call
// works through.
const processBatchSize = 50

// Pipeline turns verified webhook deliveries into change events and processes
// pending events by relocating the citations they affect.
type Pipeline struct {
	events     EventStore
	references ReferenceStore
	relocator  *relocation.Relocator
	host       hosting.Client
	notifier   Notifier
	secret     []byte
	logger     *slog.Logger
}

// NewPipeline creates a Pipeline. A nil logger falls back to the default
// logger; a nil notifier falls back to the log notifier.
func NewPipeline(
	secret string,
	events EventStore,
	references ReferenceStore,
	relocator *relocation.Relocator,
	host hosting.Client,
	notifier Notifier,
	logger *slog.Logger,
) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	if notifier == nil {
		notifier = NewLogNotifier(logger)
	}
	if relocator == nil {
		relocator = relocation.NewRelocator(nil)
	}
	return &Pipeline{
		events:     events,
		references: references,
		relocator:  relocator,
		host:       host,
		notifier:   notifier,
		secret:     []byte(secret),
		logger:     logger,
	}
}

// HandleWebhook verifies a delivery's signature, parses it, and creates one
// pending event per touched file per commit. Only files with at least one
// active reference produce events. Signature verification happens before any
// state is touched; a failed signature leaves the store unchanged.
func (p *Pipeline) HandleWebhook(ctx context.Context, eventType string, body []byte, signature string) ([]event.CodeChangeEvent, error) {
	if err := event.VerifySignature(p.secret, body, signature); err != nil {
		return nil, err
	}

	payload, err := event.ParsePayload(eventType, body)
	if err != nil {
		return nil, err
	}

	switch payload := payload.(type) {
	case event.PushPayload:
		return p.handlePush(ctx, payload)
	case event.PingPayload:
		p.logger.Info("webhook ping acknowledged", slog.Int64("hook_id", payload.HookID))
		return nil, nil
	default:
		p.logger.Debug("ignoring webhook delivery", slog.String("event_type", payload.EventType()))
		return nil, nil
	}
}

func (p *Pipeline) handlePush(ctx context.Context, payload event.PushPayload) ([]event.CodeChangeEvent, error) {
	fullName := payload.RepositoryFullName()
	owner, name, ok := splitFullName(fullName)
	if !ok {
		return nil, fmt.Errorf("pipeline: malformed repository name %q", fullName)
	}

	var pending []event.CodeChangeEvent
	for _, commit := range payload.Commits {
		touched := make(map[string]event.ChangeType, len(commit.Modified)+len(commit.Added)+len(commit.Removed))
		for _, path := range commit.Added {
			touched[path] = event.ChangeModified
		}
		for _, path := range commit.Modified {
			touched[path] = event.ChangeModified
		}
		for _, path := range commit.Removed {
			touched[path] = event.ChangeDeleted
		}

		for path, changeType := range touched {
			refs, err := p.references.ActiveByFile(ctx, owner, name, path)
			if err != nil {
				return nil, fmt.Errorf("pipeline: look up references for %s: %w", path, err)
			}
			if len(refs) == 0 {
				continue
			}

			ids := make([]string, len(refs))
			for i, ref := range refs {
				ids[i] = ref.ID()
			}
			pending = append(pending, event.New(fullName, path, changeType, commit.ID, commit.Timestamp, ids))
		}
	}

	created, err := p.events.SaveAll(ctx, pending)
	if err != nil {
		return nil, fmt.Errorf("pipeline: save change events: %w", err)
	}

	p.logger.Info("webhook push processed",
		slog.String("repository", fullName),
		slog.Int("commits", len(payload.Commits)),
		slog.Int("events_created", len(created)),
	)
	return created, nil
}

// ProcessPending works through up to 50 pending events, oldest first,
// sequentially. Each event moves pending→processing before its references
// are relocated, then lands on completed or failed. A failing event never
// aborts the batch and is not retried automatically.
func (p *Pipeline) ProcessPending(ctx context.Context) (processed, failed int, err error) {
	batch, err := p.events.OldestPending(ctx, processBatchSize)
	if err != nil {
		return 0, 0, fmt.Errorf("pipeline: load pending events: %w", err)
	}

	for _, ev := range batch {
		if err := ctx.Err(); err != nil {
			return processed, failed, err
		}

		processing, err := ev.StartProcessing()
		if err != nil {
			p.logger.Warn("skipping unprocessable event",
				slog.String("event_id", ev.ID()),
				slog.String("error", err.Error()),
			)
			continue
		}
		if processing, err = p.events.Save(ctx, processing); err != nil {
			return processed, failed, fmt.Errorf("pipeline: persist processing state: %w", err)
		}

		outcome, procErr := p.processEvent(ctx, processing)
		if procErr != nil {
			outcome, _ = processing.Fail(procErr)
			failed++
		}
		if _, err := p.events.Save(ctx, outcome); err != nil {
			return processed, failed, fmt.Errorf("pipeline: persist event outcome: %w", err)
		}
		processed++
	}
	return processed, failed, nil
}

// processEvent relocates every reference the event names and returns the
// completed event. Errors cross the boundary only for store failures; a
// reference that cannot be relocated is marked stale, not an error.
func (p *Pipeline) processEvent(ctx context.Context, ev event.CodeChangeEvent) (event.CodeChangeEvent, error) {
	owner, name, ok := splitFullName(ev.Repository())
	if !ok {
		return ev, fmt.Errorf("malformed repository name %q", ev.Repository())
	}

	for _, refID := range ev.AffectedReferences() {
		ref, err := p.references.FindOne(ctx, repository.WithID(refID))
		if err != nil {
			return ev, fmt.Errorf("load reference %s: %w", refID, err)
		}

		if ev.Type() == event.ChangeDeleted {
			if err := p.markConflict(ctx, ref, ev, ConflictDeleted, "cited file removed"); err != nil {
				return ev, err
			}
			continue
		}

		content := ev.NewContent()
		if content == "" {
			content, err = p.host.FileContent(ctx, owner, name, ev.FilePath(), ev.CommitHash())
			if errors.Is(err, hosting.ErrFileAbsent) {
				if err := p.markConflict(ctx, ref, ev, ConflictDeleted, "cited file absent at commit"); err != nil {
					return ev, err
				}
				continue
			}
			if err != nil {
				return ev, fmt.Errorf("fetch %s at %s: %w", ev.FilePath(), ev.CommitHash(), err)
			}
		}

		result := p.relocator.Relocate(ref, content)
		switch result.Outcome {
		case relocation.OutcomeUnchanged:
			// Citation still matches; nothing to persist.
		case relocation.OutcomeRelocated:
			moved := ref.RelocateTo(result.Span.StartLine, result.Span.EndLine, result.Content, ev.CommitHash())
			if _, err := p.references.Save(ctx, moved); err != nil {
				return ev, fmt.Errorf("save relocated reference %s: %w", refID, err)
			}
		default:
			detail := fmt.Sprintf("best match confidence %.3f", result.Confidence)
			if err := p.markConflict(ctx, ref, ev, ConflictModified, detail); err != nil {
				return ev, err
			}
		}
	}

	return ev.Complete()
}

// markConflict records the conflict on the reference and notifies. A deleted
// cited file deactivates the reference; a modified one only flags it stale.
func (p *Pipeline) markConflict(ctx context.Context, ref citation.Reference, ev event.CodeChangeEvent, t ConflictType, detail string) error {
	updated := ref.MarkStale()
	if t == ConflictDeleted {
		updated = ref.Deactivate()
	}
	if _, err := p.references.Save(ctx, updated); err != nil {
		return fmt.Errorf("mark reference %s conflicted: %w", ref.ID(), err)
	}
	p.notifier.NotifyConflict(ctx, Conflict{
		ReferenceID: ref.ID(),
		Repository:  ev.Repository(),
		FilePath:    ev.FilePath(),
		Type:        t,
		Detail:      detail,
	})
	return nil
}

// Requeue resets a failed event to pending so the next processing pass picks
// it up. Failed events are never retried automatically.
func (p *Pipeline) Requeue(ctx context.Context, eventID string) (event.CodeChangeEvent, error) {
	ev, err := p.events.FindOne(ctx, repository.WithID(eventID))
	if err != nil {
		return event.CodeChangeEvent{}, err
	}
	requeued, err := ev.Requeue()
	if err != nil {
		return event.CodeChangeEvent{}, err
	}
	return p.events.Save(ctx, requeued)
}

func splitFullName(fullName string) (owner, name string, ok bool) {
	owner, name, ok = strings.Cut(fullName, "/")
	return owner, name, ok && owner != "" && name != ""
}
