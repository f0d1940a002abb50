package service

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/felipe2640/garantias-service/internal/domain"
	"github.com/felipe2640/garantias-service/internal/repository"
	apperrors "github.com/felipe2640/garantias-service/pkg/util"
)

const maxStageAttachments = 3

// StageSummary is the reconstructed view of one stage the ticket passed through.
type StageSummary struct {
	Status       domain.TicketStatus
	ActorName    string
	CompletedAt  time.Time
	LastTimeline *domain.TimelineEntry
	Attachments  []domain.Attachment
}

// SummaryService rebuilds per-stage summaries from the stage history, timeline,
// and attachment logs.
//
// Attribution is window-based: each stage owns the interval between the previous
// stage's completion and its own. It assumes timeline and attachment timestamps
// order consistently with stage transitions; a client with a skewed clock can
// get a note attributed to a neighboring stage. Accepted as an approximation.
type SummaryService struct {
	tickets     repository.TicketRepository
	stages      repository.StageHistoryRepository
	timeline    repository.TimelineRepository
	attachments repository.AttachmentRepository
}

// SummaryDependencies bundles the read-only collaborators.
type SummaryDependencies struct {
	TicketRepo     repository.TicketRepository
	StageRepo      repository.StageHistoryRepository
	TimelineRepo   repository.TimelineRepository
	AttachmentRepo repository.AttachmentRepository
}

// NewSummaryService constructs the service.
func NewSummaryService(deps SummaryDependencies) *SummaryService {
	return &SummaryService{
		tickets:     deps.TicketRepo,
		stages:      deps.StageRepo,
		timeline:    deps.TimelineRepo,
		attachments: deps.AttachmentRepo,
	}
}

// StageSummaries returns one summary per stage ever reached, in chronological
// order.
func (s *SummaryService) StageSummaries(ctx context.Context, ticketID, tenantID string) ([]StageSummary, error) {
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("ticket", nil)
		}
		return nil, err
	}
	if ticket.TenantID != tenantID {
		return nil, apperrors.NewNotFound("ticket", nil)
	}

	stages, err := s.stages.ListByTicket(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	timeline, err := s.timeline.ListByTicket(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	attachments, err := s.attachments.ListByTicket(ctx, ticketID)
	if err != nil {
		return nil, err
	}

	return BuildStageSummaries(stages, timeline, attachments), nil
}

// BuildStageSummaries is the pure aggregation over already-loaded records.
// Stages are expected sorted by completion time; the window of stage i is
// (stage[i-1].CompletedAt, stage[i].CompletedAt], open-ended at the start for
// the first stage.
func BuildStageSummaries(stages []domain.StageRecord, timeline []domain.TimelineEntry, attachments []domain.Attachment) []StageSummary {
	summaries := make([]StageSummary, 0, len(stages))
	var windowStart time.Time

	for _, stage := range stages {
		windowEnd := stage.CompletedAt
		summary := StageSummary{
			Status:      stage.Status,
			ActorName:   stage.ActorName,
			CompletedAt: stage.CompletedAt,
		}

		for i := len(timeline) - 1; i >= 0; i-- {
			if !timeline[i].CreatedAt.After(windowEnd) {
				entry := timeline[i]
				summary.LastTimeline = &entry
				break
			}
		}

		for _, attachment := range attachments {
			if len(summary.Attachments) == maxStageAttachments {
				break
			}
			if attachment.CreatedAt.After(windowStart) && attachment.CreatedAt.Before(windowEnd) {
				summary.Attachments = append(summary.Attachments, attachment)
			}
		}

		summaries = append(summaries, summary)
		windowStart = windowEnd
	}
	return summaries
}
