// internal/service/contributor.go
// Contributor lifecycle: submission, decision, the public directory and
// profile pages, and follow edges.
package service

import (
	"context"
	stderrors "errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/Kb28022004/toperNoteBackend/internal/cache"
	"github.com/Kb28022004/toperNoteBackend/internal/errors"
	"github.com/Kb28022004/toperNoteBackend/internal/event"
	"github.com/Kb28022004/toperNoteBackend/internal/model"
	"github.com/Kb28022004/toperNoteBackend/internal/rules"
	"github.com/Kb28022004/toperNoteBackend/internal/storage"
)

// SubmitForReview records an academic submission and moves the profile to
// Pending. Approved profiles cannot resubmit; rejected ones can. The pending
// review queue is not invalidated here; it catches up within its TTL.
func (s *Service) SubmitForReview(ctx context.Context, viewer model.Viewer, record model.SubmissionRecord, raw []byte) (*model.ContributorProfile, error) {
	if viewer.IsAnonymous() {
		return nil, errors.Authn("sign in to submit a topper application")
	}
	if err := s.validator.ValidateContributorSubmission(raw); err != nil {
		return nil, errors.NewWithDetails(errors.MKT_SCHEMA_REJECT,
			"submission failed validation", "", err.Error())
	}
	if record.MarksheetPath == "" {
		return nil, errors.Validation("marksheet upload is required")
	}
	if rules.ResolveTrack(record.Class, record.Stream) == rules.TrackUnknown {
		return nil, errors.Validation(
			fmt.Sprintf("unrecognized class/stream combination %q/%q", record.Class, record.Stream))
	}

	if existing, err := s.store.GetProfileByUser(ctx, viewer.UserID); err == nil {
		switch existing.Status {
		case model.ProfileApproved:
			return nil, errors.State("profile is already approved")
		case model.ProfilePending:
			return nil, errors.State("profile is already pending review")
		}
	} else if !stderrors.Is(err, storage.ErrNotFound) {
		return nil, errors.Dependency("load profile", err)
	}

	profile := model.ContributorProfile{
		ID:            uuid.NewString(),
		UserID:        viewer.UserID,
		FirstName:     record.FirstName,
		LastName:      record.LastName,
		Class:         record.Class,
		Stream:        record.Stream,
		Board:         record.Board,
		SubjectMarks:  record.SubjectMarks,
		MarksheetPath: record.MarksheetPath,
		Achievements:  record.Achievements,
		Status:        model.ProfilePending,
	}
	saved, err := s.store.UpsertProfile(ctx, profile)
	if err != nil {
		return nil, errors.Dependency("save submission", err)
	}
	return saved, nil
}

// DecideContributor applies an admin decision to a pending profile.
// Approval is gated by the rule engine: approving an ineligible record
// results in a rejection carrying the engine's reason. Rejection is not
// engine-gated. Invalidation of the review queues and the directory happens
// only after the decision is durable.
func (s *Service) DecideContributor(ctx context.Context, admin model.Viewer, profileID string, approve bool, remark string) (*model.ContributorProfile, error) {
	if admin.Role != model.RoleAdmin {
		return nil, errors.Authz("only admins decide applications")
	}
	profile, err := s.store.GetProfile(ctx, profileID)
	if err != nil {
		if stderrors.Is(err, storage.ErrNotFound) {
			return nil, errors.NotFound("application not found")
		}
		return nil, errors.Dependency("load profile", err)
	}
	if profile.Status != model.ProfilePending {
		return nil, errors.State(
			fmt.Sprintf("application is %s, only pending applications can be decided", profile.Status))
	}

	status := model.ProfileRejected
	verified := false
	if approve {
		verdict := rules.Evaluate(*profile)
		if verdict.Eligible {
			status = model.ProfileApproved
			verified = true
		} else {
			remark = verdict.Reason
		}
	}

	if err := s.store.UpdateProfileDecision(ctx, profileID, status, remark, verified); err != nil {
		return nil, errors.Dependency("record decision", err)
	}
	s.metrics.ProfileDecisionsTotal.WithLabelValues(string(status)).Inc()

	s.cache.Invalidate(ctx,
		cache.ListingKey(model.ProfilePending),
		cache.ListingKey(status),
		cache.DirectoryKey(),
	)
	s.publish(ctx, event.TypeContributorDecided, event.ContributorDecided{
		ProfileID:     profile.ID,
		ContributorID: profile.UserID,
		Status:        string(status),
		Remark:        remark,
	})

	profile.Status = status
	profile.AdminRemark = remark
	profile.Verified = verified
	return profile, nil
}

// ListContributorsByStatus serves the admin review queue through the cache.
func (s *Service) ListContributorsByStatus(ctx context.Context, admin model.Viewer, status model.ProfileStatus) ([]model.ListingEntry, error) {
	if admin.Role != model.RoleAdmin {
		return nil, errors.Authz("only admins view the review queue")
	}

	entries, err := cache.GetOrCompute(ctx, s.cache, cache.ListingKey(status), s.opts.TTLs.Listing,
		func(ctx context.Context) ([]model.ListingEntry, error) {
			profiles, err := s.store.ListProfilesByStatus(ctx, status)
			if err != nil {
				return nil, errors.Dependency("list applications", err)
			}
			entries := make([]model.ListingEntry, 0, len(profiles))
			for _, p := range profiles {
				entries = append(entries, model.ListingEntry{
					ID:          p.ID,
					Kind:        "contributor",
					Title:       p.FirstName + " " + p.LastName,
					Class:       p.Class,
					Board:       p.Board,
					Status:      string(p.Status),
					ArtifactURL: p.MarksheetPath, // relative until resolved below
					CreatedAt:   p.CreatedAt,
				})
			}
			return entries, nil
		})
	if err != nil {
		return nil, err
	}

	for i := range entries {
		entries[i].ArtifactURL = s.resolve(ctx, entries[i].ArtifactURL)
	}
	return entries, nil
}

// GetDirectory returns the approved-contributor directory. The heavy
// aggregate is cached once for all viewers; the viewer-dependent class
// filter and URL resolution run on every request.
func (s *Service) GetDirectory(ctx context.Context, viewer model.Viewer) ([]model.DirectoryEntry, error) {
	entries, err := cache.GetOrCompute(ctx, s.cache, cache.DirectoryKey(), s.opts.TTLs.Directory,
		func(ctx context.Context) ([]model.DirectoryEntry, error) {
			return s.buildDirectory(ctx)
		})
	if err != nil {
		return nil, err
	}

	if viewer.Class != "" {
		filtered := make([]model.DirectoryEntry, 0, len(entries))
		for _, e := range entries {
			if e.Class != viewer.Class {
				continue
			}
			if viewer.Stream != "" && e.Stream != "" && e.Stream != viewer.Stream {
				continue
			}
			filtered = append(filtered, e)
		}
		entries = filtered
	}

	for i := range entries {
		entries[i].Photo = s.resolve(ctx, entries[i].Photo)
		for j := range entries[i].LatestNotes {
			entries[i].LatestNotes[j].CoverImage = s.resolve(ctx, entries[i].LatestNotes[j].CoverImage)
			entries[i].LatestNotes[j].PreviewPages = s.resolveAll(ctx, entries[i].LatestNotes[j].PreviewPages)
		}
	}
	return entries, nil
}

func (s *Service) buildDirectory(ctx context.Context) ([]model.DirectoryEntry, error) {
	profiles, err := s.store.ListProfilesByStatus(ctx, model.ProfileApproved)
	if err != nil {
		return nil, errors.Dependency("list contributors", err)
	}

	entries := make([]model.DirectoryEntry, 0, len(profiles))
	for _, p := range profiles {
		latest, err := s.store.ListPublishedByContributor(ctx, p.UserID, 3)
		if err != nil {
			return nil, errors.Dependency("list contributor documents", err)
		}
		cards := make([]model.DocumentCard, 0, len(latest))
		for _, d := range latest {
			cards = append(cards, s.cardFor(d))
		}
		avg, reviews := weightedRating(latest)
		entries = append(entries, model.DirectoryEntry{
			ID:           p.ID,
			UserID:       p.UserID,
			Name:         p.FirstName + " " + p.LastName,
			Photo:        p.PhotoPath,
			Bio:          p.ShortBio,
			Class:        p.Class,
			Stream:       p.Stream,
			Board:        p.Board,
			TotalNotes:   p.Stats.TotalDocuments,
			AvgRating:    avg,
			TotalReviews: reviews,
			LatestNotes:  cards,
		})
	}
	return entries, nil
}

// weightedRating averages per-document ratings weighted by their review
// counts.
func weightedRating(docs []model.Document) (float64, int) {
	var weighted float64
	var count int
	for _, d := range docs {
		weighted += d.Stats.RatingAverage * float64(d.Stats.RatingCount)
		count += d.Stats.RatingCount
	}
	if count == 0 {
		return 0, 0
	}
	return weighted / float64(count), count
}

// GetContributorProfile returns a contributor's public page. The base
// aggregate is cached; the viewer-specific isFollowing bit is recomputed on
// every request so it is correct the moment after a toggle.
func (s *Service) GetContributorProfile(ctx context.Context, viewer model.Viewer, contributorID string) (*model.ProfileView, error) {
	view, err := cache.GetOrCompute(ctx, s.cache, cache.ProfileKey(contributorID), s.opts.TTLs.Profile,
		func(ctx context.Context) (model.ProfileView, error) {
			profile, err := s.store.GetProfileByUser(ctx, contributorID)
			if err != nil {
				if stderrors.Is(err, storage.ErrNotFound) {
					return model.ProfileView{}, errors.NotFound("contributor not found")
				}
				return model.ProfileView{}, errors.Dependency("load contributor", err)
			}
			if profile.Status != model.ProfileApproved {
				return model.ProfileView{}, errors.NotFound("contributor not found")
			}
			latest, err := s.store.ListPublishedByContributor(ctx, contributorID, 3)
			if err != nil {
				return model.ProfileView{}, errors.Dependency("list contributor documents", err)
			}
			cards := make([]model.DocumentCard, 0, len(latest))
			for _, d := range latest {
				cards = append(cards, s.cardFor(d))
			}
			return model.ProfileView{
				UserID:        profile.UserID,
				FullName:      profile.FirstName + " " + profile.LastName,
				Photo:         profile.PhotoPath,
				Verified:      profile.Verified,
				Achievements:  profile.Achievements,
				About:         profile.ShortBio,
				Stats:         profile.Stats,
				LatestUploads: cards,
			}, nil
		})
	if err != nil {
		return nil, err
	}

	if !viewer.IsAnonymous() {
		following, err := s.store.FollowExists(ctx, viewer.UserID, contributorID)
		if err != nil {
			return nil, errors.Dependency("check follow state", err)
		}
		view.IsFollowing = following
	}

	view.Photo = s.resolve(ctx, view.Photo)
	for i := range view.LatestUploads {
		view.LatestUploads[i].CoverImage = s.resolve(ctx, view.LatestUploads[i].CoverImage)
		view.LatestUploads[i].PreviewPages = s.resolveAll(ctx, view.LatestUploads[i].PreviewPages)
	}
	return &view, nil
}

// ToggleFollow flips the viewer's follow edge to a contributor and adjusts
// the follower counter atomically, returning the resulting state.
func (s *Service) ToggleFollow(ctx context.Context, viewer model.Viewer, contributorID string) (bool, error) {
	if viewer.IsAnonymous() {
		return false, errors.Authn("sign in to follow contributors")
	}
	if viewer.UserID == contributorID {
		return false, errors.Validation("cannot follow yourself")
	}
	profile, err := s.store.GetProfileByUser(ctx, contributorID)
	if err != nil {
		if stderrors.Is(err, storage.ErrNotFound) {
			return false, errors.NotFound("contributor not found")
		}
		return false, errors.Dependency("load contributor", err)
	}
	if profile.Status != model.ProfileApproved {
		return false, errors.NotFound("contributor not found")
	}

	exists, err := s.store.FollowExists(ctx, viewer.UserID, contributorID)
	if err != nil {
		return false, errors.Dependency("check follow state", err)
	}

	var following bool
	if exists {
		if err := s.store.DeleteFollow(ctx, viewer.UserID, contributorID); err != nil &&
			!stderrors.Is(err, storage.ErrNotFound) {
			return false, errors.Dependency("remove follow", err)
		}
		if err := s.store.AddProfileCounters(ctx, contributorID, storage.CounterDelta{Followers: -1}); err != nil {
			return false, errors.Dependency("adjust follower count", err)
		}
	} else {
		err := s.store.CreateFollow(ctx, model.FollowEdge{
			FollowerID:  viewer.UserID,
			FollowingID: contributorID,
		})
		switch {
		case err == nil:
			if err := s.store.AddProfileCounters(ctx, contributorID, storage.CounterDelta{Followers: 1}); err != nil {
				return false, errors.Dependency("adjust follower count", err)
			}
		case stderrors.Is(err, storage.ErrConflict):
			// Lost a race with a concurrent follow; the edge exists.
		default:
			return false, errors.Dependency("create follow", err)
		}
		following = true
	}

	s.cache.Invalidate(ctx, cache.ProfileKey(contributorID), cache.DirectoryKey())
	return following, nil
}
