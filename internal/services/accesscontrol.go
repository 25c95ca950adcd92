package services

import (
	"context"

	"github.com/balaghcms/notification-service/internal/models"
)

// AccessFilter decides which of a caller-proposed recipient list the sender
// is actually allowed to notify. Notifications flow only between a village's
// secondary admin and its village editors, in both directions; every other
// role/village combination resolves to an empty set. The candidate list is
// untrusted input and is intersected with the directory-derived allowed set.
type AccessFilter struct {
	directory Directory
}

func NewAccessFilter(directory Directory) *AccessFilter {
	return &AccessFilter{directory: directory}
}

// FilterRecipients returns the allowed subset of candidates, preserving
// candidate order. It fails with ErrSenderNotFound when senderEmail has no
// user record; an empty result is not an error, it just means there is
// nothing to send.
func (f *AccessFilter) FilterRecipients(ctx context.Context, senderEmail string, candidates []string) ([]string, error) {
	sender, err := f.directory.UserByEmail(ctx, senderEmail)
	if err != nil {
		return nil, err
	}

	var counterpartRole string
	switch {
	case sender.Role == models.RoleSecondary && sender.AssignedVillageID != "":
		counterpartRole = models.RoleVillageEditor
	case sender.Role == models.RoleVillageEditor && sender.AssignedVillageID != "":
		counterpartRole = models.RoleSecondary
	default:
		// Deny by default: main admins, users without a village and
		// unrecognized roles dispatch nothing.
		return []string{}, nil
	}

	counterparts, err := f.directory.UsersByRoleAndVillage(ctx, counterpartRole, sender.AssignedVillageID)
	if err != nil {
		return nil, err
	}

	allowed := make(map[string]bool, len(counterparts))
	for _, user := range counterparts {
		allowed[user.Email] = true
	}

	filtered := make([]string, 0, len(candidates))
	for _, email := range candidates {
		if allowed[email] {
			filtered = append(filtered, email)
		}
	}
	return filtered, nil
}
