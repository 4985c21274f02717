package user

import "context"

type ProfileRepository interface {
	GetByID(ctx context.Context, id string) (Profile, error)
	// ListIDsByRole returns the ids of every profile with the given role
	ListIDsByRole(ctx context.Context, role Role) ([]string, error)
}
