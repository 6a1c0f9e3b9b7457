package service

import (
	"context"

	"activities-web/internal/domain"
)

// ActivitiesAPI defines the calls made against the external activities API.
// Failures are *errors.AppError values of type network or rejected.
type ActivitiesAPI interface {
	// ListActivities fetches the full activity map in API order
	ListActivities(ctx context.Context) (domain.Catalog, error)

	// Signup registers email for the named activity and returns the server message
	Signup(ctx context.Context, activity, email string) (string, error)

	// Unregister removes email from the named activity and returns the server message
	Unregister(ctx context.Context, activity, email string) (string, error)
}
