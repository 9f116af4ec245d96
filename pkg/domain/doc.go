// Package domain contains the core domain entities and types used by the
// waitlist service. These types represent the business concepts (subscribers,
// the cached subscriber count and signup outcomes) and are intentionally free
// of infrastructure concerns so they can be shared across packages.
package domain
