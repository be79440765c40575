// Package metrics provides constants used across metric definitions.
package metrics

import "time"

// Operation label values for collaborator API calls.
const (
	OpLoadMarkers     = "load_markers"
	OpLoadCommunities = "load_communities"
	OpCreate          = "create"
	OpUpdateStatus    = "update_camera_status"
	OpJoinCommunity   = "join_community"
	OpMembers         = "members"
	OpUploadPhotos    = "upload_photos"
	OpRegisterUser    = "register_user"
)

// Status label values.
const (
	StatusSuccess  = "success"
	StatusError    = "error"
	StatusRejected = "rejected"
	StatusStale    = "stale"
)

// Cache result label values.
const (
	CacheHit    = "hit"
	CacheMiss   = "miss"
	CacheShared = "shared"
)

// Histogram bucket configuration.
const (
	BucketStart1ms  = 0.001
	BucketStart64B  = 64.0
	BucketStart100B = 100.0

	BucketFactor2  = 2
	BucketFactor10 = 10

	BucketCount6  = 6
	BucketCount10 = 10
	BucketCount12 = 12
)

// ShutdownTimeout bounds graceful shutdown of metric-serving endpoints.
const ShutdownTimeout = 5 * time.Second
