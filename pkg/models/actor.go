package models

import "assetdesk/pkg/metadata"

// Actor is the resolved acting user attached to each request by the JWT
// middleware. Lifecycle services only ever see this, never the raw request.
type Actor struct {
	ID       int
	Username string
	Role     metadata.Role
	Location metadata.Location
}
