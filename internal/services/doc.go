// Package services defines the [CollectionService] interface for remote
// favorites collections and implements it against the bilibili REST API.
//
// # CollectionService Interface
//
// The sync engine depends only on the interface, so tests substitute an
// in-memory fake and never touch the network.
//
// # Bilibili Implementation
//
// [BilibiliService] talks to api.bilibili.com with an explicitly constructed
// header set (User-Agent, Referer, optional Cookie) taken from configuration.
// There is no shared global session; every request carries the same headers.
//
// Membership listing is paginated 20 items at a time ordered by collection
// time. A service error mid-pagination (private collection, auth, network)
// yields the items accumulated so far with the snapshot's Partial flag set,
// so callers can distinguish "empty collection" from "listing failed".
//
// Stream resolution is a two-step lookup: the view endpoint yields the item's
// first page cid, then the playurl endpoint yields DASH video/audio URLs,
// falling back to the legacy combined durl format when DASH is unavailable.
//
// # Error Handling
//
// Services use typed errors from the shared package:
//   - [shared.ErrAPIRequest] : HTTP request failed or non-zero API code
//   - [shared.ErrCollectionPrivate] : collection requires login (-403)
//   - [shared.ErrNoStreams] : playurl returned no usable stream URLs
package services
