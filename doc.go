// Package sessions persists named session documents for authenticated callers.
//
// A session is an opaque JSON blob addressed by the caller identity, an
// application package and a session name. The package defines the capabilities
// the service consumes from its collaborators and a thin SessionService that
// routes session operations to the storage capability.
//
// # Capabilities
//
//   - Storage: Put, Get, Delete and Exists keyed by path inside a bucket bound at construction
//   - Cache: Get, Set and TTL for small values, used to remember validated tokens
//   - Identity: the authenticated caller, carried in the request context
//
// Concrete implementations live in sub-packages: filesystem (local bucket),
// bucket (remote bucket service), cache (redis and in-process). The config
// package selects and wires them per deployment environment.
//
// # Example Usage
//
//	service, err := sessions.NewSessionService(storage)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	key := sessions.SessionKey{Package: "@youwol/explorer", Name: "layout"}
//	err = service.Put(ctx, identity, key, []byte(`{"panels":2}`))
//	data, err := service.Get(ctx, identity, key)
package sessions
