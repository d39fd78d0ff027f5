// Package http serves the sessions API behind an assembled middleware chain.
//
// # Middleware chain
//
// Assemble turns an auth.Descriptor into a Chain of exactly two layers:
//
//  1. context: assigns a request id and logs every request on completion,
//     rejected ones included, with the authentication outcome
//  2. auth: the first gate before any route
//
// For remote-oidc descriptors the auth layer runs, per request:
//
//	exempt path?          -> pass
//	token present?        no  -> 401 not_authenticated
//	token cached valid?   yes -> pass with the cached identity
//	validate with issuer  ok  -> cache until expiry, pass
//	                      ErrCredentialInvalid -> 401 credential_invalid
//	                      ErrIssuerUnreachable -> 503 issuer_unreachable
//
// Validations are never retried. Concurrent validations of the same token
// share one issuer round trip. For local-passthrough descriptors the auth
// layer attaches the configured local identity to every request.
//
// # Routes
//
//	GET    /healthz
//	GET    /openapi-docs
//	GET    /applications/healthz
//	GET    /applications/{package}/{name}
//	POST   /applications/{package}/{name}
//	DELETE /applications/{package}/{name}
//	GET    /applications/{namespace}/{package}/{name}   (namespace starts with @)
//	POST   /applications/{namespace}/{package}/{name}
//	DELETE /applications/{namespace}/{package}/{name}
//
// Sessions are scoped to the caller: the same key addresses a different
// document for every identity. Reading a session never stored returns {}.
//
// # Usage
//
//	chain, err := http.Assemble(desc, cache, policy)
//	if err != nil {
//	    return err
//	}
//	handler := http.NewHandler(&http.HandlerConfig{Chain: chain}, service)
//	srv := &nethttp.Server{Addr: ":8080", Handler: handler.Router()}
package http
