// Package staart provides the security core for a multi tenant
// account/organization backend: purpose scoped bearer tokens, a
// capability based authorization engine, and the service flows that
// consume them (authentication, email management, organization
// management, billing pass-through).
//
// Tokens:
//   - TokenCodec signs and verifies purpose tagged JWTs with a single
//     process wide HMAC key injected through Config. TokenIssuer exposes
//     one constructor per purpose (session, refresh, email verify,
//     password reset, approve location) and TokenVerifier enforces that
//     a token is only accepted by the flow it was issued for.
//
// Authorization:
//   - CapabilityEngine answers "may actor X do action A on resource R"
//     as a plain boolean, computed fresh from membership state on every
//     call. Absence of permission is a normal false; callers translate
//     it into ErrInsufficientPermission at the boundary.
//
// Activity sinks:
//   - ActivitySink is a best-effort audit emitter used by the login
//     response builder and the service flows. Sink errors are logged and
//     never fail the request.
package staart
