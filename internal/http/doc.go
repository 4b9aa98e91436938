// Package http provides HTTP handlers and middleware for the free-time API.
//
// The router exposes the following endpoints:
//   - POST /sessions: issues a session token. Body: {"email","password"}. Response:
//     {"token","expires_at","principal":{"user_id","is_admin"}} with the token also
//     surfaced via the `X-Session-Token` header and a `session_token` cookie.
//   - DELETE /sessions/current: revokes the current session token extracted from the
//     Authorization header or session cookie. Returns 204 No Content and clears the cookie.
//   - GET /users, POST /users, GET /users/{id}, PUT /users/{id}, DELETE /users/{id}:
//     member account management endpoints exchanging the `userDTO` payload defined in
//     user_handler.go. Mutations other than self edits require admin privileges.
//   - GET /commitments, POST /commitments, GET /commitments/{id}, PUT /commitments/{id},
//     DELETE /commitments/{id}: occupied-interval endpoints exchanging the
//     `commitmentDTO` payload defined in commitment_handler.go. Recurring commitments
//     carry a recurrence rule (frequency, interval, optional until).
//   - GET /availability/self?range_start=&range_end=&min_duration_minutes=: the
//     caller's derived free intervals within the range. Admins may pass owner_id to
//     inspect another member.
//   - POST /availability/group: overlapping free time for a participant set plus
//     ranked meeting suggestions. Body fields are documented on
//     `groupAvailabilityRequest` in availability_handler.go.
//
// Request/response DTOs live alongside their respective handlers so tests and
// documentation share the same ground truth.
package http
