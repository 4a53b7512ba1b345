// Package http provides HTTP handlers and middleware for the meetup API.
//
// Every JSON response is an envelope {"success","message","data"}; failures
// carry {"success":false,"message","code","errors","detail"} where detail is
// only present outside production.
//
// The router exposes the following endpoints:
//   - POST /api/auth/register, POST /api/auth/login: body {"name","phone"};
//     data {"userId","name","phone","isApproved","isAdmin","token"} where token
//     is null for members awaiting approval.
//   - GET /api/auth/me: the member behind the bearer token.
//   - GET /api/schedules?year=&month=, POST /api/schedules,
//     GET|PUT|DELETE /api/schedules/{id}: schedules exchanging the
//     `scheduleDTO` payload defined in schedule_handler.go. Updates and deletes
//     are limited to the creator and administrators.
//   - POST|DELETE /api/schedules/{id}/participate: set or withdraw the caller's
//     answer; the /{userId} variants let administrators act for a member.
//   - GET /api/schedules/my-participations: schedules the caller answered.
//   - GET /api/users, GET /api/users/pending, PATCH /api/users/{id}/approve,
//     PATCH /api/users/{id}/revoke, PUT /api/users/{id}, DELETE /api/users/{id}:
//     administrator controlled member management.
//   - GET /health and GET /metrics: liveness and Prometheus exposition.
//
// Request/response DTOs live alongside their respective handlers so tests and
// documentation share the same ground truth.
package http
