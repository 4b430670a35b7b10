// Package access decides whether an inbound request may reach its handler.
//
// A decision is made in two steps:
//   - the Resolver turns a bearer token into a models.Principal
//   - the Engine runs the fixed stage pipeline against the route's metadata:
//     authentication, public exemption, role, ownership
//
// Route metadata lives in a RouteTable built once at startup. Every route
// declares either Public or a non-empty role set; a route missing from the
// table, or declaring no roles, is denied.
package access
