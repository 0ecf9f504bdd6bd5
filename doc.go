// Package portal is the Go client for the Syntax Club portal API. It owns
// the session plumbing every resource service depends on and exposes typed
// services for the Arvantis festival, events, members, tickets, contacts,
// and social posts.
//
// Session lifecycle:
//   - The access token lives in one persisted slot (tokenstore). The refresh
//     token never touches the client; it rides in an HTTP-only cookie the
//     server manages. An empty slot is the definition of a logged-out
//     client.
//   - Session centralizes the auth state graph (idle, loading, anonymous,
//     member, admin) and is the only component allowed to mutate it. Views
//     subscribe to snapshots; actions such as LoginMember or Logout drive
//     the transitions.
//   - Revalidate bootstraps a session from whatever the slot holds: expired
//     or missing tokens are refreshed through the admin then member refresh
//     endpoints before the matching who-am-I call populates the user.
//
// Transport:
//   - Two HTTP clients share a base URL and cookie jar. The public client
//     never attaches credentials; the authenticated client attaches the
//     stored bearer token and replays a request once after a single-flight
//     token refresh when it receives a 401.
//
// Construction:
//   - New wires storage, token store, transport, services, and session from
//     a Config. Every dependency can be swapped through options, which is
//     how tests inject in-memory storage and stub servers.
package portal
