// Package auth is the session core of the GreenNest site: a process-scoped
// session store fed by an external identity gateway, the auth actions a UI
// may invoke against that gateway, and a route guard that gates navigation
// on the store's authoritative state.
//
// The gateway's observation feed is the single source of truth. Actions
// never mutate the store directly; their effects come back through the
// feed once the provider confirms them, so the UI's view of the session
// can never diverge from what the provider believes.
package auth
