// Package ui contains the Bubble Tea program that powers the chat client.
// The Model type focuses on message orchestration, while dedicated helpers
// own routing, polling, input, rendering and direct actions.
//
// Message flow:
//   - Bubble Tea invokes Model.Update with incoming messages.
//   - Update gives key presses to the login screen while logged out, or to an
//     open prompt. Everything else is routed through a typed handler registry
//     so each tea.Msg is handled by a focused function.
//   - Every network call runs as a tea.Cmd on the command bus and reports back
//     as a message. Handlers re-check the state they depend on before applying
//     a response, because the user may have moved on while it was in flight.
//
// State ownership:
//   - The view state (internal/state.View) is written only by the router
//     (router.go), and only once a navigation's fetch succeeded. A newer
//     navigation supersedes an older one; the older response is dropped.
//   - History (internal/history) is pushed by user navigation and walked by
//     back and forward, which rebuild the view from the entry alone.
//   - The poll scheduler (internal/poll) owns the message and unread loops.
//     The router starts and stops them as the view changes; poll handlers
//     drop ticks and results that no longer match the open view.
//   - Channels and the open transcript live in internal/state stores, kept
//     current by the dispatcher from poll results.
//
// Errors:
//   - Poll failures are traced and otherwise ignored.
//   - A failed navigation or action leaves the view unchanged and shows the
//     error; an *api.AuthError logs the user out.
package ui
