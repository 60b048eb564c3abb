// Package relay forwards chat messages to a hosted assistant service and
// waits synchronously for the reply.
//
// A single request flows through six steps: ensure a conversation thread,
// submit the user message, start an assistant run, poll the run status at a
// fixed interval until it settles, fetch the newest thread message, and
// return it to the caller. The remote service owns all conversation state;
// the relay only records a local audit trail of threads and runs.
//
// Failure handling is deliberately flat. The only non-200 statuses a caller
// can observe are 405 for non-POST requests and 500 for everything else,
// with a short stable message in the "error" field. Full error detail goes
// to the structured log, never to the caller.
//
// When the poll budget is exhausted the run is still executing remotely;
// the relay cancels it (unless configured not to) before reporting the
// timeout.
package relay
