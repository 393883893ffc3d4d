// Package waitset implements a level-triggered readiness multiplexer, over
// the native facility of each supported platform.
//
// A [WaitSet] is created with a fixed capacity, then populated with
// [Waitable] sources, each registered with an interest ([ReadyRead],
// [ReadyWrite]) and an opaque token. [WaitSet.Wait] and
// [WaitSet.WaitTimeout] block until at least one source is ready, returning
// one [Event] per ready source, carrying its token.
//
// # Platform Support
//
//   - Linux: epoll
//   - macOS: kqueue
//   - Windows: WaitForMultipleObjects, limited to 64 waitables per set
//
// The behavior is the same on every platform. Error readiness is always
// reported. Interruption by signals is retried internally, and timeouts of
// any length are supported, even where they exceed the native limit. A wait
// never returns before the timeout has elapsed, unless a source triggered.
//
// # Ownership
//
// A WaitSet is owned by a single goroutine. A waitable may be registered in
// at most one wait set at a time. It must be removed before it is closed,
// which is enforced by [Base.Detach]. The [github.com/joeycumines/go-waitset/msgqueue]
// package provides a waitable that may be used to wake a wait set from
// other goroutines.
//
// # Errors
//
// Misuse is reported by errors matching [ErrLogic], which are never
// transient. Failures of the native facility are reported as
// [*ResourceError], [*RegistrationError] or [*WaitError].
package waitset
