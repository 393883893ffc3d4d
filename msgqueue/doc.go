// Package msgqueue implements a cross-goroutine message queue that may be
// registered with a [github.com/joeycumines/go-waitset.WaitSet], which is
// the usual way to wake a wait set from another goroutine.
//
// The queue is backed by an eventfd on Linux, a pipe on macOS, and a
// manual-reset event on Windows.
package msgqueue
