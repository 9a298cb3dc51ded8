// Package async provides shared, memoized results of background computations.
//
// A Future is completed exactly once; every waiter observes the same value or
// error. Abandoning a wait (context cancellation) never cancels the
// computation itself.
//
// A Registry owns background initializers by id. The spawned task looks its
// initializer up by id before publishing, so dropping an initializer simply
// discards the result without any back-reference from the task to its owner.
package async
