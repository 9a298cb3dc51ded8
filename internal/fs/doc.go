// Package fs provides the filesystem abstraction used by the on-disk block
// cache, with a fault-injecting wrapper for tests.
//
//   - [LocalFS]: production implementation using the os package
//   - [FaultyFS]: fails writes, syncs or renames and corrupts reads for files
//     matching a name pattern
//
// Tests inject a [FaultyFS] to simulate failures:
//
//	ffs := fs.NewFaultyFS(nil)
//	ffs.AddRule("Item_0", fs.Fault{FailAfterBytes: 16})
//
// Operations take no context: local file operations are not interruptible at
// the syscall level.
package fs
