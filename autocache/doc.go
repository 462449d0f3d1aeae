// Package autocache memoizes function results across process restarts.
//
// # Overview
//
// A decorated function is registered together with a cache.Signature that
// names its parameters. Every call binds its arguments to that signature,
// derives a storage key from the function identity and the bound values, and
// routes the lookup through the tiers selected at Wrap time.
//
// # Tiers
//
//   - disk: one gzip compressed blob per argument combination under Root
//   - memory: a per-function map that lives as long as the process
//   - memory+disk: memory in front of disk, so a warm disk refills memory
//   - timed: a per-function map whose entries go stale after Duration
//   - none: calls pass straight through to the compute function
//
// Disk is on by default. A Duration selects the timed tier and cannot be
// combined with disk.
//
// # Basic Usage
//
//	sig := cache.NewSignature(cache.Arg("account"), cache.Arg("month")).
//		Named("banks/starling", "statements")
//
//	statements, err := autocache.Wrap(sig, fetchStatements,
//		cache.WithFilepattern("{account}/{month:%Y-%m}"))
//	if err != nil {
//		return err
//	}
//
//	// Computes and writes .cache/banks/starling/statements/acc-1/2024-01
//	rows, err := statements.Call(ctx, "acc-1", month)
//
//	// Later calls with the same arguments read the blob back.
//	rows, err = statements.Call(ctx, "acc-1", cache.Kw("month", month))
//
// Memo and Timed are shorthands for the memory and timed tiers:
//
//	lookup, err := autocache.Memo(sig, fetch)
//	quotes, err := autocache.Timed(time.Minute, sig, fetchQuotes)
//
// # Invalidation
//
// Invalidate removes the entry of one argument combination from every active
// tier. InvalidateAll clears the function's memory maps and deletes its disk
// subtree, leaving other functions under the same root untouched.
//
// # Concurrency
//
// Func is safe for concurrent use. There is no per-key locking: concurrent
// misses on the same key each run the compute function and the last write
// wins.
//
// # See Also
//
// Key derivation, filepatterns and options live in the cache package.
// Process-wide defaults from the environment are loaded by pkg/di.
package autocache
