// Package cache provides key derivation and configuration for memoized functions.
//
// # Overview
//
// A cached function is described by a Signature: its identity (namespace and
// name) and its declared parameters with defaults. Every call is bound to the
// signature the same way a positional/keyword call would be, defaults are
// applied, and the bound values are formatted through a filepattern into a Key:
//
//	<root>/<namespace segments>/<name>/<formatted filepattern>
//
// The package exports the pieces the autocache decorator composes:
//
//   - Signature, Param and Bind: explicit call signatures and argument binding
//   - KeyDeriver: builds a Key from call arguments using a filepattern
//   - Config and Option: tier selection (disk, memory, duration) and layout
//   - the error taxonomy shared by every tier
//
// # Basic Usage
//
//	sig := cache.NewSignature(cache.Arg("date"), cache.ArgDefault("limit", 10)).
//		Named("banks/starling", "transactions")
//
//	deriver, err := cache.NewKeyDeriver(sig, ".cache", nil, cache.DefaultDelimiter)
//	key, args, err := deriver.Derive(day, cache.Kw("limit", 50))
//	// key.Path() == ".cache/banks/starling/transactions/2018-11-22 00:00:00 +0000 UTC-50"
//
// # Filepatterns
//
// Without an explicit filepattern every parameter is substituted in
// declaration order and joined by the delimiter ("{date}-{limit}"). A custom
// pattern may reach into values and format them:
//
//	{date:%Y-%m-%d}    strftime pattern for time.Time values
//	{date:2006-01}     Go layout for time.Time values
//	{user.ID}          exported field, string map key or zero-argument method
//	{ids[0]}           slice, array or map index
//	{n:04d} {x:.2f}    numeric width, fill, alignment, precision and type
//
// Values implementing KeyFormatter render themselves. Unknown fields, invalid
// specs and type mismatches fail the call with a *FormatError.
//
// # Error Handling
//
// Every error is returned to the caller and can be matched with errors.As or
// with the sentinels through errors.Is:
//
//   - *ConfigError (ErrConfiguration): invalid tier combination or option
//   - *BindingError (ErrBinding): arguments do not fit the signature
//   - *FormatError (ErrFormat): filepattern cannot be parsed or applied
//   - *SerializationError (ErrSerialization): value cannot be encoded
//   - *CorruptCacheError (ErrCorruptCache): stored blob cannot be decoded
//
// Filesystem errors are returned unwrapped.
//
// # See Also
//
// The autocache package wraps functions with these keys and the cache tiers.
package cache
