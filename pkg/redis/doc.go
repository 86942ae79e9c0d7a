// Package redis opens the shared Redis client.
//
// Redis serves as the durable half of the dual session store (the other
// half is the in-process memory cache) and as the target of the nightly
// expired-session sweep. Open validates the URL scheme, applies pool and
// timeout settings through options, and pings before returning.
package redis
