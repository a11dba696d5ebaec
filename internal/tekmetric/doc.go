// Package tekmetric is the upstream client for the Tekmetric REST API.
//
// # Authentication
//
// Tekmetric issues bearer tokens through the OAuth 2.0 client credentials grant. [TokenSource] performs
// the exchange with [clientcredentials.Config] and keeps the result in a [TokenCache]:
//   - [MemoryTokenCache] : process local, guarded by a mutex
//   - [RedisTokenCache] : shared between proxy instances
//
// Tokens without an upstream expiry are given the configured TTL. A refresh margin forces a new
// exchange shortly before a cached token expires. A 401 from any endpoint clears the cache and the
// request is retried once with a fresh token.
//
// # Requests
//
// [Client] waits on a [rate.Limiter] before every upstream call and maps failures to the sentinel
// errors of the shared package:
//   - [shared.ErrNotFound] : upstream 404
//   - [shared.ErrAuthFailed] : token exchange rejected
//   - [shared.ErrAPIRequest] : any other non-2xx status
//
// # Envelopes
//
// List endpoints answer in several shapes. [DecodeList] accepts them in a fixed priority order:
//
//	{"content": [...]}       paginated Spring page
//	{"data": [...]}          wrapped list
//	{"appointments": [...]}  appointment search
//	[...]                    bare array
//
// Anything else is an [shared.ErrUnexpectedShape].
package tekmetric
