// Package services implements the outbound HTTP clients used by the analysis pipeline.
//
// # Catalog
//
// [SpotifyClient] implements [Catalog] over the Spotify Web API. It holds no
// credentials: the bearer token supplied by the caller is attached to every
// request and never stored or logged.
//
// Playlist tracks are read page by page through [SpotifyClient.TrackPages], an
// [iter.Seq2] that follows the provider's continuation cursor. Audio features
// are requested in windows of at most [MaxFeatureBatch] ids.
//
// # Authentication
//
// [Authenticator] runs the authorization-code login with [golang.org/x/oauth2].
// [ValidateState] is checked before any token exchange.
//
// # Text generation
//
// [GeminiClient] and [OllamaClient] implement [TextGenerator]; both constrain
// the response to a [Schema].
//
// # Error Handling
//
//   - [shared.ErrNotAuthenticated] : no bearer token supplied
//   - [shared.UpstreamError] : catalog request failed, carries the upstream status
//   - [shared.ErrTokenExchangeFailed] : code exchange failed
//   - [shared.ErrGeneratorFailed] : text generation request failed
//
// Nothing is retried. Calls may be paced by a shared [rate.Limiter] (see [NewLimiter]).
package services
