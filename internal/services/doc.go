// Package services adapts external music APIs to [Provider], a common search
// contract producing [models.Track] records.
//
// # Providers
//
//   - [SpotifyService] : Web API with an app token from the client-credentials grant
//   - [YouTubeService] : Data API v3; durations need a second /videos call
//   - [AppleService] : public iTunes Search API
//   - [YandexService] : synthesized search-page record, plus a best-effort [Resolver]
//
// Every adapter takes [Options] so tests can point it at an httptest server
// and production can share one rate limiter per provider.
//
// # Failure Contract
//
// Search never returns an error. Transport errors, non-2xx statuses and token
// failures are logged at warn level and surfaced as a [Result] whose
// [Result.Outcome] is [OutcomeFailed]. An empty successful search is [OutcomeEmpty].
// Callers can tell the two apart but never have to handle a raw error.
//
// Errors carried in a Result wrap sentinels from the shared package:
//   - [shared.ErrMissingCredentials] : provider not configured
//   - [shared.ErrAuthFailed] : token endpoint rejected the credentials
//   - [shared.ErrAPIRequest] : non-2xx response
//   - [shared.ErrServiceUnavailable] : transport failure
//   - [shared.ErrRateLimited] : limiter wait aborted by context
//
// # Tokens
//
// [ClientCredentials] wraps an oauth2 token source that caches the token until expiry.
//
// # Recognition
//
// [ACRCloud] implements [Recognizer], turning an audio sample into a title and artist.
package services
