// Package tasks orchestrates the provider adapters into the operations the CLI and server expose.
//
// # Search
//
// [SearchEngine.SearchAll] fans a [models.Query] out to every provider (or
// only the one named by its platform) concurrently. Each call runs under its
// own timeout, and a failing or panicking provider never cancels its
// siblings. Results are concatenated in provider order and de-duplicated by
// lowercase title and artist, so earlier providers win ties.
//
// [SearchEngine.FirstMatch] instead walks [FirstMatchOrder] one provider at a
// time and stops at the first hit.
//
// # Recommendations
//
// [Analyze] reduces recent history to a [models.SignalSet]. [Recommender]
// then runs up to five strategies concurrently:
//
//  1. Artist (one per top artist, up to three): top tracks plus one track from each of two related artists
//  2. Genre: provider seed genres mapped from free-text genres, tuned by mood when given
//  3. Mood: audio-feature targets seeded by the top artist or two mood genres
//
// Candidates are scored in that order, de-duplicated keeping the first
// occurrence (not the highest score), sorted by score and cut to ten. Token
// failure, an empty merge or a panic yields [Fallback] instead.
//
// # Progress Reporting
//
// Operations accept an optional progress channel. Updates are sent with a
// non-blocking select, so a slow or absent reader never stalls a request.
//
// # Identify
//
// [Identifier] turns a recognized or typed title and artist into a
// [IdentifyResult] and appends it to the user's history.
package tasks
