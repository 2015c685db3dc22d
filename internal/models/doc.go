// Package models defines the records that flow between soundmatch's providers,
// orchestrators and delivery surfaces.
//
//   - [Platform] : closed set of music platforms a record can originate from
//   - [Track] : canonical unit produced by every provider adapter
//   - [Recommendation] : a [Track] with a match score and a provenance reason
//   - [Query] : canonical search intent {song, artist, year, platform}
//   - [HistoryRecord] : one entry of a user's listening history
//   - [SignalSet] : top artists and genres derived from recent history
//
// Tracks and recommendations live for a single request; only history records are persisted.
package models
