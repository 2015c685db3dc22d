// Package server exposes the search engine over HTTP.
//
// # Router Infrastructure
//
// The [Router] interface defines HTTP routing with middleware support.
//
// [Middleware] wraps handlers in reverse order (last added executes first), following the standard Go pattern.
//
// The [BasicRouter] implementation registers "METHOD /path" patterns on an [http.ServeMux].
//
// # Routes
//
//	GET  /health         liveness
//	GET  /metrics        Prometheus exposition
//	GET  /api/search     ?q= or ?song=&artist=&year=&platform=
//	GET  /api/identify   ?user=&title=&artist=
//	POST /api/identify   multipart "audio" file plus "user"
//	GET  /api/recommend  ?user=&mood=
//	GET  /api/history    ?user=&limit=
//	POST /api/history    JSON history record
//	GET  /api/stats      ?user=
//
// Errors are JSON bodies of the form {"error":{"code":..., "message":...}}. A search
// with no results is a 200 with "count": 0, and an identify with no match is a 200
// with "found": false.
package server
