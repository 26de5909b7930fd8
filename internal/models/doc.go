// Package models defines the data passed between the catalogs and the match engine.
//
//   - [ReferenceTrack] : a track as known by the source catalog (Spotify playlist or local file)
//   - [Format] : the download encodings a candidate may be available in
//   - [Playlist] : playlist metadata shown to the user before matching
//
// All types are plain values and are never mutated once built.
package models
