// Package sitemirror mirrors a dynamically served website into a static file
// tree. Internal links and resource references are rewritten so they resolve
// on hosts without server-side routing, and the rewritten references drive the
// discovery of further pages to mirror.
//
// This package contains domain types and interfaces following Ben Johnson's
// Standard Package Layout. Implementations live in subdirectories named
// after their primary dependency (e.g., goquery/, css/, http/, fs/).
package sitemirror
