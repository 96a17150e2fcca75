// Package storage maps downloaded resources onto the local filesystem.
//
// Files are laid out as <root>/<kind>s/<peerID>/<filename>, where filename is
// the basename of the resource URL path without its query string. Writes go to
// a .part file first and are renamed into place, so a file under its final
// name is always complete.
package storage
