// Package httpd hosts the HTTP server for the configuration portal.
//
// The server does not run unconditionally: it follows the networking
// lifecycle, coming up when connectivity is announced on the event bus and
// shutting down when connectivity is lost. Route handlers are provided by
// other packages through Mount.
package httpd
