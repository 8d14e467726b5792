// Command server runs the greenbond API: HTTP/JSON on the endpoint address
// and the gRPC health service on the gRPC address.
//
// Configuration is read from defaults, an optional JSON file (-c), the
// environment (.env supported) and flags, in that order. See
// internal/server/config.
package main
