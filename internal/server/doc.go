// Package server runs the drive pool's transport servers.
//
// The HTTP API and the optional gRPC health service start together and stop
// gracefully on SIGTERM, SIGINT or SIGQUIT.
package server
