// Package http implements the REST API of the drive pool.
//
// It wires routes, request handlers and middleware. Authentication, trace
// IDs, access logging, response compression and throttling of public share
// links are handled here before requests reach the service layer. File
// bodies are streamed straight through in both directions.
package http
