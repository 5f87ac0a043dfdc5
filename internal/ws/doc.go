// Package ws streams dashboard stats to browser clients over WebSocket.
//
// Each client may pass the same search and category parameters the REST
// stats endpoint takes (/ws/stream?search=pc&dept=IT); it then receives
// stats for its own filtered view. A client gets one message on connect,
// one whenever a new snapshot is installed, and one every broadcast
// interval as a heartbeat.
package ws
