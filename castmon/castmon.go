// Package castmon is the core of the castmon receiver: it starts the
// subsystems of an AirPlay mirroring receiver, watches over them and relaunches
// them when nobody has been connected for too long.
//
// Mechanism of Operation
//
// A Supervisor owns one Server. The Server starts its subsystems in a fixed
// order: the protocol engine, the render logger, the video and audio
// renderers, the engine's listening port and finally the DNS-SD records. The
// first failure tears down everything created so far.
//
// Once started, the Server runs an event loop on the calling goroutine. The
// loop listens to a one-second tick, SIGINT, SIGTERM and the video renderer's
// own event channel. Every tick without an open connection counts one idle
// second; when the idle seconds reach the configured timeout, the loop stops
// and asks for a relaunch. Signals stop the loop without a relaunch.
//
// The protocol engine reports connections and frames through a Listener bound
// to the runtime state of the current run. That state is dropped on Stop and
// created again on the next Start, so nothing but the configuration survives
// a relaunch.
//
// Every state change is written as an Event into a Journaler. Package journal
// provides journalers writing line-delimited JSON, human-readable lines, or
// both.
package castmon
