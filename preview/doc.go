// Package preview serves a live view of a playback engine over HTTP.
//
// Browsers connect to /ws and receive a JSON message per engine event;
// decoded frames arrive JPEG-encoded in the "jpeg" field (base64). Clients
// control playback by sending commands on the same socket:
//
//	{"cmd":"play"}
//	{"cmd":"jump","index":120}
//	{"cmd":"fps_up","factor":2}
//	{"cmd":"region","x1":0.1,"y1":0.2,"x2":0.4,"y2":0.6}
//
// Each client has a bounded send queue. A client that stops reading loses
// frames instead of slowing the engine down.
//
// GET /state returns the playback state and GET /frame.jpg the most recent
// frame.
package preview
