// Package skparse parses Skript-style statements into typed expression
// trees.
//
// The engine is in package 'core', pattern matching is in 'match',
// and the standard syntax is in 'syntax'.  Package 'modules' loads
// syntax written in ECMAScript, and 'sio' serves parsing over stdio,
// WebSockets, and MQTT.  The command-line tool is cmd/skparse.
package skparse
