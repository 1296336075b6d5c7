// Package startup registers timelens to launch when the user logs in.
package startup

const appName = "timelens"
