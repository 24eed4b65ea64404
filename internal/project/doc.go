// Package project reads the Arduino project configuration (.vscode/arduino.json)
// that names the sketch, the target board and the firmware version.
//
// Every key is looked up independently. A missing file, a malformed document or
// a missing key never fails the load: the affected key falls back to a fixed
// default and the substitution is reported as a Fallback.
package project
