// Package packager turns a fresh firmware build into versioned distribution files.
//
// A run is a fixed sequence of independently fallible steps. Every step is
// attempted, its outcome appended to the Report, and a failure only produces a
// diagnostic line: nothing is rolled back and the run always reaches the final
// listing of the output directory.
//
// Two layouts are supported, selected by whether the board type contains the
// configured marker (rak4631 by default):
//
//   - archive: the hex file is copied and renamed, and the raw binary is zipped
//     into <project>_V<version>.zip for WisToolBox.
//   - prebuilt: the zip and hex produced by the build are copied under the
//     versioned names.
package packager
