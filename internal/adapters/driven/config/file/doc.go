// Package file provides file-based implementations of driven port interfaces.
//
// Adapters:
//   - ConfigStore: TOML-based configuration storage
//   - ConfigWatcher: reloads the ConfigStore when the file is edited
package file
