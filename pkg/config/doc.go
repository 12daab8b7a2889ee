// Package config loads the build policy for an AppDir.
//
// The policy is layered the same way every time: embedded TOML defaults,
// then the INI policy file (AppDirBuilder.ini), then APPDIRBUILDER_* environment
// variables. The merged result is decoded into an immutable Policy value.
package config
